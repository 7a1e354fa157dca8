package store

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
)

// ErrIncompatible is returned when counts are merged into a stored model
// with a different order or alphabet.
var ErrIncompatible = errors.New("store: model order or alphabet does not match")

// Store persists the raw transition counts of named Markov models in a
// SQLite database. It holds the database connection and prepared SQL
// statements for efficient database interaction.
type Store struct {
	db                *sql.DB
	stmtGetModelInfo  *sql.Stmt
	stmtGetModels     *sql.Stmt
	stmtAddModel      *sql.Stmt
	stmtUpdateModel   *sql.Stmt
	stmtPruneModel    *sql.Stmt
	stmtModelCells    *sql.Stmt
	stmtModelFreq     *sql.Stmt
	stmtModelContexts *sql.Stmt
	stmtGetCounts     *sql.Stmt
	stmtSetCount      *sql.Stmt
	stmtAddCount      *sql.Stmt
	stmtClearCounts   *sql.Stmt
	logger            *slog.Logger
}

// New creates and returns a new Store. It pre-compiles all necessary SQL
// statements, returning an error if any preparation fails. SetupSchema must
// have been called on db first.
func New(db *sql.DB) (*Store, error) {
	s := &Store{
		db:     db,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	statements := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&s.stmtGetModelInfo, `SELECT model_id, model_order, alphabet FROM markov_models WHERE model_name = ?;`},
		{&s.stmtGetModels, `SELECT model_id, model_name, model_order, alphabet FROM markov_models ORDER BY model_name;`},
		{&s.stmtAddModel, `INSERT INTO markov_models (model_name, model_order, alphabet) VALUES (?, ?, ?);`},
		{&s.stmtUpdateModel, `UPDATE markov_models SET model_order = ?, alphabet = ? WHERE model_id = ?;`},
		{&s.stmtPruneModel, `DELETE FROM markov_transitions WHERE model_id = ? AND frequency <= ?;`},
		{&s.stmtModelCells, `SELECT COUNT(*) FROM markov_transitions WHERE model_id = ?;`},
		{&s.stmtModelFreq, `SELECT coalesce(SUM(frequency), 0) FROM markov_transitions WHERE model_id = ?;`},
		{&s.stmtModelContexts, `SELECT COUNT(DISTINCT context) FROM markov_transitions WHERE model_id = ?;`},
		{&s.stmtGetCounts, `SELECT context, symbol, frequency FROM markov_transitions WHERE model_id = ?;`},
		{&s.stmtSetCount, `INSERT INTO markov_transitions (model_id, context, symbol, frequency) VALUES (?, ?, ?, ?);`},
		{&s.stmtAddCount, `INSERT INTO markov_transitions (model_id, context, symbol, frequency) VALUES (?, ?, ?, ?) ON CONFLICT (model_id, context, symbol) DO UPDATE SET frequency = frequency + excluded.frequency;`},
		{&s.stmtClearCounts, `DELETE FROM markov_transitions WHERE model_id = ?;`},
	}
	for _, st := range statements {
		stmt, err := db.Prepare(st.query)
		if err != nil {
			s.Close()
			return nil, err
		}
		*st.dst = stmt
	}
	return s, nil
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Close releases the prepared statements. It does not close the database.
func (s *Store) Close() {
	for _, stmt := range []*sql.Stmt{
		s.stmtGetModelInfo,
		s.stmtGetModels,
		s.stmtAddModel,
		s.stmtUpdateModel,
		s.stmtPruneModel,
		s.stmtModelCells,
		s.stmtModelFreq,
		s.stmtModelContexts,
		s.stmtGetCounts,
		s.stmtSetCount,
		s.stmtAddCount,
		s.stmtClearCounts,
	} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
}
