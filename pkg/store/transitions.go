package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/CTAG07/mpg/pkg/kmer"
	"github.com/CTAG07/mpg/pkg/markov"
)

// SaveModel stores the counts of m under name, replacing any counts already
// stored for that name. The stored order and alphabet follow m.
func (s *Store) SaveModel(ctx context.Context, name string, m *markov.Model) (ModelInfo, error) {
	return s.writeModel(ctx, name, m, true)
}

// MergeModel adds the counts of m to the model stored under name, creating
// it if needed. It returns ErrIncompatible if the stored model has a
// different order or alphabet.
func (s *Store) MergeModel(ctx context.Context, name string, m *markov.Model) (ModelInfo, error) {
	return s.writeModel(ctx, name, m, false)
}

func (s *Store) writeModel(ctx context.Context, name string, m *markov.Model, replace bool) (ModelInfo, error) {
	info := ModelInfo{
		Name:     name,
		Order:    m.Order(),
		Alphabet: m.Alphabet().String(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	var storedOrder int
	var storedAlphabet string
	err = tx.StmtContext(ctx, s.stmtGetModelInfo).QueryRowContext(ctx, name).Scan(&info.Id, &storedOrder, &storedAlphabet)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if info, err = insertModel(ctx, tx.StmtContext(ctx, s.stmtAddModel), info); err != nil {
			return ModelInfo{}, err
		}
	case err != nil:
		return ModelInfo{}, fmt.Errorf("failed to look up model %q: %w", name, err)
	case replace:
		if _, err := tx.StmtContext(ctx, s.stmtUpdateModel).ExecContext(ctx, info.Order, info.Alphabet, info.Id); err != nil {
			return ModelInfo{}, fmt.Errorf("failed to update model %q: %w", name, err)
		}
		if _, err := tx.StmtContext(ctx, s.stmtClearCounts).ExecContext(ctx, info.Id); err != nil {
			return ModelInfo{}, fmt.Errorf("failed to clear model %q: %w", name, err)
		}
	case storedOrder != info.Order || storedAlphabet != info.Alphabet:
		return ModelInfo{}, fmt.Errorf("%w: %q is order %d over %s, got order %d over %s",
			ErrIncompatible, name, storedOrder, storedAlphabet, info.Order, info.Alphabet)
	}

	stmt := tx.StmtContext(ctx, s.stmtAddCount)
	if replace {
		stmt = tx.StmtContext(ctx, s.stmtSetCount)
	}
	var cells int
	for ctxHash, row := range m.Counts() {
		for symbol, c := range row {
			if c == 0 {
				continue
			}
			if c > math.MaxInt64 {
				return ModelInfo{}, fmt.Errorf("count %d for context %d overflows the database", c, ctxHash)
			}
			if _, err := stmt.ExecContext(ctx, info.Id, ctxHash, symbol, int64(c)); err != nil {
				return ModelInfo{}, fmt.Errorf("failed to write transition (%d, %d): %w", ctxHash, symbol, err)
			}
			cells++
		}
	}

	if err := tx.Commit(); err != nil {
		return ModelInfo{}, fmt.Errorf("could not commit transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Model stored",
		slog.String("model_name", info.Name),
		slog.Int("model_id", info.Id),
		slog.Int("order", info.Order),
		slog.Bool("merged", !replace),
		slog.Int("transitions", cells),
	)
	return info, nil
}

// LoadModel reads the counts of a stored model into a new, unfit
// markov.Model. The stored alphabet takes precedence over any alphabet in
// opts.
func (s *Store) LoadModel(ctx context.Context, info ModelInfo, opts ...markov.Option) (*markov.Model, error) {
	if err := kmer.ValidateOrder(info.Order); err != nil {
		return nil, fmt.Errorf("model %q: %w", info.Name, err)
	}
	counts := make([][kmer.AlphabetSize]uint64, kmer.Size(info.Order))

	rows, err := s.stmtGetCounts.QueryContext(ctx, info.Id)
	if err != nil {
		return nil, fmt.Errorf("could not query transitions for model %d: %w", info.Id, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	for rows.Next() {
		var hash, symbol int
		var frequency int64
		if err := rows.Scan(&hash, &symbol, &frequency); err != nil {
			return nil, err
		}
		if hash < 0 || hash >= len(counts) || symbol < 0 || symbol >= kmer.AlphabetSize || frequency < 0 {
			return nil, fmt.Errorf("%w: model %q has invalid transition (%d, %d, %d)",
				markov.ErrSchema, info.Name, hash, symbol, frequency)
		}
		counts[hash][symbol] = uint64(frequency)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	opts = append(opts, markov.WithAlphabet(info.Alphabet))
	m, err := markov.NewFromCounts(info.Order, counts, opts...)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", info.Name, err)
	}
	return m, nil
}

// PruneModel removes all transitions from a specific model that have a
// frequency less than or equal to minFreq. This is useful for reducing the
// size of a model by removing rare, and often noisy, transitions.
func (s *Store) PruneModel(ctx context.Context, model ModelInfo, minFreq int64) (int64, error) {
	res, err := s.stmtPruneModel.ExecContext(ctx, model.Id, minFreq)
	if err != nil {
		return 0, fmt.Errorf("could not prune model %d: %w", model.Id, err)
	}
	rowsAffected, _ := res.RowsAffected()

	s.logger.InfoContext(ctx, "Model pruned",
		slog.String("model_name", model.Name),
		slog.Int("model_id", model.Id),
		slog.Int64("min_frequency", minFreq),
		slog.Int64("transitions_removed", rowsAffected),
	)
	return rowsAffected, nil
}
