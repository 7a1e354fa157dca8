package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ModelInfo holds the essential metadata for a stored Markov model, including
// its unique ID, name, order and alphabet.
type ModelInfo struct {
	Id       int
	Name     string
	Order    int
	Alphabet string
}

// GetModelInfos retrieves metadata for all models currently in the database,
// returning them in a map keyed by model name.
func (s *Store) GetModelInfos(ctx context.Context) (map[string]ModelInfo, error) {
	rows, err := s.stmtGetModels.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	models := make(map[string]ModelInfo)
	for rows.Next() {
		var model ModelInfo
		if err = rows.Scan(&model.Id, &model.Name, &model.Order, &model.Alphabet); err != nil {
			return nil, err
		}
		models[model.Name] = model
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return models, nil
}

// GetModelInfo retrieves the metadata for a single model specified by name.
// It returns sql.ErrNoRows if no such model exists.
func (s *Store) GetModelInfo(ctx context.Context, modelName string) (ModelInfo, error) {
	model := ModelInfo{Name: modelName}
	err := s.stmtGetModelInfo.QueryRowContext(ctx, modelName).Scan(&model.Id, &model.Order, &model.Alphabet)
	if err != nil {
		return ModelInfo{}, err
	}
	return model, nil
}

// InsertModel creates a new, empty model entry in the database and returns
// it with its id set.
func (s *Store) InsertModel(ctx context.Context, model ModelInfo) (ModelInfo, error) {
	return insertModel(ctx, s.stmtAddModel, model)
}

// insertModel runs the insert statement, which may be bound to a transaction.
func insertModel(ctx context.Context, stmt *sql.Stmt, model ModelInfo) (ModelInfo, error) {
	res, err := stmt.ExecContext(ctx, model.Name, model.Order, model.Alphabet)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("failed to insert model %q: %w", model.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ModelInfo{}, err
	}
	model.Id = int(id)
	return model, nil
}

// RemoveModel deletes a model and all of its associated transition counts
// from the database. The operation is performed within a transaction.
func (s *Store) RemoveModel(ctx context.Context, model ModelInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.StmtContext(ctx, s.stmtClearCounts).ExecContext(ctx, model.Id); err != nil {
		return fmt.Errorf("failed to remove transitions for model %d: %w", model.Id, err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM markov_models WHERE model_id = ?", model.Id); err != nil {
		return fmt.Errorf("failed to remove model %d: %w", model.Id, err)
	}

	s.logger.InfoContext(ctx, "Model removed successfully",
		slog.String("model_name", model.Name),
		slog.Int("model_id", model.Id),
	)

	return tx.Commit()
}
