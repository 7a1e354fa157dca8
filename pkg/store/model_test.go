package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func TestSetupSchemaIdempotent(t *testing.T) {
	db, _ := setupTestDB(t)
	if err := SetupSchema(db); err != nil {
		t.Errorf("second SetupSchema() error = %v", err)
	}
}

func TestInsertAndGetModelInfo(t *testing.T) {
	_, s := setupTestDB(t)
	ctx := context.Background()

	// Test success case
	modelInfo := ModelInfo{Name: "test_model", Order: 2, Alphabet: "ACGT"}
	inserted, err := s.InsertModel(ctx, modelInfo)
	if err != nil {
		t.Fatalf("InsertModel() failed: %v", err)
	}
	if inserted.Id == 0 {
		t.Errorf("InsertModel() returned no id: %+v", inserted)
	}

	m, err := s.GetModelInfo(ctx, "test_model")
	if err != nil {
		t.Errorf("GetModelInfo: expected no error, got %v", err)
	}
	if m != inserted {
		t.Errorf("got unexpected model info: %+v", m)
	}

	// Test failure case (nonexistent)
	_, err = s.GetModelInfo(ctx, "nonexistent_model")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows for nonexistent model, got %v", err)
	}

	// Test failure case (duplicate name)
	_, err = s.InsertModel(ctx, modelInfo)
	if err == nil {
		t.Errorf("expected an error when inserting a model with a duplicate name, but got nil")
	}
}

func TestGetModelInfos(t *testing.T) {
	_, s := setupTestDB(t)
	ctx := context.Background()

	_, _ = s.InsertModel(ctx, ModelInfo{Name: "test_model", Order: 2, Alphabet: "ACGT"})
	_, _ = s.InsertModel(ctx, ModelInfo{Name: "another_model", Order: 1, Alphabet: "ACGU"})

	models, err := s.GetModelInfos(ctx)
	if err != nil {
		t.Fatalf("GetModelInfos failed: %v", err)
	}
	if len(models) != 2 {
		t.Errorf("expected 2 models, got %d", len(models))
	}
	if m, ok := models["another_model"]; !ok || m.Alphabet != "ACGU" {
		t.Errorf("expected to find 'another_model' over ACGU, got %+v", m)
	}
}

func TestRemoveModel(t *testing.T) {
	ctx, s, info := setupTestDBWithModel(t)

	if err := s.RemoveModel(ctx, info); err != nil {
		t.Fatalf("RemoveModel() failed: %v", err)
	}
	if _, err := s.GetModelInfo(ctx, info.Name); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected model to be removed, got %v", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM markov_transitions WHERE model_id = ?", info.Id).Scan(&count); err != nil {
		t.Fatalf("failed to count transitions: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 transitions after removing model, got %d", count)
	}
}

func TestMergeIntoInsertedModel(t *testing.T) {
	_, s := setupTestDB(t)
	ctx := context.Background()

	inserted, err := s.InsertModel(ctx, ModelInfo{Name: "empty", Order: 2, Alphabet: "ACGT"})
	if err != nil {
		t.Fatalf("InsertModel() failed: %v", err)
	}

	info, err := s.MergeModel(ctx, "empty", trainedModel(t, 2, trainingSequence))
	if err != nil {
		t.Fatalf("MergeModel() error = %v", err)
	}
	if info.Id != inserted.Id {
		t.Errorf("MergeModel() id = %d, want the inserted id %d", info.Id, inserted.Id)
	}

	stats, err := s.GetModelStats(ctx, info)
	if err != nil {
		t.Fatalf("GetModelStats() error = %v", err)
	}
	if stats.TotalFrequency != 64 {
		t.Errorf("TotalFrequency = %d, want 64", stats.TotalFrequency)
	}

	if _, err := s.MergeModel(ctx, "empty", trainedModel(t, 3, trainingSequence)); !errors.Is(err, ErrIncompatible) {
		t.Errorf("MergeModel() with another order error = %v, want ErrIncompatible", err)
	}
}
