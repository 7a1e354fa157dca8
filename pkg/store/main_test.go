package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/CTAG07/mpg/pkg/markov"
	_ "modernc.org/sqlite"
)

const trainingSequence = "AAACAAGAATACCACGACTAGCAGGAGTATCATGATTCCCGCCTCGGCGTCTGCTTGGGTGTTTAA"

// setupTestDB creates a new SQLite database and a Store for testing.
// It uses t.Cleanup to ensure resources are released.
func setupTestDB(t *testing.T) (*sql.DB, *Store) {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbFile+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}

	s, err := New(db)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(s.Close)

	return db, s
}

// trainedModel returns an unfit order-k model trained on seqs.
func trainedModel(t *testing.T, k int, seqs ...string) *markov.Model {
	t.Helper()
	m, err := markov.New(k)
	if err != nil {
		t.Fatalf("markov.New(%d) error = %v", k, err)
	}
	for _, seq := range seqs {
		if err := m.AccumulateString(seq); err != nil {
			t.Fatalf("setup: Accumulate() failed: %v", err)
		}
	}
	return m
}

// setupTestDBWithModel is a convenience helper that also stores a model.
func setupTestDBWithModel(t *testing.T) (context.Context, *Store, ModelInfo) {
	_, s := setupTestDB(t)
	ctx := context.Background()
	info, err := s.SaveModel(ctx, "test_model", trainedModel(t, 2, trainingSequence))
	if err != nil {
		t.Fatalf("setup: SaveModel() failed: %v", err)
	}
	return ctx, s, info
}
