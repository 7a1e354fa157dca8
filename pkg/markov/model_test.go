package markov

import (
	"errors"
	"testing"

	"github.com/CTAG07/mpg/pkg/kmer"
)

func TestNew(t *testing.T) {
	testCases := []struct {
		name      string
		k         int
		opts      []Option
		expectErr error
		contexts  int
	}{
		{name: "Order 1", k: 1, contexts: 4},
		{name: "Order 3", k: 3, contexts: 64},
		{name: "Custom alphabet", k: 2, opts: []Option{WithAlphabet("ugca")}, contexts: 16},
		{name: "Order 0", k: 0, expectErr: kmer.ErrInvalidOrder},
		{name: "Order too large", k: kmer.MaxOrder + 1, expectErr: kmer.ErrInvalidOrder},
		{name: "Short alphabet", k: 1, opts: []Option{WithAlphabet("ACG")}, expectErr: kmer.ErrInvalidAlphabet},
		{name: "Duplicate symbols", k: 1, opts: []Option{WithAlphabet("AACG")}, expectErr: kmer.ErrInvalidAlphabet},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := New(tc.k, tc.opts...)
			if tc.expectErr != nil {
				if !errors.Is(err, tc.expectErr) {
					t.Fatalf("New() error = %v, want %v", err, tc.expectErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() unexpected error = %v", err)
			}
			if m.Contexts() != tc.contexts {
				t.Errorf("Contexts() = %d, want %d", m.Contexts(), tc.contexts)
			}
			if m.State() != Unfit {
				t.Errorf("State() = %v, want %v", m.State(), Unfit)
			}
			if m.Order() != tc.k {
				t.Errorf("Order() = %d, want %d", m.Order(), tc.k)
			}
		})
	}
}

func TestNewFromCounts(t *testing.T) {
	counts := uniformCounts(1, [4]uint64{1, 2, 3, 4})
	m, err := NewFromCounts(1, counts)
	if err != nil {
		t.Fatalf("NewFromCounts() error = %v", err)
	}
	counts[0][0] = 100
	if got := m.Count(0, 0); got != 1 {
		t.Errorf("Count(0, 0) = %d, want 1; counts must be copied", got)
	}

	_, err = NewFromCounts(2, uniformCounts(1, [4]uint64{}))
	if !errors.Is(err, ErrSchema) {
		t.Errorf("NewFromCounts() with wrong row count error = %v, want %v", err, ErrSchema)
	}
}

func TestModelStateMachine(t *testing.T) {
	m := newTrainedModel(t, 2, []string{craftedSequence})

	if _, err := m.Probabilities(); !errors.Is(err, ErrNotFit) {
		t.Errorf("Probabilities() before Fit error = %v, want %v", err, ErrNotFit)
	}
	if _, err := m.Stationary(); !errors.Is(err, ErrNotFit) {
		t.Errorf("Stationary() before Fit error = %v, want %v", err, ErrNotFit)
	}
	if _, err := m.TransitionMatrix(); !errors.Is(err, ErrNotFit) {
		t.Errorf("TransitionMatrix() before Fit error = %v, want %v", err, ErrNotFit)
	}

	if err := m.Fit(); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if m.State() != Fit {
		t.Fatalf("State() = %v, want %v", m.State(), Fit)
	}

	if err := m.AccumulateString("ACGT"); !errors.Is(err, ErrModelFit) {
		t.Errorf("Accumulate() on fitted model error = %v, want %v", err, ErrModelFit)
	}
	if _, err := m.Prune(1); !errors.Is(err, ErrModelFit) {
		t.Errorf("Prune() on fitted model error = %v, want %v", err, ErrModelFit)
	}

	m.Reset()
	if m.State() != Unfit {
		t.Errorf("State() after Reset = %v, want %v", m.State(), Unfit)
	}
	if total := m.Stats().TotalTransitions; total != 0 {
		t.Errorf("TotalTransitions after Reset = %d, want 0", total)
	}
	if _, err := m.Probabilities(); !errors.Is(err, ErrNotFit) {
		t.Errorf("Probabilities() after Reset error = %v, want %v", err, ErrNotFit)
	}
	if err := m.AccumulateString("ACGT"); err != nil {
		t.Errorf("Accumulate() after Reset error = %v", err)
	}
}

func TestCountsIsCopy(t *testing.T) {
	m := newTrainedModel(t, 1, []string{"AC"})
	counts := m.Counts()
	counts[0][1] = 42
	if got := m.Count(0, 1); got != 1 {
		t.Errorf("Count(A, C) = %d, want 1", got)
	}
}
