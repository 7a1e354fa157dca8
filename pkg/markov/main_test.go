package markov

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/CTAG07/mpg/pkg/kmer"
)

// craftedSequence contains every 3-mer exactly once, so with k=2 every
// context->symbol pair is observed exactly once.
const craftedSequence = "AAACAAGAATACCACGACTAGCAGGAGTATCATGATTCCCGCCTCGGCGTCTGCTTGGGTGTTTAA"

// cycleSequence only ever moves A->C->G->T->A, giving a periodic k=1 chain.
const cycleSequence = "ACGTACGTACGTACGTACGTA"

// newTrainedModel creates a model, accumulates seqs into it and fails the
// test on any error.
func newTrainedModel(t testing.TB, k int, seqs []string, opts ...Option) *Model {
	t.Helper()
	m, err := New(k, opts...)
	if err != nil {
		t.Fatalf("New(%d) error = %v", k, err)
	}
	for _, s := range seqs {
		if err := m.AccumulateString(s); err != nil {
			t.Fatalf("setup: Accumulate() failed: %v", err)
		}
	}
	return m
}

// newFittedModel is a convenience helper that also fits the model.
func newFittedModel(t testing.TB, k int, seqs []string, opts ...Option) *Model {
	t.Helper()
	m := newTrainedModel(t, k, seqs, opts...)
	if err := m.Fit(); err != nil {
		t.Fatalf("setup: Fit() failed: %v", err)
	}
	return m
}

// uniformCounts returns a count matrix of order k where every row is row.
func uniformCounts(k int, row [kmer.AlphabetSize]uint64) [][kmer.AlphabetSize]uint64 {
	counts := make([][kmer.AlphabetSize]uint64, kmer.Size(k))
	for i := range counts {
		counts[i] = row
	}
	return counts
}

var (
	benchmarkCorpus []byte
	corpusOnce      sync.Once
)

// createBenchmarkCorpus builds a reproducible pseudo-random 1 MiB sequence
// with occasional N runs.
func createBenchmarkCorpus() []byte {
	corpusOnce.Do(func() {
		rng := rand.New(rand.NewPCG(1, 2))
		benchmarkCorpus = make([]byte, 1<<20)
		for i := range benchmarkCorpus {
			if rng.IntN(1000) == 0 {
				benchmarkCorpus[i] = 'N'
				continue
			}
			benchmarkCorpus[i] = kmer.DefaultSymbols[rng.IntN(kmer.AlphabetSize)]
		}
	})
	return benchmarkCorpus
}
