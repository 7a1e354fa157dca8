package markov

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/CTAG07/mpg/pkg/kmer"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const stationaryTolerance = 1e-9

// checkStochastic verifies that every probability row and the stationary
// distribution sum to 1 and that pi is a fixed point of the chain.
func checkStochastic(t *testing.T, m *Model) {
	t.Helper()
	probs, err := m.Probabilities()
	if err != nil {
		t.Fatalf("Probabilities() error = %v", err)
	}
	for ctx, row := range probs {
		if sum := floats.Sum(row[:]); math.Abs(sum-1) > stationaryTolerance {
			t.Errorf("row %d sums to %v, want 1", ctx, sum)
		}
	}

	pi, err := m.Stationary()
	if err != nil {
		t.Fatalf("Stationary() error = %v", err)
	}
	if sum := floats.Sum(pi); math.Abs(sum-1) > stationaryTolerance {
		t.Errorf("stationary distribution sums to %v, want 1", sum)
	}

	matrix, err := m.TransitionMatrix()
	if err != nil {
		t.Fatalf("TransitionMatrix() error = %v", err)
	}
	next := make([]float64, len(pi))
	matrix.MulVecLeft(next, pi)
	for i := range pi {
		if math.Abs(next[i]-pi[i]) > stationaryTolerance {
			t.Errorf("(pi P)[%d] = %v, pi[%d] = %v", i, next[i], i, pi[i])
		}
	}
}

func TestFitCrafted(t *testing.T) {
	for _, solver := range []Solver{SolverPower, SolverEigen} {
		t.Run(solver.String(), func(t *testing.T) {
			m := newFittedModel(t, 2, []string{craftedSequence}, WithSolver(solver))
			checkStochastic(t, m)

			pi, _ := m.Stationary()
			for i, p := range pi {
				if math.Abs(p-1.0/16) > stationaryTolerance {
					t.Errorf("pi[%d] = %v, want 1/16", i, p)
				}
			}
		})
	}
}

func TestFitSkewed(t *testing.T) {
	seqs := []string{"AAAAAACAAAGATTACAGATTACAGGGCCCTTTAAAATGCATGCAGTC"}
	var results [][]float64
	for _, solver := range []Solver{SolverPower, SolverEigen} {
		t.Run(solver.String(), func(t *testing.T) {
			m := newFittedModel(t, 1, seqs, WithSolver(solver))
			checkStochastic(t, m)
			pi, _ := m.Stationary()
			results = append(results, pi)
		})
	}
	if len(results) == 2 && !floats.EqualApprox(results[0], results[1], 1e-8) {
		t.Errorf("solvers disagree: power = %v, eigen = %v", results[0], results[1])
	}
}

func TestFitPeriodicChain(t *testing.T) {
	for _, solver := range []Solver{SolverPower, SolverEigen} {
		t.Run(solver.String(), func(t *testing.T) {
			m := newFittedModel(t, 1, []string{cycleSequence}, WithSolver(solver))
			checkStochastic(t, m)
			pi, _ := m.Stationary()
			for i, p := range pi {
				if math.Abs(p-0.25) > stationaryTolerance {
					t.Errorf("pi[%d] = %v, want 0.25", i, p)
				}
			}
		})
	}
}

func TestFitIdempotent(t *testing.T) {
	m := newFittedModel(t, 2, []string{craftedSequence, "ACGTTGCA"})
	pi1, _ := m.Stationary()
	probs1, _ := m.Probabilities()

	if err := m.Fit(); err != nil {
		t.Fatalf("second Fit() error = %v", err)
	}
	pi2, _ := m.Stationary()
	probs2, _ := m.Probabilities()

	if !floats.Equal(pi1, pi2) {
		t.Error("Stationary() changed between calls")
	}
	for i := range probs1 {
		if probs1[i] != probs2[i] {
			t.Fatalf("Probabilities() row %d changed between calls", i)
		}
	}
}

func TestSmoothing(t *testing.T) {
	// T is never followed by anything.
	const seq = "AACGT"

	t.Run("None", func(t *testing.T) {
		m := newTrainedModel(t, 1, []string{seq})
		err := m.Fit()
		if !errors.Is(err, ErrDataSufficiency) {
			t.Fatalf("Fit() error = %v, want %v", err, ErrDataSufficiency)
		}
		var unobserved *UnobservedContextError
		if !errors.As(err, &unobserved) {
			t.Fatalf("Fit() error %T is not an *UnobservedContextError", err)
		}
		if unobserved.Kmer != "T" || unobserved.Missing != 1 || unobserved.Contexts != 4 {
			t.Errorf("UnobservedContextError = %+v, want {T 1 4}", *unobserved)
		}
		if m.State() != Unfit {
			t.Errorf("State() after failed Fit = %v, want %v", m.State(), Unfit)
		}
	})

	t.Run("Uniform", func(t *testing.T) {
		m := newFittedModel(t, 1, []string{seq}, WithSmoothing(SmoothingUniform))
		checkStochastic(t, m)
		probs, _ := m.Probabilities()
		want := [kmer.AlphabetSize]float64{0.25, 0.25, 0.25, 0.25}
		if probs[3] != want {
			t.Errorf("row T = %v, want %v", probs[3], want)
		}
		if want := [kmer.AlphabetSize]float64{0.5, 0.5, 0, 0}; probs[0] != want {
			t.Errorf("row A = %v, want %v", probs[0], want)
		}
	})

	t.Run("Laplace", func(t *testing.T) {
		m := newFittedModel(t, 1, []string{seq}, WithSmoothing(SmoothingLaplace))
		checkStochastic(t, m)
		probs, _ := m.Probabilities()
		want := [kmer.AlphabetSize]float64{2.0 / 6, 2.0 / 6, 1.0 / 6, 1.0 / 6}
		if !floats.EqualApprox(probs[0][:], want[:], 1e-15) {
			t.Errorf("row A = %v, want %v", probs[0], want)
		}
		if want := [kmer.AlphabetSize]float64{0.25, 0.25, 0.25, 0.25}; probs[3] != want {
			t.Errorf("row T = %v, want %v", probs[3], want)
		}
	})
}

func TestFitSlowlyMixingChain(t *testing.T) {
	// Repeating the crafted sequence leaves most order-3 rows with a single
	// observed successor, so the chain mixes very slowly.
	seqs := []string{strings.Repeat(craftedSequence, 2)}

	eigen := newFittedModel(t, 3, seqs, WithSmoothing(SmoothingUniform), WithSolver(SolverEigen))
	want, _ := eigen.Stationary()

	t.Run("Default options", func(t *testing.T) {
		m := newFittedModel(t, 3, seqs, WithSmoothing(SmoothingUniform))
		checkStochastic(t, m)
		pi, _ := m.Stationary()
		if !floats.EqualApprox(pi, want, 1e-8) {
			t.Errorf("power stationary distribution differs from the eigen solution")
		}
	})

	t.Run("Falls back to the eigen solver", func(t *testing.T) {
		m := newFittedModel(t, 3, seqs, WithSmoothing(SmoothingUniform), WithMaxIterations(10))
		checkStochastic(t, m)
		pi, _ := m.Stationary()
		if !floats.EqualApprox(pi, want, 1e-12) {
			t.Errorf("fallback stationary distribution differs from the eigen solution")
		}
	})
}

func TestFitErrors(t *testing.T) {
	t.Run("Power iteration does not converge", func(t *testing.T) {
		// 4^6 contexts is above the eigen solver limit, so there is no fallback.
		m := newTrainedModel(t, 6, []string{strings.Repeat("A", 50) + "C"},
			WithSmoothing(SmoothingLaplace), WithMaxIterations(1))
		if err := m.Fit(); !errors.Is(err, ErrNoConvergence) {
			t.Errorf("Fit() error = %v, want %v", err, ErrNoConvergence)
		}
		if m.State() != Unfit {
			t.Errorf("State() after failed Fit = %v, want %v", m.State(), Unfit)
		}
	})

	t.Run("Eigen solver state limit", func(t *testing.T) {
		m := newTrainedModel(t, 6, nil, WithSmoothing(SmoothingLaplace), WithSolver(SolverEigen))
		if err := m.Fit(); !errors.Is(err, ErrDataSufficiency) {
			t.Errorf("Fit() error = %v, want %v", err, ErrDataSufficiency)
		}
	})
}

func TestTransitionMatrix(t *testing.T) {
	m := newFittedModel(t, 2, []string{craftedSequence, "AAAAAAAAAAAAAA"})
	matrix, err := m.TransitionMatrix()
	if err != nil {
		t.Fatalf("TransitionMatrix() error = %v", err)
	}
	probs, _ := m.Probabilities()

	r, c := matrix.Dims()
	if r != 16 || c != 16 {
		t.Fatalf("Dims() = (%d, %d), want (16, 16)", r, c)
	}
	if nnz := matrix.NNZ(); nnz != 64 {
		t.Errorf("NNZ() = %d, want 64", nnz)
	}

	// Row AC can only move to CA, CC, CG and CT.
	codec := m.Codec()
	ac, _ := codec.Encode("AC")
	for a := uint8(0); a < kmer.AlphabetSize; a++ {
		to := matrix.Target(ac, a)
		if got, want := codec.Decode(to, 2), "C"+string(codec.Symbol(a)); got != want {
			t.Errorf("Target(AC, %d) = %s, want %s", a, got, want)
		}
		if got := matrix.At(int(ac), int(to)); got != probs[ac][a] {
			t.Errorf("At(AC, %s) = %v, want %v", codec.Decode(to, 2), got, probs[ac][a])
		}
	}
	aa, _ := codec.Encode("AA")
	if got := matrix.At(int(ac), int(aa)); got != 0 {
		t.Errorf("At(AC, AA) = %v, want 0", got)
	}

	dense := mat.DenseCopyOf(matrix)
	x := make([]float64, r)
	for i := range x {
		x[i] = float64(i + 1)
	}
	want := mat.NewVecDense(r, nil)
	want.MulVec(dense.T(), mat.NewVecDense(r, x))

	got := make([]float64, r)
	matrix.MulVecLeft(got, x)
	if !floats.EqualApprox(got, want.RawVector().Data, 1e-12) {
		t.Errorf("MulVecLeft() = %v, want %v", got, want.RawVector().Data)
	}
}

func BenchmarkFit(b *testing.B) {
	corpus := createBenchmarkCorpus()
	m, err := New(6, WithSmoothing(SmoothingLaplace))
	if err != nil {
		b.Fatalf("New() error = %v", err)
	}
	if err := m.Accumulate(corpus); err != nil {
		b.Fatalf("Accumulate failed: %v", err)
	}
	counts := m.Counts()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fresh, _ := NewFromCounts(6, counts, WithSmoothing(SmoothingLaplace))
		if err := fresh.Fit(); err != nil {
			b.Fatalf("Fit failed: %v", err)
		}
	}
}
