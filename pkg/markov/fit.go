package markov

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/CTAG07/mpg/pkg/kmer"
)

// Fit freezes the counts and computes the transition probabilities, the
// full transition matrix and the stationary distribution. Fitting an
// already fitted model is a no-op. If any step fails the model stays Unfit.
func (m *Model) Fit() error {
	if m.state == Fit {
		return nil
	}

	probs, err := m.normalise()
	if err != nil {
		return err
	}
	matrix := newTransitionMatrix(m.k, probs)

	var pi []float64
	var iterations int
	solver := m.opts.solver
	switch solver {
	case SolverEigen:
		pi, err = eigenStationary(matrix)
	default:
		pi, iterations, err = powerStationary(matrix, m.opts.maxIterations, m.opts.tolerance)
		// Slowly mixing chains can stall power iteration; small ones are
		// solved directly instead.
		if errors.Is(err, ErrNoConvergence) && len(probs) <= MaxEigenStates {
			m.logger.Warn("Power iteration did not converge, using the eigen solver",
				slog.Int("order", m.k),
				slog.Int("iterations", iterations),
				slog.Any("error", err),
			)
			solver = SolverEigen
			pi, err = eigenStationary(matrix)
		}
	}
	if err != nil {
		return fmt.Errorf("stationary distribution (%s solver, k=%d): %w", solver, m.k, err)
	}

	m.probs = probs
	m.matrix = matrix
	m.pi = pi
	m.iteration = iterations
	m.state = Fit

	m.logger.Info("Model fitted",
		slog.Int("order", m.k),
		slog.String("solver", solver.String()),
		slog.String("smoothing", m.opts.smoothing.String()),
		slog.Int("iterations", iterations),
		slog.Int("nonzero_transitions", matrix.NNZ()),
	)
	return nil
}

// normalise derives the row-stochastic probability matrix according to the
// model's smoothing policy.
func (m *Model) normalise() ([][kmer.AlphabetSize]float64, error) {
	probs := make([][kmer.AlphabetSize]float64, len(m.counts))
	var missing int
	var first kmer.Hash

	for ctx, row := range m.counts {
		var sum uint64
		for _, c := range row {
			sum += c
		}

		if m.opts.smoothing == SmoothingLaplace {
			total := float64(sum + kmer.AlphabetSize)
			for a, c := range row {
				probs[ctx][a] = float64(c+1) / total
			}
			continue
		}

		if sum == 0 {
			if missing == 0 {
				first = kmer.Hash(ctx)
			}
			missing++
			for a := range probs[ctx] {
				probs[ctx][a] = 1.0 / kmer.AlphabetSize
			}
			continue
		}
		total := float64(sum)
		for a, c := range row {
			probs[ctx][a] = float64(c) / total
		}
	}

	if missing > 0 {
		if m.opts.smoothing == SmoothingNone {
			return nil, &UnobservedContextError{
				Kmer:     m.codec.Decode(first, m.k),
				Missing:  missing,
				Contexts: len(m.counts),
			}
		}
		m.logger.Warn("Unobserved contexts treated as uniform",
			slog.Int("missing", missing),
			slog.Int("contexts", len(m.counts)),
		)
	}
	return probs, nil
}

// Probabilities returns a copy of the row-stochastic transition probabilities.
func (m *Model) Probabilities() ([][kmer.AlphabetSize]float64, error) {
	if m.state != Fit {
		return nil, ErrNotFit
	}
	out := make([][kmer.AlphabetSize]float64, len(m.probs))
	copy(out, m.probs)
	return out, nil
}

// TransitionMatrix returns the full sparse transition matrix. The matrix is
// shared with the model and must not be modified.
func (m *Model) TransitionMatrix() (*TransitionMatrix, error) {
	if m.state != Fit {
		return nil, ErrNotFit
	}
	return m.matrix, nil
}

// Stationary returns a copy of the stationary distribution over contexts.
func (m *Model) Stationary() ([]float64, error) {
	if m.state != Fit {
		return nil, ErrNotFit
	}
	out := make([]float64, len(m.pi))
	copy(out, m.pi)
	return out, nil
}
