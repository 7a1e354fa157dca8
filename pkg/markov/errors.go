package markov

import (
	"errors"
	"fmt"
)

var (
	// ErrModelFit is returned when counts are mutated on a fitted model.
	// Call Reset to start a new fit.
	ErrModelFit = errors.New("markov: model is fitted; counts are frozen")
	// ErrNotFit is returned when derived quantities are requested before Fit.
	ErrNotFit = errors.New("markov: model has not been fitted")
	// ErrDataSufficiency is returned when the training data cannot support a
	// well-defined chain, e.g. a context that was never observed.
	ErrDataSufficiency = errors.New("markov: insufficient training data")
	// ErrNoConvergence is returned when the stationary distribution solver
	// does not converge. Retrying with the same parameters is futile.
	ErrNoConvergence = errors.New("markov: stationary distribution did not converge")
	// ErrSchema is returned when a model dump does not match the expected layout.
	ErrSchema = errors.New("markov: invalid model dump")
	// ErrInvalidLength is returned for negative generation lengths.
	ErrInvalidLength = errors.New("markov: sequence length must not be negative")
)

// UnobservedContextError reports contexts whose count rows are all zero.
// It matches ErrDataSufficiency with errors.Is.
type UnobservedContextError struct {
	// Kmer is the first unobserved context.
	Kmer string
	// Missing is the total number of unobserved contexts.
	Missing int
	// Contexts is the size of the context space, 4^k.
	Contexts int
}

func (e *UnobservedContextError) Error() string {
	return fmt.Sprintf("markov: %d of %d contexts were never observed (first: %s); use a smoothing policy or more training data",
		e.Missing, e.Contexts, e.Kmer)
}

func (e *UnobservedContextError) Is(target error) bool {
	return target == ErrDataSufficiency
}
