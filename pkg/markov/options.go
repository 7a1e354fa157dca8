package markov

import (
	"fmt"
	"log/slog"
	"strings"
)

// Smoothing decides how contexts without observations are normalised.
type Smoothing int

const (
	// SmoothingNone fails Fit with an UnobservedContextError.
	SmoothingNone Smoothing = iota
	// SmoothingUniform treats unobserved contexts as uniform over the alphabet.
	SmoothingUniform
	// SmoothingLaplace adds one pseudo-count to every transition.
	SmoothingLaplace
)

func (s Smoothing) String() string {
	switch s {
	case SmoothingNone:
		return "none"
	case SmoothingUniform:
		return "uniform"
	case SmoothingLaplace:
		return "laplace"
	}
	return fmt.Sprintf("Smoothing(%d)", int(s))
}

// ParseSmoothing parses the names returned by Smoothing.String.
func ParseSmoothing(s string) (Smoothing, error) {
	switch strings.ToLower(s) {
	case "none", "error", "":
		return SmoothingNone, nil
	case "uniform":
		return SmoothingUniform, nil
	case "laplace", "add-one":
		return SmoothingLaplace, nil
	}
	return SmoothingNone, fmt.Errorf("unknown smoothing policy %q (none|uniform|laplace)", s)
}

// Solver selects the stationary distribution algorithm.
type Solver int

const (
	// SolverPower runs power iteration on the lazy chain (I+P)/2.
	SolverPower Solver = iota
	// SolverEigen uses a dense eigen-decomposition. Limited to MaxEigenStates.
	SolverEigen
)

func (s Solver) String() string {
	switch s {
	case SolverPower:
		return "power"
	case SolverEigen:
		return "eigen"
	}
	return fmt.Sprintf("Solver(%d)", int(s))
}

// ParseSolver parses the names returned by Solver.String.
func ParseSolver(s string) (Solver, error) {
	switch strings.ToLower(s) {
	case "power", "":
		return SolverPower, nil
	case "eigen":
		return SolverEigen, nil
	}
	return SolverPower, fmt.Errorf("unknown solver %q (power|eigen)", s)
}

const (
	// DefaultMaxIterations bounds power iteration.
	DefaultMaxIterations = 100000
	// DefaultTolerance is the L1 change below which power iteration stops.
	DefaultTolerance = 1e-12
)

// modelOptions Is used by New to collect Option values.
type modelOptions struct {
	alphabet      string
	smoothing     Smoothing
	solver        Solver
	maxIterations int
	tolerance     float64
	logger        *slog.Logger
}

func defaultModelOptions() *modelOptions {
	return &modelOptions{
		alphabet:      "ACGT",
		smoothing:     SmoothingNone,
		solver:        SolverPower,
		maxIterations: DefaultMaxIterations,
		tolerance:     DefaultTolerance,
	}
}

// Option configures a Model. It's used as a variadic argument to New.
type Option func(*modelOptions)

// WithAlphabet sets the four symbols of the model.
// Default: "ACGT"
func WithAlphabet(symbols string) Option {
	return func(o *modelOptions) { o.alphabet = symbols }
}

// WithSmoothing sets the policy for contexts that were never observed.
// Default: SmoothingNone
func WithSmoothing(s Smoothing) Option {
	return func(o *modelOptions) { o.smoothing = s }
}

// WithSolver sets the stationary distribution algorithm.
// Default: SolverPower
func WithSolver(s Solver) Option {
	return func(o *modelOptions) { o.solver = s }
}

// WithMaxIterations bounds the number of power iterations.
func WithMaxIterations(n int) Option {
	return func(o *modelOptions) { o.maxIterations = n }
}

// WithTolerance sets the convergence threshold of power iteration.
func WithTolerance(tol float64) Option {
	return func(o *modelOptions) { o.tolerance = tol }
}

// WithLogger sets the logger for the Model. By default, all logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(o *modelOptions) { o.logger = logger }
}
