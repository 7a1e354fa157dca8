package markov

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/CTAG07/mpg/pkg/kmer"
	"gonum.org/v1/gonum/floats"
)

// seedStream is the fixed PCG stream selector paired with user seeds.
const seedStream = 0x9e3779b97f4a7c15

// Generator samples sequences from a snapshot of a fitted Model. Later
// changes to the source model do not affect an existing Generator.
//
// A Generator owns its random source and must not be used concurrently.
// Independent Generators may run in parallel.
type Generator struct {
	k        int
	mask     kmer.Hash
	codec    *kmer.Codec
	emission [][kmer.AlphabetSize]float64 // cumulative, one row per context
	initial  []float64                    // cumulative stationary distribution
	src      *rand.PCG
	rng      *rand.Rand
	burnIn   int
	logger   *slog.Logger
}

// generatorOptions is used by NewGenerator to configure default options.
type generatorOptions struct {
	seed        uint64
	seeded      bool
	temperature float64
	burnIn      int
	logger      *slog.Logger
}

// GeneratorOption is a function that configures a Generator.
type GeneratorOption func(*generatorOptions)

// WithSeed makes the Generator's random stream reproducible. Without it a
// random seed is used.
func WithSeed(seed uint64) GeneratorOption {
	return func(o *generatorOptions) {
		o.seed = seed
		o.seeded = true
	}
}

// WithTemperature adjusts the randomness of symbol selection.
// A value of 1.0 samples the fitted emission probabilities.
// Values > 1.0 flatten each row, values < 1.0 sharpen it.
// A value of 0 or less always picks the most probable symbol.
func WithTemperature(t float64) GeneratorOption {
	return func(o *generatorOptions) { o.temperature = t }
}

// WithBurnIn discards n sampled transitions after the initial context is
// drawn and before any output is produced. It has no effect on sequences
// shorter than k.
func WithBurnIn(n int) GeneratorOption {
	return func(o *generatorOptions) { o.burnIn = n }
}

// WithGeneratorLogger sets the logger. By default, all logs are discarded.
func WithGeneratorLogger(logger *slog.Logger) GeneratorOption {
	return func(o *generatorOptions) { o.logger = logger }
}

// NewGenerator snapshots the probabilities and stationary distribution of a
// fitted model. It returns ErrNotFit for unfit models.
func NewGenerator(m *Model, opts ...GeneratorOption) (*Generator, error) {
	if m.State() != Fit {
		return nil, ErrNotFit
	}
	options := &generatorOptions{
		temperature: 1.0,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.burnIn < 0 {
		return nil, fmt.Errorf("markov: burn-in must not be negative, got %d", options.burnIn)
	}

	g := &Generator{
		k:        m.k,
		mask:     m.mask,
		codec:    m.codec,
		emission: make([][kmer.AlphabetSize]float64, len(m.probs)),
		initial:  make([]float64, len(m.pi)),
		burnIn:   options.burnIn,
		logger:   options.logger,
	}
	if g.logger == nil {
		g.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	for ctx, row := range m.probs {
		g.emission[ctx] = cumulativeRow(row, options.temperature)
	}
	floats.CumSum(g.initial, m.pi)

	if options.seeded {
		g.src = rand.NewPCG(options.seed, seedStream)
	} else {
		g.src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	g.rng = rand.New(g.src)
	return g, nil
}

// cumulativeRow applies the temperature to a probability row and returns
// its running sums.
func cumulativeRow(p [kmer.AlphabetSize]float64, temperature float64) [kmer.AlphabetSize]float64 {
	var w [kmer.AlphabetSize]float64
	switch {
	case temperature <= 0: // Deterministic
		best := 0
		for a := range p {
			if p[a] > p[best] {
				best = a
			}
		}
		w[best] = 1
	case temperature == 1.0:
		w = p
	default:
		for a, x := range p {
			if x > 0 {
				w[a] = math.Pow(x, 1/temperature)
			}
		}
	}
	var cum [kmer.AlphabetSize]float64
	var total float64
	for a, x := range w {
		total += x
		cum[a] = total
	}
	return cum
}

// Order returns the k of the snapshotted model.
func (g *Generator) Order() int { return g.k }

// Reseed resets the random stream so the following calls are reproducible.
func (g *Generator) Reseed(seed uint64) {
	g.src.Seed(seed, seedStream)
}
