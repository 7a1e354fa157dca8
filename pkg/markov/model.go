package markov

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/CTAG07/mpg/pkg/kmer"
)

// State tags whether a Model's counts are still being accumulated.
type State int

const (
	// Unfit models accept training data and have no derived quantities.
	Unfit State = iota
	// Fit models have frozen counts and eagerly computed probabilities,
	// transition matrix and stationary distribution.
	Fit
)

func (s State) String() string {
	if s == Fit {
		return "fit"
	}
	return "unfit"
}

// Model is a k-th order Markov model over a four symbol alphabet. Contexts
// are the 4^k k-mers and each context row counts the symbols seen after it.
//
// A Model is not safe for concurrent use; callers must serialise Accumulate.
type Model struct {
	k         int
	mask      kmer.Hash
	alphabet  kmer.Alphabet
	codec     *kmer.Codec
	counts    [][kmer.AlphabetSize]uint64
	state     State
	opts      *modelOptions
	logger    *slog.Logger
	probs     [][kmer.AlphabetSize]float64
	matrix    *TransitionMatrix
	pi        []float64
	iteration int
}

// New allocates an unfit model of order k with a zeroed count matrix.
func New(k int, opts ...Option) (*Model, error) {
	options := defaultModelOptions()
	for _, opt := range opts {
		opt(options)
	}
	m := &Model{opts: options}
	if err := m.init(k, options.alphabet); err != nil {
		return nil, err
	}
	m.logger = options.logger
	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return m, nil
}

// NewFromCounts builds an unfit model from an existing count matrix, which
// must have exactly 4^k rows. The counts are copied.
func NewFromCounts(k int, counts [][kmer.AlphabetSize]uint64, opts ...Option) (*Model, error) {
	m, err := New(k, opts...)
	if err != nil {
		return nil, err
	}
	if len(counts) != len(m.counts) {
		return nil, fmt.Errorf("%w: order %d needs %d count rows, got %d", ErrSchema, k, len(m.counts), len(counts))
	}
	copy(m.counts, counts)
	return m, nil
}

// init validates k and the alphabet and resets every field derived from them.
func (m *Model) init(k int, symbols string) error {
	if err := kmer.ValidateOrder(k); err != nil {
		return err
	}
	alphabet, err := kmer.NewAlphabet(symbols)
	if err != nil {
		return err
	}
	m.k = k
	m.mask = kmer.Mask(k)
	m.alphabet = alphabet
	m.codec = kmer.NewCodec(alphabet)
	m.counts = make([][kmer.AlphabetSize]uint64, kmer.Size(k))
	m.clearDerived()
	return nil
}

func (m *Model) clearDerived() {
	m.state = Unfit
	m.probs = nil
	m.matrix = nil
	m.pi = nil
	m.iteration = 0
}

// SetLogger sets the logger for the Model. By default, all logs are discarded.
func (m *Model) SetLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// Order returns k.
func (m *Model) Order() int { return m.k }

// Alphabet returns the model's alphabet in code order.
func (m *Model) Alphabet() kmer.Alphabet { return m.alphabet }

// Codec returns the codec for the model's alphabet.
func (m *Model) Codec() *kmer.Codec { return m.codec }

// State reports whether the model has been fitted.
func (m *Model) State() State { return m.state }

// Smoothing returns the zero-row policy used by Fit.
func (m *Model) Smoothing() Smoothing { return m.opts.smoothing }

// Contexts returns 4^k, the number of rows in the model.
func (m *Model) Contexts() int { return len(m.counts) }

// Count returns how often symbol code followed context.
func (m *Model) Count(context kmer.Hash, code uint8) uint64 {
	return m.counts[context][code&3]
}

// Counts returns a copy of the count matrix.
func (m *Model) Counts() [][kmer.AlphabetSize]uint64 {
	out := make([][kmer.AlphabetSize]uint64, len(m.counts))
	copy(out, m.counts)
	return out
}

// Reset zeroes every count and returns the model to Unfit.
func (m *Model) Reset() {
	clear(m.counts)
	m.clearDerived()
}
