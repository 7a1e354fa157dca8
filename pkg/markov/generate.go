package markov

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/CTAG07/mpg/pkg/kmer"
)

// chunkSize is the number of symbols buffered before they are handed to
// the output during generation.
const chunkSize = 64 << 10

// Generate samples a sequence of exactly length symbols, continuing the
// Generator's current random stream.
//
// The first k symbols are the decoded initial context, drawn from the
// stationary distribution. Each following symbol is drawn from the current
// context's emission row. If length < k, the result is the first length
// symbols of the initial context and no transition is sampled.
func (g *Generator) Generate(length int) (string, error) {
	if length < 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	var sb strings.Builder
	sb.Grow(length)
	err := g.generate(context.Background(), length, func(chunk []byte) error {
		sb.Write(chunk)
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// GenerateSeeded reseeds the random stream and then calls Generate. The
// result depends only on the snapshotted model, seed and length.
func (g *Generator) GenerateSeeded(length int, seed uint64) (string, error) {
	g.Reseed(seed)
	return g.Generate(length)
}

// generate holds the core sampling loop. emit receives consecutive chunks of
// the sequence; the chunk buffer is reused after emit returns.
func (g *Generator) generate(ctx context.Context, length int, emit func([]byte) error) error {
	if length < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	if length == 0 {
		return nil
	}

	state := g.drawInitial()

	if length <= g.k {
		head := make([]byte, g.k)
		g.codec.DecodeTo(head, state)
		return emit(head[:length])
	}

	for i := 0; i < g.burnIn; i++ {
		state = g.step(state)
	}

	buf := make([]byte, g.k, min(length, max(chunkSize, g.k)))
	g.codec.DecodeTo(buf, state)

	for produced := g.k; produced < length; produced++ {
		if len(buf) == cap(buf) {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := emit(buf); err != nil {
				return err
			}
			buf = buf[:0]
		}
		code := g.sample(state)
		buf = append(buf, g.codec.Symbol(code))
		state = (state<<2 | kmer.Hash(code)) & g.mask
	}

	if err := emit(buf); err != nil {
		return err
	}
	g.logger.Debug("Sequence generated",
		slog.Int("length", length),
		slog.Int("burn_in", g.burnIn),
	)
	return nil
}

// drawInitial samples a context index from the stationary distribution.
func (g *Generator) drawInitial() kmer.Hash {
	last := len(g.initial) - 1
	u := g.rng.Float64() * g.initial[last]
	i := sort.Search(len(g.initial), func(i int) bool { return g.initial[i] > u })
	if i > last {
		i = last
	}
	return kmer.Hash(i)
}

// sample draws the next symbol code for the given context. Symbols with zero
// probability are never chosen because their cumulative value equals the
// previous one.
func (g *Generator) sample(state kmer.Hash) uint8 {
	cum := &g.emission[state]
	u := g.rng.Float64() * cum[kmer.AlphabetSize-1]
	for a := 0; a < kmer.AlphabetSize-1; a++ {
		if cum[a] > u {
			return uint8(a)
		}
	}
	return kmer.AlphabetSize - 1
}

// step advances the chain by one sampled transition without emitting it.
func (g *Generator) step(state kmer.Hash) kmer.Hash {
	return (state<<2 | kmer.Hash(g.sample(state))) & g.mask
}
