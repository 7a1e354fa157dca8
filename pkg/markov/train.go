package markov

import (
	"errors"
	"io"
	"log/slog"

	"github.com/CTAG07/mpg/pkg/kmer"
)

// isAmbiguous reports whether b separates training fragments.
func isAmbiguous(b byte) bool {
	return b == 'N' || b == 'n'
}

// Accumulate counts the transitions of seq into the model. The sequence is
// split on runs of the ambiguous base N and fragments shorter than k are
// skipped, so ambiguous regions never contribute transitions. Counts add up
// across calls; Accumulate fails with ErrModelFit once the model is fitted.
func (m *Model) Accumulate(seq []byte) error {
	if m.state == Fit {
		return ErrModelFit
	}

	var fragments, transitions int
	start := 0
	for i := 0; i <= len(seq); i++ {
		if i < len(seq) && !isAmbiguous(seq[i]) {
			continue
		}
		if i-start >= m.k {
			transitions += m.accumulateFragment(seq[start:i])
			fragments++
		}
		start = i + 1
	}

	m.logger.Debug("Sequence accumulated",
		slog.Int("length", len(seq)),
		slog.Int("fragments", fragments),
		slog.Int("transitions", transitions),
	)
	return nil
}

// AccumulateString is a convenience wrapper around Accumulate.
func (m *Model) AccumulateString(seq string) error {
	return m.Accumulate([]byte(seq))
}

// accumulateFragment counts the consecutive hash pairs of an N-free fragment.
func (m *Model) accumulateFragment(fragment []byte) int {
	stream := kmer.NewStream(fragment, m.k, m.codec)
	prev, err := stream.Next()
	if errors.Is(err, io.EOF) {
		return 0
	}
	var n int
	for {
		next, err := stream.Next()
		if err != nil {
			return n
		}
		m.counts[prev][next&3]++
		prev = next
		n++
	}
}
