package markov

import (
	"log/slog"
)

// Prune zeroes every transition count less than or equal to minFreq. This is
// useful for removing rare, and often noisy, transitions before fitting.
// Pruning can leave contexts unobserved, so it is usually combined with a
// smoothing policy. It returns the number of cells cleared and fails with
// ErrModelFit on a fitted model.
func (m *Model) Prune(minFreq uint64) (int, error) {
	if m.state == Fit {
		return 0, ErrModelFit
	}

	var removed int
	for ctx := range m.counts {
		row := &m.counts[ctx]
		for a, c := range row {
			if c > 0 && c <= minFreq {
				row[a] = 0
				removed++
			}
		}
	}

	m.logger.Info("Model pruned",
		slog.Int("order", m.k),
		slog.Uint64("min_frequency", minFreq),
		slog.Int("transitions_removed", removed),
	)
	return removed, nil
}
