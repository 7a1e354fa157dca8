package markov

import (
	"sort"

	"github.com/CTAG07/mpg/pkg/kmer"
)

// ModelStats holds aggregated statistics for a single Markov model.
type ModelStats struct {
	Order               int    // The model order k.
	Contexts            int    // The size of the context space, 4^k.
	ObservedContexts    int    // The number of contexts with at least one outgoing transition.
	DistinctTransitions int    // The number of non-zero context->symbol cells.
	TotalTransitions    uint64 // The sum of all counts; the total number of trained transitions.
}

// ContextCount is a context together with how often it was observed as the
// source of a transition.
type ContextCount struct {
	Kmer  string
	Hash  kmer.Hash
	Count uint64
}

// Stats returns a snapshot of the model's count statistics.
func (m *Model) Stats() ModelStats {
	stats := ModelStats{
		Order:    m.k,
		Contexts: len(m.counts),
	}
	for _, row := range m.counts {
		var sum uint64
		for _, c := range row {
			if c > 0 {
				stats.DistinctTransitions++
			}
			sum += c
		}
		if sum > 0 {
			stats.ObservedContexts++
		}
		stats.TotalTransitions += sum
	}
	return stats
}

// TopContexts returns up to n observed contexts ordered by their row sums,
// highest first. Ties are broken by hash. n <= 0 returns every observed
// context.
func (m *Model) TopContexts(n int) []ContextCount {
	var out []ContextCount
	for ctx, row := range m.counts {
		var sum uint64
		for _, c := range row {
			sum += c
		}
		if sum == 0 {
			continue
		}
		out = append(out, ContextCount{Hash: kmer.Hash(ctx), Count: sum})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Hash < out[j].Hash
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	for i := range out {
		out[i].Kmer = m.codec.Decode(out[i].Hash, m.k)
	}
	return out
}
