package markov

import (
	"github.com/CTAG07/mpg/pkg/kmer"
	"gonum.org/v1/gonum/mat"
)

// TransitionMatrix is the sparse N x N transition matrix over all contexts.
// Row fr has at most four non-zero entries, one for each context reachable
// by appending a symbol: entry (fr, ((fr<<2)|a) & mask) = P[fr][a].
//
// TransitionMatrix implements mat.Matrix so it can be densified with
// mat.DenseCopyOf, but every other operation stays sparse.
type TransitionMatrix struct {
	k    int
	mask kmer.Hash
	rows [][kmer.AlphabetSize]float64
}

func newTransitionMatrix(k int, probs [][kmer.AlphabetSize]float64) *TransitionMatrix {
	return &TransitionMatrix{k: k, mask: kmer.Mask(k), rows: probs}
}

// Dims returns the number of contexts twice.
func (t *TransitionMatrix) Dims() (r, c int) {
	return len(t.rows), len(t.rows)
}

// At returns the probability of moving from context i to context j.
func (t *TransitionMatrix) At(i, j int) float64 {
	n := len(t.rows)
	if i < 0 || i >= n {
		panic(mat.ErrRowAccess)
	}
	if j < 0 || j >= n {
		panic(mat.ErrColAccess)
	}
	if kmer.Hash(j)&^3 != (kmer.Hash(i)<<2)&t.mask {
		return 0
	}
	return t.rows[i][j&3]
}

// T returns the implicit transpose.
func (t *TransitionMatrix) T() mat.Matrix {
	return mat.Transpose{Matrix: t}
}

// Target returns the context reached from fr by appending symbol code.
func (t *TransitionMatrix) Target(fr kmer.Hash, code uint8) kmer.Hash {
	return (fr<<2 | kmer.Hash(code)) & t.mask
}

// NNZ returns the number of non-zero entries.
func (t *TransitionMatrix) NNZ() int {
	var n int
	for _, row := range t.rows {
		for _, p := range row {
			if p != 0 {
				n++
			}
		}
	}
	return n
}

// MulVecLeft stores the row vector product xᵀP in dst. dst and x must both
// have one entry per context and must not alias.
func (t *TransitionMatrix) MulVecLeft(dst, x []float64) {
	clear(dst)
	for fr, row := range t.rows {
		w := x[fr]
		if w == 0 {
			continue
		}
		base := (kmer.Hash(fr) << 2) & t.mask
		for a, p := range row {
			if p != 0 {
				dst[base|kmer.Hash(a)] += w * p
			}
		}
	}
}
