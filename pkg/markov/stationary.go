package markov

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MaxEigenStates is the largest context space the dense eigen solver accepts
// (k <= 5). Larger models must use power iteration.
const MaxEigenStates = 1024

// negativeSlack is how far below zero a stationary entry may fall from
// rounding before the vector is rejected.
const negativeSlack = 1e-9

// powerStationary iterates π ← ½(π + πP) from the uniform vector. The lazy
// chain has the same stationary distribution as P but is aperiodic, so the
// iteration converges for periodic chains as well.
func powerStationary(t *TransitionMatrix, maxIterations int, tol float64) ([]float64, int, error) {
	n, _ := t.Dims()
	pi := make([]float64, n)
	for i := range pi {
		pi[i] = 1 / float64(n)
	}
	next := make([]float64, n)

	var delta float64
	for it := 1; it <= maxIterations; it++ {
		t.MulVecLeft(next, pi)
		floats.Add(next, pi)
		floats.Scale(1/floats.Sum(next), next)

		delta = floats.Distance(next, pi, 1)
		pi, next = next, pi
		if delta < tol {
			return pi, it, nil
		}
	}
	return nil, maxIterations, fmt.Errorf("%w: L1 change %.3g after %d iterations (tolerance %.3g)",
		ErrNoConvergence, delta, maxIterations, tol)
}

// eigenStationary takes the real part of the left eigenvector of P whose
// eigenvalue has the largest real part, and normalises it to sum to 1.
func eigenStationary(t *TransitionMatrix) ([]float64, error) {
	n, _ := t.Dims()
	if n > MaxEigenStates {
		return nil, fmt.Errorf("%w: %d contexts exceed the eigen solver limit of %d", ErrDataSufficiency, n, MaxEigenStates)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(mat.DenseCopyOf(t.T()), mat.EigenRight); !ok {
		return nil, fmt.Errorf("%w: eigen-decomposition of %dx%d matrix failed", ErrNoConvergence, n, n)
	}
	values := eig.Values(nil)
	best := 0
	for i, v := range values {
		if real(v) > real(values[best]) {
			best = i
		}
	}

	var vectors mat.CDense
	eig.VectorsTo(&vectors)
	pi := make([]float64, n)
	for i := range pi {
		pi[i] = real(vectors.At(i, best))
	}
	return normaliseStationary(pi)
}

// normaliseStationary scales v to sum to 1 and clears rounding noise below zero.
func normaliseStationary(v []float64) ([]float64, error) {
	sum := floats.Sum(v)
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, fmt.Errorf("%w: stationary vector cannot be normalised (sum %v)", ErrDataSufficiency, sum)
	}
	floats.Scale(1/sum, v)
	for i, x := range v {
		if x < -negativeSlack {
			return nil, fmt.Errorf("%w: stationary vector has mixed signs; the chain is reducible", ErrDataSufficiency)
		}
		if x < 0 {
			v[i] = 0
		}
	}
	floats.Scale(1/floats.Sum(v), v)
	return v, nil
}
