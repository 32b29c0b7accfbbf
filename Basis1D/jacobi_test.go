package Basis1D

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/integrate/quad"
)

func sortPairs(x, w []float64) {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return x[idx[i]] < x[idx[j]] })
	xs, ws := make([]float64, len(x)), make([]float64, len(w))
	for i, k := range idx {
		xs[i], ws[i] = x[k], w[k]
	}
	copy(x, xs)
	copy(w, ws)
}

func TestJacobiGQ(t *testing.T) {
	{ // Against an independent Gauss-Legendre rule
		for n := 1; n <= 40; n++ {
			X, W := JacobiGQ(0, 0, n-1)
			xq, wq := make([]float64, n), make([]float64, n)
			quad.Legendre{}.FixedLocations(xq, wq, -1, 1)
			sortPairs(xq, wq)
			for i := 0; i < n; i++ {
				assert.InDeltaf(t, xq[i], X[i], 1.e-13, "node %d of %d", i, n)
				assert.InDeltaf(t, wq[i], W[i], 1.e-13, "weight %d of %d", i, n)
			}
		}
	}
	{ // Moments of the Jacobi weight (1-x)^a (1+x)^b are exact up to degree 2N+1
		exact := func(alpha, beta float64, p int) (sum float64) {
			// int (1-x)^a (1+x)^b x^p dx by a high order Legendre rule
			return quad.Fixed(func(x float64) float64 {
				return math.Pow(1-x, alpha) * math.Pow(1+x, beta) * math.Pow(x, float64(p))
			}, -1, 1, 60, quad.Legendre{}, 0)
		}
		for _, ab := range [][2]float64{{1, 1}, {2, 2}, {1, 0}} {
			N := 5
			X, W := JacobiGQ(ab[0], ab[1], N)
			for p := 0; p <= 2*N+1; p++ {
				var sum float64
				for i := range X {
					sum += W[i] * math.Pow(X[i], float64(p))
				}
				assert.InDeltaf(t, exact(ab[0], ab[1], p), sum, 1.e-12, "alpha, beta = %v, p = %d", ab, p)
			}
		}
	}
}

func TestJacobiGL(t *testing.T) {
	{
		X := JacobiGL(0, 0, 2)
		W := LegendreGLWeights(X)
		assert.InDeltaSlice(t, []float64{-1, 0, 1}, X, 1.e-14)
		assert.InDeltaSlice(t, []float64{1. / 3, 4. / 3, 1. / 3}, W, 1.e-14)
	}
	for N := 3; N < 30; N++ {
		X := JacobiGL(0, 0, N)
		W := LegendreGLWeights(X)
		assert.Equal(t, -1., X[0])
		assert.Equal(t, 1., X[N])
		// Exact to degree 2N-1
		for p := 0; p <= 2*N-1; p++ {
			var sum float64
			for i := range X {
				sum += W[i] * math.Pow(X[i], float64(p))
			}
			var exact float64
			if p%2 == 0 {
				exact = 2. / float64(p+1)
			}
			assert.InDeltaf(t, exact, sum, 1.e-12, "N = %d, p = %d", N, p)
		}
	}
}

func TestLegendreTable(t *testing.T) {
	r := []float64{-1, -0.3, 0.2, 0.7, 1}
	L := LegendreTable(r, 5, 0)
	dL := LegendreTable(r, 5, 1)
	d2L := LegendreTable(r, 5, 2)
	for i, x := range r {
		assert.InDelta(t, 1., L.At(i, 0), 1.e-14)
		assert.InDelta(t, (3*x*x-1)/2, L.At(i, 2), 1.e-14)
		assert.InDelta(t, (35*math.Pow(x, 4)-30*x*x+3)/8, L.At(i, 4), 1.e-13)
		assert.InDelta(t, (15*x*x-3)/2, dL.At(i, 3), 1.e-13)
		assert.InDelta(t, (105*x*x-15)/2, d2L.At(i, 4), 1.e-12)
		assert.InDelta(t, 0., d2L.At(i, 1), 1.e-14)
	}
	// L_n(1) = 1, L_n'(1) = n(n+1)/2
	for n := 0; n < 5; n++ {
		assert.InDelta(t, 1., L.At(4, n), 1.e-13)
		assert.InDelta(t, float64(n*(n+1))/2, dL.At(4, n), 1.e-12)
	}
}
