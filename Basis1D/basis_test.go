package Basis1D

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/notargets/gospectral/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBasisValidation(t *testing.T) {
	cases := []struct {
		name   string
		family Family
		N      int
		bc     BoundaryCondition
		domain Domain
		opts   []Option
	}{
		{"zero size", FAMILY_Legendre, 0, BC_Dirichlet, Domain{0, 1}, nil},
		{"negative size", FAMILY_Fourier, -4, BC_Periodic, Domain{0, 1}, nil},
		{"degenerate domain", FAMILY_Legendre, 8, BC_Dirichlet, Domain{1, 1}, nil},
		{"reversed domain", FAMILY_Fourier, 8, BC_Periodic, Domain{2, 1}, nil},
		{"infinite domain", FAMILY_Legendre, 8, BC_None, Domain{0, math.Inf(1)}, nil},
		{"dirichlet fourier", FAMILY_Fourier, 8, BC_Dirichlet, Domain{0, 1}, nil},
		{"neumann fourier", FAMILY_Fourier, 8, BC_Neumann, Domain{0, 1}, nil},
		{"periodic legendre", FAMILY_Legendre, 8, BC_Periodic, Domain{0, 1}, nil},
		{"too small dirichlet", FAMILY_Legendre, 2, BC_Dirichlet, Domain{0, 1}, nil},
		{"values on neumann", FAMILY_Legendre, 8, BC_Neumann, Domain{0, 1}, []Option{WithBoundaryValues(1, 2)}},
		{"lobatto fourier", FAMILY_Fourier, 8, BC_Periodic, Domain{0, 1}, []Option{WithQuadrature(QUAD_GaussLobatto)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := NewBasis(tc.family, tc.N, tc.bc, tc.domain, tc.opts...)
			assert.Nil(t, b)
			var cfg *utils.ConfigurationError
			assert.True(t, errors.As(err, &cfg), "got %v", err)
		})
	}
	_, err := NewBoundaryCondition("robin")
	assert.Error(t, err)
	bc, err := NewBoundaryCondition("Dirichlet")
	require.NoError(t, err)
	assert.Equal(t, BC_Dirichlet, bc)
	f, err := NewFamily("FOURIER")
	require.NoError(t, err)
	assert.Equal(t, "Fourier", f.Print())
}

func TestLegendreBoundaryConditions(t *testing.T) {
	dom := Domain{0, math.Pi}
	{ // Dirichlet modes vanish at both ends, lifts pick one end each
		lb := MustBasis(FAMILY_Legendre, 12, BC_Dirichlet, dom).(*Legendre)
		assert.Equal(t, 10, lb.Dim())
		V := lb.Eval([]float64{dom[0], dom[1]}, 0)
		for j := 0; j < lb.Dim(); j++ {
			assert.InDelta(t, 0., V.At(0, j), 1.e-13)
			assert.InDelta(t, 0., V.At(1, j), 1.e-13)
		}
		assert.InDelta(t, 1., V.At(0, 10), 1.e-14)
		assert.InDelta(t, 0., V.At(1, 10), 1.e-14)
		assert.InDelta(t, 0., V.At(0, 11), 1.e-14)
		assert.InDelta(t, 1., V.At(1, 11), 1.e-14)
		// Gauss nodes are interior
		assert.Greater(t, lb.Points()[0], dom[0])
		assert.Less(t, lb.Points()[11], dom[1])
	}
	{ // Neumann modes have zero slope at both ends
		lb := MustBasis(FAMILY_Legendre, 12, BC_Neumann, dom).(*Legendre)
		dV := lb.Eval([]float64{dom[0], dom[1]}, 1)
		for j := 0; j < lb.Dim(); j++ {
			assert.InDelta(t, 0., dV.At(0, j), 1.e-11)
			assert.InDelta(t, 0., dV.At(1, j), 1.e-11)
		}
	}
	{ // Lobatto nodes include the ends
		lb := MustBasis(FAMILY_Legendre, 9, BC_Dirichlet, dom, WithQuadrature(QUAD_GaussLobatto)).(*Legendre)
		assert.InDelta(t, dom[0], lb.Points()[0], 1.e-15)
		assert.InDelta(t, dom[1], lb.Points()[8], 1.e-14)
		var sum float64
		for _, w := range lb.Weights() {
			sum += w
		}
		assert.InDelta(t, math.Pi, sum, 1.e-13)
	}
}

func TestLegendreDerivatives(t *testing.T) {
	// phi_0 of the Dirichlet basis is L_0 - L_2 = 3(1-r^2)/2
	var (
		dom = Domain{1, 3}
		lb  = MustBasis(FAMILY_Legendre, 6, BC_Dirichlet, dom).(*Legendre)
		x   = []float64{1.2, 2, 2.9}
	)
	V := lb.Eval(x, 0)
	dV := lb.Eval(x, 1)
	d2V := lb.Eval(x, 2)
	for i, xx := range x {
		r := xx - 2 // J = 1
		assert.InDelta(t, 1.5*(1-r*r), V.At(i, 0), 1.e-14)
		assert.InDelta(t, -3*r, dV.At(i, 0), 1.e-13)
		assert.InDelta(t, -3., d2V.At(i, 0), 1.e-12)
	}
}

func TestLegendreProjection(t *testing.T) {
	var (
		dom = Domain{0, 2}
		u   = func(x float64) float64 { return math.Sin(3*x) + x*x }
	)
	for _, q := range []Quadrature{QUAD_Gauss, QUAD_GaussLobatto} {
		lb := MustBasis(FAMILY_Legendre, 30, BC_Dirichlet, dom,
			WithQuadrature(q), WithBoundaryValues(u(dom[0]), u(dom[1]))).(*Legendre)
		vals := make([]float64, lb.N())
		for i, x := range lb.Points() {
			vals[i] = u(x)
		}
		c, err := lb.Forward(vals, true)
		require.NoError(t, err)
		assert.Equal(t, u(dom[1]), c[29])
		back := lb.Backward(c)
		assert.InDeltaSlice(t, vals, back, 1.e-12, q.Print())
		assert.InDelta(t, u(0.37), lb.EvalPoint(c, 0.37), 1.e-12)
	}
	{ // Polynomials of degree < N are reproduced exactly by the unconstrained basis
		lb := MustBasis(FAMILY_Legendre, 6, BC_None, dom).(*Legendre)
		p := func(x float64) float64 { return 1 - 2*x + 0.5*math.Pow(x, 5) }
		vals := make([]float64, 6)
		for i, x := range lb.Points() {
			vals[i] = p(x)
		}
		c, err := lb.Forward(vals, false)
		require.NoError(t, err)
		assert.InDelta(t, p(1.7), lb.EvalPoint(c, 1.7), 1.e-12)
	}
	{ // Spectral convergence of the projection error
		var prev = math.Inf(1)
		for _, N := range []int{8, 12, 16, 20} {
			lb := MustBasis(FAMILY_Legendre, N, BC_Dirichlet, dom,
				WithBoundaryValues(u(dom[0]), u(dom[1]))).(*Legendre)
			vals := make([]float64, N)
			for i, x := range lb.Points() {
				vals[i] = u(x)
			}
			c, err := lb.Forward(vals, true)
			require.NoError(t, err)
			e := math.Abs(lb.EvalPoint(c, 1.234) - u(1.234))
			assert.Less(t, e, math.Max(prev, 1.e-13))
			prev = e
		}
		assert.Less(t, prev, 1.e-10)
	}
}

func TestLegendreResize(t *testing.T) {
	dom := Domain{0, math.Pi}
	lb := MustBasis(FAMILY_Legendre, 10, BC_Dirichlet, dom, WithBoundaryValues(1, -2)).(*Legendre)
	c := make([]float64, 10)
	for j := range c {
		c[j] = 1. / float64(j+1)
	}
	c[8], c[9] = 1, -2
	rb, err := lb.Refined(16)
	require.NoError(t, err)
	ref := rb.(*Legendre)
	cp := lb.Resize(c, 16)
	assert.Equal(t, 16, len(cp))
	assert.Equal(t, [2]float64{1, -2}, [2]float64{cp[14], cp[15]})
	assert.Equal(t, 0., cp[8])
	for _, x := range []float64{0.1, 1, 2.5} {
		assert.InDelta(t, lb.EvalPoint(c, x), ref.EvalPoint(cp, x), 1.e-13)
	}
	// Truncation undoes padding
	assert.Equal(t, c, ref.Resize(cp, 10))
	// Padding twice equals padding once
	assert.Equal(t, lb.Resize(c, 24), ref.Resize(cp, 24))
}

func TestFourierTransforms(t *testing.T) {
	{ // Round trip on a shifted period, Nyquist mode included
		dom := Domain{1, 1 + 2*math.Pi}
		fb := MustBasis(FAMILY_Fourier, 16, BC_Periodic, dom).(*Fourier)
		assert.Equal(t, 9, fb.Modes())
		u := func(x float64) float64 { return 1 + math.Cos(3*x) + math.Sin(5*x) }
		vals := make([]float64, 16)
		for j, x := range fb.Points() {
			vals[j] = u(x) + 0.5*math.Cos(8*(x-dom[0]))
		}
		c, err := fb.Forward(vals, nil)
		require.NoError(t, err)
		assert.InDelta(t, 1., real(c[0]), 1.e-14)
		assert.InDelta(t, 0.5, cmplx.Abs(c[3]), 1.e-14)
		assert.InDelta(t, 0.5, cmplx.Abs(c[5]), 1.e-14)
		back, err := fb.Backward(c, nil)
		require.NoError(t, err)
		assert.InDeltaSlice(t, vals, back, 1.e-13)
		for _, x := range []float64{1.3, 2.9, 5} {
			assert.InDelta(t, u(x)+0.5*math.Cos(8*(x-dom[0])), fb.EvalPoint(c, x), 1.e-13)
		}
		sp, err := fb.ScalarProduct(vals, nil)
		require.NoError(t, err)
		assert.InDelta(t, 2*math.Pi, real(sp[0]), 1.e-13)
	}
	{ // Padding halves the Nyquist mode, truncation folds it back
		dom := Domain{0, 2 * math.Pi}
		fb := MustBasis(FAMILY_Fourier, 16, BC_Periodic, dom).(*Fourier)
		vals := make([]float64, 16)
		for j, x := range fb.Points() {
			vals[j] = math.Cos(8*x) + math.Sin(2*x)
		}
		c, err := fb.Forward(vals, nil)
		require.NoError(t, err)
		cp := fb.Resize(c, 32)
		assert.InDelta(t, 0.5, real(cp[8]), 1.e-14)
		rb, err := fb.Refined(32)
		require.NoError(t, err)
		ref := rb.(*Fourier)
		back, err := ref.Backward(cp, nil)
		require.NoError(t, err)
		for j, x := range ref.Points() {
			assert.InDelta(t, math.Cos(8*x)+math.Sin(2*x), back[j], 1.e-13)
		}
		ct := ref.Resize(cp, 16)
		for k := range c {
			assert.InDelta(t, 0., cmplx.Abs(c[k]-ct[k]), 1.e-14)
		}
		// Padding is idempotent along a chain of sizes
		a := fb.Resize(c, 40)
		rb24, _ := fb.Refined(24)
		b := rb24.(*Fourier).Resize(fb.Resize(c, 24), 40)
		assert.Equal(t, a, b)
	}
	{ // Odd sizes have no Nyquist mode
		fb := MustBasis(FAMILY_Fourier, 9, BC_Periodic, Domain{0, 1}).(*Fourier)
		assert.Equal(t, 5, fb.Modes())
		for k := 1; k < 5; k++ {
			assert.Equal(t, 2., fb.ModeWeight(k))
		}
		assert.InDelta(t, 2*math.Pi*4, fb.Kappa(4), 1.e-12)
	}
}
