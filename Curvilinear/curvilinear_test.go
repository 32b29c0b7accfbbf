package Curvilinear

import (
	"errors"
	"math"
	"testing"

	"github.com/notargets/gospectral/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSphereMetric(t *testing.T) {
	var (
		r  = 1.5
		cm = SphericalShell(r)
	)
	for _, q := range [][2]float64{{0.3, 0.1}, {1.2, 4}, {2.9, 6}} {
		mp, err := cm.MetricAt(q)
		require.NoError(t, err)
		st, ct := math.Sincos(q[0])
		assert.InDelta(t, r*r, mp.G[0][0], 1.e-14)
		assert.InDelta(t, 0., mp.G[0][1], 1.e-14)
		assert.InDelta(t, r*r*st*st, mp.G[1][1], 1.e-14)
		assert.InDelta(t, 1/(r*r*st*st), mp.GInv[1][1], 1.e-12)
		assert.InDelta(t, r*r*st, mp.SqrtG, 1.e-14)
		assert.InDelta(t, r*r*ct, mp.DSqrtG[0], 1.e-13)
		assert.InDelta(t, 0., mp.DSqrtG[1], 1.e-13)
		assert.InDelta(t, -2*ct/(r*r*st*st*st), mp.DGInv[0][1][1], 1.e-10)
		assert.InDelta(t, 0., mp.DGInv[0][0][0], 1.e-13)
		// Position lies on the sphere
		x := cm.Position(q)
		assert.InDelta(t, r, math.Sqrt(x[0]*x[0]+x[1]*x[1]+x[2]*x[2]), 1.e-14)
	}
	for _, q := range [][2]float64{{0, 1}, {math.Pi, 2}} {
		_, err := cm.MetricAt(q)
		var sme *utils.SingularMetricError
		require.True(t, errors.As(err, &sme), "got %v", err)
		assert.Equal(t, q, sme.Point)
	}
	// The metric does not depend on the azimuth
	a, _ := cm.MetricAt([2]float64{0.7, 0.2})
	b, _ := cm.MetricAt([2]float64{0.7, 3.3})
	assert.True(t, a.Close(b, 1.e-12))
	c, _ := cm.MetricAt([2]float64{0.8, 0.2})
	assert.False(t, a.Close(c, 1.e-12))
}

func TestNumericMap(t *testing.T) {
	var (
		exact   = SphericalShell(1)
		numeric = NumericMap("numeric sphere", exact.Position)
	)
	for _, q := range [][2]float64{{0.4, 0.3}, {2, 5}} {
		Je, Jn := exact.Jacobian(q), numeric.Jacobian(q)
		He, Hn := exact.Hessian(q), numeric.Hessian(q)
		for a := 0; a < 3; a++ {
			for i := 0; i < 2; i++ {
				assert.InDelta(t, Je[a][i], Jn[a][i], 1.e-8)
				for j := 0; j < 2; j++ {
					assert.InDelta(t, He[a][i][j], Hn[a][i][j], 1.e-5)
				}
			}
		}
		me, err := exact.MetricAt(q)
		require.NoError(t, err)
		mn, err := numeric.MetricAt(q)
		require.NoError(t, err)
		assert.True(t, me.Close(mn, 1.e-7))
	}
}

// The real spherical harmonic sin^2(theta) cos(2 phi) has eigenvalue -6
func harmonic22() Expression {
	return Expression{
		F: func(q [2]float64) float64 {
			st := math.Sin(q[0])
			return st * st * math.Cos(2*q[1])
		},
		Grad: func(q [2]float64) [2]float64 {
			st := math.Sin(q[0])
			return [2]float64{math.Sin(2*q[0]) * math.Cos(2*q[1]), -2 * st * st * math.Sin(2*q[1])}
		},
		Hess: func(q [2]float64) [2][2]float64 {
			st := math.Sin(q[0])
			c2p, s2p := math.Cos(2*q[1]), math.Sin(2*q[1])
			return [2][2]float64{
				{2 * math.Cos(2*q[0]) * c2p, -2 * math.Sin(2*q[0]) * s2p},
				{-2 * math.Sin(2*q[0]) * s2p, -4 * st * st * c2p},
			}
		},
	}
}

func TestLaplaceBeltrami(t *testing.T) {
	var (
		cm = SphericalShell(1)
		e  = harmonic22()
		// x^2 - y^2 restricted to the unit sphere is the same harmonic
		pe = PhysicalExpression{
			F:    func(x [3]float64) float64 { return x[0]*x[0] - x[1]*x[1] },
			Grad: func(x [3]float64) [3]float64 { return [3]float64{2 * x[0], -2 * x[1], 0} },
			Hess: func(x [3]float64) [3][3]float64 {
				return [3][3]float64{{2, 0, 0}, {0, -2, 0}, {0, 0, 0}}
			},
		}
		pb = Pullback(pe, cm)
	)
	for _, q := range [][2]float64{{0.2, 0.5}, {1, 1}, {2.5, 5.5}} {
		mp, err := cm.MetricAt(q)
		require.NoError(t, err)
		assert.InDelta(t, -6*e.F(q), LaplaceBeltrami(e, mp), 1.e-12)
		assert.InDelta(t, e.F(q), pb.F(q), 1.e-14)
		assert.InDelta(t, e.Grad(q)[0], pb.Grad(q)[0], 1.e-13)
		assert.InDelta(t, e.Grad(q)[1], pb.Grad(q)[1], 1.e-13)
		assert.InDelta(t, -6*e.F(q), LaplaceBeltrami(pb, mp), 1.e-12)
		// Contravariant gradient divides the azimuthal slope by sin^2
		st := math.Sin(q[0])
		assert.InDelta(t, e.Grad(q)[1]/(st*st), Gradient(e, mp)[1], 1.e-12)
	}
	{ // Flat space reduces to the ordinary Laplacian
		flat := Cartesian()
		p := Expression{
			F:    func(q [2]float64) float64 { return q[0]*q[0]*q[1] + q[1]*q[1]*q[1] },
			Grad: func(q [2]float64) [2]float64 { return [2]float64{2 * q[0] * q[1], q[0]*q[0] + 3*q[1]*q[1]} },
			Hess: func(q [2]float64) [2][2]float64 {
				return [2][2]float64{{2 * q[1], 2 * q[0]}, {2 * q[0], 6 * q[1]}}
			},
		}
		q := [2]float64{0.3, -1.1}
		mp, err := flat.MetricAt(q)
		require.NoError(t, err)
		assert.InDelta(t, 8*q[1], LaplaceBeltrami(p, mp), 1.e-14)
	}
}
