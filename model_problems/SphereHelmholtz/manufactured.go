package SphereHelmholtz

import (
	"math"

	"github.com/notargets/gospectral/Curvilinear"
)

// Bubble is (theta-a)^2 (theta-b)^2 sin(m phi), zero at both ends of the
// theta interval [a, b].
func Bubble(a, b float64, m int) Curvilinear.Expression {
	var (
		fm = float64(m)
		p  = func(t float64) float64 { return (t - a) * (t - a) * (t - b) * (t - b) }
		dp = func(t float64) float64 { return 2 * (t - a) * (t - b) * (2*t - a - b) }
		d2 = func(t float64) float64 {
			s := 2*t - a - b
			return 2 * (s*s + 2*(t-a)*(t-b))
		}
	)
	return Curvilinear.Expression{
		F: func(q [2]float64) float64 {
			return p(q[0]) * math.Sin(fm*q[1])
		},
		Grad: func(q [2]float64) [2]float64 {
			s, c := math.Sincos(fm * q[1])
			return [2]float64{dp(q[0]) * s, fm * p(q[0]) * c}
		},
		Hess: func(q [2]float64) [2][2]float64 {
			s, c := math.Sincos(fm * q[1])
			return [2][2]float64{
				{d2(q[0]) * s, fm * dp(q[0]) * c},
				{fm * dp(q[0]) * c, -fm * fm * p(q[0]) * s},
			}
		},
	}
}

// Harmonic is sin^2(theta) cos(2 phi), the real part of the spherical
// harmonic Y_2^2. On the unit sphere its Laplacian is -6 times itself.
func Harmonic() Curvilinear.Expression {
	return Curvilinear.Expression{
		F: func(q [2]float64) float64 {
			st := math.Sin(q[0])
			return st * st * math.Cos(2*q[1])
		},
		Grad: func(q [2]float64) [2]float64 {
			st, ct := math.Sincos(q[0])
			sp, cp := math.Sincos(2 * q[1])
			return [2]float64{2 * st * ct * cp, -2 * st * st * sp}
		},
		Hess: func(q [2]float64) [2][2]float64 {
			st, ct := math.Sincos(q[0])
			sp, cp := math.Sincos(2 * q[1])
			return [2][2]float64{
				{2 * (ct*ct - st*st) * cp, -4 * st * ct * sp},
				{-4 * st * ct * sp, -4 * st * st * cp},
			}
		},
	}
}
