package Curvilinear

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// CoordinateMap maps computational coordinates q = (q0, q1) onto physical
// 3-D coordinates, with its first and second derivatives.
type CoordinateMap struct {
	Name     string
	Position func(q [2]float64) [3]float64
	// Jacobian[a][i] = d x_a / d q_i
	Jacobian func(q [2]float64) [3][2]float64
	// Hessian[a][i][j] = d^2 x_a / d q_i d q_j
	Hessian func(q [2]float64) [3][2][2]float64
}

// SphericalShell is the sphere of radius r parametrized by polar angle
// theta = q0 and azimuth phi = q1.
func SphericalShell(r float64) *CoordinateMap {
	return &CoordinateMap{
		Name: fmt.Sprintf("spherical shell r=%g", r),
		Position: func(q [2]float64) [3]float64 {
			st, ct := math.Sincos(q[0])
			sp, cp := math.Sincos(q[1])
			return [3]float64{r * st * cp, r * st * sp, r * ct}
		},
		Jacobian: func(q [2]float64) [3][2]float64 {
			st, ct := math.Sincos(q[0])
			sp, cp := math.Sincos(q[1])
			return [3][2]float64{
				{r * ct * cp, -r * st * sp},
				{r * ct * sp, r * st * cp},
				{-r * st, 0},
			}
		},
		Hessian: func(q [2]float64) [3][2][2]float64 {
			st, ct := math.Sincos(q[0])
			sp, cp := math.Sincos(q[1])
			return [3][2][2]float64{
				{{-r * st * cp, -r * ct * sp}, {-r * ct * sp, -r * st * cp}},
				{{-r * st * sp, r * ct * cp}, {r * ct * cp, -r * st * sp}},
				{{-r * ct, 0}, {0, 0}},
			}
		},
	}
}

// Cartesian embeds the computational plane as z = 0.
func Cartesian() *CoordinateMap {
	return &CoordinateMap{
		Name: "cartesian",
		Position: func(q [2]float64) [3]float64 {
			return [3]float64{q[0], q[1], 0}
		},
		Jacobian: func(q [2]float64) [3][2]float64 {
			return [3][2]float64{{1, 0}, {0, 1}, {0, 0}}
		},
		Hessian: func(q [2]float64) [3][2][2]float64 {
			return [3][2][2]float64{}
		},
	}
}

// NumericMap builds a map from its position alone, estimating the
// derivatives with central differences.
func NumericMap(name string, position func(q [2]float64) [3]float64) *CoordinateMap {
	var (
		jacSettings  = &fd.JacobianSettings{Formula: fd.Central, Step: 1.e-6}
		hessSettings = &fd.Settings{Formula: fd.Central, Step: 1.e-4}
	)
	return &CoordinateMap{
		Name:     name,
		Position: position,
		Jacobian: func(q [2]float64) (J [3][2]float64) {
			dst := mat.NewDense(3, 2, nil)
			fd.Jacobian(dst, func(y, x []float64) {
				p := position([2]float64{x[0], x[1]})
				copy(y, p[:])
			}, q[:], jacSettings)
			for a := 0; a < 3; a++ {
				for i := 0; i < 2; i++ {
					J[a][i] = dst.At(a, i)
				}
			}
			return
		},
		Hessian: func(q [2]float64) (H [3][2][2]float64) {
			for a := 0; a < 3; a++ {
				var dst mat.SymDense
				fd.Hessian(&dst, func(x []float64) float64 {
					return position([2]float64{x[0], x[1]})[a]
				}, q[:], hessSettings)
				for i := 0; i < 2; i++ {
					for j := 0; j < 2; j++ {
						H[a][i][j] = dst.At(i, j)
					}
				}
			}
			return
		},
	}
}
