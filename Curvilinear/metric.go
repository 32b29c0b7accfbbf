package Curvilinear

import (
	"math"

	"github.com/notargets/gospectral/utils"
)

// SingularTol is the relative size of det(g) against trace(g)^2 below which
// a metric counts as singular.
const SingularTol = 1.e-20

// MetricPoint holds the metric quantities of a map at one point.
type MetricPoint struct {
	Q     [2]float64
	G     [2][2]float64 // Covariant metric g_ij
	GInv  [2][2]float64 // Contravariant metric g^ij
	SqrtG float64       // Volume factor sqrt(det g)
	// DSqrtG[k] = d sqrt(g) / d q_k
	DSqrtG [2]float64
	// DGInv[k][i][j] = d g^ij / d q_k
	DGInv [2][2][2]float64
}

// MetricAt evaluates the metric of the map at q. A vanishing determinant
// returns a *utils.SingularMetricError.
func (cm *CoordinateMap) MetricAt(q [2]float64) (mp MetricPoint, err error) {
	var (
		J  = cm.Jacobian(q)
		H  = cm.Hessian(q)
		dG [2][2][2]float64 // dG[k][i][j] = d g_ij / d q_k
	)
	mp.Q = q
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			for a := 0; a < 3; a++ {
				mp.G[i][j] += J[a][i] * J[a][j]
				for k := 0; k < 2; k++ {
					dG[k][i][j] += H[a][i][k]*J[a][j] + J[a][i]*H[a][j][k]
				}
			}
		}
	}
	var (
		det = mp.G[0][0]*mp.G[1][1] - mp.G[0][1]*mp.G[1][0]
		tr  = mp.G[0][0] + mp.G[1][1]
	)
	if !(det > SingularTol*tr*tr) || math.IsNaN(det) {
		err = &utils.SingularMetricError{Map: cm.Name, Point: q, Det: det}
		return
	}
	mp.GInv = [2][2]float64{
		{mp.G[1][1] / det, -mp.G[0][1] / det},
		{-mp.G[1][0] / det, mp.G[0][0] / det},
	}
	mp.SqrtG = math.Sqrt(det)
	for k := 0; k < 2; k++ {
		dDet := dG[k][0][0]*mp.G[1][1] + mp.G[0][0]*dG[k][1][1] -
			dG[k][0][1]*mp.G[1][0] - mp.G[0][1]*dG[k][1][0]
		mp.DSqrtG[k] = dDet / (2 * mp.SqrtG)
		// d g^-1 = -g^-1 (d g) g^-1
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				var sum float64
				for a := 0; a < 2; a++ {
					for b := 0; b < 2; b++ {
						sum += mp.GInv[i][a] * dG[k][a][b] * mp.GInv[b][j]
					}
				}
				mp.DGInv[k][i][j] = -sum
			}
		}
	}
	return
}

// Close reports whether two metric points agree to a relative tolerance.
func (mp MetricPoint) Close(other MetricPoint, tol float64) bool {
	scale := math.Abs(mp.G[0][0]) + math.Abs(mp.G[1][1])
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if math.Abs(mp.G[i][j]-other.G[i][j]) > tol*scale {
				return false
			}
		}
	}
	return math.Abs(mp.SqrtG-other.SqrtG) <= tol*math.Max(math.Abs(mp.SqrtG), scale)
}
