package Curvilinear

// Expression is a closed-form scalar field of the computational
// coordinates, supplied with its first and second derivatives.
type Expression struct {
	F    func(q [2]float64) float64
	Grad func(q [2]float64) [2]float64
	Hess func(q [2]float64) [2][2]float64
}

// PhysicalExpression is a closed-form scalar field of the physical
// coordinates x = (x, y, z).
type PhysicalExpression struct {
	F    func(x [3]float64) float64
	Grad func(x [3]float64) [3]float64
	Hess func(x [3]float64) [3][3]float64
}

// Pullback expresses pe in the computational coordinates of cm by the
// chain rule.
func Pullback(pe PhysicalExpression, cm *CoordinateMap) Expression {
	return Expression{
		F: func(q [2]float64) float64 {
			return pe.F(cm.Position(q))
		},
		Grad: func(q [2]float64) (g [2]float64) {
			var (
				x  = cm.Position(q)
				df = pe.Grad(x)
				J  = cm.Jacobian(q)
			)
			for i := 0; i < 2; i++ {
				for a := 0; a < 3; a++ {
					g[i] += df[a] * J[a][i]
				}
			}
			return
		},
		Hess: func(q [2]float64) (h [2][2]float64) {
			var (
				x   = cm.Position(q)
				df  = pe.Grad(x)
				d2f = pe.Hess(x)
				J   = cm.Jacobian(q)
				H   = cm.Hessian(q)
			)
			for i := 0; i < 2; i++ {
				for j := 0; j < 2; j++ {
					var sum float64
					for a := 0; a < 3; a++ {
						sum += df[a] * H[a][i][j]
						for b := 0; b < 3; b++ {
							sum += d2f[a][b] * J[a][i] * J[b][j]
						}
					}
					h[i][j] = sum
				}
			}
			return
		},
	}
}

// Gradient returns the contravariant gradient g^ij d_j f at the point of mp.
func Gradient(e Expression, mp MetricPoint) (v [2]float64) {
	df := e.Grad(mp.Q)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			v[i] += mp.GInv[i][j] * df[j]
		}
	}
	return
}

// LaplaceBeltrami evaluates
//
//	(1/sqrt(g)) d_i (sqrt(g) g^ij d_j f)
//	  = g^ij d_ij f + (d_i sqrt(g)/sqrt(g) g^ij + d_i g^ij) d_j f
//
// at the point of mp.
func LaplaceBeltrami(e Expression, mp MetricPoint) (lap float64) {
	var (
		df  = e.Grad(mp.Q)
		d2f = e.Hess(mp.Q)
	)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			lap += mp.GInv[i][j] * d2f[i][j]
			lap += (mp.DSqrtG[i]/mp.SqrtG*mp.GInv[i][j] + mp.DGInv[i][i][j]) * df[j]
		}
	}
	return
}
