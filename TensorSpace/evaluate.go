package TensorSpace

import (
	"github.com/notargets/gospectral/Curvilinear"
)

// Evaluate samples fn on the local mesh.
func (s *Space) Evaluate(fn func(theta, phi float64) float64) (u *Array) {
	u = s.NewArray()
	theta, phi := s.LocalMesh()
	for i, t := range theta {
		row := u.Row(i)
		for j, p := range phi {
			row[j] = fn(t, p)
		}
	}
	return
}

// EvaluateExpression samples a closed-form field of the computational
// coordinates on the local mesh.
func (s *Space) EvaluateExpression(e Curvilinear.Expression) *Array {
	return s.Evaluate(func(theta, phi float64) float64 {
		return e.F([2]float64{theta, phi})
	})
}

// EvaluatePhysical samples a field given in physical coordinates x, y, z.
func (s *Space) EvaluatePhysical(pe Curvilinear.PhysicalExpression) *Array {
	return s.EvaluateExpression(Curvilinear.Pullback(pe, s.Map))
}

// EvaluateLaplacian samples the Laplace-Beltrami operator of e on the
// local mesh, using the metric of the space.
func (s *Space) EvaluateLaplacian(e Curvilinear.Expression) (u *Array) {
	u = s.NewArray()
	theta, phi := s.LocalMesh()
	for i, t := range theta {
		mp := s.metric[s.Part.Rows.GetGlobalK(i, s.Part.Rank)]
		row := u.Row(i)
		for j, p := range phi {
			mp.Q = [2]float64{t, p}
			row[j] = Curvilinear.LaplaceBeltrami(e, mp)
		}
	}
	return
}

// EvaluateHelmholtz samples -lap(e) + alpha*e, the right hand side that
// makes e the exact solution of the Helmholtz problem.
func (s *Space) EvaluateHelmholtz(e Curvilinear.Expression, alpha float64) (u *Array) {
	u = s.EvaluateLaplacian(e)
	v := s.EvaluateExpression(e)
	u.Scale(-1)
	for i := range u.Data {
		u.Data[i] += alpha * v.Data[i]
	}
	return
}
