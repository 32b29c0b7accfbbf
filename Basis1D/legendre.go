package Basis1D

import (
	"fmt"
	"sync"

	"github.com/notargets/gospectral/utils"
	"gonum.org/v1/gonum/mat"
)

// Legendre is a Galerkin basis built from Legendre polynomials on [a, b].
//
// Coefficients always occupy N slots. The first Dim() slots hold the
// Galerkin modes:
//
//	Dirichlet: phi_j = L_j - L_{j+2}
//	Neumann:   phi_j = L_j - j(j+1)/((j+2)(j+3)) L_{j+2}
//	None:      phi_j = L_j
//
// For Dirichlet the last two slots hold the lifting functions (1-r)/2 and
// (1+r)/2, whose coefficients are the boundary values at a and b. For
// Neumann the last two slots are unused and stay zero.
type Legendre struct {
	n        int
	bc       BoundaryCondition
	domain   Domain
	quad     Quadrature
	bcValues [2]float64
	r, wr    []float64 // Reference nodes and weights
	x, w     []float64 // Physical nodes and weights
	stencil  *mat.Dense
	table    *mat.Dense // Slot values at the nodes

	massOnce sync.Once
	mass     *mat.Cholesky
	massErr  error
}

func newLegendre(N int, bc BoundaryCondition, domain Domain, o options) (lb *Legendre) {
	lb = &Legendre{
		n:        N,
		bc:       bc,
		domain:   domain,
		quad:     o.quad,
		bcValues: o.bcValues,
	}
	switch o.quad {
	case QUAD_GaussLobatto:
		lb.r = JacobiGL(0, 0, N-1)
		lb.wr = LegendreGLWeights(lb.r)
	default:
		lb.r, lb.wr = JacobiGQ(0, 0, N-1)
	}
	J := lb.J()
	lb.x = make([]float64, N)
	lb.w = make([]float64, N)
	for i := range lb.r {
		lb.x[i] = lb.FromReference(lb.r[i])
		lb.w[i] = lb.wr[i] * J
	}
	lb.stencil = lb.newStencil()
	lb.table = lb.Eval(lb.x, 0)
	return
}

func (lb *Legendre) newStencil() (S *mat.Dense) {
	var (
		N   = lb.n
		dim = lb.Dim()
	)
	S = mat.NewDense(N, N, nil)
	for j := 0; j < dim; j++ {
		S.Set(j, j, 1)
		switch lb.bc {
		case BC_Dirichlet:
			S.Set(j+2, j, -1)
		case BC_Neumann:
			fj := float64(j)
			S.Set(j+2, j, -fj*(fj+1)/((fj+2)*(fj+3)))
		}
	}
	if lb.bc == BC_Dirichlet {
		S.Set(0, N-2, 0.5)
		S.Set(1, N-2, -0.5)
		S.Set(0, N-1, 0.5)
		S.Set(1, N-1, 0.5)
	}
	return
}

func (lb *Legendre) isBasis()                   {}
func (lb *Legendre) Family() Family             { return FAMILY_Legendre }
func (lb *Legendre) N() int                     { return lb.n }
func (lb *Legendre) BC() BoundaryCondition      { return lb.bc }
func (lb *Legendre) Domain() Domain             { return lb.domain }
func (lb *Legendre) Quadrature() Quadrature     { return lb.quad }
func (lb *Legendre) BoundaryValues() [2]float64 { return lb.bcValues }
func (lb *Legendre) Points() []float64          { return lb.x }
func (lb *Legendre) Weights() []float64         { return lb.w }

func (lb *Legendre) Dim() int {
	if lb.bc == BC_None {
		return lb.n
	}
	return lb.n - 2
}

// J is the Jacobian of the affine map from [-1, 1] onto the domain.
func (lb *Legendre) J() float64 { return 0.5 * lb.domain.Length() }

func (lb *Legendre) FromReference(r float64) float64 {
	return lb.domain[0] + (r+1)*lb.J()
}

func (lb *Legendre) ToReference(x float64) float64 {
	return 2*(x-lb.domain[0])/lb.domain.Length() - 1
}

func (lb *Legendre) Refined(N int) (Basis, error) {
	opts := []Option{WithQuadrature(lb.quad)}
	if lb.bc == BC_Dirichlet {
		opts = append(opts, WithBoundaryValues(lb.bcValues[0], lb.bcValues[1]))
	}
	return NewBasis(FAMILY_Legendre, N, lb.bc, lb.domain, opts...)
}

// Eval returns the len(x) x N table of the deriv-th physical derivative of
// every slot function at the physical points x.
func (lb *Legendre) Eval(x []float64, deriv int) (V *mat.Dense) {
	r := make([]float64, len(x))
	for i, xx := range x {
		r[i] = lb.ToReference(xx)
	}
	P := LegendreTable(r, lb.n, deriv)
	V = mat.NewDense(len(x), lb.n, nil)
	V.Mul(P, lb.stencil)
	if deriv > 0 {
		V.Scale(utils.POW(1./lb.J(), deriv), V)
	}
	return
}

// QuadratureN returns an n point Gauss rule on the domain, used to
// integrate products beyond the accuracy of the basis' own nodes.
func (lb *Legendre) QuadratureN(n int) (x, w []float64) {
	r, wr := JacobiGQ(0, 0, n-1)
	J := lb.J()
	x = make([]float64, n)
	w = make([]float64, n)
	for i := range r {
		x[i] = lb.FromReference(r[i])
		w[i] = wr[i] * J
	}
	return
}

// LiftCoefficients returns the boundary slot values.
func (lb *Legendre) LiftCoefficients() (c []float64) {
	c = make([]float64, lb.n-lb.Dim())
	if lb.bc == BC_Dirichlet {
		c[0], c[1] = lb.bcValues[0], lb.bcValues[1]
	}
	return
}

func (lb *Legendre) massMatrix() (*mat.Cholesky, error) {
	lb.massOnce.Do(func() {
		var (
			dim = lb.Dim()
			M   = mat.NewSymDense(dim, nil)
		)
		for m := 0; m < dim; m++ {
			for n := m; n < dim; n++ {
				var sum float64
				for i, wi := range lb.w {
					sum += wi * lb.table.At(i, m) * lb.table.At(i, n)
				}
				M.SetSym(m, n, sum)
			}
		}
		lb.mass = &mat.Cholesky{}
		if ok := lb.mass.Factorize(M); !ok {
			lb.massErr = fmt.Errorf("legendre: mass matrix of size %d is not positive definite", dim)
		}
	})
	return lb.mass, lb.massErr
}

// ScalarProduct returns (u, phi_m) for the Galerkin slots, computed with
// the basis' quadrature. Boundary slots are zero.
func (lb *Legendre) ScalarProduct(u []float64) (b []float64) {
	return lb.weightedProduct(u, nil)
}

// weightedProduct returns sum_i w_i s_i u_i phi_m(x_i); a nil s means ones.
func (lb *Legendre) weightedProduct(u, s []float64) (b []float64) {
	b = make([]float64, lb.n)
	for m := 0; m < lb.Dim(); m++ {
		var sum float64
		for i, wi := range lb.w {
			if s != nil {
				wi *= s[i]
			}
			sum += wi * u[i] * lb.table.At(i, m)
		}
		b[m] = sum
	}
	return
}

// WeightedScalarProduct is ScalarProduct with an extra weight s at the
// nodes, e.g. the metric volume factor.
func (lb *Legendre) WeightedScalarProduct(u, s []float64) (b []float64) {
	return lb.weightedProduct(u, s)
}

// Forward projects nodal values onto the basis. With lift set, the
// boundary slots take the boundary values and the projection acts on the
// remainder.
func (lb *Legendre) Forward(u []float64, lift bool) (c []float64, err error) {
	if len(u) != lb.n {
		return nil, fmt.Errorf("legendre: forward needs %d values, have %d", lb.n, len(u))
	}
	var (
		dim = lb.Dim()
		ul  = u
	)
	if lift && lb.bc == BC_Dirichlet {
		ul = make([]float64, lb.n)
		for i := range u {
			ul[i] = u[i] - lb.bcValues[0]*lb.table.At(i, dim) - lb.bcValues[1]*lb.table.At(i, dim+1)
		}
	}
	b := lb.ScalarProduct(ul)
	chol, err := lb.massMatrix()
	if err != nil {
		return nil, err
	}
	var x mat.VecDense
	if err = chol.SolveVecTo(&x, mat.NewVecDense(dim, b[:dim])); err != nil {
		return nil, err
	}
	c = make([]float64, lb.n)
	copy(c, x.RawVector().Data)
	if lift && lb.bc == BC_Dirichlet {
		c[dim], c[dim+1] = lb.bcValues[0], lb.bcValues[1]
	}
	return
}

// Backward evaluates coefficients at the nodes.
func (lb *Legendre) Backward(c []float64) (u []float64) {
	u = make([]float64, lb.n)
	for i := range u {
		var sum float64
		for j, cj := range c {
			if cj != 0 {
				sum += cj * lb.table.At(i, j)
			}
		}
		u[i] = sum
	}
	return
}

// EvalPoint evaluates coefficients at a single physical point.
func (lb *Legendre) EvalPoint(c []float64, x float64) (u float64) {
	V := lb.Eval([]float64{x}, 0)
	for j, cj := range c {
		u += cj * V.At(0, j)
	}
	return
}

// Resize maps coefficients onto a basis of size newN of the same kind. The
// Galerkin modes are zero padded or truncated; boundary slots move to the
// new end.
func (lb *Legendre) Resize(c []float64, newN int) (cn []float64) {
	var (
		dim    = lb.Dim()
		nbnd   = lb.n - dim
		newDim = newN - nbnd
	)
	cn = make([]float64, newN)
	copy(cn[:min(dim, newDim)], c[:min(dim, newDim)])
	copy(cn[newDim:], c[dim:])
	return
}
