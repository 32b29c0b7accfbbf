package Forms

import (
	"fmt"

	"github.com/notargets/gospectral/Basis1D"
	"github.com/notargets/gospectral/TensorSpace"
	"github.com/notargets/gospectral/utils"
	"gonum.org/v1/gonum/mat"
)

// Matrix is one assembled term of a bilinear form: an axis-0 matrix of
// Dim() test rows by N trial slots, and the periodic derivative orders Q of
// the test and S of the trial function. For wavenumber k the term
// contributes
//
//	i^(S-Q) kappa_k^(Q+S) L * A
//
// where L is the period.
type Matrix struct {
	Name   string
	Q, S   int
	Dense  *mat.Dense // nil when stored sparse
	Sparse *utils.CSR
}

// Factor is the periodic factor of the term at wavenumber k. Odd
// derivatives of the Nyquist mode vanish.
func (m *Matrix) Factor(fb *Basis1D.Fourier, k int) complex128 {
	n := m.Q + m.S
	if n%2 == 1 && fb.HasNyquist(k) {
		return 0
	}
	return utils.IPOW(m.S-m.Q) * complex(utils.POW(fb.Kappa(k), n)*fb.Domain().Length(), 0)
}

func (m *Matrix) matrix() mat.Matrix {
	if m.Dense != nil {
		return m.Dense
	}
	return m.Sparse
}

func (m *Matrix) addScaledTo(dst *mat.Dense, alpha float64) {
	if alpha == 0 {
		return
	}
	if m.Sparse != nil {
		m.Sparse.AddScaledTo(dst, alpha)
		return
	}
	var tmp mat.Dense
	tmp.Scale(alpha, m.Dense)
	dst.Add(dst, &tmp)
}

// MatrixSet is an assembled bilinear form, split into terms that each
// factor into an axis-0 matrix and a periodic factor.
type MatrixSet struct {
	Space    *TensorSpace.Space
	Level    int
	Matrices []*Matrix
}

// Add returns the sum of two forms on compatible spaces.
func (ms *MatrixSet) Add(other *MatrixSet) (*MatrixSet, error) {
	if !ms.Space.Compatible(other.Space) {
		return nil, utils.NewIncompatibleOperatorError("cannot add forms of different spaces")
	}
	level := min(ms.Level, other.Level)
	all := make([]*Matrix, 0, len(ms.Matrices)+len(other.Matrices))
	all = append(all, ms.Matrices...)
	all = append(all, other.Matrices...)
	return &MatrixSet{Space: ms.Space, Level: level, Matrices: mergeMatrices(all, level)}, nil
}

// Scale multiplies every term by alpha.
func (ms *MatrixSet) Scale(alpha float64) *MatrixSet {
	out := &MatrixSet{Space: ms.Space, Level: ms.Level}
	for _, m := range ms.Matrices {
		A := mat.DenseCopyOf(m.matrix())
		A.Scale(alpha, A)
		out.Matrices = append(out.Matrices, &Matrix{Name: fmt.Sprintf("%g*%s", alpha, m.Name), Q: m.Q, S: m.S, Dense: A})
	}
	out.Matrices = mergeMatrices(out.Matrices, out.Level)
	return out
}

// Block returns the real and imaginary parts of the Dim() x N matrix of
// wavenumber k.
func (ms *MatrixSet) Block(k int) (re, im *mat.Dense) {
	var (
		dim = ms.Space.B0.Dim()
		N   = ms.Space.B0.N()
	)
	re, im = mat.NewDense(dim, N, nil), mat.NewDense(dim, N, nil)
	for _, m := range ms.Matrices {
		f := m.Factor(ms.Space.B1, k)
		m.addScaledTo(re, real(f))
		m.addScaledTo(im, imag(f))
	}
	return
}

// IsReal reports whether every block of the form is real.
func (ms *MatrixSet) IsReal() bool {
	for _, m := range ms.Matrices {
		if (m.S-m.Q)%2 != 0 && utils.MaxAbs(m.matrix()) != 0 {
			return false
		}
	}
	return true
}

// Apply multiplies the coefficients of f by the form, one wavenumber block
// at a time. Rows past Dim() of the result are zero.
func (ms *MatrixSet) Apply(f *TensorSpace.Function) (g *TensorSpace.Function, err error) {
	if !ms.Space.Compatible(f.Space) {
		return nil, utils.NewIncompatibleOperatorError("cannot apply a form to a function of another space")
	}
	g = f.Space.NewFunction()
	for l := 0; l < f.Modes(); l++ {
		var (
			re, im = ms.Block(f.Wavenumber(l))
			xr, xi = f.Column(l)
			vr, vi = mat.NewVecDense(len(xr), xr), mat.NewVecDense(len(xi), xi)
			yr, yi mat.VecDense
			tmp    mat.VecDense
		)
		yr.MulVec(re, vr)
		tmp.MulVec(im, vi)
		yr.SubVec(&yr, &tmp)
		yi.MulVec(re, vi)
		tmp.MulVec(im, vr)
		yi.AddVec(&yi, &tmp)
		g.SetColumn(l, padTo(yr.RawVector().Data, len(xr)), padTo(yi.RawVector().Data, len(xr)))
	}
	return
}

func padTo(x []float64, n int) (y []float64) {
	y = make([]float64, n)
	copy(y, x)
	return
}

// mergeMatrices sums terms with the same periodic derivative orders for
// levels above zero; level two also stores sparse axis-0 matrices.
func mergeMatrices(ms []*Matrix, level int) (out []*Matrix) {
	if level == 0 {
		return ms
	}
	type key struct{ q, s int }
	var (
		index = make(map[key]int)
	)
	for _, m := range ms {
		k := key{m.Q, m.S}
		n, ok := index[k]
		if !ok {
			index[k] = len(out)
			out = append(out, &Matrix{Name: m.Name, Q: m.Q, S: m.S, Dense: mat.DenseCopyOf(m.matrix())})
			continue
		}
		m.addScaledTo(out[n].Dense, 1)
		out[n].Name += " + " + m.Name
	}
	if level >= 2 {
		for _, m := range out {
			csr := utils.NewCSRFromDense(m.Dense, DropTol, m.Name)
			r, c := csr.Dims()
			if float64(csr.NNZ()) < SparseDensity*float64(r*c) {
				m.Sparse, m.Dense = &csr, nil
			}
		}
	}
	return
}
