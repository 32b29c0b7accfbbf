package utils

import (
	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// CSR is a read-only compressed sparse row matrix built from a dense one.
type CSR struct {
	M    *sparse.CSR
	name string
}

// NewCSRFromDense keeps the entries of A whose magnitude exceeds
// tol*max|A|.
func NewCSRFromDense(A mat.Matrix, tol float64, name string) (R CSR) {
	var (
		nr, nc = A.Dims()
		dok    = sparse.NewDOK(nr, nc)
		amax   = MaxAbs(A)
	)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			if v := A.At(i, j); v != 0 && abs(v) > tol*amax {
				dok.Set(i, j, v)
			}
		}
	}
	R = CSR{
		M:    dok.ToCSR(),
		name: name,
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)    { return m.M.Dims() }
func (m CSR) At(i, j int) float64 { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix       { return m.M.T() }
func (m CSR) NNZ() int            { return m.M.NNZ() }
func (m CSR) Name() string        { return m.name }

// AddScaledTo accumulates alpha*m into dst, which must have the same shape.
func (m CSR) AddScaledTo(dst *mat.Dense, alpha float64) {
	m.M.DoNonZero(func(i, j int, v float64) {
		dst.Set(i, j, dst.At(i, j)+alpha*v)
	})
}

// Density is the fraction of stored entries of a matrix.
func Density(A mat.Matrix) float64 {
	nr, nc := A.Dims()
	if nr*nc == 0 {
		return 0
	}
	var nnz int
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			if A.At(i, j) != 0 {
				nnz++
			}
		}
	}
	return float64(nnz) / float64(nr*nc)
}

func MaxAbs(A mat.Matrix) (amax float64) {
	nr, nc := A.Dims()
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			if v := abs(A.At(i, j)); v > amax {
				amax = v
			}
		}
	}
	return
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
