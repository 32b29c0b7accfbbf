package Solvers

import (
	"fmt"
	"math"
	"runtime"
	"sync/atomic"

	"github.com/notargets/gospectral/Forms"
	"github.com/notargets/gospectral/TensorSpace"
	"github.com/notargets/gospectral/utils"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

const (
	// CondLimit is the condition number above which a block is singular.
	CondLimit = 1.e13
	// ZeroTol is the size, relative to the whole right hand side, below
	// which the right hand side of a singular block counts as zero.
	ZeroTol = 1.e-12
	// RealTol is the size of an imaginary block, relative to the real
	// block, below which a block is solved as real.
	RealTol = 1.e-14
)

// Generic solves a bilinear form with one coupled, non-periodic axis, one
// wavenumber block at a time. Every local block is factorized once, when
// the solver is built, and reused for every right hand side.
type Generic struct {
	Mats   *Forms.MatrixSet
	space  *TensorSpace.Space
	blocks []*block // By local wavenumber
	logger *zap.Logger

	factorizations atomic.Int64
}

// block is the factorized Galerkin part of one wavenumber block. The
// boundary columns multiply the lift coefficients, which move to the right
// hand side.
type block struct {
	k        int
	dim      int
	complex  bool
	chol     *mat.Cholesky
	lu       *mat.LU
	cond     float64
	singular bool
	bndRe    mat.Matrix // dim x (N-dim)
	bndIm    mat.Matrix
}

type Option func(*Generic)

func WithLogger(logger *zap.Logger) Option {
	return func(g *Generic) { g.logger = logger }
}

// NewGeneric factorizes the local blocks of mats concurrently: Cholesky for
// symmetric positive definite real blocks, LU otherwise. Complex blocks are
// factorized as the equivalent real system of twice the size. Singular
// blocks are kept and only fail a solve whose right hand side needs them.
func NewGeneric(mats *Forms.MatrixSet, opts ...Option) (g *Generic, err error) {
	if mats == nil || mats.Space == nil {
		return nil, utils.NewIncompatibleOperatorError("solver needs an assembled form")
	}
	g = &Generic{
		Mats:   mats,
		space:  mats.Space,
		logger: mats.Space.Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	var (
		ks = g.space.LocalWavenumbers()
		eg errgroup.Group
	)
	g.blocks = make([]*block, len(ks))
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for l, k := range ks {
		eg.Go(func() error {
			b, err := g.factorize(k)
			if err != nil {
				return err
			}
			g.blocks[l] = b
			return nil
		})
	}
	if err = eg.Wait(); err != nil {
		return nil, err
	}
	for _, b := range g.blocks {
		if b.singular {
			g.logger.Warn("singular wavenumber block",
				zap.Int("k", b.k), zap.Float64("cond", b.cond))
		}
	}
	g.logger.Debug("factorized blocks",
		zap.Int("blocks", len(g.blocks)), zap.Int64("factorizations", g.factorizations.Load()))
	return
}

func (g *Generic) factorize(k int) (b *block, err error) {
	var (
		re, im = g.Mats.Block(k)
		dim, N = re.Dims()
	)
	if N < dim {
		return nil, fmt.Errorf("solver: block %d has %d rows but only %d columns", k, dim, N)
	}
	b = &block{
		k:     k,
		dim:   dim,
		bndRe: re.Slice(0, dim, dim, N),
		bndIm: im.Slice(0, dim, dim, N),
	}
	var (
		Ar = re.Slice(0, dim, 0, dim)
		Ai = im.Slice(0, dim, 0, dim)
	)
	b.complex = utils.MaxAbs(Ai) > RealTol*utils.MaxAbs(Ar)
	g.factorizations.Add(1)
	switch {
	case b.complex:
		A := mat.NewDense(2*dim, 2*dim, nil)
		A.Slice(0, dim, 0, dim).(*mat.Dense).Copy(Ar)
		A.Slice(dim, 2*dim, dim, 2*dim).(*mat.Dense).Copy(Ar)
		A.Slice(dim, 2*dim, 0, dim).(*mat.Dense).Copy(Ai)
		A.Slice(0, dim, dim, 2*dim).(*mat.Dense).Scale(-1, Ai)
		b.lu = &mat.LU{}
		b.lu.Factorize(A)
		b.cond = b.lu.Cond()
	case isSymmetric(Ar):
		sym := mat.NewSymDense(dim, nil)
		for i := 0; i < dim; i++ {
			for j := i; j < dim; j++ {
				sym.SetSym(i, j, 0.5*(Ar.At(i, j)+Ar.At(j, i)))
			}
		}
		b.chol = &mat.Cholesky{}
		if b.chol.Factorize(sym) {
			b.cond = b.chol.Cond()
			break
		}
		b.chol = nil
		fallthrough
	default:
		b.lu = &mat.LU{}
		b.lu.Factorize(Ar)
		b.cond = b.lu.Cond()
	}
	b.singular = math.IsInf(b.cond, 0) || math.IsNaN(b.cond) || b.cond > CondLimit
	return
}

func isSymmetric(A mat.Matrix) bool {
	var (
		n, _ = A.Dims()
		tol  = 1.e-12 * utils.MaxAbs(A)
	)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.Abs(A.At(i, j)-A.At(j, i)) > tol {
				return false
			}
		}
	}
	return true
}

// Factorizations is the number of block factorizations performed so far.
func (g *Generic) Factorizations() int { return int(g.factorizations.Load()) }

// Solve returns the coefficients u with (test, form(u)) = rhs, where rhs
// holds the scalar products of the right hand side with the test functions.
// Dirichlet boundary values of the space are lifted into the boundary
// slots of u. The result is written to out when it is not nil.
//
// A singular block whose right hand side vanishes gets a zero solution;
// otherwise it contributes a *utils.SingularSystemError and the remaining
// blocks are still solved. The size of a vanishing right hand side is
// measured against the whole right hand side, so every rank must call Solve.
func (g *Generic) Solve(rhs, out *TensorSpace.Function) (*TensorSpace.Function, error) {
	if rhs == nil || !g.space.Compatible(rhs.Space) {
		return nil, utils.NewIncompatibleOperatorError("right hand side belongs to another space")
	}
	if out == nil {
		out = g.space.NewFunction()
	} else if !g.space.Compatible(out.Space) {
		return nil, utils.NewIncompatibleOperatorError("solution belongs to another space")
	}
	var (
		scale float64
		errs  error
		lift  = g.space.B0.LiftCoefficients()
	)
	for _, v := range rhs.Data {
		scale = math.Max(scale, math.Max(math.Abs(real(v)), math.Abs(imag(v))))
	}
	all, err := g.space.Comm().AllReduceMax([]float64{scale})
	if err != nil {
		return nil, err
	}
	scale = all[0]
	for l, b := range g.blocks {
		br, bi := rhs.Column(l)
		br, bi = br[:b.dim], bi[:b.dim]
		var bl []float64
		if b.k == 0 {
			bl = lift
			subtractBoundary(br, b.bndRe, bl)
			subtractBoundary(bi, b.bndIm, bl)
		}
		xr, xi, err := b.solve(br, bi, scale)
		if err != nil {
			errs = multierr.Append(errs, err)
			xr, xi = make([]float64, b.dim), make([]float64, b.dim)
		}
		xr, xi = append(xr, make([]float64, len(lift))...), append(xi, make([]float64, len(lift))...)
		copy(xr[b.dim:], bl)
		out.SetColumn(l, xr, xi)
	}
	return out, errs
}

// subtractBoundary removes the boundary columns times the lift from b.
func subtractBoundary(b []float64, bnd mat.Matrix, lift []float64) {
	if len(lift) == 0 {
		return
	}
	for i := range b {
		for j, v := range lift {
			b[i] -= bnd.At(i, j) * v
		}
	}
}

func (b *block) solve(br, bi []float64, scale float64) (xr, xi []float64, err error) {
	if b.singular {
		xr, xi = make([]float64, b.dim), make([]float64, b.dim)
		var bmax float64
		for i := range br {
			bmax = math.Max(bmax, math.Max(math.Abs(br[i]), math.Abs(bi[i])))
		}
		if bmax > ZeroTol*scale {
			err = &utils.SingularSystemError{Wavenumber: b.k, Cond: b.cond}
		}
		return
	}
	var x mat.Dense
	if b.complex {
		rhs := mat.NewVecDense(2*b.dim, append(append([]float64(nil), br...), bi...))
		if err = b.lu.SolveTo(&x, false, rhs); err != nil {
			return nil, nil, fmt.Errorf("solver: wavenumber %d: %w", b.k, err)
		}
		col := mat.Col(nil, 0, &x)
		return col[:b.dim], col[b.dim:], nil
	}
	B := mat.NewDense(b.dim, 2, nil)
	B.SetCol(0, br)
	B.SetCol(1, bi)
	if b.chol != nil {
		err = b.chol.SolveTo(&x, B)
	} else {
		err = b.lu.SolveTo(&x, false, B)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("solver: wavenumber %d: %w", b.k, err)
	}
	return mat.Col(nil, 0, &x), mat.Col(nil, 1, &x), nil
}

// Residual is the Euclidean norm of form(u) - rhs over the Galerkin slots
// of all ranks.
func (g *Generic) Residual(u, rhs *TensorSpace.Function) (float64, error) {
	Au, err := g.Mats.Apply(u)
	if err != nil {
		return 0, err
	}
	var (
		sum float64
		dim = g.space.B0.Dim()
	)
	for i := 0; i < dim; i++ {
		for l := 0; l < u.Modes(); l++ {
			d := Au.At(i, l) - rhs.At(i, l)
			sum += real(d)*real(d) + imag(d)*imag(d)
		}
	}
	all, err := g.space.Comm().AllReduceSum([]float64{sum})
	if err != nil {
		return 0, err
	}
	return math.Sqrt(all[0]), nil
}
