package Forms

import (
	"fmt"
	"math"

	"github.com/notargets/gospectral/Curvilinear"
	"github.com/notargets/gospectral/TensorSpace"
	"github.com/notargets/gospectral/utils"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

const (
	// DropTol is the relative size below which level 2 drops a term or a
	// matrix entry.
	DropTol = 1.e-14
	// SparseDensity is the fill fraction below which level 2 stores an
	// axis-0 matrix sparse.
	SparseDensity = 0.5
)

type innerOptions struct {
	level int
}

type InnerOption func(*innerOptions)

// WithLevel sets how far assembly shares and simplifies terms:
//
//	0: every product of a test term and a trial term is its own matrix
//	1: products with the same derivative orders are assembled together and
//	   matrices with the same periodic orders are summed
//	2: as 1, also dropping vanishing terms and storing sparse matrices
//
// All levels give the same blocks to round-off.
func WithLevel(level int) InnerOption {
	return func(o *innerOptions) { o.level = level }
}

// product is the pointwise weight of a test term against a trial term at
// the assembly nodes, with their derivative orders.
type product struct {
	name   string
	p, r   int // Axis-0 derivative orders of the test and trial functions
	q, s   int // Periodic derivative orders of the test and trial functions
	weight []float64
}

// Inner assembles the bilinear form (test, trial) integrated over the
// surface.
func Inner(test, trial Expr, opts ...InnerOption) (*MatrixSet, error) {
	if err := checkPair(test.space, test.role, test.err, trial.space, trial.role, trial.err); err != nil {
		return nil, err
	}
	var (
		s        = test.space
		_, w, mp = s.AssemblyRule()
		prods    []product
	)
	for _, a := range test.terms {
		for _, b := range trial.terms {
			prods = append(prods, newProduct(a, b, Constant(1), w, mp))
		}
	}
	return assemble(s, prods, opts...)
}

// InnerVector assembles (test, trial) of two vector expressions, contracted
// with the covariant metric.
func InnerVector(test, trial VectorExpr, opts ...InnerOption) (*MatrixSet, error) {
	if err := checkPair(test.space, test.role, test.err, trial.space, trial.role, trial.err); err != nil {
		return nil, err
	}
	var (
		s        = test.space
		_, w, mp = s.AssemblyRule()
		prods    []product
	)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			gij := covariant(i, j)
			for _, a := range test.comp[i] {
				for _, b := range trial.comp[j] {
					prods = append(prods, newProduct(a, b, gij, w, mp))
				}
			}
		}
	}
	return assemble(s, prods, opts...)
}

// InnerArray returns (test, u) for a physical array u; the test expression
// must be the bare test function.
func InnerArray(test Expr, u *TensorSpace.Array) (*TensorSpace.Function, error) {
	switch {
	case test.err != nil:
		return nil, test.err
	case test.role != ROLE_Test:
		return nil, utils.NewIncompatibleOperatorError("the first argument of an inner product must be a test function")
	case !test.isIdentity():
		return nil, utils.NewIncompatibleOperatorError("only the bare test function can be projected onto an array, have %s", test)
	case !test.space.Compatible(u.Space):
		return nil, utils.NewIncompatibleOperatorError("array and test function belong to different spaces")
	}
	return test.space.ScalarProduct(u)
}

func checkPair(ts *TensorSpace.Space, tr Role, terr error, us *TensorSpace.Space, ur Role, uerr error) error {
	switch {
	case terr != nil:
		return terr
	case uerr != nil:
		return uerr
	case tr != ROLE_Test || ur != ROLE_Trial:
		return utils.NewIncompatibleOperatorError("inner product needs (test, trial), have (%s, %s)", tr.Print(), ur.Print())
	case ts == nil || !ts.Compatible(us):
		return utils.NewIncompatibleOperatorError("test and trial functions belong to different spaces")
	}
	return nil
}

func newProduct(a, b Term, c Coef, w []float64, mp []Curvilinear.MetricPoint) (pr product) {
	pr = product{
		name:   fmt.Sprintf("(%s, %s)", a, b),
		p:      a.D[0],
		r:      b.D[0],
		q:      a.D[1],
		s:      b.D[1],
		weight: make([]float64, len(w)),
	}
	if !(c.Const && c.Name == "1") {
		pr.name = c.Name + pr.name
	}
	for x := range w {
		m := &mp[x]
		pr.weight[x] = w[x] * m.SqrtG * a.Coef.Eval(m).V * b.Coef.Eval(m).V * c.Eval(m).V
	}
	return
}

func assemble(s *TensorSpace.Space, prods []product, opts ...InnerOption) (ms *MatrixSet, err error) {
	var o innerOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.level < 0 || o.level > 2 {
		return nil, utils.NewConfigurationError("Inner", "assembly level must be 0, 1 or 2, have %d", o.level)
	}
	ms = &MatrixSet{Space: s, Level: o.level}
	if o.level > 0 {
		prods = combineProducts(prods, o.level)
	}
	for _, pr := range prods {
		ms.Matrices = append(ms.Matrices, &Matrix{
			Name:  pr.name,
			Q:     pr.q,
			S:     pr.s,
			Dense: axisMatrix(s, pr.p, pr.r, pr.weight),
		})
	}
	ms.Matrices = mergeMatrices(ms.Matrices, o.level)
	s.Logger().Debug("assembled form",
		zap.Int("level", o.level), zap.Int("products", len(prods)), zap.Int("matrices", len(ms.Matrices)))
	return
}

// combineProducts adds the weights of products with the same derivative
// orders. Level 2 also drops products whose weight vanishes.
func combineProducts(prods []product, level int) (out []product) {
	type key struct{ p, r, q, s int }
	index := make(map[key]int)
	for _, pr := range prods {
		k := key{pr.p, pr.r, pr.q, pr.s}
		n, ok := index[k]
		if !ok {
			index[k] = len(out)
			pr.weight = append([]float64(nil), pr.weight...)
			out = append(out, pr)
			continue
		}
		for x, v := range pr.weight {
			out[n].weight[x] += v
		}
		out[n].name += " + " + pr.name
	}
	if level < 2 {
		return
	}
	var wmax float64
	for _, pr := range out {
		wmax = math.Max(wmax, maxAbs(pr.weight))
	}
	kept := out[:0]
	for _, pr := range out {
		if maxAbs(pr.weight) > DropTol*wmax {
			kept = append(kept, pr)
		}
	}
	return kept
}

// axisMatrix integrates A[m][n] = sum_x W_x D^p phi_m(x) D^r phi_n(x) for the
// Dim() test modes m and all N trial slots n.
func axisMatrix(s *TensorSpace.Space, p, r int, W []float64) (A *mat.Dense) {
	var (
		Tp     = s.AssemblyTable(p)
		Tr     = s.AssemblyTable(r)
		nq, N  = Tr.Dims()
		dim    = s.B0.Dim()
		scaled = mat.NewDense(nq, N, nil)
	)
	scaled.Apply(func(i, j int, v float64) float64 { return W[i] * v }, Tr)
	A = mat.NewDense(dim, N, nil)
	A.Mul(Tp.Slice(0, nq, 0, dim).T(), scaled)
	return
}

func maxAbs(x []float64) (m float64) {
	for _, v := range x {
		m = math.Max(m, math.Abs(v))
	}
	return
}
