package Forms

import (
	"fmt"
	"strings"

	"github.com/notargets/gospectral/Curvilinear"
	"github.com/notargets/gospectral/TensorSpace"
	"github.com/notargets/gospectral/utils"
)

type Role uint8

const (
	ROLE_Test Role = iota
	ROLE_Trial
)

func (r Role) Print() string {
	if r == ROLE_Test {
		return "test"
	}
	return "trial"
}

// Dual is a coefficient value with its gradient in the computational
// coordinates.
type Dual struct {
	V float64
	D [2]float64
}

// Coef is a coefficient of a term, a function of the axis-0 coordinate
// evaluated on the metric of an assembly point. The metric never depends on
// the periodic coordinate, so neither does a coefficient.
type Coef struct {
	Name  string
	Const bool // Value never changes, derivative is zero
	Exact bool // Eval returns the derivative
	Eval  func(mp *Curvilinear.MetricPoint) Dual
}

// Constant is the coefficient c.
func Constant(c float64) Coef {
	return Coef{
		Name:  fmt.Sprintf("%g", c),
		Const: true,
		Exact: true,
		Eval:  func(*Curvilinear.MetricPoint) Dual { return Dual{V: c} },
	}
}

// AxisFunction is a coefficient f(q0) with derivative df. A nil df leaves
// the derivative unknown, so the coefficient cannot be differentiated.
func AxisFunction(name string, f, df func(x float64) float64) Coef {
	return Coef{
		Name:  name,
		Exact: df != nil,
		Eval: func(mp *Curvilinear.MetricPoint) (d Dual) {
			d.V = f(mp.Q[0])
			if df != nil {
				d.D[0] = df(mp.Q[0])
			}
			return
		},
	}
}

// contravariant is g^ij.
func contravariant(i, j int) Coef {
	return Coef{
		Name:  fmt.Sprintf("g^%d%d", i, j),
		Exact: true,
		Eval: func(mp *Curvilinear.MetricPoint) Dual {
			return Dual{V: mp.GInv[i][j], D: [2]float64{mp.DGInv[0][i][j], mp.DGInv[1][i][j]}}
		},
	}
}

// covariant is g_ij.
func covariant(i, j int) Coef {
	return Coef{
		Name: fmt.Sprintf("g_%d%d", i, j),
		Eval: func(mp *Curvilinear.MetricPoint) Dual {
			return Dual{V: mp.G[i][j]}
		},
	}
}

// logSqrtG is d_i sqrt(g) / sqrt(g).
func logSqrtG(i int) Coef {
	return Coef{
		Name: fmt.Sprintf("dlog(sqrtg)_%d", i),
		Eval: func(mp *Curvilinear.MetricPoint) Dual {
			return Dual{V: mp.DSqrtG[i] / mp.SqrtG}
		},
	}
}

func mulCoef(a, b Coef) Coef {
	switch {
	case a.Const && a.Name == "1":
		return b
	case b.Const && b.Name == "1":
		return a
	}
	return Coef{
		Name:  a.Name + "*" + b.Name,
		Const: a.Const && b.Const,
		Exact: a.Exact && b.Exact,
		Eval: func(mp *Curvilinear.MetricPoint) Dual {
			da, db := a.Eval(mp), b.Eval(mp)
			return Dual{
				V: da.V * db.V,
				D: [2]float64{da.D[0]*db.V + da.V*db.D[0], da.D[1]*db.V + da.V*db.D[1]},
			}
		},
	}
}

// derivCoef is d c / d q_i, whose own derivative is unknown.
func derivCoef(c Coef, i int) Coef {
	return Coef{
		Name: fmt.Sprintf("d%d(%s)", i, c.Name),
		Eval: func(mp *Curvilinear.MetricPoint) Dual {
			return Dual{V: c.Eval(mp).D[i]}
		},
	}
}

// Term is Coef times a partial derivative of the test or trial function,
// D[0] times along axis 0 and D[1] times along axis 1.
type Term struct {
	Coef Coef
	D    [2]int
}

func (t Term) String() string {
	return fmt.Sprintf("%s*d(%d,%d)", t.Coef.Name, t.D[0], t.D[1])
}

// Expr is a linear differential expression of the test or the trial
// function of a space. Errors stick to the expression and surface when it
// is assembled.
type Expr struct {
	space *TensorSpace.Space
	role  Role
	terms []Term
	err   error
}

// VectorExpr holds the contravariant components of a vector expression.
type VectorExpr struct {
	space *TensorSpace.Space
	role  Role
	comp  [2][]Term
	err   error
}

func TestFunction(s *TensorSpace.Space) Expr {
	return Expr{space: s, role: ROLE_Test, terms: []Term{{Coef: Constant(1)}}}
}

func TrialFunction(s *TensorSpace.Space) Expr {
	return Expr{space: s, role: ROLE_Trial, terms: []Term{{Coef: Constant(1)}}}
}

func (e Expr) Space() *TensorSpace.Space { return e.space }
func (e Expr) Role() Role                { return e.role }
func (e Expr) Terms() []Term             { return e.terms }
func (e Expr) Err() error                { return e.err }

func (e Expr) String() string {
	names := make([]string, len(e.terms))
	for i, t := range e.terms {
		names[i] = t.String()
	}
	return e.role.Print() + "[" + strings.Join(names, " + ") + "]"
}

func (v VectorExpr) Err() error { return v.err }

// isIdentity reports whether e is the bare test or trial function.
func (e Expr) isIdentity() bool {
	return len(e.terms) == 1 && e.terms[0].D == [2]int{} &&
		e.terms[0].Coef.Const && e.terms[0].Coef.Name == "1"
}

// differentiate returns the terms of d_j (c * d^D f) = c d_j d^D f + (d_j c) d^D f,
// each multiplied by m.
func differentiate(t Term, j int, m Coef) (terms []Term, err error) {
	d := t.D
	d[j]++
	terms = append(terms, Term{Coef: mulCoef(m, t.Coef), D: d})
	// Coefficients never depend on the periodic coordinate
	if j == 1 || t.Coef.Const {
		return
	}
	if !t.Coef.Exact {
		return nil, utils.NewIncompatibleOperatorError(
			"the derivative of coefficient %s is not available", t.Coef.Name)
	}
	terms = append(terms, Term{Coef: mulCoef(m, derivCoef(t.Coef, j)), D: t.D})
	return
}

// Grad is the contravariant gradient g^ij d_j e.
func Grad(e Expr) (v VectorExpr) {
	v = VectorExpr{space: e.space, role: e.role, err: e.err}
	if v.err != nil {
		return
	}
	for i := 0; i < 2; i++ {
		for _, t := range e.terms {
			for j := 0; j < 2; j++ {
				terms, err := differentiate(t, j, contravariant(i, j))
				if err != nil {
					v.err = fmt.Errorf("grad: %w", err)
					return
				}
				v.comp[i] = append(v.comp[i], terms...)
			}
		}
	}
	return
}

// Div is the divergence d_i V^i + (d_i sqrt(g) / sqrt(g)) V^i.
func Div(v VectorExpr) (e Expr) {
	e = Expr{space: v.space, role: v.role, err: v.err}
	if e.err != nil {
		return
	}
	for i := 0; i < 2; i++ {
		for _, t := range v.comp[i] {
			terms, err := differentiate(t, i, Constant(1))
			if err != nil {
				e.err = fmt.Errorf("div: %w", err)
				return
			}
			e.terms = append(e.terms, terms...)
			e.terms = append(e.terms, Term{Coef: mulCoef(logSqrtG(i), t.Coef), D: t.D})
		}
	}
	return
}

// Laplace is Div(Grad(e)), the Laplace-Beltrami operator of the map.
func Laplace(e Expr) Expr { return Div(Grad(e)) }

// Mul multiplies every term by the coefficient c.
func Mul(c Coef, e Expr) Expr {
	out := Expr{space: e.space, role: e.role, err: e.err}
	for _, t := range e.terms {
		out.terms = append(out.terms, Term{Coef: mulCoef(c, t.Coef), D: t.D})
	}
	return out
}

func Scale(alpha float64, e Expr) Expr { return Mul(Constant(alpha), e) }
func Neg(e Expr) Expr                  { return Scale(-1, e) }

// Sum adds expressions of the same role on compatible spaces.
func Sum(es ...Expr) (e Expr) {
	if len(es) == 0 {
		e.err = utils.NewIncompatibleOperatorError("sum of no expressions")
		return
	}
	e = Expr{space: es[0].space, role: es[0].role}
	for _, x := range es {
		switch {
		case x.err != nil:
			e.err = x.err
			return
		case x.role != e.role:
			e.err = utils.NewIncompatibleOperatorError("cannot add %s and %s expressions", e.role.Print(), x.role.Print())
			return
		case !e.space.Compatible(x.space):
			e.err = utils.NewIncompatibleOperatorError("cannot add expressions of different spaces")
			return
		}
		e.terms = append(e.terms, x.terms...)
	}
	return
}

// Component is the contravariant component i of a vector expression.
func Component(v VectorExpr, i int) Expr {
	return Expr{space: v.space, role: v.role, terms: append([]Term(nil), v.comp[i]...), err: v.err}
}
