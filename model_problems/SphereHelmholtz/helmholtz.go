package SphereHelmholtz

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notargets/gospectral/Basis1D"
	"github.com/notargets/gospectral/Curvilinear"
	"github.com/notargets/gospectral/Forms"
	"github.com/notargets/gospectral/InputParameters"
	"github.com/notargets/gospectral/Solvers"
	"github.com/notargets/gospectral/TensorSpace"
	"github.com/notargets/gospectral/utils"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Helmholtz solves -lap(u) + alpha u = g on a spherical shell, with g
// manufactured from a known solution so the error can be measured.
type Helmholtz struct {
	ip     *InputParameters.Helmholtz
	RunID  uuid.UUID
	comm   utils.Communicator
	logger *zap.Logger
	Space  *TensorSpace.Space
	Exact  Curvilinear.Expression
}

type Option func(*Helmholtz)

func WithLogger(logger *zap.Logger) Option {
	return func(h *Helmholtz) { h.logger = logger }
}

// WithRunID sets the run id shared by every rank of one run.
func WithRunID(id uuid.UUID) Option {
	return func(h *Helmholtz) { h.RunID = id }
}

// NewHelmholtz builds the discretization on this rank. Every rank of comm
// must call it with the same parameters.
func NewHelmholtz(comm utils.Communicator, ip *InputParameters.Helmholtz, opts ...Option) (h *Helmholtz, err error) {
	if err = ip.Validate(); err != nil {
		return nil, err
	}
	if comm == nil {
		comm = utils.Self()
	}
	h = &Helmholtz{
		ip:     ip,
		comm:   comm,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.RunID == uuid.Nil {
		h.RunID = uuid.New()
	}
	h.logger = h.logger.With(zap.String("run_id", h.RunID.String()), zap.Int("rank", comm.Rank()))
	var bopts []Basis1D.Option
	if strings.EqualFold(ip.Quadrature, "lobatto") {
		bopts = append(bopts, Basis1D.WithQuadrature(Basis1D.QUAD_GaussLobatto))
	}
	b0, err := Basis1D.NewBasis(Basis1D.FAMILY_Legendre, ip.N[0], Basis1D.BC_Dirichlet,
		Basis1D.Domain(ip.Domain), bopts...)
	if err != nil {
		return nil, err
	}
	b1, err := Basis1D.NewBasis(Basis1D.FAMILY_Fourier, ip.N[1], Basis1D.BC_Periodic, Basis1D.Domain{0, 2 * math.Pi})
	if err != nil {
		return nil, err
	}
	if h.Space, err = TensorSpace.NewSpace(comm, b0, b1,
		TensorSpace.WithCoordinates(Curvilinear.SphericalShell(ip.Radius)),
		TensorSpace.WithLogger(h.logger)); err != nil {
		return nil, err
	}
	switch strings.ToLower(ip.Solution) {
	case "harmonic":
		h.Exact = Harmonic()
	default:
		h.Exact = Bubble(ip.Domain[0], ip.Domain[1], ip.Wavenumber)
	}
	return
}

// Result summarizes a run. Mesh holds the refined solution and is only
// present on rank 0.
type Result struct {
	RunID       string        `json:"RunID"`
	Title       string        `json:"Title"`
	N           [2]int        `json:"N"`
	Alpha       float64       `json:"Alpha"`
	Solution    string        `json:"Solution"`
	Formulation string        `json:"Formulation"`
	Level       int           `json:"Level"`
	Ranks       int           `json:"Ranks"`
	L2Error     float64       `json:"L2Error"`
	MaxError    float64       `json:"MaxError"`
	Residual    float64       `json:"Residual"`
	Elapsed     time.Duration `json:"Elapsed"`
	Mesh        *Mesh         `json:"Mesh,omitempty"`
}

// Mesh is the solution on the physical surface. The periodic direction is
// closed by repeating the first column, so each row has N1+1 points.
type Mesh struct {
	Shape [2]int      `json:"Shape"`
	X     [][]float64 `json:"X"`
	Y     [][]float64 `json:"Y"`
	Z     [][]float64 `json:"Z"`
	U     [][]float64 `json:"U"`
}

func (h *Helmholtz) assemble() (*Forms.MatrixSet, error) {
	var (
		s     = h.Space
		v, u  = Forms.TestFunction(s), Forms.TrialFunction(s)
		alpha = h.ip.Alpha
		level = Forms.WithLevel(h.ip.Level)
	)
	if strings.EqualFold(h.ip.Formulation, "divergence") {
		return Forms.Inner(v, Forms.Sum(Forms.Neg(Forms.Laplace(u)), Forms.Scale(alpha, u)), level)
	}
	K, err := Forms.InnerVector(Forms.Grad(v), Forms.Grad(u), level)
	if err != nil {
		return nil, err
	}
	M, err := Forms.Inner(v, Forms.Scale(alpha, u), level)
	if err != nil {
		return nil, err
	}
	return K.Add(M)
}

// Solve runs the whole pipeline: manufacture the right hand side, assemble,
// solve, measure the error and sample the refined solution on rank 0.
func (h *Helmholtz) Solve() (r *Result, err error) {
	var (
		s     = h.Space
		start = time.Now()
	)
	r = &Result{
		RunID:       h.RunID.String(),
		Title:       h.ip.Title,
		N:           h.ip.N,
		Alpha:       h.ip.Alpha,
		Solution:    h.ip.Solution,
		Formulation: h.ip.Formulation,
		Level:       h.ip.Level,
		Ranks:       h.comm.Size(),
	}
	A, err := h.assemble()
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	rhs, err := Forms.InnerArray(Forms.TestFunction(s), s.EvaluateHelmholtz(h.Exact, h.ip.Alpha))
	if err != nil {
		return nil, err
	}
	solver, err := Solvers.NewGeneric(A, Solvers.WithLogger(h.logger))
	if err != nil {
		return nil, err
	}
	f, err := solver.Solve(rhs, nil)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	if utils.IsNan(f.Data) {
		return nil, fmt.Errorf("solve: NaN in the coefficients")
	}
	if r.Residual, err = solver.Residual(f, rhs); err != nil {
		return nil, err
	}
	uh, err := s.Backward(f)
	if err != nil {
		return nil, err
	}
	diff := uh.Copy()
	diff.Sub(s.EvaluateExpression(h.Exact))
	if r.L2Error, err = s.L2Norm(diff); err != nil {
		return nil, err
	}
	if r.MaxError, err = h.maxError(diff); err != nil {
		return nil, err
	}
	if r.Mesh, err = h.refinedMesh(f); err != nil {
		return nil, err
	}
	r.Elapsed = time.Since(start)
	h.logger.Info("solved",
		zap.Ints("N", h.ip.N[:]),
		zap.Float64("l2_error", r.L2Error),
		zap.Float64("max_error", r.MaxError),
		zap.Float64("residual", r.Residual),
		zap.Duration("elapsed", r.Elapsed),
		utils.MemUsage())
	return
}

func (h *Helmholtz) maxError(diff *TensorSpace.Array) (float64, error) {
	out, err := h.comm.AllReduceMax([]float64{diff.MaxAbs()})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// refinedMesh pads the coefficients to the output resolution and gathers
// the surface and the solution on rank 0.
func (h *Helmholtz) refinedMesh(f *TensorSpace.Function) (m *Mesh, err error) {
	var (
		s = h.Space
		N = [2]int{h.ip.Refinement * h.ip.N[0], h.ip.Refinement * h.ip.N[1]}
	)
	g, err := s.Refine(f, N)
	if err != nil {
		return nil, err
	}
	rs := g.Space
	u, err := rs.Backward(g)
	if err != nil {
		return nil, err
	}
	var (
		xyz    = rs.LocalCurvilinearMesh()
		fields = []*TensorSpace.Array{xyz[0], xyz[1], xyz[2], u}
		dense  = make([]*mat.Dense, len(fields))
	)
	for i, a := range fields {
		if dense[i], err = rs.Gather(0, a); err != nil {
			return nil, err
		}
	}
	if h.comm.Rank() != 0 {
		return nil, nil
	}
	return &Mesh{
		Shape: [2]int{N[0], N[1] + 1},
		X:     wrapPeriodic(dense[0]),
		Y:     wrapPeriodic(dense[1]),
		Z:     wrapPeriodic(dense[2]),
		U:     wrapPeriodic(dense[3]),
	}, nil
}

// wrapPeriodic returns the rows of A with the first column repeated at the
// end.
func wrapPeriodic(A *mat.Dense) (rows [][]float64) {
	r, c := A.Dims()
	rows = make([][]float64, r)
	for i := range rows {
		row := make([]float64, c+1)
		mat.Row(row[:c], i, A)
		row[c] = row[0]
		rows[i] = row
	}
	return
}
