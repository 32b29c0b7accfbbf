package TensorSpace

import (
	"sync"

	"github.com/notargets/gospectral/Basis1D"
	"github.com/notargets/gospectral/Curvilinear"
	"github.com/notargets/gospectral/utils"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// MetricTol is the relative tolerance within which the metric must be
// independent of the periodic coordinate.
const MetricTol = 1.e-10

// Space is the tensor product of a non-periodic Legendre basis on axis 0
// and a periodic Fourier basis on axis 1, optionally mapped onto a curved
// surface.
//
// Physical arrays are split across ranks by axis-0 rows, spectral
// functions by Fourier wavenumbers.
type Space struct {
	B0   *Basis1D.Legendre
	B1   *Basis1D.Fourier
	Map  *Curvilinear.CoordinateMap
	Part *Partition

	comm      utils.Communicator
	logger    *zap.Logger
	mapped    bool
	asmPoints int
	metric    []Curvilinear.MetricPoint // At the axis-0 nodes

	asmX, asmW []float64
	asmMetric  []Curvilinear.MetricPoint

	tableMu sync.Mutex
	tables  map[int]*mat.Dense // Axis-0 tables at the assembly nodes, by derivative order
}

// Partition describes how a space is split across ranks. It never changes
// after the space is built.
type Partition struct {
	Rank, Size int
	Rows       *utils.PartitionMap // Axis-0 rows of the physical layout
	Modes      *utils.PartitionMap // Wavenumbers of the spectral layout
}

func (p *Partition) LocalRows() (lo, hi int)  { return p.Rows.GetBucketRange(p.Rank) }
func (p *Partition) LocalModes() (lo, hi int) { return p.Modes.GetBucketRange(p.Rank) }

type options struct {
	cm        *Curvilinear.CoordinateMap
	logger    *zap.Logger
	asmPoints int
}

type Option func(*options)

// WithCoordinates maps the computational coordinates onto a surface.
func WithCoordinates(cm *Curvilinear.CoordinateMap) Option {
	return func(o *options) { o.cm = cm }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithAssemblyPoints overrides the number of axis-0 nodes used to integrate
// operator matrices.
func WithAssemblyPoints(n int) Option {
	return func(o *options) { o.asmPoints = n }
}

// NewSpace validates the axis roles and precomputes the metric at every
// node the space evaluates. Metrics that vanish at one of those nodes give
// a *utils.SingularMetricError.
func NewSpace(comm utils.Communicator, b0, b1 Basis1D.Basis, opts ...Option) (s *Space, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if comm == nil {
		comm = utils.Self()
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	lb, ok := b0.(*Basis1D.Legendre)
	if !ok || lb == nil {
		return nil, utils.NewConfigurationError("NewSpace", "axis 0 must hold the non-periodic Legendre basis")
	}
	fb, ok := b1.(*Basis1D.Fourier)
	if !ok || fb == nil {
		return nil, utils.NewConfigurationError("NewSpace", "axis 1 must hold the periodic Fourier basis")
	}
	s = &Space{
		B0:        lb,
		B1:        fb,
		Map:       o.cm,
		comm:      comm,
		logger:    o.logger,
		mapped:    o.cm != nil,
		asmPoints: o.asmPoints,
		tables:    make(map[int]*mat.Dense),
	}
	if s.Map == nil {
		s.Map = Curvilinear.Cartesian()
	}
	if s.asmPoints == 0 {
		s.asmPoints = (3*lb.N()+1)/2 + 8
	}
	if s.asmPoints < lb.N() {
		return nil, utils.NewConfigurationError("NewSpace", "%d assembly points cannot integrate %d modes", s.asmPoints, lb.N())
	}
	s.Part = &Partition{
		Rank:  comm.Rank(),
		Size:  comm.Size(),
		Rows:  utils.NewPartitionMap(comm.Size(), lb.N()),
		Modes: utils.NewPartitionMap(comm.Size(), fb.Modes()),
	}
	if s.metric, err = s.metricAlong(lb.Points()); err != nil {
		return nil, err
	}
	s.asmX, s.asmW = lb.QuadratureN(s.asmPoints)
	if s.asmMetric, err = s.metricAlong(s.asmX); err != nil {
		return nil, err
	}
	s.logger.Debug("space created",
		zap.Int("N0", lb.N()), zap.Int("N1", fb.N()),
		zap.String("bc", lb.BC().Print()), zap.String("map", s.Map.Name),
		zap.Int("rank", s.Part.Rank), zap.Int("ranks", s.Part.Size))
	return
}

// metricAlong evaluates the metric at the axis-0 points x and checks that
// it is the same along every line of the periodic axis.
func (s *Space) metricAlong(x []float64) (mps []Curvilinear.MetricPoint, err error) {
	phi := s.B1.Points()
	mps = make([]Curvilinear.MetricPoint, len(x))
	for i, xi := range x {
		if mps[i], err = s.Map.MetricAt([2]float64{xi, phi[0]}); err != nil {
			return nil, err
		}
		for _, p := range phi[1:] {
			mp, err := s.Map.MetricAt([2]float64{xi, p})
			if err != nil {
				return nil, err
			}
			if !mps[i].Close(mp, MetricTol) {
				return nil, utils.NewConfigurationError("NewSpace",
					"metric of map %q varies along the periodic axis at (%g, %g)", s.Map.Name, xi, p)
			}
		}
	}
	return
}

func (s *Space) Comm() utils.Communicator { return s.comm }
func (s *Space) Logger() *zap.Logger      { return s.logger }

// Refined returns the space with sizes N, keeping the map, communicator
// and boundary values.
func (s *Space) Refined(N [2]int) (*Space, error) {
	b0, err := s.B0.Refined(N[0])
	if err != nil {
		return nil, err
	}
	b1, err := s.B1.Refined(N[1])
	if err != nil {
		return nil, err
	}
	opts := []Option{WithLogger(s.logger)}
	if s.mapped {
		opts = append(opts, WithCoordinates(s.Map))
	}
	return NewSpace(s.comm, b0, b1, opts...)
}

// Compatible reports whether two spaces discretize the same problem.
func (s *Space) Compatible(other *Space) bool {
	if s == other {
		return true
	}
	return other != nil &&
		s.B0.N() == other.B0.N() && s.B1.N() == other.B1.N() &&
		s.B0.BC() == other.B0.BC() && s.B0.Domain() == other.B0.Domain() &&
		s.B0.BoundaryValues() == other.B0.BoundaryValues() &&
		s.B0.Quadrature() == other.B0.Quadrature() &&
		s.B1.Domain() == other.B1.Domain() && s.Map.Name == other.Map.Name &&
		s.Part.Size == other.Part.Size
}

// Shape is the global physical shape, N0 x N1.
func (s *Space) Shape() [2]int { return [2]int{s.B0.N(), s.B1.N()} }

// SpectralShape is the global coefficient shape, N0 x (N1/2+1).
func (s *Space) SpectralShape() [2]int { return [2]int{s.B0.N(), s.B1.Modes()} }

// Dims is the number of unknowns per axis.
func (s *Space) Dims() [2]int { return [2]int{s.B0.Dim(), s.B1.Modes()} }

// Dim is the total number of unknowns.
func (s *Space) Dim() int { return s.B0.Dim() * s.B1.Modes() }

// NonPeriodicAxes lists the axes solved with coupled systems.
func (s *Space) NonPeriodicAxes() []int { return []int{0} }

// Wavenumbers returns the periodic wavenumbers, scaled to the period when
// scaled is set.
func (s *Space) Wavenumbers(scaled bool) (k []float64) {
	k = make([]float64, s.B1.Modes())
	for i := range k {
		if scaled {
			k[i] = s.B1.Kappa(i)
		} else {
			k[i] = float64(i)
		}
	}
	return
}

// LocalWavenumbers returns the integer wavenumbers this rank owns.
func (s *Space) LocalWavenumbers() (k []int) {
	lo, hi := s.Part.LocalModes()
	for i := lo; i < hi; i++ {
		k = append(k, i)
	}
	return
}

// Mesh returns the global computational mesh.
func (s *Space) Mesh() (theta, phi []float64) {
	return s.B0.Points(), s.B1.Points()
}

// LocalMesh returns the rows of the computational mesh this rank owns.
func (s *Space) LocalMesh() (theta, phi []float64) {
	lo, hi := s.Part.LocalRows()
	return s.B0.Points()[lo:hi], s.B1.Points()
}

// LocalCurvilinearMesh returns the physical coordinates x, y, z of the
// local mesh.
func (s *Space) LocalCurvilinearMesh() (xyz [3]*Array) {
	for a := range xyz {
		xyz[a] = s.NewArray()
	}
	theta, phi := s.LocalMesh()
	for i, t := range theta {
		for j, p := range phi {
			x := s.Map.Position([2]float64{t, p})
			for a := range xyz {
				xyz[a].Set(i, j, x[a])
			}
		}
	}
	return
}

// Metric returns the metric at axis-0 node i.
func (s *Space) Metric(i int) Curvilinear.MetricPoint { return s.metric[i] }

// AssemblyRule returns the axis-0 nodes, weights and metric used to
// integrate operator matrices.
func (s *Space) AssemblyRule() (x, w []float64, metric []Curvilinear.MetricPoint) {
	return s.asmX, s.asmW, s.asmMetric
}

// AssemblyTable returns the deriv-th derivative of every axis-0 slot
// function at the assembly nodes. Tables are computed once.
func (s *Space) AssemblyTable(deriv int) *mat.Dense {
	s.tableMu.Lock()
	defer s.tableMu.Unlock()
	if T, ok := s.tables[deriv]; ok {
		return T
	}
	T := s.B0.Eval(s.asmX, deriv)
	s.tables[deriv] = T
	return T
}
