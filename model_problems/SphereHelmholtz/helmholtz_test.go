package SphereHelmholtz

import (
	"context"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/notargets/gospectral/Curvilinear"
	"github.com/notargets/gospectral/InputParameters"
	"github.com/notargets/gospectral/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/diff/fd"
)

func checkDerivatives(t *testing.T, e Curvilinear.Expression, q [2]float64) {
	var (
		grad     = e.Grad(q)
		hess     = e.Hess(q)
		settings = &fd.Settings{Formula: fd.Central}
	)
	for i := 0; i < 2; i++ {
		along := func(i int, f func(q [2]float64) float64) func(x float64) float64 {
			return func(x float64) float64 {
				p := q
				p[i] = x
				return f(p)
			}
		}
		assert.InDelta(t, grad[i], fd.Derivative(along(i, e.F), q[i], settings), 1.e-6)
		for j := 0; j < 2; j++ {
			dj := func(p [2]float64) float64 { return e.Grad(p)[j] }
			assert.InDelta(t, hess[i][j], fd.Derivative(along(i, dj), q[i], settings), 1.e-5)
		}
	}
}

func TestManufacturedSolutions(t *testing.T) {
	for _, q := range [][2]float64{{0.3, 1.1}, {1.7, 4.2}, {2.9, 0.05}} {
		checkDerivatives(t, Bubble(0, math.Pi, 8), q)
		checkDerivatives(t, Bubble(0.2, 3, 3), q)
		checkDerivatives(t, Harmonic(), q)
	}
	b := Bubble(0.2, 3, 3)
	assert.Equal(t, 0., b.F([2]float64{0.2, 1}))
	assert.Equal(t, 0., b.F([2]float64{3, 1}))
}

func TestSolveDefault(t *testing.T) {
	ip := InputParameters.NewHelmholtz()
	h, err := NewHelmholtz(nil, ip, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	r, err := h.Solve()
	require.NoError(t, err)
	assert.Less(t, r.L2Error, 1.e-6)
	assert.Less(t, r.MaxError, 1.e-6)
	assert.NoError(t, r.Check(map[string]float64{"L2Error": 1.e-6, "Residual": 1.e-8}))
	assert.Equal(t, 1, r.Ranks)
	assert.Equal(t, h.RunID.String(), r.RunID)

	m := r.Mesh
	require.NotNil(t, m)
	assert.Equal(t, [2]int{80, 81}, m.Shape)
	require.Len(t, m.U, 80)
	var maxErr float64
	for i := range m.U {
		require.Len(t, m.U[i], 81)
		assert.Equal(t, m.U[i][0], m.U[i][80])
		assert.Equal(t, m.X[i][0], m.X[i][80])
		for j := range m.U[i] {
			x, y, z := m.X[i][j], m.Y[i][j], m.Z[i][j]
			assert.InDelta(t, 1., x*x+y*y+z*z, 1.e-13)
			q := [2]float64{math.Acos(z), math.Atan2(y, x)}
			maxErr = math.Max(maxErr, math.Abs(m.U[i][j]-h.Exact.F(q)))
		}
	}
	assert.Less(t, maxErr, 1.e-6)
}

func TestFormulations(t *testing.T) {
	var l2 []float64
	for _, form := range []struct {
		name  string
		level int
	}{{"ByParts", 0}, {"ByParts", 2}, {"Divergence", 1}, {"Divergence", 2}} {
		ip := InputParameters.NewHelmholtz()
		ip.N = [2]int{24, 16}
		ip.Solution = "Harmonic"
		ip.Radius = 2
		ip.Formulation, ip.Level = form.name, form.level
		ip.Refinement = 1
		h, err := NewHelmholtz(nil, ip)
		require.NoError(t, err)
		r, err := h.Solve()
		require.NoError(t, err)
		assert.Less(t, r.L2Error, 1.e-9, "%s level %d", form.name, form.level)
		assert.Equal(t, [2]int{24, 17}, r.Mesh.Shape)
		l2 = append(l2, r.L2Error)
	}
	for _, v := range l2[1:] {
		assert.InDelta(t, l2[0], v, 1.e-10)
	}
}

func TestSubDomain(t *testing.T) {
	ip := InputParameters.NewHelmholtz()
	ip.N = [2]int{20, 16}
	ip.Domain = [2]float64{0.3, 2.5}
	ip.Wavenumber = 3
	ip.Quadrature = "Lobatto"
	h, err := NewHelmholtz(nil, ip)
	require.NoError(t, err)
	r, err := h.Solve()
	require.NoError(t, err)
	assert.Less(t, r.L2Error, 1.e-8)

	// Lobatto nodes on the full interval sit on the poles
	ip.Domain = [2]float64{0, math.Pi}
	_, err = NewHelmholtz(nil, ip)
	var sme *utils.SingularMetricError
	assert.ErrorAs(t, err, &sme)
}

func TestWriteAndCheck(t *testing.T) {
	ip := InputParameters.NewHelmholtz()
	ip.N = [2]int{16, 20}
	h, err := NewHelmholtz(nil, ip)
	require.NoError(t, err)
	r, err := h.Solve()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "sphere.yaml")
	require.NoError(t, r.Write(path))
	back, err := ReadResult(path)
	require.NoError(t, err)
	assert.True(t, cmp.Equal(r, back), cmp.Diff(r, back))

	assert.Error(t, r.Check(map[string]float64{"L2Error": 0}))
	var cfg *utils.ConfigurationError
	assert.ErrorAs(t, r.Check(map[string]float64{"Energy": 1}), &cfg)
}

func TestDistributedRun(t *testing.T) {
	defer goleak.VerifyNone(t)
	ip := InputParameters.NewHelmholtz()
	ip.N = [2]int{20, 24}
	h, err := NewHelmholtz(nil, ip)
	require.NoError(t, err)
	serial, err := h.Solve()
	require.NoError(t, err)

	w, err := utils.NewWorld(3, zaptest.NewLogger(t))
	require.NoError(t, err)
	var (
		id      = uuid.New()
		mu      sync.Mutex
		results = make([]*Result, 3)
	)
	err = w.Run(context.Background(), func(comm utils.Communicator) error {
		h, err := NewHelmholtz(comm, ip, WithRunID(id))
		if err != nil {
			return err
		}
		r, err := h.Solve()
		if err != nil {
			return err
		}
		mu.Lock()
		results[comm.Rank()] = r
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	for rank, r := range results {
		assert.Equal(t, id.String(), r.RunID)
		assert.Equal(t, 3, r.Ranks)
		assert.InDelta(t, serial.L2Error, r.L2Error, 1.e-12)
		assert.InDelta(t, serial.MaxError, r.MaxError, 1.e-12)
		if rank != 0 {
			assert.Nil(t, r.Mesh)
		}
	}
	approx := cmp.Comparer(func(a, b float64) bool { return math.Abs(a-b) <= 1.e-12 })
	assert.True(t, cmp.Equal(serial.Mesh, results[0].Mesh, approx), cmp.Diff(serial.Mesh, results[0].Mesh, approx))
}
