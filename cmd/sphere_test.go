package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/notargets/gospectral/InputParameters"
	"github.com/notargets/gospectral/model_problems/SphereHelmholtz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRunSphere(t *testing.T) {
	var (
		dir = t.TempDir()
		ip  = InputParameters.NewHelmholtz()
	)
	ip.N = [2]int{20, 20}
	ip.Ranks = 2
	ip.Output = filepath.Join(dir, "sphere.yaml")
	ip.Tolerances = map[string]float64{"L2Error": 1.e-6}
	require.NoError(t, RunSphere(context.Background(), ip, zaptest.NewLogger(t)))
	r, err := SphereHelmholtz.ReadResult(ip.Output)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Ranks)
	assert.Less(t, r.L2Error, 1.e-6)
	require.NotNil(t, r.Mesh)
	assert.Equal(t, [2]int{40, 41}, r.Mesh.Shape)

	// A tolerance the run cannot meet fails the command
	ip.Ranks, ip.Output = 1, ""
	ip.Tolerances = map[string]float64{"L2Error": 0}
	assert.Error(t, RunSphere(context.Background(), ip, zaptest.NewLogger(t)))
}

func TestSphereCommand(t *testing.T) {
	var (
		dir   = t.TempDir()
		input = filepath.Join(dir, "input.yaml")
		out   = filepath.Join(dir, "out.yaml")
	)
	require.NoError(t, os.WriteFile(input, []byte(`
Title: "Command line"
N: [16, 16]
Solution: Harmonic
Formulation: Divergence
Tolerances:
  L2Error: 1.e-6
`), 0644))
	rootCmd.SetArgs([]string{"sphere", "-I", input, "-n", "18,16", "--level", "2", "-o", out})
	require.NoError(t, rootCmd.Execute())
	r, err := SphereHelmholtz.ReadResult(out)
	require.NoError(t, err)
	assert.Equal(t, "Command line", r.Title)
	assert.Equal(t, [2]int{18, 16}, r.N)
	assert.Equal(t, 2, r.Level)
	assert.Equal(t, "Divergence", r.Formulation)

	_, err = startProfile("trace")
	assert.Error(t, err)
}
