package InputParameters

import (
	"errors"
	"math"
	"testing"

	"github.com/notargets/gospectral/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	data := []byte(`
########################################
Title: "Fine sphere"
N: [64, 48]
Alpha: 0.5
Formulation: Divergence
Level: 2
Tolerances:
  L2Error: 1.e-8
########################################
`)
	ip := NewHelmholtz()
	require.NoError(t, ip.Parse(data))
	assert.Equal(t, "Fine sphere", ip.Title)
	assert.Equal(t, [2]int{64, 48}, ip.N)
	assert.Equal(t, 0.5, ip.Alpha)
	assert.Equal(t, "Divergence", ip.Formulation)
	assert.Equal(t, 2, ip.Level)
	assert.Equal(t, 1.e-8, ip.Tolerances["L2Error"])
	// Defaults survive
	assert.Equal(t, [2]float64{0, math.Pi}, ip.Domain)
	assert.Equal(t, 8, ip.Wavenumber)
	assert.Equal(t, 2, ip.Refinement)
	assert.NoError(t, ip.Validate())

	assert.Error(t, ip.Parse([]byte("N: [1, 2, 3")))
}

func TestValidate(t *testing.T) {
	var cfg *utils.ConfigurationError
	cases := map[string]func(ip *Helmholtz){
		"small N":              func(ip *Helmholtz) { ip.N = [2]int{2, 8} },
		"reversed domain":      func(ip *Helmholtz) { ip.Domain = [2]float64{2, 1} },
		"domain past the pole": func(ip *Helmholtz) { ip.Domain = [2]float64{0, 4} },
		"radius":               func(ip *Helmholtz) { ip.Radius = 0 },
		"level":                func(ip *Helmholtz) { ip.Level = 3 },
		"refinement":           func(ip *Helmholtz) { ip.Refinement = 0 },
		"ranks":                func(ip *Helmholtz) { ip.Ranks = 0 },
		"solution":             func(ip *Helmholtz) { ip.Solution = "Gaussian" },
		"formulation":          func(ip *Helmholtz) { ip.Formulation = "Weak" },
		"quadrature":           func(ip *Helmholtz) { ip.Quadrature = "Radau" },
		"partial harmonic": func(ip *Helmholtz) {
			ip.Solution = "Harmonic"
			ip.Domain = [2]float64{0.1, 3}
		},
	}
	for name, mutate := range cases {
		ip := NewHelmholtz()
		mutate(ip)
		err := ip.Validate()
		assert.True(t, errors.As(err, &cfg), "%s: got %v", name, err)
	}
	ip := NewHelmholtz()
	ip.Solution, ip.Formulation, ip.Quadrature = "harmonic", "divergence", "lobatto"
	assert.NoError(t, ip.Validate())
}
