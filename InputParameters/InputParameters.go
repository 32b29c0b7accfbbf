package InputParameters

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/notargets/gospectral/utils"
)

// Parameters obtained from the YAML input file
type Helmholtz struct {
	Title       string             `json:"Title"`
	N           [2]int             `json:"N"`           // Modes along theta and phi
	Domain      [2]float64         `json:"Domain"`      // Theta interval
	Radius      float64            `json:"Radius"`      // Sphere radius
	Alpha       float64            `json:"Alpha"`       // Helmholtz constant
	Solution    string             `json:"Solution"`    // "Bubble" or "Harmonic"
	Wavenumber  int                `json:"Wavenumber"`  // Azimuthal wavenumber of the bubble solution
	Formulation string             `json:"Formulation"` // "ByParts" or "Divergence"
	Level       int                `json:"Level"`       // Assembly level, 0, 1 or 2
	Quadrature  string             `json:"Quadrature"`  // "Gauss" or "Lobatto"
	Refinement  int                `json:"Refinement"`  // Output resolution multiplier
	Ranks       int                `json:"Ranks"`       // In-process ranks
	Output      string             `json:"Output"`      // YAML output file, empty for none
	Tolerances  map[string]float64 `json:"Tolerances"`  // Optional named checks, e.g. L2Error: 1.e-6
}

// NewHelmholtz returns the parameters of the demonstration problem, the
// bubble solution at N = 40 with alpha = 2 on the unit sphere.
func NewHelmholtz() *Helmholtz {
	return &Helmholtz{
		Title:       "Helmholtz on the unit sphere",
		N:           [2]int{40, 40},
		Domain:      [2]float64{0, math.Pi},
		Radius:      1,
		Alpha:       2,
		Solution:    "Bubble",
		Wavenumber:  8,
		Formulation: "ByParts",
		Level:       0,
		Quadrature:  "Gauss",
		Refinement:  2,
		Ranks:       1,
	}
}

// Parse overlays the YAML data on the current values.
func (ip *Helmholtz) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *Helmholtz) Validate() error {
	fail := func(format string, args ...interface{}) error {
		return utils.NewConfigurationError("InputParameters", format, args...)
	}
	switch {
	case ip.N[0] < 3 || ip.N[1] < 1:
		return fail("N = %v is too small", ip.N)
	case !(ip.Domain[0] < ip.Domain[1]) || ip.Domain[0] < 0 || ip.Domain[1] > math.Pi:
		return fail("theta domain %v must lie in [0, pi]", ip.Domain)
	case !(ip.Radius > 0):
		return fail("radius must be positive, have %g", ip.Radius)
	case ip.Level < 0 || ip.Level > 2:
		return fail("level must be 0, 1 or 2, have %d", ip.Level)
	case ip.Refinement < 1:
		return fail("refinement must be at least 1, have %d", ip.Refinement)
	case ip.Ranks < 1:
		return fail("ranks must be at least 1, have %d", ip.Ranks)
	}
	switch strings.ToLower(ip.Solution) {
	case "bubble":
	case "harmonic":
		if ip.Domain != [2]float64{0, math.Pi} {
			return fail("the harmonic solution needs the full theta domain, have %v", ip.Domain)
		}
	default:
		return fail("unknown solution %q", ip.Solution)
	}
	switch strings.ToLower(ip.Formulation) {
	case "byparts", "divergence":
	default:
		return fail("unknown formulation %q", ip.Formulation)
	}
	switch strings.ToLower(ip.Quadrature) {
	case "gauss", "lobatto":
	default:
		return fail("unknown quadrature %q", ip.Quadrature)
	}
	return nil
}

func (ip *Helmholtz) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%d, %d]\t\t\t= N\n", ip.N[0], ip.N[1])
	fmt.Printf("[%8.5f, %8.5f]\t= Theta Domain\n", ip.Domain[0], ip.Domain[1])
	fmt.Printf("%8.5f\t\t= Radius\n", ip.Radius)
	fmt.Printf("%8.5f\t\t= Alpha\n", ip.Alpha)
	fmt.Printf("[%s]\t\t\t= Solution\n", ip.Solution)
	fmt.Printf("[%s]\t\t= Formulation\n", ip.Formulation)
	fmt.Printf("[%d]\t\t\t\t= Level\n", ip.Level)
	fmt.Printf("[%s]\t\t\t= Quadrature\n", ip.Quadrature)
	fmt.Printf("[%d]\t\t\t\t= Ranks\n", ip.Ranks)
	keys := make([]string, len(ip.Tolerances))
	i := 0
	for k := range ip.Tolerances {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("Tolerances[%s] = %g\n", key, ip.Tolerances[key])
	}
}
