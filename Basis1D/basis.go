package Basis1D

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/gospectral/utils"
)

type Family uint8

const (
	FAMILY_Legendre Family = iota
	FAMILY_Fourier
)

var (
	FamilyNames = map[string]Family{
		"legendre": FAMILY_Legendre,
		"fourier":  FAMILY_Fourier,
	}
	FamilyPrintNames = []string{"Legendre", "Fourier"}
)

func NewFamily(label string) (f Family, err error) {
	var ok bool
	if f, ok = FamilyNames[strings.ToLower(label)]; !ok {
		err = utils.NewConfigurationError("NewFamily", "unknown basis family %q", label)
	}
	return
}

func (f Family) Print() (txt string) {
	txt = FamilyPrintNames[f]
	return
}

type BoundaryCondition uint8

const (
	BC_None BoundaryCondition = iota
	BC_Dirichlet
	BC_Neumann
	BC_Periodic
)

var (
	BCNames = map[string]BoundaryCondition{
		"none":      BC_None,
		"dirichlet": BC_Dirichlet,
		"neumann":   BC_Neumann,
		"periodic":  BC_Periodic,
	}
	BCPrintNames = []string{"None", "Dirichlet", "Neumann", "Periodic"}
)

func NewBoundaryCondition(label string) (bc BoundaryCondition, err error) {
	var ok bool
	if bc, ok = BCNames[strings.ToLower(label)]; !ok {
		err = utils.NewConfigurationError("NewBoundaryCondition", "unknown boundary condition %q", label)
	}
	return
}

func (bc BoundaryCondition) Print() (txt string) {
	txt = BCPrintNames[bc]
	return
}

type Quadrature uint8

const (
	QUAD_Gauss Quadrature = iota
	QUAD_GaussLobatto
)

var QuadPrintNames = []string{"Gauss", "Gauss-Lobatto"}

func (q Quadrature) Print() (txt string) {
	txt = QuadPrintNames[q]
	return
}

// Domain is the closed interval [a, b] of a non-periodic basis, or the
// period [a, b) of a periodic one.
type Domain [2]float64

func (d Domain) Length() float64 { return d[1] - d[0] }

// Basis is the capability set shared by the closed family of 1-D bases,
// *Legendre and *Fourier.
type Basis interface {
	Family() Family
	N() int
	BC() BoundaryCondition
	Domain() Domain
	// Points and Weights are the quadrature rule in physical coordinates.
	Points() []float64
	Weights() []float64
	// Dim is the number of degrees of freedom the basis solves for.
	Dim() int
	// Refined returns the same basis with a different size.
	Refined(N int) (Basis, error)
	isBasis()
}

type options struct {
	quad     Quadrature
	bcValues [2]float64
}

type Option func(*options)

// WithQuadrature selects the node set of a Legendre basis.
func WithQuadrature(q Quadrature) Option {
	return func(o *options) { o.quad = q }
}

// WithBoundaryValues sets the Dirichlet values at the left and right ends.
func WithBoundaryValues(left, right float64) Option {
	return func(o *options) { o.bcValues = [2]float64{left, right} }
}

// NewBasis builds a 1-D basis of size N over domain, validating that the
// boundary condition suits the family.
func NewBasis(family Family, N int, bc BoundaryCondition, domain Domain, opts ...Option) (Basis, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if N <= 0 {
		return nil, utils.NewConfigurationError("NewBasis", "size must be positive, have %d", N)
	}
	if math.IsNaN(domain[0]) || math.IsInf(domain[0], 0) || math.IsNaN(domain[1]) || math.IsInf(domain[1], 0) {
		return nil, utils.NewConfigurationError("NewBasis", "domain %v is not finite", domain)
	}
	if !(domain[0] < domain[1]) {
		return nil, utils.NewConfigurationError("NewBasis", "domain [%g, %g] is degenerate", domain[0], domain[1])
	}
	switch family {
	case FAMILY_Legendre:
		switch bc {
		case BC_Periodic:
			return nil, utils.NewConfigurationError("NewBasis", "%s boundary condition is incompatible with the %s family", bc.Print(), family.Print())
		case BC_Dirichlet, BC_Neumann:
			if N < 3 {
				return nil, utils.NewConfigurationError("NewBasis", "%s basis needs at least 3 modes, have %d", bc.Print(), N)
			}
		}
		if o.quad == QUAD_GaussLobatto && N < 2 {
			return nil, utils.NewConfigurationError("NewBasis", "Gauss-Lobatto rule needs at least 2 points, have %d", N)
		}
		if bc != BC_Dirichlet && o.bcValues != [2]float64{} {
			return nil, utils.NewConfigurationError("NewBasis", "boundary values need a Dirichlet basis, have %s", bc.Print())
		}
		return newLegendre(N, bc, domain, o), nil
	case FAMILY_Fourier:
		if bc != BC_Periodic {
			return nil, utils.NewConfigurationError("NewBasis", "%s boundary condition is incompatible with the %s family", bc.Print(), family.Print())
		}
		if o.quad != QUAD_Gauss || o.bcValues != [2]float64{} {
			return nil, utils.NewConfigurationError("NewBasis", "quadrature and boundary values do not apply to the %s family", family.Print())
		}
		return newFourier(N, domain), nil
	default:
		return nil, utils.NewConfigurationError("NewBasis", "unknown family %d", family)
	}
}

// MustBasis is NewBasis for statically known parameters.
func MustBasis(family Family, N int, bc BoundaryCondition, domain Domain, opts ...Option) Basis {
	b, err := NewBasis(family, N, bc, domain, opts...)
	if err != nil {
		panic(fmt.Sprintf("MustBasis: %v", err))
	}
	return b
}
