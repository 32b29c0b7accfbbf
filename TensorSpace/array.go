package TensorSpace

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Array holds physical values on the rows of the mesh owned by this rank,
// row-major with N1 values per row.
type Array struct {
	Space  *Space
	Lo, Hi int // Global axis-0 rows held
	Data   []float64
}

// Function holds spectral coefficients for the wavenumbers owned by this
// rank. Slot i of local mode l is Data[i*(Hi-Lo)+l].
type Function struct {
	Space  *Space
	Lo, Hi int // Global wavenumbers held
	Data   []complex128
}

func (s *Space) NewArray() *Array {
	lo, hi := s.Part.LocalRows()
	return &Array{
		Space: s,
		Lo:    lo,
		Hi:    hi,
		Data:  make([]float64, (hi-lo)*s.B1.N()),
	}
}

func (s *Space) NewFunction() *Function {
	lo, hi := s.Part.LocalModes()
	return &Function{
		Space: s,
		Lo:    lo,
		Hi:    hi,
		Data:  make([]complex128, s.B0.N()*(hi-lo)),
	}
}

// checkSpace reports whether a holds this rank's rows of a space compatible
// with s.
func (a *Array) checkSpace(s *Space) bool {
	return a != nil && s.Compatible(a.Space) &&
		len(a.Data) == s.Part.Rows.GetBucketDimension(s.Part.Rank)*s.B1.N()
}

func (a *Array) Rows() int               { return a.Hi - a.Lo }
func (a *Array) At(i, j int) float64     { return a.Data[i*a.Space.B1.N()+j] }
func (a *Array) Set(i, j int, v float64) { a.Data[i*a.Space.B1.N()+j] = v }
func (a *Array) Scale(alpha float64)     { floats.Scale(alpha, a.Data) }
func (a *Array) Add(b *Array)            { floats.Add(a.Data, b.Data) }
func (a *Array) Sub(b *Array)            { floats.Sub(a.Data, b.Data) }
func (a *Array) MaxAbs() float64         { return maxAbs(a.Data) }

func (a *Array) Row(i int) []float64 {
	n := a.Space.B1.N()
	return a.Data[i*n : (i+1)*n]
}

func (a *Array) Copy() (b *Array) {
	b = a.Space.NewArray()
	copy(b.Data, a.Data)
	return
}

func (a *Array) String() string {
	return fmt.Sprintf("Array rows [%d, %d) x %d", a.Lo, a.Hi, a.Space.B1.N())
}

func (f *Function) checkSpace(s *Space) bool {
	return f != nil && s.Compatible(f.Space) &&
		len(f.Data) == s.Part.Modes.GetBucketDimension(s.Part.Rank)*s.B0.N()
}

func (f *Function) Modes() int                 { return f.Hi - f.Lo }
func (f *Function) At(i, l int) complex128     { return f.Data[i*f.Modes()+l] }
func (f *Function) Set(i, l int, v complex128) { f.Data[i*f.Modes()+l] = v }
func (f *Function) Wavenumber(l int) int       { return f.Lo + l }
func (f *Function) Scale(alpha complex128)     { scaleComplex(f.Data, alpha) }

func (f *Function) Copy() (g *Function) {
	g = f.Space.NewFunction()
	copy(g.Data, f.Data)
	return
}

// Equal compares coefficients entrywise to an absolute tolerance.
func (f *Function) Equal(g *Function, tol float64) bool {
	return equalComplex(f.Data, g.Data, tol)
}

func (f *Function) String() string {
	return fmt.Sprintf("Function modes [%d, %d) x %d", f.Lo, f.Hi, f.Space.B0.N())
}

// Column returns the real and imaginary axis-0 coefficients of local mode l.
func (f *Function) Column(l int) (re, im []float64) {
	N := f.Space.B0.N()
	re, im = make([]float64, N), make([]float64, N)
	for i := 0; i < N; i++ {
		v := f.At(i, l)
		re[i], im[i] = real(v), imag(v)
	}
	return
}

// SetColumn stores the axis-0 coefficients of local mode l; a nil im is zero.
func (f *Function) SetColumn(l int, re, im []float64) {
	for i := range re {
		v := complex(re[i], 0)
		if im != nil {
			v += complex(0, im[i])
		}
		f.Set(i, l, v)
	}
}

func maxAbs(x []float64) (m float64) {
	for _, v := range x {
		m = math.Max(m, math.Abs(v))
	}
	return
}

func scaleComplex(x []complex128, alpha complex128) {
	for i := range x {
		x[i] *= alpha
	}
}

func equalComplex(a, b []complex128, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(real(a[i])-real(b[i])) > tol || math.Abs(imag(a[i])-imag(b[i])) > tol {
			return false
		}
	}
	return true
}
