package Basis1D

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Fourier is the real-to-complex Fourier basis exp(i*kappa_k*x) on the
// period [a, b), kappa_k = 2*pi*k/(b-a), with N/2+1 stored modes. The
// coefficient of mode k is
//
//	u_k = (1/N) sum_j u(x_j) exp(-i*kappa_k*x_j),  x_j = a + j(b-a)/N
//
// For even N the last mode is the Nyquist mode and is counted once.
type Fourier struct {
	n      int
	domain Domain
	x, w   []float64
	kappa  []float64
	phase  []complex128 // exp(-i*kappa_k*a)
	pool   sync.Pool    // *fourier.FFT, which is not safe for concurrent use
}

func newFourier(N int, domain Domain) (fb *Fourier) {
	fb = &Fourier{
		n:      N,
		domain: domain,
		x:      make([]float64, N),
		w:      make([]float64, N),
	}
	h := domain.Length() / float64(N)
	for j := range fb.x {
		fb.x[j] = domain[0] + float64(j)*h
		fb.w[j] = h
	}
	M := fb.Modes()
	fb.kappa = make([]float64, M)
	fb.phase = make([]complex128, M)
	for k := range fb.kappa {
		fb.kappa[k] = 2 * math.Pi * float64(k) / domain.Length()
		fb.phase[k] = cmplx.Exp(complex(0, -fb.kappa[k]*domain[0]))
	}
	fb.pool.New = func() interface{} { return fourier.NewFFT(N) }
	return
}

func (fb *Fourier) isBasis()              {}
func (fb *Fourier) Family() Family        { return FAMILY_Fourier }
func (fb *Fourier) N() int                { return fb.n }
func (fb *Fourier) BC() BoundaryCondition { return BC_Periodic }
func (fb *Fourier) Domain() Domain        { return fb.domain }
func (fb *Fourier) Points() []float64     { return fb.x }
func (fb *Fourier) Weights() []float64    { return fb.w }
func (fb *Fourier) Dim() int              { return fb.Modes() }

// Modes is the number of stored complex modes, N/2+1.
func (fb *Fourier) Modes() int { return fb.n/2 + 1 }

func (fb *Fourier) Refined(N int) (Basis, error) {
	return NewBasis(FAMILY_Fourier, N, BC_Periodic, fb.domain)
}

// Wavenumbers returns the integer wavenumbers 0 ... N/2.
func (fb *Fourier) Wavenumbers() (k []int) {
	k = make([]int, fb.Modes())
	for i := range k {
		k[i] = i
	}
	return
}

// Kappa returns the wavenumber of mode k scaled to the domain length.
func (fb *Fourier) Kappa(k int) float64 { return fb.kappa[k] }

// HasNyquist reports whether mode k is the Nyquist mode.
func (fb *Fourier) HasNyquist(k int) bool { return fb.n%2 == 0 && k == fb.n/2 }

// ModeWeight is the number of times mode k appears in the real series:
// once for the mean and the Nyquist mode, twice (with its conjugate)
// otherwise.
func (fb *Fourier) ModeWeight(k int) float64 {
	if k == 0 || fb.HasNyquist(k) {
		return 1
	}
	return 2
}

// Forward returns the normalized coefficients of the real samples u.
func (fb *Fourier) Forward(u []float64, dst []complex128) ([]complex128, error) {
	if len(u) != fb.n {
		return nil, fmt.Errorf("fourier: forward needs %d values, have %d", fb.n, len(u))
	}
	fft := fb.pool.Get().(*fourier.FFT)
	defer fb.pool.Put(fft)
	dst = fft.Coefficients(dst, u)
	scale := 1. / float64(fb.n)
	for k := range dst {
		dst[k] *= fb.phase[k] * complex(scale, 0)
	}
	return dst, nil
}

// Backward returns the real samples of the coefficients c at the nodes.
func (fb *Fourier) Backward(c []complex128, dst []float64) ([]float64, error) {
	if len(c) != fb.Modes() {
		return nil, fmt.Errorf("fourier: backward needs %d modes, have %d", fb.Modes(), len(c))
	}
	fft := fb.pool.Get().(*fourier.FFT)
	defer fb.pool.Put(fft)
	shifted := make([]complex128, len(c))
	for k, ck := range c {
		shifted[k] = ck * cmplx.Conj(fb.phase[k])
	}
	return fft.Sequence(dst, shifted), nil
}

// ScalarProduct returns (u, exp(i*kappa_k*x)) over the period.
func (fb *Fourier) ScalarProduct(u []float64, dst []complex128) ([]complex128, error) {
	dst, err := fb.Forward(u, dst)
	if err != nil {
		return nil, err
	}
	L := complex(fb.domain.Length(), 0)
	for k := range dst {
		dst[k] *= L
	}
	return dst, nil
}

// ModeValue is the contribution of mode k with coefficient c to the real
// series at x.
func (fb *Fourier) ModeValue(k int, c complex128, x float64) float64 {
	return fb.ModeWeight(k) * real(c*cmplx.Exp(complex(0, fb.kappa[k]*x)))
}

// EvalPoint evaluates the real series of c at x.
func (fb *Fourier) EvalPoint(c []complex128, x float64) (u float64) {
	for k, ck := range c {
		u += fb.ModeValue(k, ck, x)
	}
	return
}

// Resize maps coefficients onto a Fourier basis of size newN on the same
// period. Padding halves an old Nyquist mode, which turns into an ordinary
// mode; truncation folds the new Nyquist mode onto its real part.
func (fb *Fourier) Resize(c []complex128, newN int) (cn []complex128) {
	cn = make([]complex128, newN/2+1)
	for k := 0; k < min(len(c), len(cn)); k++ {
		cn[k] = fb.ResizeMode(k, c[k], newN)
	}
	return
}

// ResizeMode is Resize for a single mode k, returning the new coefficient.
func (fb *Fourier) ResizeMode(k int, c complex128, newN int) complex128 {
	if k > newN/2 {
		return 0
	}
	if fb.n%2 == 0 && newN > fb.n && k == fb.n/2 {
		return c / 2
	}
	if newN%2 == 0 && newN < fb.n && k == newN/2 {
		// Real part of the mode seen from the start of the period
		v := 2 * real(c*cmplx.Conj(fb.phase[k]))
		return complex(v, 0) * fb.phase[k]
	}
	return c
}
