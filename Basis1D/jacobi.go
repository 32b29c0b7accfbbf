package Basis1D

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// JacobiGL returns the N+1 Gauss-Lobatto points of the Jacobi weight
// (alpha, beta) on [-1, 1]: the zeros of (1-x^2) P'_N(x).
func JacobiGL(alpha, beta float64, N int) (X []float64) {
	X = make([]float64, N+1)
	if N == 0 {
		return
	}
	X[0], X[N] = -1, 1
	if N == 1 {
		return
	}
	xint, _ := JacobiGQ(alpha+1, beta+1, N-2)
	copy(X[1:N], xint)
	return
}

// JacobiGQ returns the N+1 Gauss points and weights of the Jacobi weight
// (alpha, beta) on [-1, 1] from the eigenpairs of the Jacobi matrix.
func JacobiGQ(alpha, beta float64, N int) (X, W []float64) {
	var (
		fac        float64
		h1, d0, d1 []float64
		VVr        *mat.Dense
	)
	if N == 0 {
		X = []float64{-(alpha - beta) / (alpha + beta + 2.)}
		W = []float64{2.}
		return
	}

	h1 = make([]float64, N+1)
	for i := 0; i < N+1; i++ {
		h1[i] = 2*float64(i) + alpha + beta
	}

	// main diagonal: -(alpha^2-beta^2)/((h1+2)*h1)
	d0 = make([]float64, N+1)
	fac = -(alpha*alpha - beta*beta)
	for i := 0; i < N+1; i++ {
		val := h1[i]
		d0[i] = fac / (val * (val + 2.))
	}
	// Handle division by zero
	eps := 1.e-16
	if alpha+beta < 10*eps {
		d0[0] = 0.
	}

	// 1st upper diagonal
	d1 = make([]float64, N)
	for i := 0; i < N; i++ {
		ip1 := float64(i + 1)
		val := h1[i]
		d1[i] = 2. / (val + 2.)
		d1[i] *= math.Sqrt(ip1 * (ip1 + alpha + beta) * (ip1 + alpha) * (ip1 + beta) / ((val + 1.) * (val + 3.)))
	}

	JJ := mat.NewSymDense(N+1, nil)
	for i := 0; i < N+1; i++ {
		JJ.SetSym(i, i, d0[i])
		if i < N {
			JJ.SetSym(i, i+1, d1[i])
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(JJ, true); !ok {
		panic("eigenvalue decomposition failed")
	}
	X = eig.Values(nil)

	VVr = mat.NewDense(N+1, N+1, nil)
	eig.VectorsTo(VVr)
	g0 := gamma0(alpha, beta)
	W = make([]float64, N+1)
	for i, v := range VVr.RawRowView(0) {
		W[i] = v * v * g0
	}
	return
}

// JacobiP evaluates the orthonormal Jacobi polynomial of order N at r.
func JacobiP(r []float64, alpha, beta float64, N int) (p []float64) {
	var (
		Nc = len(r)
	)
	rg := 1. / math.Sqrt(gamma0(alpha, beta))
	pOld := make([]float64, Nc)
	for i := range pOld {
		pOld[i] = rg
	}
	if N == 0 {
		return pOld
	}
	ab := alpha + beta
	rg1 := 1. / math.Sqrt(gamma1(alpha, beta))
	p = make([]float64, Nc)
	for i := range p {
		p[i] = rg1 * ((ab+2.0)*r[i]/2.0 + (alpha-beta)/2.0)
	}
	if N == 1 {
		return
	}

	a1 := alpha + 1.
	b1 := beta + 1.
	ab1 := ab + 1.
	aold := 2.0 * math.Sqrt(a1*b1/(ab+3.0)) / (ab + 2.0)
	for i := 0; i < N-1; i++ {
		ip1 := float64(i + 1)
		ip2 := ip1 + 1
		h1 := 2.0*ip1 + ab
		anew := 2.0 / (h1 + 2.0) * math.Sqrt(ip2*(ip1+ab1)*(ip1+a1)*(ip1+b1)/(h1+1.0)/(h1+3.0))
		bnew := -(alpha*alpha - beta*beta) / h1 / (h1 + 2.0)
		for j := range p {
			pOld[j], p[j] = p[j], (-aold*pOld[j]+(r[j]-bnew)*p[j])/anew
		}
		aold = anew
	}
	return
}

// DerivJacobiP evaluates the k-th derivative of the orthonormal Jacobi
// polynomial of order N at r.
func DerivJacobiP(r []float64, alpha, beta float64, N, k int) (p []float64) {
	if k == 0 {
		return JacobiP(r, alpha, beta, N)
	}
	if N < k {
		return make([]float64, len(r))
	}
	p = DerivJacobiP(r, alpha+1, beta+1, N-1, k-1)
	fN := float64(N)
	fac := math.Sqrt(fN * (fN + alpha + beta + 1))
	for i, val := range p {
		p[i] = val * fac
	}
	return
}

// LegendreTable returns the len(r) x nModes matrix of the deriv-th
// derivative of the Legendre polynomials L_0 ... L_{nModes-1} at r.
func LegendreTable(r []float64, nModes, deriv int) (V *mat.Dense) {
	V = mat.NewDense(len(r), nModes, nil)
	for n := 0; n < nModes; n++ {
		scale := math.Sqrt(2. / (2.*float64(n) + 1.))
		col := DerivJacobiP(r, 0, 0, n, deriv)
		for i, v := range col {
			V.Set(i, n, v*scale)
		}
	}
	return
}

// LegendreGLWeights returns the Gauss-Lobatto weights matching
// JacobiGL(0, 0, len(r)-1).
func LegendreGLWeights(r []float64) (W []float64) {
	var (
		n  = len(r) - 1
		fn = float64(n)
		Ln = JacobiP(r, 0, 0, n)
	)
	scale := math.Sqrt(2. / (2.*fn + 1.))
	W = make([]float64, len(r))
	for i := range r {
		l := Ln[i] * scale
		W[i] = 2. / (fn * (fn + 1.) * l * l)
	}
	return
}

func gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1.
	a1 := alpha + 1.
	b1 := beta + 1.
	return math.Gamma(a1) * math.Gamma(b1) * math.Pow(2, ab1) / ab1 / math.Gamma(ab1)
}

func gamma1(alpha, beta float64) float64 {
	ab := alpha + beta
	a1 := alpha + 1.
	b1 := beta + 1.
	return a1 * b1 * gamma0(alpha, beta) / (ab + 3.0)
}
