package TensorSpace

import (
	"math"

	"github.com/notargets/gospectral/utils"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// rowsToModes redistributes per-row data, one slice of N1/2+1 wavenumbers
// for each local row, into per-mode data, one slice of N0 axis-0 values
// for each local wavenumber.
func (s *Space) rowsToModes(rows [][]complex128) (cols [][]complex128, err error) {
	var (
		P        = s.Part
		mlo, mhi = P.LocalModes()
		nl       = mhi - mlo
		send     = make([][]complex128, P.Size)
		recv     [][]complex128
	)
	for q := range send {
		qlo, qhi := P.Modes.GetBucketRange(q)
		nq := qhi - qlo
		buf := make([]complex128, len(rows)*nq)
		for i, row := range rows {
			copy(buf[i*nq:(i+1)*nq], row[qlo:qhi])
		}
		send[q] = buf
	}
	if recv, err = s.comm.AllToAll(send); err != nil {
		return
	}
	cols = make([][]complex128, nl)
	for l := range cols {
		cols[l] = make([]complex128, s.B0.N())
	}
	for p, buf := range recv {
		plo, phi := P.Rows.GetBucketRange(p)
		for i := 0; i < phi-plo; i++ {
			for l := 0; l < nl; l++ {
				cols[l][plo+i] = buf[i*nl+l]
			}
		}
	}
	return
}

// modesToRows is the inverse of rowsToModes.
func (s *Space) modesToRows(cols [][]complex128) (rows [][]complex128, err error) {
	var (
		P        = s.Part
		rlo, rhi = P.LocalRows()
		nl       = len(cols)
		send     = make([][]complex128, P.Size)
		recv     [][]complex128
	)
	for q := range send {
		qlo, qhi := P.Rows.GetBucketRange(q)
		buf := make([]complex128, (qhi-qlo)*nl)
		for i := 0; i < qhi-qlo; i++ {
			for l, col := range cols {
				buf[i*nl+l] = col[qlo+i]
			}
		}
		send[q] = buf
	}
	if recv, err = s.comm.AllToAll(send); err != nil {
		return
	}
	rows = make([][]complex128, rhi-rlo)
	for i := range rows {
		rows[i] = make([]complex128, s.B1.Modes())
	}
	for p, buf := range recv {
		plo, phi := P.Modes.GetBucketRange(p)
		np := phi - plo
		for i := range rows {
			copy(rows[i][plo:phi], buf[i*np:(i+1)*np])
		}
	}
	return
}

func splitComplex(c []complex128) (re, im []float64) {
	re, im = make([]float64, len(c)), make([]float64, len(c))
	for i, v := range c {
		re[i], im[i] = real(v), imag(v)
	}
	return
}

func joinComplex(re, im []float64) (c []complex128) {
	c = make([]complex128, len(re))
	for i := range c {
		c[i] = complex(re[i], im[i])
	}
	return
}

// Forward projects physical values onto the space. The mean mode takes
// the boundary values of a Dirichlet space in its lift slots.
func (s *Space) Forward(u *Array) (*Function, error) {
	return s.forward(u, true)
}

func (s *Space) forward(u *Array, lift bool) (f *Function, err error) {
	if !u.checkSpace(s) {
		return nil, utils.NewConfigurationError("Forward", "array does not belong to this space")
	}
	rows := make([][]complex128, u.Rows())
	for i := range rows {
		if rows[i], err = s.B1.Forward(u.Row(i), nil); err != nil {
			return nil, err
		}
	}
	cols, err := s.rowsToModes(rows)
	if err != nil {
		return nil, err
	}
	f = s.NewFunction()
	for l, col := range cols {
		re, im := splitComplex(col)
		if re, err = s.B0.Forward(re, lift && f.Wavenumber(l) == 0); err != nil {
			return nil, err
		}
		if im, err = s.B0.Forward(im, false); err != nil {
			return nil, err
		}
		f.SetColumn(l, re, im)
	}
	return
}

// Backward evaluates a function on the local rows of the mesh.
func (s *Space) Backward(f *Function) (u *Array, err error) {
	if !f.checkSpace(s) {
		return nil, utils.NewConfigurationError("Backward", "function does not belong to this space")
	}
	cols := make([][]complex128, f.Modes())
	for l := range cols {
		re, im := f.Column(l)
		cols[l] = joinComplex(s.B0.Backward(re), s.B0.Backward(im))
	}
	rows, err := s.modesToRows(cols)
	if err != nil {
		return nil, err
	}
	u = s.NewArray()
	for i, row := range rows {
		if _, err = s.B1.Backward(row, u.Row(i)); err != nil {
			return nil, err
		}
	}
	return
}

// ScalarProduct returns (u, test) for every test function of the space,
// integrated against the surface element sqrt(g). Boundary slots are zero.
func (s *Space) ScalarProduct(u *Array) (f *Function, err error) {
	if !u.checkSpace(s) {
		return nil, utils.NewConfigurationError("ScalarProduct", "array does not belong to this space")
	}
	rows := make([][]complex128, u.Rows())
	for i := range rows {
		if rows[i], err = s.B1.ScalarProduct(u.Row(i), nil); err != nil {
			return nil, err
		}
	}
	cols, err := s.rowsToModes(rows)
	if err != nil {
		return nil, err
	}
	sqrtG := make([]float64, s.B0.N())
	for i := range sqrtG {
		sqrtG[i] = s.metric[i].SqrtG
	}
	f = s.NewFunction()
	for l, col := range cols {
		re, im := splitComplex(col)
		f.SetColumn(l, s.B0.WeightedScalarProduct(re, sqrtG), s.B0.WeightedScalarProduct(im, sqrtG))
	}
	return
}

// Refine maps a function onto the space of sizes N by zero padding or
// truncating its coefficients along both axes. The result is distributed
// over the wavenumber partition of the new space.
func (s *Space) Refine(f *Function, N [2]int) (g *Function, err error) {
	if !f.checkSpace(s) {
		return nil, utils.NewConfigurationError("Refine", "function does not belong to this space")
	}
	rs, err := s.Refined(N)
	if err != nil {
		return nil, err
	}
	var (
		P       = s.Part
		Pn      = rs.Part
		Nn0     = rs.B0.N()
		resized = make([][]complex128, f.Modes())
		send    = make([][]complex128, P.Size)
		recv    [][]complex128
	)
	for l := range resized {
		k := f.Wavenumber(l)
		re, im := f.Column(l)
		re, im = s.B0.Resize(re, Nn0), s.B0.Resize(im, Nn0)
		col := make([]complex128, Nn0)
		for i := range col {
			col[i] = s.B1.ResizeMode(k, complex(re[i], im[i]), N[1])
		}
		resized[l] = col
	}
	// Each rank sends the wavenumbers it holds that the receiver owns in
	// the new partition, in ascending order.
	for q := range send {
		qlo, qhi := Pn.Modes.GetBucketRange(q)
		kMin, kMax := P.Modes.Overlap(P.Rank, qlo, qhi)
		buf := make([]complex128, 0, (kMax-kMin)*Nn0)
		for k := kMin; k < kMax; k++ {
			kl, _, _ := P.Modes.GetLocalK(k)
			buf = append(buf, resized[kl]...)
		}
		send[q] = buf
	}
	if recv, err = s.comm.AllToAll(send); err != nil {
		return nil, err
	}
	g = rs.NewFunction()
	for p, buf := range recv {
		kMin, kMax := P.Modes.Overlap(p, g.Lo, g.Hi)
		for k := kMin; k < kMax; k++ {
			var (
				col     = buf[(k-kMin)*Nn0 : (k-kMin+1)*Nn0]
				l, _, _ = Pn.Modes.GetLocalK(k)
			)
			for i, v := range col {
				g.Set(i, l, v)
			}
		}
	}
	s.logger.Debug("refined",
		zap.Ints("from", []int{s.B0.N(), s.B1.N()}), zap.Ints("to", N[:]))
	return
}

// Eval evaluates a function at arbitrary computational points (theta, phi).
// Every rank receives all values.
func (s *Space) Eval(points [][2]float64, f *Function) (u []float64, err error) {
	if !f.checkSpace(s) {
		return nil, utils.NewConfigurationError("Eval", "function does not belong to this space")
	}
	theta := make([]float64, len(points))
	for p, x := range points {
		theta[p] = x[0]
	}
	var (
		V = s.B0.Eval(theta, 0)
		N = s.B0.N()
	)
	u = make([]float64, len(points))
	for p, x := range points {
		for l := 0; l < f.Modes(); l++ {
			var v complex128
			for i := 0; i < N; i++ {
				v += f.At(i, l) * complex(V.At(p, i), 0)
			}
			u[p] += s.B1.ModeValue(f.Wavenumber(l), v, x[1])
		}
	}
	return s.comm.AllReduceSum(u)
}

// Convolve returns the projection of the product of two functions,
// computed on a mesh padded by 3/2 along both axes to remove aliasing.
// The product is projected without lifting, so the boundary slots of the
// result are zero.
func (s *Space) Convolve(a, b *Function) (c *Function, err error) {
	if !a.checkSpace(s) || !b.checkSpace(s) {
		return nil, utils.NewConfigurationError("Convolve", "function does not belong to this space")
	}
	pad := [2]int{(3*s.B0.N() + 1) / 2, (3*s.B1.N() + 1) / 2}
	ap, err := s.Refine(a, pad)
	if err != nil {
		return nil, err
	}
	bp, err := s.Refine(b, pad)
	if err != nil {
		return nil, err
	}
	ua, err := ap.Space.Backward(ap)
	if err != nil {
		return nil, err
	}
	ub, err := bp.Space.Backward(bp)
	if err != nil {
		return nil, err
	}
	floats.Mul(ua.Data, ub.Data)
	cp, err := ap.Space.forward(ua, false)
	if err != nil {
		return nil, err
	}
	if c, err = cp.Space.Refine(cp, s.Shape()); err != nil {
		return nil, err
	}
	c.Space = s
	return
}

// Gather assembles the N0 x N1 physical array on root; other ranks get nil.
func (s *Space) Gather(root int, u *Array) (A *mat.Dense, err error) {
	if !u.checkSpace(s) {
		return nil, utils.NewConfigurationError("Gather", "array does not belong to this space")
	}
	parts, err := s.comm.Gather(root, u.Data)
	if err != nil || parts == nil {
		return nil, err
	}
	data := make([]float64, 0, s.B0.N()*s.B1.N())
	for _, p := range parts {
		data = append(data, p...)
	}
	return mat.NewDense(s.B0.N(), s.B1.N(), data), nil
}

// GatherCoefficients assembles the N0 x (N1/2+1) coefficients on root as
// real and imaginary parts; other ranks get nil.
func (s *Space) GatherCoefficients(root int, f *Function) (re, im *mat.Dense, err error) {
	if !f.checkSpace(s) {
		return nil, nil, utils.NewConfigurationError("GatherCoefficients", "function does not belong to this space")
	}
	packed := make([]float64, 2*len(f.Data))
	for i, v := range f.Data {
		packed[2*i], packed[2*i+1] = real(v), imag(v)
	}
	parts, err := s.comm.Gather(root, packed)
	if err != nil || parts == nil {
		return nil, nil, err
	}
	var (
		N = s.B0.N()
		M = s.B1.Modes()
	)
	re, im = mat.NewDense(N, M, nil), mat.NewDense(N, M, nil)
	for p, buf := range parts {
		lo, hi := s.Part.Modes.GetBucketRange(p)
		nl := hi - lo
		for i := 0; i < N; i++ {
			for l := 0; l < nl; l++ {
				re.Set(i, lo+l, buf[2*(i*nl+l)])
				im.Set(i, lo+l, buf[2*(i*nl+l)+1])
			}
		}
	}
	return
}

// Integrate returns the surface integral of u over the whole mesh.
func (s *Space) Integrate(u *Array) (sum float64, err error) {
	if !u.checkSpace(s) {
		return 0, utils.NewConfigurationError("Integrate", "array does not belong to this space")
	}
	var (
		w0 = s.B0.Weights()
		w1 = s.B1.Weights()
	)
	for i := 0; i < u.Rows(); i++ {
		var (
			row = u.Row(i)
			k   = s.Part.Rows.GetGlobalK(i, s.Part.Rank)
		)
		sum += w0[k] * s.metric[k].SqrtG * floats.Dot(w1, row)
	}
	total, err := s.comm.AllReduceSum([]float64{sum})
	if err != nil {
		return 0, err
	}
	return total[0], nil
}

// L2Norm is the surface L2 norm of u.
func (s *Space) L2Norm(u *Array) (float64, error) {
	if !u.checkSpace(s) {
		return 0, utils.NewConfigurationError("L2Norm", "array does not belong to this space")
	}
	sq := u.Copy()
	floats.Mul(sq.Data, u.Data)
	sum, err := s.Integrate(sq)
	return math.Sqrt(sum), err
}
