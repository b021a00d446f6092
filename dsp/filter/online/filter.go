package online

import "fmt"

// Coefficients holds the transfer function of a filter. B is the
// numerator (feedforward) and A the denominator (feedback) with the
// normalization factor at A[0]. An empty A selects FIR mode.
type Coefficients struct {
	B []float64
	A []float64
}

// Filter is a causal FIR/IIR filter with fixed-size circular history
// buffers. It consumes exactly one input sample and produces exactly one
// output sample per call, with no allocation after construction.
type Filter struct {
	b    []float64
	a    []float64 // denominator without the leading normalization factor
	norm float64

	x    []float64 // input history, len(b)
	xPos int
	y    []float64 // output history, len(a) (IIR only)
	yPos int

	fir   bool
	ext   bool // periodic-extension warm-up, true FIR construction only
	calls int
}

// New creates a filter from the given transfer function.
// Coefficient slices are copied.
func New(c Coefficients) (*Filter, error) {
	if len(c.B) == 0 {
		return nil, fmt.Errorf("filter numerator must not be empty")
	}

	f := &Filter{
		b:    append([]float64(nil), c.B...),
		norm: 1,
		x:    make([]float64, len(c.B)),
		fir:  len(c.A) == 0,
		ext:  len(c.A) == 0,
	}
	if !f.fir {
		if c.A[0] == 0 {
			return nil, fmt.Errorf("filter normalization factor must not be 0")
		}
		f.norm = c.A[0]
		f.a = append([]float64(nil), c.A[1:]...)
		if len(f.a) == 0 {
			// Degenerate IIR with no feedback taps behaves as a scaled FIR.
			f.fir = true
		} else {
			f.y = make([]float64, len(f.a))
		}
	}

	return f, nil
}

// NewFIR creates an FIR filter from the given numerator taps.
func NewFIR(b []float64) (*Filter, error) {
	return New(Coefficients{B: b})
}

// ProcessSample filters one input sample and returns one output sample.
//
// In FIR mode the first len(b)-2 calls back-fill not-yet-written history
// slots from the already-written portion of the buffer (the periodic
// extension used by MATLAB-style stationary wavelet transforms) instead
// of relying on zero padding. A cascade of such filters settles within
// a few samples of the start of the stream; outputs produced during
// those first calls are approximations of the steady-state response.
func (f *Filter) ProcessSample(x float64) float64 {
	n := len(f.b)

	f.x[f.xPos] = x
	if f.ext && f.calls < n-2 {
		for i, j := f.xPos+1, 0; i < n; i, j = i+1, j+1 {
			f.x[i] = f.x[j]
		}
	}
	f.xPos++
	if f.xPos >= n {
		f.xPos = 0
	}

	var y float64
	p := f.xPos - 1
	for _, c := range f.b {
		if p < 0 {
			p += n
		}
		y += c * f.x[p]
		p--
	}

	if !f.fir {
		m := len(f.a)
		q := f.yPos - 1
		for _, c := range f.a {
			if q < 0 {
				q += m
			}
			y -= c * f.y[q]
			q--
		}
		f.y[f.yPos] = y / f.norm
		f.yPos++
		if f.yPos >= m {
			f.yPos = 0
		}
	}

	f.calls++

	return y / f.norm
}

// Delay returns the output delay in samples relative to the input for
// FIR mode: len(b)-1.
func (f *Filter) Delay() int {
	return len(f.b) - 1
}

// Order returns the filter order.
func (f *Filter) Order() int {
	if len(f.a) > len(f.b)-1 {
		return len(f.a)
	}
	return len(f.b) - 1
}

// IsFIR reports whether the filter runs without a feedback path.
func (f *Filter) IsFIR() bool {
	return f.fir
}

// Reset clears all history buffers and the warm-up call count.
func (f *Filter) Reset() {
	for i := range f.x {
		f.x[i] = 0
	}
	for i := range f.y {
		f.y[i] = 0
	}
	f.xPos = 0
	f.yPos = 0
	f.calls = 0
}
