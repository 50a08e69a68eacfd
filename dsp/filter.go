package dsp

import "math"

type (
	FilterType  int
	FilterSlope int
)

const (
	FilterLowPass FilterType = iota
	FilterHighPass
	FilterBandPass
	FilterNotch
	FilterBypass
)

const (
	Slope12 FilterSlope = iota
	Slope24
)

// Filter is a resonant biquad, or two cascaded biquads for the 24 dB slope.
// The coefficients are the bilinear transforms of the analog prototypes in
// Zölzer's "Digital Audio Signal Processing".
type Filter struct {
	rate           float64
	d1, d2, d3, d4 float64
}

func NewFilter(sampleRate int) Filter {
	return Filter{rate: float64(sampleRate)}
}

func (f *Filter) SetSampleRate(rate int) { f.rate = float64(rate) }

func (f *Filter) Reset() { f.d1, f.d2, f.d3, f.d4 = 0, 0, 0, 0 }

// Process filters the buffer in place. Cutoff is in Hz and is kept between
// 10 Hz and just below the Nyquist frequency; res is in [0, 1).
func (f *Filter) Process(buffer []float32, cutoff, res float32, typ FilterType, slope FilterSlope) {
	if typ == FilterBypass {
		return
	}
	fc := math.Min(float64(cutoff), f.rate/2*0.99)
	fc = math.Max(fc, 10)
	if math.IsNaN(fc) {
		fc = 10
	}
	w := fc / f.rate
	r := math.Max(0.001, 2*(1-float64(res))) // 1/Q
	k := math.Tan(w * math.Pi)
	k2 := k * k
	rk := r * k
	bh := 1 + rk + k2

	var a0, a1, a2 float64
	b1 := 2 * (k2 - 1) / bh
	b2 := (1 - rk + k2) / bh
	switch typ {
	case FilterLowPass:
		a0 = k2 / bh
		a1 = 2 * a0
		a2 = a0
	case FilterHighPass:
		a0 = 1 / bh
		a1 = -2 / bh
		a2 = a0
	case FilterBandPass:
		a0 = rk / bh
		a1 = 0
		a2 = -rk / bh
	case FilterNotch:
		a0 = (1 + k2) / bh
		a1 = b1
		a2 = a0
	default:
		return
	}

	for i, s := range buffer {
		x := float64(s)
		y := a0*x + f.d1
		f.d1 = f.d2 + a1*x - b1*y
		f.d2 = a2*x - b2*y
		if slope == Slope24 {
			x = y
			y = a0*x + f.d3
			f.d3 = f.d4 + a1*x - b1*y
			f.d4 = a2*x - b2*y
		}
		buffer[i] = float32(y)
	}
}
