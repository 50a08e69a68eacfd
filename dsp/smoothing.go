// Package dsp contains the signal generators and processors of the synth:
// envelopes, oscillators, filters and the global effects. All processing
// works on float32 blocks and never allocates.
package dsp

import "math"

// MaxBlockSize is the largest number of frames processed in one call.
const MaxBlockSize = 64

// Lerper moves linearly from a start value to a final value in a given
// number of steps and then stays at the final value.
type Lerper struct {
	start, final, inc float32
	steps, i          int
}

func (l *Lerper) Configure(start, final float32, steps int) {
	l.start, l.final, l.steps, l.i = start, final, steps, 0
	if steps > 0 {
		l.inc = (final - start) / float32(steps)
	} else {
		l.inc = 0
		l.start = final
	}
}

func (l *Lerper) Value() float32      { return l.start + float32(l.i)*l.inc }
func (l *Lerper) FinalValue() float32 { return l.final }

// Next returns the current value and advances one step.
func (l *Lerper) Next() float32 {
	y := l.Value()
	l.Advance(1)
	return y
}

func (l *Lerper) Advance(steps int) {
	if l.i += steps; l.i > l.steps {
		l.i = l.steps
	}
}

// IIRFirstOrder is a one-pole filter.
type IIRFirstOrder struct {
	a0, a1, b1 float32
	z          float32
}

func (f *IIRFirstOrder) SetLowPass(sampleRate, cutoff float32) {
	x := f.pole(sampleRate, cutoff)
	f.a0, f.a1, f.b1 = 1-x, 0, x
}

func (f *IIRFirstOrder) SetHighPass(sampleRate, cutoff float32) {
	x := f.pole(sampleRate, cutoff)
	f.a0, f.a1, f.b1 = (1+x)/2, -(1+x)/2, x
}

func (f *IIRFirstOrder) pole(sampleRate, cutoff float32) float32 {
	fc := cutoff / sampleRate
	if fc > 0.5 {
		fc = 0.5
	}
	return float32(math.Exp(-math.Pi / 2 * float64(fc)))
}

func (f *IIRFirstOrder) Process(x float32) float32 {
	y := x*f.a0 + f.z
	f.z = x*f.a1 + y*f.b1
	return y
}

// State is the internal state of the filter, i.e. the last output folded
// into the pole for a low pass.
func (f *IIRFirstOrder) State() float32 { return f.z }
func (f *IIRFirstOrder) Reset()         { f.z = 0 }

// ParamSmoother follows its input with a fixed one-pole lag.
type ParamSmoother struct {
	z float32
}

const smoothingCoefficient = 0.005

func (s *ParamSmoother) Process(x float32) float32 {
	s.z += (x - s.z) * smoothingCoefficient
	return s.z
}

func (s *ParamSmoother) Set(v float32) { s.z = v }

// SmoothedParam is a target value and a smoother that chases it.
type SmoothedParam struct {
	target   float32
	smoother ParamSmoother
}

func NewSmoothedParam(v float32) SmoothedParam {
	return SmoothedParam{target: v, smoother: ParamSmoother{z: v}}
}

func (p *SmoothedParam) Set(v float32)   { p.target = v }
func (p *SmoothedParam) Target() float32 { return p.target }
func (p *SmoothedParam) Tick() float32   { return p.smoother.Process(p.target) }

// Reset jumps to the target value.
func (p *SmoothedParam) Reset() { p.smoother.z = p.target }
