package dsp

import "math"

type EnvelopeState int

const (
	EnvelopeAttack EnvelopeState = iota
	EnvelopeDecay
	EnvelopeSustain
	EnvelopeRelease
	EnvelopeOff
)

// minimumDecay is the shortest decay time; an attack followed by a decay
// at most this long goes straight to the sustain level.
const minimumDecay = 0.0005

const framesForever = math.MaxInt32

// ADSR is a linear segment envelope generator. Times are in seconds.
type ADSR struct {
	Attack, Decay, Sustain, Release float32

	sampleRate float32
	state      EnvelopeState
	value      float32
	inc        float32
	framesLeft int
	smoother   ParamSmoother
}

func NewADSR(sampleRate int) ADSR {
	return ADSR{
		sampleRate: float32(sampleRate),
		Sustain:    1,
		state:      EnvelopeOff,
		framesLeft: framesForever,
	}
}

func (e *ADSR) SetSampleRate(rate int) { e.sampleRate = float32(rate) }

func (e *ADSR) State() EnvelopeState { return e.state }
func (e *ADSR) Value() float32       { return e.value }

// TriggerOn starts the attack from the current level.
func (e *ADSR) TriggerOn() {
	e.state = EnvelopeAttack
	target := float32(1)
	if e.Decay <= minimumDecay {
		target = e.Sustain
	}
	e.ramp(e.Attack, target)
}

func (e *ADSR) TriggerOff() {
	e.state = EnvelopeRelease
	e.ramp(e.Release, 0)
}

// Reset jumps to the off state with zero level.
func (e *ADSR) Reset() {
	e.state = EnvelopeOff
	e.value = 0
	e.inc = 0
	e.framesLeft = framesForever
}

func (e *ADSR) ramp(seconds, target float32) {
	e.framesLeft = int(seconds * e.sampleRate)
	if e.framesLeft < 1 {
		e.framesLeft = 1
	}
	e.inc = (target - e.value) / float32(e.framesLeft)
}

// Process writes len(buffer) envelope values.
func (e *ADSR) Process(buffer []float32) {
	for len(buffer) > 0 {
		count := len(buffer)
		if e.framesLeft < count {
			count = e.framesLeft
		}
		if e.state == EnvelopeSustain {
			for i := 0; i < count; i++ {
				buffer[i] = e.value
				e.value = e.smoother.Process(e.Sustain)
			}
		} else {
			for i := 0; i < count; i++ {
				buffer[i] = e.value
				e.value += e.inc
			}
		}
		buffer = buffer[count:]
		if e.framesLeft -= count; e.framesLeft > 0 {
			continue
		}
		switch e.state {
		case EnvelopeAttack:
			e.state = EnvelopeDecay
			e.ramp(e.Decay, e.Sustain)
		case EnvelopeDecay:
			e.smoother.Set(e.value)
			e.state = EnvelopeSustain
			e.framesLeft = framesForever
			e.inc = 0
		case EnvelopeSustain:
			e.framesLeft = framesForever
		default:
			e.Reset()
		}
	}
}

func (s EnvelopeState) String() string {
	switch s {
	case EnvelopeAttack:
		return "attack"
	case EnvelopeDecay:
		return "decay"
	case EnvelopeSustain:
		return "sustain"
	case EnvelopeRelease:
		return "release"
	}
	return "off"
}
