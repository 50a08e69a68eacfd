package dsp

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// Decibel is a level relative to full scale.
type Decibel float32

// PeakMeter tracks the sample peaks of interleaved stereo audio. The held
// peaks fall by a fixed factor for every analyzed frame.
type PeakMeter struct {
	tmp   []float32
	held  [2]float32
	max   [2]float32
	decay float32
}

// NewPeakMeter returns a meter whose held peak falls by 60 dB in fallTime
// seconds.
func NewPeakMeter(sampleRate int, fallTime float64) *PeakMeter {
	decay := math.Pow(10, -3/(fallTime*float64(sampleRate)))
	return &PeakMeter{decay: float32(decay)}
}

// Update analyzes the buffer and returns the held peaks of both channels.
func (m *PeakMeter) Update(interleaved []float32) (left, right Decibel) {
	frames := len(interleaved) / 2
	if frames == 0 {
		return m.Levels()
	}
	if len(m.tmp) < frames {
		m.tmp = append(m.tmp, make([]float32, frames-len(m.tmp))...)
	}
	fall := float32(math.Pow(float64(m.decay), float64(frames)))
	for chn := range 2 {
		for i := 0; i < frames; i++ {
			m.tmp[i] = interleaved[2*i+chn]
		}
		o := m.tmp[:frames]
		vek32.Abs_Inplace(o)
		p := vek32.Max(o)
		m.held[chn] *= fall
		if p > m.held[chn] {
			m.held[chn] = p
		}
		if p > m.max[chn] {
			m.max[chn] = p
		}
	}
	return m.Levels()
}

func (m *PeakMeter) Levels() (left, right Decibel) {
	return toDecibel(m.held[0]), toDecibel(m.held[1])
}

// Max returns the largest peaks seen since the last reset.
func (m *PeakMeter) Max() (left, right Decibel) {
	return toDecibel(m.max[0]), toDecibel(m.max[1])
}

func (m *PeakMeter) Reset() {
	m.held = [2]float32{}
	m.max = [2]float32{}
}

func toDecibel(x float32) Decibel {
	return Decibel(20 * math.Log10(float64(x)))
}
