package dsp

import "math"

const (
	limiterAttackTime  = 0.0001
	limiterReleaseTime = 0.5
	limiterThreshold   = 0.9
)

// SoftLimiter is a peak following limiter without lookahead. Both channels
// get the same gain, computed from the peak of the louder one.
type SoftLimiter struct {
	attack, release float64
	thresh          float64 // log domain
	xpeak           float64
}

func NewSoftLimiter(sampleRate int) SoftLimiter {
	l := SoftLimiter{thresh: math.Log(limiterThreshold)}
	l.SetSampleRate(sampleRate)
	return l
}

func (l *SoftLimiter) SetSampleRate(rate int) {
	l.attack = 1 - math.Exp(-2.2/(limiterAttackTime*float64(rate)))
	l.release = 1 - math.Exp(-2.2/(limiterReleaseTime*float64(rate)))
}

func (l *SoftLimiter) Reset() { l.xpeak = 0 }

// Gain advances the peak follower by one frame and returns the gain for it.
func (l *SoftLimiter) Gain(left, right float32) float64 {
	x := math.Max(math.Abs(float64(left)), math.Abs(float64(right)))
	if x > l.xpeak {
		l.xpeak = (1-l.release)*l.xpeak + l.attack*(x-l.xpeak)
	} else {
		l.xpeak = (1 - l.release) * l.xpeak
	}
	if l.xpeak <= 0 {
		return 1
	}
	over := math.Log(l.xpeak) - l.thresh
	if over <= 0 {
		return 1
	}
	return math.Exp(-over)
}

// Process limits the frames of the stride-addressed channels in place.
func (l *SoftLimiter) Process(left, right []float32, frames, stride int) {
	for i := 0; i < frames; i++ {
		j := i * stride
		g := l.Gain(left[j], right[j])
		left[j] = float32(float64(left[j]) * g)
		right[j] = float32(float64(right[j]) * g)
	}
}
