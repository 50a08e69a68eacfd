package dsp

import "math"

// Distortion is a power law waveshaper: y = sign(x) * |x|^crunch.
type Distortion struct {
	crunch SmoothedParam
}

func NewDistortion() Distortion {
	return Distortion{crunch: NewSmoothedParam(1)}
}

// SetCrunch sets the amount of distortion, 0 is clean.
func (d *Distortion) SetCrunch(amount float32) {
	d.crunch.Set(1 - amount)
}

func (d *Distortion) Process(buffer []float32) {
	for i, x := range buffer {
		c := d.crunch.Tick()
		if c >= 1 {
			continue
		}
		if c < 0.01 {
			c = 0.01
		}
		s := float32(1)
		if x < 0 {
			s, x = -1, -x
		}
		buffer[i] = s * float32(math.Pow(float64(x), float64(c)))
	}
}
