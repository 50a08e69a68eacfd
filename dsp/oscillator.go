package dsp

import "math"

type Waveform int

const (
	WaveSine Waveform = iota
	WavePulse
	WaveSaw
	WaveNoise
	WaveRandom // noise, sample and hold
)

const twoPi = 2 * math.Pi

// Oscillator generates the waveforms of the voice oscillators and the LFO.
// The waves are not band limited; the pulse and saw shapes are tweaked at
// high frequencies to alias less.
type Oscillator struct {
	Waveform Waveform
	Polarity float32 // 1 or -1, only affects the saw

	// SyncEnabled resets the phase every time a virtual oscillator running
	// at the sync frequency completes a cycle.
	SyncEnabled bool

	rate      float32
	twoPiRate float32
	rads      float32
	frequency Lerper
	pw        float32

	syncFrequency float32
	syncRads      float32

	seed        uint32
	random      float32
	randomCount int
}

func NewOscillator(sampleRate int) Oscillator {
	o := Oscillator{Waveform: WaveSine, Polarity: 1, seed: 22222}
	o.SetSampleRate(sampleRate)
	return o
}

func (o *Oscillator) SetSampleRate(rate int) {
	o.rate = float32(rate)
	o.twoPiRate = twoPi / o.rate
}

func (o *Oscillator) Reset() { o.rads = 0 }

// Process renders len(buffer) samples. The frequency glides linearly from
// the frequency of the previous block to freq over the block.
func (o *Oscillator) Process(buffer []float32, freq, pw, syncFreq float32) {
	if nyquist := o.rate / 2; freq > nyquist {
		freq = nyquist
	}
	o.frequency.Configure(o.frequency.FinalValue(), freq, len(buffer))
	o.pw = pw
	o.syncFrequency = syncFreq
	switch o.Waveform {
	case WaveSine:
		o.sine(buffer)
	case WavePulse:
		o.pulse(buffer)
	case WaveSaw:
		o.saw(buffer)
	case WaveNoise:
		o.noise(buffer)
	case WaveRandom:
		o.sampleAndHold(buffer)
	}
}

func (o *Oscillator) sync(rads *float32) {
	if !o.SyncEnabled {
		return
	}
	o.syncRads += o.twoPiRate * o.syncFrequency
	if o.syncRads >= twoPi {
		o.syncRads -= twoPi
		*rads = 0
	}
}

func (o *Oscillator) sine(buffer []float32) {
	for i := range buffer {
		o.sync(&o.rads)
		o.rads += o.twoPiRate * o.frequency.Next()
		buffer[i] = float32(math.Sin(float64(o.rads)))
	}
	o.rads = fmodf(o.rads, twoPi)
}

func (o *Oscillator) pulse(buffer []float32) {
	radsPer := o.twoPiRate * o.frequency.FinalValue()
	pwScale := float32(1)
	if radsPer >= 0.3 {
		pwScale = 1 - (radsPer-0.3)/2
	}
	pw := o.pw
	if pw > 0.9 {
		pw = 0.9
	}
	pwRads := math.Pi + pwScale*math.Pi*pw
	lrads := o.rads
	for i := range buffer {
		o.sync(&lrads)
		radInc := o.twoPiRate * o.frequency.Next()
		nrads := lrads + radInc
		var y float32
		switch {
		case nrads >= twoPi: // -1 to 1 transition
			nrads -= twoPi
			y = 2*(nrads/radInc) - 1
		case nrads <= pwRads:
			y = 1
		case lrads <= pwRads: // 1 to -1 transition
			y = 1 - 2*((nrads-pwRads)/radInc)
		default:
			y = -1
		}
		buffer[i] = y
		lrads = nrads
	}
	o.rads = lrads
}

func sawShape(rads, shape float32) float32 {
	t := fmodf(rads, twoPi) / twoPi
	a := (shape + 1) / 2
	if t < a/2 {
		return 2 * t / a
	}
	if t > 1-a/2 {
		return (2*t - 2) / a
	}
	return (1 - 2*t) / (1 - a)
}

func (o *Oscillator) saw(buffer []float32) {
	// clamp the maximum slope to reduce aliasing in high octaves
	shape := o.pw - 2*o.frequency.FinalValue()/o.rate
	for i := range buffer {
		o.sync(&o.rads)
		o.rads += o.twoPiRate * o.frequency.Next()
		buffer[i] = sawShape(o.rads, shape) * o.Polarity
	}
	o.rads = fmodf(o.rads, twoPi)
}

func (o *Oscillator) rand() float32 {
	o.seed = o.seed*196314165 + 907633515
	return float32(o.seed)*(2/float32(math.MaxUint32)) - 1
}

func (o *Oscillator) noise(buffer []float32) {
	for i := range buffer {
		buffer[i] = o.rand()
	}
}

func (o *Oscillator) sampleAndHold(buffer []float32) {
	period := math.MaxInt32
	if f := o.frequency.FinalValue(); f > 0 {
		period = int(o.rate / f)
	}
	for i := range buffer {
		if o.randomCount > period {
			o.randomCount = 0
			o.random = o.rand()
		}
		o.randomCount++
		buffer[i] = o.random
	}
}

func fmodf(x, y float32) float32 {
	return x - y*float32(int(x/y))
}
