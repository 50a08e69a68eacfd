package dsp

// Reverb is a Freeverb style stereo reverb: eight parallel lowpass-feedback
// comb filters followed by four series allpass filters per channel.
type Reverb struct {
	combL, combR       [numCombs]comb
	allpassL, allpassR [numAllpasses]allpass

	roomSize, damp float32
	width, wet     float32
	wet1, wet2     SmoothedParam
	dry            SmoothedParam
}

const (
	numCombs     = 8
	numAllpasses = 4
	fixedGain    = 0.015
	scaleWet     = 3
	scaleDamp    = 0.4
	scaleRoom    = 0.28
	offsetRoom   = 0.7
	stereoSpread = 23
	tuningRate   = 44100
)

var (
	combTuning    = [numCombs]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
	allpassTuning = [numAllpasses]int{556, 441, 341, 225}
)

type comb struct {
	buffer      []float32
	idx         int
	feedback    float32
	filterStore float32
	damp1       float32
	damp2       float32
}

func (c *comb) process(x float32) float32 {
	out := c.buffer[c.idx]
	c.filterStore = out*c.damp2 + c.filterStore*c.damp1
	c.buffer[c.idx] = x + c.filterStore*c.feedback
	if c.idx++; c.idx >= len(c.buffer) {
		c.idx = 0
	}
	return out
}

type allpass struct {
	buffer []float32
	idx    int
}

const allpassFeedback = 0.5

func (a *allpass) process(x float32) float32 {
	bufOut := a.buffer[a.idx]
	a.buffer[a.idx] = x + bufOut*allpassFeedback
	if a.idx++; a.idx >= len(a.buffer) {
		a.idx = 0
	}
	return bufOut - x
}

// NewReverb allocates the delay lines for the sample rate.
func NewReverb(sampleRate int) *Reverb {
	r := &Reverb{}
	scale := func(n int) int {
		if s := n * sampleRate / tuningRate; s > 0 {
			return s
		}
		return 1
	}
	for i, n := range combTuning {
		r.combL[i].buffer = make([]float32, scale(n))
		r.combR[i].buffer = make([]float32, scale(n+stereoSpread))
	}
	for i, n := range allpassTuning {
		r.allpassL[i].buffer = make([]float32, scale(n))
		r.allpassR[i].buffer = make([]float32, scale(n+stereoSpread))
	}
	r.SetRoomSize(0.5)
	r.SetDamp(0.5)
	r.SetWidth(1)
	r.SetWet(0)
	r.wet1.Reset()
	r.wet2.Reset()
	r.dry.Reset()
	return r
}

func (r *Reverb) SetRoomSize(v float32) {
	r.roomSize = v*scaleRoom + offsetRoom
	r.update()
}

func (r *Reverb) SetDamp(v float32) {
	r.damp = v * scaleDamp
	r.update()
}

func (r *Reverb) SetWidth(v float32) {
	r.width = v
	r.update()
}

// SetWet sets the wet amount; the dry amount is the complement.
func (r *Reverb) SetWet(v float32) {
	r.wet = v * scaleWet
	r.dry.Set(1 - v)
	r.update()
}

func (r *Reverb) update() {
	r.wet1.Set(r.wet * (r.width/2 + 0.5))
	r.wet2.Set(r.wet * (1 - r.width) / 2)
	for i := range r.combL {
		for _, c := range []*comb{&r.combL[i], &r.combR[i]} {
			c.feedback = r.roomSize
			c.damp1 = r.damp
			c.damp2 = 1 - r.damp
		}
	}
}

// Mute clears all delay lines.
func (r *Reverb) Mute() {
	for i := range r.combL {
		for _, c := range []*comb{&r.combL[i], &r.combR[i]} {
			clear(c.buffer)
			c.filterStore = 0
		}
	}
	for i := range r.allpassL {
		clear(r.allpassL[i].buffer)
		clear(r.allpassR[i].buffer)
	}
}

// Process reverberates the stride-addressed stereo frames in place. The
// output is the reverb plus the input scaled by the dry amount.
func (r *Reverb) Process(left, right []float32, frames, stride int) {
	for i := 0; i < frames; i++ {
		j := i * stride
		inL, inR := left[j], right[j]
		input := (inL + inR) * fixedGain
		var outL, outR float32
		for k := range r.combL {
			outL += r.combL[k].process(input)
			outR += r.combR[k].process(input)
		}
		for k := range r.allpassL {
			outL = r.allpassL[k].process(outL)
			outR = r.allpassR[k].process(outR)
		}
		wet1, wet2, dry := r.wet1.Tick(), r.wet2.Tick(), r.dry.Tick()
		left[j] = outL*wet1 + outR*wet2 + inL*dry
		right[j] = outR*wet1 + outL*wet2 + inR*dry
	}
}
