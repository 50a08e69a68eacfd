package engine

import (
	"math"

	"github.com/amsynth/amsynth-sub001"
	"github.com/amsynth/amsynth-sub001/dsp"
)

const (
	// the VCA control signal is low passed to prevent clicks
	vcaLowPassFrequency = 4000
	// filter key tracking is relative to middle C
	keyTrackBaseFrequency = 261.626
	silenceThreshold      = 1e-7
)

// VoiceBoard renders one note: two oscillators, a mixer, a filter, amp and
// filter envelopes and an LFO.
type VoiceBoard struct {
	rate float32

	// frequency glides linearly in log2(Hz)
	frequency       dsp.Lerper
	frequencyDirty  bool
	frequencyValid  bool // false until the first glide has been configured
	frequencyStart  float32
	frequencyTarget float32
	frequencyTime   float32

	velocity  float32
	pitchBend float32

	lfo           dsp.Oscillator
	lfoFreq       float32
	lfoPulseWidth float32

	osc1, osc2         dsp.Oscillator
	freqModAmount      float32
	freqModDestination int
	osc1PulseWidth     float32
	osc2PulseWidth     float32
	osc2Octave         float32
	osc2Detune         float32
	osc2Pitch          float32
	osc2Sync           bool
	oscMix             dsp.SmoothedParam
	ringMod            dsp.SmoothedParam

	filter          dsp.Filter
	filterType      dsp.FilterType
	filterSlope     dsp.FilterSlope
	filterEnvAmount float32
	filterModAmount float32
	filterCutoff    float32
	filterRes       float32
	filterKbdTrack  float32
	filterVelSens   float32
	filterEnv       dsp.ADSR

	ampEnv       dsp.ADSR
	ampModAmount dsp.SmoothedParam
	ampVelSens   dsp.SmoothedParam
	vcaFilter    dsp.IIRFirstOrder
	volume       dsp.ParamSmoother

	buffers struct {
		osc1, osc2, lfo, filterEnv, ampEnv [dsp.MaxBlockSize]float32
	}
}

func NewVoiceBoard(sampleRate int) *VoiceBoard {
	v := &VoiceBoard{
		pitchBend:      1,
		velocity:       1,
		lfo:            dsp.NewOscillator(sampleRate),
		osc1:           dsp.NewOscillator(sampleRate),
		osc2:           dsp.NewOscillator(sampleRate),
		osc2Octave:     1,
		osc2Detune:     1,
		osc2Pitch:      1,
		osc1PulseWidth: 1,
		osc2PulseWidth: 1,
		filter:         dsp.NewFilter(sampleRate),
		filterCutoff:   16,
		filterSlope:    dsp.Slope24,
		filterEnv:      dsp.NewADSR(sampleRate),
		ampEnv:         dsp.NewADSR(sampleRate),
		ampVelSens:     dsp.NewSmoothedParam(1),
	}
	v.SetSampleRate(sampleRate)
	return v
}

func (v *VoiceBoard) SetSampleRate(rate int) {
	v.rate = float32(rate)
	v.lfo.SetSampleRate(rate)
	v.osc1.SetSampleRate(rate)
	v.osc2.SetSampleRate(rate)
	v.filter.SetSampleRate(rate)
	v.filterEnv.SetSampleRate(rate)
	v.ampEnv.SetSampleRate(rate)
	v.vcaFilter.SetLowPass(v.rate, vcaLowPassFrequency)
}

// UpdateParameter applies the control value of a per voice parameter.
func (v *VoiceBoard) UpdateParameter(p amsynth.Param, value float32) {
	switch p {
	case amsynth.AmpModAmount:
		v.ampModAmount.Set((value + 1) / 2)
	case amsynth.LFOFreq:
		v.lfoFreq = value
	case amsynth.LFOWaveform:
		v.setLFOWaveform(int(value))
	case amsynth.FreqModAmount:
		v.freqModAmount = value/2 + 0.5
	case amsynth.FreqModOsc:
		v.freqModDestination = int(math.Round(float64(value)))
	case amsynth.Osc1Waveform:
		v.osc1.Waveform = dsp.Waveform(value)
	case amsynth.Osc1Pulsewidth:
		v.osc1PulseWidth = value
	case amsynth.Osc2Waveform:
		v.osc2.Waveform = dsp.Waveform(value)
	case amsynth.Osc2Pulsewidth:
		v.osc2PulseWidth = value
	case amsynth.Osc2Range:
		v.osc2Octave = value
	case amsynth.Osc2Detune:
		v.osc2Detune = value
	case amsynth.Osc2Pitch:
		v.osc2Pitch = float32(math.Exp2(float64(value) / 12))
	case amsynth.Osc2Sync:
		v.osc2Sync = math.Round(float64(value)) != 0
	case amsynth.FilterModAmount:
		v.filterModAmount = (value + 1) / 2
	case amsynth.FilterEnvAmount:
		v.filterEnvAmount = value
	case amsynth.FilterCutoff:
		v.filterCutoff = value
	case amsynth.FilterResonance:
		v.filterRes = value
	case amsynth.FilterAttack:
		v.filterEnv.Attack = value
	case amsynth.FilterDecay:
		v.filterEnv.Decay = value
	case amsynth.FilterSustain:
		v.filterEnv.Sustain = value
	case amsynth.FilterRelease:
		v.filterEnv.Release = value
	case amsynth.FilterType:
		v.filterType = dsp.FilterType(value)
	case amsynth.FilterSlope:
		v.filterSlope = dsp.FilterSlope(value)
	case amsynth.FilterKbdTrack:
		v.filterKbdTrack = value
	case amsynth.FilterVelSens:
		v.filterVelSens = value
	case amsynth.OscMixMode:
		v.ringMod.Set(value)
	case amsynth.OscMix:
		v.oscMix.Set(value)
	case amsynth.AmpAttack:
		v.ampEnv.Attack = value
	case amsynth.AmpDecay:
		v.ampEnv.Decay = value
	case amsynth.AmpSustain:
		v.ampEnv.Sustain = value
	case amsynth.AmpRelease:
		v.ampEnv.Release = value
	case amsynth.AmpVelSens:
		v.ampVelSens.Set(value)
	}
}

func (v *VoiceBoard) setLFOWaveform(w int) {
	v.lfoPulseWidth = 0
	v.lfo.Polarity = 1
	switch w {
	case amsynth.LFOWaveformSine:
		v.lfo.Waveform = dsp.WaveSine
	case amsynth.LFOWaveformSquare:
		v.lfo.Waveform = dsp.WavePulse
	case amsynth.LFOWaveformTriangle:
		v.lfo.Waveform = dsp.WaveSaw
	case amsynth.LFOWaveformNoise:
		v.lfo.Waveform = dsp.WaveNoise
	case amsynth.LFOWaveformRandom:
		v.lfo.Waveform = dsp.WaveRandom
	case amsynth.LFOWaveformSawUp:
		v.lfoPulseWidth = 1
		v.lfo.Waveform = dsp.WaveSaw
	case amsynth.LFOWaveformSawDown:
		v.lfoPulseWidth = 1
		v.lfo.Waveform = dsp.WaveSaw
		v.lfo.Polarity = -1
	}
}

// SetFrequency glides from start to target Hz in the given number of
// seconds, starting at the next block.
func (v *VoiceBoard) SetFrequency(start, target, seconds float32) {
	if start <= 0 {
		start = target
	}
	v.frequencyStart, v.frequencyTarget, v.frequencyTime = start, target, seconds
	v.frequencyDirty = true
}

// Frequency returns the current frequency of the glide in Hz, or 0 if no
// frequency has been set since the voice was created or reset.
func (v *VoiceBoard) Frequency() float32 {
	if v.frequencyDirty {
		return v.frequencyStart
	}
	if !v.frequencyValid {
		return 0
	}
	return float32(math.Exp2(float64(v.frequency.Value())))
}

func (v *VoiceBoard) SetVelocity(velocity float32) { v.velocity = min(velocity, 1) }

// SetPitchBend sets the frequency multiplier of the pitch wheel.
func (v *VoiceBoard) SetPitchBend(multiplier float32) { v.pitchBend = multiplier }

// TriggerOn starts the envelopes from their current levels. reset jumps the
// smoothed mixer parameters to their targets.
func (v *VoiceBoard) TriggerOn(reset bool) {
	if reset {
		v.oscMix.Reset()
		v.ringMod.Reset()
		v.ampModAmount.Reset()
		v.ampVelSens.Reset()
	}
	v.ampEnv.TriggerOn()
	v.filterEnv.TriggerOn()
}

func (v *VoiceBoard) TriggerOff() {
	v.ampEnv.TriggerOff()
	v.filterEnv.TriggerOff()
}

// Reset silences the voice immediately. A frequency set but not yet
// rendered is kept.
func (v *VoiceBoard) Reset() {
	v.frequencyValid = false
	v.ampEnv.Reset()
	v.filterEnv.Reset()
	v.osc1.Reset()
	v.osc2.Reset()
	v.filter.Reset()
	v.lfo.Reset()
}

// IsSilent reports if the amp envelope has finished and the VCA has
// decayed.
func (v *VoiceBoard) IsSilent() bool {
	return v.ampEnv.State() == dsp.EnvelopeOff && v.vcaFilter.State() < silenceThreshold
}

func (v *VoiceBoard) AmpEnvelope() dsp.EnvelopeState { return v.ampEnv.State() }
func (v *VoiceBoard) AmpLevel() float32              { return v.ampEnv.Value() }

func blend(x0, x1, m float32) float32 { return x0*(1-m) + x1*m }

// Process renders frames samples at the master volume vol and returns them.
// The returned slice is owned by the voice and valid until the next call.
func (v *VoiceBoard) Process(frames int, vol float32) []float32 {
	if v.frequencyDirty {
		v.frequencyDirty, v.frequencyValid = false, true
		v.frequency.Configure(
			float32(math.Log2(float64(v.frequencyStart))),
			float32(math.Log2(float64(v.frequencyTarget))),
			int(v.frequencyTime*v.rate))
	}

	lfo := v.buffers.lfo[:frames]
	v.lfo.Process(lfo, v.lfoFreq, v.lfoPulseWidth, 0)

	frequency := float32(math.Exp2(float64(v.frequency.Value())))
	v.frequency.Advance(frames)
	baseFreq := v.pitchBend * frequency

	freqMod := v.freqModAmount*(lfo[0]+1) + 1 - v.freqModAmount
	osc1freq := baseFreq
	if v.freqModDestination == amsynth.FreqModOscBoth || v.freqModDestination == amsynth.FreqModOsc1 {
		osc1freq *= freqMod
	}
	osc2freq := baseFreq * v.osc2Detune * v.osc2Octave * v.osc2Pitch
	if v.freqModDestination == amsynth.FreqModOscBoth || v.freqModDestination == amsynth.FreqModOsc2 {
		osc2freq *= freqMod
	}

	filterEnv := v.buffers.filterEnv[:frames]
	v.filterEnv.Process(filterEnv)
	envF := filterEnv[frames-1]
	cutoffBase := blend(keyTrackBaseFrequency, frequency, v.filterKbdTrack)
	cutoffVel := blend(1, v.velocity, v.filterVelSens)
	cutoffLFO := (lfo[0]*0.5+0.5)*v.filterModAmount + 1 - v.filterModAmount
	cutoff := v.filterCutoff * cutoffBase * cutoffVel * cutoffLFO
	if v.filterEnvAmount > 0 {
		cutoff += frequency * envF * v.filterEnvAmount
	} else {
		// negative amounts scale from -16 to -1
		cutoff += cutoff / 16 * v.filterEnvAmount * envF
	}

	osc1 := v.buffers.osc1[:frames]
	osc2 := v.buffers.osc2[:frames]
	// sync only ever worked with sine and saw masters; presets rely on that
	v.osc2.SyncEnabled = v.osc2Sync && (v.osc1.Waveform == dsp.WaveSine || v.osc1.Waveform == dsp.WaveSaw)
	v.osc1.Process(osc1, osc1freq, v.osc1PulseWidth, 0)
	v.osc2.Process(osc2, osc2freq, v.osc2PulseWidth, osc1freq)

	for i := range osc1 {
		ringMod := v.ringMod.Tick()
		mix := v.oscMix.Tick()
		vol1 := (1 - ringMod) * (1 - mix) / 2
		vol2 := (1 - ringMod) * (1 + mix) / 2
		osc1[i] = vol1*osc1[i] + vol2*osc2[i] + ringMod*osc1[i]*osc2[i]
	}

	v.filter.Process(osc1, cutoff, v.filterRes, v.filterType, v.filterSlope)

	ampEnv := v.buffers.ampEnv[:frames]
	v.ampEnv.Process(ampEnv)
	for i := range osc1 {
		ampMod := v.ampModAmount.Tick()
		amplitude := ampEnv[i] * blend(1, v.velocity, v.ampVelSens.Tick()) *
			((lfo[i]*0.5+0.5)*ampMod + 1 - ampMod)
		osc1[i] *= v.vcaFilter.Process(amplitude * v.volume.Process(vol))
	}
	return osc1
}
