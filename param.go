package amsynth

import (
	"fmt"
	"math"
)

type (
	// Param identifies one of the synthesizer parameters. The order of the
	// constants is the order of the parameters in a preset.
	Param int

	// Law is the mapping from the stored value of a parameter to the control
	// value consumed by the DSP.
	Law int

	// ParameterSpec describes the range, default and mapping law of a
	// parameter.
	ParameterSpec struct {
		Name    string
		Default float32
		Min     float32
		Max     float32
		Step    float32
		Law     Law
		Base    float32
		Offset  float32
		Label   string
	}
)

const (
	LawLinear      Law = iota // offset + base*value
	LawExponential            // offset + base^value
	LawPower                  // offset + value^base
)

const (
	AmpAttack Param = iota
	AmpDecay
	AmpSustain
	AmpRelease
	Osc1Waveform
	FilterAttack
	FilterDecay
	FilterSustain
	FilterRelease
	FilterResonance
	FilterEnvAmount
	FilterCutoff
	Osc2Detune
	Osc2Waveform
	MasterVolume
	LFOFreq
	LFOWaveform
	Osc2Range
	OscMix
	FreqModAmount
	FilterModAmount
	AmpModAmount
	OscMixMode
	Osc1Pulsewidth
	Osc2Pulsewidth
	ReverbRoomsize
	ReverbDamp
	ReverbWet
	ReverbWidth
	DistortionCrunch
	Osc2Sync
	PortamentoTime
	KeyboardMode
	Osc2Pitch
	FilterType
	FilterSlope
	FreqModOsc
	FilterKbdTrack
	FilterVelSens
	AmpVelSens
	PortamentoMode
	ParamCount
)

// Values of the enumerated parameters.
const (
	KeyboardModePoly = iota
	KeyboardModeMono
	KeyboardModeLegato
)

const (
	PortamentoModeAlways = iota
	PortamentoModeLegato
)

const (
	FilterTypeLowPass = iota
	FilterTypeHighPass
	FilterTypeBandPass
	FilterTypeNotch
	FilterTypeBypass
)

const (
	FilterSlope12 = iota
	FilterSlope24
)

const (
	WaveformSine = iota
	WaveformPulse
	WaveformSaw
	WaveformNoise
	WaveformRandom
)

const (
	LFOWaveformSine = iota
	LFOWaveformSquare
	LFOWaveformTriangle
	LFOWaveformNoise
	LFOWaveformRandom
	LFOWaveformSawUp
	LFOWaveformSawDown
)

const (
	FreqModOscBoth = iota
	FreqModOsc1
	FreqModOsc2
)

const (
	timeMin    = 0
	timeMax    = 2.5
	timeBase   = 3
	timeOffset = 0.0005
)

// ParameterSpecs has the description of every parameter, indexed by Param.
var ParameterSpecs = [ParamCount]ParameterSpec{
	AmpAttack:        {"amp_attack", 0, timeMin, timeMax, 0, LawPower, timeBase, timeOffset, "s"},
	AmpDecay:         {"amp_decay", 0, timeMin, timeMax, 0, LawPower, timeBase, timeOffset, "s"},
	AmpSustain:       {"amp_sustain", 1, 0, 1, 0, LawLinear, 1, 0, ""},
	AmpRelease:       {"amp_release", 0, timeMin, timeMax, 0, LawPower, timeBase, timeOffset, "s"},
	Osc1Waveform:     {"osc1_waveform", 2, 0, 4, 1, LawLinear, 1, 0, ""},
	FilterAttack:     {"filter_attack", 0, timeMin, timeMax, 0, LawPower, timeBase, timeOffset, "s"},
	FilterDecay:      {"filter_decay", 0, timeMin, timeMax, 0, LawPower, timeBase, timeOffset, "s"},
	FilterSustain:    {"filter_sustain", 1, 0, 1, 0, LawLinear, 1, 0, ""},
	FilterRelease:    {"filter_release", 0, timeMin, timeMax, 0, LawPower, timeBase, timeOffset, "s"},
	FilterResonance:  {"filter_resonance", 0, 0, 0.97, 0, LawLinear, 1, 0, ""},
	FilterEnvAmount:  {"filter_env_amount", 0, -16, 16, 0, LawLinear, 1, 0, ""},
	FilterCutoff:     {"filter_cutoff", 1.5, -0.5, 1.5, 0, LawExponential, 16, 0, ""},
	Osc2Detune:       {"osc2_detune", 0, -1, 1, 0, LawExponential, 1.25, 0, ""},
	Osc2Waveform:     {"osc2_waveform", 2, 0, 4, 1, LawLinear, 1, 0, ""},
	MasterVolume:     {"master_vol", 0.67, 0, 1, 0, LawPower, 2, 0, ""},
	LFOFreq:          {"lfo_freq", 0, 0, 7.5, 0, LawPower, 2, 0, "Hz"},
	LFOWaveform:      {"lfo_waveform", 0, 0, 6, 1, LawLinear, 1, 0, ""},
	Osc2Range:        {"osc2_range", 0, -3, 4, 1, LawExponential, 2, 0, ""},
	OscMix:           {"osc_mix", 0, -1, 1, 0, LawLinear, 1, 0, ""},
	FreqModAmount:    {"freq_mod_amount", 0, 0, 1.25992105, 0, LawPower, 3, -1, ""},
	FilterModAmount:  {"filter_mod_amount", -1, -1, 1, 0, LawLinear, 1, 0, ""},
	AmpModAmount:     {"amp_mod_amount", -1, -1, 1, 0, LawLinear, 1, 0, ""},
	OscMixMode:       {"osc_mix_mode", 0, 0, 1, 0, LawLinear, 1, 0, ""},
	Osc1Pulsewidth:   {"osc1_pulsewidth", 1, 0, 1, 0, LawLinear, 1, 0, ""},
	Osc2Pulsewidth:   {"osc2_pulsewidth", 1, 0, 1, 0, LawLinear, 1, 0, ""},
	ReverbRoomsize:   {"reverb_roomsize", 0, 0, 1, 0, LawLinear, 1, 0, ""},
	ReverbDamp:       {"reverb_damp", 0, 0, 1, 0, LawLinear, 1, 0, ""},
	ReverbWet:        {"reverb_wet", 0, 0, 1, 0, LawLinear, 1, 0, ""},
	ReverbWidth:      {"reverb_width", 1, 0, 1, 0, LawLinear, 1, 0, ""},
	DistortionCrunch: {"distortion_crunch", 0, 0, 0.9, 0, LawLinear, 1, 0, ""},
	Osc2Sync:         {"osc2_sync", 0, 0, 1, 1, LawLinear, 1, 0, ""},
	PortamentoTime:   {"portamento_time", 0, 0, 1, 0, LawLinear, 1, 0, ""},
	KeyboardMode:     {"keyboard_mode", 0, 0, 2, 1, LawLinear, 1, 0, ""},
	Osc2Pitch:        {"osc2_pitch", 0, -12, 12, 1, LawLinear, 1, 0, ""},
	FilterType:       {"filter_type", 0, 0, 4, 1, LawLinear, 1, 0, ""},
	FilterSlope:      {"filter_slope", 1, 0, 1, 1, LawLinear, 1, 0, ""},
	FreqModOsc:       {"freq_mod_osc", 0, 0, 2, 1, LawLinear, 1, 0, ""},
	FilterKbdTrack:   {"filter_kbd_track", 1, 0, 1, 0, LawLinear, 1, 0, ""},
	FilterVelSens:    {"filter_vel_sens", 1, 0, 1, 0, LawLinear, 1, 0, ""},
	AmpVelSens:       {"amp_vel_sens", 1, 0, 1, 0, LawLinear, 1, 0, ""},
	PortamentoMode:   {"portamento_mode", 0, 0, 1, 0, LawLinear, 1, 0, ""},
}

var valueStrings = map[Param][]string{
	Osc1Waveform: {"sine", "square / pulse", "triangle / saw", "white noise", "noise + sample & hold"},
	Osc2Waveform: {"sine", "square / pulse", "triangle / saw", "white noise", "noise + sample & hold"},
	LFOWaveform: {"sine", "square", "triangle", "noise", "noise + sample & hold",
		"sawtooth (up)", "sawtooth (down)"},
	KeyboardMode:   {"poly", "mono", "legato"},
	FilterType:     {"low pass", "high pass", "band pass", "notch", "bypass"},
	FilterSlope:    {"12 dB / octave", "24 dB / octave"},
	FreqModOsc:     {"osc 1+2", "osc 1", "osc 2"},
	PortamentoMode: {"always", "legato"},
	Osc2Sync:       {"off", "on"},
}

// String returns the name of the parameter as used in preset files.
func (p Param) String() string {
	if p < 0 || p >= ParamCount {
		return fmt.Sprintf("Param(%d)", int(p))
	}
	return ParameterSpecs[p].Name
}

// ParamFromName returns the parameter with the given name.
func ParamFromName(name string) (Param, bool) {
	for i := range ParameterSpecs {
		if ParameterSpecs[i].Name == name {
			return Param(i), true
		}
	}
	return 0, false
}

// ValueStrings returns the names of the values of an enumerated parameter,
// or nil if the parameter is continuous.
func (p Param) ValueStrings() []string {
	return valueStrings[p]
}

// ControlValue maps a stored value to a control value with the parameter's
// law.
func (s *ParameterSpec) ControlValue(value float32) float32 {
	switch s.Law {
	case LawLinear:
		return s.Offset + s.Base*value
	case LawExponential:
		return s.Offset + float32(math.Pow(float64(s.Base), float64(value)))
	case LawPower:
		return s.Offset + float32(math.Pow(float64(value), float64(s.Base)))
	}
	panic(fmt.Sprintf("amsynth: unknown parameter law %d for %s", s.Law, s.Name))
}
