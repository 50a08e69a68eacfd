package amsynth_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/amsynth/amsynth-sub001"
)

const epsilon = 1e-5

func TestParameterClamping(t *testing.T) {
	values := []float32{-1000, -1, -0.5, 0, 0.3, 0.5, 1, 1.7, 2.49, 3, 1000}
	for id := amsynth.Param(0); id < amsynth.ParamCount; id++ {
		p := amsynth.NewPreset("").Parameter(id)
		s := p.Spec()
		for _, v := range values {
			p.SetValue(v)
			got := p.Value()
			if got < s.Min || got > s.Max {
				t.Errorf("%v: SetValue(%v) gave %v, outside [%v, %v]", id, v, got, s.Min, s.Max)
			}
			if s.Step > 0 {
				steps := float64((got - s.Min) / s.Step)
				if math.Abs(steps-math.Round(steps)) > epsilon {
					t.Errorf("%v: SetValue(%v) gave %v, not a multiple of step %v", id, v, got, s.Step)
				}
			}
		}
	}
}

func TestParameterIgnoresNaN(t *testing.T) {
	p := amsynth.NewPreset("").Parameter(amsynth.FilterCutoff)
	before := p.Value()
	p.SetValue(float32(math.NaN()))
	if p.Value() != before {
		t.Fatalf("NaN changed the value from %v to %v", before, p.Value())
	}
}

func TestControlValueLaws(t *testing.T) {
	tests := []struct {
		param amsynth.Param
		value float32
		want  float64
	}{
		{amsynth.AmpAttack, 0, 0.0005},
		{amsynth.AmpAttack, 2.5, 0.0005 + math.Pow(2.5, 3)},
		{amsynth.AmpAttack, 1.25, 0.0005 + math.Pow(1.25, 3)},
		{amsynth.FilterCutoff, -0.5, math.Pow(16, -0.5)},
		{amsynth.FilterCutoff, 1.5, math.Pow(16, 1.5)},
		{amsynth.FilterCutoff, 0.5, 4},
		{amsynth.Osc2Range, -3, 0.125},
		{amsynth.Osc2Range, 4, 16},
		{amsynth.MasterVolume, 0.5, 0.25},
		{amsynth.FreqModAmount, 0, -1},
		{amsynth.FreqModAmount, 1.25992105, 1},
		{amsynth.OscMix, -1, -1},
		{amsynth.OscMix, 0.5, 0.5},
		{amsynth.FilterEnvAmount, 16, 16},
	}
	for _, tt := range tests {
		p := amsynth.NewPreset("").Parameter(tt.param)
		p.SetValue(tt.value)
		if got := float64(p.ControlValue()); math.Abs(got-tt.want) > 1e-4*math.Max(1, math.Abs(tt.want)) {
			t.Errorf("%v at %v: control value %v, want %v", tt.param, tt.value, got, tt.want)
		}
	}
}

type recordingObserver struct {
	params []amsynth.Param
	values []float32
}

func (r *recordingObserver) ParameterDidChange(p amsynth.Param, cv float32) {
	r.params = append(r.params, p)
	r.values = append(r.values, cv)
}

func TestParameterNotifiesOnlyOnChange(t *testing.T) {
	preset := amsynth.NewPreset("")
	obs := &recordingObserver{}
	preset.AddObserver(obs)
	p := preset.Parameter(amsynth.Osc1Waveform)
	p.SetValue(2)   // default, no change
	p.SetValue(2.2) // quantizes to 2, no change
	p.SetValue(3.4)
	p.SetValue(3)
	if len(obs.params) != 1 {
		t.Fatalf("got %d notifications, want 1", len(obs.params))
	}
	if obs.params[0] != amsynth.Osc1Waveform || obs.values[0] != 3 {
		t.Errorf("notification was (%v, %v), want (osc1_waveform, 3)", obs.params[0], obs.values[0])
	}
	preset.RemoveObserver(obs)
	p.SetValue(0)
	if len(obs.params) != 1 {
		t.Errorf("removed observer was notified")
	}
}

func TestNormalisedAndMIDIValue(t *testing.T) {
	p := amsynth.NewPreset("").Parameter(amsynth.FilterEnvAmount)
	p.SetNormalisedValue(0.75)
	if got := p.Value(); got != 8 {
		t.Errorf("SetNormalisedValue(0.75) gave %v, want 8", got)
	}
	if got := p.NormalisedValue(); got != 0.75 {
		t.Errorf("NormalisedValue() = %v, want 0.75", got)
	}
	p.SetMIDIValue(127)
	if got := p.Value(); got != 16 {
		t.Errorf("SetMIDIValue(127) gave %v, want 16", got)
	}
	if got := p.MIDIValue(); got != 127 {
		t.Errorf("MIDIValue() = %v, want 127", got)
	}
	p.SetMIDIValue(0)
	if got := p.MIDIValue(); got != 0 {
		t.Errorf("MIDIValue() = %v, want 0", got)
	}
}

func TestRandomiseStaysInRange(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	preset := amsynth.NewPreset("")
	for i := 0; i < 100; i++ {
		preset.Randomise(rnd, amsynth.IgnoreList{})
		for id := amsynth.Param(0); id < amsynth.ParamCount; id++ {
			p := preset.Parameter(id)
			if v, s := p.Value(), p.Spec(); v < s.Min || v > s.Max {
				t.Fatalf("%v randomised to %v", id, v)
			}
		}
	}
	if got, want := preset.Parameter(amsynth.MasterVolume).Value(), amsynth.ParameterSpecs[amsynth.MasterVolume].Default; got != want {
		t.Errorf("master volume was randomised to %v", got)
	}
}

func TestDisplayStrings(t *testing.T) {
	tests := []struct {
		param amsynth.Param
		value float32
		want  string
	}{
		{amsynth.AmpAttack, 0, "1 ms"},
		{amsynth.AmpRelease, 2.5, "15.6 s"},
		{amsynth.MasterVolume, 1, "+0.0 dB"},
		{amsynth.KeyboardMode, 2, "legato"},
		{amsynth.FilterType, 4, "bypass"},
		{amsynth.LFOWaveform, 6, "sawtooth (down)"},
		{amsynth.Osc2Pitch, -12, "-12 Semitones"},
		{amsynth.Osc2Range, 1, "+1 Octave"},
		{amsynth.ReverbWet, 0.5, "50 %"},
		{amsynth.PortamentoMode, 0.6, "always"},
		{amsynth.PortamentoMode, 1, "legato"},
	}
	for _, tt := range tests {
		p := amsynth.NewPreset("").Parameter(tt.param)
		p.SetValue(tt.value)
		if got := p.DisplayString(); got != tt.want {
			t.Errorf("%v at %v displays %q, want %q", tt.param, tt.value, got, tt.want)
		}
	}
	if got := amsynth.NewPreset("").Parameter(amsynth.FilterEnvAmount).DisplayName(); got != "Filter Env Amount" {
		t.Errorf("DisplayName() = %q", got)
	}
}

func TestParamNames(t *testing.T) {
	if amsynth.ParamCount != 41 {
		t.Fatalf("ParamCount = %d, want 41", amsynth.ParamCount)
	}
	for id := amsynth.Param(0); id < amsynth.ParamCount; id++ {
		got, ok := amsynth.ParamFromName(id.String())
		if !ok || got != id {
			t.Errorf("ParamFromName(%q) = %v, %v", id.String(), got, ok)
		}
	}
	if _, ok := amsynth.ParamFromName("unused"); ok {
		t.Errorf("ParamFromName(\"unused\") should fail")
	}
	counts := map[amsynth.Param]int{
		amsynth.Osc1Waveform: 5, amsynth.LFOWaveform: 7, amsynth.KeyboardMode: 3,
		amsynth.FilterType: 5, amsynth.FilterSlope: 2, amsynth.FreqModOsc: 3, amsynth.PortamentoMode: 2,
	}
	for id, n := range counts {
		s := amsynth.ParameterSpecs[id]
		if got := len(id.ValueStrings()); got != n || int(s.Max-s.Min)+1 != n {
			t.Errorf("%v has %d value strings and range %v..%v, want %d", id, got, s.Min, s.Max, n)
		}
	}
}
