package amsynth

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type (
	// Parameter is a bounded, optionally stepped value of one parameter of a
	// preset.
	Parameter struct {
		id        Param
		value     float32
		observers []ParameterObserver
	}

	// ParameterObserver gets notified when the value of a parameter changes.
	ParameterObserver interface {
		ParameterDidChange(p Param, controlValue float32)
	}
)

func newParameter(id Param) Parameter {
	return Parameter{id: id, value: ParameterSpecs[id].Default}
}

func (p *Parameter) ID() Param            { return p.id }
func (p *Parameter) Name() string         { return ParameterSpecs[p.id].Name }
func (p *Parameter) Spec() *ParameterSpec { return &ParameterSpecs[p.id] }
func (p *Parameter) Value() float32       { return p.value }

// SetValue clamps v to the range of the parameter and quantizes it to the
// step. Observers are notified only if the value changes. NaN is ignored.
func (p *Parameter) SetValue(v float32) {
	if v == p.value || v != v {
		return
	}
	s := p.Spec()
	v = clampf(v, s.Min, s.Max)
	if s.Step > 0 {
		v = s.Min + float32(math.Round(float64((v-s.Min)/s.Step)))*s.Step
		v = clampf(v, s.Min, s.Max)
	}
	if v == p.value {
		return
	}
	p.value = v
	cv := p.ControlValue()
	for _, o := range p.observers {
		o.ParameterDidChange(p.id, cv)
	}
}

func (p *Parameter) ControlValue() float32 {
	return p.Spec().ControlValue(p.value)
}

// NormalisedValue returns the value mapped linearly from [min, max] to [0, 1].
func (p *Parameter) NormalisedValue() float32 {
	s := p.Spec()
	return (p.value - s.Min) / (s.Max - s.Min)
}

func (p *Parameter) SetNormalisedValue(n float32) {
	s := p.Spec()
	p.SetValue(s.Min + n*(s.Max-s.Min))
}

// MIDIValue returns the normalised value scaled to 0..127.
func (p *Parameter) MIDIValue() int {
	return int(math.Round(float64(p.NormalisedValue()) * 127))
}

func (p *Parameter) SetMIDIValue(v int) {
	p.SetNormalisedValue(float32(v) / 127)
}

func (p *Parameter) Reset() {
	p.SetValue(p.Spec().Default)
}

// Randomise sets a value drawn uniformly from [min, max]. If rnd is nil, the
// global source is used.
func (p *Parameter) Randomise(rnd *rand.Rand) {
	var f float64
	if rnd != nil {
		f = rnd.Float64()
	} else {
		f = rand.Float64()
	}
	s := p.Spec()
	p.SetValue(s.Min + float32(f)*(s.Max-s.Min))
}

// DisplayName is the title cased name, e.g. "Filter Env Amount".
func (p *Parameter) DisplayName() string {
	return cases.Title(language.English).String(strings.ReplaceAll(p.Name(), "_", " "))
}

// DisplayString formats the value of the parameter for humans.
func (p *Parameter) DisplayString() string {
	cv := float64(p.ControlValue())
	switch p.id {
	case AmpAttack, AmpDecay, AmpRelease, FilterAttack, FilterDecay, FilterRelease, PortamentoTime:
		if cv < 1 {
			return fmt.Sprintf("%.0f ms", cv*1000)
		}
		return fmt.Sprintf("%.1f s", cv)
	case LFOFreq:
		return fmt.Sprintf("%.1f Hz", cv)
	case Osc2Detune:
		return fmt.Sprintf("%+.1f Cents", 1200*math.Log2(cv))
	case Osc2Pitch:
		return fmt.Sprintf("%+.0f %s", cv, plural("Semitone", cv))
	case Osc2Range:
		return fmt.Sprintf("%+.0f %s", p.value, plural("Octave", float64(p.value)))
	case MasterVolume:
		return fmt.Sprintf("%+.1f dB", 20*math.Log10(cv))
	case OscMixMode:
		return fmt.Sprintf("%d %%", int(math.Round(cv*100)))
	case FilterEnvAmount:
		return fmt.Sprintf("%+d %%", int(math.Round(cv/16*100)))
	case OscMix, Osc1Pulsewidth, Osc2Pulsewidth:
		return fmt.Sprintf("%.2f", p.value)
	}
	if names := p.id.ValueStrings(); names != nil {
		i := int(p.value)
		if i >= 0 && i < len(names) {
			return names[i]
		}
		return fmt.Sprint(i)
	}
	return fmt.Sprintf("%d %%", int(math.Round(float64(p.NormalisedValue())*100)))
}

func plural(word string, v float64) string {
	if math.Abs(v) < 2 {
		return word
	}
	return word + "s"
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
