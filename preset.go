package amsynth

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

type (
	// Preset is a full set of parameters plus a display name.
	Preset struct {
		name   string
		params [ParamCount]Parameter
	}

	// IgnoreList marks parameters that are left out of preset comparison,
	// assignment and serialization. The zero value ignores nothing.
	IgnoreList [ParamCount]bool
)

const (
	presetHeader   = "amSynth1.0preset"
	presetNameTag  = "<preset>"
	presetNameKey  = "<name>"
	presetParamTag = "<parameter>"
)

var ErrInvalidPreset = errors.New("invalid preset")

func NewPreset(name string) *Preset {
	p := &Preset{name: name}
	for i := range p.params {
		p.params[i] = newParameter(Param(i))
	}
	return p
}

func (p *Preset) Name() string        { return p.name }
func (p *Preset) SetName(name string) { p.name = name }

func (p *Preset) Parameter(id Param) *Parameter { return &p.params[id] }

// AddObserver registers o on every parameter of the preset.
func (p *Preset) AddObserver(o ParameterObserver) {
	for i := range p.params {
		p.params[i].observers = append(p.params[i].observers, o)
	}
}

func (p *Preset) RemoveObserver(o ParameterObserver) {
	for i := range p.params {
		obs := p.params[i].observers
		for j := range obs {
			if obs[j] == o {
				p.params[i].observers = append(obs[:j:j], obs[j+1:]...)
				break
			}
		}
	}
}

// Copy returns a deep copy of the preset without observers.
func (p *Preset) Copy() *Preset {
	ret := &Preset{name: p.name, params: p.params}
	for i := range ret.params {
		ret.params[i].observers = nil
	}
	return ret
}

// Assign sets the values of all parameters not in ignore from other,
// notifying observers of the ones that change. The name is left as is.
func (p *Preset) Assign(other *Preset, ignore IgnoreList) {
	for i := range p.params {
		if !ignore[i] {
			p.params[i].SetValue(other.params[i].value)
		}
	}
}

// IsEqual compares names and normalised values of the parameters not in
// ignore.
func (p *Preset) IsEqual(other *Preset, ignore IgnoreList) bool {
	if p.name != other.name {
		return false
	}
	for i := range p.params {
		if ignore[i] {
			continue
		}
		if p.params[i].NormalisedValue() != other.params[i].NormalisedValue() {
			return false
		}
	}
	return true
}

// Randomise draws new values for every parameter except the master volume
// and the ignored ones.
func (p *Preset) Randomise(rnd *rand.Rand, ignore IgnoreList) {
	for i := range p.params {
		if Param(i) == MasterVolume || ignore[i] {
			continue
		}
		p.params[i].Randomise(rnd)
	}
}

// Reset sets every parameter to its default.
func (p *Preset) Reset() {
	for i := range p.params {
		p.params[i].Reset()
	}
}

func (p *Preset) String() string {
	return p.Text(IgnoreList{})
}

// Text serializes the preset, leaving out the ignored parameters.
func (p *Preset) Text(ignore IgnoreList) string {
	var b strings.Builder
	b.WriteString(presetHeader)
	b.WriteByte('\n')
	fmt.Fprintf(&b, "%s %s %s\n", presetNameTag, presetNameKey, p.name)
	for i := range p.params {
		if ignore[i] {
			continue
		}
		v := strconv.FormatFloat(float64(p.params[i].value), 'g', -1, 32)
		fmt.Fprintf(&b, "%s %s %s\n", presetParamTag, p.params[i].Name(), v)
	}
	return b.String()
}

// Parse reads a preset in the format written by Text. Parameters missing
// from the text keep their values, unknown parameter names are skipped. On
// error the preset is not modified.
func (p *Preset) Parse(text string) error {
	tokens := strings.Fields(text)
	if len(tokens) == 0 || tokens[0] != presetHeader {
		return fmt.Errorf("%w: missing %s header", ErrInvalidPreset, presetHeader)
	}
	tokens = tokens[1:]
	tmp := p.Copy()
	if len(tokens) >= 2 && tokens[0] == presetNameTag && tokens[1] == presetNameKey {
		tokens = tokens[2:]
		i := 0
		for i < len(tokens) && tokens[i] != presetParamTag {
			i++
		}
		tmp.name = strings.Join(tokens[:i], " ")
		tokens = tokens[i:]
	}
	for len(tokens) > 0 {
		if tokens[0] != presetParamTag || len(tokens) < 3 {
			return fmt.Errorf("%w: unexpected %q", ErrInvalidPreset, tokens[0])
		}
		name, value := tokens[1], tokens[2]
		tokens = tokens[3:]
		id, ok := ParamFromName(name)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return fmt.Errorf("%w: value of %s: %w", ErrInvalidPreset, name, err)
		}
		tmp.params[id].SetValue(float32(f))
	}
	p.name = tmp.name
	p.Assign(tmp, IgnoreList{})
	return nil
}

// ParseIgnoreList reads a whitespace separated list of parameter names.
// Unknown names are skipped.
func ParseIgnoreList(names string) IgnoreList {
	var l IgnoreList
	for _, n := range strings.Fields(names) {
		if id, ok := ParamFromName(n); ok {
			l[id] = true
		}
	}
	return l
}

func (l IgnoreList) Contains(p Param) bool { return l[p] }

func (l IgnoreList) String() string {
	var names []string
	for i, ignored := range l {
		if ignored {
			names = append(names, Param(i).String())
		}
	}
	return strings.Join(names, " ")
}
