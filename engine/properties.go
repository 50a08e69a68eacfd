package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Property names used by SetProperty, Property and the saved state.
const (
	PropMaxPolyphony   = "max_polyphony"
	PropMIDIChannel    = "midi_channel"
	PropPitchBendRange = "pitch_bend_range"
	PropTuningScale    = "tuning_scl_file"
	PropTuningKeyMap   = "tuning_kbm_file"
	PropPresetName     = "preset_name"
)

const (
	propertyTag       = "<property>"
	maxPitchBendRange = 24
)

var ErrUnknownProperty = errors.New("unknown property")

// PropertyNames lists the properties in the order they are saved.
var PropertyNames = []string{
	PropMaxPolyphony,
	PropMIDIChannel,
	PropPitchBendRange,
	PropTuningScale,
	PropTuningKeyMap,
	PropPresetName,
}

// properties are the synth settings that are not preset parameters.
type properties struct {
	maxVoices      int
	midiChannel    int
	pitchBendRange int
	scaleFile      string
	keyMapFile     string
}

// set parses and clamps one property. The preset name is not a member of
// properties and is handled by the callers.
func (p *properties) set(key, value string) error {
	atoi := func(lo, hi int) (int, error) {
		v, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, fmt.Errorf("property %s: %w", key, err)
		}
		return min(max(v, lo), hi), nil
	}
	var err error
	switch key {
	case PropMaxPolyphony:
		p.maxVoices, err = atoi(0, NumVoices)
	case PropMIDIChannel:
		p.midiChannel, err = atoi(0, 16)
	case PropPitchBendRange:
		p.pitchBendRange, err = atoi(0, maxPitchBendRange)
	case PropTuningScale:
		p.scaleFile = value
	case PropTuningKeyMap:
		p.keyMapFile = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProperty, key)
	}
	return err
}

func (p *properties) get(key string) (string, bool) {
	switch key {
	case PropMaxPolyphony:
		return strconv.Itoa(p.maxVoices), true
	case PropMIDIChannel:
		return strconv.Itoa(p.midiChannel), true
	case PropPitchBendRange:
		return strconv.Itoa(p.pitchBendRange), true
	case PropTuningScale:
		return p.scaleFile, true
	case PropTuningKeyMap:
		return p.keyMapFile, true
	}
	return "", false
}

// applyProperties makes next the current properties. Tuning files are only
// read when their paths change; if reading fails, nothing is changed.
func (s *Synthesizer) applyProperties(next properties) error {
	next.maxVoices = min(max(next.maxVoices, 0), NumVoices)
	next.midiChannel = min(max(next.midiChannel, 0), 16)
	next.pitchBendRange = min(max(next.pitchBendRange, 0), maxPitchBendRange)
	m := s.tuning
	if next.scaleFile != s.props.scaleFile || next.keyMapFile != s.props.keyMapFile {
		m = s.tuning.Copy()
		if next.scaleFile != s.props.scaleFile {
			if next.scaleFile == "" {
				m.ResetScale()
			} else if err := m.LoadScaleFile(next.scaleFile); err != nil {
				return err
			}
		}
		if next.keyMapFile != s.props.keyMapFile {
			if next.keyMapFile == "" {
				m.ResetKeyMap()
			} else if err := m.LoadKeyMapFile(next.keyMapFile); err != nil {
				return err
			}
		}
	}
	prev := s.props
	s.props = next
	if m != s.tuning {
		s.tuning = m
		s.shared.tuning.Store(m)
	}
	if next.maxVoices != prev.maxVoices {
		TrySend(s.broker.ToAudio, MsgToAudio{Kind: AudioMessageMaxVoices, Value: next.maxVoices})
	}
	if next.midiChannel != prev.midiChannel {
		TrySend(s.broker.ToAudio, MsgToAudio{Kind: AudioMessageMIDIChannel, Value: next.midiChannel})
	}
	if next.pitchBendRange != prev.pitchBendRange {
		TrySend(s.broker.ToAudio, MsgToAudio{Kind: AudioMessagePitchBendRange, Value: next.pitchBendRange})
	}
	return nil
}

// SetProperty sets one of the properties in PropertyNames from its string
// form. Numeric values are clamped to their valid range.
func (s *Synthesizer) SetProperty(key, value string) error {
	if key == PropPresetName {
		s.Update()
		s.presets.SetPresetName(value)
		return nil
	}
	next := s.props
	if err := next.set(key, value); err != nil {
		return err
	}
	return s.applyProperties(next)
}

func (s *Synthesizer) Property(key string) (string, bool) {
	if key == PropPresetName {
		return s.PresetName(), true
	}
	return s.props.get(key)
}

// SaveState serializes the current preset followed by one <property> line
// for every property except the preset name, which the preset carries.
// Empty tuning file paths are left out.
func (s *Synthesizer) SaveState() string {
	s.Update()
	var b strings.Builder
	b.WriteString(s.presets.CurrentPreset().String())
	for _, key := range PropertyNames {
		if key == PropPresetName {
			continue
		}
		if v, _ := s.props.get(key); v != "" {
			fmt.Fprintf(&b, "%s %s %s\n", propertyTag, key, v)
		}
	}
	return b.String()
}

// LoadState restores a state written by SaveState. Properties missing from
// the text are reset to their defaults. On error nothing is changed.
func (s *Synthesizer) LoadState(text string) error {
	s.Update()
	var presetText strings.Builder
	next := properties{pitchBendRange: DefaultPitchBendRange}
	name := ""
	for _, line := range strings.Split(text, "\n") {
		rest, ok := strings.CutPrefix(line, propertyTag+" ")
		if !ok {
			presetText.WriteString(line)
			presetText.WriteByte('\n')
			continue
		}
		key, value, _ := strings.Cut(rest, " ")
		if key == PropPresetName {
			name = value
			continue
		}
		if err := next.set(key, value); err != nil {
			return fmt.Errorf("loading state: %w", err)
		}
	}
	preset := s.presets.CurrentPreset().Copy()
	if err := preset.Parse(presetText.String()); err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	if name != "" {
		preset.SetName(name)
	}
	if err := s.applyProperties(next); err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	s.presets.LoadPreset(preset)
	return nil
}
