package cmd

import (
	"fmt"
	"os"

	"github.com/amsynth/amsynth-sub001"
	"github.com/amsynth/amsynth-sub001/config"
	"github.com/amsynth/amsynth-sub001/engine"
)

// NewSynthesizer creates a synthesizer with the settings of c and, if
// presetPath is not empty, the preset or saved state in that file.
func NewSynthesizer(c config.Config, presetPath string) (*engine.Synthesizer, error) {
	s := engine.NewSynthesizer(c.SampleRate)
	s.SetMaxNumVoices(c.Polyphony)
	s.SetMIDIChannel(c.MIDIChannel)
	s.SetPitchBendRangeSemitones(c.PitchBendRange)
	s.Presets().SetIgnoreList(amsynth.ParseIgnoreList(c.IgnoredParameters))
	if err := s.LoadTuningScale(c.TuningScale); err != nil {
		return nil, err
	}
	if err := s.LoadTuningKeyMap(c.TuningKeyMap); err != nil {
		return nil, err
	}
	if c.ControllerMap != "" {
		if err := s.LoadControllerMap(c.ControllerMap); err != nil {
			return nil, err
		}
	}
	if presetPath != "" {
		if err := LoadState(s, presetPath); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// LoadState reads a preset or a saved state file into s. The properties of
// s are kept when the file has none.
func LoadState(s *engine.Synthesizer, path string) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read %v: %w", path, err)
	}
	preset := amsynth.NewPreset("")
	if preset.Parse(string(text)) == nil {
		s.Presets().LoadPreset(preset)
		return nil
	}
	if err := s.LoadState(string(text)); err != nil {
		return fmt.Errorf("could not load %v: %w", path, err)
	}
	return nil
}

// SaveState writes the preset and the properties of s to path.
func SaveState(s *engine.Synthesizer, path string) error {
	if err := os.WriteFile(path, []byte(s.SaveState()), 0644); err != nil {
		return fmt.Errorf("could not write %v: %w", path, err)
	}
	return nil
}
