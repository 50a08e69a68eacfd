// Package config reads and writes the settings file of the amsynth
// commands.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	SampleRate        int    `yaml:"sample_rate"`
	MIDIChannel       int    `yaml:"midi_channel"` // 0 = any
	Polyphony         int    `yaml:"polyphony"`    // 0 = unlimited
	PitchBendRange    int    `yaml:"pitch_bend_range"`
	BufferSize        int    `yaml:"buffer_size"` // frames
	TuningScale       string `yaml:"tuning_scale,omitempty"`
	TuningKeyMap      string `yaml:"tuning_keymap,omitempty"`
	IgnoredParameters string `yaml:"ignored_parameters,omitempty"`
	MIDIInput         string `yaml:"midi_input,omitempty"` // device name prefix
	ControllerMap     string `yaml:"controller_map,omitempty"`
}

var ErrInvalidConfig = errors.New("invalid config")

func Default() Config {
	return Config{
		SampleRate:     44100,
		Polyphony:      10,
		PitchBendRange: 2,
		BufferSize:     128,
	}
}

// DefaultPath is amsynth/config.yml in the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("finding the config directory: %w", err)
	}
	return filepath.Join(dir, "amsynth", "config.yml"), nil
}

// Load reads the config file at path. A missing file gives the defaults;
// keys missing from the file keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a config. Unknown keys and out of range values are errors.
func Parse(data []byte) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample_rate %d", ErrInvalidConfig, c.SampleRate)
	case c.MIDIChannel < 0 || c.MIDIChannel > 16:
		return fmt.Errorf("%w: midi_channel %d, want 0..16", ErrInvalidConfig, c.MIDIChannel)
	case c.Polyphony < 0:
		return fmt.Errorf("%w: polyphony %d", ErrInvalidConfig, c.Polyphony)
	case c.PitchBendRange < 0:
		return fmt.Errorf("%w: pitch_bend_range %d", ErrInvalidConfig, c.PitchBendRange)
	case c.BufferSize <= 0:
		return fmt.Errorf("%w: buffer_size %d", ErrInvalidConfig, c.BufferSize)
	}
	return nil
}

// Save writes the config to path, creating the directory if needed.
func Save(path string, c Config) error {
	data, err := yaml.Marshal(&c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}
