//go:build cgo

package cmd

import (
	"github.com/amsynth/amsynth-sub001/gomidi"
)

// NewMIDIInput opens the first MIDI input port whose name starts with
// namePrefix.
func NewMIDIInput(sampleRate int, namePrefix string) (MIDIInput, error) {
	in := gomidi.NewInput(sampleRate)
	if err := in.Open(namePrefix); err != nil {
		in.Close()
		return nullMIDIInput{}, err
	}
	return in, nil
}

// MIDIInputDevices lists the MIDI input ports.
func MIDIInputDevices() []string {
	in := gomidi.NewInput(44100)
	defer in.Close()
	return in.Devices()
}
