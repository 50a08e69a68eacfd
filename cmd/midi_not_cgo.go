//go:build !cgo

package cmd

import "errors"

// NewMIDIInput fails without cgo, as the MIDI driver needs it. The returned
// input is still usable and produces no events.
func NewMIDIInput(sampleRate int, namePrefix string) (MIDIInput, error) {
	return nullMIDIInput{}, errors.New("MIDI input needs a cgo build")
}

func MIDIInputDevices() []string { return nil }
