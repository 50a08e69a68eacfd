// Package cmd has the parts shared by the amsynth commands.
package cmd

import "github.com/amsynth/amsynth-sub001"

// MIDIInput is a source of live MIDI events for the audio loop.
type MIDIInput interface {
	// AppendEvents appends the events of the next block of frames frames.
	AppendEvents(dst []amsynth.MIDIEvent, frames int) []amsynth.MIDIEvent
	Name() string
	Close() error
}

type nullMIDIInput struct{}

func (nullMIDIInput) AppendEvents(dst []amsynth.MIDIEvent, _ int) []amsynth.MIDIEvent { return dst }
func (nullMIDIInput) Name() string                                                    { return "" }
func (nullMIDIInput) Close() error                                                    { return nil }
