// Package gomidi connects the synthesizer to MIDI sources through the
// gomidi library: hardware ports and Standard MIDI Files.
package gomidi

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/amsynth/amsynth-sub001"
	"gitlab.com/gomidi/midi/v2/smf"
)

// ReadFile reads a Standard MIDI File, see ReadEvents.
func ReadFile(path string, sampleRate int) ([]amsynth.MIDIEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading MIDI file: %w", err)
	}
	defer f.Close()
	events, err := ReadEvents(f, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return events, nil
}

// ReadEvents merges the channel messages of all tracks of a Standard MIDI
// File into one list, with Frame counted from the start of the song at
// sampleRate. Tempo changes are honored; meta and system exclusive messages
// are dropped.
func ReadEvents(r io.Reader, sampleRate int) ([]amsynth.MIDIEvent, error) {
	var events []amsynth.MIDIEvent
	rd := smf.ReadTracksFrom(r).Do(func(ev smf.TrackEvent) {
		msg := ev.Message
		if len(msg) == 0 || msg[0] < 0x80 || msg[0] >= 0xF0 {
			return
		}
		events = append(events, amsynth.MIDIEvent{
			Frame: int(ev.AbsMicroSeconds * int64(sampleRate) / 1e6),
			Data:  append([]byte(nil), msg...),
		})
	})
	if err := rd.Error(); err != nil {
		return nil, err
	}
	slices.SortStableFunc(events, func(a, b amsynth.MIDIEvent) int { return a.Frame - b.Frame })
	return events, nil
}

// Block returns the events of events, which must be sorted, falling into
// [start, start+frames), with frames relative to start, and the rest.
func Block(events []amsynth.MIDIEvent, start, frames int, dst []amsynth.MIDIEvent) (block, rest []amsynth.MIDIEvent) {
	n := 0
	for n < len(events) && events[n].Frame < start+frames {
		e := events[n]
		e.Frame = max(e.Frame-start, 0)
		dst = append(dst, e)
		n++
	}
	return dst, events[n:]
}
