package gomidi_test

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/amsynth/amsynth-sub001"
	"github.com/amsynth/amsynth-sub001/gomidi"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func TestReadEvents(t *testing.T) {
	clock := smf.MetricTicks(96)
	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(0, midi.NoteOn(0, 60, 100))
	tr.Add(clock.Ticks4th(), midi.NoteOff(0, 60))
	tr.Add(clock.Ticks4th(), midi.ControlChange(0, 74, 10))
	tr.Close(0)
	s := smf.New()
	s.TimeFormat = clock
	if err := s.Add(tr); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	events, err := gomidi.ReadEvents(&buf, 44100)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3: %v", len(events), events)
	}
	// a quarter note at 120 bpm is half a second
	for i, want := range []int{0, 22050, 44100} {
		if events[i].Frame != want {
			t.Errorf("event %d at frame %d, want %d", i, events[i].Frame, want)
		}
	}
	if got, want := events[2].Data, []byte{0xB0, 74, 10}; !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestReadEventsRejectsGarbage(t *testing.T) {
	if _, err := gomidi.ReadEvents(bytes.NewReader([]byte("not a midi file")), 44100); err == nil {
		t.Errorf("reading garbage succeeded")
	}
}

func TestBlock(t *testing.T) {
	events := []amsynth.MIDIEvent{{Frame: 0}, {Frame: 63}, {Frame: 64}, {Frame: 200}}
	block, rest := gomidi.Block(events, 0, 64, nil)
	if want := events[:2]; !reflect.DeepEqual(block, want) {
		t.Errorf("first block %v, want %v", block, want)
	}
	block, rest = gomidi.Block(rest, 64, 64, block[:0])
	if want := []amsynth.MIDIEvent{{Frame: 0}}; !reflect.DeepEqual(block, want) {
		t.Errorf("second block %v, want %v", block, want)
	}
	if len(rest) != 1 || rest[0].Frame != 200 {
		t.Errorf("rest %v", rest)
	}
}
