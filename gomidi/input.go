//go:build cgo

package gomidi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amsynth/amsynth-sub001"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

type (
	// Input receives MIDI from a hardware port and hands the messages to
	// the audio loop block by block. Message timestamps are converted to
	// frame offsets with a clock that slowly follows the arrival times.
	Input struct {
		driver        *rtmididrv.Driver
		in            drivers.In
		stop          func()
		sampleRate    int
		events        chan timestampedMsg
		pending       []timestampedMsg
		startFrame    int
		startFrameSet bool
	}

	timestampedMsg struct {
		frame int
		data  []byte
	}
)

var ErrNoDriver = errors.New("no MIDI driver available")

// NewInput opens the driver. If the driver cannot be opened, the input
// produces no events.
func NewInput(sampleRate int) *Input {
	i := &Input{sampleRate: sampleRate, events: make(chan timestampedMsg, 1024)}
	// there's not much we can do if this fails, so just use i.driver = nil
	// to indicate no driver available
	i.driver, _ = rtmididrv.New()
	return i
}

// Devices lists the names of the input ports.
func (i *Input) Devices() []string {
	if i.driver == nil {
		return nil
	}
	ins, err := i.driver.Ins()
	if err != nil {
		return nil
	}
	names := make([]string, len(ins))
	for k, in := range ins {
		names[k] = in.String()
	}
	return names
}

// Open starts listening to the first port whose name starts with
// namePrefix, closing the current port.
func (i *Input) Open(namePrefix string) error {
	if i.driver == nil {
		return ErrNoDriver
	}
	ins, err := i.driver.Ins()
	if err != nil {
		return fmt.Errorf("listing MIDI inputs failed: %w", err)
	}
	for _, in := range ins {
		if !strings.HasPrefix(in.String(), namePrefix) {
			continue
		}
		i.closeIn()
		if err := in.Open(); err != nil {
			return fmt.Errorf("opening MIDI input failed: %w", err)
		}
		stop, err := midi.ListenTo(in, i.handleMessage, midi.UseSysEx())
		if err != nil {
			in.Close()
			return fmt.Errorf("listening to MIDI input failed: %w", err)
		}
		i.in, i.stop = in, stop
		return nil
	}
	return fmt.Errorf("could not find a MIDI input starting with %q", namePrefix)
}

// Name returns the name of the open port, or "".
func (i *Input) Name() string {
	if i.in == nil {
		return ""
	}
	return i.in.String()
}

func (i *Input) handleMessage(msg midi.Message, timestampms int32) {
	m := timestampedMsg{
		frame: int(int64(timestampms) * int64(i.sampleRate) / 1000),
		data:  append([]byte(nil), msg...),
	}
	select {
	case i.events <- m: // if the channel is full, just drop the message
	default:
	}
}

// AppendEvents appends the messages falling into the next block of frames
// frames to dst. It never blocks.
func (i *Input) AppendEvents(dst []amsynth.MIDIEvent, frames int) []amsynth.MIDIEvent {
F:
	for {
		select {
		case m := <-i.events:
			i.pending = append(i.pending, m)
			if !i.startFrameSet {
				i.startFrame = m.frame
				i.startFrameSet = true
			}
		default:
			break F
		}
	}
	n := 0
	for ; n < len(i.pending); n++ {
		f := i.pending[n].frame - i.startFrame
		if f >= frames {
			break
		}
		if f < 0 {
			// late: drift the clock towards the arrival times
			i.startFrame += f / 5
			f = 0
		}
		dst = append(dst, amsynth.MIDIEvent{Frame: f, Data: i.pending[n].data})
	}
	copy(i.pending, i.pending[n:])
	i.pending = i.pending[:len(i.pending)-n]
	i.startFrame += frames
	if len(i.pending) > 0 {
		// events wait for a future block; drift the clock towards them
		if delta := i.pending[0].frame - i.startFrame - frames; delta > 0 {
			i.startFrame += delta / 5
		}
	}
	return dst
}

func (i *Input) closeIn() {
	if i.stop != nil {
		i.stop()
		i.stop = nil
	}
	if i.in != nil && i.in.IsOpen() {
		i.in.Close()
	}
	i.in = nil
}

func (i *Input) Close() error {
	if i.driver == nil {
		return nil
	}
	i.closeIn()
	return i.driver.Close()
}
