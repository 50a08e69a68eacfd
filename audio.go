package amsynth

type (
	// AudioBuffer is interleaved stereo audio: left, right, left, right...
	AudioBuffer []float32

	AudioSink interface {
		WriteAudio(buffer []float32) error
		Close() error
	}

	AudioContext interface {
		Output() AudioSink
		Close() error
	}

	// MIDIEvent is a raw MIDI message to be applied Frame frames after the
	// start of the block being processed.
	MIDIEvent struct {
		Frame int
		Data  []byte
	}

	// ControlChange is a MIDI control change sent out by the synthesizer
	// when a mapped parameter changes. Channel is zero based.
	ControlChange struct {
		Channel    uint8
		Controller uint8
		Value      uint8
	}
)

// Frames returns the number of stereo frames in the buffer.
func (b AudioBuffer) Frames() int { return len(b) / 2 }

// Left and Right return views of the channels, with a stride of 2.
func (b AudioBuffer) Left() []float32  { return b }
func (b AudioBuffer) Right() []float32 { return b[1:] }

func (c ControlChange) Bytes() []byte {
	return []byte{0xB0 | c.Channel&0x0F, c.Controller & 0x7F, c.Value & 0x7F}
}
