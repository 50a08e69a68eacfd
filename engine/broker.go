package engine

import "github.com/amsynth/amsynth-sub001"

type (
	// Broker carries messages between the control goroutine and the audio
	// goroutine. Messages are plain values so that sending never allocates.
	// Both channels are buffered; senders use TrySend and drop messages when
	// the receiver is lagging behind.
	Broker struct {
		ToAudio   chan MsgToAudio
		ToControl chan MsgToControl
	}

	MsgToAudio struct {
		Kind  AudioMessageKind
		Value int
		// Data is a short MIDI message for AudioMessageMIDI
		Data [3]byte
		Len  int
	}

	// MsgToControl reports state changes made by the audio goroutine, e.g.
	// parameters moved with MIDI controllers.
	MsgToControl struct {
		Kind    ControlMessageKind
		Param   amsynth.Param
		Value   float32
		Program int
	}

	AudioMessageKind   int
	ControlMessageKind int
)

const (
	AudioMessageNone AudioMessageKind = iota
	AudioMessageMaxVoices
	AudioMessagePitchBendRange
	AudioMessageMIDIChannel
	AudioMessageAllSoundOff
	AudioMessageMIDI
)

const (
	ControlMessageNone ControlMessageKind = iota
	ControlMessageParameter
	ControlMessageProgram
)

const brokerCapacity = 1024

func NewBroker() *Broker {
	return &Broker{
		ToAudio:   make(chan MsgToAudio, brokerCapacity),
		ToControl: make(chan MsgToControl, brokerCapacity),
	}
}

// TrySend is a helper function to send a value to a channel if it is not full.
// It is guaranteed to be non-blocking. Return true if the value was sent, false
// otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}
