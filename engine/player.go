package engine

import (
	"sync/atomic"

	"github.com/amsynth/amsynth-sub001"
	"github.com/amsynth/amsynth-sub001/dsp"
	"github.com/amsynth/amsynth-sub001/midi"
	"github.com/amsynth/amsynth-sub001/tuning"
)

type (
	// player is the audio side of the Synthesizer. It is only touched from
	// the goroutine calling Process. It owns a private copy of the preset,
	// which follows the snapshots published by the control side and is
	// modified by MIDI controllers.
	player struct {
		vau    *VoiceAllocationUnit
		midi   *midi.Controller
		preset *amsynth.Preset

		shared *shared
		broker *Broker

		appliedPreset *amsynth.Preset
		appliedTuning *tuning.Map
		appliedCCMap  *midi.ControllerMap
		applying      bool // parameter changes are not forwarded while a snapshot is applied

		msg [3]byte
	}

	// shared is written by one side and read by the other. Pointers are
	// copy-on-write: a published value is never modified.
	shared struct {
		preset       atomic.Pointer[amsynth.Preset]
		tuning       atomic.Pointer[tuning.Map]
		ccMap        atomic.Pointer[midi.ControllerMap]
		program      atomic.Int32
		activeVoices atomic.Int32
	}
)

func newPlayer(sampleRate int, preset *amsynth.Preset, sh *shared, broker *Broker) *player {
	p := &player{
		vau:    NewVoiceAllocationUnit(sampleRate),
		preset: preset.Copy(),
		shared: sh,
		broker: broker,
	}
	p.vau.UpdateAll(p.preset)
	p.preset.AddObserver(p.vau)
	p.preset.AddObserver(p)
	p.midi = midi.NewController(p.vau, p.preset)
	p.midi.SetProgramSelector(p)
	return p
}

// ParameterDidChange forwards changes not originating from a snapshot to
// the control side.
func (p *player) ParameterDidChange(param amsynth.Param, _ float32) {
	if p.applying {
		return
	}
	TrySend(p.broker.ToControl, MsgToControl{
		Kind:  ControlMessageParameter,
		Param: param,
		Value: p.preset.Parameter(param).Value(),
	})
}

func (p *player) CurrentProgram() int { return int(p.shared.program.Load()) }

func (p *player) SelectProgram(program int) {
	p.shared.program.Store(int32(program))
	TrySend(p.broker.ToControl, MsgToControl{Kind: ControlMessageProgram, Program: program})
}

// processMessages picks up everything the control side has sent or
// published since the last block.
func (p *player) processMessages() {
loop:
	for {
		select {
		case msg := <-p.broker.ToAudio:
			p.handleMessage(msg)
		default:
			break loop
		}
	}
	if s := p.shared.preset.Load(); s != nil && s != p.appliedPreset {
		p.appliedPreset = s
		p.applying = true
		p.preset.SetName(s.Name())
		p.preset.Assign(s, amsynth.IgnoreList{})
		p.applying = false
	}
	if m := p.shared.tuning.Load(); m != nil && m != p.appliedTuning {
		p.appliedTuning = m
		p.vau.SetTuning(m)
	}
	if m := p.shared.ccMap.Load(); m != nil && m != p.appliedCCMap {
		p.appliedCCMap = m
		p.midi.SetControllerMap(m)
	}
}

func (p *player) handleMessage(msg MsgToAudio) {
	switch msg.Kind {
	case AudioMessageMaxVoices:
		p.vau.SetMaxVoices(msg.Value)
	case AudioMessagePitchBendRange:
		p.vau.SetPitchBendRangeSemitones(msg.Value)
	case AudioMessageMIDIChannel:
		p.midi.SetChannel(msg.Value)
		p.vau.AllSoundOff()
	case AudioMessageAllSoundOff:
		p.vau.AllSoundOff()
	case AudioMessageMIDI:
		n := copy(p.msg[:], msg.Data[:min(max(msg.Len, 0), len(msg.Data))])
		p.midi.HandleMIDIData(p.msg[:n])
	}
}

// process renders frames stereo frames, applying each event before the
// frame at its offset. Events are applied in the order given.
func (p *player) process(frames int, events []amsynth.MIDIEvent, left, right []float32, stride int, ccOut []amsynth.ControlChange) []amsynth.ControlChange {
	p.processMessages()
	frame, next := 0, 0
	for frame < frames {
		for next < len(events) && events[next].Frame <= frame {
			p.midi.HandleMIDIData(events[next].Data)
			next++
		}
		n := min(frames-frame, dsp.MaxBlockSize)
		if next < len(events) && events[next].Frame-frame < n {
			n = events[next].Frame - frame
		}
		p.vau.Process(left[frame*stride:], right[frame*stride:], n, stride)
		frame += n
	}
	for ; next < len(events); next++ {
		p.midi.HandleMIDIData(events[next].Data)
	}
	p.shared.activeVoices.Store(int32(p.vau.ActiveVoices()))
	return p.midi.AppendMIDIOutput(ccOut)
}
