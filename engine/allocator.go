// Package engine is the real-time core of the synthesizer: the voices, the
// voice allocator with its global effects, and the Synthesizer facade that
// connects them to MIDI input and to the control goroutine.
package engine

import (
	"math"

	"github.com/amsynth/amsynth-sub001"
	"github.com/amsynth/amsynth-sub001/dsp"
	"github.com/amsynth/amsynth-sub001/tuning"
	"github.com/viterin/vek/vek32"
)

// NumVoices is the size of the voice pool.
const NumVoices = 128

const sustainThreshold = 64

type (
	// VoiceAllocationUnit assigns notes to voices, mixes the voices and runs
	// the global effects. It implements midi.Handler and
	// amsynth.ParameterObserver. Nothing in it allocates after construction.
	VoiceAllocationUnit struct {
		voices    [NumVoices]voiceSlot
		maxVoices int

		keyboardMode   int
		portamentoTime float32
		portamentoMode int

		keyPressed      [tuning.NumNotes]bool
		sustain         bool
		deferred        noteList // note offs held back by the sustain pedal
		held            noteList // mono and legato note stack, last on top
		keyPressCounter uint64

		lastNoteFrequency float32
		pitchBendRange    float32
		pitchBendValue    float32
		masterVolume      float32
		panLeft, panRight float32

		tuning *tuning.Map

		distortion dsp.Distortion
		reverb     *dsp.Reverb
		limiter    dsp.SoftLimiter

		mix, left, right [dsp.MaxBlockSize]float32
	}

	voiceSlot struct {
		board       *VoiceBoard
		note        int
		active      bool
		keyDown     bool // false once the key is released, even if sustained
		released    bool // the envelopes are in release
		triggeredAt uint64
	}

	// noteList is an insertion ordered set of note numbers.
	noteList struct {
		notes [tuning.NumNotes]uint8
		n     int
	}
)

func NewVoiceAllocationUnit(sampleRate int) *VoiceAllocationUnit {
	p := &VoiceAllocationUnit{
		pitchBendRange: 2,
		masterVolume:   1,
		panLeft:        1,
		panRight:       1,
		tuning:         tuning.New(),
		distortion:     dsp.NewDistortion(),
		reverb:         dsp.NewReverb(sampleRate),
		limiter:        dsp.NewSoftLimiter(sampleRate),
	}
	for i := range p.voices {
		p.voices[i].board = NewVoiceBoard(sampleRate)
	}
	return p
}

func (p *VoiceAllocationUnit) SetSampleRate(rate int) {
	p.limiter.SetSampleRate(rate)
	for i := range p.voices {
		p.voices[i].board.SetSampleRate(rate)
	}
	p.reverb = dsp.NewReverb(rate)
}

// SetMaxVoices caps the number of sounding voices, 0 means the pool size.
// Lowering the cap does not stop sounding voices.
func (p *VoiceAllocationUnit) SetMaxVoices(n int) { p.maxVoices = max(n, 0) }
func (p *VoiceAllocationUnit) MaxVoices() int     { return p.maxVoices }

func (p *VoiceAllocationUnit) SetPitchBendRangeSemitones(n int) { p.pitchBendRange = float32(n) }
func (p *VoiceAllocationUnit) PitchBendRangeSemitones() int     { return int(p.pitchBendRange) }

// SetTuning replaces the tuning map. The map must not be modified
// afterwards.
func (p *VoiceAllocationUnit) SetTuning(m *tuning.Map) { p.tuning = m }

func (p *VoiceAllocationUnit) ActiveVoices() int {
	n := 0
	for i := range p.voices {
		if p.voices[i].active {
			n++
		}
	}
	return n
}

func (p *VoiceAllocationUnit) NoteOn(note int, velocity float32) {
	if !p.tuning.IsActive(note) {
		return
	}
	pitch := float32(p.tuning.NoteToPitch(note))
	portamentoTime := p.portamentoTime
	if p.portamentoMode == amsynth.PortamentoModeLegato && !p.anyKeyPressed() {
		portamentoTime = 0
	}
	p.keyPressed[note] = true
	if p.keyboardMode == amsynth.KeyboardModePoly {
		p.polyNoteOn(note, velocity, pitch, portamentoTime)
	} else {
		p.monoNoteOn(note, velocity, pitch, portamentoTime)
	}
	p.lastNoteFrequency = pitch
}

func (p *VoiceAllocationUnit) polyNoteOn(note int, velocity, pitch, portamentoTime float32) {
	s := &p.voices[p.allocate()]
	p.keyPressCounter++
	s.triggeredAt = p.keyPressCounter
	if p.lastNoteFrequency > 0 {
		s.board.SetFrequency(p.lastNoteFrequency, pitch, portamentoTime)
	} else {
		s.board.SetFrequency(pitch, pitch, 0)
	}
	if s.board.IsSilent() {
		s.board.Reset()
	}
	s.board.SetVelocity(velocity)
	s.board.TriggerOn(true)
	s.note, s.active, s.keyDown, s.released = note, true, true, false
}

// allocate returns a free voice, or steals one when the cap is reached:
// the oldest voice in its release stage, else the oldest voice. Voices held
// by the sustain pedal are not releasing. Ties go to the lowest index.
func (p *VoiceAllocationUnit) allocate() int {
	limit := p.maxVoices
	if limit == 0 || limit > NumVoices {
		limit = NumVoices
	}
	if p.ActiveVoices() < limit {
		for i := range p.voices {
			if !p.voices[i].active {
				return i
			}
		}
	}
	idx := p.oldest(func(s *voiceSlot) bool { return s.active && s.released })
	if idx < 0 {
		idx = p.oldest(func(s *voiceSlot) bool { return s.active })
	}
	p.voices[idx].board.Reset()
	p.voices[idx].active = false
	return idx
}

func (p *VoiceAllocationUnit) oldest(candidate func(*voiceSlot) bool) int {
	idx := -1
	for i := range p.voices {
		s := &p.voices[i]
		if candidate(s) && (idx < 0 || s.triggeredAt < p.voices[idx].triggeredAt) {
			idx = i
		}
	}
	return idx
}

func (p *VoiceAllocationUnit) monoNoteOn(note int, velocity, pitch, portamentoTime float32) {
	hadPrevious := p.held.n > 0
	p.held.push(note)
	s := &p.voices[0]
	s.board.SetVelocity(velocity)
	s.board.SetFrequency(s.board.Frequency(), pitch, portamentoTime)
	if p.keyboardMode == amsynth.KeyboardModeMono || !hadPrevious {
		s.board.TriggerOn(!s.active)
	}
	p.keyPressCounter++
	s.triggeredAt = p.keyPressCounter
	s.note, s.active, s.keyDown, s.released = note, true, true, false
}

func (p *VoiceAllocationUnit) NoteOff(note int, _ float32) {
	if !p.tuning.IsActive(note) {
		return
	}
	p.keyPressed[note] = false
	if p.sustain {
		for i := range p.voices {
			if s := &p.voices[i]; s.active && s.note == note {
				s.keyDown = false
			}
		}
		p.deferred.push(note)
		return
	}
	p.release(note)
}

func (p *VoiceAllocationUnit) release(note int) {
	if p.keyboardMode == amsynth.KeyboardModePoly {
		for i := range p.voices {
			if s := &p.voices[i]; s.active && s.note == note && !s.released {
				s.board.TriggerOff()
				s.keyDown, s.released = false, true
			}
		}
		return
	}
	current := p.held.top()
	p.held.remove(note)
	if note != current {
		return
	}
	s := &p.voices[0]
	next := -1
	for i := p.held.n - 1; i >= 0; i-- {
		if n := int(p.held.notes[i]); p.keyPressed[n] {
			next = n
			break
		}
	}
	if next >= 0 {
		s.board.SetFrequency(s.board.Frequency(), float32(p.tuning.NoteToPitch(next)), p.portamentoTime)
		s.note = next
		if p.keyboardMode == amsynth.KeyboardModeMono {
			s.board.TriggerOn(false)
		}
		return
	}
	s.board.TriggerOff()
	s.keyDown, s.released = false, true
}

func (p *VoiceAllocationUnit) anyKeyPressed() bool {
	for _, b := range p.keyPressed {
		if b {
			return true
		}
	}
	return false
}

// SustainPedal holds note offs while value >= 64. Releasing the pedal
// applies the held note offs in the order they arrived.
func (p *VoiceAllocationUnit) SustainPedal(value uint8) {
	if p.sustain = value >= sustainThreshold; p.sustain {
		return
	}
	for i := 0; i < p.deferred.n; i++ {
		if n := int(p.deferred.notes[i]); !p.keyPressed[n] {
			p.release(n)
		}
	}
	p.deferred.n = 0
}

func (p *VoiceAllocationUnit) PitchBend(value float32) { p.pitchBendValue = value }
func (p *VoiceAllocationUnit) PitchBendRange(semitones int) {
	p.SetPitchBendRangeSemitones(semitones)
}

func (p *VoiceAllocationUnit) Pan(left, right float32) { p.panLeft, p.panRight = left, right }

// AllSoundOff stops every voice and clears the reverb tail.
func (p *VoiceAllocationUnit) AllSoundOff() {
	p.ResetAllVoices()
	p.reverb.Mute()
}

func (p *VoiceAllocationUnit) AllNotesOff() { p.ResetAllVoices() }

// ResetAllVoices stops every voice immediately without a release.
func (p *VoiceAllocationUnit) ResetAllVoices() {
	for i := range p.voices {
		s := &p.voices[i]
		s.active, s.keyDown, s.released = false, false, false
		s.board.Reset()
	}
	clear(p.keyPressed[:])
	p.held.n = 0
	p.deferred.n = 0
	p.keyPressCounter = 0
	p.sustain = false
}

func (p *VoiceAllocationUnit) setKeyboardMode(mode int) {
	if p.keyboardMode != mode {
		p.keyboardMode = mode
		p.ResetAllVoices()
	}
}

// ParameterDidChange applies a control value. Global parameters are
// handled here, the rest are passed to every voice.
func (p *VoiceAllocationUnit) ParameterDidChange(param amsynth.Param, value float32) {
	switch param {
	case amsynth.MasterVolume:
		p.masterVolume = value
	case amsynth.ReverbRoomsize:
		p.reverb.SetRoomSize(value)
	case amsynth.ReverbDamp:
		p.reverb.SetDamp(value)
	case amsynth.ReverbWet:
		p.reverb.SetWet(value)
	case amsynth.ReverbWidth:
		p.reverb.SetWidth(value)
	case amsynth.DistortionCrunch:
		p.distortion.SetCrunch(value)
	case amsynth.PortamentoTime:
		p.portamentoTime = value
	case amsynth.KeyboardMode:
		p.setKeyboardMode(int(value))
	case amsynth.PortamentoMode:
		p.portamentoMode = int(value)
	default:
		for i := range p.voices {
			p.voices[i].board.UpdateParameter(param, value)
		}
	}
}

// UpdateAll applies every parameter of the preset.
func (p *VoiceAllocationUnit) UpdateAll(preset *amsynth.Preset) {
	for i := amsynth.Param(0); i < amsynth.ParamCount; i++ {
		p.ParameterDidChange(i, preset.Parameter(i).ControlValue())
	}
}

// Process renders frames (at most dsp.MaxBlockSize) stereo frames to left
// and right, which are addressed with the given stride.
func (p *VoiceAllocationUnit) Process(left, right []float32, frames, stride int) {
	mix := p.mix[:frames]
	clear(mix)
	bend := float32(math.Exp2(float64(p.pitchBendValue * p.pitchBendRange / 12)))
	for i := range p.voices {
		s := &p.voices[i]
		if !s.active {
			continue
		}
		if s.board.IsSilent() {
			s.active = false
			continue
		}
		s.board.SetPitchBend(bend)
		vek32.Add_Inplace(mix, s.board.Process(frames, p.masterVolume))
	}

	p.distortion.Process(mix)

	l := vek32.MulNumber_Into(p.left[:frames], mix, p.panLeft)
	r := vek32.MulNumber_Into(p.right[:frames], mix, p.panRight)
	for i := range mix {
		left[i*stride] = l[i]
		right[i*stride] = r[i]
	}

	p.reverb.Process(left, right, frames, stride)
	p.limiter.Process(left, right, frames, stride)
}

func (l *noteList) push(note int) {
	l.remove(note)
	l.notes[l.n] = uint8(note)
	l.n++
}

func (l *noteList) remove(note int) {
	for i := 0; i < l.n; i++ {
		if int(l.notes[i]) == note {
			copy(l.notes[i:l.n], l.notes[i+1:l.n])
			l.n--
			return
		}
	}
}

// top returns the most recently pushed note, or -1.
func (l *noteList) top() int {
	if l.n == 0 {
		return -1
	}
	return int(l.notes[l.n-1])
}
