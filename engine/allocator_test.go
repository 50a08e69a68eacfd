package engine

import (
	"math"
	"testing"

	"github.com/amsynth/amsynth-sub001"
	"github.com/amsynth/amsynth-sub001/dsp"
)

func newTestUnit(t *testing.T, mode int) *VoiceAllocationUnit {
	t.Helper()
	p := NewVoiceAllocationUnit(44100)
	preset := amsynth.NewPreset("")
	preset.Parameter(amsynth.KeyboardMode).SetValue(float32(mode))
	p.UpdateAll(preset)
	return p
}

func render(p *VoiceAllocationUnit, blocks int) (peak float32) {
	var l, r [dsp.MaxBlockSize]float32
	for i := 0; i < blocks; i++ {
		p.Process(l[:], r[:], dsp.MaxBlockSize, 1)
		for j := range l {
			peak = max(peak, float32(math.Abs(float64(l[j]))), float32(math.Abs(float64(r[j]))))
		}
	}
	return peak
}

func TestVoiceStealing(t *testing.T) {
	p := newTestUnit(t, amsynth.KeyboardModePoly)
	p.SetMaxVoices(4)
	for n := 60; n < 65; n++ {
		p.NoteOn(n, 1)
		render(p, 1)
	}
	if got := p.ActiveVoices(); got != 4 {
		t.Fatalf("%d active voices, want 4", got)
	}
	if got := p.voices[0].note; got != 64 {
		t.Errorf("voice 0 plays note %d, want 64 (the first voice should be stolen)", got)
	}
}

func TestStealPrefersReleasedVoices(t *testing.T) {
	p := newTestUnit(t, amsynth.KeyboardModePoly)
	p.SetMaxVoices(3)
	preset := amsynth.NewPreset("")
	preset.Parameter(amsynth.AmpRelease).SetValue(2) // keep the released voice sounding
	p.UpdateAll(preset)
	p.NoteOn(60, 1)
	p.NoteOn(61, 1)
	p.NoteOn(62, 1)
	p.NoteOff(61, 0)
	render(p, 1)
	p.NoteOn(63, 1)
	if got := p.voices[1].note; got != 63 {
		t.Errorf("voice 1 plays note %d, want 63 (the released voice should be stolen)", got)
	}
	if p.voices[0].note != 60 || p.voices[2].note != 62 {
		t.Errorf("held voices were stolen: %d %d", p.voices[0].note, p.voices[2].note)
	}
}

func TestUnlimitedVoices(t *testing.T) {
	p := newTestUnit(t, amsynth.KeyboardModePoly)
	for n := 0; n < 20; n++ {
		p.NoteOn(40+n, 1)
	}
	if got := p.ActiveVoices(); got != 20 {
		t.Errorf("%d active voices, want 20", got)
	}
	if peak := render(p, 4); peak == 0 {
		t.Errorf("voices produced no sound")
	}
}

func TestSustainPedalDefersRelease(t *testing.T) {
	p := newTestUnit(t, amsynth.KeyboardModePoly)
	p.NoteOn(60, 1)
	p.SustainPedal(127)
	p.NoteOff(60, 0)
	render(p, 10)
	v := &p.voices[0]
	if !v.active || v.board.AmpEnvelope() == dsp.EnvelopeRelease {
		t.Fatalf("sustained voice was released")
	}
	p.SustainPedal(0)
	if v.board.AmpEnvelope() != dsp.EnvelopeRelease {
		t.Fatalf("pedal up did not release the voice, envelope state %v", v.board.AmpEnvelope())
	}
}

func TestSustainPedalSkipsRepressedNotes(t *testing.T) {
	p := newTestUnit(t, amsynth.KeyboardModePoly)
	p.SustainPedal(100)
	p.NoteOn(60, 1)
	p.NoteOff(60, 0)
	p.NoteOn(60, 1)
	p.SustainPedal(10)
	for i := range p.voices[:2] {
		if p.voices[i].board.AmpEnvelope() == dsp.EnvelopeRelease {
			t.Errorf("voice %d released although its key is down", i)
		}
	}
}

func TestLegatoDoesNotRetrigger(t *testing.T) {
	p := newTestUnit(t, amsynth.KeyboardModeLegato)
	p.NoteOn(60, 1)
	render(p, 10)
	v := p.voices[0].board
	state, level := v.AmpEnvelope(), v.AmpLevel()
	if state == dsp.EnvelopeAttack {
		t.Fatalf("envelope still in attack")
	}
	p.NoteOn(64, 1)
	if v.AmpEnvelope() != state || v.AmpLevel() != level {
		t.Fatalf("legato note retriggered the envelope: %v %v", v.AmpEnvelope(), v.AmpLevel())
	}
	render(p, 1)
	if got, want := v.Frequency(), float32(440*math.Pow(2, -5.0/12)); math.Abs(float64(got-want)) > 0.01 {
		t.Errorf("frequency %v, want %v", got, want)
	}
	if p.ActiveVoices() != 1 {
		t.Errorf("%d voices active in legato mode", p.ActiveVoices())
	}
	p.NoteOff(64, 0)
	if p.voices[0].note != 60 || v.AmpEnvelope() == dsp.EnvelopeRelease {
		t.Errorf("releasing the top note should return to the held note")
	}
	p.NoteOff(60, 0)
	if v.AmpEnvelope() != dsp.EnvelopeRelease {
		t.Errorf("releasing the last note should release the voice")
	}
}

func TestMonoRetriggers(t *testing.T) {
	p := newTestUnit(t, amsynth.KeyboardModeMono)
	p.NoteOn(60, 1)
	render(p, 10)
	p.NoteOn(64, 1)
	if got := p.voices[0].board.AmpEnvelope(); got != dsp.EnvelopeAttack {
		t.Errorf("mono note on gave envelope state %v, want attack", got)
	}
	if p.ActiveVoices() != 1 {
		t.Errorf("%d voices active in mono mode", p.ActiveVoices())
	}
}

func TestKeyboardModeChangeResetsVoices(t *testing.T) {
	p := newTestUnit(t, amsynth.KeyboardModePoly)
	p.NoteOn(60, 1)
	p.NoteOn(62, 1)
	p.ParameterDidChange(amsynth.KeyboardMode, amsynth.KeyboardModeMono)
	if got := p.ActiveVoices(); got != 0 {
		t.Errorf("%d voices active after a keyboard mode change", got)
	}
}

func TestAllSoundOff(t *testing.T) {
	p := newTestUnit(t, amsynth.KeyboardModePoly)
	p.NoteOn(60, 1)
	p.NoteOn(67, 1)
	render(p, 2)
	p.AllSoundOff()
	if got := p.ActiveVoices(); got != 0 {
		t.Fatalf("%d voices active after all sound off", got)
	}
	if peak := render(p, 2); peak != 0 {
		t.Errorf("output peak %v after all sound off, want silence", peak)
	}
}

func TestPitchBendFollowsRange(t *testing.T) {
	p := newTestUnit(t, amsynth.KeyboardModePoly)
	p.NoteOn(69, 1)
	for _, tt := range []struct {
		semitones int
		bend      float32
		want      float64
	}{
		{2, 0, 1},
		{12, 0.5, math.Sqrt2},
		{2, -1, math.Exp2(-2.0 / 12)},
		{24, 1, 4},
	} {
		p.PitchBendRange(tt.semitones)
		p.PitchBend(tt.bend)
		render(p, 1)
		if got := p.PitchBendRangeSemitones(); got != tt.semitones {
			t.Errorf("pitch bend range %d, want %d", got, tt.semitones)
		}
		if got := p.voices[0].board.pitchBend; math.Abs(float64(got)-tt.want) > 1e-5 {
			t.Errorf("range %d, bend %v: voice multiplier %v, want %v", tt.semitones, tt.bend, got, tt.want)
		}
	}
}

func TestStealSkipsSustainedVoices(t *testing.T) {
	p := newTestUnit(t, amsynth.KeyboardModePoly)
	p.SetMaxVoices(2)
	preset := amsynth.NewPreset("")
	preset.Parameter(amsynth.AmpRelease).SetValue(2)
	p.UpdateAll(preset)
	p.NoteOn(60, 1)
	p.NoteOn(61, 1)
	p.NoteOff(61, 0)
	p.SustainPedal(127)
	p.NoteOff(60, 0) // held by the pedal, not releasing
	p.NoteOn(62, 1)
	if got := p.voices[1].note; got != 62 {
		t.Errorf("voice 1 plays note %d, want 62 (the releasing voice should be stolen)", got)
	}
	if got := p.voices[0].note; got != 60 || p.voices[0].board.AmpEnvelope() == dsp.EnvelopeRelease {
		t.Errorf("sustained voice was stolen or released, it plays note %d", got)
	}
}

// glide sets a portamento of 0.1 s, 4410 frames at 44.1 kHz.
func glide(p *VoiceAllocationUnit, mode int) {
	p.ParameterDidChange(amsynth.PortamentoTime, 0.1)
	p.ParameterDidChange(amsynth.PortamentoMode, float32(mode))
}

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 0.01 }

func TestPolyPortamento(t *testing.T) {
	p := newTestUnit(t, amsynth.KeyboardModePoly)
	glide(p, amsynth.PortamentoModeAlways)
	p.NoteOn(57, 1)
	render(p, 1)
	if got := p.voices[0].board.Frequency(); !near(got, 220) {
		t.Fatalf("first note starts at %v Hz, want 220", got)
	}
	p.NoteOn(69, 1)
	v := p.voices[1].board
	render(p, 1)
	if got := v.Frequency(); got <= 220 || got >= 230 {
		t.Errorf("one block into the glide the frequency is %v Hz", got)
	}
	render(p, 70)
	if got := v.Frequency(); !near(got, 440) {
		t.Errorf("after the glide the frequency is %v Hz, want 440", got)
	}
}

func TestLegatoPortamentoModeGlidesOnlyWhileHeld(t *testing.T) {
	p := newTestUnit(t, amsynth.KeyboardModePoly)
	glide(p, amsynth.PortamentoModeLegato)
	p.NoteOn(57, 1)
	p.NoteOff(57, 0)
	render(p, 1)
	p.NoteOn(69, 1)
	render(p, 1)
	if got := p.voices[1].board.Frequency(); !near(got, 440) {
		t.Errorf("detached note glided, frequency %v Hz", got)
	}
	p.NoteOn(81, 1)
	render(p, 1)
	if got := p.voices[2].board.Frequency(); got <= 440 || got >= 460 {
		t.Errorf("note played while a key is held did not glide, frequency %v Hz", got)
	}
}

func TestMonoPortamento(t *testing.T) {
	for _, mode := range []int{amsynth.KeyboardModeMono, amsynth.KeyboardModeLegato} {
		p := newTestUnit(t, mode)
		glide(p, amsynth.PortamentoModeAlways)
		p.NoteOn(69, 1)
		render(p, 10)
		v := p.voices[0].board
		if got := v.Frequency(); !near(got, 440) {
			t.Fatalf("mode %d: first note is at %v Hz, want 440 without a glide", mode, got)
		}
		p.NoteOn(81, 1)
		render(p, 1)
		if got := v.Frequency(); got <= 440 || got >= 460 {
			t.Errorf("mode %d: one block into the glide the frequency is %v Hz", mode, got)
		}
		render(p, 70)
		if got := v.Frequency(); !near(got, 880) {
			t.Errorf("mode %d: after the glide the frequency is %v Hz, want 880", mode, got)
		}
		p.ResetAllVoices()
		p.NoteOn(57, 1)
		render(p, 1)
		if got := v.Frequency(); !near(got, 220) {
			t.Errorf("mode %d: first note after a reset is at %v Hz, want 220", mode, got)
		}
	}
}
