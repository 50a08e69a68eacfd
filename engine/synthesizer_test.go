package engine_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/amsynth/amsynth-sub001"
	"github.com/amsynth/amsynth-sub001/engine"
)

const blockFrames = 256

func process(s *engine.Synthesizer, events ...amsynth.MIDIEvent) ([]amsynth.ControlChange, amsynth.AudioBuffer) {
	buf := make(amsynth.AudioBuffer, 2*blockFrames)
	return s.Render(buf, events), buf
}

func event(frame int, data ...byte) amsynth.MIDIEvent {
	return amsynth.MIDIEvent{Frame: frame, Data: data}
}

func TestNewSynthesizerPanicsOnInvalidSampleRate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("NewSynthesizer(0) did not panic")
		}
	}()
	engine.NewSynthesizer(0)
}

func TestRenderNotes(t *testing.T) {
	s := engine.NewSynthesizer(44100)
	s.SetMaxNumVoices(4)
	var events []amsynth.MIDIEvent
	for i := 0; i < 5; i++ {
		events = append(events, event(i*10, 0x90, byte(60+i), 100))
	}
	_, buf := process(s, events...)
	if got := s.ActiveVoices(); got != 4 {
		t.Errorf("%d active voices, want 4", got)
	}
	silent := true
	for _, v := range buf {
		if v != 0 {
			silent = false
			break
		}
	}
	if silent {
		t.Errorf("rendered buffer is silent")
	}
	for i := 0; i < 5; i++ {
		events[i] = event(0, 0x80, byte(60+i), 0)
	}
	process(s, events...)
	s.AllSoundOff()
	process(s)
	if got := s.ActiveVoices(); got != 0 {
		t.Errorf("%d active voices after all sound off", got)
	}
}

func TestEventsAfterTheBlockAreApplied(t *testing.T) {
	s := engine.NewSynthesizer(44100)
	process(s, event(blockFrames+10, 0x90, 60, 100))
	if got := s.ActiveVoices(); got != 1 {
		t.Errorf("%d active voices, want 1", got)
	}
}

func TestMIDIOutput(t *testing.T) {
	s := engine.NewSynthesizer(44100)
	if !s.SetControllerForParameter(amsynth.OscMix, 2) {
		t.Fatalf("routing cc 2 failed")
	}
	process(s) // send the initial values
	s.SetParameterValue(amsynth.OscMix, 1)
	out, _ := process(s)
	want := []amsynth.ControlChange{{Channel: 0, Controller: 2, Value: 127}}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("got %v, want %v", out, want)
	}
	if out, _ := process(s); len(out) != 0 {
		t.Errorf("unchanged parameters sent %v", out)
	}
	// values received on the controller are not echoed back
	if out, _ := process(s, event(0, 0xB0, 2, 0)); len(out) != 0 {
		t.Errorf("received controller echoed: %v", out)
	}
}

func TestControllersUpdateControlSide(t *testing.T) {
	s := engine.NewSynthesizer(44100)
	process(s, event(0, 0xB0, 74, 0))
	if got := s.NormalizedParameterValue(amsynth.FilterCutoff); got != 0 {
		t.Errorf("filter_cutoff normalized value %v, want 0", got)
	}
	if cc, ok := s.LastActiveController(); !ok || cc != 74 {
		t.Errorf("last active controller %v %v, want 74", cc, ok)
	}
	// the value from the controller survives a later edit of another parameter
	s.SetParameterValue(amsynth.OscMix, 0.5)
	process(s)
	if got := s.NormalizedParameterValue(amsynth.FilterCutoff); got != 0 {
		t.Errorf("filter_cutoff reverted to %v", got)
	}
}

func TestProgramChangeSelectsPreset(t *testing.T) {
	s := engine.NewSynthesizer(44100)
	process(s, event(0, 0xC0, 5))
	s.Update()
	if got := s.Presets().CurrentNumber(); got != 5 {
		t.Errorf("current preset %d, want 5", got)
	}
}

func TestMIDIChannelFilter(t *testing.T) {
	s := engine.NewSynthesizer(44100)
	s.SetMIDIChannel(2)
	process(s, event(0, 0x90, 60, 100), event(0, 0x91, 62, 100))
	if got := s.ActiveVoices(); got != 1 {
		t.Errorf("%d active voices, want 1", got)
	}
}

func TestSendMIDI(t *testing.T) {
	s := engine.NewSynthesizer(44100)
	if !s.SendMIDI(0x90, 64, 90) {
		t.Fatalf("SendMIDI failed")
	}
	if s.SendMIDI(0xF0, 1, 2, 3, 0xF7) {
		t.Errorf("SendMIDI accepted a long message")
	}
	process(s)
	if got := s.ActiveVoices(); got != 1 {
		t.Errorf("%d active voices, want 1", got)
	}
}

func TestStateRoundTrip(t *testing.T) {
	s := engine.NewSynthesizer(44100)
	s.Presets().SetPresetName("Warm Pad")
	s.SetParameterValue(amsynth.Osc2Pitch, 5)
	s.SetMaxNumVoices(8)
	s.SetPitchBendRangeSemitones(12)
	s.SetMIDIChannel(3)
	state := s.SaveState()

	r := engine.NewSynthesizer(48000)
	if err := r.LoadState(state); err != nil {
		t.Fatal(err)
	}
	if got := r.PresetName(); got != "Warm Pad" {
		t.Errorf("preset name %q", got)
	}
	if got := r.ParameterValue(amsynth.Osc2Pitch); got != 5 {
		t.Errorf("osc2_pitch %v, want 5", got)
	}
	if r.MaxNumVoices() != 8 || r.PitchBendRangeSemitones() != 12 || r.MIDIChannel() != 3 {
		t.Errorf("properties not restored: %d %d %d", r.MaxNumVoices(), r.PitchBendRangeSemitones(), r.MIDIChannel())
	}
	if r.SaveState() != state {
		t.Errorf("state changed in round trip:\n%s\nvs\n%s", r.SaveState(), state)
	}
	if err := r.LoadState("garbage"); err == nil {
		t.Errorf("loading garbage succeeded")
	}
	if err := r.LoadState(state + "<property> no_such_thing 1\n"); err == nil {
		t.Errorf("loading an unknown property succeeded")
	}
	if r.PresetName() != "Warm Pad" || r.MaxNumVoices() != 8 {
		t.Errorf("failed load changed the state")
	}
}

func TestProperties(t *testing.T) {
	s := engine.NewSynthesizer(44100)
	for _, tt := range []struct {
		key, value, want string
	}{
		{engine.PropMaxPolyphony, "16", "16"},
		{engine.PropMaxPolyphony, "1000", "128"},
		{engine.PropMIDIChannel, "-4", "0"},
		{engine.PropPitchBendRange, "7", "7"},
		{engine.PropPresetName, "Bells", "Bells"},
	} {
		if err := s.SetProperty(tt.key, tt.value); err != nil {
			t.Fatalf("SetProperty(%s, %s): %v", tt.key, tt.value, err)
		}
		if got, ok := s.Property(tt.key); !ok || got != tt.want {
			t.Errorf("Property(%s) = %q, want %q", tt.key, got, tt.want)
		}
	}
	if err := s.SetProperty(engine.PropMaxPolyphony, "many"); err == nil {
		t.Errorf("non-numeric polyphony accepted")
	}
	if err := s.SetProperty("colour", "red"); err == nil {
		t.Errorf("unknown property accepted")
	}
}

func TestParameterDisplay(t *testing.T) {
	s := engine.NewSynthesizer(44100)
	if got := s.ParameterDisplayName(amsynth.FilterEnvAmount); got != "Filter Env Amount" {
		t.Errorf("display name %q, want %q", got, "Filter Env Amount")
	}
	s.SetParameterValue(amsynth.KeyboardMode, amsynth.KeyboardModeLegato)
	if got := s.ParameterDisplay(amsynth.KeyboardMode); got != "legato" {
		t.Errorf("keyboard_mode displays as %q, want legato", got)
	}
}

func TestTuningFiles(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.scl")
	os.WriteFile(bad, []byte("! nothing here\n"), 0644)
	s := engine.NewSynthesizer(44100)
	before := s.Tuning()
	if err := s.LoadTuningScale(bad); err == nil {
		t.Fatalf("loading a bad scale succeeded")
	}
	if s.Tuning() != before {
		t.Errorf("failed load replaced the tuning")
	}
	if got, _ := s.Property(engine.PropTuningScale); got != "" {
		t.Errorf("failed load set the scale file to %q", got)
	}
	if err := s.LoadTuningKeyMap(filepath.Join(dir, "missing.kbm")); err == nil {
		t.Errorf("loading a missing key map succeeded")
	}
	if got := s.Tuning().NoteToPitch(69); got != 440 {
		t.Errorf("note 69 is %v Hz, want 440", got)
	}
	if err := s.LoadTuningScale(""); err != nil {
		t.Errorf("resetting the scale: %v", err)
	}
}
