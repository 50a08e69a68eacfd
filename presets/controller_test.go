package presets_test

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amsynth/amsynth-sub001"
	"github.com/amsynth/amsynth-sub001/presets"
)

type counter int

func (c *counter) PresetDidChange() { *c++ }

func TestUndoRedoParameterChanges(t *testing.T) {
	c := presets.NewController()
	var n counter
	c.SetObserver(&n)
	c.SetParameterValue(amsynth.OscMix, 0.5)
	c.SetParameterValue(amsynth.OscMix, -0.25)
	c.SetParameterValue(amsynth.OscMix, -0.25) // no change, no record
	if n != 2 {
		t.Errorf("observer notified %d times, want 2", n)
	}
	mix := c.CurrentPreset().Parameter(amsynth.OscMix)
	if !c.Undo() || mix.Value() != 0.5 {
		t.Fatalf("after first undo osc_mix = %v, want 0.5", mix.Value())
	}
	if !c.Undo() || mix.Value() != 0 {
		t.Fatalf("after second undo osc_mix = %v, want 0", mix.Value())
	}
	if c.Undo() {
		t.Fatalf("undo with empty history succeeded")
	}
	if !c.Redo() || mix.Value() != 0.5 {
		t.Fatalf("after redo osc_mix = %v, want 0.5", mix.Value())
	}
	c.SetParameterValue(amsynth.OscMix, 1)
	if c.CanRedo() {
		t.Errorf("a new change should clear the redo history")
	}
}

func TestUndoRandomise(t *testing.T) {
	c := presets.NewController()
	before := c.CurrentPreset().Copy()
	c.Randomise(rand.New(rand.NewSource(1)))
	if c.CurrentPreset().IsEqual(before, amsynth.IgnoreList{}) {
		t.Fatalf("randomise left the preset unchanged")
	}
	randomised := c.CurrentPreset().Copy()
	if !c.Undo() || !c.CurrentPreset().IsEqual(before, amsynth.IgnoreList{}) {
		t.Fatalf("undo did not restore the preset")
	}
	if !c.Redo() || !c.CurrentPreset().IsEqual(randomised, amsynth.IgnoreList{}) {
		t.Fatalf("redo did not restore the randomised preset")
	}
}

func TestHistoryIsBounded(t *testing.T) {
	c := presets.NewController()
	for i := 0; i < 300; i++ {
		c.SetParameterValue(amsynth.OscMix, float32(i%2)*0.5)
	}
	undos := 0
	for c.Undo() {
		undos++
	}
	if undos != 256 {
		t.Errorf("%d undo steps, want 256", undos)
	}
}

func TestSelectCommitAndModified(t *testing.T) {
	c := presets.NewController()
	c.SetPresetName("Bass")
	c.SetParameterValue(amsynth.FilterResonance, 0.5)
	if !c.IsModified() {
		t.Fatalf("edited preset reported as unmodified")
	}
	c.CommitPreset()
	if c.IsModified() {
		t.Fatalf("committed preset reported as modified")
	}
	if err := c.SelectPreset(1); err != nil {
		t.Fatal(err)
	}
	if got := c.CurrentPreset().Name(); got != presets.DefaultName {
		t.Errorf("preset 1 is named %q", got)
	}
	if err := c.SelectPreset(0); err != nil {
		t.Fatal(err)
	}
	if c.CurrentPreset().Name() != "Bass" || c.CurrentPreset().Parameter(amsynth.FilterResonance).Value() != 0.5 {
		t.Errorf("preset 0 was not committed")
	}
	if err := c.SelectPreset(presets.BankSize); err == nil {
		t.Errorf("selecting past the bank succeeded")
	}
	if !c.Undo() || c.CurrentPreset().Name() != presets.DefaultName {
		t.Errorf("undo of a selection did not restore the previous preset")
	}
}

func TestSelectKeepsIgnoredParameters(t *testing.T) {
	c := presets.NewController()
	c.SetIgnoreList(amsynth.ParseIgnoreList("master_vol"))
	c.SetParameterValue(amsynth.MasterVolume, 0.1)
	c.SetParameterValue(amsynth.OscMix, 0.5)
	c.SelectPreset(2)
	p := c.CurrentPreset()
	if p.Parameter(amsynth.MasterVolume).Value() != 0.1 {
		t.Errorf("ignored parameter changed on select")
	}
	if p.Parameter(amsynth.OscMix).Value() != 0 {
		t.Errorf("parameter not ignored kept its value")
	}
}

func TestImportExport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lead.amSynthPreset")
	c := presets.NewController()
	c.SetPresetName("Lead")
	c.SetParameterValue(amsynth.Osc2Pitch, 7)
	if err := c.ExportPreset(path); err != nil {
		t.Fatal(err)
	}
	text, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(text), "amSynth1.0preset\n<preset> <name> Lead\n") {
		t.Errorf("unexpected export:\n%s", text)
	}
	d := presets.NewController()
	if err := d.ImportPreset(path); err != nil {
		t.Fatal(err)
	}
	if d.CurrentPreset().Name() != "Imported: Lead" || d.CurrentPreset().Parameter(amsynth.Osc2Pitch).Value() != 7 {
		t.Errorf("import got %q with osc2_pitch %v", d.CurrentPreset().Name(), d.CurrentPreset().Parameter(amsynth.Osc2Pitch).Value())
	}
	if d.CanUndo() {
		t.Errorf("import should clear the history")
	}
	bad := filepath.Join(dir, "bad")
	os.WriteFile(bad, []byte("not a preset"), 0644)
	if err := d.ImportPreset(bad); err == nil {
		t.Errorf("importing garbage succeeded")
	}
	if d.CurrentPreset().Name() != "Imported: Lead" {
		t.Errorf("failed import modified the preset")
	}
}
