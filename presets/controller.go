// Package presets manages a bank of presets and the edit history of the
// current one.
package presets

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/amsynth/amsynth-sub001"
)

const (
	BankSize      = 128
	DefaultName   = "New Preset"
	importedLabel = "Imported: "
	historyLimit  = 256
)

type (
	// Controller holds a bank of presets and the current preset, which is a
	// working copy of one of them. All edits of the current preset should go
	// through the controller so that they can be undone.
	Controller struct {
		bank    [BankSize]*amsynth.Preset
		current *amsynth.Preset
		number  int
		ignore  amsynth.IgnoreList

		undo, redo history
		observer   Observer
	}

	// Observer is notified after every operation that changed the current
	// preset.
	Observer interface {
		PresetDidChange()
	}

	// Change is an undo record: a single parameter change, or a snapshot of
	// the whole preset taken before a bulk change.
	Change struct {
		Kind     ChangeKind
		Param    amsynth.Param
		Old, New float32
		Snapshot *amsynth.Preset
	}

	ChangeKind int

	history struct {
		changes []Change
	}
)

const (
	ParamChange ChangeKind = iota
	PresetSnapshot
)

func NewController() *Controller {
	c := &Controller{}
	for i := range c.bank {
		c.bank[i] = amsynth.NewPreset(DefaultName)
	}
	c.current = c.bank[0].Copy()
	return c
}

func (c *Controller) SetObserver(o Observer) { c.observer = o }

// SetIgnoreList sets the parameters that keep their values when another
// preset is selected or imported.
func (c *Controller) SetIgnoreList(l amsynth.IgnoreList) { c.ignore = l }
func (c *Controller) IgnoreList() amsynth.IgnoreList     { return c.ignore }

func (c *Controller) CurrentPreset() *amsynth.Preset { return c.current }
func (c *Controller) CurrentNumber() int             { return c.number }

// Preset returns the bank entry n. It must not be modified.
func (c *Controller) Preset(n int) *amsynth.Preset { return c.bank[n] }

func (c *Controller) notify() {
	if c.observer != nil {
		c.observer.PresetDidChange()
	}
}

// SelectPreset makes a copy of bank entry n the current preset.
func (c *Controller) SelectPreset(n int) error {
	if n < 0 || n >= BankSize {
		return fmt.Errorf("preset number %d out of range 0..%d", n, BankSize-1)
	}
	c.pushSnapshot()
	c.number = n
	c.current.SetName(c.bank[n].Name())
	c.current.Assign(c.bank[n], c.ignore)
	c.notify()
	return nil
}

// CommitPreset stores the current preset into its bank slot.
func (c *Controller) CommitPreset() {
	c.bank[c.number] = c.current.Copy()
}

// IsModified reports if the current preset differs from its bank entry.
func (c *Controller) IsModified() bool {
	return !c.current.IsEqual(c.bank[c.number], c.ignore)
}

// SetParameterValue changes one parameter of the current preset as an
// undoable step.
func (c *Controller) SetParameterValue(p amsynth.Param, v float32) {
	param := c.current.Parameter(p)
	old := param.Value()
	param.SetValue(v)
	if param.Value() == old {
		return
	}
	c.undo.push(Change{Kind: ParamChange, Param: p, Old: old, New: param.Value()})
	c.redo.clear()
	c.notify()
}

func (c *Controller) SetPresetName(name string) {
	c.pushSnapshot()
	c.current.SetName(name)
	c.notify()
}

// Randomise draws new values for the current preset.
func (c *Controller) Randomise(rnd *rand.Rand) {
	c.pushSnapshot()
	c.current.Randomise(rnd, c.ignore)
	c.notify()
}

// LoadPreset replaces the current preset, name included, with a copy of
// other as an undoable step.
func (c *Controller) LoadPreset(other *amsynth.Preset) {
	c.pushSnapshot()
	c.current.SetName(other.Name())
	c.current.Assign(other, amsynth.IgnoreList{})
	c.notify()
}

// ResetPreset sets the current preset to the defaults.
func (c *Controller) ResetPreset() {
	c.pushSnapshot()
	c.current.Assign(amsynth.NewPreset(""), amsynth.IgnoreList{})
	c.notify()
}

func (c *Controller) pushSnapshot() {
	c.undo.push(Change{Kind: PresetSnapshot, Snapshot: c.current.Copy()})
	c.redo.clear()
}

// Undo reverts the last change. Returns false if there is nothing to undo.
func (c *Controller) Undo() bool {
	ch, ok := c.undo.pop()
	if !ok {
		return false
	}
	c.redo.push(c.apply(ch))
	c.notify()
	return true
}

// Redo reapplies the last undone change. Returns false if there is nothing
// to redo.
func (c *Controller) Redo() bool {
	ch, ok := c.redo.pop()
	if !ok {
		return false
	}
	c.undo.push(c.apply(ch))
	c.notify()
	return true
}

func (c *Controller) CanUndo() bool { return len(c.undo.changes) > 0 }
func (c *Controller) CanRedo() bool { return len(c.redo.changes) > 0 }

// apply reverts to the state recorded in ch and returns the record that
// reverts it back.
func (c *Controller) apply(ch Change) Change {
	switch ch.Kind {
	case ParamChange:
		c.current.Parameter(ch.Param).SetValue(ch.Old)
		return Change{Kind: ParamChange, Param: ch.Param, Old: ch.New, New: ch.Old}
	default:
		inverse := Change{Kind: PresetSnapshot, Snapshot: c.current.Copy()}
		c.current.SetName(ch.Snapshot.Name())
		c.current.Assign(ch.Snapshot, amsynth.IgnoreList{})
		return inverse
	}
}

// ImportPreset reads a preset file into the current preset. The history is
// cleared.
func (c *Controller) ImportPreset(path string) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("importing preset: %w", err)
	}
	tmp := c.current.Copy()
	if err := tmp.Parse(string(text)); err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}
	c.current.SetName(importedLabel + tmp.Name())
	c.current.Assign(tmp, c.ignore)
	c.undo.clear()
	c.redo.clear()
	c.notify()
	return nil
}

// ExportPreset writes the current preset to a file.
func (c *Controller) ExportPreset(path string) error {
	if err := os.WriteFile(path, []byte(c.current.String()), 0644); err != nil {
		return fmt.Errorf("exporting preset: %w", err)
	}
	return nil
}

func (h *history) push(ch Change) {
	if len(h.changes) == historyLimit {
		copy(h.changes, h.changes[1:])
		h.changes = h.changes[:historyLimit-1]
	}
	h.changes = append(h.changes, ch)
}

func (h *history) pop() (Change, bool) {
	if len(h.changes) == 0 {
		return Change{}, false
	}
	ch := h.changes[len(h.changes)-1]
	h.changes = h.changes[:len(h.changes)-1]
	return ch, true
}

func (h *history) clear() { h.changes = h.changes[:0] }
