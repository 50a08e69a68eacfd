// Package midi decodes raw MIDI byte streams into performance events for the
// voice allocator and routes continuous controllers to synth parameters.
package midi

import (
	"math"
	"sync/atomic"

	"github.com/amsynth/amsynth-sub001"
	"gitlab.com/gomidi/midi/v2"
)

type (
	// Handler receives the decoded performance events.
	Handler interface {
		NoteOn(note int, velocity float32)
		NoteOff(note int, velocity float32)
		// PitchBend is in [-1, 1).
		PitchBend(value float32)
		PitchBendRange(semitones int)
		// Pan gives the equal power gains of the left and right channels.
		Pan(left, right float32)
		SustainPedal(value uint8)
		AllSoundOff()
		AllNotesOff()
	}

	// ProgramSelector changes presets on program change messages.
	ProgramSelector interface {
		CurrentProgram() int
		SelectProgram(program int)
	}

	// Controller is a MIDI byte stream decoder. It keeps the running status
	// and the last value of every controller. Only the methods documented as
	// such are safe to call from other goroutines than the one feeding data.
	Controller struct {
		handler  Handler
		programs ProgramSelector
		preset   *amsynth.Preset
		ccMap    ControllerMap
		channel  int // 0 = any, otherwise 1..16

		status byte
		data   byte
		msg    [3]byte

		ccValues       [NumControllers]uint8
		rpnMSB, rpnLSB uint8
		bank           uint8

		lastActive atomic.Int32
	}
)

const noData = 0xFF

const (
	ccBankSelect          = 0
	ccDataEntry           = 6
	ccPan                 = 10
	ccSustain             = 64
	ccRPNLSB              = 100
	ccRPNMSB              = 101
	ccAllSoundOff         = 120
	ccResetAllControllers = 121
	ccAllNotesOff         = 123
)

const rpnNull = 0x7F

// NewController returns a decoder that sends events to h and applies routed
// controllers to the parameters of preset.
func NewController(h Handler, preset *amsynth.Preset) *Controller {
	c := &Controller{
		handler: h,
		preset:  preset,
		data:    noData,
		rpnMSB:  rpnNull,
		rpnLSB:  rpnNull,
	}
	c.ccMap.Reset()
	c.lastActive.Store(-1)
	return c
}

func (c *Controller) SetProgramSelector(s ProgramSelector) { c.programs = s }

// SetChannel sets the channel to listen to, 1..16, or 0 for all channels.
func (c *Controller) SetChannel(ch int) {
	if ch < 0 || ch > 16 {
		ch = 0
	}
	c.channel = ch
}

func (c *Controller) Channel() int { return c.channel }

// SetControllerMap copies m into the routing table.
func (c *Controller) SetControllerMap(m *ControllerMap) { c.ccMap = *m }

func (c *Controller) ControllerMap() *ControllerMap { return c.ccMap.Copy() }

// Bank returns the last received bank select value.
func (c *Controller) Bank() int { return int(c.bank) }

// ControllerValue returns the last value received or sent on cc.
func (c *Controller) ControllerValue(cc int) uint8 { return c.ccValues[cc&0x7F] }

// LastActiveController returns the most recently moved unreserved
// controller and forgets it. Safe for concurrent use.
func (c *Controller) LastActiveController() (int, bool) {
	cc := c.lastActive.Swap(-1)
	return int(cc), cc >= 0
}

// HandleMIDIData decodes a chunk of a MIDI byte stream. Messages may span
// chunks; running status is supported.
func (c *Controller) HandleMIDIData(data []byte) {
	for _, b := range data {
		if b&0x80 != 0 {
			switch {
			case b < 0xF0:
				c.status = b
				c.data = noData
			case b < 0xF8:
				// system common messages and their data are ignored
				c.status = 0
				c.data = noData
			}
			continue
		}
		if c.status == 0 {
			continue
		}
		switch c.status & 0xF0 {
		case 0xC0, 0xD0:
			c.dispatch(b, 0, 2)
		default:
			if c.data == noData {
				c.data = b
				continue
			}
			c.dispatch(c.data, b, 3)
			c.data = noData
		}
	}
}

func (c *Controller) dispatch(d1, d2 byte, n int) {
	if c.channel > 0 && int(c.status&0x0F) != c.channel-1 {
		return
	}
	c.msg = [3]byte{c.status, d1, d2}
	m := midi.Message(c.msg[:n])
	var ch, key, vel, cc, val, prog uint8
	var rel int16
	var abs uint16
	switch {
	case m.GetNoteStart(&ch, &key, &vel):
		c.handler.NoteOn(int(key), float32(vel)/127)
	case m.GetNoteEnd(&ch, &key):
		c.handler.NoteOff(int(key), 0)
	case m.GetControlChange(&ch, &cc, &val):
		c.controlChange(cc, val)
	case m.GetPitchBend(&ch, &rel, &abs):
		c.handler.PitchBend(float32(rel) / 8192)
	case m.GetProgramChange(&ch, &prog):
		c.programChange(int(prog))
	}
}

func (c *Controller) programChange(program int) {
	if c.programs == nil || c.programs.CurrentProgram() == program {
		return
	}
	c.handler.AllSoundOff()
	c.programs.SelectProgram(program)
}

func (c *Controller) controlChange(cc, value uint8) {
	c.ccValues[cc] = value
	if !IsReserved(int(cc)) {
		c.lastActive.Store(int32(cc))
		if p, ok := c.ccMap.ParameterForController(int(cc)); ok {
			param := c.preset.Parameter(p)
			param.SetNormalisedValue(float32(value) / 127)
			// stepped parameters quantise, remember what will be sent back
			c.ccValues[cc] = uint8(param.MIDIValue())
		}
		return
	}
	switch cc {
	case ccBankSelect:
		c.bank = value
	case ccDataEntry:
		if c.rpnMSB == 0 && c.rpnLSB == 0 {
			c.handler.PitchBendRange(int(value))
		}
	case ccPan:
		// 0 and 1 are both hard left, see MIDI RP-036
		scaled := float64(max(value, 1)-1) / 126
		c.handler.Pan(float32(math.Cos(math.Pi/2*scaled)), float32(math.Sin(math.Pi/2*scaled)))
	case ccSustain:
		c.handler.SustainPedal(value)
	case ccRPNLSB:
		c.rpnLSB = value
	case ccRPNMSB:
		c.rpnMSB = value
	case ccAllSoundOff:
		if value == 0 {
			c.handler.AllSoundOff()
		}
	case ccResetAllControllers:
		c.handler.PitchBend(0)
	case ccAllNotesOff:
		if value == 0 {
			c.handler.AllNotesOff()
		}
	default: // omni and mono/poly mode messages
		c.handler.AllNotesOff()
	}
}

// AppendMIDIOutput appends a control change for every routed parameter
// whose value differs from the last value received or sent on its
// controller.
func (c *Controller) AppendMIDIOutput(dst []amsynth.ControlChange) []amsynth.ControlChange {
	ch := uint8(max(0, c.channel-1))
	for p := amsynth.Param(0); p < amsynth.ParamCount; p++ {
		cc, ok := c.ccMap.ControllerForParameter(p)
		if !ok {
			continue
		}
		v := uint8(c.preset.Parameter(p).MIDIValue())
		if c.ccValues[cc] != v {
			c.ccValues[cc] = v
			dst = append(dst, amsynth.ControlChange{Channel: ch, Controller: uint8(cc), Value: v})
		}
	}
	return dst
}
