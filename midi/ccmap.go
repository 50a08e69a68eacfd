package midi

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/amsynth/amsynth-sub001"
)

// NumControllers is the number of MIDI continuous controllers.
const NumControllers = 128

// NoParam marks a controller that is not routed to any parameter.
const NoParam amsynth.Param = -1

const nullName = "null"

var ErrInvalidControllerMap = errors.New("invalid controller map")

// ControllerMap routes MIDI controllers to parameters. Each parameter is
// assigned to at most one controller and vice versa. Reserved controllers
// are never routed.
type ControllerMap struct {
	ccToParam [NumControllers]amsynth.Param
	paramToCC [amsynth.ParamCount]int
}

// NewControllerMap returns the default routing.
func NewControllerMap() *ControllerMap {
	m := &ControllerMap{}
	m.Reset()
	return m
}

// IsReserved reports if the controller has a dedicated function and thus
// cannot be routed to a parameter.
func IsReserved(cc int) bool {
	switch cc {
	case ccBankSelect, ccDataEntry, ccPan, ccSustain, ccRPNLSB, ccRPNMSB,
		ccAllSoundOff, ccResetAllControllers:
		return true
	}
	return cc >= ccAllNotesOff && cc < NumControllers
}

// Clear removes all routings.
func (m *ControllerMap) Clear() {
	for i := range m.ccToParam {
		m.ccToParam[i] = NoParam
	}
	for i := range m.paramToCC {
		m.paramToCC[i] = -1
	}
}

// Reset restores the default routing.
func (m *ControllerMap) Reset() {
	m.Clear()
	m.SetControllerForParameter(amsynth.FreqModAmount, 1)
	m.SetControllerForParameter(amsynth.PortamentoTime, 5)
	m.SetControllerForParameter(amsynth.MasterVolume, 7)
	m.SetControllerForParameter(amsynth.FilterResonance, 71)
	m.SetControllerForParameter(amsynth.AmpRelease, 72)
	m.SetControllerForParameter(amsynth.AmpAttack, 73)
	m.SetControllerForParameter(amsynth.FilterCutoff, 74)
	m.SetControllerForParameter(amsynth.ReverbWet, 91)
}

func (m *ControllerMap) Copy() *ControllerMap {
	ret := *m
	return &ret
}

func (m *ControllerMap) ParameterForController(cc int) (amsynth.Param, bool) {
	if cc < 0 || cc >= NumControllers || m.ccToParam[cc] == NoParam {
		return NoParam, false
	}
	return m.ccToParam[cc], true
}

func (m *ControllerMap) ControllerForParameter(p amsynth.Param) (int, bool) {
	if p < 0 || p >= amsynth.ParamCount || m.paramToCC[p] < 0 {
		return -1, false
	}
	return m.paramToCC[p], true
}

// SetControllerForParameter routes cc to p, removing any previous routing
// of either. A negative cc unroutes p; NoParam unroutes cc. Returns false if
// the controller is reserved or out of range.
func (m *ControllerMap) SetControllerForParameter(p amsynth.Param, cc int) bool {
	if cc >= NumControllers || (cc >= 0 && IsReserved(cc)) || p >= amsynth.ParamCount {
		return false
	}
	if p >= 0 {
		if old := m.paramToCC[p]; old >= 0 {
			m.ccToParam[old] = NoParam
		}
		m.paramToCC[p] = cc
	}
	if cc >= 0 {
		if old := m.ccToParam[cc]; old >= 0 {
			m.paramToCC[old] = -1
		}
		m.ccToParam[cc] = p
	}
	return true
}

// Load reads a routing in the controller map format: one line per
// controller, starting from controller 0, each a parameter name or "null".
// Missing lines are unrouted. On error m is left unchanged.
func (m *ControllerMap) Load(r io.Reader) error {
	var n ControllerMap
	n.Clear()
	scanner := bufio.NewScanner(r)
	cc := 0
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		if cc >= NumControllers {
			return fmt.Errorf("%w: more than %d controllers", ErrInvalidControllerMap, NumControllers)
		}
		if name != nullName && !IsReserved(cc) {
			p, ok := amsynth.ParamFromName(name)
			if !ok {
				return fmt.Errorf("%w: unknown parameter %q for controller %d", ErrInvalidControllerMap, name, cc)
			}
			n.SetControllerForParameter(p, cc)
		}
		cc++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading controller map: %w", err)
	}
	*m = n
	return nil
}

func (m *ControllerMap) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening controller map: %w", err)
	}
	defer f.Close()
	if err := m.Load(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (m *ControllerMap) String() string {
	var b strings.Builder
	for _, p := range m.ccToParam {
		if p == NoParam {
			b.WriteString(nullName)
		} else {
			b.WriteString(p.String())
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (m *ControllerMap) SaveFile(path string) error {
	if err := os.WriteFile(path, []byte(m.String()), 0644); err != nil {
		return fmt.Errorf("saving controller map: %w", err)
	}
	return nil
}
