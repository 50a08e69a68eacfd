package engine

import (
	"fmt"

	"github.com/amsynth/amsynth-sub001"
	"github.com/amsynth/amsynth-sub001/midi"
	"github.com/amsynth/amsynth-sub001/presets"
	"github.com/amsynth/amsynth-sub001/tuning"
)

// Synthesizer connects the preset bank, the MIDI controller and the voice
// allocator. Process and Render must be called from a single audio
// goroutine; all other methods from a single control goroutine. The two
// sides share nothing but atomically published snapshots and the Broker
// channels, so Process never blocks on the control side.
type Synthesizer struct {
	sampleRate int

	presets *presets.Controller
	tuning  *tuning.Map
	ccMap   *midi.ControllerMap
	props   properties

	shared shared
	broker *Broker
	player *player
}

const DefaultPitchBendRange = 2

// NewSynthesizer returns a synthesizer rendering at sampleRate Hz. It panics
// if the sample rate is not positive.
func NewSynthesizer(sampleRate int) *Synthesizer {
	if sampleRate <= 0 {
		panic(fmt.Sprintf("engine: invalid sample rate %d", sampleRate))
	}
	s := &Synthesizer{
		sampleRate: sampleRate,
		presets:    presets.NewController(),
		tuning:     tuning.New(),
		ccMap:      midi.NewControllerMap(),
		props:      properties{pitchBendRange: DefaultPitchBendRange},
		broker:     NewBroker(),
	}
	s.player = newPlayer(sampleRate, s.presets.CurrentPreset(), &s.shared, s.broker)
	s.presets.SetObserver(s)
	s.shared.tuning.Store(s.tuning)
	s.shared.ccMap.Store(s.ccMap)
	s.publish()
	return s
}

func (s *Synthesizer) SampleRate() int { return s.sampleRate }

// Process renders frames stereo frames into left and right, addressed with
// the given stride, applying the MIDI events at their frame offsets. The
// offsets must be non-decreasing. Control changes for mapped parameters that
// changed are appended to ccOut.
func (s *Synthesizer) Process(frames int, events []amsynth.MIDIEvent, left, right []float32, stride int, ccOut []amsynth.ControlChange) []amsynth.ControlChange {
	return s.player.process(frames, events, left, right, stride, ccOut)
}

// Render fills an interleaved stereo buffer.
func (s *Synthesizer) Render(buffer amsynth.AudioBuffer, events []amsynth.MIDIEvent) []amsynth.ControlChange {
	return s.Process(buffer.Frames(), events, buffer.Left(), buffer.Right(), 2, nil)
}

// Update applies the changes made on the audio side, like parameters moved
// with MIDI controllers and program changes, to the current preset.
func (s *Synthesizer) Update() {
	changed := false
	for {
		select {
		case msg := <-s.broker.ToControl:
			switch msg.Kind {
			case ControlMessageParameter:
				s.presets.CurrentPreset().Parameter(msg.Param).SetValue(msg.Value)
				changed = true
			case ControlMessageProgram:
				s.presets.SelectPreset(msg.Program)
			}
		default:
			if changed {
				s.publish()
			}
			return
		}
	}
}

// PresetDidChange publishes the current preset to the audio side.
func (s *Synthesizer) PresetDidChange() { s.publish() }

func (s *Synthesizer) publish() {
	s.shared.program.Store(int32(s.presets.CurrentNumber()))
	s.shared.preset.Store(s.presets.CurrentPreset().Copy())
}

// Presets returns the preset bank. Edits made through it are published to
// the audio side. Call Update before using it.
func (s *Synthesizer) Presets() *presets.Controller { return s.presets }

func (s *Synthesizer) SelectPreset(n int) error {
	s.Update()
	return s.presets.SelectPreset(n)
}

func (s *Synthesizer) PresetName() string {
	s.Update()
	return s.presets.CurrentPreset().Name()
}

// SetParameterValue changes a parameter of the current preset as an
// undoable step.
func (s *Synthesizer) SetParameterValue(p amsynth.Param, value float32) {
	s.Update()
	s.presets.SetParameterValue(p, value)
}

func (s *Synthesizer) ParameterValue(p amsynth.Param) float32 {
	s.Update()
	return s.presets.CurrentPreset().Parameter(p).Value()
}

func (s *Synthesizer) NormalizedParameterValue(p amsynth.Param) float32 {
	s.Update()
	return s.presets.CurrentPreset().Parameter(p).NormalisedValue()
}

func (s *Synthesizer) SetNormalizedParameterValue(p amsynth.Param, n float32) {
	spec := &amsynth.ParameterSpecs[p]
	s.SetParameterValue(p, spec.Min+n*(spec.Max-spec.Min))
}

// ParameterDisplayName is the title cased parameter name, e.g. "Osc Mix".
func (s *Synthesizer) ParameterDisplayName(p amsynth.Param) string {
	return s.presets.CurrentPreset().Parameter(p).DisplayName()
}

// ParameterDisplay formats the value of a parameter for humans.
func (s *Synthesizer) ParameterDisplay(p amsynth.Param) string {
	s.Update()
	return s.presets.CurrentPreset().Parameter(p).DisplayString()
}

// LoadTuningScale loads a Scala scale file, or resets the scale to 12 tone
// equal temperament if path is empty. On error the tuning is not changed.
func (s *Synthesizer) LoadTuningScale(path string) error {
	props := s.props
	props.scaleFile = path
	return s.applyProperties(props)
}

// LoadTuningKeyMap loads a Scala key map file, or resets the key map if path
// is empty. On error the tuning is not changed.
func (s *Synthesizer) LoadTuningKeyMap(path string) error {
	props := s.props
	props.keyMapFile = path
	return s.applyProperties(props)
}

// ResetTuning restores the default tuning.
func (s *Synthesizer) ResetTuning() {
	s.props.scaleFile, s.props.keyMapFile = "", ""
	s.tuning = tuning.New()
	s.shared.tuning.Store(s.tuning)
}

// Tuning returns the current tuning map. It must not be modified.
func (s *Synthesizer) Tuning() *tuning.Map { return s.tuning }

// SetMaxNumVoices caps the polyphony, 0 means the size of the voice pool.
func (s *Synthesizer) SetMaxNumVoices(n int) {
	props := s.props
	props.maxVoices = n
	s.applyProperties(props)
}

func (s *Synthesizer) MaxNumVoices() int { return s.props.maxVoices }

// SetMIDIChannel sets the channel to listen to, 1..16, or 0 for any.
// Sounding notes are stopped.
func (s *Synthesizer) SetMIDIChannel(ch int) {
	props := s.props
	props.midiChannel = ch
	s.applyProperties(props)
}

func (s *Synthesizer) MIDIChannel() int { return s.props.midiChannel }

func (s *Synthesizer) SetPitchBendRangeSemitones(n int) {
	props := s.props
	props.pitchBendRange = n
	s.applyProperties(props)
}

func (s *Synthesizer) PitchBendRangeSemitones() int { return s.props.pitchBendRange }

// SetControllerForParameter routes a MIDI controller to a parameter, see
// midi.ControllerMap.SetControllerForParameter.
func (s *Synthesizer) SetControllerForParameter(p amsynth.Param, cc int) bool {
	m := s.ccMap.Copy()
	if !m.SetControllerForParameter(p, cc) {
		return false
	}
	s.setControllerMap(m)
	return true
}

func (s *Synthesizer) ControllerForParameter(p amsynth.Param) (int, bool) {
	return s.ccMap.ControllerForParameter(p)
}

// ControllerMap returns a copy of the controller routing table.
func (s *Synthesizer) ControllerMap() *midi.ControllerMap { return s.ccMap.Copy() }

func (s *Synthesizer) SetControllerMap(m *midi.ControllerMap) { s.setControllerMap(m.Copy()) }

// LoadControllerMap reads a routing table file. On error the routing is not
// changed.
func (s *Synthesizer) LoadControllerMap(path string) error {
	m := s.ccMap.Copy()
	if err := m.LoadFile(path); err != nil {
		return err
	}
	s.setControllerMap(m)
	return nil
}

func (s *Synthesizer) SaveControllerMap(path string) error { return s.ccMap.SaveFile(path) }

func (s *Synthesizer) setControllerMap(m *midi.ControllerMap) {
	s.ccMap = m
	s.shared.ccMap.Store(m)
}

// LastActiveController returns the last non-reserved controller received
// and clears it.
func (s *Synthesizer) LastActiveController() (int, bool) {
	return s.player.midi.LastActiveController()
}

// ActiveVoices is the number of sounding voices after the last block.
func (s *Synthesizer) ActiveVoices() int { return int(s.shared.activeVoices.Load()) }

// AllSoundOff stops every voice at the start of the next block.
func (s *Synthesizer) AllSoundOff() {
	TrySend(s.broker.ToAudio, MsgToAudio{Kind: AudioMessageAllSoundOff})
}

// SendMIDI queues a short MIDI message to be applied at the start of the
// next block. Returns false if it was dropped.
func (s *Synthesizer) SendMIDI(data ...byte) bool {
	msg := MsgToAudio{Kind: AudioMessageMIDI}
	if len(data) > len(msg.Data) {
		return false
	}
	msg.Len = copy(msg.Data[:], data)
	return TrySend(s.broker.ToAudio, msg)
}
