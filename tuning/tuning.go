// Package tuning maps MIDI note numbers to pitches with a key map and a
// scale, as described by Scala .kbm and .scl files.
package tuning

import "math"

const NumNotes = 128

// Map converts note numbers to pitch in Hz. The key map converts a note to
// a scale degree, the scale converts a degree to a ratio to the base pitch.
// The key map repeats every len(mapping) notes, advancing mapRepeatInc
// degrees on each repeat.
type Map struct {
	description string
	scale       []float64 // ratios of degrees 1..n, the last is the period

	zeroNote     int
	refNote      int
	refPitch     float64
	mapRepeatInc int
	mapping      []int // scale degree of each key, -1 if unmapped
	active       [NumNotes]bool

	basePitch float64
}

// New returns the standard 12-tone equal temperament with A4 = 440 Hz.
func New() *Map {
	m := &Map{}
	m.setDefaultScale()
	m.setDefaultKeyMap()
	m.updateBasePitch()
	return m
}

func (m *Map) Copy() *Map {
	ret := *m
	ret.scale = append([]float64(nil), m.scale...)
	ret.mapping = append([]int(nil), m.mapping...)
	return &ret
}

func (m *Map) Description() string { return m.description }
func (m *Map) ScaleSize() int      { return len(m.scale) }

// ResetScale restores the 12-tone equal tempered scale.
func (m *Map) ResetScale() {
	m.setDefaultScale()
	m.updateBasePitch()
}

// ResetKeyMap restores the linear key map with note 69 at 440 Hz.
func (m *Map) ResetKeyMap() {
	m.setDefaultKeyMap()
	m.updateBasePitch()
}

func (m *Map) setDefaultScale() {
	m.description = "12-tone equal temperament"
	m.scale = make([]float64, 12)
	for i := range m.scale {
		m.scale[i] = math.Pow(2, float64(i+1)/12)
	}
}

func (m *Map) setDefaultKeyMap() {
	m.zeroNote = 0
	m.refNote = 69
	m.refPitch = 440
	m.mapRepeatInc = 1
	m.mapping = []int{0}
	for i := range m.active {
		m.active[i] = true
	}
}

// IsActive reports if notes with this number should be played at all.
func (m *Map) IsActive(note int) bool {
	return note >= 0 && note < NumNotes && m.active[note]
}

// NoteToPitch returns the pitch of the note in Hz. An unmapped key sounds
// the nearest mapped key below it. The reference note is exactly the
// reference pitch.
func (m *Map) NoteToPitch(note int) float64 {
	if note == m.refNote {
		return m.refPitch
	}
	return m.basePitch * m.ratio(note)
}

// ratio is the pitch of the note relative to degree 0 of the key map.
func (m *Map) ratio(note int) float64 {
	mapSize := len(m.mapping)
	repeats, index := floorDivMod(note-m.zeroNote, mapSize)
	for i := 0; m.mapping[index] < 0 && i < mapSize; i++ {
		if index--; index < 0 {
			index += mapSize
			repeats--
		}
	}
	degree := repeats*m.mapRepeatInc + m.mapping[index]
	scaleSize := len(m.scale)
	periods, step := floorDivMod(degree, scaleSize)
	r := math.Pow(m.scale[scaleSize-1], float64(periods))
	if step > 0 {
		r *= m.scale[step-1]
	}
	return r
}

func (m *Map) updateBasePitch() {
	m.basePitch = m.refPitch / m.ratio(m.refNote)
}

func floorDivMod(a, b int) (int, int) {
	q, r := a/b, a%b
	if r < 0 {
		q--
		r += b
	}
	return q, r
}
