package tuning

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

var (
	ErrInvalidScale  = errors.New("invalid scale")
	ErrInvalidKeyMap = errors.New("invalid key map")
)

// LoadScaleFile reads a Scala .scl file. On error the map is not modified.
func (m *Map) LoadScaleFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open scale: %w", err)
	}
	defer f.Close()
	if err := m.LoadScale(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadScale reads a scale in the Scala .scl format: a description line, the
// number of degrees, then one pitch per line either in cents (containing a
// period) or as a ratio.
func (m *Map) LoadScale(r io.Reader) error {
	var (
		desc    string
		gotDesc bool
		size    = -1
		scale   []float64
		lineNum int
	)
	s := bufio.NewScanner(r)
	for s.Scan() {
		lineNum++
		line := strings.TrimSpace(s.Text())
		if strings.HasPrefix(line, "!") {
			continue
		}
		if !gotDesc {
			desc, gotDesc = line, true
			continue
		}
		if line == "" {
			continue
		}
		if size < 0 {
			n, err := strconv.Atoi(strings.Fields(line)[0])
			if err != nil || n < 1 {
				return fmt.Errorf("%w: line %d: bad number of notes %q", ErrInvalidScale, lineNum, line)
			}
			size = n
			continue
		}
		ratio, err := parseScalaPitch(line)
		if err != nil {
			return fmt.Errorf("%w: line %d: %w", ErrInvalidScale, lineNum, err)
		}
		scale = append(scale, ratio)
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("could not read scale: %w", err)
	}
	if !gotDesc || size < 0 {
		return fmt.Errorf("%w: missing header", ErrInvalidScale)
	}
	if len(scale) != size {
		return fmt.Errorf("%w: expected %d notes, got %d", ErrInvalidScale, size, len(scale))
	}
	m.description = desc
	m.scale = scale
	m.updateBasePitch()
	return nil
}

func parseScalaPitch(line string) (float64, error) {
	field := strings.Fields(line)[0]
	if strings.Contains(field, ".") {
		cents, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return 0, fmt.Errorf("bad cents value %q", field)
		}
		return math.Exp2(cents / 1200), nil
	}
	num, den, found := strings.Cut(field, "/")
	if !found {
		den = "1"
	}
	n, err1 := strconv.ParseInt(num, 10, 64)
	d, err2 := strconv.ParseInt(den, 10, 64)
	if err1 != nil || err2 != nil || n <= 0 || d <= 0 {
		return 0, fmt.Errorf("bad ratio %q", field)
	}
	return float64(n) / float64(d), nil
}

// LoadKeyMapFile reads a Scala .kbm file. On error the map is not modified.
func (m *Map) LoadKeyMapFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open key map: %w", err)
	}
	defer f.Close()
	if err := m.LoadKeyMap(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadKeyMap reads a key map in the Scala .kbm format. Lines of the form
// "< min max" declare the ranges of notes that are played; without them
// every note is played. A map size of zero means a linear mapping, "x"
// marks an unmapped key.
func (m *Map) LoadKeyMap(r io.Reader) error {
	header := [...]int{-1, -1, -1, -1, -1} // size, first, last, zero, ref
	refPitch := -1.0
	repeatInc := -1
	var (
		mapping       []int
		active        [NumNotes]bool
		rangeDeclared bool
		lineNum       int
	)
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: line %d: %s", ErrInvalidKeyMap, lineNum, fmt.Sprintf(format, args...))
	}
	s := bufio.NewScanner(r)
	for s.Scan() {
		lineNum++
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "!") {
			continue
		}
		fields := strings.Fields(line)
		if strings.HasPrefix(line, "<") {
			if len(fields) < 3 {
				return fail("bad range %q", line)
			}
			lo, err1 := strconv.Atoi(fields[1])
			hi, err2 := strconv.Atoi(fields[2])
			if err1 != nil || err2 != nil || lo < 0 || hi >= NumNotes || lo > hi {
				return fail("bad range %q", line)
			}
			for i := lo; i <= hi; i++ {
				active[i] = true
			}
			rangeDeclared = true
			continue
		}
		if i := nextUnset(header[:]); i >= 0 {
			n, err := strconv.Atoi(fields[0])
			if err != nil || n < 0 || (i > 0 && n >= NumNotes) {
				return fail("bad value %q", line)
			}
			header[i] = n
			continue
		}
		if refPitch <= 0 {
			f, err := strconv.ParseFloat(fields[0], 64)
			if err != nil || f <= 0 {
				return fail("bad reference frequency %q", line)
			}
			refPitch = f
			continue
		}
		if repeatInc < 0 {
			n, err := strconv.Atoi(fields[0])
			if err != nil || n < 0 {
				return fail("bad repeat increment %q", line)
			}
			repeatInc = n
			continue
		}
		if strings.EqualFold(fields[0], "x") {
			mapping = append(mapping, -1)
			continue
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil || n < 0 {
			return fail("bad mapping entry %q", line)
		}
		mapping = append(mapping, n)
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("could not read key map: %w", err)
	}
	if repeatInc < 0 {
		return fmt.Errorf("%w: incomplete header", ErrInvalidKeyMap)
	}
	mapSize, zeroNote, refNote := header[0], header[3], header[4]
	if mapSize == 0 {
		if len(mapping) > 0 {
			return fmt.Errorf("%w: linear map with mapping entries", ErrInvalidKeyMap)
		}
		mapping = []int{0}
		repeatInc = 1
	} else {
		// extra entries are tolerated, missing ones are unmapped
		for len(mapping) < mapSize {
			mapping = append(mapping, -1)
		}
		mapping = mapping[:mapSize]
		if _, i := floorDivMod(refNote-zeroNote, mapSize); mapping[i] < 0 {
			return fmt.Errorf("%w: reference note %d is not mapped", ErrInvalidKeyMap, refNote)
		}
		if repeatInc == 0 {
			repeatInc = mapSize
		}
	}
	if !rangeDeclared {
		for i := range active {
			active[i] = true
		}
	}
	m.zeroNote = zeroNote
	m.refNote = refNote
	m.refPitch = refPitch
	m.mapRepeatInc = repeatInc
	m.mapping = mapping
	m.active = active
	m.updateBasePitch()
	return nil
}

func nextUnset(values []int) int {
	for i, v := range values {
		if v < 0 {
			return i
		}
	}
	return -1
}
