package amsynth

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/youpy/go-wav"
)

// WriteWav encodes the interleaved stereo buffer as 16-bit PCM wave data.
func WriteWav(w io.Writer, buffer AudioBuffer, sampleRate int) error {
	frames := buffer.Frames()
	samples := make([]wav.Sample, frames)
	for i := range samples {
		samples[i].Values[0] = toPCM16(buffer[2*i])
		samples[i].Values[1] = toPCM16(buffer[2*i+1])
	}
	writer := wav.NewWriter(w, uint32(frames), 2, uint32(sampleRate), 16)
	if err := writer.WriteSamples(samples); err != nil {
		return fmt.Errorf("could not write wav samples: %w", err)
	}
	return nil
}

func Wav(buffer AudioBuffer, sampleRate int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := WriteWav(buf, buffer, sampleRate); err != nil {
		return nil, fmt.Errorf("Wav failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Raw returns the buffer as little-endian samples, either int16 or float32.
func Raw(buffer AudioBuffer, pcm16 bool) ([]byte, error) {
	buf := new(bytes.Buffer)
	var err error
	if pcm16 {
		int16data := make([]int16, len(buffer))
		for i, v := range buffer {
			int16data[i] = int16(toPCM16(v))
		}
		err = binary.Write(buf, binary.LittleEndian, int16data)
	} else {
		err = binary.Write(buf, binary.LittleEndian, []float32(buffer))
	}
	if err != nil {
		return nil, fmt.Errorf("Raw failed: %w", err)
	}
	return buf.Bytes(), nil
}

func toPCM16(v float32) int {
	return clamp(int(v*math.MaxInt16), math.MinInt16, math.MaxInt16)
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
