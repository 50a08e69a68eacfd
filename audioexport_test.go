package amsynth_test

import (
	"bytes"
	"testing"

	"github.com/amsynth/amsynth-sub001"
	"github.com/youpy/go-wav"
)

func TestWavRoundTrip(t *testing.T) {
	buffer := amsynth.AudioBuffer{0, 0, 0.5, -0.5, 1, -1, 2, -2}
	data, err := amsynth.Wav(buffer, 48000)
	if err != nil {
		t.Fatalf("Wav failed: %v", err)
	}
	r := wav.NewReader(bytes.NewReader(data))
	format, err := r.Format()
	if err != nil {
		t.Fatalf("could not read the format: %v", err)
	}
	if format.SampleRate != 48000 || format.NumChannels != 2 || format.BitsPerSample != 16 {
		t.Fatalf("unexpected format %+v", format)
	}
	samples, err := r.ReadSamples(4)
	if err != nil {
		t.Fatalf("could not read samples: %v", err)
	}
	want := [][2]int{{0, 0}, {16383, -16383}, {32767, -32767}, {32767, -32768}}
	if len(samples) != len(want) {
		t.Fatalf("got %d samples, want %d", len(samples), len(want))
	}
	for i, s := range samples {
		if s.Values != want[i] {
			t.Errorf("sample %d is %v, want %v", i, s.Values, want[i])
		}
	}
}

func TestRawLength(t *testing.T) {
	buffer := make(amsynth.AudioBuffer, 10)
	for _, tt := range []struct {
		pcm16 bool
		want  int
	}{{true, 20}, {false, 40}} {
		data, err := amsynth.Raw(buffer, tt.pcm16)
		if err != nil {
			t.Fatalf("Raw failed: %v", err)
		}
		if len(data) != tt.want {
			t.Errorf("Raw(pcm16=%v) gave %d bytes, want %d", tt.pcm16, len(data), tt.want)
		}
	}
}
