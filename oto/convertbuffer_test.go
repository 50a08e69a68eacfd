package oto_test

import (
	"bytes"
	"testing"

	"github.com/amsynth/amsynth-sub001/oto"
)

func TestFloatBufferToLE(t *testing.T) {
	got := oto.FloatBufferToLE([]float32{0, 1, -2, 0.5}, nil)
	want := []byte{
		0, 0, 0, 0,
		0, 0, 0x80, 0x3f,
		0, 0, 0x80, 0xbf, // clamped to -1
		0, 0, 0, 0x3f,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
	buf := make([]byte, 0, 64)
	if out := oto.FloatBufferToLE([]float32{0}, buf); &out[0] != &buf[:1][0] {
		t.Errorf("the capacity of dst was not reused")
	}
}
