package oto

import (
	"encoding/binary"
	"math"
)

// FloatBufferToLE appends the samples as little-endian float32, clamped to
// [-1, 1], to dst.
func FloatBufferToLE(buff []float32, dst []byte) []byte {
	for _, v := range buff {
		v = min(max(v, -1), 1)
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}
