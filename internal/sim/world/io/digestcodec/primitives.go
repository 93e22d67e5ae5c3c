// Package digestcodec holds the fixed-width encodings state digests are built
// from. Every value is written little-endian in 8 bytes so digests are stable
// across platforms.
package digestcodec

import (
	"encoding/binary"
	"math"
)

type Writer interface {
	Write(p []byte) (n int, err error)
}

func WriteU64(w Writer, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.Write(tmp[:])
}

func WriteI64(w Writer, tmp *[8]byte, v int64) {
	WriteU64(w, tmp, uint64(v))
}

// WriteF64 writes the IEEE bits, so -0 and +0 differ.
func WriteF64(w Writer, tmp *[8]byte, v float64) {
	WriteU64(w, tmp, math.Float64bits(v))
}

// Length-prefixed so adjacent strings cannot alias.
func WriteString(w Writer, tmp *[8]byte, s string) {
	WriteU64(w, tmp, uint64(len(s)))
	w.Write([]byte(s))
}

func WriteBools(w Writer, vs ...bool) {
	b := make([]byte, len(vs))
	for i, v := range vs {
		b[i] = BoolByte(v)
	}
	w.Write(b)
}

func BoolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
