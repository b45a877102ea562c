package protocol

import (
	"encoding/binary"
	"math"
)

// Float32BE reinterprets four big-endian bytes as an IEEE-754 single.
// The bit pattern is kept as is; only the byte order changes.
func Float32BE(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}

// PutFloat32BE writes v into b[0:4] in big-endian order.
func PutFloat32BE(b []byte, v float32) {
	binary.BigEndian.PutUint32(b, math.Float32bits(v))
}
