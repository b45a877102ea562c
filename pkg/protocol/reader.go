package protocol

import (
	"errors"
	"fmt"
)

// ErrOutOfRange reports a read past the end of a packet.
var ErrOutOfRange = errors.New("read out of range")

// Reader is a bounds-checked view over a device packet.
type Reader struct {
	buf []byte
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) Len() int {
	return len(r.buf)
}

// Has reports whether n bytes are readable at off.
func (r *Reader) Has(off, n int) bool {
	return off >= 0 && n >= 0 && off+n <= len(r.buf)
}

// Float32At decodes the big-endian float stored at off.
func (r *Reader) Float32At(off int) (float32, error) {
	if !r.Has(off, 4) {
		return 0, fmt.Errorf("float32 at offset %d of %d-byte packet: %w", off, len(r.buf), ErrOutOfRange)
	}
	return Float32BE(r.buf[off : off+4]), nil
}
