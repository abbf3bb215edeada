package packet

import (
	"encoding/binary"
)

// Reader reads fields from a frame body. Bytes 0-1 are always the
// big-endian message header. Short reads yield zero values.
type Reader struct {
	data []byte
	off  int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data, off: 2} // skip header
}

func (r *Reader) Header() uint16 {
	if len(r.data) < 2 {
		return 0
	}
	return binary.BigEndian.Uint16(r.data)
}

// ReadC reads 1 unsigned byte.
func (r *Reader) ReadC() byte {
	if r.off >= len(r.data) {
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

// ReadBool reads one byte as a boolean.
func (r *Reader) ReadBool() bool {
	return r.ReadC() != 0
}

// ReadH reads 2 bytes as big-endian uint16.
func (r *Reader) ReadH() uint16 {
	if r.off+2 > len(r.data) {
		r.off = len(r.data)
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

// ReadD reads 4 bytes as big-endian int32.
func (r *Reader) ReadD() int32 {
	if r.off+4 > len(r.data) {
		r.off = len(r.data)
		return 0
	}
	v := int32(binary.BigEndian.Uint32(r.data[r.off:]))
	r.off += 4
	return v
}

// ReadQ reads 8 bytes as big-endian int64.
func (r *Reader) ReadQ() int64 {
	if r.off+8 > len(r.data) {
		r.off = len(r.data)
		return 0
	}
	v := int64(binary.BigEndian.Uint64(r.data[r.off:]))
	r.off += 8
	return v
}

// ReadS reads a uint16 length-prefixed string in the client charset and
// returns UTF-8. A truncated string returns what is present.
func (r *Reader) ReadS() string {
	n := int(r.ReadH())
	if r.off+n > len(r.data) {
		n = len(r.data) - r.off
	}
	raw := r.data[r.off : r.off+n]
	r.off += n
	return decodeString(raw)
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}
