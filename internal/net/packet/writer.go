package packet

import (
	"encoding/binary"
	"math"
)

// Writer builds an outgoing frame body. All multi-byte writes are
// big-endian.
type Writer struct {
	buf []byte
}

// NewWriter starts a frame body with the given message header.
func NewWriter(header uint16) *Writer {
	w := &Writer{buf: make([]byte, 0, 64)}
	w.WriteH(header)
	return w
}

// WriteC writes 1 byte.
func (w *Writer) WriteC(v byte) {
	w.buf = append(w.buf, v)
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteC(1)
		return
	}
	w.WriteC(0)
}

// WriteH writes 2 bytes big-endian.
func (w *Writer) WriteH(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

// WriteD writes 4 bytes big-endian.
func (w *Writer) WriteD(v int32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v))
}

// WriteQ writes 8 bytes big-endian.
func (w *Writer) WriteQ(v int64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(v))
}

// WriteF writes a height as fixed-point hundredths in 4 bytes.
func (w *Writer) WriteF(v float64) {
	w.WriteD(int32(math.Round(v * 100)))
}

// WriteS writes a uint16 length-prefixed string in the client charset.
// Strings longer than the prefix allows are truncated.
func (w *Writer) WriteS(s string) {
	b := encodeString(s)
	if len(b) > math.MaxUint16 {
		b = b[:math.MaxUint16]
	}
	w.WriteH(uint16(len(b)))
	w.buf = append(w.buf, b...)
}

// WriteBytes writes raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// Bytes returns the frame body.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the current body length.
func (w *Writer) Len() int {
	return len(w.buf)
}
