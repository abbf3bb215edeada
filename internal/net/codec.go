package net

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single frame body (header + payload).
const MaxFrameSize = 1 << 16

// ReadFrame reads one frame from r.
// Wire format: [4 bytes BE: body length][2 bytes BE: message header][payload].
// Returns the body, i.e. the 2-byte header followed by the payload.
func ReadFrame(r io.Reader) ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, fmt.Errorf("read frame length: %w", err)
	}

	bodyLen := int(binary.BigEndian.Uint32(prefix[:]))
	if bodyLen < 2 || bodyLen > MaxFrameSize {
		return nil, fmt.Errorf("invalid frame length: %d", bodyLen)
	}

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read frame body (%d bytes): %w", bodyLen, err)
	}
	return body, nil
}

// WriteFrame writes body (header + payload) as one length-prefixed frame.
func WriteFrame(w io.Writer, body []byte) error {
	if len(body) < 2 || len(body) > MaxFrameSize {
		return fmt.Errorf("invalid frame length: %d", len(body))
	}
	buf := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(body)))
	copy(buf[4:], body)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
