package packet

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

var charset atomic.Pointer[encoding.Encoding]

func init() {
	var utf8 encoding.Encoding = unicode.UTF8
	charset.Store(&utf8)
}

// SetCharset selects the client string encoding by its WHATWG name, e.g.
// "utf-8" or "windows-1252".
func SetCharset(name string) error {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return fmt.Errorf("charset %q: %w", name, err)
	}
	charset.Store(&enc)
	return nil
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}

// decodeString converts client-charset bytes to UTF-8. ASCII passes
// through unchanged.
func decodeString(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	if isASCII(raw) {
		return string(raw)
	}
	decoded, err := (*charset.Load()).NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

// encodeString converts UTF-8 to client-charset bytes. Characters the
// charset cannot represent are replaced.
func encodeString(s string) []byte {
	if isASCII([]byte(s)) {
		return []byte(s)
	}
	enc := encoding.ReplaceUnsupported((*charset.Load()).NewEncoder())
	out, err := enc.Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}
