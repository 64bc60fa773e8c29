package sigbytes

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// BytePrefix and ByteSuffix bracket an escaped invalid byte in Display output.
const (
	BytePrefix = "<|"
	ByteSuffix = "|>"
)

// SigBytes is an owned byte sequence drawn from (or destined for) a
// signature database line. Its String form is Unicode-safe: valid UTF-8
// runs are emitted literally, each maximal invalid subsequence is escaped
// as one "<|hh...|>" group, and a trailing sequence cut off by end of
// input is dropped, so a signature containing arbitrary binary data can
// still be logged or displayed without panicking.
type SigBytes struct {
	data []byte
}

// New returns an empty SigBytes ready for appending.
func New() *SigBytes { return &SigBytes{} }

// FromBytes copies b into a new SigBytes.
func FromBytes(b []byte) *SigBytes {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &SigBytes{data: cp}
}

// FromString copies s into a new SigBytes.
func FromString(s string) *SigBytes {
	return &SigBytes{data: []byte(s)}
}

// Bytes returns the underlying byte slice. Callers must not mutate it.
func (s *SigBytes) Bytes() []byte { return s.data }

// Len returns the number of stored bytes.
func (s *SigBytes) Len() int { return len(s.data) }

// TryReserve preallocates capacity for additional bytes, mirroring the
// allocation-aware surface of the original container; Go's allocator
// never reports this kind of failure, so it always succeeds.
func (s *SigBytes) TryReserve(additional int) error {
	if cap(s.data)-len(s.data) < additional {
		grown := make([]byte, len(s.data), len(s.data)+additional)
		copy(grown, s.data)
		s.data = grown
	}
	return nil
}

// Write implements io.Writer.
func (s *SigBytes) Write(p []byte) (int, error) {
	s.data = append(s.data, p...)
	return len(p), nil
}

// WriteByte implements io.ByteWriter.
func (s *SigBytes) WriteByte(b byte) error {
	s.data = append(s.data, b)
	return nil
}

// WriteString implements io.StringWriter.
func (s *SigBytes) WriteString(str string) (int, error) {
	s.data = append(s.data, str...)
	return len(str), nil
}

// String renders the bytes, escaping each maximal invalid UTF-8
// subsequence as a single "<|hh...|>" group. An incomplete sequence at
// end of input (a truncated prefix of a valid encoding) is dropped
// rather than escaped.
func (s *SigBytes) String() string {
	var b strings.Builder
	data := s.data
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size <= 1 {
			span, incomplete := invalidSpan(data)
			if incomplete {
				break
			}
			b.WriteString(BytePrefix)
			for _, c := range data[:span] {
				fmt.Fprintf(&b, "%02x", c)
			}
			b.WriteString(ByteSuffix)
			data = data[span:]
			continue
		}
		b.WriteRune(r)
		data = data[size:]
	}
	return b.String()
}

// invalidSpan reports the length of the invalid UTF-8 subsequence at the
// head of data: the starter byte plus however many well-formed
// continuation bytes followed before the sequence went wrong. incomplete
// is true when the bytes so far are a valid prefix truncated by end of
// input rather than an invalid sequence.
func invalidSpan(data []byte) (span int, incomplete bool) {
	b0 := data[0]
	var need int
	var okSecond func(byte) bool
	switch {
	case b0 < 0xc2 || b0 > 0xf4:
		// Continuation byte, overlong starter, or out-of-range starter.
		return 1, false
	case b0 < 0xe0:
		need, okSecond = 2, isContinuation
	case b0 < 0xf0:
		need = 3
		switch b0 {
		case 0xe0:
			okSecond = func(b byte) bool { return b >= 0xa0 && b <= 0xbf }
		case 0xed:
			okSecond = func(b byte) bool { return b >= 0x80 && b <= 0x9f }
		default:
			okSecond = isContinuation
		}
	default:
		need = 4
		switch b0 {
		case 0xf0:
			okSecond = func(b byte) bool { return b >= 0x90 && b <= 0xbf }
		case 0xf4:
			okSecond = func(b byte) bool { return b >= 0x80 && b <= 0x8f }
		default:
			okSecond = isContinuation
		}
	}
	if len(data) < 2 {
		return 0, true
	}
	if !okSecond(data[1]) {
		return 1, false
	}
	for i := 2; i < need; i++ {
		if len(data) <= i {
			return 0, true
		}
		if !isContinuation(data[i]) {
			return i, false
		}
	}
	return need, false
}

func isContinuation(b byte) bool { return b&0xc0 == 0x80 }

// Equal reports whether two SigBytes hold identical bytes.
func (s *SigBytes) Equal(o *SigBytes) bool {
	return string(s.data) == string(o.data)
}

// SigChar wraps a single byte found in a signature, for error messages.
// It displays as 'c' when c is printable ASCII, and as an escaped hex
// byte otherwise.
type SigChar byte

func (c SigChar) String() string {
	b := byte(c)
	if b >= 0x20 && b < 0x7f {
		return fmt.Sprintf("'%c'", b)
	}
	return fmt.Sprintf("%s%02x%s", BytePrefix, b, ByteSuffix)
}
