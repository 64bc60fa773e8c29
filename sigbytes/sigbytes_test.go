package sigbytes

import "testing"

func TestSigCharDisplay(t *testing.T) {
	if got := SigChar('x').String(); got != "'x'" {
		t.Fatalf("got %q", got)
	}
	if got := SigChar(0x80).String(); got != "<|80|>" {
		t.Fatalf("got %q", got)
	}
}

func TestSigBytesValid(t *testing.T) {
	sb := FromString("how now brown cow")
	if got := sb.String(); got != "how now brown cow" {
		t.Fatalf("got %q", got)
	}
}

func TestSigBytesInvalidShortEnd(t *testing.T) {
	sb := FromBytes([]byte("how now brown cow\x80"))
	if got := sb.String(); got != "how now brown cow<|80|>" {
		t.Fatalf("got %q", got)
	}
}

func TestSigBytesInvalidLongEnd(t *testing.T) {
	sb := FromBytes([]byte("how now brown cow\xa0\xa1"))
	if got := sb.String(); got != "how now brown cow<|a0|><|a1|>" {
		t.Fatalf("got %q", got)
	}
}

func TestSigBytesInvalidLongIntermediate(t *testing.T) {
	sb := FromBytes([]byte("how now\xa0\xa1brown cow"))
	if got := sb.String(); got != "how now<|a0|><|a1|>brown cow" {
		t.Fatalf("got %q", got)
	}
}

func TestDisplaySafetyForArbitraryBytes(t *testing.T) {
	for i := 0; i < 256; i++ {
		sb := FromBytes([]byte{byte(i), byte(i), byte(i)})
		_ = sb.String() // must not panic; the test asserts that via survival
	}
}

func TestSigBytesInvalidSpanGrouped(t *testing.T) {
	// e0 bf is a well-formed two-byte prefix of a three-byte sequence;
	// the 'c' that follows breaks it, so the whole span escapes as one
	// group rather than one wrapper per byte.
	sb := FromBytes([]byte("ab\xe0\xbfcd"))
	if got := sb.String(); got != "ab<|e0bf|>cd" {
		t.Fatalf("got %q", got)
	}
}

func TestSigBytesIncompleteTrailingSequenceDropped(t *testing.T) {
	// e0 a0 is a truncated prefix of a valid three-byte sequence; cut
	// off by end of input it is dropped, not escaped.
	sb := FromBytes([]byte("ab\xe0\xa0"))
	if got := sb.String(); got != "ab" {
		t.Fatalf("got %q", got)
	}
}
