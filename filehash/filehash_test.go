package filehash

import "testing"

const sampleMD5 = "00112233445566778899aabbccddeeff:1337:Trojan.Foo-1"
const sampleSHA256NoSize = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff:*:Trojan.Bar-2"

func TestParseRoundTrip(t *testing.T) {
	for _, raw := range []string{sampleMD5, sampleSHA256NoSize} {
		sig, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q): %v", raw, err)
		}
		if got := sig.String(); got != raw {
			t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", got, raw)
		}
	}
}

func TestSizePresence(t *testing.T) {
	sig, err := Parse(sampleMD5)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !sig.HasSize || sig.Size != 1337 {
		t.Fatalf("unexpected size: %+v", sig)
	}

	sig, err = Parse(sampleSHA256NoSize)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sig.HasSize {
		t.Fatalf("expected no size, got %+v", sig)
	}
}

func TestComputedMinLevel(t *testing.T) {
	sig, err := Parse(sampleMD5)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := sig.Features().MinLevel(); got != 1 {
		t.Fatalf("MD5 with size: got min level %d, want 1", got)
	}

	sig, err = Parse(sampleSHA256NoSize)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := sig.Features().MinLevel(); got != 73 {
		t.Fatalf("SHA256 without size: got min level %d, want 73", got)
	}
}

func TestMissingName(t *testing.T) {
	if _, err := Parse("00112233445566778899aabbccddeeff:1337:"); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestWrongFieldCount(t *testing.T) {
	if _, err := Parse("00112233445566778899aabbccddeeff:1337"); err == nil {
		t.Fatal("expected error for missing field")
	}
}
