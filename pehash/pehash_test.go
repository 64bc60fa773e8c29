package pehash

import "testing"

const sampleSized = "4096:00112233445566778899aabbccddeeff:PE.Section.Foo-1"
const sampleUnsized = "*:00112233445566778899aabbccddeeff00112233:PE.Section.Bar-2"

func TestParseRoundTrip(t *testing.T) {
	for _, raw := range []string{sampleSized, sampleUnsized} {
		sig, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q): %v", raw, err)
		}
		if got := sig.String(); got != raw {
			t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", got, raw)
		}
	}
}

func TestComputedMinLevel(t *testing.T) {
	sig, err := Parse(sampleSized)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := sig.Features().MinLevel(); got != 1 {
		t.Fatalf("MD5 with size: got min level %d, want 1", got)
	}

	sig, err = Parse(sampleUnsized)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := sig.Features().MinLevel(); got != 73 {
		t.Fatalf("SHA1 without size: got min level %d, want 73", got)
	}
}

func TestInvalidDigest(t *testing.T) {
	if _, err := Parse("4096:zz:name"); err == nil {
		t.Fatal("expected error for invalid hex digest")
	}
}
