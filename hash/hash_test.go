package hash

import "testing"

func TestKindInference(t *testing.T) {
	md5 := "00112233445566778899aabbccddeeff"
	sha1 := "00112233445566778899aabbccddeeff00112233"
	sha256 := "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

	d, err := Parse(md5)
	if err != nil || d.Kind != MD5 {
		t.Fatalf("Parse(md5) = %v, %v, want Kind=MD5", d, err)
	}
	d, err = Parse(sha1)
	if err != nil || d.Kind != SHA1 {
		t.Fatalf("Parse(sha1) = %v, %v, want Kind=SHA1", d, err)
	}
	d, err = Parse(sha256)
	if err != nil || d.Kind != SHA256 {
		t.Fatalf("Parse(sha256) = %v, %v, want Kind=SHA256", d, err)
	}
}

func TestParseRoundTrip(t *testing.T) {
	raw := "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
	d, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := d.String(); got != raw {
		t.Fatalf("String() = %q, want %q", got, raw)
	}
}

func TestParseInvalidLength(t *testing.T) {
	if _, err := Parse("abcd"); err == nil {
		t.Fatal("expected error for unrecognized digest length")
	}
}

func TestParseInvalidHex(t *testing.T) {
	if _, err := Parse("zz"); err == nil {
		t.Fatal("expected error for non-hex input")
	}
}

func TestMinLevelForSizedHash(t *testing.T) {
	if got := MinLevelForSizedHash(MD5, true); got != 1 {
		t.Fatalf("MD5 with size: got %d, want 1", got)
	}
	if got := MinLevelForSizedHash(MD5, false); got != 73 {
		t.Fatalf("MD5 without size: got %d, want 73", got)
	}
	if got := MinLevelForSizedHash(SHA1, true); got != 73 {
		t.Fatalf("SHA1 with size: got %d, want 73", got)
	}
	if got := MinLevelForSizedHash(SHA256, true); got != 73 {
		t.Fatalf("SHA256 with size: got %d, want 73", got)
	}
}
