package containermetadata

import "testing"

const sampleS11 = `Email.Trojan.Toa-1:CL_TYPE_ZIP:1337:Courrt.{1,15}\.scr$:220-221:2008:0:2010:*:99:101`

func TestParseRoundTrip(t *testing.T) {
	sig, err := Parse(sampleS11)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := sig.String(); got != sampleS11 {
		t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", got, sampleS11)
	}
}

func TestFLevelWindow(t *testing.T) {
	sig, err := Parse(sampleS11)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sig.FLevel == nil || sig.FLevel.Min != 99 || !sig.FLevel.HasMax || sig.FLevel.Max != 101 {
		t.Fatalf("unexpected flevel window: %+v", sig.FLevel)
	}
}

func TestAllWildcardFields(t *testing.T) {
	// Every field wildcarded; String() always emits a trailing colon
	// after Res1 to preserve the never-parsed Res2 field's place.
	raw := "Foo:*:*:*:*:*:*:*:*:"
	sig, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sig.ContainerType != nil || sig.ContainerSize != nil || sig.FileNameRegex != nil ||
		sig.FileSizeInCont != nil || sig.FileSizeReal != nil || sig.IsEncrypted != nil ||
		sig.FilePos != nil || sig.Res1 != nil {
		t.Fatalf("expected every field nil, got %+v", sig)
	}
	if got := sig.String(); got != raw {
		t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", got, raw)
	}
}

func TestEscapedColonInRegex(t *testing.T) {
	raw := `Foo:*:*:a\:b:*:*:*:*:*:`
	sig, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sig.FileNameRegex == nil || *sig.FileNameRegex != "a:b" {
		t.Fatalf("unexpected regex field: %+v", sig.FileNameRegex)
	}
	if got := sig.String(); got != raw {
		t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", got, raw)
	}
}

func TestMissingFields(t *testing.T) {
	if _, err := Parse("Foo:*:*:*"); err == nil {
		t.Fatal("expected error for too few fields")
	}
}

func TestUnknownContainerType(t *testing.T) {
	if _, err := Parse("Foo:NOT_A_TYPE:*:*:*:*:*:*:*:"); err == nil {
		t.Fatal("expected error for unknown container type")
	}
}
