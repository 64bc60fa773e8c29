package sigparse

import (
	"testing"

	"github.com/clamsig/sigparse/sigtype"
)

func TestParseExtendedDispatch(t *testing.T) {
	raw := "Foo:0:10:6566676869"
	sig, meta, err := Parse(sigtype.Extended, []byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sig.Name() != "Foo" {
		t.Fatalf("Name() = %q, want Foo", sig.Name())
	}
	if meta.FLevel != nil {
		t.Fatalf("expected no declared flevel, got %v", meta.FLevel)
	}
	if got := sig.String(); got != raw {
		t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", got, raw)
	}
	if err := sig.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParseExtendedWithFLevelWindow(t *testing.T) {
	raw := "Foo:0:10:6566676869:80:120"
	sig, meta, err := Parse(sigtype.Extended, []byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if meta.FLevel == nil || meta.FLevel.Lo != 80 || meta.FLevel.Hi != 120 {
		t.Fatalf("unexpected declared flevel: %+v", meta.FLevel)
	}
	if got := sig.String(); got != raw {
		t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", got, raw)
	}
}

func TestParseContainerMetadataDispatch(t *testing.T) {
	raw := `Email.Trojan.Toa-1:CL_TYPE_ZIP:1337:Courrt.{1,15}\.scr$:220-221:2008:0:2010:*:99:101`
	sig, meta, err := Parse(sigtype.ContainerMetadata, []byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sig.Name() != "Email.Trojan.Toa-1" {
		t.Fatalf("Name() = %q", sig.Name())
	}
	if meta.FLevel == nil || meta.FLevel.Lo != 99 || meta.FLevel.Hi != 101 {
		t.Fatalf("unexpected declared flevel: %+v", meta.FLevel)
	}
	if got := sig.String(); got != raw {
		t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", got, raw)
	}
}

func TestParsePhishingDispatch(t *testing.T) {
	hash := "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
	raw := "S1:F:" + hash + ":92-94"
	sig, meta, err := Parse(sigtype.PhishingURL, []byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sig.Name() != "Phishing.URL.Blocked" {
		t.Fatalf("Name() = %q, want Phishing.URL.Blocked", sig.Name())
	}
	if meta.FLevel == nil || meta.FLevel.Lo != 92 || meta.FLevel.Hi != 94 {
		t.Fatalf("unexpected declared flevel: %+v", meta.FLevel)
	}
	if got := sig.String(); got != raw {
		t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", got, raw)
	}
}

func TestParseFileHashDispatch(t *testing.T) {
	raw := "00112233445566778899aabbccddeeff:1337:Trojan.Foo-1"
	sig, _, err := Parse(sigtype.FileHash, []byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sig.Name() != "Trojan.Foo-1" {
		t.Fatalf("Name() = %q", sig.Name())
	}
	if got := sig.String(); got != raw {
		t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", got, raw)
	}
	if err := sig.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParsePESectionHashDispatch(t *testing.T) {
	raw := "4096:00112233445566778899aabbccddeeff:PE.Section.Foo-1"
	sig, _, err := Parse(sigtype.PESectionHash, []byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sig.Name() != "PE.Section.Foo-1" {
		t.Fatalf("Name() = %q", sig.Name())
	}
	if got := sig.String(); got != raw {
		t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", got, raw)
	}
}

func TestParseExtensionDispatchesByExtension(t *testing.T) {
	raw := "Foo:0:10:6566676869"
	sig, _, err := ParseExtension("ndb", []byte(raw))
	if err != nil {
		t.Fatalf("ParseExtension: %v", err)
	}
	if sig.Name() != "Foo" {
		t.Fatalf("Name() = %q, want Foo", sig.Name())
	}
}

func TestParseExtensionUnsupportedDialect(t *testing.T) {
	if _, _, err := ParseExtension("cbc", []byte("whatever")); err == nil {
		t.Fatal("expected UnsupportedSigTypeError for .cbc")
	} else if _, ok := err.(*UnsupportedSigTypeError); !ok {
		t.Fatalf("expected *UnsupportedSigTypeError, got %T: %v", err, err)
	}
}

func TestParseExtensionUnknownExtension(t *testing.T) {
	if _, _, err := ParseExtension("xyz", []byte("whatever")); err == nil {
		t.Fatal("expected error for unrecognized extension")
	}
}

func TestParseFTMagic(t *testing.T) {
	raw := "0:6:4d5a:MSEXE-1:CL_TYPE_MSEXE:CL_TYPE_MSEXE:80:120"
	sig, meta, err := ParseFTMagic([]byte(raw))
	if err != nil {
		t.Fatalf("ParseFTMagic: %v", err)
	}
	if sig.Name() != "MSEXE-1" {
		t.Fatalf("Name() = %q", sig.Name())
	}
	if meta.FLevel == nil || meta.FLevel.Lo != 80 || meta.FLevel.Hi != 120 {
		t.Fatalf("unexpected declared flevel: %+v", meta.FLevel)
	}
	if got := sig.String(); got != raw {
		t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", got, raw)
	}
}

func TestValidateReportsTooLowDeclaredFLevel(t *testing.T) {
	// A bare body signature exercises no named feature, so it computes a
	// zero minimum; exercise the too-low-window path through a dialect
	// that computes a nonzero minimum instead: a container metadata
	// signature always requires ContentMetadataSig support,
	// independent of its declared window.
	raw := `Foo:*:*:*:*:*:*:*:*:1`
	sig, _, err := Parse(sigtype.ContainerMetadata, []byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := sig.Validate(); err == nil {
		t.Fatal("expected validation failure for a feature-level window below the computed minimum")
	}
}

func TestParseMalformedLine(t *testing.T) {
	if _, _, err := Parse(sigtype.Extended, []byte("")); err == nil {
		t.Fatal("expected a ParseError for an empty line")
	} else if _, ok := err.(*ParseError); !ok {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
}
