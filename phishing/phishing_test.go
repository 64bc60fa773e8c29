package phishing

import "testing"

const sha256Hex = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

func TestGSBBlock1RoundTrip(t *testing.T) {
	hash := sha256Hex
	raw := "S1:F:" + hash + ":92-94"
	sig, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sig.Kind != KindGSB || sig.GSBSel != GSBBlock1 || sig.PredicateKind != GSBFullHash {
		t.Fatalf("unexpected classification: %+v", sig)
	}
	if sig.Name() != "Phishing.URL.Blocked" {
		t.Fatalf("Name() = %q, want Phishing.URL.Blocked", sig.Name())
	}
	if sig.FLevel == nil || sig.FLevel.Lo != 92 || sig.FLevel.Hi != 94 {
		t.Fatalf("unexpected flevel: %+v", sig.FLevel)
	}
	if got := sig.String(); got != raw {
		t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", got, raw)
	}
}

func TestGSBPlainBareMinFLevel(t *testing.T) {
	raw := "S:P:00112233:10"
	sig, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sig.Name() != "?" {
		t.Fatalf("Name() = %q, want ?", sig.Name())
	}
	if sig.FLevel == nil || sig.FLevel.Lo != 10 {
		t.Fatalf("unexpected flevel: %+v", sig.FLevel)
	}
	if got := sig.String(); got != raw {
		t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", got, raw)
	}
}

func TestGSBAllowListOnlyValidWithBareS(t *testing.T) {
	hash := sha256Hex
	if _, err := Parse("S1:W:" + hash); err == nil {
		t.Fatal("expected error: W predicate only valid with bare S")
	}
	if _, err := Parse("S:W:" + hash); err != nil {
		t.Fatalf("Parse: %v", err)
	}
}

func TestGSBHostPrefixWrongLength(t *testing.T) {
	if _, err := Parse("S:P:00112233445566778899"); err == nil {
		t.Fatal("expected error for wrong-length host-prefix hash")
	}
}

func TestBlockRegexPairRoundTrip(t *testing.T) {
	raw := `Rfoo:example\.com$:example\.net$`
	sig, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sig.Kind != KindBlockRegexPair || sig.Filter != "foo" {
		t.Fatalf("unexpected classification: %+v", sig)
	}
	if got := sig.String(); got != raw {
		t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", got, raw)
	}
}

func TestBlockRegexPairInvalidSyntax(t *testing.T) {
	if _, err := Parse("R:(unterminated:example\\.net$"); err == nil {
		t.Fatal("expected error for invalid regex syntax")
	}
}

func TestDisplayedHostnameRoundTrip(t *testing.T) {
	raw := "Hfoo:evil.example.com"
	sig, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sig.Kind != KindBlockDisplayedHostname || sig.DisplayedHostname != "evil.example.com" {
		t.Fatalf("unexpected classification: %+v", sig)
	}
	if got := sig.String(); got != raw {
		t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", got, raw)
	}
}

func TestAllowRegexPairRoundTrip(t *testing.T) {
	raw := `X:good\.example\.com$:good\.example\.com$`
	sig, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sig.Kind != KindAllowRegexPair {
		t.Fatalf("unexpected classification: %+v", sig)
	}
	if got := sig.String(); got != raw {
		t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", got, raw)
	}
}

func TestAllowHostnamePairRoundTrip(t *testing.T) {
	raw := "M:real.example.com:displayed.example.com"
	sig, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sig.Kind != KindAllowHostnamePair || sig.RealHostname != "real.example.com" {
		t.Fatalf("unexpected classification: %+v", sig)
	}
	if got := sig.String(); got != raw {
		t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", got, raw)
	}
}

func TestUnrecognizedSelector(t *testing.T) {
	if _, err := Parse("Z:foo:bar"); err == nil {
		t.Fatal("expected error for unrecognized selector")
	}
}
