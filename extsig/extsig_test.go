package extsig

import "testing"

const sampleSig = "AllTheStuff-1:1:EP+78,45:de1e7e*facade??(c0|ff|ee)decafe[5-9]00{3-4}d1d2{9-}7e8e{-5}!(0f|f1|ce)(B)(L)a??bccdd"

func TestParseAndSerializeRoundTrip(t *testing.T) {
	sig, window, err := Parse(sampleSig)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if window != nil {
		t.Fatalf("expected no flevel window, got %v", window)
	}
	if got := sig.String(); got != sampleSig {
		t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", got, sampleSig)
	}
}

func TestParseFLevelWindow(t *testing.T) {
	raw := sampleSig + ":99:101"
	sig, window, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if window == nil || window.Min != 99 || !window.HasMax || window.Max != 101 {
		t.Fatalf("unexpected window: %+v", window)
	}
	if got := sig.String(); got != sampleSig {
		t.Fatalf("structural round trip mismatch:\n got: %s\nwant: %s", got, sampleSig)
	}
}

func TestOffsetForms(t *testing.T) {
	cases := []string{"*", "123", "EOF-10", "EP+5", "EP-5", "S2+16", "SE3", "SL+8", "VI", "100,20"}
	for _, c := range cases {
		off, err := ParseOffset(c)
		if err != nil {
			t.Fatalf("ParseOffset(%q): %v", c, err)
		}
		if got := off.String(); got != c {
			t.Errorf("ParseOffset(%q).String() = %q, want %q", c, got, c)
		}
	}
}

func TestMissingTargetType(t *testing.T) {
	if _, _, err := Parse("name"); err == nil {
		t.Fatal("expected error for missing target type")
	}
}

func TestAbsentBodyRendersStar(t *testing.T) {
	sig, _, err := Parse("noop:0:*:*")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sig.BodySig != nil {
		t.Fatalf("expected nil body signature")
	}
	if got, want := sig.String(), "noop:0:*:*"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestRejectsExtraTrailingFields(t *testing.T) {
	if _, _, err := Parse("Foo:0:*:aabb:80:120:999"); err == nil {
		t.Fatal("expected error for extra trailing fields")
	}
}
