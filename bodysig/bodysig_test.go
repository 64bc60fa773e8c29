package bodysig

import "testing"

func TestParseStaticRun(t *testing.T) {
	sig, err := Parse([]byte("6566676869"), Config{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got, want := sig.String(), "6566676869"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if got, want := sig.LongestStaticRun(), 5; got != want {
		t.Fatalf("LongestStaticRun() = %d, want %d", got, want)
	}
}

func TestParseNybleWildcards(t *testing.T) {
	sig, err := Parse([]byte("65??676?8?"), Config{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got, want := sig.String(), "65??676?8?"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestParseWildcardRanges(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"6566{10}6768", "6566{10}6768"},
		{"6566{5-10}6768", "6566{5-10}6768"},
		{"6566{-10}6768", "6566{-10}6768"},
		{"6566{10-}6768", "6566{10-}6768"},
	}
	for _, c := range cases {
		sig, err := Parse([]byte(c.in), Config{})
		if err != nil {
			t.Fatalf("parse %q: %v", c.in, err)
		}
		if got := sig.String(); got != c.want {
			t.Fatalf("parse %q: String() = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseSmallExactRangeInlinesIntoString(t *testing.T) {
	sig, err := Parse([]byte("aabb{63}ccdd"), Config{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(sig.Patterns) != 1 {
		t.Fatalf("got %d elements, want 1 (inlined into a single string)", len(sig.Patterns))
	}
	if sig.Patterns[0].Kind != PatternString {
		t.Fatalf("element kind = %v, want PatternString", sig.Patterns[0].Kind)
	}
	if got, want := sig.String(), "aabb{63}ccdd"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestParseLargeExactRangeStandsAlone(t *testing.T) {
	sig, err := Parse([]byte("aabb{630}ccdd"), Config{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(sig.Patterns) != 3 {
		t.Fatalf("got %d elements, want 3", len(sig.Patterns))
	}
	if sig.Patterns[1].Kind != PatternByteRange {
		t.Fatalf("middle element kind = %v, want PatternByteRange", sig.Patterns[1].Kind)
	}
	if got, want := sig.String(), "aabb{630}ccdd"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestParseAnchoredByteLeft(t *testing.T) {
	sig, err := Parse([]byte("aa[1-2]bbcc"), Config{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(sig.Patterns) != 1 || sig.Patterns[0].Kind != PatternAnchoredByte {
		t.Fatalf("unexpected pattern sequence: %+v", sig.Patterns)
	}
	p := sig.Patterns[0]
	if p.AnchorSide != AnchorLeft || p.AnchorByte.Value != 0xAA || len(p.Bytes) != 2 {
		t.Fatalf("unexpected anchored byte: %+v", p)
	}
	if got, want := sig.String(), "aa[1-2]bbcc"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestParseAnchoredByteRight(t *testing.T) {
	sig, err := Parse([]byte("aabb[1-2]cc"), Config{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(sig.Patterns) != 1 || sig.Patterns[0].Kind != PatternAnchoredByte {
		t.Fatalf("unexpected pattern sequence: %+v", sig.Patterns)
	}
	p := sig.Patterns[0]
	if p.AnchorSide != AnchorRight || p.AnchorByte.Value != 0xCC || len(p.Bytes) != 2 {
		t.Fatalf("unexpected anchored byte: %+v", p)
	}
	if got, want := sig.String(), "aabb[1-2]cc"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestParseAnchoredByteSingleValueBracket(t *testing.T) {
	sig, err := Parse([]byte("aa[3]bbcc"), Config{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	p := sig.Patterns[0]
	if p.AnchorRange.Lo != 3 || p.AnchorRange.Hi != 3 {
		t.Fatalf("AnchorRange = %+v, want [3-3]", p.AnchorRange)
	}
}

func TestParseAnchoredByteRejectsTooSmallString(t *testing.T) {
	if _, err := Parse([]byte("aa[1-2]bb"), Config{}); err == nil {
		t.Fatalf("expected error: anchor string side has only one byte")
	}
}

func TestParseAnchoredByteRejectsOutOfRangeBounds(t *testing.T) {
	if _, err := Parse([]byte("aa[0-5]bbcc"), Config{}); err == nil {
		t.Fatalf("expected error: lower bound 0 is below the minimum of 1")
	}
	if _, err := Parse([]byte("aa[1-999]bbcc"), Config{}); err == nil {
		t.Fatalf("expected error: upper bound 999 exceeds the maximum of 32")
	}
}

func TestParseAlternationFixedWidth(t *testing.T) {
	sig, err := Parse([]byte("65(c0ffee|babeba|aa55aa)6768"), Config{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(sig.Patterns) != 3 {
		t.Fatalf("got %d elements, want 3", len(sig.Patterns))
	}
	if sig.Patterns[1].Kind != PatternAlternativeStrings {
		t.Fatalf("middle element kind = %v, want PatternAlternativeStrings", sig.Patterns[1].Kind)
	}
	if sig.Patterns[1].AltStrings.Generic {
		t.Fatalf("fixed-width alternation misclassified as generic")
	}
	if got, want := sig.String(), "65(c0ffee|babeba|aa55aa)6768"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestParseAlternationVariableWidth(t *testing.T) {
	sig, err := Parse([]byte("(c0ffee|babe)"), Config{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !sig.Patterns[0].AltStrings.Generic {
		t.Fatalf("variable-width alternation misclassified as fixed-width")
	}
	if got, want := sig.String(), "(c0ffee|babe)"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestParseRejectsNegatedGenericAlternationDifferingWidths(t *testing.T) {
	if _, err := Parse([]byte("012345!(aa|bbbb|cc)"), Config{}); err == nil {
		t.Fatalf("expected error: negation on a generic alternation with differing branch widths")
	}
}

func TestParseRejectsNegatedGenericAlternationNybleWildcard(t *testing.T) {
	if _, err := Parse([]byte("00aa!(1a?5)abab"), Config{}); err == nil {
		t.Fatalf("expected error: negation on a generic alternation containing a nyble wildcard")
	}
}

func TestParseBoundaryModifiers(t *testing.T) {
	sig, err := Parse([]byte("(B)65666768(B)"), Config{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(sig.Patterns) != 1 {
		t.Fatalf("got %d elements, want 1", len(sig.Patterns))
	}
	want := BoundaryLeft | BoundaryRight
	if sig.Patterns[0].Modifier != want {
		t.Fatalf("Modifier = %v, want %v", sig.Patterns[0].Modifier, want)
	}
	if got, want := sig.String(), "(B)65666768(B)"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestParseNegatedModifier(t *testing.T) {
	sig, err := Parse([]byte("!(L)656667"), Config{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sig.Patterns[0].Modifier != LineMarkerLeftNegative {
		t.Fatalf("Modifier = %v, want LineMarkerLeftNegative", sig.Patterns[0].Modifier)
	}
}

func TestParseWildcardElement(t *testing.T) {
	sig, err := Parse([]byte("6566*6768"), Config{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(sig.Patterns) != 3 || sig.Patterns[1].Kind != PatternWildcard {
		t.Fatalf("unexpected pattern sequence: %+v", sig.Patterns)
	}
}

func TestParseRejectsLeadingWildcard(t *testing.T) {
	if _, err := Parse([]byte("*6566"), Config{}); err == nil {
		t.Fatalf("expected error for leading wildcard")
	}
}

func TestParseRejectsTrailingWildcard(t *testing.T) {
	if _, err := Parse([]byte("6566*"), Config{}); err == nil {
		t.Fatalf("expected error for trailing wildcard")
	}
}

func TestParseRejectsOddNybleCount(t *testing.T) {
	if _, err := Parse([]byte("656"), Config{}); err == nil {
		t.Fatalf("expected error for odd nyble count")
	}
}

func TestParseRejectsEmptyInput(t *testing.T) {
	if _, err := Parse([]byte(""), Config{}); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestParseRejectsUnterminatedWildcardRange(t *testing.T) {
	if _, err := Parse([]byte("6566{10"), Config{}); err == nil {
		t.Fatalf("expected error for unterminated wildcard range")
	}
}

func TestMinStaticBytesEnforced(t *testing.T) {
	_, err := Parse([]byte("65??67"), Config{MinStaticBytes: 4})
	if err == nil {
		t.Fatalf("expected error: longest static run is 1, below configured minimum 4")
	}
}

func TestValidateAcceptsMixedWildcardContent(t *testing.T) {
	sig, err := Parse([]byte("6566*6768"), Config{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := sig.Validate(); err != nil {
		t.Fatalf("unexpected validate error on mixed content: %v", err)
	}
}

func TestParseConsecutiveLeftCharacterClasses(t *testing.T) {
	sig, err := Parse([]byte("(B)(L)a??bccdd"), Config{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(sig.Patterns) != 1 {
		t.Fatalf("got %d elements, want 1", len(sig.Patterns))
	}
	want := BoundaryLeft | LineMarkerLeft
	if sig.Patterns[0].Modifier != want {
		t.Fatalf("Modifier = %v, want %v", sig.Patterns[0].Modifier, want)
	}
	if got, want := sig.String(), "(B)(L)a??bccdd"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestParseRejectsOrphanedCharacterClass(t *testing.T) {
	if _, err := Parse([]byte("aabb{300}(B)"), Config{}); err == nil {
		t.Fatalf("expected error: character class with no string pattern to attach to")
	}
}

func TestParseAlternationMixedNybleAndWidthIsGeneric(t *testing.T) {
	sig, err := Parse([]byte("00aa(aa|b?|cccc)abab"), Config{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(sig.Patterns) != 3 || sig.Patterns[1].Kind != PatternAlternativeStrings {
		t.Fatalf("unexpected pattern sequence: %+v", sig.Patterns)
	}
	if !sig.Patterns[1].AltStrings.Generic {
		t.Fatalf("mixed alternation misclassified as fixed-width")
	}
	if got, want := sig.String(), "00aa(aa|b?|cccc)abab"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
