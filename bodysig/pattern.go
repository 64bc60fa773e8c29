// Package bodysig implements the hex-signature body-pattern language shared
// by Extended signatures, Logical sub-signatures, and FileTypeMagic body
// matches. Grounded on signature/bodysig/parse.rs (the parser state
// machine) and its sibling pattern.rs/pattern_modifier.rs/char_class.rs/
// altstr.rs (the element types), all from the same original implementation.
package bodysig

import (
	"fmt"
	"strings"

	"github.com/clamsig/sigparse/feature"
	"github.com/clamsig/sigparse/numrange"
)

// PatternModifier is a bitmask of the twelve boundary/line/word markers a
// string-type Pattern may carry on its left and/or right side, each
// optionally negated. Grounded on bodysig/pattern_modifier.rs's enumflags2
// bitflags, renumbered onto a plain Go bitmask since this module has no
// reason to carry the enumflags2 dependency for a single closed flag set.
type PatternModifier uint16

const (
	BoundaryLeft PatternModifier = 1 << iota
	BoundaryLeftNegative
	BoundaryRight
	BoundaryRightNegative
	LineMarkerLeft
	LineMarkerLeftNegative
	LineMarkerRight
	LineMarkerRightNegative
	WordMarkerLeft
	WordMarkerLeftNegative
	WordMarkerRight
	WordMarkerRightNegative
)

const (
	leftFlags     = BoundaryLeft | BoundaryLeftNegative | LineMarkerLeft | LineMarkerLeftNegative | WordMarkerLeft | WordMarkerLeftNegative
	rightFlags    = BoundaryRight | BoundaryRightNegative | LineMarkerRight | LineMarkerRightNegative | WordMarkerRight | WordMarkerRightNegative
	negativeFlags = BoundaryLeftNegative | LineMarkerLeftNegative | WordMarkerLeftNegative | BoundaryRightNegative | LineMarkerRightNegative | WordMarkerRightNegative
)

// singleFlagString renders one individual flag bit as it appears in a
// signature ("(B)", "!(L)", ...). It does not check that only one bit is
// set; AppendLeft and AppendRight call it one flag at a time.
func (m PatternModifier) singleFlagString() string {
	var b strings.Builder
	if m&negativeFlags != 0 {
		b.WriteByte('!')
	}
	b.WriteByte('(')
	switch {
	case m&(BoundaryLeft|BoundaryLeftNegative|BoundaryRight|BoundaryRightNegative) != 0:
		b.WriteByte('B')
	case m&(LineMarkerLeft|LineMarkerLeftNegative|LineMarkerRight|LineMarkerRightNegative) != 0:
		b.WriteByte('L')
	case m&(WordMarkerLeft|WordMarkerLeftNegative|WordMarkerRight|WordMarkerRightNegative) != 0:
		b.WriteByte('W')
	}
	b.WriteByte(')')
	return b.String()
}

// AppendLeft writes every left-side flag set in m, in ascending bit order.
func (m PatternModifier) AppendLeft(sb *strings.Builder) {
	for _, f := range []PatternModifier{BoundaryLeft, BoundaryLeftNegative, LineMarkerLeft, LineMarkerLeftNegative, WordMarkerLeft, WordMarkerLeftNegative} {
		if m&leftFlags&f != 0 {
			sb.WriteString(f.singleFlagString())
		}
	}
}

// AppendRight writes every right-side flag set in m, in ascending bit order.
func (m PatternModifier) AppendRight(sb *strings.Builder) {
	for _, f := range []PatternModifier{BoundaryRight, BoundaryRightNegative, LineMarkerRight, LineMarkerRightNegative, WordMarkerRight, WordMarkerRightNegative} {
		if m&rightFlags&f != 0 {
			sb.WriteString(f.singleFlagString())
		}
	}
}

// CharacterClass is one of the three markers ("B", "L", "W") that can
// appear to the left or right of a string pattern, inside parentheses.
type CharacterClass int

const (
	WordBoundary CharacterClass = iota
	LineOrFileBoundary
	NonAlphaChar
)

// ParseCharacterClass maps a raw byte ('B', 'L', or 'W') to a CharacterClass.
func ParseCharacterClass(b byte) (CharacterClass, bool) {
	switch b {
	case 'B':
		return WordBoundary, true
	case 'L':
		return LineOrFileBoundary, true
	case 'W':
		return NonAlphaChar, true
	default:
		return 0, false
	}
}

// Modifier maps a character class, side, and negation flag onto the
// corresponding PatternModifier bit. Grounded on char_class.rs's
// pattern_modifier table.
func (c CharacterClass) Modifier(isLeftSide, negated bool) PatternModifier {
	switch {
	case c == WordBoundary && isLeftSide && !negated:
		return BoundaryLeft
	case c == WordBoundary && isLeftSide && negated:
		return BoundaryLeftNegative
	case c == WordBoundary && !isLeftSide && !negated:
		return BoundaryRight
	case c == WordBoundary && !isLeftSide && negated:
		return BoundaryRightNegative
	case c == LineOrFileBoundary && isLeftSide && !negated:
		return LineMarkerLeft
	case c == LineOrFileBoundary && isLeftSide && negated:
		return LineMarkerLeftNegative
	case c == LineOrFileBoundary && !isLeftSide && !negated:
		return LineMarkerRight
	case c == LineOrFileBoundary && !isLeftSide && negated:
		return LineMarkerRightNegative
	case c == NonAlphaChar && isLeftSide && !negated:
		return WordMarkerLeft
	case c == NonAlphaChar && isLeftSide && negated:
		return WordMarkerLeftNegative
	case c == NonAlphaChar && !isLeftSide && !negated:
		return WordMarkerRight
	default: // NonAlphaChar, right, negated
		return WordMarkerRightNegative
	}
}

// MatchByte is one byte-wide matching unit within a string pattern.
type MatchByte struct {
	// Kind selects which of the four shapes (or WildcardMany) this is.
	Kind MatchByteKind
	// Value holds the matched nyble(s) for Full/LowNyble/HighNyble.
	Value byte
	// Size holds the expanded-wildcard width for WildcardMany (a `{n}`
	// of <=128 folded directly into the byte stream rather than becoming
	// a standalone ByteRange pattern).
	Size int
}

type MatchByteKind int

const (
	Full MatchByteKind = iota
	LowNyble
	HighNyble
	Any
	WildcardMany
)

func (mb MatchByte) String() string {
	switch mb.Kind {
	case Full:
		return fmt.Sprintf("%02x", mb.Value)
	case LowNyble:
		return fmt.Sprintf("?%x", mb.Value&0x0f)
	case HighNyble:
		return fmt.Sprintf("%x?", (mb.Value>>4)&0x0f)
	case Any:
		return "??"
	case WildcardMany:
		return fmt.Sprintf("{%d}", mb.Size)
	default:
		return "??"
	}
}

// MatchBytes is a sequence of MatchByte, rendering as their concatenation.
type MatchBytes []MatchByte

func (mbs MatchBytes) String() string {
	var b strings.Builder
	for _, mb := range mbs {
		b.WriteString(mb.String())
	}
	return b.String()
}

// ByteAnchorSide records which side of an AnchoredByte's wildcard range the
// single anchor byte sits on.
type ByteAnchorSide int

const (
	AnchorLeft ByteAnchorSide = iota
	AnchorRight
)

// AlternativeStrings is a parenthesized `|`-separated group of byte
// sequences. FixedWidth groups share one byte width (the common case:
// `(c0|ff|ee)`); Generic groups have differing widths or contain nyble
// wildcards and so must be matched by explicit per-branch length.
type AlternativeStrings struct {
	Generic  bool
	Negated  bool // only meaningful (and only ever true) for FixedWidth
	Width    int  // meaningful only for FixedWidth
	Data     MatchBytes
	Ranges   []numrange.Range[int] // meaningful only for Generic; Inclusive(start,end) per branch
}

func (a AlternativeStrings) String() string {
	var b strings.Builder
	if !a.Generic && a.Negated {
		b.WriteByte('!')
	}
	b.WriteByte('(')
	if a.Generic {
		for i, r := range a.Ranges {
			if i > 0 {
				b.WriteByte('|')
			}
			b.WriteString(a.Data[r.Lo:r.Hi].String())
		}
	} else {
		for i := 0; i*a.Width < len(a.Data); i++ {
			if i > 0 {
				b.WriteByte('|')
			}
			b.WriteString(a.Data[i*a.Width : (i+1)*a.Width].String())
		}
	}
	b.WriteByte(')')
	return b.String()
}

// PatternKind discriminates the five shapes a Pattern element can take.
type PatternKind int

const (
	PatternString PatternKind = iota
	PatternAnchoredByte
	PatternAlternativeStrings
	PatternByteRange
	PatternWildcard
)

// Pattern is one element of a parsed body signature.
type Pattern struct {
	Kind PatternKind

	// PatternString
	Bytes    MatchBytes
	Modifier PatternModifier

	// PatternAnchoredByte
	AnchorSide  ByteAnchorSide
	AnchorByte  MatchByte
	AnchorRange numrange.Range[uint8] // always Inclusive

	// PatternAlternativeStrings
	AltStrings AlternativeStrings

	// PatternByteRange
	ByteRange numrange.Range[int]
}

// IsWildcard reports whether p is a Wildcard or ByteRange pattern, i.e. an
// unsized element that cannot appear at the start or end of a signature.
func (p Pattern) IsWildcard() bool {
	return p.Kind == PatternWildcard || p.Kind == PatternByteRange
}

func (p Pattern) String() string {
	switch p.Kind {
	case PatternString:
		var b strings.Builder
		p.Modifier.AppendLeft(&b)
		b.WriteString(p.Bytes.String())
		p.Modifier.AppendRight(&b)
		return b.String()
	case PatternWildcard:
		return "*"
	case PatternAnchoredByte:
		if p.AnchorSide == AnchorLeft {
			return fmt.Sprintf("%s[%d-%d]%s", p.AnchorByte, p.AnchorRange.Lo, p.AnchorRange.Hi, p.Bytes)
		}
		return fmt.Sprintf("%s[%d-%d]%s", p.Bytes, p.AnchorRange.Lo, p.AnchorRange.Hi, p.AnchorByte)
	case PatternByteRange:
		return "{" + p.ByteRange.String() + "}"
	case PatternAlternativeStrings:
		return p.AltStrings.String()
	default:
		return ""
	}
}

// Features reports the engine capabilities this pattern exercises. Plain
// body-pattern elements require no named feature beyond baseline support.
func (p Pattern) Features() feature.Set { return feature.Empty() }
