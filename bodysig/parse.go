package bodysig

import (
	"github.com/clamsig/sigparse/numrange"
)

// parser walks a body-signature byte string left to right, mirroring the
// state machine in bodysig/parse.rs: a run of hex/nyble-wildcard pairs
// accumulates into a pending string pattern, which is flushed (becoming a
// Pattern element) whenever a structural character (`*`, `{`, `(`, `[`, or
// end of input) interrupts it.
type parser struct {
	input []byte
	pos   int
	out   []Pattern
	// pendingMod accumulates left-side character-class bits seen while no
	// string is buffered; the next string pattern emitted claims them.
	pendingMod PatternModifier
}

// parseElements parses a full body-signature string into its element
// sequence. Grounded on bodysig/parse.rs's ParseContext and its
// byte-by-byte loop.
func parseElements(input []byte) ([]Pattern, error) {
	if len(input) == 0 {
		return nil, newErr(ErrEmptyInput, 0)
	}
	p := &parser{input: input}
	if err := p.run(); err != nil {
		return nil, err
	}
	p.out = mergeAdjacentStrings(p.out)
	if len(p.out) > 0 && p.out[0].IsWildcard() {
		return nil, newErr(ErrLeadingWildcard, 0)
	}
	if len(p.out) > 0 && p.out[len(p.out)-1].IsWildcard() {
		return nil, newErr(ErrTrailingWildcard, len(input))
	}
	for i := 1; i < len(p.out); i++ {
		if p.out[i].IsWildcard() && p.out[i-1].IsWildcard() {
			return nil, newErr(ErrConsecutiveWildcards, 0)
		}
	}
	return p.out, nil
}

// mergeAdjacentStrings folds consecutive PatternString elements into one.
// Two String patterns end up adjacent in the output when an inlined "{n}"
// (n <= 128) WildcardMany sits between two hex runs, each parsed as its
// own call to parseStringRun; this collapses them back into the single
// logical string pattern spec.md describes. They are also adjacent when a
// right-side character class such as "(B)" ends the first run; that run
// keeps its class and is not merged with the next.
func mergeAdjacentStrings(in []Pattern) []Pattern {
	out := make([]Pattern, 0, len(in))
	for _, p := range in {
		if n := len(out); n > 0 && out[n-1].Kind == PatternString && p.Kind == PatternString && out[n-1].Modifier&rightFlags == 0 {
			out[n-1].Bytes = append(out[n-1].Bytes, p.Bytes...)
			out[n-1].Modifier |= p.Modifier
			continue
		}
		out = append(out, p)
	}
	return out
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexVal(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	default:
		return b - 'A' + 10
	}
}

func (p *parser) run() error {
	for p.pos < len(p.input) {
		b := p.input[p.pos]
		switch {
		case b == '*':
			p.out = append(p.out, Pattern{Kind: PatternWildcard})
			p.pos++
		case b == '{':
			pat, err := p.parseByteRange()
			if err != nil {
				return err
			}
			// An exact count of <= 128 inlines as a WildcardMany match-byte
			// into an adjacent string pattern rather than standing alone,
			// per spec.md §4.2 rule 3.
			if pat.ByteRange.Kind == numrange.Exact && pat.ByteRange.Lo <= 128 {
				mb := MatchByte{Kind: WildcardMany, Size: pat.ByteRange.Lo}
				p.out = append(p.out, Pattern{Kind: PatternString, Bytes: MatchBytes{mb}})
			} else {
				p.out = append(p.out, pat)
			}
		case b == '!':
			if err := p.parseNegated(); err != nil {
				return err
			}
		case b == '(':
			if err := p.parseParenthesized(false); err != nil {
				return err
			}
		case b == '[':
			if err := p.parseAnchorBracket(); err != nil {
				return err
			}
		case isHexDigit(b) || b == '?':
			pat, err := p.parseStringRun()
			if err != nil {
				return err
			}
			pat.Modifier |= p.pendingMod
			p.pendingMod = 0
			p.out = append(p.out, pat)
		default:
			return newErrf(ErrUnexpectedCharacter, p.pos, "%q", b)
		}
	}
	if p.pendingMod != 0 {
		return newErr(ErrModifierOnNonString, len(p.input))
	}
	return nil
}

func (p *parser) parseNegated() error {
	start := p.pos
	p.pos++ // consume '!'
	if p.pos >= len(p.input) || p.input[p.pos] != '(' {
		return newErr(ErrUnexpectedCharacter, start)
	}
	return p.parseParenthesized(true)
}

// parseParenthesized handles every "(...)" form: a single character-class
// modifier "(B)"/"(L)"/"(W)" attached to an adjacent string pattern, or a
// "(aa|bb|...)" alternation group.
func (p *parser) parseParenthesized(negated bool) error {
	start := p.pos
	// Character-class modifier: exactly "(X)" with X in {B,L,W}.
	if p.pos+2 < len(p.input) && p.input[p.pos+2] == ')' {
		if cc, ok := ParseCharacterClass(p.input[p.pos+1]); ok {
			p.pos += 3
			return p.attachModifier(cc, negated, start)
		}
	}
	return p.parseAlternation(negated, start)
}

// attachModifier folds a character-class marker onto the nearest string
// pattern: the previous element when one was just emitted (the class sits
// on its right), otherwise it is held pending as a left-side modifier for
// the next string pattern parsed. Consecutive pending classes accumulate.
func (p *parser) attachModifier(cc CharacterClass, negated bool, at int) error {
	if p.pendingMod == 0 && len(p.out) > 0 && p.out[len(p.out)-1].Kind == PatternString {
		p.out[len(p.out)-1].Modifier |= cc.Modifier(false, negated)
		return nil
	}
	p.pendingMod |= cc.Modifier(true, negated)
	return nil
}

// parseStringRun consumes a maximal run of hex-pair / nyble-wildcard
// tokens, returning a PatternString with no modifiers set.
func (p *parser) parseStringRun() (Pattern, error) {
	start := p.pos
	var bytes MatchBytes
	for p.pos < len(p.input) {
		b := p.input[p.pos]
		switch {
		case b == '?' && p.pos+1 < len(p.input) && p.input[p.pos+1] == '?':
			bytes = append(bytes, MatchByte{Kind: Any})
			p.pos += 2
		case b == '?' && p.pos+1 < len(p.input) && isHexDigit(p.input[p.pos+1]):
			bytes = append(bytes, MatchByte{Kind: LowNyble, Value: hexVal(p.input[p.pos+1])})
			p.pos += 2
		case isHexDigit(b) && p.pos+1 < len(p.input) && p.input[p.pos+1] == '?':
			bytes = append(bytes, MatchByte{Kind: HighNyble, Value: hexVal(b) << 4})
			p.pos += 2
		case isHexDigit(b) && p.pos+1 < len(p.input) && isHexDigit(p.input[p.pos+1]):
			bytes = append(bytes, MatchByte{Kind: Full, Value: hexVal(b)<<4 | hexVal(p.input[p.pos+1])})
			p.pos += 2
		default:
			if isHexDigit(b) || b == '?' {
				return Pattern{}, newErr(ErrOddNybleCount, p.pos)
			}
			goto done
		}
	}
done:
	if len(bytes) == 0 {
		return Pattern{}, newErr(ErrUnexpectedEOF, start)
	}
	return Pattern{Kind: PatternString, Bytes: bytes}, nil
}

// parseByteRange parses a standalone "{n}", "{n-m}", "{-n}", or "{n-}"
// wildcard-count element.
func (p *parser) parseByteRange() (Pattern, error) {
	start := p.pos
	p.pos++ // consume '{'
	contentStart := p.pos
	for p.pos < len(p.input) && p.input[p.pos] != '}' {
		p.pos++
	}
	if p.pos >= len(p.input) {
		return Pattern{}, newErr(ErrUnterminatedWildcard, start)
	}
	content := string(p.input[contentStart:p.pos])
	p.pos++ // consume '}'

	r, err := parseWildcardRange(content)
	if err != nil {
		return Pattern{}, newErrf(ErrInvalidWildcardRange, contentStart, "%s", err)
	}
	return Pattern{Kind: PatternByteRange, ByteRange: r}, nil
}

func parseWildcardRange(s string) (numrange.Range[int], error) {
	if s == "" {
		return numrange.Range[int]{}, newErr(ErrInvalidWildcardRange, 0)
	}
	dash := -1
	for i := range s {
		if s[i] == '-' {
			dash = i
			break
		}
	}
	switch {
	case dash < 0:
		n, err := parseUint(s)
		if err != nil {
			return numrange.Range[int]{}, err
		}
		return numrange.NewExact(n), nil
	case dash == 0:
		n, err := parseUint(s[1:])
		if err != nil {
			return numrange.Range[int]{}, err
		}
		return numrange.NewToInclusive(n), nil
	case dash == len(s)-1:
		n, err := parseUint(s[:dash])
		if err != nil {
			return numrange.Range[int]{}, err
		}
		return numrange.NewFrom(n), nil
	default:
		lo, err := parseUint(s[:dash])
		if err != nil {
			return numrange.Range[int]{}, err
		}
		hi, err := parseUint(s[dash+1:])
		if err != nil {
			return numrange.Range[int]{}, err
		}
		if hi < lo {
			return numrange.Range[int]{}, newErr(ErrInvalidWildcardRange, 0)
		}
		return numrange.NewInclusive(lo, hi), nil
	}
}

func parseUint(s string) (int, error) {
	if s == "" {
		return 0, newErr(ErrInvalidWildcardRange, 0)
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, newErr(ErrInvalidWildcardRange, 0)
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, nil
}

// parseAlternation parses the body of a "(...)" group that is not a
// character-class modifier: a `|`-separated list of hex/nyble-wildcard
// runs.
func (p *parser) parseAlternation(negated bool, start int) error {
	p.pos++ // consume '('
	var branches []MatchBytes
	for {
		branchStart := p.pos
		var bytes MatchBytes
		for p.pos < len(p.input) && p.input[p.pos] != '|' && p.input[p.pos] != ')' {
			b := p.input[p.pos]
			switch {
			case b == '?' && p.pos+1 < len(p.input) && p.input[p.pos+1] == '?':
				bytes = append(bytes, MatchByte{Kind: Any})
				p.pos += 2
			case b == '?' && p.pos+1 < len(p.input) && isHexDigit(p.input[p.pos+1]):
				bytes = append(bytes, MatchByte{Kind: LowNyble, Value: hexVal(p.input[p.pos+1])})
				p.pos += 2
			case isHexDigit(b) && p.pos+1 < len(p.input) && p.input[p.pos+1] == '?':
				bytes = append(bytes, MatchByte{Kind: HighNyble, Value: hexVal(b) << 4})
				p.pos += 2
			case isHexDigit(b) && p.pos+1 < len(p.input) && isHexDigit(p.input[p.pos+1]):
				bytes = append(bytes, MatchByte{Kind: Full, Value: hexVal(b)<<4 | hexVal(p.input[p.pos+1])})
				p.pos += 2
			default:
				return newErr(ErrUnexpectedCharacter, p.pos)
			}
		}
		if p.pos >= len(p.input) {
			return newErr(ErrUnterminatedAlternation, start)
		}
		if len(bytes) == 0 {
			return newErr(ErrEmptyAlternation, branchStart)
		}
		branches = append(branches, bytes)
		if p.input[p.pos] == ')' {
			p.pos++
			break
		}
		p.pos++ // consume '|'
	}
	if len(branches) == 0 {
		return newErr(ErrEmptyAlternation, start)
	}

	fixedWidth := true
	width := len(branches[0])
	hasNyble := false
	for _, br := range branches {
		if len(br) != width {
			fixedWidth = false
		}
		for _, mb := range br {
			if mb.Kind == LowNyble || mb.Kind == HighNyble {
				hasNyble = true
			}
		}
	}
	alt := AlternativeStrings{}
	if fixedWidth && !hasNyble {
		alt.Width = width
		for _, br := range branches {
			alt.Data = append(alt.Data, br...)
		}
		alt.Negated = negated
	} else {
		if negated {
			return newErr(ErrNegatedGenericAltStr, start)
		}
		alt.Generic = true
		offset := 0
		for _, br := range branches {
			alt.Data = append(alt.Data, br...)
			alt.Ranges = append(alt.Ranges, numrange.NewInclusive(offset, offset+len(br)))
			offset += len(br)
		}
	}
	p.out = append(p.out, Pattern{Kind: PatternAlternativeStrings, AltStrings: alt})
	return nil
}

// parseAnchorBracket handles the "[lo-hi]" gap notation that pins a single
// anchor byte to one side of a bounded wildcard span, e.g. "aa[3-10]bbcc"
// or "aabbcc[3-10]dd". The anchor side is whichever adjoining run is
// exactly one byte wide; the other run becomes the element's Bytes.
func (p *parser) parseAnchorBracket() error {
	start := p.pos
	if len(p.out) == 0 || p.out[len(p.out)-1].Kind != PatternString {
		return newErr(ErrMissingAnchorByte, start)
	}
	left := p.out[len(p.out)-1]
	p.pos++ // consume '['
	contentStart := p.pos
	for p.pos < len(p.input) && p.input[p.pos] != ']' {
		p.pos++
	}
	if p.pos >= len(p.input) {
		return newErr(ErrUnexpectedEOF, start)
	}
	content := string(p.input[contentStart:p.pos])
	p.pos++ // consume ']'

	rng, err := parseUintRange(content)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			return &ParseError{Kind: pe.Kind, Offset: contentStart, Detail: pe.Detail}
		}
		return newErrf(ErrInvalidAnchorRange, contentStart, "%s", err)
	}

	right, err := p.parseStringRun()
	if err != nil {
		return err
	}

	p.out = p.out[:len(p.out)-1]
	// Resolution is driven solely by the string run immediately before
	// '[': exactly one byte there means the anchor is on the left and
	// the following run is the string side (which must hold >= 2
	// bytes); two or more bytes there means the anchor is on the right
	// and the following run must be exactly one byte.
	switch {
	case len(left.Bytes) == 1:
		if len(right.Bytes) < 2 {
			return newErr(ErrAnchoredByteStringTooSmall, start)
		}
		p.out = append(p.out, Pattern{
			Kind:        PatternAnchoredByte,
			AnchorSide:  AnchorLeft,
			AnchorByte:  left.Bytes[0],
			AnchorRange: rng,
			Bytes:       right.Bytes,
		})
	default:
		if len(right.Bytes) != 1 {
			return newErr(ErrAnchoredByteSideMismatch, start)
		}
		p.out = append(p.out, Pattern{
			Kind:        PatternAnchoredByte,
			AnchorSide:  AnchorRight,
			AnchorByte:  right.Bytes[0],
			AnchorRange: rng,
			Bytes:       left.Bytes,
		})
	}
	return nil
}

// anchoredByteRangeMax is the highest value either bound of an anchored
// byte's "[lo-hi]" gap may hold.
const anchoredByteRangeMax = 32

// parseUintRange parses the content of an anchored-byte bracket: either a
// bare "n" (equivalent to "n-n") or a "lo-hi" pair. Both bounds must fall
// within [1, anchoredByteRangeMax].
func parseUintRange(s string) (numrange.Range[uint8], error) {
	dash := -1
	for i := range s {
		if s[i] == '-' {
			dash = i
			break
		}
	}
	if dash < 0 {
		n, err := parseUint(s)
		if err != nil {
			return numrange.Range[uint8]{}, err
		}
		if err := checkAnchorBound(n, n); err != nil {
			return numrange.Range[uint8]{}, err
		}
		return numrange.NewInclusive(uint8(n), uint8(n)), nil
	}
	if dash == 0 || dash == len(s)-1 {
		return numrange.Range[uint8]{}, newErr(ErrInvalidAnchorRange, 0)
	}
	lo, err := parseUint(s[:dash])
	if err != nil {
		return numrange.Range[uint8]{}, err
	}
	hi, err := parseUint(s[dash+1:])
	if err != nil {
		return numrange.Range[uint8]{}, err
	}
	if hi < lo {
		return numrange.Range[uint8]{}, newErr(ErrInvalidAnchorRange, 0)
	}
	if err := checkAnchorBound(lo, hi); err != nil {
		return numrange.Range[uint8]{}, err
	}
	return numrange.NewInclusive(uint8(lo), uint8(hi)), nil
}

// checkAnchorBound enforces 1 <= lo <= hi <= anchoredByteRangeMax, comparing
// in int space before either bound is narrowed to uint8 so an out-of-range
// value (e.g. 9999) cannot wrap into a deceptively small one.
func checkAnchorBound(lo, hi int) error {
	if lo < 1 {
		return newErrf(ErrAnchoredByteInvalidLowerBound, 0, "lower bound %d must be at least 1", lo)
	}
	if hi > anchoredByteRangeMax {
		return newErrf(ErrAnchoredByteInvalidUpperBound, 0, "upper bound %d exceeds maximum %d", hi, anchoredByteRangeMax)
	}
	return nil
}
