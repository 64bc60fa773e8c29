package bodysig

import (
	"fmt"
	"strings"

	"github.com/clamsig/sigparse/feature"
)

// Config holds the few behavior knobs this package leaves open, mirroring
// the small Config structs threaded through wudi-pdfkit's parser/scanner
// constructors.
type Config struct {
	// MinStaticBytes rejects any string pattern whose longest contiguous
	// run of fully-fixed bytes (no wildcards, no nyble masks) is shorter
	// than this. Zero (the default) enforces nothing; the rule is kept
	// behind this knob because real-world signatures violate it.
	MinStaticBytes int
}

// BodySig is a fully parsed hex-signature body pattern: an ordered sequence
// of string runs, wildcards, byte ranges, alternations, and anchored bytes.
type BodySig struct {
	Patterns []Pattern
}

// Parse parses raw into a BodySig using cfg's behavior knobs.
func Parse(raw []byte, cfg Config) (*BodySig, error) {
	patterns, err := ParsePatterns(raw)
	if err != nil {
		return nil, err
	}
	sig := &BodySig{Patterns: patterns}
	if cfg.MinStaticBytes > 0 {
		for _, p := range sig.Patterns {
			if p.Kind != PatternString {
				continue
			}
			if run := longestStaticRun(p.Bytes); run < cfg.MinStaticBytes {
				return nil, newErrf(ErrUnexpectedCharacter, 0,
					"string pattern's longest static run %d is below configured minimum %d", run, cfg.MinStaticBytes)
			}
		}
	}
	return sig, nil
}

// ParsePatterns exposes the bare pattern-sequence parser without the
// Config-driven static-byte check; Parse calls it before applying that
// check.
func ParsePatterns(raw []byte) ([]Pattern, error) {
	return parseElements(raw)
}

// String renders the signature back into its textual form.
func (s *BodySig) String() string {
	var b strings.Builder
	for _, p := range s.Patterns {
		b.WriteString(p.String())
	}
	return b.String()
}

// LongestStaticRun returns the length, in bytes, of the longest contiguous
// run of fully-fixed MatchByte elements (Kind == Full) across all string
// patterns, treating every other element as a break.
func (s *BodySig) LongestStaticRun() int {
	best := 0
	for _, p := range s.Patterns {
		if p.Kind != PatternString {
			continue
		}
		if run := longestStaticRun(p.Bytes); run > best {
			best = run
		}
	}
	return best
}

func longestStaticRun(bytes MatchBytes) int {
	best, cur := 0, 0
	for _, mb := range bytes {
		if mb.Kind == Full {
			cur++
			if cur > best {
				best = cur
			}
		} else {
			cur = 0
		}
	}
	return best
}

// Features reports the union of engine capabilities every element of the
// signature requires.
func (s *BodySig) Features() feature.Set {
	set := feature.Empty()
	for _, p := range s.Patterns {
		set.Merge(p.Features())
	}
	return set
}

// Validate reports a descriptive error if the signature is structurally
// empty or contains only wildcard elements.
func (s *BodySig) Validate() error {
	if len(s.Patterns) == 0 {
		return fmt.Errorf("bodysig: signature has no elements")
	}
	hasContent := false
	for _, p := range s.Patterns {
		if !p.IsWildcard() {
			hasContent = true
			break
		}
	}
	if !hasContent {
		return fmt.Errorf("bodysig: signature contains only wildcards")
	}
	return nil
}
