package logicalsig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clamsig/sigparse/feature"
)

// FuzzyImgSubSig matches a perceptual image hash, optionally within a
// hamming-distance tolerance. Its form is
// "fuzzy_img#<16 hex digits>[#distance]".
type FuzzyImgSubSig struct {
	HashString      string
	HammingDistance *int
	Modifier        *SubSigModifier
}

func (s *FuzzyImgSubSig) SubSigType() SubSigType { return SubSigFuzzyImg }

func (s *FuzzyImgSubSig) Features() feature.Set {
	return feature.FromStatic(feature.FuzzyImageMin)
}

// FuzzyImgSubSigParseError reports a malformed fuzzy-image sub-signature.
type FuzzyImgSubSigParseError struct{ Msg string }

func (e *FuzzyImgSubSigParseError) Error() string { return "logicalsig: fuzzy_img subsig: " + e.Msg }

// identified reports whether the bytes committed to the fuzzy_img shape;
// only a missing "fuzzy_img" prefix means the cascade should try the next
// classifier instead of failing outright.
func (e *FuzzyImgSubSigParseError) identified() bool {
	return e.Msg != "missing fuzzy_img# prefix"
}

func isHexDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

func parseFuzzyImgSubSig(raw string, modifier *SubSigModifier) (*FuzzyImgSubSig, error) {
	fields := strings.SplitN(raw, "#", 3)
	if len(fields) == 0 || fields[0] != "fuzzy_img" {
		return nil, &FuzzyImgSubSigParseError{Msg: "missing fuzzy_img# prefix"}
	}
	if len(fields) < 2 {
		return nil, &FuzzyImgSubSigParseError{Msg: "too few #-delimited fields"}
	}
	hash := fields[1]
	if !isHexDigits(hash) {
		return nil, &FuzzyImgSubSigParseError{Msg: "invalid hash string: not hexadecimal"}
	}
	if len(hash) != 16 {
		return nil, &FuzzyImgSubSigParseError{Msg: fmt.Sprintf("invalid hash string: must be exactly 16 characters long, got %d", len(hash))}
	}

	var distance *int
	if len(fields) == 3 {
		d, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, &FuzzyImgSubSigParseError{Msg: "invalid hamming distance: " + err.Error()}
		}
		if d < 0 {
			return nil, &FuzzyImgSubSigParseError{Msg: "invalid hamming distance: negative value"}
		}
		distance = &d
	}

	return &FuzzyImgSubSig{HashString: hash, HammingDistance: distance, Modifier: modifier}, nil
}

// String serializes the sub-signature, writing the "#" separator before
// an optional hamming distance that the field grammar requires.
func (s *FuzzyImgSubSig) String() string {
	var b strings.Builder
	b.WriteString("fuzzy_img#")
	b.WriteString(s.HashString)
	if s.HammingDistance != nil {
		b.WriteByte('#')
		b.WriteString(strconv.Itoa(*s.HammingDistance))
	}
	if s.Modifier != nil {
		b.WriteString("::")
		b.WriteString(s.Modifier.String())
	}
	return b.String()
}
