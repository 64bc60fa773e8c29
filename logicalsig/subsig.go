package logicalsig

import (
	"fmt"
	"strings"

	"github.com/clamsig/sigparse/bodysig"
	"github.com/clamsig/sigparse/extsig"
	"github.com/clamsig/sigparse/feature"
	"github.com/clamsig/sigparse/targettype"
)

// SubSigType discriminates the five sub-signature shapes a logical
// signature's sub-signature list can hold.
type SubSigType int

const (
	SubSigExtended SubSigType = iota
	SubSigMacro
	SubSigByteCmp
	SubSigPCRE
	SubSigFuzzyImg
)

func (t SubSigType) String() string {
	switch t {
	case SubSigExtended:
		return "Extended"
	case SubSigMacro:
		return "Macro"
	case SubSigByteCmp:
		return "ByteCmp"
	case SubSigPCRE:
		return "Pcre"
	case SubSigFuzzyImg:
		return "FuzzyImg"
	default:
		return "Unknown"
	}
}

// SubSigModifier is the optional "::"-suffix modifier on a sub-signature:
// ascii, match-fullword, case-insensitive, widechar, in that literal
// serialization order.
type SubSigModifier struct {
	ASCII           bool
	MatchFullWord   bool
	CaseInsensitive bool
	WideChar        bool
}

func (m SubSigModifier) String() string {
	var b strings.Builder
	if m.ASCII {
		b.WriteByte('a')
	}
	if m.MatchFullWord {
		b.WriteByte('f')
	}
	if m.CaseInsensitive {
		b.WriteByte('i')
	}
	if m.WideChar {
		b.WriteByte('w')
	}
	return b.String()
}

func (m SubSigModifier) toExtSig() extsig.SubSigModifier {
	return extsig.SubSigModifier{
		ASCII:           m.ASCII,
		CaseInsensitive: m.CaseInsensitive,
		WideChar:        m.WideChar,
		MatchFullWord:   m.MatchFullWord,
	}
}

// SubSig is one element of a logical signature's ordered sub-signature
// list, referenced by index from its Expr.
type SubSig interface {
	fmt.Stringer
	SubSigType() SubSigType
	Features() feature.Set
}

// identifiedErr is implemented by every sub-signature parse error: it
// reports whether the input was recognizably an attempt at that
// sub-signature's shape, distinguishing "try the next classifier" from
// "stop the cascade, this is a malformed X".
type identifiedErr interface {
	error
	identified() bool
}

// SubSigParseError wraps whichever classifier's error ended the
// classification cascade.
type SubSigParseError struct {
	Err error
}

func (e *SubSigParseError) Error() string { return fmt.Sprintf("logicalsig: subsig: %v", e.Err) }
func (e *SubSigParseError) Unwrap() error { return e.Err }

// extSigAdapter lets an extsig.ExtendedSig satisfy the SubSig interface
// when it falls through the classification cascade as the final resort.
type extSigAdapter struct {
	*extsig.ExtendedSig
	modifier *SubSigModifier
}

func (a *extSigAdapter) SubSigType() SubSigType { return SubSigExtended }

func (a *extSigAdapter) String() string {
	var b strings.Builder
	a.ExtendedSig.AppendLogicalSubSig(&b)
	if a.modifier != nil {
		b.WriteString("::")
		b.WriteString(a.modifier.String())
	}
	return b.String()
}

// ParseSubSig classifies and parses one ';'-delimited sub-signature
// field, trying each dialect in turn: Macro, ByteCmp, FuzzyImg, then
// (after detecting an optional leading offset) PCRE, and finally falling
// back to a bare Extended sub-signature.
func ParseSubSig(raw string, modifier *SubSigModifier) (SubSig, error) {
	if sig, err := parseMacroSubSig(raw, modifier); err == nil {
		return sig, nil
	} else if ie, ok := err.(identifiedErr); ok && ie.identified() {
		return nil, &SubSigParseError{Err: err}
	}

	if sig, err := parseByteCmpSubSig(raw, modifier); err == nil {
		return sig, nil
	} else if ie, ok := err.(identifiedErr); ok && ie.identified() {
		return nil, &SubSigParseError{Err: err}
	}

	if sig, err := parseFuzzyImgSubSig(raw, modifier); err == nil {
		return sig, nil
	} else if ie, ok := err.(identifiedErr); ok && ie.identified() {
		return nil, &SubSigParseError{Err: err}
	}

	// Both Extended and PCRE sub-signatures may be prefixed with an
	// offset field. Detect one by scanning (at most the first 32 bytes,
	// stopping at a PCRE pattern delimiter) for a colon.
	var offset *extsig.Offset
	bodyBytes := raw
	scanLimit := len(raw)
	if scanLimit > 32 {
		scanLimit = 32
	}
	colonPos := -1
	for i := 0; i < scanLimit; i++ {
		if raw[i] == '/' {
			break
		}
		if raw[i] == ':' {
			colonPos = i
			break
		}
	}
	if colonPos >= 0 {
		off, err := extsig.ParseOffset(raw[:colonPos])
		if err != nil {
			return nil, &SubSigParseError{Err: fmt.Errorf("parsing subsig offset: %w", err)}
		}
		offset = &off
		bodyBytes = raw[colonPos+1:]
	}

	if sig, err := parsePCRESubSig(bodyBytes, modifier, offset); err == nil {
		return sig, nil
	} else if ie, ok := err.(identifiedErr); ok && ie.identified() {
		return nil, &SubSigParseError{Err: err}
	}

	body, err := bodysig.Parse([]byte(bodyBytes), bodysig.Config{})
	if err != nil {
		return nil, &SubSigParseError{Err: fmt.Errorf("parsing body subsig: %w", err)}
	}
	sig := &extsig.ExtendedSig{
		TargetType: targettype.Any,
		Offset:     offset,
		BodySig:    body,
	}
	if modifier != nil {
		extMod := modifier.toExtSig()
		sig.Modifier = &extMod
	}
	return &extSigAdapter{ExtendedSig: sig, modifier: modifier}, nil
}
