package logicalsig

import (
	"fmt"
	"strings"

	"github.com/clamsig/sigparse/extsig"
	"github.com/clamsig/sigparse/feature"
	"github.com/dlclark/regexp2"
)

// PCREFlag is one trailing modifier letter on a PCRE sub-signature.
type PCREFlag int

const (
	FlagGlobal PCREFlag = iota
	FlagRolling
	FlagEncompass
	FlagCaseless
	FlagDotAll
	FlagMultiline
	FlagExtended
	FlagAnchored
	FlagDollarEndOnly
	FlagUngreedy
)

func (f PCREFlag) byte() byte {
	switch f {
	case FlagGlobal:
		return 'g'
	case FlagRolling:
		return 'r'
	case FlagEncompass:
		return 'e'
	case FlagCaseless:
		return 'i'
	case FlagDotAll:
		return 's'
	case FlagMultiline:
		return 'm'
	case FlagExtended:
		return 'x'
	case FlagAnchored:
		return 'A'
	case FlagDollarEndOnly:
		return 'E'
	default:
		return 'U'
	}
}

func parsePCREFlag(b byte) (PCREFlag, bool) {
	switch b {
	case 'g':
		return FlagGlobal, true
	case 'r':
		return FlagRolling, true
	case 'e':
		return FlagEncompass, true
	case 'i':
		return FlagCaseless, true
	case 's':
		return FlagDotAll, true
	case 'm':
		return FlagMultiline, true
	case 'x':
		return FlagExtended, true
	case 'A':
		return FlagAnchored, true
	case 'E':
		return FlagDollarEndOnly, true
	case 'U':
		return FlagUngreedy, true
	default:
		return 0, false
	}
}

// regexp2Options maps the subset of PCRE flags with a regexp2 equivalent,
// used only to validate pattern syntax, never to execute a match. RE2
// compatibility mode stays off: the dialect is PCRE, backreferences and
// lookaround included.
func regexp2Options(flags []PCREFlag) regexp2.RegexOptions {
	opts := regexp2.None
	for _, f := range flags {
		switch f {
		case FlagCaseless:
			opts |= regexp2.IgnoreCase
		case FlagDotAll:
			opts |= regexp2.Singleline
		case FlagMultiline:
			opts |= regexp2.Multiline
		case FlagExtended:
			opts |= regexp2.IgnorePatternWhitespace
		}
	}
	return opts
}

// PCRESubSig matches a Perl-compatible regular expression, gated by a
// trigger expression over earlier sub-signature indices. Its form is
// "[offset:]trigger_expr/pattern/flags".
type PCRESubSig struct {
	TriggerExpr Element
	Pattern     string
	Flags       []PCREFlag
	Offset      *extsig.Offset
	Modifier    *SubSigModifier
}

func (s *PCRESubSig) SubSigType() SubSigType { return SubSigPCRE }

func (s *PCRESubSig) Features() feature.Set {
	return feature.FromStatic(feature.PCRE)
}

// PCRESubSigParseError reports a malformed PCRE sub-signature.
type PCRESubSigParseError struct {
	Msg string
	Err error
}

func (e *PCRESubSigParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("logicalsig: pcre subsig: %s: %v", e.Msg, e.Err)
	}
	return "logicalsig: pcre subsig: " + e.Msg
}

func (e *PCRESubSigParseError) Unwrap() error { return e.Err }

// identified reports whether the bytes committed to the slash-delimited
// PCRE shape. An invalid trigger expression, invalid regular-expression
// syntax, or an unknown flag means the bytes were recognizably an attempted PCRE sub-signature
// and the cascade should stop; a missing delimiter means they never were.
func (e *PCRESubSigParseError) identified() bool {
	switch e.Msg {
	case "invalid trigger expression", "unknown flag", "invalid regular expression syntax":
		return true
	default:
		return false
	}
}

func parsePCRESubSig(raw string, modifier *SubSigModifier, offset *extsig.Offset) (*PCRESubSig, error) {
	exprPart, remainder, ok := strings.Cut(raw, "/")
	if !ok {
		return nil, &PCRESubSigParseError{Msg: "empty pattern"}
	}
	trigger, err := ParseExpression(exprPart)
	if err != nil {
		return nil, &PCRESubSigParseError{Msg: "invalid trigger expression", Err: err}
	}

	lastSlash := strings.LastIndexByte(remainder, '/')
	if lastSlash < 0 {
		return nil, &PCRESubSigParseError{Msg: "empty pattern"}
	}
	pattern := remainder[:lastSlash]
	flagBytes := remainder[lastSlash+1:]

	flags := make([]PCREFlag, 0, len(flagBytes))
	for i := 0; i < len(flagBytes); i++ {
		f, ok := parsePCREFlag(flagBytes[i])
		if !ok {
			return nil, &PCRESubSigParseError{Msg: "unknown flag"}
		}
		flags = append(flags, f)
	}

	// Validate PCRE syntax (not execution semantics: Go has no PCRE
	// engine) using regexp2, which unlike the stdlib RE2 engine accepts
	// backreferences and lookaround the way ClamAV's PCRE matcher does.
	if _, err := regexp2.Compile(pattern, regexp2Options(flags)); err != nil {
		return nil, &PCRESubSigParseError{Msg: "invalid regular expression syntax", Err: err}
	}

	return &PCRESubSig{
		TriggerExpr: trigger,
		Pattern:     pattern,
		Flags:       flags,
		Offset:      offset,
		Modifier:    modifier,
	}, nil
}

func (s *PCRESubSig) String() string {
	var b strings.Builder
	if s.Offset != nil {
		b.WriteString(s.Offset.String())
		b.WriteByte(':')
	}
	b.WriteString(s.TriggerExpr.String())
	b.WriteByte('/')
	b.WriteString(s.Pattern)
	b.WriteByte('/')
	for _, f := range s.Flags {
		b.WriteByte(f.byte())
	}
	if s.Modifier != nil {
		b.WriteString("::")
		b.WriteString(s.Modifier.String())
	}
	return b.String()
}
