package extsig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clamsig/sigparse/bodysig"
	"github.com/clamsig/sigparse/feature"
	"github.com/clamsig/sigparse/targettype"
)

// SubSigModifier is the optional "::"-suffix modifier a sub-signature
// embedding of an ExtendedSig can carry (ascii/case-insensitive/widechar/
// fullword). Defined here rather than imported from logicalsig to avoid a
// dependency cycle; logicalsig converts its own SubSigModifier into this
// shape when embedding an ExtendedSig as a sub-signature.
type SubSigModifier struct {
	ASCII           bool
	CaseInsensitive bool
	WideChar        bool
	MatchFullWord   bool
}

// ExtendedSig is the Extended signature dialect: name, target type,
// offset, and optional hex-signature body. Offset is optional only when
// embedded as a logical sub-signature with no standalone offset field.
type ExtendedSig struct {
	Name       string
	HasName    bool
	TargetType targettype.TargetType
	Offset     *Offset
	BodySig    *bodysig.BodySig
	Modifier   *SubSigModifier
}

// ParseError reports a malformed Extended signature line.
type ParseError struct {
	Field string
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extsig: %s: %s: %v", e.Field, e.Msg, e.Err)
	}
	return fmt.Sprintf("extsig: %s: %s", e.Field, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse parses a standalone Extended signature line ("name:targettype:
// offset:hexsig[:min_flevel[:max_flevel]]"), returning the parsed value and
// any declared feature-level window (nil if none was declared).
func Parse(raw string) (*ExtendedSig, *FLevelWindow, error) {
	fields := strings.Split(raw, ":")
	if len(fields) == 0 || fields[0] == "" {
		return nil, nil, &ParseError{Field: "name", Msg: "missing name"}
	}
	name := fields[0]
	fields = fields[1:]

	if len(fields) == 0 {
		return nil, nil, &ParseError{Field: "target_type", Msg: "missing field"}
	}
	ttInt, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, nil, &ParseError{Field: "target_type", Msg: "not an integer", Err: err}
	}
	tt, err := targettype.FromInt(ttInt)
	if err != nil {
		return nil, nil, &ParseError{Field: "target_type", Msg: "unknown target type", Err: err}
	}
	fields = fields[1:]

	if len(fields) == 0 {
		return nil, nil, &ParseError{Field: "offset", Msg: "missing field"}
	}
	off, err := ParseOffset(fields[0])
	if err != nil {
		return nil, nil, &ParseError{Field: "offset", Msg: "invalid offset", Err: err}
	}
	fields = fields[1:]

	if len(fields) == 0 {
		return nil, nil, &ParseError{Field: "hex_signature", Msg: "missing field"}
	}
	var body *bodysig.BodySig
	if fields[0] != "*" {
		body, err = bodysig.Parse([]byte(fields[0]), bodysig.Config{})
		if err != nil {
			return nil, nil, &ParseError{Field: "hex_signature", Msg: "invalid body signature", Err: err}
		}
	}
	fields = fields[1:]

	var window *FLevelWindow
	if len(fields) > 2 {
		return nil, nil, &ParseError{Field: "line", Msg: fmt.Sprintf("%d trailing fields after hex_signature, at most 2 permitted", len(fields))}
	}
	if len(fields) > 0 {
		min, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return nil, nil, &ParseError{Field: "min_flevel", Msg: "not an integer", Err: err}
		}
		w := &FLevelWindow{Min: uint32(min)}
		if len(fields) > 1 {
			max, err := strconv.ParseUint(fields[1], 10, 32)
			if err != nil {
				return nil, nil, &ParseError{Field: "max_flevel", Msg: "not an integer", Err: err}
			}
			w.HasMax = true
			w.Max = uint32(max)
		}
		window = w
	}

	return &ExtendedSig{
		Name:       name,
		HasName:    true,
		TargetType: tt,
		Offset:     &off,
		BodySig:    body,
	}, window, nil
}

// FLevelWindow is the parsed min[-max] feature-level declaration carried
// alongside (not inside) a signature's structural fields.
type FLevelWindow struct {
	Min    uint32
	HasMax bool
	Max    uint32
}

func (w *FLevelWindow) String() string {
	if w == nil {
		return ""
	}
	if w.HasMax {
		return fmt.Sprintf("%d-%d", w.Min, w.Max)
	}
	return fmt.Sprintf("%d-", w.Min)
}

// NameOrAnonymous returns the signature's name, or "anonymous" when it has none.
func (s *ExtendedSig) NameOrAnonymous() string {
	if s.HasName {
		return s.Name
	}
	return "anonymous"
}

// Features reports the engine capabilities the body signature exercises.
func (s *ExtendedSig) Features() feature.Set {
	if s.BodySig == nil {
		return feature.Empty()
	}
	return s.BodySig.Features()
}

// String serializes the signature back to its standalone-line form,
// omitting trailing fields that were never declared. A nil body is
// rendered as "*", matching spec.md's standalone-ExtendedSig contract.
func (s *ExtendedSig) String() string {
	var b strings.Builder
	if s.HasName {
		b.WriteString(s.Name)
		b.WriteByte(':')
	}
	b.WriteString(strconv.Itoa(s.TargetType.Int()))
	b.WriteByte(':')
	if s.Offset != nil {
		b.WriteString(s.Offset.String())
	}
	b.WriteByte(':')
	if s.BodySig != nil {
		b.WriteString(s.BodySig.String())
	} else {
		b.WriteByte('*')
	}
	return b.String()
}

// ValidationError reports a mismatch between a signature's declared
// feature-level window and the level computed from the features it
// actually exercises.
type ValidationError struct {
	Declared *FLevelWindow
	Computed uint32
	Features feature.Set
}

func (e *ValidationError) Error() string {
	if e.Declared == nil {
		return fmt.Sprintf("extsig: feature level %d required by %v but none declared", e.Computed, e.Features.Features())
	}
	return fmt.Sprintf("extsig: declared minimum feature level %d is below the required %d (needed by %v)",
		e.Declared.Min, e.Computed, e.Features.Features())
}

// Validate checks window against the signature's computed minimum
// feature level, per spec.md §4.4/§7's MinFLevelNotSpecified /
// SpecifiedMinFLevelTooLow rules.
func (s *ExtendedSig) Validate(window *FLevelWindow) error {
	fs := s.Features()
	computed := fs.MinLevel()
	if computed == 0 {
		return nil
	}
	if window == nil {
		return &ValidationError{Computed: computed, Features: fs}
	}
	if window.Min < computed {
		return &ValidationError{Declared: window, Computed: computed, Features: fs}
	}
	return nil
}

// AppendLogicalSubSig serializes s the way logicalsig embeds an
// ExtendedSig sub-signature: neither the name nor the target type is
// written (a sub-signature's target always follows the enclosing
// signature's own TargetDesc), and an absent body is omitted entirely
// rather than rendered as "*".
func (s *ExtendedSig) AppendLogicalSubSig(b *strings.Builder) {
	if s.Offset != nil {
		b.WriteString(s.Offset.String())
		if s.BodySig != nil {
			b.WriteByte(':')
		}
	}
	if s.BodySig != nil {
		b.WriteString(s.BodySig.String())
	}
}
