// Package logicalsig implements the Logical signature dialect: a
// TargetDescription, a logical expression over sub-signature indices, and
// the ordered list of sub-signatures themselves. Grounded on
// signature/logical_sig/targetdesc.rs, expression.rs, subsig.rs, and
// logical_sig.rs.
package logicalsig

import (
	"fmt"
	"strings"

	"github.com/clamsig/sigparse/extsig"
	"github.com/clamsig/sigparse/feature"
)

// LogicalSig is a name, a TargetDesc, an &/| expression over sub-signature
// indices, and the ordered sub-signatures the expression references.
type LogicalSig struct {
	Name       string
	TargetDesc *TargetDesc
	Expression Element
	SubSigs    []SubSig
}

// ParseError reports a malformed logical signature line.
type ParseError struct {
	Field string
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("logicalsig: %s: %s: %v", e.Field, e.Msg, e.Err)
	}
	return fmt.Sprintf("logicalsig: %s: %s", e.Field, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse parses a ';'-delimited logical signature line: name;target_desc;
// expression;subsig0;subsig1;...
func Parse(raw string) (*LogicalSig, error) {
	fields := strings.Split(raw, ";")
	if len(fields) == 0 || fields[0] == "" {
		return nil, &ParseError{Field: "name", Msg: "missing name"}
	}
	name := fields[0]
	fields = fields[1:]

	if len(fields) == 0 {
		return nil, &ParseError{Field: "target_desc", Msg: "missing field"}
	}
	td, err := ParseTargetDesc(fields[0])
	if err != nil {
		return nil, &ParseError{Field: "target_desc", Msg: "invalid", Err: err}
	}
	fields = fields[1:]

	if len(fields) == 0 {
		return nil, &ParseError{Field: "expression", Msg: "missing field"}
	}
	expr, err := ParseExpression(fields[0])
	if err != nil {
		return nil, &ParseError{Field: "expression", Msg: "invalid", Err: err}
	}
	fields = fields[1:]

	if len(fields) == 0 {
		return nil, &ParseError{Field: "sub_sigs", Msg: "expected at least one sub-signature"}
	}
	var subSigs []SubSig
	for i, f := range fields {
		modifier, body := findModifier(f)
		sig, err := ParseSubSig(body, modifier)
		if err != nil {
			return nil, &ParseError{Field: fmt.Sprintf("subsig %d", i), Msg: "invalid", Err: err}
		}
		subSigs = append(subSigs, sig)
	}

	return &LogicalSig{Name: name, TargetDesc: td, Expression: expr, SubSigs: subSigs}, nil
}

// findModifier searches from the end of a sub-signature field for a
// trailing "::xxx" modifier. If found, it returns the modifier and the
// field with the modifier (and its delimiter) stripped. If any unknown
// modifier letter is found, or the "::" delimiter is absent, it returns
// nil and the field unchanged.
func findModifier(field string) (*SubSigModifier, string) {
	const (
		stateReadModifier = iota
		stateReadDelimiter
	)

	var modifier SubSigModifier
	state := stateReadModifier

	for pos := len(field) - 1; pos >= 0; pos-- {
		c := field[pos]
		switch state {
		case stateReadModifier:
			switch c {
			case 'a':
				modifier.ASCII = true
			case 'i':
				modifier.CaseInsensitive = true
			case 'w':
				modifier.WideChar = true
			case 'f':
				modifier.MatchFullWord = true
			case ':':
				state = stateReadDelimiter
				continue
			default:
				return nil, field
			}
		case stateReadDelimiter:
			if c == ':' {
				m := modifier
				return &m, field[:pos]
			}
			return nil, field
		}
	}
	return nil, field
}

// Features reports the union of every sub-signature's and the target
// descriptor's required engine capabilities.
func (s *LogicalSig) Features() feature.Set {
	fs := feature.Empty()
	for _, sub := range s.SubSigs {
		fs.Merge(sub.Features())
	}
	fs.Merge(s.TargetDesc.Features())
	return fs
}

// String serializes the signature back to its ';'-delimited line form.
func (s *LogicalSig) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteByte(';')
	b.WriteString(s.TargetDesc.String())
	b.WriteByte(';')
	b.WriteString(s.Expression.String())
	for _, sub := range s.SubSigs {
		b.WriteByte(';')
		b.WriteString(sub.String())
	}
	return b.String()
}

// ValidationError reports a failure in one of a logical signature's
// cross-field rules: its TargetDesc, an embedded Extended sub-signature's
// own feature-level window, or the signature's overall declared minimum
// engine level.
type ValidationError struct {
	TargetDesc *TargetDescValidationError
	SubSigIdx  int
	SubSigErr  error
	MinFLevel  *extsig.ValidationError
}

func (e *ValidationError) Error() string {
	switch {
	case e.TargetDesc != nil:
		return fmt.Sprintf("logicalsig: %v", e.TargetDesc)
	case e.SubSigErr != nil:
		return fmt.Sprintf("logicalsig: validating subsig %d: %v", e.SubSigIdx, e.SubSigErr)
	default:
		return fmt.Sprintf("logicalsig: %v", e.MinFLevel)
	}
}

func (e *ValidationError) Unwrap() error {
	switch {
	case e.TargetDesc != nil:
		return e.TargetDesc
	case e.SubSigErr != nil:
		return e.SubSigErr
	default:
		return e.MinFLevel
	}
}

// engineWindow converts the TargetDesc's Engine attribute, if any, into
// the FLevelWindow shape shared with extsig's own validation.
func (s *LogicalSig) engineWindow() *extsig.FLevelWindow {
	r, ok := s.TargetDesc.EngineRange()
	if !ok {
		return nil
	}
	return &extsig.FLevelWindow{Min: r.Lo, HasMax: true, Max: r.Hi}
}

// Validate applies the TargetDesc's structural rules, each embedded
// Extended sub-signature's own feature-level window, and the overall
// signature's declared-vs-computed minimum engine level.
func (s *LogicalSig) Validate() error {
	if err := s.TargetDesc.Validate(); err != nil {
		tdErr, _ := err.(*TargetDescValidationError)
		return &ValidationError{TargetDesc: tdErr}
	}

	window := s.engineWindow()
	for idx, sub := range s.SubSigs {
		adapter, ok := sub.(*extSigAdapter)
		if !ok {
			continue
		}
		if err := adapter.ExtendedSig.Validate(window); err != nil {
			return &ValidationError{SubSigIdx: idx, SubSigErr: err}
		}
	}

	fs := s.Features()
	computed := fs.MinLevel()
	if computed == 0 {
		return nil
	}
	if window == nil || window.Min < computed {
		return &ValidationError{MinFLevel: &extsig.ValidationError{Declared: window, Computed: computed, Features: fs}}
	}
	return nil
}
