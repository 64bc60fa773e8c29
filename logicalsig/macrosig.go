package logicalsig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clamsig/sigparse/feature"
)

// MacroSubSig references a ClamAV macro by ID, matched only when its
// length falls within [Min, Max]. Its form is "${min-max}macro_id$".
type MacroSubSig struct {
	Min      int
	Max      int
	MacroID  int
	Modifier *SubSigModifier
}

func (s *MacroSubSig) SubSigType() SubSigType { return SubSigMacro }

func (s *MacroSubSig) Features() feature.Set { return feature.Empty() }

// MacroSubSigParseError reports a malformed macro sub-signature.
type MacroSubSigParseError struct {
	Msg string
	Err error
}

func (e *MacroSubSigParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("logicalsig: macro subsig: %s: %v", e.Msg, e.Err)
	}
	return "logicalsig: macro subsig: " + e.Msg
}

func (e *MacroSubSigParseError) Unwrap() error { return e.Err }

// identified reports whether the bytes were recognizably an attempt at a
// macro sub-signature (the "${...}...$" shape), so the classification
// cascade should stop here rather than fall through to the next
// classifier. A missing prefix or suffix means the bytes never committed
// to this shape at all.
func (e *MacroSubSigParseError) identified() bool {
	return e.Msg != "missing prefix" && e.Msg != "missing suffix"
}

func parseMacroSubSig(raw string, modifier *SubSigModifier) (*MacroSubSig, error) {
	body, ok := strings.CutPrefix(raw, "${")
	if !ok {
		return nil, &MacroSubSigParseError{Msg: "missing prefix"}
	}
	body, ok = strings.CutSuffix(body, "$")
	if !ok {
		return nil, &MacroSubSigParseError{Msg: "missing suffix"}
	}

	rangeField, macroIDField, ok := strings.Cut(body, "}")
	if !ok {
		return nil, &MacroSubSigParseError{Msg: "missing range"}
	}
	if macroIDField == "" {
		return nil, &MacroSubSigParseError{Msg: "missing macro ID"}
	}
	macroID, err := strconv.Atoi(macroIDField)
	if err != nil {
		return nil, &MacroSubSigParseError{Msg: "parsing macro_id", Err: err}
	}

	minField, maxField, ok := strings.Cut(rangeField, "-")
	if !ok {
		return nil, &MacroSubSigParseError{Msg: "missing range maximum"}
	}
	if minField == "" {
		return nil, &MacroSubSigParseError{Msg: "missing range minimum"}
	}
	min, err := strconv.Atoi(minField)
	if err != nil {
		return nil, &MacroSubSigParseError{Msg: "parsing range minimum", Err: err}
	}
	if maxField == "" {
		return nil, &MacroSubSigParseError{Msg: "missing range maximum"}
	}
	max, err := strconv.Atoi(maxField)
	if err != nil {
		return nil, &MacroSubSigParseError{Msg: "parsing range maximum", Err: err}
	}

	return &MacroSubSig{Min: min, Max: max, MacroID: macroID, Modifier: modifier}, nil
}

func (s *MacroSubSig) String() string {
	out := fmt.Sprintf("${%d-%d}%d$", s.Min, s.Max, s.MacroID)
	if s.Modifier != nil {
		out += "::" + s.Modifier.String()
	}
	return out
}
