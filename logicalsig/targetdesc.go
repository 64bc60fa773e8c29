package logicalsig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clamsig/sigparse/feature"
	"github.com/clamsig/sigparse/filetype"
	"github.com/clamsig/sigparse/numrange"
	"github.com/clamsig/sigparse/targettype"
)

// MinimumEngineSpec is the lowest Engine-attribute minimum a TargetDesc may
// declare, per CLAM-1742.
const MinimumEngineSpec = 51

// TargetDescAttrKind discriminates the ten recognized TargetDesc attributes.
type TargetDescAttrKind int

const (
	AttrEngine TargetDescAttrKind = iota
	AttrTargetType
	AttrFileSize
	AttrEntryPoint
	AttrNumberOfSections
	AttrContainer
	AttrIntermediates
	AttrHandlerType
	AttrIconGroup1
	AttrIconGroup2
)

var attrNames = map[string]TargetDescAttrKind{
	"Engine":           AttrEngine,
	"Target":           AttrTargetType,
	"FileSize":         AttrFileSize,
	"EntryPoint":       AttrEntryPoint,
	"NumberOfSections": AttrNumberOfSections,
	"Container":        AttrContainer,
	"Intermediates":    AttrIntermediates,
	"HandlerType":      AttrHandlerType,
	"IconGroup1":       AttrIconGroup1,
	"IconGroup2":       AttrIconGroup2,
}

func (k TargetDescAttrKind) String() string {
	for name, kind := range attrNames {
		if kind == k {
			return name
		}
	}
	return "Unknown"
}

// TargetDescAttr is one comma-separated attribute of a TargetDesc.
type TargetDescAttr struct {
	Kind TargetDescAttrKind

	EngineRange     numrange.Range[uint32]   // AttrEngine, always Inclusive
	TargetType      targettype.TargetType    // AttrTargetType
	FileSize        numrange.Range[uint64]   // AttrFileSize
	EntryPoint      numrange.Range[uint64]   // AttrEntryPoint
	NumSections     numrange.Range[uint64]   // AttrNumberOfSections
	Container       filetype.FileType        // AttrContainer
	Intermediates   []filetype.FileType      // AttrIntermediates
	HandlerType     filetype.FileType        // AttrHandlerType
	IconGroup1      string                   // AttrIconGroup1
	IconGroup2      string                   // AttrIconGroup2
}

func (a TargetDescAttr) String() string {
	switch a.Kind {
	case AttrEngine:
		return "Engine:" + a.EngineRange.String()
	case AttrTargetType:
		return fmt.Sprintf("Target:%d", a.TargetType.Int())
	case AttrFileSize:
		return "FileSize:" + a.FileSize.String()
	case AttrEntryPoint:
		return "EntryPoint:" + a.EntryPoint.String()
	case AttrNumberOfSections:
		return "NumberOfSections:" + a.NumSections.String()
	case AttrContainer:
		return "Container:" + a.Container.String()
	case AttrIntermediates:
		names := make([]string, len(a.Intermediates))
		for i, ft := range a.Intermediates {
			names[i] = ft.String()
		}
		return "Intermediates:" + strings.Join(names, ">")
	case AttrHandlerType:
		return "HandlerType:" + a.HandlerType.String()
	case AttrIconGroup1:
		return "IconGroup1:" + a.IconGroup1
	case AttrIconGroup2:
		return "IconGroup2:" + a.IconGroup2
	default:
		return ""
	}
}

// TargetDesc is the comma-separated list of attributes selecting which
// files a logical signature applies to.
type TargetDesc struct {
	Attrs []TargetDescAttr
}

// TargetDescParseError reports a malformed TargetDesc field.
type TargetDescParseError struct {
	Attr string
	Msg  string
	Err  error
}

func (e *TargetDescParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("logicalsig: targetdesc %q: %s: %v", e.Attr, e.Msg, e.Err)
	}
	return fmt.Sprintf("logicalsig: targetdesc %q: %s", e.Attr, e.Msg)
}

func (e *TargetDescParseError) Unwrap() error { return e.Err }

// ParseTargetDesc parses a comma-separated TargetDesc field.
func ParseTargetDesc(raw string) (*TargetDesc, error) {
	var td TargetDesc
	for _, attr := range strings.Split(raw, ",") {
		name, value, hasValue := strings.Cut(attr, ":")
		if name == "" {
			return nil, &TargetDescParseError{Attr: attr, Msg: "empty attribute"}
		}
		kind, ok := attrNames[name]
		if !ok {
			return nil, &TargetDescParseError{Attr: attr, Msg: "unknown attribute"}
		}
		if !hasValue {
			return nil, &TargetDescParseError{Attr: attr, Msg: "missing value"}
		}
		parsed, err := parseAttrValue(kind, value)
		if err != nil {
			return nil, &TargetDescParseError{Attr: attr, Msg: "invalid value", Err: err}
		}
		td.Attrs = append(td.Attrs, parsed)
	}
	return &td, nil
}

func parseAttrValue(kind TargetDescAttrKind, value string) (TargetDescAttr, error) {
	switch kind {
	case AttrTargetType:
		n, err := strconv.Atoi(value)
		if err != nil {
			return TargetDescAttr{}, err
		}
		tt, err := targettype.FromInt(n)
		if err != nil {
			return TargetDescAttr{}, err
		}
		return TargetDescAttr{Kind: kind, TargetType: tt}, nil
	case AttrEngine:
		r, err := numrange.ParseFeatureLevelRange(value)
		if err != nil {
			return TargetDescAttr{}, err
		}
		incl, err := toInclusive(r)
		if err != nil {
			return TargetDescAttr{}, err
		}
		return TargetDescAttr{Kind: kind, EngineRange: incl}, nil
	case AttrFileSize:
		r, err := numrange.ParseInclusiveOrExact(value)
		if err != nil {
			return TargetDescAttr{}, err
		}
		return TargetDescAttr{Kind: kind, FileSize: r}, nil
	case AttrEntryPoint:
		r, err := numrange.ParseInclusiveOrExact(value)
		if err != nil {
			return TargetDescAttr{}, err
		}
		return TargetDescAttr{Kind: kind, EntryPoint: r}, nil
	case AttrNumberOfSections:
		r, err := numrange.ParseInclusiveOrExact(value)
		if err != nil {
			return TargetDescAttr{}, err
		}
		return TargetDescAttr{Kind: kind, NumSections: r}, nil
	case AttrContainer:
		ft, err := filetype.Parse(value)
		if err != nil {
			return TargetDescAttr{}, err
		}
		return TargetDescAttr{Kind: kind, Container: ft}, nil
	case AttrIntermediates:
		var fts []filetype.FileType
		for _, part := range strings.Split(value, ">") {
			ft, err := filetype.Parse(part)
			if err != nil {
				return TargetDescAttr{}, err
			}
			fts = append(fts, ft)
		}
		return TargetDescAttr{Kind: kind, Intermediates: fts}, nil
	case AttrHandlerType:
		ft, err := filetype.Parse(value)
		if err != nil {
			return TargetDescAttr{}, err
		}
		return TargetDescAttr{Kind: kind, HandlerType: ft}, nil
	case AttrIconGroup1:
		return TargetDescAttr{Kind: kind, IconGroup1: value}, nil
	case AttrIconGroup2:
		return TargetDescAttr{Kind: kind, IconGroup2: value}, nil
	default:
		return TargetDescAttr{}, fmt.Errorf("unhandled attribute kind %v", kind)
	}
}

// toInclusive requires an Engine range to be expressed inclusively as
// "n-m" (the only form the grammar permits for this attribute); a bare
// "n" (parsed as From by ParseFeatureLevelRange) is rejected, matching
// the original's Range::Inclusive assumption for Engine attrs.
func toInclusive(r numrange.Range[uint32]) (numrange.Range[uint32], error) {
	switch r.Kind {
	case numrange.Inclusive:
		return r, nil
	default:
		return numrange.Range[uint32]{}, fmt.Errorf("Engine attribute requires an inclusive n-m range")
	}
}

func (td *TargetDesc) String() string {
	parts := make([]string, len(td.Attrs))
	for i, a := range td.Attrs {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}

// Features reports the engine capabilities implied by the descriptor. It
// always returns the empty set: no attribute contributes a feature.
func (td *TargetDesc) Features() feature.Set {
	return feature.Empty()
}

// EngineRange returns the declared Engine attribute's range, if present.
func (td *TargetDesc) EngineRange() (numrange.Range[uint32], bool) {
	for _, a := range td.Attrs {
		if a.Kind == AttrEngine {
			return a.EngineRange, true
		}
	}
	return numrange.Range[uint32]{}, false
}

// TargetDescValidationError reports one of the cross-field rules a
// TargetDesc must satisfy.
type TargetDescValidationError struct {
	Msg string
}

func (e *TargetDescValidationError) Error() string { return "logicalsig: targetdesc: " + e.Msg }

// Validate applies the Engine-first/Engine-minimum, native-exec-only, and
// PE-only-icon-group rules described in spec.md §4.4.
func (td *TargetDesc) Validate() error {
	if err := td.validateEngine(); err != nil {
		return err
	}
	if err := td.validateNativeExecAttrs(); err != nil {
		return err
	}
	return td.validateIconGroup()
}

func (td *TargetDesc) validateEngine() error {
	enginePos := -1
	var engineRange numrange.Range[uint32]
	for i, a := range td.Attrs {
		if a.Kind == AttrEngine {
			enginePos = i
			engineRange = a.EngineRange
			break
		}
	}
	if enginePos >= 0 {
		if enginePos != 0 {
			return &TargetDescValidationError{Msg: "Engine attribute present but not first"}
		}
		if engineRange.Lo < MinimumEngineSpec {
			return &TargetDescValidationError{
				Msg: fmt.Sprintf("Engine minimum (%d) is lower than allowed minimum (%d)", engineRange.Lo, MinimumEngineSpec),
			}
		}
		return nil
	}
	for _, a := range td.Attrs {
		if a.Kind == AttrTargetType || a.Kind == AttrIntermediates {
			return &TargetDescValidationError{Msg: fmt.Sprintf("%v attribute requires Engine attribute", a.Kind)}
		}
	}
	return nil
}

func (td *TargetDesc) validateNativeExecAttrs() error {
	isNativeExec := false
	var foundAttr string
	for _, a := range td.Attrs {
		switch a.Kind {
		case AttrTargetType:
			isNativeExec = a.TargetType.IsNativeExecutable()
		case AttrEntryPoint:
			foundAttr = "EntryPoint"
		case AttrNumberOfSections:
			foundAttr = "NumberOfSections"
		}
	}
	if foundAttr != "" && !isNativeExec {
		return &TargetDescValidationError{Msg: foundAttr + " disallowed without native executable Target"}
	}
	return nil
}

func (td *TargetDesc) validateIconGroup() error {
	foundIconGroup := false
	var tt *targettype.TargetType
	for _, a := range td.Attrs {
		switch a.Kind {
		case AttrTargetType:
			if a.TargetType == targettype.PE {
				return nil
			}
			t := a.TargetType
			tt = &t
		case AttrIconGroup1, AttrIconGroup2:
			foundIconGroup = true
		}
	}
	if foundIconGroup {
		if tt != nil {
			return &TargetDescValidationError{Msg: fmt.Sprintf("IconGroup1/2 requires PE Target (found %v)", *tt)}
		}
		return &TargetDescValidationError{Msg: "IconGroup1/2 requires PE Target (found none)"}
	}
	return nil
}
