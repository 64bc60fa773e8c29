// Package targettype identifies the class of file a signature is meant to
// be evaluated against. Grounded on signature/targettype.rs's numeric
// discriminants, which are load-bearing: they appear literally in the
// TargetDesc "Target:n" attribute and in ExtendedSig's second field.
package targettype

import "fmt"

// TargetType is the file class a signature targets.
type TargetType int

const (
	Any TargetType = iota
	PE
	OLE2
	HTML
	Mail
	Graphics
	ELF
	Text
	Unused
	MachO
	PDF
	Flash
	Java
)

var names = map[TargetType]string{
	Any:      "Any",
	PE:       "PE",
	OLE2:     "OLE2",
	HTML:     "HTML",
	Mail:     "Mail",
	Graphics: "Graphics",
	ELF:      "ELF",
	Text:     "Text",
	Unused:   "Unused",
	MachO:    "MachO",
	PDF:      "PDF",
	Flash:    "Flash",
	Java:     "Java",
}

func (t TargetType) String() string {
	if s, ok := names[t]; ok {
		return s
	}
	return fmt.Sprintf("TargetType(%d)", int(t))
}

// Valid reports whether t is one of the thirteen recognized target types.
func (t TargetType) Valid() bool {
	return t >= Any && t <= Java
}

// Int returns the numeric discriminant written into an ExtendedSig's
// TargetType field and a TargetDesc's "Target:n" attribute.
func (t TargetType) Int() int { return int(t) }

// FromInt converts a raw numeric target type (as found in a "Target:n"
// attribute) into a TargetType, failing if it falls outside the known range.
func FromInt(n int) (TargetType, error) {
	t := TargetType(n)
	if !t.Valid() {
		return 0, fmt.Errorf("targettype: unknown target type %d", n)
	}
	return t, nil
}

// IsNativeExecutable reports whether t is one of the binary-executable
// target types that certain TargetDesc attributes (EntryPoint and
// NumberOfSections) are restricted to.
func (t TargetType) IsNativeExecutable() bool {
	switch t {
	case PE, ELF, MachO:
		return true
	default:
		return false
	}
}
