// Package sigtype maps a signature database file's extension to the
// dialect it holds. Grounded on signature/sigtype.rs's
// SigType::from_file_extension, extended per the containing spec to also
// recognize ".sign" (Digital) and to name the two dialects this module
// recognizes but does not parse (Bytecode, Yara) distinctly from "unknown".
package sigtype

import (
	"path/filepath"
	"strings"
)

// SigType identifies a signature-database dialect.
type SigType int

const (
	Extended SigType = iota
	Logical
	ContainerMetadata
	Bytecode
	PhishingURL
	FileHash
	PESectionHash
	Yara
	Digital
)

var names = map[SigType]string{
	Extended:           "Extended",
	Logical:            "Logical",
	ContainerMetadata:  "ContainerMetadata",
	Bytecode:           "Bytecode",
	PhishingURL:        "PhishingURL",
	FileHash:           "FileHash",
	PESectionHash:      "PESectionHash",
	Yara:               "Yara",
	Digital:            "Digital",
}

func (t SigType) String() string { return names[t] }

// Unsupported reports whether t is recognized but intentionally not
// parsed by this module (Bytecode and Yara carry their own bespoke
// languages entirely outside the textual signature grammar).
func (t SigType) Unsupported() bool {
	return t == Bytecode || t == Yara
}

// FromFileExtension returns the SigType implied by a bare extension (no
// leading dot), and false if the extension is not recognized.
func FromFileExtension(ext string) (SigType, bool) {
	switch ext {
	case "ndb", "ndu":
		return Extended, true
	case "ldb", "ldu":
		return Logical, true
	case "cdb":
		return ContainerMetadata, true
	case "cbc":
		return Bytecode, true
	case "pdb", "gdb", "wdb":
		return PhishingURL, true
	case "hdb", "hsb", "hdu", "hsu":
		return FileHash, true
	case "mdb", "msb", "mdu", "msu":
		return PESectionHash, true
	case "yara":
		return Yara, true
	case "sign":
		return Digital, true
	default:
		return 0, false
	}
}

// FromFilePath returns the SigType implied by a file path's extension.
func FromFilePath(path string) (SigType, bool) {
	ext := filepath.Ext(path)
	if ext == "" {
		return 0, false
	}
	return FromFileExtension(strings.TrimPrefix(ext, "."))
}
