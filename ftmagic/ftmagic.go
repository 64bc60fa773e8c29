// Package ftmagic implements the File-type magic signature dialect
// (.ftm-style lines inside .cud/... catalogs): a magic-type-switched
// direct byte comparison, body-signature match, or partition comparison.
// Grounded on signature/ftmagic.rs.
package ftmagic

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/clamsig/sigparse/bodysig"
	"github.com/clamsig/sigparse/extsig"
	"github.com/clamsig/sigparse/feature"
	"github.com/clamsig/sigparse/filetype"
)

// MagicType discriminates the three comparison strategies a File-type
// magic signature can use.
type MagicType int

const (
	DirectCompare    MagicType = 0
	BodySignature    MagicType = 1
	PartitionCompare MagicType = 4
)

func (m MagicType) String() string { return strconv.Itoa(int(m)) }

// FTMagicSig is the six-field (plus optional feature-level pair)
// File-type magic signature.
type FTMagicSig struct {
	MagicType MagicType
	Offset    extsig.Offset
	// MagicBytes holds the raw hex-decoded comparison bytes for
	// DirectCompare/PartitionCompare; BodySig holds the parsed pattern
	// for BodySignature. Exactly one is populated, selected by MagicType.
	MagicBytes []byte
	BodySig    *bodysig.BodySig

	Name     string
	RType    filetype.FileType
	FileType filetype.FileType

	FLevel *extsig.FLevelWindow
}

// ParseError reports a malformed File-type magic signature line.
type ParseError struct {
	Field string
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ftmagic: %s: %s: %v", e.Field, e.Msg, e.Err)
	}
	return fmt.Sprintf("ftmagic: %s: %s", e.Field, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse parses a ':'-delimited File-type magic signature line:
// magic_type:offset:magic_bytes:name:rtype:file_type[:min_flevel[:max_flevel]].
func Parse(raw string) (*FTMagicSig, error) {
	fields := strings.Split(raw, ":")
	if len(fields) < 6 {
		return nil, &ParseError{Field: "line", Msg: fmt.Sprintf("expected at least 6 fields, found %d", len(fields))}
	}

	mtInt, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, &ParseError{Field: "magic_type", Msg: "not an integer", Err: err}
	}
	mt := MagicType(mtInt)
	if mt != DirectCompare && mt != BodySignature && mt != PartitionCompare {
		return nil, &ParseError{Field: "magic_type", Msg: fmt.Sprintf("unrecognized magic type %d", mtInt)}
	}

	off, err := extsig.ParseOffset(fields[1])
	if err != nil {
		return nil, &ParseError{Field: "offset", Msg: "invalid", Err: err}
	}
	if mt != BodySignature {
		if _, ok := off.Absolute(); !ok {
			return nil, &ParseError{Field: "offset", Msg: "direct/partition compare requires an absolute offset"}
		}
	}

	sig := &FTMagicSig{MagicType: mt, Offset: off}

	switch mt {
	case BodySignature:
		bs, err := bodysig.Parse([]byte(fields[2]), bodysig.Config{})
		if err != nil {
			return nil, &ParseError{Field: "magic_bytes", Msg: "invalid body signature", Err: err}
		}
		sig.BodySig = bs
	default:
		b, err := hex.DecodeString(fields[2])
		if err != nil {
			return nil, &ParseError{Field: "magic_bytes", Msg: "not valid hex", Err: err}
		}
		sig.MagicBytes = b
	}

	sig.Name = fields[3]

	rt, err := filetype.Parse(fields[4])
	if err != nil {
		return nil, &ParseError{Field: "rtype", Msg: "unknown file type", Err: err}
	}
	sig.RType = rt

	ft, err := filetype.Parse(fields[5])
	if err != nil {
		return nil, &ParseError{Field: "file_type", Msg: "unknown file type", Err: err}
	}
	sig.FileType = ft

	tail := fields[6:]
	if len(tail) > 0 {
		min, err := strconv.ParseUint(tail[0], 10, 32)
		if err != nil {
			return nil, &ParseError{Field: "min_flevel", Msg: "not an integer", Err: err}
		}
		w := &extsig.FLevelWindow{Min: uint32(min)}
		if len(tail) > 1 {
			max, err := strconv.ParseUint(tail[1], 10, 32)
			if err != nil {
				return nil, &ParseError{Field: "max_flevel", Msg: "not an integer", Err: err}
			}
			w.HasMax, w.Max = true, uint32(max)
		}
		sig.FLevel = w
	}

	return sig, nil
}

// String serializes the signature back to its ':'-delimited line form.
func (s *FTMagicSig) String() string {
	var b strings.Builder
	b.WriteString(s.MagicType.String())
	b.WriteByte(':')
	b.WriteString(s.Offset.String())
	b.WriteByte(':')
	if s.MagicType == BodySignature {
		b.WriteString(s.BodySig.String())
	} else {
		b.WriteString(hex.EncodeToString(s.MagicBytes))
	}
	b.WriteByte(':')
	b.WriteString(s.Name)
	b.WriteByte(':')
	b.WriteString(s.RType.String())
	b.WriteByte(':')
	b.WriteString(s.FileType.String())
	if s.FLevel != nil {
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(s.FLevel.Min), 10))
		if s.FLevel.HasMax {
			b.WriteByte(':')
			b.WriteString(strconv.FormatUint(uint64(s.FLevel.Max), 10))
		}
	}
	return b.String()
}

// Features reports the engine capabilities this signature exercises: a
// body-signature comparison pulls in whatever the embedded BodySig needs,
// while direct/partition comparisons require nothing beyond the base
// engine.
func (s *FTMagicSig) Features() feature.Set {
	if s.MagicType == BodySignature && s.BodySig != nil {
		return s.BodySig.Features()
	}
	return feature.Empty()
}
