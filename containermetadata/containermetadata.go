// Package containermetadata implements the Container Metadata signature
// dialect (.cdb): a name plus colon-separated fields describing a file
// found inside a container (archive, mail, etc.), each of which may be
// "*" (wildcard/absent). Grounded on signature/container_metadata_sig.rs
// and container_metadata_sig/container_size.rs.
package containermetadata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clamsig/sigparse/extsig"
	"github.com/clamsig/sigparse/feature"
	"github.com/clamsig/sigparse/filetype"
	"github.com/clamsig/sigparse/numrange"
)

// ContainerMetadataSig is the eight-field (plus always-empty, reserved
// ninth) Container Metadata signature.
type ContainerMetadataSig struct {
	Name string

	ContainerType    *filetype.FileType
	ContainerSize    *numrange.Range[uint64]
	FileNameRegex    *string
	FileSizeInCont   *numrange.Range[uint64]
	FileSizeReal     *numrange.Range[uint64]
	IsEncrypted      *bool
	FilePos          *numrange.Range[uint64]
	Res1             *string

	FLevel *extsig.FLevelWindow
}

// ParseError reports a malformed Container Metadata signature line.
type ParseError struct {
	Field string
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("containermetadata: %s: %s: %v", e.Field, e.Msg, e.Err)
	}
	return fmt.Sprintf("containermetadata: %s: %s", e.Field, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// splitEscaped splits s on unescaped ':' bytes, treating "\:" as a
// literal colon that does not end a field. Grounded on
// container_metadata_sig.rs's own field splitter, the one place in this
// dialect where the regex field can legitimately contain the delimiter.
func splitEscaped(s string) []string {
	var fields []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == ':' {
			cur.WriteByte(':')
			i++
			continue
		}
		if s[i] == ':' {
			fields = append(fields, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(s[i])
	}
	fields = append(fields, cur.String())
	return fields
}

// escapeRegexField re-inserts the "\:" escape for any literal colon in a
// filename-regex field before serialization.
func escapeRegexField(s string) string {
	return strings.ReplaceAll(s, ":", "\\:")
}

// Parse parses a ':'-delimited Container Metadata signature line: name,
// eight fields (each possibly "*"), and an optional min_flevel[:max_flevel]
// suffix.
func Parse(raw string) (*ContainerMetadataSig, error) {
	fields := splitEscaped(raw)
	if len(fields) == 0 || fields[0] == "" {
		return nil, &ParseError{Field: "name", Msg: "missing name"}
	}
	sig := &ContainerMetadataSig{Name: fields[0]}
	rest := fields[1:]

	const numFields = 8
	if len(rest) < numFields {
		return nil, &ParseError{Field: "line", Msg: fmt.Sprintf("expected at least %d fields, found %d", numFields, len(rest))}
	}

	var err error
	if sig.ContainerType, err = parseFileType(rest[0]); err != nil {
		return nil, &ParseError{Field: "container_type", Msg: "invalid", Err: err}
	}
	if sig.ContainerSize, err = parseSizeRange(rest[1]); err != nil {
		return nil, &ParseError{Field: "container_size", Msg: "invalid", Err: err}
	}
	if rest[2] != "*" {
		v := rest[2]
		sig.FileNameRegex = &v
	}
	if sig.FileSizeInCont, err = parseSizeRange(rest[3]); err != nil {
		return nil, &ParseError{Field: "file_size_in_container", Msg: "invalid", Err: err}
	}
	if sig.FileSizeReal, err = parseSizeRange(rest[4]); err != nil {
		return nil, &ParseError{Field: "file_size_real", Msg: "invalid", Err: err}
	}
	if sig.IsEncrypted, err = parseBool(rest[5]); err != nil {
		return nil, &ParseError{Field: "is_encrypted", Msg: "invalid", Err: err}
	}
	if sig.FilePos, err = parseSizeRange(rest[6]); err != nil {
		return nil, &ParseError{Field: "file_pos", Msg: "invalid", Err: err}
	}
	if rest[7] != "*" {
		v := rest[7]
		sig.Res1 = &v
	}

	tail := rest[numFields:]
	if len(tail) == 1 && tail[0] == "" {
		// The reserved, never-defined Res2 field contributes no token of
		// its own -- just the trailing colon already consumed by the
		// split. A bare trailing colon with nothing after it means no
		// feature-level window was declared.
		tail = nil
	}
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

func parseFileType(s string) (*filetype.FileType, error) {
	if s == "*" {
		return nil, nil
	}
	ft, err := filetype.Parse(s)
	if err != nil {
		return nil, err
	}
	return &ft, nil
}

func parseSizeRange(s string) (*numrange.Range[uint64], error) {
	if s == "*" {
		return nil, nil
	}
	r, err := numrange.ParseInclusiveOrExact(s)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func parseBool(s string) (*bool, error) {
	switch s {
	case "*":
		return nil, nil
	case "0":
		v := false
		return &v, nil
	case "1":
		v := true
		return &v, nil
	default:
		return nil, fmt.Errorf("expected 0, 1, or *, got %q", s)
	}
}

func fieldOrStar(present bool, s string) string {
	if !present {
		return "*"
	}
	return s
}

// String serializes the signature back to its field form: the eight
// fields, an always-present trailing colon for the semantically inert,
// never-defined Res2 field (preserving its place per spec.md §9(c)), and
// any declared feature-level window.
func (s *ContainerMetadataSig) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteByte(':')

	if s.ContainerType != nil {
		b.WriteString(s.ContainerType.String())
	} else {
		b.WriteByte('*')
	}
	b.WriteByte(':')

	if s.ContainerSize != nil {
		b.WriteString(s.ContainerSize.String())
	} else {
		b.WriteByte('*')
	}
	b.WriteByte(':')

	if s.FileNameRegex != nil {
		b.WriteString(escapeRegexField(*s.FileNameRegex))
	} else {
		b.WriteByte('*')
	}
	b.WriteByte(':')

	if s.FileSizeInCont != nil {
		b.WriteString(s.FileSizeInCont.String())
	} else {
		b.WriteByte('*')
	}
	b.WriteByte(':')

	if s.FileSizeReal != nil {
		b.WriteString(s.FileSizeReal.String())
	} else {
		b.WriteByte('*')
	}
	b.WriteByte(':')

	switch {
	case s.IsEncrypted == nil:
		b.WriteByte('*')
	case *s.IsEncrypted:
		b.WriteByte('1')
	default:
		b.WriteByte('0')
	}
	b.WriteByte(':')

	if s.FilePos != nil {
		b.WriteString(s.FilePos.String())
	} else {
		b.WriteByte('*')
	}
	b.WriteByte(':')

	b.WriteString(fieldOrStar(s.Res1 != nil, derefOr(s.Res1)))
	b.WriteByte(':') // trailing colon preserves the place of the never-defined, never-parsed Res2 field.

	if s.FLevel != nil {
		b.WriteString(strconv.FormatUint(uint64(s.FLevel.Min), 10))
		if s.FLevel.HasMax {
			b.WriteByte(':')
			b.WriteString(strconv.FormatUint(uint64(s.FLevel.Max), 10))
		}
	}

	return b.String()
}

func derefOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Features reports the engine capability required to evaluate
// container-metadata signatures at all.
func (s *ContainerMetadataSig) Features() feature.Set {
	return feature.FromStatic(feature.ContentMetadataSig)
}
