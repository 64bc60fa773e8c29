// Package pehash implements the PESectionHash signature dialect (.mdb/
// .msb/.mdu/.msu): a file size, a hex digest, and a name, in the reverse
// field order from filehash. Grounded on signature/pehash.rs.
package pehash

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clamsig/sigparse/feature"
	"github.com/clamsig/sigparse/hash"
)

// PESectionHashSig is "size|*:hex-digest:name".
type PESectionHashSig struct {
	Name    string
	Hash    hash.Digest
	Size    uint64
	HasSize bool
}

// ParseError reports a malformed PESectionHash signature line.
type ParseError struct {
	Field string
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pehash: %s: %s: %v", e.Field, e.Msg, e.Err)
	}
	return fmt.Sprintf("pehash: %s: %s", e.Field, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse parses a ':'-delimited PESectionHash signature line.
func Parse(raw string) (*PESectionHashSig, error) {
	fields := strings.Split(raw, ":")
	if len(fields) != 3 {
		return nil, &ParseError{Field: "line", Msg: fmt.Sprintf("expected 3 fields, found %d", len(fields))}
	}

	sig := &PESectionHashSig{Name: fields[2]}
	if fields[0] != "*" {
		size, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return nil, &ParseError{Field: "size", Msg: "not an integer", Err: err}
		}
		sig.Size, sig.HasSize = size, true
	}

	digest, err := hash.Parse(fields[1])
	if err != nil {
		return nil, &ParseError{Field: "hash", Msg: "invalid digest", Err: err}
	}
	sig.Hash = digest

	if sig.Name == "" {
		return nil, &ParseError{Field: "name", Msg: "missing name"}
	}
	return sig, nil
}

// String serializes the signature back to its ':'-delimited line form.
func (s *PESectionHashSig) String() string {
	var b strings.Builder
	if s.HasSize {
		b.WriteString(strconv.FormatUint(s.Size, 10))
	} else {
		b.WriteByte('*')
	}
	b.WriteByte(':')
	b.WriteString(s.Hash.String())
	b.WriteByte(':')
	b.WriteString(s.Name)
	return b.String()
}

// Features reports the engine capability this signature's computed
// minimum feature level is derived from, per spec.md §4.8 (the same rule
// FileHash uses, applied to the PE-section-scoped digest).
func (s *PESectionHashSig) Features() feature.Set {
	if !s.HasSize || s.Hash.Kind == hash.SHA1 || s.Hash.Kind == hash.SHA256 {
		return feature.FromStatic(feature.SizedHashMatch)
	}
	return feature.FromStatic(feature.HashMatch)
}
