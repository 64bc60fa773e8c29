// Package filehash implements the FileHash signature dialect (.hdb/.hsb/
// .hdu/.hsu): a hex digest, an optional file size, and a name. Grounded on
// signature/filehash.rs, sharing its hash-type inference with pehash via
// the hash package.
package filehash

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clamsig/sigparse/feature"
	"github.com/clamsig/sigparse/hash"
)

// FileHashSig is "hex-digest:size|*:name".
type FileHashSig struct {
	Name    string
	Hash    hash.Digest
	Size    uint64
	HasSize bool
}

// ParseError reports a malformed FileHash signature line.
type ParseError struct {
	Field string
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("filehash: %s: %s: %v", e.Field, e.Msg, e.Err)
	}
	return fmt.Sprintf("filehash: %s: %s", e.Field, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse parses a ':'-delimited FileHash signature line.
func Parse(raw string) (*FileHashSig, error) {
	fields := strings.Split(raw, ":")
	if len(fields) != 3 {
		return nil, &ParseError{Field: "line", Msg: fmt.Sprintf("expected 3 fields, found %d", len(fields))}
	}

	digest, err := hash.Parse(fields[0])
	if err != nil {
		return nil, &ParseError{Field: "hash", Msg: "invalid digest", Err: err}
	}

	sig := &FileHashSig{Hash: digest, Name: fields[2]}
	if fields[1] != "*" {
		size, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return nil, &ParseError{Field: "size", Msg: "not an integer", Err: err}
		}
		sig.Size, sig.HasSize = size, true
	}
	if sig.Name == "" {
		return nil, &ParseError{Field: "name", Msg: "missing name"}
	}
	return sig, nil
}

// String serializes the signature back to its ':'-delimited line form.
func (s *FileHashSig) String() string {
	var b strings.Builder
	b.WriteString(s.Hash.String())
	b.WriteByte(':')
	if s.HasSize {
		b.WriteString(strconv.FormatUint(s.Size, 10))
	} else {
		b.WriteByte('*')
	}
	b.WriteByte(':')
	b.WriteString(s.Name)
	return b.String()
}

// Features reports the engine capability this signature's computed
// minimum feature level is derived from, per spec.md §4.8.
func (s *FileHashSig) Features() feature.Set {
	if !s.HasSize || s.Hash.Kind == hash.SHA1 || s.Hash.Kind == hash.SHA256 {
		return feature.FromStatic(feature.SizedHashMatch)
	}
	return feature.FromStatic(feature.HashMatch)
}
