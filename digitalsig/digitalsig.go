// Package digitalsig implements the Digital signature dialect (.sign): a
// feature-level window plus a PKCS#7 PEM-wrapped payload. Grounded on
// signature/digital_sig.rs, adapted to github.com/digitorus/pkcs7 for the
// structural PKCS#7 parse (the original defers to OpenSSL).
package digitalsig

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/digitorus/pkcs7"

	"github.com/clamsig/sigparse/feature"
)

const (
	beginMarker = "-----BEGIN PKCS7-----"
	endMarker   = "-----END PKCS7-----"
)

// DigitalSig is the parsed Digital signature: a feature-level window and
// the structurally-validated PKCS#7 envelope.
type DigitalSig struct {
	FLevelMin uint32
	HasMax    bool
	FLevelMax uint32

	// Payload is the decoded PKCS#7 DER bytes, re-encoded to base64 (and
	// re-wrapped with the PEM markers) on serialization.
	Payload []byte
}

// ParseError reports a malformed Digital signature line.
type ParseError struct {
	Field string
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("digitalsig: %s: %s: %v", e.Field, e.Msg, e.Err)
	}
	return fmt.Sprintf("digitalsig: %s: %s", e.Field, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse parses a ':'-delimited Digital signature line:
// flevel_min:flevel_max:format:payload. flevel_max may be empty (open
// range). Only the "pkcs7-pem" format is recognized.
func Parse(raw string) (*DigitalSig, error) {
	fields := strings.SplitN(raw, ":", 4)
	if len(fields) != 4 {
		return nil, &ParseError{Field: "line", Msg: fmt.Sprintf("expected 4 fields, found %d", len(fields))}
	}

	min, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return nil, &ParseError{Field: "flevel_min", Msg: "not an integer", Err: err}
	}
	sig := &DigitalSig{FLevelMin: uint32(min)}

	if fields[1] != "" {
		max, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, &ParseError{Field: "flevel_max", Msg: "not an integer", Err: err}
		}
		sig.HasMax, sig.FLevelMax = true, uint32(max)
	}

	if fields[2] != "pkcs7-pem" {
		return nil, &ParseError{Field: "format", Msg: fmt.Sprintf("unrecognized format %q", fields[2])}
	}

	body := stripPEMMarkers(fields[3])
	der, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, &ParseError{Field: "payload", Msg: "invalid base64", Err: err}
	}
	if _, err := pkcs7.Parse(der); err != nil {
		return nil, &ParseError{Field: "payload", Msg: "malformed PKCS#7 envelope", Err: err}
	}
	sig.Payload = der

	return sig, nil
}

// stripPEMMarkers removes an optional BEGIN/END PKCS7 envelope wrapping
// the base64 body, tolerating the markers being implicit (absent) in the
// raw field, per spec.md §4.9.
func stripPEMMarkers(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, beginMarker)
	s = strings.TrimSuffix(s, endMarker)
	return strings.TrimSpace(s)
}

// String serializes the signature back to its ':'-delimited line form,
// re-wrapping the payload with the implicit PEM markers.
func (s *DigitalSig) String() string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(uint64(s.FLevelMin), 10))
	b.WriteByte(':')
	if s.HasMax {
		b.WriteString(strconv.FormatUint(uint64(s.FLevelMax), 10))
	}
	b.WriteString(":pkcs7-pem:")
	b.WriteString(beginMarker)
	b.WriteString(base64.StdEncoding.EncodeToString(s.Payload))
	b.WriteString(endMarker)
	return b.String()
}

// Features reports the engine capability required to evaluate a digital
// signature envelope at all.
func (s *DigitalSig) Features() feature.Set {
	return feature.FromStatic(feature.DigitalSignaturePkcs7Pem)
}
