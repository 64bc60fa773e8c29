// Package phishing implements the Phishing URL signature dialect (.pdb/
// .gdb/.wdb): a prefix-selected regex pair, hostname literal/pair, or
// Google Safe Browsing predicate. Grounded on signature/phishing_sig.rs.
package phishing

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/clamsig/sigparse/feature"
	"github.com/clamsig/sigparse/numrange"
)

// Kind discriminates the five shapes a Phishing URL signature can take.
type Kind int

const (
	KindBlockRegexPair         Kind = iota // "R[filter]" -- PDB regex pair
	KindBlockDisplayedHostname             // "H[filter]" -- PDB displayed hostname
	KindAllowRegexPair                     // "X" -- WDB regex pair
	KindAllowHostnamePair                  // "M" -- WDB real/displayed hostname pair
	KindGSB                                // "S"/"S1"/"S2" -- Google Safe Browsing
)

// GSBSelector distinguishes the three Google Safe Browsing prefixes.
type GSBSelector int

const (
	GSBPlain GSBSelector = iota
	GSBBlock1
	GSBBlock2
)

func (g GSBSelector) String() string {
	switch g {
	case GSBBlock1:
		return "S1"
	case GSBBlock2:
		return "S2"
	default:
		return "S"
	}
}

// GSBPredicateKind selects the shape of a Google Safe Browsing predicate.
type GSBPredicateKind int

const (
	GSBHostPrefix   GSBPredicateKind = iota // 'P': 4-byte hex host-prefix hash
	GSBFullHash                             // 'F': SHA-256, mandatory
	GSBAllowListHash                        // 'W': SHA-256 allow-list, only valid with bare "S"
)

// PhishingSig is the parsed, classified Phishing URL signature.
type PhishingSig struct {
	Kind Kind

	// Filter carries the ignored bracketed suffix on "R"/"H", preserved
	// verbatim for round-tripping.
	Filter string

	RealRegex      string
	DisplayedRegex string

	DisplayedHostname string
	RealHostname      string

	GSBSel        GSBSelector
	PredicateKind GSBPredicateKind
	PredicateHash []byte

	FLevel *numrange.Range[uint32]
}

// ParseError reports a malformed Phishing URL signature line.
type ParseError struct {
	Field string
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("phishing: %s: %s: %v", e.Field, e.Msg, e.Err)
	}
	return fmt.Sprintf("phishing: %s: %s", e.Field, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse parses a ':'-delimited Phishing URL signature line.
func Parse(raw string) (*PhishingSig, error) {
	fields := strings.Split(raw, ":")
	if len(fields) == 0 || fields[0] == "" {
		return nil, &ParseError{Field: "selector", Msg: "missing selector field"}
	}
	selector := fields[0]
	rest := fields[1:]

	switch {
	case selector == "S" || selector == "S1" || selector == "S2":
		return parseGSB(selector, rest)
	case strings.HasPrefix(selector, "R"):
		return parseRegexPair(KindBlockRegexPair, selector[1:], rest)
	case strings.HasPrefix(selector, "H"):
		return parseDisplayedHostname(selector[1:], rest)
	case selector == "X":
		return parseRegexPair(KindAllowRegexPair, "", rest)
	case selector == "M":
		return parseHostnamePair(rest)
	default:
		return nil, &ParseError{Field: "selector", Msg: fmt.Sprintf("unrecognized selector %q", selector)}
	}
}

func parseFLevel(rest []string, field string) (*numrange.Range[uint32], error) {
	if len(rest) == 0 {
		return nil, nil
	}
	r, err := numrange.ParseFeatureLevelRange(rest[0])
	if err != nil {
		return nil, &ParseError{Field: field, Msg: "invalid feature level", Err: err}
	}
	return &r, nil
}

func parseRegexPair(kind Kind, filter string, rest []string) (*PhishingSig, error) {
	if len(rest) < 2 {
		return nil, &ParseError{Field: "regex_pair", Msg: "missing real/displayed regex fields"}
	}
	if _, err := regexp2.Compile(rest[0], regexp2.None); err != nil {
		return nil, &ParseError{Field: "real_regex", Msg: "invalid regular expression syntax", Err: err}
	}
	if _, err := regexp2.Compile(rest[1], regexp2.None); err != nil {
		return nil, &ParseError{Field: "displayed_regex", Msg: "invalid regular expression syntax", Err: err}
	}
	flevel, err := parseFLevel(rest[2:], "flevel")
	if err != nil {
		return nil, err
	}
	return &PhishingSig{
		Kind:           kind,
		Filter:         filter,
		RealRegex:      rest[0],
		DisplayedRegex: rest[1],
		FLevel:         flevel,
	}, nil
}

func parseDisplayedHostname(filter string, rest []string) (*PhishingSig, error) {
	if len(rest) < 1 {
		return nil, &ParseError{Field: "displayed_hostname", Msg: "missing field"}
	}
	flevel, err := parseFLevel(rest[1:], "flevel")
	if err != nil {
		return nil, err
	}
	return &PhishingSig{
		Kind:              KindBlockDisplayedHostname,
		Filter:            filter,
		DisplayedHostname: rest[0],
		FLevel:            flevel,
	}, nil
}

func parseHostnamePair(rest []string) (*PhishingSig, error) {
	if len(rest) < 2 {
		return nil, &ParseError{Field: "hostname_pair", Msg: "missing real/displayed hostname fields"}
	}
	flevel, err := parseFLevel(rest[2:], "flevel")
	if err != nil {
		return nil, err
	}
	return &PhishingSig{
		Kind:              KindAllowHostnamePair,
		RealHostname:      rest[0],
		DisplayedHostname: rest[1],
		FLevel:            flevel,
	}, nil
}

func parseGSB(selector string, rest []string) (*PhishingSig, error) {
	var sel GSBSelector
	switch selector {
	case "S":
		sel = GSBPlain
	case "S1":
		sel = GSBBlock1
	case "S2":
		sel = GSBBlock2
	}

	if len(rest) < 2 {
		return nil, &ParseError{Field: "gsb", Msg: "missing predicate type/hash fields"}
	}
	var pk GSBPredicateKind
	switch rest[0] {
	case "P":
		pk = GSBHostPrefix
	case "F":
		pk = GSBFullHash
	case "W":
		if sel != GSBPlain {
			return nil, &ParseError{Field: "predicate_type", Msg: "W allow-list predicate is only valid with bare S"}
		}
		pk = GSBAllowListHash
	default:
		return nil, &ParseError{Field: "predicate_type", Msg: fmt.Sprintf("unrecognized predicate type %q", rest[0])}
	}

	h, err := hex.DecodeString(rest[1])
	if err != nil {
		return nil, &ParseError{Field: "predicate_hash", Msg: "not valid hex", Err: err}
	}
	switch pk {
	case GSBHostPrefix:
		if len(h) != 4 {
			return nil, &ParseError{Field: "predicate_hash", Msg: fmt.Sprintf("host-prefix hash must be 4 bytes, got %d", len(h))}
		}
	case GSBFullHash, GSBAllowListHash:
		if len(h) != 32 {
			return nil, &ParseError{Field: "predicate_hash", Msg: fmt.Sprintf("SHA-256 hash must be 32 bytes, got %d", len(h))}
		}
	}

	flevel, err := parseFLevel(rest[2:], "flevel")
	if err != nil {
		return nil, err
	}

	return &PhishingSig{
		Kind:          KindGSB,
		GSBSel:        sel,
		PredicateKind: pk,
		PredicateHash: h,
		FLevel:        flevel,
	}, nil
}

// Name implements the common Signature surface: every phishing signature
// is anonymous ("?") except the fixed-name S1 GSB block entry.
func (s *PhishingSig) Name() string {
	if s.Kind == KindGSB && s.GSBSel == GSBBlock1 {
		return "Phishing.URL.Blocked"
	}
	return "?"
}

// String serializes the signature back to its ':'-delimited line form.
func (s *PhishingSig) String() string {
	var b strings.Builder
	switch s.Kind {
	case KindBlockRegexPair:
		b.WriteByte('R')
		b.WriteString(s.Filter)
		b.WriteByte(':')
		b.WriteString(s.RealRegex)
		b.WriteByte(':')
		b.WriteString(s.DisplayedRegex)
	case KindBlockDisplayedHostname:
		b.WriteByte('H')
		b.WriteString(s.Filter)
		b.WriteByte(':')
		b.WriteString(s.DisplayedHostname)
	case KindAllowRegexPair:
		b.WriteString("X:")
		b.WriteString(s.RealRegex)
		b.WriteByte(':')
		b.WriteString(s.DisplayedRegex)
	case KindAllowHostnamePair:
		b.WriteString("M:")
		b.WriteString(s.RealHostname)
		b.WriteByte(':')
		b.WriteString(s.DisplayedHostname)
	case KindGSB:
		b.WriteString(s.GSBSel.String())
		b.WriteByte(':')
		switch s.PredicateKind {
		case GSBHostPrefix:
			b.WriteByte('P')
		case GSBFullHash:
			b.WriteByte('F')
		case GSBAllowListHash:
			b.WriteByte('W')
		}
		b.WriteByte(':')
		b.WriteString(hex.EncodeToString(s.PredicateHash))
	}
	if s.FLevel != nil {
		b.WriteByte(':')
		b.WriteString(flevelString(*s.FLevel))
	}
	return b.String()
}

// flevelString renders a feature-level field the way this dialect's
// grammar expects: a bare minimum ("n") when no maximum was declared, or
// an inclusive range ("n-m") when one was -- unlike numrange.Range's own
// String, which renders an open minimum as "n-" for the body-signature
// "{n-}" byte-range grammar.
func flevelString(r numrange.Range[uint32]) string {
	if r.Kind == numrange.Inclusive {
		return fmt.Sprintf("%d-%d", r.Lo, r.Hi)
	}
	return fmt.Sprintf("%d", r.Lo)
}

// Features reports the engine capabilities required; Phishing URL
// signatures gate no named capability beyond the base engine.
func (s *PhishingSig) Features() feature.Set { return feature.Empty() }
