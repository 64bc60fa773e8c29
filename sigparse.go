// Package sigparse is the top-level entry point: it dispatches a raw
// signature-database line to the parser for its dialect (selected by
// sigtype.SigType, itself derived from a file extension) and returns the
// common Signature interface plus the declared feature-level window
// found alongside it. Grounded on signature.rs's top-level parse/
// ParseError dispatch, wrapping each dialect-specific error type the way
// the original's FromSigBytes variant does.
package sigparse

import (
	"fmt"

	"github.com/clamsig/sigparse/containermetadata"
	"github.com/clamsig/sigparse/digitalsig"
	"github.com/clamsig/sigparse/extsig"
	"github.com/clamsig/sigparse/feature"
	"github.com/clamsig/sigparse/filehash"
	"github.com/clamsig/sigparse/ftmagic"
	"github.com/clamsig/sigparse/logicalsig"
	"github.com/clamsig/sigparse/numrange"
	"github.com/clamsig/sigparse/pehash"
	"github.com/clamsig/sigparse/phishing"
	"github.com/clamsig/sigparse/sigtype"
)

// Signature is the common interface every parsed dialect satisfies: a
// display name, the engine capabilities it exercises, serialization back
// to line form, and cross-field validation against its own declared
// feature-level window.
type Signature interface {
	fmt.Stringer
	Name() string
	Features() feature.Set
	Validate() error
}

// SigMeta is the side-channel output of every parse: the feature-level
// window the line declared, if any. Its Range Kind reflects what the
// line actually wrote (n.. as From, n..=m as Inclusive).
type SigMeta struct {
	FLevel *numrange.Range[uint32]
}

// ParseError reports a dialect-specific parse error wrapped from the
// sub-parser the line was routed to. An unrecognized or unsupported
// signature type is reported as UnsupportedSigTypeError instead, and the
// line is not checked for UTF-8 validity before dispatch.
type ParseError struct {
	SigType sigtype.SigType
	Msg     string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sigparse: %v: %s: %v", e.SigType, e.Msg, e.Err)
	}
	return fmt.Sprintf("sigparse: %v: %s", e.SigType, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnsupportedSigTypeError reports a signature type this module recognizes
// by extension but cannot parse (Bytecode, Yara) or doesn't recognize at
// all.
type UnsupportedSigTypeError struct {
	Extension string
}

func (e *UnsupportedSigTypeError) Error() string {
	return fmt.Sprintf("sigparse: unsupported signature type for extension %q", e.Extension)
}

// ParseExtension resolves ext (without a leading dot) to a SigType and
// parses raw against it. Comment lines and line terminators are expected
// to already have been stripped by the caller, per spec.md §6.
func ParseExtension(ext string, raw []byte) (Signature, SigMeta, error) {
	st, ok := sigtype.FromFileExtension(ext)
	if !ok || st.Unsupported() {
		return nil, SigMeta{}, &UnsupportedSigTypeError{Extension: ext}
	}
	return Parse(st, raw)
}

// Parse parses raw as a line of the given dialect.
func Parse(st sigtype.SigType, raw []byte) (Signature, SigMeta, error) {
	line := string(raw)
	switch st {
	case sigtype.Extended:
		sig, window, err := extsig.Parse(line)
		if err != nil {
			return nil, SigMeta{}, &ParseError{SigType: st, Msg: "parsing extended signature", Err: err}
		}
		return &extendedAdapter{sig, window}, SigMeta{FLevel: windowToRange(window)}, nil

	case sigtype.Logical:
		sig, err := logicalsig.Parse(line)
		if err != nil {
			return nil, SigMeta{}, &ParseError{SigType: st, Msg: "parsing logical signature", Err: err}
		}
		var meta SigMeta
		if r, ok := sig.TargetDesc.EngineRange(); ok {
			meta.FLevel = &r
		}
		return &logicalAdapter{sig}, meta, nil

	case sigtype.ContainerMetadata:
		sig, err := containermetadata.Parse(line)
		if err != nil {
			return nil, SigMeta{}, &ParseError{SigType: st, Msg: "parsing container metadata signature", Err: err}
		}
		return &containerMetadataAdapter{sig}, SigMeta{FLevel: windowToRange(sig.FLevel)}, nil

	case sigtype.PhishingURL:
		sig, err := phishing.Parse(line)
		if err != nil {
			return nil, SigMeta{}, &ParseError{SigType: st, Msg: "parsing phishing URL signature", Err: err}
		}
		return &phishingAdapter{sig}, SigMeta{FLevel: sig.FLevel}, nil

	case sigtype.FileHash:
		sig, err := filehash.Parse(line)
		if err != nil {
			return nil, SigMeta{}, &ParseError{SigType: st, Msg: "parsing file hash signature", Err: err}
		}
		return &fileHashAdapter{sig}, SigMeta{}, nil

	case sigtype.PESectionHash:
		sig, err := pehash.Parse(line)
		if err != nil {
			return nil, SigMeta{}, &ParseError{SigType: st, Msg: "parsing PE section hash signature", Err: err}
		}
		return &peSectionHashAdapter{sig}, SigMeta{}, nil

	case sigtype.Digital:
		sig, err := digitalsig.Parse(line)
		if err != nil {
			return nil, SigMeta{}, &ParseError{SigType: st, Msg: "parsing digital signature", Err: err}
		}
		var r *numrange.Range[uint32]
		if sig.HasMax {
			v := numrange.NewInclusive(sig.FLevelMin, sig.FLevelMax)
			r = &v
		} else {
			v := numrange.NewFrom(sig.FLevelMin)
			r = &v
		}
		return &digitalAdapter{sig}, SigMeta{FLevel: r}, nil

	default:
		return nil, SigMeta{}, &UnsupportedSigTypeError{Extension: st.String()}
	}
}

// ParseFTMagic parses a File-type magic catalog line. This dialect has no
// file extension of its own (it lives inside the engine's internal
// daily.cud/.cvd container rather than a standalone .ext database) so it
// is exposed as its own entry point rather than through Parse/SigType.
func ParseFTMagic(raw []byte) (Signature, SigMeta, error) {
	sig, err := ftmagic.Parse(string(raw))
	if err != nil {
		return nil, SigMeta{}, fmt.Errorf("sigparse: parsing file-type magic signature: %w", err)
	}
	return &ftMagicAdapter{sig}, SigMeta{FLevel: windowToRange(sig.FLevel)}, nil
}

func windowToRange(w *extsig.FLevelWindow) *numrange.Range[uint32] {
	if w == nil {
		return nil
	}
	if w.HasMax {
		r := numrange.NewInclusive(w.Min, w.Max)
		return &r
	}
	r := numrange.NewFrom(w.Min)
	return &r
}

// ValidationError reports a signature whose declared feature-level window
// does not cover the minimum computed from the capabilities it actually
// exercises, per spec.md §7's MinFLevelNotSpecified/
// SpecifiedMinFLevelTooLow rules, generalized across every dialect.
type ValidationError struct {
	Declared *numrange.Range[uint32]
	Computed uint32
	Features feature.Set
}

func (e *ValidationError) Error() string {
	if e.Declared == nil {
		return fmt.Sprintf("sigparse: feature level %d required by %v but none declared", e.Computed, e.Features.Features())
	}
	return fmt.Sprintf("sigparse: declared feature level window %v does not cover the required minimum %d (needed by %v)",
		e.Declared, e.Computed, e.Features.Features())
}

// validateComputedAgainst applies the shared declared-vs-computed rule
// for dialects whose own package does not already implement Validate.
func validateComputedAgainst(fs feature.Set, declared *numrange.Range[uint32]) error {
	computed := fs.MinLevel()
	if computed == 0 {
		return nil
	}
	if declared == nil {
		return &ValidationError{Computed: computed, Features: fs}
	}
	if declared.Lo < computed {
		return &ValidationError{Declared: declared, Computed: computed, Features: fs}
	}
	return nil
}

// --- adapters: one per dialect, satisfying the Signature interface ---

type extendedAdapter struct {
	sig    *extsig.ExtendedSig
	window *extsig.FLevelWindow
}

func (a *extendedAdapter) Name() string          { return a.sig.NameOrAnonymous() }
func (a *extendedAdapter) Features() feature.Set { return a.sig.Features() }
func (a *extendedAdapter) Validate() error       { return a.sig.Validate(a.window) }
func (a *extendedAdapter) String() string {
	s := a.sig.String()
	if a.window == nil {
		return s
	}
	if a.window.HasMax {
		return fmt.Sprintf("%s:%d:%d", s, a.window.Min, a.window.Max)
	}
	return fmt.Sprintf("%s:%d", s, a.window.Min)
}

type logicalAdapter struct{ sig *logicalsig.LogicalSig }

func (a *logicalAdapter) Name() string          { return a.sig.Name }
func (a *logicalAdapter) Features() feature.Set { return a.sig.Features() }
func (a *logicalAdapter) Validate() error       { return a.sig.Validate() }
func (a *logicalAdapter) String() string        { return a.sig.String() }

type containerMetadataAdapter struct{ sig *containermetadata.ContainerMetadataSig }

func (a *containerMetadataAdapter) Name() string          { return a.sig.Name }
func (a *containerMetadataAdapter) Features() feature.Set { return a.sig.Features() }
func (a *containerMetadataAdapter) String() string        { return a.sig.String() }
func (a *containerMetadataAdapter) Validate() error {
	return validateComputedAgainst(a.sig.Features(), windowToRange(a.sig.FLevel))
}

type ftMagicAdapter struct{ sig *ftmagic.FTMagicSig }

func (a *ftMagicAdapter) Name() string          { return a.sig.Name }
func (a *ftMagicAdapter) Features() feature.Set { return a.sig.Features() }
func (a *ftMagicAdapter) String() string        { return a.sig.String() }
func (a *ftMagicAdapter) Validate() error {
	return validateComputedAgainst(a.sig.Features(), windowToRange(a.sig.FLevel))
}

type phishingAdapter struct{ sig *phishing.PhishingSig }

func (a *phishingAdapter) Name() string          { return a.sig.Name() }
func (a *phishingAdapter) Features() feature.Set { return a.sig.Features() }
func (a *phishingAdapter) String() string        { return a.sig.String() }
func (a *phishingAdapter) Validate() error {
	return validateComputedAgainst(a.sig.Features(), a.sig.FLevel)
}

type fileHashAdapter struct{ sig *filehash.FileHashSig }

func (a *fileHashAdapter) Name() string          { return a.sig.Name }
func (a *fileHashAdapter) Features() feature.Set { return a.sig.Features() }
func (a *fileHashAdapter) String() string        { return a.sig.String() }
func (a *fileHashAdapter) Validate() error       { return nil } // no declared window exists in this dialect's grammar

type peSectionHashAdapter struct{ sig *pehash.PESectionHashSig }

func (a *peSectionHashAdapter) Name() string          { return a.sig.Name }
func (a *peSectionHashAdapter) Features() feature.Set { return a.sig.Features() }
func (a *peSectionHashAdapter) String() string        { return a.sig.String() }
func (a *peSectionHashAdapter) Validate() error       { return nil }

type digitalAdapter struct{ sig *digitalsig.DigitalSig }

func (a *digitalAdapter) Name() string          { return "?" }
func (a *digitalAdapter) Features() feature.Set { return a.sig.Features() }
func (a *digitalAdapter) String() string        { return a.sig.String() }
func (a *digitalAdapter) Validate() error {
	var declared *numrange.Range[uint32]
	if a.sig.HasMax {
		r := numrange.NewInclusive(a.sig.FLevelMin, a.sig.FLevelMax)
		declared = &r
	} else {
		r := numrange.NewFrom(a.sig.FLevelMin)
		declared = &r
	}
	return validateComputedAgainst(a.sig.Features(), declared)
}
