// Package numrange implements the inclusive/half-open numeric ranges used
// throughout the signature grammar (feature-level windows, file-size
// windows, anchored-byte gap counts). Grounded on util.rs's Range helpers.
package numrange

import (
	"fmt"
	"strconv"
	"strings"
)

// Integer is any built-in integer type usable as a Range bound.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Kind selects which bounds of a Range are meaningful.
type Kind int

const (
	Exact Kind = iota
	Inclusive
	From
	ToInclusive
)

// Range is a closed sum over four shapes: a single exact value, an
// inclusive span, a half-open lower-bounded span, or an upper-bounded span.
type Range[T Integer] struct {
	Kind Kind
	Lo   T
	Hi   T
}

func NewExact[T Integer](v T) Range[T] { return Range[T]{Kind: Exact, Lo: v} }

func NewInclusive[T Integer](lo, hi T) Range[T] { return Range[T]{Kind: Inclusive, Lo: lo, Hi: hi} }

func NewFrom[T Integer](lo T) Range[T] { return Range[T]{Kind: From, Lo: lo} }

func NewToInclusive[T Integer](hi T) Range[T] { return Range[T]{Kind: ToInclusive, Hi: hi} }

// Contains reports whether v falls within the range.
func (r Range[T]) Contains(v T) bool {
	switch r.Kind {
	case Exact:
		return v == r.Lo
	case Inclusive:
		return v >= r.Lo && v <= r.Hi
	case From:
		return v >= r.Lo
	case ToInclusive:
		return v <= r.Hi
	default:
		return false
	}
}

// String renders the range the way it appears in a signature line.
func (r Range[T]) String() string {
	switch r.Kind {
	case Exact:
		return fmt.Sprintf("%d", r.Lo)
	case Inclusive:
		return fmt.Sprintf("%d-%d", r.Lo, r.Hi)
	case From:
		return fmt.Sprintf("%d-", r.Lo)
	case ToInclusive:
		return fmt.Sprintf("-%d", r.Hi)
	default:
		return ""
	}
}

// ParseError reports a malformed decimal range.
type ParseError struct {
	Input string
	Msg   string
}

func (e *ParseError) Error() string { return fmt.Sprintf("range %q: %s", e.Input, e.Msg) }

// ParseInclusiveOrExact parses "n" or "n-m" (m >= n) into an Exact or
// Inclusive range. This is the grammar accepted by container-metadata
// size fields, which reject half-open ranges outright.
func ParseInclusiveOrExact(s string) (Range[uint64], error) {
	if s == "" {
		return Range[uint64]{}, &ParseError{Input: s, Msg: "empty"}
	}
	if idx := strings.IndexByte(s, '-'); idx > 0 {
		lo, err := strconv.ParseUint(s[:idx], 10, 64)
		if err != nil {
			return Range[uint64]{}, &ParseError{Input: s, Msg: "invalid lower bound"}
		}
		hi, err := strconv.ParseUint(s[idx+1:], 10, 64)
		if err != nil {
			return Range[uint64]{}, &ParseError{Input: s, Msg: "invalid upper bound"}
		}
		if hi < lo {
			return Range[uint64]{}, &ParseError{Input: s, Msg: "upper bound below lower bound"}
		}
		return NewInclusive(lo, hi), nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Range[uint64]{}, &ParseError{Input: s, Msg: "invalid value"}
	}
	return NewExact(v), nil
}

// ParseFeatureLevelRange parses the "min" or "min-max" shape used for
// flevel windows throughout every signature dialect.
func ParseFeatureLevelRange(s string) (Range[uint32], error) {
	if s == "" {
		return Range[uint32]{}, &ParseError{Input: s, Msg: "empty"}
	}
	if idx := strings.IndexByte(s, '-'); idx > 0 {
		lo, err := strconv.ParseUint(s[:idx], 10, 32)
		if err != nil {
			return Range[uint32]{}, &ParseError{Input: s, Msg: "invalid minimum"}
		}
		hi, err := strconv.ParseUint(s[idx+1:], 10, 32)
		if err != nil {
			return Range[uint32]{}, &ParseError{Input: s, Msg: "invalid maximum"}
		}
		if hi < lo {
			return Range[uint32]{}, &ParseError{Input: s, Msg: "maximum below minimum"}
		}
		return NewInclusive(uint32(lo), uint32(hi)), nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return Range[uint32]{}, &ParseError{Input: s, Msg: "invalid value"}
	}
	return NewFrom(uint32(v)), nil
}
