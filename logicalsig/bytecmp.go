package logicalsig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clamsig/sigparse/feature"
)

// ByteEncoding is the numeric encoding a byte-compare field was written in.
type ByteEncoding int

const (
	EncodingHex ByteEncoding = iota
	EncodingDecimal
	EncodingAutomatic
	EncodingRawBinary
)

func (e ByteEncoding) byte() byte {
	switch e {
	case EncodingHex:
		return 'h'
	case EncodingAutomatic:
		return 'a'
	case EncodingRawBinary:
		return 'i'
	default:
		return 'd'
	}
}

// ByteEndianness is the extracted value's byte order.
type ByteEndianness int

const (
	EndiannessUnspecified ByteEndianness = iota
	EndiannessLittle
	EndiannessBig
)

// ByteOptions is the '#'-delimited middle field of a byte-compare
// sub-signature: how to decode the extracted bytes, and how many.
type ByteOptions struct {
	Encoding             ByteEncoding
	HasEncoding          bool
	Endianness           ByteEndianness
	EvaluateIfCanExtract bool
	ExtractBytes         int
}

// ByteOptionsParseError reports a malformed byte_options field.
type ByteOptionsParseError struct{ Msg string }

func (e *ByteOptionsParseError) Error() string { return "logicalsig: byte_options: " + e.Msg }

func parseByteOptions(raw string) (ByteOptions, error) {
	var opts ByteOptions
	haveExtract := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch c {
		case 'h':
			opts.Encoding, opts.HasEncoding = EncodingHex, true
		case 'd':
			opts.Encoding, opts.HasEncoding = EncodingDecimal, true
		case 'a':
			opts.Encoding, opts.HasEncoding = EncodingAutomatic, true
		case 'i':
			opts.Encoding, opts.HasEncoding = EncodingRawBinary, true
		case 'l':
			opts.Endianness = EndiannessLittle
		case 'b':
			opts.Endianness = EndiannessBig
		case 'e':
			opts.EvaluateIfCanExtract = true
		case '1', '2', '4', '8':
			opts.ExtractBytes = int(c - '0')
			haveExtract = true
		case '0', '3', '5', '6', '7', '9':
			return ByteOptions{}, &ByteOptionsParseError{Msg: "invalid num_bytes"}
		default:
			return ByteOptions{}, &ByteOptionsParseError{Msg: "unrecognized byte option"}
		}
	}
	if !haveExtract {
		return ByteOptions{}, &ByteOptionsParseError{Msg: "missing number of bytes to extract"}
	}
	if opts.HasEncoding && opts.Encoding == EncodingDecimal {
		if opts.Endianness == EndiannessLittle {
			return ByteOptions{}, &ByteOptionsParseError{Msg: "incompatible options for encoding and endianness"}
		}
		if opts.Endianness == EndiannessUnspecified {
			opts.Endianness = EndiannessBig
		}
	}
	return opts, nil
}

func (o ByteOptions) String() string {
	var b strings.Builder
	if o.HasEncoding {
		b.WriteByte(o.Encoding.byte())
	}
	switch o.Endianness {
	case EndiannessLittle:
		b.WriteByte('l')
	case EndiannessBig:
		b.WriteByte('b')
	}
	if o.EvaluateIfCanExtract {
		b.WriteByte('e')
	}
	b.WriteString(strconv.Itoa(o.ExtractBytes))
	return b.String()
}

// ComparisonOp is the operator of one ComparisonSet.
type ComparisonOp int

const (
	CmpLessThan ComparisonOp = iota
	CmpEqual
	CmpGreaterThan
)

func (o ComparisonOp) byte() byte {
	switch o {
	case CmpLessThan:
		return '<'
	case CmpGreaterThan:
		return '>'
	default:
		return '='
	}
}

// ComparisonSet is one of the (at most two) comma-separated comparisons in
// a byte-compare sub-signature's final field.
type ComparisonSet struct {
	Op       ComparisonOp
	Value    int64
	Encoding ByteEncoding // Hex or Decimal, the encoding the value was written in
}

// ComparisonSetParseError reports a malformed comparison field.
type ComparisonSetParseError struct{ Msg string }

func (e *ComparisonSetParseError) Error() string { return "logicalsig: comparison_set: " + e.Msg }

func parseComparisonSet(raw string) (ComparisonSet, error) {
	if raw == "" {
		return ComparisonSet{}, &ComparisonSetParseError{Msg: "empty"}
	}
	sym := raw[0]
	rest := raw[1:]
	var op ComparisonOp
	switch sym {
	case '<':
		op = CmpLessThan
	case '=':
		op = CmpEqual
	case '>':
		op = CmpGreaterThan
	default:
		if sym >= '0' && sym <= '9' {
			return ComparisonSet{}, &ComparisonSetParseError{Msg: "missing operator"}
		}
		return ComparisonSet{}, &ComparisonSetParseError{Msg: "unknown comparison operator"}
	}
	if hexDigits, ok := strings.CutPrefix(rest, "0x"); ok {
		v, err := strconv.ParseInt(hexDigits, 16, 64)
		if err != nil {
			return ComparisonSet{}, &ComparisonSetParseError{Msg: "parsing hex value: " + err.Error()}
		}
		return ComparisonSet{Op: op, Value: v, Encoding: EncodingHex}, nil
	}
	v, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return ComparisonSet{}, &ComparisonSetParseError{Msg: "parsing value: " + err.Error()}
	}
	return ComparisonSet{Op: op, Value: v, Encoding: EncodingDecimal}, nil
}

func (c ComparisonSet) String() string {
	var b strings.Builder
	b.WriteByte(c.Op.byte())
	if c.Encoding == EncodingHex {
		sign := ""
		v := c.Value
		if v < 0 {
			sign = "-"
			v = -v
		}
		fmt.Fprintf(&b, "%s0x%x", sign, v)
	} else {
		b.WriteString(strconv.FormatInt(c.Value, 10))
	}
	return b.String()
}

// ByteCmpOffsetModifier selects the sign applied to a byte-compare
// offset's extracted-pointer adjustment.
type ByteCmpOffsetModifier int

const (
	OffsetPositive ByteCmpOffsetModifier = iota // ">>"
	OffsetNegative                              // "<<"
)

// ByteCmpOffset is the first '#'-delimited field of a byte-compare
// sub-signature.
type ByteCmpOffset struct {
	Modifier ByteCmpOffsetModifier
	Offset   int64
}

// ByteCmpOffsetParseError reports a malformed byte-compare offset field.
type ByteCmpOffsetParseError struct{ Msg string }

func (e *ByteCmpOffsetParseError) Error() string { return "logicalsig: bytecmp offset: " + e.Msg }

func parseByteCmpOffset(raw string) (ByteCmpOffset, error) {
	var mod ByteCmpOffsetModifier
	var rest string
	switch {
	case strings.HasPrefix(raw, ">>"):
		mod, rest = OffsetPositive, raw[2:]
	case strings.HasPrefix(raw, "<<"):
		mod, rest = OffsetNegative, raw[2:]
	default:
		return ByteCmpOffset{}, &ByteCmpOffsetParseError{Msg: "missing offset modifier"}
	}
	v, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return ByteCmpOffset{}, &ByteCmpOffsetParseError{Msg: "parsing offset: " + err.Error()}
	}
	return ByteCmpOffset{Modifier: mod, Offset: v}, nil
}

func (o ByteCmpOffset) String() string {
	prefix := "<<"
	if o.Modifier == OffsetPositive {
		prefix = ">>"
	}
	return prefix + strconv.FormatInt(o.Offset, 10)
}

// ByteCmpSubSig is a byte-compare sub-signature: extract bytes at a
// computed offset and compare the resulting integer against up to two
// bounds. Its form is "subsigid_trigger(offset#byte_options#cmp1,cmp2)".
type ByteCmpSubSig struct {
	SubSigIDTrigger int
	Offset          ByteCmpOffset
	ByteOptions     ByteOptions
	Comparisons     []ComparisonSet // length 1 or 2
	Modifier        *SubSigModifier
}

func (s *ByteCmpSubSig) SubSigType() SubSigType { return SubSigByteCmp }

// Features reports the engine capabilities a byte-compare sub-signature
// exercises; it requires no feature beyond the baseline logical-signature
// support.
func (s *ByteCmpSubSig) Features() feature.Set { return feature.Empty() }

// ByteCmpSubSigParseError reports a malformed byte-compare sub-signature.
type ByteCmpSubSigParseError struct {
	Msg string
	Err error
}

func (e *ByteCmpSubSigParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("logicalsig: bytecmp subsig: %s: %v", e.Msg, e.Err)
	}
	return "logicalsig: bytecmp subsig: " + e.Msg
}

func (e *ByteCmpSubSigParseError) Unwrap() error { return e.Err }

// identified reports whether the bytes committed to the byte-compare
// shape. A bare hex body signature containing an alternation, such as
// "d97424f4(5?|b?)", also ends in ")" and contains "(", so the only
// reliable signal that this wasn't a byte-compare attempt is a
// non-numeric subsigid_trigger; every other failure happens only after
// that decimal prefix and the parenthesized wrapper are both confirmed.
func (e *ByteCmpSubSigParseError) identified() bool {
	switch e.Msg {
	case "missing closing parenthesis", "missing parameters", "invalid subsigid_trigger":
		return false
	default:
		return true
	}
}

func parseByteCmpSubSig(raw string, modifier *SubSigModifier) (*ByteCmpSubSig, error) {
	body, ok := strings.CutSuffix(raw, ")")
	if !ok {
		return nil, &ByteCmpSubSigParseError{Msg: "missing closing parenthesis"}
	}
	head, params, ok := strings.Cut(body, "(")
	if !ok {
		return nil, &ByteCmpSubSigParseError{Msg: "missing parameters"}
	}
	trigger, err := strconv.Atoi(head)
	if err != nil {
		return nil, &ByteCmpSubSigParseError{Msg: "invalid subsigid_trigger", Err: err}
	}

	fields := strings.SplitN(params, "#", 3)
	if len(fields) < 1 || fields[0] == "" {
		return nil, &ByteCmpSubSigParseError{Msg: "missing offset field"}
	}
	if len(fields) < 2 {
		return nil, &ByteCmpSubSigParseError{Msg: "missing byte_options field"}
	}
	if len(fields) < 3 {
		return nil, &ByteCmpSubSigParseError{Msg: "missing comparisons"}
	}

	offset, err := parseByteCmpOffset(fields[0])
	if err != nil {
		return nil, &ByteCmpSubSigParseError{Msg: "invalid offset", Err: err}
	}
	opts, err := parseByteOptions(fields[1])
	if err != nil {
		return nil, &ByteCmpSubSigParseError{Msg: "invalid byte_options", Err: err}
	}

	parts := strings.Split(fields[2], ",")
	if len(parts) > 2 {
		return nil, &ByteCmpSubSigParseError{Msg: "too many comparisons (only 2 permitted)"}
	}
	comparisons := make([]ComparisonSet, 0, len(parts))
	for _, part := range parts {
		cmp, err := parseComparisonSet(part)
		if err != nil {
			return nil, &ByteCmpSubSigParseError{Msg: "invalid comparison set", Err: err}
		}
		comparisons = append(comparisons, cmp)
	}

	return &ByteCmpSubSig{
		SubSigIDTrigger: trigger,
		Offset:          offset,
		ByteOptions:     opts,
		Comparisons:     comparisons,
		Modifier:        modifier,
	}, nil
}

func (s *ByteCmpSubSig) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(s.SubSigIDTrigger))
	b.WriteByte('(')
	b.WriteString(s.Offset.String())
	b.WriteByte('#')
	b.WriteString(s.ByteOptions.String())
	b.WriteByte('#')
	for i, c := range s.Comparisons {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(c.String())
	}
	b.WriteByte(')')
	if s.Modifier != nil {
		b.WriteString("::")
		b.WriteString(s.Modifier.String())
	}
	return b.String()
}
