package logicalsig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clamsig/sigparse/sigbytes"
)

// Operation is an element's relationship to the prior element within the
// same expression: And requires both to match, Or accepts either.
type Operation int

const (
	OpAnd Operation = iota
	OpOr
)

func (o Operation) String() string {
	if o == OpOr {
		return "|"
	}
	return "&"
}

// ModOp is the comparison an element's Modifier applies between the
// observed match count and its declared requirement.
type ModOp int

const (
	ModLessThan ModOp = iota
	ModEqual
	ModGreaterThan
)

func (m ModOp) String() string {
	switch m {
	case ModLessThan:
		return "<"
	case ModGreaterThan:
		return ">"
	default:
		return "="
	}
}

// Modifier refines how many times an element must match: match_req
// compared via mod_op against the observed count, with an optional
// minimum distinct-match requirement (match_uniq).
type Modifier struct {
	ModOp      ModOp
	MatchReq   int
	MatchUniq  *int
}

func (m Modifier) String() string {
	s := m.ModOp.String() + strconv.Itoa(m.MatchReq)
	if m.MatchUniq != nil {
		s += "," + strconv.Itoa(*m.MatchUniq)
	}
	return s
}

// Element is either a parenthesized sub-Expr or a bare SigIndex, appearing
// as one term of an enclosing Expr.
type Element interface {
	fmt.Stringer
	Operation() (Operation, bool)
	SetOperation(Operation, bool)
	Modifier() (Modifier, bool)
	SetModifier(Modifier, bool)
}

// Expr is a parenthesized group of elements joined by a common &/| operator
// chain, with its own optional trailing modifier.
type Expr struct {
	Depth     int
	op        Operation
	hasOp     bool
	Elements  []Element
	modifier  Modifier
	hasMod    bool
}

func (e *Expr) Operation() (Operation, bool)    { return e.op, e.hasOp }
func (e *Expr) SetOperation(o Operation, ok bool) { e.op, e.hasOp = o, ok }
func (e *Expr) Modifier() (Modifier, bool)      { return e.modifier, e.hasMod }
func (e *Expr) SetModifier(m Modifier, ok bool) { e.modifier, e.hasMod = m, ok }

func (e *Expr) String() string {
	var b strings.Builder
	if op, ok := e.Operation(); ok {
		b.WriteString(op.String())
	}
	if e.Depth > 0 {
		b.WriteByte('(')
	}
	for _, el := range e.Elements {
		b.WriteString(el.String())
	}
	if e.Depth > 0 {
		b.WriteByte(')')
	}
	if mod, ok := e.Modifier(); ok {
		b.WriteString(mod.String())
	}
	return b.String()
}

// SigIndex is a bare reference, by index, to one of a logical signature's
// sub-signatures.
type SigIndex struct {
	op       Operation
	hasOp    bool
	SigIndex int
	modifier Modifier
	hasMod   bool
}

func (s *SigIndex) Operation() (Operation, bool)     { return s.op, s.hasOp }
func (s *SigIndex) SetOperation(o Operation, ok bool) { s.op, s.hasOp = o, ok }
func (s *SigIndex) Modifier() (Modifier, bool)       { return s.modifier, s.hasMod }
func (s *SigIndex) SetModifier(m Modifier, ok bool)  { s.modifier, s.hasMod = m, ok }

func (s *SigIndex) String() string {
	var b strings.Builder
	if op, ok := s.Operation(); ok {
		b.WriteString(op.String())
	}
	b.WriteString(strconv.Itoa(s.SigIndex))
	if mod, ok := s.Modifier(); ok {
		b.WriteString(mod.String())
	}
	return b.String()
}

// ExpressionParseError reports a malformed logical expression, carrying
// the byte position (within the expression field) that caused the failure.
type ExpressionParseError struct {
	Pos sigbytes.Position
	Msg string
}

func (e *ExpressionParseError) Error() string {
	return fmt.Sprintf("logicalsig: expression: %s at %s", e.Msg, e.Pos)
}

// ParseExpression parses the &/| expression over sub-signature indices
// that appears as a logical signature's third field.
func ParseExpression(raw string) (*Expr, error) {
	data := []byte(raw)
	p := &exprParser{data: data}
	el, err := p.parseElement(0)
	if err != nil {
		return nil, err
	}
	expr, ok := el.(*Expr)
	if !ok {
		// parseElement at depth 0 always returns *Expr; unreachable.
		return nil, &ExpressionParseError{Pos: sigbytes.AtEnd(), Msg: "internal: expected top-level Expr"}
	}
	return expr, nil
}

type exprParser struct {
	data []byte
	pos  int
}

func (p *exprParser) peek() (int, byte, bool) {
	if p.pos >= len(p.data) {
		return 0, 0, false
	}
	return p.pos, p.data[p.pos], true
}

func (p *exprParser) advance() { p.pos++ }

// parseElement mirrors expression.rs's parse_element state machine:
// Initial / ModReq / ModUniq / ApplyModifier.
func (p *exprParser) parseElement(depth int) (Element, error) {
	const (
		stateInitial = iota
		stateModReq
		stateModUniq
		stateApplyModifier
	)

	state := stateInitial
	var sigID int
	haveSigID := false
	var operation Operation
	haveOp := false
	var modOp ModOp
	var matchReq int
	haveMatchReq := false
	var matchUniq int
	haveMatchUniq := false
	var elements []Element
	var modifier Modifier
	haveModifier := false
	modValPos := -1

	flushSigIndex := func() {
		if haveSigID {
			si := &SigIndex{SigIndex: sigID}
			si.SetOperation(operation, haveOp)
			haveOp = false
			elements = append(elements, si)
			haveSigID = false
			sigID = 0
		}
	}

	for {
		pos, b, has := p.peek()

		switch state {
		case stateInitial:
			switch {
			case has && b == '(':
				p.advance()
				child, err := p.parseElement(depth + 1)
				if err != nil {
					return nil, err
				}
				child.SetOperation(operation, haveOp)
				haveOp = false
				elements = append(elements, child)
			case has && b == ')':
				if depth > 0 {
					p.advance()
					goto done
				}
				return nil, &ExpressionParseError{Pos: sigbytes.At(pos), Msg: "unmatched closing paren"}
			case has && b >= '0' && b <= '9':
				sigID = int(b-'0') + sigID*10
				if sigID > 255 {
					return nil, &ExpressionParseError{Pos: sigbytes.At(pos), Msg: "sub-signature index exceeds 255"}
				}
				haveSigID = true
				p.advance()
			case has:
				flushSigIndex()
				if op, ok := parseOperation(b); ok {
					if haveOp {
						return nil, &ExpressionParseError{Pos: sigbytes.At(pos), Msg: "unexpected operator"}
					}
					operation = op
					haveOp = true
					p.advance()
				} else if mo, ok := parseModOp(b); ok {
					modOp = mo
					state = stateModReq
					modValPos = -1
					p.advance()
				} else {
					return nil, &ExpressionParseError{Pos: sigbytes.At(pos), Msg: fmt.Sprintf("invalid character %s", sigbytes.SigChar(b))}
				}
			default:
				goto done
			}
		case stateModReq:
			switch {
			case has && b >= '0' && b <= '9':
				start := modValPos
				if start < 0 {
					start = pos
					modValPos = pos
				}
				next := matchReq*10 + int(b-'0')
				if matchReq > (1<<31)/10 {
					return nil, &ExpressionParseError{Pos: sigbytes.InRange(start, pos), Msg: "modifier value too large"}
				}
				matchReq = next
				haveMatchReq = true
				p.advance()
			case has && b == ',':
				state = stateModUniq
				p.advance()
			default:
				state = stateApplyModifier
			}
		case stateModUniq:
			switch {
			case has && b >= '0' && b <= '9':
				start := modValPos
				if start < 0 {
					start = pos
					modValPos = pos
				}
				next := matchUniq*10 + int(b-'0')
				if matchUniq > (1<<31)/10 {
					return nil, &ExpressionParseError{Pos: sigbytes.InRange(start, pos), Msg: "modifier value too large"}
				}
				matchUniq = next
				haveMatchUniq = true
				p.advance()
			default:
				if !haveMatchUniq {
					errPos := sigbytes.AtEnd()
					if has {
						errPos = sigbytes.At(pos)
					}
					return nil, &ExpressionParseError{Pos: errPos, Msg: "no value following ',' in modifier"}
				}
				state = stateApplyModifier
			}
		case stateApplyModifier:
			if !haveMatchReq {
				errPos := sigbytes.AtEnd()
				if has {
					errPos = sigbytes.At(pos)
				}
				return nil, &ExpressionParseError{Pos: errPos, Msg: "modifier match requirement missing"}
			}
			thisMod := Modifier{ModOp: modOp, MatchReq: matchReq}
			if haveMatchUniq {
				u := matchUniq
				thisMod.MatchUniq = &u
			}
			if has {
				if len(elements) == 0 {
					return nil, &ExpressionParseError{Pos: sigbytes.At(pos), Msg: "modifier with no prior expression"}
				}
				elements[len(elements)-1].SetModifier(thisMod, true)
			} else {
				modifier = thisMod
				haveModifier = true
			}
			matchReq, haveMatchReq = 0, false
			matchUniq, haveMatchUniq = 0, false
			state = stateInitial
			// do not advance; re-dispatch current byte (or EOF) in Initial
			continue
		}

		if !has && state == stateInitial {
			goto done
		}
	}

done:
	flushSigIndex()
	return &Expr{
		Depth:    depth,
		op:       operation,
		hasOp:    haveOp,
		Elements: elements,
		modifier: modifier,
		hasMod:   haveModifier,
	}, nil
}

func parseOperation(b byte) (Operation, bool) {
	switch b {
	case '&':
		return OpAnd, true
	case '|':
		return OpOr, true
	default:
		return 0, false
	}
}

func parseModOp(b byte) (ModOp, bool) {
	switch b {
	case '<':
		return ModLessThan, true
	case '=':
		return ModEqual, true
	case '>':
		return ModGreaterThan, true
	default:
		return 0, false
	}
}
