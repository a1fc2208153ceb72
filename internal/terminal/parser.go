package terminal

// Parser is a table-driven VT500-style escape sequence parser. It turns a
// byte stream into Actions and keeps no state beyond the sequence currently
// being parsed, so input may be split at any byte boundary.
type Parser struct {
	state parserState

	params    [maxParams]int
	nparams   int
	colonMask uint32
	overflow  bool

	inter    [maxIntermediates]byte
	ninter   int
	private  byte
	osc      []byte
	action   Action
	utf8Buf  [4]byte
	utf8Len  int
	utf8Have int
}

// ActionKind tags the variant carried by an Action.
type ActionKind uint8

const (
	// ActionPrint carries a decoded printable rune in Rune.
	ActionPrint ActionKind = iota
	// ActionExecute carries a C0 control in Byte.
	ActionExecute
	// ActionESC is an escape sequence; Byte is the final byte.
	ActionESC
	// ActionCSI is a control sequence; Byte is the final byte.
	ActionCSI
	// ActionOSC is an operating system command; Data is the payload.
	ActionOSC
)

// Action is one parsed unit of terminal input. The parser reuses a single
// Action, so handlers must copy anything they keep.
type Action struct {
	Kind          ActionKind
	Rune          rune
	Byte          byte
	Params        []int
	ColonMask     uint32 // bit i set when Params[i] followed a ':' separator
	Private       byte   // CSI private marker: '?', '>', '<' or '='
	Intermediates []byte
	Data          []byte
}

// Param returns parameter i, or def when it is missing or zero.
func (a *Action) Param(i, def int) int {
	if i < len(a.Params) && a.Params[i] > 0 {
		return a.Params[i]
	}
	return def
}

const (
	maxParams        = 32
	maxIntermediates = 2
	maxOSC           = 4096
	maxParamValue    = 65535
)

type parserState uint8

const (
	stateGround parserState = iota
	stateEscape
	stateEscapeIntermediate
	stateCSIEntry
	stateCSIParam
	stateCSIIntermediate
	stateCSIIgnore
	stateOSCString
	stateDCSPassthrough
	numStates
)

type parserOp uint8

const (
	opNone parserOp = iota
	opPrint
	opUTF8
	opExecute
	opClear
	opCollect
	opPrivate
	opParam
	opESCDispatch
	opCSIDispatch
	opOSCStart
	opOSCPut
	opOSCEnd
)

type transition struct {
	next parserState
	op   parserOp
}

// transitions maps (state, byte) to the next state and the action to take.
var transitions [numStates][256]transition

func init() {
	on := func(s parserState, lo, hi int, op parserOp, next parserState) {
		for b := lo; b <= hi; b++ {
			transitions[s][b] = transition{next: next, op: op}
		}
	}
	execute := func(s parserState) {
		on(s, 0x00, 0x17, opExecute, s)
		on(s, 0x19, 0x19, opExecute, s)
		on(s, 0x1c, 0x1f, opExecute, s)
	}

	for s := parserState(0); s < numStates; s++ {
		on(s, 0x00, 0xff, opNone, s)
		on(s, 0x18, 0x18, opNone, stateGround)
		on(s, 0x1a, 0x1a, opNone, stateGround)
		on(s, 0x1b, 0x1b, opClear, stateEscape)
	}

	execute(stateGround)
	on(stateGround, 0x20, 0x7e, opPrint, stateGround)
	on(stateGround, 0x80, 0xff, opUTF8, stateGround)

	execute(stateEscape)
	on(stateEscape, 0x20, 0x2f, opCollect, stateEscapeIntermediate)
	on(stateEscape, 0x30, 0x7e, opESCDispatch, stateGround)
	on(stateEscape, '[', '[', opClear, stateCSIEntry)
	on(stateEscape, ']', ']', opOSCStart, stateOSCString)
	on(stateEscape, 'P', 'P', opNone, stateDCSPassthrough)
	on(stateEscape, 'X', 'X', opNone, stateDCSPassthrough)
	on(stateEscape, '^', '^', opNone, stateDCSPassthrough)
	on(stateEscape, '_', '_', opNone, stateDCSPassthrough)

	execute(stateEscapeIntermediate)
	on(stateEscapeIntermediate, 0x20, 0x2f, opCollect, stateEscapeIntermediate)
	on(stateEscapeIntermediate, 0x30, 0x7e, opESCDispatch, stateGround)

	execute(stateCSIEntry)
	on(stateCSIEntry, 0x20, 0x2f, opCollect, stateCSIIntermediate)
	on(stateCSIEntry, 0x30, 0x3b, opParam, stateCSIParam)
	on(stateCSIEntry, 0x3c, 0x3f, opPrivate, stateCSIParam)
	on(stateCSIEntry, 0x40, 0x7e, opCSIDispatch, stateGround)

	execute(stateCSIParam)
	on(stateCSIParam, 0x20, 0x2f, opCollect, stateCSIIntermediate)
	on(stateCSIParam, 0x30, 0x3b, opParam, stateCSIParam)
	on(stateCSIParam, 0x3c, 0x3f, opNone, stateCSIIgnore)
	on(stateCSIParam, 0x40, 0x7e, opCSIDispatch, stateGround)

	execute(stateCSIIntermediate)
	on(stateCSIIntermediate, 0x20, 0x2f, opCollect, stateCSIIntermediate)
	on(stateCSIIntermediate, 0x30, 0x3f, opNone, stateCSIIgnore)
	on(stateCSIIntermediate, 0x40, 0x7e, opCSIDispatch, stateGround)

	execute(stateCSIIgnore)
	on(stateCSIIgnore, 0x40, 0x7e, opNone, stateGround)

	on(stateOSCString, 0x07, 0x07, opOSCEnd, stateGround)
	on(stateOSCString, 0x1b, 0x1b, opOSCEnd, stateEscape)
	on(stateOSCString, 0x20, 0xff, opOSCPut, stateOSCString)
}

// NewParser creates a parser in the ground state.
func NewParser() *Parser {
	return &Parser{osc: make([]byte, 0, 256)}
}

// Feed parses data and calls emit for every completed action.
func (p *Parser) Feed(data []byte, emit func(*Action)) {
	for _, b := range data {
		if p.utf8Len > 0 {
			if b >= 0x80 && b < 0xc0 {
				p.continueUTF8(b, emit)
				continue
			}
			// Truncated sequence; reprocess b from the ground state.
			p.utf8Len = 0
			p.print('\uFFFD', emit)
		}
		t := transitions[p.state][b]
		p.perform(t.op, b, emit)
		p.state = t.next
	}
}

// InGround reports whether the parser is between sequences.
func (p *Parser) InGround() bool {
	return p.state == stateGround && p.utf8Len == 0
}

func (p *Parser) perform(op parserOp, b byte, emit func(*Action)) {
	switch op {
	case opPrint:
		p.print(rune(b), emit)
	case opUTF8:
		p.startUTF8(b, emit)
	case opExecute:
		p.action = Action{Kind: ActionExecute, Byte: b}
		emit(&p.action)
	case opClear:
		p.clear()
	case opCollect:
		if p.ninter < maxIntermediates {
			p.inter[p.ninter] = b
			p.ninter++
		}
	case opPrivate:
		p.private = b
	case opParam:
		p.param(b)
	case opESCDispatch:
		p.action = Action{
			Kind:          ActionESC,
			Byte:          b,
			Intermediates: p.inter[:p.ninter],
		}
		emit(&p.action)
	case opCSIDispatch:
		p.action = Action{
			Kind:          ActionCSI,
			Byte:          b,
			Params:        p.params[:p.nparams],
			ColonMask:     p.colonMask,
			Private:       p.private,
			Intermediates: p.inter[:p.ninter],
		}
		emit(&p.action)
	case opOSCStart:
		p.osc = p.osc[:0]
	case opOSCPut:
		if len(p.osc) < maxOSC {
			p.osc = append(p.osc, b)
		}
	case opOSCEnd:
		p.action = Action{Kind: ActionOSC, Data: p.osc}
		emit(&p.action)
		p.clear()
	}
}

func (p *Parser) clear() {
	p.nparams = 0
	p.colonMask = 0
	p.overflow = false
	p.ninter = 0
	p.private = 0
}

func (p *Parser) param(b byte) {
	if b == ';' || b == ':' {
		if p.nparams == 0 {
			p.nparams = 1
			p.params[0] = 0
		}
		if p.nparams == maxParams {
			p.overflow = true
			return
		}
		p.params[p.nparams] = 0
		if b == ':' {
			p.colonMask |= 1 << p.nparams
		}
		p.nparams++
		return
	}
	if p.overflow {
		return
	}
	if p.nparams == 0 {
		p.nparams = 1
		p.params[0] = 0
	}
	v := &p.params[p.nparams-1]
	*v = min(*v*10+int(b-'0'), maxParamValue)
}

func (p *Parser) print(r rune, emit func(*Action)) {
	p.action = Action{Kind: ActionPrint, Rune: r}
	emit(&p.action)
}

func (p *Parser) startUTF8(b byte, emit func(*Action)) {
	switch {
	case b >= 0xc0 && b < 0xe0:
		p.utf8Len = 2
	case b >= 0xe0 && b < 0xf0:
		p.utf8Len = 3
	case b >= 0xf0 && b < 0xf8:
		p.utf8Len = 4
	default:
		// Stray continuation or invalid lead byte.
		p.print('\uFFFD', emit)
		return
	}
	p.utf8Buf[0] = b
	p.utf8Have = 1
}

func (p *Parser) continueUTF8(b byte, emit func(*Action)) {
	p.utf8Buf[p.utf8Have] = b
	p.utf8Have++
	if p.utf8Have < p.utf8Len {
		return
	}
	r := decodeUTF8(p.utf8Buf[:p.utf8Len])
	p.utf8Len = 0
	p.utf8Have = 0
	p.print(r, emit)
}

// decodeUTF8 decodes a complete sequence, rejecting overlong forms,
// surrogates and values beyond U+10FFFF.
func decodeUTF8(buf []byte) rune {
	switch len(buf) {
	case 2:
		r := rune(buf[0]&0x1f)<<6 | rune(buf[1]&0x3f)
		if r < 0x80 {
			return '\uFFFD'
		}
		return r
	case 3:
		r := rune(buf[0]&0x0f)<<12 | rune(buf[1]&0x3f)<<6 | rune(buf[2]&0x3f)
		if r < 0x800 || (r >= 0xd800 && r <= 0xdfff) {
			return '\uFFFD'
		}
		return r
	case 4:
		r := rune(buf[0]&0x07)<<18 | rune(buf[1]&0x3f)<<12 |
			rune(buf[2]&0x3f)<<6 | rune(buf[3]&0x3f)
		if r < 0x10000 || r > 0x10ffff {
			return '\uFFFD'
		}
		return r
	default:
		return '\uFFFD'
	}
}
