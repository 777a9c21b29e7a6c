package exp

import (
	"strconv"
	"strings"

	"github.com/nikandfor/hacked/hfmt"

	"github.com/slowlang/decomp/decomp/tp"
)

var binSyms = map[Oper]string{
	OpPlus:      "+",
	OpMinus:     "-",
	OpMult:      "*",
	OpMults:     "*!",
	OpDiv:       "/",
	OpDivs:      "/!",
	OpMod:       "%",
	OpMods:      "%!",
	OpFPlus:     "+f",
	OpFMinus:    "-f",
	OpFMult:     "*f",
	OpFDiv:      "/f",
	OpAnd:       "&&",
	OpOr:        "||",
	OpEquals:    "==",
	OpNotEqual:  "!=",
	OpLess:      "<",
	OpGtr:       ">",
	OpLessEq:    "<=",
	OpGtrEq:     ">=",
	OpLessUns:   "<u",
	OpGtrUns:    ">u",
	OpLessEqUns: "<=u",
	OpGtrEqUns:  ">=u",
	OpBitAnd:    "&",
	OpBitOr:     "|",
	OpBitXor:    "^",
	OpShiftL:    "<<",
	OpShiftR:    ">>",
	OpShiftRA:   ">>A",
}

// FuncNames are the function-style spellings of operators.
var FuncNames = map[Oper]string{
	OpPow:      "pow",
	OpRotateL:  "rl",
	OpRotateR:  "rr",
	OpRotateLC: "rlc",
	OpRotateRC: "rrc",
	OpList:     "list",
	OpSize:     "size",

	OpFNeg:    "fneg",
	OpSqrt:    "sqrt",
	OpSin:     "sin",
	OpCos:     "cos",
	OpTan:     "tan",
	OpArcTan:  "atan",
	OpLog2:    "log2",
	OpLog10:   "log10",
	OpLoge:    "loge",
	OpFabs:    "fabs",
	OpFround:  "round",
	OpFtrunc:  "trunc",
	OpMachFtr: "machftr",
	OpSignExt: "signext",

	OpSgnEx:  "sgnex",
	OpZfill:  "zfill",
	OpTruncu: "truncu",
	OpTruncs: "truncs",
	OpFsize:  "fsize",
	OpItof:   "itof",
	OpFtoi:   "ftoi",
}

var termSyms = map[Oper]string{
	OpNil:          "nil",
	OpTrue:         "true",
	OpFalse:        "false",
	OpPC:           "%pc",
	OpFlags:        "%flags",
	OpFflags:       "%fflags",
	OpDefineAll:    "<all>",
	OpWild:         "WILD",
	OpWildIntConst: "WILDINT",
	OpWildStrConst: "WILDSTR",
	OpWildMemOf:    "WILDMEMOF",
	OpWildRegOf:    "WILDREGOF",
	OpWildAddrOf:   "WILDADDROF",
	OpZF:           "%ZF",
	OpCF:           "%CF",
	OpNF:           "%NF",
	OpOF:           "%OF",
	OpDF:           "%DF",
	OpFZF:          "%FZF",
	OpFLF:          "%FLF",
	OpFGF:          "%FGF",
}

// BinarySym returns infix spelling of op.
func BinarySym(op Oper) (string, bool) {
	s, ok := binSyms[op]
	return s, ok
}

// TerminalSym returns the spelling of a terminal.
func TerminalSym(op Oper) (string, bool) {
	s, ok := termSyms[op]
	return s, ok
}

func (x *Const) String() string { return string(AppendIR(nil, x)) }
func (x *Terminal) String() string { return string(AppendIR(nil, x)) }
func (x *Unary) String() string { return string(AppendIR(nil, x)) }
func (x *Binary) String() string { return string(AppendIR(nil, x)) }
func (x *Ternary) String() string { return string(AppendIR(nil, x)) }
func (x *Typed) String() string { return string(AppendIR(nil, x)) }
func (x *Ref) String() string { return string(AppendIR(nil, x)) }

// AppendIR appends e in IR notation.
// Compound operands are always parenthesized so the text is unambiguous.
func AppendIR(b []byte, e Exp) []byte {
	switch e := e.(type) {
	case nil:
		return append(b, "<nil>"...)
	case *Const:
		return appendConst(b, e)
	case *Terminal:
		if s, ok := termSyms[e.op]; ok {
			return append(b, s...)
		}

		return hfmt.Appendf(b, "<%v>", e.op)
	case *Unary:
		return appendUnary(b, e)
	case *Binary:
		return appendBinary(b, e)
	case *Ternary:
		return appendTernary(b, e)
	case *Typed:
		b = append(b, '*')
		b = AppendTypeTag(b, e.Type)
		b = append(b, "* "...)

		return operand(b, e.X)
	case *Ref:
		b = operand(b, e.X)

		switch e.Def {
		case NoDef:
			return append(b, "{-}"...)
		case ImplicitDef:
			return append(b, "{0}"...)
		case AnyDef:
			return append(b, "{WILD}"...)
		}

		return hfmt.Appendf(b, "{%d}", e.Def)
	}

	return hfmt.Appendf(b, "<%T>", e)
}

func appendConst(b []byte, c *Const) []byte {
	switch c.op {
	case OpIntConst:
		return strconv.AppendInt(b, c.I, 10)
	case OpLongConst:
		b = strconv.AppendInt(b, c.I, 10)
		return append(b, "LL"...)
	case OpFltConst:
		st := len(b)
		b = strconv.AppendFloat(b, c.F, 'g', -1, 64)

		if !strings.ContainsAny(string(b[st:]), ".eIN") {
			b = append(b, ".0"...)
		}

		return b
	case OpStrConst:
		return strconv.AppendQuote(b, c.S)
	case OpFuncConst:
		return append(b, c.S...)
	}

	return hfmt.Appendf(b, "<const %v>", c.op)
}

func appendUnary(b []byte, u *Unary) []byte {
	switch u.op {
	case OpRegOf:
		if k, ok := IntValue(u.X); ok {
			return strconv.AppendInt(append(b, 'r'), k, 10)
		}

		b = append(b, "r["...)
		b = AppendIR(b, u.X)

		return append(b, ']')
	case OpMemOf, OpAddrOf:
		if u.op == OpMemOf {
			b = append(b, "m["...)
		} else {
			b = append(b, "a["...)
		}

		b = AppendIR(b, u.X)

		return append(b, ']')
	case OpLocal, OpParam, OpGlobal, OpTemp:
		if c, ok := u.X.(*Const); ok && c.op == OpStrConst {
			return append(b, c.S...)
		}

		return AppendIR(b, u.X)
	case OpNot:
		return operand(append(b, '~'), u.X)
	case OpLNot:
		return operand(append(b, '!'), u.X)
	case OpNeg:
		return operand(append(b, '-'), u.X)
	}

	if n, ok := FuncNames[u.op]; ok {
		b = append(b, n...)
		b = append(b, '(')
		b = AppendIR(b, u.X)

		return append(b, ')')
	}

	return hfmt.Appendf(b, "<%v>(%v)", u.op, u.X)
}

func appendBinary(b []byte, x *Binary) []byte {
	if s, ok := binSyms[x.op]; ok {
		b = operand(b, x.X)
		b = append(b, ' ')
		b = append(b, s...)
		b = append(b, ' ')

		return operand(b, x.Y)
	}

	switch x.op {
	case OpFlagCall:
		b = appendName(b, x.X)
		b = append(b, '(')
		b = appendList(b, x.Y)

		return append(b, ')')
	case OpArrayIndex:
		b = operand(b, x.X)
		b = append(b, '[')
		b = AppendIR(b, x.Y)

		return append(b, ']')
	case OpMemberAccess:
		b = operand(b, x.X)
		b = append(b, '.')

		return appendName(b, x.Y)
	}

	if n, ok := FuncNames[x.op]; ok {
		b = append(b, n...)
		b = append(b, '(')
		b = AppendIR(b, x.X)
		b = append(b, ", "...)
		b = AppendIR(b, x.Y)

		return append(b, ')')
	}

	return hfmt.Appendf(b, "<%v>(%v, %v)", x.op, x.X, x.Y)
}

func appendTernary(b []byte, x *Ternary) []byte {
	switch x.op {
	case OpAt:
		b = operand(b, x.X)
		b = append(b, "@["...)
		b = AppendIR(b, x.Y)
		b = append(b, ':')
		b = AppendIR(b, x.Z)

		return append(b, ']')
	case OpTern:
		b = operand(b, x.X)
		b = append(b, " ? "...)
		b = operand(b, x.Y)
		b = append(b, " : "...)

		return operand(b, x.Z)
	}

	if n, ok := FuncNames[x.op]; ok {
		return hfmt.Appendf(b, "%s(%v, %v, %v)", n, x.X, x.Y, x.Z)
	}

	return hfmt.Appendf(b, "<%v>(%v, %v, %v)", x.op, x.X, x.Y, x.Z)
}

// appendList appends list elements separated by commas.
// Lists are chains of List nodes terminated by nil.
func appendList(b []byte, e Exp) []byte {
	for i := 0; ; i++ {
		l, ok := e.(*Binary)
		if !ok || l.op != OpList {
			if e.Op() != OpNil {
				if i != 0 {
					b = append(b, ", "...)
				}

				b = AppendIR(b, e)
			}

			return b
		}

		if i != 0 {
			b = append(b, ", "...)
		}

		b = AppendIR(b, l.X)
		e = l.Y
	}
}

func appendName(b []byte, e Exp) []byte {
	if c, ok := e.(*Const); ok && (c.op == OpStrConst || c.op == OpFuncConst) {
		return append(b, c.S...)
	}

	return AppendIR(b, e)
}

func operand(b []byte, e Exp) []byte {
	switch e.(type) {
	case *Binary, *Ternary, *Typed:
		if x, ok := e.(*Binary); ok && (x.op == OpArrayIndex || x.op == OpMemberAccess || x.op == OpFlagCall || FuncNames[x.op] != "") {
			break
		}

		if t, ok := e.(*Ternary); ok && t.op != OpAt && t.op != OpTern {
			break
		}

		b = append(b, '(')
		b = AppendIR(b, e)

		return append(b, ')')
	}

	return AppendIR(b, e)
}

// AppendTypeTag appends the short type spelling used in typed wrappers:
// i32 signed, u32 unsigned, j32 unknown sign, f64, c, b, v, s32 sized, p<tag> pointer.
func AppendTypeTag(b []byte, t tp.Type) []byte {
	switch t := t.(type) {
	case nil, tp.Void:
		return append(b, 'v')
	case tp.Bool:
		return append(b, 'b')
	case tp.Char:
		return append(b, 'c')
	case tp.Int:
		switch t.Sign {
		case tp.Signed:
			b = append(b, 'i')
		case tp.Unsigned:
			b = append(b, 'u')
		default:
			b = append(b, 'j')
		}

		return strconv.AppendInt(b, int64(t.Bits), 10)
	case tp.Float:
		return strconv.AppendInt(append(b, 'f'), int64(t.Bits), 10)
	case tp.Sized:
		return strconv.AppendInt(append(b, 's'), int64(t.Bits), 10)
	case tp.Ptr:
		return AppendTypeTag(append(b, 'p'), t.X)
	}

	return append(b, t.String()...)
}
