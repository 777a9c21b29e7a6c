package codegen

import (
	"bytes"
	"math"
	"strconv"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/tlog"

	"github.com/slowlang/decomp/decomp/conf"
	"github.com/slowlang/decomp/decomp/exp"
	"github.com/slowlang/decomp/decomp/ir"
	"github.com/slowlang/decomp/decomp/tp"
)

type (
	// Renderer prints expressions as C text.
	// Prog and Proc are optional and resolve global types and warning context.
	Renderer struct {
		Settings *conf.Settings
		Prog     *ir.Program
		Proc     *ir.Proc

		warns []Warning
	}

	// Warning is a degraded condition met while generating code.
	Warning struct {
		Proc string
		Op   exp.Oper
		Msg  string
	}
)

func NewRenderer(s *conf.Settings) *Renderer {
	return &Renderer{Settings: s}
}

// Render prints e standalone.
func Render(e exp.Exp, s *conf.Settings) string {
	r := NewRenderer(s)

	return string(r.AppendExp(nil, e, PrecNone))
}

func (r *Renderer) Warnings() []Warning { return r.warns }

// AppendExp appends e in the context of an operator of precedence p.
func (r *Renderer) AppendExp(b []byte, e exp.Exp, p Prec) []byte {
	return r.appendExp(b, e, p, false)
}

func (r *Renderer) noDecompile() bool { return r.Settings.Get().NoDecompile }

func (r *Renderer) procName() string {
	if r.Proc == nil {
		return ""
	}

	return r.Proc.Name
}

func (r *Renderer) warn(op exp.Oper, f string, args ...any) {
	w := Warning{Proc: r.procName(), Op: op, Msg: sprintf(f, args...)}

	r.warns = append(r.warns, w)

	tlog.Printw("codegen warning", "proc", w.Proc, "op", op.String(), "msg", w.Msg)
}

func (r *Renderer) appendExp(b []byte, e exp.Exp, cur Prec, uns bool) []byte {
	switch e := e.(type) {
	case *exp.Const:
		return r.appendConst(b, e, uns)
	case *exp.Terminal:
		return r.appendTerminal(b, e)
	case *exp.Unary:
		return r.appendUnary(b, e, cur, uns)
	case *exp.Binary:
		return r.appendBinary(b, e, cur, uns)
	case *exp.Ternary:
		return r.appendTernary(b, e, cur, uns)
	case *exp.Typed:
		return r.appendTyped(b, e, cur)
	case *exp.Ref:
		r.warn(e.Op(), "subscript in code generation")

		return r.appendExp(b, e.X, cur, uns)
	}

	r.warn(exp.OpInvalid, "unexpected expression %T", e)

	return b
}

func (r *Renderer) appendConst(b []byte, c *exp.Const, uns bool) []byte {
	switch c.Op() {
	case exp.OpIntConst:
		if s, ok := tp.SignOf(c.Type); ok && s == tp.Unsigned {
			uns = true
		}

		if tp.IsChar(c.Type) {
			return appendChar(b, c.I)
		}

		return appendInt(b, c.I, uns, c.Type, r.Settings.Get().WordBits)
	case exp.OpLongConst:
		if c.I < -1000 || c.I > 1000 {
			return hfmt.Appendf(b, "0x%xLL", uint64(c.I))
		}

		return hfmt.Appendf(b, "%dLL", c.I)
	case exp.OpFltConst:
		return appendFloat(b, c.F)
	case exp.OpStrConst:
		return hfmt.Appendf(b, "%q", c.S)
	case exp.OpFuncConst:
		return append(b, c.S...)
	}

	r.warn(c.Op(), "case not implemented")

	return b
}

// appendFloat appends the shortest text that reads back as f, always with a decimal point.
func appendFloat(b []byte, f float64) []byte {
	st := len(b)
	b = strconv.AppendFloat(b, f, 'g', -1, 64)

	num := b[st:]
	if bytes.IndexByte(num, '.') >= 0 || bytes.ContainsAny(num, "nN") {
		return b
	}

	e := bytes.IndexByte(num, 'e')
	if e < 0 {
		return append(b, '.')
	}

	e += st
	tail := string(b[e:])

	return append(append(b[:e], ".0"...), tail...)
}

func appendInt(b []byte, k int64, uns bool, t tp.Type, word int) []byte {
	if uns && k < 0 {
		bits := word
		if bits <= 0 || bits > 64 {
			bits = conf.DefaultWordBits
		}

		if t != nil && t.Size() > 0 {
			bits = t.Size()
		}

		u := uint64(k)
		if bits < 64 {
			u &= 1<<bits - 1
		}

		if rem := u % 100; rem == 0 || rem == 99 {
			return hfmt.Appendf(b, "%dU", u)
		}

		return hfmt.Appendf(b, "0x%x", u)
	}

	if k > -2048 && k < 2048 {
		return hfmt.Appendf(b, "%d", k)
	}

	if k >= math.MinInt32 && k <= math.MaxUint32 {
		return hfmt.Appendf(b, "0x%x", uint32(k))
	}

	return hfmt.Appendf(b, "0x%x", uint64(k))
}

var charEscapes = map[int64]string{
	'\a': `\a`,
	'\b': `\b`,
	'\f': `\f`,
	'\n': `\n`,
	'\r': `\r`,
	'\t': `\t`,
	'\v': `\v`,
	'\\': `\\`,
	'?':  `\?`,
	'\'': `\'`,
	'"':  `\"`,
}

func appendChar(b []byte, k int64) []byte {
	b = append(b, '\'')

	switch esc, ok := charEscapes[k]; {
	case ok:
		b = append(b, esc...)
	case k >= 0x20 && k < 0x7f:
		b = append(b, byte(k))
	default:
		b = hfmt.Appendf(b, "\\%o", uint8(k))
	}

	return append(b, '\'')
}

func (r *Renderer) appendTerminal(b []byte, t *exp.Terminal) []byte {
	op := t.Op()

	switch {
	case op == exp.OpTrue:
		return append(b, "true"...)
	case op == exp.OpFalse:
		return append(b, "false"...)
	case op == exp.OpPC:
		return append(b, "pc"...)
	case op == exp.OpFlags:
		return append(b, "flags"...)
	case op == exp.OpFflags:
		return append(b, "/* Fflags() */ "...)
	case op.IsMachineFlag():
		return append(b, op.String()...)
	case op == exp.OpDefineAll:
		r.warn(op, "should not see DefineAll in code generation")

		return append(b, "<all>"...)
	}

	r.warn(op, "case not implemented")

	return b
}

func (r *Renderer) appendUnary(b []byte, u *exp.Unary, cur Prec, uns bool) []byte {
	op := u.Op()

	if sym, ok := unops[op]; ok {
		sub := r.appendExp(nil, u.X, PrecUnary, false)

		b = open(b, cur, PrecUnary)
		b = append(b, sym...)

		if sym == "-" && len(sub) != 0 && sub[0] == '-' {
			b = append(b, ' ')
		}

		b = append(b, sub...)

		return closep(b, cur, PrecUnary)
	}

	if name, ok := mathCalls[op]; ok {
		b = append(b, name...)
		b = append(b, '(')
		b = r.appendExp(b, u.X, PrecNone, false)

		return append(b, ')')
	}

	switch op {
	case exp.OpLocal, exp.OpParam, exp.OpGlobal, exp.OpTemp:
		name, ok := exp.Name(u)
		if !ok {
			r.warn(op, "unnamed location")
			return b
		}

		return append(b, name...)
	case exp.OpRegOf:
		if k, ok := exp.IntValue(u.X); ok {
			return hfmt.Appendf(b, "r%d", k)
		}

		if u.X.Op() == exp.OpTemp {
			return append(b, "tmp"...)
		}

		b = append(b, "r["...)
		b = r.appendExp(b, u.X, PrecNone, false)

		return append(b, ']')
	case exp.OpMemOf:
		if r.noDecompile() {
			b = append(b, "MEMOF("...)
			b = r.appendExp(b, u.X, PrecNone, false)

			return append(b, ')')
		}

		b = open(b, cur, PrecUnary)
		b = append(b, '*')
		b = r.appendExp(b, u.X, PrecUnary, false)

		return closep(b, cur, PrecUnary)
	case exp.OpAddrOf:
		return r.appendAddrOf(b, u, cur)
	case exp.OpMachFtr:
		b = append(b, "/* machine specific */ (int) "...)

		if c, ok := u.X.(*exp.Const); ok && c.Op() == exp.OpStrConst {
			s := c.S
			if len(s) != 0 && s[0] == '%' {
				s = s[1:]
			}

			return append(b, s...)
		}

		return r.appendExp(b, u.X, PrecUnary, false)
	}

	r.warn(op, "case not implemented")

	return b
}

func (r *Renderer) appendAddrOf(b []byte, u *exp.Unary, cur Prec) []byte {
	x := u.X

	if name, ok := exp.Name(x); ok && x.Op() == exp.OpGlobal {
		if g := r.Prog.Global(name); g != nil {
			switch t := g.Type.(type) {
			case tp.Array:
				return r.appendExp(b, x, cur, false)
			case tp.Ptr:
				if tp.IsChar(t.X) {
					return r.appendExp(b, x, cur, false)
				}
			}
		}
	}

	if x.Op() == exp.OpMemOf {
		return r.appendExp(b, exp.MustUnary(x).X, PrecUnary, false)
	}

	b = open(b, cur, PrecUnary)
	b = append(b, '&')
	b = r.appendExp(b, x, PrecUnary, false)

	return closep(b, cur, PrecUnary)
}

func (r *Renderer) appendBinary(b []byte, x *exp.Binary, cur Prec, uns bool) []byte {
	op := x.Op()

	if bo, ok := binops[op]; ok {
		operandUns := bo.uns

		b = open(b, cur, bo.prec)
		b = r.appendExp(b, x.X, bo.prec, operandUns)
		b = append(b, bo.sym...)

		if k, ok := exp.IntValue(x.Y); ok && op == exp.OpBitAnd {
			b = appendMask(b, k)
		} else {
			b = r.appendExp(b, x.Y, bo.prec+1, operandUns)
		}

		return closep(b, cur, bo.prec)
	}

	if name, ok := rotates[op]; ok {
		b = append(b, name...)
		b = append(b, '(')
		b = r.appendExp(b, x.X, PrecComma, false)
		b = append(b, ", "...)
		b = r.appendExp(b, x.Y, PrecComma, false)

		return append(b, ')')
	}

	switch op {
	case exp.OpPow:
		b = append(b, "pow("...)
		b = r.appendExp(b, x.X, PrecComma, false)
		b = append(b, ", "...)
		b = r.appendExp(b, x.Y, PrecComma, false)

		return append(b, ')')
	case exp.OpSize:
		return r.appendExp(b, x.Y, cur, uns)
	case exp.OpFlagCall:
		if c, ok := x.X.(*exp.Const); ok {
			b = append(b, c.S...)
		} else {
			b = r.appendExp(b, x.X, PrecPrim, false)
		}

		b = append(b, '(')
		b = r.appendList(b, x.Y, uns)

		return append(b, ')')
	case exp.OpList:
		b = append(b, "{ "...)
		b = r.appendList(b, x, uns)

		return append(b, " }"...)
	case exp.OpArrayIndex:
		b = open(b, cur, PrecPrim)
		b = r.appendExp(b, x.X, PrecPrim, false)
		b = append(b, '[')
		b = r.appendExp(b, x.Y, PrecNone, uns)
		b = append(b, ']')

		return closep(b, cur, PrecPrim)
	case exp.OpMemberAccess:
		base, sep := x.X, "."

		if base.Op() == exp.OpMemOf && !r.noDecompile() {
			base, sep = exp.MustUnary(base).X, "->"
		}

		b = r.appendExp(b, base, PrecPrim, false)
		b = append(b, sep...)

		if c, ok := x.Y.(*exp.Const); ok && c.Op() == exp.OpStrConst {
			return append(b, c.S...)
		}

		return r.appendExp(b, x.Y, PrecPrim, false)
	}

	r.warn(op, "case not implemented")

	return b
}

// appendMask prints a bitwise and operand in the shorter of its plain or complemented hex form.
func appendMask(b []byte, k int64) []byte {
	u := uint64(k)
	if k >= math.MinInt32 && k <= math.MaxUint32 {
		u = uint64(uint32(k))
	}

	inv := ^u
	if u == uint64(uint32(u)) {
		inv = uint64(^uint32(u))
	}

	plain := hfmt.Appendf(nil, "0x%x", u)
	neg := hfmt.Appendf(nil, "~0x%x", inv)

	if len(neg) < len(plain) {
		return append(b, neg...)
	}

	return append(b, plain...)
}

func (r *Renderer) appendList(b []byte, e exp.Exp, uns bool) []byte {
	for i := 0; ; i++ {
		l, ok := e.(*exp.Binary)
		if !ok || l.Op() != exp.OpList {
			if e.Op() != exp.OpNil {
				if i != 0 {
					b = append(b, ", "...)
				}

				b = r.appendExp(b, e, PrecComma, uns)
			}

			return b
		}

		if i != 0 {
			b = append(b, ", "...)
		}

		b = r.appendExp(b, l.X, PrecComma, uns)
		e = l.Y
	}
}

func (r *Renderer) appendTernary(b []byte, x *exp.Ternary, cur Prec, uns bool) []byte {
	op := x.Op()

	switch op {
	case exp.OpAt:
		hi, ok1 := exp.IntValue(x.Y)
		lo, ok2 := exp.IntValue(x.Z)

		if !ok1 || !ok2 || hi < lo {
			r.warn(op, "non constant bit range")
			return b
		}

		mask := uint64(math.MaxUint64)
		if w := hi - lo + 1; w < 64 {
			mask = 1<<w - 1
		}

		b = append(b, '(')
		b = r.appendExp(b, x.X, PrecBitShift, false)
		b = hfmt.Appendf(b, " >> %d & ", lo)

		if mask < 10 {
			b = hfmt.Appendf(b, "%d", mask)
		} else {
			b = hfmt.Appendf(b, "0x%x", mask)
		}

		return append(b, ')')
	case exp.OpTern:
		b = open(b, cur, PrecCond)
		b = append(b, '(')
		b = r.appendExp(b, x.X, PrecNone, false)
		b = append(b, ") ? "...)
		b = r.appendExp(b, x.Y, PrecCond, uns)
		b = append(b, " : "...)
		b = r.appendExp(b, x.Z, PrecCond, uns)

		return closep(b, cur, PrecCond)
	case exp.OpItof:
		to, _ := exp.IntValue(x.Y)
		return r.appendCast(b, tp.Float{Bits: floatBits(to)}.String(), x.Z, cur)
	case exp.OpFtoi:
		return r.appendCast(b, "int", x.Z, cur)
	case exp.OpSgnEx, exp.OpTruncs, exp.OpTruncu:
		to, _ := exp.IntValue(x.Y)

		sign := tp.Signed
		if op == exp.OpTruncu {
			sign = tp.Unsigned
		}

		return r.appendCast(b, tp.Int{Bits: int16(to), Sign: sign}.String(), x.Z, cur)
	case exp.OpZfill:
		from, _ := exp.IntValue(x.X)
		to, _ := exp.IntValue(x.Y)

		if x.Z.Op() == exp.OpMemOf && (from == 8 || from == 16) && to == 32 {
			return r.appendMemCast(b, tp.Int{Bits: int16(from), Sign: tp.Unsigned}, x.Z, cur)
		}

		return r.appendExp(b, x.Z, cur, uns)
	case exp.OpFsize:
		if x.Z.Op() != exp.OpMemOf {
			return r.appendExp(b, x.Z, cur, uns)
		}

		to, _ := exp.IntValue(x.Y)

		return r.appendMemCast(b, tp.Float{Bits: floatBits(to)}, x.Z, cur)
	}

	r.warn(op, "case not implemented")

	return b
}

func floatBits(k int64) int16 {
	switch k {
	case 32, 80:
		return int16(k)
	}

	return 64
}

func (r *Renderer) appendCast(b []byte, typ string, x exp.Exp, cur Prec) []byte {
	b = open(b, cur, PrecUnary)
	b = append(b, '(')
	b = append(b, typ...)
	b = append(b, ')')
	b = r.appendExp(b, x, PrecUnary, false)

	return closep(b, cur, PrecUnary)
}

// appendMemCast prints a memory load of type t.
func (r *Renderer) appendMemCast(b []byte, t tp.Type, mem exp.Exp, cur Prec) []byte {
	addr := exp.MustUnary(mem).X

	if r.noDecompile() {
		switch t := t.(type) {
		case tp.Float:
			if t.Bits == 32 {
				b = append(b, "FLOAT_"...)
			} else {
				b = append(b, "DOUBLE_"...)
			}
		}

		b = append(b, "MEMOF("...)
		b = r.appendExp(b, addr, PrecNone, false)

		return append(b, ')')
	}

	b = open(b, cur, PrecUnary)
	b = append(b, "*("...)
	b = append(b, tp.Ptr{X: t}.String()...)
	b = append(b, ')')
	b = r.appendExp(b, addr, PrecUnary, false)

	return closep(b, cur, PrecUnary)
}

func (r *Renderer) appendTyped(b []byte, x *exp.Typed, cur Prec) []byte {
	if in, ok := x.X.(*exp.Typed); ok && tp.Equal(in.Type, x.Type) {
		return r.appendTyped(b, in, cur)
	}

	if x.X.Op() == exp.OpMemOf {
		return r.appendMemCast(b, x.Type, x.X, cur)
	}

	if k, ok := exp.IntValue(x.X); ok {
		if s, ok := tp.SignOf(x.Type); ok && s == tp.Unsigned {
			return appendInt(b, k, true, x.Type, r.Settings.Get().WordBits)
		}
	}

	return r.appendCast(b, typeString(x.Type), x.X, cur)
}

// typeString is a declaration type, int when unknown.
func typeString(t tp.Type) string {
	switch x := t.(type) {
	case nil:
		t = tp.Int{Bits: 32}
	case tp.Ptr:
		if a, ok := x.X.(tp.Array); ok {
			t = tp.Ptr{X: a.X}
		}
	}

	return t.String()
}

// appendTypeIdent appends a declaration of id with type t.
func (r *Renderer) appendTypeIdent(b []byte, t tp.Type, id string) []byte {
	switch x := t.(type) {
	case tp.Ptr:
		switch y := x.X.(type) {
		case tp.Array:
			b = append(b, typeString(y.X)...)
			b = append(b, " *"...)
		case tp.Func:
			b = append(b, typeString(y.Ret)...)
			b = append(b, " (*"...)
			b = append(b, id...)
			b = append(b, ')')

			return append(b, y.ParamList()...)
		default:
			b = append(b, x.String()...)
		}

		return append(b, id...)
	case tp.Array:
		b = r.appendTypeIdent(b, x.X, id)

		if x.Len < 0 {
			return append(b, "[]"...)
		}

		return hfmt.Appendf(b, "[%d]", x.Len)
	case tp.Void:
		r.warn(exp.OpInvalid, "declaring %v of void type, using int", id)

		t = nil
	}

	b = append(b, typeString(t)...)
	b = append(b, ' ')

	return append(b, id...)
}

func sprintf(f string, args ...any) string {
	return string(hfmt.Appendf(nil, f, args...))
}
