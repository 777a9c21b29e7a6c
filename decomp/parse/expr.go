package parse

import (
	"context"
	"strconv"

	"tlog.app/go/errors"

	"github.com/slowlang/decomp/decomp/exp"
	"github.com/slowlang/decomp/decomp/tp"
)

type (
	// Expr is a full expression: binary operators with C precedence and the c ? a : b conditional.
	Expr struct{}

	Unary struct{}

	// Postfix is a primary followed by references {n}, bit extracts @[hi:lo], indexes and member accesses.
	Postfix struct{}

	Primary struct{}

	// TypeTag is the short type spelling of typed expressions.
	TypeTag struct{}

	// Args is a parenthesized comma separated expression list.
	Args struct{}

	// RefDef is the definition part of a reference.
	RefDef struct{}
)

var binary = func() Parser {
	levels := []Infix{
		{exp.OpOr},
		{exp.OpAnd},
		{exp.OpBitOr},
		{exp.OpBitXor},
		{exp.OpBitAnd},
		{exp.OpEquals, exp.OpNotEqual},
		{exp.OpLess, exp.OpGtr, exp.OpLessEq, exp.OpGtrEq, exp.OpLessUns, exp.OpGtrUns, exp.OpLessEqUns, exp.OpGtrEqUns},
		{exp.OpShiftL, exp.OpShiftR, exp.OpShiftRA},
		{exp.OpPlus, exp.OpMinus, exp.OpFPlus, exp.OpFMinus},
		{exp.OpMult, exp.OpMults, exp.OpDiv, exp.OpDivs, exp.OpMod, exp.OpMods, exp.OpFMult, exp.OpFDiv},
	}

	var p Parser = Unary{}

	for j := len(levels) - 1; j >= 0; j-- {
		p = LeftToRight{Op: levels[j], Arg: p}
	}

	return p
}()

var (
	terminals = map[string]exp.Oper{}
	funcs     = map[string]exp.Oper{}
)

func init() {
	for op := exp.OpNil; op <= exp.OpFGF; op++ {
		if s, ok := exp.TerminalSym(op); ok {
			terminals[s] = op
		}
	}

	for op, s := range exp.FuncNames {
		funcs[s] = op
	}
}

func (p Expr) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	x, i, err = binary.Parse(ctx, b, st)
	if err != nil {
		return
	}

	tail := AllOf{tok("?"), Expr{}, tok(":"), Expr{}}

	r, j, err := tail.Parse(ctx, b, i)
	if err != nil {
		if j == i {
			return x, i, nil
		}

		return nil, j, errors.Wrap(err, "conditional")
	}

	l := r.([]Node)

	return exp.Tern(x.(exp.Exp), l[1].(exp.Exp), l[3].(exp.Exp)), j, nil
}

func (p Unary) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	i = skip(b, st)
	if i == len(b) {
		return nil, st, errors.New("expression expected")
	}

	var op exp.Oper

	switch b[i] {
	case '~':
		op = exp.OpNot
	case '!':
		op = exp.OpLNot
	case '-':
		if i+1 < len(b) && isDigit(b[i+1]) {
			return Postfix{}.Parse(ctx, b, st)
		}

		op = exp.OpNeg
	default:
		return Postfix{}.Parse(ctx, b, st)
	}

	x, i, err = Unary{}.Parse(ctx, b, i+1)
	if err != nil {
		return nil, i, errors.Wrap(err, "%v operand", op)
	}

	return exp.NewUnary(op, x.(exp.Exp)), i, nil
}

func (p Postfix) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	x, i, err = Primary{}.Parse(ctx, b, st)
	if err != nil {
		return
	}

	e := x.(exp.Exp)

	for {
		var r Node

		switch {
		case hasTok(b, i, "{"):
			r, i, err = Between{Open: Tok("{"), Of: RefDef{}, Close: Tok("}")}.Parse(ctx, b, i)
			if err != nil {
				return nil, i, errors.Wrap(err, "reference")
			}

			e = exp.NewRef(e, r.(exp.DefID))
		case hasTok(b, i, "@["):
			r, i, err = AllOf{Tok("@["), Expr{}, tok(":"), Expr{}, tok("]")}.Parse(ctx, b, i)
			if err != nil {
				return nil, i, errors.Wrap(err, "bit extract")
			}

			l := r.([]Node)
			e = exp.NewTernary(exp.OpAt, e, l[1].(exp.Exp), l[3].(exp.Exp))
		case hasTok(b, i, "["):
			r, i, err = Between{Open: Tok("["), Of: Expr{}, Close: tok("]")}.Parse(ctx, b, i)
			if err != nil {
				return nil, i, errors.Wrap(err, "index")
			}

			e = exp.NewBinary(exp.OpArrayIndex, e, r.(exp.Exp))
		case hasTok(b, i, ".") && i+1 < len(b) && isLetter(b[i+1]):
			r, i, err = Ident{}.Parse(ctx, b, i+1)
			if err != nil {
				return nil, i, errors.Wrap(err, "member")
			}

			e = exp.NewBinary(exp.OpMemberAccess, e, exp.Str(r.(string)))
		default:
			return e, i, nil
		}
	}
}

func (p Primary) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	vst := skip(b, st)
	if vst == len(b) {
		return nil, st, errors.New("expression expected")
	}

	switch c := b[vst]; {
	case c == '(':
		x, i, err = Between{Open: Tok("("), Of: Expr{}, Close: tok(")")}.Parse(ctx, b, vst)
	case c == '*':
		x, i, err = p.typed(ctx, b, vst)
	case c == '%' || c == '<':
		x, i, err = p.terminal(ctx, b, vst)
	case c == '"':
		x, i, err = Str{}.Parse(ctx, b, vst)
	case c == '\'':
		x, i, err = Char{}.Parse(ctx, b, vst)
	case c == '-' || isDigit(c):
		x, i, err = Num{}.Parse(ctx, b, vst)
	case isLetter(c) || c == '_':
		x, i, err = p.name(ctx, b, vst)
	default:
		return nil, st, errors.New("unexpected %q", c)
	}

	if err != nil && i == vst {
		i = st
	}

	return
}

func (p Primary) typed(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	r, i, err := AllOf{Tok("*"), TypeTag{}, Tok("*"), Unary{}}.Parse(ctx, b, st)
	if err != nil {
		return nil, i, errors.Wrap(err, "typed")
	}

	l := r.([]Node)

	return exp.NewTyped(l[1].(tp.Type), l[3].(exp.Exp)), i, nil
}

func (p Primary) terminal(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	if hasTok(b, st, "<all>") {
		return exp.NewTerminal(exp.OpDefineAll), st + 5, nil
	}

	i = st + 1
	for i < len(b) && isIdent(b[i]) {
		i++
	}

	op, ok := terminals[string(b[st:i])]
	if !ok {
		return nil, st, errors.New("unknown terminal %q", b[st:i])
	}

	return exp.NewTerminal(op), i, nil
}

func (p Primary) name(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	x, i, err = Ident{}.Parse(ctx, b, st)
	if err != nil {
		return nil, i, err
	}

	n := x.(string)

	if op, ok := terminals[n]; ok {
		return exp.NewTerminal(op), i, nil
	}

	if i < len(b) && b[i] == '[' {
		var op exp.Oper

		switch n {
		case "m":
			op = exp.OpMemOf
		case "r":
			op = exp.OpRegOf
		case "a":
			op = exp.OpAddrOf
		}

		if op != exp.OpInvalid {
			x, i, err = Between{Open: Tok("["), Of: Expr{}, Close: tok("]")}.Parse(ctx, b, i)
			if err != nil {
				return nil, i, errors.Wrap(err, "%v", op)
			}

			return exp.NewUnary(op, x.(exp.Exp)), i, nil
		}
	}

	if k, ok := regNum(n); ok {
		return exp.Reg(k), i, nil
	}

	if j := skip(b, i); j < len(b) && b[j] == '(' {
		return p.call(ctx, b, j, n)
	}

	return StateFromContext(ctx).resolve(n), i, nil
}

func (p Primary) call(ctx context.Context, b []byte, st int, n string) (x Node, i int, err error) {
	x, i, err = Args{}.Parse(ctx, b, st)
	if err != nil {
		return nil, i, errors.Wrap(err, "%v args", n)
	}

	args := x.([]exp.Exp)

	op, ok := funcs[n]
	if !ok {
		return exp.NewBinary(exp.OpFlagCall, exp.Str(n), list(args)), i, nil
	}

	if len(args) != op.Arity() {
		return nil, st, errors.New("%v takes %d args, got %d", n, op.Arity(), len(args))
	}

	switch op.Arity() {
	case 1:
		return exp.NewUnary(op, args[0]), i, nil
	case 2:
		return exp.NewBinary(op, args[0], args[1]), i, nil
	default:
		return exp.NewTernary(op, args[0], args[1], args[2]), i, nil
	}
}

func (p Args) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	_, i, err = Tok("(").Parse(ctx, b, st)
	if err != nil {
		return nil, st, err
	}

	args := []exp.Exp{}

	if x, j, _ := (Optional{tok(")")}).Parse(ctx, b, i); x != (None{}) {
		return args, j, nil
	}

	for {
		x, i, err = Expr{}.Parse(ctx, b, i)
		if err != nil {
			return nil, i, errors.Wrap(err, "arg %d", len(args))
		}

		args = append(args, x.(exp.Exp))

		x, i, err = AnyOf{tok(","), tok(")")}.Parse(ctx, b, i)
		if err != nil {
			return nil, i, err
		}

		if x == Tok(")") {
			return args, i, nil
		}
	}
}

func (p TypeTag) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	if st == len(b) {
		return nil, st, errors.New("type tag expected")
	}

	i = st + 1

	switch c := b[st]; c {
	case '(':
		return FuncTag{}.Parse(ctx, b, st)
	case 'v':
		return tp.Void{}, i, nil
	case 'b':
		return tp.Bool{}, i, nil
	case 'c':
		return tp.Char{}, i, nil
	case 'p':
		x, i, err = TypeTag{}.Parse(ctx, b, i)
		if err != nil {
			return nil, i, errors.Wrap(err, "pointer")
		}

		return tp.Ptr{X: x.(tp.Type)}, i, nil
	case 'i', 'u', 'j', 'f', 's':
		for i < len(b) && isDigit(b[i]) {
			i++
		}

		bits, err := strconv.Atoi(string(b[st+1 : i]))
		if err != nil || bits <= 0 || bits > 1024 {
			return nil, st + 1, errors.New("type size expected")
		}

		switch c {
		case 'i':
			return tp.Int{Bits: int16(bits), Sign: tp.Signed}, i, nil
		case 'u':
			return tp.Int{Bits: int16(bits), Sign: tp.Unsigned}, i, nil
		case 'j':
			return tp.Int{Bits: int16(bits), Sign: tp.Unknown}, i, nil
		case 'f':
			return tp.Float{Bits: int16(bits)}, i, nil
		default:
			return tp.Sized{Bits: int16(bits)}, i, nil
		}
	}

	return nil, st, errors.New("type tag expected")
}

func (p RefDef) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	switch {
	case hasTok(b, st, "-"):
		return exp.NoDef, st + 1, nil
	case hasTok(b, st, "WILD"):
		return exp.AnyDef, st + 4, nil
	}

	for i = st; i < len(b) && isDigit(b[i]); i++ {
	}

	if i == st {
		return nil, st, errors.New("definition expected")
	}

	n, err := strconv.Atoi(string(b[st:i]))
	if err != nil {
		return nil, st, errors.Wrap(err, "definition")
	}

	if n == 0 {
		return exp.ImplicitDef, i, nil
	}

	return exp.DefID(n), i, nil
}

func regNum(n string) (int, bool) {
	if len(n) < 2 || n[0] != 'r' {
		return 0, false
	}

	for _, c := range []byte(n[1:]) {
		if !isDigit(c) {
			return 0, false
		}
	}

	k, err := strconv.Atoi(n[1:])

	return k, err == nil
}

func list(args []exp.Exp) exp.Exp {
	var e exp.Exp = exp.NewTerminal(exp.OpNil)

	for i := len(args) - 1; i >= 0; i-- {
		e = exp.NewBinary(exp.OpList, args[i], e)
	}

	return e
}
