package exp

import (
	"fmt"

	"tlog.app/go/loc"
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/decomp/decomp/tp"
)

type (
	// Exp is an expression tree node.
	// Subexpressions are owned by their parent; reuse a subtree elsewhere by cloning it.
	Exp interface {
		Op() Oper
		Arity() int
		Sub(i int) Exp
		SetSub(i int, x Exp)
		Clone() Exp
		String() string
	}

	// DefID is a handle of the statement defining a referenced value.
	DefID int32

	Const struct {
		op Oper

		I int64
		F float64
		S string

		// Type is optional. It drives constant rendering.
		Type tp.Type
	}

	Terminal struct {
		op Oper
	}

	Unary struct {
		op Oper
		X  Exp
	}

	Binary struct {
		op   Oper
		X, Y Exp
	}

	Ternary struct {
		op      Oper
		X, Y, Z Exp
	}

	Typed struct {
		Type tp.Type
		X    Exp
	}

	// Ref is an SSA reference: value of X as defined by statement Def.
	Ref struct {
		X   Exp
		Def DefID
	}
)

const (
	NoDef       DefID = 0
	ImplicitDef DefID = -1

	// AnyDef matches any definition in patterns.
	AnyDef DefID = -1 << 31
)

func Int(k int64) *Const { return &Const{op: OpIntConst, I: k} }

func IntTyped(k int64, t tp.Type) *Const { return &Const{op: OpIntConst, I: k, Type: t} }

func Long(k int64) *Const { return &Const{op: OpLongConst, I: k} }
func Flt(f float64) *Const { return &Const{op: OpFltConst, F: f} }
func Str(s string) *Const { return &Const{op: OpStrConst, S: s} }
func FuncName(s string) *Const { return &Const{op: OpFuncConst, S: s} }

func NewTerminal(op Oper) *Terminal {
	if !op.IsTerminal() {
		panic(fmt.Sprintf("%v is not a terminal (%v)", op, loc.Caller(1)))
	}

	return &Terminal{op: op}
}

func NewUnary(op Oper, x Exp) *Unary {
	if !op.IsUnary() {
		panic(fmt.Sprintf("%v is not unary (%v)", op, loc.Caller(1)))
	}

	if x == nil {
		panic(fmt.Sprintf("%v: nil subexpression (%v)", op, loc.Caller(1)))
	}

	return &Unary{op: op, X: x}
}

func NewBinary(op Oper, x, y Exp) *Binary {
	if !op.IsBinary() {
		panic(fmt.Sprintf("%v is not binary (%v)", op, loc.Caller(1)))
	}

	if x == nil || y == nil {
		panic(fmt.Sprintf("%v: nil subexpression (%v)", op, loc.Caller(1)))
	}

	return &Binary{op: op, X: x, Y: y}
}

func NewTernary(op Oper, x, y, z Exp) *Ternary {
	if !op.IsTernary() {
		panic(fmt.Sprintf("%v is not ternary (%v)", op, loc.Caller(1)))
	}

	if x == nil || y == nil || z == nil {
		panic(fmt.Sprintf("%v: nil subexpression (%v)", op, loc.Caller(1)))
	}

	return &Ternary{op: op, X: x, Y: y, Z: z}
}

func NewTyped(t tp.Type, x Exp) *Typed {
	if x == nil {
		panic(fmt.Sprintf("typed: nil subexpression (%v)", loc.Caller(1)))
	}

	return &Typed{Type: t, X: x}
}

func NewRef(x Exp, def DefID) *Ref {
	if x == nil {
		panic(fmt.Sprintf("ref: nil subexpression (%v)", loc.Caller(1)))
	}

	return &Ref{X: x, Def: def}
}

func Reg(n int) *Unary { return NewUnary(OpRegOf, Int(int64(n))) }
func Mem(addr Exp) *Unary { return NewUnary(OpMemOf, addr) }
func AddrOf(x Exp) *Unary { return NewUnary(OpAddrOf, x) }
func Local(name string) *Unary { return NewUnary(OpLocal, Str(name)) }
func Param(name string) *Unary { return NewUnary(OpParam, Str(name)) }
func Global(name string) *Unary { return NewUnary(OpGlobal, Str(name)) }
func Temp(name string) *Unary { return NewUnary(OpTemp, Str(name)) }
func True() *Terminal { return &Terminal{op: OpTrue} }
func False() *Terminal { return &Terminal{op: OpFalse} }
func PC() *Terminal { return &Terminal{op: OpPC} }
func Wild() *Terminal { return &Terminal{op: OpWild} }
func Not(x Exp) *Unary { return NewUnary(OpLNot, x) }
func Plus(x, y Exp) *Binary { return NewBinary(OpPlus, x, y) }
func Minus(x, y Exp) *Binary { return NewBinary(OpMinus, x, y) }
func Tern(c, a, b Exp) *Ternary { return NewTernary(OpTern, c, a, b) }

func Bool(v bool) *Terminal {
	if v {
		return True()
	}

	return False()
}

func (x *Const) Op() Oper { return x.op }
func (x *Terminal) Op() Oper { return x.op }
func (x *Unary) Op() Oper { return x.op }
func (x *Binary) Op() Oper { return x.op }
func (x *Ternary) Op() Oper { return x.op }
func (x *Typed) Op() Oper { return OpTypedExp }
func (x *Ref) Op() Oper { return OpSubscript }

func (x *Terminal) SetOp(op Oper) { x.op = checkOp(op, 0) }
func (x *Unary) SetOp(op Oper) { x.op = checkOp(op, 1) }
func (x *Binary) SetOp(op Oper) { x.op = checkOp(op, 2) }
func (x *Ternary) SetOp(op Oper) { x.op = checkOp(op, 3) }

func checkOp(op Oper, arity int) Oper {
	ok := false

	switch arity {
	case 0:
		ok = op.IsTerminal()
	case 1:
		ok = op.IsUnary()
	case 2:
		ok = op.IsBinary()
	case 3:
		ok = op.IsTernary()
	}

	if !ok {
		panic(fmt.Sprintf("%v does not have arity %d (%v)", op, arity, loc.Caller(2)))
	}

	return op
}

func (x *Const) Arity() int { return 0 }
func (x *Terminal) Arity() int { return 0 }
func (x *Unary) Arity() int { return 1 }
func (x *Binary) Arity() int { return 2 }
func (x *Ternary) Arity() int { return 3 }
func (x *Typed) Arity() int { return 1 }
func (x *Ref) Arity() int { return 1 }

func (x *Const) Sub(i int) Exp { panic(badSub(x, i)) }
func (x *Terminal) Sub(i int) Exp { panic(badSub(x, i)) }

func (x *Unary) Sub(i int) Exp {
	if i != 0 {
		panic(badSub(x, i))
	}

	return x.X
}

func (x *Binary) Sub(i int) Exp {
	switch i {
	case 0:
		return x.X
	case 1:
		return x.Y
	}

	panic(badSub(x, i))
}

func (x *Ternary) Sub(i int) Exp {
	switch i {
	case 0:
		return x.X
	case 1:
		return x.Y
	case 2:
		return x.Z
	}

	panic(badSub(x, i))
}

func (x *Typed) Sub(i int) Exp {
	if i != 0 {
		panic(badSub(x, i))
	}

	return x.X
}

func (x *Ref) Sub(i int) Exp {
	if i != 0 {
		panic(badSub(x, i))
	}

	return x.X
}

func (x *Const) SetSub(i int, s Exp) { panic(badSub(x, i)) }
func (x *Terminal) SetSub(i int, s Exp) { panic(badSub(x, i)) }

func (x *Unary) SetSub(i int, s Exp) {
	*slot(x, i) = nonNil(x, s)
}

func (x *Binary) SetSub(i int, s Exp) {
	*slot(x, i) = nonNil(x, s)
}

func (x *Ternary) SetSub(i int, s Exp) {
	*slot(x, i) = nonNil(x, s)
}

func (x *Typed) SetSub(i int, s Exp) {
	*slot(x, i) = nonNil(x, s)
}

func (x *Ref) SetSub(i int, s Exp) {
	*slot(x, i) = nonNil(x, s)
}

// slot returns the address of the i-th subexpression field.
func slot(e Exp, i int) *Exp {
	switch e := e.(type) {
	case *Unary:
		if i == 0 {
			return &e.X
		}
	case *Binary:
		switch i {
		case 0:
			return &e.X
		case 1:
			return &e.Y
		}
	case *Ternary:
		switch i {
		case 0:
			return &e.X
		case 1:
			return &e.Y
		case 2:
			return &e.Z
		}
	case *Typed:
		if i == 0 {
			return &e.X
		}
	case *Ref:
		if i == 0 {
			return &e.X
		}
	}

	panic(badSub(e, i))
}

func nonNil(e, s Exp) Exp {
	if s == nil {
		panic(fmt.Sprintf("%v: nil subexpression (%v)", e.Op(), loc.Caller(2)))
	}

	return s
}

func badSub(e Exp, i int) string {
	return fmt.Sprintf("%v: no subexpression %d, arity %d (%v)", e.Op(), i, e.Arity(), loc.Caller(2))
}

func (x *Const) Clone() Exp {
	r := *x
	return &r
}

func (x *Terminal) Clone() Exp {
	return &Terminal{op: x.op}
}

func (x *Unary) Clone() Exp {
	return &Unary{op: x.op, X: x.X.Clone()}
}

func (x *Binary) Clone() Exp {
	return &Binary{op: x.op, X: x.X.Clone(), Y: x.Y.Clone()}
}

func (x *Ternary) Clone() Exp {
	return &Ternary{op: x.op, X: x.X.Clone(), Y: x.Y.Clone(), Z: x.Z.Clone()}
}

func (x *Typed) Clone() Exp {
	return &Typed{Type: x.Type, X: x.X.Clone()}
}

func (x *Ref) Clone() Exp {
	return &Ref{X: x.X.Clone(), Def: x.Def}
}

// Clone is nil safe version of e.Clone.
func Clone(e Exp) Exp {
	if e == nil {
		return nil
	}

	return e.Clone()
}

func MustConst(e Exp) *Const {
	x, ok := e.(*Const)
	if !ok {
		panic(fmt.Sprintf("expected const, got %v (%v)", e, loc.Caller(1)))
	}

	return x
}

func MustUnary(e Exp) *Unary {
	x, ok := e.(*Unary)
	if !ok {
		panic(fmt.Sprintf("expected unary, got %v (%v)", e, loc.Caller(1)))
	}

	return x
}

func MustBinary(e Exp) *Binary {
	x, ok := e.(*Binary)
	if !ok {
		panic(fmt.Sprintf("expected binary, got %v (%v)", e, loc.Caller(1)))
	}

	return x
}

func MustTernary(e Exp) *Ternary {
	x, ok := e.(*Ternary)
	if !ok {
		panic(fmt.Sprintf("expected ternary, got %v (%v)", e, loc.Caller(1)))
	}

	return x
}

// IntValue returns value of an integer constant.
func IntValue(e Exp) (int64, bool) {
	c, ok := e.(*Const)
	if !ok || c.op != OpIntConst {
		return 0, false
	}

	return c.I, true
}

func IsIntConst(e Exp) bool {
	return e != nil && e.Op() == OpIntConst
}

func IsIntConstValue(e Exp, k int64) bool {
	v, ok := IntValue(e)
	return ok && v == k
}

// IsLocation reports whether e is memof, regof, local, param, global or temp.
func IsLocation(e Exp) bool {
	return e != nil && e.Op().IsLocation()
}

// Base strips SSA references.
func Base(e Exp) Exp {
	for {
		r, ok := e.(*Ref)
		if !ok {
			return e
		}

		e = r.X
	}
}

// Name is the name of local, param, global or temp location.
func Name(e Exp) (string, bool) {
	u, ok := e.(*Unary)
	if !ok {
		return "", false
	}

	switch u.op {
	case OpLocal, OpParam, OpGlobal, OpTemp:
	default:
		return "", false
	}

	c, ok := u.X.(*Const)
	if !ok || c.op != OpStrConst {
		return "", false
	}

	return c.S, true
}

// RegNum is the register number of r[k].
func RegNum(e Exp) (int, bool) {
	u, ok := e.(*Unary)
	if !ok || u.op != OpRegOf {
		return 0, false
	}

	k, ok := IntValue(u.X)

	return int(k), ok
}

func (x *Const) TlogAppend(b []byte) []byte { return appendTlog(b, x) }
func (x *Terminal) TlogAppend(b []byte) []byte { return appendTlog(b, x) }
func (x *Unary) TlogAppend(b []byte) []byte { return appendTlog(b, x) }
func (x *Binary) TlogAppend(b []byte) []byte { return appendTlog(b, x) }
func (x *Ternary) TlogAppend(b []byte) []byte { return appendTlog(b, x) }
func (x *Typed) TlogAppend(b []byte) []byte { return appendTlog(b, x) }
func (x *Ref) TlogAppend(b []byte) []byte { return appendTlog(b, x) }

func appendTlog(b []byte, x Exp) []byte {
	var e tlwire.Encoder

	return e.AppendString(b, x.String())
}
