package simp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slowlang/decomp/decomp/exp"
	"github.com/slowlang/decomp/decomp/tp"
)

type (
	fakeDefs map[exp.DefID]exp.Exp

	fakeCall struct {
		res exp.Exp
	}

	fakeTyper map[string]tp.Type
)

var (
	r8  = func() exp.Exp { return exp.Reg(8) }
	r9  = func() exp.Exp { return exp.Reg(9) }
	i32 = tp.Int{Bits: 32, Sign: tp.Signed}
	u32 = tp.Int{Bits: 32, Sign: tp.Unsigned}
)

func bin(op exp.Oper, x, y exp.Exp) exp.Exp { return exp.NewBinary(op, x, y) }
func un(op exp.Oper, x exp.Exp) exp.Exp { return exp.NewUnary(op, x) }
func k(v int64) exp.Exp { return exp.Int(v) }

func TestSimplifyRules(t *testing.T) {
	for _, tc := range []struct {
		e exp.Exp
		s string
	}{
		{exp.Plus(k(5), k(3)), "8"},
		{exp.Minus(exp.Mem(r8()), exp.Mem(r8())), "0"},
		{un(exp.OpLNot, un(exp.OpLNot, r8())), "r8"},
		{un(exp.OpNeg, un(exp.OpNeg, r8())), "r8"},
		{exp.Plus(k(3), r8()), "r8 + 3"},
		{exp.Plus(exp.Plus(r8(), k(3)), k(4)), "r8 + 7"},
		{exp.Minus(exp.Plus(r8(), k(5)), k(2)), "r8 + 3"},
		{exp.Plus(r8(), k(-4)), "r8 - 4"},
		{bin(exp.OpMinus, bin(exp.OpMults, r8(), k(4)), r8()), "r8 *! 3"},
		{exp.Plus(r8(), bin(exp.OpMults, r8(), k(3))), "r8 *! 4"},
		{bin(exp.OpShiftL, r8(), k(2)), "r8 * 4"},
		{bin(exp.OpMult, bin(exp.OpMult, r8(), k(4)), k(2)), "r8 * 8"},
		{exp.Mem(exp.AddrOf(exp.Local("x"))), "x"},
		{exp.AddrOf(exp.Mem(exp.Local("p"))), "p"},
		{exp.Not(bin(exp.OpLess, r8(), r9())), "r8 >= r9"},
		{bin(exp.OpEquals, bin(exp.OpEquals, r8(), r9()), k(0)), "r8 != r9"},
		{bin(exp.OpEquals, bin(exp.OpEquals, r8(), r9()), k(1)), "r8 == r9"},
		{bin(exp.OpNotEqual, bin(exp.OpEquals, r8(), r9()), k(7)), "true"},
		{bin(exp.OpOr, bin(exp.OpLess, r8(), r9()), bin(exp.OpEquals, r8(), r9())), "r8 <= r9"},
		{bin(exp.OpEquals, exp.Plus(r8(), k(-5)), k(0)), "r8 == 5"},
		{bin(exp.OpEquals, exp.Minus(r8(), r9()), k(0)), "r8 == r9"},
		{bin(exp.OpLess, k(3), r8()), "r8 > 3"},
		{bin(exp.OpEquals, r8(), r8()), "true"},
		{exp.Tern(bin(exp.OpLess, r8(), r9()), k(1), k(0)), "r8 < r9"},
		{exp.Tern(r8(), k(0), k(1)), "!r8"},
		{exp.Tern(k(0), r8(), r9()), "r9"},
		{exp.Tern(r8(), r9(), r9()), "r9"},
		{exp.NewTernary(exp.OpTruncu, k(32), k(8), k(0x1234)), "52"},
		{exp.NewTernary(exp.OpSgnEx, k(8), k(32), k(0xff)), "-1"},
		{exp.NewTernary(exp.OpZfill, k(8), k(32), k(-1)), "255"},
		{exp.NewTernary(exp.OpAt, k(0xf0), k(7), k(4)), "15"},
		{exp.NewRef(exp.NewTerminal(exp.OpDF), exp.NoDef), "0"},
		{exp.NewTyped(i32, r8()), "r8"},
		{bin(exp.OpBitAnd, r8(), k(0xffffffff)), "r8"},
		{bin(exp.OpMults, r8(), k(0)), "0"},
		{bin(exp.OpAnd, exp.True(), r8()), "r8"},
		{bin(exp.OpOr, r8(), exp.False()), "r8"},
		{bin(exp.OpSize, k(32), r8()), "r8"},
		{bin(exp.OpFMinus, exp.Flt(0), r8()), "fneg(r8)"},
		{bin(exp.OpDiv, r8(), k(0)), "r8 / 0"},
		{bin(exp.OpDiv, k(4), k(0)), "4 / 0"},
		{bin(exp.OpDiv, k(-1), k(2)), "2147483647"},
		{bin(exp.OpDivs, k(-8), k(2)), "-4"},
		{exp.Plus(k(0x7fffffff), k(1)), "-2147483648"},
		{bin(exp.OpLessUns, k(-1), k(1)), "0"},
		{bin(exp.OpLess, k(-1), k(1)), "1"},
		{bin(exp.OpShiftRA, k(-8), k(1)), "-4"},
		{bin(exp.OpShiftR, k(-8), k(28)), "15"},
		{bin(exp.OpShiftL, k(1), k(32)), "0"},
		{bin(exp.OpDivs, bin(exp.OpMults, r8(), r9()), r9()), "r8"},
		{bin(exp.OpMod, r8(), r8()), "0"},
	} {
		r := Simplify(tc.e.Clone(), Options{})
		assert.Equal(t, tc.s, r.String(), "%v", tc.e)

		again := Simplify(r.Clone(), Options{})
		assert.True(t, exp.Equal(r, again), "not idempotent: %v -> %v -> %v", tc.e, r, again)
	}
}

func TestSimplifyItof(t *testing.T) {
	r := Simplify(exp.NewTernary(exp.OpItof, k(64), k(32), k(0x3fc00000)), Options{})

	c, ok := r.(*exp.Const)
	if assert.True(t, ok, "%v", r) {
		assert.Equal(t, exp.OpFltConst, c.Op())
		assert.Equal(t, 1.5, c.F)
	}

	r = Simplify(exp.NewTernary(exp.OpItof, k(32), k(64), k(0x3fc00000)), Options{})
	assert.Equal(t, exp.OpItof, r.Op(), "%v", r)
}

func TestSimplifyWordBits(t *testing.T) {
	r := Simplify(exp.Plus(k(0x7fffffff), k(1)), Options{WordBits: 64})
	assert.Equal(t, "2147483648", r.String())

	r = Simplify(exp.Plus(k(0x7f), k(1)), Options{WordBits: 8})
	assert.Equal(t, "-128", r.String())
}

func TestSimplifierModified(t *testing.T) {
	s := NewSimplifier(Options{})

	e := exp.Plus(r8(), r9())
	r := exp.Modify(e, s)

	assert.False(t, s.Modified())
	assert.True(t, exp.Equal(e, r))

	exp.Modify(exp.Plus(k(1), k(2)), s)
	assert.True(t, s.Modified())
}

func TestArith(t *testing.T) {
	a := exp.Reg(8)
	b := exp.Mem(exp.Reg(28))

	e1 := exp.Plus(exp.Plus(a.Clone(), k(5)), b.Clone())
	e2 := exp.Plus(exp.Plus(a.Clone(), b.Clone()), k(5))

	r1 := Simplify(SimplifyArith(e1), Options{})
	r2 := Simplify(SimplifyArith(e2), Options{})

	assert.True(t, exp.Equal(r1, r2), "%v  %v", r1, r2)
	assert.Equal(t, "(r8 + m[r28]) + 5", r1.String())

	for _, tc := range []struct {
		e exp.Exp
		s string
	}{
		{exp.Minus(exp.Plus(a.Clone(), b.Clone()), a.Clone()), "m[r28]"},
		{exp.Plus(exp.Minus(a.Clone(), k(3)), k(3)), "r8"},
		{exp.Minus(k(5), exp.Plus(a.Clone(), k(2))), "3 - r8"},
		{exp.Minus(exp.Plus(a.Clone(), k(1)), exp.Plus(b.Clone(), k(4))), "(r8 - m[r28]) - 3"},
		{exp.Minus(exp.Plus(k(2), k(1)), k(3)), "0"},
		{exp.NewTyped(i32, exp.Plus(exp.Plus(a.Clone(), k(1)), k(1))), "*i32* (r8 + 2)"},
		{exp.Mem(exp.Plus(exp.Plus(a.Clone(), k(1)), k(1))), "m[(r8 + 1) + 1]"},
		{exp.AddrOf(exp.Plus(exp.Plus(a.Clone(), k(1)), k(1))), "a[r8 + 2]"},
	} {
		assert.Equal(t, tc.s, SimplifyArith(tc.e).String(), "%v", tc.e)
	}
}

func TestArithModified(t *testing.T) {
	m := &ArithSimplifier{}
	exp.Modify(exp.Minus(exp.Reg(8), exp.Reg(9)), m)
	assert.False(t, m.Modified())

	exp.Modify(exp.Plus(k(1), exp.Reg(9)), m)
	assert.True(t, m.Modified())
}

func (d fakeDefs) Bypasser(id exp.DefID) Bypasser {
	res, ok := d[id]
	if !ok {
		return nil
	}

	return fakeCall{res: res}
}

func (c fakeCall) BypassRef(r *exp.Ref) (exp.Exp, bool) {
	return c.res.Clone(), true
}

func TestCallBypasser(t *testing.T) {
	defs := fakeDefs{
		5: exp.Plus(exp.NewRef(exp.Reg(28), 2), k(4)),
		6: exp.NewRef(exp.Reg(24), 7),
		7: exp.NewRef(exp.Reg(8), 1),
	}

	b := NewCallBypasser(defs, Options{})
	r := exp.Modify(exp.Plus(exp.NewRef(exp.Reg(24), 5), k(4)), b)
	assert.True(t, b.Modified())
	assert.Equal(t, "r28{2} + 8", r.String())

	r, ok := BypassCalls(exp.Mem(exp.NewRef(exp.Reg(24), 6)), defs, Options{})
	assert.True(t, ok)
	assert.Equal(t, "m[r8{1}]", r.String())

	r, ok = BypassCalls(exp.AddrOf(exp.Mem(exp.NewRef(exp.Reg(24), 5))), defs, Options{})
	assert.True(t, ok)
	assert.Equal(t, "a[m[r28{2} + 4]]", r.String())

	e := exp.Plus(exp.NewRef(exp.Reg(9), 2), k(1))
	r, ok = BypassCalls(e.Clone(), defs, Options{})
	assert.False(t, ok)
	assert.True(t, exp.Equal(e, r))
}

func (ty fakeTyper) TypeOf(e exp.Exp) tp.Type {
	if t, ok := e.(*exp.Typed); ok {
		return t.Type
	}

	return ty[e.String()]
}

func TestCastInserter(t *testing.T) {
	ty := fakeTyper{
		"r8":        i32,
		"r9":        u32,
		"r28":       i32,
		"m[r28]{3}": i32,
		"m[r29]{3}": i32,
		"r29":       tp.Ptr{X: tp.Int{Bits: 32}},
	}

	for _, tc := range []struct {
		e exp.Exp
		s string
	}{
		{bin(exp.OpLessUns, r8(), r9()), "(*u32* r8) <u r9"},
		{bin(exp.OpLess, r9(), k(3)), "(*i32* r9) < 3"},
		{bin(exp.OpShiftR, r8(), r8()), "(*u32* r8) >> r8"},
		{bin(exp.OpShiftRA, r9(), r9()), "(*i32* r9) >>A r9"},
		{bin(exp.OpLess, r8(), r8()), "r8 < r8"},
		{exp.IntTyped(-1, u32), "*u32* -1"},
		{exp.IntTyped(-1, i32), "-1"},
		{exp.NewRef(exp.Mem(exp.Reg(28)), 3), "m[*pi32* r28]{3}"},
		{exp.NewRef(exp.Mem(exp.Reg(29)), 3), "m[r29]{3}"},
	} {
		assert.Equal(t, tc.s, InsertCasts(tc.e, ty).String(), "%v", tc.e)
	}

	c := NewCastInserter(ty)
	exp.Modify(exp.NewTyped(i32, bin(exp.OpLessUns, r8(), r9())), c)
	assert.False(t, c.Modified())
}

func TestSizeStripper(t *testing.T) {
	s := &SizeStripper{}

	r := exp.Modify(exp.Plus(bin(exp.OpSize, k(32), r8()), bin(exp.OpSize, k(16), bin(exp.OpSize, k(8), r9()))), s)

	assert.True(t, s.Modified())
	assert.Equal(t, "r8 + r9", r.String())
}

func TestSubscriptStripper(t *testing.T) {
	s := &SubscriptStripper{}

	e := exp.Plus(exp.NewRef(r8(), 3), exp.Mem(exp.NewRef(exp.Plus(exp.NewRef(r9(), exp.ImplicitDef), k(4)), 2)))
	r := exp.Modify(e, s)

	assert.True(t, s.Modified())
	assert.Equal(t, "r8 + m[r9 + 4]", r.String())

	s = &SubscriptStripper{}
	exp.Modify(exp.Plus(r8(), k(1)), s)
	assert.False(t, s.Modified())
}
