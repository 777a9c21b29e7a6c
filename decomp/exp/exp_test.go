package exp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/decomp/decomp/tp"
)

func TestClone(t *testing.T) {
	e := Plus(Mem(Plus(Reg(28), Int(4))), NewRef(Reg(24), 3))

	c := e.Clone()
	assert.True(t, Equal(e, c))

	MustUnary(MustBinary(c).X).X = Int(8)
	MustConst(MustUnary(MustBinary(c).Y.(*Ref).X).X).I = 25

	assert.Equal(t, "m[r28 + 4] + r24{3}", e.String())
	assert.Equal(t, "m[8] + r25{3}", c.String())
	assert.False(t, Equal(e, c))
}

func TestString(t *testing.T) {
	for _, tc := range []struct {
		e Exp
		s string
	}{
		{Int(-5), "-5"},
		{Long(7), "7LL"},
		{Flt(2), "2.0"},
		{Str("a\n"), `"a\n"`},
		{PC(), "%pc"},
		{NewTerminal(OpDF), "%DF"},
		{Local("x"), "x"},
		{NewUnary(OpRegOf, Plus(Int(1), Int(2))), "r[1 + 2]"},
		{AddrOf(Global("g")), "a[g]"},
		{Not(NewBinary(OpLessUns, Reg(8), Int(3))), "!(r8 <u 3)"},
		{NewBinary(OpMults, Plus(Reg(8), Int(1)), Reg(9)), "(r8 + 1) *! r9"},
		{NewTernary(OpAt, Reg(8), Int(7), Int(0)), "r8@[7:0]"},
		{NewTernary(OpSgnEx, Int(16), Int(32), Reg(8)), "sgnex(16, 32, r8)"},
		{Tern(Reg(8), Int(1), Int(0)), "r8 ? 1 : 0"},
		{NewTyped(tp.Int{Bits: 32, Sign: tp.Unsigned}, Reg(8)), "*u32* r8"},
		{NewRef(Reg(8), NoDef), "r8{-}"},
		{NewRef(Reg(8), ImplicitDef), "r8{0}"},
		{NewRef(Mem(Plus(Reg(28), Int(4))), 12), "m[r28 + 4]{12}"},
		{NewBinary(OpFlagCall, Str("SUBFLAGS"), NewBinary(OpList, Reg(8), NewBinary(OpList, Int(1), NewTerminal(OpNil)))), "SUBFLAGS(r8, 1)"},
		{NewUnary(OpSqrt, Reg(8)), "sqrt(r8)"},
	} {
		assert.Equal(t, tc.s, tc.e.String())
	}
}

func TestEqualWild(t *testing.T) {
	e := Mem(Plus(Reg(28), Int(4)))

	assert.True(t, Equal(Wild(), e))
	assert.True(t, Equal(e, Wild()))
	assert.True(t, Equal(Mem(Plus(NewTerminal(OpWildRegOf), NewTerminal(OpWildIntConst))), e))
	assert.False(t, Equal(Mem(Plus(NewTerminal(OpWildRegOf), NewTerminal(OpWildStrConst))), e))
	assert.True(t, Equal(NewRef(Reg(8), AnyDef), NewRef(Reg(8), 5)))
	assert.False(t, Equal(NewRef(Reg(8), 4), NewRef(Reg(8), 5)))
}

func TestEqualNoSubscript(t *testing.T) {
	a := Plus(NewRef(Reg(8), 3), Int(1))
	b := Plus(Reg(8), NewRef(Int(1), 7))

	assert.False(t, Equal(a, b))
	assert.True(t, EqualNoSubscript(a, b))
	assert.False(t, EqualNoSubscript(a, Plus(Reg(9), Int(1))))
}

func TestLess(t *testing.T) {
	l := []Exp{
		Plus(Reg(8), Int(1)),
		Int(3),
		Reg(9),
		Int(-2),
		Reg(8),
		NewRef(Reg(8), 2),
		NewRef(Reg(8), 1),
	}

	for _, a := range l {
		assert.False(t, Less(a, a), "%v", a)
		assert.Equal(t, 0, Compare(a, a.Clone()), "%v", a)

		for _, b := range l {
			if Equal(a, b) {
				continue
			}

			assert.NotEqual(t, Less(a, b), Less(b, a), "%v  %v", a, b)
		}
	}

	assert.True(t, Less(Int(-2), Int(3)))
	assert.True(t, Less(Reg(8), Reg(9)))
	assert.True(t, Less(NewRef(Reg(8), 1), NewRef(Reg(8), 2)))
}

func TestSearch(t *testing.T) {
	e := Plus(Mem(Reg(28)), Mem(Plus(Reg(28), Int(4))))

	x, ok := Search(e, Mem(Wild()))
	require.True(t, ok)
	assert.Equal(t, "m[r28]", x.String())

	all := SearchAll(e, Reg(28))
	assert.Len(t, all, 2)

	all = SearchAll(e, Mem(Wild()))
	require.Len(t, all, 2)
	assert.Equal(t, "m[r28 + 4]", all[1].String())

	_, ok = Search(e, Reg(8))
	assert.False(t, ok)
}

func TestSearchReplace(t *testing.T) {
	e := Plus(Mem(Reg(28)), Int(4))

	r, ok := SearchReplaceAll(e, Reg(28), Local("sp"))
	require.True(t, ok)
	assert.Equal(t, "m[sp] + 4", r.String())

	before := r.Clone()

	r, ok = SearchReplaceAll(r, Reg(28), Local("x"))
	assert.False(t, ok)
	assert.True(t, Equal(before, r))

	r, ok = SearchReplaceAll(Reg(8), Reg(8), Int(0))
	assert.True(t, ok)
	assert.Equal(t, "0", r.String())

	repl := Local("y")

	e = Plus(Reg(8), Reg(8))
	r, ok = SearchReplace(e, Reg(8), repl)
	assert.True(t, ok)
	assert.Equal(t, "y + r8", r.String())

	r, _ = SearchReplaceAll(Plus(Reg(8), Reg(8)), Reg(8), repl)
	MustBinary(r).X.(*Unary).X = Str("z")
	assert.Equal(t, "z + y", r.String())
	assert.Equal(t, "y", repl.String())
}

type countingModifier struct {
	NopModifier

	pre, post []string
}

func (m *countingModifier) PreModify(e Exp) (Exp, bool) {
	m.pre = append(m.pre, e.String())

	return e, e.Op() != OpMemOf
}

func (m *countingModifier) PostModify(e Exp) Exp {
	m.post = append(m.post, e.String())

	if IsIntConstValue(e, 1) {
		return Int(2)
	}

	return e
}

func TestModify(t *testing.T) {
	m := &countingModifier{}

	e := Plus(Mem(Plus(Reg(28), Int(1))), Int(1))
	r := Modify(e, m)

	assert.Equal(t, "m[r28 + 1] + 2", r.String())
	assert.Equal(t, []string{"m[r28 + 1] + 1", "m[r28 + 1]"}, m.pre)
	assert.Equal(t, []string{"m[r28 + 1]", "1", "m[r28 + 1] + 2"}, m.post)
}

func TestWalkAbort(t *testing.T) {
	var seen []string

	ok := Walk(Plus(Reg(8), Plus(Reg(9), Reg(10))), VisitFunc(func(e Exp) (bool, bool) {
		seen = append(seen, e.String())
		return true, !Equal(e, Reg(9))
	}))

	assert.False(t, ok)
	assert.Equal(t, []string{"r8 + (r9 + r10)", "r8", "8", "r9 + r10", "r9"}, seen)
}

func TestSet(t *testing.T) {
	var s Set

	assert.True(t, s.Insert(Reg(9)))
	assert.True(t, s.Insert(Int(1)))
	assert.True(t, s.Insert(Reg(8)))
	assert.False(t, s.Insert(Reg(8)))

	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Has(Reg(9)))

	var l []string
	for _, e := range s.List() {
		l = append(l, e.String())
	}

	assert.Equal(t, []string{"r8", "r9", "1"}, l)

	assert.True(t, s.Delete(Reg(9)))
	assert.False(t, s.Has(Reg(9)))
}

func TestUsedLocs(t *testing.T) {
	var s Set

	UsedLocs(Plus(Mem(Plus(Reg(28), Int(4))), NewRef(Mem(Local("p")), 3)), &s)

	var l []string
	for _, e := range s.List() {
		l = append(l, e.String())
	}

	assert.ElementsMatch(t, []string{"m[r28 + 4]", "r28", "m[p]{3}", "p"}, l)
}

func TestCountRefs(t *testing.T) {
	var c Counts

	CountRefs(Plus(NewRef(Reg(8), 3), Mem(NewRef(Reg(8), 3))), &c)
	CountRefs(NewRef(Reg(9), 1), &c)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 2, c.Get(NewRef(Reg(8), 3)))
	assert.Equal(t, 1, c.Get(NewRef(Reg(9), 1)))
	assert.Equal(t, 0, c.Get(NewRef(Reg(9), 2)))
}

func TestFinders(t *testing.T) {
	assert.True(t, HasFlags(Plus(Reg(8), NewTerminal(OpCF))))
	assert.False(t, HasFlags(Plus(Reg(8), Int(1))))
	assert.Equal(t, 3, Depth(Plus(Reg(8), Int(1))))
}

func TestPanics(t *testing.T) {
	assert.Panics(t, func() { Int(1).Sub(0) })
	assert.Panics(t, func() { Reg(8).Sub(1) })
	assert.Panics(t, func() { NewTernary(OpTern, Int(1), nil, Int(2)) })
	assert.Panics(t, func() { NewUnary(OpPlus, Int(1)) })
	assert.Panics(t, func() { MustBinary(Int(1)) })
}

func TestInverse(t *testing.T) {
	for op := OpEquals; op <= OpGtrEqUns; op++ {
		inv, ok := op.Inverse()
		require.True(t, ok)

		back, _ := inv.Inverse()
		assert.Equal(t, op, back)
	}

	_, ok := OpPlus.Inverse()
	assert.False(t, ok)
}
