package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/decomp/decomp/exp"
	"github.com/slowlang/decomp/decomp/simp"
	"github.com/slowlang/decomp/decomp/tp"
)

type recorder struct {
	assigns []*Assign
	calls   []*Call
	ind     []*Call
	rets    []*Return
}

var i32 = tp.Int{Bits: 32, Sign: tp.Signed}

func (r *recorder) AddAssign(a *Assign) { r.assigns = append(r.assigns, a) }
func (r *recorder) AddCall(c *Call) { r.calls = append(r.calls, c) }
func (r *recorder) AddIndCall(c *Call) { r.ind = append(r.ind, c) }
func (r *recorder) AddReturn(x *Return) { r.rets = append(r.rets, x) }

func TestProcArena(t *testing.T) {
	p := NewProc("f", 0x1000)

	a := NewAssign(exp.Reg(24), exp.Int(5), i32)
	c := &Call{Name: "g"}

	assert.Equal(t, exp.DefID(1), p.Add(a))
	assert.Equal(t, exp.DefID(2), p.Add(c))

	assert.Panics(t, func() { p.Add(a) })

	assert.Same(t, a, p.Def(1))
	assert.Nil(t, p.Def(0))
	assert.Nil(t, p.Def(3))

	assert.Nil(t, p.Bypasser(1))
	assert.NotNil(t, p.Bypasser(2))

	p.Delete(1)
	assert.Nil(t, p.Def(1))
	assert.Len(t, p.Stmts(), 1)

	var d simp.Defs = p
	assert.Nil(t, d.Bypasser(1))
}

func TestBypassRef(t *testing.T) {
	c := &Call{
		Name: "g",
		Proven: []Proven{
			{Loc: exp.Reg(28), Val: exp.Plus(exp.Reg(28), exp.Int(4))},
			{Loc: exp.Reg(29), Val: exp.Mem(exp.Plus(exp.Reg(28), exp.Int(8)))},
		},
		Reaching: []Reaching{
			{Loc: exp.Reg(28), Def: 2},
			{Loc: exp.Mem(exp.Plus(exp.NewRef(exp.Reg(28), 2), exp.Int(8))), Def: 3},
		},
	}

	r, ok := c.BypassRef(exp.NewRef(exp.Reg(28), 5))
	require.True(t, ok)
	assert.Equal(t, "r28{2} + 4", r.String())

	r, ok = c.BypassRef(exp.NewRef(exp.Reg(29), 5))
	require.True(t, ok)
	assert.Equal(t, "m[r28{2} + 8]{3}", r.String())

	_, ok = c.BypassRef(exp.NewRef(exp.Reg(24), 5))
	assert.False(t, ok)

	r = c.Localise(exp.Plus(exp.NewRef(exp.Reg(28), exp.ImplicitDef), exp.Reg(9)))
	assert.Equal(t, "r28{2} + r9{-}", r.String())

	// proven values are not modified
	assert.Equal(t, "r28 + 4", c.Proven[0].Val.String())
}

func TestBypassCallsThroughProc(t *testing.T) {
	p := NewProc("f", 0)

	p.Add(NewAssign(exp.Reg(28), exp.Int(100), nil))
	p.Add(&Call{
		Name:     "g",
		Proven:   []Proven{{Loc: exp.Reg(28), Val: exp.Plus(exp.Reg(28), exp.Int(4))}},
		Reaching: []Reaching{{Loc: exp.Reg(28), Def: 1}},
	})

	e, ok := simp.BypassCalls(exp.Plus(exp.NewRef(exp.Reg(28), 2), exp.Int(4)), p, simp.Options{})
	assert.True(t, ok)
	assert.Equal(t, "r28{1} + 8", e.String())
}

func TestTypeOf(t *testing.T) {
	prog := NewProgram("p")
	prog.AddGlobal(&Global{Name: "g", Type: tp.Array{X: i32, Len: 4}})

	p := prog.AddProc(NewProc("f", 0))
	p.Params = []Param{{Name: "argc", Type: i32}}
	p.AddLocal("x", tp.Char{}, nil)

	id := p.Add(NewAssign(exp.Reg(24), exp.Int(1), tp.Ptr{X: i32}))

	assert.Equal(t, tp.Char{}, p.TypeOf(exp.Local("x")))
	assert.Equal(t, i32, p.TypeOf(exp.Param("argc")))
	assert.Equal(t, tp.Array{X: i32, Len: 4}, p.TypeOf(exp.Global("g")))
	assert.Equal(t, tp.Ptr{X: i32}, p.TypeOf(exp.NewRef(exp.Reg(24), id)))
	assert.Equal(t, tp.Float{Bits: 64}, p.TypeOf(exp.Flt(1)))
	assert.Equal(t, tp.Bool{}, p.TypeOf(exp.NewTyped(tp.Bool{}, exp.Reg(8))))
	assert.Nil(t, p.TypeOf(exp.Int(3)))
	assert.Nil(t, p.TypeOf(exp.Local("y")))
	assert.Nil(t, p.TypeOf(exp.NewRef(exp.Reg(25), id)))
}

func TestLocalsOrdered(t *testing.T) {
	p := NewProc("f", 0)

	assert.Nil(t, p.Locals())

	p.AddLocal("local2", i32, nil)
	p.AddLocal("local0", i32, nil)
	p.AddLocal("a", tp.Char{}, nil)
	p.AddLocal("local0", tp.Bool{}, nil)

	var names []string
	for _, l := range p.Locals() {
		names = append(names, l.Name)
	}

	assert.Equal(t, []string{"a", "local0", "local2"}, names)
	assert.Equal(t, tp.Bool{}, p.Local("local0").Type)
}

func TestGenerateCode(t *testing.T) {
	var r recorder

	stmts := []Stmt{
		NewAssign(exp.Local("x"), exp.Int(1), nil),
		&BoolAssign{Left: exp.Local("b"), Cond: exp.NewBinary(exp.OpLess, exp.Local("x"), exp.Int(3)), Size: 32},
		&Branch{Cond: exp.True(), Dest: exp.Int(0x10)},
		&Goto{Dest: exp.Int(0x20)},
		&Case{Switch: &SwitchInfo{Var: exp.Local("x")}},
		&Call{Dest: exp.FuncName("puts")},
		&Call{Dest: exp.Mem(exp.Local("fp"))},
		&Return{},
		&Implicit{Left: exp.Reg(28)},
	}

	for _, s := range stmts {
		s.GenerateCode(&r)
	}

	require.Len(t, r.assigns, 2)
	assert.Equal(t, "b", r.assigns[1].Left.String())
	assert.Equal(t, "(x < 3) ? 1 : 0", r.assigns[1].Right.String())
	assert.Len(t, r.calls, 1)
	assert.Len(t, r.ind, 1)
	assert.Len(t, r.rets, 1)
}

func TestExps(t *testing.T) {
	a := NewAssign(exp.Reg(24), exp.Plus(exp.Int(1), exp.Int(2)), nil)

	for _, p := range a.Exps() {
		*p = simp.Simplify(*p, simp.Options{})
	}

	assert.Equal(t, "3", a.Right.String())

	c := &Call{
		Dest:    exp.FuncName("f"),
		Args:    []*Assign{NewAssign(exp.Param("a"), exp.Int(1), nil)},
		Results: []*Assign{NewAssign(exp.Reg(24), nil, nil)},
	}

	assert.Len(t, c.Exps(), 3)
	assert.Equal(t, "CALL f(1) -> r24", c.String())

	assert.Len(t, (&Branch{Cond: exp.True()}).Exps(), 1)
	assert.Len(t, (&Case{Dest: exp.Reg(8), Switch: &SwitchInfo{Var: exp.Reg(9)}}).Exps(), 2)
}

func TestSwitchValue(t *testing.T) {
	s := SwitchInfo{Form: 'A', Lower: 3}
	assert.Equal(t, int64(5), s.Value(2))

	s = SwitchInfo{Form: 'F', Table: []int64{10, 20}}
	assert.Equal(t, int64(20), s.Value(1))
}

func TestStmtString(t *testing.T) {
	assert.Equal(t, "*i32* r24 := 5", NewAssign(exp.Reg(24), exp.Int(5), i32).String())
	assert.Equal(t, "RET r24 := 1, r25 := 2", (&Return{Returns: []*Assign{
		NewAssign(exp.Reg(24), exp.Int(1), nil),
		NewAssign(exp.Reg(25), exp.Int(2), nil),
	}}).String())
	assert.Equal(t, "call", KindCall.String())
}
