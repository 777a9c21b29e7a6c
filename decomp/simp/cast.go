package simp

import (
	"github.com/slowlang/decomp/decomp/exp"
	"github.com/slowlang/decomp/decomp/tp"
)

type (
	// Typer returns the type of an expression, nil if unknown.
	Typer interface {
		TypeOf(e exp.Exp) tp.Type
	}

	// CastInserter makes operand signedness explicit where an operator requires it.
	CastInserter struct {
		exp.NopModifier

		typer    Typer
		modified bool
	}
)

func NewCastInserter(t Typer) *CastInserter {
	return &CastInserter{typer: t}
}

// InsertCasts applies CastInserter once.
func InsertCasts(e exp.Exp, t Typer) exp.Exp {
	return exp.Modify(e, NewCastInserter(t))
}

func (c *CastInserter) Modified() bool { return c.modified }

func (c *CastInserter) PreModify(e exp.Exp) (exp.Exp, bool) {
	return e, e.Op() != exp.OpTypedExp
}

func (c *CastInserter) PostModify(e exp.Exp) exp.Exp {
	switch e := e.(type) {
	case *exp.Binary:
		switch e.Op() {
		case exp.OpLessUns, exp.OpGtrUns, exp.OpLessEqUns, exp.OpGtrEqUns:
			e.X = c.sign(e.X, tp.Unsigned)
			e.Y = c.sign(e.Y, tp.Unsigned)
		case exp.OpShiftR:
			e.X = c.sign(e.X, tp.Unsigned)
		case exp.OpLess, exp.OpGtr, exp.OpLessEq, exp.OpGtrEq:
			e.X = c.sign(e.X, tp.Signed)
			e.Y = c.sign(e.Y, tp.Signed)
		case exp.OpShiftRA:
			e.X = c.sign(e.X, tp.Signed)
		}
	case *exp.Ref:
		c.memAddr(e)
	case *exp.Const:
		if e.Op() != exp.OpIntConst || e.I >= 0 {
			break
		}

		if s, ok := tp.SignOf(e.Type); ok && !s.MaybeSigned() {
			c.modified = true
			return exp.NewTyped(tp.Int{Bits: int16(e.Type.Size()), Sign: tp.Unsigned}, e)
		}
	}

	return e
}

// sign wraps e in a cast if its type is an integer of the other signedness.
func (c *CastInserter) sign(e exp.Exp, req tp.Sign) exp.Exp {
	if c.typer == nil {
		return e
	}

	t := c.typer.TypeOf(e)
	if !tp.IsInteger(t) {
		return e
	}

	s, _ := tp.SignOf(t)

	cur := tp.Unsigned
	if s.MaybeSigned() {
		cur = tp.Signed
	}

	if cur == req {
		return e
	}

	c.modified = true

	return exp.NewTyped(tp.Int{Bits: int16(t.Size()), Sign: req}, e)
}

// memAddr casts the address of a referenced memory location
// if its type does not point to the location type.
func (c *CastInserter) memAddr(r *exp.Ref) {
	m, ok := r.X.(*exp.Unary)
	if !ok || m.Op() != exp.OpMemOf || c.typer == nil {
		return
	}

	memType := c.typer.TypeOf(r)
	if tp.IsVoid(memType) {
		return
	}

	want := tp.Ptr{X: memType}

	if tp.Compatible(c.typer.TypeOf(m.X), want) {
		return
	}

	c.modified = true
	m.X = exp.NewTyped(want, m.X)
}
