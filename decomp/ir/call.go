package ir

import (
	"github.com/slowlang/decomp/decomp/exp"
)

type (
	// Call is a call statement.
	// Dest is the callee, a function constant for direct calls.
	// Proven holds what the callee is known to compute
	// in terms of its entry values, Reaching the definitions live at the call.
	Call struct {
		stmt

		Dest    exp.Exp
		Name    string
		Args    []*Assign
		Results []*Assign

		Proven   []Proven
		Reaching []Reaching
	}

	// Proven is Loc := Val on return from the callee.
	Proven struct {
		Loc exp.Exp
		Val exp.Exp
	}

	// Reaching is the definition of Loc live at the call.
	Reaching struct {
		Loc exp.Exp
		Def exp.DefID
	}

	localiser struct {
		exp.NopModifier

		c *Call
	}
)

func (*Call) Kind() Kind { return KindCall }

func (c *Call) Exps() (l []*exp.Exp) {
	if c.Dest != nil {
		l = append(l, &c.Dest)
	}

	for _, a := range c.Args {
		l = append(l, &a.Right)
	}

	for _, a := range c.Results {
		l = append(l, &a.Left)
	}

	return l
}

// Direct reports whether the callee is known by name.
func (c *Call) Direct() bool {
	return c.Name != "" || c.Dest != nil && c.Dest.Op() == exp.OpFuncConst
}

// Callee is the callee name of a direct call.
func (c *Call) Callee() string {
	if c.Name != "" {
		return c.Name
	}

	if k, ok := c.Dest.(*exp.Const); ok && k.Op() == exp.OpFuncConst {
		return k.S
	}

	return ""
}

func (c *Call) GenerateCode(e Emitter) {
	if c.Direct() {
		e.AddCall(c)
		return
	}

	e.AddIndCall(c)
}

// Proves returns the proven value of loc in callee terms.
func (c *Call) Proves(loc exp.Exp) (exp.Exp, bool) {
	for _, p := range c.Proven {
		if exp.Equal(p.Loc, loc) {
			return p.Val, true
		}
	}

	return nil, false
}

// ReachingDef returns the definition of loc live at the call.
func (c *Call) ReachingDef(loc exp.Exp) (exp.DefID, bool) {
	for _, r := range c.Reaching {
		if exp.Equal(r.Loc, loc) {
			return r.Def, true
		}
	}

	return exp.NoDef, false
}

// BypassRef returns the value of the call result r refers to
// expressed in terms of the definitions reaching the call.
func (c *Call) BypassRef(r *exp.Ref) (exp.Exp, bool) {
	v, ok := c.Proves(exp.Base(r.X))
	if !ok {
		return nil, false
	}

	return c.Localise(v.Clone()), true
}

// Localise replaces entry values in e with references to the reaching definitions.
func (c *Call) Localise(e exp.Exp) exp.Exp {
	return exp.Modify(e, localiser{c: c})
}

func (l localiser) PreModify(e exp.Exp) (exp.Exp, bool) {
	r, ok := e.(*exp.Ref)
	if !ok {
		return e, true
	}

	if r.Def != exp.ImplicitDef && r.Def != exp.NoDef {
		return e, false
	}

	def, _ := l.c.ReachingDef(r.X)

	return exp.NewRef(r.X, def), false
}

func (l localiser) PostModify(e exp.Exp) exp.Exp {
	if e.Op() == exp.OpSubscript || !exp.IsLocation(e) {
		return e
	}

	def, _ := l.c.ReachingDef(e)

	return exp.NewRef(e, def)
}

func (c *Call) String() string {
	b := []byte("CALL ")

	if n := c.Callee(); n != "" {
		b = append(b, n...)
	} else {
		b = exp.AppendIR(b, c.Dest)
	}

	b = append(b, '(')

	for i, a := range c.Args {
		if i != 0 {
			b = append(b, ", "...)
		}

		b = exp.AppendIR(b, a.Right)
	}

	b = append(b, ')')

	for i, a := range c.Results {
		if i == 0 {
			b = append(b, " -> "...)
		} else {
			b = append(b, ", "...)
		}

		b = exp.AppendIR(b, a.Left)
	}

	return string(b)
}
