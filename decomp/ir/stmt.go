package ir

import (
	"github.com/nikandfor/hacked/hfmt"

	"github.com/slowlang/decomp/decomp/exp"
	"github.com/slowlang/decomp/decomp/tp"
)

type (
	Kind int8

	// Stmt is a high level statement of a procedure.
	Stmt interface {
		Kind() Kind

		// Num is the definition number assigned by Proc.Add.
		Num() exp.DefID

		// Exps returns the expression slots in evaluation order.
		// Rewriting passes may replace the expressions in place.
		Exps() []*exp.Exp

		// Type of the defined location if any.
		Type() tp.Type

		GenerateCode(e Emitter)

		String() string

		setNum(id exp.DefID)
	}

	// Emitter receives the statements which produce code.
	Emitter interface {
		AddAssign(a *Assign)
		AddCall(c *Call)
		AddIndCall(c *Call)
		AddReturn(r *Return)
	}

	stmt struct {
		num exp.DefID
	}

	Assign struct {
		stmt

		Left  exp.Exp
		Right exp.Exp
		Ty    tp.Type
	}

	// BoolAssign sets Left to 1 if Cond holds and to 0 otherwise.
	BoolAssign struct {
		stmt

		Left exp.Exp
		Cond exp.Exp
		Size int
	}

	Branch struct {
		stmt

		Cond exp.Exp
		Dest exp.Exp
	}

	Case struct {
		stmt

		Dest   exp.Exp
		Switch *SwitchInfo
	}

	// SwitchInfo describes a recognized switch.
	// Form 'F' takes case values from Table, others count from Lower.
	SwitchInfo struct {
		Var   exp.Exp
		Form  byte
		Lower int64
		Upper int64
		Table []int64
	}

	Goto struct {
		stmt

		Dest exp.Exp
	}

	Return struct {
		stmt

		Returns []*Assign
	}

	// Implicit defines the entry value of Left.
	Implicit struct {
		stmt

		Left exp.Exp
	}

	// RTL is the group of statements lifted from one instruction.
	RTL struct {
		Addr  uint64
		Stmts []Stmt
	}
)

const (
	KindAssign Kind = iota
	KindBoolAssign
	KindBranch
	KindCase
	KindGoto
	KindCall
	KindReturn
	KindImplicit
)

var kindNames = []string{
	KindAssign:     "assign",
	KindBoolAssign: "bool",
	KindBranch:     "branch",
	KindCase:       "case",
	KindGoto:       "goto",
	KindCall:       "call",
	KindReturn:     "return",
	KindImplicit:   "implicit",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}

	return sprintf("Kind(%d)", int(k))
}

func (s *stmt) Num() exp.DefID { return s.num }
func (s *stmt) setNum(id exp.DefID) { s.num = id }
func (s *stmt) Type() tp.Type { return nil }

func NewAssign(l, r exp.Exp, t tp.Type) *Assign {
	return &Assign{Left: l, Right: r, Ty: t}
}

func (*Assign) Kind() Kind { return KindAssign }
func (a *Assign) Type() tp.Type { return a.Ty }
func (a *Assign) Exps() []*exp.Exp { return []*exp.Exp{&a.Left, &a.Right} }
func (a *Assign) GenerateCode(e Emitter) { e.AddAssign(a) }

func (a *Assign) String() string {
	return string(a.append(nil))
}

func (a *Assign) append(b []byte) []byte {
	if a.Ty != nil {
		b = append(b, '*')
		b = exp.AppendTypeTag(b, a.Ty)
		b = append(b, "* "...)
	}

	b = exp.AppendIR(b, a.Left)
	b = append(b, " := "...)

	return exp.AppendIR(b, a.Right)
}

func (*BoolAssign) Kind() Kind { return KindBoolAssign }

func (a *BoolAssign) Type() tp.Type {
	if a.Size <= 0 {
		return tp.Bool{}
	}

	return tp.Int{Bits: int16(a.Size), Sign: tp.Unknown}
}

func (a *BoolAssign) Exps() []*exp.Exp { return []*exp.Exp{&a.Left, &a.Cond} }

// GenerateCode emits Left := Cond ? 1 : 0.
func (a *BoolAssign) GenerateCode(e Emitter) {
	as := NewAssign(exp.Clone(a.Left), exp.Tern(exp.Clone(a.Cond), exp.Int(1), exp.Int(0)), a.Type())
	as.num = a.num

	e.AddAssign(as)
}

func (a *BoolAssign) String() string {
	return sprintf("BOOL %v := CC(%v)", a.Left, a.Cond)
}

func (*Branch) Kind() Kind { return KindBranch }
func (b *Branch) Exps() []*exp.Exp { return nonNil(&b.Cond, &b.Dest) }
func (b *Branch) GenerateCode(e Emitter) {}

func (b *Branch) String() string {
	return sprintf("BRANCH %v, condition %v", b.Dest, b.Cond)
}

func (*Case) Kind() Kind { return KindCase }

func (c *Case) Exps() []*exp.Exp {
	if c.Switch != nil {
		return nonNil(&c.Dest, &c.Switch.Var)
	}

	return nonNil(&c.Dest)
}

func (c *Case) GenerateCode(e Emitter) {}

func (c *Case) String() string {
	if c.Switch != nil {
		return sprintf("SWITCH(%v)", c.Switch.Var)
	}

	return sprintf("CASE [%v]", c.Dest)
}

// Value returns the case value of the i-th out edge.
func (s *SwitchInfo) Value(i int) int64 {
	if s.Form == 'F' && i < len(s.Table) {
		return s.Table[i]
	}

	return s.Lower + int64(i)
}

func (*Goto) Kind() Kind { return KindGoto }
func (g *Goto) Exps() []*exp.Exp { return nonNil(&g.Dest) }
func (g *Goto) GenerateCode(e Emitter) {}

func (g *Goto) String() string {
	return sprintf("GOTO %v", g.Dest)
}

func (*Return) Kind() Kind { return KindReturn }

func (r *Return) Exps() (l []*exp.Exp) {
	for _, a := range r.Returns {
		l = append(l, a.Exps()...)
	}

	return l
}

func (r *Return) Type() tp.Type {
	if len(r.Returns) == 0 {
		return nil
	}

	return r.Returns[0].Ty
}

func (r *Return) GenerateCode(e Emitter) { e.AddReturn(r) }

func (r *Return) String() string {
	b := []byte("RET")

	for i, a := range r.Returns {
		if i != 0 {
			b = append(b, ',')
		}

		b = append(b, ' ')
		b = a.append(b)
	}

	return string(b)
}

func (*Implicit) Kind() Kind { return KindImplicit }
func (s *Implicit) Exps() []*exp.Exp { return []*exp.Exp{&s.Left} }
func (s *Implicit) GenerateCode(e Emitter) {}

func (s *Implicit) String() string {
	return sprintf("%v := -", s.Left)
}

// Last returns the last statement of the RTL, nil if empty.
func (r *RTL) Last() Stmt {
	if r == nil || len(r.Stmts) == 0 {
		return nil
	}

	return r.Stmts[len(r.Stmts)-1]
}

func nonNil(l ...*exp.Exp) []*exp.Exp {
	j := 0

	for _, p := range l {
		if *p != nil {
			l[j] = p
			j++
		}
	}

	return l[:j]
}

func sprintf(f string, args ...any) string {
	return string(hfmt.Appendf(nil, f, args...))
}
