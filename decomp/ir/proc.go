package ir

import (
	"github.com/google/btree"
	"tlog.app/go/loc"

	"github.com/slowlang/decomp/decomp/exp"
	"github.com/slowlang/decomp/decomp/simp"
	"github.com/slowlang/decomp/decomp/tp"
)

type (
	Program struct {
		Name     string
		Globals  []*Global
		Procs    []*Proc
		Sections []*Section
	}

	Global struct {
		Name string
		Type tp.Type
		Init exp.Exp
	}

	// Section is a raw data section dumped when not decompiling.
	Section struct {
		Name string
		Addr uint64
		Data []byte
	}

	Proc struct {
		Name   string
		Entry  uint64
		Params []Param

		// Ret is the signature return type.
		// If nil the type of the first returned value is used.
		Ret tp.Type

		Prog *Program

		locals *btree.BTreeG[*Local]

		// stmts[id-1] is the statement with Num() id
		stmts []Stmt
	}

	Param struct {
		Name string
		Type tp.Type
	}

	// Local is a local variable.
	// Sym is the expression it was mapped from, if any.
	Local struct {
		Name string
		Type tp.Type
		Sym  exp.Exp
	}
)

func NewProgram(name string) *Program {
	return &Program{Name: name}
}

func (p *Program) AddProc(f *Proc) *Proc {
	f.Prog = p
	p.Procs = append(p.Procs, f)

	return f
}

func (p *Program) AddGlobal(g *Global) *Global {
	p.Globals = append(p.Globals, g)
	return g
}

func (p *Program) Proc(name string) *Proc {
	if p == nil {
		return nil
	}

	for _, f := range p.Procs {
		if f.Name == name {
			return f
		}
	}

	return nil
}

// ProcAt returns the procedure entered at addr.
func (p *Program) ProcAt(addr uint64) *Proc {
	if p == nil {
		return nil
	}

	for _, f := range p.Procs {
		if f.Entry == addr {
			return f
		}
	}

	return nil
}

func (p *Program) Global(name string) *Global {
	if p == nil {
		return nil
	}

	for _, g := range p.Globals {
		if g.Name == name {
			return g
		}
	}

	return nil
}

func NewProc(name string, entry uint64) *Proc {
	return &Proc{
		Name:  name,
		Entry: entry,
	}
}

// Add assigns the next definition number to s.
func (p *Proc) Add(s Stmt) exp.DefID {
	if s.Num() != exp.NoDef {
		panic(sprintf("statement already added: %v  (from %v)", s, loc.Caller(1)))
	}

	p.stmts = append(p.stmts, s)
	id := exp.DefID(len(p.stmts))

	s.setNum(id)

	return id
}

// Def returns the statement with number id, nil if there is none.
func (p *Proc) Def(id exp.DefID) Stmt {
	if id <= 0 || int(id) > len(p.stmts) {
		return nil
	}

	return p.stmts[id-1]
}

func (p *Proc) Delete(id exp.DefID) {
	if id <= 0 || int(id) > len(p.stmts) {
		return
	}

	p.stmts[id-1] = nil
}

// Stmts returns live statements in definition order.
func (p *Proc) Stmts() []Stmt {
	l := make([]Stmt, 0, len(p.stmts))

	for _, s := range p.stmts {
		if s != nil {
			l = append(l, s)
		}
	}

	return l
}

// Bypasser returns the call defining id.
func (p *Proc) Bypasser(id exp.DefID) simp.Bypasser {
	c, ok := p.Def(id).(*Call)
	if !ok {
		return nil
	}

	return c
}

func (p *Proc) AddLocal(name string, t tp.Type, sym exp.Exp) *Local {
	if p.locals == nil {
		p.locals = btree.NewG(8, func(a, b *Local) bool { return a.Name < b.Name })
	}

	l := &Local{Name: name, Type: t, Sym: sym}

	p.locals.ReplaceOrInsert(l)

	return l
}

func (p *Proc) Local(name string) *Local {
	if p.locals == nil {
		return nil
	}

	l, _ := p.locals.Get(&Local{Name: name})

	return l
}

// Locals returns locals ordered by name.
func (p *Proc) Locals() []*Local {
	if p.locals == nil {
		return nil
	}

	l := make([]*Local, 0, p.locals.Len())

	p.locals.Ascend(func(x *Local) bool {
		l = append(l, x)
		return true
	})

	return l
}

func (p *Proc) Param(name string) *Param {
	for i := range p.Params {
		if p.Params[i].Name == name {
			return &p.Params[i]
		}
	}

	return nil
}

// ReturnStmt returns the procedure return statement, nil if there is none.
func (p *Proc) ReturnStmt() *Return {
	for i := len(p.stmts) - 1; i >= 0; i-- {
		if r, ok := p.stmts[i].(*Return); ok {
			return r
		}
	}

	return nil
}

// TypeOf returns the known type of e, nil if unknown.
func (p *Proc) TypeOf(e exp.Exp) tp.Type {
	switch e := e.(type) {
	case *exp.Typed:
		return e.Type
	case *exp.Const:
		if e.Type != nil {
			return e.Type
		}

		switch e.Op() {
		case exp.OpFltConst:
			return tp.Float{Bits: 64}
		case exp.OpStrConst:
			return tp.Ptr{X: tp.Char{}}
		}
	case *exp.Ref:
		if t := p.defType(e); t != nil {
			return t
		}

		return p.TypeOf(e.X)
	case *exp.Unary:
		name, _ := exp.Name(e)

		switch e.Op() {
		case exp.OpLocal:
			if l := p.Local(name); l != nil {
				return l.Type
			}
		case exp.OpParam:
			if a := p.Param(name); a != nil {
				return a.Type
			}
		case exp.OpGlobal:
			if g := p.Prog.Global(name); g != nil {
				return g.Type
			}
		}
	}

	return nil
}

func (p *Proc) defType(r *exp.Ref) tp.Type {
	switch s := p.Def(r.Def).(type) {
	case *Assign:
		if exp.Equal(s.Left, r.X) {
			return s.Ty
		}
	case *BoolAssign:
		if exp.Equal(s.Left, r.X) {
			return s.Type()
		}
	case *Call:
		for _, a := range s.Results {
			if exp.Equal(a.Left, r.X) {
				return a.Ty
			}
		}
	}

	return nil
}
