package codegen

import (
	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/tlog"

	"github.com/slowlang/decomp/decomp/exp"
	"github.com/slowlang/decomp/decomp/format"
	"github.com/slowlang/decomp/decomp/ir"
	"github.com/slowlang/decomp/decomp/tp"
)

func (g *Generator) AddAssign(a *ir.Assign) {
	lhs, rhs := a.Left, a.Right

	if lhs.Op() == exp.OpPC {
		return
	}

	if _, ok := exp.Search(rhs, exp.PC()); ok {
		return
	}

	if exp.Equal(lhs, rhs) {
		return
	}

	b := format.Indent(nil, g.depth)

	if g.noDecompile() && lhs.Op() == exp.OpMemOf {
		b = append(b, memPrefix(a.Ty, rhs)...)
		b = append(b, "MEMASSIGN("...)
		b = g.AppendExp(b, exp.MustUnary(lhs).X, PrecComma)
		b = append(b, ", "...)
		b = g.AppendExp(b, rhs, PrecComma)
		b = append(b, ");"...)

		g.lines.Add(b)

		return
	}

	switch {
	case lhs.Op() == exp.OpMemOf && !tp.IsVoid(a.Ty):
		b = g.AppendExp(b, exp.NewTyped(a.Ty, lhs), PrecAssign)
	case lhs.Op() == exp.OpGlobal && g.isArrayGlobal(lhs):
		b = g.AppendExp(b, exp.NewBinary(exp.OpArrayIndex, lhs, exp.Int(0)), PrecAssign)
	case lhs.Op() == exp.OpAt:
		if g.appendBitfieldAssign(b, exp.MustTernary(lhs), rhs) {
			return
		}

		b = g.AppendExp(b, lhs, PrecAssign)
	default:
		b = g.AppendExp(b, lhs, PrecAssign)
	}

	if p, ok := rhs.(*exp.Binary); ok && p.Op() == exp.OpPlus && exp.Equal(p.X, lhs) {
		if k, ok := exp.IntValue(p.Y); ok {
			if k == 1 || tp.IsPointer(a.Ty) && pointee(a.Ty) == k*8 {
				b = append(b, "++;"...)
				g.lines.Add(b)

				return
			}

			b = append(b, " += "...)
			b = g.AppendExp(b, p.Y, PrecAssign)
			b = append(b, ';')
			g.lines.Add(b)

			return
		}
	}

	b = append(b, " = "...)
	b = g.AppendExp(b, rhs, PrecAssign)
	b = append(b, ';')

	g.lines.Add(b)
}

// appendBitfieldAssign emits x = (x & ~mask) | rhs << lo for a store into bits hi..lo of x.
func (g *Generator) appendBitfieldAssign(b []byte, at *exp.Ternary, rhs exp.Exp) bool {
	hi, ok1 := exp.IntValue(at.Y)
	lo, ok2 := exp.IntValue(at.Z)

	if !ok1 || !ok2 || hi < lo || hi >= 64 {
		return false
	}

	var field uint64 = 1<<(hi-lo+1) - 1
	mask := ^(field << lo)

	if hi < 32 {
		mask &= 0xffffffff
	}

	b = g.AppendExp(b, at.X, PrecAssign)
	b = append(b, " = ("...)
	b = g.AppendExp(b, at.X, PrecBitAnd)
	b = hfmt.Appendf(b, " & 0x%x) | ", mask)
	b = g.AppendExp(b, rhs, PrecBitShift)
	b = hfmt.Appendf(b, " << %d;", lo)

	g.lines.Add(b)

	return true
}

func memPrefix(t tp.Type, rhs exp.Exp) string {
	if f, ok := t.(tp.Float); ok {
		if f.Bits == 32 {
			return "FLOAT_"
		}

		return "DOUBLE_"
	}

	if rhs.Op() == exp.OpFsize {
		if to, _ := exp.IntValue(exp.MustTernary(rhs).Y); to == 32 {
			return "FLOAT_"
		}

		return "DOUBLE_"
	}

	return ""
}

// pointee is the size of the value t points to, 0 if t is not a pointer.
func pointee(t tp.Type) int64 {
	p, ok := t.(tp.Ptr)
	if !ok || p.X == nil {
		return 0
	}

	return int64(p.X.Size())
}

func (g *Generator) isArrayGlobal(e exp.Exp) bool {
	name, _ := exp.Name(e)

	gl := g.Prog.Global(name)
	if gl == nil {
		return false
	}

	_, ok := gl.Type.(tp.Array)

	return ok
}

func (g *Generator) AddCall(c *ir.Call) {
	b := g.appendResult(format.Indent(nil, g.depth), c)

	name := c.Callee()
	b = append(b, name...)
	b = append(b, '(')
	b = g.appendArgs(b, c, g.Prog.Proc(name))
	b = append(b, ");"...)
	b = g.appendExtraResults(b, c)

	g.lines.Add(b)
}

func (g *Generator) AddIndCall(c *ir.Call) {
	b := g.appendResult(format.Indent(nil, g.depth), c)

	b = append(b, "(*"...)
	b = g.AppendExp(b, c.Dest, PrecNone)
	b = append(b, ")("...)
	b = g.appendArgs(b, c, nil)
	b = append(b, ");"...)
	b = g.appendExtraResults(b, c)

	g.lines.Add(b)
}

func (g *Generator) appendResult(b []byte, c *ir.Call) []byte {
	if len(c.Results) == 0 {
		return b
	}

	b = g.AppendExp(b, c.Results[0].Left, PrecAssign)

	return append(b, " = "...)
}

func (g *Generator) appendArgs(b []byte, c *ir.Call, callee *ir.Proc) []byte {
	for i, a := range c.Args {
		if i != 0 {
			b = append(b, ", "...)
		}

		if name, ok := g.funcArg(a); ok {
			b = append(b, name...)
			continue
		}

		if g.noDecompile() && callee != nil && i < len(callee.Params) && tp.IsPointer(callee.Params[i].Type) {
			b = append(b, "ADDR("...)
			b = g.AppendExp(b, a.Right, PrecNone)
			b = append(b, ')')

			continue
		}

		b = g.AppendExp(b, a.Right, PrecComma)
	}

	return b
}

// funcArg resolves a function pointer argument given by address to the procedure name.
func (g *Generator) funcArg(a *ir.Assign) (string, bool) {
	p, ok := a.Ty.(tp.Ptr)
	if !ok || !tp.IsFunc(p.X) {
		return "", false
	}

	addr, ok := exp.IntValue(a.Right)
	if !ok {
		return "", false
	}

	f := g.Prog.ProcAt(uint64(addr))
	if f == nil {
		return "", false
	}

	return f.Name, true
}

func (g *Generator) appendExtraResults(b []byte, c *ir.Call) []byte {
	if len(c.Results) < 2 {
		return b
	}

	b = append(b, " /* Warning: also results in "...)

	for i, r := range c.Results[1:] {
		if i != 0 {
			b = append(b, ", "...)
		}

		b = g.AppendExp(b, r.Left, PrecComma)
	}

	return append(b, " */"...)
}

func (g *Generator) AddReturn(r *ir.Return) {
	b := format.Indent(nil, g.depth)
	b = append(b, "return"...)

	n := len(r.Returns)

	if n == 0 && g.noDecompile() && g.Proc != nil && !tp.IsVoid(g.Proc.Ret) {
		b = append(b, " eax"...)
	}

	if n != 0 {
		b = append(b, ' ')
		b = g.AppendExp(b, r.Returns[0].Right, PrecNone)
	}

	b = append(b, ';')

	if n > 1 {
		b = append(b, " /* WARNING: Also returning: "...)

		for i, a := range r.Returns[1:] {
			if i != 0 {
				b = append(b, ", "...)
			}

			b = g.AppendExp(b, a.Left, PrecComma)
			b = append(b, " := "...)
			b = g.AppendExp(b, a.Right, PrecComma)
		}

		b = append(b, " */"...)

		tlog.Printw("multiple real returns", "proc", g.procName(), "n", n)
	}

	g.lines.Add(b)
}
