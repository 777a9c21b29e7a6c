package codegen

import (
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"nikand.dev/go/heap"
	"tlog.app/go/tlog"

	"github.com/slowlang/decomp/decomp/cfg"
	"github.com/slowlang/decomp/decomp/exp"
	"github.com/slowlang/decomp/decomp/format"
	"github.com/slowlang/decomp/decomp/ir"
	"github.com/slowlang/decomp/decomp/tp"
)

type (
	// Unit is a procedure with its control flow graph.
	Unit struct {
		Proc  *ir.Proc
		Graph *cfg.Graph
	}
)

func unitLess(d []Unit, i, j int) bool {
	return d[i].Proc.Entry < d[j].Proc.Entry
}

// GenerateProgram emits globals, prototypes and then every unit by entry address.
// A unit failing to generate is logged and skipped.
func (g *Generator) GenerateProgram(ctx context.Context, units []Unit) (_ *format.Lines, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "generate program", "prog", g.Prog.Name, "units", len(units))
	defer tr.Finish("err", &err)

	var out format.Lines

	g.Proc = nil

	if g.noDecompile() {
		for _, s := range g.Prog.Sections {
			g.appendSection(&out, s)
		}
	}

	for _, gl := range g.Prog.Globals {
		out.Add(g.appendGlobal(nil, gl))
	}

	if len(g.Prog.Globals) != 0 {
		out.Addf(0, "")
	}

	h := heap.Heap[Unit]{Less: unitLess}

	for _, u := range units {
		h.Push(u)
	}

	ordered := make([]Unit, 0, h.Len())

	for h.Len() != 0 {
		ordered = append(ordered, h.Pop())
	}

	for _, u := range ordered {
		out.Add(g.appendProcDec(nil, u.Proc, false))
	}

	if len(ordered) != 0 {
		out.Addf(0, "")
	}

	for _, u := range ordered {
		err := g.GenerateProc(ctx, u.Proc, u.Graph)
		if err != nil {
			tr.Printw("skip procedure", "proc", u.Proc.Name, "err", err)
			continue
		}

		out.AddLines(&g.lines)
	}

	return &out, nil
}

func (g *Generator) appendGlobal(b []byte, gl *ir.Global) []byte {
	switch t := gl.Type.(type) {
	case tp.Array:
		b = append(b, typeString(t.X)...)
		b = append(b, ' ')
		b = append(b, gl.Name...)

		if t.Len < 0 {
			b = append(b, "[]"...)
		} else {
			b = hfmt.Appendf(b, "[%d]", t.Len)
		}
	case tp.Ptr:
		if f, ok := t.X.(tp.Func); ok {
			b = append(b, typeString(f.Ret)...)
			b = append(b, " (*"...)
			b = append(b, gl.Name...)
			b = append(b, ')')
			b = append(b, f.ParamList()...)

			break
		}

		b = append(b, typeString(t)...)
		b = append(b, gl.Name...)
	default:
		b = append(b, typeString(t)...)
		b = append(b, ' ')
		b = append(b, gl.Name...)
	}

	if gl.Init != nil && gl.Init.Op() != exp.OpNil {
		s, _ := tp.SignOf(gl.Type)
		if a, ok := gl.Type.(tp.Array); ok {
			s, _ = tp.SignOf(a.X)
		}

		b = append(b, " = "...)
		b = g.appendExp(b, gl.Init, PrecAssign, s == tp.Unsigned)
	}

	b = append(b, ';')

	if t, ok := gl.Type.(tp.Sized); ok {
		b = hfmt.Appendf(b, " // %d bytes", t.Size()/8)
	}

	return b
}

func (g *Generator) appendSection(out *format.Lines, s *ir.Section) {
	out.Addf(0, "// section %s", s.Name)
	out.Addf(0, "unsigned int start_%s = 0x%x;", s.Name, s.Addr)
	out.Addf(0, "int %s_size = %d;", s.Name, len(s.Data))
	out.Addf(0, "unsigned char %s[] = {", s.Name)

	var b []byte

	for i, x := range s.Data {
		if i%16 == 0 {
			if b != nil {
				out.Add(b)
			}

			b = format.Indent(nil, 1)
		} else {
			b = append(b, ' ')
		}

		b = hfmt.Appendf(b, "0x%02x,", x)
	}

	if b != nil {
		out.Add(b)
	}

	out.Addf(0, "};")
	out.Addf(0, "")
}
