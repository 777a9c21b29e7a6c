package codegen

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/btree"
	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/decomp/decomp/cfg"
	"github.com/slowlang/decomp/decomp/conf"
	"github.com/slowlang/decomp/decomp/exp"
	"github.com/slowlang/decomp/decomp/format"
	"github.com/slowlang/decomp/decomp/ir"
	"github.com/slowlang/decomp/decomp/set"
	"github.com/slowlang/decomp/decomp/simp"
	"github.com/slowlang/decomp/decomp/tp"
)

type (
	// Generator emits structured C-like text for procedures
	// from basic blocks annotated with structuring metadata.
	Generator struct {
		Renderer

		lines format.Lines
		depth int

		used *btree.BTreeG[int]

		// per pass state
		traversed set.Bitmap[int]
		asCond    set.Bitmap[int]
		follow    []*cfg.BasicBlock
		gotos     []*cfg.BasicBlock
	}
)

// missingCond stands for a branch condition that could not be found.
const missingCond = 0xfeedface

func New(prog *ir.Program, s *conf.Settings) *Generator {
	return &Generator{
		Renderer: Renderer{
			Settings: s,
			Prog:     prog,
		},
		used: btree.NewOrderedG[int](8),
	}
}

// Lines are the lines of the last generated procedure.
func (g *Generator) Lines() *format.Lines { return &g.lines }

// GenerateProc generates p whose control flow is graph.
func (g *Generator) GenerateProc(ctx context.Context, p *ir.Proc, graph *cfg.Graph) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "generate proc", "proc", p.Name)
	defer tr.Finish("err", &err)

	if graph == nil || graph.Entry == nil {
		return errors.New("%v: no entry block", p.Name)
	}

	g.reset(p)

	if g.Settings.Get().PrintRTL {
		printRTL(tr, p, graph)
	}

	g.lines.Addf(0, "/** address: 0x%x */", p.Entry)
	g.lines.Add(g.appendProcDec(nil, p, true))
	g.lines.Addf(0, "{")
	g.depth++

	g.addLocals(p)

	g.visit(graph.Entry, nil)

	g.depth--
	g.lines.Addf(0, "}")
	g.lines.Addf(0, "")

	if !g.Settings.Get().NoRemoveLabels {
		removed := g.RemoveUnusedLabels()

		tr.V("labels").Printw("unused labels removed", "removed", removed, "used", g.used.Len())
	}

	if tr.If("dump_proc") {
		tr.Printw("generated", "proc", p.Name, "text", g.lines.String())
	}

	return nil
}

func (g *Generator) reset(p *ir.Proc) {
	g.Proc = p
	g.lines.Reset()
	g.depth = 0
	g.used.Clear(false)

	g.traversed.Reset()
	g.asCond.Reset()
	g.follow = g.follow[:0]
	g.gotos = g.gotos[:0]
}

func printRTL(tr tlog.Span, p *ir.Proc, graph *cfg.Graph) {
	for _, bb := range graph.Blocks {
		for _, rtl := range bb.RTLs {
			for _, s := range rtl.Stmts {
				tr.Printw("rtl", "proc", p.Name, "bb", bb, "addr", rtl.Addr, "num", s.Num(), "stmt", s.String())
			}
		}
	}
}

// RemoveUnusedLabels drops label lines no goto refers to.
func (g *Generator) RemoveUnusedLabels() int {
	return g.lines.Filter(func(s string) bool {
		if !labelLine(s) {
			return true
		}

		n, err := strconv.Atoi(s[1 : len(s)-1])
		if err != nil {
			return true
		}

		return g.used.Has(n)
	})
}

func (g *Generator) generated(bb *cfg.BasicBlock) bool {
	return g.traversed.IsSet(bb.Index)
}

// structType is the structuring class of bb in the current pass.
func (g *Generator) structType(bb *cfg.BasicBlock) cfg.StructType {
	if g.asCond.IsSet(bb.Index) {
		return cfg.Cond
	}

	return bb.StructType
}

func (g *Generator) visit(bb, latch *cfg.BasicBlock) {
	var enclFollow *cfg.BasicBlock
	if l := len(g.follow); l != 0 {
		enclFollow = g.follow[l-1]
	}

	if in(g.gotos, bb) && !bb.IsLatch() &&
		(latch != nil && latch.LoopHead != nil && bb == latch.LoopHead.LoopFollow || !bb.AllParentsGenerated(g.generated)) {
		g.emitGotoAndLabel(bb, bb)
		return
	}

	if in(g.follow, bb) {
		if bb != enclFollow {
			g.emitGotoAndLabel(bb, bb)
		}

		return
	}

	if !g.traversed.Add(bb.Index) {
		return
	}

	if bb.IsLatch() {
		g.writeBB(bb, true)
		return
	}

	switch g.structType(bb) {
	case cfg.Loop, cfg.LoopCond:
		g.visitLoop(bb, latch)
	case cfg.Cond:
		g.visitCond(bb, latch)
	default:
		g.visitSeq(bb, latch)
	}
}

func (g *Generator) visitLoop(bb, latch *cfg.BasicBlock) {
	if bb.LoopFollow != nil {
		g.follow = append(g.follow, bb.LoopFollow)
	}

	switch bb.LoopType {
	case cfg.PreTested:
		if bb.Latch == nil || len(bb.Latch.Succs) != 1 {
			panic(sprintf("%v: pre-tested loop latch %v must have one out edge (%v)", bb, bb.Latch, loc.Caller(1)))
		}

		g.writeBB(bb, true)

		cond := g.cond(bb)
		if bb.Succ(cfg.Then) == bb.LoopFollow {
			cond = g.negate(cond)
		}

		g.addLine(g.AppendExp(append(format.Indent(nil, g.depth), "while ("...), cond, PrecNone), ") {")
		g.depth++

		body := bb.Succ(cfg.Else)
		if body == bb.LoopFollow {
			body = bb.Succ(cfg.Then)
		}

		g.visit(body, bb.Latch)
		g.writeLatch(bb.Latch)

		g.writeBB(bb, false)

		g.depth--
		g.lines.Addf(g.depth, "}")
	default:
		if bb.LoopType == cfg.Endless {
			g.lines.Addf(g.depth, "for(;;) {")
		} else {
			g.lines.Addf(g.depth, "do {")
		}

		g.depth++

		if g.structType(bb) == cfg.LoopCond {
			g.asCond.Set(bb.Index)
			g.traversed.Clear(bb.Index)

			g.visit(bb, bb.Latch)
		} else {
			g.writeBB(bb, true)
			g.visit(bb.Succ(0), bb.Latch)
		}

		if bb.Latch != nil {
			g.writeLatch(bb.Latch)
		}

		g.depth--

		if bb.LoopType == cfg.PostTested {
			var cond exp.Exp = exp.Int(missingCond)
			if bb.Latch != nil {
				cond = g.cond(bb.Latch)
			}

			g.addLine(g.AppendExp(append(format.Indent(nil, g.depth), "} while ("...), cond, PrecNone), ");")
		} else {
			g.lines.Addf(g.depth, "}")
		}
	}

	if bb.LoopFollow == nil {
		return
	}

	g.follow = g.follow[:len(g.follow)-1]

	if g.generated(bb.LoopFollow) {
		g.emitGotoAndLabel(bb, bb.LoopFollow)
	} else {
		g.visit(bb.LoopFollow, latch)
	}
}

func (g *Generator) writeLatch(l *cfg.BasicBlock) {
	if !g.traversed.Add(l.Index) {
		return
	}

	g.writeBB(l, true)
}

func (g *Generator) visitCond(bb, latch *cfg.BasicBlock) {
	if bb.Latch != nil {
		g.asCond.Clear(bb.Index)
	}

	var (
		tmpFollow  *cfg.BasicBlock
		pushed     bool
		gotoTotal  int
		condFollow = bb.CondFollow
	)

	switch {
	case bb.CondType == cfg.Case && condFollow != nil:
		g.follow = append(g.follow, condFollow)
		pushed = true
	case condFollow == nil:
	case bb.UnstructType == cfg.Structured:
		g.follow = append(g.follow, condFollow)
		pushed = true
	default:
		if bb.UnstructType == cfg.JumpInOutLoop {
			myLoopHead := bb.LoopHead
			if g.structType(bb) == cfg.LoopCond {
				myLoopHead = bb
			}

			g.gotos = append(g.gotos, condFollow)
			gotoTotal++

			if latch != nil {
				g.gotos = append(g.gotos, latch)
				gotoTotal++
			}

			if condFollow.LoopHead != nil && condFollow.LoopHead != myLoopHead {
				g.gotos = append(g.gotos, condFollow.LoopHead)
				gotoTotal++
			}
		}

		i := cfg.Then
		if bb.CondType == cfg.IfThen {
			i = cfg.Else
		}

		tmpFollow = bb.Succ(i)

		if bb.UnstructType == cfg.JumpIntoCase && tmpFollow != nil {
			g.follow = append(g.follow, tmpFollow)
			pushed = true
		}
	}

	g.writeBB(bb, true)

	if bb.CondType == cfg.Case {
		g.visitSwitch(bb, latch)
	} else {
		g.visitIf(bb, latch)
	}

	if condFollow == nil {
		return
	}

	if pushed {
		g.follow = g.follow[:len(g.follow)-1]
	}

	g.gotos = g.gotos[:len(g.gotos)-gotoTotal]

	next := tmpFollow
	if next == nil {
		next = condFollow
	}

	if g.generated(next) {
		g.emitGotoAndLabel(bb, next)
	} else {
		g.visit(next, latch)
	}
}

func (g *Generator) visitIf(bb, latch *cfg.BasicBlock) {
	cond := g.cond(bb)
	if bb.CondType == cfg.IfElse {
		cond = g.negate(cond)
	}

	g.addLine(g.AppendExp(append(format.Indent(nil, g.depth), "if ("...), cond, PrecNone), ") {")
	g.depth++

	i := cfg.Then
	if bb.CondType == cfg.IfElse {
		i = cfg.Else
	}

	succ := bb.Succ(i)

	if g.generated(succ) || bb.LoopHead != nil && succ == bb.LoopHead.LoopFollow {
		g.emitGotoAndLabel(bb, succ)
	} else {
		g.visit(succ, latch)
	}

	g.depth--

	if bb.CondType == cfg.IfThenElse {
		g.lines.Addf(g.depth, "}")
		g.lines.Addf(g.depth, "else {")
		g.depth++

		succ = bb.Succ(cfg.Else)

		if g.generated(succ) {
			g.emitGotoAndLabel(bb, succ)
		} else {
			g.visit(succ, latch)
		}

		g.depth--
	}

	g.lines.Addf(g.depth, "}")
}

func (g *Generator) visitSwitch(bb, latch *cfg.BasicBlock) {
	sw := bb.Switch()

	b := append(format.Indent(nil, g.depth), "switch("...)

	if sw != nil && sw.Var != nil {
		b = g.AppendExp(b, sw.Var, PrecNone)
	} else {
		g.warn(exp.OpInvalid, "%v: case block without switch variable", bb)
		b = g.AppendExp(b, exp.Int(missingCond), PrecNone)
	}

	g.addLine(b, ") {")
	g.depth++

	for i, succ := range bb.Succs {
		v := int64(i)
		if sw != nil {
			v = sw.Value(i)
		}

		b = append(format.Indent(nil, g.depth-1), "case "...)
		g.addLine(g.AppendExp(b, exp.Int(v), PrecNone), ":")

		if g.generated(succ) {
			g.emitGotoAndLabel(bb, succ)
		} else {
			g.visit(succ, latch)
		}
	}

	g.depth--
	g.lines.Addf(g.depth, "}")
}

func (g *Generator) visitSeq(bb, latch *cfg.BasicBlock) {
	g.writeBB(bb, true)

	if bb.Type == cfg.Ret {
		return
	}

	if len(bb.Succs) == 0 {
		g.warn(exp.OpInvalid, "No out edge for BB at address %v, in proc %v", bb.Addr, g.procName())

		if bb.Type == cfg.CompJump {
			b := append(format.Indent(nil, g.depth), "/* goto "...)
			if d := bb.Dest(); d != nil {
				b = g.AppendExp(b, d, PrecNone)
			}

			g.addLine(b, " */")
		}

		return
	}

	child := bb.Succ(0)

	if len(bb.Succs) > 1 {
		other := bb.Succ(1)

		if tlog.If("seq") {
			tlog.Printw("seq block with more than one out edge", "bb", bb, "proc", g.procName())
		}

		if k, ok := exp.IntValue(bb.Dest()); ok && uint64(k) == child.Addr {
			child, other = other, child
		}

		if cond, ok := bb.Cond(); ok {
			g.addLine(g.AppendExp(append(format.Indent(nil, g.depth), "if ("...), cond, PrecNone), ") {")
			g.depth++

			if g.generated(other) {
				g.emitGotoAndLabel(bb, other)
			} else {
				g.visit(other, latch)
			}

			g.depth--
			g.lines.Addf(g.depth, "}")
		} else {
			g.warn(exp.OpInvalid, "%v: last statement is not a cond", bb)
		}
	}

	sameCase := bb.CaseHead == child.CaseHead || bb.CaseHead != nil && child == bb.CaseHead.CondFollow

	switch {
	case g.generated(child),
		child.LoopHead != bb.LoopHead && (!child.AllParentsGenerated(g.generated) || in(g.follow, child)),
		latch != nil && latch.LoopHead != nil && latch.LoopHead.LoopFollow == child,
		!sameCase:
		g.emitGotoAndLabel(bb, child)
	case bb.CaseHead != nil && child == bb.CaseHead.CondFollow:
		g.lines.Addf(g.depth, "break;")
	case bb.CaseHead == nil || bb.CaseHead != child.CaseHead || !child.IsCaseOption():
		g.visit(child, latch)
	}
}

// emitGotoAndLabel transfers control from bb to dest.
func (g *Generator) emitGotoAndLabel(bb, dest *cfg.BasicBlock) {
	if g.Settings.Get().Debug {
		tlog.Printw("goto", "from", bb, "to", dest, "caller", loc.Caller(1))
	}

	if h := bb.LoopHead; h != nil && (h == dest || h.LoopFollow == dest) {
		if h == dest {
			g.lines.Addf(g.depth, "continue;")
		} else {
			g.lines.Addf(g.depth, "break;")
		}

		return
	}

	g.lines.Addf(g.depth, "goto L%d;", dest.Ord)
	g.used.ReplaceOrInsert(dest.Ord)
}

// writeBB emits the statements of bb, preceded by its label if label is set.
func (g *Generator) writeBB(bb *cfg.BasicBlock, label bool) {
	if g.Settings.Get().Debug {
		tlog.Printw("write block", "bb", bb, "ord", bb.Ord, "depth", g.depth)
	}

	if label {
		g.lines.Addf(0, "L%d:", bb.Ord)
	}

	for _, rtl := range bb.RTLs {
		for _, s := range rtl.Stmts {
			s.GenerateCode(g)
		}
	}
}

func (g *Generator) cond(bb *cfg.BasicBlock) exp.Exp {
	c, ok := bb.Cond()
	if !ok {
		g.warn(exp.OpInvalid, "%v: no branch condition", bb)
		return exp.Int(missingCond)
	}

	return c
}

func (g *Generator) negate(c exp.Exp) exp.Exp {
	return simp.Simplify(exp.Not(c.Clone()), simp.Options{WordBits: g.Settings.Get().WordBits})
}

func (g *Generator) addLine(b []byte, tail string) {
	g.lines.Add(append(b, tail...))
}

func (g *Generator) addLocals(p *ir.Proc) {
	locals := p.Locals()

	for _, l := range locals {
		t := l.Type
		if tp.IsVoid(t) {
			t = tp.Int{Bits: 32}
		}

		b := g.appendTypeIdent(format.Indent(nil, 1), t, l.Name)

		switch sym := l.Sym.(type) {
		case nil:
			b = append(b, ';')
		case *exp.Ref:
			if name, ok := exp.Name(sym.X); ok && sym.Def == exp.ImplicitDef && (sym.X.Op() == exp.OpParam || sym.X.Op() == exp.OpGlobal) {
				b = append(b, " = "...)
				b = append(b, name...)
				b = append(b, ';')

				break
			}

			b = appendSym(b, sym)
		default:
			b = appendSym(b, sym)
		}

		g.lines.Add(b)
	}

	if len(locals) != 0 {
		g.lines.Addf(0, "")
	}
}

func appendSym(b []byte, sym exp.Exp) []byte {
	b = append(b, "; \t\t// "...)
	return exp.AppendIR(b, sym)
}

// appendProcDec appends the declaration of p, a prototype unless open.
func (g *Generator) appendProcDec(b []byte, p *ir.Proc, open bool) []byte {
	ret := p.Ret

	if ret == nil {
		if r := p.ReturnStmt(); r != nil && len(r.Returns) != 0 {
			ret = r.Returns[0].Ty
			if tp.IsVoid(ret) {
				ret = tp.Int{Bits: 32}
			}
		}
	}

	switch {
	case tp.IsVoid(ret):
		b = append(b, "void "...)
	case tp.IsPointer(ret):
		b = append(b, typeString(ret)...)
	default:
		b = append(b, typeString(ret)...)
		b = append(b, ' ')
	}

	b = append(b, p.Name...)
	b = append(b, '(')

	for i, par := range p.Params {
		if i != 0 {
			b = append(b, ", "...)
		}

		b = g.appendTypeIdent(b, par.Type, par.Name)
	}

	b = append(b, ')')

	if !open {
		b = append(b, ';')
	}

	if open && len(p.Params) > 10 {
		g.warn(exp.OpInvalid, "%v has %d parameters", p.Name, len(p.Params))
	}

	return b
}

func in(l []*cfg.BasicBlock, bb *cfg.BasicBlock) bool {
	for _, x := range l {
		if x == bb {
			return true
		}
	}

	return false
}

// labelLine reports whether s is a block label line.
func labelLine(s string) bool {
	return len(s) > 2 && strings.HasPrefix(s, "L") && strings.HasSuffix(s, ":")
}
