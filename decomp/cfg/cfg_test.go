package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/decomp/decomp/exp"
	"github.com/slowlang/decomp/decomp/ir"
)

func loopGraph() (*Graph, []*BasicBlock) {
	g := New()

	head := g.NewBlock("head", Twoway, 0x10)
	body := g.NewBlock("body", Oneway, 0x20)
	exit := g.NewBlock("exit", Ret, 0x30)

	g.AddEdge(head, body)
	g.AddEdge(head, exit)
	g.AddEdge(body, head)

	head.RTLs = []*ir.RTL{{Addr: 0x10, Stmts: []ir.Stmt{
		&ir.Branch{Cond: exp.NewBinary(exp.OpLess, exp.Local("i"), exp.Int(10)), Dest: exp.Int(0x20)},
	}}}

	head.StructType = Loop
	head.LoopType = PreTested
	head.Latch = body
	head.LoopFollow = exit
	body.LoopHead = head

	g.Number()

	return g, []*BasicBlock{head, body, exit}
}

func TestNumber(t *testing.T) {
	g, bb := loopGraph()
	head, body, exit := bb[0], bb[1], bb[2]

	assert.Same(t, head, g.Entry)
	assert.Equal(t, []*BasicBlock{body, exit, head}, g.Order)
	assert.Equal(t, 0, body.Ord)
	assert.Equal(t, 1, exit.Ord)
	assert.Equal(t, 2, head.Ord)

	assert.True(t, body.IsBackEdge(0))
	assert.False(t, head.IsBackEdge(0))
	assert.False(t, head.IsBackEdge(1))

	assert.True(t, head.IsAncestorOf(body))
	assert.False(t, body.IsAncestorOf(head))

	assert.Equal(t, []*BasicBlock{exit}, g.Exits())
	assert.Same(t, body, g.Block("body"))
}

func TestUnreachable(t *testing.T) {
	g := New()
	a := g.NewBlock("a", Ret, 0)
	b := g.NewBlock("b", Ret, 4)

	g.Number()

	assert.Equal(t, 0, a.Ord)
	assert.Equal(t, -1, b.Ord)

	assert.Panics(t, func() { g.NewBlock("a", Ret, 8) })
}

func TestQueries(t *testing.T) {
	_, bb := loopGraph()
	head, body, exit := bb[0], bb[1], bb[2]

	assert.True(t, body.IsLatch())
	assert.False(t, head.IsLatch())

	c, ok := head.Cond()
	require.True(t, ok)
	assert.Equal(t, "i < 10", c.String())
	assert.Equal(t, "32", head.Dest().String())

	_, ok = body.Cond()
	assert.False(t, ok)
	assert.Nil(t, body.Dest())
	assert.Panics(t, func() { body.SetCond(exp.True()) })

	head.SetCond(exp.True())
	c, _ = head.Cond()
	assert.Equal(t, "true", c.String())

	gen := map[*BasicBlock]bool{}
	generated := func(b *BasicBlock) bool { return gen[b] }

	// the back edge from body does not count
	assert.True(t, head.AllParentsGenerated(generated))
	assert.False(t, exit.AllParentsGenerated(generated))

	gen[head] = true
	assert.True(t, exit.AllParentsGenerated(generated))

	assert.Same(t, exit, head.Succ(Else))
	assert.Nil(t, head.Succ(2))
}

func TestCaseOption(t *testing.T) {
	g := New()

	sw := g.NewBlock("sw", Nway, 0)
	c0 := g.NewBlock("c0", Oneway, 4)
	c1 := g.NewBlock("c1", Oneway, 8)
	def := g.NewBlock("def", Oneway, 12)
	out := g.NewBlock("out", Ret, 16)

	for _, b := range []*BasicBlock{c0, c1, def} {
		g.AddEdge(sw, b)
		g.AddEdge(b, out)
		b.CaseHead = sw
	}

	sw.RTLs = []*ir.RTL{{Stmts: []ir.Stmt{&ir.Case{Switch: &ir.SwitchInfo{Var: exp.Local("x")}}}}}

	assert.True(t, c0.IsCaseOption())
	assert.True(t, c1.IsCaseOption())
	assert.False(t, def.IsCaseOption())
	assert.False(t, out.IsCaseOption())

	require.NotNil(t, sw.Switch())
	assert.Equal(t, "x", sw.Switch().Var.String())
	assert.Nil(t, c0.Switch())
}

func TestEnumNames(t *testing.T) {
	for _, s := range []string{"fall", "oneway", "twoway", "nway", "call", "ret", "compjump", "compcall"} {
		x, ok := ParseBBType(s)
		assert.True(t, ok)
		assert.Equal(t, s, x.String())
	}

	x, ok := ParseLoopType("posttested")
	assert.True(t, ok)
	assert.Equal(t, PostTested, x)

	_, ok = ParseCondType("nope")
	assert.False(t, ok)

	assert.Equal(t, "7", StructType(7).String())
}
