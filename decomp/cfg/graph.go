package cfg

import (
	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/loc"

	"github.com/slowlang/decomp/decomp/set"
)

type (
	// Graph is a procedure control flow graph.
	Graph struct {
		Blocks []*BasicBlock
		Entry  *BasicBlock

		// Order is blocks in DFS post order.
		Order []*BasicBlock

		byName map[string]*BasicBlock
	}
)

func New() *Graph {
	return &Graph{
		byName: map[string]*BasicBlock{},
	}
}

// NewBlock adds a block. The first block is the entry.
func (g *Graph) NewBlock(name string, tp BBType, addr uint64) *BasicBlock {
	if _, ok := g.byName[name]; ok && name != "" {
		panic(sprintf("duplicate block %q  (from %v)", name, loc.Caller(1)))
	}

	b := &BasicBlock{
		Index: len(g.Blocks),
		Name:  name,
		Type:  tp,
		Addr:  addr,
		Ord:   -1,
	}

	g.Blocks = append(g.Blocks, b)

	if name != "" {
		g.byName[name] = b
	}

	if g.Entry == nil {
		g.Entry = b
	}

	return b
}

func (g *Graph) Block(name string) *BasicBlock {
	return g.byName[name]
}

// AddEdge appends to as the next out edge of from.
func (g *Graph) AddEdge(from, to *BasicBlock) {
	from.Succs = append(from.Succs, to)
	to.Preds = append(to.Preds, from)
}

// Exits returns blocks without out edges.
func (g *Graph) Exits() (l []*BasicBlock) {
	for _, b := range g.Blocks {
		if len(b.Succs) == 0 {
			l = append(l, b)
		}
	}

	return l
}

// Number computes DFS orderings and loop stamps.
// Blocks unreachable from the entry keep Ord -1.
func (g *Graph) Number() {
	var visited set.Bitmap[int]

	for _, b := range g.Blocks {
		b.Ord, b.RevOrd = -1, -1
		b.LoopStamps = [2]int{}
		b.RevLoopStamps = [2]int{}
	}

	g.Order = g.Order[:0]

	if g.Entry == nil {
		return
	}

	time := 1

	var dfs func(b *BasicBlock)
	dfs = func(b *BasicBlock) {
		visited.Set(b.Index)

		b.LoopStamps[0] = time
		time++

		for _, s := range b.Succs {
			if !visited.IsSet(s.Index) {
				dfs(s)
			}
		}

		b.LoopStamps[1] = time
		time++

		b.Ord = len(g.Order)
		g.Order = append(g.Order, b)
	}

	dfs(g.Entry)

	visited.Reset()
	time = 1

	var rdfs func(b *BasicBlock)
	rdfs = func(b *BasicBlock) {
		visited.Set(b.Index)

		b.RevLoopStamps[0] = time
		time++

		for i := len(b.Succs) - 1; i >= 0; i-- {
			if s := b.Succs[i]; !visited.IsSet(s.Index) {
				rdfs(s)
			}
		}

		b.RevLoopStamps[1] = time
		time++
	}

	rdfs(g.Entry)

	visited.Reset()
	rev := 0

	var pdfs func(b *BasicBlock)
	pdfs = func(b *BasicBlock) {
		visited.Set(b.Index)

		for _, p := range b.Preds {
			if !visited.IsSet(p.Index) {
				pdfs(p)
			}
		}

		b.RevOrd = rev
		rev++
	}

	for _, b := range g.Exits() {
		if !visited.IsSet(b.Index) {
			pdfs(b)
		}
	}
}

func sprintf(f string, args ...any) string {
	return string(hfmt.Appendf(nil, f, args...))
}
