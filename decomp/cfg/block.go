package cfg

import (
	"tlog.app/go/loc"
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/decomp/decomp/exp"
	"github.com/slowlang/decomp/decomp/ir"
)

type (
	BBType int8

	// StructType is the structuring class of a block.
	StructType int8

	UnstructType int8

	CondType int8

	LoopType int8

	// BasicBlock is a node of a procedure control flow graph.
	// Structuring fields are set by the loader and read by code generation.
	BasicBlock struct {
		Index int
		Name  string
		Type  BBType
		Addr  uint64

		RTLs []*ir.RTL

		// Succs are ordered: Then = 0, Else = 1 for two way blocks,
		// by case index for n way blocks.
		Succs []*BasicBlock
		Preds []*BasicBlock

		StructType   StructType
		UnstructType UnstructType
		CondType     CondType
		LoopType     LoopType

		LoopHead   *BasicBlock
		Latch      *BasicBlock
		LoopFollow *BasicBlock
		CondFollow *BasicBlock
		CaseHead   *BasicBlock

		// Ord is the DFS post order number, also the label number.
		Ord    int
		RevOrd int

		// LoopStamps are DFS entry and exit times, RevLoopStamps
		// are the same with out edges taken in reverse order.
		// RevOrd is the post order on the reversed graph.
		LoopStamps    [2]int
		RevLoopStamps [2]int
	}
)

// Out edge indexes of two way blocks.
const (
	Then = 0
	Else = 1
)

const (
	Invalid BBType = iota
	Fall
	Oneway
	Twoway
	Nway
	Call
	Ret
	CompJump
	CompCall
)

const (
	Seq StructType = iota
	Loop
	LoopCond
	Cond
)

const (
	Structured UnstructType = iota
	JumpInOutLoop
	JumpIntoCase
)

const (
	IfThen CondType = iota
	IfThenElse
	IfElse
	Case
)

const (
	PreTested LoopType = iota
	PostTested
	Endless
)

var (
	bbTypeNames     = []string{"invalid", "fall", "oneway", "twoway", "nway", "call", "ret", "compjump", "compcall"}
	structTypeNames = []string{"seq", "loop", "loopcond", "cond"}
	unstructNames   = []string{"structured", "jumpinoutloop", "jumpintocase"}
	condTypeNames   = []string{"ifthen", "ifthenelse", "ifelse", "case"}
	loopTypeNames   = []string{"pretested", "posttested", "endless"}
)

func (t BBType) String() string { return name(bbTypeNames, int(t)) }
func (t StructType) String() string { return name(structTypeNames, int(t)) }
func (t UnstructType) String() string { return name(unstructNames, int(t)) }
func (t CondType) String() string { return name(condTypeNames, int(t)) }
func (t LoopType) String() string { return name(loopTypeNames, int(t)) }

func ParseBBType(s string) (BBType, bool) {
	i, ok := lookup(bbTypeNames, s)
	return BBType(i), ok
}

func ParseStructType(s string) (StructType, bool) {
	i, ok := lookup(structTypeNames, s)
	return StructType(i), ok
}

func ParseUnstructType(s string) (UnstructType, bool) {
	i, ok := lookup(unstructNames, s)
	return UnstructType(i), ok
}

func ParseCondType(s string) (CondType, bool) {
	i, ok := lookup(condTypeNames, s)
	return CondType(i), ok
}

func ParseLoopType(s string) (LoopType, bool) {
	i, ok := lookup(loopTypeNames, s)
	return LoopType(i), ok
}

// IsLatch reports whether b is the latch of its loop.
func (b *BasicBlock) IsLatch() bool {
	return b.LoopHead != nil && b.LoopHead.Latch == b
}

// IsCaseOption reports whether b is a non default target of its case head.
func (b *BasicBlock) IsCaseOption() bool {
	if b.CaseHead == nil {
		return false
	}

	out := b.CaseHead.Succs

	for i := 0; i < len(out)-1; i++ {
		if out[i] == b {
			return true
		}
	}

	return false
}

// IsAncestorOf reports whether b encloses x in either DFS tree.
func (b *BasicBlock) IsAncestorOf(x *BasicBlock) bool {
	return b.LoopStamps[0] < x.LoopStamps[0] && b.LoopStamps[1] > x.LoopStamps[1] ||
		b.RevLoopStamps[0] < x.RevLoopStamps[0] && b.RevLoopStamps[1] > x.RevLoopStamps[1]
}

// HasBackEdgeTo reports whether an edge from b to dest closes a loop.
func (b *BasicBlock) HasBackEdgeTo(dest *BasicBlock) bool {
	return dest == b || dest.IsAncestorOf(b)
}

// IsBackEdge reports whether the i-th out edge is a back edge.
func (b *BasicBlock) IsBackEdge(i int) bool {
	return b.HasBackEdgeTo(b.Succs[i])
}

// AllParentsGenerated reports whether every forward predecessor is generated.
func (b *BasicBlock) AllParentsGenerated(generated func(*BasicBlock) bool) bool {
	for _, p := range b.Preds {
		if !p.HasBackEdgeTo(b) && !generated(p) {
			return false
		}
	}

	return true
}

// Succ returns the i-th out edge, nil if there is no such edge.
func (b *BasicBlock) Succ(i int) *BasicBlock {
	if i < 0 || i >= len(b.Succs) {
		return nil
	}

	return b.Succs[i]
}

// LastStmt returns the last statement of the block.
func (b *BasicBlock) LastStmt() ir.Stmt {
	for i := len(b.RTLs) - 1; i >= 0; i-- {
		if s := b.RTLs[i].Last(); s != nil {
			return s
		}
	}

	return nil
}

// Cond returns the condition of the branch ending the block.
func (b *BasicBlock) Cond() (exp.Exp, bool) {
	br, ok := b.LastStmt().(*ir.Branch)
	if !ok || br.Cond == nil {
		return nil, false
	}

	return br.Cond, true
}

// SetCond replaces the condition of the branch ending the block.
func (b *BasicBlock) SetCond(c exp.Exp) {
	br, ok := b.LastStmt().(*ir.Branch)
	if !ok {
		panic(sprintf("%v: last statement is not a branch  (from %v)", b, loc.Caller(1)))
	}

	br.Cond = c
}

// Dest returns the destination of the jump ending the block.
func (b *BasicBlock) Dest() exp.Exp {
	switch s := b.LastStmt().(type) {
	case *ir.Branch:
		return s.Dest
	case *ir.Goto:
		return s.Dest
	case *ir.Case:
		return s.Dest
	case *ir.Call:
		return s.Dest
	}

	return nil
}

// Switch returns the switch info of the case statement ending the block.
func (b *BasicBlock) Switch() *ir.SwitchInfo {
	c, ok := b.LastStmt().(*ir.Case)
	if !ok {
		return nil
	}

	return c.Switch
}

func (b *BasicBlock) String() string {
	if b == nil {
		return "<nil>"
	}

	if b.Name != "" {
		return b.Name
	}

	return sprintf("bb%d", b.Index)
}

func (b *BasicBlock) TlogAppend(buf []byte) []byte {
	var e tlwire.Encoder

	if b == nil {
		return e.AppendNil(buf)
	}

	return e.AppendString(buf, b.String())
}

func name(l []string, i int) string {
	if i >= 0 && i < len(l) {
		return l[i]
	}

	return sprintf("%d", i)
}

func lookup(l []string, s string) (int, bool) {
	for i, n := range l {
		if n == s {
			return i, true
		}
	}

	return 0, false
}
