package exp

type (
	usedLocs struct {
		set *Set
	}
)

// UsedLocs adds every location e reads to the set.
// Memory locations also use their address expressions.
func UsedLocs(e Exp, into *Set) {
	Walk(e, usedLocs{set: into})
}

func (v usedLocs) Visit(e Exp) (children, ok bool) {
	switch e := e.(type) {
	case *Ref:
		v.set.Insert(e.Clone())

		if u, ok := e.X.(*Unary); ok && u.op == OpMemOf {
			Walk(u.X, v)
		}

		return false, true
	case *Unary:
		switch e.op {
		case OpRegOf, OpLocal, OpParam, OpGlobal, OpTemp:
			v.set.Insert(e.Clone())
			return false, true
		case OpMemOf:
			v.set.Insert(e.Clone())
			return true, true
		}
	case *Terminal:
		if e.op == OpPC || e.op.IsFlags() {
			v.set.Insert(e.Clone())
		}
	}

	return true, true
}

// CountRefs counts uses of each SSA reference in e.
func CountRefs(e Exp, into *Counts) {
	Walk(e, VisitFunc(func(e Exp) (bool, bool) {
		if e.Op() == OpSubscript {
			into.Add(e)
		}

		return true, true
	}))
}

// HasFlags reports whether e contains the flags register or any flag.
func HasFlags(e Exp) bool {
	found := false

	Walk(e, VisitFunc(func(e Exp) (bool, bool) {
		found = e.Op().IsFlags()

		return true, !found
	}))

	return found
}

// Depth is the height of the tree, a leaf has depth 1.
func Depth(e Exp) int {
	d := 0

	for i := 0; i < e.Arity(); i++ {
		d = max(d, Depth(e.Sub(i)))
	}

	return d + 1
}
