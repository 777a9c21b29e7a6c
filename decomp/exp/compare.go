package exp

import (
	"strings"

	"github.com/slowlang/decomp/decomp/tp"
)

// Equal is deep structural equality.
// Wildcard terminals on either side match by operator class.
func Equal(a, b Exp) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if wildMatch(a, b) || wildMatch(b, a) {
		return true
	}

	if a.Op() != b.Op() {
		return false
	}

	switch a := a.(type) {
	case *Const:
		return constEqual(a, b.(*Const))
	case *Terminal:
		return true
	case *Unary:
		return Equal(a.X, b.(*Unary).X)
	case *Binary:
		b := b.(*Binary)
		return Equal(a.X, b.X) && Equal(a.Y, b.Y)
	case *Ternary:
		b := b.(*Ternary)
		return Equal(a.X, b.X) && Equal(a.Y, b.Y) && Equal(a.Z, b.Z)
	case *Typed:
		b := b.(*Typed)
		return tp.Equal(a.Type, b.Type) && Equal(a.X, b.X)
	case *Ref:
		b := b.(*Ref)
		return (a.Def == b.Def || a.Def == AnyDef || b.Def == AnyDef) && Equal(a.X, b.X)
	}

	return false
}

func wildMatch(pat, e Exp) bool {
	switch pat.Op() {
	case OpWild:
		return true
	case OpWildIntConst:
		return e.Op() == OpIntConst
	case OpWildStrConst:
		return e.Op() == OpStrConst
	case OpWildMemOf:
		return e.Op() == OpMemOf
	case OpWildRegOf:
		return e.Op() == OpRegOf
	case OpWildAddrOf:
		return e.Op() == OpAddrOf
	}

	return false
}

func constEqual(a, b *Const) bool {
	switch a.op {
	case OpIntConst, OpLongConst:
		return a.I == b.I
	case OpFltConst:
		return a.F == b.F
	default:
		return a.S == b.S
	}
}

// EqualNoSubscript is Equal ignoring SSA references on either side.
func EqualNoSubscript(a, b Exp) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	a, b = Base(a), Base(b)

	if wildMatch(a, b) || wildMatch(b, a) {
		return true
	}

	if a.Op() != b.Op() {
		return false
	}

	switch a := a.(type) {
	case *Const, *Terminal:
		return Equal(a, b)
	case *Typed:
		b := b.(*Typed)
		if !tp.Equal(a.Type, b.Type) {
			return false
		}
	}

	for i := 0; i < a.Arity(); i++ {
		if !EqualNoSubscript(a.Sub(i), b.Sub(i)) {
			return false
		}
	}

	return true
}

// Less is a total order: operator first, then values and subexpressions.
func Less(a, b Exp) bool {
	return Compare(a, b) < 0
}

// Compare returns -1, 0 or 1. Wildcards are ordinary operators here.
func Compare(a, b Exp) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if a.Op() != b.Op() {
		return cmp(a.Op(), b.Op())
	}

	switch a := a.(type) {
	case *Const:
		b := b.(*Const)

		switch a.op {
		case OpIntConst, OpLongConst:
			return cmp(a.I, b.I)
		case OpFltConst:
			return cmp(a.F, b.F)
		default:
			return strings.Compare(a.S, b.S)
		}
	case *Terminal:
		return 0
	case *Typed:
		b := b.(*Typed)

		if r := strings.Compare(typeKey(a.Type), typeKey(b.Type)); r != 0 {
			return r
		}

		return Compare(a.X, b.X)
	case *Ref:
		b := b.(*Ref)

		if r := Compare(a.X, b.X); r != 0 {
			return r
		}

		return cmp(a.Def, b.Def)
	}

	for i := 0; i < a.Arity(); i++ {
		if r := Compare(a.Sub(i), b.Sub(i)); r != 0 {
			return r
		}
	}

	return 0
}

func typeKey(t tp.Type) string {
	if t == nil {
		return ""
	}

	return t.String()
}

func cmp[T int64 | float64 | Oper | DefID](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}

	return 0
}
