package simp

import (
	"github.com/slowlang/decomp/decomp/exp"
)

type (
	// ArithSimplifier rewrites + and - chains to (Σpos - Σneg) ± |sum|.
	// It only descends into unary nodes through address-of.
	ArithSimplifier struct {
		exp.NopModifier

		modified bool
	}

	terms struct {
		pos, neg []exp.Exp
		sum      int64
	}
)

// SimplifyArith canonicalizes additive chains of e.
func SimplifyArith(e exp.Exp) exp.Exp {
	return exp.Modify(e, &ArithSimplifier{})
}

func (a *ArithSimplifier) Modified() bool { return a.modified }

func (a *ArithSimplifier) PreModify(e exp.Exp) (exp.Exp, bool) {
	if u, ok := e.(*exp.Unary); ok {
		return e, u.Op() == exp.OpAddrOf
	}

	return e, true
}

func (a *ArithSimplifier) PostModify(e exp.Exp) exp.Exp {
	if e.Op() != exp.OpPlus && e.Op() != exp.OpMinus {
		return e
	}

	var t terms

	t.partition(e, false)
	t.cancel()

	r := t.rebuild()

	if !exp.Equal(r, e) {
		a.modified = true
	}

	return r
}

func (t *terms) partition(e exp.Exp, negate bool) {
	switch e.Op() {
	case exp.OpPlus:
		b := exp.MustBinary(e)
		t.partition(b.X, negate)
		t.partition(b.Y, negate)
	case exp.OpMinus:
		b := exp.MustBinary(e)
		t.partition(b.X, negate)
		t.partition(b.Y, !negate)
	case exp.OpTypedExp:
		t.partition(e.Sub(0), negate)
	case exp.OpIntConst:
		k, _ := exp.IntValue(e)

		if negate {
			t.sum -= k
		} else {
			t.sum += k
		}
	default:
		if negate {
			t.neg = append(t.neg, e)
		} else {
			t.pos = append(t.pos, e)
		}
	}
}

// cancel removes pairs of equal positive and negative terms.
func (t *terms) cancel() {
	for i := 0; i < len(t.pos); i++ {
		for j := 0; j < len(t.neg); j++ {
			if !exp.Equal(t.pos[i], t.neg[j]) {
				continue
			}

			t.pos = append(t.pos[:i], t.pos[i+1:]...)
			t.neg = append(t.neg[:j], t.neg[j+1:]...)
			i--

			break
		}
	}
}

func (t *terms) rebuild() exp.Exp {
	switch {
	case len(t.pos) == 0 && len(t.neg) == 0:
		return exp.Int(t.sum)
	case len(t.pos) == 0:
		return exp.Minus(exp.Int(t.sum), accumulate(t.neg))
	}

	r := accumulate(t.pos)

	if len(t.neg) != 0 {
		r = exp.Minus(r, accumulate(t.neg))
	}

	switch {
	case t.sum > 0:
		r = exp.Plus(r, exp.Int(t.sum))
	case t.sum < 0:
		r = exp.Minus(r, exp.Int(-t.sum))
	}

	return r
}

// accumulate is a right nested sum of clones of l.
func accumulate(l []exp.Exp) exp.Exp {
	switch len(l) {
	case 0:
		return exp.Int(0)
	case 1:
		return l[0].Clone()
	}

	return exp.Plus(l[0].Clone(), accumulate(l[1:]))
}
