package simp

import "github.com/slowlang/decomp/decomp/exp"

// SubscriptStripper replaces SSA references by the locations they refer to.
type SubscriptStripper struct {
	exp.NopModifier

	modified bool
}

func StripSubscripts(e exp.Exp) exp.Exp {
	return exp.Modify(e, &SubscriptStripper{})
}

func (s *SubscriptStripper) Modified() bool { return s.modified }

func (s *SubscriptStripper) PostModify(e exp.Exp) exp.Exp {
	r, ok := e.(*exp.Ref)
	if !ok {
		return e
	}

	s.modified = true

	return r.X
}
