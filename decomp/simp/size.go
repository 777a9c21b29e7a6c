package simp

import "github.com/slowlang/decomp/decomp/exp"

// SizeStripper removes size wrappers.
type SizeStripper struct {
	exp.NopModifier

	modified bool
}

func StripSizes(e exp.Exp) exp.Exp {
	return exp.Modify(e, &SizeStripper{})
}

func (s *SizeStripper) Modified() bool { return s.modified }

func (s *SizeStripper) PostModify(e exp.Exp) exp.Exp {
	if e.Op() != exp.OpSize {
		return e
	}

	s.modified = true

	return exp.MustBinary(e).Y
}
