package exp

type (
	// Visitor is a read-only traversal.
	// Visit returns children=false to skip e's subexpressions
	// and ok=false to abort the whole walk.
	Visitor interface {
		Visit(e Exp) (children, ok bool)
	}

	VisitFunc func(e Exp) (children, ok bool)

	// Modifier is a rewriting traversal.
	// PreModify is called before descending and may replace the node and
	// suppress descending. Every child slot is then reassigned to its
	// modified value, and PostModify returns the final replacement.
	Modifier interface {
		PreModify(e Exp) (Exp, bool)
		PostModify(e Exp) Exp
	}

	// NopModifier is embedded to get identity hooks.
	NopModifier struct{}
)

func (f VisitFunc) Visit(e Exp) (children, ok bool) { return f(e) }

func (NopModifier) PreModify(e Exp) (Exp, bool) { return e, true }
func (NopModifier) PostModify(e Exp) Exp { return e }

// Walk visits e in pre-order. It returns false if the walk was aborted.
func Walk(e Exp, v Visitor) bool {
	children, ok := v.Visit(e)
	if !ok {
		return false
	}

	if !children {
		return true
	}

	for i := 0; i < e.Arity(); i++ {
		if !Walk(e.Sub(i), v) {
			return false
		}
	}

	return true
}

// Modify applies m to e and returns the replacement of e.
// Leaves get only PostModify.
func Modify(e Exp, m Modifier) Exp {
	switch e.(type) {
	case *Const, *Terminal:
		return m.PostModify(e)
	}

	r, children := m.PreModify(e)

	if children {
		for i := 0; i < r.Arity(); i++ {
			p := slot(r, i)
			*p = Modify(*p, m)
		}
	}

	return m.PostModify(r)
}
