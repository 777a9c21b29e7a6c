package exp

// Search returns the first subexpression of e matching pattern, in pre-order.
func Search(e, pattern Exp) (Exp, bool) {
	var l []*Exp

	root := e
	l = search(pattern, &root, l, true)

	if len(l) == 0 {
		return nil, false
	}

	return *l[0], true
}

// SearchAll returns every subexpression of e matching pattern, in pre-order.
func SearchAll(e, pattern Exp) []Exp {
	root := e
	slots := search(pattern, &root, nil, false)

	if len(slots) == 0 {
		return nil
	}

	r := make([]Exp, len(slots))

	for i, s := range slots {
		r[i] = *s
	}

	return r
}

// SearchReplaceAll replaces every match of pattern in e with a clone of repl.
// It returns the possibly different root and whether anything was replaced.
func SearchReplaceAll(e, pattern, repl Exp) (Exp, bool) {
	return searchReplace(e, pattern, repl, false)
}

// SearchReplace replaces the first match only.
func SearchReplace(e, pattern, repl Exp) (Exp, bool) {
	return searchReplace(e, pattern, repl, true)
}

func searchReplace(e, pattern, repl Exp, once bool) (Exp, bool) {
	if Equal(pattern, e) {
		return repl.Clone(), true
	}

	root := e
	l := search(pattern, &root, nil, false)

	for _, p := range l {
		*p = repl.Clone()

		if once {
			break
		}
	}

	return root, len(l) != 0
}

// search collects slots matching pattern.
// A matched reference is not searched into.
func search(pattern Exp, p *Exp, l []*Exp, once bool) []*Exp {
	e := *p

	match := Equal(pattern, e)
	if match {
		l = append(l, p)

		if once {
			return l
		}
	}

	if match && e.Op() == OpSubscript {
		return l
	}

	for i := 0; i < e.Arity(); i++ {
		l = search(pattern, slot(e, i), l, once)

		if once && len(l) != 0 {
			return l
		}
	}

	return l
}
