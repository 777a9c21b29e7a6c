package exp

import (
	"github.com/google/btree"
	"tlog.app/go/tlog/tlwire"
)

type (
	// Set is an ordered set of expressions keyed by Less.
	// Zero value is ready to use.
	Set struct {
		t *btree.BTreeG[Exp]
	}

	// Counts maps expressions to the number of times they were added.
	Counts struct {
		t *btree.BTreeG[count]
	}

	count struct {
		e Exp
		n int
	}
)

const degree = 8

func NewSet(l ...Exp) *Set {
	s := &Set{}

	for _, e := range l {
		s.Insert(e)
	}

	return s
}

func (s *Set) tree() *btree.BTreeG[Exp] {
	if s.t == nil {
		s.t = btree.NewG[Exp](degree, Less)
	}

	return s.t
}

// Insert adds e. It returns false if an equal expression was already there.
func (s *Set) Insert(e Exp) bool {
	_, had := s.tree().ReplaceOrInsert(e)
	return !had
}

func (s *Set) Has(e Exp) bool {
	if s.t == nil {
		return false
	}

	return s.t.Has(e)
}

func (s *Set) Delete(e Exp) bool {
	if s.t == nil {
		return false
	}

	_, ok := s.t.Delete(e)

	return ok
}

func (s *Set) Len() int {
	if s.t == nil {
		return 0
	}

	return s.t.Len()
}

// Each calls f in ascending order until it returns false.
func (s *Set) Each(f func(e Exp) bool) {
	if s.t == nil {
		return
	}

	s.t.Ascend(f)
}

func (s *Set) List() []Exp {
	l := make([]Exp, 0, s.Len())

	s.Each(func(e Exp) bool {
		l = append(l, e)
		return true
	})

	return l
}

func (s *Set) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendTag(b, tlwire.Array, s.Len())

	s.Each(func(x Exp) bool {
		b = e.AppendString(b, x.String())
		return true
	})

	return b
}

func countLess(a, b count) bool { return Less(a.e, b.e) }

func (c *Counts) tree() *btree.BTreeG[count] {
	if c.t == nil {
		c.t = btree.NewG[count](degree, countLess)
	}

	return c.t
}

// Add increments the counter of e.
func (c *Counts) Add(e Exp) {
	t := c.tree()

	x, ok := t.Get(count{e: e})
	if !ok {
		x = count{e: e.Clone()}
	}

	x.n++

	t.ReplaceOrInsert(x)
}

func (c *Counts) Get(e Exp) int {
	if c.t == nil {
		return 0
	}

	x, _ := c.t.Get(count{e: e})

	return x.n
}

func (c *Counts) Len() int {
	if c.t == nil {
		return 0
	}

	return c.t.Len()
}

// Each calls f in ascending order of expressions until it returns false.
func (c *Counts) Each(f func(e Exp, n int) bool) {
	if c.t == nil {
		return
	}

	c.t.Ascend(func(x count) bool {
		return f(x.e, x.n)
	})
}
