package simp

import (
	"tlog.app/go/tlog"

	"github.com/slowlang/decomp/decomp/exp"
)

type (
	// Defs resolves SSA definitions.
	// Bypasser returns nil if the definition is not a call or is gone.
	Defs interface {
		Bypasser(id exp.DefID) Bypasser
	}

	// Bypasser is a call statement able to replace a reference to one of its results
	// with the proven expression of that result.
	Bypasser interface {
		BypassRef(r *exp.Ref) (exp.Exp, bool)
	}

	// CallBypasser replaces references to call results by the calls' proven expressions.
	// Nodes whose children changed are simplified again.
	CallBypasser struct {
		exp.NopModifier

		defs Defs
		opts Options

		// changed[i] is set if a child of the i-th open node was replaced
		changed []bool

		modified bool
	}
)

func NewCallBypasser(defs Defs, opts Options) *CallBypasser {
	return &CallBypasser{defs: defs, opts: opts}
}

// BypassCalls applies CallBypasser to e until nothing changes.
func BypassCalls(e exp.Exp, defs Defs, opts Options) (_ exp.Exp, modified bool) {
	for i := 0; i < maxPasses; i++ {
		b := NewCallBypasser(defs, opts)
		e = exp.Modify(e, b)

		if !b.Modified() {
			break
		}

		modified = true
	}

	return e, modified
}

func (b *CallBypasser) Modified() bool { return b.modified }

func (b *CallBypasser) PreModify(e exp.Exp) (exp.Exp, bool) {
	b.changed = append(b.changed, false)

	return e, true
}

func (b *CallBypasser) PostModify(e exp.Exp) exp.Exp {
	switch e.(type) {
	case *exp.Const, *exp.Terminal:
		return e
	}

	top := len(b.changed) - 1
	childChanged := b.changed[top]
	b.changed = b.changed[:top]

	if childChanged && !isAddrOfMem(e) {
		e = Simplify(e, b.opts)
		b.markParent()
	}

	r, ok := e.(*exp.Ref)
	if !ok || b.defs == nil {
		return e
	}

	call := b.defs.Bypasser(r.Def)
	if call == nil {
		return e
	}

	res, ok := call.BypassRef(r)
	if !ok {
		return e
	}

	if tlog.If("bypass") {
		tlog.Printw("bypass", "ref", r, "to", res)
	}

	b.modified = true
	b.markParent()

	return exp.Modify(res, NewCallBypasser(b.defs, b.opts))
}

func (b *CallBypasser) markParent() {
	if l := len(b.changed); l != 0 {
		b.changed[l-1] = true
	}
}

// isAddrOfMem reports a[m[x]], which is kept as is.
func isAddrOfMem(e exp.Exp) bool {
	u, ok := e.(*exp.Unary)
	return ok && u.Op() == exp.OpAddrOf && u.X.Op() == exp.OpMemOf
}
