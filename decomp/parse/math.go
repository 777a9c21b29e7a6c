package parse

import (
	"context"
	"sort"

	"tlog.app/go/errors"

	"github.com/slowlang/decomp/decomp/exp"
)

type (
	LeftToRight struct {
		Op  Parser
		Arg Parser
	}

	BinOper interface {
		BinOp(l, r Node) (Node, error)
	}

	// Infix matches one of the binary operators by its IR spelling.
	Infix []exp.Oper

	binOp exp.Oper
)

// infixSyms are all binary operator spellings, longest first.
var infixSyms = func() (l []string) {
	for op := exp.OpPlus; op <= exp.OpMemberAccess; op++ {
		if s, ok := exp.BinarySym(op); ok {
			l = append(l, s)
		}
	}

	sort.SliceStable(l, func(i, j int) bool {
		return len(l[i]) > len(l[j])
	})

	return l
}()

func (p LeftToRight) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	x, i, err = p.Arg.Parse(ctx, b, st)
	if err != nil {
		if i == st {
			return nil, st, err
		}

		return nil, i, errors.Wrap(err, "first arg")
	}

	for i < len(b) {
		var op Node
		opst := i
		op, i, err = p.Op.Parse(ctx, b, i)
		if i == opst {
			err = nil
			break
		}
		if err != nil {
			return nil, i, errors.Wrap(err, "op")
		}

		c, ok := op.(BinOper)
		if !ok {
			return nil, i, errors.New("BinOper expected, got %T", op)
		}

		var r Node
		r, i, err = p.Arg.Parse(ctx, b, i)
		if err != nil {
			return nil, i, errors.Wrap(err, "arg")
		}

		x, err = c.BinOp(x, r)
		if err != nil {
			return nil, i, errors.Wrap(err, "%T", c)
		}
	}

	return
}

func (p Infix) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	i = skip(b, st)

	s := lexInfix(b, i)
	if s == "" {
		return nil, st, errors.New("operator expected")
	}

	for _, op := range p {
		if sym, _ := exp.BinarySym(op); sym == s {
			return binOp(op), i + len(s), nil
		}
	}

	return nil, st, errors.New("one of %v expected", []exp.Oper(p))
}

// lexInfix returns the longest operator spelled at st.
func lexInfix(b []byte, st int) string {
	for _, s := range infixSyms {
		if hasTok(b, st, s) {
			return s
		}
	}

	return ""
}

func (op binOp) BinOp(l, r Node) (Node, error) {
	x, err := asExp(l)
	if err != nil {
		return nil, err
	}

	y, err := asExp(r)
	if err != nil {
		return nil, err
	}

	return exp.NewBinary(exp.Oper(op), x, y), nil
}
