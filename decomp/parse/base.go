package parse

import (
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
)

type (
	// None is the result of an Optional parser that did not match.
	None struct{}

	Optional struct {
		Parser
	}

	// Between parses Of enclosed in Open and Close and returns the Of result.
	Between struct {
		Open  Parser
		Of    Parser
		Close Parser
	}

	// AllOf parses a sequence and returns a []Node.
	AllOf []Parser

	// AnyOf returns the first alternative that matches.
	// An alternative failing after it consumed input wins over the following ones.
	AnyOf []Parser
)

func (None) Parse(ctx context.Context, b []byte, st int) (Node, int, error) {
	return None{}, st, nil
}

func (p Optional) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	x, i, err = p.Parser.Parse(ctx, b, st)
	if i == st {
		return None{}, st, nil
	}

	return x, i, err
}

func (p Between) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	_, i, err = p.Open.Parse(ctx, b, st)
	if err != nil {
		return nil, i, err
	}

	x, i, err = p.Of.Parse(ctx, b, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "%T", p.Of)
	}

	_, i, err = p.Close.Parse(ctx, b, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "closing %T", p.Of)
	}

	return x, i, nil
}

func (p AllOf) Parse(ctx context.Context, b []byte, st int) (_ Node, i int, err error) {
	res := make([]Node, len(p))
	i = st

	for j, r := range p {
		res[j], i, err = r.Parse(ctx, b, i)
		if err == nil {
			continue
		}

		if i == st {
			return nil, st, err
		}

		return nil, i, errors.Wrap(err, "%T (%d)", r, j)
	}

	return res, i, nil
}

func (p AnyOf) Parse(ctx context.Context, b []byte, st int) (_ Node, i int, err error) {
	for _, r := range p {
		x, j, e := r.Parse(ctx, b, st)
		switch {
		case e == nil:
			return x, j, nil
		case j != st:
			return nil, j, errors.Wrap(e, "%T", r)
		}
	}

	return nil, st, errors.New("expected %v", describe(p))
}

func describe(l []Parser) string {
	var b []byte

	for i, r := range l {
		switch {
		case i == 0:
		case i+1 == len(l):
			b = append(b, " or "...)
		default:
			b = append(b, ", "...)
		}

		if t, ok := r.(Padded); ok {
			r = t.Parser
		}

		if t, ok := r.(Tok); ok {
			b = hfmt.Appendf(b, "%q", string(t))
			continue
		}

		b = hfmt.Appendf(b, "%T", r)
	}

	if b == nil {
		return "nothing"
	}

	return string(b)
}
