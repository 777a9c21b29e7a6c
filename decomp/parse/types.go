package parse

import (
	"context"
	"strconv"

	"tlog.app/go/errors"

	"github.com/slowlang/decomp/decomp/tp"
)

type (
	// Type is a type tag with an optional array suffix: i32, pc, u8[16], i32[].
	Type struct{}

	// FuncTag is a function type spelled (params)ret, as in p(i32, pc)v.
	FuncTag struct{}
)

// ParseType parses a type spelled as in typed expressions.
func ParseType(text string) (tp.Type, error) {
	b := []byte(text)

	x, i, err := Padded{Type{}}.Parse(context.Background(), b, 0)
	if err != nil {
		return nil, errors.Wrap(err, "type %q", text)
	}

	if i = skip(b, i); i != len(b) {
		return nil, errors.New("type %q: %v at %d", text, PartialReadError{End: i}, i)
	}

	return x.(tp.Type), nil
}

func (p Type) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	x, i, err = TypeTag{}.Parse(ctx, b, st)
	if err != nil {
		return
	}

	if !hasTok(b, i, "[") {
		return x, i, nil
	}

	j := i + 1
	for j < len(b) && isDigit(b[j]) {
		j++
	}

	if !hasTok(b, j, "]") {
		return nil, j, errors.New("array length expected")
	}

	n := -1

	if j != i+1 {
		n, err = strconv.Atoi(string(b[i+1 : j]))
		if err != nil {
			return nil, i + 1, errors.Wrap(err, "array length")
		}
	}

	return tp.Array{X: x.(tp.Type), Len: n}, j + 1, nil
}

func (p FuncTag) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	_, i, err = Tok("(").Parse(ctx, b, st)
	if err != nil {
		return nil, st, err
	}

	var f tp.Func

	if x, j, _ := (Optional{tok(")")}).Parse(ctx, b, i); x != (None{}) {
		i = j
	} else {
		for {
			x, i, err = Padded{TypeTag{}}.Parse(ctx, b, i)
			if err != nil {
				return nil, i, errors.Wrap(err, "param %d", len(f.Params))
			}

			f.Params = append(f.Params, x.(tp.Type))

			x, i, err = AnyOf{tok(","), tok(")")}.Parse(ctx, b, i)
			if err != nil {
				return nil, i, err
			}

			if x == Tok(")") {
				break
			}
		}
	}

	x, i, err = TypeTag{}.Parse(ctx, b, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "result")
	}

	f.Ret = x.(tp.Type)

	return f, i, nil
}
