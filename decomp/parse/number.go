package parse

import (
	"context"
	"strconv"

	"tlog.app/go/errors"

	"github.com/slowlang/decomp/decomp/exp"
)

type (
	// Num is an integer, long (LL suffix) or float constant with an optional minus.
	Num struct{}
)

func (p Num) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	i = st

	if i < len(b) && b[i] == '-' {
		i++
	}

	dst := i

	if i+1 < len(b) && b[i] == '0' && (b[i+1] == 'x' || b[i+1] == 'X') {
		i += 2

		hst := i

		for i < len(b) && isHex(b[i]) {
			i++
		}

		if i == hst {
			return nil, i, errors.New("hex digits expected")
		}

		v, err := strconv.ParseUint(string(b[hst:i]), 16, 64)
		if err != nil {
			return nil, dst, errors.Wrap(err, "hex")
		}

		k := int64(v)
		if dst != st {
			k = -k
		}

		return p.suffix(b, i, k)
	}

	dot := false
	sci := false

loop:
	for ; i < len(b); i++ {
		switch c := b[i]; {
		case isDigit(c):
		case !dot && !sci && c == '.':
			dot = true
		case !sci && i > dst && (c == 'e' || c == 'E'):
			sci = true

			if i+1 < len(b) && (b[i+1] == '+' || b[i+1] == '-') {
				i++
			}
		default:
			break loop
		}
	}

	if i == dst || i == dst+1 && b[dst] == '.' {
		return nil, st, errors.New("Num expected")
	}

	if dot || sci {
		f, err := strconv.ParseFloat(string(b[st:i]), 64)
		if err != nil {
			return nil, st, errors.Wrap(err, "float")
		}

		return p.float(b, i, f)
	}

	k, err := strconv.ParseInt(string(b[st:i]), 10, 64)
	if err != nil && dst == st {
		var v uint64

		v, err = strconv.ParseUint(string(b[st:i]), 10, 64)
		k = int64(v)
	}
	if err != nil {
		return nil, st, errors.Wrap(err, "int")
	}

	return p.suffix(b, i, k)
}

func (p Num) suffix(b []byte, i int, k int64) (Node, int, error) {
	if hasTok(b, i, "LL") {
		return exp.Long(k), i + 2, nil
	}

	if i < len(b) && isIdent(b[i]) {
		return nil, i, errors.New("bad number suffix")
	}

	return exp.Int(k), i, nil
}

func (p Num) float(b []byte, i int, f float64) (Node, int, error) {
	if i < len(b) && isIdent(b[i]) {
		return nil, i, errors.New("bad number suffix")
	}

	return exp.Flt(f), i, nil
}

func isHex(c byte) bool {
	return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}
