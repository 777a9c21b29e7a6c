package parse

import (
	"context"

	"tlog.app/go/errors"
)

type (
	// Padded parses Parser after skipping blanks.
	// Blanks are given back if nothing else was consumed.
	Padded struct {
		Parser
	}
)

const blanks = 1<<' ' | 1<<'\t' | 1<<'\r' | 1<<'\n'

func isBlank(c byte) bool {
	return c < 64 && blanks&(uint64(1)<<c) != 0
}

// skip returns the first non blank position at or after i.
func skip(b []byte, i int) int {
	for i < len(b) && isBlank(b[i]) {
		i++
	}

	return i
}

func (p Padded) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	at := skip(b, st)

	x, i, err = p.Parser.Parse(ctx, b, at)
	if err == nil {
		return x, i, nil
	}

	if i == at {
		i = st
	}

	return nil, i, errors.Wrap(err, "%T", p.Parser)
}
