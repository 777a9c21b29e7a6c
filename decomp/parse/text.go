package parse

import (
	"bytes"
	"context"
	"strconv"
	"unicode/utf8"

	"tlog.app/go/errors"

	"github.com/slowlang/decomp/decomp/exp"
	"github.com/slowlang/decomp/decomp/tp"
)

type (
	// Tok is a literal token.
	// A token ending with a letter does not match the prefix of a longer word.
	Tok string

	Ident struct{}

	Str struct{}

	Char struct{}
)

func tok(s string) Padded {
	return Padded{Tok(s)}
}

func (p Tok) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	if !hasTok(b, st, string(p)) {
		return nil, st, errors.New("%q expected", string(p))
	}

	return p, st + len(p), nil
}

func hasTok(b []byte, st int, s string) bool {
	if !bytes.HasPrefix(b[st:], []byte(s)) {
		return false
	}

	end := st + len(s)

	return s == "" || !isLetter(s[len(s)-1]) || end == len(b) || !isIdent(b[end])
}

func (p Ident) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	if st == len(b) || !isLetter(b[st]) && b[st] != '_' {
		return nil, st, errors.New("Ident expected")
	}

	i = st + 1

loop:
	for i < len(b) {
		c := b[i]

		switch {
		case isIdent(c):
			i++
		case c >= utf8.RuneSelf:
			r, w := utf8.DecodeRune(b[i:])
			if r == utf8.RuneError {
				return nil, i, errors.New("bad rune")
			}

			i += w
		default:
			break loop
		}
	}

	return string(b[st:i]), i, nil
}

func (p Str) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	if st == len(b) || b[st] != '"' {
		return nil, st, errors.New("string expected")
	}

	for i = st + 1; i < len(b) && b[i] != '"'; i++ {
		if b[i] == '\\' {
			i++
		}
	}

	if i >= len(b) {
		return nil, len(b), errors.New("unterminated string")
	}

	i++

	s, err := strconv.Unquote(string(b[st:i]))
	if err != nil {
		return nil, st, errors.Wrap(err, "unquote")
	}

	return exp.Str(s), i, nil
}

func (p Char) Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error) {
	if st == len(b) || b[st] != '\'' {
		return nil, st, errors.New("char expected")
	}

	s := string(b[st+1:])

	r, _, tail, err := strconv.UnquoteChar(s, '\'')
	if err != nil {
		return nil, st + 1, errors.Wrap(err, "unquote char")
	}

	i = st + 1 + len(s) - len(tail)

	if i == len(b) || b[i] != '\'' {
		return nil, i, errors.New("unterminated char")
	}

	return exp.IntTyped(int64(r), tp.Char{}), i + 1, nil
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdent(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}
