package parse

import (
	"context"
	"os"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/decomp/decomp/exp"
)

type (
	Node = any

	State struct {
		b []byte // all files concatenated

		Grammar Parser

		// Name resolves identifiers. Locals are made for names it returns nil for.
		Name func(name string) exp.Exp

		files []file
	}

	file struct {
		base int
		size int
		name string
	}

	Parser interface {
		Parse(ctx context.Context, b []byte, st int) (x Node, i int, err error)
	}

	TypeExpectedError struct {
		Want string
		Got  Node
	}

	PartialReadError struct {
		End int
	}

	// PosError is a parse error at the given file position.
	PosError struct {
		File string
		Pos  int
		Line int
		Col  int
		Err  error
	}

	stateCtxKey struct{}
)

func ParseFile(ctx context.Context, name string) (exp.Exp, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	s := New()
	s.AddFile(name, data)

	return s.Parse(ctx)
}

// Parse parses a single expression.
func Parse(ctx context.Context, text string) (exp.Exp, error) {
	s := New()

	s.AddFile("", []byte(text))

	return s.Parse(ctx)
}

// MustParse is Parse for known good text, it panics on error.
func MustParse(text string) exp.Exp {
	e, err := Parse(context.Background(), text)
	if err != nil {
		panic(sprintf("parse %q: %v (%v)", text, err, loc.Caller(1)))
	}

	return e
}

func New() *State {
	return &State{
		Grammar: Expr{},
	}
}

func (s *State) Parse(ctx context.Context) (e exp.Exp, err error) {
	ctx = context.WithValue(ctx, stateCtxKey{}, s)

	x, i, err := s.Grammar.Parse(ctx, s.b, 0)
	if err != nil {
		return nil, s.posError(i, errors.Wrap(err, "parse as grammar"))
	}

	i = skip(s.b, i)

	if i != len(s.b) {
		return nil, s.posError(i, PartialReadError{End: i})
	}

	e, err = asExp(x)
	if err != nil {
		return nil, s.posError(0, err)
	}

	if tlog.If("parse") {
		tlog.Printw("parsed", "text", s.b, "exp", e)
	}

	return e, nil
}

// ParseExp replaces the state text with a single named text and parses it.
func (s *State) ParseExp(ctx context.Context, name, text string) (exp.Exp, error) {
	s.b = s.b[:0]
	s.files = s.files[:0]

	s.AddFile(name, []byte(text))

	return s.Parse(ctx)
}

func (s *State) AddFile(name string, text []byte) {
	f := file{
		name: name,
		base: len(s.b),
		size: len(text),
	}

	s.b = append(s.b, text...)

	s.files = append(s.files, f)
}

func (s *State) resolve(name string) exp.Exp {
	if s != nil && s.Name != nil {
		if e := s.Name(name); e != nil {
			return e
		}
	}

	return exp.Local(name)
}

func (s *State) posError(pos int, err error) PosError {
	e := PosError{Pos: pos, Line: 1, Col: 1, Err: err}

	for _, f := range s.files {
		if pos < f.base || pos > f.base+f.size {
			continue
		}

		e.File = f.name

		line := f.base

		for j := f.base; j < pos; j++ {
			if s.b[j] == '\n' {
				e.Line++
				line = j + 1
			}
		}

		e.Pos = pos - f.base
		e.Col = pos - line + 1

		break
	}

	return e
}

func StateFromContext(ctx context.Context) *State {
	s, _ := ctx.Value(stateCtxKey{}).(*State)
	return s
}

func asExp(x Node) (exp.Exp, error) {
	e, ok := x.(exp.Exp)
	if !ok || e == nil {
		return nil, TypeExpectedError{Want: "expression", Got: x}
	}

	return e, nil
}

func (e TypeExpectedError) Error() string {
	return sprintf("%v expected, got %T", e.Want, e.Got)
}

func (e PartialReadError) Error() string {
	return "partial read"
}

func (e PosError) Error() string {
	if e.File != "" {
		return sprintf("%v:%d:%d: %v", e.File, e.Line, e.Col, e.Err)
	}

	return sprintf("%d:%d: %v", e.Line, e.Col, e.Err)
}

func (e PosError) Unwrap() error { return e.Err }

func sprintf(f string, args ...any) string {
	return string(hfmt.Appendf(nil, f, args...))
}
