package decomp

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/decomp/decomp/codegen"
	"github.com/slowlang/decomp/decomp/conf"
	"github.com/slowlang/decomp/decomp/fixture"
	"github.com/slowlang/decomp/decomp/ir"
	"github.com/slowlang/decomp/decomp/parse"
	"github.com/slowlang/decomp/decomp/simp"
)

type (
	Result struct {
		Text     []byte
		Warnings []codegen.Warning

		// Bypassed is the number of statements rewritten by call bypassing.
		Bypassed int
	}
)

func DecompileFile(ctx context.Context, name string, s *conf.Settings) (*Result, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Decompile(ctx, name, text, s)
}

// Decompile loads the fixture text, rewrites every statement and generates code.
// Settings in s are applied over the ones given in the file.
func Decompile(ctx context.Context, name string, text []byte, s *conf.Settings) (res *Result, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "decompile", "name", name)
	defer tr.Finish("err", &err)

	f, err := fixture.Decode(ctx, name, text)
	if err != nil {
		return nil, errors.Wrap(err, "load")
	}

	f.Settings.Merge(s)

	res = &Result{}

	for _, u := range f.Units {
		res.Bypassed += LatePasses(ctx, u.Proc, f.Settings)
	}

	g := codegen.New(f.Prog, f.Settings)

	lines, err := g.GenerateProgram(ctx, f.Units)
	if err != nil {
		return nil, errors.Wrap(err, "generate")
	}

	res.Text = lines.AppendText(nil)
	res.Warnings = g.Warnings()

	tr.Printw("decompiled", "lines", lines.Len(), "bypassed", res.Bypassed, "warnings", len(res.Warnings))

	return res, nil
}

// LatePasses rewrites every expression of p in place, leaving no SSA references behind,
// and returns the number of statements changed by call bypassing.
func LatePasses(ctx context.Context, p *ir.Proc, s *conf.Settings) (bypassed int) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "late passes", "proc", p.Name)
	defer tr.Finish()

	opts := simp.Options{WordBits: s.Get().WordBits}

	for _, st := range p.Stmts() {
		changed := false

		for _, slot := range st.Exps() {
			e, mod := simp.BypassCalls(*slot, p, opts)
			changed = changed || mod

			e = simp.Simplify(e, opts)
			e = simp.StripSizes(e)
			e = simp.InsertCasts(e, p)
			e = simp.StripSubscripts(e)

			*slot = e
		}

		if changed {
			bypassed++

			tr.V("bypass").Printw("bypassed", "num", st.Num(), "stmt", st.String())
		}
	}

	return bypassed
}

// RenderExp parses, simplifies and renders a single expression.
func RenderExp(ctx context.Context, text string, s *conf.Settings) (string, error) {
	e, err := parse.Parse(ctx, text)
	if err != nil {
		return "", errors.Wrap(err, "parse")
	}

	e = simp.Simplify(e, simp.Options{WordBits: s.Get().WordBits})
	e = simp.StripSizes(e)

	if tlog.If("render") {
		tlog.Printw("render", "text", text, "exp", e)
	}

	return codegen.Render(e, s), nil
}
