package fixture

import (
	"context"
	"encoding/hex"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/decomp/decomp/cfg"
	"github.com/slowlang/decomp/decomp/codegen"
	"github.com/slowlang/decomp/decomp/conf"
	"github.com/slowlang/decomp/decomp/exp"
	"github.com/slowlang/decomp/decomp/ir"
	"github.com/slowlang/decomp/decomp/parse"
	"github.com/slowlang/decomp/decomp/tp"
)

type (
	// File is a loaded fixture.
	File struct {
		Name     string
		Settings *conf.Settings
		Prog     *ir.Program
		Units    []codegen.Unit
	}

	fileDoc struct {
		Program  string       `yaml:"program"`
		Settings yaml.Node    `yaml:"settings"`
		Globals  []globalDoc  `yaml:"globals"`
		Sections []sectionDoc `yaml:"sections"`
		Procs    []procDoc    `yaml:"procs"`
	}

	globalDoc struct {
		Name string `yaml:"name"`
		Type string `yaml:"type"`
		Init string `yaml:"init"`
	}

	sectionDoc struct {
		Name string `yaml:"name"`
		Addr uint64 `yaml:"addr"`
		Data string `yaml:"data"` // hex bytes, spaces allowed
	}

	procDoc struct {
		Name   string     `yaml:"name"`
		Addr   uint64     `yaml:"addr"`
		Ret    string     `yaml:"ret"`
		Params []varDoc   `yaml:"params"`
		Locals []varDoc   `yaml:"locals"`
		Blocks []blockDoc `yaml:"blocks"`
	}

	varDoc struct {
		Name string `yaml:"name"`
		Type string `yaml:"type"`
	}

	blockDoc struct {
		Name  string    `yaml:"name"`
		Type  string    `yaml:"type"`
		Addr  uint64    `yaml:"addr"`
		Succs []string  `yaml:"succs"`
		Stmts []stmtDoc `yaml:"stmts"`
		RTLs  []rtlDoc  `yaml:"rtls"`

		Struct     string `yaml:"struct"`
		Unstruct   string `yaml:"unstruct"`
		Cond       string `yaml:"cond"`
		Loop       string `yaml:"loop"`
		LoopHead   string `yaml:"loop_head"`
		Latch      string `yaml:"latch"`
		LoopFollow string `yaml:"loop_follow"`
		CondFollow string `yaml:"cond_follow"`
		CaseHead   string `yaml:"case_head"`
	}

	rtlDoc struct {
		Addr  uint64    `yaml:"addr"`
		Stmts []stmtDoc `yaml:"stmts"`
	}

	stmtDoc struct {
		Kind string `yaml:"kind"`

		LHS  string `yaml:"lhs"`
		RHS  string `yaml:"rhs"`
		Type string `yaml:"type"`
		Cond string `yaml:"cond"`
		Size int    `yaml:"size"`
		Dest string `yaml:"dest"`
		Name string `yaml:"name"`

		Args     []assignDoc `yaml:"args"`
		Results  []assignDoc `yaml:"results"`
		Returns  []assignDoc `yaml:"returns"`
		Proven   []provenDoc `yaml:"proven"`
		Reaching []reachDoc  `yaml:"reaching"`

		Switch *switchDoc `yaml:"switch"`
	}

	assignDoc struct {
		LHS  string `yaml:"lhs"`
		RHS  string `yaml:"rhs"`
		Type string `yaml:"type"`
	}

	provenDoc struct {
		Loc string `yaml:"loc"`
		Val string `yaml:"val"`
	}

	reachDoc struct {
		Loc string    `yaml:"loc"`
		Def exp.DefID `yaml:"def"`
	}

	switchDoc struct {
		Var   string  `yaml:"var"`
		Form  string  `yaml:"form"`
		Lower int64   `yaml:"lower"`
		Upper int64   `yaml:"upper"`
		Table []int64 `yaml:"table"`
	}

	// loader is the state of one procedure being built.
	loader struct {
		prog *ir.Program
		proc *ir.Proc
		p    *parse.State
		ctx  context.Context
	}
)

// Load reads and decodes a fixture file.
func Load(ctx context.Context, name string) (*File, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read fixture")
	}

	return Decode(ctx, name, data)
}

// Decode builds the program and numbered graphs described by data.
func Decode(ctx context.Context, name string, data []byte) (f *File, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "load fixture", "name", name)
	defer tr.Finish("err", &err)

	var doc fileDoc

	err = yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, errors.Wrap(err, "%v: yaml", name)
	}

	f = &File{
		Name:     name,
		Settings: conf.Default(),
	}

	if doc.Settings.Kind != 0 {
		err = doc.Settings.Decode(f.Settings)
		if err != nil {
			return nil, errors.Wrap(err, "%v: settings", name)
		}
	}

	err = f.Settings.Check()
	if err != nil {
		return nil, errors.Wrap(err, "%v: settings", name)
	}

	prog := doc.Program
	if prog == "" {
		prog = name
	}

	f.Prog = ir.NewProgram(prog)

	for _, d := range doc.Globals {
		g, err := decodeGlobal(d)
		if err != nil {
			return nil, errors.Wrap(err, "%v: global %v", name, d.Name)
		}

		f.Prog.AddGlobal(g)
	}

	for _, d := range doc.Sections {
		raw, err := hex.DecodeString(strings.Join(strings.Fields(d.Data), ""))
		if err != nil {
			return nil, errors.Wrap(err, "%v: section %v", name, d.Name)
		}

		f.Prog.Sections = append(f.Prog.Sections, &ir.Section{Name: d.Name, Addr: d.Addr, Data: raw})
	}

	// procedures are created first so calls may refer to later ones
	for _, d := range doc.Procs {
		if d.Name == "" {
			return nil, errors.New("%v: procedure without a name", name)
		}

		if f.Prog.Proc(d.Name) != nil {
			return nil, errors.New("%v: duplicate procedure %v", name, d.Name)
		}

		f.Prog.AddProc(ir.NewProc(d.Name, d.Addr))
	}

	for _, d := range doc.Procs {
		l := &loader{prog: f.Prog, proc: f.Prog.Proc(d.Name), ctx: ctx}

		g, err := l.decodeProc(d)
		if err != nil {
			return nil, errors.Wrap(err, "%v: proc %v", name, d.Name)
		}

		f.Units = append(f.Units, codegen.Unit{Proc: l.proc, Graph: g})
	}

	tr.Printw("loaded", "globals", len(f.Prog.Globals), "procs", len(f.Units))

	return f, nil
}

func decodeGlobal(d globalDoc) (g *ir.Global, err error) {
	g = &ir.Global{Name: d.Name}

	if d.Name == "" {
		return nil, errors.New("no name")
	}

	g.Type, err = optType(d.Type)
	if err != nil {
		return nil, err
	}

	if d.Init != "" {
		g.Init, err = parse.Parse(context.Background(), d.Init)
		if err != nil {
			return nil, errors.Wrap(err, "init")
		}
	}

	return g, nil
}

func (l *loader) decodeProc(d procDoc) (g *cfg.Graph, err error) {
	p := l.proc

	p.Ret, err = optType(d.Ret)
	if err != nil {
		return nil, errors.Wrap(err, "ret")
	}

	for _, v := range d.Params {
		t, err := optType(v.Type)
		if err != nil {
			return nil, errors.Wrap(err, "param %v", v.Name)
		}

		p.Params = append(p.Params, ir.Param{Name: v.Name, Type: t})
	}

	for _, v := range d.Locals {
		t, err := optType(v.Type)
		if err != nil {
			return nil, errors.Wrap(err, "local %v", v.Name)
		}

		p.AddLocal(v.Name, t, nil)
	}

	l.p = parse.New()
	l.p.Name = l.resolve

	if len(d.Blocks) == 0 {
		return nil, errors.New("no blocks")
	}

	g = cfg.New()

	for _, bd := range d.Blocks {
		if bd.Name == "" {
			return nil, errors.New("block without a name")
		}

		if g.Block(bd.Name) != nil {
			return nil, errors.New("duplicate block %v", bd.Name)
		}

		t, ok := cfg.ParseBBType(bd.Type)
		if !ok {
			return nil, errors.New("block %v: unknown type %q", bd.Name, bd.Type)
		}

		bb := g.NewBlock(bd.Name, t, bd.Addr)

		if len(bd.Stmts) != 0 {
			bd.RTLs = append([]rtlDoc{{Addr: bd.Addr, Stmts: bd.Stmts}}, bd.RTLs...)
		}

		for _, rd := range bd.RTLs {
			rtl := &ir.RTL{Addr: rd.Addr}

			for j, sd := range rd.Stmts {
				s, err := l.decodeStmt(sd)
				if err != nil {
					return nil, errors.Wrap(err, "block %v: stmt %d", bd.Name, j)
				}

				p.Add(s)
				rtl.Stmts = append(rtl.Stmts, s)
			}

			bb.RTLs = append(bb.RTLs, rtl)
		}
	}

	for _, bd := range d.Blocks {
		err = linkBlock(g, g.Block(bd.Name), bd)
		if err != nil {
			return nil, errors.Wrap(err, "block %v", bd.Name)
		}
	}

	g.Number()

	return g, nil
}

func linkBlock(g *cfg.Graph, bb *cfg.BasicBlock, d blockDoc) (err error) {
	ref := func(what, name string) (*cfg.BasicBlock, error) {
		if name == "" {
			return nil, nil
		}

		b := g.Block(name)
		if b == nil {
			return nil, errors.New("%v: unknown block %q", what, name)
		}

		return b, nil
	}

	for _, name := range d.Succs {
		to, err := ref("succ", name)
		if err != nil {
			return err
		}

		g.AddEdge(bb, to)
	}

	var ok bool

	if d.Struct != "" {
		if bb.StructType, ok = cfg.ParseStructType(d.Struct); !ok {
			return errors.New("unknown struct type %q", d.Struct)
		}
	}

	if d.Unstruct != "" {
		if bb.UnstructType, ok = cfg.ParseUnstructType(d.Unstruct); !ok {
			return errors.New("unknown unstruct type %q", d.Unstruct)
		}
	}

	if d.Cond != "" {
		if bb.CondType, ok = cfg.ParseCondType(d.Cond); !ok {
			return errors.New("unknown cond type %q", d.Cond)
		}
	}

	if d.Loop != "" {
		if bb.LoopType, ok = cfg.ParseLoopType(d.Loop); !ok {
			return errors.New("unknown loop type %q", d.Loop)
		}
	}

	for _, x := range []struct {
		what string
		name string
		dst  **cfg.BasicBlock
	}{
		{"loop_head", d.LoopHead, &bb.LoopHead},
		{"latch", d.Latch, &bb.Latch},
		{"loop_follow", d.LoopFollow, &bb.LoopFollow},
		{"cond_follow", d.CondFollow, &bb.CondFollow},
		{"case_head", d.CaseHead, &bb.CaseHead},
	} {
		*x.dst, err = ref(x.what, x.name)
		if err != nil {
			return err
		}
	}

	return nil
}

func (l *loader) decodeStmt(d stmtDoc) (ir.Stmt, error) {
	switch d.Kind {
	case "", "assign":
		a, err := l.assign(assignDoc{LHS: d.LHS, RHS: d.RHS, Type: d.Type}, true)
		if err != nil {
			return nil, err
		}

		return a, nil
	case "bool":
		left, err := l.exp("lhs", d.LHS)
		if err != nil {
			return nil, err
		}

		cond, err := l.exp("cond", d.Cond)
		if err != nil {
			return nil, err
		}

		return &ir.BoolAssign{Left: left, Cond: cond, Size: d.Size}, nil
	case "branch":
		cond, err := l.exp("cond", d.Cond)
		if err != nil {
			return nil, err
		}

		dest, err := l.optExp("dest", d.Dest)
		if err != nil {
			return nil, err
		}

		return &ir.Branch{Cond: cond, Dest: dest}, nil
	case "case":
		return l.decodeCase(d)
	case "goto":
		dest, err := l.optExp("dest", d.Dest)
		if err != nil {
			return nil, err
		}

		return &ir.Goto{Dest: dest}, nil
	case "call":
		return l.decodeCall(d)
	case "return":
		r := &ir.Return{}

		for i, ad := range d.Returns {
			a, err := l.assign(ad, true)
			if err != nil {
				return nil, errors.Wrap(err, "return %d", i)
			}

			r.Returns = append(r.Returns, a)
		}

		return r, nil
	case "implicit":
		left, err := l.exp("lhs", d.LHS)
		if err != nil {
			return nil, err
		}

		return &ir.Implicit{Left: left}, nil
	}

	return nil, errors.New("unknown statement kind %q", d.Kind)
}

func (l *loader) decodeCase(d stmtDoc) (_ ir.Stmt, err error) {
	c := &ir.Case{}

	c.Dest, err = l.optExp("dest", d.Dest)
	if err != nil {
		return nil, err
	}

	if d.Switch == nil {
		return c, nil
	}

	si := &ir.SwitchInfo{
		Lower: d.Switch.Lower,
		Upper: d.Switch.Upper,
		Table: d.Switch.Table,
		Form:  'A',
	}

	switch len(d.Switch.Form) {
	case 0:
	case 1:
		si.Form = d.Switch.Form[0]
	default:
		return nil, errors.New("switch form: one letter expected, got %q", d.Switch.Form)
	}

	si.Var, err = l.exp("switch var", d.Switch.Var)
	if err != nil {
		return nil, err
	}

	c.Switch = si

	return c, nil
}

func (l *loader) decodeCall(d stmtDoc) (_ ir.Stmt, err error) {
	c := &ir.Call{Name: d.Name}

	c.Dest, err = l.optExp("dest", d.Dest)
	if err != nil {
		return nil, err
	}

	if c.Name == "" && c.Dest == nil {
		return nil, errors.New("call: name or dest expected")
	}

	for i, ad := range d.Args {
		a, err := l.assign(ad, false)
		if err != nil {
			return nil, errors.Wrap(err, "arg %d", i)
		}

		c.Args = append(c.Args, a)
	}

	for i, ad := range d.Results {
		if ad.LHS == "" {
			ad.LHS, ad.RHS = ad.RHS, ""
		}

		a, err := l.assign(ad, false)
		if err != nil {
			return nil, errors.Wrap(err, "result %d", i)
		}

		c.Results = append(c.Results, a)
	}

	for i, pd := range d.Proven {
		loc, err := l.exp("loc", pd.Loc)
		if err != nil {
			return nil, errors.Wrap(err, "proven %d", i)
		}

		val, err := l.exp("val", pd.Val)
		if err != nil {
			return nil, errors.Wrap(err, "proven %d", i)
		}

		c.Proven = append(c.Proven, ir.Proven{Loc: loc, Val: val})
	}

	for i, rd := range d.Reaching {
		loc, err := l.exp("loc", rd.Loc)
		if err != nil {
			return nil, errors.Wrap(err, "reaching %d", i)
		}

		c.Reaching = append(c.Reaching, ir.Reaching{Loc: loc, Def: rd.Def})
	}

	return c, nil
}

// assign decodes an assignment. A typed left side sets the assignment type.
func (l *loader) assign(d assignDoc, needLeft bool) (a *ir.Assign, err error) {
	a = &ir.Assign{}

	a.Ty, err = optType(d.Type)
	if err != nil {
		return nil, errors.Wrap(err, "type")
	}

	if d.LHS != "" || needLeft {
		a.Left, err = l.exp("lhs", d.LHS)
		if err != nil {
			return nil, err
		}

		if t, ok := a.Left.(*exp.Typed); ok && a.Ty == nil {
			a.Ty, a.Left = t.Type, t.X
		}
	}

	if d.RHS != "" || needLeft {
		a.Right, err = l.exp("rhs", d.RHS)
		if err != nil {
			return nil, err
		}
	}

	return a, nil
}

func (l *loader) exp(what, text string) (exp.Exp, error) {
	if text == "" {
		return nil, errors.New("%v: expression expected", what)
	}

	e, err := l.p.ParseExp(l.ctx, what, text)
	if err != nil {
		return nil, err
	}

	return e, nil
}

func (l *loader) optExp(what, text string) (exp.Exp, error) {
	if text == "" {
		return nil, nil
	}

	return l.exp(what, text)
}

func (l *loader) resolve(name string) exp.Exp {
	if l.proc.Param(name) != nil {
		return exp.Param(name)
	}

	if l.prog.Global(name) != nil {
		return exp.Global(name)
	}

	if l.prog.Proc(name) != nil {
		return exp.FuncName(name)
	}

	return nil
}

func optType(s string) (tp.Type, error) {
	if s == "" {
		return nil, nil
	}

	return parse.ParseType(s)
}

// UnmarshalYAML decodes "lhs := rhs" scalars as assignments.
func (d *stmtDoc) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		d.Kind = "assign"
		d.LHS, d.RHS = splitAssign(n.Value)

		if d.LHS == "" {
			return errors.New("line %d: %q: assignment expected", n.Line, n.Value)
		}

		return nil
	}

	type plain stmtDoc

	return n.Decode((*plain)(d))
}

// UnmarshalYAML decodes "lhs := rhs" or "rhs" scalars.
func (d *assignDoc) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		d.LHS, d.RHS = splitAssign(n.Value)

		if d.LHS == "" {
			d.RHS = n.Value
		}

		return nil
	}

	type plain assignDoc

	return n.Decode((*plain)(d))
}

func splitAssign(s string) (lhs, rhs string) {
	l, r, ok := strings.Cut(s, ":=")
	if !ok {
		return "", ""
	}

	return strings.TrimSpace(l), strings.TrimSpace(r)
}
