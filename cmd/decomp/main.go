package main

import (
	"context"
	"fmt"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/decomp"
	"github.com/slowlang/decomp/decomp/conf"
)

func main() {
	genCmd := &cli.Command{
		Name:        "gen",
		Description: "decompile fixture files to pseudo-C",
		Action:      genAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("no-decompile", false, "emit memory accesses as MEMOF/MEMASSIGN macros"),
			cli.NewFlag("no-remove-labels", false, "keep labels no goto refers to"),
			cli.NewFlag("print-rtl", false, "log statements before generation"),
			cli.NewFlag("word-bits", 0, "machine word width for constant folding"),
			cli.NewFlag("warnings", false, "print code generation warnings to stderr"),
		},
	}

	expCmd := &cli.Command{
		Name:        "exp",
		Description: "parse, simplify and render expressions",
		Action:      expAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("no-decompile", false, "render memory accesses as MEMOF macros"),
			cli.NewFlag("word-bits", 0, "machine word width for constant folding"),
		},
	}

	app := &cli.Command{
		Name:        "decomp",
		Description: "decomp generates structured C-like code from intermediate code fixtures",
		Flags: []*cli.Flag{
			cli.NewFlag("debug", false, "trace the generator"),
			cli.NewFlag("verbosity,v", "", "logger verbosity topics"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			genCmd,
			expCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func settings(c *cli.Command) *conf.Settings {
	tlog.SetVerbosity(c.String("verbosity"))

	return &conf.Settings{
		NoDecompile:    c.Bool("no-decompile"),
		NoRemoveLabels: c.Bool("no-remove-labels"),
		PrintRTL:       c.Bool("print-rtl"),
		WordBits:       c.Int("word-bits"),
		Debug:          c.Bool("debug"),
	}
}

func genAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	s := settings(c)

	for _, a := range c.Args {
		res, err := decomp.DecompileFile(ctx, a, s)
		if err != nil {
			return errors.Wrap(err, "decompile %v", a)
		}

		fmt.Printf("%s", res.Text)

		if c.Bool("warnings") {
			for _, w := range res.Warnings {
				fmt.Fprintf(os.Stderr, "%v: %v: %v\n", w.Proc, w.Op, w.Msg)
			}
		}
	}

	return nil
}

func expAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	tlog.SetVerbosity(c.String("verbosity"))

	s := &conf.Settings{
		NoDecompile: c.Bool("no-decompile"),
		WordBits:    c.Int("word-bits"),
	}

	for _, a := range c.Args {
		r, err := decomp.RenderExp(ctx, a, s)
		if err != nil {
			return errors.Wrap(err, "exp %q", a)
		}

		fmt.Println(r)
	}

	return nil
}
