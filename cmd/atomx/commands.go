package main

import (
	"context"

	"github.com/scott-cotton/cli"
)

func MainCommand(ctx context.Context) *cli.Command {
	cfg := &MainConfig{ctx: ctx}
	sOpts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts := append(sOpts, &cli.Opt{
		Name:        "o",
		Description: "output file (default stdout)",
		Type:        cli.NamedFuncOpt(cfg.outOpt, "(filepath)"),
	})

	return cli.NewCommandAt(&cfg.Main, "atomx").
		WithSynopsis("atomx [opts] command [opts]").
		WithDescription("atomx reads and writes OData Atom entries and feeds.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return atomMain(cfg, cc, args)
		}).
		WithSubs(
			ReadCommand(cfg),
			FmtCommand(cfg),
			RoundTripCommand(cfg),
			DiffCommand(cfg))
}

func ReadCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ReadConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Read, "read").
		WithAliases("r").
		WithSynopsis("read [opts] [files]").
		WithDescription("read payloads and show what was decoded").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return read(cfg, cc, args)
		})
}

func FmtCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &FmtConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Fmt, "fmt").
		WithSynopsis("fmt [-i] [files]").
		WithDescription("read payloads and write them back out").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return format(cfg, cc, args)
		})
}

func RoundTripCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &RoundTripConfig{MainConfig: mainCfg, Context: 3}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.RoundTrip, "roundtrip").
		WithAliases("rt").
		WithSynopsis("roundtrip [opts] [files]").
		WithDescription(roundTripDescription).
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return roundTrip(cfg, cc, args)
		})
}

const roundTripDescription = `roundtrip reads each payload, writes it and reads the result.

The two readings are rendered as text and compared. Differences are shown as
a line diff and the exit code is 1. Type names the writer leaves implicit are
not compared.`

func DiffCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DiffConfig{MainConfig: mainCfg, Context: 3}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Diff, "diff").
		WithAliases("d").
		WithSynopsis("diff [opts] a b").
		WithDescription("diff what two payloads decode to").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return diff(cfg, cc, args)
		})
}
