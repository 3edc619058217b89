package main

import (
	"fmt"

	"github.com/signadot/odata-atom/libdiff"

	"github.com/scott-cotton/cli"
)

func diff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		cfg.Diff.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: diff requires 2 args, got %v", cli.ErrUsage, args)
	}
	opts, err := cfg.codecOpts()
	if err != nil {
		return err
	}
	a, err := cfg.loadPayload(cc, args[0], opts)
	if err != nil {
		return err
	}
	b, err := cfg.loadPayload(cc, args[1], opts)
	if err != nil {
		return err
	}
	hunks := libdiff.Lines(a.String(), b.String())
	if hunks == nil {
		return nil
	}
	if cfg.Reverse {
		hunks = libdiff.Reverse(hunks)
	}
	if err := libdiff.Format(cc.Out, hunks, cfg.Context, cfg.useColor(cc.Out)); err != nil {
		return err
	}
	return cli.ExitCodeErr(1)
}
