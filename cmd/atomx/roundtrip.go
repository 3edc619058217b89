package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/signadot/odata-atom/libdiff"

	"github.com/scott-cotton/cli"
)

func roundTrip(cfg *RoundTripConfig, cc *cli.Context, args []string) error {
	args, err := cfg.RoundTrip.Parse(cc, args)
	if err != nil {
		return err
	}
	opts, err := cfg.codecOpts()
	if err != nil {
		return err
	}
	differs := 0
	err = cfg.eachPayload(cc, args, "", func(file string, p *payload) error {
		buf := bytes.NewBuffer(nil)
		if err := p.write(buf, opts); err != nil {
			return fmt.Errorf("error writing: %w", err)
		}
		if cfg.Show {
			if _, err := cc.Out.Write(append(buf.Bytes(), '\n')); err != nil {
				return err
			}
		}
		again, err := readPayload(cfg.ctx, bytes.NewReader(buf.Bytes()), cfg.Feed, opts)
		if err != nil {
			return fmt.Errorf("error reading written payload: %w", err)
		}
		hunks := libdiff.Lines(p.String(), again.String())
		if hunks == nil {
			theLog.Info("round trip ok", "file", file)
			return nil
		}
		differs++
		theLog.Warn("round trip differs", "file", file, "lines", libdiff.Changed(hunks))
		if _, err := io.WriteString(cc.Out, "--- "+file+"\n"); err != nil {
			return err
		}
		return libdiff.Format(cc.Out, hunks, cfg.Context, cfg.useColor(cc.Out))
	})
	if err != nil {
		return err
	}
	if differs > 0 {
		return cli.ExitCodeErr(1)
	}
	return nil
}
