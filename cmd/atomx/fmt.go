package main

import (
	"io"

	"github.com/signadot/odata-atom/stream"

	"github.com/scott-cotton/cli"
)

func format(cfg *FmtConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Fmt.Parse(cc, args)
	if err != nil {
		return err
	}
	opts, err := cfg.codecOpts()
	if err != nil {
		return err
	}
	if cfg.Indent {
		opts = append(opts, stream.WithIndent(true))
	}
	return cfg.eachPayload(cc, args, "", func(_ string, p *payload) error {
		if err := p.write(cc.Out, opts); err != nil {
			return err
		}
		_, err := io.WriteString(cc.Out, "\n")
		return err
	})
}
