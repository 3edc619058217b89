package main

import (
	"github.com/signadot/odata-atom/encode"

	"github.com/scott-cotton/cli"
)

func read(cfg *ReadConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Read.Parse(cc, args)
	if err != nil {
		return err
	}
	encOpts := append(cfg.encOpts(cc.Out), encode.EncodeWireTypes(cfg.WireTypes))
	return cfg.eachPayload(cc, args, "---\n", func(_ string, p *payload) error {
		return p.encode(cc.Out, encOpts...)
	})
}
