package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/signadot/odata-atom/annotations"
	"github.com/signadot/odata-atom/config"
	"github.com/signadot/odata-atom/encode"
	"github.com/signadot/odata-atom/schema"
	"github.com/signadot/odata-atom/stream"

	"github.com/scott-cotton/cli"

	"github.com/mattn/go-isatty"
)

type MainConfig struct {
	Config      string `cli:"name=config desc='codec settings file (yaml)'"`
	Schema      string `cli:"name=schema desc='schema model file (yaml)'"`
	EntityType  string `cli:"name=type desc='entity type expected for top level entries'"`
	Feed        bool   `cli:"name=f aliases=feed desc='payloads are feeds rather than entries'"`
	Request     bool   `cli:"name=request desc='payloads are requests'"`
	Metadata    bool   `cli:"name=m aliases=metadata desc='keep uninterpreted links'"`
	Compat      bool   `cli:"name=compat desc='server compatibility mode'"`
	Base        string `cli:"name=base desc='base uri for relative links'"`
	Annotations string `cli:"name=annotations desc='include-annotations pattern'"`
	MaxDepth    int    `cli:"name=depth desc='maximum nesting depth'"`
	Color       bool   `cli:"name=color desc='output with color'"`
	Verbose     bool   `cli:"name=v desc='log debug messages'"`

	Out      string
	CloseOut func() error

	ctx  context.Context
	Main *cli.Command
}

// codecOpts builds reader and writer options from the config file, if
// any, then the command line flags.
func (cfg *MainConfig) codecOpts() ([]stream.Option, error) {
	var opts []stream.Option
	if cfg.Config != "" {
		c, err := config.Load(cfg.Config)
		if err != nil {
			return nil, err
		}
		if opts, err = c.Options(); err != nil {
			return nil, err
		}
	}
	if cfg.Schema != "" {
		m, err := schema.LoadModelFile(cfg.Schema)
		if err != nil {
			return nil, err
		}
		opts = append(opts, stream.WithModel(m))
	}
	if cfg.EntityType != "" {
		opts = append(opts, stream.WithEntityType(cfg.EntityType))
	}
	if cfg.Request {
		opts = append(opts, stream.WithResponse(false))
	}
	if cfg.Metadata {
		opts = append(opts, stream.WithMetadataReading(true))
	}
	if cfg.Compat {
		opts = append(opts, stream.WithServerCompatibility(true))
	}
	if cfg.Base != "" {
		opts = append(opts, stream.WithBaseURI(cfg.Base))
	}
	if cfg.Annotations != "" {
		p, err := annotations.ParsePattern(cfg.Annotations)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
		}
		opts = append(opts, stream.WithAnnotationFilter(p))
	}
	if cfg.MaxDepth > 0 {
		opts = append(opts, stream.WithMaxNestingDepth(cfg.MaxDepth))
	}
	return append(opts, stream.WithLogger(theLog)), nil
}

func (cfg *MainConfig) useColor(w io.Writer) bool {
	if cfg.Color {
		return true
	}
	for _, opt := range cfg.Main.Opts {
		if opt.Name == "color" && opt.Value != nil {
			return false
		}
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

func (cfg *MainConfig) encOpts(w io.Writer) []encode.EncodeOption {
	if cfg.useColor(w) {
		return []encode.EncodeOption{encode.EncodeColors(encode.NewColors())}
	}
	return nil
}

type ReadConfig struct {
	*MainConfig
	WireTypes bool `cli:"name=w aliases=wire desc='show wire type names'"`

	Read *cli.Command
}

type FmtConfig struct {
	*MainConfig
	Indent bool `cli:"name=i aliases=indent desc='indent the output'"`

	Fmt *cli.Command
}

type RoundTripConfig struct {
	*MainConfig
	Context int  `cli:"name=U desc='lines of context around differences'"`
	Show    bool `cli:"name=x desc='show the written xml'"`

	RoundTrip *cli.Command
}

type DiffConfig struct {
	*MainConfig
	Reverse bool `cli:"name=r desc='reverse the diff'"`
	Context int  `cli:"name=U desc='lines of context around differences'"`

	Diff *cli.Command
}
