package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/signadot/odata-atom/encode"
	"github.com/signadot/odata-atom/ir"
	"github.com/signadot/odata-atom/stream"

	"github.com/scott-cotton/cli"
)

// payload is a decoded entry or feed.
type payload struct {
	entry *ir.Entry
	feed  *ir.Feed
}

func readPayload(ctx context.Context, r io.Reader, feed bool, opts []stream.Option) (*payload, error) {
	if feed {
		f, err := stream.ReadFeedContext(ctx, r, opts...)
		if err != nil {
			return nil, err
		}
		return &payload{feed: f}, nil
	}
	e, err := stream.ReadEntryContext(ctx, r, opts...)
	if err != nil {
		return nil, err
	}
	return &payload{entry: e}, nil
}

func (p *payload) write(w io.Writer, opts []stream.Option) error {
	if p.feed != nil {
		return stream.WriteFeed(w, p.feed, opts...)
	}
	return stream.WriteEntry(w, p.entry, opts...)
}

func (p *payload) encode(w io.Writer, opts ...encode.EncodeOption) error {
	if p.feed != nil {
		return encode.EncodeFeed(p.feed, w, opts...)
	}
	return encode.EncodeEntry(p.entry, w, opts...)
}

func (p *payload) String() string {
	buf := bytes.NewBuffer(nil)
	if err := p.encode(buf); err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return buf.String()
}

// loadPayload reads the payload in path, "-" meaning the command input.
func (cfg *MainConfig) loadPayload(cc *cli.Context, path string, opts []stream.Option) (*payload, error) {
	var r io.Reader
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("could not open %q: %w", path, err)
		}
		defer f.Close()
		r = f
	} else {
		r = cc.In
	}
	theLog.Debug("reading", "path", path, "feed", cfg.Feed)
	p, err := readPayload(cfg.ctx, r, cfg.Feed, opts)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return p, nil
}

// eachPayload calls f with each payload named by files, or with the
// command input when there are none. sep is written between outputs.
func (cfg *MainConfig) eachPayload(cc *cli.Context, files []string, sep string, f func(string, *payload) error) error {
	opts, err := cfg.codecOpts()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		files = []string{"-"}
	}
	for i, file := range files {
		p, err := cfg.loadPayload(cc, file, opts)
		if err != nil {
			return err
		}
		if err := f(file, p); err != nil {
			return fmt.Errorf("error processing %s: %w", file, err)
		}
		if i < len(files)-1 && sep != "" {
			if _, err := io.WriteString(cc.Out, sep); err != nil {
				return err
			}
		}
	}
	return nil
}
