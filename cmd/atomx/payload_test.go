package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signadot/odata-atom/libdiff"
)

const feedDoc = `<feed xmlns="http://www.w3.org/2005/Atom"
    xmlns:m="http://docs.oasis-open.org/odata/ns/metadata"
    xmlns:d="http://docs.oasis-open.org/odata/ns/data">
  <id>http://svc/People</id>
  <m:count>1</m:count>
  <entry>
    <id>http://svc/People(1)</id>
    <link rel="edit" href="http://svc/People(1)"/>
    <content type="application/xml">
      <m:properties>
        <d:Name>Ann</d:Name>
        <d:Age m:type="Edm.Int32">41</d:Age>
      </m:properties>
    </content>
  </entry>
  <link rel="next" href="http://svc/People?$skiptoken=1"/>
</feed>`

func TestPayloadRoundTrip(t *testing.T) {
	cfg := &MainConfig{ctx: context.Background(), Feed: true}
	opts, err := cfg.codecOpts()
	if err != nil {
		t.Fatal(err)
	}
	p, err := readPayload(cfg.ctx, strings.NewReader(feedDoc), true, opts)
	if err != nil {
		t.Fatal(err)
	}
	buf := bytes.NewBuffer(nil)
	if err := p.write(buf, opts); err != nil {
		t.Fatal(err)
	}
	again, err := readPayload(cfg.ctx, buf, true, opts)
	if err != nil {
		t.Fatalf("reading %s: %v", buf.String(), err)
	}
	if hunks := libdiff.Lines(p.String(), again.String()); hunks != nil {
		out := bytes.NewBuffer(nil)
		libdiff.Format(out, hunks, -1, false)
		t.Errorf("round trip differs:\n%s", out.String())
	}
	for _, s := range []string{"count: 1", `Name Edm.String: "Ann"`, "next: http://svc/People?$skiptoken=1"} {
		if !strings.Contains(p.String(), s) {
			t.Errorf("missing %q in\n%s", s, p.String())
		}
	}
}

func TestCodecOpts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "atom.yaml")
	if err := os.WriteFile(path, []byte("readingResponse: true\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := &MainConfig{ctx: context.Background(), Config: path, Request: true}
	opts, err := cfg.codecOpts()
	if err != nil {
		t.Fatal(err)
	}
	// the request flag wins over the file, so the next link is not read
	p, err := readPayload(cfg.ctx, strings.NewReader(feedDoc), true, opts)
	if err != nil {
		t.Fatal(err)
	}
	if p.feed.NextPageLink != "" {
		t.Errorf("next link read in a request: %q", p.feed.NextPageLink)
	}

	cfg = &MainConfig{ctx: context.Background(), Annotations: "bad..pattern"}
	if _, err := cfg.codecOpts(); err == nil {
		t.Error("expected an error for a bad annotation pattern")
	}
}

func TestReadPayloadContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := readPayload(ctx, strings.NewReader(feedDoc), true, nil); err != context.Canceled {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
