package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/signadot/odata-atom/debug"
	"github.com/signadot/odata-atom/ir"
	"github.com/signadot/odata-atom/schema"
	"github.com/signadot/odata-atom/token"
	"github.com/signadot/odata-atom/uri"
	"github.com/signadot/odata-atom/vocab"
)

// readState is what the codecs reading one document share.
type readState struct {
	c     *token.Cursor
	opts  *settings
	log   *slog.Logger
	depth depthGuard
	// expanded entries and feeds
	expansions depthGuard
	path       []*ir.Path
}

func newReadState(r io.Reader, opts *settings) *readState {
	return &readState{
		c:          token.NewCursor(r, token.WithBase(opts.baseURI)),
		opts:       opts,
		log:        opts.log,
		depth:      depthGuard{max: opts.maxDepth},
		expansions: depthGuard{max: opts.maxDepth},
	}
}

func (st *readState) pathString() string {
	if len(st.path) == 0 {
		return ""
	}
	return ir.Join(st.path...).String()
}

func (st *readState) pushField(name string) func() {
	st.path = append(st.path, ir.FieldPath(name))
	return st.popPath
}

func (st *readState) pushIndex(i int) func() {
	st.path = append(st.path, ir.IndexPath(i))
	return st.popPath
}

func (st *readState) popPath() {
	st.path = st.path[:len(st.path)-1]
}

func (st *readState) errf(kind error, format string, args ...any) error {
	return newError(kind, st.c.Pos(), st.pathString(), nil, format, args...)
}

// fail turns an error from a lower layer into an *Error at the current
// position.
func (st *readState) fail(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	pos := st.c.Pos()
	var pe *token.PosErr
	if errors.As(err, &pe) {
		pos = pe.Pos
	}
	return newError(kindOf(err), pos, st.pathString(), err, format, args...)
}

// read advances the cursor, wrapping tokenizer errors.
func (st *readState) read() error {
	return st.fail(st.c.Read(), "reading")
}

func (st *readState) skip() error {
	return st.fail(st.c.Skip(), "skipping <%s>", st.c.Current().Name.Local)
}

func (st *readState) moveToContent() error {
	return st.fail(st.c.MoveToContent(), "reading")
}

// skipUnknown skips an element the codec does not interpret.
func (st *readState) skipUnknown(where string) error {
	cur := st.c.Current()
	st.log.Debug("skipping element", "in", where, "space", cur.Name.Space, "name", cur.Name.Local, "pos", cur.Pos.String())
	return st.skip()
}

// enter claims a value nesting level or fails with ErrRecursionLimit.
func (st *readState) enter() (func(), error) {
	leave, ok := st.depth.enter()
	if !ok {
		return nil, st.errf(ErrRecursionLimit, "nesting deeper than %d", st.depth.max)
	}
	return leave, nil
}

func (st *readState) enterExpansion() (func(), error) {
	leave, ok := st.expansions.enter()
	if !ok {
		return nil, st.errf(ErrRecursionLimit, "expansions nested deeper than %d", st.expansions.max)
	}
	return leave, nil
}

// resolveURL resolves ref against the base in scope at the current token.
// When absolute is set, a reference that cannot be made absolute fails.
func (st *readState) resolveURL(ref string, absolute bool) (string, error) {
	return st.resolveIn(st.c.Base(), ref, absolute)
}

func (st *readState) resolveIn(base, ref string, absolute bool) (string, error) {
	res, err := uri.Resolve(st.opts.urls, base, ref, absolute)
	if err != nil {
		return "", st.fail(err, "resolving %q", ref)
	}
	return res, nil
}

// entityType resolves the type of an entry given the expected type and
// the type name the payload carries.
func (st *readState) entityType(expected *schema.Type, typeName string) (*schema.Type, error) {
	if typeName == "" {
		return expected, nil
	}
	t, k, err := st.opts.resolver.Resolve(expected, typeName, func() (ir.Kind, error) {
		return ir.ComplexKind, nil
	})
	if err != nil {
		return nil, st.fail(err, "entry type %q", typeName)
	}
	if k != ir.ComplexKind {
		return nil, st.errf(ErrTypeConversion, "entry type %q is not structured", typeName)
	}
	return t, nil
}

// Reader reads one entry or feed document.
type Reader struct {
	st     *readState
	values *valueReader
	ents   *entryReader
	used   bool
}

func NewReader(r io.Reader, opts ...Option) *Reader {
	st := newReadState(r, newSettings(opts))
	values := &valueReader{st: st}
	return &Reader{
		st:     st,
		values: values,
		ents:   &entryReader{st: st, values: values},
	}
}

// start moves onto the document element and checks that it is atom:local.
func (r *Reader) start(local string) (*schema.Type, error) {
	if r.used {
		return nil, errors.New("stream: reader already used")
	}
	r.used = true
	st := r.st
	if err := st.read(); err != nil {
		return nil, err
	}
	if err := st.moveToContent(); err != nil {
		return nil, err
	}
	if !st.c.IsStart(vocab.AtomNamespace, local) {
		return nil, st.errf(ErrMalformedStructure, "expected <%s> in %s, found %s", local, vocab.AtomNamespace, st.c.Current())
	}
	st.depth.n, st.expansions.n = 0, 0
	if st.opts.entityType == "" {
		return nil, nil
	}
	t, ok := st.opts.model.Lookup(st.opts.entityType)
	if !ok {
		return nil, st.errf(ErrInvalidReference, "unknown entity type %q", st.opts.entityType)
	}
	return t, nil
}

// finish checks that nothing but ignorable markup follows the document
// element and that nesting is balanced.
func (r *Reader) finish() error {
	st := r.st
	if err := st.moveToContent(); err != nil {
		return err
	}
	if st.c.Kind() != token.KindEOF {
		return st.errf(ErrMalformedStructure, "unexpected %s after document element", st.c.Current())
	}
	if st.depth.n != 0 || st.expansions.n != 0 {
		return fmt.Errorf("stream: nesting depth %d/%d after read", st.depth.n, st.expansions.n)
	}
	return nil
}

// ReadEntry reads an atom:entry document.
func (r *Reader) ReadEntry() (*ir.Entry, error) {
	t, err := r.start(vocab.ElemEntry)
	if err != nil {
		return nil, err
	}
	e, err := r.ents.readEntry(t)
	if err != nil {
		return nil, err
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	if debug.Read() {
		debug.Logf("read entry %s\n", debug.JSON(map[string]any{
			"id":         e.ID,
			"type":       e.TypeName,
			"properties": len(e.Properties),
			"links":      len(e.NavigationLinks),
		}))
	}
	return e, nil
}

// ReadFeed reads the start of an atom:feed document and returns the reader
// for its entries.
func (r *Reader) ReadFeed() (*FeedReader, error) {
	t, err := r.start(vocab.ElemFeed)
	if err != nil {
		return nil, err
	}
	fr, err := newFeedReader(r.ents, t, false)
	if err != nil {
		return nil, err
	}
	fr.finish = r.finish
	return fr, nil
}

// ReadEntry reads an entry document from r.
func ReadEntry(r io.Reader, opts ...Option) (*ir.Entry, error) {
	return NewReader(r, opts...).ReadEntry()
}

// ReadFeed reads a feed document from r with all its entries.
func ReadFeed(r io.Reader, opts ...Option) (*ir.Feed, error) {
	fr, err := NewReader(r, opts...).ReadFeed()
	if err != nil {
		return nil, err
	}
	return fr.Collect()
}

// ReadEntryContext buffers r completely, then reads an entry from it.
func ReadEntryContext(ctx context.Context, r io.Reader, opts ...Option) (*ir.Entry, error) {
	d, err := readAll(ctx, r)
	if err != nil {
		return nil, err
	}
	return NewReader(bytes.NewReader(d), opts...).ReadEntry()
}

// ReadFeedContext buffers r completely, then reads a feed from it. ctx is
// checked between entries.
func ReadFeedContext(ctx context.Context, r io.Reader, opts ...Option) (*ir.Feed, error) {
	d, err := readAll(ctx, r)
	if err != nil {
		return nil, err
	}
	fr, err := NewReader(bytes.NewReader(d), opts...).ReadFeed()
	if err != nil {
		return nil, err
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e, err := fr.Next()
		if err == io.EOF {
			return fr.Feed(), nil
		}
		if err != nil {
			return nil, err
		}
		fr.feed.Entries = append(fr.feed.Entries, e)
	}
}

func readAll(ctx context.Context, r io.Reader) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return d, ctx.Err()
}
