package stream

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/signadot/odata-atom/debug"
	"github.com/signadot/odata-atom/ir"
	"github.com/signadot/odata-atom/schema"
	"github.com/signadot/odata-atom/token"
	"github.com/signadot/odata-atom/vocab"

	xw "github.com/shabbyrobe/xmlwriter"
)

type scopeKind int

const (
	scopeFeed scopeKind = iota
	scopeEntry
	scopeLink
)

func (k scopeKind) String() string {
	switch k {
	case scopeFeed:
		return "feed"
	case scopeEntry:
		return "entry"
	default:
		return "navigation link"
	}
}

// wscope is one open feed, entry or navigation link.
type wscope struct {
	kind    scopeKind
	t       *schema.Type
	entry   *ir.Entry
	feed    *ir.Feed
	link    *ir.NavigationLink
	nested  bool
	written elemSet

	// navigation link: what m:inline holds so far
	inline   bool
	expanded ir.Expansion
	coll     *bool

	// entry: association links of the navigation links written
	assoc []ir.AssociationLink

	leave func()
}

// Writer emits one entry or feed document. Feeds, entries and navigation
// links are opened with the Start methods and closed with End, in document
// order; the Writer decides where each part of an entry goes.
type Writer struct {
	out        *xw.Writer
	opts       *settings
	log        *slog.Logger
	depth      depthGuard
	expansions depthGuard
	stack      []*wscope

	started bool
	done    bool
	err     error
}

func NewWriter(w io.Writer, opts ...Option) *Writer {
	s := newSettings(opts)
	var xo []xw.Option
	if s.indent {
		xo = append(xo, xw.WithIndent())
	}
	return &Writer{
		out:        xw.Open(w, xo...),
		opts:       s,
		log:        s.log,
		depth:      depthGuard{max: s.maxDepth},
		expansions: depthGuard{max: s.maxDepth},
	}
}

// WriteEntry writes a complete entry document to w.
func WriteEntry(w io.Writer, e *ir.Entry, opts ...Option) error {
	ew := NewWriter(w, opts...)
	if err := ew.WriteEntry(e); err != nil {
		return err
	}
	return ew.Close()
}

// WriteFeed writes a complete feed document to w.
func WriteFeed(w io.Writer, f *ir.Feed, opts ...Option) error {
	fw := NewWriter(w, opts...)
	if err := fw.WriteFeed(f); err != nil {
		return err
	}
	return fw.Close()
}

func (w *Writer) errf(kind error, format string, args ...any) error {
	err := newError(kind, token.Pos{}, "", nil, format, args...)
	if kind == ErrWriterState {
		return err
	}
	w.err = err
	return err
}

func (w *Writer) ioErr(err error) error {
	if err == nil {
		return nil
	}
	w.err = fmt.Errorf("stream: writing: %w", err)
	return w.err
}

func (w *Writer) top() *wscope {
	if n := len(w.stack); n > 0 {
		return w.stack[n-1]
	}
	return nil
}

func (w *Writer) check() error {
	if w.err != nil {
		return w.err
	}
	if w.done {
		return w.errf(ErrWriterState, "document already complete")
	}
	return nil
}

func (w *Writer) rootAttrs() []xw.Attr {
	attrs := []xw.Attr{
		{Name: "xmlns", Value: vocab.AtomNamespace},
		{Prefix: "xmlns", Name: vocab.MetadataPrefix, Value: vocab.MetadataNamespace},
		{Prefix: "xmlns", Name: vocab.DataPrefix, Value: vocab.DataNamespace},
	}
	if w.opts.baseURI != "" {
		attrs = append(attrs, xw.Attr{Prefix: "xml", Name: vocab.AttrBase, Value: w.opts.baseURI})
	}
	return attrs
}

// start opens an element. The document element also declares the
// namespaces.
func (w *Writer) start(prefix, name string, attrs ...xw.Attr) error {
	if !w.started {
		w.started = true
		w.log.Debug("writing document", "root", name)
		if err := w.out.Start(xw.Doc{}); err != nil {
			return w.ioErr(err)
		}
		attrs = append(w.rootAttrs(), attrs...)
	}
	if debug.Write() {
		debug.Logf("write <%s:%s> depth=%d\n", prefix, name, len(w.stack))
	}
	return w.ioErr(w.out.Start(xw.Elem{Prefix: prefix, Name: name, Attrs: attrs}))
}

func (w *Writer) end() error {
	return w.ioErr(w.out.EndElem())
}

// leaf writes a complete element with optional text.
func (w *Writer) leaf(prefix, name, text string, attrs ...xw.Attr) error {
	e := xw.Elem{Prefix: prefix, Name: name, Attrs: attrs}
	if text != "" {
		e.Content = []xw.Writable{xw.Text(text)}
	}
	return w.ioErr(w.out.Write(e))
}

func attr(name, value string) xw.Attr {
	return xw.Attr{Name: name, Value: value}
}

func mattr(name, value string) xw.Attr {
	return xw.Attr{Prefix: vocab.MetadataPrefix, Name: name, Value: value}
}

func (w *Writer) link(rel, href string, attrs ...xw.Attr) error {
	return w.leaf("", vocab.ElemLink, "", append([]xw.Attr{attr(vocab.AttrRel, rel), attr(vocab.AttrHref, href)}, attrs...)...)
}

func (w *Writer) enter() (func(), error) {
	leave, ok := w.depth.enter()
	if !ok {
		return nil, w.errf(ErrRecursionLimit, "nesting deeper than %d", w.depth.max)
	}
	return leave, nil
}

func (w *Writer) enterExpansion() (func(), error) {
	leave, ok := w.expansions.enter()
	if !ok {
		return nil, w.errf(ErrRecursionLimit, "expansions nested deeper than %d", w.expansions.max)
	}
	return leave, nil
}

// lookupType returns the type called name, or expected when name is
// empty or unknown without a model.
func (w *Writer) lookupType(name string, expected *schema.Type) (*schema.Type, error) {
	if name == "" || (expected != nil && expected.Name == name) {
		return expected, nil
	}
	t, ok := w.opts.model.Lookup(name)
	if !ok {
		if w.opts.model != nil {
			return nil, w.errf(ErrInvalidReference, "unknown type %q", name)
		}
		return expected, nil
	}
	if !expected.IsAssignableFrom(t) {
		return nil, w.errf(ErrTypeConversion, "%s where %s is expected", t.Name, expected.Name)
	}
	return t, nil
}

func (w *Writer) rootType() (*schema.Type, error) {
	if w.opts.entityType == "" {
		return nil, nil
	}
	t, ok := w.opts.model.Lookup(w.opts.entityType)
	if !ok {
		return nil, w.errf(ErrInvalidReference, "unknown entity type %q", w.opts.entityType)
	}
	return t, nil
}

// openInline starts the m:inline of the navigation link sc for an
// expansion of kind x.
func (w *Writer) openInline(sc *wscope, x ir.Expansion) error {
	l := sc.link
	switch {
	case sc.expanded == ir.ExpandedEntry || sc.expanded == ir.ExpandedFeed:
		return w.errf(ErrDuplicateElement, "second expansion of navigation link %q", l.Name)
	case sc.expanded == ir.EntityReferences && x != ir.EntityReferences:
		return w.errf(ErrDuplicateElement, "expansion after entity references in navigation link %q", l.Name)
	}
	if sc.coll != nil {
		if (x == ir.ExpandedEntry && *sc.coll) || (x == ir.ExpandedFeed && !*sc.coll) {
			return w.errf(ErrProtocolViolation, "navigation link %q is expanded with a %s", l.Name, x)
		}
	}
	sc.expanded = x
	if sc.inline {
		return nil
	}
	sc.inline = true
	return w.start(vocab.MetadataPrefix, vocab.ElemInline)
}

// StartFeed opens a feed, either as the document or as the expansion of
// the open navigation link. The feed's id, count and annotations are
// written here; its next and delta links are written by End.
func (w *Writer) StartFeed(f *ir.Feed) error {
	if err := w.check(); err != nil {
		return err
	}
	sc := &wscope{kind: scopeFeed, feed: f}
	switch parent := w.top(); {
	case parent == nil:
		t, err := w.rootType()
		if err != nil {
			return err
		}
		sc.t = t
	case parent.kind == scopeLink:
		if err := w.openInline(parent, ir.ExpandedFeed); err != nil {
			return err
		}
		leave, err := w.enterExpansion()
		if err != nil {
			return err
		}
		sc.t, sc.nested, sc.leave = parent.t, true, leave
	default:
		return w.errf(ErrWriterState, "feed inside a %s", parent.kind)
	}
	if err := w.start("", vocab.ElemFeed); err != nil {
		return err
	}
	w.stack = append(w.stack, sc)
	if f.ID != "" {
		if err := w.leaf("", vocab.ElemID, f.ID); err != nil {
			return err
		}
		sc.written.add(elemID)
	}
	if f.Count != nil {
		if err := w.leaf(vocab.MetadataPrefix, vocab.ElemCount, fmt.Sprint(*f.Count)); err != nil {
			return err
		}
		sc.written.add(elemCount)
	}
	return w.writeAnnotations(f.Annotations)
}

// StartEntry opens an entry: the document, an entry of the open feed or
// the expansion of the open navigation link. Identity, type and the self,
// edit and edit-media links are written here when known; End writes
// whatever was filled in later.
func (w *Writer) StartEntry(e *ir.Entry) error {
	if err := w.check(); err != nil {
		return err
	}
	if e.Transient && e.ID != "" {
		return w.errf(ErrProtocolViolation, "transient entry with id %q", e.ID)
	}
	sc := &wscope{kind: scopeEntry, entry: e}
	var expected *schema.Type
	switch parent := w.top(); {
	case parent == nil:
		t, err := w.rootType()
		if err != nil {
			return err
		}
		expected = t
	case parent.kind == scopeFeed:
		expected = parent.t
	case parent.kind == scopeLink:
		if err := w.openInline(parent, ir.ExpandedEntry); err != nil {
			return err
		}
		leave, err := w.enterExpansion()
		if err != nil {
			return err
		}
		expected, sc.nested, sc.leave = parent.t, true, leave
	default:
		return w.errf(ErrWriterState, "entry inside a %s", parent.kind)
	}
	t, err := w.lookupType(e.TypeName, expected)
	if err != nil {
		return err
	}
	sc.t = t
	var attrs []xw.Attr
	if e.ETag != "" {
		attrs = append(attrs, mattr(vocab.AttrETag, e.ETag))
	}
	if err := w.start("", vocab.ElemEntry, attrs...); err != nil {
		return err
	}
	w.stack = append(w.stack, sc)
	return w.writeEntryHeader(sc)
}

// StartNavigationLink opens a navigation link of the open entry. Its
// expansion follows as StartEntry, StartFeed or WriteEntityReference
// calls.
func (w *Writer) StartNavigationLink(l *ir.NavigationLink) error {
	if err := w.check(); err != nil {
		return err
	}
	parent := w.top()
	if parent == nil || parent.kind != scopeEntry {
		return w.errf(ErrWriterState, "navigation link outside an entry")
	}
	sc := &wscope{kind: scopeLink, link: l}
	coll := l.IsCollection
	if parent.t != nil {
		decl := parent.t.NavigationProperty(l.Name)
		switch {
		case decl != nil:
			dc := decl.IsCollection()
			if coll != nil && *coll != dc {
				return w.errf(ErrProtocolViolation, "navigation link %q cardinality differs from its declaration", l.Name)
			}
			coll = &dc
			sc.t, _ = w.opts.model.Lookup(decl.TargetType())
		case w.opts.model != nil && !parent.t.IsOpen():
			return w.errf(ErrInvalidReference, "%s has no navigation property %q", parent.t.Name, l.Name)
		}
	}
	sc.coll = coll
	if l.AssociationURL != "" {
		parent.assoc = append(parent.assoc, ir.AssociationLink{Name: l.Name, URL: l.AssociationURL})
	}
	attrs := []xw.Attr{
		attr(vocab.AttrRel, vocab.RelNavigationPrefix+l.Name),
		attr(vocab.AttrType, vocab.LinkType(coll)),
		attr(vocab.AttrTitle, l.Name),
	}
	if l.URL != "" {
		attrs = append(attrs, attr(vocab.AttrHref, l.URL))
	}
	if err := w.start("", vocab.ElemLink, attrs...); err != nil {
		return err
	}
	w.stack = append(w.stack, sc)
	return nil
}

// WriteEntityReference writes an m:ref into the open navigation link.
func (w *Writer) WriteEntityReference(id string) error {
	if err := w.check(); err != nil {
		return err
	}
	sc := w.top()
	if sc == nil || sc.kind != scopeLink {
		return w.errf(ErrWriterState, "entity reference outside a navigation link")
	}
	if err := w.openInline(sc, ir.EntityReferences); err != nil {
		return err
	}
	return w.leaf(vocab.MetadataPrefix, vocab.ElemRef, "", attr(vocab.AttrID, id))
}

// End closes the innermost open feed, entry or navigation link. Closing
// the document element completes the document.
func (w *Writer) End() error {
	if err := w.check(); err != nil {
		return err
	}
	sc := w.top()
	if sc == nil {
		return w.errf(ErrWriterState, "nothing to end")
	}
	var err error
	switch sc.kind {
	case scopeEntry:
		err = w.endEntry(sc)
	case scopeFeed:
		err = w.endFeed(sc)
	case scopeLink:
		err = w.endLink(sc)
	}
	if err != nil {
		return err
	}
	if sc.leave != nil {
		sc.leave()
	}
	w.stack = w.stack[:len(w.stack)-1]
	if len(w.stack) == 0 {
		w.done = true
		w.log.Debug("document written")
		return w.ioErr(w.out.EndAllFlush())
	}
	return nil
}

// Close checks that the document is complete and flushes it.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	if len(w.stack) != 0 {
		return w.errf(ErrWriterState, "%d elements still open", len(w.stack))
	}
	return w.Flush()
}

func (w *Writer) Flush() error {
	return w.ioErr(w.out.Flush())
}

// WriteEntry writes e with its navigation links and their expansions.
func (w *Writer) WriteEntry(e *ir.Entry) error {
	if err := w.StartEntry(e); err != nil {
		return err
	}
	for _, l := range e.NavigationLinks {
		if err := w.writeNavigationLink(l); err != nil {
			return err
		}
	}
	return w.End()
}

// WriteFeed writes f with all its entries.
func (w *Writer) WriteFeed(f *ir.Feed) error {
	if err := w.StartFeed(f); err != nil {
		return err
	}
	for _, e := range f.Entries {
		if err := w.WriteEntry(e); err != nil {
			return err
		}
	}
	return w.End()
}

func (w *Writer) writeNavigationLink(l *ir.NavigationLink) error {
	if err := w.StartNavigationLink(l); err != nil {
		return err
	}
	var err error
	switch l.Expansion {
	case ir.ExpandedEntry:
		if l.Entry != nil {
			err = w.WriteEntry(l.Entry)
		}
	case ir.ExpandedFeed:
		if l.Feed != nil {
			err = w.WriteFeed(l.Feed)
		}
	case ir.EntityReferences:
		for _, id := range l.References {
			if err = w.WriteEntityReference(id); err != nil {
				break
			}
		}
	}
	if err != nil {
		return err
	}
	return w.End()
}

func (w *Writer) endLink(sc *wscope) error {
	switch {
	case sc.inline:
		if err := w.end(); err != nil {
			return err
		}
	case sc.link.Expansion != ir.Deferred:
		if err := w.leaf(vocab.MetadataPrefix, vocab.ElemInline, ""); err != nil {
			return err
		}
	}
	return w.end()
}

func (w *Writer) endFeed(sc *wscope) error {
	f := sc.feed
	if f.NextPageLink != "" && w.opts.response {
		if err := w.link(vocab.RelNext, f.NextPageLink); err != nil {
			return err
		}
		sc.written.add(elemNextLink)
	}
	if f.DeltaLink != "" {
		if sc.nested {
			return w.errf(ErrProtocolViolation, "delta link in an expanded feed")
		}
		if w.opts.response {
			if err := w.link(vocab.RelDelta, f.DeltaLink); err != nil {
				return err
			}
			sc.written.add(elemDeltaLink)
		}
	}
	if err := w.writeLinks(f.Links); err != nil {
		return err
	}
	return w.end()
}
