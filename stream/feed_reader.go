package stream

import (
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/signadot/odata-atom/debug"
	"github.com/signadot/odata-atom/ir"
	"github.com/signadot/odata-atom/schema"
	"github.com/signadot/odata-atom/token"
	"github.com/signadot/odata-atom/vocab"
)

// FeedReader hands out the entries of a feed one at a time. It cannot be
// restarted.
type FeedReader struct {
	er     *entryReader
	st     *readState
	t      *schema.Type
	nested bool
	feed   *ir.Feed
	seen   elemSet
	n      int
	done   bool
	err    error

	// finish runs once the feed end tag is consumed.
	finish func() error
}

// newFeedReader starts reading the atom:feed under the cursor, up to its
// first entry.
func newFeedReader(er *entryReader, t *schema.Type, nested bool) (*FeedReader, error) {
	st := er.st
	fr := &FeedReader{er: er, st: st, t: t, nested: nested, feed: &ir.Feed{}}
	st.c.AssertOn(token.KindStart)
	if debug.Read() {
		debug.Logf("read feed at %s nested=%v\n", st.c.Pos(), nested)
	}
	if err := st.fail(st.c.ReadStart(), "reading feed"); err != nil {
		return nil, err
	}
	if err := fr.advance(); err != nil {
		return nil, err
	}
	return fr, nil
}

// Feed returns the feed read so far. Entries are added only by Collect;
// count, next and delta links after the last entry are known once Next has
// returned io.EOF.
func (fr *FeedReader) Feed() *ir.Feed {
	return fr.feed
}

// Next returns the next entry, or io.EOF after the last one.
func (fr *FeedReader) Next() (*ir.Entry, error) {
	if fr.err != nil {
		return nil, fr.err
	}
	if fr.done {
		return nil, io.EOF
	}
	e, err := fr.next()
	if err != nil && err != io.EOF {
		fr.err = err
	}
	return e, err
}

func (fr *FeedReader) next() (*ir.Entry, error) {
	st := fr.st
	if st.c.Kind() == token.KindEnd {
		fr.done = true
		if err := st.read(); err != nil {
			return nil, err
		}
		if fr.finish != nil {
			if err := fr.finish(); err != nil {
				return nil, err
			}
		}
		return nil, io.EOF
	}
	pop := st.pushIndex(fr.n)
	e, err := fr.er.readEntry(fr.t)
	pop()
	if err != nil {
		return nil, err
	}
	fr.n++
	if err := fr.advance(); err != nil {
		return nil, err
	}
	return e, nil
}

// Entries ranges over the remaining entries. Iteration stops after the
// first error.
func (fr *FeedReader) Entries() iter.Seq2[*ir.Entry, error] {
	return func(yield func(*ir.Entry, error) bool) {
		for {
			e, err := fr.Next()
			if err == io.EOF {
				return
			}
			if !yield(e, err) || err != nil {
				return
			}
		}
	}
}

// Collect reads the remaining entries into the feed and returns it.
func (fr *FeedReader) Collect() (*ir.Feed, error) {
	for {
		e, err := fr.Next()
		if err == io.EOF {
			return fr.feed, nil
		}
		if err != nil {
			return nil, err
		}
		fr.feed.Entries = append(fr.feed.Entries, e)
	}
}

// advance reads feed children until the cursor is on an atom:entry or on
// the feed end tag.
func (fr *FeedReader) advance() error {
	st := fr.st
	c := st.c
	for {
		cur := c.Current()
		switch cur.Kind {
		case token.KindEnd:
			return nil
		case token.KindStart:
			if c.IsStart(vocab.AtomNamespace, vocab.ElemEntry) {
				return nil
			}
			if err := fr.readChild(); err != nil {
				return err
			}
			continue
		case token.KindEOF:
			return st.errf(ErrMalformedStructure, "document ends inside a feed")
		}
		if err := st.read(); err != nil {
			return err
		}
	}
}

func (fr *FeedReader) readChild() error {
	st := fr.st
	c := st.c
	f := fr.feed
	switch {
	case c.IsStart(vocab.AtomNamespace, vocab.ElemID):
		if fr.seen.has(elemID) {
			return st.errf(ErrDuplicateElement, "second atom:id in feed")
		}
		fr.seen.add(elemID)
		id, err := fr.er.readIDText()
		if err != nil {
			return err
		}
		f.ID = id
		return nil
	case c.IsStart(vocab.MetadataNamespace, vocab.ElemCount):
		if fr.seen.has(elemCount) {
			return st.errf(ErrDuplicateElement, "second m:count in feed")
		}
		fr.seen.add(elemCount)
		text, err := c.ReadElementText()
		if err != nil {
			return st.fail(err, "reading m:count")
		}
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return newError(ErrTypeConversion, c.Pos(), st.pathString(), err, "m:count %q", text)
		}
		f.Count = &n
		return nil
	case c.IsStart(vocab.AtomNamespace, vocab.ElemLink):
		return fr.readLink()
	case c.IsStart(vocab.MetadataNamespace, vocab.ElemAnnotation):
		a, keep, err := fr.er.readAnnotation()
		if err != nil {
			return err
		}
		if keep {
			f.Annotations = append(f.Annotations, a)
		}
		return nil
	}
	return st.skipUnknown("feed")
}

func (fr *FeedReader) readLink() error {
	st := fr.st
	c := st.c
	rel, _ := c.Attr("", vocab.AttrRel)
	href := ""
	if raw, ok := c.Attr("", vocab.AttrHref); ok {
		var err error
		if href, err = st.resolveURL(raw, false); err != nil {
			return err
		}
	}
	switch {
	case vocab.IsRelation(rel, vocab.RelNext):
		if !st.opts.response {
			return st.skip()
		}
		if fr.seen.has(elemNextLink) {
			return st.errf(ErrDuplicateElement, "second next link in feed")
		}
		fr.seen.add(elemNextLink)
		fr.feed.NextPageLink = href
		return st.skip()
	case rel == vocab.RelDelta:
		if fr.nested {
			return st.errf(ErrProtocolViolation, "delta link in an expanded feed")
		}
		if !st.opts.response {
			return st.skip()
		}
		if fr.seen.has(elemDeltaLink) {
			return st.errf(ErrDuplicateElement, "second delta link in feed")
		}
		fr.seen.add(elemDeltaLink)
		fr.feed.DeltaLink = href
		return st.skip()
	}
	l, keep, err := fr.er.readOtherLink(rel, href)
	if err != nil || !keep {
		return err
	}
	fr.feed.Links = append(fr.feed.Links, l)
	return nil
}
