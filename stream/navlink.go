package stream

import (
	"github.com/signadot/odata-atom/ir"
	"github.com/signadot/odata-atom/schema"
	"github.com/signadot/odata-atom/token"
	"github.com/signadot/odata-atom/vocab"
)

// navState is where a navigation link stands between
// readNavigationLinkStart and finishNavigationLink.
type navState struct {
	// inInline is set while the cursor is inside m:inline, after an
	// expanded entry or feed the caller still has to read.
	inInline bool
}

func (er *entryReader) readNavigationLink(es *entryScope, name, href string) error {
	st := er.st
	c := st.c
	defer st.pushField(name)()
	link := &ir.NavigationLink{Name: name, URL: href}

	var decl *schema.NavigationProperty
	if es.t != nil {
		decl = es.t.NavigationProperty(name)
		if decl == nil && st.opts.model != nil && !es.t.IsOpen() {
			return st.errf(ErrInvalidReference, "%s has no navigation property %q", es.t.Name, name)
		}
	}
	if typ, _ := c.Attr("", vocab.AttrType); typ != "" {
		coll, isAtom := vocab.LinkCardinality(typ)
		if !isAtom {
			return st.errf(ErrMalformedStructure, "navigation link %q of type %q", name, typ)
		}
		link.IsCollection = coll
	}
	if decl != nil {
		declColl := decl.IsCollection()
		if link.IsCollection != nil && *link.IsCollection != declColl {
			return st.errf(ErrProtocolViolation, "navigation link %q cardinality differs from its declaration", name)
		}
		link.IsCollection = &declColl
	}

	ns, err := er.readNavigationLinkStart(link)
	if err != nil {
		return err
	}
	if err := er.checkExpansion(link); err != nil {
		return err
	}
	var target *schema.Type
	if decl != nil {
		target, _ = st.opts.model.Lookup(decl.TargetType())
	}
	switch link.Expansion {
	case ir.ExpandedEntry:
		link.Entry, err = er.readExpandedEntry(target)
	case ir.ExpandedFeed:
		link.Feed, err = er.readExpandedFeed(target)
	}
	if err != nil {
		return err
	}
	if err := er.finishNavigationLink(ns); err != nil {
		return err
	}
	if err := er.checkExpansion(link); err != nil {
		return err
	}
	es.e.NavigationLinks = append(es.e.NavigationLinks, link)
	return nil
}

func (er *entryReader) readExpandedEntry(t *schema.Type) (*ir.Entry, error) {
	leave, err := er.st.enterExpansion()
	if err != nil {
		return nil, err
	}
	defer leave()
	return er.readEntry(t)
}

func (er *entryReader) readExpandedFeed(t *schema.Type) (*ir.Feed, error) {
	leave, err := er.st.enterExpansion()
	if err != nil {
		return nil, err
	}
	defer leave()
	fr, err := newFeedReader(er, t, true)
	if err != nil {
		return nil, err
	}
	return fr.Collect()
}

// checkExpansion makes the cardinality of link agree with its expansion,
// inferring it when neither the payload nor a model gave it.
func (er *entryReader) checkExpansion(link *ir.NavigationLink) error {
	var want bool
	switch link.Expansion {
	case ir.ExpandedEntry:
		want = false
	case ir.ExpandedFeed:
		want = true
	case ir.EntityReferences:
		if link.IsCollection != nil && !*link.IsCollection && len(link.References) > 1 {
			return er.st.errf(ErrProtocolViolation, "%d references in single valued navigation link %q", len(link.References), link.Name)
		}
		return nil
	default:
		return nil
	}
	if link.IsCollection == nil {
		link.IsCollection = &want
		return nil
	}
	if *link.IsCollection != want {
		return er.st.errf(ErrProtocolViolation, "navigation link %q is expanded with a %s", link.Name, link.Expansion)
	}
	return nil
}

// readNavigationLinkStart reads the atom:link under the cursor up to its
// expansion and sets link.Expansion. For expanded entries and feeds the
// cursor is left on the atom:entry or atom:feed start tag; the caller reads
// it and then calls finishNavigationLink.
func (er *entryReader) readNavigationLinkStart(link *ir.NavigationLink) (*navState, error) {
	st := er.st
	c := st.c
	ns := &navState{}
	if err := st.fail(c.ReadStart(), "reading navigation link"); err != nil {
		return nil, err
	}
	for {
		cur := c.Current()
		switch cur.Kind {
		case token.KindEnd:
			link.Expansion = ir.Deferred
			return ns, nil
		case token.KindStart:
			if c.IsStart(vocab.MetadataNamespace, vocab.ElemInline) {
				return ns, er.readInlineStart(link, ns)
			}
			if err := st.skipUnknown("navigation link"); err != nil {
				return nil, err
			}
			continue
		case token.KindEOF:
			return nil, st.errf(ErrMalformedStructure, "document ends inside a navigation link")
		}
		if err := st.read(); err != nil {
			return nil, err
		}
	}
}

func (er *entryReader) readInlineStart(link *ir.NavigationLink, ns *navState) error {
	st := er.st
	c := st.c
	if err := st.fail(c.ReadStart(), "reading m:inline"); err != nil {
		return err
	}
	if err := st.moveToContent(); err != nil {
		return err
	}
	cur := c.Current()
	switch {
	case cur.Kind == token.KindEnd:
		link.Expansion = ir.EmptyInline
		return st.read()
	case c.IsStart(vocab.AtomNamespace, vocab.ElemEntry):
		link.Expansion = ir.ExpandedEntry
		ns.inInline = true
		return nil
	case c.IsStart(vocab.AtomNamespace, vocab.ElemFeed):
		link.Expansion = ir.ExpandedFeed
		ns.inInline = true
		return nil
	case c.IsStart(vocab.MetadataNamespace, vocab.ElemRef):
		link.Expansion = ir.EntityReferences
		return er.readReferences(link)
	case cur.Kind == token.KindStart:
		return st.errf(ErrMalformedStructure, "unknown element %s where an expansion was expected", cur)
	case cur.Kind == token.KindEOF:
		return st.errf(ErrMalformedStructure, "document ends inside m:inline")
	}
	return st.errf(ErrMalformedStructure, "text in m:inline")
}

// readReferences reads the m:ref elements of an m:inline and moves past
// its end tag.
func (er *entryReader) readReferences(link *ir.NavigationLink) error {
	st := er.st
	c := st.c
	for {
		if err := st.moveToContent(); err != nil {
			return err
		}
		cur := c.Current()
		switch {
		case cur.Kind == token.KindEnd:
			return st.read()
		case c.IsStart(vocab.MetadataNamespace, vocab.ElemRef):
			id, ok := c.Attr("", vocab.AttrID)
			if !ok || id == "" {
				return st.errf(ErrMissingAttribute, "m:ref without an id")
			}
			ref, err := st.resolveURL(id, false)
			if err != nil {
				return err
			}
			link.References = append(link.References, ref)
			if err := st.skip(); err != nil {
				return err
			}
		case c.IsStart(vocab.AtomNamespace, vocab.ElemEntry), c.IsStart(vocab.AtomNamespace, vocab.ElemFeed):
			return st.errf(ErrDuplicateElement, "second expansion in m:inline")
		case cur.Kind == token.KindStart:
			return st.errf(ErrMalformedStructure, "%s among entity references", cur)
		case cur.Kind == token.KindEOF:
			return st.errf(ErrMalformedStructure, "document ends inside m:inline")
		default:
			return st.errf(ErrMalformedStructure, "text among entity references")
		}
	}
}

// finishNavigationLink reads the rest of a navigation link after its
// expansion and moves past the link's end tag.
func (er *entryReader) finishNavigationLink(ns *navState) error {
	st := er.st
	c := st.c
	for ns.inInline {
		if err := st.moveToContent(); err != nil {
			return err
		}
		cur := c.Current()
		switch {
		case cur.Kind == token.KindEnd:
			ns.inInline = false
			if err := st.read(); err != nil {
				return err
			}
		case c.IsStart(vocab.AtomNamespace, vocab.ElemEntry), c.IsStart(vocab.AtomNamespace, vocab.ElemFeed),
			c.IsStart(vocab.MetadataNamespace, vocab.ElemRef):
			return st.errf(ErrDuplicateElement, "second expansion in m:inline")
		case cur.Kind == token.KindStart:
			return st.errf(ErrMalformedStructure, "%s after an expansion", cur)
		case cur.Kind == token.KindEOF:
			return st.errf(ErrMalformedStructure, "document ends inside m:inline")
		default:
			return st.errf(ErrMalformedStructure, "text after an expansion")
		}
	}
	for {
		cur := c.Current()
		switch cur.Kind {
		case token.KindEnd:
			return st.read()
		case token.KindStart:
			if c.IsStart(vocab.MetadataNamespace, vocab.ElemInline) {
				return st.errf(ErrDuplicateElement, "second m:inline in navigation link")
			}
			if err := st.skipUnknown("navigation link"); err != nil {
				return err
			}
			continue
		case token.KindEOF:
			return st.errf(ErrMalformedStructure, "document ends inside a navigation link")
		}
		if err := st.read(); err != nil {
			return err
		}
	}
}
