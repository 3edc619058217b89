package stream

import (
	"mime"
	"strconv"
	"strings"

	"github.com/signadot/odata-atom/debug"
	"github.com/signadot/odata-atom/ir"
	"github.com/signadot/odata-atom/schema"
	"github.com/signadot/odata-atom/token"
	"github.com/signadot/odata-atom/vocab"

	"golang.org/x/text/language"
)

type entryReader struct {
	st     *readState
	values *valueReader
}

// entryScope is the state of one entry being read.
type entryScope struct {
	e    *ir.Entry
	t    *schema.Type
	seen elemSet
	// the type category was found by peekTypeName
	peeked bool
	// properties came outside atom:content
	propsOutside bool
	dup          *duplicateChecker
	streams      map[string]*streamSeen
	assoc        map[string]bool
}

type streamSeen struct {
	i          int
	edit, read bool
	typ        string
}

// readEntry reads the atom:entry under the cursor and moves past its end
// tag.
func (er *entryReader) readEntry(expected *schema.Type) (*ir.Entry, error) {
	st := er.st
	c := st.c
	c.AssertOn(token.KindStart)
	if debug.Read() {
		debug.Logf("read entry at %s\n", c.Pos())
	}
	payloadType, err := er.peekTypeName()
	if err != nil {
		return nil, err
	}
	t, err := st.entityType(expected, payloadType)
	if err != nil {
		return nil, err
	}
	es := &entryScope{
		e:      &ir.Entry{TypeName: payloadType},
		t:      t,
		peeked: payloadType != "",
		dup:    newDuplicateChecker(),
	}
	if es.e.TypeName == "" {
		es.e.TypeName = typeName(t)
	}
	if etag, ok := c.Attr(vocab.MetadataNamespace, vocab.AttrETag); ok {
		es.e.ETag = etag
	}
	if err := st.fail(c.ReadStart(), "reading entry"); err != nil {
		return nil, err
	}
	for {
		cur := c.Current()
		switch cur.Kind {
		case token.KindEnd:
			if err := er.endEntry(es); err != nil {
				return nil, err
			}
			return es.e, st.read()
		case token.KindStart:
			if err := er.readEntryChild(es); err != nil {
				return nil, err
			}
			continue
		case token.KindEOF:
			return nil, st.errf(ErrMalformedStructure, "document ends inside an entry")
		}
		if err := st.read(); err != nil {
			return nil, err
		}
	}
}

func (er *entryReader) readEntryChild(es *entryScope) error {
	st := er.st
	c := st.c
	cur := c.Current()
	switch cur.Name.Space {
	case vocab.AtomNamespace:
		switch cur.Name.Local {
		case vocab.ElemID:
			return er.readID(es)
		case vocab.ElemContent:
			return er.readContent(es)
		case vocab.ElemLink:
			return er.readLink(es)
		case vocab.ElemCategory:
			return er.readCategory(es)
		}
	case vocab.MetadataNamespace:
		switch cur.Name.Local {
		case vocab.ElemProperties:
			es.propsOutside = true
			return er.readEntryProperties(es)
		case vocab.ElemAction, vocab.ElemFunction:
			op, err := er.readOperation()
			if err != nil {
				return err
			}
			es.e.Operations = append(es.e.Operations, op)
			return nil
		case vocab.ElemAnnotation:
			a, keep, err := er.readAnnotation()
			if err != nil {
				return err
			}
			if keep {
				es.e.Annotations = append(es.e.Annotations, a)
			}
			return nil
		}
	}
	return st.skipUnknown("entry")
}

// peekTypeName finds the type category of the entry under the cursor
// without consuming anything. The lookahead ends at the first type
// category or at the first element whose reading needs the type: atom:content,
// m:properties or a link carrying m:inline. A type category after that point
// is handled by readCategory.
func (er *entryReader) peekTypeName() (string, error) {
	st := er.st
	c := st.c
	stop := c.StartBuffering()
	defer stop()
	d := c.Current().Depth
	if err := st.read(); err != nil {
		return "", err
	}
	for {
		cur := c.Current()
		switch {
		case cur.Kind == token.KindStart && cur.Depth == d+1:
			switch {
			case c.IsStart(vocab.AtomNamespace, vocab.ElemCategory):
				if term, ok, err := er.typeCategory(); err != nil || ok {
					return term, err
				}
			case c.IsStart(vocab.AtomNamespace, vocab.ElemContent),
				c.IsStart(vocab.MetadataNamespace, vocab.ElemProperties):
				return "", nil
			case c.IsStart(vocab.AtomNamespace, vocab.ElemLink):
				inline, err := er.peekInline(d + 1)
				if err != nil || inline {
					return "", err
				}
				continue
			}
			if err := st.skip(); err != nil {
				return "", err
			}
			continue
		case cur.Kind == token.KindEnd && cur.Depth == d:
			return "", nil
		case cur.Kind == token.KindEOF:
			return "", st.errf(ErrMalformedStructure, "document ends inside an entry")
		}
		if err := st.read(); err != nil {
			return "", err
		}
	}
}

// peekInline reports whether the atom:link under the cursor, at depth d,
// has an m:inline child. If not, the cursor is left past the link.
func (er *entryReader) peekInline(d int) (bool, error) {
	st := er.st
	c := st.c
	if err := st.read(); err != nil {
		return false, err
	}
	for {
		cur := c.Current()
		switch {
		case cur.Kind == token.KindStart && cur.Depth == d+1:
			if c.IsStart(vocab.MetadataNamespace, vocab.ElemInline) {
				return true, nil
			}
			if err := st.skip(); err != nil {
				return false, err
			}
			continue
		case cur.Kind == token.KindEnd && cur.Depth == d:
			return false, st.read()
		case cur.Kind == token.KindEOF:
			return false, st.errf(ErrMalformedStructure, "document ends inside a link")
		}
		if err := st.read(); err != nil {
			return false, err
		}
	}
}

// typeCategory reads the term of the atom:category under the cursor
// without moving. ok is false for categories of other schemes.
func (er *entryReader) typeCategory() (term string, ok bool, err error) {
	st := er.st
	c := st.c
	if scheme, _ := c.Attr("", vocab.AttrScheme); scheme != vocab.SchemeNamespace {
		return "", false, nil
	}
	term, has := c.Attr("", vocab.AttrTerm)
	if !has || term == "" {
		return "", false, st.errf(ErrMissingAttribute, "type category without a term")
	}
	return term, true, nil
}

// readCategory handles an atom:category in the main pass. The first type
// category was usually taken by peekTypeName; one that comes after the
// content still names the entry type.
func (er *entryReader) readCategory(es *entryScope) error {
	st := er.st
	term, ok, err := er.typeCategory()
	if err != nil {
		return err
	}
	if ok {
		switch {
		case !es.seen.has(elemTypeName):
			es.seen.add(elemTypeName)
			if !es.peeked {
				t, err := st.entityType(es.t, term)
				if err != nil {
					return err
				}
				es.t = t
				es.e.TypeName = term
			}
		case !st.opts.compat:
			return st.errf(ErrDuplicateElement, "second type category %q", term)
		}
	}
	return st.skip()
}

func (er *entryReader) readID(es *entryScope) error {
	st := er.st
	if es.seen.has(elemID) {
		return st.errf(ErrDuplicateElement, "second atom:id in entry")
	}
	es.seen.add(elemID)
	id, err := er.readIDText()
	if err != nil {
		return err
	}
	if vocab.IsTransientID(id) {
		es.e.Transient = true
		return nil
	}
	es.e.ID = id
	return nil
}

// readIDText reads an atom:id. Empty ids read as "" and transient ids are
// returned as is; anything else must resolve to an absolute URI.
func (er *entryReader) readIDText() (string, error) {
	st := er.st
	base := st.c.Base()
	text, err := st.c.ReadElementText()
	if err != nil {
		return "", st.fail(err, "reading atom:id")
	}
	id := strings.TrimSpace(text)
	if id == "" || vocab.IsTransientID(id) {
		return id, nil
	}
	abs, err := st.resolveIn(base, id, true)
	if err != nil {
		return "", err
	}
	return abs, nil
}

func (er *entryReader) readContent(es *entryScope) error {
	st := er.st
	c := st.c
	if es.seen.has(elemContent) {
		return st.errf(ErrDuplicateElement, "second atom:content in entry")
	}
	es.seen.add(elemContent)
	ctype, _ := c.Attr("", vocab.AttrType)
	if src, ok := c.Attr("", vocab.AttrSrc); ok {
		href, err := st.resolveURL(src, false)
		if err != nil {
			return err
		}
		mr := es.media()
		mr.ReadLink = href
		if ctype != "" {
			mr.ContentType = ctype
		}
		text, err := c.ReadElementText()
		if err != nil {
			return st.fail(err, "atom:content with src must be empty")
		}
		if strings.TrimSpace(text) != "" {
			return st.errf(ErrMalformedStructure, "text in atom:content with src")
		}
		return nil
	}
	if ctype != "" {
		mt, _, err := mime.ParseMediaType(ctype)
		if err != nil || mt != vocab.ContentTypeXML {
			return st.errf(ErrMalformedStructure, "atom:content of type %q", ctype)
		}
	}
	if err := st.fail(c.ReadStart(), "reading atom:content"); err != nil {
		return err
	}
	for {
		cur := c.Current()
		switch cur.Kind {
		case token.KindEnd:
			return st.read()
		case token.KindText:
			if !cur.IsWhitespace() {
				return st.errf(ErrMalformedStructure, "text in atom:content")
			}
		case token.KindStart:
			if !c.IsStart(vocab.MetadataNamespace, vocab.ElemProperties) {
				return st.errf(ErrMalformedStructure, "%s in atom:content", cur)
			}
			if err := er.readEntryProperties(es); err != nil {
				return err
			}
			continue
		case token.KindEOF:
			return st.errf(ErrMalformedStructure, "document ends inside atom:content")
		}
		if err := st.read(); err != nil {
			return err
		}
	}
}

func (er *entryReader) readEntryProperties(es *entryScope) error {
	st := er.st
	if es.seen.has(elemProperties) {
		return st.errf(ErrDuplicateElement, "second m:properties in entry")
	}
	es.seen.add(elemProperties)
	props, err := er.values.readProperties(es.t, es.dup)
	if err != nil {
		return err
	}
	es.e.Properties = props
	return nil
}

func (es *entryScope) media() *ir.StreamRef {
	if es.e.MediaResource == nil {
		es.e.MediaResource = &ir.StreamRef{}
	}
	return es.e.MediaResource
}

// readLink classifies an atom:link by its relation and dispatches it.
func (er *entryReader) readLink(es *entryScope) error {
	st := er.st
	c := st.c
	rel, _ := c.Attr("", vocab.AttrRel)
	rawHref, hasHref := c.Attr("", vocab.AttrHref)
	href := ""
	if hasHref {
		var err error
		if href, err = st.resolveURL(rawHref, false); err != nil {
			return err
		}
	}
	resp := st.opts.response
	switch {
	case vocab.IsRelation(rel, vocab.RelSelf):
		if !resp {
			return st.skip()
		}
		if err := er.once(es, elemSelfLink, "self link"); err != nil {
			return err
		}
		es.e.ReadLink = href
		return st.skip()
	case vocab.IsRelation(rel, vocab.RelEdit):
		if err := er.once(es, elemEditLink, "edit link"); err != nil {
			return err
		}
		es.e.EditLink = href
		return st.skip()
	case vocab.IsRelation(rel, vocab.RelEditMedia):
		if !resp {
			return st.skip()
		}
		if err := er.once(es, elemEditMedia, "edit-media link"); err != nil {
			return err
		}
		mr := es.media()
		mr.EditLink = href
		if etag, ok := c.Attr(vocab.MetadataNamespace, vocab.AttrETag); ok {
			mr.ETag = etag
		}
		if typ, _ := c.Attr("", vocab.AttrType); typ != "" && mr.ContentType == "" {
			mr.ContentType = typ
		}
		return st.skip()
	}
	if name, ok := vocab.RelationName(rel, vocab.RelNavigationPrefix); ok {
		return er.readNavigationLink(es, name, href)
	}
	if name, ok := vocab.RelationName(rel, vocab.RelStreamEditPrefix); ok {
		if !resp {
			return st.skip()
		}
		return er.readStreamLink(es, name, href, true)
	}
	if name, ok := vocab.RelationName(rel, vocab.RelStreamReadPrefix); ok {
		if !resp {
			return st.skip()
		}
		return er.readStreamLink(es, name, href, false)
	}
	if name, ok := vocab.RelationName(rel, vocab.RelAssociationPrefix); ok {
		if !resp {
			return st.skip()
		}
		return er.readAssociationLink(es, name, href)
	}
	l, keep, err := er.readOtherLink(rel, href)
	if err != nil || !keep {
		return err
	}
	es.e.Links = append(es.e.Links, l)
	return nil
}

// once records a singleton link. In compatibility mode a repeat replaces
// the earlier one.
func (er *entryReader) once(es *entryScope, e elemSet, what string) error {
	if es.seen.has(e) && !er.st.opts.compat {
		return er.st.errf(ErrDuplicateElement, "second %s in entry", what)
	}
	es.seen.add(e)
	return nil
}

func (er *entryReader) readStreamLink(es *entryScope, name, href string, edit bool) error {
	st := er.st
	c := st.c
	if es.streams == nil {
		es.streams = make(map[string]*streamSeen)
	}
	ss, ok := es.streams[name]
	if !ok {
		ss = &streamSeen{i: len(es.e.StreamProperties)}
		es.streams[name] = ss
		es.e.StreamProperties = append(es.e.StreamProperties, ir.StreamProperty{Name: name})
	}
	sp := &es.e.StreamProperties[ss.i]
	if (edit && ss.edit) || (!edit && ss.read) {
		return st.errf(ErrDuplicateElement, "second link for stream property %q", name)
	}
	if typ, _ := c.Attr("", vocab.AttrType); typ != "" {
		if ss.typ != "" && ss.typ != typ {
			return st.errf(ErrProtocolViolation, "stream property %q has types %q and %q", name, ss.typ, typ)
		}
		ss.typ = typ
		sp.Stream.ContentType = typ
	}
	if edit {
		ss.edit = true
		sp.Stream.EditLink = href
		if etag, ok := c.Attr(vocab.MetadataNamespace, vocab.AttrETag); ok {
			sp.Stream.ETag = etag
		}
	} else {
		ss.read = true
		sp.Stream.ReadLink = href
	}
	return st.skip()
}

func (er *entryReader) readAssociationLink(es *entryScope, name, href string) error {
	st := er.st
	if es.t != nil && st.opts.model != nil && es.t.NavigationProperty(name) == nil {
		return st.errf(ErrInvalidReference, "association link for undeclared navigation property %q", name)
	}
	if es.assoc == nil {
		es.assoc = make(map[string]bool)
	}
	if es.assoc[name] {
		return st.errf(ErrDuplicateElement, "second association link %q", name)
	}
	es.assoc[name] = true
	es.e.AssociationLinks = append(es.e.AssociationLinks, ir.AssociationLink{Name: name, URL: href})
	return st.skip()
}

// readOtherLink reads a link the codec does not interpret. It is kept only
// when metadata reading is on.
func (er *entryReader) readOtherLink(rel, href string) (ir.Link, bool, error) {
	st := er.st
	c := st.c
	if !st.opts.metadata {
		st.log.Debug("skipping link", "rel", rel, "href", href)
		return ir.Link{}, false, st.skip()
	}
	l := ir.Link{Rel: rel, Href: href}
	l.Type, _ = c.Attr("", vocab.AttrType)
	l.Title, _ = c.Attr("", vocab.AttrTitle)
	if hl, ok := c.Attr("", vocab.AttrHrefLang); ok {
		l.HrefLang = hl
		if tag, err := language.Parse(hl); err == nil {
			l.HrefLang = tag.String()
		}
	}
	if raw, ok := c.Attr("", vocab.AttrLength); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return ir.Link{}, false, st.fail(err, "link length %q", raw)
		}
		l.Length = &n
	}
	return l, true, st.skip()
}

func (er *entryReader) readOperation() (ir.Operation, error) {
	st := er.st
	c := st.c
	op := ir.Operation{Kind: ir.Action}
	if c.Current().Name.Local == vocab.ElemFunction {
		op.Kind = ir.Function
	}
	md, ok := c.Attr("", vocab.AttrMetadata)
	if !ok {
		return op, st.errf(ErrMissingAttribute, "%s without metadata", op.Kind)
	}
	target, ok := c.Attr("", vocab.AttrTarget)
	if !ok {
		return op, st.errf(ErrMissingAttribute, "%s without target", op.Kind)
	}
	var err error
	if op.Target, err = st.resolveURL(target, false); err != nil {
		return op, err
	}
	op.Metadata = md
	op.Title, _ = c.Attr("", vocab.AttrTitle)
	return op, st.skip()
}

// readAnnotation reads an m:annotation of an entry or feed. keep is false
// when the filter drops the term; its value is then skipped unread.
func (er *entryReader) readAnnotation() (ir.InstanceAnnotation, bool, error) {
	st := er.st
	c := st.c
	term, ok := c.Attr("", vocab.AttrTerm)
	if !ok {
		term, ok = c.Attr(vocab.MetadataNamespace, vocab.AttrTerm)
	}
	if !ok || term == "" {
		return ir.InstanceAnnotation{}, false, st.errf(ErrMissingAttribute, "annotation without a term")
	}
	if st.opts.filter.ShouldSkip(term) {
		st.log.Debug("skipping annotation", "term", term)
		return ir.InstanceAnnotation{}, false, st.skip()
	}
	target, _ := c.Attr("", vocab.AttrTarget)
	if target != "" && target != "." {
		return ir.InstanceAnnotation{}, false, st.errf(ErrProtocolViolation, "annotation %q targets %q", term, target)
	}
	defer st.pushField("@" + term)()
	v, err := er.values.readValue(openSlot(), nil, nil)
	if err != nil {
		return ir.InstanceAnnotation{}, false, err
	}
	return ir.InstanceAnnotation{Term: term, Target: target, Value: v}, true, nil
}

// endEntry checks the entry once all children are read.
func (er *entryReader) endEntry(es *entryScope) error {
	st := er.st
	e := es.e
	if es.propsOutside && e.MediaResource == nil {
		return st.errf(ErrMalformedStructure, "m:properties outside atom:content of an entry that is not a media link entry")
	}
	if e.ReadLink == "" {
		e.ReadLink = e.EditLink
	}
	if len(e.AssociationLinks) == 0 {
		return nil
	}
	var rest []ir.AssociationLink
	for _, al := range e.AssociationLinks {
		merged := false
		for _, nl := range e.NavigationLinks {
			if nl.Name == al.Name && nl.AssociationURL == "" {
				nl.AssociationURL = al.URL
				merged = true
			}
		}
		if !merged {
			rest = append(rest, al)
		}
	}
	e.AssociationLinks = rest
	return nil
}
