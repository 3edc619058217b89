package stream

import (
	"strconv"

	"github.com/signadot/odata-atom/edm"
	"github.com/signadot/odata-atom/ir"
	"github.com/signadot/odata-atom/schema"
	"github.com/signadot/odata-atom/vocab"

	xw "github.com/shabbyrobe/xmlwriter"
	"golang.org/x/text/language"
)

// writeEntryHeader writes the parts of an entry that precede its links
// and content, skipping those already written.
func (w *Writer) writeEntryHeader(sc *wscope) error {
	e := sc.entry
	if !sc.written.has(elemID) && (e.ID != "" || e.Transient) {
		id := e.ID
		if e.Transient {
			id = vocab.TransientIDPrefix + w.opts.transientID()
		}
		if err := w.leaf("", vocab.ElemID, id); err != nil {
			return err
		}
		sc.written.add(elemID)
	}
	if !sc.written.has(elemTypeName) && e.TypeName != "" {
		if err := w.leaf("", vocab.ElemCategory, "",
			attr(vocab.AttrTerm, e.TypeName),
			attr(vocab.AttrScheme, vocab.SchemeNamespace)); err != nil {
			return err
		}
		sc.written.add(elemTypeName)
	}
	resp := w.opts.response
	if !sc.written.has(elemSelfLink) && resp && e.ReadLink != "" && e.ReadLink != e.EditLink {
		if err := w.link(vocab.RelSelf, e.ReadLink); err != nil {
			return err
		}
		sc.written.add(elemSelfLink)
	}
	if !sc.written.has(elemEditLink) && e.EditLink != "" {
		if err := w.link(vocab.RelEdit, e.EditLink); err != nil {
			return err
		}
		sc.written.add(elemEditLink)
	}
	if mr := e.MediaResource; !sc.written.has(elemEditMedia) && resp && mr != nil && mr.EditLink != "" {
		var attrs []xw.Attr
		if mr.ETag != "" {
			attrs = append(attrs, mattr(vocab.AttrETag, mr.ETag))
		}
		if err := w.link(vocab.RelEditMedia, mr.EditLink, attrs...); err != nil {
			return err
		}
		sc.written.add(elemEditMedia)
	}
	return nil
}

func (w *Writer) endEntry(sc *wscope) error {
	e := sc.entry
	if err := w.writeEntryHeader(sc); err != nil {
		return err
	}
	if w.opts.response {
		if err := w.writeAssociationLinks(sc); err != nil {
			return err
		}
		if err := w.writeStreamProperties(e.StreamProperties); err != nil {
			return err
		}
	}
	for _, op := range e.Operations {
		name := vocab.ElemAction
		if op.Kind == ir.Function {
			name = vocab.ElemFunction
		}
		attrs := []xw.Attr{attr(vocab.AttrMetadata, op.Metadata)}
		if op.Title != "" {
			attrs = append(attrs, attr(vocab.AttrTitle, op.Title))
		}
		attrs = append(attrs, attr(vocab.AttrTarget, op.Target))
		if err := w.leaf(vocab.MetadataPrefix, name, "", attrs...); err != nil {
			return err
		}
	}
	if err := w.writeAnnotations(e.Annotations); err != nil {
		return err
	}
	if err := w.writeLinks(e.Links); err != nil {
		return err
	}
	if err := w.writeContent(sc); err != nil {
		return err
	}
	return w.end()
}

func (w *Writer) writeAssociationLinks(sc *wscope) error {
	seen := make(map[string]bool)
	all := append(append([]ir.AssociationLink(nil), sc.assoc...), sc.entry.AssociationLinks...)
	for _, al := range all {
		if seen[al.Name] {
			continue
		}
		seen[al.Name] = true
		if sc.t != nil && w.opts.model != nil && sc.t.NavigationProperty(al.Name) == nil {
			return w.errf(ErrInvalidReference, "association link for undeclared navigation property %q", al.Name)
		}
		if err := w.link(vocab.RelAssociationPrefix+al.Name, al.URL,
			attr(vocab.AttrType, vocab.ContentTypeXML),
			attr(vocab.AttrTitle, al.Name)); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeStreamProperties(sps []ir.StreamProperty) error {
	for _, sp := range sps {
		s := sp.Stream
		var typ []xw.Attr
		if s.ContentType != "" {
			typ = append(typ, attr(vocab.AttrType, s.ContentType))
		}
		if s.EditLink != "" {
			attrs := append([]xw.Attr(nil), typ...)
			if s.ETag != "" {
				attrs = append(attrs, mattr(vocab.AttrETag, s.ETag))
			}
			if err := w.link(vocab.RelStreamEditPrefix+sp.Name, s.EditLink, attrs...); err != nil {
				return err
			}
		}
		if s.ReadLink != "" {
			if err := w.link(vocab.RelStreamReadPrefix+sp.Name, s.ReadLink, typ...); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeLinks writes uninterpreted links.
func (w *Writer) writeLinks(links []ir.Link) error {
	for _, l := range links {
		var attrs []xw.Attr
		if l.Type != "" {
			attrs = append(attrs, attr(vocab.AttrType, l.Type))
		}
		if l.Title != "" {
			attrs = append(attrs, attr(vocab.AttrTitle, l.Title))
		}
		if l.HrefLang != "" {
			if _, err := language.Parse(l.HrefLang); err != nil {
				return w.errf(ErrMalformedStructure, "link hreflang %q: %v", l.HrefLang, err)
			}
			attrs = append(attrs, attr(vocab.AttrHrefLang, l.HrefLang))
		}
		if l.Length != nil {
			attrs = append(attrs, attr(vocab.AttrLength, strconv.FormatInt(*l.Length, 10)))
		}
		if err := w.link(l.Rel, l.Href, attrs...); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeAnnotations(anns []ir.InstanceAnnotation) error {
	for _, a := range anns {
		if a.Term == "" {
			return w.errf(ErrMissingAttribute, "annotation without a term")
		}
		attrs := []xw.Attr{attr(vocab.AttrTerm, a.Term)}
		if a.Target != "" {
			attrs = append(attrs, attr(vocab.AttrTarget, a.Target))
		}
		if err := w.writeValue(vocab.MetadataPrefix, vocab.ElemAnnotation, attrs, a.Value, openSlot()); err != nil {
			return err
		}
	}
	return nil
}

// writeContent writes atom:content and the entry's properties: inside it
// for ordinary entries, after it for media link entries.
func (w *Writer) writeContent(sc *wscope) error {
	e := sc.entry
	if mr := e.MediaResource; mr != nil {
		src := mr.ReadLink
		if src == "" {
			src = mr.EditLink
		}
		var attrs []xw.Attr
		if mr.ContentType != "" {
			attrs = append(attrs, attr(vocab.AttrType, mr.ContentType))
		}
		attrs = append(attrs, attr(vocab.AttrSrc, src))
		if err := w.leaf("", vocab.ElemContent, "", attrs...); err != nil {
			return err
		}
		if len(e.Properties) == 0 {
			return nil
		}
		return w.writePropertiesElem(sc)
	}
	if len(e.Properties) == 0 {
		return w.leaf("", vocab.ElemContent, "", attr(vocab.AttrType, vocab.ContentTypeXML))
	}
	if err := w.start("", vocab.ElemContent, attr(vocab.AttrType, vocab.ContentTypeXML)); err != nil {
		return err
	}
	if err := w.writePropertiesElem(sc); err != nil {
		return err
	}
	return w.end()
}

func (w *Writer) writePropertiesElem(sc *wscope) error {
	if err := w.start(vocab.MetadataPrefix, vocab.ElemProperties); err != nil {
		return err
	}
	if err := w.writeProperties(sc.entry.Properties, sc.t); err != nil {
		return err
	}
	sc.written.add(elemProperties)
	return w.end()
}

func (w *Writer) writeProperties(props []ir.Property, t *schema.Type) error {
	dup := newDuplicateChecker()
	for _, p := range props {
		if !dup.add(p.Name) {
			return w.errf(ErrDuplicateElement, "property %q repeated", p.Name)
		}
		s := openSlot()
		s.shorthand = false
		if t != nil {
			if t.NavigationProperty(p.Name) != nil {
				return w.errf(ErrProtocolViolation, "navigation property %q written as a value", p.Name)
			}
			decl := t.Property(p.Name)
			switch {
			case decl != nil:
				pt, err := w.opts.model.PropertyType(decl)
				if err != nil {
					return w.errf(ErrInvalidReference, "property %q: %v", p.Name, err)
				}
				s.expected, s.nullable, s.validateNull = pt, decl.Nullable, true
			case w.opts.model != nil && !t.IsOpen():
				return w.errf(ErrInvalidReference, "%s has no property %q", t.Name, p.Name)
			}
		}
		if err := w.writeValue(vocab.DataPrefix, p.Name, nil, p.Value, s); err != nil {
			return err
		}
	}
	return nil
}

// wireTypeName is the m:type a value is written with, "" for none.
func wireTypeName(v *ir.Value, expected *schema.Type) string {
	if v.WireTypeName != nil {
		return *v.WireTypeName
	}
	if expected != nil && v.TypeName == expected.Name {
		return ""
	}
	return v.TypeName
}

// writeValue writes v as the element prefix:name with attrs.
func (w *Writer) writeValue(prefix, name string, attrs []xw.Attr, v *ir.Value, s slot) error {
	if v.IsNull() {
		if s.validateNull && !s.nullable {
			return w.errf(ErrNotNullable, "null value for %s where %s is not nullable", name, typeName(s.expected))
		}
		return w.leaf(prefix, name, "", append(attrs, mattr(vocab.AttrNull, vocab.NullAttributeTrue))...)
	}
	tn := wireTypeName(v, s.expected)
	if tn != "" {
		attrs = append(attrs, mattr(vocab.AttrType, tn))
	}
	// an empty element with nothing naming its type reads back as a string
	empty := (v.Kind == ir.ComplexKind && len(v.Properties) == 0) ||
		(v.Kind == ir.CollectionKind && len(v.Items) == 0)
	if empty && tn == "" && s.expected == nil {
		return w.errf(ErrTypeConversion, "%s: empty %s value without a type name", name, v.Kind)
	}
	switch v.Kind {
	case ir.PrimitiveKind:
		pt := v.TypeName
		if pt == "" {
			pt = edm.StringType
			if s.expected != nil {
				pt = s.expected.Name
			}
		}
		text, err := edm.Format(pt, v.Scalar)
		if err != nil {
			return w.errf(ErrTypeConversion, "%s: %v", name, err)
		}
		return w.leaf(prefix, name, text, attrs...)
	case ir.EnumKind:
		if v.Raw == "" {
			return w.errf(ErrTypeConversion, "%s: enum %s value without a member", name, v.TypeName)
		}
		return w.leaf(prefix, name, v.Raw, attrs...)
	case ir.ComplexKind:
		leave, err := w.enter()
		if err != nil {
			return err
		}
		defer leave()
		t, err := w.lookupType(v.TypeName, s.expected)
		if err != nil {
			return err
		}
		if err := w.start(prefix, name, attrs...); err != nil {
			return err
		}
		if err := w.writeProperties(v.Properties, t); err != nil {
			return err
		}
		return w.end()
	case ir.CollectionKind:
		leave, err := w.enter()
		if err != nil {
			return err
		}
		defer leave()
		t, err := w.lookupType(v.TypeName, s.expected)
		if err != nil {
			return err
		}
		item := slot{nullable: true}
		if t != nil && t.Elem != nil {
			item = slot{expected: t.Elem, nullable: t.ElemNullable, validateNull: s.validateNull}
		}
		if err := w.start(prefix, name, attrs...); err != nil {
			return err
		}
		for _, it := range v.Items {
			if err := w.writeValue(vocab.MetadataPrefix, vocab.ElemElement, nil, it, item); err != nil {
				return err
			}
		}
		return w.end()
	}
	return w.errf(ErrTypeConversion, "%s: cannot write a %s value", name, v.Kind)
}
