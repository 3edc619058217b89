package encode

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/signadot/odata-atom/edm"
	"github.com/signadot/odata-atom/ir"
)

// EncState writes an indented, line oriented rendering of decoded
// payloads. The rendering is stable so two renderings can be diffed.
type EncState struct {
	w             io.Writer
	err           error
	depth, indent int
	wireTypes     bool

	Color func(ir.Kind, ColorAttr, string) string
}

func newEncState(w io.Writer, opts []EncodeOption) *EncState {
	es := &EncState{w: w, indent: 2}
	for _, opt := range opts {
		opt(es)
	}
	return es
}

// Encode writes v.
func Encode(v *ir.Value, w io.Writer, opts ...EncodeOption) error {
	es := newEncState(w, opts)
	es.value("value", v)
	return es.err
}

func EncodeEntry(e *ir.Entry, w io.Writer, opts ...EncodeOption) error {
	es := newEncState(w, opts)
	es.entry(e)
	return es.err
}

func EncodeFeed(f *ir.Feed, w io.Writer, opts ...EncodeOption) error {
	es := newEncState(w, opts)
	es.feed(f)
	return es.err
}

func (es *EncState) color(k ir.Kind, a ColorAttr, s string) string {
	if es.Color == nil || s == "" {
		return s
	}
	return es.Color(k, a, s)
}

func (es *EncState) line(s string) {
	if es.err != nil {
		return
	}
	_, es.err = io.WriteString(es.w, strings.Repeat(" ", es.depth*es.indent)+s+"\n")
}

// field writes "key: value", leaving out empty values.
func (es *EncState) field(key, value string) {
	if value == "" {
		return
	}
	es.line(es.color(ir.ComplexKind, KeyColor, key) + ": " + value)
}

func (es *EncState) nest(f func()) {
	es.depth++
	f()
	es.depth--
}

func (es *EncState) entry(e *ir.Entry) {
	head := "entry"
	if e.TypeName != "" {
		head += " " + es.color(ir.ComplexKind, TypeColor, e.TypeName)
	}
	es.line(head)
	es.nest(func() {
		if e.Transient {
			es.field("id", "(transient)")
		} else {
			es.field("id", e.ID)
		}
		es.field("etag", e.ETag)
		es.field("edit", es.link(e.EditLink))
		if e.ReadLink != e.EditLink {
			es.field("read", es.link(e.ReadLink))
		}
		if e.MediaResource != nil {
			es.line("media")
			es.nest(func() { es.streamRef(e.MediaResource) })
		}
		if len(e.Properties) > 0 {
			es.line("properties")
			es.nest(func() { es.properties(e.Properties) })
		}
		for _, l := range e.NavigationLinks {
			es.navigationLink(l)
		}
		for _, al := range e.AssociationLinks {
			es.field("association "+al.Name, es.link(al.URL))
		}
		for _, sp := range e.StreamProperties {
			es.line("stream " + sp.Name)
			es.nest(func() { es.streamRef(&sp.Stream) })
		}
		for _, op := range e.Operations {
			es.operation(op)
		}
		es.annotations(e.Annotations)
		es.links(e.Links)
	})
}

func (es *EncState) feed(f *ir.Feed) {
	es.line("feed")
	es.nest(func() {
		es.field("id", f.ID)
		if f.Count != nil {
			es.field("count", strconv.FormatInt(*f.Count, 10))
		}
		es.field("next", es.link(f.NextPageLink))
		es.field("delta", es.link(f.DeltaLink))
		es.annotations(f.Annotations)
		es.links(f.Links)
		for _, e := range f.Entries {
			es.entry(e)
		}
	})
}

func (es *EncState) link(href string) string {
	return es.color(ir.ComplexKind, LinkColor, href)
}

func (es *EncState) streamRef(s *ir.StreamRef) {
	es.field("read", es.link(s.ReadLink))
	es.field("edit", es.link(s.EditLink))
	es.field("type", s.ContentType)
	es.field("etag", s.ETag)
}

func (es *EncState) navigationLink(l *ir.NavigationLink) {
	head := "nav " + l.Name
	if l.IsCollection != nil {
		if *l.IsCollection {
			head += " collection"
		} else {
			head += " single"
		}
	}
	if l.URL != "" {
		head += ": " + es.link(l.URL)
	}
	es.line(head)
	es.nest(func() {
		es.field("association", es.link(l.AssociationURL))
		if l.Expansion != ir.Deferred {
			es.field("expansion", l.Expansion.String())
		}
		switch l.Expansion {
		case ir.ExpandedEntry:
			if l.Entry == nil {
				es.line("null")
				return
			}
			es.entry(l.Entry)
		case ir.ExpandedFeed:
			if l.Feed != nil {
				es.feed(l.Feed)
			}
		case ir.EntityReferences:
			for _, id := range l.References {
				es.field("ref", id)
			}
		}
	})
}

func (es *EncState) operation(op ir.Operation) {
	es.line(strings.ToLower(op.Kind.String()) + " " + op.Metadata)
	es.nest(func() {
		es.field("title", op.Title)
		es.field("target", es.link(op.Target))
	})
}

func (es *EncState) annotations(anns []ir.InstanceAnnotation) {
	for _, a := range anns {
		key := "@" + a.Term
		if a.Target != "" {
			key = a.Target + key
		}
		es.value(key, a.Value)
	}
}

func (es *EncState) links(links []ir.Link) {
	for _, l := range links {
		es.line("link " + l.Rel + ": " + es.link(l.Href))
		es.nest(func() {
			es.field("type", l.Type)
			es.field("title", l.Title)
			es.field("hreflang", l.HrefLang)
			if l.Length != nil {
				es.field("length", strconv.FormatInt(*l.Length, 10))
			}
		})
	}
}

func (es *EncState) properties(props []ir.Property) {
	for _, p := range props {
		es.value(p.Name, p.Value)
	}
}

// value writes v under key. Leaf values go on the key's line, members and
// items on the following lines one level deeper.
func (es *EncState) value(key string, v *ir.Value) {
	k := ir.NullKind
	if v != nil {
		k = v.Kind
	}
	head := es.color(k, KeyColor, key)
	if v != nil && v.TypeName != "" {
		head += " " + es.color(k, TypeColor, v.TypeName)
	}
	if es.wireTypes && v != nil && v.WireTypeName != nil {
		head += " (wire " + strconv.Quote(*v.WireTypeName) + ")"
	}
	switch k {
	case ir.NullKind:
		es.line(head + ": " + es.color(k, ValueColor, "null"))
	case ir.PrimitiveKind:
		es.line(head + ": " + es.color(k, ValueColor, primitiveText(v)))
	case ir.EnumKind:
		es.line(head + ": " + es.color(k, ValueColor, v.Raw))
	case ir.ComplexKind:
		es.line(head)
		es.nest(func() { es.properties(v.Properties) })
	case ir.CollectionKind:
		es.line(head)
		es.nest(func() {
			for _, it := range v.Items {
				es.value("-", it)
			}
		})
	default:
		es.line(head + ": " + v.Kind.String())
	}
}

func primitiveText(v *ir.Value) string {
	tn := v.TypeName
	if tn == "" {
		tn = edm.StringType
	}
	text, err := edm.Format(tn, v.Scalar)
	if err != nil {
		text = fmt.Sprint(v.Scalar)
	}
	if _, ok := v.Scalar.(string); ok {
		return strconv.Quote(text)
	}
	return text
}
