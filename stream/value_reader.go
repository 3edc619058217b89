package stream

import (
	"strings"

	"github.com/signadot/odata-atom/debug"
	"github.com/signadot/odata-atom/edm"
	"github.com/signadot/odata-atom/ir"
	"github.com/signadot/odata-atom/schema"
	"github.com/signadot/odata-atom/token"
	"github.com/signadot/odata-atom/vocab"
)

// slot describes where a value is read: the type the context implies and
// the null rules of that place.
type slot struct {
	expected *schema.Type
	// nullable is false only for declared non-nullable properties and
	// items.
	nullable     bool
	validateNull bool
	// shorthand admits the attribute value notation.
	shorthand bool
}

func openSlot() slot {
	return slot{nullable: true, shorthand: true}
}

type valueReader struct {
	st *readState
}

// readValue reads the value of the element under the cursor and moves past
// its end tag. dup, if not nil, checks the property names of a complex
// value; items, if not nil, checks the value against its siblings.
func (vr *valueReader) readValue(s slot, dup *duplicateChecker, items *collectionValidator) (*ir.Value, error) {
	st := vr.st
	c := st.c
	c.AssertOn(token.KindStart)
	if debug.Read() {
		debug.Logf("read value %s at %s path=%s\n", c.Current(), c.Pos(), st.pathString())
	}
	wireType, hasType := c.Attr(vocab.MetadataNamespace, vocab.AttrType)
	hasType = hasType && wireType != ""

	var short, shortType string
	var nShort int
	if s.shorthand {
		for _, sa := range vocab.ShorthandAttrs {
			if v, ok := c.Attr("", sa.Name); ok {
				nShort++
				short, shortType = v, sa.Type
			}
		}
		if nShort > 1 {
			return nil, st.errf(ErrProtocolViolation, "more than one shorthand value attribute")
		}
	}

	isNull, err := vr.nullAttr()
	if err != nil {
		return nil, err
	}
	if isNull {
		if s.validateNull && !s.nullable {
			return nil, st.errf(ErrNotNullable, "null value where %s is not nullable", typeName(s.expected))
		}
		if err := st.skip(); err != nil {
			return nil, err
		}
		return ir.Null(), nil
	}

	if nShort == 1 {
		if hasType && wireType != shortType {
			return nil, st.errf(ErrProtocolViolation, "shorthand value of type %s conflicts with type %s", shortType, wireType)
		}
		return vr.readShorthand(s, short, shortType)
	}

	t, kind, err := st.opts.resolver.Resolve(s.expected, wireType, vr.sniffKind)
	if err != nil {
		return nil, st.fail(err, "resolving value type")
	}
	var v *ir.Value
	switch kind {
	case ir.PrimitiveKind:
		v, err = vr.readPrimitive(t)
	case ir.EnumKind:
		v, err = vr.readEnum(t)
	case ir.ComplexKind:
		v, err = vr.readComplex(t, dup)
	case ir.CollectionKind:
		v, err = vr.readCollection(t, s.validateNull)
	default:
		err = st.errf(ErrTypeConversion, "cannot read a %s value", kind)
	}
	if err != nil {
		return nil, err
	}
	if !hasType && v.TypeName != "" {
		v.Derived()
	}
	if items != nil {
		if ok, want := items.check(v); !ok {
			return nil, st.errf(ErrProtocolViolation, "collection item is %s %s, expected %s", v.Kind, v.TypeName, want)
		}
	}
	return v, nil
}

// nullAttr reports whether m:null says the value is null.
func (vr *valueReader) nullAttr() (bool, error) {
	raw, ok := vr.st.c.Attr(vocab.MetadataNamespace, vocab.AttrNull)
	if !ok {
		return false, nil
	}
	switch strings.TrimSpace(raw) {
	case vocab.NullAttributeTrue, "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, vr.st.errf(ErrTypeConversion, "m:null value %q", raw)
}

// sniffKind looks at the children of the current element without
// consuming them: an m:element child makes a collection, a child in the
// data namespace a complex value, anything else a primitive.
func (vr *valueReader) sniffKind() (ir.Kind, error) {
	st := vr.st
	c := st.c
	stop := c.StartBuffering()
	defer stop()
	d := c.Current().Depth
	data := false
	if err := st.read(); err != nil {
		return 0, err
	}
	for {
		cur := c.Current()
		switch cur.Kind {
		case token.KindStart:
			switch {
			case c.IsStart(vocab.MetadataNamespace, vocab.ElemElement):
				return ir.CollectionKind, nil
			case cur.Name.Space == vocab.DataNamespace:
				data = true
			}
			if err := st.skip(); err != nil {
				return 0, err
			}
			continue
		case token.KindEnd:
			if cur.Depth == d {
				if data {
					return ir.ComplexKind, nil
				}
				return ir.PrimitiveKind, nil
			}
		case token.KindEOF:
			return 0, st.errf(ErrMalformedStructure, "document ends inside a value")
		}
		if err := st.read(); err != nil {
			return 0, err
		}
	}
}

// readShorthand reads an empty element whose value is carried by a
// shorthand attribute.
func (vr *valueReader) readShorthand(s slot, raw, typeName string) (*ir.Value, error) {
	st := vr.st
	_, kind, err := st.opts.resolver.Resolve(s.expected, typeName, func() (ir.Kind, error) {
		return ir.PrimitiveKind, nil
	})
	if err != nil {
		return nil, st.fail(err, "resolving shorthand type")
	}
	if kind != ir.PrimitiveKind {
		return nil, st.errf(ErrTypeConversion, "shorthand value where a %s value is expected", kind)
	}
	text, err := st.c.ReadElementText()
	if err != nil {
		return nil, st.fail(err, "shorthand value element must be empty")
	}
	if strings.TrimSpace(text) != "" {
		return nil, st.errf(ErrMalformedStructure, "content on an element with a shorthand value")
	}
	x, err := edm.Parse(typeName, raw)
	if err != nil {
		return nil, st.fail(err, "shorthand %s value", typeName)
	}
	return ir.Primitive(typeName, x), nil
}

func (vr *valueReader) readPrimitive(t *schema.Type) (*ir.Value, error) {
	st := vr.st
	name := edm.StringType
	if t != nil {
		name = t.Name
	}
	text, err := st.c.ReadElementText()
	if err != nil {
		return nil, st.fail(err, "reading %s value", name)
	}
	x, err := edm.Parse(name, text)
	if err != nil {
		return nil, st.fail(err, "%s value", name)
	}
	return ir.Primitive(name, x), nil
}

func (vr *valueReader) readEnum(t *schema.Type) (*ir.Value, error) {
	st := vr.st
	text, err := st.c.ReadElementText()
	if err != nil {
		return nil, st.fail(err, "reading %s value", t.Name)
	}
	raw := strings.TrimSpace(text)
	if raw == "" && len(t.Members) == 0 {
		// no member was given, so a type known only by name is complex
		return ir.Complex(t.Name), nil
	}
	if !t.HasMember(raw) {
		return nil, st.errf(ErrTypeConversion, "%q is not a member of %s", raw, t.Name)
	}
	return ir.Enum(t.Name, raw), nil
}

func (vr *valueReader) readComplex(t *schema.Type, dup *duplicateChecker) (*ir.Value, error) {
	leave, err := vr.st.enter()
	if err != nil {
		return nil, err
	}
	defer leave()
	props, err := vr.readProperties(t, dup)
	if err != nil {
		return nil, err
	}
	return ir.Complex(typeName(t), props...), nil
}

func (vr *valueReader) readCollection(t *schema.Type, validateNull bool) (*ir.Value, error) {
	st := vr.st
	c := st.c
	leave, err := st.enter()
	if err != nil {
		return nil, err
	}
	defer leave()

	item := slot{nullable: true, validateNull: validateNull}
	var items *collectionValidator
	if t != nil && t.Elem != nil {
		item.expected = t.Elem
		item.nullable = t.ElemNullable
	} else {
		items = &collectionValidator{}
	}
	res := ir.Collection(typeName(t))
	if err := st.fail(c.ReadStart(), "reading collection"); err != nil {
		return nil, err
	}
	for {
		cur := c.Current()
		switch cur.Kind {
		case token.KindEnd:
			return res, st.read()
		case token.KindText:
			if !cur.IsWhitespace() {
				return nil, st.errf(ErrMalformedStructure, "text inside a collection value")
			}
		case token.KindStart:
			switch {
			case c.IsStart(vocab.MetadataNamespace, vocab.ElemElement):
				pop := st.pushIndex(len(res.Items))
				v, err := vr.readValue(item, nil, items)
				pop()
				if err != nil {
					return nil, err
				}
				res.Items = append(res.Items, v)
			case cur.Name.Space == vocab.MetadataNamespace:
				return nil, st.errf(ErrMalformedStructure, "<m:%s> inside a collection value", cur.Name.Local)
			default:
				if err := st.skipUnknown("collection"); err != nil {
					return nil, err
				}
			}
			continue
		case token.KindEOF:
			return nil, st.errf(ErrMalformedStructure, "document ends inside a collection")
		}
		if err := st.read(); err != nil {
			return nil, err
		}
	}
}

// readProperties reads the data namespace children of the container under
// the cursor and moves past its end tag.
func (vr *valueReader) readProperties(t *schema.Type, dup *duplicateChecker) ([]ir.Property, error) {
	st := vr.st
	c := st.c
	if dup == nil {
		dup = newDuplicateChecker()
	}
	var props []ir.Property
	if err := st.fail(c.ReadStart(), "reading properties"); err != nil {
		return nil, err
	}
	for {
		cur := c.Current()
		switch cur.Kind {
		case token.KindEnd:
			return props, st.read()
		case token.KindStart:
			if cur.Name.Space != vocab.DataNamespace {
				if err := st.skipUnknown("properties"); err != nil {
					return nil, err
				}
				continue
			}
			p, keep, err := vr.readProperty(t, dup)
			if err != nil {
				return nil, err
			}
			if keep {
				props = append(props, p)
			}
			continue
		case token.KindEOF:
			return nil, st.errf(ErrMalformedStructure, "document ends inside properties")
		}
		if err := st.read(); err != nil {
			return nil, err
		}
	}
}

// readProperty reads one d: element. keep is false for a null property
// whose declaration asks for nulls to be dropped.
func (vr *valueReader) readProperty(t *schema.Type, dup *duplicateChecker) (ir.Property, bool, error) {
	st := vr.st
	name := st.c.Current().Name.Local
	defer st.pushField(name)()
	if !dup.add(name) {
		return ir.Property{}, false, st.errf(ErrDuplicateElement, "property %q repeated", name)
	}
	s := openSlot()
	dropNull := false
	if t != nil {
		if t.NavigationProperty(name) != nil {
			return ir.Property{}, false, st.errf(ErrProtocolViolation, "navigation property %q used as a value", name)
		}
		decl := t.Property(name)
		switch {
		case decl != nil:
			pt, err := st.opts.model.PropertyType(decl)
			if err != nil {
				return ir.Property{}, false, st.fail(err, "property %q", name)
			}
			s.expected = pt
			s.nullable = decl.Nullable
			if st.opts.response && decl.NullHandling == schema.NullIgnore {
				dropNull = true
			} else {
				s.validateNull = true
			}
		case st.opts.model != nil && !t.IsOpen():
			return ir.Property{}, false, st.errf(ErrInvalidReference, "%s has no property %q", t.Name, name)
		}
	}
	v, err := vr.readValue(s, nil, nil)
	if err != nil {
		return ir.Property{}, false, err
	}
	if dropNull && v.IsNull() {
		st.log.Debug("dropping null property", "name", name)
		return ir.Property{}, false, nil
	}
	return ir.Prop(name, v), true, nil
}

func typeName(t *schema.Type) string {
	if t == nil {
		return ""
	}
	return t.Name
}
