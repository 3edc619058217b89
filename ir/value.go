package ir

import "strings"

// Value is a single property, item or annotation value.
//
// Which fields are meaningful depends on Kind:
//
//	NullKind        none
//	PrimitiveKind   TypeName, Scalar
//	EnumKind        TypeName, Raw
//	ComplexKind     TypeName, Properties
//	CollectionKind  TypeName, Items
type Value struct {
	Kind     Kind
	TypeName string

	// Scalar holds the Go value of a primitive, as produced by package edm.
	Scalar any
	// Raw is the literal member text of an enum value.
	Raw        string
	Properties []Property
	Items      []*Value

	// WireTypeName overrides the type name written to the wire. nil leaves
	// the choice to the writer; a pointer to "" suppresses the type
	// attribute. Readers set it to "" when TypeName was derived from
	// context rather than read from the payload.
	WireTypeName *string
}

type Property struct {
	Name  string
	Value *Value
}

func Null() *Value {
	return &Value{Kind: NullKind}
}

func Primitive(typeName string, v any) *Value {
	return &Value{Kind: PrimitiveKind, TypeName: typeName, Scalar: v}
}

func String(s string) *Value {
	return Primitive("Edm.String", s)
}

func Int32(i int32) *Value {
	return Primitive("Edm.Int32", i)
}

func Int64(i int64) *Value {
	return Primitive("Edm.Int64", i)
}

func Bool(b bool) *Value {
	return Primitive("Edm.Boolean", b)
}

func Double(f float64) *Value {
	return Primitive("Edm.Double", f)
}

func Enum(typeName, raw string) *Value {
	return &Value{Kind: EnumKind, TypeName: typeName, Raw: raw}
}

func Complex(typeName string, props ...Property) *Value {
	return &Value{Kind: ComplexKind, TypeName: typeName, Properties: props}
}

func Collection(typeName string, items ...*Value) *Value {
	return &Value{Kind: CollectionKind, TypeName: typeName, Items: items}
}

func Prop(name string, v *Value) Property {
	return Property{Name: name, Value: v}
}

// WithWireTypeName sets the wire type name hint and returns v.
func (v *Value) WithWireTypeName(name string) *Value {
	v.WireTypeName = &name
	return v
}

// Derived marks the type name as implied by context.
func (v *Value) Derived() *Value {
	return v.WithWireTypeName("")
}

func (v *Value) IsNull() bool {
	return v == nil || v.Kind == NullKind
}

// Get returns the named property of a complex value, or nil.
func (v *Value) Get(name string) *Value {
	if v == nil || v.Kind != ComplexKind {
		return nil
	}
	return FindProperty(v.Properties, name)
}

// FindProperty returns the value of the first property called name, or nil.
func FindProperty(props []Property, name string) *Value {
	for i := range props {
		if props[i].Name == name {
			return props[i].Value
		}
	}
	return nil
}

// ItemTypeName returns X for a collection type name Collection(X), and ""
// for anything else.
func ItemTypeName(typeName string) string {
	if !strings.HasPrefix(typeName, "Collection(") || !strings.HasSuffix(typeName, ")") {
		return ""
	}
	return typeName[len("Collection(") : len(typeName)-1]
}

// CollectionOf returns the collection type name for an item type name.
func CollectionOf(itemType string) string {
	return "Collection(" + itemType + ")"
}

func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	res := *v
	if v.WireTypeName != nil {
		w := *v.WireTypeName
		res.WireTypeName = &w
	}
	if v.Properties != nil {
		res.Properties = CloneProperties(v.Properties)
	}
	if v.Items != nil {
		res.Items = make([]*Value, len(v.Items))
		for i, it := range v.Items {
			res.Items[i] = it.Clone()
		}
	}
	if b, ok := v.Scalar.([]byte); ok {
		res.Scalar = append([]byte(nil), b...)
	}
	return &res
}

func CloneProperties(props []Property) []Property {
	res := make([]Property, len(props))
	for i, p := range props {
		res[i] = Property{Name: p.Name, Value: p.Value.Clone()}
	}
	return res
}
