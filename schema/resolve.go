package schema

import (
	"fmt"
	"strings"

	"github.com/signadot/odata-atom/edm"
	"github.com/signadot/odata-atom/ir"
)

// SniffFunc inspects the payload to guess the kind of an untyped value.
type SniffFunc func() (ir.Kind, error)

// Resolver picks the type a payload value is read as.
//
// expected is the type implied by context (a declared property, a
// collection's item type), or nil. payloadTypeName is the type name the
// payload carries, or "". sniff is called only when neither identifies the
// value's kind. The returned type may be nil for untyped complex and
// collection values.
type Resolver interface {
	Resolve(expected *Type, payloadTypeName string, sniff SniffFunc) (*Type, ir.Kind, error)
}

type ResolverFunc func(expected *Type, payloadTypeName string, sniff SniffFunc) (*Type, ir.Kind, error)

func (f ResolverFunc) Resolve(expected *Type, payloadTypeName string, sniff SniffFunc) (*Type, ir.Kind, error) {
	return f(expected, payloadTypeName, sniff)
}

// DefaultResolver resolves against an optional model. Without a model,
// payload type names are trusted: Edm names are primitives, other names of
// text-only values are enums and other names of structured values are
// complex types.
type DefaultResolver struct {
	Model *Model
}

func NewResolver(m *Model) *DefaultResolver {
	return &DefaultResolver{Model: m}
}

func (r *DefaultResolver) Resolve(expected *Type, payloadTypeName string, sniff SniffFunc) (*Type, ir.Kind, error) {
	if payloadTypeName == "" {
		if expected != nil {
			return expected, expected.Kind.ValueKind(), nil
		}
		k, err := sniff()
		if err != nil {
			return nil, 0, err
		}
		if k == ir.PrimitiveKind {
			t, _ := builtin(edm.StringType)
			return t, k, nil
		}
		return nil, k, nil
	}
	t, err := r.lookup(payloadTypeName, sniff)
	if err != nil {
		return nil, 0, err
	}
	if !expected.IsAssignableFrom(t) {
		return nil, 0, fmt.Errorf("%w: %s where %s is expected", ErrIncompatibleType, t.Name, expected.Name)
	}
	return t, t.Kind.ValueKind(), nil
}

func (r *DefaultResolver) lookup(name string, sniff SniffFunc) (*Type, error) {
	if t, ok := r.Model.Lookup(name); ok {
		return t, nil
	}
	if r.Model != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, name)
	}
	if strings.HasPrefix(name, "Edm.") {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, name)
	}
	if it := ir.ItemTypeName(name); it != "" {
		// untyped items are checked against each other instead
		return &Type{Name: name, Kind: CollectionType, ElemNullable: true}, nil
	}
	k, err := sniff()
	if err != nil {
		return nil, err
	}
	switch k {
	case ir.PrimitiveKind:
		return &Type{Name: name, Kind: EnumType}, nil
	case ir.ComplexKind:
		return &Type{Name: name, Kind: ComplexType}, nil
	}
	return nil, fmt.Errorf("%w: %s value with non-collection type %s", ErrIncompatibleType, k, name)
}
