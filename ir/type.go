package ir

import "fmt"

// Kind is the shape of a Value.
type Kind int

const (
	NullKind Kind = iota
	PrimitiveKind
	EnumKind
	ComplexKind
	CollectionKind
)

func (k Kind) String() string {
	s, ok := map[Kind]string{
		NullKind:       "Null",
		PrimitiveKind:  "Primitive",
		EnumKind:       "Enum",
		ComplexKind:    "Complex",
		CollectionKind: "Collection",
	}[k]
	if ok {
		return s
	}
	return "<unknown kind>"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(d []byte) error {
	kk, ok := map[string]Kind{
		"Null":       NullKind,
		"Primitive":  PrimitiveKind,
		"Enum":       EnumKind,
		"Complex":    ComplexKind,
		"Collection": CollectionKind,
	}[string(d)]
	if !ok {
		return fmt.Errorf("unrecognized kind %q", d)
	}
	*k = kk
	return nil
}

func Kinds() []Kind {
	return []Kind{
		NullKind,
		PrimitiveKind,
		EnumKind,
		ComplexKind,
		CollectionKind,
	}
}

func (k Kind) IsLeaf() bool {
	switch k {
	case ComplexKind, CollectionKind:
		return false
	default:
		return true
	}
}

// Expansion says what a navigation link carries besides its URL.
type Expansion int

const (
	Deferred Expansion = iota
	EmptyInline
	ExpandedEntry
	ExpandedFeed
	EntityReferences
)

func (x Expansion) String() string {
	switch x {
	case Deferred:
		return "Deferred"
	case EmptyInline:
		return "EmptyInline"
	case ExpandedEntry:
		return "ExpandedEntry"
	case ExpandedFeed:
		return "ExpandedFeed"
	case EntityReferences:
		return "EntityReferences"
	default:
		return "<unknown expansion>"
	}
}

func (x Expansion) MarshalText() ([]byte, error) {
	return []byte(x.String()), nil
}

// OperationKind distinguishes advertised actions from functions.
type OperationKind int

const (
	Action OperationKind = iota
	Function
)

func (k OperationKind) String() string {
	if k == Function {
		return "Function"
	}
	return "Action"
}

func (k OperationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
