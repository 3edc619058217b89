// Package schema describes the types a payload may be validated against and
// resolves payload type names to them.
package schema

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/signadot/odata-atom/edm"
	"github.com/signadot/odata-atom/ir"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	ErrUnknownType      = errors.New("unknown type")
	ErrIncompatibleType = errors.New("incompatible type")
	ErrDuplicateType    = errors.New("duplicate type")
)

type TypeKind int

const (
	PrimitiveType TypeKind = iota
	EnumType
	ComplexType
	EntityType
	CollectionType
)

func (k TypeKind) String() string {
	switch k {
	case PrimitiveType:
		return "primitive"
	case EnumType:
		return "enum"
	case ComplexType:
		return "complex"
	case EntityType:
		return "entity"
	case CollectionType:
		return "collection"
	}
	return "<unknown type kind>"
}

func ParseTypeKind(s string) (TypeKind, error) {
	for _, k := range []TypeKind{PrimitiveType, EnumType, ComplexType, EntityType, CollectionType} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unrecognized type kind %q", s)
}

// ValueKind is the kind of value an instance of a type has.
func (k TypeKind) ValueKind() ir.Kind {
	switch k {
	case EnumType:
		return ir.EnumKind
	case ComplexType, EntityType:
		return ir.ComplexKind
	case CollectionType:
		return ir.CollectionKind
	default:
		return ir.PrimitiveKind
	}
}

// NullHandling selects what a response reader does with a null property.
type NullHandling int

const (
	// NullDefault keeps the property with a null value.
	NullDefault NullHandling = iota
	// NullIgnore drops the property.
	NullIgnore
)

func (h NullHandling) String() string {
	if h == NullIgnore {
		return "ignore"
	}
	return "default"
}

type Type struct {
	Name     string
	Kind     TypeKind
	BaseType string
	Open     bool
	Members  []string

	Properties []*Property
	Navigation []*NavigationProperty

	// Elem and ElemNullable describe the items of a collection type.
	Elem         *Type
	ElemNullable bool

	base *Type
}

type Property struct {
	Name         string
	Type         string
	Nullable     bool
	NullHandling NullHandling
}

type NavigationProperty struct {
	Name string
	// Type is the target entity type, or Collection of it.
	Type string
}

func (n *NavigationProperty) IsCollection() bool {
	return ir.ItemTypeName(n.Type) != ""
}

func (n *NavigationProperty) TargetType() string {
	if it := ir.ItemTypeName(n.Type); it != "" {
		return it
	}
	return n.Type
}

// Property returns the declared structural property, searching base types.
func (t *Type) Property(name string) *Property {
	for x := t; x != nil; x = x.base {
		for _, p := range x.Properties {
			if p.Name == name {
				return p
			}
		}
	}
	return nil
}

// NavigationProperty returns the declared navigation property, searching
// base types.
func (t *Type) NavigationProperty(name string) *NavigationProperty {
	for x := t; x != nil; x = x.base {
		for _, n := range x.Navigation {
			if n.Name == name {
				return n
			}
		}
	}
	return nil
}

// IsOpen reports whether t or any of its base types admits undeclared
// properties.
func (t *Type) IsOpen() bool {
	for x := t; x != nil; x = x.base {
		if x.Open {
			return true
		}
	}
	return false
}

// HasMember reports whether raw names enum members of t. Flags values list
// members separated by commas. A type with no declared members accepts any.
func (t *Type) HasMember(raw string) bool {
	if len(t.Members) == 0 {
		return true
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		found := false
		for _, m := range t.Members {
			if m == part {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

var primitiveRank = map[string]int{
	edm.SByteType:  1,
	edm.ByteType:   1,
	edm.Int16Type:  2,
	edm.Int32Type:  3,
	edm.Int64Type:  4,
	edm.SingleType: 5,
	edm.DoubleType: 6,
}

// IsAssignableFrom reports whether a value of type u may appear where t is
// expected: u is t, derives from t, is a narrower numeric primitive, or
// both are collections of assignable items.
func (t *Type) IsAssignableFrom(u *Type) bool {
	if t == nil || u == nil {
		return true
	}
	if t.Kind == CollectionType || u.Kind == CollectionType {
		if t.Kind != u.Kind {
			return false
		}
		return t.Elem.IsAssignableFrom(u.Elem)
	}
	for x := u; x != nil; x = x.base {
		if x.Name == t.Name {
			return true
		}
	}
	if t.Kind == PrimitiveType && u.Kind == PrimitiveType {
		rt, rok := primitiveRank[t.Name]
		ru, uok := primitiveRank[u.Name]
		if uok && t.Name == edm.DecimalType && ru <= primitiveRank[edm.Int64Type] {
			return true
		}
		return rok && uok && ru <= rt
	}
	return false
}

// Model is a set of named types. It is safe for concurrent use once built.
type Model struct {
	mu     sync.RWMutex
	byName map[string]*Type

	// synthesized primitive and collection types
	derived *lru.Cache[string, *Type]
}

func NewModel(types ...*Type) (*Model, error) {
	cache, err := lru.New[string, *Type](256)
	if err != nil {
		return nil, err
	}
	m := &Model{byName: make(map[string]*Type), derived: cache}
	for _, t := range types {
		if err := m.Register(t); err != nil {
			return nil, err
		}
	}
	if err := m.Link(); err != nil {
		return nil, err
	}
	return m, nil
}

// Register adds a named type. Call Link once all types are registered.
func (m *Model) Register(t *Type) error {
	if t == nil {
		return fmt.Errorf("cannot register nil type")
	}
	if t.Name == "" {
		return fmt.Errorf("type must have a name")
	}
	if edm.IsPrimitive(t.Name) || ir.ItemTypeName(t.Name) != "" {
		return fmt.Errorf("%w: %q is reserved", ErrDuplicateType, t.Name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byName[t.Name]; exists {
		return fmt.Errorf("%w: %q already registered", ErrDuplicateType, t.Name)
	}
	m.byName[t.Name] = t
	m.derived.Purge()
	return nil
}

// Link resolves base types and checks that property and navigation types
// exist.
func (m *Model) Link() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byName {
		t.base = nil
		if t.BaseType != "" {
			b, ok := m.byName[t.BaseType]
			if !ok {
				return fmt.Errorf("%w %q: base of %s", ErrUnknownType, t.BaseType, t.Name)
			}
			if b.Kind != t.Kind {
				return fmt.Errorf("%w: %s %s derives from %s %s", ErrIncompatibleType, t.Kind, t.Name, b.Kind, b.Name)
			}
			t.base = b
		}
	}
	for _, t := range m.byName {
		seen := map[*Type]bool{}
		for x := t; x != nil; x = x.base {
			if seen[x] {
				return fmt.Errorf("%w: base type cycle at %s", ErrIncompatibleType, t.Name)
			}
			seen[x] = true
		}
		for _, p := range t.Properties {
			if _, ok := m.lookupLocked(p.Type); !ok {
				return fmt.Errorf("%w %q: property %s.%s", ErrUnknownType, p.Type, t.Name, p.Name)
			}
		}
		for _, n := range t.Navigation {
			target, ok := m.byName[n.TargetType()]
			if !ok || target.Kind != EntityType {
				return fmt.Errorf("%w %q: navigation %s.%s", ErrUnknownType, n.Type, t.Name, n.Name)
			}
		}
	}
	return nil
}

// Lookup returns the type called name. Edm primitive names and
// Collection(...) names are always known when their item type is.
func (m *Model) Lookup(name string) (*Type, bool) {
	if m == nil {
		return builtin(name)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lookupLocked(name)
}

func (m *Model) lookupLocked(name string) (*Type, bool) {
	if t, ok := m.byName[name]; ok {
		return t, true
	}
	if t, ok := m.derived.Get(name); ok {
		return t, true
	}
	if edm.IsPrimitive(name) {
		t := &Type{Name: name, Kind: PrimitiveType}
		m.derived.Add(name, t)
		return t, true
	}
	if it := ir.ItemTypeName(name); it != "" {
		elem, ok := m.lookupLocked(it)
		if !ok || elem.Kind == CollectionType {
			return nil, false
		}
		t := &Type{Name: name, Kind: CollectionType, Elem: elem, ElemNullable: true}
		m.derived.Add(name, t)
		return t, true
	}
	return nil, false
}

func builtin(name string) (*Type, bool) {
	if edm.IsPrimitive(name) {
		return &Type{Name: name, Kind: PrimitiveType}, true
	}
	if it := ir.ItemTypeName(name); it != "" && edm.IsPrimitive(it) {
		return &Type{Name: name, Kind: CollectionType, Elem: &Type{Name: it, Kind: PrimitiveType}, ElemNullable: true}, true
	}
	return nil, false
}

// Types returns the registered named types.
func (m *Model) Types() map[string]*Type {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make(map[string]*Type, len(m.byName))
	for k, v := range m.byName {
		res[k] = v
	}
	return res
}

// PropertyType returns the declared type of p.
func (m *Model) PropertyType(p *Property) (*Type, error) {
	t, ok := m.Lookup(p.Type)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, p.Type)
	}
	return t, nil
}
