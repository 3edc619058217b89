package schema

import (
	"errors"
	"testing"

	"github.com/signadot/odata-atom/ir"
)

const testModel = `
types:
- name: NS.Color
  kind: enum
  members: [Red, Green, Blue]
- name: NS.Address
  kind: complex
  properties:
  - {name: Street, type: Edm.String}
  - {name: Lines, type: Collection(Edm.String)}
- name: NS.Person
  kind: entity
  properties:
  - {name: Name, type: Edm.String}
  - {name: Age, type: Edm.Int32, nullable: false, nullHandling: ignore}
- name: NS.Customer
  kind: entity
  base: NS.Person
  open: true
  properties:
  - {name: Home, type: NS.Address}
  - {name: Favorite, type: NS.Color}
  navigation:
  - {name: Orders, type: Collection(NS.Order)}
- name: NS.Order
  kind: entity
  navigation:
  - {name: Customer, type: NS.Customer}
`

func mustModel(t *testing.T) *Model {
	t.Helper()
	m, err := ParseModel([]byte(testModel))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestParseModel(t *testing.T) {
	m := mustModel(t)
	c, ok := m.Lookup("NS.Customer")
	if !ok {
		t.Fatal("NS.Customer not found")
	}
	age := c.Property("Age")
	if age == nil {
		t.Fatal("inherited property Age not found")
	}
	if age.Nullable || age.NullHandling != NullIgnore {
		t.Errorf("Age: nullable=%v handling=%s", age.Nullable, age.NullHandling)
	}
	if p := c.Property("Name"); p == nil || !p.Nullable {
		t.Errorf("Name should be declared and nullable")
	}
	if !c.IsOpen() {
		t.Error("NS.Customer is open")
	}
	nav := c.NavigationProperty("Orders")
	if nav == nil || !nav.IsCollection() || nav.TargetType() != "NS.Order" {
		t.Errorf("Orders: %+v", nav)
	}
	o, _ := m.Lookup("NS.Order")
	if n := o.NavigationProperty("Customer"); n == nil || n.IsCollection() {
		t.Errorf("Customer: %+v", n)
	}
}

func TestParseModelErrors(t *testing.T) {
	tests := []string{
		"types:\n- {name: A, kind: complex, base: B}\n",
		"types:\n- {name: A, kind: complex, properties: [{name: x, type: NS.Missing}]}\n",
		"types:\n- {name: A, kind: entity, navigation: [{name: x, type: A2}]}\n",
		"types:\n- {name: A, kind: widget}\n",
		"types:\n- {name: A, kind: complex}\n- {name: A, kind: complex}\n",
		"types:\n- {name: A, kind: complex, base: B}\n- {name: B, kind: complex, base: A}\n",
		"types:\n- {name: A, kind: complex, properties: [{name: x, type: Edm.String, nullHandling: drop}]}\n",
	}
	for _, doc := range tests {
		if _, err := ParseModel([]byte(doc)); err == nil {
			t.Errorf("expected error for\n%s", doc)
		}
	}
}

func TestLookupDerived(t *testing.T) {
	m := mustModel(t)
	ct, ok := m.Lookup("Collection(NS.Address)")
	if !ok || ct.Kind != CollectionType || ct.Elem.Name != "NS.Address" {
		t.Fatalf("got %+v %v", ct, ok)
	}
	again, _ := m.Lookup("Collection(NS.Address)")
	if again != ct {
		t.Error("expected cached collection type")
	}
	if _, ok := m.Lookup("Collection(Collection(Edm.Int32))"); ok {
		t.Error("nested collections are not types")
	}
	if _, ok := m.Lookup("NS.Nope"); ok {
		t.Error("unexpected type")
	}
	var nilModel *Model
	if pt, ok := nilModel.Lookup("Edm.Guid"); !ok || pt.Kind != PrimitiveType {
		t.Error("primitive lookup without model")
	}
}

func TestIsAssignableFrom(t *testing.T) {
	m := mustModel(t)
	get := func(name string) *Type {
		x, ok := m.Lookup(name)
		if !ok {
			t.Fatalf("%s not found", name)
		}
		return x
	}
	tests := []struct {
		to, from string
		want     bool
	}{
		{"NS.Person", "NS.Customer", true},
		{"NS.Customer", "NS.Person", false},
		{"Edm.Int64", "Edm.Int32", true},
		{"Edm.Int32", "Edm.Int64", false},
		{"Edm.Double", "Edm.Byte", true},
		{"Edm.Decimal", "Edm.Int64", true},
		{"Edm.Decimal", "Edm.Double", false},
		{"Edm.String", "Edm.Int32", false},
		{"Collection(Edm.Int64)", "Collection(Edm.Int32)", true},
		{"Collection(NS.Address)", "NS.Address", false},
	}
	for _, tt := range tests {
		if got := get(tt.to).IsAssignableFrom(get(tt.from)); got != tt.want {
			t.Errorf("%s <- %s: got %v", tt.to, tt.from, got)
		}
	}
}

func TestHasMember(t *testing.T) {
	c, _ := mustModel(t).Lookup("NS.Color")
	if !c.HasMember("Red") || !c.HasMember("Red, Blue") || c.HasMember("Purple") {
		t.Error("enum members")
	}
}

func sniffer(k ir.Kind, calls *int) SniffFunc {
	return func() (ir.Kind, error) {
		*calls++
		return k, nil
	}
}

func TestDefaultResolverWithoutModel(t *testing.T) {
	r := NewResolver(nil)
	tests := []struct {
		name     string
		expected *Type
		payload  string
		sniffed  ir.Kind
		wantType string
		wantKind ir.Kind
		sniffs   int
	}{
		{"untyped text", nil, "", ir.PrimitiveKind, "Edm.String", ir.PrimitiveKind, 1},
		{"untyped complex", nil, "", ir.ComplexKind, "", ir.ComplexKind, 1},
		{"untyped collection", nil, "", ir.CollectionKind, "", ir.CollectionKind, 1},
		{"edm payload", nil, "Edm.Int32", ir.ComplexKind, "Edm.Int32", ir.PrimitiveKind, 0},
		{"enum payload", nil, "NS.Color", ir.PrimitiveKind, "NS.Color", ir.EnumKind, 1},
		{"complex payload", nil, "NS.Address", ir.ComplexKind, "NS.Address", ir.ComplexKind, 1},
		{"collection payload", nil, "Collection(NS.Address)", ir.ComplexKind, "Collection(NS.Address)", ir.CollectionKind, 0},
		{"expected only", &Type{Name: "Edm.Int64", Kind: PrimitiveType}, "", ir.ComplexKind, "Edm.Int64", ir.PrimitiveKind, 0},
	}
	for _, tt := range tests {
		calls := 0
		typ, k, err := r.Resolve(tt.expected, tt.payload, sniffer(tt.sniffed, &calls))
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		name := ""
		if typ != nil {
			name = typ.Name
		}
		if name != tt.wantType || k != tt.wantKind || calls != tt.sniffs {
			t.Errorf("%s: got %q %s (%d sniffs), want %q %s (%d sniffs)", tt.name, name, k, calls, tt.wantType, tt.wantKind, tt.sniffs)
		}
	}
}

func TestDefaultResolverWithModel(t *testing.T) {
	m := mustModel(t)
	r := NewResolver(m)
	person, _ := m.Lookup("NS.Person")
	calls := 0
	typ, k, err := r.Resolve(person, "NS.Customer", sniffer(ir.ComplexKind, &calls))
	if err != nil || typ.Name != "NS.Customer" || k != ir.ComplexKind || calls != 0 {
		t.Errorf("derived type: %v %s %v", typ, k, err)
	}
	if _, _, err := r.Resolve(nil, "NS.Unknown", sniffer(ir.ComplexKind, &calls)); !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
	addr, _ := m.Lookup("NS.Address")
	if _, _, err := r.Resolve(addr, "NS.Person", sniffer(ir.ComplexKind, &calls)); !errors.Is(err, ErrIncompatibleType) {
		t.Errorf("expected ErrIncompatibleType, got %v", err)
	}
	i32, _ := m.Lookup("Edm.Int32")
	if _, _, err := r.Resolve(i32, "Edm.String", sniffer(ir.PrimitiveKind, &calls)); !errors.Is(err, ErrIncompatibleType) {
		t.Errorf("expected ErrIncompatibleType, got %v", err)
	}
}
