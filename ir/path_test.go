package ir

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPathRoundTrip(t *testing.T) {
	for _, p := range []string{
		"$.Address.Street",
		"$.Lines[2]",
		"$.Lines[*].Name",
		"$.'a.b'[0]",
		"$[1][0]",
	} {
		pp, err := ParsePath(p)
		if err != nil {
			t.Fatalf("%s: %v", p, err)
		}
		if got := pp.String(); got != p {
			t.Errorf("got %q want %q", got, p)
		}
	}
}

func TestParsePathErrors(t *testing.T) {
	for _, p := range []string{"", "a", "$.", "$[x]", "$['open", "$x"} {
		if _, err := ParsePath(p); !errors.Is(err, ErrPath) {
			t.Errorf("%q: expected ErrPath, got %v", p, err)
		}
	}
}

func TestJoin(t *testing.T) {
	p := Join(FieldPath("Address"), FieldPath("Lines"), IndexPath(3))
	if got := p.String(); got != "$.Address.Lines[3]" {
		t.Errorf("got %q", got)
	}
	if Join() != nil {
		t.Error("empty join should be nil")
	}
}

func testValue() *Value {
	return Complex("NS.Customer",
		Prop("Name", String("ann")),
		Prop("Address", Complex("NS.Address",
			Prop("Lines", Collection("Collection(Edm.String)", String("l0"), String("l1"))),
		)),
		Prop("Phones", Collection("",
			Complex("", Prop("Number", String("1"))),
			Complex("", Prop("Number", String("2"))),
		)),
	)
}

func TestGetPath(t *testing.T) {
	v := testValue()
	got, err := v.GetPath("$.Address.Lines[1]")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(String("l1"), got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if _, err := v.GetPath("$.Address.Lines[2]"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := v.GetPath("$.Missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	root, err := v.GetPath("$")
	if err != nil || root != v {
		t.Errorf("$ should address the value itself")
	}
}

func TestListPath(t *testing.T) {
	vs, err := testValue().ListPath(nil, "$.Phones[*].Number")
	if err != nil {
		t.Fatal(err)
	}
	want := []*Value{String("1"), String("2")}
	if diff := cmp.Diff(want, vs); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestClone(t *testing.T) {
	v := testValue().Derived()
	c := v.Clone()
	if diff := cmp.Diff(v, c); diff != "" {
		t.Fatalf("clone differs:\n%s", diff)
	}
	c.Properties[0].Value.Scalar = "bob"
	*c.WireTypeName = "X"
	if v.Get("Name").Scalar != "ann" || *v.WireTypeName != "" {
		t.Error("clone shares state with original")
	}
}

func TestItemTypeName(t *testing.T) {
	tests := map[string]string{
		"Collection(Edm.Int32)": "Edm.Int32",
		"Edm.Int32":             "",
		"Collection(":           "",
	}
	for in, want := range tests {
		if got := ItemTypeName(in); got != want {
			t.Errorf("%q: got %q want %q", in, got, want)
		}
	}
	if CollectionOf("NS.T") != "Collection(NS.T)" {
		t.Error("CollectionOf")
	}
}
