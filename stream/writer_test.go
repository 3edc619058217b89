package stream

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/signadot/odata-atom/edm"
	"github.com/signadot/odata-atom/ir"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func writeEntry(t *testing.T, e *ir.Entry, opts ...Option) string {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteEntry(&buf, e, opts...); err != nil {
		t.Fatalf("WriteEntry: %v", err)
	}
	return buf.String()
}

func roundTripEntry(t *testing.T, e *ir.Entry, opts ...Option) *ir.Entry {
	t.Helper()
	doc := writeEntry(t, e, opts...)
	got, err := ReadEntry(strings.NewReader(doc), opts...)
	if err != nil {
		t.Fatalf("ReadEntry: %v\n%s", err, doc)
	}
	return got
}

func sampleEntry() *ir.Entry {
	born, _ := edm.ParseDate("1984-02-29")
	seen := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	return &ir.Entry{
		ID:       "http://svc/People(1)",
		ETag:     `W/"1"`,
		TypeName: "NS.Person",
		EditLink: "http://svc/People(1)",
		ReadLink: "http://svc/People(1)/read",
		Properties: []ir.Property{
			ir.Prop("Name", ir.String("Ann & <Co>")),
			ir.Prop("Age", ir.Int32(41)),
			ir.Prop("Score", ir.Double(1.5)),
			ir.Prop("Total", ir.Primitive(edm.DecimalType, edm.MustDecimal("10.25"))),
			ir.Prop("Born", ir.Primitive(edm.DateType, born)),
			ir.Prop("Seen", ir.Primitive(edm.DateTimeOffsetType, seen)),
			ir.Prop("Key", ir.Primitive(edm.GuidType, uuid.MustParse("0b8b4f5e-8d1c-4a37-9d0f-2f3a8c1e7b11"))),
			ir.Prop("Blob", ir.Primitive(edm.BinaryType, []byte{0, 1, 2, 250})),
			ir.Prop("Nothing", ir.Null()),
			ir.Prop("Home", ir.Complex("NS.Address",
				ir.Prop("Street", ir.String("Main")),
				ir.Prop("Lines", ir.Collection("Collection(Edm.String)", ir.String("a"), ir.String("b"))))),
			ir.Prop("Tags", ir.Collection("Collection(Edm.String)", ir.String("x"), ir.Null())),
			ir.Prop("Color", ir.Enum("NS.Color", "Red")),
		},
		NavigationLinks: []*ir.NavigationLink{
			{
				Name:           "Orders",
				IsCollection:   ir.BoolPtr(true),
				URL:            "http://svc/People(1)/Orders",
				AssociationURL: "http://svc/People(1)/Orders/$ref",
			},
			{
				Name:         "Best",
				IsCollection: ir.BoolPtr(false),
				URL:          "http://svc/People(1)/Best",
				Expansion:    ir.ExpandedEntry,
				Entry: &ir.Entry{
					ID:         "http://svc/People(2)",
					Properties: []ir.Property{ir.Prop("Name", ir.String("Bo"))},
				},
			},
			{
				Name:         "Friends",
				IsCollection: ir.BoolPtr(true),
				URL:          "http://svc/People(1)/Friends",
				Expansion:    ir.ExpandedFeed,
				Feed: &ir.Feed{
					Count:        ir.Int64Ptr(5),
					NextPageLink: "http://svc/People(1)/Friends?$skip=1",
					Entries:      []*ir.Entry{{ID: "http://svc/People(3)"}},
				},
			},
			{
				Name:         "Pets",
				IsCollection: ir.BoolPtr(true),
				URL:          "http://svc/People(1)/Pets",
				Expansion:    ir.EntityReferences,
				References:   []string{"http://svc/Pets(1)", "http://svc/Pets(2)"},
			},
			{
				Name:         "Boss",
				IsCollection: ir.BoolPtr(false),
				URL:          "http://svc/People(1)/Boss",
				Expansion:    ir.EmptyInline,
			},
		},
		AssociationLinks: []ir.AssociationLink{{Name: "Cars", URL: "http://svc/People(1)/Cars/$ref"}},
		StreamProperties: []ir.StreamProperty{{
			Name: "Photo",
			Stream: ir.StreamRef{
				ReadLink:    "http://svc/People(1)/Photo/$value",
				EditLink:    "http://svc/People(1)/Photo",
				ContentType: "image/jpeg",
				ETag:        "p1",
			},
		}},
		Operations: []ir.Operation{
			{Kind: ir.Action, Metadata: "#NS.Promote", Title: "Promote", Target: "http://svc/People(1)/NS.Promote"},
			{Kind: ir.Function, Metadata: "#NS.Rank", Target: "http://svc/People(1)/NS.Rank"},
		},
		Annotations: []ir.InstanceAnnotation{
			{Term: "Core.Note", Value: ir.String("hi")},
			{Term: "NS.Scores", Target: ".", Value: ir.Collection("Collection(Edm.Int32)", ir.Int32(1), ir.Int32(2))},
		},
		Links: []ir.Link{{
			Rel: "alternate", Href: "http://svc/p1.html", Type: "text/html",
			Title: "Ann", HrefLang: "en-US", Length: ir.Int64Ptr(100),
		}},
	}
}

func TestRoundTripEntry(t *testing.T) {
	e := sampleEntry()
	got := roundTripEntry(t, e, WithMetadataReading(true))
	if diff := cmp.Diff(e, got, cmpOpts...); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	t.Run("empty typed values", func(t *testing.T) {
		e := &ir.Entry{
			ID:       "http://svc/E(1)",
			EditLink: "http://svc/E(1)",
			ReadLink: "http://svc/E(1)",
			Properties: []ir.Property{
				ir.Prop("Home", ir.Complex("NS.Address")),
				ir.Prop("Tags", ir.Collection("Collection(Edm.String)")),
				ir.Prop("Homes", ir.Collection("Collection(NS.Address)", ir.Complex("NS.Address"))),
			},
		}
		got := roundTripEntry(t, e)
		if diff := cmp.Diff(e, got, cmpOpts...); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("read link defaults to edit link", func(t *testing.T) {
		e := &ir.Entry{ID: "http://svc/E(1)", EditLink: "http://svc/E(1)"}
		got := roundTripEntry(t, e)
		if got.ReadLink != e.EditLink {
			t.Errorf("read link %q, want %q", got.ReadLink, e.EditLink)
		}
		got.ReadLink = ""
		if diff := cmp.Diff(e, got, cmpOpts...); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestRoundTripIndented(t *testing.T) {
	e := &ir.Entry{
		ID: "http://svc/People(1)",
		Properties: []ir.Property{
			ir.Prop("Age", ir.Int32(41)),
			ir.Prop("Home", ir.Complex("", ir.Prop("Zip", ir.Int32(12345)))),
			ir.Prop("Codes", ir.Collection("Collection(Edm.Int64)", ir.Int64(1), ir.Int64(2))),
		},
		NavigationLinks: []*ir.NavigationLink{{
			Name:         "Best",
			IsCollection: ir.BoolPtr(false),
			Expansion:    ir.ExpandedEntry,
			Entry:        &ir.Entry{ID: "http://svc/People(2)"},
		}},
	}
	doc := writeEntry(t, e, WithIndent(true))
	if !strings.Contains(doc, "\n") {
		t.Errorf("output not indented:\n%s", doc)
	}
	got, err := ReadEntry(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(e, got, cmpOpts...); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripWithModel(t *testing.T) {
	m := mustModel(t)
	e := &ir.Entry{
		ID:       "http://svc/Customers(1)",
		TypeName: "NS.Customer",
		EditLink: "http://svc/Customers(1)",
		ReadLink: "http://svc/Customers(1)",
		Properties: []ir.Property{
			ir.Prop("Name", ir.String("Ann")),
			ir.Prop("Age", ir.Int32(41)),
			ir.Prop("Home", ir.Complex("NS.Address",
				ir.Prop("Lines", ir.Collection("Collection(Edm.String)", ir.String("a"))))),
			ir.Prop("Favorite", ir.Enum("NS.Color", "Blue")),
			ir.Prop("Extra", ir.Int64(9)),
		},
		NavigationLinks: []*ir.NavigationLink{{
			Name:         "Orders",
			IsCollection: ir.BoolPtr(true),
			URL:          "http://svc/Customers(1)/Orders",
			Expansion:    ir.ExpandedFeed,
			Feed: &ir.Feed{Entries: []*ir.Entry{{
				ID:         "http://svc/Orders(7)",
				TypeName:   "NS.Order",
				Properties: []ir.Property{ir.Prop("Total", ir.Primitive(edm.DecimalType, edm.MustDecimal("3.5")))},
			}}},
		}},
	}
	doc := writeEntry(t, e, WithModel(m))
	for _, s := range []string{`<d:Age>41</d:Age>`, `<d:Favorite>Blue</d:Favorite>`, `<d:Total>3.5</d:Total>`} {
		if !strings.Contains(doc, s) {
			t.Errorf("declared property not written without a type: %s\n%s", s, doc)
		}
	}
	if !strings.Contains(doc, `Edm.Int64`) {
		t.Errorf("open property written without its type\n%s", doc)
	}
	got, err := ReadEntry(strings.NewReader(doc), WithModel(m))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(e, got, cmpOpts...); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteWireTypeName(t *testing.T) {
	e := &ir.Entry{Properties: []ir.Property{
		ir.Prop("Hidden", ir.Int32(1).WithWireTypeName("")),
		ir.Prop("Shown", ir.String("x")),
		ir.Prop("Renamed", ir.String("y").WithWireTypeName("NS.Code")),
	}}
	doc := writeEntry(t, e)
	for _, s := range []string{`<d:Hidden>1</d:Hidden>`, `Edm.String`, `NS.Code`} {
		if !strings.Contains(doc, s) {
			t.Errorf("missing %s in\n%s", s, doc)
		}
	}
}

func TestRoundTripFeed(t *testing.T) {
	f := &ir.Feed{
		ID:           "http://svc/People",
		Count:        ir.Int64Ptr(2),
		NextPageLink: "http://svc/People?$skip=2",
		DeltaLink:    "http://svc/People?$deltatoken=1",
		Entries: []*ir.Entry{
			{ID: "http://svc/People(1)", Properties: []ir.Property{ir.Prop("Name", ir.String("A"))}},
			{
				ID:            "http://svc/People(2)",
				EditLink:      "http://svc/People(2)",
				ReadLink:      "http://svc/People(2)",
				MediaResource: &ir.StreamRef{ReadLink: "http://svc/People(2)/$value", EditLink: "http://svc/People(2)/$value", ContentType: "image/png", ETag: "m"},
				Properties:    []ir.Property{ir.Prop("Name", ir.String("B"))},
			},
		},
		Annotations: []ir.InstanceAnnotation{{Term: "NS.Note", Value: ir.Bool(true)}},
		Links:       []ir.Link{{Rel: "alternate", Href: "http://svc/people.html"}},
	}
	var buf bytes.Buffer
	if err := WriteFeed(&buf, f); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFeed(&buf, WithMetadataReading(true))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(f, got, cmpOpts...); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteTransient(t *testing.T) {
	e := &ir.Entry{Transient: true}
	doc := writeEntry(t, e, WithTransientIDs(func() string { return "abc" }))
	if !strings.Contains(doc, "odata:transient:abc") {
		t.Errorf("no transient id in\n%s", doc)
	}
	got := roundTripEntry(t, e)
	if !got.Transient || got.ID != "" {
		t.Errorf("read back %+v", got)
	}
}

func TestWriteRequest(t *testing.T) {
	e := sampleEntry()
	got := roundTripEntry(t, e, WithResponse(false))
	if got.ReadLink != e.EditLink {
		t.Errorf("self link written in a request: %q", got.ReadLink)
	}
	if len(got.StreamProperties) != 0 || len(got.AssociationLinks) != 0 {
		t.Errorf("response links written in a request: %+v %+v", got.StreamProperties, got.AssociationLinks)
	}
	if l := got.NavigationLink("Orders"); l == nil || l.AssociationURL != "" {
		t.Errorf("Orders: %+v", l)
	}
}

func TestWriteStreaming(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	order := &ir.Entry{ID: "http://svc/Orders(1)"}
	steps := []func() error{
		func() error { return w.StartEntry(order) },
		func() error {
			return w.StartNavigationLink(&ir.NavigationLink{Name: "Items", Expansion: ir.ExpandedFeed})
		},
		func() error { return w.StartFeed(&ir.Feed{}) },
		func() error { return w.WriteEntry(&ir.Entry{ID: "http://svc/Items(1)"}) },
		func() error { return w.WriteEntry(&ir.Entry{ID: "http://svc/Items(2)"}) },
		w.End,
		w.End,
		func() error {
			// filled in after the header was written
			order.Properties = []ir.Property{ir.Prop("N", ir.Int32(2))}
			order.EditLink = "http://svc/Orders(1)"
			return nil
		},
		w.End,
		w.Close,
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	got, err := ReadEntry(&buf)
	if err != nil {
		t.Fatal(err)
	}
	items := got.NavigationLink("Items")
	if items == nil || items.Feed == nil || len(items.Feed.Entries) != 2 {
		t.Fatalf("Items: %+v", items)
	}
	if got.EditLink != "http://svc/Orders(1)" || got.Property("N") == nil {
		t.Errorf("late parts not written: %+v", got)
	}
}

func TestWriterState(t *testing.T) {
	tests := []struct {
		name  string
		steps func(w *Writer) error
	}{
		{"end with nothing open", func(w *Writer) error { return w.End() }},
		{"link outside entry", func(w *Writer) error {
			return w.StartNavigationLink(&ir.NavigationLink{Name: "X"})
		}},
		{"link in feed", func(w *Writer) error {
			if err := w.StartFeed(&ir.Feed{}); err != nil {
				return err
			}
			return w.StartNavigationLink(&ir.NavigationLink{Name: "X"})
		}},
		{"reference outside link", func(w *Writer) error {
			if err := w.StartEntry(&ir.Entry{}); err != nil {
				return err
			}
			return w.WriteEntityReference("http://a")
		}},
		{"feed in entry", func(w *Writer) error {
			if err := w.StartEntry(&ir.Entry{}); err != nil {
				return err
			}
			return w.StartFeed(&ir.Feed{})
		}},
		{"close with open elements", func(w *Writer) error {
			if err := w.StartEntry(&ir.Entry{}); err != nil {
				return err
			}
			return w.Close()
		}},
		{"write after completion", func(w *Writer) error {
			if err := w.WriteEntry(&ir.Entry{}); err != nil {
				return err
			}
			return w.StartEntry(&ir.Entry{})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := tt.steps(NewWriter(&buf))
			if !errors.Is(err, ErrWriterState) {
				t.Fatalf("got %v, want %v", err, ErrWriterState)
			}
		})
	}
}

func TestWriteErrors(t *testing.T) {
	m := mustModel(t)
	nested := func(k int) *ir.Value {
		v := ir.String("x")
		for i := 0; i < k; i++ {
			v = ir.Collection("", v)
		}
		return v
	}
	tests := []struct {
		name string
		e    *ir.Entry
		opts []Option
		kind error
	}{
		{
			name: "transient with id",
			e:    &ir.Entry{ID: "http://a", Transient: true},
			kind: ErrProtocolViolation,
		},
		{
			name: "duplicate property",
			e:    &ir.Entry{Properties: []ir.Property{ir.Prop("A", ir.Int32(1)), ir.Prop("A", ir.Int32(2))}},
			kind: ErrDuplicateElement,
		},
		{
			name: "bad primitive",
			e:    &ir.Entry{Properties: []ir.Property{ir.Prop("A", ir.Primitive(edm.Int32Type, "one"))}},
			kind: ErrTypeConversion,
		},
		{
			name: "empty untyped complex",
			e:    &ir.Entry{Properties: []ir.Property{ir.Prop("A", ir.Complex(""))}},
			kind: ErrTypeConversion,
		},
		{
			name: "empty untyped collection",
			e:    &ir.Entry{Properties: []ir.Property{ir.Prop("A", ir.Collection(""))}},
			kind: ErrTypeConversion,
		},
		{
			name: "enum without member",
			e:    &ir.Entry{Properties: []ir.Property{ir.Prop("A", ir.Enum("NS.Color", ""))}},
			kind: ErrTypeConversion,
		},
		{
			name: "annotation without term",
			e:    &ir.Entry{Annotations: []ir.InstanceAnnotation{{Value: ir.Int32(1)}}},
			kind: ErrMissingAttribute,
		},
		{
			name: "bad hreflang",
			e:    &ir.Entry{Links: []ir.Link{{Rel: "alternate", Href: "http://a", HrefLang: "not a tag!"}}},
			kind: ErrMalformedStructure,
		},
		{
			name: "recursion",
			e:    &ir.Entry{Properties: []ir.Property{ir.Prop("A", nested(4))}},
			opts: []Option{WithMaxNestingDepth(3)},
			kind: ErrRecursionLimit,
		},
		{
			name: "entry in collection link",
			e: &ir.Entry{NavigationLinks: []*ir.NavigationLink{{
				Name: "X", IsCollection: ir.BoolPtr(true), Expansion: ir.ExpandedEntry, Entry: &ir.Entry{},
			}}},
			kind: ErrProtocolViolation,
		},
		{
			name: "delta link in expanded feed",
			e: &ir.Entry{NavigationLinks: []*ir.NavigationLink{{
				Name: "X", Expansion: ir.ExpandedFeed, Feed: &ir.Feed{DeltaLink: "http://d"},
			}}},
			kind: ErrProtocolViolation,
		},
		{
			name: "non-nullable",
			e:    &ir.Entry{TypeName: "NS.Person", Properties: []ir.Property{ir.Prop("Age", ir.Null())}},
			opts: []Option{WithModel(m)},
			kind: ErrNotNullable,
		},
		{
			name: "undeclared property",
			e:    &ir.Entry{TypeName: "NS.Person", Properties: []ir.Property{ir.Prop("Shoe", ir.Int32(9))}},
			opts: []Option{WithModel(m)},
			kind: ErrInvalidReference,
		},
		{
			name: "navigation property as value",
			e:    &ir.Entry{TypeName: "NS.Customer", Properties: []ir.Property{ir.Prop("Orders", ir.Int32(9))}},
			opts: []Option{WithModel(m)},
			kind: ErrProtocolViolation,
		},
		{
			name: "unknown type",
			e:    &ir.Entry{TypeName: "NS.Nope"},
			opts: []Option{WithModel(m)},
			kind: ErrInvalidReference,
		},
		{
			name: "incompatible complex type",
			e: &ir.Entry{TypeName: "NS.Customer", Properties: []ir.Property{
				ir.Prop("Home", ir.Complex("NS.Person")),
			}},
			opts: []Option{WithModel(m)},
			kind: ErrTypeConversion,
		},
		{
			name: "undeclared navigation link",
			e: &ir.Entry{TypeName: "NS.Person", NavigationLinks: []*ir.NavigationLink{{
				Name: "Orders",
			}}},
			opts: []Option{WithModel(m)},
			kind: ErrInvalidReference,
		},
		{
			name: "cardinality against declaration",
			e: &ir.Entry{TypeName: "NS.Customer", NavigationLinks: []*ir.NavigationLink{{
				Name: "Orders", IsCollection: ir.BoolPtr(false),
			}}},
			opts: []Option{WithModel(m)},
			kind: ErrProtocolViolation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf, tt.opts...)
			err := w.WriteEntry(tt.e)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("got %v, want %v", err, tt.kind)
			}
			if again := w.End(); again != err {
				t.Errorf("error is not sticky: %v", again)
			}
		})
	}
}

func TestWriteExpansionDepth(t *testing.T) {
	expand := func(e *ir.Entry) *ir.Entry {
		return &ir.Entry{NavigationLinks: []*ir.NavigationLink{{
			Name:      "Best",
			URL:       "http://svc/Best",
			Expansion: ir.ExpandedEntry,
			Entry:     e,
		}}}
	}
	inner := &ir.Entry{Properties: []ir.Property{ir.Prop("A", ir.Collection("", ir.String("x")))}}
	var buf bytes.Buffer
	if err := WriteEntry(&buf, expand(inner), WithMaxNestingDepth(1)); err != nil {
		t.Fatalf("value inside an expanded entry: %v", err)
	}
	buf.Reset()
	err := WriteEntry(&buf, expand(expand(&ir.Entry{})), WithMaxNestingDepth(1))
	if !errors.Is(err, ErrRecursionLimit) {
		t.Errorf("expansions past the limit: got %v", err)
	}
}

func TestWriteDepthWithinLimit(t *testing.T) {
	v := ir.Collection("", ir.Collection("", ir.Collection("", ir.String("x"))))
	var buf bytes.Buffer
	e := &ir.Entry{Properties: []ir.Property{ir.Prop("A", v)}}
	if err := WriteEntry(&buf, e, WithMaxNestingDepth(3)); err != nil {
		t.Fatal(err)
	}
	got, err := ReadEntry(&buf, WithMaxNestingDepth(3))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(e.Properties, got.Properties, cmpOpts...); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
