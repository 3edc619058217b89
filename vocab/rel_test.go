package vocab

import "testing"

func TestIsRelation(t *testing.T) {
	tests := []struct {
		rel   string
		token string
		want  bool
	}{
		{"self", RelSelf, true},
		{IANARelationPrefix + "self", RelSelf, true},
		{IANARelationPrefix + "edit", RelSelf, false},
		{"Self", RelSelf, false},
		{IANARelationPrefix, RelSelf, false},
		{"edit-media", RelEditMedia, true},
		{RelIANANext, RelNext, true},
	}
	for _, tt := range tests {
		if got := IsRelation(tt.rel, tt.token); got != tt.want {
			t.Errorf("IsRelation(%q, %q) = %v, want %v", tt.rel, tt.token, got, tt.want)
		}
	}
}

func TestRelationName(t *testing.T) {
	name, ok := RelationName(RelNavigationPrefix+"Customer", RelNavigationPrefix)
	if !ok || name != "Customer" {
		t.Errorf("got %q %v", name, ok)
	}
	if _, ok := RelationName(RelNavigationPrefix, RelNavigationPrefix); ok {
		t.Error("empty name should not match")
	}
	if _, ok := RelationName(RelAssociationPrefix+"Customer", RelNavigationPrefix); ok {
		t.Error("relatedlinks must not match the related prefix")
	}
}

func TestLinkCardinality(t *testing.T) {
	tests := []struct {
		in         string
		collection *bool
		atom       bool
	}{
		{"application/atom+xml;type=entry", boolp(false), true},
		{"application/atom+xml;type=feed", boolp(true), true},
		{"application/atom+xml; type=FEED", boolp(true), true},
		{"application/atom+xml; charset=utf-8; Type=Entry", boolp(false), true},
		{"application/atom+xml", nil, true},
		{"application/atom+xml;type=other", nil, true},
		{"application/json", nil, false},
		{"", nil, false},
		{"not a media type;;", nil, false},
	}
	for _, tt := range tests {
		got, atom := LinkCardinality(tt.in)
		if atom != tt.atom {
			t.Errorf("%q: atom = %v, want %v", tt.in, atom, tt.atom)
		}
		switch {
		case got == nil && tt.collection == nil:
		case got == nil || tt.collection == nil || *got != *tt.collection:
			t.Errorf("%q: collection = %v, want %v", tt.in, got, tt.collection)
		}
	}
}

func TestLinkType(t *testing.T) {
	for _, in := range []string{MediaTypeAtomEntry, MediaTypeAtomFeed} {
		c, _ := LinkCardinality(in)
		if got := LinkType(c); got != in {
			t.Errorf("got %q want %q", got, in)
		}
	}
	if got := LinkType(nil); got != MediaTypeAtom {
		t.Errorf("got %q", got)
	}
}

func TestIsTransientID(t *testing.T) {
	if !IsTransientID("odata:transient:1234") || !IsTransientID("ODATA:Transient:x") {
		t.Error("expected transient")
	}
	if IsTransientID("http://svc/Orders(1)") || IsTransientID("odata:") {
		t.Error("expected not transient")
	}
}

func TestShorthandAttrFor(t *testing.T) {
	if a, ok := ShorthandAttrFor("Edm.Int32"); !ok || a != AttrInt {
		t.Errorf("got %q %v", a, ok)
	}
	if _, ok := ShorthandAttrFor("Edm.Int64"); ok {
		t.Error("Edm.Int64 has no shorthand")
	}
}
