package token

import (
	"encoding/xml"
	"testing"
)

func TestTokenString(t *testing.T) {
	for _, ts := range []struct {
		tok Token
		out string
	}{
		{Token{Kind: KindStart, Name: xml.Name{Space: "urn:a", Local: "x"}}, "<x> (urn:a)"},
		{Token{Kind: KindEnd, Name: xml.Name{Local: "x"}}, "</x> ()"},
		{Token{Kind: KindText, Text: "a\n"}, `Text "a\n"`},
		{Token{Kind: KindEOF}, "EOF"},
	} {
		if got := ts.tok.String(); got != ts.out {
			t.Errorf("got %q want %q", got, ts.out)
		}
	}
}

func TestTokenAttrValue(t *testing.T) {
	tok := Token{Kind: KindStart, Attr: []xml.Attr{
		{Name: xml.Name{Space: "xml", Local: "base"}, Value: "http://a/"},
		{Name: xml.Name{Space: "urn:m", Local: "type"}, Value: "Edm.Int32"},
	}}
	if v, ok := tok.AttrValue(XMLNamespace, "base"); !ok || v != "http://a/" {
		t.Errorf("xml:base: got %q %v", v, ok)
	}
	if v, ok := tok.AttrValue("urn:m", "type"); !ok || v != "Edm.Int32" {
		t.Errorf("m:type: got %q %v", v, ok)
	}
	if _, ok := tok.AttrValue("", "type"); ok {
		t.Error("unqualified type should not match m:type")
	}
}

func TestTokenWhitespace(t *testing.T) {
	if !(&Token{Kind: KindText, Text: " \r\n\t"}).IsWhitespace() {
		t.Error("expected whitespace")
	}
	if (&Token{Kind: KindText, Text: " a "}).IsWhitespace() {
		t.Error("text is not whitespace")
	}
	if (&Token{Kind: KindComment, Text: " "}).IsWhitespace() {
		t.Error("comments are not whitespace text")
	}
}

func TestPosErr(t *testing.T) {
	err := NewPosErr(ErrUnexpectedEOF, Pos{Line: 2, Col: 5})
	if got := err.Error(); got != "unexpected end of document at "+(Pos{Line: 2, Col: 5}).String() {
		t.Errorf("got %q", got)
	}
	if NewPosErr(ErrSyntax, Pos{}).Error() != ErrSyntax.Error() {
		t.Error("zero position should not be shown")
	}
}
