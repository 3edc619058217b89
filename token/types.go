package token

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// XMLNamespace is the namespace bound to the reserved "xml" prefix.
const XMLNamespace = "http://www.w3.org/XML/1998/namespace"

type Kind int

const (
	KindNone Kind = iota
	KindStart
	KindEnd
	KindText
	KindComment
	KindProcInst
	KindDirective
	KindEOF
)

func (k Kind) String() string {
	s, ok := map[Kind]string{
		KindNone:      "None",
		KindStart:     "Start",
		KindEnd:       "End",
		KindText:      "Text",
		KindComment:   "Comment",
		KindProcInst:  "ProcInst",
		KindDirective: "Directive",
		KindEOF:       "EOF",
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
		"None":      KindNone,
		"Start":     KindStart,
		"End":       KindEnd,
		"Text":      KindText,
		"Comment":   KindComment,
		"ProcInst":  KindProcInst,
		"Directive": KindDirective,
		"EOF":       KindEOF,
	}[string(d)]
	if !ok {
		return fmt.Errorf("unrecognized kind %q", d)
	}
	*k = kk
	return nil
}

// Token is one node of the XML document as seen by a Cursor.
//
// Depth is the element depth: the document element and its end tag have
// depth 0, its children depth 1. Text and comment tokens carry the depth of
// the element that contains them plus one. Base is the xml:base in scope,
// including any xml:base declared on the element itself.
type Token struct {
	Kind  Kind
	Name  xml.Name
	Attr  []xml.Attr
	Text  string
	Depth int
	Base  string
	Pos   Pos
}

func (t *Token) String() string {
	switch t.Kind {
	case KindStart:
		return fmt.Sprintf("<%s> (%s)", t.Name.Local, t.Name.Space)
	case KindEnd:
		return fmt.Sprintf("</%s> (%s)", t.Name.Local, t.Name.Space)
	case KindText, KindComment:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	default:
		return t.Kind.String()
	}
}

// Is reports whether t is a start or end tag of the given kind and name.
func (t *Token) Is(kind Kind, space, local string) bool {
	return t.Kind == kind && t.Name.Space == space && t.Name.Local == local
}

// IsWhitespace reports whether t is text made only of XML whitespace.
func (t *Token) IsWhitespace() bool {
	return t.Kind == KindText && strings.Trim(t.Text, " \t\r\n") == ""
}

// AttrValue returns the value of the first attribute matching space and
// local. The "xml" prefix matches both its literal name and XMLNamespace.
func (t *Token) AttrValue(space, local string) (string, bool) {
	return attrValue(t.Attr, space, local)
}

func attrValue(attrs []xml.Attr, space, local string) (string, bool) {
	for i := range attrs {
		a := &attrs[i]
		if a.Name.Local != local {
			continue
		}
		if a.Name.Space == space {
			return a.Value, true
		}
		if space == XMLNamespace && a.Name.Space == "xml" {
			return a.Value, true
		}
	}
	return "", false
}
