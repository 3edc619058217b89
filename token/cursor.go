package token

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strings"

	"github.com/signadot/odata-atom/debug"

	"golang.org/x/text/encoding/ianaindex"
)

// Cursor is a forward-only view of an XML document with nested lookahead.
//
// A Cursor starts before the first token; call Read to move onto it.
type Cursor struct {
	dec *xml.Decoder
	cur Token

	// live state, as of the last token taken from dec
	depth int
	bases []string
	base  string
	err   error

	// recorded tokens; idx is the position of cur in buf or -1 when cur
	// came straight from dec and nothing is being recorded.
	buf   []Token
	idx   int
	marks []int
}

type CursorOpt func(*Cursor)

// WithBase sets the base URI in scope outside the document element.
func WithBase(base string) CursorOpt {
	return func(c *Cursor) { c.base = base }
}

func NewCursor(r io.Reader, opts ...CursorOpt) *Cursor {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader
	c := &Cursor{
		dec: dec,
		idx: -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cur = Token{Kind: KindNone, Base: c.base}
	return c
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported charset %q", ErrSyntax, label)
	}
	if enc == nil {
		return nil, fmt.Errorf("%w: charset %q has no decoder", ErrSyntax, label)
	}
	return enc.NewDecoder().Reader(input), nil
}

// Current returns the token the cursor is positioned on. The returned token
// must not be modified.
func (c *Cursor) Current() *Token {
	return &c.cur
}

func (c *Cursor) Kind() Kind {
	return c.cur.Kind
}

func (c *Cursor) Pos() Pos {
	return c.cur.Pos
}

// Base returns the xml:base in scope at the current token.
func (c *Cursor) Base() string {
	return c.cur.Base
}

// Read advances to the next token, replaying recorded tokens first.
func (c *Cursor) Read() error {
	if c.idx >= 0 && c.idx+1 < len(c.buf) {
		c.idx++
		c.cur = c.buf[c.idx]
		if debug.Cursor() {
			debug.Logf("cursor replay %d/%d %s\n", c.idx, len(c.buf), c.cur.String())
		}
		return nil
	}
	if c.cur.Kind == KindEOF {
		return NewPosErr(ErrUnexpectedEOF, c.cur.Pos)
	}
	tok, err := c.readLive()
	if err != nil {
		return err
	}
	if len(c.marks) > 0 {
		c.buf = append(c.buf, tok)
		c.idx = len(c.buf) - 1
	} else {
		c.buf = c.buf[:0]
		c.idx = -1
	}
	c.cur = tok
	if debug.Cursor() {
		debug.Logf("cursor read %s depth=%d\n", c.cur.String(), c.cur.Depth)
	}
	return nil
}

func (c *Cursor) readLive() (Token, error) {
	if c.err != nil {
		return Token{}, c.err
	}
	t, err := c.dec.Token()
	line, col := c.dec.InputPos()
	pos := Pos{Line: line, Col: col}
	if errors.Is(err, io.EOF) {
		if c.depth != 0 {
			c.err = NewPosErr(ErrUnexpectedEOF, pos)
			return Token{}, c.err
		}
		return Token{Kind: KindEOF, Base: c.base, Pos: pos}, nil
	}
	if err != nil {
		var serr *xml.SyntaxError
		if errors.As(err, &serr) {
			c.err = NewPosErr(fmt.Errorf("%w: %s", ErrSyntax, serr.Msg), Pos{Line: serr.Line})
		} else {
			c.err = NewPosErr(fmt.Errorf("%w: %w", ErrSyntax, err), pos)
		}
		return Token{}, c.err
	}
	switch x := t.(type) {
	case xml.StartElement:
		base := c.scopeBase()
		if b, ok := attrValue(x.Attr, XMLNamespace, "base"); ok {
			base, err = resolveBase(base, b)
			if err != nil {
				c.err = NewPosErr(err, pos)
				return Token{}, c.err
			}
		}
		tok := Token{
			Kind:  KindStart,
			Name:  x.Name,
			Attr:  slices.Clone(x.Attr),
			Depth: c.depth,
			Base:  base,
			Pos:   pos,
		}
		c.depth++
		c.bases = append(c.bases, base)
		return tok, nil
	case xml.EndElement:
		c.depth--
		base := c.scopeBase()
		c.bases = c.bases[:len(c.bases)-1]
		return Token{Kind: KindEnd, Name: x.Name, Depth: c.depth, Base: base, Pos: pos}, nil
	case xml.CharData:
		return Token{Kind: KindText, Text: string(x), Depth: c.depth, Base: c.scopeBase(), Pos: pos}, nil
	case xml.Comment:
		return Token{Kind: KindComment, Text: string(x), Depth: c.depth, Base: c.scopeBase(), Pos: pos}, nil
	case xml.ProcInst:
		return Token{Kind: KindProcInst, Name: xml.Name{Local: x.Target}, Text: string(x.Inst), Depth: c.depth, Base: c.scopeBase(), Pos: pos}, nil
	case xml.Directive:
		return Token{Kind: KindDirective, Text: string(x), Depth: c.depth, Base: c.scopeBase(), Pos: pos}, nil
	}
	return Token{}, fmt.Errorf("%w: unknown token %T", ErrSyntax, t)
}

func (c *Cursor) scopeBase() string {
	if n := len(c.bases); n > 0 {
		return c.bases[n-1]
	}
	return c.base
}

func resolveBase(parent, b string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(b))
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrBadBase, b, err)
	}
	if parent == "" || u.IsAbs() {
		return u.String(), nil
	}
	p, err := url.Parse(parent)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrBadBase, parent, err)
	}
	return p.ResolveReference(u).String(), nil
}

// Skip moves past the current node. On a start tag the whole element,
// including its end tag, is skipped; otherwise Skip is a single Read.
func (c *Cursor) Skip() error {
	if c.cur.Kind != KindStart {
		return c.Read()
	}
	d := c.cur.Depth
	for {
		if err := c.Read(); err != nil {
			return err
		}
		switch c.cur.Kind {
		case KindEnd:
			if c.cur.Depth == d {
				return c.Read()
			}
		case KindEOF:
			return NewPosErr(ErrUnexpectedEOF, c.cur.Pos)
		}
	}
}

// MoveToContent skips whitespace, comments, processing instructions and
// directives, stopping on a start tag, end tag, significant text or EOF.
func (c *Cursor) MoveToContent() error {
	for {
		switch c.cur.Kind {
		case KindStart, KindEnd, KindEOF:
			return nil
		case KindText:
			if !c.cur.IsWhitespace() {
				return nil
			}
		}
		if err := c.Read(); err != nil {
			return err
		}
	}
}

// IsStart reports whether the cursor is on a start tag with the given name.
func (c *Cursor) IsStart(space, local string) bool {
	return c.cur.Is(KindStart, space, local)
}

// IsEnd reports whether the cursor is on an end tag.
func (c *Cursor) IsEnd() bool {
	return c.cur.Kind == KindEnd
}

// InNamespace reports whether the cursor is on a start tag in namespace space.
func (c *Cursor) InNamespace(space string) bool {
	return c.cur.Kind == KindStart && c.cur.Name.Space == space
}

func (c *Cursor) Attr(space, local string) (string, bool) {
	return c.cur.AttrValue(space, local)
}

// ReadStart moves from a start tag onto its first child node.
func (c *Cursor) ReadStart() error {
	c.AssertOn(KindStart)
	if c.cur.Kind != KindStart {
		return NewPosErr(fmt.Errorf("%w: expected start tag, found %s", ErrUnexpectedElement, c.cur.Kind), c.cur.Pos)
	}
	return c.Read()
}

// ReadEnd moves past an end tag.
func (c *Cursor) ReadEnd() error {
	c.AssertOn(KindEnd)
	if c.cur.Kind != KindEnd {
		return NewPosErr(fmt.Errorf("%w: expected end tag, found %s", ErrUnexpectedElement, c.cur.Kind), c.cur.Pos)
	}
	return c.Read()
}

// ReadElementText returns the concatenated text of the current element and
// moves past its end tag. Child elements are an error; comments and
// processing instructions are ignored.
func (c *Cursor) ReadElementText() (string, error) {
	c.AssertOn(KindStart)
	if c.cur.Kind != KindStart {
		return "", NewPosErr(fmt.Errorf("%w: expected start tag, found %s", ErrUnexpectedElement, c.cur.Kind), c.cur.Pos)
	}
	d := c.cur.Depth
	var sb strings.Builder
	for {
		if err := c.Read(); err != nil {
			return "", err
		}
		switch c.cur.Kind {
		case KindText:
			sb.WriteString(c.cur.Text)
		case KindStart:
			return "", NewPosErr(fmt.Errorf("%w: <%s> inside a text-only element", ErrUnexpectedElement, c.cur.Name.Local), c.cur.Pos)
		case KindEnd:
			if c.cur.Depth == d {
				return sb.String(), c.Read()
			}
		case KindEOF:
			return "", NewPosErr(ErrUnexpectedEOF, c.cur.Pos)
		}
	}
}

// AssertOn panics if contract assertions are enabled (see debug.Assert) and
// the current token is not of one of the given kinds.
func (c *Cursor) AssertOn(kinds ...Kind) {
	if !debug.Assert() {
		return
	}
	if slices.Contains(kinds, c.cur.Kind) {
		return
	}
	panic(fmt.Sprintf("token: cursor on %s at %s, expected one of %v", c.cur.String(), c.cur.Pos, kinds))
}
