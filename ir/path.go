package ir

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Path addresses a value below an entry's properties, as in
// $.Address.Lines[0] or $.Lines[*].
type Path struct {
	IndexAll bool
	Index    *int
	Field    *string
	Next     *Path
}

func FieldPath(field string) *Path {
	return &Path{Field: &field}
}

func IndexPath(i int) *Path {
	return &Path{Index: &i}
}

// Join links copies of single-step paths into one path.
func Join(steps ...*Path) *Path {
	var head, tail *Path
	for _, s := range steps {
		for x := s; x != nil; x = x.Next {
			c := &Path{IndexAll: x.IndexAll, Index: x.Index, Field: x.Field}
			if tail == nil {
				head = c
			} else {
				tail.Next = c
			}
			tail = c
		}
	}
	return head
}

func (p *Path) String() string {
	buf := bytes.NewBuffer([]byte{'$'})
	for x := p; x != nil; x = x.Next {
		switch {
		case x.IndexAll:
			buf.WriteString("[*]")
		case x.Field != nil:
			buf.WriteString("." + pathString(*x.Field))
		case x.Index != nil:
			fmt.Fprintf(buf, "[%d]", *x.Index)
		}
	}
	return buf.String()
}

func ParsePath(p string) (*Path, error) {
	if len(p) == 0 || p[0] != '$' {
		return nil, fmt.Errorf("%w: path %q should start with '$'", ErrPath, p)
	}
	if len(p) == 1 {
		return nil, nil
	}
	root := &Path{}
	if err := parseFrag(p[1:], root); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrPath, p, err)
	}
	return root, nil
}

func parseFrag(frag string, parent *Path) error {
	var rest string
	switch frag[0] {
	case '.':
		field, r, err := parseField(frag[1:])
		if err != nil {
			return err
		}
		parent.Field = &field
		rest = r
	case '[':
		i := strings.IndexByte(frag[1:], ']')
		if i == -1 {
			return fmt.Errorf("expected '[' <index> ']'")
		}
		index, all, err := parseIndex(frag[1 : i+1])
		if err != nil {
			return err
		}
		parent.IndexAll = all
		if !all {
			parent.Index = &index
		}
		rest = frag[i+2:]
	default:
		return fmt.Errorf("expected '.' or '['")
	}
	if len(rest) == 0 {
		return nil
	}
	next := &Path{}
	if err := parseFrag(rest, next); err != nil {
		return err
	}
	parent.Next = next
	return nil
}

func parseIndex(is string) (index int, all bool, err error) {
	if is == "*" {
		return 0, true, nil
	}
	u64, err := strconv.ParseUint(is, 10, 32)
	if err != nil {
		return 0, false, err
	}
	return int(u64), false, nil
}

func parseField(frag string) (field, rest string, err error) {
	if len(frag) == 0 {
		return "", "", fmt.Errorf("expected field at end of string")
	}
	if frag[0] != '\'' {
		i := strings.IndexAny(frag, ".[")
		if i == -1 {
			return frag, "", nil
		}
		if i == 0 {
			return "", "", fmt.Errorf("empty field")
		}
		return frag[:i], frag[i:], nil
	}
	escaped := false
	res := make([]byte, 0, len(frag))
	for i := 1; i < len(frag); i++ {
		c := frag[i]
		switch {
		case c == '\\' && !escaped:
			escaped = true
		case c == '\'' && !escaped:
			return string(res), frag[i+1:], nil
		default:
			escaped = false
			res = append(res, c)
		}
	}
	return "", "", fmt.Errorf("end of string scanning for \"'\"")
}

func pathString(f string) string {
	if f != "" && strings.IndexAny(f, "'.*$[]") == -1 {
		return f
	}
	return "'" + strings.ReplaceAll(f, "'", "\\'") + "'"
}

// GetPath returns the single value addressed by path, or ErrNotFound.
func (v *Value) GetPath(path string) (*Value, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	res := v
	for x := p; x != nil; x = x.Next {
		switch {
		case x.IndexAll:
			return nil, fmt.Errorf("%w: [*] in get", ErrPath)
		case x.Index != nil:
			if res.Kind != CollectionKind {
				return nil, fmt.Errorf("%w: expected collection at %s, got %s", ErrNotFound, path, res.Kind)
			}
			i := *x.Index
			if i >= len(res.Items) {
				return nil, fmt.Errorf("%w: index %d out of bounds (len %d)", ErrNotFound, i, len(res.Items))
			}
			res = res.Items[i]
		case x.Field != nil:
			next := res.Get(*x.Field)
			if next == nil {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
			}
			res = next
		}
	}
	return res, nil
}

// ListPath appends every value addressed by path to dst.
func (v *Value) ListPath(dst []*Value, path string) ([]*Value, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return v.listPath(dst, p), nil
}

func (v *Value) listPath(dst []*Value, p *Path) []*Value {
	if p == nil {
		return append(dst, v)
	}
	switch v.Kind {
	case ComplexKind:
		if p.Field == nil {
			return dst
		}
		for i := range v.Properties {
			if v.Properties[i].Name == *p.Field {
				dst = v.Properties[i].Value.listPath(dst, p.Next)
			}
		}
	case CollectionKind:
		if p.IndexAll {
			for _, it := range v.Items {
				dst = it.listPath(dst, p.Next)
			}
			return dst
		}
		if p.Index != nil && *p.Index < len(v.Items) {
			dst = v.Items[*p.Index].listPath(dst, p.Next)
		}
	}
	return dst
}
