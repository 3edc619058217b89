// Package annotations decides which instance annotations a reader keeps.
package annotations

import (
	"fmt"
	"strings"
)

// Filter is consulted with an annotation's term before its value is read.
type Filter interface {
	ShouldSkip(term string) bool
}

type FilterFunc func(term string) bool

func (f FilterFunc) ShouldSkip(term string) bool {
	return f(term)
}

var (
	// All keeps every annotation.
	All Filter = FilterFunc(func(string) bool { return false })
	// None skips every annotation.
	None Filter = FilterFunc(func(string) bool { return true })
)

type rule struct {
	exclude bool
	// namespace is set for "ns.*" rules, term for exact rules; both empty
	// means "*".
	namespace string
	term      string
}

func (r rule) specificity() int {
	switch {
	case r.term != "":
		return 2
	case r.namespace != "":
		return 1
	}
	return 0
}

func (r rule) matches(term string) bool {
	switch {
	case r.term != "":
		return r.term == term
	case r.namespace != "":
		ns, _ := Split(term)
		return ns == r.namespace || strings.HasPrefix(ns, r.namespace+".")
	}
	return true
}

// Pattern is a filter in the include-annotations preference syntax: a
// comma separated list of "*", "NS.*", "NS.Term" and their exclusions
// prefixed with "-". The most specific matching rule wins; between equally
// specific rules an exclusion wins. A term no rule matches is skipped.
type Pattern struct {
	src   string
	rules []rule
}

func ParsePattern(src string) (*Pattern, error) {
	p := &Pattern{src: src}
	for _, part := range strings.Split(src, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r := rule{}
		if strings.HasPrefix(part, "-") {
			r.exclude = true
			part = part[1:]
		}
		switch {
		case part == "*":
		case strings.HasSuffix(part, ".*"):
			r.namespace = strings.TrimSuffix(part, ".*")
			if !validName(r.namespace) {
				return nil, fmt.Errorf("bad annotation pattern %q", part)
			}
		default:
			if !validName(part) || !strings.Contains(part, ".") {
				return nil, fmt.Errorf("bad annotation pattern %q", part)
			}
			r.term = part
		}
		p.rules = append(p.rules, r)
	}
	return p, nil
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	for _, seg := range strings.Split(s, ".") {
		if seg == "" {
			return false
		}
		for i, c := range seg {
			switch {
			case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
			case '0' <= c && c <= '9' && i > 0:
			default:
				return false
			}
		}
	}
	return true
}

func (p *Pattern) ShouldSkip(term string) bool {
	best := -1
	skip := true
	for _, r := range p.rules {
		if !r.matches(term) {
			continue
		}
		s := r.specificity()
		switch {
		case s > best:
			best = s
			skip = r.exclude
		case s == best && r.exclude:
			skip = true
		}
	}
	return skip
}

func (p *Pattern) String() string {
	return p.src
}

// Split separates a qualified term into its namespace and name.
func Split(term string) (namespace, name string) {
	i := strings.LastIndexByte(term, '.')
	if i == -1 {
		return "", term
	}
	return term[:i], term[i+1:]
}

// Join skips a term when any of fs skips it. nil filters are ignored.
func Join(fs ...Filter) Filter {
	var res []Filter
	for _, f := range fs {
		if f != nil {
			res = append(res, f)
		}
	}
	switch len(res) {
	case 0:
		return All
	case 1:
		return res[0]
	}
	return FilterFunc(func(term string) bool {
		for _, f := range res {
			if f.ShouldSkip(term) {
				return true
			}
		}
		return false
	})
}
