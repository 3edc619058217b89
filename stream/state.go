package stream

import (
	"github.com/signadot/odata-atom/ir"
)

// depthGuard counts nesting for one document. Values and expansions each
// have their own guard with the same quota.
type depthGuard struct {
	n   int
	max int
}

// enter claims one level. The returned func gives it back and must run on
// every path out of the level, so callers defer it.
func (d *depthGuard) enter() (leave func(), ok bool) {
	if d.n+1 > d.max {
		return nil, false
	}
	d.n++
	released := false
	return func() {
		if released {
			return
		}
		released = true
		d.n--
	}, true
}

// duplicateChecker rejects a second property of the same name within one
// property set. Names compare ordinally.
type duplicateChecker struct {
	seen map[string]struct{}
}

func newDuplicateChecker() *duplicateChecker {
	return &duplicateChecker{seen: make(map[string]struct{})}
}

func (d *duplicateChecker) add(name string) bool {
	if _, ok := d.seen[name]; ok {
		return false
	}
	d.seen[name] = struct{}{}
	return true
}

// collectionValidator makes the items of a collection without an item
// type agree with the first non-null item on kind and type name.
type collectionValidator struct {
	set      bool
	kind     ir.Kind
	typeName string
}

func (c *collectionValidator) check(v *ir.Value) (ok bool, want string) {
	if v.IsNull() {
		return true, ""
	}
	if !c.set {
		c.set = true
		c.kind = v.Kind
		c.typeName = v.TypeName
		return true, ""
	}
	if v.Kind == c.kind && v.TypeName == c.typeName {
		return true, ""
	}
	return false, c.kind.String() + " " + c.typeName
}

// elemSet records which singleton elements an entry or feed has seen
// (reading) or emitted (writing).
type elemSet uint16

const (
	elemID elemSet = 1 << iota
	elemTypeName
	elemSelfLink
	elemEditLink
	elemEditMedia
	elemContent
	elemProperties
	elemCount
	elemNextLink
	elemDeltaLink
	elemInline
)

func (s elemSet) has(e elemSet) bool {
	return s&e != 0
}

func (s *elemSet) add(e elemSet) {
	*s |= e
}

func (s elemSet) String() string {
	names := []string{"id", "type category", "self link", "edit link", "edit-media link",
		"content", "properties", "count", "next link", "delta link", "inline"}
	res := ""
	for i, n := range names {
		if s&(1<<i) != 0 {
			if res != "" {
				res += "|"
			}
			res += n
		}
	}
	return res
}
