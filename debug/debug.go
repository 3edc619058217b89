package debug

import (
	"os"
	"strconv"
)

type debug struct {
	Cursor bool
	Assert bool
	Read   bool
	Write  bool
}

var d *debug

func init() {
	d = &debug{}
	d.Cursor = boolEnv("ATOM_DEBUG_CURSOR")
	d.Assert = boolEnv("ATOM_DEBUG_ASSERT")
	d.Read = boolEnv("ATOM_DEBUG_READ")
	d.Write = boolEnv("ATOM_DEBUG_WRITE")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

// Cursor reports whether every token read or replayed by a token.Cursor is
// traced.
func Cursor() bool {
	return d.Cursor
}

// Assert reports whether cursor position contracts are checked.
func Assert() bool {
	return d.Assert
}

func Read() bool {
	return d.Read
}

func Write() bool {
	return d.Write
}

// SetAssert turns contract checks on or off and returns the previous
// setting. It is meant for tests.
func SetAssert(v bool) bool {
	old := d.Assert
	d.Assert = v
	return old
}
