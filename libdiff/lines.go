package libdiff

import (
	"io"
	"strings"

	"github.com/fatih/color"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// Hunk is a run of lines sharing an op.
type Hunk struct {
	Op    Op
	Lines []string
}

// Lines diffs two texts line by line. The result is nil when they are
// equal.
func Lines(from, to string) []Hunk {
	if from == to {
		return nil
	}
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	res := make([]Hunk, 0, len(diffs))
	for i := range diffs {
		d := &diffs[i]
		h := Hunk{Lines: splitLines(d.Text)}
		switch d.Type {
		case diffpatch.DiffDelete:
			h.Op = Delete
		case diffpatch.DiffInsert:
			h.Op = Insert
		}
		if len(h.Lines) == 0 {
			continue
		}
		res = append(res, h)
	}
	return res
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// Changed counts the inserted and deleted lines.
func Changed(hunks []Hunk) int {
	n := 0
	for _, h := range hunks {
		if h.Op != Equal {
			n += len(h.Lines)
		}
	}
	return n
}

// Format writes hunks one line at a time, each with its op prefix.
// Equal runs between changes keep context lines on either side and the rest
// is replaced by "  ..."; context < 0 keeps them whole.
func Format(w io.Writer, hunks []Hunk, context int, useColor bool) error {
	paint := map[Op]func(string) string{
		Equal:  fmtFunc(false, 0),
		Delete: fmtFunc(useColor, color.FgRed),
		Insert: fmtFunc(useColor, color.FgGreen),
	}
	for i, h := range hunks {
		head, tail := h.Lines, []string(nil)
		elided := false
		if h.Op == Equal && context >= 0 {
			head, tail, elided = trimContext(h.Lines, context, i == 0, i == len(hunks)-1)
		}
		for _, ln := range head {
			if _, err := io.WriteString(w, paint[h.Op](h.Op.Prefix()+ln)+"\n"); err != nil {
				return err
			}
		}
		if elided {
			if _, err := io.WriteString(w, "  ...\n"); err != nil {
				return err
			}
		}
		for _, ln := range tail {
			if _, err := io.WriteString(w, h.Op.Prefix()+ln+"\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

// trimContext keeps n lines at each end of an equal run. The first run
// keeps only its tail and the last only its head.
func trimContext(lines []string, n int, first, last bool) (head, tail []string, elided bool) {
	keepHead, keepTail := n, n
	if first {
		keepHead = 0
	}
	if last {
		keepTail = 0
	}
	if keepHead+keepTail >= len(lines) {
		return lines, nil, false
	}
	return lines[:keepHead], lines[len(lines)-keepTail:], true
}

func fmtFunc(useColor bool, attr color.Attribute) func(string) string {
	if !useColor {
		return func(s string) string { return s }
	}
	c := color.New(attr)
	c.EnableColor()
	return func(s string) string { return c.Sprint(s) }
}
