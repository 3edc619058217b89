package libdiff

import "strings"

// Reverse returns the hunks which turn the second text back into the first.
func Reverse(hunks []Hunk) []Hunk {
	res := make([]Hunk, len(hunks))
	for i, h := range hunks {
		switch h.Op {
		case Delete:
			h.Op = Insert
		case Insert:
			h.Op = Delete
		}
		res[i] = h
	}
	// a replacement reads delete then insert in either direction
	for i := 0; i+1 < len(res); i++ {
		if res[i].Op == Insert && res[i+1].Op == Delete {
			res[i], res[i+1] = res[i+1], res[i]
			i++
		}
	}
	return res
}

// Apply returns the text the hunks lead to, one newline terminated line
// per kept line.
func Apply(hunks []Hunk) string {
	var sb strings.Builder
	for _, h := range hunks {
		if h.Op == Delete {
			continue
		}
		for _, ln := range h.Lines {
			sb.WriteString(ln)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
