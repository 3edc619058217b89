package token

import "strconv"

// Pos is a 1-based line and column in the input document. The zero Pos means
// the position is unknown.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) IsZero() bool {
	return p.Line == 0 && p.Col == 0
}

func (p Pos) String() string {
	if p.IsZero() {
		return "-"
	}
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Col)
}
