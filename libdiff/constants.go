package libdiff

// Op is what a hunk does to the lines of the first text.
type Op int

const (
	Equal Op = iota
	Delete
	Insert
)

// Prefix is the marker put before each line of a hunk with this op.
func (op Op) Prefix() string {
	switch op {
	case Delete:
		return "- "
	case Insert:
		return "+ "
	default:
		return "  "
	}
}

func (op Op) String() string {
	switch op {
	case Delete:
		return "delete"
	case Insert:
		return "insert"
	default:
		return "equal"
	}
}
