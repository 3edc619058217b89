package token

import "github.com/signadot/odata-atom/debug"

// PrintTokens traces toks to stderr under msg.
func PrintTokens(toks []Token, msg string) {
	debug.Logf("%s tokens:\n", msg)
	for i := range toks {
		t := &toks[i]
		debug.Logf("\t%s %s depth=%d\n", t.Pos, t.String(), t.Depth)
	}
}
