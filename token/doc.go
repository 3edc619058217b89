// Package token provides the forward-only XML token cursor used by the Atom
// readers.
//
// [Cursor] wraps an [encoding/xml] pull decoder. It adds lookahead through
// nested buffering regions: [Cursor.StartBuffering] records a checkpoint and
// the returned release function rewinds to it, after which [Cursor.Read]
// replays the recorded tokens before resuming live reads. Every token carries
// its element depth and the xml:base in scope so that replayed tokens behave
// exactly like live ones.
package token
