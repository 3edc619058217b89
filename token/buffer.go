package token

import "github.com/signadot/odata-atom/debug"

// StartBuffering pushes a checkpoint at the current token and returns the
// function that releases it. Releasing rewinds the cursor to the checkpoint;
// subsequent reads replay the tokens seen since, then continue live.
//
// Regions nest with stack discipline. Only the outermost region starts
// recording; inner ones only add checkpoints. The release function is safe to
// call more than once, which allows
//
//	stop := c.StartBuffering()
//	defer stop()
//
// even when the region is released early on the success path.
func (c *Cursor) StartBuffering() (stop func()) {
	if c.idx < 0 {
		c.buf = append(c.buf[:0], c.cur)
		c.idx = 0
	}
	c.marks = append(c.marks, c.idx)
	level := len(c.marks)
	if debug.Cursor() {
		debug.Logf("cursor start buffering level=%d at %s\n", level, c.cur.String())
	}
	released := false
	return func() {
		if released {
			return
		}
		released = true
		if len(c.marks) != level {
			panic("token: buffering regions released out of order")
		}
		c.StopBuffering()
	}
}

// StopBuffering pops the innermost checkpoint and rewinds to it. Calling it
// without a matching StartBuffering is a programming error and panics.
func (c *Cursor) StopBuffering() {
	n := len(c.marks)
	if n == 0 {
		panic("token: StopBuffering without matching StartBuffering")
	}
	m := c.marks[n-1]
	c.marks = c.marks[:n-1]
	c.idx = m
	c.cur = c.buf[m]
	if debug.Cursor() {
		debug.Logf("cursor stop buffering level=%d rewound to %s\n", n, c.cur.String())
		PrintTokens(c.buf[m:], "cursor replay")
	}
}

// IsBuffering reports whether a buffering region is open.
func (c *Cursor) IsBuffering() bool {
	return len(c.marks) > 0
}

// Replaying reports whether the current token came from the replay buffer
// and more recorded tokens follow it.
func (c *Cursor) Replaying() bool {
	return c.idx >= 0 && c.idx+1 < len(c.buf)
}
