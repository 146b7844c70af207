package status

import (
	"time"

	"gitlab.com/tinyland/lab/pulse-status/entry"
	"gitlab.com/tinyland/lab/pulse-status/linebuf"
)

// Composer joins entry fragments into one newline terminated line of
// bounded width.
type Composer struct {
	line *linebuf.Buffer
}

// NewComposer creates a composer for lines of at most width bytes before the
// newline.
func NewComposer(width int) *Composer {
	return &Composer{line: linebuf.New(max(width, 1) + 1)}
}

// Width returns the maximum line width, newline excluded.
func (c *Composer) Width() int { return c.line.Cap() - 1 }

// Compose renders entries in order, separated by single spaces. Fragments
// that do not fit are truncated; the newline always fits. The returned
// slice is valid until the next call.
func (c *Composer) Compose(entries []*entry.Entry, now time.Time) []byte {
	c.line.Reset(1)
	for i, e := range entries {
		if i > 0 {
			if c.line.Remaining() < 2 {
				break
			}
			c.line.AppendString(" ")
		}
		c.line.Printf("%s", e.Fragment(now))
	}
	c.line.TakeReserve()
	// Cannot fail: one byte was reserved for it.
	_ = c.line.Terminate('\n')
	return c.line.Bytes()
}
