package cfg

import "sync/atomic"

// Counter hands out node identifiers. Identifiers increase monotonically and
// are never reused by the same counter. Counter is safe for concurrent use.
type Counter struct {
	next atomic.Int64
}

// NewCounter returns a counter starting at zero.
func NewCounter() *Counter {
	return &Counter{}
}

// Next returns the next identifier.
func (c *Counter) Next() int {
	return int(c.next.Add(1) - 1)
}

// Reset makes the counter start over from zero.
func (c *Counter) Reset() {
	c.next.Store(0)
}
