package fault

import "sync"

// Collector keeps the most recent errors in a fixed-size ring. It is for
// diagnostics only and never drives control flow.
type Collector struct {
	mu       sync.Mutex
	buf      []*Error
	next     int
	full     bool
	capacity int
}

// NewCollector creates a collector holding at most capacity errors.
func NewCollector(capacity int) *Collector {
	if capacity <= 0 {
		capacity = 100
	}
	return &Collector{
		buf:      make([]*Error, capacity),
		capacity: capacity,
	}
}

// Add appends e, evicting the oldest entry when full.
func (c *Collector) Add(e *Error) {
	if e == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buf[c.next] = e
	c.next = (c.next + 1) % c.capacity
	if c.next == 0 {
		c.full = true
	}
}

// Len returns the number of buffered errors.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return c.capacity
	}
	return c.next
}

// Snapshot returns buffered errors, oldest first.
func (c *Collector) Snapshot() []*Error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.full {
		out := make([]*Error, c.next)
		copy(out, c.buf[:c.next])
		return out
	}

	out := make([]*Error, 0, c.capacity)
	out = append(out, c.buf[c.next:]...)
	out = append(out, c.buf[:c.next]...)
	return out
}

// CountByKind tallies buffered errors per kind.
func (c *Collector) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, e := range c.Snapshot() {
		counts[e.Kind]++
	}
	return counts
}
