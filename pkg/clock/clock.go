// Package clock provides the logical clock used to order action
// submissions. It is a monotonic counter, not wall-clock time: the
// engine advances it exactly once per submission so that timestamps
// are deterministic and replayable.
package clock

// Logical is a monotonically increasing counter.
type Logical interface {
	// Now returns the current tick without advancing.
	Now() uint64
	// Advance increments the clock and returns the new tick.
	Advance() uint64
}

// Counter is the default Logical implementation. It is not safe for
// concurrent use; callers are expected to hold the engine's
// transaction lock.
type Counter struct {
	tick uint64
}

// NewCounter returns a Counter starting at the given tick.
func NewCounter(start uint64) *Counter {
	return &Counter{tick: start}
}

func (c *Counter) Now() uint64 {
	return c.tick
}

func (c *Counter) Advance() uint64 {
	c.tick++
	return c.tick
}
