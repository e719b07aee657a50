package engine

// Clock is a logical clock that numbers the changes of a run.
//
// Every recorded merge decision is stamped with a strictly increasing seq
// from this clock, so journal order matches decision order without relying
// on wall-clock time.
type Clock struct {
	seq int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	c.seq++
	return c.seq
}
