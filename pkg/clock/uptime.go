package clock

import "time"

// Uptime is a millisecond counter since power-on. It wraps at 2^32.
type Uptime interface {
	Millis() uint32
}

// Monotonic counts milliseconds since it was created.
type Monotonic struct {
	start time.Time
}

// NewMonotonic starts a counter at zero.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

// Millis returns the elapsed milliseconds truncated to 32 bits.
func (m *Monotonic) Millis() uint32 {
	return uint32(time.Since(m.start).Milliseconds())
}
