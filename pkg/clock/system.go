package clock

import (
	"sync"
	"time"
)

var _ Source = (*System)(nil)

// System is a Source backed by the host wall clock. Calibrate does not touch
// the host clock; it shifts the readings of this Source only.
type System struct {
	mu     sync.RWMutex
	offset time.Duration
	now    func() time.Time
}

// NewSystem creates a Source reading the local wall clock.
func NewSystem() *System {
	return &System{now: time.Now}
}

// Now returns the wall clock plus the calibration offset.
func (s *System) Now() (Timestamp, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FromTime(s.wall().Add(s.offset)), nil
}

// Calibrate makes subsequent readings start from ref.
func (s *System) Calibrate(ref Timestamp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wall := s.wall()
	local := time.Date(ref.Year, time.Month(ref.Month), ref.Day, ref.Hour, ref.Minute, ref.Second, 0, wall.Location())
	s.offset = local.Sub(wall)
	return nil
}

func (s *System) wall() time.Time {
	return s.now().Truncate(time.Second)
}
