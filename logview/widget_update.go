package main

import (
	"sync"
	"time"

	"github.com/itohio/scalelog/pkg/sample"
	"github.com/itohio/scalelog/pkg/trend"
)

// updateInterval limits scope redraws to ~60 FPS.
const updateInterval = 16 * time.Millisecond

// throttle drops trend updates that arrive faster than updateInterval.
type throttle struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func (t *throttle) allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	if t.now != nil {
		now = t.now()
	}
	if now.Sub(t.last) < updateInterval {
		return false
	}
	t.last = now
	return true
}

// wrap returns a trend callback that forwards to cb when allowed.
func (t *throttle) wrap(cb func([]sample.Sample, []float64, []trend.Event)) func([]sample.Sample, []float64, []trend.Event) {
	return func(samples []sample.Sample, rates []float64, events []trend.Event) {
		if t.allow() {
			cb(samples, rates, events)
		}
	}
}
