package trend

import (
	"math"
	"sync"
	"time"

	"github.com/itohio/scalelog/pkg/config"
	"github.com/itohio/scalelog/pkg/sample"
)

var _ Tracker = (*Trend)(nil)

// Event is a stretch of consecutive samples whose weight rate stayed at or
// beyond the threshold in one direction: a watering (positive Delta) or a
// drain (negative Delta).
type Event struct {
	StartIndex int       // Start sample index in buffer
	EndIndex   int       // End sample index in buffer
	StartTime  time.Time // Start timestamp
	EndTime    time.Time // End timestamp
	Delta      float64   // Weight change between start and end
}

// Tracker processes samples, maintains buffers, and detects events.
type Tracker interface {
	ProcessSamples(input <-chan sample.Sample)
	Samples() []sample.Sample // Current buffer, oldest first
	Rates() []float64         // Weight change per hour, n-1 rates for n samples
	Events() []Event          // Detected events within window
	OnUpdate(func(samples []sample.Sample, rates []float64, events []Event))
}

// Trend implements Tracker over a time window.
//
// rates[i] is the change from samples[i] to samples[i+1] per hour, so n
// samples give n-1 rates. Samples older than the window are dropped by
// timestamp, not by count.
type Trend struct {
	mu      sync.RWMutex
	samples []sample.Sample
	rates   []float64
	events  []Event

	callbacks []func(samples []sample.Sample, rates []float64, events []Event)
	cbMu      sync.RWMutex

	window      time.Duration
	threshold   float64
	minDuration time.Duration

	shutdown bool // Set when the input channel closes, suppresses callbacks
}

// New creates a Trend from the view configuration.
func New(cfg config.ViewConfig) *Trend {
	return &Trend{
		samples:     make([]sample.Sample, 0),
		rates:       make([]float64, 0),
		events:      make([]Event, 0),
		window:      cfg.Window,
		threshold:   cfg.EventThreshold,
		minDuration: cfg.MinEventDuration,
	}
}

// ProcessSamples consumes input until it closes, then stops notifying.
func (t *Trend) ProcessSamples(input <-chan sample.Sample) {
	for s := range input {
		t.Add(s)
	}
	t.mu.Lock()
	t.shutdown = true
	t.mu.Unlock()
}

// Load replaces the buffer with samples, as when a log file is opened, and
// notifies once.
func (t *Trend) Load(samples []sample.Sample) {
	t.mu.Lock()
	t.samples = t.samples[:0]
	t.rates = t.rates[:0]
	t.events = t.events[:0]
	for _, s := range samples {
		t.add(s)
	}
	notify := !t.shutdown
	t.mu.Unlock()

	if notify {
		t.notifyCallbacks()
	}
}

// Add appends one sample and notifies.
func (t *Trend) Add(s sample.Sample) {
	t.mu.Lock()
	t.add(s)
	notify := !t.shutdown
	t.mu.Unlock()

	if notify {
		t.notifyCallbacks()
	}
}

// add must be called with mu held.
func (t *Trend) add(s sample.Sample) {
	// Out-of-order rows would break the rate series.
	if n := len(t.samples); n > 0 && !s.Timestamp.After(t.samples[n-1].Timestamp) {
		return
	}

	t.samples = append(t.samples, s)
	t.trim(s.Timestamp.Add(-t.window))

	if n := len(t.samples); n >= 2 {
		prev, curr := t.samples[n-2], t.samples[n-1]
		hours := curr.Timestamp.Sub(prev.Timestamp).Hours()
		t.rates = append(t.rates, (curr.Weight-prev.Weight)/hours)
	}

	t.updateEvents()
}

// trim drops samples at or before cutoff and keeps rates and event indices
// aligned with the remaining samples.
func (t *Trend) trim(cutoff time.Time) {
	if t.window <= 0 {
		return
	}

	cut := 0
	for cut < len(t.samples) && !t.samples[cut].Timestamp.After(cutoff) {
		cut++
	}
	if cut == 0 {
		return
	}

	t.samples = t.samples[cut:]
	if cut <= len(t.rates) {
		t.rates = t.rates[cut:]
	} else {
		t.rates = t.rates[:0]
	}

	valid := t.events[:0]
	for _, e := range t.events {
		e.StartIndex -= cut
		e.EndIndex -= cut
		if e.StartIndex >= 0 {
			valid = append(valid, e)
		}
	}
	t.events = valid
}

// updateEvents extends the running event or starts a new one when the
// magnitude of the latest rate reaches the threshold. A rate of the opposite
// sign starts a new event.
func (t *Trend) updateEvents() {
	if len(t.rates) == 0 || t.threshold <= 0 {
		return
	}

	last := len(t.samples) - 1
	rate := t.rates[len(t.rates)-1]
	if math.Abs(rate) >= t.threshold {
		if n := len(t.events); n > 0 && t.events[n-1].EndIndex == last-1 && (t.events[n-1].Delta < 0) == (rate < 0) {
			e := &t.events[n-1]
			e.EndIndex = last
			e.EndTime = t.samples[last].Timestamp
			e.Delta = t.samples[last].Weight - t.samples[e.StartIndex].Weight
		} else {
			t.events = append(t.events, Event{
				StartIndex: last - 1,
				EndIndex:   last,
				StartTime:  t.samples[last-1].Timestamp,
				EndTime:    t.samples[last].Timestamp,
				Delta:      t.samples[last].Weight - t.samples[last-1].Weight,
			})
		}
	}

	// Drop finished events shorter than the minimum duration.
	valid := t.events[:0]
	for _, e := range t.events {
		if e.EndIndex < last && e.EndTime.Sub(e.StartTime) < t.minDuration {
			continue
		}
		valid = append(valid, e)
	}
	t.events = valid
}

// Samples returns a copy of the current samples buffer.
func (t *Trend) Samples() []sample.Sample {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]sample.Sample, len(t.samples))
	copy(result, t.samples)
	return result
}

// Rates returns a copy of the current rates buffer.
func (t *Trend) Rates() []float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]float64, len(t.rates))
	copy(result, t.rates)
	return result
}

// Events returns a copy of the detected events.
func (t *Trend) Events() []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]Event, len(t.events))
	copy(result, t.events)
	return result
}

// OnUpdate registers a callback invoked with copies of the buffers after
// every update. The callback should return quickly.
func (t *Trend) OnUpdate(callback func(samples []sample.Sample, rates []float64, events []Event)) {
	t.cbMu.Lock()
	defer t.cbMu.Unlock()
	t.callbacks = append(t.callbacks, callback)
}

// ResetShutdown allows callbacks again before a new input stream is processed.
func (t *Trend) ResetShutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shutdown = false
}

// notifyCallbacks copies the buffers under the read lock and invokes the
// callbacks without holding any lock.
func (t *Trend) notifyCallbacks() {
	t.mu.RLock()
	samplesCopy := make([]sample.Sample, len(t.samples))
	copy(samplesCopy, t.samples)
	ratesCopy := make([]float64, len(t.rates))
	copy(ratesCopy, t.rates)
	eventsCopy := make([]Event, len(t.events))
	copy(eventsCopy, t.events)
	t.mu.RUnlock()

	t.cbMu.RLock()
	callbacks := make([]func(samples []sample.Sample, rates []float64, events []Event), len(t.callbacks))
	copy(callbacks, t.callbacks)
	t.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(samplesCopy, ratesCopy, eventsCopy)
		}
	}
}
