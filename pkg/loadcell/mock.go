package loadcell

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/itohio/scalelog/pkg/config"
)

var _ Transducer = (*Mock)(nil)

// Mock simulates a load cell for hosts without hardware. The load drifts
// linearly over time, the way a watered pot loses weight.
type Mock struct {
	cfg *config.MockConfig

	mu    sync.Mutex
	load  float64
	since time.Time
	rnd   *rand.Rand
	now   func() time.Time
}

// NewMock creates a simulated transducer.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		cfg = &config.MockConfig{
			Load:         1200,
			RawOffset:    36.6,
			RawScale:     1 / 9.378,
			Noise:        0.5,
			DriftPerHour: -2,
		}
	}

	return &Mock{
		cfg:   cfg,
		load:  cfg.Load,
		since: time.Now(),
		rnd:   rand.New(rand.NewPCG(1, 2)),
		now:   time.Now,
	}
}

// SetLoad places a new load on the simulated cell and restarts the drift.
func (m *Mock) SetLoad(load float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.load = load
	m.since = m.now()
}

// Load returns the current simulated load including drift.
func (m *Mock) Load() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentLoad()
}

// Ready always reports a conversion.
func (m *Mock) Ready() bool {
	return true
}

// Raw returns the raw count for the current load plus noise.
func (m *Mock) Raw() int32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := m.cfg.RawOffset + m.currentLoad()*m.cfg.RawScale
	if m.cfg.Noise > 0 {
		counts += (m.rnd.Float64()*2 - 1) * m.cfg.Noise
	}
	return int32(math.Round(counts))
}

func (m *Mock) currentLoad() float64 {
	hours := m.now().Sub(m.since).Hours()
	return m.load + m.cfg.DriftPerHour*hours
}
