package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/scalelog/pkg/config"
	"github.com/itohio/scalelog/pkg/sample"
	"github.com/itohio/scalelog/pkg/trend"
)

// minWindow is the narrowest time span shown on the X axis.
const minWindow = time.Hour

// ScopeWidget is a custom Fyne widget that plots logged weight over time.
type ScopeWidget struct {
	widget.BaseWidget

	cfg config.ViewConfig

	// Data (protected by mu)
	mu      sync.RWMutex
	samples []sample.Sample
	rates   []float64
	events  []trend.Event

	// Display buffer (reused for downsampling)
	displaySamples []sample.Sample

	// Auto-scaling
	yMin, yMax float64
	xMin, xMax time.Time
}

// New creates a new ScopeWidget instance.
func New(cfg config.ViewConfig) *ScopeWidget {
	s := &ScopeWidget{
		cfg:            cfg,
		samples:        make([]sample.Sample, 0),
		rates:          make([]float64, 0),
		events:         make([]trend.Event, 0),
		displaySamples: make([]sample.Sample, 0, cfg.MaxPoints),
	}
	s.ExtendBaseWidget(s)
	s.updateAutoScale()
	s.Refresh()
	return s
}

// UpdateData replaces the plotted data. Call it on the Fyne thread, e.g.
// from fyne.Do in a trend callback.
func (s *ScopeWidget) UpdateData(samples []sample.Sample, rates []float64, events []trend.Event) {
	s.mu.Lock()

	smoothed := samples
	if s.cfg.Smooth > 1 {
		smoothed = sample.Smooth(samples, s.cfg.Smooth)
	}
	s.displaySamples = sample.Downsample(s.displaySamples, smoothed, s.cfg.MaxPoints)

	s.samples = samples
	s.rates = rates
	s.events = events

	s.updateAutoScale()

	s.mu.Unlock()

	// Refresh outside the lock; the renderer takes a read lock.
	s.Refresh()
}

// SetView applies new display settings to the data already shown.
func (s *ScopeWidget) SetView(cfg config.ViewConfig) {
	s.mu.Lock()
	s.cfg = cfg
	samples, rates, events := s.samples, s.rates, s.events
	s.mu.Unlock()

	s.UpdateData(samples, rates, events)
}

// updateAutoScale calculates axis ranges from the display data.
func (s *ScopeWidget) updateAutoScale() {
	s.yMin, s.yMax, s.xMin, s.xMax = autoScale(s.displaySamples, time.Now())
}

// autoScale returns the Y range with a 10% margin and the X range of
// samples, at least minWindow wide. Without samples the X range ends at now.
func autoScale(samples []sample.Sample, now time.Time) (yMin, yMax float64, xMin, xMax time.Time) {
	if len(samples) == 0 {
		return 0, 1, now.Add(-minWindow), now
	}

	yMin, yMax = samples[0].Weight, samples[0].Weight
	for _, s := range samples {
		yMin = min(yMin, s.Weight)
		yMax = max(yMax, s.Weight)
	}

	span := yMax - yMin
	if span == 0 {
		span = 1.0
	}
	margin := span * 0.1
	yMin -= margin
	yMax += margin

	xMin = samples[0].Timestamp
	xMax = samples[len(samples)-1].Timestamp
	if xMax.Sub(xMin) < minWindow {
		xMax = xMin.Add(minWindow)
	}
	return yMin, yMax, xMin, xMax
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:   s,
		grid:    grid,
		objects: []fyne.CanvasObject{grid},
	}
}
