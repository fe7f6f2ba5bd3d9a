package scope

import (
	"testing"
	"time"

	"github.com/itohio/scalelog/pkg/sample"
	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)

func TestAutoScale_Empty(t *testing.T) {
	yMin, yMax, xMin, xMax := autoScale(nil, t0)

	assert.Equal(t, 0.0, yMin)
	assert.Equal(t, 1.0, yMax)
	assert.Equal(t, t0.Add(-minWindow), xMin)
	assert.Equal(t, t0, xMax)
}

func TestAutoScale(t *testing.T) {
	samples := []sample.Sample{
		{Timestamp: t0, Weight: 1000},
		{Timestamp: t0.Add(2 * time.Hour), Weight: 1100},
		{Timestamp: t0.Add(4 * time.Hour), Weight: 900},
	}

	yMin, yMax, xMin, xMax := autoScale(samples, t0)

	assert.InDelta(t, 880, yMin, 1e-9)
	assert.InDelta(t, 1120, yMax, 1e-9)
	assert.Equal(t, t0, xMin)
	assert.Equal(t, t0.Add(4*time.Hour), xMax)
}

func TestAutoScale_FlatShortSeries(t *testing.T) {
	samples := []sample.Sample{
		{Timestamp: t0, Weight: 500},
		{Timestamp: t0.Add(15 * time.Minute), Weight: 500},
	}

	yMin, yMax, xMin, xMax := autoScale(samples, t0)

	assert.InDelta(t, 499.9, yMin, 1e-9)
	assert.InDelta(t, 500.1, yMax, 1e-9)
	assert.Equal(t, minWindow, xMax.Sub(xMin))
}

func TestPlotArea_Pos(t *testing.T) {
	p := plotArea{
		x: 10, y: 20, width: 100, height: 50,
		yMin: 0, yMax: 10,
		xMin: t0, xMax: t0.Add(10 * time.Hour),
	}

	origin := p.pos(t0, 0)
	assert.Equal(t, float32(10), origin.X)
	assert.Equal(t, float32(70), origin.Y)

	corner := p.pos(t0.Add(10*time.Hour), 10)
	assert.Equal(t, float32(110), corner.X)
	assert.Equal(t, float32(20), corner.Y)

	mid := p.pos(t0.Add(5*time.Hour), 5)
	assert.Equal(t, float32(60), mid.X)
	assert.Equal(t, float32(45), mid.Y)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "9034.65", formatWeight(9034.649))
	assert.Equal(t, "+302.00", formatDelta(302))
	assert.Equal(t, "-2.50/h", formatRate(-2.5))

	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0m"},
		{45 * time.Minute, "45m"},
		{90 * time.Minute, "1.5h"},
		{36 * time.Hour, "36.0h"},
		{72 * time.Hour, "3.0d"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatElapsed(tt.d), tt.d.String())
	}
}
