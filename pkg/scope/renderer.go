package scope

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/scalelog/pkg/sample"
	"github.com/itohio/scalelog/pkg/trend"
)

var (
	gridColor   = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor  = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	weightColor = color.RGBA{R: 255, G: 165, B: 0, A: 255} // Orange
	eventColor  = color.RGBA{R: 0, G: 100, B: 200, A: 255} // Dark blue
	statusColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	// Background
	grid *canvas.Rectangle

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// plotArea maps samples to widget coordinates.
type plotArea struct {
	x, y, width, height float32
	yMin, yMax          float64
	xMin, xMax          time.Time
}

func (p plotArea) pos(t time.Time, v float64) fyne.Position {
	x := p.x + float32(t.Sub(p.xMin).Seconds()/p.xMax.Sub(p.xMin).Seconds())*p.width
	y := p.y + p.height - float32((v-p.yMin)/(p.yMax-p.yMin))*p.height
	return fyne.NewPos(x, y)
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.grid.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh rebuilds the canvas objects from the current data.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	samples := r.scope.displaySamples
	rates := r.scope.rates
	events := r.scope.events
	full := r.scope.samples
	area := plotArea{
		yMin: r.scope.yMin,
		yMax: r.scope.yMax,
		xMin: r.scope.xMin,
		xMax: r.scope.xMax,
	}
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.grid}

	const (
		marginLeft   = float32(70.0)
		marginRight  = float32(20.0)
		marginTop    = float32(20.0)
		marginBottom = float32(40.0)
	)
	area.x = marginLeft
	area.y = marginTop
	area.width = size.Width - marginLeft - marginRight
	area.height = size.Height - marginTop - marginBottom

	r.drawGrid(area)
	r.drawEvents(area, events, full)
	r.drawWeightLine(area, samples)
	r.drawStatus(area, full, rates)
}

// drawGrid draws the grid with weight and elapsed time labels.
func (r *scopeRenderer) drawGrid(p plotArea) {
	const numHLines = 8
	for i := range numHLines + 1 {
		y := p.y + float32(i)*p.height/float32(numHLines)
		r.line(gridColor, 1, fyne.NewPos(p.x, y), fyne.NewPos(p.x+p.width, y))

		value := p.yMax - float64(i)*(p.yMax-p.yMin)/float64(numHLines)
		text := canvas.NewText(formatWeight(value), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(p.x-5, y-6))
		r.objects = append(r.objects, text)
	}

	const numVLines = 10
	span := p.xMax.Sub(p.xMin)
	for i := range numVLines + 1 {
		x := p.x + float32(i)*p.width/float32(numVLines)
		r.line(gridColor, 1, fyne.NewPos(x, p.y), fyne.NewPos(x, p.y+p.height))

		offset := span * time.Duration(i) / numVLines
		text := canvas.NewText(formatElapsed(offset), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, p.y+p.height+5))
		r.objects = append(r.objects, text)
	}
}

// drawWeightLine draws the weight curve.
func (r *scopeRenderer) drawWeightLine(p plotArea, samples []sample.Sample) {
	if len(samples) < 2 {
		return
	}

	prev := p.pos(samples[0].Timestamp, samples[0].Weight)
	for _, s := range samples[1:] {
		curr := p.pos(s.Timestamp, s.Weight)
		r.line(weightColor, 1.5, prev, curr)
		prev = curr
	}
}

// drawEvents marks the start and end of each event and labels the weight gained.
func (r *scopeRenderer) drawEvents(p plotArea, events []trend.Event, samples []sample.Sample) {
	for _, e := range events {
		if e.StartIndex < 0 || e.EndIndex >= len(samples) {
			continue
		}

		start := p.pos(e.StartTime, p.yMin)
		end := p.pos(e.EndTime, p.yMin)
		r.line(eventColor, 1, fyne.NewPos(start.X, p.y), fyne.NewPos(start.X, p.y+p.height))
		r.line(eventColor, 1, fyne.NewPos(end.X, p.y), fyne.NewPos(end.X, p.y+p.height))

		peak := samples[e.EndIndex].Weight
		label := p.pos(e.EndTime, peak)
		text := canvas.NewText(formatDelta(e.Delta), weightColor)
		text.TextSize = 12
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos((start.X+end.X)/2-30, label.Y-15))
		r.objects = append(r.objects, text)
	}
}

// drawStatus prints the latest weight and rate in the top-left corner.
func (r *scopeRenderer) drawStatus(p plotArea, samples []sample.Sample, rates []float64) {
	if len(samples) == 0 {
		return
	}

	status := formatWeight(samples[len(samples)-1].Weight)
	if len(rates) > 0 {
		status += "  " + formatRate(rates[len(rates)-1])
	}
	text := canvas.NewText(status, statusColor)
	text.TextSize = 11
	text.Alignment = fyne.TextAlignLeading
	text.Move(fyne.NewPos(p.x+10, p.y+10))
	r.objects = append(r.objects, text)
}

func (r *scopeRenderer) line(c color.Color, width float32, from, to fyne.Position) {
	line := canvas.NewLine(c)
	line.Position1 = from
	line.Position2 = to
	line.StrokeWidth = width
	r.objects = append(r.objects, line)
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {}

func formatWeight(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatDelta(v float64) string {
	return fmt.Sprintf("%+.2f", v)
}

func formatRate(v float64) string {
	return fmt.Sprintf("%+.2f/h", v)
}

// formatElapsed renders an X axis offset at a resolution suited to its size.
func formatElapsed(d time.Duration) string {
	switch {
	case d >= 48*time.Hour:
		return fmt.Sprintf("%.1fd", d.Hours()/24)
	case d >= time.Hour:
		return fmt.Sprintf("%.1fh", d.Hours())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}
