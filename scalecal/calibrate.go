package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/itohio/scalelog/pkg/device"
	"github.com/itohio/scalelog/pkg/loadcell"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// loader places a reference weight on the scale. The interactive loader asks
// the operator; the simulated one sets the mock load.
type loader func(weight float64) error

// promptLoader asks the operator to load each weight and waits for Enter.
func promptLoader(in io.Reader, out io.Writer) loader {
	r := bufio.NewReader(in)
	return func(weight float64) error {
		if weight == 0 {
			fmt.Fprintln(out, titleStyle.Render("Clear the scale, then press Enter to start sampling zero."))
		} else {
			fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Put %g on the scale, then press Enter.", weight)))
		}
		fmt.Fprintln(out, helpStyle.Render("(q + Enter aborts)"))
		line, err := r.ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if strings.EqualFold(strings.TrimSpace(line), "q") {
			return errAborted
		}
		return nil
	}
}

// collect samples an averaged raw reading for each reference weight.
// Each read waits at most timeout; the operator prompt is not bounded.
func collect(ctx context.Context, dev device.Device, weights []float64, load loader, timeout time.Duration, out io.Writer) ([]loadcell.Point, error) {
	points := make([]loadcell.Point, 0, len(weights))
	for _, w := range weights {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := load(w); err != nil {
			return nil, err
		}

		rctx, cancel := context.WithTimeout(ctx, timeout)
		raw, err := device.ReadRaw(rctx, dev)
		cancel()
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "  %g -> raw %.2f\n", w, raw)
		points = append(points, loadcell.Point{Raw: raw, Weight: w})
	}
	return points, nil
}

// report prints the fitted calibration and the residual of every point. The
// summary is green when r2 reaches minR2.
func report(out io.Writer, cal loadcell.Calibration, r2, minR2 float64, points []loadcell.Point) {
	style := okStyle
	if r2 < minR2 {
		style = errStyle
	}
	fmt.Fprintln(out, style.Render(fmt.Sprintf("scale=%g offset=%g convention=%s r2=%.6f", cal.Scale, cal.Offset, cal.Convention, r2)))
	for _, p := range points {
		fmt.Fprintf(out, "  raw %.2f: expected %g, got %.2f\n", p.Raw, p.Weight, cal.Apply(p.Raw))
	}
}
