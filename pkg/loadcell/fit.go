//go:build !tinygo

package loadcell

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNotEnoughPoints is returned when a fit has fewer than two distinct raw
// readings.
var ErrNotEnoughPoints = errors.New("at least two points with distinct raw readings are required")

// Point pairs an averaged raw reading with the known reference weight.
type Point struct {
	Raw    float64
	Weight float64
}

// Fit computes the least-squares calibration mapping raw readings to weights
// in the given convention. It also returns the coefficient of determination.
func Fit(points []Point, conv Convention) (Calibration, float64, error) {
	if len(points) < 2 {
		return Calibration{}, 0, ErrNotEnoughPoints
	}

	x := make([]float64, len(points))
	y := make([]float64, len(points))
	for i, p := range points {
		x[i] = p.Raw
		y[i] = p.Weight
	}
	if floats.Max(x) == floats.Min(x) {
		return Calibration{}, 0, ErrNotEnoughPoints
	}

	// weight = alpha + beta*raw
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	if beta == 0 {
		return Calibration{}, 0, fmt.Errorf("fit produced zero scale")
	}
	r2 := stat.RSquared(x, y, nil, alpha, beta)

	cal := Calibration{Scale: beta, Convention: conv}
	if conv == Add {
		cal.Offset = alpha
	} else {
		cal.Offset = -alpha
	}
	return cal, r2, nil
}
