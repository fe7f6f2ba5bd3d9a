package sample

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(weights ...float64) []Sample {
	now := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	out := make([]Sample, len(weights))
	for i, w := range weights {
		out[i] = Sample{Timestamp: now.Add(time.Duration(i) * 15 * time.Minute), Weight: w}
	}
	return out
}

func weights(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Weight
	}
	return out
}

func TestSmooth(t *testing.T) {
	tests := []struct {
		name   string
		in     []float64
		window int
		want   []float64
	}{
		{name: "disabled", in: []float64{1, 5, 3}, window: 0, want: []float64{1, 5, 3}},
		{name: "window one", in: []float64{1, 5, 3}, window: 1, want: []float64{1, 5, 3}},
		{name: "window two", in: []float64{2, 4, 6, 8}, window: 2, want: []float64{2, 3, 5, 7}},
		{name: "window three", in: []float64{3, 6, 9, 12, 15}, window: 3, want: []float64{3, 4.5, 6, 9, 12}},
		{name: "window longer than series", in: []float64{2, 4}, window: 10, want: []float64{2, 3}},
		{name: "empty", in: nil, window: 3, want: []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := series(tt.in...)
			got := Smooth(in, tt.window)
			assert.InDeltaSlice(t, tt.want, weights(got), 1e-9)
			for i := range got {
				assert.Equal(t, in[i].Timestamp, got[i].Timestamp)
			}
		})
	}
}

func TestAveragingConverter(t *testing.T) {
	in := make(chan Sample, 10)
	out := NewAveragingConverter(2, 10)(in)

	for _, s := range series(2, 4, 6, 8) {
		in <- s
	}
	close(in)

	var got []Sample
	for s := range out {
		got = append(got, s)
	}
	require.Len(t, got, 4)
	assert.Equal(t, []float64{2, 3, 5, 7}, weights(got))
	assert.Equal(t, Smooth(series(2, 4, 6, 8), 2), got)
}

func TestAveragingConverter_InvalidWindow(t *testing.T) {
	in := make(chan Sample, 3)
	out := NewAveragingConverter(0, 0)(in)

	for _, s := range series(1, 5, 3) {
		in <- s
	}
	close(in)

	var got []float64
	for s := range out {
		got = append(got, s.Weight)
	}
	assert.Equal(t, []float64{1, 5, 3}, got)
}
