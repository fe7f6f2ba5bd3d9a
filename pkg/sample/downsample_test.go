package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownsample_NoDownsampling(t *testing.T) {
	samples := series(1.0, 1.1, 1.2)

	// Test with nil dst
	result := Downsample(nil, samples, 10)
	require.Equal(t, 3, len(result))
	assert.Equal(t, samples, result)

	// Test with sufficient capacity dst
	dst := make([]Sample, 0, 10)
	result = Downsample(dst, samples, 10)
	assert.Equal(t, samples, result)
	// Should reuse dst
	assert.Equal(t, cap(dst), cap(result))
}

func TestDownsample_WithDownsampling(t *testing.T) {
	in := make([]float64, 100)
	for i := range in {
		in[i] = float64(i)
	}
	samples := series(in...)

	dst := make([]Sample, 0, 20)
	result := Downsample(dst, samples, 10)
	require.Equal(t, 10, len(result))

	assert.Equal(t, samples[0], result[0])
	assert.Equal(t, samples[99], result[9])
	for i := 1; i < len(result); i++ {
		assert.Greater(t, result[i].Weight, result[i-1].Weight)
	}
	assert.Equal(t, cap(dst), cap(result))
}

func TestDownsample_SinglePoint(t *testing.T) {
	samples := series(1, 2, 3)

	result := Downsample(nil, samples, 1)
	require.Len(t, result, 1)
	assert.Equal(t, samples[2], result[0])
}

func TestDownsample_Unlimited(t *testing.T) {
	samples := series(1, 2, 3)

	assert.Equal(t, samples, Downsample(nil, samples, 0))
}

func TestDownsample_DestinationReuse(t *testing.T) {
	dst := make([]Sample, 0, 10)

	result1 := Downsample(dst, series(1, 2), 10)
	require.Len(t, result1, 2)

	result2 := Downsample(result1, series(4, 5, 6), 10)
	require.Len(t, result2, 3)
	assert.Equal(t, []float64{4, 5, 6}, weights(result2))
	assert.Equal(t, cap(dst), cap(result2))
}
