package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/itohio/scalelog/pkg/config"
	"github.com/itohio/scalelog/pkg/device"
	"github.com/itohio/scalelog/pkg/loadcell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Mock.Noise = 0
	cfg.Mock.DriftPerHour = 0
	cfg.Mock.RawOffset = 100
	cfg.Mock.RawScale = 2
	cfg.Mock.RowInterval = 10 * time.Millisecond
	cfg.Schedule.AverageSamples = 3
	return cfg
}

func connectedMock(t *testing.T, cfg *config.Config) (*device.Mock, loader) {
	t.Helper()
	mock, err := device.NewMock(cfg)
	require.NoError(t, err)
	require.NoError(t, mock.Connect())
	t.Cleanup(func() { mock.Close() })
	return mock, func(w float64) error {
		mock.SetLoad(w)
		return nil
	}
}

func TestParseWeights(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []float64
		wantErr bool
	}{
		{name: "two weights", args: []string{"0", "1000"}, want: []float64{0, 1000}},
		{name: "fractional", args: []string{"0", "250.5", "500"}, want: []float64{0, 250.5, 500}},
		{name: "single weight", args: []string{"1000"}, wantErr: true},
		{name: "none", wantErr: true},
		{name: "not a number", args: []string{"0", "kg"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseWeights(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPromptLoader(t *testing.T) {
	var out bytes.Buffer
	load := promptLoader(strings.NewReader("\n\nq\n"), &out)

	require.NoError(t, load(0))
	require.NoError(t, load(500))
	assert.ErrorIs(t, load(1000), errAborted)
	assert.Error(t, load(1500), "input exhausted")

	assert.Contains(t, out.String(), "Clear the scale")
	assert.Contains(t, out.String(), "Put 500 on the scale")
}

func TestCollect(t *testing.T) {
	mock, load := connectedMock(t, testConfig())

	var out bytes.Buffer
	points, err := collect(context.Background(), mock, []float64{0, 500}, load, time.Second, &out)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.InDelta(t, 100, points[0].Raw, 1e-9)
	assert.InDelta(t, 1100, points[1].Raw, 1e-9)
	assert.Equal(t, 500.0, points[1].Weight)
	assert.Contains(t, out.String(), "raw 1100.00")
}

func TestCollect_Canceled(t *testing.T) {
	mock, load := connectedMock(t, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := collect(ctx, mock, []float64{0, 500}, load, time.Second, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	mock, load := connectedMock(t, cfg)

	opts := options{
		configPath: filepath.Join(dir, "config.yaml"),
		out:        filepath.Join(dir, "cal.bin"),
		persist:    true,
		minR2:      0.999,
		weights:    []float64{0, 500, 1000},
	}

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, mock, load, opts, &out))

	// weight = raw/2 - 50
	assert.InDelta(t, 0.5, mock.Calibration().Scale, 1e-6)
	assert.InDelta(t, 50, mock.Calibration().Offset, 1e-6)

	f, err := os.Open(opts.out)
	require.NoError(t, err)
	defer f.Close()
	stored, err := loadcell.LoadCalibration(f, loadcell.Subtract)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, stored.Scale, 1e-6)
	assert.InDelta(t, 50, stored.Offset, 1e-4)

	saved, err := config.Load(opts.configPath)
	require.NoError(t, err)
	assert.Equal(t, config.SourcePersisted, saved.Calibration.Source)
	assert.Equal(t, opts.out, saved.Calibration.Store)
	assert.InDelta(t, 0.5, saved.Calibration.Scale, 1e-6)

	assert.Contains(t, out.String(), "r2=1.000000")
	assert.Contains(t, out.String(), "Calibration persisted on device")
}

func TestRun_PoorFit(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	mock, load := connectedMock(t, cfg)

	opts := options{
		configPath: filepath.Join(dir, "config.yaml"),
		out:        filepath.Join(dir, "cal.bin"),
		minR2:      1.1,
		weights:    []float64{0, 500},
	}

	err := run(context.Background(), cfg, mock, load, opts, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fit quality")

	_, err = os.Stat(opts.out)
	assert.True(t, os.IsNotExist(err))
	assert.InDelta(t, 9.378, mock.Calibration().Scale, 1e-9)
}

func TestRun_IdenticalReadings(t *testing.T) {
	cfg := testConfig()
	mock, _ := connectedMock(t, cfg)

	// The operator never changes the load.
	still := func(float64) error { return nil }
	opts := options{weights: []float64{0, 500}, minR2: 0.999}

	err := run(context.Background(), cfg, mock, still, opts, &bytes.Buffer{})
	assert.ErrorIs(t, err, loadcell.ErrNotEnoughPoints)
}
