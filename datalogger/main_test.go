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
	"github.com/itohio/scalelog/pkg/loadcell"
	"github.com/itohio/scalelog/pkg/logfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, profile string) *config.Config {
	t.Helper()
	cfg, err := config.Preset(profile)
	require.NoError(t, err)
	cfg.Storage.Dir = filepath.Join(t.TempDir(), "sd")
	cfg.Schedule.Period = 20 * time.Millisecond
	cfg.Schedule.PollInterval = time.Millisecond
	cfg.Mock.Noise = 0
	cfg.Mock.DriftPerHour = 0
	return cfg
}

func TestRun_WritesRows(t *testing.T) {
	cfg := testConfig(t, config.ProfileDatalog)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	err := run(ctx, cfg, &out)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	data, err := os.ReadFile(filepath.Join(cfg.Storage.Dir, cfg.Log.FileName))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), config.HeaderDatalog+"\n"))

	rows, err := logfile.ReadRows(bytes.NewReader(data))
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	for _, row := range rows {
		require.Len(t, row.Values, 1)
	}

	diag := out.String()
	assert.True(t, strings.HasPrefix(diag, "start\n"))
	assert.Contains(t, diag, "SD card initialized")
	assert.Contains(t, diag, "SD card written")
}

func TestRun_Quiet(t *testing.T) {
	cfg := testConfig(t, config.ProfileDatalog)
	cfg.Debug = false

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	_ = run(ctx, cfg, &out)
	assert.Empty(t, out.String())
}

func TestRun_PersistedCalibration(t *testing.T) {
	cfg := testConfig(t, config.ProfileFieldCapacity)
	cfg.Calibration.Store = filepath.Join(t.TempDir(), "calibration.bin")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := run(ctx, cfg, &bytes.Buffer{})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, context.DeadlineExceeded, "missing store fails before the loop starts")

	blob := loadcell.EncodeCalibration(loadcell.Calibration{Scale: 2, Offset: 10})
	require.NoError(t, os.WriteFile(cfg.Calibration.Store, blob[:], 0644))

	cal, err := loadCalibration(cfg)
	require.NoError(t, err)
	assert.Equal(t, 2.0, cal.Scale)
	assert.Equal(t, 10.0, cal.Offset)

	ctx2, cancel2 := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel2()
	assert.ErrorIs(t, run(ctx2, cfg, &bytes.Buffer{}), context.DeadlineExceeded)

	data, err := os.ReadFile(filepath.Join(cfg.Storage.Dir, "datalogFieldCapacity.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Data;Hora;Peso\n"))
}

func TestLoadConfig_Profile(t *testing.T) {
	cfg, err := loadConfig("does-not-matter.yaml", config.ProfileFieldCapacity)
	require.NoError(t, err)
	assert.Equal(t, config.ProfileFieldCapacity, cfg.Profile)

	_, err = loadConfig("", "nope")
	assert.Error(t, err)
}

func TestRun_AdjustClockMarksLog(t *testing.T) {
	cfg := testConfig(t, config.ProfileFieldCapacity)
	cfg.Calibration.Source = config.SourceConstant
	cfg.Clock.AdjustOnBoot = true
	cfg.Schedule.Period = time.Hour

	oldDate, oldTime := buildDate, buildTime
	t.Cleanup(func() { buildDate, buildTime = oldDate, oldTime })
	buildDate, buildTime = "Mar  7 2024", "04:05:09"

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	assert.ErrorIs(t, run(ctx, cfg, &out), context.DeadlineExceeded)
	assert.Contains(t, out.String(), "clock adjusted to 2024/03/07;04:05:09")

	data, err := os.ReadFile(filepath.Join(cfg.Storage.Dir, cfg.Log.FileName))
	require.NoError(t, err)
	rows, err := logfile.ReadRows(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 1, "only the boot mark before the first period")
	assert.Empty(t, rows[0].Values)
	assert.Equal(t, 2024, rows[0].Timestamp.Year)
	assert.Equal(t, 7, rows[0].Timestamp.Day)
}

func TestRun_NoBuildStampNoMark(t *testing.T) {
	cfg := testConfig(t, config.ProfileFieldCapacity)
	cfg.Calibration.Source = config.SourceConstant
	cfg.Clock.AdjustOnBoot = true
	cfg.Schedule.Period = time.Hour

	oldDate, oldTime := buildDate, buildTime
	t.Cleanup(func() { buildDate, buildTime = oldDate, oldTime })
	buildDate, buildTime = "", ""

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	_ = run(ctx, cfg, &out)
	assert.Contains(t, out.String(), "clock not adjusted")
	assert.NoFileExists(t, filepath.Join(cfg.Storage.Dir, cfg.Log.FileName))
}
