package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/scalelog/pkg/clock"
	"github.com/itohio/scalelog/pkg/config"
	"github.com/itohio/scalelog/pkg/diag"
	"github.com/itohio/scalelog/pkg/loadcell"
	"github.com/itohio/scalelog/pkg/logfile"
	"github.com/itohio/scalelog/pkg/scheduler"
)

// Build stamp used to set the clock when clock.adjust_on_boot is set:
//
//	go build -ldflags "-X 'main.buildDate=$(date +'%b %e %Y')' -X main.buildTime=$(date +%T)"
var (
	buildDate string
	buildTime string
)

func main() {
	var (
		configFlag  = flag.String("config", "config.yaml", "Configuration file path")
		profileFlag = flag.String("profile", "", "Start from a built-in profile (datalog, field_capacity) instead of the config file")
		dirFlag     = flag.String("dir", "", "Storage directory override")
		periodFlag  = flag.Duration("period", 0, "Sampling period override")
		loadFlag    = flag.Float64("load", -1, "Simulated load override")
		quietFlag   = flag.Bool("quiet", false, "Disable the diagnostic stream")
	)
	flag.Parse()

	cfg, err := loadConfig(*configFlag, *profileFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *dirFlag != "" {
		cfg.Storage.Dir = *dirFlag
	}
	if *periodFlag > 0 {
		cfg.Schedule.Period = *periodFlag
	}
	if *loadFlag >= 0 {
		cfg.Mock.Load = *loadFlag
	}
	if *quietFlag {
		cfg.Debug = false
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Logger stopped: %v", err)
	}
}

func loadConfig(path, profile string) (*config.Config, error) {
	if profile != "" {
		return config.Preset(profile)
	}
	return config.Load(path)
}

// run boots the logger the way the firmware does and polls until ctx is done.
func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	d := diag.New(out, cfg.Debug)
	d.Println("start")

	if err := os.MkdirAll(cfg.Storage.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	lg := logfile.New(logfile.NewDirVolume(cfg.Storage.Dir), cfg.Log.FileName, cfg.Log.Header)
	if err := lg.MountVolume(); err != nil {
		d.Printf("storage mount failed: %v", err)
	} else {
		d.Println("SD card initialized")
	}

	src := clock.NewSystem()
	if cfg.Clock.AdjustOnBoot && adjustClock(src, d) {
		markBoot(src, lg, d)
	}
	if d.Enabled() {
		if ts, err := src.Now(); err == nil {
			d.Println(ts.String())
		}
	}

	cal, err := loadCalibration(cfg)
	if err != nil {
		return err
	}
	if cal.Suspicious() {
		d.Printf("calibration looks uninitialized: scale=%v offset=%v", cal.Scale, cal.Offset)
	}
	d.Printf("calibration: scale=%v offset=%v convention=%s", cal.Scale, cal.Offset, cal.Convention)

	cell := loadcell.NewMock(&cfg.Mock)
	sensor := loadcell.NewSensor(cell, cal)

	sched := scheduler.New(cfg.Schedule, clock.NewMonotonic(), src, sensor, lg, d)
	log.Printf("Logging to %s every %s", lg.Name(), cfg.Schedule.Period)

	err = sched.Run(ctx)

	stats := sched.Stats()
	log.Printf("Cycles: %d, written: %d, dropped: %d, clock errors: %d",
		stats.Cycles, stats.Written, stats.Dropped, stats.ClockErrors)
	return err
}

// adjustClock sets the clock from the build stamp, the host equivalent of
// flashing the firmware with the adjust switch on. It reports whether the
// clock was set.
func adjustClock(src clock.Source, d *diag.Stream) bool {
	ref, err := clock.ParseBuildTime(buildDate, buildTime)
	if err != nil {
		d.Printf("clock not adjusted: %v", err)
		return false
	}
	if err := src.Calibrate(ref); err != nil {
		d.Printf("clock adjust failed: %v", err)
		return false
	}
	d.Printf("clock adjusted to %s", ref)
	return true
}

// markBoot logs a timestamp-only row so the adjustment shows in the file.
func markBoot(src clock.Source, lg *logfile.Log, d *diag.Stream) {
	ts, err := src.Now()
	if err != nil {
		d.Printf("clock read failed: %v", err)
		return
	}
	if err := lg.Mark(ts); err != nil {
		d.Printf("boot mark dropped: %v", err)
	}
}

func loadCalibration(cfg *config.Config) (loadcell.Calibration, error) {
	if cfg.Calibration.Source != config.SourcePersisted {
		return loadcell.FromConfig(cfg.Calibration, nil)
	}

	f, err := os.Open(cfg.Calibration.Store)
	if err != nil {
		return loadcell.Calibration{}, fmt.Errorf("failed to open calibration store (run scalecal first): %w", err)
	}
	defer f.Close()

	return loadcell.FromConfig(cfg.Calibration, f)
}
