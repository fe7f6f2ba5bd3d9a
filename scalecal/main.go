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
	"strconv"
	"time"

	"github.com/itohio/scalelog/pkg/config"
	"github.com/itohio/scalelog/pkg/device"
	"github.com/itohio/scalelog/pkg/loadcell"
)

var errAborted = errors.New("calibration aborted")

// replyTimeout bounds each wait for the device, including the raw average.
const replyTimeout = 30 * time.Second

type options struct {
	configPath string
	out        string // calibration blob path, empty = config store
	persist    bool   // send the result to the device
	minR2      float64
	weights    []float64
}

func main() {
	var (
		portFlag    = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag  = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag    = flag.Bool("mock", false, "Use simulated device instead of serial port")
		outFlag     = flag.String("out", "", "Calibration blob file (default: calibration.store from config)")
		persistFlag = flag.Bool("persist", true, "Write the calibration to the device flash")
		minR2Flag   = flag.Float64("min-r2", 0.999, "Reject fits with a lower coefficient of determination")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] weight1 weight2 [...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	weights, err := parseWeights(flag.Args())
	if err != nil {
		flag.Usage()
		log.Fatalf("Invalid weights: %v", err)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	var (
		dev  device.Device
		load loader
	)
	if *mockFlag {
		mock, err := device.NewMock(cfg)
		if err != nil {
			log.Fatalf("Failed to create simulated device: %v", err)
		}
		dev = mock
		load = func(w float64) error {
			mock.SetLoad(w)
			return nil
		}
	} else {
		dev = device.New(cfg.Serial.Port, cfg.Serial.BaudRate, device.DefaultBufferSize)
		load = promptLoader(os.Stdin, os.Stdout)
	}

	if err := dev.Connect(); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer dev.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := options{
		configPath: *configFlag,
		out:        *outFlag,
		persist:    *persistFlag,
		minR2:      *minR2Flag,
		weights:    weights,
	}
	if err := run(ctx, cfg, dev, load, opts, os.Stdout); err != nil {
		log.Fatalf("Calibration failed: %v", err)
	}
}

func parseWeights(args []string) ([]float64, error) {
	if len(args) < 2 {
		return nil, loadcell.ErrNotEnoughPoints
	}
	weights := make([]float64, 0, len(args))
	for _, a := range args {
		w, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", a, err)
		}
		weights = append(weights, w)
	}
	return weights, nil
}

// run collects the points, fits them, and saves the result to the blob file,
// the device and the configuration.
func run(ctx context.Context, cfg *config.Config, dev device.Device, load loader, opts options, out io.Writer) error {
	conv, err := loadcell.ParseConvention(cfg.Calibration.Convention)
	if err != nil {
		return err
	}

	points, err := collect(ctx, dev, opts.weights, load, replyTimeout, out)
	if err != nil {
		return err
	}

	cal, r2, err := loadcell.Fit(points, conv)
	if err != nil {
		return fmt.Errorf("failed to fit calibration: %w", err)
	}
	report(out, cal, r2, opts.minR2, points)
	if r2 < opts.minR2 {
		return fmt.Errorf("fit quality r2=%.6f below %.6f; check the load cell and reference weights", r2, opts.minR2)
	}

	store := opts.out
	if store == "" {
		store = cfg.Calibration.Store
	}
	if err := writeBlob(store, cal); err != nil {
		return err
	}
	fmt.Fprintf(out, "Calibration written to %s\n", store)

	if opts.persist {
		pctx, cancel := context.WithTimeout(ctx, replyTimeout)
		defer cancel()
		if err := device.PersistCalibration(pctx, dev, cal); err != nil {
			return err
		}
		fmt.Fprintln(out, "Calibration persisted on device")
	}

	cfg.Calibration.Source = config.SourcePersisted
	cfg.Calibration.Scale = cal.Scale
	cfg.Calibration.Offset = cal.Offset
	cfg.Calibration.Store = store
	if err := cfg.Save(opts.configPath); err != nil {
		return err
	}
	fmt.Fprintf(out, "Configuration saved to %s\n", opts.configPath)
	return nil
}

func writeBlob(path string, cal loadcell.Calibration) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create calibration file: %w", err)
	}
	if err := loadcell.StoreCalibration(f, cal); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close calibration file: %w", err)
	}
	return nil
}
