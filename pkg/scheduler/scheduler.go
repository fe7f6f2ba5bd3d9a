package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itohio/scalelog/pkg/clock"
	"github.com/itohio/scalelog/pkg/config"
	"github.com/itohio/scalelog/pkg/diag"
	"github.com/itohio/scalelog/pkg/loadcell"
	"github.com/itohio/scalelog/pkg/logfile"
)

// ErrRowDropped wraps failures that cost the current cycle its row. Rows are
// never retried or buffered.
var ErrRowDropped = errors.New("row dropped")

// Sensor produces a calibrated reading averaged over n acquisitions.
type Sensor interface {
	Read(n int) float64
}

// AppendLog is the storage side of a cycle. *logfile.Log implements it.
type AppendLog interface {
	MountVolume() error
	EnsureHeader() error
	Append(row string) error
}

var _ AppendLog = (*logfile.Log)(nil)

// Stats counts cycles since boot.
type Stats struct {
	Cycles      int // periods that elapsed
	Written     int // rows appended
	Dropped     int // rows lost to storage failures
	ClockErrors int // cycles logged with a stale timestamp
}

// Scheduler runs the sample-and-log cycle once per period of the uptime
// counter.
type Scheduler struct {
	uptime clock.Uptime
	clock  clock.Source
	sensor Sensor
	log    AppendLog
	diag   *diag.Stream

	period       uint32
	samples      int
	pollInterval time.Duration

	last   uint32          // uptime of the last sample
	lastTS clock.Timestamp // last timestamp read successfully
	stats  Stats
}

// New creates a scheduler. The first sample is taken one full period after
// New returns.
func New(cfg config.ScheduleConfig, uptime clock.Uptime, src clock.Source, sensor Sensor, log AppendLog, d *diag.Stream) *Scheduler {
	samples := cfg.AverageSamples
	if samples <= 0 {
		samples = loadcell.DefaultSamples
	}

	return &Scheduler{
		uptime:       uptime,
		clock:        src,
		sensor:       sensor,
		log:          log,
		diag:         d,
		period:       uint32(cfg.Period.Milliseconds()),
		samples:      samples,
		pollInterval: cfg.PollInterval,
		last:         uptime.Millis(),
	}
}

// Elapsed returns the milliseconds from last to now. Unsigned subtraction
// stays correct across one wrap of the counter.
func Elapsed(now, last uint32) uint32 {
	return now - last
}

// Stats returns the cycle counters.
func (s *Scheduler) Stats() Stats {
	return s.stats
}

// Poll runs one loop iteration. It reports whether the period had elapsed and
// a cycle ran. A returned error means the cycle's row was dropped.
func (s *Scheduler) Poll() (bool, error) {
	now := s.uptime.Millis()
	if Elapsed(now, s.last) < s.period {
		return false, nil
	}
	s.last = now
	s.stats.Cycles++

	weight := s.sensor.Read(s.samples)

	ts, err := s.clock.Now()
	if err != nil {
		s.stats.ClockErrors++
		s.diag.Printf("clock read failed: %v", err)
		ts = s.lastTS
	} else {
		s.lastTS = ts
	}

	if err := s.cycle(logfile.FormatRow(ts, weight)); err != nil {
		s.stats.Dropped++
		s.diag.Printf("%v", err)
		return true, fmt.Errorf("%w: %w", ErrRowDropped, err)
	}
	s.stats.Written++
	return true, nil
}

// cycle mounts the volume, makes sure the header exists and appends row.
// A volume that fails to mount skips the cycle; the loop keeps running.
func (s *Scheduler) cycle(row string) error {
	if err := s.log.MountVolume(); err != nil {
		return err
	}
	s.diag.Println("SD card initialized")

	if err := s.log.EnsureHeader(); err != nil {
		return err
	}

	s.diag.Printf("%s", row)
	if err := s.log.Append(row); err != nil {
		return err
	}
	s.diag.Println("SD card written")
	return nil
}

// Run polls until ctx is done, sleeping the poll interval between polls.
// Dropped rows are reported on the diagnostic stream and do not stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, _ = s.Poll()

		if s.pollInterval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.pollInterval):
			}
		}
	}
}
