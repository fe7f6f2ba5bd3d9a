package clock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamp is a calendar reading from a real-time clock. It carries no
// timezone.
type Timestamp struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// Source provides calendar time.
type Source interface {
	// Now reads the clock. It fails if the clock cannot be reached.
	Now() (Timestamp, error)
	// Calibrate writes a reference time into the clock.
	Calibrate(ref Timestamp) error
}

// FromTime converts t to a Timestamp using t's own location.
func FromTime(t time.Time) Timestamp {
	return Timestamp{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// Time returns ts as a UTC time.Time.
func (ts Timestamp) Time() time.Time {
	return time.Date(ts.Year, time.Month(ts.Month), ts.Day, ts.Hour, ts.Minute, ts.Second, 0, time.UTC)
}

// IsZero reports whether ts was never set.
func (ts Timestamp) IsZero() bool {
	return ts == Timestamp{}
}

// String formats ts as YYYY/MM/DD;HH:MM:SS.
func (ts Timestamp) String() string {
	return fmt.Sprintf("%04d/%02d/%02d;%02d:%02d:%02d", ts.Year, ts.Month, ts.Day, ts.Hour, ts.Minute, ts.Second)
}

// ParseTimestamp parses the date (YYYY/MM/DD) and time (HH:MM:SS) columns of a
// log row.
func ParseTimestamp(date, clock string) (Timestamp, error) {
	d, err := splitInts(date, "/")
	if err != nil {
		return Timestamp{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	c, err := splitInts(clock, ":")
	if err != nil {
		return Timestamp{}, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	return Timestamp{Year: d[0], Month: d[1], Day: d[2], Hour: c[0], Minute: c[1], Second: c[2]}, nil
}

func splitInts(s, sep string) ([3]int, error) {
	var out [3]int
	parts := strings.Split(strings.TrimSpace(s), sep)
	if len(parts) != 3 {
		return out, fmt.Errorf("expected 3 fields, got %d", len(parts))
	}
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}

// ParseBuildTime parses the date ("Jan  2 2006") and time ("15:04:05") stamped
// into a firmware image at build time.
func ParseBuildTime(date, clock string) (Timestamp, error) {
	t, err := time.Parse("Jan _2 2006 15:04:05", strings.TrimSpace(date)+" "+strings.TrimSpace(clock))
	if err != nil {
		return Timestamp{}, fmt.Errorf("failed to parse build time: %w", err)
	}
	return FromTime(t), nil
}
