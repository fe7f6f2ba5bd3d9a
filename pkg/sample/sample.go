package sample

import (
	"log"
	"time"

	"github.com/itohio/scalelog/pkg/logfile"
	"github.com/itohio/scalelog/pkg/wire"
)

// Sample is one logged weight reading.
type Sample struct {
	Timestamp time.Time
	Weight    float64
}

// Converter is a function type that turns a device message stream into samples.
type Converter func(in <-chan wire.Message) <-chan Sample

// FromRow extracts value column col of row. It reports false if the row has
// no such column.
func FromRow(row logfile.Row, col int) (Sample, bool) {
	if col < 0 || col >= len(row.Values) {
		return Sample{}, false
	}
	return Sample{Timestamp: row.Timestamp.Time(), Weight: row.Values[col]}, true
}

// FromRows converts rows read back from a log file, skipping rows without
// column col.
func FromRows(rows []logfile.Row, col int) []Sample {
	out := make([]Sample, 0, len(rows))
	for _, row := range rows {
		if s, ok := FromRow(row, col); ok {
			out = append(out, s)
		}
	}
	return out
}

// NewConverter creates a converter that keeps the row echoes of a device
// stream and drops everything else.
func NewConverter(col int, bufSize int) Converter {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan wire.Message) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			for msg := range in {
				if msg.Kind != wire.MessageRow {
					continue
				}
				s, ok := FromRow(msg.Row, col)
				if !ok {
					log.Printf("Row %q has no column %d", msg.Text, col)
					continue
				}

				select {
				case out <- s:
				case <-time.After(time.Second):
					log.Printf("Converter output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}
