package logfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/itohio/scalelog/pkg/clock"
)

// Row is a data row read back from a log file.
type Row struct {
	Timestamp clock.Timestamp
	Values    []float64
}

// ReadRows parses a log file, skipping the header line. Columns that are
// declared in the header but left blank are ignored.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []Row
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read log: %w", err)
		}
		line++
		if line == 1 {
			continue
		}
		row, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// ParseRow parses a single data row such as the one FormatRow produces.
func ParseRow(line string) (Row, error) {
	line = strings.TrimRight(line, "\r\n")
	return parseRecord(strings.Split(line, Delimiter))
}

func parseRecord(rec []string) (Row, error) {
	if len(rec) < 2 {
		return Row{}, fmt.Errorf("expected date and time columns, got %d fields", len(rec))
	}

	ts, err := clock.ParseTimestamp(rec[0], rec[1])
	if err != nil {
		return Row{}, err
	}

	row := Row{Timestamp: ts}
	for _, field := range rec[2:] {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return Row{}, fmt.Errorf("invalid value %q: %w", field, err)
		}
		row.Values = append(row.Values, v)
	}
	return row, nil
}
