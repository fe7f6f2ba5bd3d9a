package logfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/itohio/scalelog/pkg/clock"
)

// Delimiter separates the columns of a row.
const Delimiter = ";"

// ErrNotMounted is returned by volumes used before a successful Mount.
var ErrNotMounted = errors.New("volume not mounted")

// File is an open log file.
type File interface {
	io.Writer
	io.Closer
}

// Volume is a block storage volume holding the log file.
type Volume interface {
	// Mount (re-)initializes the volume.
	Mount() error
	// Exists reports whether the named file exists.
	Exists(name string) (bool, error)
	// OpenFile opens the named file with os.O_* flags.
	OpenFile(name string, flag int) (File, error)
}

// Log is an append-only delimited text file with a header row.
//
// The file goes from absent, to header only, to header plus N rows. Rows are
// never edited or removed, and no handle is kept between calls.
type Log struct {
	vol    Volume
	name   string
	header string
}

// New creates a Log for the named file on vol.
func New(vol Volume, name, header string) *Log {
	return &Log{vol: vol, name: name, header: header}
}

// Name returns the log file name.
func (l *Log) Name() string {
	return l.name
}

// MountVolume (re-)initializes the underlying volume.
func (l *Log) MountVolume() error {
	if err := l.vol.Mount(); err != nil {
		return fmt.Errorf("failed to mount volume: %w", err)
	}
	return nil
}

// EnsureHeader creates the file with its header line if it does not exist.
// It does nothing when the file exists, so it is safe to call every cycle.
func (l *Log) EnsureHeader() error {
	exists, err := l.vol.Exists(l.name)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", l.name, err)
	}
	if exists {
		return nil
	}

	return l.write(os.O_CREATE|os.O_WRONLY|os.O_APPEND, l.header+"\n")
}

// Append writes row at the end of the file. The file must already exist:
// rows never land in a file without its header. A failed open drops the row.
func (l *Log) Append(row string) error {
	return l.write(os.O_WRONLY|os.O_APPEND, row)
}

// Mark appends a row carrying only ts, creating the file with its header
// first if needed. It records a clock adjustment at boot.
func (l *Log) Mark(ts clock.Timestamp) error {
	if err := l.EnsureHeader(); err != nil {
		return err
	}
	return l.Append(FormatRow(ts))
}

// write opens the file, writes s and closes it on every path.
func (l *Log) write(flag int, s string) (err error) {
	f, err := l.vol.OpenFile(l.name, flag)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", l.name, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", l.name, cerr)
		}
	}()

	if _, err := io.WriteString(f, s); err != nil {
		return fmt.Errorf("failed to write %s: %w", l.name, err)
	}
	return nil
}

// FormatRow builds a data row: the timestamp, each value with two decimals,
// and a trailing delimiter and space before the newline.
func FormatRow(ts clock.Timestamp, values ...float64) string {
	var b strings.Builder
	b.WriteString(ts.String())
	for _, v := range values {
		b.WriteString(Delimiter)
		b.WriteString(strconv.FormatFloat(v, 'f', 2, 64))
	}
	b.WriteString(Delimiter)
	b.WriteString(" \n")
	return b.String()
}
