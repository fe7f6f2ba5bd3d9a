// Package diag is the human-readable debug stream. Nothing parses it.
package diag

import (
	"fmt"
	"io"
	"log"
)

// Stream writes debug lines when enabled. A nil *Stream is disabled.
type Stream struct {
	enabled bool
	l       *log.Logger
}

// New creates a stream writing to w. Lines carry no prefix or timestamp; the
// device has no reliable wall time when they are written.
func New(w io.Writer, enabled bool) *Stream {
	return &Stream{enabled: enabled, l: log.New(w, "", 0)}
}

// Enabled reports whether lines are written.
func (s *Stream) Enabled() bool {
	return s != nil && s.enabled
}

// Printf writes a formatted line.
func (s *Stream) Printf(format string, args ...any) {
	if !s.Enabled() {
		return
	}
	s.l.Output(2, fmt.Sprintf(format, args...))
}

// Println writes its operands as a line.
func (s *Stream) Println(args ...any) {
	if !s.Enabled() {
		return
	}
	s.l.Output(2, fmt.Sprintln(args...))
}
