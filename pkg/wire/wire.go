// Package wire defines the line protocol between the firmware and host tools
// on the serial link.
//
// Host to device:
//
//	R                  request an averaged raw reading
//	C;<scale>;<offset> persist a calibration
//
// Device to host:
//
//	raw;<average>      reply to R
//	cal;ok | cal;err   reply to C
//	<log row>          echo of each logged row when debug is enabled
//	anything else      diagnostic text
package wire

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/itohio/scalelog/pkg/loadcell"
	"github.com/itohio/scalelog/pkg/logfile"
)

const (
	sep      = ";"
	replyRaw = "raw"
	replyCal = "cal"
)

// CommandKind identifies a host command.
type CommandKind int

const (
	CommandRaw CommandKind = iota + 1
	CommandCalibrate
)

// Command is a parsed host command.
type Command struct {
	Kind        CommandKind
	Calibration loadcell.Calibration // CommandCalibrate only
}

// MessageKind classifies a device line.
type MessageKind int

const (
	MessageText MessageKind = iota
	MessageRow
	MessageRaw
	MessageAck
)

func (k MessageKind) String() string {
	switch k {
	case MessageRow:
		return "row"
	case MessageRaw:
		return "raw"
	case MessageAck:
		return "ack"
	}
	return "text"
}

// Message is a parsed device line.
type Message struct {
	Kind     MessageKind
	Received time.Time
	Text     string      // the line as received
	Row      logfile.Row // MessageRow
	Raw      float64     // MessageRaw
	OK       bool        // MessageAck
}

// FormatRawRequest returns the R command.
func FormatRawRequest() string {
	return "R\n"
}

// FormatCalibrate returns the C command for c. Values are sent with float32
// precision, the precision they are stored with.
func FormatCalibrate(c loadcell.Calibration) string {
	return "C" + sep + strconv.FormatFloat(c.Scale, 'g', -1, 32) + sep + strconv.FormatFloat(c.Offset, 'g', -1, 32) + "\n"
}

// FormatRaw returns the reply to R.
func FormatRaw(avg float64) string {
	return replyRaw + sep + strconv.FormatFloat(avg, 'f', 2, 64) + "\n"
}

// FormatAck returns the reply to C.
func FormatAck(ok bool) string {
	if ok {
		return replyCal + sep + "ok\n"
	}
	return replyCal + sep + "err\n"
}

// ParseCommand parses a host command line. The convention is not part of the
// command; the device applies its configured one.
func ParseCommand(line string, conv loadcell.Convention) (Command, error) {
	line = strings.TrimSpace(line)
	parts := strings.Split(line, sep)

	switch parts[0] {
	case "R":
		if len(parts) != 1 {
			return Command{}, fmt.Errorf("invalid raw request %q", line)
		}
		return Command{Kind: CommandRaw}, nil
	case "C":
		if len(parts) != 3 {
			return Command{}, fmt.Errorf("invalid calibrate command: expected 3 fields, got %d", len(parts))
		}
		scale, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return Command{}, fmt.Errorf("invalid scale: %w", err)
		}
		offset, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return Command{}, fmt.Errorf("invalid offset: %w", err)
		}
		return Command{
			Kind:        CommandCalibrate,
			Calibration: loadcell.Calibration{Scale: scale, Offset: offset, Convention: conv},
		}, nil
	}
	return Command{}, fmt.Errorf("unknown command %q", line)
}

// ParseLine classifies a device line. Lines that match no reply or row
// format are returned as text.
func ParseLine(line string) Message {
	line = strings.TrimRight(line, "\r\n")
	msg := Message{Kind: MessageText, Received: time.Now(), Text: line}

	if v, ok := strings.CutPrefix(line, replyRaw+sep); ok {
		if raw, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			msg.Kind = MessageRaw
			msg.Raw = raw
		}
		return msg
	}

	if v, ok := strings.CutPrefix(line, replyCal+sep); ok {
		switch strings.TrimSpace(v) {
		case "ok":
			msg.Kind, msg.OK = MessageAck, true
		case "err":
			msg.Kind = MessageAck
		}
		return msg
	}

	if row, err := logfile.ParseRow(line); err == nil && len(row.Values) > 0 {
		msg.Kind = MessageRow
		msg.Row = row
	}
	return msg
}
