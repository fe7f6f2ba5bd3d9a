package device

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/itohio/scalelog/pkg/loadcell"
	"github.com/itohio/scalelog/pkg/wire"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the USB CDC baud rate of the firmware.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the messages channel buffer.
	DefaultBufferSize = 100
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a connection to the logger firmware.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	messages  chan wire.Message
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	closed    bool // messages is closed; the device cannot reconnect
}

// New creates a new Serial device with the specified port, baud rate, and buffer size.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		messages: make(chan wire.Message, bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Connect opens the serial port and starts reading lines.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if d.connected {
		return fmt.Errorf("already connected")
	}

	port, err := serial.Open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	go d.readLines(port)

	return nil
}

// Close closes the connection and the messages channel.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false
	d.closed = true
	close(d.messages)

	return nil
}

// Messages returns the channel of parsed device lines.
func (d *Serial) Messages() <-chan wire.Message {
	return d.messages
}

// RequestRaw asks the firmware for an averaged raw reading. The reply
// arrives on Messages as a wire.MessageRaw.
func (d *Serial) RequestRaw() error {
	return d.send(wire.FormatRawRequest())
}

// WriteCalibration asks the firmware to persist c. The reply arrives on
// Messages as a wire.MessageAck.
func (d *Serial) WriteCalibration(c loadcell.Calibration) error {
	return d.send(wire.FormatCalibrate(c))
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

func (d *Serial) send(cmd string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return ErrNotConnected
	}

	if _, err := d.conn.Write([]byte(cmd)); err != nil {
		return fmt.Errorf("failed to send command %q: %w", strings.TrimSpace(cmd), err)
	}
	return nil
}

// readLines reads lines from r and publishes them until the device is closed.
func (d *Serial) readLines(r io.Reader) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("Panic in readLines: %v", rec)
		}
	}()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !d.publish(wire.ParseLine(line)) {
			return
		}
	}
	if err := scanner.Err(); err != nil && d.ctx.Err() == nil {
		log.Printf("Error reading from serial port: %v", err)
	}
}

// publish delivers msg without blocking. It reports false once the device
// is closed.
func (d *Serial) publish(msg wire.Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return false
	}

	select {
	case d.messages <- msg:
	default:
		log.Printf("Messages channel full, dropping %s message", msg.Kind)
	}
	return true
}
