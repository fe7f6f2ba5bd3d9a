package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/itohio/scalelog/pkg/clock"
	"github.com/itohio/scalelog/pkg/config"
	"github.com/itohio/scalelog/pkg/loadcell"
	"github.com/itohio/scalelog/pkg/logfile"
	"github.com/itohio/scalelog/pkg/wire"
)

// Mock simulates the logger firmware: it echoes a log row every
// RowInterval and answers raw and calibration commands.
type Mock struct {
	cfg *config.Config

	cell   *loadcell.Mock
	sensor *loadcell.Sensor
	clock  clock.Source

	messages  chan wire.Message
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	closed    bool // messages is closed; the device cannot reconnect
}

// NewMock creates a simulated device. A nil cfg uses config.Default.
func NewMock(cfg *config.Config) (*Mock, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	conv, err := loadcell.ParseConvention(cfg.Calibration.Convention)
	if err != nil {
		return nil, err
	}

	cell := loadcell.NewMock(&cfg.Mock)
	cal := loadcell.Calibration{
		Scale:      cfg.Calibration.Scale,
		Offset:     cfg.Calibration.Offset,
		Convention: conv,
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:      cfg,
		cell:     cell,
		sensor:   loadcell.NewSensor(cell, cal),
		clock:    clock.NewSystem(),
		messages: make(chan wire.Message, DefaultBufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// SetLoad places a load on the simulated cell.
func (m *Mock) SetLoad(load float64) {
	m.cell.SetLoad(load)
}

// Calibration returns the calibration the simulated firmware applies.
func (m *Mock) Calibration() loadcell.Calibration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sensor.Calibration()
}

// Connect simulates connecting to the device.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	go m.generateRows()

	return nil
}

// Close stops the simulated device.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	m.connected = false
	m.closed = true
	close(m.messages)

	return nil
}

// Messages returns the channel of simulated device lines.
func (m *Mock) Messages() <-chan wire.Message {
	return m.messages
}

// RequestRaw replies with the averaged raw count.
func (m *Mock) RequestRaw() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return ErrNotConnected
	}

	raw := m.sensor.ReadRaw(m.cfg.Schedule.AverageSamples)
	m.emit(wire.FormatRaw(raw))
	return nil
}

// WriteCalibration replaces the applied calibration and acknowledges it.
// Calibrations that would read as NaN or Inf are refused.
func (m *Mock) WriteCalibration(c loadcell.Calibration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrNotConnected
	}

	if c.Suspicious() {
		m.emit(wire.FormatAck(false))
		return nil
	}

	c.Convention = m.sensor.Calibration().Convention
	m.sensor.SetCalibration(c)
	m.emit(wire.FormatAck(true))
	return nil
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *Mock) generateRows() {
	ticker := time.NewTicker(m.cfg.Mock.RowInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.mu.RLock()
			if m.connected {
				m.emit(m.row())
			}
			m.mu.RUnlock()
		}
	}
}

// row formats the current reading the way the firmware logs it. The caller
// must hold mu.
func (m *Mock) row() string {
	ts, err := m.clock.Now()
	if err != nil {
		return fmt.Sprintf("clock: %v", err)
	}
	return logfile.FormatRow(ts, m.sensor.Read(m.cfg.Schedule.AverageSamples))
}

// emit delivers a line without blocking. The caller must hold mu with the
// device connected.
func (m *Mock) emit(line string) {
	select {
	case m.messages <- wire.ParseLine(line):
	default:
		// Channel full, skip
	}
}
