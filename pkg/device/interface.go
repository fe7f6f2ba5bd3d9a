package device

import (
	"errors"

	"github.com/itohio/scalelog/pkg/loadcell"
	"github.com/itohio/scalelog/pkg/wire"
)

var (
	// ErrNotConnected is returned by commands sent to a closed device.
	ErrNotConnected = errors.New("not connected")
	// ErrClosed is returned by Connect on a device that was closed; its
	// message channel is gone, so create a new device instead.
	ErrClosed = errors.New("device closed")
	// ErrRejected is returned when the device refuses a calibration.
	ErrRejected = errors.New("calibration rejected by device")
)

// Device defines the interface for data logger devices (real or mocked).
type Device interface {
	Connect() error // ErrClosed after Close
	Close() error
	Messages() <-chan wire.Message
	RequestRaw() error
	WriteCalibration(c loadcell.Calibration) error
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
