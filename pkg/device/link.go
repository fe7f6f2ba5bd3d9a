package device

import (
	"context"
	"fmt"

	"github.com/itohio/scalelog/pkg/loadcell"
	"github.com/itohio/scalelog/pkg/wire"
)

// ReadRaw requests an averaged raw reading and waits for the reply. Other
// messages received meanwhile are discarded.
func ReadRaw(ctx context.Context, dev Device) (float64, error) {
	if err := dev.RequestRaw(); err != nil {
		return 0, err
	}

	msg, err := await(ctx, dev, wire.MessageRaw)
	if err != nil {
		return 0, fmt.Errorf("failed to read raw count: %w", err)
	}
	return msg.Raw, nil
}

// PersistCalibration sends c to the device and waits for the acknowledgement.
func PersistCalibration(ctx context.Context, dev Device, c loadcell.Calibration) error {
	if err := dev.WriteCalibration(c); err != nil {
		return err
	}

	msg, err := await(ctx, dev, wire.MessageAck)
	if err != nil {
		return fmt.Errorf("failed to persist calibration: %w", err)
	}
	if !msg.OK {
		return ErrRejected
	}
	return nil
}

func await(ctx context.Context, dev Device, kind wire.MessageKind) (wire.Message, error) {
	for {
		select {
		case <-ctx.Done():
			return wire.Message{}, ctx.Err()
		case msg, ok := <-dev.Messages():
			if !ok {
				return wire.Message{}, ErrNotConnected
			}
			if msg.Kind == kind {
				return msg, nil
			}
		}
	}
}
