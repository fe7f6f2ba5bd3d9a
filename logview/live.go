package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"github.com/itohio/scalelog/pkg/device"
	"github.com/itohio/scalelog/pkg/sample"
	"github.com/itohio/scalelog/pkg/wire"
)

// rawTimeout bounds the wait for a raw reply; averaging on the device is slow.
const rawTimeout = 10 * time.Second

// liveChain tracks the goroutines fed by a connected device for graceful shutdown.
type liveChain struct {
	device       device.Device
	replies      chan wire.Message // raw and ack replies split off the stream
	dispatchDone chan struct{}     // Closed when the dispatch goroutine exits
	trendDone    chan struct{}     // Closed when the trend goroutine exits
}

// closeChain closes the device and waits for the goroutines to drain.
func closeChain(chain *liveChain) {
	if chain == nil {
		return
	}

	if chain.device != nil {
		chain.device.Close()
	}
	if chain.dispatchDone != nil {
		<-chain.dispatchDone
	}
	if chain.trendDone != nil {
		<-chain.trendDone
	}
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		closeChain(state.chain)
		state.chain = nil
		state.device = nil
		state.rawBtn.Disable()
		state.connectBtn.SetIcon(theme.LoginIcon())
		state.setStatus("Disconnected")
		return
	}

	var dev device.Device
	if state.useMock {
		mock, err := device.NewMock(state.cfg)
		if err != nil {
			dialog.ShowError(fmt.Errorf("failed to create simulated device: %w", err), state.window)
			return
		}
		dev = mock
	} else {
		dev = device.New(state.cfg.Serial.Port, state.cfg.Serial.BaudRate, device.DefaultBufferSize)
	}

	if err := dev.Connect(); err != nil {
		dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		return
	}
	state.device = dev
	if state.useMock {
		state.setStatus("Connected to simulated device")
	} else {
		state.setStatus("Connected to " + state.cfg.Serial.Port)
	}
	state.rawBtn.Enable()
	state.connectBtn.SetIcon(theme.LogoutIcon())

	chain := &liveChain{
		device:       dev,
		replies:      make(chan wire.Message, 1),
		dispatchDone: make(chan struct{}),
		trendDone:    make(chan struct{}),
	}

	// The device stream carries rows and command replies. Rows go down the
	// sample chain, replies to whoever waits on a command.
	rows := make(chan wire.Message, device.DefaultBufferSize)
	go func() {
		defer close(chain.dispatchDone)
		defer close(rows)
		dispatch(dev.Messages(), rows, chain.replies)
	}()

	samples := sample.NewConverter(state.cfg.View.Column, 100)(rows)
	if state.cfg.View.Smooth > 1 {
		samples = sample.NewAveragingConverter(state.cfg.View.Smooth, 100)(samples)
	}

	state.trend.ResetShutdown()
	go func() {
		defer close(chain.trendDone)
		state.trend.ProcessSamples(samples)
	}()

	state.chain = chain
}

// dispatch splits device messages until in closes. Text lines are logged.
func dispatch(in <-chan wire.Message, rows, replies chan<- wire.Message) {
	for msg := range in {
		switch msg.Kind {
		case wire.MessageRow:
			rows <- msg
		case wire.MessageRaw, wire.MessageAck:
			select {
			case replies <- msg:
			default:
				log.Printf("Dropping unsolicited reply %q", msg.Text)
			}
		default:
			log.Printf("device: %s", msg.Text)
		}
	}
}

// handleRawRequest asks the device for an averaged raw count and shows it.
func handleRawRequest(state *appState) {
	chain := state.chain
	if chain == nil {
		return
	}

	state.rawBtn.Disable()
	go func() {
		raw, err := requestRaw(chain, rawTimeout)
		fyne.Do(func() {
			if state.chain == chain {
				state.rawBtn.Enable()
			}
			if err != nil {
				dialog.ShowError(err, state.window)
				return
			}
			dialog.ShowInformation("Raw reading", fmt.Sprintf("Averaged raw count: %.2f", raw), state.window)
		})
	}()
}

func requestRaw(chain *liveChain, timeout time.Duration) (float64, error) {
	// Discard a stale reply left by an earlier timeout.
	select {
	case <-chain.replies:
	default:
	}

	if err := chain.device.RequestRaw(); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return 0, fmt.Errorf("no raw reply: %w", ctx.Err())
		case msg := <-chain.replies:
			if msg.Kind == wire.MessageRaw {
				return msg.Raw, nil
			}
		}
	}
}
