package device

import (
	"strings"
	"testing"
	"time"

	"github.com/itohio/scalelog/pkg/loadcell"
	"github.com/itohio/scalelog/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	dev := New("COM3", 115200, 100)
	assert.NotNil(t, dev)
	assert.Equal(t, "COM3", dev.port)
	assert.Equal(t, 115200, dev.baudRate)
	assert.Equal(t, 100, dev.bufSize)
	assert.NotNil(t, dev.messages)
	assert.False(t, dev.IsConnected())
}

func TestNew_Defaults(t *testing.T) {
	dev := New("COM3", 0, 0)
	assert.NotNil(t, dev)
	assert.Equal(t, DefaultBaudRate, dev.baudRate)
	assert.Equal(t, DefaultBufferSize, dev.bufSize)
}

func TestSerial_NotConnected(t *testing.T) {
	dev := New("COM3", 0, 0)

	assert.ErrorIs(t, dev.RequestRaw(), ErrNotConnected)
	assert.ErrorIs(t, dev.WriteCalibration(loadcell.DefaultCalibration()), ErrNotConnected)
	assert.NoError(t, dev.Close(), "closing an unconnected device is a no-op")
}

func TestSerial_ConnectAfterClose(t *testing.T) {
	dev := New("COM3", 0, 0)
	dev.connected = true
	require.NoError(t, dev.Close())

	assert.ErrorIs(t, dev.Connect(), ErrClosed)
	assert.False(t, dev.IsConnected())
	assert.NoError(t, dev.Close())
}

func TestSerial_ReadLines(t *testing.T) {
	dev := New("COM3", 0, 10)
	dev.connected = true

	input := strings.Join([]string{
		"SD card initialized",
		"",
		"2024/03/07;04:05:09;9034.65; ",
		"SD card written",
		"raw;1000.00",
		"cal;ok",
	}, "\r\n") + "\r\n"

	dev.readLines(strings.NewReader(input))

	var kinds []wire.MessageKind
	for len(dev.messages) > 0 {
		kinds = append(kinds, (<-dev.messages).Kind)
	}
	assert.Equal(t, []wire.MessageKind{
		wire.MessageText,
		wire.MessageRow,
		wire.MessageText,
		wire.MessageRaw,
		wire.MessageAck,
	}, kinds)
}

func TestSerial_ReadLinesStopsWhenClosed(t *testing.T) {
	dev := New("COM3", 0, 10)

	dev.readLines(strings.NewReader("raw;1\nraw;2\n"))

	assert.Empty(t, dev.messages)
}

func TestSerial_ReadLinesDropsWhenFull(t *testing.T) {
	dev := New("COM3", 0, 1)
	dev.connected = true

	done := make(chan struct{})
	go func() {
		defer close(done)
		dev.readLines(strings.NewReader("raw;1\nraw;2\nraw;3\n"))
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("readLines blocked on a full channel")
	}

	require.Len(t, dev.messages, 1)
	assert.Equal(t, 1.0, (<-dev.messages).Raw)
}
