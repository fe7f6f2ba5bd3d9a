package main

import (
	"testing"
	"time"

	"github.com/itohio/scalelog/pkg/sample"
	"github.com/itohio/scalelog/pkg/trend"
	"github.com/itohio/scalelog/pkg/wire"
	"github.com/stretchr/testify/assert"
)

func TestThrottle(t *testing.T) {
	now := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	th := &throttle{now: func() time.Time { return now }}

	calls := 0
	cb := th.wrap(func([]sample.Sample, []float64, []trend.Event) { calls++ })

	cb(nil, nil, nil)
	assert.Equal(t, 1, calls)

	now = now.Add(5 * time.Millisecond)
	cb(nil, nil, nil)
	assert.Equal(t, 1, calls, "too soon")

	now = now.Add(updateInterval)
	cb(nil, nil, nil)
	assert.Equal(t, 2, calls)
}

func TestDispatch(t *testing.T) {
	in := make(chan wire.Message, 10)
	rows := make(chan wire.Message, 10)
	replies := make(chan wire.Message, 1)

	in <- wire.ParseLine("SD card initialized")
	in <- wire.ParseLine("2024/03/07;04:05:09;100.00; ")
	in <- wire.ParseLine("raw;1234.00")
	in <- wire.ParseLine("cal;ok")
	in <- wire.ParseLine("2024/03/07;04:20:09;99.00; ")
	close(in)

	dispatch(in, rows, replies)

	assert.Len(t, rows, 2)
	assert.Len(t, replies, 1, "second reply dropped when nobody waits")
	assert.Equal(t, wire.MessageRaw, (<-replies).Kind)
}
