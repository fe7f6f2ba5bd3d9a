//go:build tinygo

package main

import (
	"errors"
	"machine"
	"time"

	"github.com/itohio/scalelog/pkg/clock"
	"tinygo.org/x/drivers/ds1307"
)

var _ clock.Source = (*rtcSource)(nil)

// rtcSource reads calendar time from a DS1307.
type rtcSource struct {
	dev ds1307.Device
}

func newRTC() (*rtcSource, error) {
	if err := rtcBus.Configure(machine.I2CConfig{
		SDA:       PIN_RTC_SDA,
		SCL:       PIN_RTC_SCL,
		Frequency: 100_000,
	}); err != nil {
		return nil, err
	}
	return &rtcSource{dev: ds1307.New(rtcBus)}, nil
}

func (r *rtcSource) Now() (clock.Timestamp, error) {
	t, err := r.dev.ReadTime()
	if err != nil {
		return clock.Timestamp{}, err
	}
	// A halted oscillator returns whatever the registers last held.
	if !r.dev.IsOscillatorRunning() {
		return clock.Timestamp{}, errors.New("rtc oscillator stopped")
	}
	return clock.FromTime(t), nil
}

func (r *rtcSource) Calibrate(ref clock.Timestamp) error {
	return r.dev.SetTime(ref.Time())
}

// uptime is the millisecond counter since boot.
type uptime struct {
	boot time.Time
}

func (u uptime) Millis() uint32 {
	return uint32(time.Since(u.boot).Milliseconds())
}
