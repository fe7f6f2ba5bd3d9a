//go:build tinygo

//go:generate tinygo flash -target=pico

package main

import (
	"io"
	"machine"
	"time"

	"github.com/itohio/scalelog/pkg/clock"
	"github.com/itohio/scalelog/pkg/config"
	"github.com/itohio/scalelog/pkg/diag"
	"github.com/itohio/scalelog/pkg/loadcell"
	"github.com/itohio/scalelog/pkg/logfile"
	"github.com/itohio/scalelog/pkg/scheduler"
	"github.com/itohio/scalelog/pkg/wire"
)

// Build stamp used when RTC_ADJUST is set:
//
//	tinygo flash -target=pico -ldflags "-X 'main.buildDate=$(date +'%b %e %Y')' -X main.buildTime=$(date +%T)"
var (
	buildDate string
	buildTime string
)

var (
	serial = machine.Serial

	// Serial buffer for reading command lines
	serialBuffer [SERIAL_BUFFER]byte
	serialPos    int
)

// firmware is the state shared between the sampling loop and the command
// handler.
type firmware struct {
	cfg    *config.Config
	out    io.Writer
	sensor *loadcell.Sensor
	store  *flashStore
	diag   *diag.Stream
}

func main() {
	boot := time.Now()

	serial.Configure(machine.UARTConfig{BaudRate: UART_BAUD_RATE})
	// Give the host a moment to open the USB serial.
	time.Sleep(2 * time.Second)

	cfg, err := config.Preset(PROFILE)
	if err != nil {
		halt(err)
	}
	cfg.Debug = DEBUG
	cfg.Clock.AdjustOnBoot = RTC_ADJUST

	fw := &firmware{
		cfg:   cfg,
		out:   serial,
		store: newFlashStore(),
		diag:  diag.New(serial, cfg.Debug),
	}
	fw.diag.Println("start")

	lg := logfile.New(newSDVolume(cfg.Storage.BusSpeedHz), cfg.Log.FileName, cfg.Log.Header)
	if err := lg.MountVolume(); err != nil {
		fw.diag.Printf("%v", err)
	} else {
		fw.diag.Println("SD card initialized")
	}

	rtc, err := newRTC()
	if err != nil {
		halt(err)
	}
	if cfg.Clock.AdjustOnBoot && adjustClock(rtc, fw.diag) {
		if ts, err := rtc.Now(); err == nil {
			if err := lg.Mark(ts); err != nil {
				fw.diag.Printf("%v", err)
			}
		}
	}
	if ts, err := rtc.Now(); err == nil {
		fw.diag.Println(ts.String())
	}

	cal, err := loadcell.FromConfig(cfg.Calibration, fw.store)
	if err != nil {
		// Reading the flash cannot fail short of a driver fault; log raw counts.
		fw.diag.Printf("%v", err)
		cal = loadcell.DefaultCalibration()
	}
	if cal.Suspicious() {
		fw.diag.Printf("calibration looks uninitialized: scale=%v offset=%v", cal.Scale, cal.Offset)
	}

	dout := machine.Pin(cfg.Pins.LoadCellData)
	sck := machine.Pin(cfg.Pins.LoadCellClock)
	dout.Configure(machine.PinConfig{Mode: machine.PinInput})
	sck.Configure(machine.PinConfig{Mode: machine.PinOutput})
	fw.sensor = loadcell.NewSensor(loadcell.NewHX711(dout, sck, loadcell.GainA128), cal)
	// Sleep the amplifier between the readings of each cycle.
	fw.sensor.SetSleep(true)

	sched := scheduler.New(cfg.Schedule, uptime{boot: boot}, rtc, fw.sensor, lg, fw.diag)

	// Main loop
	for {
		processSerial(fw)

		_, _ = sched.Poll()

		// Small delay to prevent tight loop
		time.Sleep(cfg.Schedule.PollInterval)
	}
}

func adjustClock(src clock.Source, d *diag.Stream) bool {
	ref, err := clock.ParseBuildTime(buildDate, buildTime)
	if err != nil {
		d.Printf("clock not adjusted: %v", err)
		return false
	}
	if err := src.Calibrate(ref); err != nil {
		d.Printf("clock adjust failed: %v", err)
		return false
	}
	return true
}

func processSerial(fw *firmware) {
	// Read available bytes from serial
	for serial.Buffered() > 0 {
		data, err := serial.ReadByte()
		if err != nil {
			break
		}

		// Check for newline (end of line)
		if data == '\n' || data == '\r' {
			if serialPos > 0 {
				handleCommand(fw, string(serialBuffer[:serialPos]))
			}
			serialPos = 0
			continue
		}

		if serialPos < len(serialBuffer) {
			serialBuffer[serialPos] = data
			serialPos++
		}
		// Overlong lines are truncated and then rejected by the parser.
	}
}

func handleCommand(fw *firmware, line string) {
	cmd, err := wire.ParseCommand(line, fw.sensor.Calibration().Convention)
	if err != nil {
		fw.diag.Printf("%v", err)
		return
	}

	switch cmd.Kind {
	case wire.CommandRaw:
		io.WriteString(fw.out, wire.FormatRaw(fw.sensor.ReadRaw(fw.cfg.Schedule.AverageSamples)))
	case wire.CommandCalibrate:
		io.WriteString(fw.out, wire.FormatAck(fw.calibrate(cmd.Calibration)))
	}
}

// calibrate persists c and applies it to the following reads. It refuses
// values that would log NaN.
func (fw *firmware) calibrate(c loadcell.Calibration) bool {
	if c.Suspicious() {
		return false
	}
	if err := loadcell.StoreCalibration(fw.store, c); err != nil {
		fw.diag.Printf("%v", err)
		return false
	}
	fw.sensor.SetCalibration(c)
	return true
}

// halt reports a boot failure forever; there is nothing to log without the
// clock.
func halt(err error) {
	for {
		println("boot failed:", err.Error())
		time.Sleep(5 * time.Second)
	}
}
