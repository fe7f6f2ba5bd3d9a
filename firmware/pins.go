//go:build tinygo

package main

import (
	"machine"

	"github.com/itohio/scalelog/pkg/config"
)

const (
	// Build switches
	PROFILE    = config.ProfileDatalog // datalog or field_capacity
	DEBUG      = true                  // echo rows and progress on the USB serial
	RTC_ADJUST = false                 // set the DS1307 from the build time on boot

	// Serial configuration
	// Rows are ~30 bytes every 15 minutes; the raw reply is the largest burst.
	UART_BAUD_RATE = 115200

	// Command line buffer: "C;-1.2345678e+09;-1.2345678e+09" fits with room to spare.
	SERIAL_BUFFER = 64

	// Flash block holding the 8-byte calibration, counted from the end of the
	// flash data area.
	CALIBRATION_BLOCK = 1

	// SD card on SPI1; keeps SPI0 pins free for the load cell of either profile.
	PIN_SD_SCK = machine.GP10
	PIN_SD_SDO = machine.GP11
	PIN_SD_SDI = machine.GP12
	PIN_SD_CS  = machine.GP13

	// DS1307 on I2C0
	PIN_RTC_SDA = machine.GP4
	PIN_RTC_SCL = machine.GP5
)

var (
	sdBus  = machine.SPI1
	rtcBus = machine.I2C0
)
