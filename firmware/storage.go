//go:build tinygo

package main

import (
	"machine"

	"github.com/itohio/scalelog/pkg/logfile"
	"tinygo.org/x/drivers/sdcard"
	"tinygo.org/x/tinyfs/fatfs"
)

var _ logfile.Volume = (*sdVolume)(nil)

// sdVolume is the FAT volume on the SD card. Mount re-initializes the card
// every time, so a card swapped between cycles is picked up.
type sdVolume struct {
	busSpeed uint32
	card     sdcard.Device
	fs       *fatfs.FATFS
	mounted  bool
}

func newSDVolume(busSpeed uint32) *sdVolume {
	return &sdVolume{
		busSpeed: busSpeed,
		card:     sdcard.New(sdBus, PIN_SD_SCK, PIN_SD_SDO, PIN_SD_SDI, PIN_SD_CS),
	}
}

func (v *sdVolume) Mount() error {
	if v.mounted {
		v.fs.Unmount()
		v.mounted = false
	}

	if err := sdBus.Configure(machine.SPIConfig{
		Frequency: v.busSpeed,
		SCK:       PIN_SD_SCK,
		SDO:       PIN_SD_SDO,
		SDI:       PIN_SD_SDI,
	}); err != nil {
		return err
	}
	if err := v.card.Configure(); err != nil {
		return err
	}

	v.fs = fatfs.New(&v.card)
	v.fs.Configure(&fatfs.Config{SectorSize: 512})
	if err := v.fs.Mount(); err != nil {
		return err
	}
	v.mounted = true
	return nil
}

func (v *sdVolume) Exists(name string) (bool, error) {
	if !v.mounted {
		return false, logfile.ErrNotMounted
	}
	_, err := v.fs.Stat(name)
	switch err {
	case nil:
		return true, nil
	case fatfs.FileResultNoFile, fatfs.FileResultNoPath:
		return false, nil
	}
	return false, err
}

func (v *sdVolume) OpenFile(name string, flag int) (logfile.File, error) {
	if !v.mounted {
		return nil, logfile.ErrNotMounted
	}
	return v.fs.OpenFile(name, flag)
}
