//go:build tinygo

package main

import (
	"fmt"
	"machine"
)

// flashStore is the calibration blob in the last erase blocks of the flash
// data area.
type flashStore struct {
	base int64
}

func newFlashStore() *flashStore {
	bs := machine.Flash.EraseBlockSize()
	return &flashStore{base: machine.Flash.Size() - CALIBRATION_BLOCK*bs}
}

func (f *flashStore) ReadAt(p []byte, off int64) (int, error) {
	return machine.Flash.ReadAt(p, f.base+off)
}

// WriteAt erases the block before writing; the rest of the block is lost.
func (f *flashStore) WriteAt(p []byte, off int64) (int, error) {
	bs := machine.Flash.EraseBlockSize()
	if off+int64(len(p)) > bs {
		return 0, fmt.Errorf("write past calibration block")
	}
	if err := machine.Flash.EraseBlocks(f.base/bs, 1); err != nil {
		return 0, err
	}
	return machine.Flash.WriteAt(p, f.base+off)
}
