package loadcell

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/chewxy/math32"
	"github.com/itohio/scalelog/pkg/config"
)

// Convention selects how the offset is combined with the scaled raw count.
type Convention int

const (
	// Subtract computes raw*scale - offset.
	Subtract Convention = iota
	// Add computes raw*scale + offset.
	Add
)

// CalibrationSize is the size of the persisted calibration blob.
const CalibrationSize = 8

// ParseConvention parses "subtract" or "add".
func ParseConvention(s string) (Convention, error) {
	switch s {
	case "subtract":
		return Subtract, nil
	case "add":
		return Add, nil
	}
	return Subtract, fmt.Errorf("unknown calibration convention %q", s)
}

func (c Convention) String() string {
	if c == Add {
		return "add"
	}
	return "subtract"
}

// Calibration is the linear transform from raw counts to engineering units.
type Calibration struct {
	Scale      float64
	Offset     float64
	Convention Convention
}

// DefaultCalibration passes raw counts through unchanged.
func DefaultCalibration() Calibration {
	return Calibration{Scale: 1.0, Offset: 0.0}
}

// Apply converts a raw count to engineering units.
func (c Calibration) Apply(raw float64) float64 {
	if c.Convention == Add {
		return raw*c.Scale + c.Offset
	}
	return raw*c.Scale - c.Offset
}

// Suspicious reports whether the values could not have been written by a
// calibration, as happens when the store was never initialized (erased flash
// reads back as NaN). The values are still used as loaded.
func (c Calibration) Suspicious() bool {
	for _, v := range [...]float32{float32(c.Scale), float32(c.Offset)} {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return true
		}
	}
	return false
}

// LoadCalibration reads scale (byte 0) and offset (byte 4) as little-endian
// float32 values. The contents are not validated.
func LoadCalibration(r io.ReaderAt, conv Convention) (Calibration, error) {
	var buf [CalibrationSize]byte
	n, err := r.ReadAt(buf[:], 0)
	if n < CalibrationSize {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Calibration{}, fmt.Errorf("failed to read calibration: %w", err)
	}

	return Calibration{
		Scale:      float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4]))),
		Offset:     float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8]))),
		Convention: conv,
	}, nil
}

// StoreCalibration writes c in the layout LoadCalibration reads. Values are
// narrowed to float32.
func StoreCalibration(w io.WriterAt, c Calibration) error {
	buf := EncodeCalibration(c)
	if _, err := w.WriteAt(buf[:], 0); err != nil {
		return fmt.Errorf("failed to write calibration: %w", err)
	}
	return nil
}

// EncodeCalibration returns the persisted representation of c.
func EncodeCalibration(c Calibration) [CalibrationSize]byte {
	var buf [CalibrationSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(float32(c.Scale)))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(float32(c.Offset)))
	return buf
}

// FromConfig returns the calibration the configuration selects: the constant
// values, or the blob in store when the source is persisted. store may be nil
// for a constant source.
func FromConfig(cfg config.CalibrationConfig, store io.ReaderAt) (Calibration, error) {
	conv, err := ParseConvention(cfg.Convention)
	if err != nil {
		return Calibration{}, err
	}

	switch cfg.Source {
	case config.SourceConstant:
		return Calibration{Scale: cfg.Scale, Offset: cfg.Offset, Convention: conv}, nil
	case config.SourcePersisted:
		if store == nil {
			return Calibration{}, fmt.Errorf("no calibration store")
		}
		return LoadCalibration(store, conv)
	}
	return Calibration{}, fmt.Errorf("unknown calibration source %q", cfg.Source)
}
