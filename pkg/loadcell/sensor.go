package loadcell

import "runtime"

// DefaultSamples is the number of raw acquisitions averaged per reading.
const DefaultSamples = 10

// Transducer is a raw weight sensor.
type Transducer interface {
	// Ready reports whether a conversion is available.
	Ready() bool
	// Raw shifts out one conversion. Only call it when Ready is true.
	Raw() int32
}

// Sleeper is a transducer that can be powered down between readings.
// *HX711 implements it.
type Sleeper interface {
	PowerDown()
	PowerUp()
}

var _ Sleeper = (*HX711)(nil)

// Sensor averages raw acquisitions and applies a calibration.
type Sensor struct {
	t     Transducer
	cal   Calibration
	sleep bool
}

// NewSensor creates a calibrated sensor.
func NewSensor(t Transducer, cal Calibration) *Sensor {
	return &Sensor{t: t, cal: cal}
}

// Calibration returns the calibration applied by Read.
func (s *Sensor) Calibration() Calibration {
	return s.cal
}

// SetSleep powers the transducer down between readings when it is a
// Sleeper, and down right away when on. It does nothing for other
// transducers.
func (s *Sensor) SetSleep(on bool) {
	sl, ok := s.t.(Sleeper)
	if !ok {
		return
	}
	s.sleep = on
	if on {
		sl.PowerDown()
	} else {
		sl.PowerUp()
	}
}

// SetCalibration replaces the calibration applied by subsequent reads.
func (s *Sensor) SetCalibration(c Calibration) {
	s.cal = c
}

// Read averages n acquisitions and returns the calibrated value. It blocks
// until the transducer delivers every sample; there is no timeout.
func (s *Sensor) Read(n int) float64 {
	return s.cal.Apply(s.ReadRaw(n))
}

// ReadRaw averages n acquisitions without calibration. n <= 0 reads once.
func (s *Sensor) ReadRaw(n int) float64 {
	if n <= 0 {
		n = 1
	}
	if s.sleep {
		sl := s.t.(Sleeper)
		sl.PowerUp()
		defer sl.PowerDown()
	}

	var sum int64
	for range n {
		for !s.t.Ready() {
			runtime.Gosched()
		}
		sum += int64(s.t.Raw())
	}
	return float64(sum) / float64(n)
}
