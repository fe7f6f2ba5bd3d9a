package loadcell

// InputPin is a digital input. machine.Pin satisfies it.
type InputPin interface {
	Get() bool
}

// OutputPin is a digital output. machine.Pin satisfies it.
type OutputPin interface {
	High()
	Low()
}

// Gain selects the HX711 input channel and gain for the next conversion.
type Gain int

const (
	GainA128 Gain = 1 // channel A, gain 128
	GainB32  Gain = 2 // channel B, gain 32
	GainA64  Gain = 3 // channel A, gain 64
)

var _ Transducer = (*HX711)(nil)

// HX711 is a 24-bit load-cell amplifier read by bit-banging its serial
// interface.
type HX711 struct {
	dout InputPin
	sck  OutputPin
	gain Gain
}

// NewHX711 creates a driver on the given data and clock pins. The pins must
// already be configured.
func NewHX711(dout InputPin, sck OutputPin, gain Gain) *HX711 {
	if gain < GainA128 || gain > GainA64 {
		gain = GainA128
	}
	sck.Low()
	return &HX711{dout: dout, sck: sck, gain: gain}
}

// Ready reports whether DOUT is low, signalling a finished conversion.
func (h *HX711) Ready() bool {
	return !h.dout.Get()
}

// Raw clocks out 24 bits MSB first, then the gain pulses for the next
// conversion, and sign-extends the result.
func (h *HX711) Raw() int32 {
	var v uint32
	for range 24 {
		h.sck.High()
		v <<= 1
		if h.dout.Get() {
			v |= 1
		}
		h.sck.Low()
	}
	for range int(h.gain) {
		h.sck.High()
		h.sck.Low()
	}

	if v&0x800000 != 0 {
		v |= 0xFF000000
	}
	return int32(v)
}

// PowerDown holds SCK high, which puts the chip to sleep after 60us.
func (h *HX711) PowerDown() {
	h.sck.Low()
	h.sck.High()
}

// PowerUp wakes the chip. The first conversion after wake-up uses gain A128.
func (h *HX711) PowerUp() {
	h.sck.Low()
}
