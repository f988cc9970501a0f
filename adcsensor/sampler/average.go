package sampler

// Calibration converts raw counts to volts.
type Calibration float64

const (
	// AVR10Bit is 5 V over a 10-bit range: 5/1024 = 0.0048828125 V per count.
	AVR10Bit Calibration = 5.0 / 1024
	// Pico12Bit is 3.3 V over the RP2040's 12-bit range.
	Pico12Bit Calibration = 3.3 / 4096
)

// NewCalibration returns vref / 2^bits.
func NewCalibration(vref float64, bits uint) Calibration {
	return Calibration(vref / float64(uint64(1)<<bits))
}

// Volts scales a raw count, or a mean of raw counts, to volts.
func (c Calibration) Volts(raw float64) float64 { return raw * float64(c) }

// Window chooses which history entries contribute to an average.
type Window uint8

const (
	// WindowFull averages all N entries.
	WindowFull Window = iota
	// WindowLegacy sums entries 0..N-2 but still divides by N. This is how the
	// AVR interrupt-driven firmware averaged its 64-entry buffer, and
	// reads low by one sample's share. It exists to reproduce those readings.
	WindowLegacy
)

func (w Window) String() string {
	if w == WindowLegacy {
		return "legacy"
	}
	return "full"
}

// Sum adds every sample in h. A uint32 holds 2^16 samples of 16 bits.
func Sum(h []Sample) uint32 {
	var sum uint32
	for _, v := range h {
		sum += uint32(v)
	}
	return sum
}

// Mean returns Sum(h)/len(h). The sum is exact; only the division is done in
// float64. An empty history averages to 0.
func Mean(h []Sample) float64 {
	if len(h) == 0 {
		return 0
	}
	return float64(Sum(h)) / float64(len(h))
}

// Average returns the calibrated mean of h over the given window.
func Average(h []Sample, cal Calibration, w Window) float64 {
	if len(h) == 0 {
		return 0
	}
	if w == WindowLegacy {
		return cal.Volts(float64(Sum(h[:len(h)-1])) / float64(len(h)))
	}
	return cal.Volts(Mean(h))
}
