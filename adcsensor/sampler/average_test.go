package sampler

import (
	"math"
	"testing"
)

func TestNewCalibration(t *testing.T) {
	if got := NewCalibration(5, 10); got != AVR10Bit {
		t.Errorf("5V/10bit = %v, want %v", got, AVR10Bit)
	}
	if AVR10Bit != 0.0048828125 {
		t.Errorf("AVR10Bit = %v", float64(AVR10Bit))
	}
	if got := NewCalibration(3.3, 12); got != Pico12Bit {
		t.Errorf("3.3V/12bit = %v, want %v", got, Pico12Bit)
	}
}

func TestAverage(t *testing.T) {
	tests := []struct {
		name   string
		h      []Sample
		cal    Calibration
		window Window
		want   float64
	}{
		{"empty", nil, AVR10Bit, WindowFull, 0},
		{"full scale", []Sample{1024, 1024, 1024, 1024}, AVR10Bit, WindowFull, 5},
		{"mixed", []Sample{100, 200, 300, 400}, AVR10Bit, WindowFull, 250 * 0.0048828125},
		{"fraction kept", []Sample{1, 2}, 1, WindowFull, 1.5},
		// oldest sample is dropped but the divisor stays 4
		{"legacy", []Sample{1024, 1024, 1024, 1024}, AVR10Bit, WindowLegacy, 3.75},
		{"legacy single", []Sample{1023}, AVR10Bit, WindowLegacy, 0},
	}
	for _, tt := range tests {
		got := Average(tt.h, tt.cal, tt.window)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestLegacyWindowMatchesAVRScale(t *testing.T) {
	// The AVR firmware multiplied the 63-entry sum by 5/1024/64.
	h := make([]Sample, 64)
	for i := range h {
		h[i] = Sample(i * 16)
	}
	var sum uint32
	for _, v := range h[:63] {
		sum += uint32(v)
	}
	want := 0.0000762939453125 * float64(sum)
	if got := Average(h, AVR10Bit, WindowLegacy); math.Abs(got-want) > 1e-12 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSumDoesNotOverflow(t *testing.T) {
	h := make([]Sample, 64)
	for i := range h {
		h[i] = math.MaxUint16
	}
	if got, want := Sum(h), uint32(64*math.MaxUint16); got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestPollerAverage(t *testing.T) {
	conv := &fakeConverter{busyPolls: 3, queue: []Sample{999, 10, 11, 12, 14}}
	p := Poller{Conv: conv}
	p.Prime()
	if got := p.Average(4); got != 11 {
		t.Errorf("got %d, want 11 (47/4 truncated)", got)
	}
	if conv.starts != 5 {
		t.Errorf("starts = %d, want 5", conv.starts)
	}
	if conv.busyLeft != 0 {
		t.Error("result read before conversion finished")
	}
	if got := p.Average(0); got != 0 {
		t.Errorf("Average(0) = %d", got)
	}
}
