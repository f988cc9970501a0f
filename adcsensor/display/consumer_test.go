package display

import (
	"math"
	"testing"

	"github.com/harveysanders/picosampler/adcsensor/lcd"
	"github.com/harveysanders/picosampler/adcsensor/sampler"
)

type staticHistory struct {
	h     []sampler.Sample
	reads int
}

func (s *staticHistory) ReadHistory(dst []sampler.Sample) []sampler.Sample {
	s.reads++
	return append(dst[:0], s.h...)
}

func (s *staticHistory) Conversions() uint32 { return uint32(len(s.h)) }

func TestStepFormatsAndPublishes(t *testing.T) {
	src := &staticHistory{h: []sampler.Sample{1024, 1024, 1024, 1024}}
	lines := make(chan lcd.Message, 1)
	readings := make(chan Reading, 1)
	c := &Consumer{
		Source:      src,
		Calibration: sampler.AVR10Bit,
		Lines:       lines,
		Readings:    readings,
	}

	r := c.Step()
	if math.Abs(float64(r.Voltage)-5) > 1e-6 {
		t.Errorf("voltage = %v, want 5", r.Voltage)
	}
	if r.Mean != 1024 || r.Newest != 1024 || r.Samples != 4 || r.Window != "full" {
		t.Errorf("reading = %+v", r)
	}

	msg := <-lines
	if string(msg.Line1) != Title || string(msg.Line2) != "5.0000(V)" {
		t.Errorf("lcd got %q / %q", msg.Line1, msg.Line2)
	}
	if got := <-readings; got != r {
		t.Errorf("published %+v, returned %+v", got, r)
	}
}

func TestStepDoesNotBlockWhenSinksFull(t *testing.T) {
	src := &staticHistory{h: []sampler.Sample{100, 200, 300, 400}}
	lines := make(chan lcd.Message, 1)
	readings := make(chan Reading, 1)
	c := &Consumer{Source: src, Calibration: sampler.AVR10Bit, Lines: lines, Readings: readings}

	first := c.Step()
	src.h = []sampler.Sample{0, 0, 0, 0}
	c.Step()
	c.Step()

	if src.reads != 3 {
		t.Errorf("reads = %d, want 3", src.reads)
	}
	// the first reading is still queued, later ones were dropped
	if got := <-readings; got.Voltage != first.Voltage {
		t.Errorf("queued %v, want %v", got.Voltage, first.Voltage)
	}
	if msg := <-lines; string(msg.Line2) != "1.2207(V)" {
		t.Errorf("queued line %q", msg.Line2)
	}
}

func TestStepLegacyWindow(t *testing.T) {
	src := &staticHistory{h: []sampler.Sample{1024, 1024, 1024, 1024}}
	c := &Consumer{Source: src, Calibration: sampler.AVR10Bit, Window: sampler.WindowLegacy}
	r := c.Step()
	if math.Abs(float64(r.Voltage)-3.75) > 1e-6 || r.Window != "legacy" {
		t.Errorf("reading = %+v", r)
	}
}

func TestStepMessagesDoNotAlias(t *testing.T) {
	src := &staticHistory{h: []sampler.Sample{1024}}
	lines := make(chan lcd.Message, 2)
	c := &Consumer{Source: src, Calibration: sampler.AVR10Bit, Lines: lines}
	c.Step()
	src.h = []sampler.Sample{0}
	c.Step()
	first, second := <-lines, <-lines
	if string(first.Line2) != "5.0000(V)" || string(second.Line2) != "0.0000(V)" {
		t.Errorf("got %q then %q", first.Line2, second.Line2)
	}
}

func TestAppendVolts(t *testing.T) {
	tests := map[float64]string{
		0:          "0.0000(V)",
		3.2958984:  "3.2959(V)",
		5:          "5.0000(V)",
		12.5:       "12.5000(V)",
		0.00048828: "0.0005(V)",
	}
	for in, want := range tests {
		if got := string(AppendVolts([]byte("x"), in)); got != "x"+want {
			t.Errorf("AppendVolts(%v) = %q, want %q", in, got, "x"+want)
		}
	}
}
