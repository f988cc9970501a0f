// Package display turns the sampler history into a voltage reading on a
// fixed polling cadence and hands it to the LCD and any publishers.
package display

import (
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/harveysanders/picosampler/adcsensor/lcd"
	"github.com/harveysanders/picosampler/adcsensor/sampler"
)

// Title is the first LCD line of every reading.
const Title = "ADC_value:"

// HistoryReader is satisfied by *sampler.Sampler.
type HistoryReader interface {
	ReadHistory(dst []sampler.Sample) []sampler.Sample
	Conversions() uint32
}

// Reading is one display cycle's result.
type Reading struct {
	Voltage     float32       `json:"voltage"`
	Mean        float32       `json:"mean"`   // mean raw count over the window
	Newest      uint16        `json:"newest"` // most recent raw sample
	Samples     int           `json:"samples"`
	Conversions uint32        `json:"conversions"`
	Window      string        `json:"window"`
	SinceBoot   time.Duration `json:"sinceBootNS"`
}

// Consumer polls a HistoryReader. Lines and Readings are optional; sends on
// them never block and readings are dropped when they are full.
type Consumer struct {
	Source      HistoryReader
	Calibration sampler.Calibration
	Window      sampler.Window
	Delay       time.Duration
	Lines       chan<- lcd.Message
	Readings    chan<- Reading
	Logger      *slog.Logger

	start   time.Time
	hist    []sampler.Sample
	scratch []byte
}

func (c *Consumer) init() {
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.start.IsZero() {
		c.start = time.Now()
	}
	if c.hist == nil {
		c.hist = make([]sampler.Sample, 0, sampler.DefaultDepth)
		c.scratch = make([]byte, 0, lcd.Columns)
	}
}

// Step runs one display cycle and returns its reading.
func (c *Consumer) Step() Reading {
	c.init()
	c.hist = c.Source.ReadHistory(c.hist)

	volts := sampler.Average(c.hist, c.Calibration, c.Window)
	r := Reading{
		Voltage:     float32(volts),
		Samples:     len(c.hist),
		Conversions: c.Source.Conversions(),
		Window:      c.Window.String(),
		SinceBoot:   time.Since(c.start),
	}
	if c.Calibration != 0 {
		r.Mean = float32(volts / float64(c.Calibration))
	}
	if len(c.hist) > 0 {
		r.Newest = uint16(c.hist[0])
	}

	c.scratch = AppendVolts(c.scratch[:0], volts)
	if c.Lines != nil {
		// The handler may still be printing the previous message, so each
		// message gets its own copy of the line.
		msg := lcd.Message{
			Line1: []byte(Title),
			Line2: append([]byte(nil), c.scratch...),
		}
		select {
		case c.Lines <- msg:
		default:
			c.Logger.Debug("display:lcd busy, dropped reading")
		}
	}
	if c.Readings != nil {
		select {
		case c.Readings <- r:
		default:
			c.Logger.Debug("display:publisher busy, dropped reading")
		}
	}
	c.Logger.Debug("display:reading",
		slog.Float64("volts", volts),
		slog.Uint64("conversions", uint64(r.Conversions)),
	)
	return r
}

// Run calls Step every Delay, forever.
func (c *Consumer) Run() {
	for {
		c.Step()
		time.Sleep(c.Delay)
	}
}

// AppendVolts formats v right-aligned in six columns with four decimals,
// followed by "(V)".
func AppendVolts(dst []byte, v float64) []byte {
	const width = 6
	const floatNoExp = 'f'
	start := len(dst)
	dst = strconv.AppendFloat(dst, v, floatNoExp, 4, 64)
	if pad := width - (len(dst) - start); pad > 0 {
		for i := 0; i < pad; i++ {
			dst = append(dst, ' ')
		}
		copy(dst[start+pad:], dst[start:len(dst)-pad])
		for i := 0; i < pad; i++ {
			dst[start+i] = ' '
		}
	}
	return append(dst, "(V)"...)
}
