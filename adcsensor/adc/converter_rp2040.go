//go:build rp2040

// Package adc binds the sampler to the RP2040 ADC block and its FIFO
// interrupt.
package adc

import (
	"device/rp"
	"machine"
	"runtime/interrupt"

	"github.com/harveysanders/picosampler/adcsensor/sampler"
)

// TempSensorChannel is the internal temperature sensor input.
const TempSensorChannel = 4

// ADC input pins for channels 0-3.
var channelPins = [...]machine.Pin{machine.ADC0, machine.ADC1, machine.ADC2, machine.ADC3}

// Converter drives the RP2040 ADC directly through its registers.
//
// The RP2040 has no voltage reference mux (ADC_VREF is a board pin), so
// Config.Reference is accepted and ignored. A non-zero Config.Prescaler is
// written to DIV and conversions are paced by the free-running sampler at
// 48 MHz / (1 + Prescaler); Start then only re-arms it. With Prescaler zero
// every Start is a single 2 us conversion.
type Converter struct {
	notify bool
	paced  bool
}

// attached is the sampler serviced by the ADC_IRQ_FIFO handler.
var attached *sampler.Sampler

func (c *Converter) Configure(cfg sampler.Config) error {
	if int(cfg.Channel) > TempSensorChannel {
		return errInvalidChannel
	}
	machine.InitADC()
	if int(cfg.Channel) < len(channelPins) {
		channelPins[cfg.Channel].Configure(machine.PinConfig{Mode: machine.PinAnalog})
	}

	c.notify = cfg.NotifyOnComplete
	c.paced = cfg.Prescaler > 0
	if c.paced {
		rp.ADC.DIV.Set(cfg.Prescaler << rp.ADC_DIV_INT_Pos)
	}
	c.Select(cfg)

	if c.notify {
		// Interrupt as soon as one result sits in the FIFO.
		rp.ADC.FCS.Set(rp.ADC_FCS_EN | 1<<rp.ADC_FCS_THRESH_Pos)
		rp.ADC.INTE.Set(rp.ADC_INTE_FIFO)
		irq := interrupt.New(rp.IRQ_ADC_IRQ_FIFO, handleFIFO)
		irq.Enable()
	} else {
		rp.ADC.FCS.Set(0)
		rp.ADC.INTE.Set(0)
	}
	return nil
}

func (c *Converter) Select(cfg sampler.Config) {
	rp.ADC.CS.ReplaceBits(uint32(cfg.Channel)<<rp.ADC_CS_AINSEL_Pos, rp.ADC_CS_AINSEL_Msk, 0)
	if cfg.Channel == TempSensorChannel {
		rp.ADC.CS.SetBits(rp.ADC_CS_TS_EN)
	}
}

func (c *Converter) Start() {
	if c.paced {
		rp.ADC.CS.SetBits(rp.ADC_CS_START_MANY)
		return
	}
	rp.ADC.CS.SetBits(rp.ADC_CS_START_ONCE)
}

// Result pops the FIFO when notifications are on, which also drops the
// interrupt level. Otherwise it reads the RESULT register.
func (c *Converter) Result() sampler.Sample {
	if c.notify {
		return sampler.Sample(rp.ADC.FIFO.Get() & 0xfff)
	}
	return sampler.Sample(rp.ADC.RESULT.Get() & 0xfff)
}

func (c *Converter) Busy() bool {
	return !rp.ADC.CS.HasBits(rp.ADC_CS_READY)
}

// Attach routes the FIFO interrupt to s. Call it before s.Configure.
func Attach(s *sampler.Sampler) {
	attached = s
}

func handleFIFO(interrupt.Interrupt) {
	if attached == nil {
		// drain so the level-triggered interrupt does not refire forever
		rp.ADC.FIFO.Get()
		return
	}
	attached.OnConversionComplete()
}
