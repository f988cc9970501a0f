//go:build rp2040

// adcpoll averages four blocking conversions each time the button is pressed
// and shows the result on the LCD. No interrupts, no history buffer.
package main

import (
	"machine"
	"time"

	"github.com/harveysanders/picosampler/adcsensor/adc"
	"github.com/harveysanders/picosampler/adcsensor/display"
	"github.com/harveysanders/picosampler/adcsensor/sampler"
	"tinygo.org/x/drivers/hd44780i2c"
)

const (
	samplesPerReading = 4
	debounce          = 250 * time.Millisecond
)

func main() {
	button := machine.GP15
	button.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	conv := &adc.Converter{}
	err := conv.Configure(sampler.Config{Channel: 0})
	if err != nil {
		for {
			println("could not configure ADC", err.Error())
			time.Sleep(time.Second)
		}
	}
	poller := sampler.Poller{Conv: conv}
	poller.Prime()

	// Setup LCD display
	err = machine.I2C0.Configure(machine.I2CConfig{
		SDA: machine.GP4,
		SCL: machine.GP5,
	})
	if err != nil {
		for {
			println("could not configure I2C", err.Error())
			time.Sleep(time.Second)
		}
	}
	lcd := hd44780i2c.New(machine.I2C0, 0x27)
	lcd.Configure(hd44780i2c.Config{
		Width:  16,
		Height: 2,
	})
	lcd.ClearDisplay()
	lcd.Print([]byte("Press: measure"))

	// We need a preallocated buffer so the heap isn't exhausted
	// by many calls to fmt functions.
	printBuf := make([]byte, 0, 16)
	for {
		// active low
		if button.Get() {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		raw := poller.Average(samplesPerReading)
		volts := sampler.Pico12Bit.Volts(float64(raw))

		lcd.ClearDisplay()
		lcd.SetCursor(0, 0)
		lcd.Print([]byte(display.Title))
		lcd.SetCursor(0, 1)
		printBuf = display.AppendVolts(printBuf[:0], volts)
		lcd.Print(printBuf)

		time.Sleep(debounce)
	}
}
