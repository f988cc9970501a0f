//go:build rp2040

package main

import (
	"errors"
	"log/slog"
	"machine"
	"time"

	"github.com/harveysanders/picosampler/adcsensor/adc"
	"github.com/harveysanders/picosampler/adcsensor/cyw43439"
	"github.com/harveysanders/picosampler/adcsensor/display"
	"github.com/harveysanders/picosampler/adcsensor/lcd"
	"github.com/harveysanders/picosampler/adcsensor/mqtt"
	"github.com/harveysanders/picosampler/adcsensor/sampler"
	"tinygo.org/x/drivers/hd44780i2c"
)

func main() {
	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	debugLED := machine.GP21
	debugLED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	// Setup LCD display over I2C
	err := machine.I2C0.Configure(machine.I2CConfig{
		SDA: machine.GP4,
		SCL: machine.GP5,
	})
	if err != nil {
		printErrForever(logger, "configure I2C", slog.Any("reason", err))
	}
	dev, err := configureLCD(machine.I2C0)
	if err != nil {
		printErrForever(logger, "configure LCD", slog.Any("reason", err))
	}
	dev.ClearDisplay()

	lcdMessages := make(chan lcd.Message, 4)
	go lcd.NewHandler(&dev, lcdMessages, logger).Run()

	conv := &adc.Converter{}
	s, err := sampler.New(conv, sampler.Config{
		Channel:   adcChannel,
		Reference: sampler.ReferenceExternal,
		Prescaler: adcPrescaler,
	}, sampler.Options{
		Depth:       historyDepth,
		Strategy:    sampler.StrategyShift,
		Consistency: sampler.CriticalSection,
		Guard:       adc.InterruptGuard{},
	})
	if err != nil {
		printErrForever(logger, "create sampler", slog.Any("reason", err))
	}
	adc.Attach(s)
	if err := s.Configure(); err != nil {
		printErrForever(logger, "configure ADC", slog.Any("reason", err))
	}
	logger.Info("sampler:running",
		slog.Int("depth", s.Depth()),
		slog.String("consistency", s.Consistency().String()),
	)

	// Buffered channel of 10 readings. Readings are dropped while the
	// broker connection is down.
	var readings chan display.Reading
	if ssid != "" {
		readings = make(chan display.Reading, 10)
		go publish(logger, readings, lcdMessages)
	}

	consumer := &display.Consumer{
		Source:      s,
		Calibration: sampler.Pico12Bit,
		Window:      sampler.WindowFull,
		Lines:       lcdMessages,
		Readings:    readings,
		Logger:      logger,
	}
	for {
		consumer.Step()

		debugLED.High()
		time.Sleep(displayRate / 2)
		debugLED.Low()
		time.Sleep(displayRate / 2)
	}
}

// publish brings up Wi-Fi and forwards readings to the broker. Errors are
// reported forever; sampling and the display keep running.
func publish(logger *slog.Logger, readings <-chan display.Reading, lcdMessages chan<- lcd.Message) {
	lcd.Send(lcdMessages, "WiFi", ssid)
	stack, err := cyw43439.Connect(cyw43439.Config{
		SSID:        ssid,
		Password:    pass,
		Hostname:    hostname,
		MaxTCPPorts: 1,
		Logger:      logger,
	})
	if err != nil {
		printErrForever(logger, "connect to WiFi", slog.Any("reason", err))
	}

	c := mqtt.Client{
		ID:                mqttClient,
		Topic:             mqtt.DefaultTopic,
		Logger:            logger,
		Timeout:           5 * time.Second,
		TCPBufSize:        tcpBufSize,
		HeartbeatInterval: 30 * time.Second,
		Username:          mqttUser,
		Password:          mqttPass,
	}
	err = c.ConnectAndPublish(stack.LnetoStack(), broker, readings, lcdMessages)
	if err != nil {
		// Print error in a loop in case the serial monitor is not
		// ready before the inital messages
		printErrForever(logger, "connect to MQTT broker", slog.Any("reason", err))
	}
}

// configureLCD takes a preconfigured I2C peripheral and attempts to
// initialize the HD44780 LCD display on the common addresses (0x27, 0x3F).
func configureLCD(i2c *machine.I2C) (hd44780i2c.Device, error) {
	for _, a := range []uint16{0x27, 0x3F} {
		// The controller has no ID register; an ACK on a one-byte read is
		// the only presence check available.
		if err := i2c.Tx(a, nil, make([]byte, 1)); err != nil {
			continue
		}
		dev := hd44780i2c.New(i2c, uint8(a))
		dev.Configure(hd44780i2c.Config{
			Width:  lcd.Columns,
			Height: lcd.Rows,
		})
		return dev, nil
	}
	return hd44780i2c.Device{}, errors.New("LCD not found on addresses: 0x27, 0x3f")
}

// printErrForever logs msg @ 1hz. It blocks forever.
func printErrForever(logger *slog.Logger, msg string, args ...any) {
	for {
		logger.Error(msg, args...)
		time.Sleep(time.Second)
	}
}
