package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/harveysanders/picosampler/adcsensor/display"
	"github.com/harveysanders/picosampler/adcsensor/lcd"
	"github.com/harveysanders/picosampler/adcsensor/sampler"
)

// simulation wires the firmware packages to simulated hardware.
type simulation struct {
	opts     options
	logger   *slog.Logger
	conv     *converter
	line     *irqLine
	clock    *clock
	sampler  *sampler.Sampler
	monitor  *monitor
	consumer *display.Consumer
	screen   *lcd.Virtual
	lcdMsgs  chan lcd.Message
	metrics  *metrics
}

func newSimulation(opts options, logger *slog.Logger) (*simulation, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	sim := &simulation{
		opts:    opts,
		logger:  logger,
		conv:    &converter{gen: newSignal(opts.signal, opts.fullScale(), time.Now().UnixNano())},
		line:    &irqLine{},
		screen:  lcd.NewVirtual(),
		lcdMsgs: make(chan lcd.Message, 1),
	}

	s, err := sampler.New(sim.conv, sampler.Config{
		Channel:   3,
		Reference: sampler.ReferenceAVCC,
	}, sampler.Options{
		Depth:       opts.depth,
		Strategy:    opts.strategy,
		Consistency: opts.consistency,
		Guard:       sim.line,
	})
	if err != nil {
		return nil, err
	}
	sim.sampler = s
	sim.clock = &clock{
		conv:   sim.conv,
		line:   sim.line,
		isr:    s.OnConversionComplete,
		period: time.Duration(float64(time.Second) / opts.rate),
	}
	sim.monitor = newMonitor(s, opts.signal == signalRamp, opts.fullScale())
	sim.consumer = &display.Consumer{
		Source:      sim.monitor,
		Calibration: opts.calibration(),
		Window:      opts.window,
		Delay:       opts.delay,
		Lines:       sim.lcdMsgs,
		Logger:      logger,
	}
	sim.metrics = newMetrics(sim)
	return sim, nil
}

// start configures the sampler and runs the conversion clock and LCD
// handler until ctx is done.
func (sim *simulation) start(ctx context.Context) error {
	if err := sim.sampler.Configure(); err != nil {
		return err
	}
	go sim.clock.run(ctx)
	go lcd.NewHandler(sim.screen, sim.lcdMsgs, sim.logger).Run()
	sim.logger.Info("sampler:running",
		slog.Int("depth", sim.sampler.Depth()),
		slog.String("strategy", sim.opts.strategy.String()),
		slog.String("consistency", sim.opts.consistency.String()),
		slog.Float64("rate_hz", sim.opts.rate),
	)
	return nil
}

// step runs one display cycle.
func (sim *simulation) step() display.Reading {
	r := sim.consumer.Step()
	sim.metrics.cycles.Inc()
	sim.metrics.voltage.Set(float64(r.Voltage))
	return r
}
