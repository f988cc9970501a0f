package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/harveysanders/picosampler/adcsensor/sampler"
)

const (
	signalRamp  = "ramp"
	signalSine  = "sine"
	signalConst = "const"

	maxRate = 10000 // ticker resolution gets unreliable above this
)

// options is the validated simulator configuration.
type options struct {
	depth       int
	strategy    sampler.Strategy
	consistency sampler.Consistency
	window      sampler.Window
	rate        float64 // conversions per second
	delay       time.Duration
	signal      string
	vref        float64
	bits        uint
	metricsAddr string
	logFile     string
}

func parseStrategy(s string) (sampler.Strategy, error) {
	switch s {
	case "shift":
		return sampler.StrategyShift, nil
	case "ring":
		return sampler.StrategyRing, nil
	}
	return 0, fmt.Errorf("unknown strategy %q (want shift or ring)", s)
}

func parseConsistency(s string) (sampler.Consistency, error) {
	switch s {
	case "relaxed":
		return sampler.Relaxed, nil
	case "critical":
		return sampler.CriticalSection, nil
	case "swap":
		return sampler.AtomicSwap, nil
	}
	return 0, fmt.Errorf("unknown consistency %q (want relaxed, critical or swap)", s)
}

func (o options) validate() error {
	switch {
	case o.depth < 1:
		return errors.New("depth must be at least 1")
	case o.rate <= 0 || o.rate > maxRate:
		return fmt.Errorf("rate must be in (0, %d] Hz", maxRate)
	case o.delay <= 0:
		return errors.New("delay must be positive")
	case o.bits < 1 || o.bits > 16:
		return errors.New("bits must be between 1 and 16")
	case o.vref <= 0:
		return errors.New("vref must be positive")
	}
	switch o.signal {
	case signalRamp, signalSine, signalConst:
	default:
		return fmt.Errorf("unknown signal %q (want ramp, sine or const)", o.signal)
	}
	return nil
}

func (o options) calibration() sampler.Calibration {
	return sampler.NewCalibration(o.vref, o.bits)
}

// fullScale is the largest raw value the simulated converter produces.
func (o options) fullScale() uint32 {
	return 1<<o.bits - 1
}
