package main

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harveysanders/picosampler/adcsensor/sampler"
)

var errChannel = errors.New("adcsim: channel out of range")

// signal produces the analog input seen by the simulated converter.
type signal struct {
	kind  string
	max   uint32
	n     uint32
	noise *rand.Rand
}

func newSignal(kind string, full uint32, seed int64) *signal {
	return &signal{kind: kind, max: full, noise: rand.New(rand.NewSource(seed))}
}

func (g *signal) next() sampler.Sample {
	n := g.n
	g.n++
	switch g.kind {
	case signalRamp:
		return sampler.Sample(n % (g.max + 1))
	case signalSine:
		// 2 s period at 1 kHz, plus a couple of counts of noise
		mid := float64(g.max) / 2
		v := mid + 0.8*mid*math.Sin(2*math.Pi*float64(n)/2000) + g.noise.NormFloat64()*2
		return sampler.Sample(math.Max(0, math.Min(float64(g.max), math.Round(v))))
	default:
		return sampler.Sample(g.max / 2)
	}
}

// converter is a sampler.Converter whose conversions are completed by a clock.
type converter struct {
	gen     *signal
	armed   atomic.Bool
	result  atomic.Uint32
	selects atomic.Uint32
}

func (c *converter) Configure(cfg sampler.Config) error {
	if cfg.Channel > 7 {
		return errChannel
	}
	return nil
}

func (c *converter) Select(sampler.Config) { c.selects.Add(1) }

func (c *converter) Start() { c.armed.Store(true) }

func (c *converter) Result() sampler.Sample { return sampler.Sample(c.result.Load()) }

// complete latches a new result if a conversion was triggered.
func (c *converter) complete() bool {
	if !c.armed.Swap(false) {
		return false
	}
	c.result.Store(uint32(c.gen.next()))
	return true
}

// irqLine serializes the simulated interrupt handler against readers that
// mask it. It is the simulator's sampler.Guard.
type irqLine struct {
	mu sync.Mutex
}

func (l *irqLine) Disable() sampler.GuardState {
	l.mu.Lock()
	return 0
}

func (l *irqLine) Restore(sampler.GuardState) { l.mu.Unlock() }

// fire runs isr as an interrupt would: never while the line is masked.
func (l *irqLine) fire(isr func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	isr()
}

// clock completes conversions at a fixed rate.
type clock struct {
	conv   *converter
	line   *irqLine
	isr    func()
	period time.Duration
	missed atomic.Uint64 // ticks with no conversion in flight
}

func (c *clock) tick() {
	if !c.conv.complete() {
		c.missed.Add(1)
		return
	}
	c.line.fire(c.isr)
}

func (c *clock) run(ctx context.Context) {
	t := time.NewTicker(c.period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.tick()
		}
	}
}
