// Package sampler keeps the most recent N analog samples delivered by a
// conversion-complete interrupt and hands them to a foreground reader.
//
// One producer (the interrupt handler, OnConversionComplete) and one consumer
// (ReadHistory, usually a display loop) share a History. How the consumer is
// protected from a handler that fires mid-read is selected with Consistency:
//
//   - Relaxed reads the live buffer with no protection. A conversion landing
//     during the read can leave the snapshot partially shifted.
//   - CriticalSection suspends the notification source through a Guard for the
//     duration of the copy. A notification raised meanwhile is serviced on
//     Restore.
//   - AtomicSwap publishes a copy of the history after every insert through a
//     lock-free triple buffer. The reader only ever copies a buffer the
//     handler no longer writes to.
//
// The package has no hardware dependencies. Platform code implements Converter
// and Guard and calls OnConversionComplete from its interrupt.
package sampler

import (
	"errors"
	"sync/atomic"
)

// DefaultDepth is the history depth used by the firmware.
const DefaultDepth = 64

var (
	ErrRunning  = errors.New("sampler: already running")
	ErrNoGuard  = errors.New("sampler: critical section consistency requires a guard")
	ErrDepth    = errors.New("sampler: depth must be at least 1")
	ErrStrategy = errors.New("sampler: unknown history strategy")
)

// Reference selects the conversion voltage reference.
type Reference uint8

const (
	ReferenceExternal Reference = iota // AREF / ADC_VREF pin
	ReferenceAVCC                      // analog supply rail
	ReferenceInternal                  // on-chip bandgap
)

// Config is the static converter configuration applied once by Configure and
// re-selected by every interrupt.
type Config struct {
	// Channel selects the analog input.
	Channel uint8
	// Reference selects the voltage reference source.
	Reference Reference
	// Prescaler divides the conversion clock. Zero leaves the platform default.
	Prescaler uint32
	// NotifyOnComplete enables the conversion-complete interrupt.
	NotifyOnComplete bool
}

// Converter is the analog-to-digital peripheral seen by the sampler.
type Converter interface {
	// Configure powers up the converter and applies cfg.
	Configure(cfg Config) error
	// Select re-applies the channel and reference of cfg. It is called from
	// interrupt context and must not block.
	Select(cfg Config)
	// Start triggers one conversion.
	Start()
	// Result returns the most recently completed conversion.
	Result() Sample
}

// GuardState is the opaque value returned by Guard.Disable.
type GuardState uintptr

// Guard suspends and resumes delivery of the conversion-complete notification.
// On TinyGo this is runtime/interrupt.Disable and Restore.
type Guard interface {
	Disable() GuardState
	Restore(GuardState)
}

// Consistency selects how ReadHistory is protected against a concurrent
// insert.
type Consistency uint8

const (
	Relaxed Consistency = iota
	CriticalSection
	AtomicSwap
)

func (c Consistency) String() string {
	switch c {
	case Relaxed:
		return "relaxed"
	case CriticalSection:
		return "critical"
	case AtomicSwap:
		return "swap"
	}
	return "unknown"
}

// Strategy selects the History implementation.
type Strategy uint8

const (
	StrategyShift Strategy = iota
	StrategyRing
)

func (s Strategy) String() string {
	switch s {
	case StrategyShift:
		return "shift"
	case StrategyRing:
		return "ring"
	}
	return "unknown"
}

// State reports whether the first conversion has been triggered.
type State uint8

const (
	StateConfigured State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "configured"
}

// Options tunes the history owned by a Sampler.
type Options struct {
	// Depth is the number of samples kept. Zero means DefaultDepth.
	Depth int
	// Fill is the value of every slot before the first conversion.
	Fill Sample
	// Strategy selects shift (default) or ring insertion.
	Strategy Strategy
	// Consistency selects how readers are protected. Zero is Relaxed.
	Consistency Consistency
	// Guard is required for CriticalSection.
	Guard Guard
}

// Sampler owns the history buffer fed by the conversion-complete interrupt.
type Sampler struct {
	conv  Converter
	cfg   Config
	hist  History
	mode  Consistency
	guard Guard
	tb    *tripleBuffer

	state       atomic.Uint32
	conversions atomic.Uint32

	// readStep, when set, runs after each sample ReadHistory copies.
	readStep func(i int)
}

// New returns a Sampler in StateConfigured. Nothing is written to the
// converter until Configure.
func New(conv Converter, cfg Config, opts Options) (*Sampler, error) {
	depth := opts.Depth
	if depth == 0 {
		depth = DefaultDepth
	}
	if depth < 1 {
		return nil, ErrDepth
	}
	if opts.Consistency == CriticalSection && opts.Guard == nil {
		return nil, ErrNoGuard
	}

	s := &Sampler{
		conv:  conv,
		cfg:   cfg,
		mode:  opts.Consistency,
		guard: opts.Guard,
	}
	switch opts.Strategy {
	case StrategyShift:
		s.hist = NewShiftHistory(depth, opts.Fill)
	case StrategyRing:
		s.hist = NewRingHistory(depth, opts.Fill)
	default:
		return nil, ErrStrategy
	}
	if s.mode == AtomicSwap {
		s.tb = newTripleBuffer(depth, opts.Fill)
	}
	return s, nil
}

// Configure applies the converter configuration, enables completion
// notifications and triggers the first conversion. It may be called once.
func (s *Sampler) Configure() error {
	if State(s.state.Load()) == StateRunning {
		return ErrRunning
	}
	cfg := s.cfg
	cfg.NotifyOnComplete = true
	if err := s.conv.Configure(cfg); err != nil {
		return errors.New("sampler: configure converter:" + err.Error())
	}
	s.cfg = cfg
	s.state.Store(uint32(StateRunning))
	s.conv.Start()
	return nil
}

// OnConversionComplete is the conversion-complete interrupt handler. It must
// run to completion before the next conversion finishes.
func (s *Sampler) OnConversionComplete() {
	// The result register is overwritten by the next trigger, so latch it first.
	raw := s.conv.Result()

	s.hist.Insert(raw)
	if s.tb != nil {
		back := s.tb.back()
		s.hist.AppendTo(back[:0])
		s.tb.publish()
	}
	s.conversions.Add(1)

	s.conv.Select(s.cfg)
	s.conv.Start()
}

// ReadHistory appends the current history to dst[:0], newest first, and
// returns it. Pass a slice with capacity Depth to avoid allocating.
func (s *Sampler) ReadHistory(dst []Sample) []Sample {
	dst = dst[:0]
	switch s.mode {
	case AtomicSwap:
		front := s.tb.acquire()
		for i := range front {
			dst = append(dst, front[i])
			s.step(i)
		}
	case CriticalSection:
		st := s.guard.Disable()
		dst = s.copyLive(dst)
		s.guard.Restore(st)
	default:
		dst = s.copyLive(dst)
	}
	return dst
}

func (s *Sampler) copyLive(dst []Sample) []Sample {
	n := s.hist.Len()
	for i := 0; i < n; i++ {
		dst = append(dst, s.hist.At(i))
		s.step(i)
	}
	return dst
}

func (s *Sampler) step(i int) {
	if s.readStep != nil {
		s.readStep(i)
	}
}

// State reports whether Configure has run.
func (s *Sampler) State() State { return State(s.state.Load()) }

// Depth returns the number of samples kept.
func (s *Sampler) Depth() int { return s.hist.Len() }

// Conversions returns the number of completed conversions recorded. It wraps
// at 2^32.
func (s *Sampler) Conversions() uint32 { return s.conversions.Load() }

// Consistency returns the read protection in use.
func (s *Sampler) Consistency() Consistency { return s.mode }
