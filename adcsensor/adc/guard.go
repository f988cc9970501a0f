//go:build tinygo

package adc

import (
	"errors"
	"runtime/interrupt"

	"github.com/harveysanders/picosampler/adcsensor/sampler"
)

var errInvalidChannel = errors.New("adc: channel out of range")

// InterruptGuard masks every interrupt on the current core. It is the
// sampler.Guard for CriticalSection reads on hardware.
type InterruptGuard struct{}

func (InterruptGuard) Disable() sampler.GuardState {
	return sampler.GuardState(interrupt.Disable())
}

func (InterruptGuard) Restore(st sampler.GuardState) {
	interrupt.Restore(interrupt.State(st))
}
