package main

import (
	"sync"
	"sync/atomic"

	"github.com/harveysanders/picosampler/adcsensor/sampler"
)

// monitor sits between the sampler and the display consumer. It is the
// sampler's only reader; everything else sees the last snapshot it kept.
type monitor struct {
	src     *sampler.Sampler
	ramp    bool
	modulus uint32

	reads atomic.Uint64
	torn  atomic.Uint64

	mu   sync.Mutex
	last []sampler.Sample
}

func newMonitor(src *sampler.Sampler, ramp bool, fullScale uint32) *monitor {
	return &monitor{
		src:     src,
		ramp:    ramp,
		modulus: fullScale + 1,
		last:    make([]sampler.Sample, 0, src.Depth()),
	}
}

func (m *monitor) ReadHistory(dst []sampler.Sample) []sampler.Sample {
	// Until the buffer has filled, the zero slots break the ramp legitimately.
	warm := m.src.Conversions() >= uint32(m.src.Depth())
	dst = m.src.ReadHistory(dst)
	m.reads.Add(1)
	if m.ramp && warm && tornRamp(dst, m.modulus) {
		m.torn.Add(1)
	}

	m.mu.Lock()
	m.last = append(m.last[:0], dst...)
	m.mu.Unlock()
	return dst
}

func (m *monitor) Conversions() uint32 { return m.src.Conversions() }

// snapshot returns a copy of the last history read.
func (m *monitor) snapshot() []sampler.Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sampler.Sample(nil), m.last...)
}

// tornRamp reports whether a newest-first snapshot of a wrapping ramp has a
// gap or repeat, which only happens when an insert lands mid-read.
func tornRamp(h []sampler.Sample, modulus uint32) bool {
	for i := 1; i < len(h); i++ {
		if (uint32(h[i-1])+modulus-uint32(h[i]))%modulus != 1 {
			return true
		}
	}
	return false
}
