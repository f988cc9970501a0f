package sampler

import "sync/atomic"

// fresh marks the middle slot as holding data the reader has not taken yet.
const fresh = 1 << 2

// tripleBuffer hands complete snapshots from one writer to one reader without
// locks. Each side owns one buffer exclusively; the third sits in the middle
// and is exchanged atomically.
type tripleBuffer struct {
	bufs [3][]Sample
	w    int           // writer-owned index
	r    int           // reader-owned index
	mid  atomic.Uint32 // middle index | fresh
}

func newTripleBuffer(depth int, fill Sample) *tripleBuffer {
	tb := &tripleBuffer{w: 0, r: 2}
	for i := range tb.bufs {
		b := make([]Sample, depth)
		for j := range b {
			b[j] = fill
		}
		tb.bufs[i] = b
	}
	tb.mid.Store(1)
	return tb
}

// back returns the writer's buffer.
func (tb *tripleBuffer) back() []Sample { return tb.bufs[tb.w] }

// publish exchanges the writer's buffer with the middle one and marks it fresh.
func (tb *tripleBuffer) publish() {
	prev := tb.mid.Swap(uint32(tb.w) | fresh)
	tb.w = int(prev &^ fresh)
}

// acquire takes the middle buffer if it is fresh and returns the reader's
// buffer, which the writer will not touch until the next acquire.
func (tb *tripleBuffer) acquire() []Sample {
	if tb.mid.Load()&fresh != 0 {
		prev := tb.mid.Swap(uint32(tb.r))
		tb.r = int(prev &^ fresh)
	}
	return tb.bufs[tb.r]
}
