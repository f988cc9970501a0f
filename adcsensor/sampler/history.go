package sampler

// Sample is one raw conversion result. The RP2040 produces 12 bits and the
// AVR parts 10 bits; both fit in a uint16.
type Sample uint16

// History holds the last N samples, newest first. Len always reports N: slots
// that have not seen a conversion yet hold the fill value.
type History interface {
	// Insert records s as the newest sample and evicts the oldest one.
	Insert(s Sample)
	// At returns the i-th newest sample. At(0) is the most recent.
	At(i int) Sample
	// Len returns the fixed capacity N.
	Len() int
	// AppendTo appends all N samples to dst, newest first.
	AppendTo(dst []Sample) []Sample
}

// ShiftHistory moves every sample one slot toward the old end on each insert.
// Insert is O(N). At depth 64 and sub-kHz rates the shift costs a few hundred
// cycles, and At/AppendTo stay plain index reads.
type ShiftHistory struct {
	buf []Sample
}

// NewShiftHistory returns a shift history of the given depth with every slot
// set to fill.
func NewShiftHistory(depth int, fill Sample) *ShiftHistory {
	h := &ShiftHistory{buf: make([]Sample, depth)}
	for i := range h.buf {
		h.buf[i] = fill
	}
	return h
}

func (h *ShiftHistory) Insert(s Sample) {
	for i := len(h.buf) - 1; i > 0; i-- {
		h.buf[i] = h.buf[i-1]
	}
	h.buf[0] = s
}

func (h *ShiftHistory) At(i int) Sample { return h.buf[i] }

func (h *ShiftHistory) Len() int { return len(h.buf) }

func (h *ShiftHistory) AppendTo(dst []Sample) []Sample {
	return append(dst, h.buf...)
}

// RingHistory keeps a wrap-around write index instead of shifting, making
// Insert O(1). Reads translate the logical index through the cursor.
type RingHistory struct {
	buf  []Sample
	next int // slot the next Insert writes to
}

// NewRingHistory returns a ring history of the given depth with every slot
// set to fill.
func NewRingHistory(depth int, fill Sample) *RingHistory {
	h := &RingHistory{buf: make([]Sample, depth)}
	for i := range h.buf {
		h.buf[i] = fill
	}
	return h
}

func (h *RingHistory) Insert(s Sample) {
	h.buf[h.next] = s
	h.next++
	if h.next == len(h.buf) {
		h.next = 0
	}
}

func (h *RingHistory) At(i int) Sample {
	// newest lives just behind the write cursor
	idx := h.next - 1 - i
	if idx < 0 {
		idx += len(h.buf)
	}
	return h.buf[idx]
}

func (h *RingHistory) Len() int { return len(h.buf) }

func (h *RingHistory) AppendTo(dst []Sample) []Sample {
	for i := h.next - 1; i >= 0; i-- {
		dst = append(dst, h.buf[i])
	}
	for i := len(h.buf) - 1; i >= h.next; i-- {
		dst = append(dst, h.buf[i])
	}
	return dst
}
