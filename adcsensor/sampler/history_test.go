package sampler

import (
	"reflect"
	"testing"
)

func TestHistoryStrategiesAgree(t *testing.T) {
	for _, depth := range []int{1, 2, 3, 64} {
		shift := NewShiftHistory(depth, 0)
		ring := NewRingHistory(depth, 0)
		for v := 1; v <= 3*depth+1; v++ {
			shift.Insert(Sample(v))
			ring.Insert(Sample(v))

			a := shift.AppendTo(nil)
			b := ring.AppendTo(nil)
			if !reflect.DeepEqual(a, b) {
				t.Fatalf("depth %d after %d inserts: shift %v, ring %v", depth, v, a, b)
			}
			for i := 0; i < depth; i++ {
				if shift.At(i) != ring.At(i) {
					t.Fatalf("depth %d: At(%d) shift %d, ring %d", depth, i, shift.At(i), ring.At(i))
				}
			}
			if shift.Len() != depth || ring.Len() != depth {
				t.Fatalf("Len changed: %d, %d", shift.Len(), ring.Len())
			}
		}
	}
}

func TestHistoryEvictsOldest(t *testing.T) {
	for _, h := range []History{NewShiftHistory(3, 0), NewRingHistory(3, 0)} {
		for _, v := range []Sample{10, 20, 30, 40} {
			h.Insert(v)
		}
		if got, want := h.AppendTo(nil), []Sample{40, 30, 20}; !reflect.DeepEqual(got, want) {
			t.Errorf("%T: got %v, want %v", h, got, want)
		}
	}
}

func TestTripleBufferHandoff(t *testing.T) {
	tb := newTripleBuffer(2, 0)
	if got := tb.acquire(); !reflect.DeepEqual(got, []Sample{0, 0}) {
		t.Fatalf("initial front %v", got)
	}

	copy(tb.back(), []Sample{2, 1})
	tb.publish()
	front := tb.acquire()
	if !reflect.DeepEqual(front, []Sample{2, 1}) {
		t.Fatalf("front %v after publish", front)
	}

	// writer keeps going while the reader holds front
	for v := Sample(3); v < 10; v++ {
		b := tb.back()
		if &b[0] == &front[0] {
			t.Fatal("writer handed the reader's buffer")
		}
		b[0], b[1] = v, v-1
		tb.publish()
	}
	if !reflect.DeepEqual(front, []Sample{2, 1}) {
		t.Errorf("reader buffer changed under it: %v", front)
	}
	if got := tb.acquire(); !reflect.DeepEqual(got, []Sample{9, 8}) {
		t.Errorf("latest %v, want [9 8]", got)
	}
	// nothing new: same buffer again
	if got := tb.acquire(); !reflect.DeepEqual(got, []Sample{9, 8}) {
		t.Errorf("stale acquire %v", got)
	}
}
