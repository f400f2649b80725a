package core

import "testing"

func TestTeardownStackUnwindsInReverse(t *testing.T) {
	var order []int
	var stack teardownStack

	for i := 0; i < 3; i++ {
		i := i
		stack.push(func() {
			order = append(order, i)
		})
	}
	stack.unwind()

	if len(order) != 3 {
		t.Fatalf("ran %d callbacks, want 3", len(order))
	}
	for i, got := range []int{2, 1, 0} {
		if order[i] != got {
			t.Fatalf("unwind order %v, want [2 1 0]", order)
		}
	}
}

func TestTeardownStackUnwindClears(t *testing.T) {
	count := 0
	var stack teardownStack

	stack.push(func() { count++ })
	stack.unwind()
	stack.unwind()

	if count != 1 {
		t.Errorf("callback ran %d times, want once", count)
	}
}

func TestInstanceSlotRoundTrip(t *testing.T) {
	if !acquireInstanceSlot() {
		t.Fatal("slot should start free")
	}
	if acquireInstanceSlot() {
		t.Error("second acquire must fail while an instance is live")
	}
	releaseInstanceSlot()
	if !acquireInstanceSlot() {
		t.Error("slot must be reusable after release")
	}
	releaseInstanceSlot()
}

func TestFrameRingRotation(t *testing.T) {
	ring := FrameRing{slots: make([]FrameSlot, 2)}

	first := ring.Current()
	ring.Advance()
	second := ring.Current()
	ring.Advance()

	if first == second {
		t.Error("consecutive frames must use different slots")
	}
	if ring.Current() != first {
		t.Error("ring must return to the first slot after a full cycle")
	}
	if ring.FrameNumber() != 2 {
		t.Errorf("frame number %d, want 2", ring.FrameNumber())
	}
}
