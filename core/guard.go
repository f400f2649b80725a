package core

// teardownStack collects destruction callbacks during initialisation and
// runs them in reverse on teardown, so resources unwind in the opposite
// order of their acquisition. A failed initialisation unwinds only what
// was pushed so far.
type teardownStack struct {
	callbacks []func()
}

func (t *teardownStack) push(callback func()) {
	t.callbacks = append(t.callbacks, callback)
}

func (t *teardownStack) unwind() {
	for i := len(t.callbacks) - 1; i >= 0; i-- {
		t.callbacks[i]()
	}
	t.callbacks = nil
}
