package async

import (
	"sync"
	"time"
)

// Debouncer runs only the last of a burst of triggers, once the burst has
// been quiet for the configured delay.
type Debouncer struct {
	clock Clock
	delay time.Duration

	mu    sync.Mutex
	timer Timer
}

// NewDebouncer creates a debouncer on clock.
func NewDebouncer(clock Clock, delay time.Duration) *Debouncer {
	return &Debouncer{clock: clock, delay: delay}
}

// Trigger (re)starts the delay; fn runs when it elapses unless another
// Trigger or Stop comes first.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.delay, fn)
}

// Stop clears any pending trigger.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
