package history

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid calls into one invocation of fn after a quiet
// window.  Each Schedule cancels and replaces the pending timer, so a burst
// of edits yields exactly one capture once the burst settles.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	fn     func()
	timer  *time.Timer
}

// NewDebouncer creates a Debouncer invoking fn after window of quiet.
func NewDebouncer(window time.Duration, fn func()) *Debouncer {
	return &Debouncer{window: window, fn: fn}
}

// Schedule arms (or re-arms) the timer.
func (d *Debouncer) Schedule() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

// Flush runs the pending invocation immediately, if any.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	pending := d.timer != nil
	if pending {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	if pending {
		d.fn()
	}
}

// Stop cancels any pending invocation.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
}
