package shieldpool

import (
	"sync"
	"time"
)

// debouncer coalesces bursts of NoteManager dirty signals into a single
// delayed call, with Flush acting as a synchronous barrier for callers
// that need the latest state on disk before proceeding (persist_now).
type debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
	fn    func()
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

// Trigger (re)starts the delay window; only the last trigger in a burst
// fires fn.
func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

// Flush cancels any pending delayed call and runs fn inline, now.
func (d *debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.fn()
}
