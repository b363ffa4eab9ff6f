package whatsapp

import (
	"sync"
	"time"
)

// reconnector schedules a single pending re-initialization after a fixed
// delay. The policy is deliberately unbounded: no backoff, no retry ceiling,
// no jitter. Scheduling while an attempt is already pending is a no-op, so a
// burst of disconnect events produces exactly one attempt.
type reconnector struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func newReconnector(delay time.Duration, fn func()) *reconnector {
	return &reconnector{delay: delay, fn: fn}
}

// Schedule arms the retry timer unless one is already pending or the
// reconnector has been stopped.
func (r *reconnector) Schedule() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped || r.timer != nil {
		return
	}
	r.timer = time.AfterFunc(r.delay, r.fire)
}

func (r *reconnector) fire() {
	r.mu.Lock()
	r.timer = nil
	stopped := r.stopped
	r.mu.Unlock()
	if !stopped {
		r.fn()
	}
}

// Stop cancels any pending attempt and rejects future ones. Called at
// shutdown so a retry cannot race with process exit.
func (r *reconnector) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
