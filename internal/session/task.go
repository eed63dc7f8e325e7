package session

import (
	"sync"
	"time"
)

// task is a cancellable scheduled callback. Every exit path of the engine
// cancels the pending task explicitly, so a fired timer can never act on a
// session that was torn down in the meantime.
type task struct {
	mu        sync.Mutex
	timer     *time.Timer
	cancelled bool
}

// schedule runs fn after d unless the returned task is cancelled first.
// A fired callback observes cancellation too: Cancel after the timer fires
// but before fn acquires the lock still suppresses the run.
func schedule(d time.Duration, fn func()) *task {
	t := &task{}
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.cancelled {
			t.mu.Unlock()
			return
		}
		t.mu.Unlock()
		fn()
	})
	return t
}

// Cancel stops the task. Safe to call more than once and on a fired task.
func (t *task) Cancel() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled {
		return
	}
	t.cancelled = true
	t.timer.Stop()
}
