// Package loop runs every state change on a single goroutine and provides
// cancellable timers whose callbacks are delivered on that same goroutine.
package loop

import (
	"context"
	"errors"
	"time"
)

// ErrStopped is returned when work is submitted after the loop has exited.
var ErrStopped = errors.New("event loop stopped")

// Handle cancels a scheduled callback. Cancel is idempotent and safe to
// call after the callback has already run.
type Handle interface {
	Cancel()
}

// Scheduler provides the current time and delayed callbacks.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Handle
}

// Loop is a single-consumer task queue.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	now   func() time.Time
}

// New creates a loop with the given queue capacity.
func New(capacity int) *Loop {
	if capacity <= 0 {
		capacity = 64
	}
	return &Loop{
		tasks: make(chan func(), capacity),
		done:  make(chan struct{}),
		now:   time.Now,
	}
}

// Run executes queued tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Post queues fn without waiting for it. It reports false once the loop
// has exited.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case l.tasks <- task:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Now returns wall-clock time.
func (l *Loop) Now() time.Time {
	return l.now()
}

// AfterFunc schedules fn to run on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Handle {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			// Cancel may have been called between the timer firing and
			// this task being dequeued.
			if t.cancelled {
				return
			}
			t.cancelled = true
			fn()
		})
	})
	return t
}

// loopTimer state is only touched on the loop goroutine.
type loopTimer struct {
	timer     *time.Timer
	cancelled bool
}

func (t *loopTimer) Cancel() {
	t.cancelled = true
	t.timer.Stop()
}
