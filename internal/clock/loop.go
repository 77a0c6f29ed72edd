package clock

import (
	"context"
	"sync"
)

const loopBacklog = 64

// Loop serializes callbacks onto a single goroutine.
type Loop struct {
	calls chan func()
	done  chan struct{}
	once  sync.Once
}

// NewLoop creates a loop. Call Run to start processing.
func NewLoop() *Loop {
	return &Loop{
		calls: make(chan func(), loopBacklog),
		done:  make(chan struct{}),
	}
}

// Dispatch queues f for the loop. Calls made after the loop exits are dropped.
func (l *Loop) Dispatch(f func()) {
	select {
	case <-l.done:
	case l.calls <- f:
	}
}

// Run processes callbacks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f := <-l.calls:
			f()
		}
	}
}

// Do runs f on the loop and waits for it to finish. It returns
// context.Canceled, without running f, once the loop has exited.
// It must not be called from inside a loop callback.
func (l *Loop) Do(ctx context.Context, f func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		f()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return context.Canceled
	case l.calls <- wrapped:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-finished:
		return nil
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return context.Canceled
		}
	}
}
