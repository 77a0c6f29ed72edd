// Package clock provides the time source, timer scheduling and the session
// countdown.
//
// All callbacks scheduled through a Scheduler are delivered via a Dispatcher,
// which is expected to run them on the single loop that owns game state.
// Stopping a timer prevents future deliveries but a callback that was already
// dispatched may still run, so owners tag callbacks with a generation.
package clock

import (
	"sync"
	"time"
)

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels future firings. It reports whether the timer was active.
	Stop() bool
}

// Scheduler supplies the current time and cancellable callbacks.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
	Every(d time.Duration, f func()) Timer
}

// Dispatcher runs f on the owning event loop.
type Dispatcher func(f func())

// Direct runs callbacks on whatever goroutine fired them.
func Direct(f func()) { f() }

// Real schedules callbacks on wall-clock time.
type Real struct {
	dispatch Dispatcher
}

// NewReal returns a Real scheduler delivering callbacks through dispatch.
// A nil dispatch runs callbacks directly on timer goroutines.
func NewReal(dispatch Dispatcher) *Real {
	if dispatch == nil {
		dispatch = Direct
	}
	return &Real{dispatch: dispatch}
}

// Now returns the current time with a monotonic reading.
func (r *Real) Now() time.Time {
	return time.Now()
}

// AfterFunc runs f once after d.
func (r *Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, func() { r.dispatch(f) })
}

// Every runs f every d until stopped.
func (r *Real) Every(d time.Duration, f func()) Timer {
	t := &realTicker{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-t.done:
				return
			case <-t.ticker.C:
				r.dispatch(f)
			}
		}
	}()
	return t
}

type realTicker struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *realTicker) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
		stopped = true
	})
	return stopped
}
