// Package batch coalesces rapid touches into a single submission.
//
// The batcher is a two-state machine. IDLE has nothing pending. The first
// touch moves it to COLLECTING and arms a quiet-period timer; every further
// touch appends and re-arms it. When the timer fires the pending touches are
// delivered as one batch, tagged with the round they were collected for, and
// the batcher returns to IDLE.
package batch

import (
	"time"

	"github.com/verte-zerg/tapgrid/internal/clock"
	"github.com/verte-zerg/tapgrid/internal/model"
)

// DefaultWindow is the quiet period that closes a batch.
const DefaultWindow = 50 * time.Millisecond

// State is the batcher state.
type State int

const (
	Idle State = iota
	Collecting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Collecting:
		return "COLLECTING"
	default:
		return "UNKNOWN"
	}
}

// Batcher collects touches until the window passes without a new one.
type Batcher struct {
	sched   clock.Scheduler
	window  time.Duration
	deliver func(model.Batch)

	state    State
	round    uint64
	pending  []model.Touch
	deadline time.Time
	timer    clock.Timer
	token    uint64
}

// New creates an idle batcher that hands finished batches to deliver.
func New(sched clock.Scheduler, window time.Duration, deliver func(model.Batch)) *Batcher {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Batcher{sched: sched, window: window, deliver: deliver}
}

// Touch records a touch on cell and restarts the quiet period.
func (b *Batcher) Touch(cell model.Cell) {
	now := b.sched.Now()
	b.pending = append(b.pending, model.Touch{Cell: cell, At: now})
	b.deadline = now.Add(b.window)
	b.state = Collecting

	b.stopTimer()
	tok := b.token
	b.timer = b.sched.AfterFunc(b.window, func() { b.fire(tok) })
}

// Rebind discards anything pending and tags future batches with round.
func (b *Batcher) Rebind(round uint64) {
	b.Stop()
	b.round = round
}

// Stop discards pending touches and cancels the timer.
func (b *Batcher) Stop() {
	b.stopTimer()
	b.pending = nil
	b.deadline = time.Time{}
	b.state = Idle
}

// State returns the current state.
func (b *Batcher) State() State {
	return b.state
}

// Round returns the round generation batches are tagged with.
func (b *Batcher) Round() uint64 {
	return b.round
}

// Pending returns a copy of the touches collected so far.
func (b *Batcher) Pending() []model.Touch {
	return append([]model.Touch(nil), b.pending...)
}

// Deadline returns when the current batch closes; zero when idle.
func (b *Batcher) Deadline() time.Time {
	return b.deadline
}

func (b *Batcher) stopTimer() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.token++
}

func (b *Batcher) fire(tok uint64) {
	if tok != b.token || b.state != Collecting {
		return
	}
	out := model.Batch{Round: b.round, Touches: b.pending}
	b.pending = nil
	b.deadline = time.Time{}
	b.timer = nil
	b.state = Idle
	if b.deliver != nil {
		b.deliver(out)
	}
}
