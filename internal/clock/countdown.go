package clock

import (
	"math"
	"time"
)

// DefaultTickInterval is how often the countdown republishes remaining time.
const DefaultTickInterval = 500 * time.Millisecond

// Countdown publishes whole seconds remaining until a deadline and stops
// itself once the deadline has passed.
type Countdown struct {
	sched    Scheduler
	interval time.Duration
	onTick   func(remaining int)

	ticker     Timer
	end        time.Time
	generation uint64
	started    bool
	running    bool
}

// NewCountdown creates a stopped countdown. onTick receives the remaining
// seconds on every tick, including the final one that is <= 0.
func NewCountdown(sched Scheduler, interval time.Duration, onTick func(remaining int)) *Countdown {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Countdown{sched: sched, interval: interval, onTick: onTick}
}

// Start begins counting down d from now. It returns false, and does nothing,
// when the countdown was already started.
func (c *Countdown) Start(d time.Duration) bool {
	if c.started {
		return false
	}
	c.started = true
	c.running = true
	c.end = c.sched.Now().Add(d)
	gen := c.generation
	c.ticker = c.sched.Every(c.interval, func() { c.tick(gen) })
	return true
}

// Started reports whether Start has been called since the last Reset.
func (c *Countdown) Started() bool {
	return c.started
}

// Running reports whether ticks are still being delivered.
func (c *Countdown) Running() bool {
	return c.running
}

// Generation identifies the current run; it changes on every stop.
func (c *Countdown) Generation() uint64 {
	return c.generation
}

// Stop halts ticking. Started stays true until Reset.
func (c *Countdown) Stop() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
	c.running = false
	c.generation++
}

// Reset stops the countdown and allows it to be started again.
func (c *Countdown) Reset() {
	c.Stop()
	c.started = false
	c.end = time.Time{}
}

func (c *Countdown) tick(gen uint64) {
	if gen != c.generation || !c.running {
		return
	}
	remaining := Remaining(c.end, c.sched.Now())
	if remaining <= 0 {
		c.Stop()
	}
	if c.onTick != nil {
		c.onTick(remaining)
	}
}

// Remaining returns ceil((end-now) / 1s).
func Remaining(end, now time.Time) int {
	secs := math.Ceil(float64(end.Sub(now)) / float64(time.Second))
	return int(secs)
}
