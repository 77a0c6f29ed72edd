package clock

import "time"

// Fake is a manually advanced Scheduler for tests. It is not safe for
// concurrent use; callbacks run synchronously inside Advance.
type Fake struct {
	now    time.Time
	seq    uint64
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Time
	every   time.Duration
	fn      func()
	seq     uint64
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// NewFake creates a fake clock reading start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the fake current time.
func (f *Fake) Now() time.Time {
	return f.now
}

// AfterFunc schedules fn once, d after the current fake time.
func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	return f.add(d, 0, fn)
}

// Every schedules fn every d.
func (f *Fake) Every(d time.Duration, fn func()) Timer {
	if d <= 0 {
		d = time.Nanosecond
	}
	return f.add(d, d, fn)
}

func (f *Fake) add(d, every time.Duration, fn func()) *fakeTimer {
	f.seq++
	t := &fakeTimer{at: f.now.Add(d), every: every, fn: fn, seq: f.seq}
	f.timers = append(f.timers, t)
	return t
}

// Advance moves time forward by d, firing due timers in deadline order.
func (f *Fake) Advance(d time.Duration) {
	target := f.now.Add(d)
	for {
		next := f.nextDue(target)
		if next == nil {
			break
		}
		f.now = next.at
		if next.every > 0 {
			next.at = next.at.Add(next.every)
		} else {
			next.stopped = true
		}
		next.fn()
	}
	f.now = target
	f.compact()
}

// Pending returns the number of active timers.
func (f *Fake) Pending() int {
	n := 0
	for _, t := range f.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (f *Fake) nextDue(target time.Time) *fakeTimer {
	var best *fakeTimer
	for _, t := range f.timers {
		if t.stopped || t.at.After(target) {
			continue
		}
		if best == nil || t.at.Before(best.at) || (t.at.Equal(best.at) && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (f *Fake) compact() {
	kept := f.timers[:0]
	for _, t := range f.timers {
		if !t.stopped {
			kept = append(kept, t)
		}
	}
	f.timers = kept
}
