// Package game implements the session state machine: it owns the score, the
// countdown, the adaptive difficulty and the current round, and turns batches
// of touches into the next state.
//
// A Session built with a Scheduler is not safe for concurrent use. Every
// method, and every callback delivered through that Scheduler, must run on
// the same event loop. Without one, the Session runs its own clock.Loop and
// every method is executed on it, so it may be called from any goroutine.
package game

import (
	"context"
	"time"

	"github.com/verte-zerg/tapgrid/internal/batch"
	"github.com/verte-zerg/tapgrid/internal/clock"
	"github.com/verte-zerg/tapgrid/internal/difficulty"
	"github.com/verte-zerg/tapgrid/internal/generator"
	"github.com/verte-zerg/tapgrid/internal/model"
	"github.com/verte-zerg/tapgrid/internal/score"
)

// DefaultDuration is the length of a session.
const DefaultDuration = 60 * time.Second

// Journal receives every evaluated round.
type Journal interface {
	RecordRound(ctx context.Context, rec model.RoundRecord) error
	DiscardSession(ctx context.Context, session uint64) error
}

// Options configures a Session. OnChange, when set, is called after every
// observable state change. When the Session owns its loop, OnChange runs on
// that loop and must not call back into the Session.
type Options struct {
	Config    model.Config
	Scheduler clock.Scheduler
	Journal   Journal
	OnChange  func(model.Snapshot)
	Logf      func(format string, args ...any)
}

// DefaultConfig returns the standard session settings.
func DefaultConfig() model.Config {
	return model.Config{
		Duration:    DefaultDuration,
		BatchWindow: batch.DefaultWindow,
		TickEvery:   clock.DefaultTickInterval,
		FastMs:      difficulty.DefaultFastMs,
		SlowMs:      difficulty.DefaultSlowMs,
		Window:      difficulty.DefaultWindow,
	}
}

func applyDefaults(cfg model.Config) model.Config {
	d := DefaultConfig()
	if cfg.Duration <= 0 {
		cfg.Duration = d.Duration
	}
	if cfg.BatchWindow <= 0 {
		cfg.BatchWindow = d.BatchWindow
	}
	if cfg.TickEvery <= 0 {
		cfg.TickEvery = d.TickEvery
	}
	if cfg.FastMs <= 0 {
		cfg.FastMs = d.FastMs
	}
	if cfg.SlowMs <= 0 {
		cfg.SlowMs = d.SlowMs
	}
	if cfg.Window <= 0 {
		cfg.Window = d.Window
	}
	return cfg
}

type state struct {
	score      int
	remaining  int
	roundStart time.Time
	latencies  []float64
	average    float64
	level      model.Level
	round      model.Round
	lifecycle  model.Lifecycle
}

// Session is one player's game, from mount through any number of resets.
type Session struct {
	cfg        model.Config
	sched      clock.Scheduler
	gen        *generator.Generator
	difficulty *difficulty.Controller
	batcher    *batch.Batcher
	countdown  *clock.Countdown
	journal    Journal
	onChange   func(model.Snapshot)
	logf       func(format string, args ...any)

	loop     *clock.Loop
	stopLoop context.CancelFunc

	session uint64
	round   uint64
	st      state
	closed  bool
}

// New mounts a session: fresh state, a first round without a latency timer,
// and the countdown not yet started.
func New(opts Options) *Session {
	cfg := applyDefaults(opts.Config)
	var loop *clock.Loop
	sched := opts.Scheduler
	if sched == nil {
		loop = clock.NewLoop()
		sched = clock.NewReal(loop.Dispatch)
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	s := &Session{
		cfg:   cfg,
		sched: sched,
		gen:   generator.New(cfg.Seed),
		difficulty: difficulty.New(difficulty.Tuning{
			Window: cfg.Window,
			FastMs: cfg.FastMs,
			SlowMs: cfg.SlowMs,
		}),
		journal:  opts.Journal,
		onChange: opts.OnChange,
		logf:     logf,
	}
	s.batcher = batch.New(sched, cfg.BatchWindow, s.deliver)
	s.mount()
	if loop != nil {
		ctx, cancel := context.WithCancel(context.Background())
		s.loop, s.stopLoop = loop, cancel
		go func() {
			_ = loop.Run(ctx)
		}()
	}
	return s
}

// run executes f on the owned loop, or inline when the caller drives the
// Session. Once the loop has stopped every mutation is a no-op, so f runs
// inline.
func (s *Session) run(f func()) {
	if s.loop == nil {
		f()
		return
	}
	if err := s.loop.Do(context.Background(), f); err != nil {
		f()
	}
}

func (s *Session) mount() {
	s.session++
	s.st = state{
		remaining: int(s.cfg.Duration / time.Second),
		level:     difficulty.InitialLevel(),
		lifecycle: model.Active,
	}
	gen := s.session
	s.countdown = clock.NewCountdown(s.sched, s.cfg.TickEvery, func(remaining int) {
		s.onTick(gen, remaining)
	})
	s.nextRound(false)
}

// Config returns the effective configuration.
func (s *Session) Config() model.Config {
	return s.cfg
}

// Touch records one raw touch. Touches are coalesced by the batcher and
// reach Advance as a single batch. It reports whether the touch was accepted.
func (s *Session) Touch(cell model.Cell) bool {
	var ok bool
	s.run(func() { ok = s.touch(cell) })
	return ok
}

func (s *Session) touch(cell model.Cell) bool {
	if s.closed || s.st.lifecycle == model.Ended {
		return false
	}
	if !cell.Valid() {
		s.logf("ignoring touch on invalid cell %d", cell)
		return false
	}
	s.batcher.Touch(cell)
	return true
}

// Submit advances with cells as one batch for the current round.
func (s *Session) Submit(cells ...model.Cell) bool {
	var ok bool
	s.run(func() {
		now := s.sched.Now()
		touches := make([]model.Touch, len(cells))
		for i, c := range cells {
			touches[i] = model.Touch{Cell: c, At: now}
		}
		ok = s.advance(model.Batch{Round: s.round, Touches: touches})
	})
	return ok
}

func (s *Session) deliver(b model.Batch) {
	s.advance(b)
}

// Advance evaluates a batch against the current round and moves to the next
// one. Batches for an older round, or arriving after the session ended, are
// ignored. It reports whether the batch was applied.
func (s *Session) Advance(b model.Batch) bool {
	var ok bool
	s.run(func() { ok = s.advance(b) })
	return ok
}

func (s *Session) advance(b model.Batch) bool {
	if s.closed || s.st.lifecycle == model.Ended {
		return false
	}
	if b.Round != s.round {
		s.logf("dropping batch for round %d, current round is %d", b.Round, s.round)
		return false
	}
	if s.countdown.Start(s.cfg.Duration) {
		s.logf("session %d started: %s", s.session, s.cfg.Duration)
	}

	level := s.st.level
	submitted := b.Cells()
	res := score.Evaluate(s.st.round, submitted, level)
	s.st.score = score.Apply(s.st.score, res.Delta)

	var latencyMs int64
	measured := res.Correct && !s.st.roundStart.IsZero()
	if measured {
		latencyMs = s.sched.Now().Sub(s.st.roundStart).Milliseconds()
		upd := s.difficulty.Update(s.st.latencies, float64(latencyMs), s.st.level)
		s.st.latencies = upd.Latencies
		s.st.average = upd.Average
		s.st.level = upd.Level
	}

	s.record(model.RoundRecord{
		Session:     s.session,
		Round:       s.round,
		Targets:     s.st.round.Targets,
		Distractors: s.st.round.Distractors,
		Submitted:   submitted,
		Correct:     res.Correct,
		Delta:       res.Delta,
		Score:       s.st.score,
		LatencyMs:   latencyMs,
		Measured:    measured,
		At:          s.sched.Now(),
	})

	s.nextRound(true)
	s.publish()
	return true
}

// Reset abandons the current session and mounts a fresh one.
func (s *Session) Reset() {
	s.run(s.reset)
}

func (s *Session) reset() {
	if s.closed {
		return
	}
	old := s.session
	s.stopTimers()
	if s.journal != nil {
		if err := s.journal.DiscardSession(context.Background(), old); err != nil {
			s.logf("failed to discard session %d: %v", old, err)
		}
	}
	s.mount()
	s.logf("session %d reset to %d", old, s.session)
	s.publish()
}

// Close stops all timers and the owned loop, if any. The session ignores
// every call afterwards.
func (s *Session) Close() {
	s.run(s.close)
	if s.stopLoop != nil {
		s.stopLoop()
	}
}

func (s *Session) close() {
	if s.closed {
		return
	}
	s.stopTimers()
	s.closed = true
}

// Snapshot returns a copy of the observable state.
func (s *Session) Snapshot() model.Snapshot {
	var snap model.Snapshot
	s.run(func() { snap = s.snapshot() })
	return snap
}

func (s *Session) snapshot() model.Snapshot {
	round := s.st.round.Clone()
	return model.Snapshot{
		Session:       s.session,
		Round:         s.round,
		Score:         s.st.score,
		TimeRemaining: s.st.remaining,
		Targets:       round.Targets,
		Distractors:   round.Distractors,
		Latencies:     append([]float64(nil), s.st.latencies...),
		AverageMs:     s.st.average,
		Level:         s.st.level,
		Lifecycle:     s.st.lifecycle,
		ClockStarted:  s.countdown.Started(),
	}
}

func (s *Session) nextRound(start bool) {
	s.round++
	s.st.round = s.gen.Generate(s.st.round.Targets, s.st.level)
	if start {
		s.st.roundStart = s.sched.Now()
	} else {
		s.st.roundStart = time.Time{}
	}
	s.batcher.Rebind(s.round)
}

func (s *Session) onTick(gen uint64, remaining int) {
	if s.closed || gen != s.session || s.st.lifecycle == model.Ended {
		return
	}
	s.st.remaining = remaining
	if remaining <= 0 {
		s.st.lifecycle = model.Ended
		s.batcher.Stop()
		s.logf("session %d ended with score %d", s.session, s.st.score)
	}
	s.publish()
}

func (s *Session) stopTimers() {
	s.countdown.Reset()
	s.batcher.Stop()
}

func (s *Session) record(rec model.RoundRecord) {
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordRound(context.Background(), rec); err != nil {
		s.logf("failed to record round %d: %v", rec.Round, err)
	}
}

func (s *Session) publish() {
	if s.onChange != nil {
		s.onChange(s.snapshot())
	}
}
