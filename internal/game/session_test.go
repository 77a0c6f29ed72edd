package game

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tapgrid/internal/clock"
	"github.com/verte-zerg/tapgrid/internal/difficulty"
	"github.com/verte-zerg/tapgrid/internal/model"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeJournal struct {
	records   []model.RoundRecord
	discarded []uint64
	err       error
}

func (j *fakeJournal) RecordRound(_ context.Context, rec model.RoundRecord) error {
	j.records = append(j.records, rec)
	return j.err
}

func (j *fakeJournal) DiscardSession(_ context.Context, session uint64) error {
	j.discarded = append(j.discarded, session)
	return j.err
}

func newTestSession(t *testing.T, opts Options) (*Session, *clock.Fake) {
	t.Helper()
	f := clock.NewFake(epoch)
	opts.Scheduler = f
	if opts.Config.Seed == 0 {
		opts.Config.Seed = 1
	}
	s := New(opts)
	t.Cleanup(s.Close)
	return s, f
}

func submitCorrect(s *Session) bool {
	return s.Submit(s.Snapshot().Targets...)
}

func submitWrong(s *Session) bool {
	snap := s.Snapshot()
	for c := model.Cell(0); c < model.GridSize; c++ {
		if !contains(snap.Targets, c) {
			return s.Submit(c)
		}
	}
	return s.Submit()
}

func contains(cells []model.Cell, c model.Cell) bool {
	for _, v := range cells {
		if v == c {
			return true
		}
	}
	return false
}

func TestMountState(t *testing.T) {
	s, f := newTestSession(t, Options{})
	snap := s.Snapshot()
	assert.Equal(t, 0, snap.Score)
	assert.Equal(t, 60, snap.TimeRemaining)
	assert.Equal(t, model.Active, snap.Lifecycle)
	assert.Equal(t, difficulty.InitialLevel(), snap.Level)
	assert.False(t, snap.ClockStarted)
	assert.Len(t, snap.Targets, 1)
	assert.Empty(t, snap.Distractors)
	assert.Zero(t, snap.AverageMs)
	assert.Equal(t, 0, f.Pending(), "no timers before the first advance")
}

func TestFirstCorrectRoundSkipsDifficulty(t *testing.T) {
	s, f := newTestSession(t, Options{})
	f.Advance(3 * time.Second)
	require.True(t, submitCorrect(s))

	snap := s.Snapshot()
	assert.Equal(t, 100, snap.Score)
	assert.True(t, snap.ClockStarted)
	assert.Empty(t, snap.Latencies)
	assert.Equal(t, difficulty.InitialLevel(), snap.Level)
}

func TestMeasuredRoundUpdatesDifficulty(t *testing.T) {
	s, f := newTestSession(t, Options{})
	require.True(t, submitCorrect(s))
	f.Advance(500 * time.Millisecond)
	require.True(t, submitCorrect(s))

	snap := s.Snapshot()
	assert.Equal(t, []float64{500}, snap.Latencies)
	assert.Equal(t, 500.0, snap.AverageMs)
	assert.InDelta(t, 1.3, snap.Level.Targets, 1e-9)
	assert.Equal(t, 1.0, snap.Level.Distractors)
	assert.Equal(t, 200, snap.Score)
	assert.Len(t, snap.Distractors, 1)
}

func TestIncorrectKeepsDifficultyAndFloorsScore(t *testing.T) {
	s, f := newTestSession(t, Options{})
	require.True(t, submitCorrect(s))
	f.Advance(500 * time.Millisecond)
	require.True(t, submitCorrect(s))
	level := s.Snapshot().Level
	before := s.Snapshot().Round

	f.Advance(100 * time.Millisecond)
	require.True(t, submitWrong(s))
	snap := s.Snapshot()
	assert.Equal(t, 190, snap.Score)
	assert.Equal(t, level, snap.Level)
	assert.Equal(t, before+1, snap.Round)

	s.st.score = 5
	require.True(t, submitWrong(s))
	assert.Equal(t, 0, s.Snapshot().Score)
	require.True(t, submitWrong(s))
	assert.Equal(t, 0, s.Snapshot().Score)
}

func TestRewardUsesCurrentLevel(t *testing.T) {
	s, _ := newTestSession(t, Options{})
	s.st.level = model.Level{Targets: 2, Distractors: 3}
	s.st.round = model.Round{Targets: []model.Cell{1, 6}, Distractors: []model.Cell{0, 2, 3}}
	require.True(t, s.Submit(6, 1))
	assert.Equal(t, 530, s.Snapshot().Score)
}

func TestTouchesBatchIntoSingleAdvance(t *testing.T) {
	var changes []model.Snapshot
	s, f := newTestSession(t, Options{OnChange: func(snap model.Snapshot) {
		changes = append(changes, snap)
	}})
	s.st.level = model.Level{Targets: 3}
	s.st.round = model.Round{Targets: []model.Cell{2, 5, 7}}
	round := s.Snapshot().Round

	require.True(t, s.Touch(2))
	f.Advance(10 * time.Millisecond)
	require.True(t, s.Touch(5))
	f.Advance(10 * time.Millisecond)
	require.True(t, s.Touch(7))
	assert.Empty(t, changes)

	f.Advance(50 * time.Millisecond)
	require.Len(t, changes, 1, "three touches must reach advance once")
	assert.Equal(t, 100*25, changes[0].Score)
	assert.Equal(t, round+1, changes[0].Round)
}

func TestSplitTouchesAreSeparateAttempts(t *testing.T) {
	s, f := newTestSession(t, Options{})
	s.st.level = model.Level{Targets: 2}
	s.st.round = model.Round{Targets: []model.Cell{2, 5}}

	s.Touch(2)
	f.Advance(200 * time.Millisecond)
	s.Touch(5)
	f.Advance(200 * time.Millisecond)

	assert.Equal(t, 0, s.Snapshot().Score, "each half is an incorrect round")
}

func TestNewRoundDiscardsPendingTouches(t *testing.T) {
	s, f := newTestSession(t, Options{})
	target := s.Snapshot().Targets[0]
	s.Touch(target)
	require.True(t, submitCorrect(s))
	round := s.Snapshot().Round
	f.Advance(time.Second)
	assert.Equal(t, round, s.Snapshot().Round, "touch from the old round must not advance")
	assert.Equal(t, 100, s.Snapshot().Score)
}

func TestStaleBatchDropped(t *testing.T) {
	s, _ := newTestSession(t, Options{})
	old := s.Snapshot()
	require.True(t, submitCorrect(s))
	applied := s.Advance(model.Batch{Round: old.Round, Touches: []model.Touch{{Cell: old.Targets[0]}}})
	assert.False(t, applied)
	assert.Equal(t, 100, s.Snapshot().Score)
}

func TestInvalidTouchIgnored(t *testing.T) {
	s, _ := newTestSession(t, Options{})
	assert.False(t, s.Touch(-1))
	assert.False(t, s.Touch(12))
}

func TestSessionEndsAfterDuration(t *testing.T) {
	s, f := newTestSession(t, Options{})
	require.True(t, submitCorrect(s))
	gen := s.countdown.Generation()
	f.Advance(30 * time.Second)
	snap := s.Snapshot()
	assert.Equal(t, 30, snap.TimeRemaining)
	assert.Equal(t, model.Active, snap.Lifecycle)

	f.Advance(30 * time.Second)
	ended := s.Snapshot()
	assert.Equal(t, model.Ended, ended.Lifecycle)
	assert.LessOrEqual(t, ended.TimeRemaining, 0)
	assert.Equal(t, 0, f.Pending(), "clock stops itself")
	assert.Equal(t, gen+1, s.countdown.Generation(), "countdown stops exactly once")

	assert.False(t, submitCorrect(s))
	assert.False(t, s.Touch(ended.Targets[0]))
	f.Advance(time.Minute)
	after := s.Snapshot()
	assert.Equal(t, ended.Score, after.Score)
	assert.Equal(t, ended.Round, after.Round)
	assert.Equal(t, ended.Targets, after.Targets)
}

func TestPendingBatchDroppedAtEnd(t *testing.T) {
	s, f := newTestSession(t, Options{Config: model.Config{Duration: 2 * time.Second}})
	require.True(t, submitCorrect(s))
	f.Advance(1990 * time.Millisecond)
	s.Touch(s.Snapshot().Targets[0])
	f.Advance(10 * time.Millisecond)
	require.Equal(t, model.Ended, s.Snapshot().Lifecycle)
	score := s.Snapshot().Score
	f.Advance(time.Second)
	assert.Equal(t, score, s.Snapshot().Score)
}

func TestResetIsIdempotent(t *testing.T) {
	journal := &fakeJournal{}
	s, f := newTestSession(t, Options{Journal: journal})
	for i := 0; i < 5; i++ {
		require.True(t, submitCorrect(s))
		f.Advance(400 * time.Millisecond)
	}
	require.NotZero(t, s.Snapshot().Score)

	s.Reset()
	first := s.Snapshot()
	s.Reset()
	second := s.Snapshot()

	for _, snap := range []model.Snapshot{first, second} {
		assert.Equal(t, 0, snap.Score)
		assert.Equal(t, 60, snap.TimeRemaining)
		assert.Equal(t, difficulty.InitialLevel(), snap.Level)
		assert.Equal(t, model.Active, snap.Lifecycle)
		assert.False(t, snap.ClockStarted)
		assert.Empty(t, snap.Latencies)
		assert.Len(t, snap.Targets, 1)
		assert.Empty(t, snap.Distractors)
	}
	assert.Equal(t, 0, f.Pending())
	assert.Equal(t, []uint64{first.Session - 1, first.Session}, journal.discarded)

	require.True(t, submitCorrect(s))
	assert.Empty(t, s.Snapshot().Latencies, "first round after reset is unmeasured")
}

func TestStaleTickAfterResetIgnored(t *testing.T) {
	s, _ := newTestSession(t, Options{})
	require.True(t, submitCorrect(s))
	oldGen := s.session
	s.Reset()
	s.onTick(oldGen, 0)
	snap := s.Snapshot()
	assert.Equal(t, model.Active, snap.Lifecycle)
	assert.Equal(t, 60, snap.TimeRemaining)
}

func TestSustainedFastPlayReachesCaps(t *testing.T) {
	s, f := newTestSession(t, Options{Config: model.Config{Duration: time.Hour}})
	require.True(t, submitCorrect(s))
	prev := s.Snapshot().Level
	for i := 0; i < 30; i++ {
		f.Advance(500 * time.Millisecond)
		require.True(t, submitCorrect(s))
		snap := s.Snapshot()
		require.GreaterOrEqual(t, snap.Level.Targets, prev.Targets)
		require.GreaterOrEqual(t, snap.Level.Distractors, prev.Distractors)
		require.Len(t, snap.Targets, int(math.Floor(snap.Level.Targets)))
		require.Len(t, snap.Distractors, int(math.Floor(snap.Level.Distractors)))
		prev = snap.Level
	}
	assert.Equal(t, difficulty.MaxTargets, prev.Targets)
	assert.Equal(t, difficulty.MaxDistractors, prev.Distractors)

	for i := 0; i < 30; i++ {
		f.Advance(800 * time.Millisecond)
		require.True(t, submitCorrect(s))
		snap := s.Snapshot()
		require.LessOrEqual(t, snap.Level.Targets, prev.Targets)
		require.LessOrEqual(t, snap.Level.Distractors, prev.Distractors)
		prev = snap.Level
	}
	assert.Equal(t, difficulty.MinTargets, prev.Targets)
	assert.Equal(t, difficulty.MinDistractors, prev.Distractors)
}

func TestRoundsNeverOverlapAndScoreNeverNegative(t *testing.T) {
	s, f := newTestSession(t, Options{Config: model.Config{Duration: time.Hour, Seed: 99}})
	for i := 0; i < 300; i++ {
		f.Advance(time.Duration(300+i%700) * time.Millisecond)
		if i%3 == 0 {
			submitWrong(s)
		} else {
			submitCorrect(s)
		}
		snap := s.Snapshot()
		require.GreaterOrEqual(t, snap.Score, 0)
		for _, c := range snap.Targets {
			require.False(t, contains(snap.Distractors, c), "cell %d is both target and distractor", c)
		}
		require.LessOrEqual(t, len(snap.Targets)+len(snap.Distractors), model.GridSize)
	}
}

func TestJournalRecordsRounds(t *testing.T) {
	journal := &fakeJournal{}
	s, f := newTestSession(t, Options{Journal: journal})
	require.True(t, submitCorrect(s))
	f.Advance(600 * time.Millisecond)
	require.True(t, submitCorrect(s))
	require.True(t, submitWrong(s))

	require.Len(t, journal.records, 3)
	assert.Zero(t, journal.records[0].LatencyMs)
	assert.False(t, journal.records[0].Measured)
	assert.Equal(t, int64(600), journal.records[1].LatencyMs)
	assert.True(t, journal.records[1].Measured)
	assert.False(t, journal.records[2].Measured)
	assert.True(t, journal.records[1].Correct)
	assert.False(t, journal.records[2].Correct)
	assert.Equal(t, -10, journal.records[2].Delta)
	assert.Equal(t, 190, journal.records[2].Score)
}

func TestInstantAnswerIsMeasured(t *testing.T) {
	journal := &fakeJournal{}
	s, _ := newTestSession(t, Options{Journal: journal})
	require.True(t, submitCorrect(s))
	require.True(t, submitCorrect(s))

	require.Len(t, journal.records, 2)
	assert.True(t, journal.records[1].Measured)
	assert.Zero(t, journal.records[1].LatencyMs)
	assert.Equal(t, []float64{0}, s.Snapshot().Latencies)
}

func TestJournalErrorsAreLogged(t *testing.T) {
	var logged []string
	journal := &fakeJournal{err: errors.New("disk on fire")}
	s, _ := newTestSession(t, Options{Journal: journal, Logf: func(format string, _ ...any) {
		logged = append(logged, format)
	}})
	require.True(t, submitCorrect(s))
	assert.Equal(t, 100, s.Snapshot().Score)
	assert.Contains(t, logged, "failed to record round %d: %v")
}

func TestCloseStopsTimers(t *testing.T) {
	s, f := newTestSession(t, Options{})
	require.True(t, submitCorrect(s))
	s.Touch(0)
	require.NotZero(t, f.Pending())
	s.Close()
	assert.Equal(t, 0, f.Pending())
	assert.False(t, s.Touch(0))
	assert.False(t, submitCorrect(s))
}

func TestOwnedLoopRunsTimersWithCallers(t *testing.T) {
	s := New(Options{Config: model.Config{
		Seed:        1,
		Duration:    time.Second,
		BatchWindow: 5 * time.Millisecond,
		TickEvery:   10 * time.Millisecond,
	}})
	t.Cleanup(s.Close)
	require.NotNil(t, s.loop)

	first := s.Snapshot()
	for _, c := range first.Targets {
		require.True(t, s.Touch(c))
	}
	require.Eventually(t, func() bool {
		return s.Snapshot().Round > first.Round
	}, time.Second, 5*time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, 100, snap.Score)
	assert.True(t, snap.ClockStarted)

	require.Eventually(t, func() bool {
		return s.Snapshot().Lifecycle == model.Ended
	}, 3*time.Second, 10*time.Millisecond)

	s.Close()
	assert.False(t, s.Touch(0))
	assert.False(t, s.Submit(0))
	assert.Equal(t, model.Ended, s.Snapshot().Lifecycle)
	assert.Equal(t, 100, s.Snapshot().Score)
}
