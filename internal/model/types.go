// Package model defines shared data structures.
package model

import "time"

// GridSize is the number of cells on the board.
const GridSize = 12

// Cell identifies one of the grid positions, 0 through GridSize-1.
type Cell int

// Valid reports whether c is on the board.
func (c Cell) Valid() bool {
	return c >= 0 && c < GridSize
}

// Round is one set of targets and distractors awaiting a submission.
type Round struct {
	Targets     []Cell
	Distractors []Cell
}

// IsTarget reports whether c is one of the round's targets.
func (r Round) IsTarget(c Cell) bool {
	return contains(r.Targets, c)
}

// IsDistractor reports whether c is one of the round's distractors.
func (r Round) IsDistractor(c Cell) bool {
	return contains(r.Distractors, c)
}

// Clone returns a deep copy of the round.
func (r Round) Clone() Round {
	return Round{
		Targets:     append([]Cell(nil), r.Targets...),
		Distractors: append([]Cell(nil), r.Distractors...),
	}
}

func contains(cells []Cell, c Cell) bool {
	for _, v := range cells {
		if v == c {
			return true
		}
	}
	return false
}

// Touch is a single raw touch on a cell.
type Touch struct {
	Cell Cell
	At   time.Time
}

// Batch is a group of touches coalesced into one submission.
// Round is the generation of the round the touches were collected for.
type Batch struct {
	Round   uint64
	Touches []Touch
}

// Cells returns the touched cells in arrival order.
func (b Batch) Cells() []Cell {
	cells := make([]Cell, len(b.Touches))
	for i, t := range b.Touches {
		cells[i] = t.Cell
	}
	return cells
}

// Level is the fractional difficulty used to size rounds.
type Level struct {
	Targets     float64
	Distractors float64
}

// Lifecycle is the coarse session state.
type Lifecycle int

const (
	Active Lifecycle = iota
	Ended
)

func (l Lifecycle) String() string {
	switch l {
	case Active:
		return "ACTIVE"
	case Ended:
		return "ENDED"
	default:
		return "UNKNOWN"
	}
}

// Snapshot is a read-only view of a session for rendering.
type Snapshot struct {
	Session       uint64
	Round         uint64
	Score         int
	TimeRemaining int
	Targets       []Cell
	Distractors   []Cell
	Latencies     []float64
	AverageMs     float64
	Level         Level
	Lifecycle     Lifecycle
	ClockStarted  bool
}

// Config defines session settings.
type Config struct {
	Duration    time.Duration
	BatchWindow time.Duration
	TickEvery   time.Duration
	Seed        int64
	FastMs      float64
	SlowMs      float64
	Window      int
}

// RoundRecord captures one evaluated round. LatencyMs is meaningful only
// when Measured is set.
type RoundRecord struct {
	Session     uint64
	Round       uint64
	Targets     []Cell
	Distractors []Cell
	Submitted   []Cell
	Correct     bool
	Delta       int
	Score       int
	LatencyMs   int64
	Measured    bool
	At          time.Time
}

// SessionSummary aggregates the rounds of one session. Measured counts the
// rounds whose latency feeds BestLatency and AvgLatency.
type SessionSummary struct {
	Session     uint64
	Rounds      int
	Correct     int
	Incorrect   int
	Measured    int
	BestLatency int64
	AvgLatency  float64
	PeakTargets int
	FinalScore  int
}
