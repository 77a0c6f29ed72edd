// Package difficulty adapts round size to keep reaction latency inside a band.
package difficulty

import "github.com/verte-zerg/tapgrid/internal/model"

const (
	// DefaultWindow is the number of recent latencies averaged.
	DefaultWindow = 5
	// DefaultFastMs is the average latency below which difficulty rises.
	DefaultFastMs = 650.0
	// DefaultSlowMs is the average latency above which difficulty drops.
	DefaultSlowMs = 700.0
)

// Bounds for the fractional counts.
const (
	MinTargets     = 1.0
	MaxTargets     = 4.0
	MinDistractors = 0.0
	MaxDistractors = 7.0
)

// Tuning holds the controller thresholds and step sizes.
type Tuning struct {
	Window         int
	FastMs         float64
	SlowMs         float64
	TargetStep     float64
	DistractorStep float64
}

// DefaultTuning returns the standard band of 650-700ms over five rounds.
func DefaultTuning() Tuning {
	return Tuning{
		Window:         DefaultWindow,
		FastMs:         DefaultFastMs,
		SlowMs:         DefaultSlowMs,
		TargetStep:     0.3,
		DistractorStep: 1,
	}
}

// InitialLevel is the level every session starts at.
func InitialLevel() model.Level {
	return model.Level{Targets: MinTargets, Distractors: MinDistractors}
}

// applyDefaults fills in zero-valued fields with defaults.
func (t Tuning) applyDefaults() Tuning {
	d := DefaultTuning()
	if t.Window <= 0 {
		t.Window = d.Window
	}
	if t.FastMs <= 0 {
		t.FastMs = d.FastMs
	}
	if t.SlowMs <= 0 {
		t.SlowMs = d.SlowMs
	}
	if t.TargetStep <= 0 {
		t.TargetStep = d.TargetStep
	}
	if t.DistractorStep <= 0 {
		t.DistractorStep = d.DistractorStep
	}
	return t
}

// Result is the controller output after one measured round.
type Result struct {
	Latencies []float64
	Average   float64
	Level     model.Level
}

// Controller applies a Tuning to latency updates.
type Controller struct {
	tuning Tuning
}

// New creates a controller. Zero-valued tuning fields take their defaults.
func New(tuning Tuning) *Controller {
	return &Controller{tuning: tuning.applyDefaults()}
}

// Tuning returns the effective tuning.
func (c *Controller) Tuning() Tuning {
	return c.tuning
}

// Update records latencyMs, averages the retained window and moves the level
// up when the player is fast, down when slow, and leaves it alone in the band.
func (c *Controller) Update(latencies []float64, latencyMs float64, level model.Level) Result {
	kept := Push(latencies, latencyMs, c.tuning.Window)
	avg := Mean(kept)

	switch {
	case avg < c.tuning.FastMs:
		level.Targets = clamp(level.Targets+c.tuning.TargetStep, MinTargets, MaxTargets)
		level.Distractors = clamp(level.Distractors+c.tuning.DistractorStep, MinDistractors, MaxDistractors)
	case avg > c.tuning.SlowMs:
		level.Targets = clamp(level.Targets-c.tuning.TargetStep, MinTargets, MaxTargets)
		level.Distractors = clamp(level.Distractors-c.tuning.DistractorStep, MinDistractors, MaxDistractors)
	}

	return Result{Latencies: kept, Average: avg, Level: level}
}

// Push appends v and keeps only the most recent window values.
// The input slice is never modified.
func Push(values []float64, v float64, window int) []float64 {
	out := make([]float64, 0, len(values)+1)
	out = append(out, values...)
	out = append(out, v)
	if window > 0 && len(out) > window {
		out = out[len(out)-window:]
	}
	return out
}

// Mean returns the arithmetic mean, or 0 for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
