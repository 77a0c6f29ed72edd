// Package score evaluates submissions and computes score changes.
package score

import (
	"math"

	"github.com/verte-zerg/tapgrid/internal/model"
)

const (
	// Penalty is subtracted for any incorrect submission.
	Penalty = 10

	baseReward       = 100
	tierMultiplier   = 5
	distractorReward = 10
)

// Result is the outcome of evaluating one submission.
type Result struct {
	Correct bool
	Delta   int
}

// Evaluate compares the submitted cells against the round targets. Order and
// duplicates are ignored; any missing or extra cell makes the round incorrect.
func Evaluate(round model.Round, submitted []model.Cell, level model.Level) Result {
	if !sameSet(submitted, round.Targets) {
		return Result{Correct: false, Delta: -Penalty}
	}
	return Result{Correct: true, Delta: Reward(level)}
}

// Reward returns the points for a correct round at the given level:
// 100 * 5^(targets-1) + 10 * distractors, using whole counts.
func Reward(level model.Level) int {
	targets := int(math.Floor(level.Targets))
	distractors := int(math.Floor(level.Distractors))
	reward := baseReward
	for i := 1; i < targets; i++ {
		reward *= tierMultiplier
	}
	return reward + distractorReward*distractors
}

// Apply adds delta to current, flooring the result at zero.
func Apply(current, delta int) int {
	next := current + delta
	if next < 0 {
		return 0
	}
	return next
}

func sameSet(a, b []model.Cell) bool {
	as := toSet(a)
	bs := toSet(b)
	if len(as) != len(bs) {
		return false
	}
	for c := range as {
		if _, ok := bs[c]; !ok {
			return false
		}
	}
	return true
}

func toSet(cells []model.Cell) map[model.Cell]struct{} {
	set := make(map[model.Cell]struct{}, len(cells))
	for _, c := range cells {
		set[c] = struct{}{}
	}
	return set
}
