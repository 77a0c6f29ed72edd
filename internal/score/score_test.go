package score

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verte-zerg/tapgrid/internal/model"
)

func TestEvaluateCorrectRewards(t *testing.T) {
	tests := []struct {
		name  string
		level model.Level
		round model.Round
		want  int
	}{
		{
			name:  "single target",
			level: model.Level{Targets: 1, Distractors: 0},
			round: model.Round{Targets: []model.Cell{4}},
			want:  100,
		},
		{
			name:  "two targets three distractors",
			level: model.Level{Targets: 2, Distractors: 3},
			round: model.Round{Targets: []model.Cell{1, 8}, Distractors: []model.Cell{0, 2, 3}},
			want:  530,
		},
		{
			name:  "fractional counts are floored",
			level: model.Level{Targets: 2.9, Distractors: 3.4},
			round: model.Round{Targets: []model.Cell{1, 8}, Distractors: []model.Cell{0, 2, 3}},
			want:  530,
		},
		{
			name:  "top tier",
			level: model.Level{Targets: 4, Distractors: 7},
			round: model.Round{Targets: []model.Cell{0, 1, 2, 3}},
			want:  100*125 + 70,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Evaluate(tc.round, tc.round.Targets, tc.level)
			assert.True(t, res.Correct)
			assert.Equal(t, tc.want, res.Delta)
		})
	}
}

func TestEvaluateIgnoresOrderAndDuplicates(t *testing.T) {
	round := model.Round{Targets: []model.Cell{2, 5, 7}}
	level := model.Level{Targets: 3}
	assert.True(t, Evaluate(round, []model.Cell{7, 2, 5}, level).Correct)
	assert.True(t, Evaluate(round, []model.Cell{7, 2, 5, 2}, level).Correct)
}

func TestEvaluateIncorrect(t *testing.T) {
	round := model.Round{Targets: []model.Cell{2, 5}, Distractors: []model.Cell{9}}
	level := model.Level{Targets: 2, Distractors: 1}
	cases := map[string][]model.Cell{
		"missing target":   {2},
		"extra distractor": {2, 5, 9},
		"extra empty cell": {2, 5, 11},
		"wrong cells":      {0, 1},
		"empty submission": {},
	}
	for name, submitted := range cases {
		res := Evaluate(round, submitted, level)
		assert.False(t, res.Correct, name)
		assert.Equal(t, -Penalty, res.Delta, name)
	}
}

func TestApplyFloorsAtZero(t *testing.T) {
	assert.Equal(t, 0, Apply(5, -Penalty))
	assert.Equal(t, 0, Apply(0, -Penalty))
	assert.Equal(t, 90, Apply(100, -Penalty))
	assert.Equal(t, 630, Apply(100, 530))
}
