// Package generator picks targets and distractors for each round.
package generator

import (
	"math"
	"math/rand"
	"time"

	"github.com/verte-zerg/tapgrid/internal/model"
)

// Generator produces randomized rounds.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with seed, or with the current time when seed is 0.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate draws floor(level.Targets) targets that avoid previous where possible,
// then floor(level.Distractors) distractors from the remaining cells.
func (g *Generator) Generate(previous []model.Cell, level model.Level) model.Round {
	targetCount := clampCount(level.Targets, model.GridSize)
	pool := exclude(allCells(), previous)
	if len(pool) < targetCount {
		// Not enough fresh cells: allow repeats instead of stalling.
		pool = allCells()
	}
	targets := g.take(pool, targetCount)

	distractorCount := clampCount(level.Distractors, model.GridSize-len(targets))
	distractors := g.take(exclude(allCells(), targets), distractorCount)

	return model.Round{Targets: targets, Distractors: distractors}
}

func (g *Generator) take(pool []model.Cell, n int) []model.Cell {
	g.rnd.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	out := make([]model.Cell, n)
	copy(out, pool[:n])
	return out
}

func clampCount(v float64, limit int) int {
	n := int(math.Floor(v))
	if n < 0 {
		return 0
	}
	if n > limit {
		return limit
	}
	return n
}

func allCells() []model.Cell {
	cells := make([]model.Cell, model.GridSize)
	for i := range cells {
		cells[i] = model.Cell(i)
	}
	return cells
}

func exclude(cells, drop []model.Cell) []model.Cell {
	if len(drop) == 0 {
		return cells
	}
	skip := make(map[model.Cell]struct{}, len(drop))
	for _, c := range drop {
		skip[c] = struct{}{}
	}
	out := cells[:0]
	for _, c := range cells {
		if _, ok := skip[c]; ok {
			continue
		}
		out = append(out, c)
	}
	return out
}
