package stats

import (
	"sort"

	"github.com/verte-zerg/tapgrid/internal/model"
)

// CellAggregate counts how often a cell was a target and how often it was
// part of the submission when it was.
type CellAggregate struct {
	Cell  model.Cell
	Asked int
	Hit   int
}

// AggregateCells tallies target cells across rounds, ordered by cell.
func AggregateCells(rounds []model.RoundRecord) []CellAggregate {
	byCell := map[model.Cell]*CellAggregate{}
	for _, rec := range rounds {
		submitted := make(map[model.Cell]struct{}, len(rec.Submitted))
		for _, c := range rec.Submitted {
			submitted[c] = struct{}{}
		}
		for _, c := range rec.Targets {
			agg, ok := byCell[c]
			if !ok {
				agg = &CellAggregate{Cell: c}
				byCell[c] = agg
			}
			agg.Asked++
			if _, ok := submitted[c]; ok {
				agg.Hit++
			}
		}
	}
	out := make([]CellAggregate, 0, len(byCell))
	for _, agg := range byCell {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cell < out[j].Cell })
	return out
}

func accuracy(agg CellAggregate) float64 {
	if agg.Asked == 0 {
		return 1.0
	}
	return float64(agg.Hit) / float64(agg.Asked)
}
