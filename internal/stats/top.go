package stats

import (
	"sort"

	"github.com/verte-zerg/tapgrid/internal/model"
)

// WeakestCells returns up to n cells that were missed at least once, lowest
// hit rate first.
func WeakestCells(aggs []CellAggregate, n int) []model.Cell {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	items := make([]CellAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Hit < agg.Asked {
			items = append(items, agg)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		ai, aj := accuracy(items[i]), accuracy(items[j])
		if ai == aj {
			if items[i].Asked == items[j].Asked {
				return items[i].Cell < items[j].Cell
			}
			return items[i].Asked > items[j].Asked
		}
		return ai < aj
	})
	if n > len(items) {
		n = len(items)
	}
	out := make([]model.Cell, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, items[i].Cell)
	}
	return out
}
