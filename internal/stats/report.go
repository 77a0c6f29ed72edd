package stats

import (
	"context"
	"fmt"

	"github.com/verte-zerg/tapgrid/internal/model"
	"github.com/verte-zerg/tapgrid/internal/store"
)

// weakCellCount is how many missed cells a report lists.
const weakCellCount = 3

// Report contains precomputed data for the results screen.
type Report struct {
	Summary   model.SessionSummary
	Latencies []float64
	Cells     []CellAggregate
	Weakest   []model.Cell
}

// BuildReport loads and prepares the results of one session.
func BuildReport(ctx context.Context, st *store.Store, session uint64) (Report, error) {
	summary, err := st.SessionSummary(ctx, session)
	if err != nil {
		return Report{}, err
	}
	latencies, err := st.ListLatencies(ctx, session)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load latencies: %w", err)
	}
	rounds, err := st.ListRounds(ctx, session)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load rounds: %w", err)
	}
	cells := AggregateCells(rounds)
	return Report{
		Summary:   summary,
		Latencies: latencies,
		Cells:     cells,
		Weakest:   WeakestCells(cells, weakCellCount),
	}, nil
}
