package stats

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tapgrid/internal/model"
)

func TestRoundMetrics(t *testing.T) {
	assert.Equal(t, 0.75, RoundMetrics(3, 1))
	assert.Zero(t, RoundMetrics(0, 0))
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	assert.InDeltaSlice(t, []float64{2, 3, 5, 7}, got, 1e-9)
	assert.Equal(t, []float64{1, 5}, MovingAverage([]float64{1, 5}, 1))
}

func TestSparkline(t *testing.T) {
	assert.Empty(t, Sparkline(nil))
	assert.Equal(t, " @", Sparkline([]float64{0, 9}))
	assert.Equal(t, "+++", Sparkline([]float64{3, 3, 3}))
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderSummary(&buf, model.SessionSummary{
		Rounds:      4,
		Correct:     3,
		Incorrect:   1,
		Measured:    2,
		BestLatency: 560,
		AvgLatency:  600,
		PeakTargets: 2,
		FinalScore:  700,
	}))
	out := buf.String()
	for _, want := range []string{
		"Score            700",
		"Accuracy       75.0%",
		"Best latency  560 ms",
		"Peak targets       2",
	} {
		assert.Contains(t, out, want)
	}

	buf.Reset()
	require.NoError(t, RenderSummary(&buf, model.SessionSummary{}))
	assert.Equal(t, "No rounds played.\n", buf.String())
}

func TestFormatLatency(t *testing.T) {
	assert.Equal(t, "-", FormatLatency(0, 0))
	assert.Equal(t, "0 ms", FormatLatency(0, 1))
	assert.Equal(t, "612 ms", FormatLatency(612.4, 2))
}
