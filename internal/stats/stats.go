// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/tapgrid/internal/model"
)

const sparkChars = " .:-=+*#%@"

// RoundMetrics returns the share of rounds answered correctly.
func RoundMetrics(correct, incorrect int) (accuracy float64) {
	den := float64(correct + incorrect)
	if den <= 0 {
		return 0
	}
	return float64(correct) / den
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := seriesMinMax(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints the results table for one session.
func RenderSummary(w io.Writer, s model.SessionSummary) error {
	if s.Rounds == 0 {
		_, err := fmt.Fprintln(w, "No rounds played.")
		return err
	}
	fields := []field{
		{"Score", fmt.Sprintf("%d", s.FinalScore)},
		{"Rounds", fmt.Sprintf("%d", s.Rounds)},
		{"Correct", fmt.Sprintf("%d", s.Correct)},
		{"Incorrect", fmt.Sprintf("%d", s.Incorrect)},
		{"Accuracy", fmt.Sprintf("%.1f%%", RoundMetrics(s.Correct, s.Incorrect)*100)},
		{"Best latency", FormatLatency(float64(s.BestLatency), s.Measured)},
		{"Avg latency", FormatLatency(s.AvgLatency, s.Measured)},
		{"Peak targets", fmt.Sprintf("%d", s.PeakTargets)},
	}
	for _, line := range alignFields(fields) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// FormatLatency renders a latency in milliseconds, or "-" when no round
// was measured.
func FormatLatency(ms float64, measured int) string {
	if measured == 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f ms", ms)
}
