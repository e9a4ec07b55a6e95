// Package monitoring watches recovery quality over time: which strategies are
// winning, how often the pipeline lands on the fallback, and whether average
// confidence is drifting down.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/canvass-labs/survey-cli/internal/store"
)

// MetricsSnapshot holds a point-in-time view of recovery health.
type MetricsSnapshot struct {
	// Run metrics (within lookback window).
	RunsTotal     int            `json:"runs_total"`
	ByStrategy    map[string]int `json:"by_strategy"`
	FallbackRate  float64        `json:"fallback_rate"`
	AvgConfidence float64        `json:"avg_confidence"`
	AvgQuestions  float64        `json:"avg_questions"`
	AvgDurationMS float64        `json:"avg_duration_ms"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers metrics from the run store.
type Collector struct {
	store store.Store
}

// NewCollector creates a new metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect gathers a snapshot of recovery metrics over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		ByStrategy:    map[string]int{},
		LookbackHours: lookbackHours,
		CollectedAt:   time.Now().UTC(),
	}

	cutoff := time.Now().UTC().Add(-time.Duration(lookbackHours) * time.Hour)

	runs, err := c.store.ListRuns(ctx, store.RunFilter{
		Since: cutoff,
		Limit: 10000,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap.RunsTotal = len(runs)
	if len(runs) == 0 {
		return snap, nil
	}

	var fallbacks int
	var totalConfidence float64
	var totalQuestions int
	var totalDuration int64

	for _, r := range runs {
		snap.ByStrategy[r.Strategy]++
		if r.Strategy == "minimal_fallback" {
			fallbacks++
		}
		totalConfidence += r.Confidence
		totalQuestions += r.Questions
		totalDuration += r.DurationMS
	}

	n := float64(len(runs))
	snap.FallbackRate = float64(fallbacks) / n
	snap.AvgConfidence = totalConfidence / n
	snap.AvgQuestions = float64(totalQuestions) / n
	snap.AvgDurationMS = float64(totalDuration) / n

	return snap, nil
}
