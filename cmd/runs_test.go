//go:build !integration

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/canvass-labs/survey-cli/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:         "abc12345-6789-0000-0000-000000000000",
			Source:     model.RunSourceRecover,
			Strategy:   "direct_parse",
			Confidence: 0.9,
			Questions:  8,
			CreatedAt:  now,
		},
		{
			ID:         "def12345-6789-0000-0000-000000000000",
			Source:     model.RunSourceGenerate,
			Strategy:   "progressive_repair",
			Confidence: 0.6,
			Questions:  5,
			CreatedAt:  now.Add(-1 * time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "STRATEGY")
	assert.Contains(t, output, "direct_parse")
	assert.Contains(t, output, "0.90")
	assert.Contains(t, output, "progressive_repair")
	assert.Contains(t, output, "generate")
	assert.Contains(t, output, "2026-08-15 10:30")
	assert.Contains(t, output, "abc12345")
}

func TestComputeRunStats(t *testing.T) {
	runs := []model.Run{
		{Strategy: "direct_parse", Confidence: 0.9, Questions: 10, DurationMS: 4},
		{Strategy: "direct_parse", Confidence: 0.9, Questions: 8, DurationMS: 2},
		{Strategy: "pattern_reconstruct", Confidence: 0.5, Questions: 4, DurationMS: 12},
		{Strategy: "minimal_fallback", Confidence: 0.1, Questions: 3, DurationMS: 2},
	}

	s := computeRunStats(runs)

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.ByStrategy["direct_parse"])
	assert.Equal(t, 1, s.ByStrategy["minimal_fallback"])
	assert.Equal(t, 1, s.Fallbacks)
	assert.InDelta(t, 0.6, s.AvgConfidence, 0.001)
	assert.InDelta(t, 6.25, s.AvgQuestions, 0.001)
	assert.InDelta(t, 5.0, s.AvgDurMS, 0.001)
}

func TestComputeRunStats_Empty(t *testing.T) {
	s := computeRunStats(nil)

	assert.Equal(t, 0, s.Total)
	assert.Zero(t, s.AvgConfidence)
	assert.Empty(t, s.ByStrategy)
}

func TestFormatRunStats(t *testing.T) {
	s := runStats{
		Total:         4,
		ByStrategy:    map[string]int{"direct_parse": 3, "minimal_fallback": 1},
		Fallbacks:     1,
		AvgConfidence: 0.7,
		AvgQuestions:  6.5,
		AvgDurMS:      5,
	}

	var buf bytes.Buffer
	formatRunStats(&buf, s)

	output := buf.String()
	assert.Contains(t, output, "Total runs:")
	assert.Contains(t, output, "direct_parse:")
	assert.Contains(t, output, "25.0%")
	assert.Contains(t, output, "0.70")
	assert.Contains(t, output, "6.5")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000-0000-000000000000"))
	assert.Equal(t, "short", truncateID("short"))
}
