// Package store persists recovery runs so strategy hit rates and confidence
// trends can be inspected after the fact.
package store

import (
	"context"
	"time"

	"github.com/canvass-labs/survey-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Source        model.RunSource `json:"source,omitempty"`
	Strategy      string          `json:"strategy,omitempty"`
	MinConfidence float64         `json:"min_confidence,omitempty"`
	Since         time.Time       `json:"since,omitempty"`
	Limit         int             `json:"limit,omitempty"`
	Offset        int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for recovery runs.
type Store interface {
	CreateRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
	DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
