package report

import (
	"context"
	"errors"
)

// ErrRunNotFound is returned when a run is not found.
var ErrRunNotFound = errors.New("run not found")

// Store defines the interface for run persistence operations.
type Store interface {
	// Save persists a report and its cases.
	Save(ctx context.Context, r *Report) error

	// Get retrieves a report with its cases by run ID.
	Get(ctx context.Context, runID string) (*Report, error)

	// List retrieves the most recent reports without their cases.
	List(ctx context.Context, limit int) ([]*Report, error)
}
