// Package report persists completed analyses so past recommendations can be
// listed and inspected.
package report

import (
	"context"
	"time"

	"github.com/tkaraxa/sibyl/internal/core"
)

// Report is one stored analysis with its assigned identity.
type Report struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Analysis  core.Analysis `json:"analysis"`
}

// Store defines the interface for report persistence.
type Store interface {
	// Save persists an analysis and returns the stored report with its
	// assigned ID.
	Save(ctx context.Context, analysis core.Analysis) (Report, error)

	// GetByID retrieves a report by its ID.
	GetByID(ctx context.Context, id string) (*Report, error)

	// List retrieves reports matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]Report, error)

	// Count returns the number of reports matching the filter.
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter defines criteria for listing reports.
type ListFilter struct {
	Asset  string
	Action core.Action
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}
