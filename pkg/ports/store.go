package ports

import (
	"context"

	"github.com/aretw0/conduit/pkg/domain"
)

// ReportStore persists analysis reports so repeated requests for the same
// code can be answered without re-running a valve.
type ReportStore interface {
	// Save persists the report under report.ID, replacing any previous one.
	Save(ctx context.Context, report *domain.Report) error

	// Load retrieves a report by ID.
	// Returns domain.ErrReportNotFound if it does not exist.
	Load(ctx context.Context, id string) (*domain.Report, error)

	// Delete removes a report. Deleting a missing report is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of every live report.
	List(ctx context.Context) ([]string, error)
}
