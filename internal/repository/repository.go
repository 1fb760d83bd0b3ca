// Package repository declares the storage interfaces the service layer
// depends on. Implementations live in sub-packages (sqlite).
package repository

import (
	"context"

	"github.com/sakif/mathcode/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
	// Day filters by lesson day; 0 lists every day.
	Day int
}

// ReportRepository stores exported project reports.
type ReportRepository interface {
	// Create assigns ID and CreatedAt and inserts the report.
	Create(ctx context.Context, report *model.Report) error
	GetByID(ctx context.Context, id string) (*model.Report, error)
	// List returns summaries, newest first.
	List(ctx context.Context, opts ListOptions) ([]model.ReportSummary, error)
	Delete(ctx context.Context, id string) error
}
