package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, report *Report) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Report, error)

	// UpdateStatus applies one state-machine transition. It fails with
	// ErrInvalidStatusTransition when the report is not currently in a
	// state the target status may be entered from.
	UpdateStatus(ctx context.Context, db *gorm.DB, reportID snowflake.ID, status Status) error

	// ClaimPending moves up to limit pending reports into processing and
	// returns them, oldest first.
	ClaimPending(ctx context.Context, db *gorm.DB, limit int) ([]Report, error)

	// UpsertSummary inserts or updates the single summary row for
	// summary.ReportID, reconciling a concurrent-create race on the
	// report_id unique constraint.
	UpsertSummary(ctx context.Context, db *gorm.DB, summary *ReportSummary) error

	InsertProviderFact(ctx context.Context, db *gorm.DB, fact *ReportProvider) error
	InsertStateFact(ctx context.Context, db *gorm.DB, fact *ReportState) error
	InsertCityFact(ctx context.Context, db *gorm.DB, fact *ReportCity) error
	InsertZipCodeFact(ctx context.Context, db *gorm.DB, fact *ReportZipCode) error

	// ClearFacts deletes every fact row derived from the report, making
	// the fact set fully replaceable before a reprocessing pass.
	ClearFacts(ctx context.Context, db *gorm.DB, reportID snowflake.ID) error

	FindSummary(ctx context.Context, db *gorm.DB, reportID snowflake.ID) (*ReportSummary, error)
}
