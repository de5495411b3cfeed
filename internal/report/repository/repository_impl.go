package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	reportdomain "github.com/netwatch/ispmetrics/internal/report/domain"
	pkgdb "github.com/netwatch/ispmetrics/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() reportdomain.Repository {
	return &repo{}
}

// allowedPriorStatuses lists, per target status, the states a report may
// be transitioned from. pending is entry-only and never a target.
var allowedPriorStatuses = map[reportdomain.Status][]reportdomain.Status{
	reportdomain.StatusProcessing: {reportdomain.StatusPending, reportdomain.StatusFailed},
	reportdomain.StatusProcessed:  {reportdomain.StatusProcessing},
	reportdomain.StatusFailed:     {reportdomain.StatusProcessing},
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, report *reportdomain.Report) error {
	return db.WithContext(ctx).Create(report).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*reportdomain.Report, error) {
	var report reportdomain.Report
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, reportID snowflake.ID, status reportdomain.Status) error {
	priors, ok := allowedPriorStatuses[status]
	if !ok {
		return reportdomain.ErrInvalidStatusTransition
	}

	result := db.WithContext(ctx).Exec(
		`UPDATE reports SET status = ?, updated_at = ? WHERE id = ? AND status IN ?`,
		status,
		time.Now().UTC(),
		reportID,
		priors,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	existing, err := r.FindByID(ctx, db, reportID)
	if err != nil {
		return err
	}
	if existing == nil {
		return reportdomain.ErrReportNotFound
	}
	return reportdomain.ErrInvalidStatusTransition
}

func (r *repo) ClaimPending(ctx context.Context, db *gorm.DB, limit int) ([]reportdomain.Report, error) {
	if limit <= 0 {
		limit = 50
	}

	var candidates []reportdomain.Report
	err := db.WithContext(ctx).
		Where("status = ?", reportdomain.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	// Optimistic per-row claim: a row another worker grabbed first simply
	// drops out of the batch.
	claimed := make([]reportdomain.Report, 0, len(candidates))
	now := time.Now().UTC()
	for _, report := range candidates {
		result := db.WithContext(ctx).Exec(
			`UPDATE reports SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			reportdomain.StatusProcessing,
			now,
			report.ID,
			reportdomain.StatusPending,
		)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			continue
		}
		report.Status = reportdomain.StatusProcessing
		claimed = append(claimed, report)
	}

	return claimed, nil
}

func (r *repo) UpsertSummary(ctx context.Context, db *gorm.DB, summary *reportdomain.ReportSummary) error {
	existing, err := r.FindSummary(ctx, db, summary.ReportID)
	if err != nil {
		return err
	}
	if existing != nil {
		return r.updateSummaryRow(ctx, db, existing.ID, summary)
	}

	createErr := db.WithContext(ctx).Create(summary).Error
	if createErr == nil {
		return nil
	}
	if !pkgdb.IsDuplicateKeyErr(createErr) {
		return createErr
	}

	// A concurrent worker created the row between lookup and insert;
	// apply our values to the winner's row instead.
	winner, err := r.FindSummary(ctx, db, summary.ReportID)
	if err != nil {
		return err
	}
	if winner == nil {
		return createErr
	}
	return r.updateSummaryRow(ctx, db, winner.ID, summary)
}

func (r *repo) updateSummaryRow(ctx context.Context, db *gorm.DB, id snowflake.ID, summary *reportdomain.ReportSummary) error {
	return db.WithContext(ctx).Exec(
		`UPDATE report_summaries
		 SET total_requests = ?, success_rate = ?, failed_requests = ?,
		     avg_requests_per_hour = ?, unique_providers = ?, unique_states = ?,
		     unique_zip_codes = ?, updated_at = ?
		 WHERE id = ?`,
		summary.TotalRequests,
		summary.SuccessRate,
		summary.FailedRequests,
		summary.AvgRequestsPerHour,
		summary.UniqueProviders,
		summary.UniqueStates,
		summary.UniqueZipCodes,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repo) FindSummary(ctx context.Context, db *gorm.DB, reportID snowflake.ID) (*reportdomain.ReportSummary, error) {
	var summary reportdomain.ReportSummary
	err := db.WithContext(ctx).
		Where("report_id = ?", reportID).
		First(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &summary, nil
}

func (r *repo) InsertProviderFact(ctx context.Context, db *gorm.DB, fact *reportdomain.ReportProvider) error {
	return db.WithContext(ctx).Create(fact).Error
}

func (r *repo) InsertStateFact(ctx context.Context, db *gorm.DB, fact *reportdomain.ReportState) error {
	return db.WithContext(ctx).Create(fact).Error
}

func (r *repo) InsertCityFact(ctx context.Context, db *gorm.DB, fact *reportdomain.ReportCity) error {
	return db.WithContext(ctx).Create(fact).Error
}

func (r *repo) InsertZipCodeFact(ctx context.Context, db *gorm.DB, fact *reportdomain.ReportZipCode) error {
	return db.WithContext(ctx).Create(fact).Error
}

func (r *repo) ClearFacts(ctx context.Context, db *gorm.DB, reportID snowflake.ID) error {
	tables := []string{
		"report_summaries",
		"report_providers",
		"report_states",
		"report_cities",
		"report_zip_codes",
	}
	for _, table := range tables {
		if err := db.WithContext(ctx).Exec(
			`DELETE FROM `+table+` WHERE report_id = ?`,
			reportID,
		).Error; err != nil {
			return err
		}
	}
	return nil
}
