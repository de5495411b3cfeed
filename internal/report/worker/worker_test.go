package worker

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	dimensiondomain "github.com/netwatch/ispmetrics/internal/dimension/domain"
	dimensionrepo "github.com/netwatch/ispmetrics/internal/dimension/repository"
	reportdomain "github.com/netwatch/ispmetrics/internal/report/domain"
	reportrepo "github.com/netwatch/ispmetrics/internal/report/repository"
	reportservice "github.com/netwatch/ispmetrics/internal/report/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupWorker(t *testing.T) (*gorm.DB, *Worker, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&dimensiondomain.Provider{},
		&dimensiondomain.ProviderTechnology{},
		&dimensiondomain.State{},
		&dimensiondomain.City{},
		&dimensiondomain.ZipCode{},
		&reportdomain.Report{},
		&reportdomain.ReportSummary{},
		&reportdomain.ReportProvider{},
		&reportdomain.ReportState{},
		&reportdomain.ReportCity{},
		&reportdomain.ReportZipCode{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	reports := reportrepo.Provide()
	processor := reportservice.NewProcessor(reportservice.ProcessorParam{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Resolver: dimensionrepo.Provide(node),
		Reports:  reports,
	})

	worker := NewWorker(Params{
		DB:        db,
		Log:       zap.NewNop(),
		Reports:   reports,
		Processor: processor,
		Config:    Config{Concurrency: 1},
	})

	return db, worker, node
}

func seedReport(t *testing.T, db *gorm.DB, node *snowflake.Node, payload string) *reportdomain.Report {
	t.Helper()
	now := time.Now().UTC()
	report := &reportdomain.Report{
		ID:         node.Generate(),
		DomainID:   node.Generate(),
		ReportDate: now,
		RawPayload: datatypes.JSON(payload),
		Status:     reportdomain.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, db.Create(report).Error)
	return report
}

const goodPayload = `{
	"summary": {"total_requests": 1500, "success_rate": 85.15, "failed_requests": 223},
	"providers": {"top_providers": [{"name": "AT & T", "technology": "Mobile", "total_count": 39}]}
}`

const badPayload = `{
	"providers": {"top_providers": [{"technology": "Fiber", "total_count": 10}]}
}`

func reloadStatus(t *testing.T, db *gorm.DB, id snowflake.ID) reportdomain.Status {
	t.Helper()
	var report reportdomain.Report
	require.NoError(t, db.Where("id = ?", id).First(&report).Error)
	return report.Status
}

func TestRunOnceProcessesPendingReport(t *testing.T) {
	db, worker, node := setupWorker(t)
	report := seedReport(t, db, node, goodPayload)

	processed, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	assert.Equal(t, reportdomain.StatusProcessed, reloadStatus(t, db, report.ID))

	var summary reportdomain.ReportSummary
	require.NoError(t, db.Where("report_id = ?", report.ID).First(&summary).Error)
	assert.EqualValues(t, 1500, summary.TotalRequests)

	var providerFact reportdomain.ReportProvider
	require.NoError(t, db.Where("report_id = ?", report.ID).First(&providerFact).Error)
	assert.Equal(t, "AT & T", providerFact.OriginalName)
}

func TestRunOnceMarksMalformedReportFailed(t *testing.T) {
	db, worker, node := setupWorker(t)
	report := seedReport(t, db, node, badPayload)

	processed, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	assert.Equal(t, reportdomain.StatusFailed, reloadStatus(t, db, report.ID))

	// A failed report keeps no partial fact rows behind once retried,
	// and must not have produced a summary here.
	var count int64
	require.NoError(t, db.Model(&reportdomain.ReportSummary{}).Where("report_id = ?", report.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRunOnceIsIdleWithoutPendingReports(t *testing.T) {
	db, worker, node := setupWorker(t)
	seedReport(t, db, node, goodPayload)

	processed, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	processed, err = worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, processed)
}

func TestRetryReprocessesFailedReport(t *testing.T) {
	db, worker, node := setupWorker(t)
	report := seedReport(t, db, node, badPayload)

	_, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, reportdomain.StatusFailed, reloadStatus(t, db, report.ID))

	// Upstream resubmits a corrected payload for the same report.
	require.NoError(t, db.Model(&reportdomain.Report{}).
		Where("id = ?", report.ID).
		Update("raw_payload", datatypes.JSON(goodPayload)).Error)

	var fixed reportdomain.Report
	require.NoError(t, db.Where("id = ?", report.ID).First(&fixed).Error)

	require.NoError(t, worker.Retry(context.Background(), fixed))
	assert.Equal(t, reportdomain.StatusProcessed, reloadStatus(t, db, report.ID))

	var summary reportdomain.ReportSummary
	require.NoError(t, db.Where("report_id = ?", report.ID).First(&summary).Error)
	assert.EqualValues(t, 1500, summary.TotalRequests)
}

func TestRetryRejectsTerminalProcessedReport(t *testing.T) {
	db, worker, node := setupWorker(t)
	report := seedReport(t, db, node, goodPayload)

	_, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, reportdomain.StatusProcessed, reloadStatus(t, db, report.ID))

	var processed reportdomain.Report
	require.NoError(t, db.Where("id = ?", report.ID).First(&processed).Error)

	err = worker.Retry(context.Background(), processed)
	assert.ErrorIs(t, err, reportdomain.ErrInvalidStatusTransition)
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultConfig(), cfg)

	custom := Config{BatchSize: 5, Concurrency: 2, PollInterval: time.Second, RunTimeout: time.Minute}
	assert.Equal(t, custom, custom.withDefaults())
}
