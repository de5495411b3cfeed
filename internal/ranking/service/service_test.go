package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/netwatch/ispmetrics/internal/config"
	monitordomain "github.com/netwatch/ispmetrics/internal/monitordomain/domain"
	monitorrepo "github.com/netwatch/ispmetrics/internal/monitordomain/repository"
	rankingdomain "github.com/netwatch/ispmetrics/internal/ranking/domain"
	reportdomain "github.com/netwatch/ispmetrics/internal/report/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	node    *snowflake.Node
	domains monitordomain.Repository
	service rankingdomain.Service
}

func setupService(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&monitordomain.Domain{},
		&reportdomain.Report{},
		&reportdomain.ReportSummary{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	domains := monitorrepo.Provide()
	service := NewService(ServiceParam{
		DB:      db,
		Log:     zap.NewNop(),
		Domains: domains,
		Config:  config.NewStaticRankingConfigHolder(config.DefaultRankingConfig()),
	})

	return &fixture{db: db, node: node, domains: domains, service: service}
}

func (f *fixture) seedDomain(t *testing.T, name string, active bool) snowflake.ID {
	t.Helper()
	now := time.Now().UTC()
	domain := &monitordomain.Domain{
		ID:        f.node.Generate(),
		Name:      name,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.domains.Insert(context.Background(), f.db, domain))
	return domain.ID
}

func (f *fixture) seedReport(t *testing.T, domainID snowflake.ID, status reportdomain.Status, reportDate time.Time, summary reportdomain.ReportSummary) {
	t.Helper()
	now := time.Now().UTC()
	report := &reportdomain.Report{
		ID:         f.node.Generate(),
		DomainID:   domainID,
		ReportDate: reportDate,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, f.db.Create(report).Error)

	summary.ID = f.node.Generate()
	summary.ReportID = report.ID
	summary.CreatedAt = now
	summary.UpdatedAt = now
	require.NoError(t, f.db.Create(&summary).Error)
}

func day(offset int) time.Time {
	return time.Date(2026, time.March, 1+offset, 0, 0, 0, 0, time.UTC)
}

func TestRankDomainsByVolume(t *testing.T) {
	f := setupService(t)

	alpha := f.seedDomain(t, "alpha.example.com", true)
	beta := f.seedDomain(t, "beta.example.com", true)

	f.seedReport(t, alpha, reportdomain.StatusProcessed, day(0), reportdomain.ReportSummary{TotalRequests: 500, SuccessRate: 99})
	f.seedReport(t, beta, reportdomain.StatusProcessed, day(0), reportdomain.ReportSummary{TotalRequests: 1500, SuccessRate: 80})

	rankings, err := f.service.RankDomains(context.Background(), rankingdomain.RankRequest{SortBy: rankingdomain.SortByVolume})
	require.NoError(t, err)
	require.Len(t, rankings, 2)

	assert.Equal(t, 1, rankings[0].Rank)
	assert.Equal(t, beta, rankings[0].DomainID)
	assert.EqualValues(t, 1500, rankings[0].TotalRequests)

	assert.Equal(t, 2, rankings[1].Rank)
	assert.Equal(t, alpha, rankings[1].DomainID)
}

func TestRankDomainsAggregatesAcrossReports(t *testing.T) {
	f := setupService(t)

	alpha := f.seedDomain(t, "alpha.example.com", true)
	f.seedReport(t, alpha, reportdomain.StatusProcessed, day(0), reportdomain.ReportSummary{
		TotalRequests: 1000, SuccessRate: 80, UniqueProviders: 3, UniqueStates: 5,
	})
	f.seedReport(t, alpha, reportdomain.StatusProcessed, day(2), reportdomain.ReportSummary{
		TotalRequests: 2000, SuccessRate: 90, UniqueProviders: 4, UniqueStates: 4,
	})

	rankings, err := f.service.RankDomains(context.Background(), rankingdomain.RankRequest{})
	require.NoError(t, err)
	require.Len(t, rankings, 1)

	agg := rankings[0].DomainAggregate
	assert.Equal(t, 2, agg.ReportCount)
	assert.EqualValues(t, 3000, agg.TotalRequests)
	assert.InDelta(t, 85, agg.SuccessRate, 1e-9)
	assert.Equal(t, 4, agg.UniqueProviders)
	assert.Equal(t, 5, agg.UniqueStates)
	assert.Equal(t, 3, agg.DaysCovered)
	assert.Equal(t, "alpha.example.com", agg.DomainName)
	assert.Greater(t, agg.Score, 0.0)
}

func TestRankDomainsExcludesInactiveAndUnprocessed(t *testing.T) {
	f := setupService(t)

	active := f.seedDomain(t, "active.example.com", true)
	inactive := f.seedDomain(t, "inactive.example.com", false)

	f.seedReport(t, active, reportdomain.StatusProcessed, day(0), reportdomain.ReportSummary{TotalRequests: 100, SuccessRate: 95})
	f.seedReport(t, active, reportdomain.StatusPending, day(1), reportdomain.ReportSummary{TotalRequests: 900, SuccessRate: 95})
	f.seedReport(t, inactive, reportdomain.StatusProcessed, day(0), reportdomain.ReportSummary{TotalRequests: 5000, SuccessRate: 99})

	rankings, err := f.service.RankDomains(context.Background(), rankingdomain.RankRequest{})
	require.NoError(t, err)
	require.Len(t, rankings, 1)
	assert.Equal(t, active, rankings[0].DomainID)
	assert.EqualValues(t, 100, rankings[0].TotalRequests)
}

func TestRankDomainsMinReportsFilter(t *testing.T) {
	f := setupService(t)

	steady := f.seedDomain(t, "steady.example.com", true)
	sparse := f.seedDomain(t, "sparse.example.com", true)

	for i := 0; i < 3; i++ {
		f.seedReport(t, steady, reportdomain.StatusProcessed, day(i), reportdomain.ReportSummary{TotalRequests: 100, SuccessRate: 90})
	}
	f.seedReport(t, sparse, reportdomain.StatusProcessed, day(0), reportdomain.ReportSummary{TotalRequests: 9000, SuccessRate: 90})

	rankings, err := f.service.RankDomains(context.Background(), rankingdomain.RankRequest{MinReports: 2})
	require.NoError(t, err)
	require.Len(t, rankings, 1)
	assert.Equal(t, steady, rankings[0].DomainID)
}

func TestRankDomainsDateWindow(t *testing.T) {
	f := setupService(t)

	alpha := f.seedDomain(t, "alpha.example.com", true)
	f.seedReport(t, alpha, reportdomain.StatusProcessed, day(0), reportdomain.ReportSummary{TotalRequests: 100, SuccessRate: 90})
	f.seedReport(t, alpha, reportdomain.StatusProcessed, day(5), reportdomain.ReportSummary{TotalRequests: 200, SuccessRate: 90})

	from := day(3)
	rankings, err := f.service.RankDomains(context.Background(), rankingdomain.RankRequest{From: &from})
	require.NoError(t, err)
	require.Len(t, rankings, 1)
	assert.Equal(t, 1, rankings[0].ReportCount)
	assert.EqualValues(t, 200, rankings[0].TotalRequests)
}

func TestRankDomainsRejectsUnknownSortKey(t *testing.T) {
	f := setupService(t)

	_, err := f.service.RankDomains(context.Background(), rankingdomain.RankRequest{SortBy: "popularity"})
	require.Error(t, err)
	assert.ErrorIs(t, err, rankingdomain.ErrInvalidSortKey)
}

func TestCompareDomainsDeltas(t *testing.T) {
	f := setupService(t)

	base := f.seedDomain(t, "base.example.com", true)
	other := f.seedDomain(t, "other.example.com", true)

	f.seedReport(t, base, reportdomain.StatusProcessed, day(0), reportdomain.ReportSummary{TotalRequests: 500, SuccessRate: 80, UniqueProviders: 2})
	f.seedReport(t, other, reportdomain.StatusProcessed, day(0), reportdomain.ReportSummary{TotalRequests: 1500, SuccessRate: 88, UniqueProviders: 4})

	results, err := f.service.CompareDomains(context.Background(), []snowflake.ID{base, other})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, base, results[0].DomainID)
	assert.Nil(t, results[0].VsBaseDomain)

	require.NotNil(t, results[1].VsBaseDomain)
	delta := results[1].VsBaseDomain
	assert.InDelta(t, 200.0, delta.RequestsDiff, 1e-9)
	assert.InDelta(t, 10.0, delta.SuccessRateDiff, 1e-9)
	assert.InDelta(t, 0.0, delta.ReportsDiff, 1e-9)
	assert.InDelta(t, 100.0, delta.ProvidersDiff, 1e-9)
}

func TestCompareDomainsSkipsMissingInactiveAndEmpty(t *testing.T) {
	f := setupService(t)

	base := f.seedDomain(t, "base.example.com", true)
	inactive := f.seedDomain(t, "inactive.example.com", false)
	empty := f.seedDomain(t, "empty.example.com", true)

	f.seedReport(t, base, reportdomain.StatusProcessed, day(0), reportdomain.ReportSummary{TotalRequests: 500, SuccessRate: 80})
	f.seedReport(t, inactive, reportdomain.StatusProcessed, day(0), reportdomain.ReportSummary{TotalRequests: 700, SuccessRate: 95})

	results, err := f.service.CompareDomains(context.Background(), []snowflake.ID{
		f.node.Generate(), // unknown id
		inactive,
		empty,
		base,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, base, results[0].DomainID)
	assert.Nil(t, results[0].VsBaseDomain)
}

func TestScoreMonotoneInSuccessAndVolume(t *testing.T) {
	cfg := config.DefaultRankingConfig()

	low := rankingdomain.DomainAggregate{TotalRequests: 1000, SuccessRate: 80, UniqueProviders: 3, UniqueStates: 5}
	higherSuccess := low
	higherSuccess.SuccessRate = 95
	higherVolume := low
	higherVolume.TotalRequests = 50000

	assert.Greater(t, score(cfg, higherSuccess), score(cfg, low))
	assert.Greater(t, score(cfg, higherVolume), score(cfg, low))
}

func TestPercentDiffZeroBase(t *testing.T) {
	assert.Equal(t, 0.0, percentDiff(0, 0))
	assert.Equal(t, 100.0, percentDiff(5, 0))
	assert.InDelta(t, -50.0, percentDiff(5, 10), 1e-9)
}
