package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/netwatch/ispmetrics/internal/config"
	monitordomain "github.com/netwatch/ispmetrics/internal/monitordomain/domain"
	"github.com/netwatch/ispmetrics/internal/observability"
	rankingdomain "github.com/netwatch/ispmetrics/internal/ranking/domain"
	reportdomain "github.com/netwatch/ispmetrics/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Domains monitordomain.Repository
	Config  *config.RankingConfigHolder
	Metrics *observability.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	domains monitordomain.Repository
	cfg     *config.RankingConfigHolder
	metrics *observability.Metrics
}

func NewService(p ServiceParam) rankingdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("ranking.service"),
		domains: p.Domains,
		cfg:     p.Config,
		metrics: p.Metrics,
	}
}

// summaryRow is one processed report's summary joined to its domain.
type summaryRow struct {
	DomainID        snowflake.ID `gorm:"column:domain_id"`
	DomainName      string       `gorm:"column:domain_name"`
	ReportDate      time.Time    `gorm:"column:report_date"`
	TotalRequests   int64        `gorm:"column:total_requests"`
	SuccessRate     float64      `gorm:"column:success_rate"`
	UniqueProviders int          `gorm:"column:unique_providers"`
	UniqueStates    int          `gorm:"column:unique_states"`
}

func (s *Service) RankDomains(ctx context.Context, req rankingdomain.RankRequest) ([]rankingdomain.DomainRanking, error) {
	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = rankingdomain.SortByScore
	}
	switch sortBy {
	case rankingdomain.SortByScore, rankingdomain.SortByVolume, rankingdomain.SortBySuccess:
	default:
		return nil, fmt.Errorf("%w: %q", rankingdomain.ErrInvalidSortKey, req.SortBy)
	}

	s.metrics.IncRankingQuery("rank")

	rows, err := s.loadSummaryRows(ctx, nil, req.From, req.To)
	if err != nil {
		return nil, err
	}

	aggregates := s.aggregate(rows)
	if req.MinReports > 0 {
		filtered := aggregates[:0]
		for _, agg := range aggregates {
			if agg.ReportCount >= req.MinReports {
				filtered = append(filtered, agg)
			}
		}
		aggregates = filtered
	}

	sort.Slice(aggregates, func(i, j int) bool {
		a, b := aggregates[i], aggregates[j]
		var av, bv float64
		switch sortBy {
		case rankingdomain.SortByVolume:
			av, bv = float64(a.TotalRequests), float64(b.TotalRequests)
		case rankingdomain.SortBySuccess:
			av, bv = a.SuccessRate, b.SuccessRate
		default:
			av, bv = a.Score, b.Score
		}
		if av != bv {
			return av > bv
		}
		return a.DomainID < b.DomainID
	})

	rankings := make([]rankingdomain.DomainRanking, 0, len(aggregates))
	for i, agg := range aggregates {
		rankings = append(rankings, rankingdomain.DomainRanking{
			Rank:            i + 1,
			DomainAggregate: agg,
		})
	}
	return rankings, nil
}

func (s *Service) CompareDomains(ctx context.Context, domainIDs []snowflake.ID) ([]rankingdomain.DomainComparison, error) {
	s.metrics.IncRankingQuery("compare")

	results := make([]rankingdomain.DomainComparison, 0, len(domainIDs))
	var base *rankingdomain.DomainAggregate

	for _, id := range domainIDs {
		domain, err := s.domains.FindByID(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		if domain == nil || !domain.Active {
			continue
		}

		rows, err := s.loadSummaryRows(ctx, []snowflake.ID{id}, nil, nil)
		if err != nil {
			return nil, err
		}
		aggregates := s.aggregate(rows)
		if len(aggregates) == 0 {
			continue
		}
		agg := aggregates[0]

		entry := rankingdomain.DomainComparison{DomainAggregate: agg}
		if base == nil {
			base = &agg
		} else {
			entry.VsBaseDomain = &rankingdomain.ComparisonDelta{
				RequestsDiff:    percentDiff(float64(agg.TotalRequests), float64(base.TotalRequests)),
				SuccessRateDiff: percentDiff(agg.SuccessRate, base.SuccessRate),
				ReportsDiff:     percentDiff(float64(agg.ReportCount), float64(base.ReportCount)),
				ProvidersDiff:   percentDiff(float64(agg.UniqueProviders), float64(base.UniqueProviders)),
				ScoreDiff:       percentDiff(agg.Score, base.Score),
			}
		}
		results = append(results, entry)
	}

	return results, nil
}

func (s *Service) loadSummaryRows(ctx context.Context, domainIDs []snowflake.ID, from, to *time.Time) ([]summaryRow, error) {
	query := `SELECT r.domain_id, d.name AS domain_name, r.report_date,
		 s.total_requests, s.success_rate, s.unique_providers, s.unique_states
		 FROM reports r
		 JOIN domains d ON d.id = r.domain_id
		 JOIN report_summaries s ON s.report_id = r.id
		 WHERE r.status = ? AND d.active = ?`
	args := []any{reportdomain.StatusProcessed, true}

	if len(domainIDs) > 0 {
		query += ` AND r.domain_id IN ?`
		args = append(args, domainIDs)
	}
	if from != nil {
		query += ` AND r.report_date >= ?`
		args = append(args, *from)
	}
	if to != nil {
		query += ` AND r.report_date <= ?`
		args = append(args, *to)
	}
	query += ` ORDER BY r.domain_id ASC, r.report_date ASC`

	var rows []summaryRow
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) aggregate(rows []summaryRow) []rankingdomain.DomainAggregate {
	cfg := s.cfg.Get()

	byDomain := make(map[snowflake.ID]*rankingdomain.DomainAggregate)
	order := make([]snowflake.ID, 0)
	successSums := make(map[snowflake.ID]float64)

	for _, row := range rows {
		agg, ok := byDomain[row.DomainID]
		if !ok {
			agg = &rankingdomain.DomainAggregate{
				DomainID:        row.DomainID,
				DomainName:      row.DomainName,
				FirstReportDate: row.ReportDate,
				LastReportDate:  row.ReportDate,
			}
			byDomain[row.DomainID] = agg
			order = append(order, row.DomainID)
		}

		agg.ReportCount++
		agg.TotalRequests += row.TotalRequests
		successSums[row.DomainID] += row.SuccessRate
		if row.UniqueProviders > agg.UniqueProviders {
			agg.UniqueProviders = row.UniqueProviders
		}
		if row.UniqueStates > agg.UniqueStates {
			agg.UniqueStates = row.UniqueStates
		}
		if row.ReportDate.Before(agg.FirstReportDate) {
			agg.FirstReportDate = row.ReportDate
		}
		if row.ReportDate.After(agg.LastReportDate) {
			agg.LastReportDate = row.ReportDate
		}
	}

	aggregates := make([]rankingdomain.DomainAggregate, 0, len(order))
	for _, id := range order {
		agg := byDomain[id]
		agg.SuccessRate = round2(successSums[id] / float64(agg.ReportCount))
		agg.DaysCovered = int(agg.LastReportDate.Sub(agg.FirstReportDate).Hours()/24) + 1
		agg.Score = score(cfg, *agg)
		aggregates = append(aggregates, *agg)
	}
	return aggregates
}

// score is a pure function of the aggregated metrics, monotone
// non-decreasing in success rate and in total requests.
func score(cfg config.RankingConfig, agg rankingdomain.DomainAggregate) float64 {
	volume := float64(agg.TotalRequests)
	volumeScore := 100 * volume / (volume + float64(cfg.VolumeHalfPoint))

	coverage := float64(2*agg.UniqueProviders + agg.UniqueStates)
	if coverage > 100 {
		coverage = 100
	}

	value := cfg.SuccessWeight*agg.SuccessRate +
		cfg.VolumeWeight*volumeScore +
		cfg.CoverageWeight*coverage
	return round2(value)
}

// percentDiff reports the percentage difference of value against base.
// Bounded when base is zero: 0 if both are zero, 100 otherwise.
func percentDiff(value, base float64) float64 {
	if base == 0 {
		if value == 0 {
			return 0
		}
		return 100
	}
	return round2((value - base) / base * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
