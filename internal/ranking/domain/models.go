package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type SortBy string

const (
	SortByScore   SortBy = "score"
	SortByVolume  SortBy = "volume"
	SortBySuccess SortBy = "success"
)

// RankRequest filters and orders the domain ranking.
type RankRequest struct {
	SortBy     SortBy     `json:"sort_by"`
	From       *time.Time `json:"from,omitempty"`
	To         *time.Time `json:"to,omitempty"`
	MinReports int        `json:"min_reports,omitempty"`
}

// DomainAggregate is one domain's metrics rolled up across its processed
// reports. SuccessRate is the simple (unweighted) average of per-report
// success rates; unique provider/state counts are the max across
// summaries, since each summary snapshots the same population.
type DomainAggregate struct {
	DomainID        snowflake.ID `json:"domain_id"`
	DomainName      string       `json:"domain_name"`
	ReportCount     int          `json:"report_count"`
	TotalRequests   int64        `json:"total_requests"`
	SuccessRate     float64      `json:"success_rate"`
	UniqueProviders int          `json:"unique_providers"`
	UniqueStates    int          `json:"unique_states"`
	FirstReportDate time.Time    `json:"first_report_date"`
	LastReportDate  time.Time    `json:"last_report_date"`
	DaysCovered     int          `json:"days_covered"`
	Score           float64      `json:"score"`
}

// DomainRanking is one row of the ranked dashboard listing.
type DomainRanking struct {
	Rank int `json:"rank"`
	DomainAggregate
}

// ComparisonDelta holds percentage differences against the base domain.
type ComparisonDelta struct {
	RequestsDiff    float64 `json:"requests_diff"`
	SuccessRateDiff float64 `json:"success_rate_diff"`
	ReportsDiff     float64 `json:"reports_diff"`
	ProvidersDiff   float64 `json:"providers_diff"`
	ScoreDiff       float64 `json:"score_diff"`
}

// DomainComparison is one domain's entry in a comparison result. The
// first (base) domain carries a nil VsBaseDomain.
type DomainComparison struct {
	DomainAggregate
	VsBaseDomain *ComparisonDelta `json:"vs_base_domain,omitempty"`
}
