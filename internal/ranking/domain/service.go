package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Service answers ranking and comparison queries over accumulated
// report facts. Read-only; safe to call while reports are being
// processed (in-flight reports may or may not be reflected).
type Service interface {
	RankDomains(ctx context.Context, req RankRequest) ([]DomainRanking, error)

	// CompareDomains aggregates the listed domains in order; the first
	// resolvable, active domain with reports becomes the base. Unknown,
	// inactive, or report-less domains are silently skipped.
	CompareDomains(ctx context.Context, domainIDs []snowflake.ID) ([]DomainComparison, error)
}

var ErrInvalidSortKey = errors.New("invalid_sort_key")
