package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusFailed     Status = "failed"
)

// Report is one ingestion unit submitted by a monitored domain. The raw
// payload is preserved verbatim; every derived fact row must be
// re-derivable from it.
type Report struct {
	ID                    snowflake.ID   `json:"id" gorm:"primaryKey"`
	DomainID              snowflake.ID   `json:"domain_id" gorm:"not null;index:ix_reports_domain_id"`
	ReportDate            time.Time      `json:"report_date" gorm:"not null"`
	PeriodStart           time.Time      `json:"period_start"`
	PeriodEnd             time.Time      `json:"period_end"`
	GeneratedAt           time.Time      `json:"generated_at"`
	TotalProcessingTimeMs int64          `json:"total_processing_time_ms"`
	DataVersion           string         `json:"data_version" gorm:"type:text"`
	RawPayload            datatypes.JSON `json:"raw_payload"`
	Status                Status         `json:"status" gorm:"type:text;not null;index:ix_reports_status"`
	CreatedAt             time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt             time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Report) TableName() string { return "reports" }

// ReportSummary is the one-to-one totals row for a report. Unique per
// report id; writes are upserts, never duplicating inserts.
type ReportSummary struct {
	ID                 snowflake.ID `json:"id" gorm:"primaryKey"`
	ReportID           snowflake.ID `json:"report_id" gorm:"not null;uniqueIndex:ux_report_summaries_report_id"`
	TotalRequests      int64        `json:"total_requests" gorm:"not null;default:0"`
	SuccessRate        float64      `json:"success_rate" gorm:"not null;default:0"`
	FailedRequests     int64        `json:"failed_requests" gorm:"not null;default:0"`
	AvgRequestsPerHour float64      `json:"avg_requests_per_hour" gorm:"not null;default:0"`
	UniqueProviders    int          `json:"unique_providers" gorm:"not null;default:0"`
	UniqueStates       int          `json:"unique_states" gorm:"not null;default:0"`
	UniqueZipCodes     int          `json:"unique_zip_codes" gorm:"not null;default:0"`
	CreatedAt          time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ReportSummary) TableName() string { return "report_summaries" }

// ReportProvider records one top-provider entry. OriginalName preserves
// the un-normalized upstream spelling next to the resolved provider id.
// RankPosition is the 1-based input order, never re-sorted.
type ReportProvider struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	ReportID     snowflake.ID `json:"report_id" gorm:"not null;index:ix_report_providers_report_id"`
	ProviderID   snowflake.ID `json:"provider_id" gorm:"not null"`
	OriginalName string       `json:"original_name" gorm:"type:text;not null"`
	Technology   string       `json:"technology" gorm:"type:text;not null"`
	TotalCount   int64        `json:"total_count" gorm:"not null;default:0"`
	SuccessRate  float64      `json:"success_rate" gorm:"not null;default:0"`
	AvgSpeed     float64      `json:"avg_speed" gorm:"not null;default:0"`
	RankPosition int          `json:"rank_position" gorm:"not null"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ReportProvider) TableName() string { return "report_providers" }

type ReportState struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	ReportID     snowflake.ID `json:"report_id" gorm:"not null;index:ix_report_states_report_id"`
	StateID      snowflake.ID `json:"state_id" gorm:"not null"`
	RequestCount int64        `json:"request_count" gorm:"not null;default:0"`
	SuccessRate  float64      `json:"success_rate" gorm:"not null;default:0"`
	AvgSpeed     float64      `json:"avg_speed" gorm:"not null;default:0"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ReportState) TableName() string { return "report_states" }

type ReportCity struct {
	ID           snowflake.ID   `json:"id" gorm:"primaryKey"`
	ReportID     snowflake.ID   `json:"report_id" gorm:"not null;index:ix_report_cities_report_id"`
	CityID       snowflake.ID   `json:"city_id" gorm:"not null"`
	RequestCount int64          `json:"request_count" gorm:"not null;default:0"`
	ZipCodes     datatypes.JSON `json:"zip_codes"`
	CreatedAt    time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ReportCity) TableName() string { return "report_cities" }

type ReportZipCode struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	ReportID     snowflake.ID `json:"report_id" gorm:"not null;index:ix_report_zip_codes_report_id"`
	ZipCodeID    snowflake.ID `json:"zip_code_id" gorm:"not null"`
	RequestCount int64        `json:"request_count" gorm:"not null;default:0"`
	Percentage   float64      `json:"percentage" gorm:"not null;default:0"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ReportZipCode) TableName() string { return "report_zip_codes" }
