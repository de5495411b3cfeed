package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Processor ingests one raw report payload: normalizes names, resolves
// dimension entities, and persists per-report fact rows. It never
// touches Report.Status; the wrapping job owns the state machine.
type Processor interface {
	Process(ctx context.Context, reportID snowflake.ID, payload Payload) error
	ProcessRaw(ctx context.Context, reportID snowflake.ID, raw []byte) error
}

var (
	ErrReportNotFound          = errors.New("report_not_found")
	ErrInvalidStatusTransition = errors.New("invalid_status_transition")
	ErrMalformedPayload        = errors.New("malformed_payload")
)
