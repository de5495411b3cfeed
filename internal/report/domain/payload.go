package domain

import (
	"encoding/json"
	"fmt"
)

// Payload is the typed shape of a raw agent report. Every section is
// optional; a nil section means "nothing to do" for that section, and
// missing numeric fields default to zero.
type Payload struct {
	Summary    *SummarySection    `json:"summary,omitempty"`
	Providers  *ProvidersSection  `json:"providers,omitempty"`
	Geographic *GeographicSection `json:"geographic,omitempty"`
}

type SummarySection struct {
	TotalRequests      int64   `json:"total_requests"`
	SuccessRate        float64 `json:"success_rate"`
	FailedRequests     int64   `json:"failed_requests"`
	AvgRequestsPerHour float64 `json:"avg_requests_per_hour"`
	UniqueProviders    int     `json:"unique_providers"`
	UniqueStates       int     `json:"unique_states"`
	UniqueZipCodes     int     `json:"unique_zip_codes"`
}

// IsZero reports whether the section carries no data at all. An empty
// summary object is skipped the same way an absent one is.
func (s *SummarySection) IsZero() bool {
	return s == nil || *s == SummarySection{}
}

type ProvidersSection struct {
	TopProviders []ProviderEntry `json:"top_providers"`
}

// ProviderEntry's Name is a pointer so a missing natural key is
// distinguishable from an empty string and can fail the pass loudly.
type ProviderEntry struct {
	Name        *string `json:"name"`
	Technology  string  `json:"technology"`
	TotalCount  int64   `json:"total_count"`
	SuccessRate float64 `json:"success_rate"`
	AvgSpeed    float64 `json:"avg_speed"`
}

type GeographicSection struct {
	States      []StateEntry `json:"states"`
	TopCities   []CityEntry  `json:"top_cities"`
	TopZipCodes []ZipEntry   `json:"top_zip_codes"`
}

type StateEntry struct {
	Code         *string `json:"code"`
	Name         string  `json:"name"`
	RequestCount int64   `json:"request_count"`
	SuccessRate  float64 `json:"success_rate"`
	AvgSpeed     float64 `json:"avg_speed"`
}

type CityEntry struct {
	Name         *string  `json:"name"`
	RequestCount int64    `json:"request_count"`
	ZipCodes     []string `json:"zip_codes"`
}

type ZipEntry struct {
	ZipCode      *string `json:"zip_code"`
	RequestCount int64   `json:"request_count"`
	Percentage   float64 `json:"percentage"`
}

// ParsePayload decodes a raw report blob into the typed schema.
func ParsePayload(raw []byte) (Payload, error) {
	var payload Payload
	if len(raw) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return payload, nil
}
