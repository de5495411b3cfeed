package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	dimensiondomain "github.com/netwatch/ispmetrics/internal/dimension/domain"
	"github.com/netwatch/ispmetrics/internal/normalize"
	"github.com/netwatch/ispmetrics/internal/observability"
	reportdomain "github.com/netwatch/ispmetrics/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultTechnology = "Unknown"

type ProcessorParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Resolver dimensiondomain.Resolver
	Reports  reportdomain.Repository
	Metrics  *observability.Metrics `optional:"true"`
}

type Processor struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	resolver dimensiondomain.Resolver
	reports  reportdomain.Repository
	metrics  *observability.Metrics
}

func NewProcessor(p ProcessorParam) reportdomain.Processor {
	return &Processor{
		db:       p.DB,
		log:      p.Log.Named("report.processor"),
		genID:    p.GenID,
		resolver: p.Resolver,
		reports:  p.Reports,
		metrics:  p.Metrics,
	}
}

// ProcessRaw decodes the stored payload blob and runs a processing pass.
func (s *Processor) ProcessRaw(ctx context.Context, reportID snowflake.ID, raw []byte) error {
	payload, err := reportdomain.ParsePayload(raw)
	if err != nil {
		return err
	}
	return s.Process(ctx, reportID, payload)
}

// Process runs one ingestion pass. Sections run in order summary →
// providers → geographic; the first fatal storage error aborts the
// remainder. Report.Status is never touched here.
func (s *Processor) Process(ctx context.Context, reportID snowflake.ID, payload reportdomain.Payload) error {
	started := time.Now()

	if err := s.processSummary(ctx, reportID, payload.Summary); err != nil {
		return err
	}
	if err := s.processProviders(ctx, reportID, payload.Providers); err != nil {
		return err
	}
	if err := s.processGeographic(ctx, reportID, payload.Geographic); err != nil {
		return err
	}

	s.metrics.ObserveProcessing(time.Since(started))
	s.log.Debug("report processed",
		zap.String("report_id", reportID.String()),
		zap.Duration("took", time.Since(started)),
	)
	return nil
}

func (s *Processor) processSummary(ctx context.Context, reportID snowflake.ID, section *reportdomain.SummarySection) error {
	if section.IsZero() {
		return nil
	}

	now := time.Now().UTC()
	summary := &reportdomain.ReportSummary{
		ID:                 s.genID.Generate(),
		ReportID:           reportID,
		TotalRequests:      section.TotalRequests,
		SuccessRate:        section.SuccessRate,
		FailedRequests:     section.FailedRequests,
		AvgRequestsPerHour: section.AvgRequestsPerHour,
		UniqueProviders:    section.UniqueProviders,
		UniqueStates:       section.UniqueStates,
		UniqueZipCodes:     section.UniqueZipCodes,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.reports.UpsertSummary(ctx, s.db, summary); err != nil {
		return fmt.Errorf("upsert summary for report %d: %w", reportID, err)
	}
	s.metrics.IncFactRow("report_summaries")
	return nil
}

func (s *Processor) processProviders(ctx context.Context, reportID snowflake.ID, section *reportdomain.ProvidersSection) error {
	if section == nil || len(section.TopProviders) == 0 {
		return nil
	}

	for i, entry := range section.TopProviders {
		if entry.Name == nil {
			return fmt.Errorf("%w: providers.top_providers[%d] missing required field \"name\"",
				reportdomain.ErrMalformedPayload, i)
		}

		originalName := *entry.Name
		canonicalName := normalize.ProviderName(originalName)

		technology := normalize.Technology(entry.Technology)
		if strings.TrimSpace(technology) == "" {
			technology = defaultTechnology
		}
		if technology != defaultTechnology && !normalize.IsValidTechnology(technology) {
			s.log.Debug("unrecognized technology label",
				zap.String("technology", technology),
				zap.String("provider", canonicalName),
			)
		}

		provider, err := s.resolver.FindOrCreateProvider(ctx, s.db, canonicalName, technology)
		if err != nil {
			return fmt.Errorf("resolve provider %q: %w", canonicalName, err)
		}

		fact := &reportdomain.ReportProvider{
			ID:           s.genID.Generate(),
			ReportID:     reportID,
			ProviderID:   provider.ID,
			OriginalName: originalName,
			Technology:   technology,
			TotalCount:   entry.TotalCount,
			SuccessRate:  entry.SuccessRate,
			AvgSpeed:     entry.AvgSpeed,
			RankPosition: i + 1,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.reports.InsertProviderFact(ctx, s.db, fact); err != nil {
			return fmt.Errorf("insert provider fact for report %d: %w", reportID, err)
		}
		s.metrics.IncFactRow("report_providers")
	}

	return nil
}

func (s *Processor) processGeographic(ctx context.Context, reportID snowflake.ID, section *reportdomain.GeographicSection) error {
	if section == nil {
		return nil
	}

	if err := s.processStates(ctx, reportID, section.States); err != nil {
		return err
	}
	if err := s.processCities(ctx, reportID, section.TopCities); err != nil {
		return err
	}
	return s.processZipCodes(ctx, reportID, section.TopZipCodes)
}

func (s *Processor) processStates(ctx context.Context, reportID snowflake.ID, entries []reportdomain.StateEntry) error {
	for i, entry := range entries {
		if entry.Code == nil {
			return fmt.Errorf("%w: geographic.states[%d] missing required field \"code\"",
				reportdomain.ErrMalformedPayload, i)
		}

		state, err := s.resolver.FindOrCreateState(ctx, s.db, *entry.Code, entry.Name)
		if err != nil {
			return fmt.Errorf("resolve state %q: %w", *entry.Code, err)
		}

		fact := &reportdomain.ReportState{
			ID:           s.genID.Generate(),
			ReportID:     reportID,
			StateID:      state.ID,
			RequestCount: entry.RequestCount,
			SuccessRate:  entry.SuccessRate,
			AvgSpeed:     entry.AvgSpeed,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.reports.InsertStateFact(ctx, s.db, fact); err != nil {
			return fmt.Errorf("insert state fact for report %d: %w", reportID, err)
		}
		s.metrics.IncFactRow("report_states")
	}
	return nil
}

func (s *Processor) processCities(ctx context.Context, reportID snowflake.ID, entries []reportdomain.CityEntry) error {
	for i, entry := range entries {
		if entry.Name == nil {
			return fmt.Errorf("%w: geographic.top_cities[%d] missing required field \"name\"",
				reportdomain.ErrMalformedPayload, i)
		}

		city, err := s.resolver.FindOrCreateCity(ctx, s.db, *entry.Name)
		if err != nil {
			return fmt.Errorf("resolve city %q: %w", *entry.Name, err)
		}

		zipList := entry.ZipCodes
		if zipList == nil {
			zipList = []string{}
		}
		rawZips, err := json.Marshal(zipList)
		if err != nil {
			return fmt.Errorf("encode zip list for city %q: %w", *entry.Name, err)
		}

		fact := &reportdomain.ReportCity{
			ID:           s.genID.Generate(),
			ReportID:     reportID,
			CityID:       city.ID,
			RequestCount: entry.RequestCount,
			ZipCodes:     rawZips,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.reports.InsertCityFact(ctx, s.db, fact); err != nil {
			return fmt.Errorf("insert city fact for report %d: %w", reportID, err)
		}
		s.metrics.IncFactRow("report_cities")
	}
	return nil
}

func (s *Processor) processZipCodes(ctx context.Context, reportID snowflake.ID, entries []reportdomain.ZipEntry) error {
	for i, entry := range entries {
		if entry.ZipCode == nil {
			return fmt.Errorf("%w: geographic.top_zip_codes[%d] missing required field \"zip_code\"",
				reportdomain.ErrMalformedPayload, i)
		}

		code := normalize.Zip(*entry.ZipCode)

		zip, err := s.resolver.FindOrCreateZipCode(ctx, s.db, code)
		if err != nil {
			return fmt.Errorf("resolve zip code %q: %w", code, err)
		}

		fact := &reportdomain.ReportZipCode{
			ID:           s.genID.Generate(),
			ReportID:     reportID,
			ZipCodeID:    zip.ID,
			RequestCount: entry.RequestCount,
			Percentage:   entry.Percentage,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.reports.InsertZipCodeFact(ctx, s.db, fact); err != nil {
			return fmt.Errorf("insert zip code fact for report %d: %w", reportID, err)
		}
		s.metrics.IncFactRow("report_zip_codes")
	}
	return nil
}
