package worker

import (
	"context"
	"time"

	"github.com/netwatch/ispmetrics/internal/observability"
	reportdomain "github.com/netwatch/ispmetrics/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Reports   reportdomain.Repository
	Processor reportdomain.Processor
	Metrics   *observability.Metrics `optional:"true"`
	Config    Config                 `optional:"true"`
}

// Worker drives the report status machine: it claims pending reports,
// runs the processor, and records the processed/failed outcome. Retries
// are safe because each pass clears the report's prior fact rows first.
type Worker struct {
	db        *gorm.DB
	log       *zap.Logger
	reports   reportdomain.Repository
	processor reportdomain.Processor
	metrics   *observability.Metrics
	cfg       Config
}

func NewWorker(p Params) *Worker {
	return &Worker{
		db:        p.DB,
		log:       p.Log.Named("report.worker"),
		reports:   p.Reports,
		processor: p.Processor,
		metrics:   p.Metrics,
		cfg:       p.Config.withDefaults(),
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := w.RunOnce(ctx); err != nil {
			w.log.Warn("report worker run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce claims and processes one batch, returning how many reports
// reached a terminal status this pass.
func (w *Worker) RunOnce(parentCtx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(parentCtx, w.cfg.RunTimeout)
	defer cancel()

	claimed, err := w.reports.ClaimPending(ctx, w.db, w.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(claimed) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.Concurrency)

	for _, report := range claimed {
		report := report
		g.Go(func() error {
			w.processOne(gctx, report)
			return nil
		})
	}
	_ = g.Wait()

	return len(claimed), nil
}

func (w *Worker) processOne(ctx context.Context, report reportdomain.Report) {
	// Delete-then-reinsert keeps the fact set replaceable under
	// at-least-once delivery; the first pass clears nothing.
	err := w.reports.ClearFacts(ctx, w.db, report.ID)
	if err == nil {
		err = w.processor.ProcessRaw(ctx, report.ID, report.RawPayload)
	}

	if err != nil {
		w.log.Warn("report processing failed",
			zap.Error(err),
			zap.String("report_id", report.ID.String()),
		)
		w.metrics.IncReportProcessed(string(reportdomain.StatusFailed))
		if statusErr := w.reports.UpdateStatus(ctx, w.db, report.ID, reportdomain.StatusFailed); statusErr != nil {
			w.log.Error("failed to mark report failed",
				zap.Error(statusErr),
				zap.String("report_id", report.ID.String()),
			)
		}
		return
	}

	w.metrics.IncReportProcessed(string(reportdomain.StatusProcessed))
	if statusErr := w.reports.UpdateStatus(ctx, w.db, report.ID, reportdomain.StatusProcessed); statusErr != nil {
		w.log.Error("failed to mark report processed",
			zap.Error(statusErr),
			zap.String("report_id", report.ID.String()),
		)
	}
}

// Retry re-enters a failed report into the state machine and processes
// it immediately.
func (w *Worker) Retry(ctx context.Context, report reportdomain.Report) error {
	if err := w.reports.UpdateStatus(ctx, w.db, report.ID, reportdomain.StatusProcessing); err != nil {
		return err
	}
	w.processOne(ctx, report)
	return nil
}
