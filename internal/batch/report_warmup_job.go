package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"loan-forecast/internal/domain/amortization"
	"loan-forecast/internal/domain/forecast"
	"loan-forecast/internal/domain/report"
	"loan-forecast/internal/infrastructure/monitoring"
	"loan-forecast/internal/pkg/apperrors"
)

// ForecastSource is the part of forecast.ForecastService the warmup needs.
type ForecastSource interface {
	ListRecentForecastIDs(ctx context.Context, since time.Time, limit int) ([]int64, error)
	GetSchedule(ctx context.Context, forecastID int64) ([]amortization.InstallmentRow, error)
}

type Reporter interface {
	Report(ctx context.Context, rows []amortization.InstallmentRow) (*report.Result, error)
}

var _ ForecastSource = (forecast.ForecastService)(nil)

var _ Reporter = (*report.Service)(nil)

// ReportWarmupJob generates reports for recently created forecasts so that
// later report requests are served from cache.
type ReportWarmupJob struct {
	forecasts   ForecastSource
	reports     Reporter
	lookback    time.Duration
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

func NewReportWarmupJob(
	forecasts ForecastSource,
	reports Reporter,
	lookback time.Duration,
	concurrency int,
	logger *slog.Logger,
) *ReportWarmupJob {
	if forecasts == nil || reports == nil || logger == nil {
		panic("ReportWarmupJob dependencies cannot be nil")
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &ReportWarmupJob{
		forecasts:   forecasts,
		reports:     reports,
		lookback:    lookback,
		concurrency: concurrency,
		logger:      logger.With("job", "ReportWarmup"),
		now:         time.Now,
	}
}

func (j *ReportWarmupJob) Run(ctx context.Context) (err error) {
	startTime := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "failure"
		}
		monitoring.RecordWarmupRun(status)
	}()

	since := j.now().Add(-j.lookback)
	j.logger.InfoContext(ctx, "Starting report warmup job.", slog.Time("since", since))

	ids, err := j.forecasts.ListRecentForecastIDs(ctx, since, forecast.DefaultListLimit)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list recent forecasts, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to list forecasts: %w", err)
	}
	j.logger.InfoContext(ctx, "Fetched recent forecast IDs.", slog.Int("count", len(ids)))

	if len(ids) == 0 {
		j.logger.InfoContext(ctx, "Report warmup job finished.", slog.Duration("duration", time.Since(startTime)))
		return nil
	}

	var wg sync.WaitGroup
	var generated, cached, skipped, errorCount atomic.Int32
	sem := make(chan struct{}, j.concurrency)

	for _, id := range ids {
		if ctx.Err() == nil {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			wg.Wait()
			return fmt.Errorf("report warmup interrupted: %w", ctx.Err())
		}

		wg.Add(1)
		go func(forecastID int64) {
			defer wg.Done()
			defer func() { <-sem }()

			logCtx := j.logger.With(slog.Int64("forecastID", forecastID))

			rows, err := j.forecasts.GetSchedule(ctx, forecastID)
			if err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					logCtx.WarnContext(ctx, "Forecast disappeared before warmup", slog.Any("error", err))
					skipped.Add(1)
				} else {
					logCtx.ErrorContext(ctx, "Failed to load schedule", slog.Any("error", err))
					errorCount.Add(1)
				}
				return
			}

			res, err := j.reports.Report(ctx, rows)
			if err != nil {
				logCtx.ErrorContext(ctx, "Failed to generate report", slog.Any("error", err))
				errorCount.Add(1)
				return
			}
			if res.Cached {
				cached.Add(1)
				return
			}
			logCtx.DebugContext(ctx, "Report generated", slog.String("fingerprint", res.Fingerprint))
			generated.Add(1)
		}(id)
	}

	wg.Wait()
	summaryLog := j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("total_forecasts", len(ids)),
		slog.Int("reports_generated", int(generated.Load())),
		slog.Int("reports_already_cached", int(cached.Load())),
		slog.Int("forecasts_skipped", int(skipped.Load())),
		slog.Int("errors_encountered", int(errorCount.Load())),
	)
	if n := errorCount.Load(); n > 0 {
		summaryLog.WarnContext(ctx, "Report warmup job finished with errors.")
		return fmt.Errorf("job completed with %d errors", n)
	}
	summaryLog.InfoContext(ctx, "Report warmup job finished successfully.")
	return nil
}
