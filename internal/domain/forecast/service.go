package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"loan-forecast/internal/domain/amortization"
	"loan-forecast/internal/event"
	"loan-forecast/internal/infrastructure/monitoring"
	"loan-forecast/internal/pkg/apperrors"
)

const DefaultListLimit = 500

type ForecastService interface {
	Preview(ctx context.Context, in amortization.LoanInput) (*Forecast, error)

	CreateForecast(ctx context.Context, in amortization.LoanInput) (*Forecast, error)

	GetForecast(ctx context.Context, forecastID int64, withRows bool) (*Forecast, error)

	GetSchedule(ctx context.Context, forecastID int64) ([]amortization.InstallmentRow, error)

	GetSummary(ctx context.Context, forecastID int64) (*amortization.Summary, error)

	GetChart(ctx context.Context, forecastID int64) ([]amortization.ChartPoint, error)

	ListRecentForecastIDs(ctx context.Context, since time.Time, limit int) ([]int64, error)
}

type forecastServiceImpl struct {
	repo      Repository
	publisher event.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

var _ ForecastService = (*forecastServiceImpl)(nil)

func NewForecastService(r Repository, p event.EventPublisher, logger *slog.Logger) ForecastService {
	if r == nil {
		panic("forecast repository cannot be nil")
	}
	if p == nil {
		p = event.NewNoopEventPublisher(logger)
	}
	return &forecastServiceImpl{
		repo:      r,
		publisher: p,
		logger:    logger.With("component", "ForecastService"),
		now:       time.Now,
	}
}

func (s *forecastServiceImpl) compute(in amortization.LoanInput) (*Forecast, error) {
	if err := in.Validate(); err != nil {
		s.logger.Warn("Rejected loan input", "error", err)
		return nil, err
	}

	rows := amortization.Compute(in)
	f := newForecast(in, rows, s.now().UTC())
	monitoring.RecordScheduleComputed(string(in.AccrualMethod), f.Summary.ClosedEarly)

	return f, nil
}

func (s *forecastServiceImpl) Preview(ctx context.Context, in amortization.LoanInput) (*Forecast, error) {
	s.logger.DebugContext(ctx, "Computing schedule preview", "tenureMonths", in.TenureMonths)
	return s.compute(in)
}

func (s *forecastServiceImpl) CreateForecast(ctx context.Context, in amortization.LoanInput) (*Forecast, error) {
	s.logger.InfoContext(ctx, "Creating forecast", "tenureMonths", in.TenureMonths, "accrualMethod", in.AccrualMethod)

	f, err := s.compute(in)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.CreateForecast(ctx, f)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save forecast", "error", err)
		return nil, fmt.Errorf("%w: failed to save forecast: %v", apperrors.ErrInternalServer, err)
	}
	monitoring.RecordForecastStored()

	ev := event.ForecastCreatedEvent{
		ForecastID:     created.ID,
		FinancedAmount: created.Input.FinancedAmount(),
		TenureMonths:   created.Input.TenureMonths,
		Installments:   created.Summary.Installments,
		ClosedEarly:    created.Summary.ClosedEarly,
		TotalAmountDue: created.Summary.TotalAmountDue,
		Timestamp:      created.CreatedAt,
	}
	if err := s.publisher.PublishForecastCreated(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish forecast created event", "forecastID", created.ID, "error", err)
	}

	s.logger.InfoContext(ctx, "Forecast created successfully", "forecastID", created.ID, "installments", created.Summary.Installments)
	return created, nil
}

func (s *forecastServiceImpl) GetForecast(ctx context.Context, forecastID int64, withRows bool) (*Forecast, error) {
	s.logger.InfoContext(ctx, "Getting forecast", "forecastID", forecastID)
	f, err := s.repo.GetForecastByID(ctx, forecastID)
	if err != nil {
		return nil, s.lookupError(ctx, "forecast", forecastID, err)
	}

	rows, err := s.GetSchedule(ctx, forecastID)
	if err != nil {
		return nil, err
	}

	out := *f
	out.Summary = amortization.Summarize(rows)
	out.Rows = nil
	if withRows {
		out.Rows = rows
	}
	return &out, nil
}

func (s *forecastServiceImpl) GetSchedule(ctx context.Context, forecastID int64) ([]amortization.InstallmentRow, error) {
	s.logger.DebugContext(ctx, "Getting forecast schedule", "forecastID", forecastID)
	rows, err := s.repo.GetRowsByForecastID(ctx, forecastID)
	if err != nil {
		return nil, s.lookupError(ctx, "schedule", forecastID, err)
	}
	if len(rows) == 0 {
		if _, err := s.repo.GetForecastByID(ctx, forecastID); err != nil {
			return nil, s.lookupError(ctx, "forecast", forecastID, err)
		}
	}
	return rows, nil
}

func (s *forecastServiceImpl) GetSummary(ctx context.Context, forecastID int64) (*amortization.Summary, error) {
	rows, err := s.GetSchedule(ctx, forecastID)
	if err != nil {
		return nil, err
	}
	summary := amortization.Summarize(rows)
	return &summary, nil
}

func (s *forecastServiceImpl) GetChart(ctx context.Context, forecastID int64) ([]amortization.ChartPoint, error) {
	rows, err := s.GetSchedule(ctx, forecastID)
	if err != nil {
		return nil, err
	}
	return amortization.ChartSeries(rows), nil
}

func (s *forecastServiceImpl) ListRecentForecastIDs(ctx context.Context, since time.Time, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	ids, err := s.repo.ListForecastIDsSince(ctx, since, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list recent forecasts", "since", since, "error", err)
		return nil, fmt.Errorf("%w: failed to list forecasts: %v", apperrors.ErrInternalServer, err)
	}
	return ids, nil
}

func (s *forecastServiceImpl) lookupError(ctx context.Context, what string, forecastID int64, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		s.logger.WarnContext(ctx, "Forecast not found", "forecastID", forecastID)
		return fmt.Errorf("%w: forecast with ID %d not found", apperrors.ErrNotFound, forecastID)
	}
	s.logger.ErrorContext(ctx, "Failed to get "+what, "forecastID", forecastID, "error", err)
	return fmt.Errorf("%w: failed to get %s for forecast %d: %v", apperrors.ErrInternalServer, what, forecastID, err)
}
