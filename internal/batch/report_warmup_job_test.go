package batch_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"loan-forecast/internal/batch"
	"loan-forecast/internal/domain/amortization"
	"loan-forecast/internal/domain/forecast"
	"loan-forecast/internal/domain/report"
	"loan-forecast/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockForecastSource struct {
	mock.Mock
}

func (m *MockForecastSource) ListRecentForecastIDs(ctx context.Context, since time.Time, limit int) ([]int64, error) {
	args := m.Called(ctx, since, limit)
	if ids, ok := args.Get(0).([]int64); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockForecastSource) GetSchedule(ctx context.Context, forecastID int64) ([]amortization.InstallmentRow, error) {
	args := m.Called(ctx, forecastID)
	if rows, ok := args.Get(0).([]amortization.InstallmentRow); ok {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockReporter struct {
	mock.Mock
}

func (m *MockReporter) Report(ctx context.Context, rows []amortization.InstallmentRow) (*report.Result, error) {
	args := m.Called(ctx, rows)
	if res, ok := args.Get(0).(*report.Result); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func rowsFor(id int64) []amortization.InstallmentRow {
	return []amortization.InstallmentRow{{Sequence: 1, Note: fmt.Sprintf("forecast-%d", id)}}
}

func TestReportWarmupJobRun(t *testing.T) {
	ctx := context.Background()

	t.Run("warms every recent forecast", func(t *testing.T) {
		source := new(MockForecastSource)
		reporter := new(MockReporter)
		job := batch.NewReportWarmupJob(source, reporter, 24*time.Hour, 2, testLogger)

		source.On("ListRecentForecastIDs", ctx, mock.AnythingOfType("time.Time"), forecast.DefaultListLimit).
			Return([]int64{1, 2, 3}, nil).Once()
		for _, id := range []int64{1, 2, 3} {
			source.On("GetSchedule", ctx, id).Return(rowsFor(id), nil).Once()
		}
		reporter.On("Report", ctx, rowsFor(1)).Return(&report.Result{Available: true}, nil).Once()
		reporter.On("Report", ctx, rowsFor(2)).Return(&report.Result{Available: true, Cached: true}, nil).Once()
		reporter.On("Report", ctx, rowsFor(3)).Return(&report.Result{Available: true}, nil).Once()

		err := job.Run(ctx)

		assert.NoError(t, err)
		source.AssertExpectations(t)
		reporter.AssertExpectations(t)
	})

	t.Run("nothing to do", func(t *testing.T) {
		source := new(MockForecastSource)
		reporter := new(MockReporter)
		job := batch.NewReportWarmupJob(source, reporter, time.Hour, 4, testLogger)

		source.On("ListRecentForecastIDs", ctx, mock.Anything, mock.Anything).Return([]int64{}, nil).Once()

		assert.NoError(t, job.Run(ctx))
		reporter.AssertNotCalled(t, "Report", mock.Anything, mock.Anything)
	})

	t.Run("listing failure aborts", func(t *testing.T) {
		source := new(MockForecastSource)
		reporter := new(MockReporter)
		job := batch.NewReportWarmupJob(source, reporter, time.Hour, 4, testLogger)
		listErr := errors.New("db down")

		source.On("ListRecentForecastIDs", ctx, mock.Anything, mock.Anything).Return(nil, listErr).Once()

		err := job.Run(ctx)

		assert.ErrorIs(t, err, listErr)
		source.AssertNotCalled(t, "GetSchedule", mock.Anything, mock.Anything)
	})

	t.Run("missing forecasts are skipped without error", func(t *testing.T) {
		source := new(MockForecastSource)
		reporter := new(MockReporter)
		job := batch.NewReportWarmupJob(source, reporter, time.Hour, 1, testLogger)

		source.On("ListRecentForecastIDs", ctx, mock.Anything, mock.Anything).Return([]int64{7}, nil).Once()
		source.On("GetSchedule", ctx, int64(7)).Return(nil, fmt.Errorf("%w: forecast 7", apperrors.ErrNotFound)).Once()

		assert.NoError(t, job.Run(ctx))
		reporter.AssertNotCalled(t, "Report", mock.Anything, mock.Anything)
	})

	t.Run("generation failures are counted", func(t *testing.T) {
		source := new(MockForecastSource)
		reporter := new(MockReporter)
		job := batch.NewReportWarmupJob(source, reporter, time.Hour, 3, testLogger)

		source.On("ListRecentForecastIDs", ctx, mock.Anything, mock.Anything).Return([]int64{1, 2}, nil).Once()
		source.On("GetSchedule", ctx, int64(1)).Return(rowsFor(1), nil).Once()
		source.On("GetSchedule", ctx, int64(2)).Return(nil, errors.New("timeout")).Once()
		reporter.On("Report", ctx, rowsFor(1)).
			Return(&report.Result{Text: report.ErrorText}, apperrors.WrapReportError(errors.New("503"), "failed")).Once()

		err := job.Run(ctx)

		assert.EqualError(t, err, "job completed with 2 errors")
	})
}

type countingReporter struct {
	mu      sync.Mutex
	active  int
	maxSeen int
}

func (r *countingReporter) Report(_ context.Context, _ []amortization.InstallmentRow) (*report.Result, error) {
	r.mu.Lock()
	r.active++
	if r.active > r.maxSeen {
		r.maxSeen = r.active
	}
	r.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	r.mu.Lock()
	r.active--
	r.mu.Unlock()
	return &report.Result{Available: true}, nil
}

func TestReportWarmupJobRespectsConcurrency(t *testing.T) {
	ctx := context.Background()
	source := new(MockForecastSource)
	reporter := &countingReporter{}
	job := batch.NewReportWarmupJob(source, reporter, time.Hour, 2, testLogger)

	ids := []int64{1, 2, 3, 4, 5, 6}
	source.On("ListRecentForecastIDs", ctx, mock.Anything, mock.Anything).Return(ids, nil).Once()
	source.On("GetSchedule", ctx, mock.AnythingOfType("int64")).Return(rowsFor(0), nil)

	assert.NoError(t, job.Run(ctx))
	assert.LessOrEqual(t, reporter.maxSeen, 2)
	assert.GreaterOrEqual(t, reporter.maxSeen, 1)
}

func TestReportWarmupJobCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	source := new(MockForecastSource)
	reporter := new(MockReporter)
	job := batch.NewReportWarmupJob(source, reporter, time.Hour, 1, testLogger)

	source.On("ListRecentForecastIDs", ctx, mock.Anything, mock.Anything).Return([]int64{1, 2}, nil).Once()
	source.On("GetSchedule", ctx, mock.Anything).Return(nil, context.Canceled).Maybe()

	err := job.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewReportWarmupJobPanicsOnNilDependencies(t *testing.T) {
	assert.Panics(t, func() {
		batch.NewReportWarmupJob(nil, new(MockReporter), time.Hour, 1, testLogger)
	})
}
