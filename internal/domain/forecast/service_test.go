package forecast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"loan-forecast/internal/domain/amortization"
	"loan-forecast/internal/event"
	"loan-forecast/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateForecast(ctx context.Context, f *Forecast) (*Forecast, error) {
	args := m.Called(ctx, f)
	if rf, ok := args.Get(0).(func(context.Context, *Forecast) *Forecast); ok {
		return rf(ctx, f), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Forecast), args.Error(1)
}

func (m *MockRepository) GetForecastByID(ctx context.Context, forecastID int64) (*Forecast, error) {
	args := m.Called(ctx, forecastID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Forecast), args.Error(1)
}

func (m *MockRepository) GetRowsByForecastID(ctx context.Context, forecastID int64) ([]amortization.InstallmentRow, error) {
	args := m.Called(ctx, forecastID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]amortization.InstallmentRow), args.Error(1)
}

func (m *MockRepository) ListForecastIDsSince(ctx context.Context, since time.Time, limit int) ([]int64, error) {
	args := m.Called(ctx, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishForecastCreated(ctx context.Context, ev event.ForecastCreatedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func sampleInput() amortization.LoanInput {
	return amortization.LoanInput{
		AssetType:     amortization.AssetCarLoan,
		Principal:     decimal.NewFromInt(60_000),
		DownPayment:   decimal.NewFromInt(12_000),
		TenureMonths:  12,
		ApplyInterest: true,
		RateMode:      amortization.RateModeAuto,
		AccrualMethod: amortization.AccrualReducing,
		StartDate:     time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Scenarios:     []amortization.ScenarioRule{amortization.FullPrepayment(6)},
	}
}

func newTestService(repo Repository, pub event.EventPublisher) *forecastServiceImpl {
	svc := NewForecastService(repo, pub, logger).(*forecastServiceImpl)
	svc.now = func() time.Time { return time.Date(2025, 1, 20, 9, 30, 0, 0, time.UTC) }
	return svc
}

func TestPreview(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo, nil)

	t.Run("computes without persisting", func(t *testing.T) {
		f, err := svc.Preview(context.Background(), sampleInput())

		require.NoError(t, err)
		assert.Zero(t, f.ID)
		assert.Len(t, f.Rows, 8)
		assert.True(t, f.Summary.ClosedEarly)
		assert.Equal(t, 7, f.Summary.Installments)
		assert.NotEmpty(t, f.Fingerprint)
		repo.AssertNotCalled(t, "CreateForecast", mock.Anything, mock.Anything)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		in := sampleInput()
		in.TenureMonths = 0

		f, err := svc.Preview(context.Background(), in)

		assert.Nil(t, f)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestCreateForecast(t *testing.T) {
	ctx := context.Background()

	t.Run("persists and publishes", func(t *testing.T) {
		repo := new(MockRepository)
		pub := new(MockPublisher)
		svc := newTestService(repo, pub)

		repo.On("CreateForecast", ctx, mock.MatchedBy(func(f *Forecast) bool {
			return f.ID == 0 && len(f.Rows) == 8 && f.CreatedAt.Equal(svc.now())
		})).Return(func(_ context.Context, f *Forecast) *Forecast {
			stored := *f
			stored.ID = 31
			return &stored
		}, nil).Once()
		pub.On("PublishForecastCreated", ctx, mock.MatchedBy(func(ev event.ForecastCreatedEvent) bool {
			return ev.ForecastID == 31 &&
				ev.FinancedAmount.Equal(decimal.NewFromInt(48_000)) &&
				ev.TenureMonths == 12 &&
				ev.Installments == 7 &&
				ev.ClosedEarly
		})).Return(nil).Once()

		f, err := svc.CreateForecast(ctx, sampleInput())

		require.NoError(t, err)
		assert.Equal(t, int64(31), f.ID)
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("publish failure does not fail creation", func(t *testing.T) {
		repo := new(MockRepository)
		pub := new(MockPublisher)
		svc := newTestService(repo, pub)

		repo.On("CreateForecast", ctx, mock.Anything).Return(&Forecast{ID: 5}, nil).Once()
		pub.On("PublishForecastCreated", ctx, mock.Anything).Return(errors.New("broker down")).Once()

		f, err := svc.CreateForecast(ctx, sampleInput())

		require.NoError(t, err)
		assert.Equal(t, int64(5), f.ID)
	})

	t.Run("repository failure is internal", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, nil)

		repo.On("CreateForecast", ctx, mock.Anything).Return(nil, errors.New("connection reset")).Once()

		f, err := svc.CreateForecast(ctx, sampleInput())

		assert.Nil(t, f)
		assert.ErrorIs(t, err, apperrors.ErrInternalServer)
	})

	t.Run("validation failure skips the repository", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, nil)
		in := sampleInput()
		in.DownPayment = decimal.NewFromInt(70_000)

		_, err := svc.CreateForecast(ctx, in)

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		repo.AssertNotCalled(t, "CreateForecast", mock.Anything, mock.Anything)
	})
	t.Run("principal above the maximum is rejected by preview and create alike", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, nil)
		in := sampleInput()
		in.Principal = amortization.MaxPrincipal.Mul(decimal.NewFromInt(2))

		_, previewErr := svc.Preview(ctx, in)
		_, createErr := svc.CreateForecast(ctx, in)

		assert.ErrorIs(t, previewErr, apperrors.ErrValidation)
		assert.ErrorIs(t, createErr, apperrors.ErrValidation)
		repo.AssertNotCalled(t, "CreateForecast", mock.Anything, mock.Anything)
	})
}

func TestGetForecast(t *testing.T) {
	ctx := context.Background()
	rows := amortization.Compute(sampleInput())

	t.Run("returns summary and optional rows", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, nil)
		repo.On("GetForecastByID", ctx, int64(3)).Return(&Forecast{ID: 3, Input: sampleInput()}, nil).Once()
		repo.On("GetForecastByID", ctx, int64(3)).Return(&Forecast{ID: 3, Input: sampleInput()}, nil).Once()
		repo.On("GetRowsByForecastID", ctx, int64(3)).Return(rows, nil)

		withRows, err := svc.GetForecast(ctx, 3, true)
		require.NoError(t, err)
		assert.Len(t, withRows.Rows, len(rows))
		assert.Equal(t, 7, withRows.Summary.Installments)

		withoutRows, err := svc.GetForecast(ctx, 3, false)
		require.NoError(t, err)
		assert.Empty(t, withoutRows.Rows)
		assert.True(t, withoutRows.Summary.ClosedEarly)
	})

	t.Run("leaves the stored forecast untouched", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, nil)
		stored := &Forecast{ID: 4, Input: sampleInput()}
		repo.On("GetForecastByID", ctx, int64(4)).Return(stored, nil)
		repo.On("GetRowsByForecastID", ctx, int64(4)).Return(rows, nil)

		got, err := svc.GetForecast(ctx, 4, true)

		require.NoError(t, err)
		assert.NotSame(t, stored, got)
		assert.Len(t, got.Rows, len(rows))
		assert.Empty(t, stored.Rows)
		assert.Zero(t, stored.Summary.Installments)

		again, err := svc.GetForecast(ctx, 4, false)
		require.NoError(t, err)
		assert.Empty(t, again.Rows)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, nil)
		repo.On("GetForecastByID", ctx, int64(99)).Return(nil, fmt.Errorf("%w: forecast 99", apperrors.ErrNotFound))

		_, err := svc.GetForecast(ctx, 99, false)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("storage failure is internal", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, nil)
		repo.On("GetForecastByID", ctx, int64(4)).Return(nil, errors.New("timeout"))

		_, err := svc.GetForecast(ctx, 4, false)

		assert.ErrorIs(t, err, apperrors.ErrInternalServer)
	})
}

func TestGetScheduleDerivedViews(t *testing.T) {
	ctx := context.Background()
	rows := amortization.Compute(sampleInput())

	repo := new(MockRepository)
	svc := newTestService(repo, nil)
	repo.On("GetRowsByForecastID", ctx, int64(8)).Return(rows, nil)
	repo.On("GetRowsByForecastID", ctx, int64(9)).Return([]amortization.InstallmentRow{}, nil)
	repo.On("GetForecastByID", ctx, int64(9)).Return(nil, apperrors.ErrNotFound)

	t.Run("schedule", func(t *testing.T) {
		got, err := svc.GetSchedule(ctx, 8)
		require.NoError(t, err)
		assert.Equal(t, rows, got)
	})

	t.Run("summary", func(t *testing.T) {
		got, err := svc.GetSummary(ctx, 8)
		require.NoError(t, err)
		assert.Equal(t, amortization.Summarize(rows), *got)
	})

	t.Run("chart skips the closing row", func(t *testing.T) {
		got, err := svc.GetChart(ctx, 8)
		require.NoError(t, err)
		assert.Len(t, got, len(rows)-1)
	})

	t.Run("empty schedule for missing forecast is not found", func(t *testing.T) {
		_, err := svc.GetSchedule(ctx, 9)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestListRecentForecastIDs(t *testing.T) {
	ctx := context.Background()
	since := time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC)

	t.Run("applies default limit", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, nil)
		repo.On("ListForecastIDsSince", ctx, since, DefaultListLimit).Return([]int64{1, 2}, nil).Once()

		ids, err := svc.ListRecentForecastIDs(ctx, since, 0)

		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, ids)
	})

	t.Run("wraps repository errors", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, nil)
		repo.On("ListForecastIDsSince", ctx, since, 10).Return(nil, errors.New("boom")).Once()

		_, err := svc.ListRecentForecastIDs(ctx, since, 10)

		assert.ErrorIs(t, err, apperrors.ErrInternalServer)
	})
}

func TestInputEncoding(t *testing.T) {
	in := sampleInput()
	in.Penalties = map[int]amortization.Penalty{
		3: {DaysLate: 4, RatePercent: decimal.NewFromFloat(1.5), Base: amortization.PenaltyBasePrincipalPlusInterest},
	}
	in.CustomFees = []amortization.Fee{{Name: "processing", Amount: decimal.NewFromInt(250)}}

	b, err := EncodeInput(in)
	require.NoError(t, err)
	decoded, err := DecodeInput(b)
	require.NoError(t, err)

	assert.True(t, decoded.Principal.Equal(in.Principal))
	assert.True(t, decoded.StartDate.Equal(in.StartDate))
	assert.Equal(t, in.Scenarios[0].AfterInstallment, decoded.Scenarios[0].AfterInstallment)
	assert.Equal(t, 4, decoded.Penalties[3].DaysLate)
	assert.True(t, decoded.Penalties[3].RatePercent.Equal(decimal.NewFromFloat(1.5)))
	assert.Equal(t, amortization.Fingerprint(amortization.Compute(in)), amortization.Fingerprint(amortization.Compute(decoded)))
}
