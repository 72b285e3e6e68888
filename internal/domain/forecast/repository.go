package forecast

import (
	"context"
	"time"

	"loan-forecast/internal/domain/amortization"
)

// Repository persists forecasts. Lookups of unknown ids return an error
// wrapping apperrors.ErrNotFound.
type Repository interface {
	CreateForecast(ctx context.Context, f *Forecast) (*Forecast, error)

	GetForecastByID(ctx context.Context, forecastID int64) (*Forecast, error)

	GetRowsByForecastID(ctx context.Context, forecastID int64) ([]amortization.InstallmentRow, error)

	ListForecastIDsSince(ctx context.Context, since time.Time, limit int) ([]int64, error)
}
