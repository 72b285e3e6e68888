package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"loan-forecast/internal/domain/amortization"
	"loan-forecast/internal/domain/forecast"
	"loan-forecast/internal/infrastructure/monitoring"
	"loan-forecast/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

const (
	insertForecastSQL = `
	INSERT INTO forecasts (asset_type, financed_amount, tenure_months, accrual_method, input, fingerprint, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id`

	insertInstallmentSQL = `
	INSERT INTO forecast_installments (forecast_id, sequence, due_date, annual_rate, principal, interest, insurance, fees,
		amount_due, ending_balance, penalty_days_late, penalty, baseline_emi, adjusted_emi, note, early_closure)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	selectForecastSQL = `
	SELECT id, input, fingerprint, created_at
	FROM forecasts
	WHERE id = $1`

	selectInstallmentsSQL = `
	SELECT sequence, due_date, annual_rate::text, principal::text, interest::text, insurance::text, fees::text,
		amount_due::text, ending_balance::text, penalty_days_late, penalty::text, baseline_emi::text,
		adjusted_emi::text, note, early_closure
	FROM forecast_installments
	WHERE forecast_id = $1
	ORDER BY sequence ASC`

	selectRecentForecastIDsSQL = `
	SELECT id
	FROM forecasts
	WHERE created_at >= $1
	ORDER BY created_at DESC
	LIMIT $2`
)

type ForecastRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ forecast.Repository = (*ForecastRepository)(nil)

func NewForecastRepository(db DBPool, logger *slog.Logger) *ForecastRepository {
	return &ForecastRepository{db: db, logger: logger.With("component", "ForecastRepository")}
}

func (r *ForecastRepository) CreateForecast(ctx context.Context, f *forecast.Forecast) (created *forecast.Forecast, err error) {
	startTime := time.Now()
	defer func() { monitoring.RecordDBQuery("CreateForecast", queryStatus(err), time.Since(startTime)) }()

	input, err := forecast.EncodeInput(f.Input)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.logger.ErrorContext(ctx, "Failed to rollback transaction", "error", rbErr)
		}
	}()

	var id int64
	err = tx.QueryRow(ctx, insertForecastSQL,
		string(f.Input.AssetType),
		f.Input.FinancedAmount().String(),
		f.Input.TenureMonths,
		string(f.Input.AccrualMethod),
		input,
		f.Fingerprint,
		f.CreatedAt,
	).Scan(&id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert forecast", "error", err)
		return nil, fmt.Errorf("%w: failed to insert forecast: %w", apperrors.ErrDatabase, err)
	}

	if len(f.Rows) > 0 {
		batch := &pgx.Batch{}
		for _, row := range f.Rows {
			batch.Queue(insertInstallmentSQL, installmentArgs(id, row)...)
		}

		results := tx.SendBatch(ctx, batch)
		for i := range f.Rows {
			if _, err = results.Exec(); err != nil {
				results.Close()
				r.logger.ErrorContext(ctx, "Failed executing installment batch insert", "error", err, "row_index", i, "forecast_id", id)
				return nil, fmt.Errorf("%w: failed inserting installment %d: %w", apperrors.ErrDatabase, i+1, err)
			}
		}
		if err = results.Close(); err != nil {
			r.logger.ErrorContext(ctx, "Failed closing installment batch results", "error", err, "forecast_id", id)
			return nil, fmt.Errorf("%w: closing batch results failed: %w", apperrors.ErrDatabase, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Forecast stored", "forecast_id", id, "num_rows", len(f.Rows))

	stored := *f
	stored.ID = id
	return &stored, nil
}

func (r *ForecastRepository) GetForecastByID(ctx context.Context, forecastID int64) (*forecast.Forecast, error) {
	startTime := time.Now()

	var (
		f     forecast.Forecast
		input []byte
	)
	err := r.db.QueryRow(ctx, selectForecastSQL, forecastID).Scan(&f.ID, &input, &f.Fingerprint, &f.CreatedAt)
	monitoring.RecordDBQuery("GetForecastByID", queryStatus(err), time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Forecast not found", "forecast_id", forecastID)
			return nil, fmt.Errorf("%w: forecast %d", apperrors.ErrNotFound, forecastID)
		}
		r.logger.ErrorContext(ctx, "Failed to get forecast by ID", "forecast_id", forecastID, "error", err)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}

	if f.Input, err = forecast.DecodeInput(input); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	return &f, nil
}

func (r *ForecastRepository) GetRowsByForecastID(ctx context.Context, forecastID int64) (result []amortization.InstallmentRow, err error) {
	startTime := time.Now()
	defer func() { monitoring.RecordDBQuery("GetRowsByForecastID", queryStatus(err), time.Since(startTime)) }()

	rows, err := r.db.Query(ctx, selectInstallmentsSQL, forecastID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query installments", "forecast_id", forecastID, "error", err)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	result = make([]amortization.InstallmentRow, 0)
	for rows.Next() {
		row, err := scanInstallment(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan installment", "forecast_id", forecastID, "error", err)
			return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
		}
		result = append(result, row)
	}
	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating installments", "forecast_id", forecastID, "error", err)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}

	return result, nil
}

func (r *ForecastRepository) ListForecastIDsSince(ctx context.Context, since time.Time, limit int) (ids []int64, err error) {
	startTime := time.Now()
	defer func() { monitoring.RecordDBQuery("ListForecastIDsSince", queryStatus(err), time.Since(startTime)) }()

	rows, err := r.db.Query(ctx, selectRecentForecastIDsSQL, since, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to list forecasts", "error", err)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	ids = make([]int64, 0)
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	return ids, nil
}

func installmentArgs(forecastID int64, row amortization.InstallmentRow) []any {
	var dueDate *time.Time
	if !row.DueDate.IsZero() {
		d := row.DueDate
		dueDate = &d
	}
	var adjusted *string
	if row.AdjustedEMI.Valid {
		s := row.AdjustedEMI.Decimal.String()
		adjusted = &s
	}
	return []any{
		forecastID,
		row.Sequence,
		dueDate,
		row.AnnualRatePercent.String(),
		row.Principal.String(),
		row.Interest.String(),
		row.Insurance.String(),
		row.Fees.String(),
		row.AmountDue.String(),
		row.EndingBalance.String(),
		row.PenaltyDaysLate,
		row.Penalty.String(),
		row.BaselineEMI.String(),
		adjusted,
		row.Note,
		row.EarlyClosure,
	}
}

func scanInstallment(rows pgx.Rows) (amortization.InstallmentRow, error) {
	var row amortization.InstallmentRow
	var dueDate *time.Time
	var adjusted *string
	var rate, principal, interest, insurance, fees, amountDue, balance, penalty, emi string

	err := rows.Scan(&row.Sequence, &dueDate, &rate, &principal, &interest, &insurance, &fees,
		&amountDue, &balance, &row.PenaltyDaysLate, &penalty, &emi, &adjusted, &row.Note, &row.EarlyClosure)
	if err != nil {
		return row, err
	}
	if dueDate != nil {
		row.DueDate = *dueDate
	}

	targets := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&row.AnnualRatePercent, rate},
		{&row.Principal, principal},
		{&row.Interest, interest},
		{&row.Insurance, insurance},
		{&row.Fees, fees},
		{&row.AmountDue, amountDue},
		{&row.EndingBalance, balance},
		{&row.Penalty, penalty},
		{&row.BaselineEMI, emi},
	}
	for _, t := range targets {
		if *t.dst, err = decimal.NewFromString(t.src); err != nil {
			return row, fmt.Errorf("invalid numeric %q: %w", t.src, err)
		}
	}
	if adjusted != nil {
		d, err := decimal.NewFromString(*adjusted)
		if err != nil {
			return row, fmt.Errorf("invalid numeric %q: %w", *adjusted, err)
		}
		row.AdjustedEMI = decimal.NewNullDecimal(d)
	}
	return row, nil
}

func queryStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
