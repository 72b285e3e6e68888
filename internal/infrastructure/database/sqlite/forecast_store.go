// Package sqlite stores forecasts in a single SQLite file. It serves
// single-node deployments and local development where running PostgreSQL is
// not wanted. The schema is created on open.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"loan-forecast/internal/domain/amortization"
	"loan-forecast/internal/domain/forecast"
	"loan-forecast/internal/infrastructure/monitoring"
	"loan-forecast/internal/pkg/apperrors"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// timeLayout has a fixed width so stored timestamps sort as text.
const (
	timeLayout = "2006-01-02T15:04:05.000000000Z"
	dateLayout = "2006-01-02"
)

const schema = `
CREATE TABLE IF NOT EXISTS forecasts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	asset_type TEXT NOT NULL DEFAULT '',
	financed_amount TEXT NOT NULL,
	tenure_months INTEGER NOT NULL,
	accrual_method TEXT NOT NULL,
	input_json TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_forecasts_created_at
	ON forecasts(created_at);

CREATE TABLE IF NOT EXISTS forecast_installments (
	forecast_id INTEGER NOT NULL REFERENCES forecasts(id) ON DELETE CASCADE,
	sequence INTEGER NOT NULL,
	due_date TEXT,
	annual_rate TEXT NOT NULL,
	principal TEXT NOT NULL,
	interest TEXT NOT NULL,
	insurance TEXT NOT NULL,
	fees TEXT NOT NULL,
	amount_due TEXT NOT NULL,
	ending_balance TEXT NOT NULL,
	penalty_days_late INTEGER NOT NULL DEFAULT 0,
	penalty TEXT NOT NULL,
	baseline_emi TEXT NOT NULL,
	adjusted_emi TEXT,
	note TEXT NOT NULL DEFAULT '-',
	early_closure INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (forecast_id, sequence)
);
`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ForecastStore implements forecast.Repository on SQLite.
type ForecastStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	logger *slog.Logger
}

var _ forecast.Repository = (*ForecastStore)(nil)

// New opens the database at path and creates the schema. Use ":memory:" for
// a throwaway database.
func New(path string, logger *slog.Logger) (*ForecastStore, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err, "failed to open database")
	}
	if path == ":memory:" {
		// every connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperrors.WrapDatabaseError(err, "failed to migrate database")
	}

	logger.Info("SQLite forecast store ready", "path", path)
	return &ForecastStore{db: db, logger: logger.With("component", "SQLiteForecastStore")}, nil
}

func (s *ForecastStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ForecastStore) Close() error {
	return s.db.Close()
}

func (s *ForecastStore) CreateForecast(ctx context.Context, f *forecast.Forecast) (created *forecast.Forecast, err error) {
	startTime := time.Now()
	defer func() { monitoring.RecordDBQuery("CreateForecast", queryStatus(err), time.Since(startTime)) }()

	input, err := forecast.EncodeInput(f.Input)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrDatabase, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO forecasts (asset_type, financed_amount, tenure_months, accrual_method, input_json, fingerprint, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(f.Input.AssetType),
		f.Input.FinancedAmount().String(),
		f.Input.TenureMonths,
		string(f.Input.AccrualMethod),
		string(input),
		f.Fingerprint,
		f.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to insert forecast", "error", err)
		return nil, fmt.Errorf("%w: failed to insert forecast: %w", apperrors.ErrDatabase, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}

	for i, row := range f.Rows {
		if err = insertInstallment(ctx, tx, id, row); err != nil {
			s.logger.ErrorContext(ctx, "Failed to insert installment", "error", err, "row_index", i, "forecast_id", id)
			if isConstraintError(err) {
				return nil, fmt.Errorf("%w: installment %d stored twice: %w", apperrors.ErrConflict, row.Sequence, err)
			}
			return nil, fmt.Errorf("%w: failed inserting installment %d: %w", apperrors.ErrDatabase, i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}

	s.logger.InfoContext(ctx, "Forecast stored", "forecast_id", id, "num_rows", len(f.Rows))

	stored := *f
	stored.ID = id
	return &stored, nil
}

func insertInstallment(ctx context.Context, db execer, forecastID int64, row amortization.InstallmentRow) error {
	var dueDate, adjusted sql.NullString
	if !row.DueDate.IsZero() {
		dueDate = sql.NullString{String: row.DueDate.Format(dateLayout), Valid: true}
	}
	if row.AdjustedEMI.Valid {
		adjusted = sql.NullString{String: row.AdjustedEMI.Decimal.String(), Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO forecast_installments (forecast_id, sequence, due_date, annual_rate, principal, interest, insurance,
			fees, amount_due, ending_balance, penalty_days_late, penalty, baseline_emi, adjusted_emi, note, early_closure)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
	)
	return err
}

func (s *ForecastStore) GetForecastByID(ctx context.Context, forecastID int64) (*forecast.Forecast, error) {
	startTime := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		f         forecast.Forecast
		input     string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, input_json, fingerprint, created_at FROM forecasts WHERE id = ?",
		forecastID,
	).Scan(&f.ID, &input, &f.Fingerprint, &createdAt)
	monitoring.RecordDBQuery("GetForecastByID", queryStatus(err), time.Since(startTime))

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: forecast %d", apperrors.ErrNotFound, forecastID)
		}
		s.logger.ErrorContext(ctx, "Failed to get forecast by ID", "forecast_id", forecastID, "error", err)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}

	if f.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("%w: invalid created_at %q: %w", apperrors.ErrDatabase, createdAt, err)
	}
	if f.Input, err = forecast.DecodeInput([]byte(input)); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	return &f, nil
}

func (s *ForecastStore) GetRowsByForecastID(ctx context.Context, forecastID int64) (result []amortization.InstallmentRow, err error) {
	startTime := time.Now()
	defer func() { monitoring.RecordDBQuery("GetRowsByForecastID", queryStatus(err), time.Since(startTime)) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT sequence, due_date, annual_rate, principal, interest, insurance, fees, amount_due, ending_balance,
			penalty_days_late, penalty, baseline_emi, adjusted_emi, note, early_closure
		FROM forecast_installments
		WHERE forecast_id = ?
		ORDER BY sequence ASC`, forecastID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	result = make([]amortization.InstallmentRow, 0)
	for rows.Next() {
		row, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
		}
		result = append(result, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	return result, nil
}

func scanInstallment(rows *sql.Rows) (amortization.InstallmentRow, error) {
	var row amortization.InstallmentRow
	var dueDate, adjusted sql.NullString
	var rate, principal, interest, insurance, fees, amountDue, balance, penalty, emi string

	err := rows.Scan(&row.Sequence, &dueDate, &rate, &principal, &interest, &insurance, &fees,
		&amountDue, &balance, &row.PenaltyDaysLate, &penalty, &emi, &adjusted, &row.Note, &row.EarlyClosure)
	if err != nil {
		return row, err
	}

	if dueDate.Valid {
		if row.DueDate, err = time.Parse(dateLayout, dueDate.String); err != nil {
			return row, fmt.Errorf("invalid due_date %q: %w", dueDate.String, err)
		}
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
	if adjusted.Valid {
		d, err := decimal.NewFromString(adjusted.String)
		if err != nil {
			return row, fmt.Errorf("invalid numeric %q: %w", adjusted.String, err)
		}
		row.AdjustedEMI = decimal.NewNullDecimal(d)
	}
	return row, nil
}

func (s *ForecastStore) ListForecastIDsSince(ctx context.Context, since time.Time, limit int) (ids []int64, err error) {
	startTime := time.Now()
	defer func() { monitoring.RecordDBQuery("ListForecastIDsSince", queryStatus(err), time.Since(startTime)) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM forecasts
		WHERE created_at >= ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, since.UTC().Format(timeLayout), limit)
	if err != nil {
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

func queryStatus(err error) string {
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "error"
	}
	return "success"
}

// isConstraintError reports whether err came from a violated table constraint.
func isConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
