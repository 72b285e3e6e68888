package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"loan-forecast/internal/api/handler/dto"
	"loan-forecast/internal/domain/amortization"
	"loan-forecast/internal/domain/forecast"
	"loan-forecast/internal/domain/report"
	"loan-forecast/internal/pkg/apperrors"
)

type ReportService interface {
	Report(ctx context.Context, rows []amortization.InstallmentRow) (*report.Result, error)
}

type ForecastHandler struct {
	service forecast.ForecastService
	reports ReportService
	logger  *slog.Logger
}

func NewForecastHandler(s forecast.ForecastService, rs ReportService, l *slog.Logger) *ForecastHandler {
	if s == nil || rs == nil {
		panic("forecast handler dependencies cannot be nil")
	}
	return &ForecastHandler{
		service: s,
		reports: rs,
		logger:  l.With("component", "ForecastHandler"),
	}
}

func (h *ForecastHandler) decodeLoanInput(w http.ResponseWriter, r *http.Request) (amortization.LoanInput, error) {
	var req dto.LoanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		return amortization.LoanInput{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
	}
	in, err := req.ToLoanInput()
	if err != nil {
		h.logger.WarnContext(r.Context(), "Request validation failed", slog.Any("error", err))
		return amortization.LoanInput{}, err
	}
	return in, nil
}

func (h *ForecastHandler) logServiceError(r *http.Request, msg string, err error) {
	level := slog.LevelError
	if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrValidation) {
		level = slog.LevelWarn
	}
	h.logger.Log(r.Context(), level, msg, slog.Any("error", err))
}

// PreviewSchedule handles POST /schedules/preview
// @Summary Preview an amortization schedule
// @Description Computes the schedule and its totals without storing anything.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param request body dto.LoanRequest true "Loan configuration"
// @Success 200 {object} dto.ForecastResponse "Computed schedule"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan configuration"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /schedules/preview [post]
// @Security BearerAuth
func (h *ForecastHandler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	in, err := h.decodeLoanInput(w, r)
	if err != nil {
		respondError(w, err)
		return
	}

	f, err := h.service.Preview(r.Context(), in)
	if err != nil {
		h.logServiceError(r, "Service failed to preview schedule", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewForecastResponse(f))
}

// CreateForecast handles POST /forecasts
// @Summary Create a forecast
// @Description Computes the schedule for a loan configuration and stores it.
// @Tags Forecasts
// @Accept json
// @Produce json
// @Param request body dto.LoanRequest true "Loan configuration"
// @Success 201 {object} dto.ForecastResponse "Forecast stored"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan configuration"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /forecasts [post]
// @Security BearerAuth
func (h *ForecastHandler) CreateForecast(w http.ResponseWriter, r *http.Request) {
	in, err := h.decodeLoanInput(w, r)
	if err != nil {
		respondError(w, err)
		return
	}

	f, err := h.service.CreateForecast(r.Context(), in)
	if err != nil {
		h.logServiceError(r, "Service failed to create forecast", err)
		respondError(w, err)
		return
	}

	resp := dto.NewForecastResponse(f)
	h.logger.InfoContext(r.Context(), "Forecast created successfully", slog.String("forecastID", resp.ID))
	respondJSON(w, http.StatusCreated, resp)
}

// GetForecast handles GET /forecasts/{forecastID}
// @Summary Retrieve a forecast
// @Description Returns the stored input and totals. Pass include=schedule to embed the rows.
// @Tags Forecasts
// @Produce json
// @Param forecastID path int true "Forecast ID" Minimum(1)
// @Param include query string false "Set to schedule to include rows" Enums(schedule)
// @Success 200 {object} dto.ForecastResponse "Forecast details"
// @Failure 400 {object} dto.ErrorResponse "Invalid forecast ID"
// @Failure 404 {object} dto.ErrorResponse "Forecast not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /forecasts/{forecastID} [get]
// @Security BearerAuth
func (h *ForecastHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	forecastID, err := getForecastIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}
	withRows := strings.EqualFold(r.URL.Query().Get("include"), "schedule")

	f, err := h.service.GetForecast(r.Context(), forecastID, withRows)
	if err != nil {
		h.logServiceError(r, "Service failed to get forecast", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewForecastResponse(f))
}

// GetSchedule handles GET /forecasts/{forecastID}/schedule
// @Summary Retrieve the schedule of a forecast
// @Tags Forecasts
// @Produce json
// @Param forecastID path int true "Forecast ID" Minimum(1)
// @Success 200 {array} dto.InstallmentResponse "Schedule rows"
// @Failure 400 {object} dto.ErrorResponse "Invalid forecast ID"
// @Failure 404 {object} dto.ErrorResponse "Forecast not found"
// @Router /forecasts/{forecastID}/schedule [get]
// @Security BearerAuth
func (h *ForecastHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	forecastID, err := getForecastIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	rows, err := h.service.GetSchedule(r.Context(), forecastID)
	if err != nil {
		h.logServiceError(r, "Service failed to get schedule", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewScheduleResponse(rows))
}

// GetSummary handles GET /forecasts/{forecastID}/summary
// @Summary Retrieve forecast totals
// @Tags Forecasts
// @Produce json
// @Param forecastID path int true "Forecast ID" Minimum(1)
// @Success 200 {object} dto.SummaryResponse "Totals"
// @Failure 400 {object} dto.ErrorResponse "Invalid forecast ID"
// @Failure 404 {object} dto.ErrorResponse "Forecast not found"
// @Router /forecasts/{forecastID}/summary [get]
// @Security BearerAuth
func (h *ForecastHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	forecastID, err := getForecastIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	s, err := h.service.GetSummary(r.Context(), forecastID)
	if err != nil {
		h.logServiceError(r, "Service failed to get summary", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewSummaryResponse(*s))
}

// GetChart handles GET /forecasts/{forecastID}/chart
// @Summary Retrieve the repayment chart series
// @Description Principal, interest and penalty per installment, suitable for a stacked chart.
// @Tags Forecasts
// @Produce json
// @Param forecastID path int true "Forecast ID" Minimum(1)
// @Success 200 {array} dto.ChartPointResponse "Chart series"
// @Failure 400 {object} dto.ErrorResponse "Invalid forecast ID"
// @Failure 404 {object} dto.ErrorResponse "Forecast not found"
// @Router /forecasts/{forecastID}/chart [get]
// @Security BearerAuth
func (h *ForecastHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	forecastID, err := getForecastIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	points, err := h.service.GetChart(r.Context(), forecastID)
	if err != nil {
		h.logServiceError(r, "Service failed to get chart", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewChartResponse(points))
}

// GetReport handles GET /forecasts/{forecastID}/report
// @Summary Retrieve the narrative report of a forecast
// @Description Generated on first request and cached per schedule. A generator failure
// @Description still answers 200 with available=false and a fixed error text.
// @Tags Forecasts
// @Produce json
// @Param forecastID path int true "Forecast ID" Minimum(1)
// @Success 200 {object} dto.ReportResponse "Report"
// @Failure 400 {object} dto.ErrorResponse "Invalid forecast ID"
// @Failure 404 {object} dto.ErrorResponse "Forecast not found"
// @Router /forecasts/{forecastID}/report [get]
// @Security BearerAuth
func (h *ForecastHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	forecastID, err := getForecastIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	rows, err := h.service.GetSchedule(r.Context(), forecastID)
	if err != nil {
		h.logServiceError(r, "Service failed to get schedule for report", err)
		respondError(w, err)
		return
	}

	res, err := h.reports.Report(r.Context(), rows)
	if err != nil {
		if res == nil || !errors.Is(err, apperrors.ErrReportUnavailable) {
			h.logServiceError(r, "Report service failed", err)
			respondError(w, err)
			return
		}
		h.logger.WarnContext(r.Context(), "Report unavailable", slog.Int64("forecastID", forecastID), slog.Any("error", err))
	}

	respondJSON(w, http.StatusOK, dto.NewReportResponse(forecastID, res))
}
