package dto

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"loan-forecast/internal/domain/amortization"
	"loan-forecast/internal/domain/forecast"
	"loan-forecast/internal/domain/report"
	"loan-forecast/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

type InsuranceRequest struct {
	Enabled           bool            `json:"enabled"`
	AnnualRatePercent decimal.Decimal `json:"annualRatePercent" swaggertype:"string" example:"0.5"`
}

type FeeRequest struct {
	Name   string          `json:"name" example:"processing"`
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"250"`
}

type ScenarioRequest struct {
	Type             string          `json:"type" example:"EXTRA_PAYMENT"`
	AfterInstallment int             `json:"afterInstallment" example:"3"`
	Count            int             `json:"count,omitempty" example:"2"`
	ExtraPercent     decimal.Decimal `json:"extraPercent,omitempty" swaggertype:"string" example:"10"`
}

type PenaltyRequest struct {
	InstallmentNo int             `json:"installmentNo" example:"4"`
	DaysLate      int             `json:"daysLate" example:"5"`
	RatePercent   decimal.Decimal `json:"ratePercent" swaggertype:"string" example:"0.5"`
	Base          string          `json:"base" example:"PRINCIPAL"`
}

// LoanRequest is the wire form of a loan configuration. Enum values are
// matched case-insensitively; omitted options take their defaults.
type LoanRequest struct {
	AssetType               string            `json:"assetType,omitempty" example:"CAR_LOAN"`
	Principal               decimal.Decimal   `json:"principal" swaggertype:"string" example:"60000"`
	DownPayment             decimal.Decimal   `json:"downPayment" swaggertype:"string" example:"12000"`
	TenureMonths            *int              `json:"tenureMonths,omitempty" example:"24"`
	ApplyInterest           *bool             `json:"applyInterest,omitempty" example:"true"`
	InterestRateMode        string            `json:"interestRateMode,omitempty" example:"AUTO"`
	ManualAnnualRatePercent decimal.Decimal   `json:"manualAnnualRatePercent" swaggertype:"string" example:"0"`
	InterestAccrualMethod   string            `json:"interestAccrualMethod,omitempty" example:"REDUCING"`
	StartDate               string            `json:"startDate" example:"2025-01-15"`
	Insurance               *InsuranceRequest `json:"insurance,omitempty"`
	CustomFees              []FeeRequest      `json:"customFees,omitempty"`
	PrepaymentScenarios     []ScenarioRequest `json:"prepaymentScenarios,omitempty"`
	Penalties               []PenaltyRequest  `json:"penalties,omitempty"`
}

func normalizeEnum(s string) string {
	s = strings.ReplaceAll(strings.ToUpper(s), "-", "_")
	return strings.Join(strings.Fields(s), "_")
}

var penaltyBaseAliases = map[string]amortization.PenaltyBase{
	"PRINCIPAL_ONLY":       amortization.PenaltyBasePrincipal,
	"PRINCIPAL_+_INTEREST": amortization.PenaltyBasePrincipalPlusInterest,
	"PRINCIPAL+INTEREST":   amortization.PenaltyBasePrincipalPlusInterest,
}

func parsePenaltyBase(s string) amortization.PenaltyBase {
	if s == "" {
		return amortization.PenaltyBasePrincipal
	}
	n := normalizeEnum(s)
	if base, ok := penaltyBaseAliases[n]; ok {
		return base
	}
	return amortization.PenaltyBase(n)
}

// ToLoanInput converts the request into engine input. It resolves defaults
// and enum spellings; range checks are left to LoanInput.Validate.
func (r *LoanRequest) ToLoanInput() (amortization.LoanInput, error) {
	in := amortization.LoanInput{
		AssetType:               amortization.AssetType(normalizeEnum(r.AssetType)),
		Principal:               r.Principal,
		DownPayment:             r.DownPayment,
		TenureMonths:            amortization.DefaultTenure,
		ApplyInterest:           true,
		RateMode:                amortization.RateModeAuto,
		ManualAnnualRatePercent: r.ManualAnnualRatePercent,
		AccrualMethod:           amortization.AccrualReducing,
	}
	if r.TenureMonths != nil {
		in.TenureMonths = *r.TenureMonths
	}
	if r.ApplyInterest != nil {
		in.ApplyInterest = *r.ApplyInterest
	}
	if r.InterestRateMode != "" {
		in.RateMode = amortization.RateMode(normalizeEnum(r.InterestRateMode))
	}
	if r.InterestAccrualMethod != "" {
		in.AccrualMethod = amortization.AccrualMethod(normalizeEnum(r.InterestAccrualMethod))
	}

	if strings.TrimSpace(r.StartDate) == "" {
		return in, apperrors.NewValidationError("startDate", "is required")
	}
	start, err := time.Parse(DateLayout, strings.TrimSpace(r.StartDate))
	if err != nil {
		return in, apperrors.NewValidationError("startDate", "must use the YYYY-MM-DD format")
	}
	in.StartDate = start

	if r.Insurance != nil {
		in.Insurance = amortization.Insurance{Enabled: r.Insurance.Enabled, AnnualRatePercent: r.Insurance.AnnualRatePercent}
	}

	for _, f := range r.CustomFees {
		in.CustomFees = append(in.CustomFees, amortization.Fee{Name: strings.TrimSpace(f.Name), Amount: f.Amount})
	}

	for _, sc := range r.PrepaymentScenarios {
		in.Scenarios = append(in.Scenarios, amortization.ScenarioRule{
			Kind:             amortization.ScenarioKind(normalizeEnum(sc.Type)),
			AfterInstallment: sc.AfterInstallment,
			Count:            sc.Count,
			ExtraPercent:     sc.ExtraPercent,
		})
	}

	if len(r.Penalties) > 0 {
		in.Penalties = make(map[int]amortization.Penalty, len(r.Penalties))
	}
	for i, p := range r.Penalties {
		if _, dup := in.Penalties[p.InstallmentNo]; dup {
			return in, apperrors.NewValidationError(fmt.Sprintf("penalties[%d].installmentNo", i),
				fmt.Sprintf("installment %d already has a penalty", p.InstallmentNo))
		}
		in.Penalties[p.InstallmentNo] = amortization.Penalty{
			DaysLate:    p.DaysLate,
			RatePercent: p.RatePercent,
			Base:        parsePenaltyBase(p.Base),
		}
	}

	return in, nil
}

// NewLoanRequest renders a stored input back into its wire form.
func NewLoanRequest(in amortization.LoanInput) LoanRequest {
	tenure := in.TenureMonths
	applyInterest := in.ApplyInterest
	r := LoanRequest{
		AssetType:               string(in.AssetType),
		Principal:               in.Principal,
		DownPayment:             in.DownPayment,
		TenureMonths:            &tenure,
		ApplyInterest:           &applyInterest,
		InterestRateMode:        string(in.RateMode),
		ManualAnnualRatePercent: in.ManualAnnualRatePercent,
		InterestAccrualMethod:   string(in.AccrualMethod),
		StartDate:               in.StartDate.Format(DateLayout),
	}
	if in.Insurance.Enabled {
		r.Insurance = &InsuranceRequest{Enabled: true, AnnualRatePercent: in.Insurance.AnnualRatePercent}
	}
	for _, f := range in.CustomFees {
		r.CustomFees = append(r.CustomFees, FeeRequest{Name: f.Name, Amount: f.Amount})
	}
	for _, sc := range in.Scenarios {
		r.PrepaymentScenarios = append(r.PrepaymentScenarios, ScenarioRequest{
			Type:             string(sc.Kind),
			AfterInstallment: sc.AfterInstallment,
			Count:            sc.Count,
			ExtraPercent:     sc.ExtraPercent,
		})
	}

	installments := make([]int, 0, len(in.Penalties))
	for n := range in.Penalties {
		installments = append(installments, n)
	}
	sort.Ints(installments)
	for _, n := range installments {
		p := in.Penalties[n]
		r.Penalties = append(r.Penalties, PenaltyRequest{
			InstallmentNo: n,
			DaysLate:      p.DaysLate,
			RatePercent:   p.RatePercent,
			Base:          string(p.Base),
		})
	}
	return r
}

func money(d decimal.Decimal) *string {
	s := d.StringFixed(2)
	return &s
}

// InstallmentResponse is one schedule row. Numeric fields are null on the
// early closure row.
type InstallmentResponse struct {
	Sequence          int     `json:"sequence"`
	DueDate           *string `json:"dueDate"`
	AnnualRatePercent *string `json:"annualRatePercent"`
	Principal         *string `json:"principal"`
	Interest          *string `json:"interest"`
	Insurance         *string `json:"insurance"`
	Fees              *string `json:"fees"`
	AmountDue         *string `json:"amountDue"`
	EndingBalance     *string `json:"endingBalance"`
	PenaltyDaysLate   *int    `json:"penaltyDaysLate"`
	Penalty           *string `json:"penalty"`
	BaselineEMI       *string `json:"baselineEmi"`
	AdjustedEMI       *string `json:"adjustedEmi"`
	Note              string  `json:"note"`
	EarlyClosure      bool    `json:"earlyClosure"`
}

func NewInstallmentResponse(row amortization.InstallmentRow) InstallmentResponse {
	resp := InstallmentResponse{
		Sequence:     row.Sequence,
		Note:         row.Note,
		EarlyClosure: row.EarlyClosure,
	}
	if row.EarlyClosure {
		return resp
	}

	dueDate := row.DueDate.Format(DateLayout)
	daysLate := row.PenaltyDaysLate
	resp.DueDate = &dueDate
	resp.AnnualRatePercent = money(row.AnnualRatePercent)
	resp.Principal = money(row.Principal)
	resp.Interest = money(row.Interest)
	resp.Insurance = money(row.Insurance)
	resp.Fees = money(row.Fees)
	resp.AmountDue = money(row.AmountDue)
	resp.EndingBalance = money(row.EndingBalance)
	resp.PenaltyDaysLate = &daysLate
	resp.Penalty = money(row.Penalty)
	resp.BaselineEMI = money(row.BaselineEMI)
	if row.AdjustedEMI.Valid {
		resp.AdjustedEMI = money(row.AdjustedEMI.Decimal)
	}
	return resp
}

func NewScheduleResponse(rows []amortization.InstallmentRow) []InstallmentResponse {
	resp := make([]InstallmentResponse, len(rows))
	for i, row := range rows {
		resp[i] = NewInstallmentResponse(row)
	}
	return resp
}

type SummaryResponse struct {
	Installments          int    `json:"installments"`
	ClosedEarly           bool   `json:"closedEarly"`
	AnnualRatePercent     string `json:"annualRatePercent"`
	BaselineEMI           string `json:"baselineEmi"`
	TotalPrincipal        string `json:"totalPrincipal"`
	TotalInterest         string `json:"totalInterest"`
	TotalInsurance        string `json:"totalInsurance"`
	TotalFees             string `json:"totalFees"`
	TotalPenalty          string `json:"totalPenalty"`
	TotalAmountDue        string `json:"totalAmountDue"`
	PenalizedInstallments []int  `json:"penalizedInstallments"`
}

func NewSummaryResponse(s amortization.Summary) SummaryResponse {
	penalized := s.PenalizedInstallments
	if penalized == nil {
		penalized = []int{}
	}
	return SummaryResponse{
		Installments:          s.Installments,
		ClosedEarly:           s.ClosedEarly,
		AnnualRatePercent:     s.AnnualRatePercent.StringFixed(2),
		BaselineEMI:           s.BaselineEMI.StringFixed(2),
		TotalPrincipal:        s.TotalPrincipal.StringFixed(2),
		TotalInterest:         s.TotalInterest.StringFixed(2),
		TotalInsurance:        s.TotalInsurance.StringFixed(2),
		TotalFees:             s.TotalFees.StringFixed(2),
		TotalPenalty:          s.TotalPenalty.StringFixed(2),
		TotalAmountDue:        s.TotalAmountDue.StringFixed(2),
		PenalizedInstallments: penalized,
	}
}

type ChartPointResponse struct {
	Sequence  int    `json:"sequence"`
	Principal string `json:"principal"`
	Interest  string `json:"interest"`
	Penalty   string `json:"penalty"`
}

func NewChartResponse(points []amortization.ChartPoint) []ChartPointResponse {
	resp := make([]ChartPointResponse, len(points))
	for i, p := range points {
		resp[i] = ChartPointResponse{
			Sequence:  p.Sequence,
			Principal: p.Principal.StringFixed(2),
			Interest:  p.Interest.StringFixed(2),
			Penalty:   p.Penalty.StringFixed(2),
		}
	}
	return resp
}

type ForecastResponse struct {
	ID          string                `json:"id,omitempty"`
	Fingerprint string                `json:"fingerprint"`
	CreatedAt   *time.Time            `json:"createdAt,omitempty"`
	Input       LoanRequest           `json:"input"`
	Summary     SummaryResponse       `json:"summary"`
	Schedule    []InstallmentResponse `json:"schedule,omitempty"`
}

func NewForecastResponse(f *forecast.Forecast) ForecastResponse {
	if f == nil {
		return ForecastResponse{}
	}
	resp := ForecastResponse{
		Fingerprint: f.Fingerprint,
		Input:       NewLoanRequest(f.Input),
		Summary:     NewSummaryResponse(f.Summary),
	}
	if f.ID != 0 {
		resp.ID = strconv.FormatInt(f.ID, 10)
	}
	if !f.CreatedAt.IsZero() {
		createdAt := f.CreatedAt
		resp.CreatedAt = &createdAt
	}
	if len(f.Rows) > 0 {
		resp.Schedule = NewScheduleResponse(f.Rows)
	}
	return resp
}

type ReportResponse struct {
	ForecastID  string `json:"forecastId"`
	Provider    string `json:"provider"`
	Available   bool   `json:"available"`
	Cached      bool   `json:"cached"`
	Fingerprint string `json:"fingerprint"`
	Text        string `json:"text"`
}

func NewReportResponse(forecastID int64, res *report.Result) ReportResponse {
	return ReportResponse{
		ForecastID:  strconv.FormatInt(forecastID, 10),
		Provider:    res.Provider,
		Available:   res.Available,
		Cached:      res.Cached,
		Fingerprint: res.Fingerprint,
		Text:        res.Text,
	}
}

type TokenRequest struct {
	Username string `json:"username" example:"analyst"`
	APIKey   string `json:"apiKey,omitempty"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ErrorDetail struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
