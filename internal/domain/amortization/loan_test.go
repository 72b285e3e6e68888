package amortization

import (
	"errors"
	"testing"
	"time"

	"loan-forecast/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoanInputValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *LoanInput)
		field  string
	}{
		{"negative principal", func(in *LoanInput) { in.Principal = decimal.NewFromInt(-1) }, "principal"},
		{"principal above maximum", func(in *LoanInput) { in.Principal = MaxPrincipal.Add(decimal.NewFromInt(1)) }, "principal"},
		{"negative down payment", func(in *LoanInput) { in.DownPayment = decimal.NewFromInt(-1) }, "downPayment"},
		{"down payment above principal", func(in *LoanInput) { in.DownPayment = decimal.NewFromInt(200_000) }, "downPayment"},
		{"zero tenure", func(in *LoanInput) { in.TenureMonths = 0 }, "tenureMonths"},
		{"tenure too long", func(in *LoanInput) { in.TenureMonths = MaxTenureMonths + 1 }, "tenureMonths"},
		{"missing start date", func(in *LoanInput) { in.StartDate = time.Time{} }, "startDate"},
		{"unknown rate mode", func(in *LoanInput) { in.RateMode = "FLOATING" }, "interestRateMode"},
		{"negative manual rate", func(in *LoanInput) {
			in.RateMode = RateModeManual
			in.ManualAnnualRatePercent = decimal.NewFromInt(-2)
		}, "manualAnnualRatePercent"},
		{"manual rate above maximum", func(in *LoanInput) {
			in.RateMode = RateModeManual
			in.ManualAnnualRatePercent = decimal.NewFromInt(5000)
		}, "manualAnnualRatePercent"},
		{"unknown accrual method", func(in *LoanInput) { in.AccrualMethod = "COMPOUND" }, "interestAccrualMethod"},
		{"unknown asset type", func(in *LoanInput) { in.AssetType = "BOAT_LOAN" }, "assetType"},
		{"negative insurance rate", func(in *LoanInput) {
			in.Insurance = Insurance{Enabled: true, AnnualRatePercent: decimal.NewFromInt(-1)}
		}, "insurance.annualRatePercent"},
		{"negative fee", func(in *LoanInput) {
			in.CustomFees = []Fee{{Name: "processing", Amount: decimal.NewFromInt(-5)}}
		}, "customFees[0].amount"},
		{"negative scenario offset", func(in *LoanInput) {
			in.Scenarios = []ScenarioRule{FullPrepayment(-1)}
		}, "prepaymentScenarios[0].afterInstallment"},
		{"negative extra count", func(in *LoanInput) {
			in.Scenarios = []ScenarioRule{ExtraPayment(1, -1, decimal.NewFromInt(5))}
		}, "prepaymentScenarios[0].count"},
		{"negative extra percent", func(in *LoanInput) {
			in.Scenarios = []ScenarioRule{ExtraPayment(1, 2, decimal.NewFromInt(-5))}
		}, "prepaymentScenarios[0].extraPercent"},
		{"unknown scenario", func(in *LoanInput) {
			in.Scenarios = []ScenarioRule{{Kind: "REFINANCE"}}
		}, "prepaymentScenarios[0].type"},
		{"penalty on installment zero", func(in *LoanInput) {
			in.Penalties = map[int]Penalty{0: {DaysLate: 1, RatePercent: decimal.NewFromInt(1), Base: PenaltyBasePrincipal}}
		}, "penalties[0].installmentNo"},
		{"negative days late", func(in *LoanInput) {
			in.Penalties = map[int]Penalty{2: {DaysLate: -1, RatePercent: decimal.NewFromInt(1), Base: PenaltyBasePrincipal}}
		}, "penalties[2].daysLate"},
		{"unknown penalty base", func(in *LoanInput) {
			in.Penalties = map[int]Penalty{2: {DaysLate: 1, RatePercent: decimal.NewFromInt(1), Base: "BALANCE"}}
		}, "penalties[2].base"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			tt.mutate(&in)

			err := in.Validate()

			assert.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidation))
			var validationErr *apperrors.ValidationError
			if assert.True(t, errors.As(err, &validationErr)) {
				assert.Equal(t, tt.field, validationErr.Field)
			}
		})
	}

	t.Run("accepts a fully configured input", func(t *testing.T) {
		in := baseInput()
		in.DownPayment = decimal.NewFromInt(10_000)
		in.Insurance = Insurance{Enabled: true, AnnualRatePercent: decimal.NewFromFloat(0.5)}
		in.CustomFees = []Fee{{Name: "processing", Amount: decimal.NewFromInt(100)}}
		in.Scenarios = []ScenarioRule{ExtraPayment(2, 3, decimal.NewFromInt(10)), FullPrepayment(8)}
		in.Penalties = map[int]Penalty{5: {DaysLate: 3, RatePercent: decimal.NewFromInt(2), Base: PenaltyBasePrincipalPlusInterest}}

		assert.NoError(t, in.Validate())
	})

	t.Run("accepts an empty asset type", func(t *testing.T) {
		in := baseInput()
		in.AssetType = ""

		assert.NoError(t, in.Validate())
	})
}

func TestLoanInputAmounts(t *testing.T) {
	in := baseInput()
	in.DownPayment = decimal.NewFromInt(25_000)
	in.CustomFees = []Fee{
		{Name: "a", Amount: decimal.NewFromFloat(10.25)},
		{Name: "b", Amount: decimal.NewFromFloat(4.75)},
	}

	assert.True(t, in.FinancedAmount().Equal(decimal.NewFromInt(75_000)))
	assert.True(t, in.TotalFees().Equal(decimal.NewFromInt(15)))
}
