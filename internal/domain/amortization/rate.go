package amortization

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	// workingPlaces bounds the scale of intermediate amounts; decimal
	// multiplication is exact and would otherwise grow every period.
	workingPlaces = 10

	// powPlaces is the scale kept while raising (1+r) to the tenure in decimal.
	powPlaces = 28

	minFloatRate = 1e-9
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)

	autoRateShortTerm  = decimal.NewFromInt(5)
	autoRateMediumTerm = decimal.NewFromInt(8)
	autoRateLongTerm   = decimal.NewFromInt(10)

	// closeEpsilon is the balance below which a loan counts as repaid.
	closeEpsilon = decimal.NewFromFloat(0.01)
)

// ResolveAnnualRate returns the annual rate in percent for the given input.
// In auto mode the rate steps with tenure: up to 12 months 5%, up to 60 months 8%,
// otherwise 10%.
func ResolveAnnualRate(in LoanInput) decimal.Decimal {
	if !in.ApplyInterest {
		return decimal.Zero
	}
	if in.RateMode == RateModeManual {
		return in.ManualAnnualRatePercent
	}
	switch {
	case in.TenureMonths <= 12:
		return autoRateShortTerm
	case in.TenureMonths <= 60:
		return autoRateMediumTerm
	default:
		return autoRateLongTerm
	}
}

func MonthlyRate(annualRatePercent decimal.Decimal) decimal.Decimal {
	return annualRatePercent.Div(hundred).Div(twelve)
}

// BaselineEMI is the fixed annuity installment P*r*(1+r)^n / ((1+r)^n - 1),
// or P/n when the rate is zero. The power is taken in float64 and the factor
// converted back to decimal; for rates where 1+r loses precision in float64,
// or when the power overflows, the factor is computed in decimal.
func BaselineEMI(financed, monthlyRate decimal.Decimal, tenureMonths int) decimal.Decimal {
	if tenureMonths < 1 {
		return decimal.Zero
	}
	if monthlyRate.IsZero() {
		return financed.Div(decimal.NewFromInt(int64(tenureMonths))).Round(workingPlaces)
	}

	r := monthlyRate.InexactFloat64()
	if r < minFloatRate {
		return decimalEMI(financed, monthlyRate, tenureMonths)
	}
	growth := math.Pow(1+r, float64(tenureMonths))
	factor := r * growth / (growth - 1)
	if math.IsNaN(factor) || math.IsInf(factor, 0) || factor <= 0 {
		return decimalEMI(financed, monthlyRate, tenureMonths)
	}

	return financed.Mul(decimal.NewFromFloat(factor)).Round(workingPlaces)
}

func decimalEMI(financed, monthlyRate decimal.Decimal, tenureMonths int) decimal.Decimal {
	growth := powRounded(one.Add(monthlyRate), tenureMonths)
	denominator := growth.Sub(one)
	if !denominator.IsPositive() {
		return financed.Div(decimal.NewFromInt(int64(tenureMonths))).Round(workingPlaces)
	}
	factor := monthlyRate.Mul(growth).DivRound(denominator, powPlaces)
	return financed.Mul(factor).Round(workingPlaces)
}

// powRounded raises base to n by squaring, rounding each step to powPlaces.
func powRounded(base decimal.Decimal, n int) decimal.Decimal {
	result := one
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base).Round(powPlaces)
		}
		n >>= 1
		if n > 0 {
			base = base.Mul(base).Round(powPlaces)
		}
	}
	return result
}
