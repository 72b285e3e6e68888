package amortization

import (
	"fmt"
	"time"

	"loan-forecast/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

const (
	MaxTenureMonths = 600
	DefaultTenure   = 12
)

var (
	MaxPrincipal               = decimal.New(1, 12)
	MaxManualAnnualRatePercent = decimal.NewFromInt(1000)
)

type RateMode string

const (
	RateModeAuto   RateMode = "AUTO"
	RateModeManual RateMode = "MANUAL"
)

type AccrualMethod string

const (
	AccrualReducing AccrualMethod = "REDUCING"
	AccrualFixed    AccrualMethod = "FIXED"
)

type PenaltyBase string

const (
	PenaltyBasePrincipal             PenaltyBase = "PRINCIPAL"
	PenaltyBasePrincipalPlusInterest PenaltyBase = "PRINCIPAL_PLUS_INTEREST"
)

type AssetType string

const (
	AssetHouseLoan        AssetType = "HOUSE_LOAN"
	AssetCarLoan          AssetType = "CAR_LOAN"
	AssetPersonalLoan     AssetType = "PERSONAL_LOAN"
	AssetEquipmentFinance AssetType = "EQUIPMENT_FINANCE"
)

type ScenarioKind string

const (
	ScenarioFullPrepayment ScenarioKind = "FULL_PREPAYMENT"
	ScenarioExtraPayment   ScenarioKind = "EXTRA_PAYMENT"
)

// ScenarioRule is either a full prepayment or a temporary extra payment,
// distinguished by Kind. Count and ExtraPercent are ignored for full prepayments.
type ScenarioRule struct {
	Kind             ScenarioKind
	AfterInstallment int
	Count            int
	ExtraPercent     decimal.Decimal
}

func FullPrepayment(afterInstallment int) ScenarioRule {
	return ScenarioRule{Kind: ScenarioFullPrepayment, AfterInstallment: afterInstallment}
}

func ExtraPayment(afterInstallment, count int, extraPercent decimal.Decimal) ScenarioRule {
	return ScenarioRule{
		Kind:             ScenarioExtraPayment,
		AfterInstallment: afterInstallment,
		Count:            count,
		ExtraPercent:     extraPercent,
	}
}

type Fee struct {
	Name   string
	Amount decimal.Decimal
}

type Insurance struct {
	Enabled           bool
	AnnualRatePercent decimal.Decimal
}

type Penalty struct {
	DaysLate    int
	RatePercent decimal.Decimal
	Base        PenaltyBase
}

// LoanInput is the complete configuration of one schedule computation.
// Penalties are keyed by installment number.
type LoanInput struct {
	AssetType               AssetType
	Principal               decimal.Decimal
	DownPayment             decimal.Decimal
	TenureMonths            int
	ApplyInterest           bool
	RateMode                RateMode
	ManualAnnualRatePercent decimal.Decimal
	AccrualMethod           AccrualMethod
	StartDate               time.Time
	Insurance               Insurance
	CustomFees              []Fee
	Scenarios               []ScenarioRule
	Penalties               map[int]Penalty
}

func (in LoanInput) FinancedAmount() decimal.Decimal {
	return in.Principal.Sub(in.DownPayment)
}

func (in LoanInput) TotalFees() decimal.Decimal {
	total := decimal.Zero
	for _, f := range in.CustomFees {
		total = total.Add(f.Amount)
	}
	return total
}

func (in LoanInput) Validate() error {
	if in.Principal.IsNegative() {
		return apperrors.NewValidationError("principal", "must not be negative")
	}
	if in.Principal.GreaterThan(MaxPrincipal) {
		return apperrors.NewValidationError("principal", fmt.Sprintf("must not exceed %s", MaxPrincipal.String()))
	}
	if in.DownPayment.IsNegative() {
		return apperrors.NewValidationError("downPayment", "must not be negative")
	}
	if in.FinancedAmount().IsNegative() {
		return apperrors.NewValidationError("downPayment", "must not exceed principal")
	}
	if in.TenureMonths < 1 || in.TenureMonths > MaxTenureMonths {
		return apperrors.NewValidationError("tenureMonths", fmt.Sprintf("must be between 1 and %d", MaxTenureMonths))
	}
	if in.StartDate.IsZero() {
		return apperrors.NewValidationError("startDate", "is required")
	}

	switch in.RateMode {
	case RateModeAuto:
	case RateModeManual:
		if in.ManualAnnualRatePercent.IsNegative() {
			return apperrors.NewValidationError("manualAnnualRatePercent", "must not be negative")
		}
		if in.ManualAnnualRatePercent.GreaterThan(MaxManualAnnualRatePercent) {
			return apperrors.NewValidationError("manualAnnualRatePercent",
				fmt.Sprintf("must not exceed %s", MaxManualAnnualRatePercent.String()))
		}
	default:
		return apperrors.NewValidationError("interestRateMode", fmt.Sprintf("unknown mode %q", in.RateMode))
	}

	switch in.AccrualMethod {
	case AccrualReducing, AccrualFixed:
	default:
		return apperrors.NewValidationError("interestAccrualMethod", fmt.Sprintf("unknown method %q", in.AccrualMethod))
	}

	switch in.AssetType {
	case "", AssetHouseLoan, AssetCarLoan, AssetPersonalLoan, AssetEquipmentFinance:
	default:
		return apperrors.NewValidationError("assetType", fmt.Sprintf("unknown asset type %q", in.AssetType))
	}

	if in.Insurance.Enabled && in.Insurance.AnnualRatePercent.IsNegative() {
		return apperrors.NewValidationError("insurance.annualRatePercent", "must not be negative")
	}

	for i, f := range in.CustomFees {
		if f.Amount.IsNegative() {
			return apperrors.NewValidationError(fmt.Sprintf("customFees[%d].amount", i), "must not be negative")
		}
	}

	for i, sc := range in.Scenarios {
		field := fmt.Sprintf("prepaymentScenarios[%d]", i)
		if sc.AfterInstallment < 0 {
			return apperrors.NewValidationError(field+".afterInstallment", "must not be negative")
		}
		switch sc.Kind {
		case ScenarioFullPrepayment:
		case ScenarioExtraPayment:
			if sc.Count < 0 {
				return apperrors.NewValidationError(field+".count", "must not be negative")
			}
			if sc.ExtraPercent.IsNegative() {
				return apperrors.NewValidationError(field+".extraPercent", "must not be negative")
			}
		default:
			return apperrors.NewValidationError(field+".type", fmt.Sprintf("unknown scenario %q", sc.Kind))
		}
	}

	for installment, p := range in.Penalties {
		field := fmt.Sprintf("penalties[%d]", installment)
		if installment < 1 {
			return apperrors.NewValidationError(field+".installmentNo", "must be at least 1")
		}
		if p.DaysLate < 0 {
			return apperrors.NewValidationError(field+".daysLate", "must not be negative")
		}
		if p.RatePercent.IsNegative() {
			return apperrors.NewValidationError(field+".ratePercent", "must not be negative")
		}
		switch p.Base {
		case PenaltyBasePrincipal, PenaltyBasePrincipalPlusInterest:
		default:
			return apperrors.NewValidationError(field+".base", fmt.Sprintf("unknown penalty base %q", p.Base))
		}
	}

	return nil
}
