package amortization

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const NoNote = "-"

// InstallmentRow is one period of a computed schedule. An EarlyClosure row is
// the synthetic terminal row appended when the loan is repaid before the end
// of its tenure; it carries only Sequence and Note.
type InstallmentRow struct {
	Sequence          int
	DueDate           time.Time
	AnnualRatePercent decimal.Decimal
	Principal         decimal.Decimal
	Interest          decimal.Decimal
	Insurance         decimal.Decimal
	Fees              decimal.Decimal
	AmountDue         decimal.Decimal
	EndingBalance     decimal.Decimal
	PenaltyDaysLate   int
	Penalty           decimal.Decimal
	BaselineEMI       decimal.Decimal
	AdjustedEMI       decimal.NullDecimal
	Note              string
	EarlyClosure      bool
}

// Compute simulates the loan month by month and returns its repayment ledger.
// The input is expected to have passed Validate.
func Compute(in LoanInput) []InstallmentRow {
	financed := in.FinancedAmount()
	annualRate := ResolveAnnualRate(in)
	monthlyRate := MonthlyRate(annualRate)
	emi := BaselineEMI(financed, monthlyRate, in.TenureMonths)
	feesTotal := in.TotalFees()

	interestOn := func(balance decimal.Decimal) decimal.Decimal {
		if in.AccrualMethod == AccrualFixed {
			return financed.Mul(monthlyRate).Round(workingPlaces)
		}
		return balance.Mul(monthlyRate).Round(workingPlaces)
	}

	rows := make([]InstallmentRow, 0, in.TenureMonths+1)
	balance := financed

	for i := 1; i <= in.TenureMonths; i++ {
		if !balance.IsPositive() {
			break
		}
		opening := balance

		interest := interestOn(opening)
		scheduled := emi.Sub(interest)
		principal := scheduled

		insurance := decimal.Zero
		if in.Insurance.Enabled {
			insurance = opening.Mul(in.Insurance.AnnualRatePercent).Div(hundred).Div(twelve).Round(workingPlaces)
		}

		fees := decimal.Zero
		if i == 1 {
			fees = feesTotal
		}

		amountDue := emi.Add(insurance).Add(fees)
		adjusted := decimal.NullDecimal{}
		note := ""

		// Rules see the balance as left by earlier rules of the same period,
		// so an extra payment listed after a full prepayment does not match.
		remaining := opening
		for _, sc := range in.Scenarios {
			switch sc.Kind {
			case ScenarioFullPrepayment:
				if i != sc.AfterInstallment+1 || !remaining.IsPositive() {
					continue
				}
				principal = remaining
				interest = interestOn(remaining)
				amountDue = remaining.Add(interest).Add(insurance)
				remaining = decimal.Zero
				note = fmt.Sprintf("Full Prepayment after #%d", sc.AfterInstallment)

			case ScenarioExtraPayment:
				if i <= sc.AfterInstallment || i > sc.AfterInstallment+sc.Count || !remaining.IsPositive() {
					continue
				}
				inflated := emi.Mul(decimal.NewFromInt(1).Add(sc.ExtraPercent.Div(hundred))).Round(workingPlaces)
				principal = scheduled.Add(inflated.Sub(emi))
				amountDue = inflated.Add(insurance)
				if i == 1 {
					amountDue = amountDue.Add(fees)
				}
				adjusted = decimal.NewNullDecimal(inflated)
				note = fmt.Sprintf("Extra +%s%% after #%d (Original: %s -> New: %s)",
					sc.ExtraPercent.String(), sc.AfterInstallment, emi.StringFixed(2), inflated.StringFixed(2))
			}
		}

		if principal.GreaterThan(opening) {
			principal = opening
			interest = emi.Sub(principal)
		}

		penalty, daysLate, penaltyNote := assessPenalty(in.Penalties, i, principal, interest)
		amountDue = amountDue.Add(penalty)
		if note == "" {
			note = penaltyNote
		}
		if note == "" {
			note = NoNote
		}

		balance = opening.Sub(principal)
		if balance.LessThan(closeEpsilon) {
			balance = decimal.Zero
		}

		rows = append(rows, InstallmentRow{
			Sequence:          i,
			DueDate:           in.StartDate.AddDate(0, i, 0),
			AnnualRatePercent: annualRate,
			Principal:         principal,
			Interest:          interest,
			Insurance:         insurance,
			Fees:              fees,
			AmountDue:         amountDue,
			EndingBalance:     balance,
			PenaltyDaysLate:   daysLate,
			Penalty:           penalty,
			BaselineEMI:       emi,
			AdjustedEMI:       adjusted,
			Note:              note,
		})
	}

	if len(rows) < in.TenureMonths {
		rows = append(rows, InstallmentRow{
			Sequence:     len(rows) + 1,
			Note:         fmt.Sprintf("Loan closed early in %d month(s)", len(rows)),
			EarlyClosure: true,
		})
	}

	return rows
}

func assessPenalty(penalties map[int]Penalty, installment int, principal, interest decimal.Decimal) (decimal.Decimal, int, string) {
	p, ok := penalties[installment]
	if !ok {
		return decimal.Zero, 0, ""
	}
	if p.DaysLate <= 0 || !p.RatePercent.IsPositive() {
		return decimal.Zero, p.DaysLate, ""
	}

	base := principal
	if p.Base == PenaltyBasePrincipalPlusInterest {
		base = principal.Add(interest)
	}
	amount := base.Mul(p.RatePercent).Div(hundred).Mul(decimal.NewFromInt(int64(p.DaysLate))).Round(workingPlaces)

	return amount, p.DaysLate, fmt.Sprintf("Penalty %s%%/day x %d day(s)", p.RatePercent.String(), p.DaysLate)
}
