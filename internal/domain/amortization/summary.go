package amortization

import "github.com/shopspring/decimal"

type Summary struct {
	Installments          int
	ClosedEarly           bool
	AnnualRatePercent     decimal.Decimal
	BaselineEMI           decimal.Decimal
	TotalPrincipal        decimal.Decimal
	TotalInterest         decimal.Decimal
	TotalInsurance        decimal.Decimal
	TotalFees             decimal.Decimal
	TotalPenalty          decimal.Decimal
	TotalAmountDue        decimal.Decimal
	PenalizedInstallments []int
}

// ChartPoint is one stacked column of the repayment chart.
type ChartPoint struct {
	Sequence  int
	Principal decimal.Decimal
	Interest  decimal.Decimal
	Penalty   decimal.Decimal
}

func Summarize(rows []InstallmentRow) Summary {
	s := Summary{
		TotalPrincipal:        decimal.Zero,
		TotalInterest:         decimal.Zero,
		TotalInsurance:        decimal.Zero,
		TotalFees:             decimal.Zero,
		TotalPenalty:          decimal.Zero,
		TotalAmountDue:        decimal.Zero,
		PenalizedInstallments: []int{},
	}

	for _, row := range rows {
		if row.EarlyClosure {
			s.ClosedEarly = true
			continue
		}
		s.Installments++
		s.AnnualRatePercent = row.AnnualRatePercent
		s.BaselineEMI = row.BaselineEMI
		s.TotalPrincipal = s.TotalPrincipal.Add(row.Principal)
		s.TotalInterest = s.TotalInterest.Add(row.Interest)
		s.TotalInsurance = s.TotalInsurance.Add(row.Insurance)
		s.TotalFees = s.TotalFees.Add(row.Fees)
		s.TotalPenalty = s.TotalPenalty.Add(row.Penalty)
		s.TotalAmountDue = s.TotalAmountDue.Add(row.AmountDue)
		if row.Penalty.IsPositive() {
			s.PenalizedInstallments = append(s.PenalizedInstallments, row.Sequence)
		}
	}

	return s
}

func ChartSeries(rows []InstallmentRow) []ChartPoint {
	points := make([]ChartPoint, 0, len(rows))
	for _, row := range rows {
		if row.EarlyClosure {
			continue
		}
		points = append(points, ChartPoint{
			Sequence:  row.Sequence,
			Principal: row.Principal,
			Interest:  row.Interest,
			Penalty:   row.Penalty,
		})
	}
	return points
}
