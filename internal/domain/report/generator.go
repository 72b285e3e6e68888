package report

import (
	"context"
	"fmt"
	"strings"

	"loan-forecast/internal/domain/amortization"

	"github.com/shopspring/decimal"
)

// Generator turns a computed schedule into advisory text.
type Generator interface {
	Name() string
	Generate(ctx context.Context, rows []amortization.InstallmentRow) (string, error)
}

// TemplateGenerator writes a deterministic report from the schedule totals.
// It needs no network access and is the default provider.
type TemplateGenerator struct{}

var _ Generator = TemplateGenerator{}

func (TemplateGenerator) Name() string { return "template" }

func (TemplateGenerator) Generate(_ context.Context, rows []amortization.InstallmentRow) (string, error) {
	s := amortization.Summarize(rows)
	var b strings.Builder

	b.WriteString("1. Summary of total principal, interest, and penalty:\n\n")
	fmt.Fprintf(&b, "- Total Principal: %s\n", money(s.TotalPrincipal))
	fmt.Fprintf(&b, "- Total Interest: %s\n", money(s.TotalInterest))
	fmt.Fprintf(&b, "- Total Penalty: %s\n", money(s.TotalPenalty))
	if s.TotalInsurance.IsPositive() {
		fmt.Fprintf(&b, "- Total Insurance: %s\n", money(s.TotalInsurance))
	}
	if s.TotalFees.IsPositive() {
		fmt.Fprintf(&b, "- Total Fees: %s\n", money(s.TotalFees))
	}
	fmt.Fprintf(&b, "- Total Amount Due: %s\n", money(s.TotalAmountDue))

	b.WriteString("\n2. Identify any patterns:\n\n")
	writePatterns(&b, rows, s)

	b.WriteString("\n3. Provide tips to optimize repayment:\n\n")
	writeTips(&b, s)

	return b.String(), nil
}

func writePatterns(b *strings.Builder, rows []amortization.InstallmentRow, s amortization.Summary) {
	if s.Installments == 0 {
		b.WriteString("- The schedule has no payable installments.\n")
		return
	}

	switch {
	case s.TotalInterest.IsZero():
		b.WriteString("- No interest is charged, so every installment repays principal only.\n")
	case s.Installments > 1 && rows[1].Interest.LessThan(rows[0].Interest):
		b.WriteString("- Interest falls with each installment as the outstanding balance shrinks, so a growing share of every payment goes to principal.\n")
	default:
		b.WriteString("- Interest stays flat across installments because it is charged on the original financed amount.\n")
	}

	if s.ClosedEarly {
		fmt.Fprintf(b, "- The loan closes early after %d installment(s).\n", s.Installments)
	}

	if n := len(s.PenalizedInstallments); n > 0 {
		fmt.Fprintf(b, "- Penalties apply to installment(s) %s, adding %s to the total cost.\n",
			joinInts(s.PenalizedInstallments), money(s.TotalPenalty))
	} else {
		b.WriteString("- No late-payment penalties are recorded.\n")
	}
}

func writeTips(b *strings.Builder, s amortization.Summary) {
	if len(s.PenalizedInstallments) > 0 {
		b.WriteString("- Pay on or before each due date to avoid the penalties recorded above.\n")
	}
	if s.TotalInterest.IsPositive() {
		b.WriteString("- Extra payments early in the term reduce the principal faster and lower the total interest paid.\n")
		b.WriteString("- Review the rate periodically and consider refinancing if a lower rate becomes available.\n")
	}
	if !s.ClosedEarly && s.Installments > 1 {
		b.WriteString("- A full prepayment once savings allow would close the loan and stop further interest.\n")
	}
	if s.TotalInterest.IsZero() && len(s.PenalizedInstallments) == 0 {
		b.WriteString("- Keep to the schedule; there is no interest to save on this plan.\n")
	}
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("#%d", x)
	}
	return strings.Join(parts, ", ")
}
