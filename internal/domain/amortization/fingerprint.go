package amortization

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint identifies a schedule by content. Two schedules with equal rows
// share a fingerprint regardless of the input that produced them.
func Fingerprint(rows []InstallmentRow) string {
	d := xxhash.New()
	for _, row := range rows {
		d.WriteString(strconv.Itoa(row.Sequence))
		d.WriteString("|")
		if !row.DueDate.IsZero() {
			d.WriteString(row.DueDate.Format("2006-01-02"))
		}
		for _, v := range []string{
			row.AnnualRatePercent.String(),
			row.Principal.String(),
			row.Interest.String(),
			row.Insurance.String(),
			row.Fees.String(),
			row.AmountDue.String(),
			row.EndingBalance.String(),
			row.Penalty.String(),
			strconv.Itoa(row.PenaltyDaysLate),
			row.Note,
		} {
			d.WriteString("|")
			d.WriteString(v)
		}
		d.WriteString("\n")
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
