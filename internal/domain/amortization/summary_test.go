package amortization

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	t.Run("totals a full schedule", func(t *testing.T) {
		in := baseInput()
		in.CustomFees = []Fee{{Name: "processing", Amount: decimal.NewFromInt(300)}}
		in.Penalties = map[int]Penalty{
			6: {DaysLate: 2, RatePercent: decimal.NewFromInt(1), Base: PenaltyBasePrincipal},
			9: {DaysLate: 1, RatePercent: decimal.NewFromInt(1), Base: PenaltyBasePrincipal},
		}
		rows := Compute(in)

		s := Summarize(rows)

		assert.Equal(t, 12, s.Installments)
		assert.False(t, s.ClosedEarly)
		assert.InDelta(t, 100_000, s.TotalPrincipal.InexactFloat64(), 0.01)
		assert.True(t, s.TotalFees.Equal(decimal.NewFromInt(300)))
		assert.Equal(t, []int{6, 9}, s.PenalizedInstallments)
		assert.True(t, s.TotalPenalty.Equal(rows[5].Penalty.Add(rows[8].Penalty)))

		expectedDue := s.TotalPrincipal.Add(s.TotalInterest).Add(s.TotalInsurance).Add(s.TotalFees).Add(s.TotalPenalty)
		assert.InDelta(t, expectedDue.InexactFloat64(), s.TotalAmountDue.InexactFloat64(), 0.000001)
		assert.Equal(t, "5", s.AnnualRatePercent.String())
	})

	t.Run("marks early closure", func(t *testing.T) {
		in := baseInput()
		in.Scenarios = []ScenarioRule{FullPrepayment(3)}

		s := Summarize(Compute(in))

		assert.Equal(t, 4, s.Installments)
		assert.True(t, s.ClosedEarly)
		assert.InDelta(t, 100_000, s.TotalPrincipal.InexactFloat64(), 0.01)
		assert.Empty(t, s.PenalizedInstallments)
	})
}

func TestChartSeries(t *testing.T) {
	in := baseInput()
	in.Scenarios = []ScenarioRule{FullPrepayment(3)}
	rows := Compute(in)

	points := ChartSeries(rows)

	require.Len(t, points, 4)
	for i, p := range points {
		assert.Equal(t, i+1, p.Sequence)
		assert.True(t, p.Principal.Equal(rows[i].Principal))
		assert.True(t, p.Interest.Equal(rows[i].Interest))
		assert.True(t, p.Penalty.IsZero())
	}
}
