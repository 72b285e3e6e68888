package amortization

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	t.Run("is stable for identical inputs", func(t *testing.T) {
		assert.Equal(t, Fingerprint(Compute(baseInput())), Fingerprint(Compute(baseInput())))
	})

	t.Run("changes with the schedule", func(t *testing.T) {
		other := baseInput()
		other.Penalties = map[int]Penalty{2: {DaysLate: 1, RatePercent: decimal.NewFromInt(1), Base: PenaltyBasePrincipal}}

		assert.NotEqual(t, Fingerprint(Compute(baseInput())), Fingerprint(Compute(other)))
	})

	t.Run("handles empty schedules", func(t *testing.T) {
		assert.NotEmpty(t, Fingerprint(nil))
	})
}
