package forecast

import (
	"encoding/json"
	"fmt"
	"time"

	"loan-forecast/internal/domain/amortization"
)

// Forecast is a computed schedule persisted together with the input that
// produced it. Summary is derived from Rows and never stored on its own.
type Forecast struct {
	ID          int64
	Input       amortization.LoanInput
	Rows        []amortization.InstallmentRow
	Summary     amortization.Summary
	Fingerprint string
	CreatedAt   time.Time
}

func newForecast(in amortization.LoanInput, rows []amortization.InstallmentRow, createdAt time.Time) *Forecast {
	return &Forecast{
		Input:       in,
		Rows:        rows,
		Summary:     amortization.Summarize(rows),
		Fingerprint: amortization.Fingerprint(rows),
		CreatedAt:   createdAt,
	}
}

// EncodeInput serializes a loan input for storage.
func EncodeInput(in amortization.LoanInput) ([]byte, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode loan input: %w", err)
	}
	return b, nil
}

func DecodeInput(b []byte) (amortization.LoanInput, error) {
	var in amortization.LoanInput
	if err := json.Unmarshal(b, &in); err != nil {
		return amortization.LoanInput{}, fmt.Errorf("failed to decode loan input: %w", err)
	}
	return in, nil
}
