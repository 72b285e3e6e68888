package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

type ForecastCreatedEvent struct {
	ForecastID     int64           `json:"forecastId"`
	FinancedAmount decimal.Decimal `json:"financedAmount"`
	TenureMonths   int             `json:"tenureMonths"`
	Installments   int             `json:"installments"`
	ClosedEarly    bool            `json:"closedEarly"`
	TotalAmountDue decimal.Decimal `json:"totalAmountDue"`
	Timestamp      time.Time       `json:"timestamp"`
}

// NoopEventPublisher stands in when no broker is configured.
type NoopEventPublisher struct {
	logger *slog.Logger
}

var _ EventPublisher = (*NoopEventPublisher)(nil)

func NewNoopEventPublisher(logger *slog.Logger) *NoopEventPublisher {
	return &NoopEventPublisher{logger: logger.With("component", "NoopEventPublisher")}
}

func (p *NoopEventPublisher) PublishForecastCreated(ctx context.Context, event ForecastCreatedEvent) error {
	p.logger.DebugContext(ctx, "Dropping event, publisher disabled",
		"routingKey", routingKeyForecastCreated, "forecastId", event.ForecastID)
	return nil
}
