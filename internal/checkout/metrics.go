package checkout

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/joao-fontenele/checkout-otel-demo/internal/domain"
)

const meterName = "github.com/joao-fontenele/checkout-otel-demo/internal/checkout"

type Metrics struct {
	attempts   metric.Int64Counter
	paidAmount metric.Float64Histogram
}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)

	attempts, err := meter.Int64Counter("checkout.attempts",
		metric.WithDescription("Checkouts processed, by outcome."),
	)
	if err != nil {
		return nil, err
	}

	paidAmount, err := meter.Float64Histogram("checkout.paid_amount",
		metric.WithDescription("Amount charged by successful checkouts."),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{attempts: attempts, paidAmount: paidAmount}, nil
}

func (m *Metrics) Record(ctx context.Context, result domain.CheckoutResult) {
	outcome := "success"
	if !result.Success {
		outcome = "failure"
	}
	m.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))

	if result.Success {
		m.paidAmount.Record(ctx, result.PaidAmount.InexactFloat64())
	}
}
