package shipping

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultRatePerKg is the fee charged per kilogram of package weight.
var DefaultRatePerKg = decimal.NewFromInt(15)

// Item is one shippable cart line. Weight is the weight of the whole line.
type Item struct {
	Name   string
	Weight decimal.Decimal
}

type Service struct {
	ratePerKg decimal.Decimal
	tracer    trace.Tracer
	logger    *slog.Logger
}

type Option func(*Service)

func WithRatePerKg(rate decimal.Decimal) Option {
	return func(s *Service) {
		s.ratePerKg = rate
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		s.tracer = tp.Tracer("shipping")
	}
}

func NewService(logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		ratePerKg: DefaultRatePerKg,
		tracer:    otel.Tracer("shipping"),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) RatePerKg() decimal.Decimal {
	return s.ratePerKg
}

func (s *Service) CalculateFee(items []Item) decimal.Decimal {
	if len(items) == 0 {
		return decimal.Zero
	}
	return totalWeight(items).Mul(s.ratePerKg)
}

// Ship logs a shipment notice for items and returns the shipping fee.
func (s *Service) Ship(ctx context.Context, items []Item) decimal.Decimal {
	if len(items) == 0 {
		return decimal.Zero
	}

	ctx, span := s.tracer.Start(ctx, "shipping.ship")
	defer span.End()

	for _, item := range items {
		s.logger.InfoContext(ctx, "shipment item", "name", item.Name, "weight_kg", item.Weight.String())
	}

	weight := totalWeight(items)
	s.logger.InfoContext(ctx, "shipment notice", "items", len(items), "total_weight_kg", weight.String())

	fee := s.CalculateFee(items)
	span.SetAttributes(
		attribute.Int("shipping.items", len(items)),
		attribute.String("shipping.total_weight_kg", weight.String()),
		attribute.String("shipping.fee", fee.String()),
	)
	return fee
}

func totalWeight(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Weight)
	}
	return total
}
