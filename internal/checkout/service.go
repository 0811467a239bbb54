package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/checkout-otel-demo/internal/cart"
	"github.com/joao-fontenele/checkout-otel-demo/internal/domain"
	"github.com/joao-fontenele/checkout-otel-demo/internal/inventory"
	"github.com/joao-fontenele/checkout-otel-demo/internal/shipping"
)

const unknownError = "unknown error"

var (
	ErrMissingCustomer = errors.New("customer is required")
	ErrMissingCart     = errors.New("cart is required")
)

type Service struct {
	shipping *shipping.Service
	sinks    []ReceiptSink
	metrics  *Metrics
	tracer   trace.Tracer
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithReceiptSinks(sinks ...ReceiptSink) Option {
	return func(s *Service) {
		s.sinks = append(s.sinks, sinks...)
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		s.tracer = tp.Tracer("checkout")
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(shipper *shipping.Service, logger *slog.Logger, opts ...Option) (*Service, error) {
	s := &Service{
		shipping: shipper,
		tracer:   otel.Tracer("checkout"),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.metrics == nil {
		m, err := NewMetrics(otel.GetMeterProvider())
		if err != nil {
			return nil, fmt.Errorf("create checkout metrics: %w", err)
		}
		s.metrics = m
	}

	return s, nil
}

// ProcessCheckout charges the customer for the cart and takes the purchased
// quantities out of stock. It never returns an error: every failure is
// reported in the result, and nothing is mutated unless the checkout
// succeeds.
func (s *Service) ProcessCheckout(ctx context.Context, customer *domain.Customer, c *cart.Cart) domain.CheckoutResult {
	ctx, span := s.tracer.Start(ctx, "checkout.process")
	defer span.End()

	if customer == nil || c == nil {
		err := ErrMissingCustomer
		balance := decimal.Zero
		if customer != nil {
			err = ErrMissingCart
			balance = customer.Balance()
		}
		result := domain.CheckoutResult{CustomerBalance: balance, Error: err.Error()}
		span.RecordError(err)
		span.SetStatus(codes.Error, result.Error)
		s.logger.WarnContext(ctx, "checkout failed", "error", result.Error)
		s.metrics.Record(ctx, result)
		return result
	}

	span.SetAttributes(
		attribute.String("customer.id", customer.ID),
		attribute.Int("cart.entries", c.Len()),
	)

	result, err := s.process(ctx, customer, c)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, result.Error)
		s.logger.WarnContext(ctx, "checkout failed", "customer_id", customer.ID, "error", result.Error)
	} else {
		s.logger.InfoContext(ctx, "checkout completed",
			"customer_id", customer.ID,
			"paid_amount", result.PaidAmount.String(),
			"balance", result.CustomerBalance.String(),
		)
	}

	span.SetAttributes(
		attribute.Bool("checkout.success", result.Success),
		attribute.String("checkout.subtotal", result.Subtotal.String()),
		attribute.String("checkout.shipping_fees", result.ShippingFees.String()),
	)
	s.metrics.Record(ctx, result)

	return result
}

func (s *Service) process(ctx context.Context, customer *domain.Customer, c *cart.Cart) (domain.CheckoutResult, error) {
	if err := c.Validate(); err != nil {
		return s.failed(customer, err), err
	}

	subtotal, err := c.Subtotal()
	if err != nil {
		return s.failed(customer, err), err
	}

	shippable, err := c.ShippableItems()
	if err != nil {
		return s.failed(customer, err), err
	}

	fees := decimal.Zero
	if len(shippable) > 0 {
		fees = s.shipping.Ship(ctx, shippable)
	}

	total := subtotal.Add(fees)

	if !customer.CanAfford(total) {
		return domain.CheckoutResult{
			Success:         false,
			Subtotal:        subtotal,
			ShippingFees:    fees,
			PaidAmount:      decimal.Zero,
			CustomerBalance: customer.Balance(),
			Error:           domain.ErrInsufficientBalance.Error(),
		}, domain.ErrInsufficientBalance
	}

	lines, err := c.Items()
	if err != nil {
		return s.failed(customer, err), err
	}

	if err := commit(c.Store(), customer, c.StockChanges(), total); err != nil {
		return s.failed(customer, err), err
	}

	receipt := domain.Receipt{
		CheckoutID:   uuid.New().String(),
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		Lines:        receiptLines(lines),
		Subtotal:     subtotal,
		Shipping:     fees,
		Amount:       total,
		BalanceAfter: customer.Balance(),
		CreatedAt:    s.now().UTC(),
	}
	s.emit(ctx, receipt)

	return domain.CheckoutResult{
		Success:         true,
		Subtotal:        subtotal,
		ShippingFees:    fees,
		PaidAmount:      total,
		CustomerBalance: customer.Balance(),
	}, nil
}

// commit takes the stock first so a failed deduction never charges the
// customer.
func commit(store *inventory.Store, customer *domain.Customer, changes []inventory.StockChange, total decimal.Decimal) error {
	if err := store.Deduct(changes); err != nil {
		return err
	}

	if err := customer.Deduct(total); err != nil {
		if restockErr := store.Restock(changes); restockErr != nil {
			return errors.Join(err, fmt.Errorf("restock after failed charge: %w", restockErr))
		}
		return err
	}

	return nil
}

func (s *Service) emit(ctx context.Context, receipt domain.Receipt) {
	for _, sink := range s.sinks {
		if err := sink.Emit(ctx, receipt); err != nil {
			s.logger.ErrorContext(ctx, "failed to emit receipt", "error", err, "checkout_id", receipt.CheckoutID)
		}
	}
}

func (s *Service) failed(customer *domain.Customer, err error) domain.CheckoutResult {
	return domain.CheckoutResult{
		Success:         false,
		Subtotal:        decimal.Zero,
		ShippingFees:    decimal.Zero,
		PaidAmount:      decimal.Zero,
		CustomerBalance: customer.Balance(),
		Error:           errorMessage(err),
	}
}

func errorMessage(err error) string {
	if err == nil || err.Error() == "" {
		return unknownError
	}
	return err.Error()
}

func receiptLines(lines []cart.Line) []domain.ReceiptLine {
	out := make([]domain.ReceiptLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, domain.ReceiptLine{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			LineTotal: line.LineTotal,
		})
	}
	return out
}
