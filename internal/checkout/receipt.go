package checkout

import (
	"context"
	"log/slog"
	"time"

	"github.com/joao-fontenele/checkout-otel-demo/internal/domain"
)

// ReceiptSink receives the receipt of every successful checkout.
type ReceiptSink interface {
	Emit(ctx context.Context, receipt domain.Receipt) error
}

// LogSink writes receipts as structured log lines.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(ctx context.Context, receipt domain.Receipt) error {
	for _, line := range receipt.Lines {
		s.logger.InfoContext(ctx, "receipt line",
			"checkout_id", receipt.CheckoutID,
			"quantity", line.Quantity,
			"name", line.Name,
			"line_total", line.LineTotal.String(),
		)
	}

	s.logger.InfoContext(ctx, "checkout receipt",
		"checkout_id", receipt.CheckoutID,
		"customer", receipt.CustomerName,
		"subtotal", receipt.Subtotal.String(),
		"shipping", receipt.Shipping.String(),
		"amount", receipt.Amount.String(),
		"balance_after", receipt.BalanceAfter.String(),
	)
	return nil
}

// Publisher is satisfied by messaging.Producer.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// PublishSink publishes receipts as CheckoutCompletedEvent messages keyed by
// checkout ID.
type PublishSink struct {
	publisher Publisher
}

func NewPublishSink(publisher Publisher) *PublishSink {
	return &PublishSink{publisher: publisher}
}

func (s *PublishSink) Emit(ctx context.Context, receipt domain.Receipt) error {
	event := domain.CheckoutCompletedEvent{
		Receipt:   receipt,
		Timestamp: time.Now().UTC(),
	}
	return s.publisher.Publish(ctx, receipt.CheckoutID, event)
}
