//go:build integration

package test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/checkout-otel-demo/internal/cart"
	"github.com/joao-fontenele/checkout-otel-demo/internal/checkout"
	"github.com/joao-fontenele/checkout-otel-demo/internal/domain"
	"github.com/joao-fontenele/checkout-otel-demo/internal/inventory"
	"github.com/joao-fontenele/checkout-otel-demo/internal/messaging"
	"github.com/joao-fontenele/checkout-otel-demo/internal/receipts"
	"github.com/joao-fontenele/checkout-otel-demo/internal/shipping"
)

func TestKafkaConnection(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	brokers, cleanup := SetupKafka(ctx, t)
	defer cleanup()

	if len(brokers) == 0 {
		t.Fatal("expected at least one broker")
	}

	t.Logf("kafka brokers: %v", brokers)
}

func TestCheckoutReceiptFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	brokers, cleanup := SetupKafka(ctx, t)
	defer cleanup()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	topic := messaging.ReceiptsTopic

	producer := messaging.NewProducer(brokers, topic, messaging.WithBatchTimeout(10*time.Millisecond))
	defer func() { _ = producer.Close() }()

	store := inventory.NewStore()
	tv, err := domain.NewShippableProduct("TV", decimal.NewFromInt(500), 5, decimal.NewFromInt(15))
	if err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	if err := store.Add(tv); err != nil {
		t.Fatalf("failed to register product: %v", err)
	}

	svc, err := checkout.NewService(shipping.NewService(logger), logger,
		checkout.WithReceiptSinks(checkout.NewPublishSink(producer)),
	)
	if err != nil {
		t.Fatalf("failed to create checkout service: %v", err)
	}

	customer := domain.NewCustomer("John", decimal.NewFromInt(2000))
	c := cart.New(store)
	if err := c.Add(tv.ID, 2); err != nil {
		t.Fatalf("failed to add to cart: %v", err)
	}

	result := svc.ProcessCheckout(ctx, customer, c)
	if !result.Success {
		t.Fatalf("expected checkout to succeed, got error: %s", result.Error)
	}

	consumer := messaging.NewConsumer(brokers, topic, "receipt-log-test", messaging.WithStartOffset(kafka.FirstOffset))
	defer func() { _ = consumer.Close() }()

	handler := receipts.NewHandler(logger)
	consumeCtx, stop := context.WithTimeout(ctx, time.Minute)
	defer stop()

	err = consumer.Consume(consumeCtx, func(ctx context.Context, payload []byte) error {
		if err := handler.Handle(ctx, payload); err != nil {
			return err
		}
		stop()
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("consume failed: %v", err)
	}

	totals := handler.Totals()
	if totals.Checkouts != 1 {
		t.Fatalf("expected 1 checkout, got %d", totals.Checkouts)
	}
	if totals.Units != 2 {
		t.Fatalf("expected 2 units, got %d", totals.Units)
	}
	if !totals.Revenue.Equal(result.PaidAmount) {
		t.Fatalf("expected revenue %s, got %s", result.PaidAmount, totals.Revenue)
	}
}
