package checkout

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/checkout-otel-demo/internal/domain"
)

type fakePublisher struct {
	key   string
	event any
	err   error
}

func (p *fakePublisher) Publish(_ context.Context, key string, event any) error {
	p.key = key
	p.event = event
	return p.err
}

func sampleReceipt() domain.Receipt {
	return domain.Receipt{
		CheckoutID:   "chk-1",
		CustomerID:   "cust-1",
		CustomerName: "John",
		Lines: []domain.ReceiptLine{
			{ProductID: "p-1", Name: "Cheese", Quantity: 2, LineTotal: dec("200")},
			{ProductID: "p-2", Name: "TV", Quantity: 1, LineTotal: dec("500")},
		},
		Subtotal:     dec("600"),
		Shipping:     dec("231"),
		Amount:       dec("831"),
		BalanceAfter: dec("1169"),
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestLogSink_Emit(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, sink.Emit(context.Background(), sampleReceipt()))

	out := buf.String()
	assert.Contains(t, out, `msg="receipt line" checkout_id=chk-1 quantity=2 name=Cheese line_total=200`)
	assert.Contains(t, out, `msg="receipt line" checkout_id=chk-1 quantity=1 name=TV line_total=500`)
	assert.Contains(t, out, `msg="checkout receipt" checkout_id=chk-1 customer=John subtotal=600 shipping=231 amount=831 balance_after=1169`)
}

func TestPublishSink_Emit(t *testing.T) {
	t.Run("publishes a completed event keyed by checkout id", func(t *testing.T) {
		publisher := &fakePublisher{}
		sink := NewPublishSink(publisher)
		receipt := sampleReceipt()

		require.NoError(t, sink.Emit(context.Background(), receipt))

		assert.Equal(t, "chk-1", publisher.key)
		event, ok := publisher.event.(domain.CheckoutCompletedEvent)
		require.True(t, ok)
		assert.Equal(t, receipt.CheckoutID, event.Receipt.CheckoutID)
		assert.True(t, event.Receipt.Amount.Equal(decimal.NewFromInt(831)))
		assert.Len(t, event.Receipt.Lines, 2)
		assert.False(t, event.Timestamp.IsZero())
	})

	t.Run("returns publisher errors", func(t *testing.T) {
		publisher := &fakePublisher{err: errors.New("broker unavailable")}
		sink := NewPublishSink(publisher)

		err := sink.Emit(context.Background(), sampleReceipt())
		require.EqualError(t, err, "broker unavailable")
	})
}
