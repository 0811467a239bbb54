package receipts

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/checkout-otel-demo/internal/domain"
	"github.com/joao-fontenele/checkout-otel-demo/internal/messaging"
)

func eventPayload(t *testing.T, checkoutID string) []byte {
	t.Helper()
	event := domain.CheckoutCompletedEvent{
		Receipt: domain.Receipt{
			CheckoutID:   checkoutID,
			CustomerID:   "c-1",
			CustomerName: "John",
			Lines: []domain.ReceiptLine{
				{ProductID: "p-1", Name: "Cheese", Quantity: 2, LineTotal: decimal.NewFromInt(200)},
				{ProductID: "p-2", Name: "TV", Quantity: 1, LineTotal: decimal.NewFromInt(500)},
			},
			Subtotal:     decimal.NewFromInt(600),
			Shipping:     decimal.NewFromInt(231),
			Amount:       decimal.NewFromInt(831),
			BalanceAfter: decimal.NewFromInt(1169),
			CreatedAt:    time.Now().UTC(),
		},
		Timestamp: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return payload
}

func TestHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("tallies receipts and logs their lines", func(t *testing.T) {
		var buf bytes.Buffer
		h := NewHandler(slog.New(slog.NewTextHandler(&buf, nil)))

		require.NoError(t, h.Handle(ctx, eventPayload(t, "a")))
		require.NoError(t, h.Handle(ctx, eventPayload(t, "b")))

		totals := h.Totals()
		assert.Equal(t, 2, totals.Checkouts)
		assert.Equal(t, 6, totals.Units)
		assert.True(t, totals.Revenue.Equal(decimal.NewFromInt(1662)), totals.Revenue.String())
		assert.True(t, totals.Shipping.Equal(decimal.NewFromInt(462)))

		out := buf.String()
		assert.Contains(t, out, `msg="receipt line" checkout_id=a quantity=2 name=Cheese line_total=200`)
		assert.Contains(t, out, `msg="receipt recorded" checkout_id=b`)
	})

	t.Run("counts a redelivered receipt once", func(t *testing.T) {
		h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))
		payload := eventPayload(t, "a")

		require.NoError(t, h.Handle(ctx, payload))
		require.NoError(t, h.Handle(ctx, payload))

		assert.Equal(t, 1, h.Totals().Checkouts)
	})

	t.Run("rejects malformed payloads", func(t *testing.T) {
		h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))

		require.ErrorIs(t, h.Handle(ctx, []byte("not json")), messaging.ErrSkipMessage)

		err := h.Handle(ctx, eventPayload(t, ""))
		require.ErrorIs(t, err, ErrMissingCheckoutID)
		require.ErrorIs(t, err, messaging.ErrSkipMessage)
		assert.Zero(t, h.Totals().Checkouts)
	})

	t.Run("remembers only the most recent checkout ids", func(t *testing.T) {
		h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), WithDedupWindow(2))

		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, h.Handle(ctx, eventPayload(t, id)))
		}
		assert.Len(t, h.seen, 2)

		require.NoError(t, h.Handle(ctx, eventPayload(t, "c")))
		assert.Equal(t, 3, h.Totals().Checkouts)

		require.NoError(t, h.Handle(ctx, eventPayload(t, "a")))
		assert.Equal(t, 4, h.Totals().Checkouts)
		assert.Len(t, h.seen, 2)
	})
}
