package receipts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/checkout-otel-demo/internal/domain"
	"github.com/joao-fontenele/checkout-otel-demo/internal/messaging"
)

var ErrMissingCheckoutID = errors.New("checkout completed event without checkout id")

// DefaultDedupWindow is how many recent checkout IDs a Handler remembers.
const DefaultDedupWindow = 10000

// Totals is the running tally of receipts seen by a Handler.
type Totals struct {
	Checkouts int             `json:"checkouts"`
	Revenue   decimal.Decimal `json:"revenue"`
	Shipping  decimal.Decimal `json:"shipping"`
	Units     int             `json:"units"`
}

// Handler tallies receipts. Redeliveries are detected against the most
// recent checkout IDs only, so memory stays bounded by the dedup window.
type Handler struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	recent []string
	next   int
	totals Totals
	logger *slog.Logger
}

type Option func(*Handler)

// WithDedupWindow sets how many recent checkout IDs are remembered.
func WithDedupWindow(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.recent = make([]string, 0, n)
		}
	}
}

func NewHandler(logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		seen:   make(map[string]struct{}),
		recent: make([]string, 0, DefaultDedupWindow),
		logger: logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle consumes one CheckoutCompletedEvent payload. A receipt redelivered
// within the dedup window is logged once and counted once. Payloads that can
// never be handled are reported with messaging.ErrSkipMessage.
func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var event domain.CheckoutCompletedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: unmarshal checkout completed event: %w", messaging.ErrSkipMessage, err)
	}

	receipt := event.Receipt
	if receipt.CheckoutID == "" {
		return fmt.Errorf("%w: %w", messaging.ErrSkipMessage, ErrMissingCheckoutID)
	}

	h.mu.Lock()
	if _, dup := h.seen[receipt.CheckoutID]; dup {
		h.mu.Unlock()
		h.logger.InfoContext(ctx, "duplicate receipt skipped", "checkout_id", receipt.CheckoutID)
		return nil
	}
	h.remember(receipt.CheckoutID)

	h.totals.Checkouts++
	h.totals.Revenue = h.totals.Revenue.Add(receipt.Amount)
	h.totals.Shipping = h.totals.Shipping.Add(receipt.Shipping)
	for _, line := range receipt.Lines {
		h.totals.Units += line.Quantity
	}
	totals := h.totals
	h.mu.Unlock()

	for _, line := range receipt.Lines {
		h.logger.InfoContext(ctx, "receipt line",
			"checkout_id", receipt.CheckoutID,
			"quantity", line.Quantity,
			"name", line.Name,
			"line_total", line.LineTotal.String(),
		)
	}
	h.logger.InfoContext(ctx, "receipt recorded",
		"checkout_id", receipt.CheckoutID,
		"customer", receipt.CustomerName,
		"amount", receipt.Amount.String(),
		"checkouts", totals.Checkouts,
		"revenue", totals.Revenue.String(),
	)

	return nil
}

func (h *Handler) Totals() Totals {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.totals
}

// remember records id, evicting the oldest one once the window is full.
// Callers hold h.mu.
func (h *Handler) remember(id string) {
	if len(h.recent) < cap(h.recent) {
		h.recent = append(h.recent, id)
	} else {
		delete(h.seen, h.recent[h.next])
		h.recent[h.next] = id
		h.next = (h.next + 1) % len(h.recent)
	}
	h.seen[id] = struct{}{}
}
