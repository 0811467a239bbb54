package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutResult is the outcome of a single checkout. PaidAmount is zero
// whenever Success is false.
type CheckoutResult struct {
	Success         bool            `json:"success"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingFees    decimal.Decimal `json:"shipping_fees"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	CustomerBalance decimal.Decimal `json:"customer_balance"`
	Error           string          `json:"error,omitempty"`
}

type ReceiptLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type Receipt struct {
	CheckoutID   string          `json:"checkout_id"`
	CustomerID   string          `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Lines        []ReceiptLine   `json:"lines"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Shipping     decimal.Decimal `json:"shipping"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	CreatedAt    time.Time       `json:"created_at"`
}

type CheckoutCompletedEvent struct {
	Receipt   Receipt   `json:"receipt"`
	Timestamp time.Time `json:"timestamp"`
}
