package domain

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNegativeAmount      = errors.New("amount cannot be negative")
)

type Customer struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	balance decimal.Decimal
}

func NewCustomer(name string, balance decimal.Decimal) *Customer {
	return &Customer{
		ID:      uuid.New().String(),
		Name:    name,
		balance: balance,
	}
}

func (c *Customer) CanAfford(amount decimal.Decimal) bool {
	return c.balance.GreaterThanOrEqual(amount)
}

// Deduct debits amount from the balance. The balance never goes negative.
func (c *Customer) Deduct(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	if !c.CanAfford(amount) {
		return ErrInsufficientBalance
	}
	c.balance = c.balance.Sub(amount)
	return nil
}

func (c *Customer) Balance() decimal.Decimal {
	return c.balance
}
