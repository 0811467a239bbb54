package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomer(t *testing.T) {
	t.Run("can afford up to and including the balance", func(t *testing.T) {
		c := NewCustomer("Jane", decimal.NewFromInt(100))

		assert.True(t, c.CanAfford(decimal.NewFromInt(100)))
		assert.True(t, c.CanAfford(decimal.RequireFromString("99.99")))
		assert.False(t, c.CanAfford(decimal.RequireFromString("100.01")))
	})

	t.Run("deduct subtracts in place", func(t *testing.T) {
		c := NewCustomer("John", decimal.NewFromInt(2000))

		require.NoError(t, c.Deduct(decimal.RequireFromString("831")))
		assert.True(t, c.Balance().Equal(decimal.NewFromInt(1169)))

		require.NoError(t, c.Deduct(decimal.NewFromInt(1169)))
		assert.True(t, c.Balance().IsZero())
	})

	t.Run("deduct rejects more than the balance", func(t *testing.T) {
		c := NewCustomer("Jane", decimal.NewFromInt(100))

		err := c.Deduct(decimal.NewFromInt(105))
		require.ErrorIs(t, err, ErrInsufficientBalance)
		assert.Equal(t, "insufficient balance", err.Error())
		assert.True(t, c.Balance().Equal(decimal.NewFromInt(100)))
	})

	t.Run("deduct rejects negative amounts", func(t *testing.T) {
		c := NewCustomer("Jane", decimal.NewFromInt(100))

		require.ErrorIs(t, c.Deduct(decimal.NewFromInt(-5)), ErrNegativeAmount)
		assert.True(t, c.Balance().Equal(decimal.NewFromInt(100)))
	})
}
