package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "checkout", cfg.ServiceName)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.False(t, cfg.TracingEnabled)
		assert.Empty(t, cfg.MetricsAddr)
		assert.Empty(t, cfg.KafkaBrokers)
		assert.Equal(t, "checkout.completed", cfg.ReceiptsTopic)
		assert.True(t, cfg.ShippingRatePerKg.Equal(decimal.NewFromInt(15)))
	})

	t.Run("reads the environment", func(t *testing.T) {
		t.Setenv("LOG_FORMAT", "text")
		t.Setenv("TRACING_ENABLED", "true")
		t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
		t.Setenv("SHIPPING_RATE_PER_KG", "12.5")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "text", cfg.LogFormat)
		assert.True(t, cfg.TracingEnabled)
		assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
		assert.Equal(t, "12.5", cfg.ShippingRatePerKg.String())
	})

	t.Run("rejects a negative shipping rate", func(t *testing.T) {
		t.Setenv("SHIPPING_RATE_PER_KG", "-1")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		t.Setenv("TRACING_ENABLED", "maybe")

		_, err := Load()
		require.ErrorContains(t, err, "load config")
	})
}
