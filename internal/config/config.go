package config

import (
	"errors"
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	ServiceName    string `envconfig:"SERVICE_NAME" default:"checkout"`
	ServiceVersion string `envconfig:"SERVICE_VERSION" default:"0.1.0"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	// MetricsAddr enables the /metrics listener when set, e.g. ":9464".
	MetricsAddr string `envconfig:"METRICS_ADDR"`

	TracingEnabled bool   `envconfig:"TRACING_ENABLED" default:"false"`
	OTLPEndpoint   string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`

	// KafkaBrokers enables receipt publishing when non-empty.
	KafkaBrokers  []string `envconfig:"KAFKA_BROKERS"`
	ReceiptsTopic string   `envconfig:"RECEIPTS_TOPIC" default:"checkout.completed"`
	ConsumerGroup string   `envconfig:"CONSUMER_GROUP" default:"receipt-log"`

	ShippingRatePerKg decimal.Decimal `envconfig:"SHIPPING_RATE_PER_KG" default:"15"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if cfg.ShippingRatePerKg.IsNegative() {
		return Config{}, errors.New("load config: SHIPPING_RATE_PER_KG cannot be negative")
	}

	return cfg, nil
}
