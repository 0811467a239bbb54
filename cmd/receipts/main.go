package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joao-fontenele/checkout-otel-demo/internal/config"
	"github.com/joao-fontenele/checkout-otel-demo/internal/messaging"
	"github.com/joao-fontenele/checkout-otel-demo/internal/receipts"
	"github.com/joao-fontenele/checkout-otel-demo/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := telemetry.NewLogger(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		slog.Error("failed to create logger", "error", err)
		os.Exit(1)
	}

	if len(cfg.KafkaBrokers) == 0 {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, "receipts", cfg.ServiceVersion, cfg.OTLPEndpoint)
		if err != nil {
			logger.Error("failed to initialize tracer", "error", err)
			os.Exit(1)
		}
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	consumer := messaging.NewConsumer(cfg.KafkaBrokers, cfg.ReceiptsTopic, cfg.ConsumerGroup, messaging.WithLogger(logger))
	defer func() { _ = consumer.Close() }()

	handler := receipts.NewHandler(logger)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting receipts worker", "brokers", cfg.KafkaBrokers, "topic", cfg.ReceiptsTopic, "group", cfg.ConsumerGroup)

	if err := consumer.Consume(ctx, handler.Handle); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			totals := handler.Totals()
			logger.Info("consumer stopped",
				"checkouts", totals.Checkouts,
				"revenue", totals.Revenue.String(),
				"skipped", consumer.Skipped(),
			)
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}
