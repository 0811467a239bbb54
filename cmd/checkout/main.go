package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/checkout-otel-demo/internal/checkout"
	"github.com/joao-fontenele/checkout-otel-demo/internal/config"
	"github.com/joao-fontenele/checkout-otel-demo/internal/demo"
	"github.com/joao-fontenele/checkout-otel-demo/internal/inventory"
	"github.com/joao-fontenele/checkout-otel-demo/internal/messaging"
	"github.com/joao-fontenele/checkout-otel-demo/internal/shipping"
	"github.com/joao-fontenele/checkout-otel-demo/internal/telemetry"
)

func main() {
	app := &cli.App{
		Name:  "checkout",
		Usage: "in-memory checkout engine",
		Commands: []*cli.Command{
			{
				Name:  "demo",
				Usage: "run the checkout scenarios against a sample catalog",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "wait",
						Usage: "keep serving /metrics and /stock after the scenarios until interrupted",
					},
				},
				Action: runDemo,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("checkout failed", "error", err)
		os.Exit(1)
	}
}

func runDemo(c *cli.Context) error {
	ctx := c.Context

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := telemetry.NewLogger(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return err
	}

	if cfg.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.ServiceName, cfg.ServiceVersion, cfg.OTLPEndpoint)
		if err != nil {
			logger.Error("failed to initialize tracer", "error", err)
			return err
		}
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	store := inventory.NewStore()

	var server *http.Server
	if cfg.MetricsAddr != "" {
		metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(cfg.ServiceName, cfg.ServiceVersion)
		if err != nil {
			logger.Error("failed to initialize meter provider", "error", err)
			return err
		}
		defer func() { _ = shutdownMeter(context.Background()) }()

		server = startServer(cfg.MetricsAddr, metricsHandler, inventory.NewHandler(store, logger), logger)
	}

	sinks := []checkout.ReceiptSink{checkout.NewLogSink(logger)}
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.ReceiptsTopic)
		defer func() { _ = producer.Close() }()
		sinks = append(sinks, checkout.NewPublishSink(producer))
		logger.Info("publishing receipts", "brokers", cfg.KafkaBrokers, "topic", cfg.ReceiptsTopic)
	}

	shipper := shipping.NewService(logger, shipping.WithRatePerKg(cfg.ShippingRatePerKg))
	svc, err := checkout.NewService(shipper, logger, checkout.WithReceiptSinks(sinks...))
	if err != nil {
		logger.Error("failed to create checkout service", "error", err)
		return err
	}

	report, err := demo.Run(ctx, store, svc, logger)
	if err != nil {
		logger.Error("demo failed", "error", err)
		return err
	}

	for _, o := range report.Outcomes {
		switch {
		case o.Result != nil:
			logger.Info("scenario finished",
				"scenario", o.Scenario,
				"success", o.Result.Success,
				"paid_amount", o.Result.PaidAmount.String(),
				"customer_balance", o.Result.CustomerBalance.String(),
				"error", o.Result.Error,
			)
		case o.Err != nil:
			logger.Info("scenario finished", "scenario", o.Scenario, "error", o.Err)
		default:
			logger.Info("scenario finished", "scenario", o.Scenario, "entries", len(o.Lines))
		}
	}

	if server == nil {
		return nil
	}

	if c.Bool("wait") {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}
	return nil
}

func startServer(addr string, metricsHandler http.Handler, stock *inventory.Handler, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", telemetry.WithHTTPRoute(metricsHandler.ServeHTTP))
	mux.HandleFunc("GET /stock", telemetry.WithHTTPRoute(stock.HandleListStock))
	mux.HandleFunc("GET /stock/{productId}", telemetry.WithHTTPRoute(stock.HandleGetStock))

	server := &http.Server{
		Addr: addr,
		Handler: otelhttp.NewHandler(mux, "checkout",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("serving metrics and stock", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	return server
}
