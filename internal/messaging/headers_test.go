package messaging

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestHeaderCarrier(t *testing.T) {
	t.Run("set replaces existing keys", func(t *testing.T) {
		msg := &kafka.Message{}
		carrier := headerCarrier{msg: msg}

		carrier.Set("traceparent", "a")
		carrier.Set("traceparent", "b")
		carrier.Set("tracestate", "c")

		assert.Equal(t, "b", carrier.Get("traceparent"))
		assert.Equal(t, "", carrier.Get("missing"))
		assert.Equal(t, []string{"traceparent", "tracestate"}, carrier.Keys())
		assert.Len(t, msg.Headers, 2)
	})

	t.Run("carries trace context between producer and consumer", func(t *testing.T) {
		tp := sdktrace.NewTracerProvider()
		ctx, span := tp.Tracer("test").Start(context.Background(), "publish")
		defer span.End()

		propagator := propagation.TraceContext{}
		msg := &kafka.Message{}
		propagator.Inject(ctx, headerCarrier{msg: msg})

		extracted := propagator.Extract(context.Background(), headerCarrier{msg: msg})
		got := trace.SpanContextFromContext(extracted)
		require.True(t, got.IsValid())
		assert.Equal(t, span.SpanContext().TraceID(), got.TraceID())
	})
}
