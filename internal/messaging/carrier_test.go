package messaging

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

func TestHeaderCarrier(t *testing.T) {
	msg := &kafka.Message{Headers: []kafka.Header{{Key: "content-type", Value: []byte("application/json")}}}
	carrier := headerCarrier{msg: msg}

	carrier.Set("traceparent", "one")
	carrier.Set("traceparent", "two")

	if got := carrier.Get("traceparent"); got != "two" {
		t.Errorf("expected overwritten value, got %q", got)
	}
	if got := carrier.Get("missing"); got != "" {
		t.Errorf("expected empty value, got %q", got)
	}
	if len(msg.Headers) != 2 {
		t.Errorf("expected 2 headers, got %d", len(msg.Headers))
	}
	if keys := carrier.Keys(); len(keys) != 2 || keys[0] != "content-type" || keys[1] != "traceparent" {
		t.Errorf("unexpected keys %v", keys)
	}
}

func TestHeaderCarrier_MatchesKeysCaseInsensitively(t *testing.T) {
	msg := &kafka.Message{Headers: []kafka.Header{{Key: "Traceparent", Value: []byte("upstream")}}}
	carrier := headerCarrier{msg: msg}

	if got := carrier.Get("traceparent"); got != "upstream" {
		t.Errorf("expected upstream value, got %q", got)
	}

	carrier.Set("traceparent", "local")
	if len(msg.Headers) != 1 || msg.Headers[0].Key != "traceparent" || string(msg.Headers[0].Value) != "local" {
		t.Errorf("expected header to be replaced in place, got %+v", msg.Headers)
	}
}

func TestTraceRoundTrip(t *testing.T) {
	previous := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(previous) })

	tp := trace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "publish")
	defer span.End()

	var msg kafka.Message
	injectTrace(ctx, &msg)

	extracted := oteltrace.SpanContextFromContext(extractTrace(context.Background(), &msg))
	if extracted.TraceID() != span.SpanContext().TraceID() {
		t.Errorf("expected trace id %s, got %s", span.SpanContext().TraceID(), extracted.TraceID())
	}
	if !extracted.IsRemote() {
		t.Error("expected extracted span context to be remote")
	}
}
