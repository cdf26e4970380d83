package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

func TestWithHTTPRoute(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /variants/{id}", WithHTTPRoute(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	ctx, span := tp.Tracer("test").Start(t.Context(), "request")
	req := httptest.NewRequest(http.MethodGet, "/variants/3", nil).WithContext(ctx)
	mux.ServeHTTP(httptest.NewRecorder(), req)
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}

	want := semconv.HTTPRoute("GET /variants/{id}")
	for _, attr := range ended[0].Attributes() {
		if attr == want {
			return
		}
	}
	t.Errorf("expected %v in %v", want, ended[0].Attributes())
}

func TestWithHTTPRoute_NoSpan(t *testing.T) {
	called := false
	h := WithHTTPRoute(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if oteltrace.SpanFromContext(r.Context()).IsRecording() {
			t.Error("expected no recording span")
		}
	})

	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !called {
		t.Error("expected wrapped handler to run")
	}
}
