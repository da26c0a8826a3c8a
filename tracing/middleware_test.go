package tracing

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/wombatlabs/wombat"
)

func newRecordingConfig() (*Config, *tracetest.SpanRecorder) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	cfg := &Config{
		TracerProvider: tp,
		Propagators:    propagation.TraceContext{},
	}
	return cfg, sr
}

func TestMiddlewareCreatesServerSpan(t *testing.T) {
	cfg, sr := newRecordingConfig()

	h := Middleware(cfg)(func(c *wombat.Ctx) error {
		return c.Text(http.StatusOK, "ok")
	})

	c := wombat.NewCtx(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders", nil))
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if got := span.Name(); got != "GET /orders" {
		t.Errorf("span name = %q, want \"GET /orders\"", got)
	}
	if got := span.SpanKind(); got != trace.SpanKindServer {
		t.Errorf("span kind = %v, want server", got)
	}
	if got := span.Status().Code; got != codes.Ok {
		t.Errorf("span status = %v, want Ok", got)
	}
}

func TestMiddlewareRecordsHandlerError(t *testing.T) {
	cfg, sr := newRecordingConfig()
	sentinel := errors.New("downstream failed")

	h := Middleware(cfg)(func(c *wombat.Ctx) error {
		return sentinel
	})

	c := wombat.NewCtx(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if err := h(c); !errors.Is(err, sentinel) {
		t.Fatalf("error = %v, want sentinel", err)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if got := span.Status().Code; got != codes.Error {
		t.Errorf("span status = %v, want Error", got)
	}
	if len(span.Events()) == 0 {
		t.Error("no events recorded, want the error event")
	}
}

func TestMiddlewareMarks5xxAsError(t *testing.T) {
	cfg, sr := newRecordingConfig()

	h := Middleware(cfg)(func(c *wombat.Ctx) error {
		return c.Text(http.StatusBadGateway, "bad upstream")
	})

	c := wombat.NewCtx(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	if got := spans[0].Status().Code; got != codes.Error {
		t.Errorf("span status = %v, want Error for 502", got)
	}
}

func TestMiddlewareExtractsRemoteContext(t *testing.T) {
	cfg, sr := newRecordingConfig()

	h := Middleware(cfg)(func(c *wombat.Ctx) error {
		return nil
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	c := wombat.NewCtx(httptest.NewRecorder(), r)
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	if got := spans[0].SpanContext().TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace ID = %s, want the propagated one", got)
	}
}

func TestMiddlewareNilConfigIsPassthrough(t *testing.T) {
	called := false
	h := Middleware(nil)(func(c *wombat.Ctx) error {
		called = true
		return nil
	})

	c := wombat.NewCtx(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !called {
		t.Error("wrapped handler not called")
	}
}
