// Package tracing provides an OpenTelemetry tracing middleware for wombat
// servers. It is entirely optional — tracing is only active when a
// [Config] is wired in via the server's tracing option.
package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/wombatlabs/wombat"
)

// Config holds the OpenTelemetry configuration used by the tracing
// middleware.
type Config struct {
	// TracerProvider supplies the Tracer used to create spans. When nil the
	// global otel.GetTracerProvider() is used.
	TracerProvider trace.TracerProvider

	// Propagators extracts trace context from incoming headers.
	// When nil the global otel.GetTextMapPropagator() is used.
	Propagators propagation.TextMapPropagator
}

// tracer returns a configured [trace.Tracer].
func (c *Config) tracer() trace.Tracer {
	tp := c.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer("github.com/wombatlabs/wombat/tracing")
}

// propagators returns the configured propagator (or global default).
func (c *Config) propagators() propagation.TextMapPropagator {
	if c.Propagators != nil {
		return c.Propagators
	}
	return otel.GetTextMapPropagator()
}

// Middleware returns a [wombat.Middleware] that creates a server span for
// every request, extracting remote trace context from the W3C headers. If
// cfg is nil the middleware is a no-op passthrough.
func Middleware(cfg *Config) wombat.Middleware {
	if cfg == nil {
		return func(next wombat.Handler) wombat.Handler {
			return next
		}
	}
	return func(next wombat.Handler) wombat.Handler {
		return func(c *wombat.Ctx) error {
			r := c.Request
			ctx := cfg.propagators().Extract(c.Context(), propagation.HeaderCarrier(r.Header))

			spanName := r.Method + " " + r.URL.Path
			ctx, span := cfg.tracer().Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()

			span.SetAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
				attribute.String("user_agent.original", r.UserAgent()),
			)

			c.SetContext(ctx)
			err := next(c)

			status := c.StatusCode()
			if status == 0 {
				status = http.StatusOK
			}
			span.SetAttributes(attribute.Int("http.response.status_code", status))

			switch {
			case err != nil:
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			case status >= http.StatusInternalServerError:
				span.SetStatus(codes.Error, http.StatusText(status))
			default:
				span.SetStatus(codes.Ok, "")
			}
			return err
		}
	}
}
