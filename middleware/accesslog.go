package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/wombatlabs/wombat"
	"github.com/wombatlabs/wombat/contextx"
)

// AccessLog returns a middleware that writes one structured log line per
// request: method, path, status, duration, client IP, and the request ID
// when present. A nil logger uses slog.Default().
func AccessLog(logger *slog.Logger) wombat.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next wombat.Handler) wombat.Handler {
		return func(c *wombat.Ctx) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			status := c.StatusCode()
			if status == 0 {
				status = http.StatusOK
			}

			attrs := []any{
				"method", c.Method(),
				"path", c.Path(),
				"status", status,
				"duration", duration,
				"client_ip", c.ClientIP(),
			}
			if id := contextx.RequestIDFromContext(c.Context()); id != "" {
				attrs = append(attrs, "request_id", id)
			}
			if err != nil {
				attrs = append(attrs, "error", err)
				logger.Error("request failed", attrs...)
			} else {
				logger.Info("request", attrs...)
			}
			return err
		}
	}
}
