// Package middleware provides the built-in cross-cutting middleware shipped
// with wombat: panic recovery, request IDs, access logging, metrics,
// authentication, rate limiting, IP blocking, response caching, locale
// negotiation, and circuit breaking. Each constructor returns a plain
// [wombat.Middleware]; none is mandatory.
package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/wombatlabs/wombat"
)

// Recovery returns a middleware that recovers from panics in deeper layers,
// answers 500, and reports the panic as a handler error instead of crashing
// the process. A nil logger disables panic logging.
func Recovery(logger *slog.Logger) wombat.Middleware {
	return func(next wombat.Handler) wombat.Handler {
		return func(c *wombat.Ctx) (err error) {
			defer func() {
				if r := recover(); r != nil {
					if logger != nil {
						logger.Error("panic recovered",
							"panic", r,
							"method", c.Method(),
							"path", c.Path(),
						)
					}
					if !c.Written() {
						_ = c.Text(http.StatusInternalServerError, "internal server error")
					}
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			return next(c)
		}
	}
}
