package middleware

import (
	"net/http"

	"github.com/wombatlabs/wombat"
	"github.com/wombatlabs/wombat/breaker"
)

// Breaker returns a middleware that sheds load through a circuit breaker:
// while the breaker is open, requests are answered with 503 without reaching
// deeper layers. A handler error or a 5xx status counts as a failure.
func Breaker(b *breaker.Breaker) wombat.Middleware {
	return func(next wombat.Handler) wombat.Handler {
		return func(c *wombat.Ctx) error {
			if !b.Allow() {
				c.Header("Retry-After", "1")
				return c.Text(http.StatusServiceUnavailable, "service unavailable")
			}

			err := next(c)

			if err != nil || c.StatusCode() >= http.StatusInternalServerError {
				b.OnFailure()
			} else {
				b.OnSuccess()
			}
			return err
		}
	}
}
