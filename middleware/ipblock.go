package middleware

import (
	"net/http"

	"github.com/wombatlabs/wombat"
	"github.com/wombatlabs/wombat/security"
)

// IPBlock returns a middleware that denies requests with 403 when the
// IPBlocker's Evaluate method returns false for the client address.
func IPBlock(b *security.IPBlocker) wombat.Middleware {
	return func(next wombat.Handler) wombat.Handler {
		return func(c *wombat.Ctx) error {
			if !b.Evaluate(c.Request.RemoteAddr, c.Request.Header) {
				return c.Text(http.StatusForbidden, "blocked")
			}
			return next(c)
		}
	}
}
