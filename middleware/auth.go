package middleware

import (
	"net/http"

	"github.com/wombatlabs/wombat"
	"github.com/wombatlabs/wombat/auth"
)

// AuthConfig configures [Auth].
type AuthConfig struct {
	// Fn authenticates the request. Required.
	Fn auth.AuthFunc

	// LoginURL, when set, turns authentication failures into a 302 redirect
	// to this URL instead of a 401 response. Typical for browser-facing
	// servers with a login page.
	LoginURL string

	// Skip, when set, exempts matching requests (health checks, the login
	// page itself) from authentication.
	Skip func(c *wombat.Ctx) bool
}

// Auth returns a middleware that runs the configured AuthFunc before
// delegating. On success the (possibly enriched) context replaces the
// request context; on failure the middleware short-circuits with 401 or a
// login redirect and the deeper layers never run.
func Auth(cfg AuthConfig) wombat.Middleware {
	return func(next wombat.Handler) wombat.Handler {
		return func(c *wombat.Ctx) error {
			if cfg.Skip != nil && cfg.Skip(c) {
				return next(c)
			}

			ctx, err := cfg.Fn(c.Context(), c.Request)
			if err != nil {
				if cfg.LoginURL != "" {
					return c.Redirect(http.StatusFound, cfg.LoginURL)
				}
				return c.Text(http.StatusUnauthorized, "unauthorized")
			}
			if ctx != nil {
				c.SetContext(ctx)
			}
			return next(c)
		}
	}
}
