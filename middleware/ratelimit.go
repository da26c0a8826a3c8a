package middleware

import (
	"net/http"

	"github.com/wombatlabs/wombat"
	"github.com/wombatlabs/wombat/policy"
	"github.com/wombatlabs/wombat/ratelimit"
)

// rateLimitState holds the global limiter, an optional policy resolver, and
// the lazily created per-group limiters.
type rateLimitState struct {
	global   *ratelimit.Limiter
	resolver *policy.Resolver
	groups   *ratelimit.Keyed
}

// limiterFor returns the per-group limiter when the resolver matches the
// request to a group with a RateLimit policy. Otherwise it returns the
// global limiter (which may be nil, meaning unlimited).
func (s *rateLimitState) limiterFor(method, path string) *ratelimit.Limiter {
	if s.resolver != nil {
		if name, pol, ok := s.resolver.Resolve(method, path); ok && pol != nil && pol.RateLimit != nil {
			rl := pol.RateLimit
			return s.groups.Get(name, float64(rl.Rate)/rl.Window.Seconds(), rl.Rate)
		}
	}
	return s.global
}

// RateLimit returns a middleware that rejects requests with 429 when the
// applicable rate limiter has been exhausted. When a policy resolver is
// provided and the request matches a group with a RateLimit rule, that
// per-group limiter is used; otherwise the global limiter applies.
func RateLimit(global *ratelimit.Limiter, resolver *policy.Resolver) wombat.Middleware {
	st := &rateLimitState{global: global, resolver: resolver, groups: ratelimit.NewKeyed()}
	return func(next wombat.Handler) wombat.Handler {
		return func(c *wombat.Ctx) error {
			if l := st.limiterFor(c.Method(), c.Path()); l != nil && !l.Allow() {
				c.Header("Retry-After", "1")
				return c.Text(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
