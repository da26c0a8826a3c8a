package server

import (
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/wombatlabs/wombat"
	"github.com/wombatlabs/wombat/auth"
	"github.com/wombatlabs/wombat/breaker"
	"github.com/wombatlabs/wombat/cache"
	"github.com/wombatlabs/wombat/middleware"
	"github.com/wombatlabs/wombat/policy"
	"github.com/wombatlabs/wombat/ratelimit"
	"github.com/wombatlabs/wombat/security"
	"github.com/wombatlabs/wombat/tracing"
)

// Option configures a Server.
type Option func(*config)

// WithLogger sets the logger used by recovery, access logging, and the
// error callback. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithRecovery installs panic recovery so that a panic inside a handler
// returns 500 instead of crashing the process.
func WithRecovery() Option {
	return func(c *config) {
		c.recovery = true
	}
}

// WithRequestID ensures every request carries a request ID in its context
// and in the X-Request-ID response header.
func WithRequestID() Option {
	return func(c *config) {
		c.requestID = true
	}
}

// WithAccessLog writes one structured log line per request.
func WithAccessLog() Option {
	return func(c *config) {
		c.accessLog = true
	}
}

// WithMetrics installs Prometheus instrumentation, registering the
// collectors on reg. A nil reg uses the default registerer. The collected
// metrics are exposed via [Server.MetricsHandler].
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *config) {
		c.metrics = true
		c.metricsReg = reg
	}
}

// WithTracing installs the OpenTelemetry tracing middleware.
func WithTracing(cfg *tracing.Config) Option {
	return func(c *config) {
		c.tracing = cfg
	}
}

// WithAuth installs authentication: fn runs before the handler and a
// failure answers 401.
func WithAuth(fn auth.AuthFunc) Option {
	return func(c *config) {
		if fn == nil {
			c.fail(errors.New("server: WithAuth requires a non-nil AuthFunc"))
			return
		}
		c.authCfg = &middleware.AuthConfig{Fn: fn}
	}
}

// WithAuthRedirect installs authentication like [WithAuth], but failures
// redirect to loginURL instead of answering 401.
func WithAuthRedirect(fn auth.AuthFunc, loginURL string) Option {
	return func(c *config) {
		if fn == nil {
			c.fail(errors.New("server: WithAuthRedirect requires a non-nil AuthFunc"))
			return
		}
		c.authCfg = &middleware.AuthConfig{Fn: fn, LoginURL: loginURL}
	}
}

// WithRateLimitGlobal applies a global token-bucket limit of rps requests
// per second with the given burst.
func WithRateLimitGlobal(rps float64, burst int) Option {
	return func(c *config) {
		c.limiter = ratelimit.NewLimiter(rps, burst)
	}
}

// WithRateLimitPolicies resolves per-group rate limits through the given
// policy resolver. Requests outside any group fall back to the global
// limiter, when one is configured. An inconsistent rate-limit rule fails
// [New].
func WithRateLimitPolicies(r *policy.Resolver) Option {
	return func(c *config) {
		if r != nil {
			if err := r.Validate(); err != nil {
				c.fail(err)
				return
			}
		}
		c.resolver = r
	}
}

// WithIPBlock installs CIDR-based client filtering.
func WithIPBlock(cfg security.Config) Option {
	return func(c *config) {
		b, err := security.NewIPBlocker(cfg)
		if err != nil {
			c.fail(err)
			return
		}
		c.blocker = b
	}
}

// WithBreaker installs a server-side circuit breaker that sheds load with
// 503 while open.
func WithBreaker(cfg breaker.Config) Option {
	return func(c *config) {
		c.breakerCfg = &cfg
	}
}

// WithLocales installs locale negotiation.
func WithLocales(cfg middleware.LocaleConfig) Option {
	return func(c *config) {
		if len(cfg.Supported) == 0 {
			c.fail(errors.New("server: WithLocales requires at least one supported locale"))
			return
		}
		c.localeCfg = &cfg
	}
}

// WithCacheL1 configures an in-process cache holding up to maxEntries
// entries. The cache is available via [Server.Cache] and backs the response
// cache when [WithResponseCache] is set.
func WithCacheL1(maxEntries int64) Option {
	return func(c *config) {
		l1, err := cache.NewL1(maxEntries)
		if err != nil {
			c.fail(err)
			return
		}
		c.l1 = l1
	}
}

// WithCacheL2 configures a Redis-backed cache layer. When combined with
// [WithCacheL1] the two are stacked into a tiered cache.
func WithCacheL2(addr, password string, db int) Option {
	return func(c *config) {
		c.l2 = cache.NewL2(addr, password, db)
	}
}

// WithResponseCache serves cacheable GET responses from the configured
// cache for the given TTL. Requires WithCacheL1 and/or WithCacheL2.
func WithResponseCache(ttl time.Duration) Option {
	return func(c *config) {
		c.respCache = true
		c.respCacheTTL = ttl
	}
}

// Use appends middleware that runs after every built-in, immediately around
// the route handler. Middleware runs in the order it is passed.
func Use(mw ...wombat.Middleware) Option {
	return func(c *config) {
		for _, m := range mw {
			if m == nil {
				c.fail(errors.New("server: Use called with a nil middleware"))
				return
			}
			c.user.Add(PriorityUser, m)
		}
	}
}

// UseAt appends middleware at an explicit priority level, allowing custom
// middleware to interleave with the built-ins.
func UseAt(order int, mw wombat.Middleware) Option {
	return func(c *config) {
		if mw == nil {
			c.fail(errors.New("server: UseAt called with a nil middleware"))
			return
		}
		c.user.Add(order, mw)
	}
}

// OnError sets the callback invoked when the composed handler returns an
// error. The default logs the error and answers 500 when nothing has been
// written yet.
func OnError(fn func(c *wombat.Ctx, err error)) Option {
	return func(c *config) {
		c.onError = fn
	}
}
