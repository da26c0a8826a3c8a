package server

import (
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/wombatlabs/wombat"
	"github.com/wombatlabs/wombat/breaker"
	"github.com/wombatlabs/wombat/cache"
	"github.com/wombatlabs/wombat/internal/core"
	"github.com/wombatlabs/wombat/middleware"
	"github.com/wombatlabs/wombat/policy"
	"github.com/wombatlabs/wombat/ratelimit"
	"github.com/wombatlabs/wombat/security"
	"github.com/wombatlabs/wombat/tracing"
)

// Built-in middleware runs at fixed priority levels, not in option order.
// Lower values wrap further out and run first.
const (
	PriorityRecovery  = 100
	PriorityRequestID = 200
	PriorityTracing   = 300
	PriorityAccessLog = 400
	PriorityMetrics   = 500
	PriorityIPBlock   = 600
	PriorityRateLimit = 700
	PriorityBreaker   = 800
	PriorityAuth      = 900
	PriorityLocale    = 1000
	PriorityCache     = 1100

	// PriorityUser is where middleware supplied via [Use] runs: after every
	// built-in, immediately around the route handler.
	PriorityUser = 1200
)

var errResponseCacheNoBackend = errors.New("server: WithResponseCache requires WithCacheL1 or WithCacheL2")

// config holds the internal configuration assembled via functional options.
// Built-in middleware is recorded as intent here and constructed in [New],
// after every option has been applied, so ordering of options never matters.
type config struct {
	logger *slog.Logger

	user core.PipelineBuilder[wombat.Middleware]

	recovery  bool
	requestID bool
	accessLog bool

	metricsReg prometheus.Registerer
	metrics    bool

	tracing *tracing.Config

	authCfg *middleware.AuthConfig

	limiter  *ratelimit.Limiter
	resolver *policy.Resolver

	blocker *security.IPBlocker

	breakerCfg *breaker.Config

	localeCfg *middleware.LocaleConfig

	l1           *cache.L1
	l2           *cache.L2
	cache        cache.Cache
	respCacheTTL time.Duration
	respCache    bool

	onError func(*wombat.Ctx, error)

	err error // first configuration error seen while applying options
}

// fail records the first configuration error. Later errors are discarded so
// New reports the earliest cause.
func (c *config) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}
