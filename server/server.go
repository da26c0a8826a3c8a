// Package server assembles wombat middleware into a runnable HTTP server.
// Built-in middleware (recovery, authentication, rate limiting, caching, IP
// blocking, tracing, metrics) is enabled via functional [Option] values
// passed to [New]; execution order follows fixed priority levels, not
// option order.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wombatlabs/wombat"
	"github.com/wombatlabs/wombat/breaker"
	"github.com/wombatlabs/wombat/cache"
	"github.com/wombatlabs/wombat/middleware"
	"github.com/wombatlabs/wombat/tracing"
)

// Server routes requests through a middleware pipeline composed once at
// construction and shared by every route.
//
// Example:
//
//	srv, err := server.New(
//		server.WithRecovery(),
//		server.WithRateLimitGlobal(500, 100),
//		server.WithAuth(myAuthFunc),
//		server.WithCacheL1(10_000),
//	)
type Server struct {
	chain    []wombat.Middleware
	mux      *http.ServeMux
	fallback http.Handler

	logger  *slog.Logger
	cache   cache.Cache
	onError func(*wombat.Ctx, error)

	pool sync.Pool

	httpServer *http.Server
}

// New creates a Server by applying the supplied functional [Option] values
// and composing the resulting middleware pipeline. Configuration problems —
// an invalid CIDR, a nil middleware, a response cache without a cache layer
// — surface here, never at request time.
func New(opts ...Option) (*Server, error) {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.err != nil {
		return nil, cfg.err
	}

	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	// When both L1 and L2 are configured, combine them into a tiered cache.
	switch {
	case cfg.l1 != nil && cfg.l2 != nil:
		cfg.cache = cache.NewTiered(cfg.l1, cfg.l2)
	case cfg.l1 != nil:
		cfg.cache = cfg.l1
	case cfg.l2 != nil:
		cfg.cache = cfg.l2
	}

	chain, err := buildChain(&cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		chain:   chain,
		mux:     http.NewServeMux(),
		logger:  cfg.logger,
		cache:   cfg.cache,
		onError: cfg.onError,
	}
	if s.onError == nil {
		s.onError = s.defaultOnError
	}
	s.pool = sync.Pool{
		New: func() any { return &wombat.Ctx{} },
	}

	notFound := func(c *wombat.Ctx) error {
		return c.Text(http.StatusNotFound, "not found")
	}
	composed, err := wombat.Compose(notFound, chain...)
	if err != nil {
		return nil, err
	}
	s.fallback = s.adapt(composed)

	return s, nil
}

// buildChain turns the recorded configuration into the ordered middleware
// slice. Building here, after all options have run, keeps option order
// irrelevant (the logger option may come last and still feed recovery).
func buildChain(cfg *config) ([]wombat.Middleware, error) {
	pipeline := cfg.user

	if cfg.recovery {
		pipeline.Add(PriorityRecovery, middleware.Recovery(cfg.logger))
	}
	if cfg.requestID {
		pipeline.Add(PriorityRequestID, middleware.RequestID())
	}
	if cfg.tracing != nil {
		pipeline.Add(PriorityTracing, tracing.Middleware(cfg.tracing))
	}
	if cfg.accessLog {
		pipeline.Add(PriorityAccessLog, middleware.AccessLog(cfg.logger))
	}
	if cfg.metrics {
		m, err := middleware.NewMetrics(cfg.metricsReg)
		if err != nil {
			return nil, err
		}
		pipeline.Add(PriorityMetrics, m.Middleware())
	}
	if cfg.blocker != nil {
		pipeline.Add(PriorityIPBlock, middleware.IPBlock(cfg.blocker))
	}
	if cfg.limiter != nil || cfg.resolver != nil {
		pipeline.Add(PriorityRateLimit, middleware.RateLimit(cfg.limiter, cfg.resolver))
	}
	if cfg.breakerCfg != nil {
		pipeline.Add(PriorityBreaker, middleware.Breaker(breaker.New(*cfg.breakerCfg)))
	}
	if cfg.authCfg != nil {
		pipeline.Add(PriorityAuth, middleware.Auth(*cfg.authCfg))
	}
	if cfg.localeCfg != nil {
		pipeline.Add(PriorityLocale, middleware.Locale(*cfg.localeCfg))
	}
	if cfg.respCache {
		if cfg.cache == nil {
			return nil, errResponseCacheNoBackend
		}
		pipeline.Add(PriorityCache, middleware.Cache(middleware.CacheConfig{
			Cache: cfg.cache,
			TTL:   cfg.respCacheTTL,
		}))
	}

	return pipeline.Build(), nil
}

// Handle registers a handler for the given pattern (net/http ServeMux
// syntax, e.g. "GET /items/{id}"). The middleware pipeline is composed
// around the handler once, at registration. Handle panics on a nil handler,
// mirroring net/http.
func (s *Server) Handle(pattern string, h wombat.Handler) {
	if h == nil {
		panic("server: nil handler for pattern " + pattern)
	}
	composed := wombat.Chain(s.chain...)(h)
	s.mux.Handle(pattern, s.adapt(composed))
}

// ServeHTTP implements http.Handler. Unmatched requests still travel the
// full pipeline before answering 404, so access logs and metrics see them.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, pattern := s.mux.Handler(r); pattern == "" {
		s.fallback.ServeHTTP(w, r)
		return
	}
	s.mux.ServeHTTP(w, r)
}

// adapt bridges a composed wombat handler into net/http.
func (s *Server) adapt(h wombat.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := s.pool.Get().(*wombat.Ctx)
		c.Reset(w, r)
		defer s.pool.Put(c)

		if err := h(c); err != nil {
			s.onError(c, err)
		}
	})
}

// defaultOnError logs the error and answers 500 when the response has not
// been started yet.
func (s *Server) defaultOnError(c *wombat.Ctx, err error) {
	s.logger.Error("handler error", "method", c.Method(), "path", c.Path(), "error", err)
	if !c.Written() {
		_ = c.Text(http.StatusInternalServerError, "internal server error")
	}
}

// Cache returns the cache configured via WithCacheL1/WithCacheL2. It
// returns nil if no cache was configured.
func (s *Server) Cache() cache.Cache {
	return s.cache
}

// MetricsHandler returns an http.Handler that serves Prometheus metrics.
// Typically mounted on a separate, internal listener.
func (s *Server) MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// Run starts the server on addr and blocks until it stops.
func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s}
	return s.httpServer.ListenAndServe()
}

// RunGraceful starts the server on addr and shuts it down cleanly on
// SIGINT/SIGTERM, waiting up to timeout for in-flight requests.
func (s *Server) RunGraceful(addr string, timeout time.Duration) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s}

	done := make(chan error, 1)
	go func() {
		done <- s.httpServer.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-done:
		if err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-quit:
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
}

// Shutdown stops a server started with [Run], waiting for in-flight
// requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
