package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/wombatlabs/wombat"
)

// Metrics instruments requests with Prometheus collectors: a total counter
// and a duration histogram labelled by method/path/status, plus an in-flight
// gauge. Collectors register on construction; registering twice on the same
// registry is a configuration error.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wombat",
			Name:      "http_requests_total",
			Help:      "Requests processed, by method, path and status.",
		}, []string{"method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wombat",
			Name:      "http_request_duration_seconds",
			Help:      "Request latency, by method and path.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wombat",
			Name:      "http_requests_in_flight",
			Help:      "Requests currently being served.",
		}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration, m.inflight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Middleware returns the instrumenting middleware.
func (m *Metrics) Middleware() wombat.Middleware {
	return func(next wombat.Handler) wombat.Handler {
		return func(c *wombat.Ctx) error {
			m.inflight.Inc()
			start := time.Now()

			err := next(c)

			status := c.StatusCode()
			if status == 0 {
				status = http.StatusOK
			}
			m.inflight.Dec()
			m.requests.WithLabelValues(c.Method(), c.Path(), strconv.Itoa(status)).Inc()
			m.duration.WithLabelValues(c.Method(), c.Path()).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
