// Package httpclient provides an http.RoundTripper that retries transient
// upstream failures with exponential backoff and guards the upstream with a
// circuit breaker. Wrap it around http.DefaultTransport (or any other
// RoundTripper) and hand it to an http.Client.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/wombatlabs/wombat/breaker"
	"github.com/wombatlabs/wombat/retry"
)

// ErrUpstreamUnavailable is returned when the circuit breaker refuses the
// request without contacting the upstream.
var ErrUpstreamUnavailable = errors.New("httpclient: upstream unavailable")

// Config controls the transport behaviour.
type Config struct {
	// Retry configures the retry loop. Config.RetryIf is ignored; the
	// transport decides retryability from status codes and transport errors.
	Retry retry.Config

	// RetryStatuses lists response status codes treated as transient.
	// Empty means the defaults: 502, 503, 504.
	RetryStatuses []int

	// Breaker, when non-nil, guards the upstream. A 5xx response or a
	// transport error counts as a failure.
	Breaker *breaker.Breaker
}

// defaultRetryStatuses are the gateway-flavored codes a retry can plausibly fix.
var defaultRetryStatuses = []int{
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// Transport is a retrying, breaker-guarded RoundTripper.
type Transport struct {
	base          http.RoundTripper
	cfg           Config
	retryStatuses map[int]bool
}

// New wraps base with the given config. A nil base uses http.DefaultTransport.
func New(base http.RoundTripper, cfg Config) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	statuses := cfg.RetryStatuses
	if len(statuses) == 0 {
		statuses = defaultRetryStatuses
	}
	set := make(map[int]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return &Transport{base: base, cfg: cfg, retryStatuses: set}
}

// retryableError marks an error the retry loop is allowed to act on.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// RoundTrip implements http.RoundTripper.
//
// Requests with a body are only retried when GetBody is available (stdlib
// sets it for common body types); otherwise a replay could send a partial
// body and the first attempt is the only one.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	cfg := t.cfg.Retry
	cfg.RetryIf = func(err error) bool {
		var re *retryableError
		return errors.As(err, &re)
	}
	if req.Body != nil && req.GetBody == nil {
		cfg.MaxAttempts = 1
	}

	return retry.Do(req.Context(), cfg, func(ctx context.Context) (*http.Response, error) {
		attempt, err := t.rewind(req)
		if err != nil {
			return nil, err
		}
		return t.attempt(attempt)
	})
}

// attempt performs one upstream call under the breaker and classifies the
// outcome for the retry loop.
func (t *Transport) attempt(req *http.Request) (*http.Response, error) {
	if t.cfg.Breaker != nil && !t.cfg.Breaker.Allow() {
		return nil, ErrUpstreamUnavailable
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.recordFailure()
		return nil, &retryableError{err: err}
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		t.recordFailure()
	} else {
		t.recordSuccess()
	}

	if t.retryStatuses[resp.StatusCode] {
		// Drain so the connection can be reused, then retry.
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, &retryableError{err: fmt.Errorf("httpclient: upstream returned %d", resp.StatusCode)}
	}
	return resp, nil
}

// rewind returns a request whose body can be consumed by this attempt.
func (t *Transport) rewind(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.GetBody == nil {
		return req, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("httpclient: rewinding request body: %w", err)
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}

func (t *Transport) recordFailure() {
	if t.cfg.Breaker != nil {
		t.cfg.Breaker.OnFailure()
	}
}

func (t *Transport) recordSuccess() {
	if t.cfg.Breaker != nil {
		t.cfg.Breaker.OnSuccess()
	}
}
