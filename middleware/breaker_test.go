package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wombatlabs/wombat"
	"github.com/wombatlabs/wombat/breaker"
)

func TestBreakerShedsLoadWhenOpen(t *testing.T) {
	b := breaker.New(breaker.Config{
		FailureThreshold:   2,
		OpenTimeout:        time.Minute,
		HalfOpenMaxSuccess: 1,
	})

	calls := 0
	h := Breaker(b)(func(c *wombat.Ctx) error {
		calls++
		return errors.New("upstream down")
	})

	for i := 0; i < 2; i++ {
		c := wombat.NewCtx(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if err := h(c); err == nil {
			t.Fatalf("request %d: expected error", i)
		}
	}

	// The breaker tripped; the next request never reaches the handler.
	rec := httptest.NewRecorder()
	c := wombat.NewCtx(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if err := h(c); err != nil {
		t.Fatalf("shed request returned error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After missing on 503")
	}
	if calls != 2 {
		t.Errorf("handler calls = %d, want 2", calls)
	}
}

func TestBreakerCountsServerErrorsAsFailures(t *testing.T) {
	b := breaker.New(breaker.Config{
		FailureThreshold:   1,
		OpenTimeout:        time.Minute,
		HalfOpenMaxSuccess: 1,
	})

	h := Breaker(b)(func(c *wombat.Ctx) error {
		return c.Text(http.StatusBadGateway, "bad upstream")
	})

	c := wombat.NewCtx(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}

	if got := b.State(); got != breaker.Open {
		t.Errorf("state after 502 = %v, want Open", got)
	}
}

func TestBreakerSuccessKeepsClosed(t *testing.T) {
	b := breaker.New(breaker.Config{
		FailureThreshold:   1,
		OpenTimeout:        time.Minute,
		HalfOpenMaxSuccess: 1,
	})

	h := Breaker(b)(okHandler)

	for i := 0; i < 5; i++ {
		c := wombat.NewCtx(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if err := h(c); err != nil {
			t.Fatalf("handler: %v", err)
		}
	}

	if got := b.State(); got != breaker.Closed {
		t.Errorf("state = %v, want Closed", got)
	}
}
