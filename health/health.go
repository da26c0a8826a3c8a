// Package health provides a minimal built-in health endpoint suitable for
// load-balancer checks and demos.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/wombatlabs/wombat"
)

// Response is the health endpoint payload.
type Response struct {
	Status         string `json:"status"`
	ServerTimeUnix int64  `json:"server_time_unix"`
}

// Checker is an optional probe consulted by the handler. A non-nil error
// turns the response into a 503 with status "unhealthy".
type Checker func(ctx context.Context) error

// Handler returns a wombat.Handler serving the health endpoint. Checkers run
// in order; the first failure wins.
func Handler(checks ...Checker) wombat.Handler {
	return func(c *wombat.Ctx) error {
		for _, check := range checks {
			if err := check(c.Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, Response{
					Status:         "unhealthy",
					ServerTimeUnix: time.Now().Unix(),
				})
			}
		}
		return c.JSON(http.StatusOK, Response{
			Status:         "ok",
			ServerTimeUnix: time.Now().Unix(),
		})
	}
}
