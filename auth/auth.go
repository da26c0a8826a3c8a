// Package auth provides the authentication function type used by the
// optional authentication middleware, plus a ready-made JWT verifier.
package auth

import (
	"context"
	"errors"
	"net/http"
)

// ErrUnauthenticated is the generic failure an [AuthFunc] should return (or
// wrap) when a request carries no usable credentials.
var ErrUnauthenticated = errors.New("auth: unauthenticated")

// AuthFunc is a user-supplied callback that authenticates an HTTP request.
// It receives the request context and the request itself. On success it
// returns a (possibly enriched) context; on failure it returns an error.
//
// The middleware does NOT decide where credentials live — cookie, header or
// anything else is the AuthFunc implementation's business.
type AuthFunc func(ctx context.Context, r *http.Request) (context.Context, error)
