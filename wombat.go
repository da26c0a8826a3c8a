// Package wombat provides composable HTTP middleware primitives: a small
// handler contract, a deterministic middleware chain, and a server wrapper
// that assembles built-in cross-cutting behavior (recovery, authentication,
// rate limiting, caching, IP blocking, tracing) via functional options.
package wombat

import (
	"errors"
	"fmt"
)

// Handler is the unit of work that middleware wraps. It reads the request
// and writes the response through the supplied [Ctx], returning an error
// when the request could not be handled. Errors are never swallowed by the
// chain; they bubble to whoever installed the composed handler.
type Handler func(c *Ctx) error

// Middleware transforms a Handler, allowing pre/post behavior composition.
// A middleware may short-circuit by writing a response without calling the
// handler it wraps.
type Middleware func(Handler) Handler

// ErrNilHandler is returned by [Compose] when the terminal handler is nil.
var ErrNilHandler = errors.New("wombat: nil terminal handler")

// ErrNilMiddleware is returned by [Compose], wrapped with the offending
// index, when a middleware entry is nil.
var ErrNilMiddleware = errors.New("wombat: nil middleware")

// Chain composes middleware from left to right, i.e. Chain(A, B)(h) => A(B(h)).
// The first middleware becomes the outermost wrapper and runs first.
func Chain(mw ...Middleware) Middleware {
	return func(next Handler) Handler {
		for i := len(mw) - 1; i >= 0; i-- {
			next = mw[i](next)
		}
		return next
	}
}

// Compose applies the middleware chain to a terminal handler and returns the
// composed handler. It validates its inputs once, at construction: a nil
// terminal handler or a nil middleware entry is a configuration error, not a
// per-request failure. An empty chain returns the terminal handler itself.
func Compose(terminal Handler, mw ...Middleware) (Handler, error) {
	if terminal == nil {
		return nil, ErrNilHandler
	}
	for i, m := range mw {
		if m == nil {
			return nil, fmt.Errorf("%w at index %d", ErrNilMiddleware, i)
		}
	}
	if len(mw) == 0 {
		return terminal, nil
	}
	return Chain(mw...)(terminal), nil
}
