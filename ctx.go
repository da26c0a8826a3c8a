package wombat

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
)

// Ctx wraps an incoming request and its response writer with small helpers
// so handlers and middleware can read the request and produce a response
// without juggling both values separately.
//
// Status tracking (StatusCode, Written) only observes writes made through
// the Ctx helpers. Writing to Response directly is allowed, but the access
// log, metrics, and breaker middleware will then see the request as an
// unwritten 200 — prefer Status, Text, JSON, and friends.
type Ctx struct {
	Request  *http.Request
	Response http.ResponseWriter

	status  int
	written bool
}

// NewCtx creates a Ctx for the given response writer and request.
func NewCtx(w http.ResponseWriter, r *http.Request) *Ctx {
	return &Ctx{Request: r, Response: w}
}

// Reset prepares a pooled Ctx for reuse with a fresh request.
func (c *Ctx) Reset(w http.ResponseWriter, r *http.Request) {
	c.Request = r
	c.Response = w
	c.status = 0
	c.written = false
}

// Method returns the request method.
func (c *Ctx) Method() string { return c.Request.Method }

// Path returns the request URL path.
func (c *Ctx) Path() string { return c.Request.URL.Path }

// Query returns the named query parameter.
func (c *Ctx) Query(name string) string {
	return c.Request.URL.Query().Get(name)
}

// Context returns the request context.
func (c *Ctx) Context() context.Context { return c.Request.Context() }

// SetContext replaces the request context. Middleware uses this to thread
// derived values (request ID, actor, locale) to deeper layers.
func (c *Ctx) SetContext(ctx context.Context) {
	c.Request = c.Request.WithContext(ctx)
}

// Header sets a response header.
func (c *Ctx) Header(key, value string) {
	c.Response.Header().Set(key, value)
}

// Cookie returns the named request cookie, or nil when absent.
func (c *Ctx) Cookie(name string) *http.Cookie {
	ck, err := c.Request.Cookie(name)
	if err != nil {
		return nil
	}
	return ck
}

// SetCookie adds a Set-Cookie header to the response.
func (c *Ctx) SetCookie(ck *http.Cookie) {
	http.SetCookie(c.Response, ck)
}

// Status writes the response status code once. Later calls are no-ops.
func (c *Ctx) Status(code int) {
	if c.written {
		return
	}
	c.status = code
	c.written = true
	c.Response.WriteHeader(code)
}

// StatusCode returns the status code recorded through the Ctx helpers,
// or 0 when nothing has been written yet.
func (c *Ctx) StatusCode() int { return c.status }

// Written reports whether a response has been started through the Ctx helpers.
func (c *Ctx) Written() bool { return c.written }

// Text writes a plain-text response.
func (c *Ctx) Text(code int, body string) error {
	if !c.written {
		c.Response.Header().Set("Content-Type", "text/plain; charset=utf-8")
		c.Status(code)
	}
	_, err := c.Response.Write([]byte(body))
	return err
}

// JSON writes a JSON response.
func (c *Ctx) JSON(code int, v any) error {
	if !c.written {
		c.Response.Header().Set("Content-Type", "application/json; charset=utf-8")
		c.Status(code)
	}
	return json.NewEncoder(c.Response).Encode(v)
}

// NoContent writes an empty 204 response.
func (c *Ctx) NoContent() error {
	c.Status(http.StatusNoContent)
	return nil
}

// Redirect writes a redirect response to url. The code should be in the 3xx
// range; [http.StatusFound] is the usual choice.
func (c *Ctx) Redirect(code int, url string) error {
	if c.written {
		return nil
	}
	c.status = code
	c.written = true
	http.Redirect(c.Response, c.Request, url, code)
	return nil
}

// ClientIP returns the remote address without the port. It does not consult
// forwarding headers; proxy-aware resolution lives in the security package.
func (c *Ctx) ClientIP() string {
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(c.Request.RemoteAddr)
	}
	return host
}
