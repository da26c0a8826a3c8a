package middleware

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/wombatlabs/wombat"
	"github.com/wombatlabs/wombat/contextx"
)

// HeaderRequestID is the response header carrying the request ID.
const HeaderRequestID = "X-Request-ID"

// newRequestID generates a random hex-encoded request identifier.
func newRequestID() string {
	var buf [16]byte
	_, _ = rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}

// RequestID returns a middleware that ensures a request ID is present in the
// request context and echoes it in the X-Request-ID response header. An ID
// supplied by the client in the same header is trusted and reused.
func RequestID() wombat.Middleware {
	return func(next wombat.Handler) wombat.Handler {
		return func(c *wombat.Ctx) error {
			id := c.Request.Header.Get(HeaderRequestID)
			if id == "" {
				id = newRequestID()
			}
			if contextx.RequestIDFromContext(c.Context()) == "" {
				c.SetContext(contextx.WithRequestID(c.Context(), id))
			}
			c.Header(HeaderRequestID, id)
			return next(c)
		}
	}
}
