package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/wombatlabs/wombat"
	"github.com/wombatlabs/wombat/cache"
)

// HeaderCache reports whether a response was served from the cache.
const HeaderCache = "X-Cache"

// CacheConfig configures [Cache].
type CacheConfig struct {
	// Cache is the backing store. Required.
	Cache cache.Cache

	// TTL is the lifetime of cached responses. Zero means no expiration.
	TTL time.Duration

	// KeyFunc derives the cache key. The default is "METHOD path?query".
	KeyFunc func(c *wombat.Ctx) string

	// Cacheable decides whether a response may be stored. The default
	// caches GET responses with status 200.
	Cacheable func(c *wombat.Ctx, status int) bool
}

// cachedResponse is the stored envelope. Body is base64-encoded by
// encoding/json.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// Cache returns a middleware that serves GET responses from the configured
// cache and records misses. Hits short-circuit the pipeline: deeper
// middleware and the handler never run, and X-Cache reports HIT.
func Cache(cfg CacheConfig) wombat.Middleware {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = func(c *wombat.Ctx) string {
			return c.Method() + " " + c.Request.URL.RequestURI()
		}
	}
	cacheable := cfg.Cacheable
	if cacheable == nil {
		cacheable = func(c *wombat.Ctx, status int) bool {
			return c.Method() == http.MethodGet && status == http.StatusOK
		}
	}

	return func(next wombat.Handler) wombat.Handler {
		return func(c *wombat.Ctx) error {
			if c.Method() != http.MethodGet {
				return next(c)
			}
			key := keyFunc(c)

			if raw, ok, _ := cfg.Cache.Get(c.Context(), key); ok {
				var stored cachedResponse
				if err := json.Unmarshal(raw, &stored); err == nil {
					replay(c, &stored)
					return nil
				}
				// A corrupt entry is dropped and treated as a miss.
				_ = cfg.Cache.Delete(c.Context(), key)
			}

			rec := newRecorder(c.Response)
			orig := c.Response
			c.Response = rec
			err := next(c)
			c.Response = orig

			// A failed handler that wrote nothing gets no flush; committing
			// an empty 200 here would lock the error callback out of the
			// response.
			if err != nil && rec.status == 0 && rec.body.Len() == 0 {
				return err
			}

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}

			if err == nil && cacheable(c, status) {
				stored := cachedResponse{
					Status: status,
					Header: rec.Header().Clone(),
					Body:   bytes.Clone(rec.body.Bytes()),
				}
				if raw, mErr := json.Marshal(&stored); mErr == nil {
					_ = cfg.Cache.Set(c.Context(), key, raw, cfg.TTL)
				}
			}

			rec.flush(orig)
			return err
		}
	}
}

// replay writes a cached response envelope to the client.
func replay(c *wombat.Ctx, stored *cachedResponse) {
	h := c.Response.Header()
	for k, vals := range stored.Header {
		h[k] = vals
	}
	h.Set(HeaderCache, "HIT")
	c.Status(stored.Status)
	_, _ = c.Response.Write(stored.Body)
}

// recorder buffers a response so it can be both stored and forwarded.
type recorder struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newRecorder(w http.ResponseWriter) *recorder {
	return &recorder{header: w.Header().Clone()}
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
}

func (r *recorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.body.Write(p)
}

// flush forwards the buffered response to the real writer.
func (r *recorder) flush(w http.ResponseWriter) {
	h := w.Header()
	for k, vals := range r.header {
		h[k] = vals
	}
	h.Set(HeaderCache, "MISS")
	status := r.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(r.body.Bytes())
}
