package middleware

import (
	"strings"

	"github.com/wombatlabs/wombat"
	"github.com/wombatlabs/wombat/contextx"
)

// LocaleConfig configures [Locale].
type LocaleConfig struct {
	// Supported lists the locale tags the application can serve, e.g.
	// {"en", "de", "fr"}. The first entry is the fallback. Required.
	Supported []string

	// CookieName is checked before the Accept-Language header.
	// Empty disables the cookie lookup.
	CookieName string

	// Handlers, when non-nil, maps a locale tag to a dedicated handler.
	// A request whose negotiated locale has an entry is delegated to that
	// handler instead of the wrapped one.
	Handlers map[string]wombat.Handler
}

// Locale returns a middleware that negotiates the request locale (cookie,
// then Accept-Language, then the first supported tag), stores it in the
// request context, and optionally delegates to a per-locale handler.
func Locale(cfg LocaleConfig) wombat.Middleware {
	supported := make(map[string]bool, len(cfg.Supported))
	for _, tag := range cfg.Supported {
		supported[strings.ToLower(tag)] = true
	}

	return func(next wombat.Handler) wombat.Handler {
		return func(c *wombat.Ctx) error {
			locale := negotiate(c, cfg, supported)
			c.SetContext(contextx.WithLocale(c.Context(), locale))
			c.Header("Content-Language", locale)

			if h, ok := cfg.Handlers[locale]; ok {
				return h(c)
			}
			return next(c)
		}
	}
}

// negotiate picks the request locale: cookie first, then Accept-Language in
// listed order, then the fallback.
func negotiate(c *wombat.Ctx, cfg LocaleConfig, supported map[string]bool) string {
	if cfg.CookieName != "" {
		if ck := c.Cookie(cfg.CookieName); ck != nil {
			if tag := normalize(ck.Value, supported); tag != "" {
				return tag
			}
		}
	}

	for _, part := range strings.Split(c.Request.Header.Get("Accept-Language"), ",") {
		// Strip quality values: "de-AT;q=0.8" → "de-AT".
		tag, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if t := normalize(tag, supported); t != "" {
			return t
		}
	}

	if len(cfg.Supported) > 0 {
		return cfg.Supported[0]
	}
	return ""
}

// normalize matches a tag against the supported set, falling back from
// "de-AT" to its base language "de".
func normalize(tag string, supported map[string]bool) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return ""
	}
	if supported[tag] {
		return tag
	}
	if base, _, ok := strings.Cut(tag, "-"); ok && supported[base] {
		return base
	}
	return ""
}
