package contextx

import "context"

// WithLocale returns a derived context that carries the given locale tag
// (for example "en" or "de-AT").
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey, locale)
}

// LocaleFromContext extracts the locale stored in ctx.
// It returns an empty string when no locale is present.
func LocaleFromContext(ctx context.Context) string {
	l, _ := ctx.Value(localeKey).(string)
	return l
}
