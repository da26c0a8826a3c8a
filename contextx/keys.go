// Package contextx defines the typed context values that wombat middleware
// threads through a request: the request ID, the authenticated actor, and
// the negotiated locale.
package contextx

// contextKey is an unexported type used as context key to avoid collisions
// with keys defined in other packages.
type contextKey int

const (
	requestIDKey contextKey = iota
	actorKey
	localeKey
)
