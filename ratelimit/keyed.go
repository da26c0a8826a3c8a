package ratelimit

import "sync"

// Keyed is a registry of limiters created lazily per key (a policy group
// name, a tenant, a client IP). All methods are safe for concurrent use.
type Keyed struct {
	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewKeyed creates an empty keyed limiter registry.
func NewKeyed() *Keyed {
	return &Keyed{limiters: make(map[string]*Limiter)}
}

// Get returns the limiter for key, creating it with the given parameters on
// first use. Parameters of an existing limiter are not changed.
func (k *Keyed) Get(key string, rps float64, burst int) *Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	if l, ok := k.limiters[key]; ok {
		return l
	}
	l := NewLimiter(rps, burst)
	k.limiters[key] = l
	return l
}

// Allow is shorthand for Get(key, rps, burst).Allow().
func (k *Keyed) Allow(key string, rps float64, burst int) bool {
	return k.Get(key, rps, burst).Allow()
}
