package cache

import (
	"bytes"
	"context"
	"time"
)

// Tiered combines an L1 (in-process) and L2 (Redis) cache. Reads check L1
// first, then L2, then the loader. Writes populate both layers.
type Tiered struct {
	l1    *L1
	l2    *L2
	group *loadGroup
}

// NewTiered creates a two-level cache.
func NewTiered(l1 *L1, l2 *L2) *Tiered {
	return &Tiered{l1: l1, l2: l2, group: newLoadGroup()}
}

// Get checks L1, then L2. On an L2 hit the value is promoted into L1 (with
// zero TTL since the original TTL is unknown).
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok, err := t.l1.Get(ctx, key); err != nil || ok {
		return v, ok, err
	}
	v, ok, err := t.l2.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = t.l1.Set(ctx, key, v, 0)
	return v, true, nil
}

// Set writes the value to both L2 and L1.
func (t *Tiered) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	_ = t.l2.Set(ctx, key, val, ttl)
	return t.l1.Set(ctx, key, val, ttl)
}

// Delete removes the entry for key from both layers.
func (t *Tiered) Delete(ctx context.Context, key string) error {
	_ = t.l2.Delete(ctx, key)
	return t.l1.Delete(ctx, key)
}

// GetOrSet follows the L1 → L2 → loader pattern, deduplicating concurrent
// loads for the same key.
func (t *Tiered) GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	if v, ok, _ := t.l1.Get(ctx, key); ok {
		return v, nil
	}

	if v, ok, _ := t.l2.Get(ctx, key); ok {
		_ = t.l1.Set(ctx, key, v, ttl)
		return bytes.Clone(v), nil
	}

	val, err := t.group.do(ctx, key, func(ctx context.Context) ([]byte, error) {
		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		_ = t.l2.Set(ctx, key, v, ttl)
		_ = t.l1.Set(ctx, key, v, ttl)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return bytes.Clone(val), nil
}
