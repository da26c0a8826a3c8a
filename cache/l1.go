package cache

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// L1 is an in-process cache backed by ristretto.
type L1 struct {
	rc    *ristretto.Cache[string, []byte]
	group *loadGroup
}

// NewL1 creates a new L1 cache. maxEntries controls how many entries the
// cache can hold (each entry has a cost of 1).
func NewL1(maxEntries int64) (*L1, error) {
	rc, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &L1{rc: rc, group: newLoadGroup()}, nil
}

// Get retrieves a value by key.
func (l *L1) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := l.rc.Get(key)
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

// Set stores a value under key with the given TTL.
func (l *L1) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	l.rc.SetWithTTL(key, bytes.Clone(val), 1, ttl)
	l.rc.Wait()
	return nil
}

// Delete removes the entry for key.
func (l *L1) Delete(_ context.Context, key string) error {
	l.rc.Del(key)
	return nil
}

// GetOrSet returns the cached value for key. On a miss it calls loader once
// (deduplicating concurrent callers for the same key), stores the result, and
// returns it.
func (l *L1) GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	if v, ok, _ := l.Get(ctx, key); ok {
		return v, nil
	}

	val, err := l.group.do(ctx, key, func(ctx context.Context) ([]byte, error) {
		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		_ = l.Set(ctx, key, v, ttl)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return bytes.Clone(val), nil
}
