package cache

import (
	"bytes"
	"os"
	"testing"
	"time"
)

// newTestL2 connects to the Redis instance named by WOMBAT_REDIS_ADDR, or
// skips the test when the variable is unset.
func newTestL2(t *testing.T) *L2 {
	t.Helper()
	addr := os.Getenv("WOMBAT_REDIS_ADDR")
	if addr == "" {
		t.Skip("WOMBAT_REDIS_ADDR not set; skipping Redis integration test")
	}
	l2 := NewL2(addr, "", 0)
	if err := l2.Ping(t.Context()); err != nil {
		t.Fatalf("redis ping: %v", err)
	}
	t.Cleanup(func() { _ = l2.Close() })
	return l2
}

func TestL2SetGetDelete(t *testing.T) {
	l2 := newTestL2(t)
	ctx := t.Context()

	key := "wombat:test:" + t.Name()
	if err := l2.Set(ctx, key, []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	v, ok, err := l2.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || !bytes.Equal(v, []byte("v")) {
		t.Fatalf("got (%q, %v), want (%q, true)", v, ok, "v")
	}

	if err := l2.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := l2.Get(ctx, key); ok {
		t.Fatal("expected a miss after delete")
	}
}

func TestTieredPromotesL2Hit(t *testing.T) {
	l2 := newTestL2(t)
	l1, err := NewL1(100)
	if err != nil {
		t.Fatalf("NewL1: %v", err)
	}
	tc := NewTiered(l1, l2)
	ctx := t.Context()

	key := "wombat:test:" + t.Name()
	// Seed only L2, then read through the tiered cache.
	_ = l2.Set(ctx, key, []byte("deep"), time.Minute)
	t.Cleanup(func() { _ = l2.Delete(ctx, key) })

	v, ok, err := tc.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || !bytes.Equal(v, []byte("deep")) {
		t.Fatalf("got (%q, %v), want (%q, true)", v, ok, "deep")
	}

	// The value must now be present in L1.
	if _, ok, _ := l1.Get(ctx, key); !ok {
		t.Fatal("expected L2 hit to be promoted into L1")
	}
}
