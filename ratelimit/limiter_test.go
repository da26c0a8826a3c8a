package ratelimit

import "testing"

func TestLimiterAllowsWithinBurst(t *testing.T) {
	l := NewLimiter(1, 3)

	for i := range 3 {
		if !l.Allow() {
			t.Fatalf("request %d should be allowed within burst", i)
		}
	}
	if l.Allow() {
		t.Fatal("request beyond burst should be denied")
	}
}

func TestKeyedCreatesPerKeyLimiters(t *testing.T) {
	k := NewKeyed()

	if !k.Allow("a", 1, 1) {
		t.Fatal("first request for key a should be allowed")
	}
	if k.Allow("a", 1, 1) {
		t.Fatal("second request for key a should be denied")
	}
	// A different key has its own bucket.
	if !k.Allow("b", 1, 1) {
		t.Fatal("first request for key b should be allowed")
	}
}

func TestKeyedReusesLimiter(t *testing.T) {
	k := NewKeyed()
	a := k.Get("a", 1, 1)
	b := k.Get("a", 100, 100)
	if a != b {
		t.Fatal("Get should return the same limiter for the same key")
	}
}
