package security

import (
	"net/http"
	"testing"
)

func TestDenyList_BlocksMatchingIP(t *testing.T) {
	blocker, err := NewIPBlocker(Config{
		Mode:  DenyList,
		CIDRs: []string{"10.0.0.0/8"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if blocker.Evaluate("10.1.2.3:5000", nil) {
		t.Fatal("expected 10.1.2.3 to be blocked by deny list")
	}
}

func TestDenyList_AllowsNonMatchingIP(t *testing.T) {
	blocker, err := NewIPBlocker(Config{
		Mode:  DenyList,
		CIDRs: []string{"10.0.0.0/8"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if !blocker.Evaluate("192.168.1.1:5000", nil) {
		t.Fatal("expected 192.168.1.1 to be allowed by deny list")
	}
}

func TestAllowList_AllowsMatchingIP(t *testing.T) {
	blocker, err := NewIPBlocker(Config{
		Mode:  AllowList,
		CIDRs: []string{"192.168.0.0/16"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if !blocker.Evaluate("192.168.1.50:8080", nil) {
		t.Fatal("expected 192.168.1.50 to be allowed by allow list")
	}
}

func TestAllowList_BlocksNonMatchingIP(t *testing.T) {
	blocker, err := NewIPBlocker(Config{
		Mode:  AllowList,
		CIDRs: []string{"192.168.0.0/16"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if blocker.Evaluate("10.0.0.1:8080", nil) {
		t.Fatal("expected 10.0.0.1 to be blocked by allow list")
	}
}

func TestTrustedProxy_UsesHeader(t *testing.T) {
	blocker, err := NewIPBlocker(Config{
		Mode:           DenyList,
		CIDRs:          []string{"203.0.113.0/24"},
		TrustedProxies: []string{"10.0.0.1"},
	})
	if err != nil {
		t.Fatal(err)
	}

	h := http.Header{}
	h.Set("X-Real-IP", "203.0.113.42")

	if blocker.Evaluate("10.0.0.1:9000", h) {
		t.Fatal("expected 203.0.113.42 (from header via trusted proxy) to be denied")
	}
}

func TestUntrustedProxy_IgnoresHeader(t *testing.T) {
	blocker, err := NewIPBlocker(Config{
		Mode:           DenyList,
		CIDRs:          []string{"203.0.113.0/24"},
		TrustedProxies: []string{"10.0.0.1"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Header claims a denied IP, but the peer is not a trusted proxy.
	h := http.Header{}
	h.Set("X-Real-IP", "203.0.113.42")

	if !blocker.Evaluate("172.16.0.5:9000", h) {
		t.Fatal("expected 172.16.0.5 to be allowed — header should be ignored for untrusted proxy")
	}
}

func TestTrustedProxy_FallsBackToPeerWhenHeaderMissing(t *testing.T) {
	blocker, err := NewIPBlocker(Config{
		Mode:           DenyList,
		CIDRs:          []string{"203.0.113.0/24"},
		TrustedProxies: []string{"10.0.0.1"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if !blocker.Evaluate("10.0.0.1:9000", nil) {
		t.Fatal("expected trusted proxy addr to be allowed when no header is set")
	}
}

func TestXForwardedFor_MultipleIPs(t *testing.T) {
	blocker, err := NewIPBlocker(Config{
		Mode:           DenyList,
		CIDRs:          []string{"198.51.100.0/24"},
		TrustedProxies: []string{"10.0.0.0/8"},
	})
	if err != nil {
		t.Fatal(err)
	}

	h := http.Header{}
	h.Set("X-Forwarded-For", "198.51.100.5, 10.0.0.2")

	if blocker.Evaluate("10.0.0.1:9000", h) {
		t.Fatal("expected leftmost IP 198.51.100.5 from X-Forwarded-For to be denied")
	}
}

func TestHeaderPriorityOrder(t *testing.T) {
	blocker, err := NewIPBlocker(Config{
		Mode:           DenyList,
		CIDRs:          []string{"198.51.100.0/24"},
		TrustedProxies: []string{"10.0.0.1"},
		HeaderPriority: []string{"X-Real-IP", "X-Forwarded-For"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// X-Real-IP carries an allowed address and has priority, so the denied
	// address in X-Forwarded-For must be ignored.
	h := http.Header{}
	h.Set("X-Real-IP", "192.0.2.9")
	h.Set("X-Forwarded-For", "198.51.100.5")

	if !blocker.Evaluate("10.0.0.1:9000", h) {
		t.Fatal("expected X-Real-IP to win per configured priority")
	}
}

func TestUnparsableRemoteAddr_Denied(t *testing.T) {
	blocker, err := NewIPBlocker(Config{
		Mode:  AllowList,
		CIDRs: []string{"0.0.0.0/0"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if blocker.Evaluate("not-an-address", nil) {
		t.Fatal("expected unparsable remote addr to be denied")
	}
}

func TestNewIPBlocker_InvalidCIDR(t *testing.T) {
	if _, err := NewIPBlocker(Config{CIDRs: []string{"300.1.2.3/8"}}); err == nil {
		t.Fatal("expected error for invalid CIDR")
	}
}
