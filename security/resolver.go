package security

import (
	"net/http"
	"net/netip"
	"strings"
)

// defaultHeaderPriority is consulted when Config.HeaderPriority is empty.
// X-Forwarded-For wins over X-Real-IP because proxies that set both usually
// treat the former as authoritative.
var defaultHeaderPriority = []string{"X-Forwarded-For", "X-Real-IP"}

// resolveClientAddr determines the effective client address.
//
// The transport peer address is always the starting point. Forwarding
// headers are only consulted when the peer is a trusted proxy; otherwise a
// client could spoof its way past the filter by setting headers itself.
// For X-Forwarded-For the leftmost entry (the original client) is used.
// When no usable header value is found the peer address itself is returned.
func resolveClientAddr(remoteAddr string, headers http.Header, trustedProxies []netip.Prefix, headerPriority []string) (netip.Addr, bool) {
	peer, ok := parseAddr(remoteAddr)
	if !ok {
		return netip.Addr{}, false
	}

	if !matchesAny(peer, trustedProxies) {
		return peer, true
	}

	for _, name := range headerPriority {
		v := headers.Get(name)
		if v == "" {
			continue
		}
		// X-Forwarded-For may carry a comma-separated chain; the original
		// client is the leftmost entry.
		first, _, _ := strings.Cut(v, ",")
		if addr, ok := parseAddr(strings.TrimSpace(first)); ok {
			return addr, true
		}
	}

	// Trusted proxy without a usable header: fall back to the peer itself.
	return peer, true
}

// parseAddr parses "ip" or "ip:port" into a netip.Addr.
func parseAddr(s string) (netip.Addr, bool) {
	if s == "" {
		return netip.Addr{}, false
	}
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap(), true
	}
	if addr, err := netip.ParseAddr(s); err == nil {
		return addr.Unmap(), true
	}
	return netip.Addr{}, false
}
