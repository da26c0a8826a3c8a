// Package policy maps request paths to named groups and per-group rules
// (rate limits, timeouts, authentication requirements). Groups are built
// with a small fluent builder and resolved per request by [Resolver].
package policy

import (
	"regexp"
	"time"
)

// RateLimitRule describes a rate-limiting policy for a group of routes.
type RateLimitRule struct {
	// Rate is the maximum number of requests allowed within Window.
	Rate int
	// Window is the time window for the rate limit.
	Window time.Duration
}

// Policy holds the configuration that applies to a matched route group.
type Policy struct {
	RateLimit    *RateLimitRule
	Timeout      time.Duration
	AuthRequired bool
}

// matchKind distinguishes the three matching strategies.
type matchKind int

const (
	kindExact  matchKind = iota // highest priority
	kindPrefix                  // medium priority
	kindRegex                   // lowest priority
)

// rule is a single matching rule inside a group.
type rule struct {
	kind    matchKind
	pattern string         // used for exact and prefix matches
	re      *regexp.Regexp // used for regex matches
}

// GroupBuilder constructs a route group with one or more matching rules, an
// optional method restriction, and a policy.
type GroupBuilder struct {
	name    string
	methods map[string]bool // nil means any method
	rules   []rule
	policy  *Policy
}

// Group starts building a new route group with the given name.
func Group(name string) *GroupBuilder {
	return &GroupBuilder{name: name}
}

// Methods restricts the group to the given HTTP methods. Without it the
// group matches any method.
func (g *GroupBuilder) Methods(methods ...string) *GroupBuilder {
	if g.methods == nil {
		g.methods = make(map[string]bool, len(methods))
	}
	for _, m := range methods {
		g.methods[m] = true
	}
	return g
}

// Exact adds an exact-match rule for the given path.
func (g *GroupBuilder) Exact(path string) *GroupBuilder {
	g.rules = append(g.rules, rule{kind: kindExact, pattern: path})
	return g
}

// Prefix adds a prefix-match rule for the given path prefix.
func (g *GroupBuilder) Prefix(prefix string) *GroupBuilder {
	g.rules = append(g.rules, rule{kind: kindPrefix, pattern: prefix})
	return g
}

// Regex adds a regex-match rule for the given pattern.
// The pattern is compiled immediately; an invalid regex will panic.
func (g *GroupBuilder) Regex(pattern string) *GroupBuilder {
	g.rules = append(g.rules, rule{kind: kindRegex, pattern: pattern, re: regexp.MustCompile(pattern)})
	return g
}

// Policy attaches a Policy to the group and returns the finished builder.
func (g *GroupBuilder) Policy(p Policy) *GroupBuilder {
	g.policy = &p
	return g
}

// matchesMethod reports whether the group applies to the given HTTP method.
func (g *GroupBuilder) matchesMethod(method string) bool {
	return g.methods == nil || g.methods[method]
}
