package policy

import "fmt"

// Resolver holds a set of route groups and resolves an HTTP method and path
// to the best-matching group and its associated policy.
type Resolver struct {
	groups []*GroupBuilder
}

// NewResolver creates a Resolver from the supplied group builders.
func NewResolver(groups ...*GroupBuilder) *Resolver {
	return &Resolver{groups: groups}
}

// Validate checks every group policy for internal consistency. A RateLimit
// rule needs a positive Rate and Window: a zero Window would compute an
// infinite refill rate and silently disable the limit.
func (res *Resolver) Validate() error {
	for _, g := range res.groups {
		if g.policy == nil || g.policy.RateLimit == nil {
			continue
		}
		rl := g.policy.RateLimit
		if rl.Rate <= 0 || rl.Window <= 0 {
			return fmt.Errorf("policy: group %q: rate limit needs a positive rate and window (rate=%d, window=%s)", g.name, rl.Rate, rl.Window)
		}
	}
	return nil
}

// Resolve finds the best-matching group for the given method and path.
//
// Priority rules:
//   - Exact matches beat prefix matches, which beat regex matches.
//   - Among matches of the same kind the longer match wins.
//   - When two matches have equal kind and length the group that was
//     registered first (stable order) wins.
//
// Groups restricted via Methods only participate for matching methods.
// If no group matches, ok is false.
func (res *Resolver) Resolve(method, path string) (groupName string, pol *Policy, ok bool) {
	bestKind := matchKind(-1)
	bestLen := -1

	for _, g := range res.groups {
		if !g.matchesMethod(method) {
			continue
		}
		for _, r := range g.rules {
			matched, mLen := r.match(path)
			if !matched {
				continue
			}
			// A lower kind value means higher priority.
			better := bestKind < 0 ||
				r.kind < bestKind ||
				(r.kind == bestKind && mLen > bestLen)
			if better {
				bestKind = r.kind
				bestLen = mLen
				groupName = g.name
				pol = g.policy
				ok = true
			}
		}
	}
	return groupName, pol, ok
}
