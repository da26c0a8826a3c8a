// Package core holds the pipeline assembly logic shared by the public server
// API. Keeping it internal isolates the wiring rules from the API surface.
package core

import (
	"cmp"
	"slices"
)

// entry pairs a middleware value with a deterministic execution order.
// Lower order values wrap further out and therefore run first.
type entry[M any] struct {
	mw    M
	order int
}

// PipelineBuilder collects middleware entries and produces an ordered slice
// ready for chaining. The zero value is ready to use.
type PipelineBuilder[M any] struct {
	entries []entry[M]
}

// Add registers a middleware with the given order.
func (b *PipelineBuilder[M]) Add(order int, mw M) {
	b.entries = append(b.entries, entry[M]{mw: mw, order: order})
}

// Len returns the number of registered entries.
func (b *PipelineBuilder[M]) Len() int { return len(b.entries) }

// Build sorts the collected entries by order (stable, so entries sharing an
// order keep their registration sequence) and returns the middleware slice.
func (b *PipelineBuilder[M]) Build() []M {
	slices.SortStableFunc(b.entries, func(x, y entry[M]) int {
		return cmp.Compare(x.order, y.order)
	})

	out := make([]M, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e.mw)
	}
	return out
}
