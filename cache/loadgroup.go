package cache

import (
	"context"
	"sync"
)

// loadGroup deduplicates concurrent loads for the same key so that a miss
// storm triggers the loader exactly once per key.
type loadGroup struct {
	mu    sync.Mutex
	loads map[string]*call
}

// call tracks one in-flight load.
type call struct {
	wg  sync.WaitGroup
	val []byte
	err error
}

func newLoadGroup() *loadGroup {
	return &loadGroup{loads: make(map[string]*call)}
}

// do runs loader for key unless another goroutine is already loading it, in
// which case it waits for that result instead.
func (g *loadGroup) do(ctx context.Context, key string, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	g.mu.Lock()
	if c, ok := g.loads[key]; ok {
		g.mu.Unlock()
		c.wg.Wait()
		return c.val, c.err
	}

	c := &call{}
	c.wg.Add(1)
	g.loads[key] = c
	g.mu.Unlock()

	c.val, c.err = loader(ctx)
	c.wg.Done()

	g.mu.Lock()
	delete(g.loads, key)
	g.mu.Unlock()

	return c.val, c.err
}
