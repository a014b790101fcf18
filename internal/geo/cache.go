package geo

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// progressEvery controls how often LocateAll reports progress.
const progressEvery = 100

// Cache memoizes another Locator. Concurrent lookups of the same address
// share one call to the underlying Locator.
type Cache struct {
	next  Locator
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]string
}

// NewCache wraps next with a memoizing cache.
func NewCache(next Locator) *Cache {
	return &Cache{next: next, entries: make(map[string]string)}
}

// Locate implements Locator.
func (c *Cache) Locate(addr string) string {
	c.mu.RLock()
	loc, ok := c.entries[addr]
	c.mu.RUnlock()
	if ok {
		return loc
	}

	v, _, _ := c.group.Do(addr, func() (interface{}, error) {
		loc := c.next.Locate(addr)
		c.mu.Lock()
		c.entries[addr] = loc
		c.mu.Unlock()
		return loc, nil
	})
	return v.(string)
}

// Len returns the number of cached addresses.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// LocateAll resolves every address with up to workers concurrent lookups.
// progress, if set, is called every 100 addresses and once at the end.
func LocateAll(ctx context.Context, loc Locator, addrs []string, workers int, progress func(done, total int)) (map[string]string, error) {
	if workers < 1 {
		workers = 1
	}

	out := make(map[string]string, len(addrs))
	var (
		mu   sync.Mutex
		done int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, addr := range addrs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			l := loc.Locate(addr)

			mu.Lock()
			defer mu.Unlock()
			out[addr] = l
			done++
			if progress != nil && (done%progressEvery == 0 || done == len(addrs)) {
				progress(done, len(addrs))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}
