package accesslog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/cidr"
)

// Counts maps an address to the number of lines it appeared on.
type Counts map[string]int

// AddressCount is one entry of a sorted Counts.
type AddressCount struct {
	Address string `json:"ip"`
	Count   int    `json:"count"`
}

// Sorted returns the counts by descending hit count. Ties are ordered by
// numeric address, so the result does not depend on map iteration order.
func (c Counts) Sorted() []AddressCount {
	out := make([]AddressCount, 0, len(c))
	for addr, n := range c {
		out = append(out, AddressCount{Address: addr, Count: n})
	}

	slices.SortFunc(out, func(a, b AddressCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return compareAddresses(a.Address, b.Address)
	})

	return out
}

// Total returns the sum of all counts.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

func compareAddresses(a, b string) int {
	av, aerr := cidr.Encode(a)
	bv, berr := cidr.Encode(b)
	switch {
	case aerr == nil && berr == nil && av != bv:
		if av < bv {
			return -1
		}
		return 1
	case aerr == nil && berr != nil:
		return -1
	case aerr != nil && berr == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// Counter aggregates address counts over many log files.
type Counter struct {
	workers  int
	logger   *log.Logger
	progress func(done, total int, path string)
}

// CounterOption configures a Counter.
type CounterOption func(*Counter)

// WithWorkers sets how many files are read concurrently.
func WithWorkers(n int) CounterOption {
	return func(c *Counter) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithProgress registers a callback invoked after each file is finished.
func WithProgress(fn func(done, total int, path string)) CounterOption {
	return func(c *Counter) { c.progress = fn }
}

// NewCounter creates a Counter that logs through logger.
func NewCounter(logger *log.Logger, opts ...CounterOption) *Counter {
	c := &Counter{workers: 1, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CountFiles counts addresses across files. A file that cannot be read is
// logged and skipped; its error is returned in the slice and the counts from
// the other files are still reported. Only context cancellation aborts the
// whole run.
func (c *Counter) CountFiles(ctx context.Context, files []string) (Counts, []error) {
	total := make(Counts)
	var (
		mu   sync.Mutex
		errs []error
		done int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for _, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			local := make(Counts)
			err := ScanFile(path, func(addr string) error {
				local[addr]++
				return nil
			})

			mu.Lock()
			defer mu.Unlock()

			done++
			if err != nil {
				c.logger.Error("failed to process log file", "file", path, "error", err)
				errs = append(errs, err)
			} else {
				for addr, n := range local {
					total[addr] += n
				}
				c.logger.Debug("processed log file", "file", path, "addresses", len(local))
			}
			if c.progress != nil {
				c.progress(done, len(files), path)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		errs = append(errs, fmt.Errorf("counting aborted: %w", err))
	}

	return total, errs
}
