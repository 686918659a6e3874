package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency is the default number of concurrent uploads
const DefaultConcurrency = 4

// BulkResult represents the outcome of a single bulk operation
type BulkResult struct {
	Key     string `json:"key"`
	Success bool   `json:"success"`
	Error   error  `json:"-"`
	Data    any    `json:"data,omitempty"`
}

// bulkItem is the structured-output shape of a BulkResult.
type bulkItem struct {
	Key     string `json:"key"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func bulkItems(results []BulkResult) []bulkItem {
	items := make([]bulkItem, 0, len(results))
	for _, r := range results {
		item := bulkItem{Key: r.Key, Success: r.Success, Data: r.Data}
		if r.Error != nil {
			item.Error = r.Error.Error()
		}
		items = append(items, item)
	}
	return items
}

// runBulkOperation executes operations concurrently with bounded parallelism.
// Results come back in the order of keys; entries skipped because ctx was
// cancelled carry ctx's error.
func runBulkOperation[T any](
	ctx context.Context,
	keys []string,
	concurrency int64,
	progress bool,
	errOut io.Writer,
	operation func(ctx context.Context, key string) (T, error),
) []BulkResult {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if errOut == nil {
		errOut = io.Discard
	}

	sem := semaphore.NewWeighted(concurrency)
	var mu sync.Mutex
	results := make([]BulkResult, len(keys))
	total := len(keys)
	var done int64

	g, gctx := errgroup.WithContext(ctx)

	for i, key := range keys {
		results[i] = BulkResult{Key: key}

		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				results[i].Error = err
				return nil
			}
			defer sem.Release(1)

			if err := gctx.Err(); err != nil {
				results[i].Error = err
				return nil
			}

			data, err := operation(gctx, key)
			if err != nil {
				results[i].Error = err
			} else {
				results[i].Success = true
				results[i].Data = data
			}

			if progress && total > 0 {
				current := atomic.AddInt64(&done, 1)
				mu.Lock()
				_, _ = fmt.Fprintf(errOut, "\rProcessed %d/%d", current, total)
				mu.Unlock()
			}

			return nil // individual failures don't cancel the group
		})
	}

	_ = g.Wait()

	if progress && total > 0 {
		_, _ = fmt.Fprintf(errOut, "\rProcessed %d/%d\n", atomic.LoadInt64(&done), total)
	}

	return results
}

// countResults returns success and failure counts from bulk results
func countResults(results []BulkResult) (success, failure int) {
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failure++
		}
	}
	return
}
