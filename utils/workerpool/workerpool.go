// Package workerpool runs independent jobs on a bounded number of goroutines.
package workerpool

import (
	"context"
	"sync"
)

// Map calls fn on every item using at most workers goroutines and returns
// the results in item order. The first error cancels the context handed to
// the remaining calls and is returned once every worker has stopped.
// Items not yet started when the pool is cancelled are skipped.
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, i int, item T) (R, error)) ([]R, error) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		results = make([]R, len(items))
		tasks   = make(chan int)
		once    sync.Once
		first   error
		wg      sync.WaitGroup
	)
	fail := func(err error) {
		once.Do(func() {
			first = err
			cancel()
		})
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				if ctx.Err() != nil {
					continue
				}
				r, err := fn(ctx, i, items[i])
				if err != nil {
					fail(err)
					continue
				}
				results[i] = r
			}
		}()
	}

feed:
	for i := range items {
		select {
		case <-ctx.Done():
			break feed
		case tasks <- i:
		}
	}
	close(tasks)
	wg.Wait()

	if first != nil {
		return results, first
	}
	return results, ctx.Err()
}
