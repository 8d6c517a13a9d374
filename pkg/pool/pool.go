package pool

import (
	"context"
	"sync"
)

// WorkerFunc defines the function signature for a worker that processes an item and may return an error.
type WorkerFunc[T any] func(ctx context.Context, item T) error

// Result records the outcome of processing a single item.
type Result[T any] struct {
	Item T
	Err  error
}

// Run executes a worker pool. It processes a slice of items concurrently and
// returns one Result per item, preserving input order. numWorkers is clamped
// to [1, len(items)]. When the context is cancelled, items that were never
// handed to a worker are reported with ctx.Err() instead of being dropped.
func Run[T any](ctx context.Context, items []T, numWorkers int, workerFunc WorkerFunc[T]) []Result[T] {
	results := make([]Result[T], len(items))
	for i, item := range items {
		results[i].Item = item
	}
	if len(items) == 0 {
		return results
	}
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > len(items) {
		numWorkers = len(items)
	}

	var wg sync.WaitGroup
	taskChan := make(chan int, numWorkers)

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range taskChan {
				select {
				case <-ctx.Done():
					results[idx].Err = ctx.Err()
				default:
					results[idx].Err = workerFunc(ctx, results[idx].Item)
				}
			}
		}()
	}

	next := 0
OUT:
	for ; next < len(items); next++ {
		select {
		case taskChan <- next:
		case <-ctx.Done():
			// Stop feeding tasks if the context is cancelled
			break OUT
		}
	}
	close(taskChan)

	// Indices past next were never enqueued, so no worker touches them.
	for ; next < len(items); next++ {
		results[next].Err = ctx.Err()
	}

	wg.Wait()
	return results
}
