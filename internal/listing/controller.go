package listing

import (
	"context"
	"sync"
	"sync/atomic"
)

type Fetcher[T any] func(ctx context.Context) ([]T, error)

// Controller loads a collection and keeps the newest snapshot. Every load
// takes a sequence number when it starts; a response that finishes after a
// later one has been committed is discarded.
type Controller[T any] struct {
	fetch Fetcher[T]
	seq   atomic.Uint64

	mu        sync.Mutex
	committed uint64
	items     []T
}

func NewController[T any](fetch Fetcher[T]) *Controller[T] {
	return &Controller[T]{fetch: fetch}
}

// Load fetches the full collection. When a newer load has already been
// committed, its snapshot is returned instead of the stale response. A
// failed load returns the error and leaves the snapshot untouched; callers
// show the failure rather than older data.
func (c *Controller[T]) Load(ctx context.Context) ([]T, error) {
	n := c.seq.Add(1)
	items, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if n < c.committed {
		return c.items, nil
	}
	c.committed = n
	c.items = items
	return items, nil
}
