package listing

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultTrackerCapacity bounds how many IDs a Tracker remembers.
const DefaultTrackerCapacity = 10000

// Tracker reports items whose ID it has never observed before. IDs that drop
// out of a poll stay remembered, so an item coming back is not new. The first
// observation only records what exists.
type Tracker[T any] struct {
	id func(T) string

	mu     sync.Mutex
	primed bool
	seen   *lru.Cache[string, struct{}]
}

func NewTracker[T any](id func(T) string) *Tracker[T] {
	return NewTrackerSize(id, DefaultTrackerCapacity)
}

// NewTrackerSize remembers at most size IDs, evicting the least recently
// observed ones first.
func NewTrackerSize[T any](id func(T) string, size int) *Tracker[T] {
	if size <= 0 {
		size = DefaultTrackerCapacity
	}
	seen, _ := lru.New[string, struct{}](size)
	return &Tracker[T]{id: id, seen: seen}
}

func (t *Tracker[T]) Observe(items []T) []T {
	t.mu.Lock()
	defer t.mu.Unlock()

	var fresh []T
	for _, item := range items {
		if !t.seen.Contains(t.id(item)) && t.primed {
			fresh = append(fresh, item)
		}
	}
	for _, item := range items {
		t.seen.Add(t.id(item), struct{}{})
	}
	t.primed = true
	return fresh
}
