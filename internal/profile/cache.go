package profile

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"diamondhost/admin-console/internal/model"
)

// CachedStore serves profile reads from a bounded expiring cache in front of
// another Store. Misses are not cached, so a profile created elsewhere shows
// up on the next read.
type CachedStore struct {
	next  Store
	cache *expirable.LRU[string, model.Profile]
}

func NewCachedStore(next Store, size int, ttl time.Duration) *CachedStore {
	if size <= 0 {
		size = 512
	}
	return &CachedStore{
		next:  next,
		cache: expirable.NewLRU[string, model.Profile](size, nil, ttl),
	}
}

func (c *CachedStore) Get(ctx context.Context, uid string) (model.Profile, bool, error) {
	if profile, ok := c.cache.Get(uid); ok {
		return profile, true, nil
	}
	profile, found, err := c.next.Get(ctx, uid)
	if err != nil || !found {
		return profile, found, err
	}
	c.cache.Add(uid, profile)
	return profile, true, nil
}

func (c *CachedStore) Set(ctx context.Context, profile model.Profile) error {
	if err := c.next.Set(ctx, profile); err != nil {
		c.cache.Remove(profile.UID)
		return err
	}
	c.cache.Add(profile.UID, profile)
	return nil
}

func (c *CachedStore) ListByRoles(ctx context.Context, roles ...model.Role) ([]model.Profile, error) {
	return c.next.ListByRoles(ctx, roles...)
}

// Forget drops a cached profile, e.g. when its session ends.
func (c *CachedStore) Forget(uid string) {
	c.cache.Remove(uid)
}
