package profile

import (
	"context"
	"sort"
	"sync"
	"time"

	"diamondhost/admin-console/internal/model"
)

// MemoryStore is a process-local Store for development runs without a
// database.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]model.Profile
}

func NewMemoryStore(seed ...model.Profile) *MemoryStore {
	m := &MemoryStore{profiles: make(map[string]model.Profile)}
	for _, p := range seed {
		m.profiles[p.UID] = p
	}
	return m
}

func (m *MemoryStore) Get(_ context.Context, uid string) (model.Profile, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[uid]
	return p, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, profile model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.profiles[profile.UID]; ok && !existing.CreatedAt.IsZero() {
		profile.CreatedAt = existing.CreatedAt
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	m.profiles[profile.UID] = profile
	return nil
}

func (m *MemoryStore) ListByRoles(_ context.Context, roles ...model.Role) ([]model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		if len(roles) == 0 || containsRole(roles, p.Role) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].UID < out[j].UID
	})
	return out, nil
}

func containsRole(roles []model.Role, role model.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
