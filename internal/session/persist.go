package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"diamondhost/admin-console/internal/model"
)

// Record is the persisted part of a session: enough to resume it after a
// restart. The profile is fetched again on restore.
type Record struct {
	ID            string    `json:"id"`
	UID           string    `json:"uid"`
	Email         string    `json:"email"`
	IdentityToken string    `json:"identity_token"`
	RefreshToken  string    `json:"refresh_token"`
	ExpiresAt     time.Time `json:"expires_at"`
	Device        string    `json:"device,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func recordOf(s *model.Session) Record {
	return Record{
		ID:            s.ID,
		UID:           s.UID,
		Email:         s.Email,
		IdentityToken: s.IdentityToken,
		RefreshToken:  s.RefreshToken,
		ExpiresAt:     s.ExpiresAt,
		Device:        s.Device,
		CreatedAt:     s.CreatedAt,
	}
}

func (r Record) session() *model.Session {
	return &model.Session{
		ID:            r.ID,
		UID:           r.UID,
		Email:         r.Email,
		IdentityToken: r.IdentityToken,
		RefreshToken:  r.RefreshToken,
		ExpiresAt:     r.ExpiresAt,
		Device:        r.Device,
		CreatedAt:     r.CreatedAt,
	}
}

type Persister interface {
	Save(ctx context.Context, record Record) error
	Delete(ctx context.Context, id string) error
	LoadAll(ctx context.Context) ([]Record, error)
}

const redisKeyPrefix = "admin-console:session:"

// RedisPersister stores one key per session, expiring with the session.
type RedisPersister struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisPersister(client *redis.Client) *RedisPersister {
	return &RedisPersister{client: client, now: time.Now}
}

func (p *RedisPersister) Save(ctx context.Context, record Record) error {
	ttl := record.ExpiresAt.Sub(p.now())
	if ttl <= 0 {
		return p.Delete(ctx, record.ID)
	}
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return p.client.Set(ctx, sessionKey(record.ID), data, ttl).Err()
}

func (p *RedisPersister) Delete(ctx context.Context, id string) error {
	return p.client.Del(ctx, sessionKey(id)).Err()
}

func (p *RedisPersister) LoadAll(ctx context.Context) ([]Record, error) {
	var out []Record
	iter := p.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		value, err := p.client.Get(ctx, iter.Val()).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var record Record
		if err := json.Unmarshal([]byte(value), &record); err != nil {
			continue
		}
		out = append(out, record)
	}
	return out, iter.Err()
}

func sessionKey(id string) string {
	return redisKeyPrefix + id
}

// MemoryPersister keeps records for the life of the process only.
type MemoryPersister struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{records: make(map[string]Record)}
}

func (p *MemoryPersister) Save(_ context.Context, record Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records[record.ID] = record
	return nil
}

func (p *MemoryPersister) Delete(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.records, id)
	return nil
}

func (p *MemoryPersister) LoadAll(_ context.Context) ([]Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Record, 0, len(p.records))
	for _, r := range p.records {
		out = append(out, r)
	}
	return out, nil
}
