package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRedisPersisterRoundTrip(t *testing.T) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("redis ping: %v", err)
	}

	p := NewRedisPersister(client)
	record := Record{ID: "it-" + time.Now().Format("150405.000"), UID: "u1", IdentityToken: "tok", ExpiresAt: time.Now().Add(time.Minute)}
	if err := p.Save(ctx, record); err != nil {
		t.Fatalf("save: %v", err)
	}
	defer p.Delete(ctx, record.ID)

	records, err := p.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	found := false
	for _, r := range records {
		if r.ID == record.ID && r.IdentityToken == "tok" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected saved record in %d loaded records", len(records))
	}
	ttl, err := client.TTL(ctx, sessionKey(record.ID)).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %v (%v)", ttl, err)
	}
}
