package session

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func testRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run")
	}
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client)
}

func TestRedisSessionRoundTrip(t *testing.T) {
	store := testRedisStore(t)
	ctx := context.Background()

	record := newRecord(t, time.Now().Add(time.Hour))
	if err := store.Create(ctx, record); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := store.Create(ctx, record); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate id, got %v", err)
	}

	loaded, err := store.Load(ctx, record.ID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(loaded.Data) != "payload" {
		t.Fatalf("payload mismatch: %q", loaded.Data)
	}
	if loaded.ExpiryDate.Before(time.Now().Add(50 * time.Minute)) {
		t.Fatalf("expected expiry roughly an hour out, got %s", loaded.ExpiryDate)
	}

	if err := store.Delete(ctx, record.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.Load(ctx, record.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRedisSessionExpiredNeverStored(t *testing.T) {
	store := testRedisStore(t)
	ctx := context.Background()

	record := newRecord(t, time.Now().Add(-time.Minute))
	if err := store.Create(ctx, record); err != nil {
		t.Fatalf("create of expired session must be a no-op, got %v", err)
	}
	if _, err := store.Load(ctx, record.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired session to be absent, got %v", err)
	}

	purged, err := store.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if purged != 0 {
		t.Fatalf("redis purge is a no-op, got %d", purged)
	}
}

var _ Store = (*RedisStore)(nil)
