package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Runs against a live redis when REDIS_ADDR is set, e.g. REDIS_ADDR=localhost:6379.
func TestRedisStorage_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	prefix := "allconnect-test:" + uuid.NewString()[:8] + ":"
	r := NewRedisStorage(addr, prefix, time.Minute)
	t.Cleanup(func() { _ = r.Close() })
	if err := r.Ping(ctx); err != nil {
		t.Fatalf("ping %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = r.Delete(context.Background(), CartKey(5)) })

	if _, err := r.Get(ctx, CartKey(5)); err != ErrNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := r.Put(ctx, CartKey(5), []byte(`[{"id":"1-1"}]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, err := r.Get(ctx, CartKey(5))
	if err != nil || string(v) != `[{"id":"1-1"}]` {
		t.Fatalf("get: %q %v", v, err)
	}
	ttl, err := r.rdb.TTL(ctx, prefix+CartKey(5)).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Fatalf("ttl %v %v", ttl, err)
	}
	if err := r.Delete(ctx, CartKey(5)); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Get(ctx, CartKey(5)); err != ErrNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestRedisStorage_UnreachableServer(t *testing.T) {
	r := NewRedisStorage("127.0.0.1:1", "x:", 0)
	defer r.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := r.Ping(ctx); err == nil {
		t.Fatalf("ping to closed port succeeded")
	}
	if _, err := r.Get(ctx, AuthKey(1)); err == nil || err == ErrNotFound {
		t.Fatalf("expected transport error, got %v", err)
	}
}
