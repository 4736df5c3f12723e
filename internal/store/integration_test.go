//go:build integration

package store

import (
	"context"
	"os"
	"testing"

	goredis "github.com/redis/go-redis/v9"
)

func setupRedis(t *testing.T) *RedisTagStore {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/1"
	}
	opts, err := goredis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	s := NewRedisTagStoreFromClient(rdb, "integrationbot")
	t.Cleanup(func() {
		s.Clear(context.Background())
		rdb.Close()
	})
	return s
}

func TestRedisTagStoreRoundTrip(t *testing.T) {
	s := setupRedis(t)
	ctx := context.Background()

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	tag, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if tag != "" {
		t.Fatalf("stale tag %q", tag)
	}

	if err := s.Save(ctx, "battle-gen9randombattle-777"); err != nil {
		t.Fatalf("save: %v", err)
	}
	tag, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tag != "battle-gen9randombattle-777" {
		t.Fatalf("loaded %q", tag)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	tag, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("load after clear: %v", err)
	}
	if tag != "" {
		t.Fatalf("tag survived clear: %q", tag)
	}
}
