// Package store persists the active battle tag so a crashed or restarted
// process can resume the battle it was playing.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// TagStore records which battle is in progress. Save on battle start,
// Clear on finish; Load recovers the tag after a restart.
type TagStore interface {
	Save(ctx context.Context, tag string) error
	Load(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// FileTagStore keeps the tag in a small text file.
type FileTagStore struct {
	path string
}

// NewFileTagStore creates a file-backed tag store at the given path.
func NewFileTagStore(path string) *FileTagStore {
	return &FileTagStore{path: path}
}

func (s *FileTagStore) Save(_ context.Context, tag string) error {
	if tag == "" {
		return nil
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("store: create tag dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, []byte(tag), 0644); err != nil {
		return fmt.Errorf("store: write tag: %w", err)
	}
	return nil
}

func (s *FileTagStore) Load(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: read tag: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileTagStore) Clear(_ context.Context) error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// RedisTagStore keeps the tag in Redis, scoped per account so several bots
// can share one instance.
type RedisTagStore struct {
	rdb *redis.Client
	key string
}

const tagTTL = 24 * time.Hour

// NewRedisTagStore connects to Redis from a connection URL.
func NewRedisTagStore(redisURL, account string) (*RedisTagStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("store: parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("store: redis ping: %w", err)
	}
	return &RedisTagStore{rdb: rdb, key: "foulplay:last_battle_tag:" + account}, nil
}

// NewRedisTagStoreFromClient wraps an existing client, for tests.
func NewRedisTagStoreFromClient(rdb *redis.Client, account string) *RedisTagStore {
	return &RedisTagStore{rdb: rdb, key: "foulplay:last_battle_tag:" + account}
}

func (s *RedisTagStore) Save(ctx context.Context, tag string) error {
	if tag == "" {
		return nil
	}
	return s.rdb.Set(ctx, s.key, tag, tagTTL).Err()
}

func (s *RedisTagStore) Load(ctx context.Context) (string, error) {
	tag, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return tag, err
}

func (s *RedisTagStore) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}

// Close releases the Redis connection.
func (s *RedisTagStore) Close() error {
	return s.rdb.Close()
}
