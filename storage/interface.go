package storage

import (
	"context"
	"errors"
)

// ErrNoScores is returned by ScoreStore.Load when no score list has ever been saved.
var ErrNoScores = errors.New("no scores stored")

// KV is a string key-value store. Get reports ok=false for an absent key.
// Implementations are safe for concurrent use.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error

	// Lifecycle
	Close() error
}

// Watcher is implemented by backends that can notice writes made by other
// processes. fn is called after each external change until ctx is done.
type Watcher interface {
	Watch(ctx context.Context, fn func()) error
}

// Ensure every backend implements KV at compile time.
var (
	_ KV      = (*MemoryKV)(nil)
	_ KV      = (*FileKV)(nil)
	_ Watcher = (*FileKV)(nil)
	_ KV      = (*SQLiteKV)(nil)
	_ KV      = (*PostgresKV)(nil)
	_ KV      = (*RedisKV)(nil)
	_ Watcher = (*RedisKV)(nil)
)
