package storage

import (
	"context"
	"fmt"
	"log/slog"

	"pokematch-server/config"
)

// Open returns the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig) (KV, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryKV(), nil
	case config.BackendFile, "":
		kv, err := NewFileKV(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		slog.Info("using file store", "tag", "storage", "path", cfg.FilePath)
		return kv, nil
	case config.BackendSQLite:
		kv, err := NewSQLiteKV(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("using sqlite store", "tag", "storage", "path", cfg.SQLitePath)
		return kv, nil
	case config.BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres backend requires DATABASE_URL")
		}
		kv, err := NewPostgresKV(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case config.BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis backend requires REDIS_ADDR")
		}
		kv, err := NewRedisKV(ctx, cfg.RedisAddr, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
