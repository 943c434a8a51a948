package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisKV stores values as Redis strings under a common prefix. Writes are
// announced on a pub/sub channel so other servers sharing the data can push
// fresh leaderboards.
type RedisKV struct {
	rdb      redis.UniversalClient
	prefix   string
	channel  string
	instance string
}

// NewRedisKV connects to addrs, a comma-separated list of host:port. More
// than one address selects cluster mode.
func NewRedisKV(ctx context.Context, addrs, prefix string) (*RedisKV, error) {
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: strings.Split(addrs, ","),
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addrs, err)
	}
	slog.Info("connected to Redis", "tag", "storage", "addrs", addrs)
	return &RedisKV{
		rdb:      rdb,
		prefix:   prefix,
		channel:  prefix + "pokematch-changes",
		instance: uuid.NewString(),
	}, nil
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.rdb.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return err
	}
	r.announce(ctx)
	return nil
}

func (r *RedisKV) Remove(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.prefix+key).Err(); err != nil {
		return err
	}
	r.announce(ctx)
	return nil
}

// Close closes the client.
func (r *RedisKV) Close() error {
	return r.rdb.Close()
}

// Watch calls fn whenever another RedisKV instance writes.
func (r *RedisKV) Watch(ctx context.Context, fn func()) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if msg.Payload == r.instance {
				continue
			}
			fn()
		}
	}
}

func (r *RedisKV) announce(ctx context.Context) {
	if err := r.rdb.Publish(ctx, r.channel, r.instance).Err(); err != nil {
		slog.Warn("failed to publish store change", "tag", "storage", "err", err)
	}
}
