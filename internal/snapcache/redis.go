package snapcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/papapumpkin/astrolabe/internal/chart"
)

// Client is the subset of *redis.Client the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis stores snapshots as JSON under a key prefix.
type Redis struct {
	client Client
	prefix string
	ttl    time.Duration
}

// NewRedis wraps client. Keys are stored as prefix+key and expire after ttl;
// a zero ttl stores them without expiry.
func NewRedis(client Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// Dial connects to the Redis server at addr and checks it answers.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("snapcache: redis ping %s: %w", addr, err)
	}
	return client, nil
}

// Get returns the snapshot stored under key.
func (r *Redis) Get(ctx context.Context, key string) (*chart.Snapshot, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("snapcache: redis get %s: %w", key, err)
	}
	var snap chart.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("snapcache: decode %s: %w", key, err)
	}
	return &snap, nil
}

// Put stores snap under key.
func (r *Redis) Put(ctx context.Context, key string, snap *chart.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("snapcache: encode %s: %w", key, err)
	}
	if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("snapcache: redis set %s: %w", key, err)
	}
	return nil
}

// Invalidate deletes key.
func (r *Redis) Invalidate(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("snapcache: redis del %s: %w", key, err)
	}
	return nil
}

// Backend names the cache in metrics and logs.
func (r *Redis) Backend() string { return "redis" }
