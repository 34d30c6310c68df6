package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/BTE-AYUSH25/flowSentry-forge/types"
)

const (
	snapshotPrefix = "risk:snapshot:"
	timingPrefix   = "risk:timing:"
)

// ErrNotFound is returned when a requested resource is not found.
var ErrNotFound = errors.New("resource not found")

// RedisStorage is a Redis-backed implementation of the Storage interface.
type RedisStorage struct {
	client *redis.Client
}

// RedisOptions extends redis.Options with additional configuration.
type RedisOptions struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	IdleTimeout  time.Duration
}

// NewRedisStorage creates a new RedisStorage instance with configurable options.
func NewRedisStorage(opts RedisOptions) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		IdleTimeout:  opts.IdleTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return &RedisStorage{client: client}, nil
}

// saveToRedis marshals a value and stores it under prefix+key.
func (s *RedisStorage) saveToRedis(ctx context.Context, prefix, key string, value interface{}) error {
	return withContextError(ctx, func() error {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal %s%s: %v", prefix, key, err)
		}
		if err := s.client.Set(ctx, prefix+key, data, 0).Err(); err != nil {
			return fmt.Errorf("failed to set %s%s in Redis: %v", prefix, key, err)
		}
		return nil
	})
}

// getFromRedis retrieves and unmarshals a value stored under prefix+key.
func getFromRedis[T any](ctx context.Context, client *redis.Client, prefix, key string) (T, error) {
	return withContext(ctx, func() (T, error) {
		var zero T
		fullKey := prefix + key
		data, err := client.Get(ctx, fullKey).Bytes()
		if err == redis.Nil {
			return zero, fmt.Errorf("%w: key=%s", ErrNotFound, fullKey)
		} else if err != nil {
			return zero, fmt.Errorf("failed to get %s from Redis: %v", fullKey, err)
		}

		var result T
		if err := json.Unmarshal(data, &result); err != nil {
			return zero, fmt.Errorf("failed to unmarshal %s: %v", fullKey, err)
		}
		return result, nil
	})
}

// SaveSnapshot saves a risk snapshot to Redis.
func (s *RedisStorage) SaveSnapshot(ctx context.Context, snap types.RiskSnapshot) error {
	return s.saveToRedis(ctx, snapshotPrefix, snap.ProjectKey, snap)
}

// GetSnapshot retrieves a risk snapshot from Redis.
func (s *RedisStorage) GetSnapshot(ctx context.Context, projectKey string) (types.RiskSnapshot, error) {
	return getFromRedis[types.RiskSnapshot](ctx, s.client, snapshotPrefix, projectKey)
}

// SaveTimingState checkpoints a timing aggregate in Redis.
func (s *RedisStorage) SaveTimingState(ctx context.Context, key string, st types.TimingState) error {
	return s.saveToRedis(ctx, timingPrefix, key, st)
}

// GetTimingState retrieves a timing-aggregate checkpoint from Redis.
func (s *RedisStorage) GetTimingState(ctx context.Context, key string) (types.TimingState, error) {
	return getFromRedis[types.TimingState](ctx, s.client, timingPrefix, key)
}

// SaveSnapshots saves multiple snapshots to Redis using pipelining.
func (s *RedisStorage) SaveSnapshots(ctx context.Context, snaps []types.RiskSnapshot) error {
	return withContextError(ctx, func() error {
		pipe := s.client.Pipeline()
		for _, snap := range snaps {
			data, err := json.Marshal(snap)
			if err != nil {
				return fmt.Errorf("failed to marshal snapshot for %s: %v", snap.ProjectKey, err)
			}
			pipe.Set(ctx, snapshotPrefix+snap.ProjectKey, data, 0)
		}
		_, err := pipe.Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to execute pipeline for snapshots: %v", err)
		}
		return nil
	})
}

// PruneSnapshots removes snapshots generated before the cutoff (unix millis).
func (s *RedisStorage) PruneSnapshots(ctx context.Context, cutoffMillis int64) error {
	return withContextError(ctx, func() error {
		keys, err := s.client.Keys(ctx, snapshotPrefix+"*").Result()
		if err != nil {
			return fmt.Errorf("failed to scan snapshot keys: %v", err)
		}

		if len(keys) == 0 {
			return nil
		}

		pipe := s.client.Pipeline()
		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				continue
			} else if err != nil {
				return fmt.Errorf("failed to get %s: %v", key, err)
			}

			var snap types.RiskSnapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				return fmt.Errorf("failed to unmarshal %s: %v", key, err)
			}

			if snap.GeneratedAt < cutoffMillis {
				pipe.Del(ctx, key)
			}
		}

		_, err = pipe.Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to execute pipeline for deletion: %v", err)
		}
		return nil
	})
}

// Close closes the Redis client connection.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}
