package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BTE-AYUSH25/flowSentry-forge/types"
)

// newTestRedis connects to a local Redis or skips the test when no
// server is reachable.
func newTestRedis(t *testing.T) *RedisStorage {
	t.Helper()
	store, err := NewRedisStorage(RedisOptions{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		IdleTimeout:  5 * time.Minute,
	})
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	return store
}

func TestRedisStorage_SnapshotRoundTrip(t *testing.T) {
	store := newTestRedis(t)
	defer store.Close()
	ctx := context.Background()

	snap := newSnapshot("REDIS-RT", 0.33)
	assert.NoError(t, store.SaveSnapshot(ctx, snap))

	got, err := store.GetSnapshot(ctx, "REDIS-RT")
	assert.NoError(t, err)
	assert.Equal(t, snap.Score, got.Score)
	assert.Equal(t, snap.Explanation, got.Explanation)
}

func TestRedisStorage_SnapshotNotFound(t *testing.T) {
	store := newTestRedis(t)
	defer store.Close()

	_, err := store.GetSnapshot(context.Background(), "REDIS-MISSING")
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStorage_TimingStateRoundTrip(t *testing.T) {
	store := newTestRedis(t)
	defer store.Close()
	ctx := context.Background()

	st := newTimingState()
	assert.NoError(t, store.SaveTimingState(ctx, "REDIS-TIMING", st))

	got, err := store.GetTimingState(ctx, "REDIS-TIMING")
	assert.NoError(t, err)
	assert.Equal(t, st, got)
}

func TestRedisStorage_SaveSnapshotsAndPrune(t *testing.T) {
	store := newTestRedis(t)
	defer store.Close()
	ctx := context.Background()

	stale := newSnapshot("REDIS-OLD", 0.1)
	stale.GeneratedAt = 1000
	fresh := newSnapshot("REDIS-NEW", 0.2)
	fresh.GeneratedAt = time.Now().UnixMilli()

	assert.NoError(t, store.SaveSnapshots(ctx, []types.RiskSnapshot{stale, fresh}))

	assert.NoError(t, store.PruneSnapshots(ctx, 2000))

	_, err := store.GetSnapshot(ctx, "REDIS-OLD")
	assert.Error(t, err)

	_, err = store.GetSnapshot(ctx, "REDIS-NEW")
	assert.NoError(t, err)
}

func TestRedisStorage_ConnectionFailure(t *testing.T) {
	_, err := NewRedisStorage(RedisOptions{Addr: "localhost:1"})
	assert.Error(t, err)
}
