package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/BTE-AYUSH25/flowSentry-forge/types"
)

// Errors
var (
	ErrSnapshotNotFound    = errors.New("risk snapshot not found")
	ErrTimingStateNotFound = errors.New("timing state not found")
)

// MemoryStorage is an in-memory implementation of the Storage interface.
type MemoryStorage struct {
	snapshots map[string]types.RiskSnapshot
	timing    map[string]types.TimingState
	mu        sync.RWMutex
}

// NewMemoryStorage creates a new MemoryStorage instance.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		snapshots: make(map[string]types.RiskSnapshot),
		timing:    make(map[string]types.TimingState),
	}
}

// getItem is a standalone generic helper function.
func getItem[T any](ctx context.Context, m map[string]T, key string, errNotFound error) (T, error) {
	return withContext(ctx, func() (T, error) {
		item, ok := m[key]
		if !ok {
			var zero T
			return zero, fmt.Errorf("%w: key=%s", errNotFound, key)
		}
		return item, nil
	})
}

// SaveSnapshot saves a risk snapshot to memory.
func (s *MemoryStorage) SaveSnapshot(ctx context.Context, snap types.RiskSnapshot) error {
	return withContextError(ctx, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.snapshots[snap.ProjectKey] = snap
		return nil
	})
}

// GetSnapshot retrieves a risk snapshot from memory.
func (s *MemoryStorage) GetSnapshot(ctx context.Context, projectKey string) (types.RiskSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getItem(ctx, s.snapshots, projectKey, ErrSnapshotNotFound)
}

// SaveTimingState checkpoints a timing aggregate in memory.
func (s *MemoryStorage) SaveTimingState(ctx context.Context, key string, st types.TimingState) error {
	return withContextError(ctx, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.timing[key] = st
		return nil
	})
}

// GetTimingState retrieves a timing-aggregate checkpoint from memory.
func (s *MemoryStorage) GetTimingState(ctx context.Context, key string) (types.TimingState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getItem(ctx, s.timing, key, ErrTimingStateNotFound)
}

// SaveSnapshots saves multiple snapshots in a single lock.
func (s *MemoryStorage) SaveSnapshots(ctx context.Context, snaps []types.RiskSnapshot) error {
	return withContextError(ctx, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, snap := range snaps {
			s.snapshots[snap.ProjectKey] = snap
		}
		return nil
	})
}

// PruneSnapshots removes snapshots generated before the cutoff (unix millis).
func (s *MemoryStorage) PruneSnapshots(ctx context.Context, cutoffMillis int64) error {
	return withContextError(ctx, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		for key, snap := range s.snapshots {
			if snap.GeneratedAt < cutoffMillis {
				delete(s.snapshots, key)
			}
		}
		return nil
	})
}
