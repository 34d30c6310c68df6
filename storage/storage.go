// Package storage persists risk snapshots and timing-aggregator
// checkpoints for the pipeline. The core analyses never touch storage;
// this is the persistence collaborator boundary.
package storage

import (
	"context"

	"github.com/BTE-AYUSH25/flowSentry-forge/types"
)

// Storage defines the interface for persisting and retrieving risk
// snapshots and timing-state checkpoints, both keyed by project.
type Storage interface {
	// SaveSnapshot saves the latest risk snapshot for a project.
	SaveSnapshot(ctx context.Context, snap types.RiskSnapshot) error

	// GetSnapshot retrieves the latest risk snapshot for a project.
	GetSnapshot(ctx context.Context, projectKey string) (types.RiskSnapshot, error)

	// SaveTimingState checkpoints an exported timing aggregate under key.
	SaveTimingState(ctx context.Context, key string, st types.TimingState) error

	// GetTimingState retrieves a timing-aggregate checkpoint.
	GetTimingState(ctx context.Context, key string) (types.TimingState, error)
}

// withContext is a standalone generic helper function.
func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	default:
		return fn()
	}
}

// withContextError handles context cancellation for operations that only return an error.
func withContextError(ctx context.Context, fn func() error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fn()
	}
}
