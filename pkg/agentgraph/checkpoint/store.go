package checkpoint

import (
	"context"
	"errors"
)

// Store persists checkpoints for threads.
// Implementations must be safe for concurrent use across thread IDs and
// provide read-your-writes consistency for a single thread's sequential
// steps. Within one thread, Put at the same step overwrites.
type Store interface {
	// Put stores a checkpoint for its thread and step.
	Put(ctx context.Context, cp *Checkpoint) error

	// Latest retrieves the highest-step checkpoint for a thread.
	// Returns ErrNotFound if the thread has no checkpoints.
	Latest(ctx context.Context, threadID string) (*Checkpoint, error)

	// List returns all checkpoints for a thread, ordered by step.
	// Returns an empty slice (not an error) for an unknown thread.
	List(ctx context.Context, threadID string) ([]*Checkpoint, error)

	// DeleteThread removes all checkpoints for a thread.
	// Returns nil if the thread has none.
	DeleteThread(ctx context.Context, threadID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for checkpoint stores.
var (
	// ErrNotFound indicates the thread has no checkpoints.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("checkpoint store closed")
)
