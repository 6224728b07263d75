// Package store provides the shared key-value memory used for cross-thread
// state (user preferences, long-lived facts). Items live under hierarchical
// namespaces and each operation is individually atomic; no multi-key
// transactions are offered.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates no item exists under the requested namespace and key.
var ErrNotFound = errors.New("store item not found")

// Item is one stored value with its namespace path and timestamps.
type Item struct {
	// Namespace is the hierarchical path the item lives under,
	// e.g. ["users", "u42", "preferences"].
	Namespace []string `json:"namespace"`

	// Key identifies the item within its namespace.
	Key string `json:"key"`

	// Value is the stored document.
	Value map[string]any `json:"value"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Score is a relevance score populated only by similarity-based
	// search implementations; nil otherwise.
	Score *float64 `json:"score,omitempty"`
}

// Store is the shared key-value memory contract.
// Implementations must be safe for concurrent use from multiple threads
// and nodes.
type Store interface {
	// Get retrieves an item. Returns ErrNotFound if absent.
	Get(ctx context.Context, namespace []string, key string) (*Item, error)

	// Put creates or replaces an item, preserving CreatedAt on replace.
	Put(ctx context.Context, namespace []string, key string, value map[string]any) error

	// Search returns up to limit items under the namespace prefix whose
	// contents match query (substring match on keys and string values).
	// An empty query matches everything. limit <= 0 means no limit.
	Search(ctx context.Context, namespace []string, query string, limit int) ([]*Item, error)

	// Delete removes an item. Deleting an absent item is not an error.
	Delete(ctx context.Context, namespace []string, key string) error

	// ListNamespaces returns the distinct namespaces under the given
	// prefix. A nil prefix lists all namespaces.
	ListNamespaces(ctx context.Context, prefix []string) ([][]string, error)

	// Close releases any resources.
	Close() error
}
