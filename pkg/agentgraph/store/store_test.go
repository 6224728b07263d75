package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the Store behavior every backend must share.
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	usersNs := []string{"users", "u1"}
	prefsNs := []string{"users", "u1", "preferences"}

	_, err := s.Get(ctx, usersNs, "profile")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, usersNs, "profile", map[string]any{"name": "Ada"}))
	require.NoError(t, s.Put(ctx, prefsNs, "theme", map[string]any{"mode": "dark"}))
	require.NoError(t, s.Put(ctx, prefsNs, "lang", map[string]any{"code": "en"}))

	item, err := s.Get(ctx, usersNs, "profile")
	require.NoError(t, err)
	assert.Equal(t, "profile", item.Key)
	assert.Equal(t, "Ada", item.Value["name"])
	assert.False(t, item.CreatedAt.IsZero())
	assert.Nil(t, item.Score)

	// Replace keeps CreatedAt.
	created := item.CreatedAt
	require.NoError(t, s.Put(ctx, usersNs, "profile", map[string]any{"name": "Grace"}))
	item, err = s.Get(ctx, usersNs, "profile")
	require.NoError(t, err)
	assert.Equal(t, "Grace", item.Value["name"])
	assert.Equal(t, created, item.CreatedAt)
	assert.False(t, item.UpdatedAt.Before(created))

	// Search under a namespace prefix.
	results, err := s.Search(ctx, []string{"users"}, "dark", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "theme", results[0].Key)

	results, err = s.Search(ctx, []string{"users"}, "", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// Namespace listing respects the prefix.
	namespaces, err := s.ListNamespaces(ctx, []string{"users", "u1"})
	require.NoError(t, err)
	assert.Len(t, namespaces, 2)

	namespaces, err = s.ListNamespaces(ctx, []string{"orders"})
	require.NoError(t, err)
	assert.Empty(t, namespaces)

	// Delete is idempotent.
	require.NoError(t, s.Delete(ctx, prefsNs, "theme"))
	require.NoError(t, s.Delete(ctx, prefsNs, "theme"))
	_, err = s.Get(ctx, prefsNs, "theme")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Contract(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	runStoreContract(t, s)
}

func TestRedisStore_Contract(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	s := NewRedisStoreFromClient(client)
	defer s.Close()
	runStoreContract(t, s)
}

func TestMemoryStore_IsolatesStoredValues(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	value := map[string]any{"count": 1}
	require.NoError(t, s.Put(ctx, []string{"ns"}, "k", value))

	// Mutating the caller's map must not affect the stored item.
	value["count"] = 99

	item, err := s.Get(ctx, []string{"ns"}, "k")
	require.NoError(t, err)
	assert.Equal(t, 1, item.Value["count"])
}
