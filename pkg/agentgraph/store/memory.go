package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

const nsSeparator = "\x1f"

func nsKey(namespace []string) string {
	return strings.Join(namespace, nsSeparator)
}

func splitNs(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, nsSeparator)
}

// MemoryStore is an in-memory Store for testing and development.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]*Item // namespace key -> item key -> item
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]*Item)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, namespace []string, key string) (*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ns, ok := m.data[nsKey(namespace)]
	if !ok {
		return nil, fmt.Errorf("%w: %v/%s", ErrNotFound, namespace, key)
	}
	item, ok := ns[key]
	if !ok {
		return nil, fmt.Errorf("%w: %v/%s", ErrNotFound, namespace, key)
	}
	return copyItem(item), nil
}

// Put implements Store.
func (m *MemoryStore) Put(_ context.Context, namespace []string, key string, value map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	nk := nsKey(namespace)
	if m.data[nk] == nil {
		m.data[nk] = make(map[string]*Item)
	}

	now := time.Now().UTC()
	created := now
	if existing, ok := m.data[nk][key]; ok {
		created = existing.CreatedAt
	}

	m.data[nk][key] = &Item{
		Namespace: append([]string(nil), namespace...),
		Key:       key,
		Value:     copyValue(value),
		CreatedAt: created,
		UpdatedAt: now,
	}
	return nil
}

// Search implements Store with substring matching; Score stays nil.
func (m *MemoryStore) Search(_ context.Context, namespace []string, query string, limit int) ([]*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := nsKey(namespace)
	var results []*Item
	for nk, ns := range m.data {
		if !hasNsPrefix(nk, prefix) {
			continue
		}
		for _, item := range ns {
			if query == "" || itemMatches(item, query) {
				results = append(results, copyItem(item))
			}
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if !results[i].UpdatedAt.Equal(results[j].UpdatedAt) {
			return results[i].UpdatedAt.After(results[j].UpdatedAt)
		}
		return results[i].Key < results[j].Key
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, namespace []string, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ns, ok := m.data[nsKey(namespace)]; ok {
		delete(ns, key)
	}
	return nil
}

// ListNamespaces implements Store.
func (m *MemoryStore) ListNamespaces(_ context.Context, prefix []string) ([][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pk := nsKey(prefix)
	var namespaces [][]string
	for nk, ns := range m.data {
		if len(ns) == 0 || !hasNsPrefix(nk, pk) {
			continue
		}
		namespaces = append(namespaces, splitNs(nk))
	}

	sort.Slice(namespaces, func(i, j int) bool {
		return nsKey(namespaces[i]) < nsKey(namespaces[j])
	})
	return namespaces, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}

func hasNsPrefix(nk, prefix string) bool {
	if prefix == "" {
		return true
	}
	return nk == prefix || strings.HasPrefix(nk, prefix+nsSeparator)
}

func itemMatches(item *Item, query string) bool {
	query = strings.ToLower(query)
	if strings.Contains(strings.ToLower(item.Key), query) {
		return true
	}
	for k, v := range item.Value {
		if strings.Contains(strings.ToLower(k), query) {
			return true
		}
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), query) {
			return true
		}
	}
	return false
}

func copyItem(item *Item) *Item {
	clone := *item
	clone.Namespace = append([]string(nil), item.Namespace...)
	clone.Value = copyValue(item.Value)
	return &clone
}

func copyValue(value map[string]any) map[string]any {
	clone := make(map[string]any, len(value))
	for k, v := range value {
		clone[k] = v
	}
	return clone
}
