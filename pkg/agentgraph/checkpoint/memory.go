package checkpoint

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory checkpoint store for testing and development.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]map[int][]byte // threadID -> step -> marshaled checkpoint
	closed bool
}

// NewMemoryStore creates a new in-memory checkpoint store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[int][]byte),
	}
}

// Put implements Store. Checkpoints are stored serialized so callers cannot
// mutate persisted snapshots through retained pointers.
func (m *MemoryStore) Put(_ context.Context, cp *Checkpoint) error {
	data, err := cp.Marshal()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if m.data[cp.ThreadID] == nil {
		m.data[cp.ThreadID] = make(map[int][]byte)
	}
	m.data[cp.ThreadID][cp.Step] = data
	return nil
}

// Latest implements Store.
func (m *MemoryStore) Latest(_ context.Context, threadID string) (*Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	thread, ok := m.data[threadID]
	if !ok || len(thread) == 0 {
		return nil, ErrNotFound
	}

	maxStep := -1
	for step := range thread {
		if step > maxStep {
			maxStep = step
		}
	}
	return Unmarshal(thread[maxStep])
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, threadID string) ([]*Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	thread, ok := m.data[threadID]
	if !ok {
		return nil, nil
	}

	steps := make([]int, 0, len(thread))
	for step := range thread {
		steps = append(steps, step)
	}
	sort.Ints(steps)

	cps := make([]*Checkpoint, 0, len(steps))
	for _, step := range steps {
		cp, err := Unmarshal(thread[step])
		if err != nil {
			return nil, err
		}
		cps = append(cps, cp)
	}
	return cps, nil
}

// DeleteThread implements Store.
func (m *MemoryStore) DeleteThread(_ context.Context, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.data, threadID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	return nil
}

// Len returns the total number of checkpoints across all threads.
// Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, thread := range m.data {
		count += len(thread)
	}
	return count
}
