package kv

import (
	"context"
	"sync"
)

// MemoryStore keeps values in process memory. Used for tests and ephemeral runs.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, keys ...string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			out[k] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, items map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range items {
		m.values[k] = append([]byte(nil), v...)
	}
	return nil
}

// Remove implements Store.
func (m *MemoryStore) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }
