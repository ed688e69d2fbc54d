package cache

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and by in-process
// compiler fakes. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]map[string][]byte // chunk -> object -> JSON value
}

// NewMemoryStore returns an empty in-memory cache.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]map[string][]byte)}
}

// Put records a JSON-encoded entry.
func (m *MemoryStore) Put(chunkName, objectName string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	objs, ok := m.entries[chunkName]
	if !ok {
		objs = make(map[string][]byte)
		m.entries[chunkName] = objs
	}
	objs[objectName] = value
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, chunkName, objectName string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.entries[chunkName][objectName]
	if !ok {
		return nil, &ObjectNotFoundError{Chunk: chunkName, Object: objectName}
	}
	return value, nil
}

// Chunks implements Store.
func (m *MemoryStore) Chunks(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	chunks := make([]string, 0, len(m.entries))
	for name := range m.entries {
		chunks = append(chunks, name)
	}
	sort.Strings(chunks)
	return chunks, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }
