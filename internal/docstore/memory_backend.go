package docstore

import (
	"context"
	"sync"
)

// MemoryBackend keeps collections in memory. Data is lost on restart.
type MemoryBackend struct {
	mu          sync.Mutex
	collections map[string][]byte
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{collections: make(map[string][]byte)}
}

// Load returns a deep copy of the stored collection.
func (m *MemoryBackend) Load(ctx context.Context, collection string) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.collections[collection]
	if !ok {
		m.collections[collection] = []byte("[]")
		return []Document{}, nil
	}
	docs, _ := decodeCollection(collection, data)
	return docs, nil
}

// Store keeps the JSON form of docs so later loads never alias caller maps.
func (m *MemoryBackend) Store(ctx context.Context, collection string, docs []Document) error {
	data, err := encodeCollection(docs)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[collection] = data
	return nil
}
