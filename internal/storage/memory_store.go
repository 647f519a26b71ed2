package storage

import (
	"context"
	"sync"
	"wayfarer/internal/storage/interfaces"
)

// MemoryStore keeps documents in nested maps. It is the zero-setup driver
// used by tests and throwaway runs; nothing survives a restart.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]interface{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]map[string]interface{})}
}

func (m *MemoryStore) GetDocument(_ context.Context, collection, key string) (interfaces.Document, error) {
	if err := validateRef(collection, key); err != nil {
		return interfaces.Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.collections[collection][key]
	if !ok {
		return interfaces.Document{}, nil
	}
	return interfaces.Document{Exists: true, Data: deepCopyMap(doc)}, nil
}

func (m *MemoryStore) SetDocument(_ context.Context, collection, key string, data map[string]interface{}, merge bool) error {
	if err := validateRef(collection, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := m.docForWrite(collection, key)
	if merge {
		m.put(collection, key, deepMerge(doc, deepCopyMap(data)))
		return nil
	}
	m.put(collection, key, deepCopyMap(data))
	return nil
}

func (m *MemoryStore) UpdateField(_ context.Context, collection, key, path string, value interface{}) error {
	if err := validateRef(collection, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := m.docForWrite(collection, key)
	if err := setPath(doc, path, deepCopyValue(value)); err != nil {
		return err
	}
	m.put(collection, key, doc)
	return nil
}

func (m *MemoryStore) AppendToArray(_ context.Context, collection, key, field string, values ...interface{}) error {
	if err := validateRef(collection, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := m.docForWrite(collection, key)
	appendValues(doc, field, deepCopyValue(values).([]interface{}))
	m.put(collection, key, doc)
	return nil
}

func (m *MemoryStore) DeleteDocument(_ context.Context, collection, key string) error {
	if err := validateRef(collection, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := m.collections[collection]
	delete(keys, key)
	if len(keys) == 0 {
		delete(m.collections, collection)
	}
	return nil
}

func (m *MemoryStore) Persist() error {
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// docForWrite returns a private copy of the stored document, or a fresh
// map when it does not exist. Must be called under m.mu.Lock.
func (m *MemoryStore) docForWrite(collection, key string) map[string]interface{} {
	if doc, ok := m.collections[collection][key]; ok {
		return deepCopyMap(doc)
	}
	return make(map[string]interface{})
}

func (m *MemoryStore) put(collection, key string, doc map[string]interface{}) {
	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string]map[string]interface{})
	}
	m.collections[collection][key] = doc
}
