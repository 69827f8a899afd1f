package store

import (
	"context"
	"sync"
)

// MemoryStore keeps documents in-process. Intended for tests and local runs.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	docs   map[string]Document
	orders []string
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

// Get returns a copy of the document.
func (m *MemoryStore) Get(_ context.Context, collection, key string) (Document, bool, error) {
	if err := validKey(collection, key); err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[collection]
	if !ok {
		return nil, false, nil
	}
	doc, ok := c.docs[key]
	if !ok {
		return nil, false, nil
	}
	return doc.Clone(), true, nil
}

// Set stores or replaces a document and tracks insertion order.
func (m *MemoryStore) Set(_ context.Context, collection, key string, doc Document, opts ...SetOption) error {
	if err := validKey(collection, key); err != nil {
		return err
	}
	options := applySetOptions(opts)
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		c = &memoryCollection{docs: make(map[string]Document)}
		m.collections[collection] = c
	}
	existing, exists := c.docs[key]
	if !exists {
		c.orders = append(c.orders, key)
	}
	if options.Merge && exists {
		merged := existing.Clone()
		for k, v := range doc {
			merged[k] = v
		}
		c.docs[key] = merged
		return nil
	}
	c.docs[key] = doc.Clone()
	return nil
}

// Delete removes a document. Missing documents are ignored.
func (m *MemoryStore) Delete(_ context.Context, collection, key string) error {
	if err := validKey(collection, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		return nil
	}
	if _, ok := c.docs[key]; !ok {
		return nil
	}
	delete(c.docs, key)
	filtered := c.orders[:0]
	for _, item := range c.orders {
		if item != key {
			filtered = append(filtered, item)
		}
	}
	c.orders = filtered
	return nil
}

// List returns documents in insertion order.
func (m *MemoryStore) List(_ context.Context, collection string) ([]KeyedDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[collection]
	if !ok {
		return []KeyedDocument{}, nil
	}
	res := make([]KeyedDocument, 0, len(c.orders))
	for _, key := range c.orders {
		if doc, ok := c.docs[key]; ok {
			res = append(res, KeyedDocument{Key: key, Data: doc.Clone()})
		}
	}
	return res, nil
}
