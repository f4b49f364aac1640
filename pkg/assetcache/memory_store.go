package assetcache

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store, used in development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	caches map[string]*memoryCache
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{caches: make(map[string]*memoryCache)}
}

func (s *MemoryStore) Open(ctx context.Context, name string) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache, ok := s.caches[name]
	if !ok {
		cache = &memoryCache{entries: make(map[string]Entry)}
		s.caches[name] = cache
	}
	return cache, nil
}

func (s *MemoryStore) Names(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.caches))
	for name := range s.caches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemoryStore) Drop(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.caches, name)
	return nil
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func (c *memoryCache) Match(ctx context.Context, key string) (Entry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry, ok, nil
}

func (c *memoryCache) Put(ctx context.Context, key string, entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
	return nil
}
