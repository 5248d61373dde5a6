package store

import (
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryStore is an in-process Store that keeps at most limit entries,
// evicting the least recently used one.
type MemoryStore struct {
	cache *lru.Cache[string, []byte]
}

// NewMemoryStore returns a MemoryStore. A limit below 1 means unbounded.
func NewMemoryStore(limit int) *MemoryStore {
	if limit < 1 {
		limit = math.MaxInt
	}
	cache, err := lru.New[string, []byte](limit)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	return &MemoryStore{cache: cache}
}

func (s *MemoryStore) Put(key string, data []byte) error {
	s.cache.Add(key, append([]byte(nil), data...))
	return nil
}

func (s *MemoryStore) Get(key string) ([]byte, error) {
	data, ok := s.cache.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Delete(key string) error {
	s.cache.Remove(key)
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}

func (s *MemoryStore) Close() error {
	s.cache.Purge()
	return nil
}
