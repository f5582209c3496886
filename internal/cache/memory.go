package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/tidwall/match"
)

// MemoryStore keeps entries in process. It is used when no Redis is
// configured and in tests.
type MemoryStore struct {
	items *gocache.Cache
}

func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{items: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := s.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	body, ok := value.([]byte)
	return body, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	s.items.Set(key, stored, ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.items.Delete(key)
	}
	return nil
}

func (s *MemoryStore) DeleteMatching(_ context.Context, pattern string) (int, error) {
	deleted := 0
	for key := range s.items.Items() {
		if match.Match(key, pattern) {
			s.items.Delete(key)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Len counts unexpired entries.
func (s *MemoryStore) Len() int {
	return len(s.items.Items())
}
