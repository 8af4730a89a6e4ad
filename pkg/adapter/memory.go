package adapter

import (
	"context"

	"github.com/patrickmn/go-cache"
)

// MemoryKV keeps values in process memory. It backs the session scope: its
// contents disappear when the process exits or Flush is called.
type MemoryKV struct {
	cache *cache.Cache
}

// NewMemoryKV creates an empty in-memory backend. Entries never expire and no
// cleanup goroutine is started.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (m *MemoryKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, nil
	}
	return s, true, nil
}

func (m *MemoryKV) Set(ctx context.Context, key, value string) error {
	m.cache.Set(key, value, cache.NoExpiration)
	return nil
}

func (m *MemoryKV) Remove(ctx context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}

// Flush drops every entry, which starts a new session
func (m *MemoryKV) Flush() {
	m.cache.Flush()
}

// Len returns the number of stored keys
func (m *MemoryKV) Len() int {
	return m.cache.ItemCount()
}
