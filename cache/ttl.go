// Package cache provides a small in-memory lookup cache with per-entry
// expiry. Entries are evicted lazily on read and eagerly on writes that
// replace them; there is no background sweeper.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store maps string keys to values that expire after a fixed TTL.
// Safe for concurrent use.
type Store[V any] struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]entry[V]
}

func New[V any](ttl time.Duration) *Store[V] {
	return &Store[V]{
		ttl: ttl,
		m:   make(map[string]entry[V]),
	}
}

func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock; Set may have refreshed it.
		if cur, ok := s.m[key]; ok && time.Now().After(cur.expiresAt) {
			delete(s.m, key)
		}
		s.mu.Unlock()
		var zero V
		return zero, false
	}
	return e.value, true
}

func (s *Store[V]) Set(key string, value V) {
	s.mu.Lock()
	s.m[key] = entry[V]{value: value, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()
}

func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
}

// Len reports the number of stored entries, expired ones included.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
