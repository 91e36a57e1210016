package cache

import (
	"sync"
	"sync/atomic"
)

// Store is a generic thread-safe get-or-create map for GPU objects.
//
// Entries are never evicted: a cached object stays alive until Drain is
// called, which hands every entry back in reverse creation order so the
// caller can destroy it.
//
// Store is safe for concurrent use.
// Store must not be copied after creation (has mutex).
type Store[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
	order   []K // Creation order, used by Drain

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Stats reports cache effectiveness.
type Stats struct {
	// Hits is the number of lookups served from the cache.
	Hits uint64

	// Misses is the number of lookups that required creation.
	Misses uint64

	// Size is the number of live entries.
	Size int
}

// HitRate returns the ratio of hits to total lookups, or 0 if there were none.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// New creates an empty store.
func New[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{
		entries: make(map[K]V),
	}
}

// Get retrieves a value from the store.
// Returns (value, true) if found, (zero, false) otherwise.
// Get does not affect hit/miss statistics.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok
}

// GetOrCreate returns the cached value for key or creates it.
//
// create runs under the write lock, so for a given key it is invoked at
// most once across concurrent callers. A failed creation is not cached;
// the error is returned and a later call will retry.
func (s *Store[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	// Fast path: read lock
	s.mu.RLock()
	if v, ok := s.entries[key]; ok {
		s.mu.RUnlock()
		s.hits.Add(1)
		return v, nil
	}
	s.mu.RUnlock()

	// Slow path: write lock
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if v, ok := s.entries[key]; ok {
		s.hits.Add(1)
		return v, nil
	}

	s.misses.Add(1)
	v, err := create()
	if err != nil {
		var zero V
		return zero, err
	}
	s.entries[key] = v
	s.order = append(s.order, key)
	return v, nil
}

// Len returns the number of entries in the store.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats returns a snapshot of the store statistics.
func (s *Store[K, V]) Stats() Stats {
	return Stats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Size:   s.Len(),
	}
}

// Drain removes every entry and calls release for each one, newest first.
// The store stays usable afterwards. Statistics are kept.
func (s *Store[K, V]) Drain(release func(K, V)) {
	s.mu.Lock()
	order := s.order
	entries := s.entries
	s.order = nil
	s.entries = make(map[K]V)
	s.mu.Unlock()

	if release == nil {
		return
	}
	for i := len(order) - 1; i >= 0; i-- {
		k := order[i]
		release(k, entries[k])
	}
}
