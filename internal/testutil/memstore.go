// Package testutil provides test doubles for the cache subsystem.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/propstack/listings/pkg/cache"
)

// ErrStoreDown is returned by every MemStore operation once FailAll is set.
var ErrStoreDown = errors.New("store unavailable")

type memEntry struct {
	value     []byte
	expiresAt time.Time
	ttl       time.Duration
}

// MemStore is an in-memory cache.Store for unit tests. It honors TTL
// expiry and counts hits and misses like the Redis keyspace counters do.
type MemStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
	hits    int64
	misses  int64

	// FailAll, when true, makes every operation return ErrStoreDown.
	// Used to exercise cache-outage fallback paths.
	FailAll bool
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string]memEntry)}
}

// Get returns the value for key, expiring entries lazily.
func (s *MemStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailAll {
		return nil, false, ErrStoreDown
	}

	entry, ok := s.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.entries, key)
		s.misses++
		return nil, false, nil
	}
	s.hits++
	return entry.value, true, nil
}

// Set stores value under key for the given TTL.
func (s *MemStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailAll {
		return ErrStoreDown
	}
	if ttl <= 0 {
		return nil
	}

	s.entries[key] = memEntry{
		value:     append([]byte(nil), value...),
		expiresAt: time.Now().Add(ttl),
		ttl:       ttl,
	}
	return nil
}

// Delete removes key and reports whether it was present.
func (s *MemStore) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailAll {
		return false, ErrStoreDown
	}

	_, ok := s.entries[key]
	delete(s.entries, key)
	return ok, nil
}

// Stats returns the accumulated hit/miss counters.
func (s *MemStore) Stats(_ context.Context) (cache.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailAll {
		return cache.Stats{}, ErrStoreDown
	}
	return cache.Stats{Hits: s.hits, Misses: s.misses}, nil
}

// Has reports whether key is present and unexpired, without counting a
// hit or miss.
func (s *MemStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	return ok && time.Now().Before(entry.expiresAt)
}

// TTLOf returns the TTL the entry was stored with, or 0 when absent.
func (s *MemStore) TTLOf(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.entries[key].ttl
}

// SetCounters overrides the hit/miss counters, for metrics tests.
func (s *MemStore) SetCounters(hits, misses int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hits = hits
	s.misses = misses
}
