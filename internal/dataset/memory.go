// File path: internal/dataset/memory.go
package dataset

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jvaldebenito/cronoplan/internal/common"
)

const (
	// DefaultTTL is how long a dataset outlives its last replacement.
	DefaultTTL = 24 * time.Hour
	// DefaultMaxDatasets bounds the store; the oldest entry is evicted
	// when a new upload would exceed it.
	DefaultMaxDatasets = 64
)

type memoryEntry struct {
	ds       *Dataset
	storedAt time.Time
}

// MemoryStore is the default in-process Store: a mutex-guarded map with a
// TTL and a capacity bound. Expired entries are dropped lazily on access and
// swept on Put.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryEntry

	ttl time.Duration
	max int
	now func() time.Time
}

// NewMemoryStore builds a MemoryStore. Non-positive ttl or max fall back to
// the defaults.
func NewMemoryStore(ttl time.Duration, max int) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if max <= 0 {
		max = DefaultMaxDatasets
	}
	return &MemoryStore{
		items: make(map[string]memoryEntry),
		ttl:   ttl,
		max:   max,
		now:   time.Now,
	}
}

func (s *MemoryStore) Put(ctx context.Context, ds *Dataset) error {
	if ds == nil || ds.Key == "" {
		return errors.New("dataset key required")
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(now)
	if _, exists := s.items[ds.Key]; !exists && len(s.items) >= s.max {
		s.evictOldestLocked()
	}
	s.items[ds.Key] = memoryEntry{ds: ds, storedAt: now}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*Dataset, error) {
	now := s.now()
	s.mu.RLock()
	entry, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if s.expired(entry, now) {
		s.mu.Lock()
		if current, still := s.items[key]; still && s.expired(current, now) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	return entry.ds, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; !ok {
		return ErrNotFound
	}
	delete(s.items, key)
	return nil
}

func (s *MemoryStore) Keys(ctx context.Context) ([]string, error) {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.items))
	for key, entry := range s.items {
		if s.expired(entry, now) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) expired(entry memoryEntry, now time.Time) bool {
	return now.Sub(entry.storedAt) > s.ttl
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	for key, entry := range s.items {
		if s.expired(entry, now) {
			delete(s.items, key)
		}
	}
}

func (s *MemoryStore) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range s.items {
		if oldestKey == "" || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
		}
	}
	if oldestKey != "" {
		delete(s.items, oldestKey)
		common.Logger().Warn("dataset: capacity eviction", "key", oldestKey, "stored_at", oldestAt)
	}
}
