package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// memoryItem is a value with an optional absolute expiry.
type memoryItem struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (it memoryItem) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && !now.Before(it.expiresAt)
}

// MemoryStore is an in-process Store for single-node deployments and tests.
// Expired keys are dropped lazily on read and swept by a background janitor.
type MemoryStore struct {
	mu     sync.RWMutex
	kv     map[string]memoryItem
	lists  map[string][][]byte
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewMemoryStore creates a memory store and starts its expiry janitor.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		kv:     make(map[string]memoryItem),
		lists:  make(map[string][][]byte),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *MemoryStore) janitor() {
	defer close(s.doneCh)
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for k, it := range s.kv {
				if it.expired(now) {
					delete(s.kv, k)
				}
			}
			s.mu.Unlock()
		}
	}
}

// Get returns the value at key, or ErrNotFound if absent or expired.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	it, ok := s.kv[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if it.expired(time.Now()) {
		s.mu.Lock()
		delete(s.kv, key)
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	out := make([]byte, len(it.value))
	copy(out, it.value)
	return out, nil
}

// Set writes value at key with the given TTL.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	it := memoryItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		it.expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.kv[key] = it
	s.mu.Unlock()
	return nil
}

// ListAppend appends value to the list at key.
func (s *MemoryStore) ListAppend(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	s.lists[key] = append(s.lists[key], append([]byte(nil), value...))
	s.mu.Unlock()
	return nil
}

// ListRange returns elements [start, stop] of the list at key, oldest first.
func (s *MemoryStore) ListRange(_ context.Context, key string, start, stop int) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.lists[key]
	lo, hi, ok := normalizeRange(start, stop, len(list))
	if !ok {
		return nil, nil
	}

	out := make([][]byte, 0, hi-lo+1)
	for _, v := range list[lo : hi+1] {
		out = append(out, append([]byte(nil), v...))
	}
	return out, nil
}

// ListTrim discards list elements outside [start, stop].
func (s *MemoryStore) ListTrim(_ context.Context, key string, start, stop int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.lists[key]
	lo, hi, ok := normalizeRange(start, stop, len(list))
	if !ok {
		delete(s.lists, key)
		return nil
	}

	s.lists[key] = append([][]byte(nil), list[lo:hi+1]...)
	return nil
}

// Len returns the number of live keys with the given prefix.
func (s *MemoryStore) Len(_ context.Context, prefix string) (int, error) {
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for k, it := range s.kv {
		if strings.HasPrefix(k, prefix) && !it.expired(now) {
			n++
		}
	}
	return n, nil
}

// Clear removes all keys and lists.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.kv = make(map[string]memoryItem)
	s.lists = make(map[string][][]byte)
	s.mu.Unlock()
	return nil
}

// Close stops the janitor.
func (s *MemoryStore) Close() error {
	close(s.stopCh)
	<-s.doneCh
	return nil
}
