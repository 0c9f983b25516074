package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a key is absent or its TTL has elapsed.
var ErrNotFound = errors.New("cache: key not found")

// Default TTLs applied when the engine config leaves them unset.
const (
	// DefaultResponseTTL bounds how long a cached response is served.
	DefaultResponseTTL = 1 * time.Hour

	// DefaultEmbeddingTTL bounds how long an embedding vector stays in the
	// semantic index. Longer than the response TTL: a vector whose response
	// expired is skipped during search and re-used on the next store.
	DefaultEmbeddingTTL = 24 * time.Hour
)

// Store is the key-value and list backend behind the cache engine. Keys are
// opaque strings; values are opaque bytes. Lists are append-only sequences
// addressed by inclusive ranges, with negative indices counting from the end
// (-1 is the newest element).
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value at key, or ErrNotFound if absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes value at key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// ListAppend appends value to the list at key, creating it if needed.
	ListAppend(ctx context.Context, key string, value []byte) error

	// ListRange returns elements [start, stop] of the list at key, oldest
	// first. Negative indices count from the end. An absent list yields an
	// empty slice, not an error.
	ListRange(ctx context.Context, key string, start, stop int) ([][]byte, error)

	// ListTrim discards list elements outside [start, stop].
	ListTrim(ctx context.Context, key string, start, stop int) error

	// Len returns the number of live keys with the given prefix.
	Len(ctx context.Context, prefix string) (int, error)

	// Clear removes all keys and lists.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// normalizeRange maps an inclusive range with optional negative indices onto
// [0, n). The returned ok is false when the range selects nothing.
func normalizeRange(start, stop, n int) (int, int, bool) {
	if n == 0 {
		return 0, 0, false
	}
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n || stop < 0 {
		return 0, 0, false
	}
	return start, stop, true
}
