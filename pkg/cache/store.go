package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is how long the durable tiers keep an entry.
const DefaultTTL = 2 * time.Hour

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")

	// ErrCacheUnavailable indicates a cache backend failed, as opposed to the
	// catalog itself being unreachable.
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// Store is a single cache tier.
//
// Implementations must be safe for concurrent use. Values are treated as
// immutable once written; Set replaces the whole entry.
type Store interface {
	// Get returns the value for key, or ErrCacheMiss when it is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key.
	Set(ctx context.Context, key string, value []byte) error

	// ListKeys returns all currently known keys.
	ListKeys(ctx context.Context) ([]string, error)

	// Name is the tier label used in metrics and logs.
	Name() string
}

// EntryReader is implemented by tiers that can report when a value expires.
// Tiered uses it to carry the remaining lifetime into backfilled tiers.
type EntryReader interface {
	GetEntry(ctx context.Context, key string) (*Entry, error)
}

// EntryWriter is implemented by tiers that can store a value with an
// explicit expiry.
type EntryWriter interface {
	SetEntry(ctx context.Context, key string, entry *Entry) error
}
