package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is the in-process tier.
//
// A store from NewMemoryStore keeps entries until the process exits. A store
// from NewExpiringMemoryStore drops them once their expiry passes, which is
// what a long-running process in front of a durable tier needs.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an empty store whose entries never expire.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// NewExpiringMemoryStore creates an empty store whose entries expire after
// ttl. A non-positive ttl falls back to DefaultTTL.
func NewExpiringMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := NewMemoryStore()
	m.ttl = ttl
	return m
}

// Get retrieves a copy of the value. Returns ErrCacheMiss if the key was
// never set or has expired.
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := m.GetEntry(ctx, key)
	if err != nil {
		return nil, err
	}
	return entry.Data, nil
}

// GetEntry retrieves a copy of the entry for key.
func (m *MemoryStore) GetEntry(_ context.Context, key string) (*Entry, error) {
	now := m.now()

	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if ok && m.expired(entry, now) {
		m.mu.Lock()
		if current, still := m.entries[key]; still && m.expired(current, now) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		ok = false
	}

	if !ok {
		CacheMisses.WithLabelValues(m.Name()).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(m.Name()).Inc()
	return cloneEntry(entry), nil
}

// Set stores a copy of value, replacing any previous entry.
func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	entry := &Entry{Data: value, CachedAt: m.now()}
	if m.ttl > 0 {
		entry.Expires = entry.CachedAt.Add(m.ttl)
	}
	return m.SetEntry(ctx, key, entry)
}

// SetEntry stores a copy of entry, keeping its expiry. A zero Expires never
// expires unless the store has a TTL, which also caps later expiries.
func (m *MemoryStore) SetEntry(_ context.Context, key string, entry *Entry) error {
	stored := cloneEntry(entry)
	now := m.now()
	if m.ttl > 0 {
		if limit := now.Add(m.ttl); stored.Expires.IsZero() || stored.Expires.After(limit) {
			stored.Expires = limit
		}
	}

	m.mu.Lock()
	if m.ttl > 0 {
		for k, e := range m.entries {
			if m.expired(e, now) {
				delete(m.entries, k)
			}
		}
	}
	m.entries[key] = stored
	m.mu.Unlock()

	CacheWrittenBytes.WithLabelValues(m.Name()).Add(float64(len(stored.Data)))
	return nil
}

// ListKeys returns all live keys in lexical order.
func (m *MemoryStore) ListKeys(_ context.Context) ([]string, error) {
	now := m.now()

	m.mu.RLock()
	keys := make([]string, 0, len(m.entries))
	for key, entry := range m.entries {
		if !m.expired(entry, now) {
			keys = append(keys, key)
		}
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of stored entries, expired ones included until
// they are swept.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// TTL returns the entry lifetime, or 0 when entries never expire.
func (m *MemoryStore) TTL() time.Duration {
	return m.ttl
}

// Name returns "memory".
func (m *MemoryStore) Name() string {
	return "memory"
}

func (m *MemoryStore) expired(entry *Entry, now time.Time) bool {
	return !entry.Expires.IsZero() && entry.IsExpiredAt(now)
}

func cloneEntry(entry *Entry) *Entry {
	data := make([]byte, len(entry.Data))
	copy(data, entry.Data)
	return &Entry{Data: data, CachedAt: entry.CachedAt, Expires: entry.Expires}
}

// Ensure MemoryStore implements Store
var (
	_ Store       = (*MemoryStore)(nil)
	_ EntryReader = (*MemoryStore)(nil)
	_ EntryWriter = (*MemoryStore)(nil)
)
