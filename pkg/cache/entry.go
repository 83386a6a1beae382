package cache

import (
	"time"
)

// Entry is a cached catalog response as persisted by the durable tiers.
type Entry struct {
	// Data is the raw response body
	Data []byte `json:"data"`

	// CachedAt is when the response was stored
	CachedAt time.Time `json:"cached_at"`

	// Expires is when the entry stops being served
	Expires time.Time `json:"expires"`
}

// NewEntry creates an entry stored at now that expires after ttl.
func NewEntry(data []byte, now time.Time, ttl time.Duration) *Entry {
	return &Entry{
		Data:     data,
		CachedAt: now,
		Expires:  now.Add(ttl),
	}
}

// IsExpiredAt reports whether the entry is expired at the given instant.
func (e *Entry) IsExpiredAt(now time.Time) bool {
	return !now.Before(e.Expires)
}

// TTLAt returns the time left at now, or 0 if already expired.
func (e *Entry) TTLAt(now time.Time) time.Duration {
	ttl := e.Expires.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}
