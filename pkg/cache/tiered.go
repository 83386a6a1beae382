package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// TieredOptions configures a Tiered cache.
type TieredOptions struct {
	// Backfill copies a value found in a later tier into every earlier tier.
	Backfill bool

	// Logger receives backfill and tier failures (default: disabled)
	Logger zerolog.Logger
}

// Tiered consults an ordered list of stores, fastest first.
type Tiered struct {
	tiers    []Store
	backfill bool
	logger   zerolog.Logger
}

// NewTiered creates a tiered cache over tiers. Nil tiers are skipped.
func NewTiered(tiers []Store, opts TieredOptions) *Tiered {
	kept := make([]Store, 0, len(tiers))
	for _, tier := range tiers {
		if tier != nil {
			kept = append(kept, tier)
		}
	}

	return &Tiered{
		tiers:    kept,
		backfill: opts.Backfill,
		logger:   opts.Logger,
	}
}

// Tiers returns the stores in lookup order.
func (t *Tiered) Tiers() []Store {
	return t.tiers
}

// Get returns the value from the first tier that has it.
//
// A failing tier is logged and skipped. When no tier hits and at least one
// failed, the first failure is returned wrapped in ErrCacheUnavailable.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, error) {
	var firstErr error

	for i, tier := range t.tiers {
		entry, err := getEntry(ctx, tier, key)
		if err == nil {
			if t.backfill && i > 0 {
				t.backfillTiers(ctx, i, key, entry)
			}
			return entry.Data, nil
		}

		if errors.Is(err, ErrCacheMiss) {
			continue
		}

		t.logger.Warn().
			Err(err).
			Str("tier", tier.Name()).
			Str("key", key).
			Msg("cache tier read failed")
		if firstErr == nil {
			firstErr = fmt.Errorf("%w: %s: %v", ErrCacheUnavailable, tier.Name(), err)
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return nil, ErrCacheMiss
}

// getEntry reads key from tier. Expires is zero when the tier cannot report it.
func getEntry(ctx context.Context, tier Store, key string) (*Entry, error) {
	if reader, ok := tier.(EntryReader); ok {
		return reader.GetEntry(ctx, key)
	}
	value, err := tier.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return &Entry{Data: value}, nil
}

// backfillTiers copies a hit into the tiers before hitIndex. Tiers that accept
// an explicit expiry keep the remaining lifetime of the hit, so a backfilled
// copy never outlives its source.
func (t *Tiered) backfillTiers(ctx context.Context, hitIndex int, key string, entry *Entry) {
	for _, tier := range t.tiers[:hitIndex] {
		var err error
		if writer, ok := tier.(EntryWriter); ok && !entry.Expires.IsZero() {
			err = writer.SetEntry(ctx, key, entry)
		} else {
			err = tier.Set(ctx, key, entry.Data)
		}
		if err != nil {
			t.logger.Warn().
				Err(err).
				Str("tier", tier.Name()).
				Str("key", key).
				Msg("cache backfill failed")
			continue
		}
		CacheBackfills.WithLabelValues(tier.Name()).Inc()
	}
}

// Set writes value to every tier. All tiers are attempted even if one fails.
func (t *Tiered) Set(ctx context.Context, key string, value []byte) error {
	var errs []error

	for _, tier := range t.tiers {
		if err := tier.Set(ctx, key, value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tier.Name(), err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrCacheUnavailable, errors.Join(errs...))
	}
	return nil
}

// ListKeys returns the union of keys across tiers in first-seen order.
func (t *Tiered) ListKeys(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var keys []string

	for _, tier := range t.tiers {
		tierKeys, err := tier.ListKeys(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCacheUnavailable, tier.Name(), err)
		}
		for _, key := range tierKeys {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}

	return keys, nil
}

// Name returns "tiered".
func (t *Tiered) Name() string {
	return "tiered"
}

// Ensure Tiered implements Store
var _ Store = (*Tiered)(nil)
