// Package cache provides the response cache consulted by the catalog client
// before any network fetch.
//
// Every backend implements Store:
//
//   - MemoryStore: in-process tier; entries live for the process lifetime,
//     or for a TTL when built with NewExpiringMemoryStore
//   - RedisStore: durable tier on Redis, entries expire after a fixed TTL
//   - SQLiteStore: durable tier in a local SQLite file, same TTL semantics
//
// Tiered composes stores in a fixed lookup order. A hit in a later tier is
// copied back into the earlier tiers unless backfill is disabled. Tiers that
// implement EntryReader and EntryWriter pass the remaining lifetime along, so
// a backfilled copy expires with its source.
//
// Only raw catalog payloads are cached. Values derived from them (prices,
// alcohol metrics, aggregates) are recomputed for every query.
//
// # Basic Usage
//
//	redisClient, err := cache.Connect(ctx, "redis://localhost:6379/0")
//	if err != nil {
//		return err
//	}
//
//	tiered := cache.NewTiered([]cache.Store{
//		cache.NewExpiringMemoryStore(cache.DefaultTTL),
//		cache.NewRedisStore(redisClient, cache.DefaultTTL),
//	}, cache.TieredOptions{Backfill: true})
//
//	key := cache.Key{Path: "/cities/12/pubs"}
//	data, err := tiered.Get(ctx, key.String())
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the catalog, then tiered.Set(ctx, key.String(), body)
//	}
//
// # Metrics
//
//   - ontap_cache_hits_total{tier} - Cache hits
//   - ontap_cache_misses_total{tier} - Cache misses
//   - ontap_cache_errors_total{tier,operation} - Backend errors
//   - ontap_cache_written_bytes_total{tier} - Payload bytes written
//   - ontap_cache_backfills_total{tier} - Entries copied into an earlier tier
package cache
