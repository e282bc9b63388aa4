// Package cache provides the cache-aside primitives used by the repository
// decorators.
//
// # Overview
//
// The package exports:
//
//   - CacheService: a key/value contract for serialized entities with per key TTLs.
//     Two implementations are available through NewCacheService: an in-process
//     sturdyc cache ("memory") and Redis ("redis").
//   - Client: wraps a CacheService, bounds every call by an op timeout, logs and
//     swallows cache failures and counts hits, misses and errors.
//   - GetOrFetch: the generic read-through helper.
//   - Key helpers and TTLPolicy.
//
// # Keys
//
// Keys are derived from the entity kind and never from method names:
//
//	dish:12              single entity (EntityKey)
//	dishes_menu:3        entities owned by a parent (ListKey)
//	restaurants:all      full collection (AllKey)
//
// Plurals come from jinzhu/inflection. A writer that derives a key differently
// from a reader breaks invalidation without any error, so every key in the
// project is built with these helpers.
//
// # Basic Usage
//
//	svc, err := cache.NewCacheService(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	client := cache.NewClient(svc, cache.WithLogger(logger))
//
//	dish, err := cache.GetOrFetch(ctx, client, cache.EntityKey(model.KindDish, id), 5*time.Minute,
//		func(ctx context.Context) (*model.Dish, error) {
//			return dishes.GetByID(ctx, id)
//		})
//
// # Wire format
//
// Values are the JSON encoding of the entity or entity slice. Nil pointers and
// empty slices are returned to the caller but never stored, so absence is
// always re-queried. A payload that does not decode is treated as a miss.
//
// # Error Handling
//
// Cache errors never reach the caller. Reads that fail fall through to the
// fetch function; writes and invalidations that fail are logged at warn level.
package cache
