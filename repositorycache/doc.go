// Package repositorycache provides cache-aside decorators for the entity
// repositories.
//
// # Overview
//
// Every entity kind has a decorator with the same interface as its repository
// (Users, Restaurants, Menus, Dishes, Orders, Reservations). Reads consult the
// cache first; writes go to the repository and, only when they succeed, drop
// the keys the write made stale.
//
// # Basic Usage
//
//	client := cache.NewClient(svc, cache.WithLogger(logger))
//	dishes := repositorycache.NewDishes(repository.NewDishes(backend), client, cache.DefaultTTLPolicy(), logger)
//
//	dish, err := dishes.GetByID(ctx, "12")   // dish:12
//	list, err := dishes.ListByMenu(ctx, "3") // dishes_menu:3
//
// # Cached Operations
//
//   - GetByID: <kind>:<id>, detail TTL
//   - List: <plural>:all, list TTL
//   - ListBy<Parent>: <plural>_<parent>:<parentId>, list TTL
//
// Not-found results and empty lists are never cached.
//
// # Invalidation
//
//   - Create: the full list and the scoped lists of the new entity's parents.
//   - Update: the entity, the full list, and the scoped lists of its parents
//     before and after the update. The prior state is read from the repository
//     only when the patch sets a parent reference.
//   - Remove: the prior state is read, the entity is removed, then the entity,
//     the full list and the prior parents' scoped lists are dropped.
//
// Failed writes invalidate nothing. Invalidation failures are logged and never
// turn a successful write into an error.
//
// # Consistency
//
// Concurrent writers are not serialized. The last write committed by the store
// wins, and because each writer invalidates after committing, the next read
// after all writers return is served from the store.
package repositorycache
