package repositorycache

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-restaurant-api/cache"
	"github.com/goliatone/go-restaurant-api/model"
	"github.com/goliatone/go-restaurant-api/repository"
)

// Interface assertion to ensure CachedRepository implements repository.Repository
var _ repository.Repository[model.Menu, model.NewMenu, model.MenuPatch] = (*CachedRepository[model.Menu, model.NewMenu, model.MenuPatch])(nil)

// CachedRepository decorates a repository with cache-aside reads and post-write
// invalidation for one entity kind.
type CachedRepository[T model.Entity, N model.Input[T], P model.Patch] struct {
	base   repository.Repository[T, N, P]
	kind   model.Kind
	client *cache.Client
	ttl    cache.TTLPolicy
	logger *slog.Logger
}

// New creates a CachedRepository for kind that wraps base.
func New[T model.Entity, N model.Input[T], P model.Patch](
	base repository.Repository[T, N, P],
	kind model.Kind,
	client *cache.Client,
	ttl cache.TTLPolicy,
	logger *slog.Logger,
) *CachedRepository[T, N, P] {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedRepository[T, N, P]{
		base:   base,
		kind:   kind,
		client: client,
		ttl:    ttl,
		logger: logger.With("kind", kind.String()),
	}
}

// GetByID serves <kind>:<id> from the cache, falling back to the repository.
// Absence is never cached.
func (c *CachedRepository[T, N, P]) GetByID(ctx context.Context, id string) (*T, error) {
	key := cache.EntityKey(c.kind, id)
	return cache.GetOrFetch[*T](ctx, c.client, key, c.ttl.DetailTTL(c.kind), func(ctx context.Context) (*T, error) {
		return c.base.GetByID(ctx, id)
	})
}

// List serves <plural>:all from the cache, falling back to the repository.
func (c *CachedRepository[T, N, P]) List(ctx context.Context) ([]T, error) {
	key := cache.AllKey(c.kind)
	return cache.GetOrFetch[[]T](ctx, c.client, key, c.ttl.ListTTL(c.kind), c.base.List)
}

// listBy serves <plural>_<parent>:<id> from the cache, falling back to fetch.
func (c *CachedRepository[T, N, P]) listBy(ctx context.Context, parent model.Kind, parentID string, fetch func(context.Context, string) ([]T, error)) ([]T, error) {
	key := cache.ListKey(c.kind, parent, parentID)
	return cache.GetOrFetch[[]T](ctx, c.client, key, c.ttl.ListTTL(c.kind), func(ctx context.Context) ([]T, error) {
		return fetch(ctx, parentID)
	})
}

// Create writes through to the repository, then drops the full list and the
// lists of every parent of the new entity.
func (c *CachedRepository[T, N, P]) Create(ctx context.Context, in N) (*T, error) {
	rec, err := c.base.Create(ctx, in)
	if err != nil || rec == nil {
		return rec, err
	}

	keys := append([]string{cache.AllKey(c.kind)}, cache.ParentListKeys(c.kind, (*rec).Parents())...)
	c.invalidate(ctx, "create", keys)
	return rec, nil
}

// Update writes through to the repository, then drops the entity, the full
// list and the lists of its parents before and after the update. The prior
// state is only read when the patch moves a parent reference.
func (c *CachedRepository[T, N, P]) Update(ctx context.Context, id string, patch P) (*T, error) {
	var prior *T
	if patch.Validate() == nil && movesParent[T](patch) {
		var err error
		if prior, err = c.base.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}

	rec, err := c.base.Update(ctx, id, patch)
	if err != nil || rec == nil {
		return rec, err
	}

	keys := []string{cache.EntityKey(c.kind, id), cache.AllKey(c.kind)}
	if prior != nil {
		keys = append(keys, cache.ParentListKeys(c.kind, (*prior).Parents())...)
	}
	keys = append(keys, cache.ParentListKeys(c.kind, (*rec).Parents())...)

	c.invalidate(ctx, "update", dedupe(keys))
	return rec, nil
}

// Remove reads the prior state so its parents' lists can be dropped, deletes
// the entity, then invalidates.
func (c *CachedRepository[T, N, P]) Remove(ctx context.Context, id string) error {
	prior, err := c.base.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := c.base.Remove(ctx, id); err != nil {
		return err
	}

	keys := []string{cache.EntityKey(c.kind, id), cache.AllKey(c.kind)}
	if prior != nil {
		keys = append(keys, cache.ParentListKeys(c.kind, (*prior).Parents())...)
	}
	c.invalidate(ctx, "remove", keys)
	return nil
}

func (c *CachedRepository[T, N, P]) invalidate(ctx context.Context, op string, keys []string) {
	c.logger.DebugContext(ctx, "invalidating cache", "op", op, "keys", keys)
	c.client.Invalidate(ctx, keys...)
}

// movesParent reports whether patch sets one of T's parent reference fields.
func movesParent[T model.Entity](patch model.Patch) bool {
	var zero T
	refs := zero.Parents()
	if len(refs) == 0 {
		return false
	}

	fields := patch.Fields()
	for _, ref := range refs {
		if _, ok := fields[ref.Field]; ok {
			return true
		}
	}
	return false
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
