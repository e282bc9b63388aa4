package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"reflect"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-restaurant-api/internal/cacheinfra"
)

// ErrUnavailable is wrapped by CacheService implementations when the cache
// cannot serve a request. It never leaves the cache-aside layer.
var ErrUnavailable = cacheinfra.ErrUnavailable

// FetchFn is the function signature GetOrFetch expects when fetching from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService is a key/value store for serialized entities.
// A miss is reported with ok == false and a nil error.
type CacheService interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	InvalidateKeys(ctx context.Context, keys []string) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ CacheService = (*cacheinfra.MemoryService)(nil)
	_ CacheService = (*cacheinfra.RedisService)(nil)
)

// Client wraps a CacheService with the read-through and invalidation rules the
// repository decorators rely on. Cache failures are logged and counted, never
// returned.
type Client struct {
	service   CacheService
	opTimeout time.Duration
	logger    *slog.Logger

	hits   *xsync.Counter
	misses *xsync.Counter
	errors *xsync.Counter
}

// Option configures a Client.
type Option func(*Client)

// WithOpTimeout bounds every cache call.
func WithOpTimeout(d time.Duration) Option {
	return func(c *Client) { c.opTimeout = d }
}

// WithLogger sets the logger used for swallowed cache failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a Client over service.
func NewClient(service CacheService, opts ...Option) *Client {
	c := &Client{
		service:   service,
		opTimeout: DefaultOpTimeout,
		logger:    slog.Default(),
		hits:      xsync.NewCounter(),
		misses:    xsync.NewCounter(),
		errors:    xsync.NewCounter(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stats returns a snapshot of the hit, miss and error counters.
func (c *Client) Stats() Stats {
	return Stats{
		Hits:   c.hits.Value(),
		Misses: c.misses.Value(),
		Errors: c.errors.Value(),
	}
}

// Ping checks the cache answers within the op timeout.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	return c.service.Ping(ctx)
}

// Invalidate deletes keys. Failures are logged and swallowed so a write that
// already reached the store is never reported as failed.
func (c *Client) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}

	ctx, cancel := c.bound(ctx)
	defer cancel()

	if err := c.service.InvalidateKeys(ctx, keys); err != nil {
		c.errors.Inc()
		c.logger.WarnContext(ctx, "cache invalidation failed", "keys", keys, "error", err)
	}
}

func (c *Client) get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	payload, ok, err := c.service.Get(ctx, key)
	if err != nil {
		c.errors.Inc()
		c.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		return nil, false
	}
	return payload, ok
}

func (c *Client) set(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	if err := c.service.Set(ctx, key, payload, ttl); err != nil {
		c.errors.Inc()
		c.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}

func (c *Client) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.opTimeout)
}

// GetOrFetch returns the value cached under key, or calls fetchFn and caches
// its result for ttl. Nil pointers and empty slices are returned to the caller
// but never cached. Errors from fetchFn are returned as is.
func GetOrFetch[T any](ctx context.Context, c *Client, key string, ttl time.Duration, fetchFn FetchFn[T]) (T, error) {
	if payload, ok := c.get(ctx, key); ok {
		var value T
		err := json.Unmarshal(payload, &value)
		if err == nil {
			c.hits.Inc()
			return value, nil
		}
		c.errors.Inc()
		c.logger.WarnContext(ctx, "cache payload undecodable", "key", key, "error", err)
	}
	c.misses.Inc()

	value, err := fetchFn(ctx)
	if err != nil || !cacheable(value) {
		return value, err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		c.errors.Inc()
		c.logger.WarnContext(ctx, "cache payload unencodable", "key", key, "error", err)
		return value, nil
	}

	c.set(ctx, key, payload, ttl)
	return value, nil
}

// cacheable reports whether value is worth storing. Absence (a nil pointer)
// and empty collections are not.
func cacheable(value any) bool {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Invalid:
		return false
	case reflect.Pointer, reflect.Interface:
		return !v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.Len() > 0
	}
	return true
}
