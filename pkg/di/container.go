package di

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/goliatone/go-restaurant-api/cache"
	"github.com/goliatone/go-restaurant-api/config"
	"github.com/goliatone/go-restaurant-api/internal/storeinfra/bunstore"
	"github.com/goliatone/go-restaurant-api/internal/storeinfra/mongostore"
	"github.com/goliatone/go-restaurant-api/repository"
	"github.com/goliatone/go-restaurant-api/repositorycache"
	"github.com/goliatone/go-restaurant-api/store"
)

// Container provides dependency injection for the process wide components.
// It resolves the store backend once, owns the cache service and client, and
// exposes one cached repository per entity kind.
type Container struct {
	config       config.Config
	logger       *slog.Logger
	backend      store.Backend
	cacheService cache.CacheService
	client       *cache.Client
	ttl          cache.TTLPolicy

	users        repository.Users
	restaurants  repository.Restaurants
	menus        repository.Menus
	dishes       repository.Dishes
	orders       repository.Orders
	reservations repository.Reservations
}

// Option customizes container construction.
type Option func(*settings)

type settings struct {
	backend      store.Backend
	cacheService cache.CacheService
	logger       *slog.Logger
	now          func() time.Time
}

// WithBackend injects a backend instead of opening the configured one.
func WithBackend(b store.Backend) Option {
	return func(s *settings) { s.backend = b }
}

// WithCacheService injects a cache service instead of building the configured one.
func WithCacheService(svc cache.CacheService) Option {
	return func(s *settings) { s.cacheService = svc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithClock sets the clock repositories use for created_at.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// BackendFactory opens a store backend from configuration.
type BackendFactory func(ctx context.Context, cfg config.Config) (store.Backend, error)

var backendFactories = map[string]BackendFactory{
	store.BackendRelational: func(ctx context.Context, cfg config.Config) (store.Backend, error) {
		return bunstore.Open(ctx, cfg.RelationalConfig())
	},
	store.BackendDocument: func(ctx context.Context, cfg config.Config) (store.Backend, error) {
		return mongostore.Open(ctx, cfg.DocumentConfig())
	},
}

// OpenBackend opens the backend named by cfg.Store.Backend.
func OpenBackend(ctx context.Context, cfg config.Config) (store.Backend, error) {
	factory, ok := backendFactories[cfg.Store.Backend]
	if !ok {
		return nil, &config.Error{Field: "store.backend", Message: fmt.Sprintf("unknown backend %q", cfg.Store.Backend)}
	}
	backend, err := factory(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Store.Backend, err)
	}
	return backend, nil
}

// NewContainer creates a container from cfg. The backend and cache service are
// built from cfg unless injected with WithBackend or WithCacheService; injected
// components are still closed by Close.
func NewContainer(ctx context.Context, cfg config.Config, opts ...Option) (*Container, error) {
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cacheCfg := cfg.CacheConfig()
	if err := cacheCfg.Validate(); err != nil {
		return nil, err
	}

	svc := s.cacheService
	if svc == nil {
		var err error
		if svc, err = cache.NewCacheService(cacheCfg); err != nil {
			return nil, fmt.Errorf("build cache: %w", err)
		}
	}

	backend := s.backend
	if backend == nil {
		var err error
		if backend, err = OpenBackend(ctx, cfg); err != nil {
			_ = svc.Close()
			return nil, err
		}
	}

	client := cache.NewClient(svc,
		cache.WithOpTimeout(cacheCfg.OpTimeout),
		cache.WithLogger(s.logger),
	)

	var repoOpts []repository.Option
	if s.now != nil {
		repoOpts = append(repoOpts, repository.WithClock(s.now))
	}

	c := &Container{
		config:       cfg,
		logger:       s.logger,
		backend:      backend,
		cacheService: svc,
		client:       client,
		ttl:          cacheCfg.TTL,
	}
	c.users = repositorycache.NewUsers(repository.NewUsers(backend, repoOpts...), client, c.ttl, s.logger)
	c.restaurants = repositorycache.NewRestaurants(repository.NewRestaurants(backend, repoOpts...), client, c.ttl, s.logger)
	c.menus = repositorycache.NewMenus(repository.NewMenus(backend, repoOpts...), client, c.ttl, s.logger)
	c.dishes = repositorycache.NewDishes(repository.NewDishes(backend, repoOpts...), client, c.ttl, s.logger)
	c.orders = repositorycache.NewOrders(repository.NewOrders(backend, repoOpts...), client, c.ttl, s.logger)
	c.reservations = repositorycache.NewReservations(repository.NewReservations(backend, repoOpts...), client, c.ttl, s.logger)

	s.logger.Info("container ready",
		slog.String("backend", backend.Name()),
		slog.String("cache", cacheCfg.Driver),
	)
	return c, nil
}

// Config returns the configuration the container was built from.
func (c *Container) Config() config.Config { return c.config }

func (c *Container) Logger() *slog.Logger { return c.logger }

// Backend returns the store backend resolved at construction.
func (c *Container) Backend() store.Backend { return c.backend }

// CacheService returns the singleton cache service instance.
func (c *Container) CacheService() cache.CacheService { return c.cacheService }

// CacheClient returns the client shared by every cached repository.
func (c *Container) CacheClient() *cache.Client { return c.client }

func (c *Container) TTL() cache.TTLPolicy { return c.ttl }

func (c *Container) Users() repository.Users { return c.users }

func (c *Container) Restaurants() repository.Restaurants { return c.restaurants }

func (c *Container) Menus() repository.Menus { return c.menus }

func (c *Container) Dishes() repository.Dishes { return c.dishes }

func (c *Container) Orders() repository.Orders { return c.orders }

func (c *Container) Reservations() repository.Reservations { return c.reservations }

// Close releases the cache service and the backend. Both are closed even if
// the first one fails.
func (c *Container) Close() error {
	cacheErr := c.cacheService.Close()
	backendErr := c.backend.Close()
	if backendErr != nil {
		return fmt.Errorf("close backend: %w", backendErr)
	}
	if cacheErr != nil {
		return fmt.Errorf("close cache: %w", cacheErr)
	}
	return nil
}
