package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/goliatone/go-restaurant-api/model"
	"github.com/goliatone/go-restaurant-api/store"
)

var _ store.Backend = (*Backend)(nil)

// Config holds the document store connection settings.
type Config struct {
	URI             string
	Database        string
	Timeout         time.Duration
	ReferenceChecks bool
	ConnectRetries  int
	RetryDelay      time.Duration
}

// Backend is the document store of record.
type Backend struct {
	client       *mongo.Client
	db           *mongo.Database
	timeout      time.Duration
	users        *collection[model.User, userDoc]
	restaurants  *collection[model.Restaurant, restaurantDoc]
	menus        *collection[model.Menu, menuDoc]
	dishes       *collection[model.Dish, dishDoc]
	orders       *collection[model.Order, orderDoc]
	reservations *collection[model.Reservation, reservationDoc]
}

// Open connects to MongoDB, retrying while the server is not reachable yet, and
// ensures the indexes exist.
func Open(ctx context.Context, cfg Config) (*Backend, error) {
	attempts := cfg.ConnectRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, store.NewUnavailable(store.BackendDocument, ctx.Err())
			case <-time.After(cfg.RetryDelay):
			}
		}

		client, err := connect(ctx, cfg)
		if err != nil {
			lastErr = err
			continue
		}

		b := New(client, cfg)
		if err := b.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return b, nil
	}
	return nil, store.NewUnavailable(store.BackendDocument, fmt.Errorf("after %d attempts: %w", attempts, lastErr))
}

func connect(ctx context.Context, cfg Config) (*mongo.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// New builds a Backend over a connected client.
func New(client *mongo.Client, cfg Config) *Backend {
	db := client.Database(cfg.Database)
	return &Backend{
		client:  client,
		db:      db,
		timeout: cfg.Timeout,
		users: newCollection(db, cfg, collUsers, userToDoc, userFromDoc, parentRefs[model.User],
			nil),
		restaurants: newCollection(db, cfg, collRestaurants, restaurantToDoc, restaurantFromDoc, parentRefs[model.Restaurant],
			map[string]string{"administrator_id": collUsers}),
		menus: newCollection(db, cfg, collMenus, menuToDoc, menuFromDoc, parentRefs[model.Menu],
			map[string]string{"restaurant_id": collRestaurants}),
		dishes: newCollection(db, cfg, collDishes, dishToDoc, dishFromDoc, parentRefs[model.Dish],
			map[string]string{"menu_id": collMenus}),
		orders: newCollection(db, cfg, collOrders, orderToDoc, orderFromDoc, orderRefs,
			map[string]string{"customer_id": collUsers, "restaurant_id": collRestaurants, "reservation_id": collReservations}),
		reservations: newCollection(db, cfg, collReservations, reservationToDoc, reservationFromDoc, parentRefs[model.Reservation],
			map[string]string{"customer_id": collUsers, "restaurant_id": collRestaurants}),
	}
}

func newCollection[T model.Entity, D any](
	db *mongo.Database,
	cfg Config,
	name string,
	toDoc func(T, primitive.ObjectID) D,
	fromDoc func(D) T,
	refsOf func(T) map[string]string,
	refs map[string]string,
) *collection[T, D] {
	return &collection[T, D]{
		db:        db,
		coll:      db.Collection(name),
		timeout:   cfg.Timeout,
		refs:      refs,
		checkRefs: cfg.ReferenceChecks,
		refsOf:    refsOf,
		toDoc:     toDoc,
		fromDoc:   fromDoc,
	}
}

func (b *Backend) Name() string { return store.BackendDocument }

func (b *Backend) Users() store.Collection[model.User] { return b.users }

func (b *Backend) Restaurants() store.Collection[model.Restaurant] { return b.restaurants }

func (b *Backend) Menus() store.Collection[model.Menu] { return b.menus }

func (b *Backend) Dishes() store.Collection[model.Dish] { return b.dishes }

func (b *Backend) Orders() store.Collection[model.Order] { return b.orders }

func (b *Backend) Reservations() store.Collection[model.Reservation] { return b.reservations }

// Ping checks the server answers within the store timeout.
func (b *Backend) Ping(ctx context.Context) error {
	timeout := b.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := b.client.Ping(ctx, nil); err != nil {
		return store.NewUnavailable(store.BackendDocument, err)
	}
	return nil
}

func (b *Backend) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return b.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique email index, the document counterpart of the
// relational UNIQUE constraint, and one index per reference field so ListBy
// lookups do not scan whole collections.
func (b *Backend) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		collUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		collRestaurants:  refIndexes("administrator_id"),
		collMenus:        refIndexes("restaurant_id"),
		collDishes:       refIndexes("menu_id"),
		collOrders:       refIndexes("customer_id", "restaurant_id"),
		collReservations: refIndexes("customer_id", "restaurant_id"),
	}

	for name, models := range indexes {
		if _, err := b.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, classify(err))
		}
	}
	return nil
}

func refIndexes(fields ...string) []mongo.IndexModel {
	models := make([]mongo.IndexModel, 0, len(fields))
	for _, f := range fields {
		models = append(models, mongo.IndexModel{Keys: bson.D{{Key: f, Value: 1}}})
	}
	return models
}
