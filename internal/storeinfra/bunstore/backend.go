package bunstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"

	"github.com/goliatone/go-restaurant-api/model"
	"github.com/goliatone/go-restaurant-api/store"
)

// Supported database/sql drivers.
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite3"
)

var _ store.Backend = (*Backend)(nil)

// Config holds the relational connection settings.
type Config struct {
	Driver          string
	DSN             string
	Timeout         time.Duration
	AutoCreate      bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Backend is the relational store of record.
type Backend struct {
	db           *bun.DB
	timeout      time.Duration
	users        *table[model.User, userRow]
	restaurants  *table[model.Restaurant, restaurantRow]
	menus        *table[model.Menu, menuRow]
	dishes       *table[model.Dish, dishRow]
	orders       *table[model.Order, orderRow]
	reservations *table[model.Reservation, reservationRow]
}

// Open connects to the configured database, checks it answers within the store
// timeout and optionally creates the tables.
func Open(ctx context.Context, cfg Config) (*Backend, error) {
	dialect, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	sqldb, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	configurePool(sqldb, cfg)

	db := bun.NewDB(sqldb, dialect)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout(cfg.Timeout))
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, store.NewUnavailable(store.BackendRelational, err)
	}

	if cfg.Driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}

	b := New(db, cfg.Timeout)
	if cfg.AutoCreate {
		if err := b.CreateSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return b, nil
}

// New wraps an existing bun database.
func New(db *bun.DB, timeout time.Duration) *Backend {
	return &Backend{
		db:           db,
		timeout:      timeout,
		users:        newTable(db, timeout, userToRow, userFromRow),
		restaurants:  newTable(db, timeout, restaurantToRow, restaurantFromRow, "administrator_id"),
		menus:        newTable(db, timeout, menuToRow, menuFromRow, "restaurant_id"),
		dishes:       newTable(db, timeout, dishToRow, dishFromRow, "menu_id"),
		orders:       newTable(db, timeout, orderToRow, orderFromRow, "customer_id", "restaurant_id", "reservation_id"),
		reservations: newTable(db, timeout, reservationToRow, reservationFromRow, "customer_id", "restaurant_id"),
	}
}

func (b *Backend) Name() string { return store.BackendRelational }

func (b *Backend) Users() store.Collection[model.User] { return b.users }

func (b *Backend) Restaurants() store.Collection[model.Restaurant] { return b.restaurants }

func (b *Backend) Menus() store.Collection[model.Menu] { return b.menus }

func (b *Backend) Dishes() store.Collection[model.Dish] { return b.dishes }

func (b *Backend) Orders() store.Collection[model.Order] { return b.orders }

func (b *Backend) Reservations() store.Collection[model.Reservation] { return b.reservations }

// Ping checks the database answers within the store timeout.
func (b *Backend) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout(b.timeout))
	defer cancel()

	if err := b.db.PingContext(ctx); err != nil {
		return store.NewUnavailable(store.BackendRelational, err)
	}
	return nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}

// CreateSchema creates the tables that do not exist yet, parents first, with
// their foreign keys. Existing tables are left untouched.
func (b *Backend) CreateSchema(ctx context.Context) error {
	tables := []struct {
		model       any
		foreignKeys []string
	}{
		{model: (*userRow)(nil)},
		{model: (*restaurantRow)(nil), foreignKeys: []string{
			`("administrator_id") REFERENCES "users" ("id")`,
		}},
		{model: (*menuRow)(nil), foreignKeys: []string{
			`("restaurant_id") REFERENCES "restaurants" ("id")`,
		}},
		{model: (*dishRow)(nil), foreignKeys: []string{
			`("menu_id") REFERENCES "menus" ("id")`,
		}},
		{model: (*reservationRow)(nil), foreignKeys: []string{
			`("customer_id") REFERENCES "users" ("id")`,
			`("restaurant_id") REFERENCES "restaurants" ("id")`,
		}},
		{model: (*orderRow)(nil), foreignKeys: []string{
			`("customer_id") REFERENCES "users" ("id")`,
			`("restaurant_id") REFERENCES "restaurants" ("id")`,
			`("reservation_id") REFERENCES "reservations" ("id")`,
		}},
	}

	for _, t := range tables {
		q := b.db.NewCreateTable().Model(t.model).IfNotExists()
		for _, fk := range t.foreignKeys {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", classify(err))
		}
	}
	return nil
}

func dialectFor(driver string) (schema.Dialect, error) {
	switch driver {
	case DriverPostgres, DriverPgx:
		return pgdialect.New(), nil
	case DriverSQLite:
		return sqlitedialect.New(), nil
	default:
		return nil, fmt.Errorf("unsupported relational driver %q", driver)
	}
}

func configurePool(db *sql.DB, cfg Config) {
	if cfg.Driver == DriverSQLite {
		// A single connection keeps in-memory databases and the foreign key
		// pragma alive for the life of the pool.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		return
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

func pingTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 5 * time.Second
	}
	return timeout
}
