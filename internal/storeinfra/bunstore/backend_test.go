package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/goliatone/go-restaurant-api/model"
	"github.com/goliatone/go-restaurant-api/pkg/testsupport"
	"github.com/goliatone/go-restaurant-api/store"
)

var dbSeq atomic.Int64

func openSQLite(t *testing.T) *Backend {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	b, err := Open(context.Background(), Config{
		Driver:     DriverSQLite,
		DSN:        fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1)),
		Timeout:    2 * time.Second,
		AutoCreate: true,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestSQLiteBackend_Contract(t *testing.T) {
	b := openSQLite(t)
	testsupport.RunBackendContract(t, b, testsupport.Capabilities{
		AbsentID:    "999999",
		UniqueEmail: true,
		References:  true,
	})
}

func TestSQLiteBackend_Seed(t *testing.T) {
	b := openSQLite(t)
	ds := testsupport.Seed(t, b)

	if b.Name() != store.BackendRelational {
		t.Errorf("expected %q, got %q", store.BackendRelational, b.Name())
	}
	if ds.Menu.RestaurantID != ds.Restaurant.ID {
		t.Errorf("expected menu to reference %s, got %s", ds.Restaurant.ID, ds.Menu.RestaurantID)
	}
	if ds.Dishes[1].Category != model.DefaultDishCategory || ds.Dishes[1].Description != model.DefaultDishDescription {
		t.Errorf("expected defaults on the second dish, got %+v", ds.Dishes[1])
	}
	if ds.Administrator.ID != "1" || ds.Customer.ID != "2" {
		t.Errorf("expected decimal serial ids, got %q and %q", ds.Administrator.ID, ds.Customer.ID)
	}
}

func TestCreateSchema_Idempotent(t *testing.T) {
	b := openSQLite(t)
	for i := 0; i < 2; i++ {
		if err := b.CreateSchema(context.Background()); err != nil {
			t.Fatalf("CreateSchema %d: %v", i, err)
		}
	}
}

func TestMalformedReference(t *testing.T) {
	b := openSQLite(t)
	ctx := context.Background()

	_, err := b.Menus().Insert(ctx, model.Menu{Name: "Brunch", RestaurantID: "abc"})
	if !store.IsConstraintViolation(err) {
		t.Errorf("expected constraint violation for a malformed ref, got %v", err)
	}

	rows, err := b.Menus().FindBy(ctx, "restaurant_id", "abc")
	if err != nil || len(rows) != 0 {
		t.Errorf("expected no rows for a malformed ref, got %+v err=%v", rows, err)
	}
}

func TestClosedDatabaseIsUnavailable(t *testing.T) {
	b := openSQLite(t)
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	_, err := b.Users().FindAll(context.Background())
	if !store.IsUnavailable(err) {
		t.Errorf("expected store unavailable, got %v", err)
	}
	if err := b.Ping(context.Background()); !store.IsUnavailable(err) {
		t.Errorf("expected ping to report unavailable, got %v", err)
	}
}

// silentServer accepts TCP connections and never answers on them.
func silentServer(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	var conns []net.Conn
	var mu sync.Mutex
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return ln.Addr().String()
}

func TestPing_BoundedByStoreTimeout(t *testing.T) {
	dsn := fmt.Sprintf("postgres://nobody:secret@%s/none?sslmode=disable", silentServer(t))
	sqldb, err := sql.Open(DriverPgx, dsn)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	b := New(bun.NewDB(sqldb, pgdialect.New()), 100*time.Millisecond)
	t.Cleanup(func() { _ = b.Close() })

	start := time.Now()
	err = b.Ping(context.Background())
	if !store.IsUnavailable(err) {
		t.Errorf("expected store unavailable, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("expected ping to give up after the store timeout, took %v", elapsed)
	}
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown driver", Config{Driver: "oracle", DSN: "x"}},
		{"unreachable postgres", Config{Driver: DriverPgx, DSN: "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1", Timeout: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(context.Background(), tt.cfg); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		constraint bool
	}{
		{"pq unique", &pq.Error{Code: "23505", Message: "duplicate key"}, true},
		{"pq foreign key", &pq.Error{Code: "23503", Message: "violates foreign key"}, true},
		{"pq connection", &pq.Error{Code: "08006", Message: "connection failure"}, false},
		{"pgx check", &pgconn.PgError{Code: "23514", Message: "check violation"}, true},
		{"pgx admin shutdown", &pgconn.PgError{Code: "57P01", Message: "terminating connection"}, false},
		{"sqlite constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, true},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, false},
		{"other", errors.New("broken pipe"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.err)
			if got := store.IsConstraintViolation(err); got != tt.constraint {
				t.Errorf("constraint = %v, want %v (%v)", got, tt.constraint, err)
			}
			if !tt.constraint && !store.IsUnavailable(err) {
				t.Errorf("expected unavailable, got %v", err)
			}
		})
	}

	if classify(nil) != nil {
		t.Error("classify(nil) should be nil")
	}
}
