package store

import (
	"context"

	"github.com/goliatone/go-restaurant-api/model"
)

// Backend names accepted by configuration.
const (
	BackendRelational = "relational"
	BackendDocument   = "document"
)

// Collection issues CRUD commands against one entity kind of a concrete backend
// and returns plain model values. Absence is reported as a nil pointer, never as
// an error.
type Collection[T model.Entity] interface {
	// Insert stores rec and returns it with the backend assigned id.
	Insert(ctx context.Context, rec T) (T, error)
	FindByID(ctx context.Context, id string) (*T, error)
	// FindBy returns the records whose field equals value, in insertion order.
	FindBy(ctx context.Context, field, value string) ([]T, error)
	FindAll(ctx context.Context) ([]T, error)
	// Patch sets the given fields and returns the merged record. Fields not in
	// the map keep their stored values.
	Patch(ctx context.Context, id string, fields map[string]any) (*T, error)
	// Delete removes the record. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
}

// Backend is a process wide store of record. One Backend is chosen at startup
// and every repository delegates to its collections.
type Backend interface {
	Name() string
	Users() Collection[model.User]
	Restaurants() Collection[model.Restaurant]
	Menus() Collection[model.Menu]
	Dishes() Collection[model.Dish]
	Orders() Collection[model.Order]
	Reservations() Collection[model.Reservation]
	Ping(ctx context.Context) error
	Close() error
}
