package testsupport

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/goliatone/go-restaurant-api/model"
	"github.com/goliatone/go-restaurant-api/store"
)

// Method names counted by MemoryCollection.
const (
	CallInsert   = "Insert"
	CallFindByID = "FindByID"
	CallFindBy   = "FindBy"
	CallFindAll  = "FindAll"
	CallPatch    = "Patch"
	CallDelete   = "Delete"
)

// MemoryCollection is an in-process store.Collection that counts calls per
// method. Ids are assigned sequentially starting at "1".
type MemoryCollection[T model.Entity] struct {
	mu      sync.Mutex
	seq     int
	order   []string
	records map[string]T
	calls   map[string]int
	err     error
}

var _ store.Collection[model.Dish] = (*MemoryCollection[model.Dish])(nil)

func NewMemoryCollection[T model.Entity]() *MemoryCollection[T] {
	return &MemoryCollection[T]{
		records: make(map[string]T),
		calls:   make(map[string]int),
	}
}

// FailWith makes every following call return err. A nil err restores normal
// behaviour.
func (c *MemoryCollection[T]) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Calls returns how many times method was called.
func (c *MemoryCollection[T]) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// Reads returns the number of read calls of any kind.
func (c *MemoryCollection[T]) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[CallFindByID] + c.calls[CallFindBy] + c.calls[CallFindAll]
}

// ResetCalls zeroes the call counters.
func (c *MemoryCollection[T]) ResetCalls() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = make(map[string]int)
}

// Len returns the number of stored records.
func (c *MemoryCollection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

func (c *MemoryCollection[T]) Insert(_ context.Context, rec T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if err := c.enter(CallInsert); err != nil {
		return zero, err
	}

	c.seq++
	id := strconv.Itoa(c.seq)
	stored, err := overlay(rec, map[string]any{"id": id})
	if err != nil {
		return zero, err
	}

	c.records[id] = stored
	c.order = append(c.order, id)
	return stored, nil
}

func (c *MemoryCollection[T]) FindByID(_ context.Context, id string) (*T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enter(CallFindByID); err != nil {
		return nil, err
	}

	rec, ok := c.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (c *MemoryCollection[T]) FindBy(_ context.Context, field, value string) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enter(CallFindBy); err != nil {
		return nil, err
	}

	out := make([]T, 0)
	for _, id := range c.order {
		rec, ok := c.records[id]
		if !ok {
			continue
		}
		values, err := toMap(rec)
		if err != nil {
			return nil, err
		}
		if s, ok := values[field].(string); ok && s == value {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (c *MemoryCollection[T]) FindAll(_ context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enter(CallFindAll); err != nil {
		return nil, err
	}

	out := make([]T, 0, len(c.records))
	for _, id := range c.order {
		if rec, ok := c.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (c *MemoryCollection[T]) Patch(_ context.Context, id string, fields map[string]any) (*T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enter(CallPatch); err != nil {
		return nil, err
	}

	rec, ok := c.records[id]
	if !ok {
		return nil, nil
	}

	merged, err := overlay(rec, fields)
	if err != nil {
		return nil, err
	}
	c.records[id] = merged
	return &merged, nil
}

func (c *MemoryCollection[T]) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enter(CallDelete); err != nil {
		return err
	}
	delete(c.records, id)
	return nil
}

// enter must be called with c.mu held.
func (c *MemoryCollection[T]) enter(method string) error {
	c.calls[method]++
	return c.err
}

func toMap(rec any) (map[string]any, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// overlay returns rec with fields applied on top, using the JSON field names
// shared by every backend.
func overlay[T any](rec T, fields map[string]any) (T, error) {
	var zero T

	values, err := toMap(rec)
	if err != nil {
		return zero, err
	}
	for k, v := range fields {
		values[k] = v
	}

	raw, err := json.Marshal(values)
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("overlay fields: %w", err)
	}
	return out, nil
}

// MemoryBackend is an in-process store.Backend for tests.
type MemoryBackend struct {
	users        *MemoryCollection[model.User]
	restaurants  *MemoryCollection[model.Restaurant]
	menus        *MemoryCollection[model.Menu]
	dishes       *MemoryCollection[model.Dish]
	orders       *MemoryCollection[model.Order]
	reservations *MemoryCollection[model.Reservation]
	pingErr      error
}

var _ store.Backend = (*MemoryBackend)(nil)

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		users:        NewMemoryCollection[model.User](),
		restaurants:  NewMemoryCollection[model.Restaurant](),
		menus:        NewMemoryCollection[model.Menu](),
		dishes:       NewMemoryCollection[model.Dish](),
		orders:       NewMemoryCollection[model.Order](),
		reservations: NewMemoryCollection[model.Reservation](),
	}
}

func (b *MemoryBackend) Name() string { return "memory" }

func (b *MemoryBackend) Users() store.Collection[model.User]             { return b.users }
func (b *MemoryBackend) Restaurants() store.Collection[model.Restaurant] { return b.restaurants }
func (b *MemoryBackend) Menus() store.Collection[model.Menu]             { return b.menus }
func (b *MemoryBackend) Dishes() store.Collection[model.Dish]            { return b.dishes }
func (b *MemoryBackend) Orders() store.Collection[model.Order]           { return b.orders }
func (b *MemoryBackend) Reservations() store.Collection[model.Reservation] {
	return b.reservations
}

// Typed accessors for call counting and failure injection.
func (b *MemoryBackend) UserStore() *MemoryCollection[model.User]             { return b.users }
func (b *MemoryBackend) RestaurantStore() *MemoryCollection[model.Restaurant] { return b.restaurants }
func (b *MemoryBackend) MenuStore() *MemoryCollection[model.Menu]             { return b.menus }
func (b *MemoryBackend) DishStore() *MemoryCollection[model.Dish]             { return b.dishes }
func (b *MemoryBackend) OrderStore() *MemoryCollection[model.Order]           { return b.orders }
func (b *MemoryBackend) ReservationStore() *MemoryCollection[model.Reservation] {
	return b.reservations
}

// FailPing makes Ping return err.
func (b *MemoryBackend) FailPing(err error) { b.pingErr = err }

func (b *MemoryBackend) Ping(context.Context) error { return b.pingErr }

func (b *MemoryBackend) Close() error { return nil }
