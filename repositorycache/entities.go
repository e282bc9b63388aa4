package repositorycache

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-restaurant-api/cache"
	"github.com/goliatone/go-restaurant-api/model"
	"github.com/goliatone/go-restaurant-api/repository"
)

var (
	_ repository.Users        = (*Users)(nil)
	_ repository.Restaurants  = (*Restaurants)(nil)
	_ repository.Menus        = (*Menus)(nil)
	_ repository.Dishes       = (*Dishes)(nil)
	_ repository.Orders       = (*Orders)(nil)
	_ repository.Reservations = (*Reservations)(nil)
)

// Users caches a repository.Users.
type Users struct {
	*CachedRepository[model.User, model.NewUser, model.UserPatch]
}

// NewUsers wraps base with the user cache.
func NewUsers(base repository.Users, client *cache.Client, ttl cache.TTLPolicy, logger *slog.Logger) *Users {
	return &Users{New[model.User, model.NewUser, model.UserPatch](base, model.KindUser, client, ttl, logger)}
}

// Restaurants caches a repository.Restaurants, including its administrator lists.
type Restaurants struct {
	*CachedRepository[model.Restaurant, model.NewRestaurant, model.RestaurantPatch]
	source repository.Restaurants
}

// NewRestaurants wraps base with the restaurant cache.
func NewRestaurants(base repository.Restaurants, client *cache.Client, ttl cache.TTLPolicy, logger *slog.Logger) *Restaurants {
	return &Restaurants{
		CachedRepository: New[model.Restaurant, model.NewRestaurant, model.RestaurantPatch](base, model.KindRestaurant, client, ttl, logger),
		source:           base,
	}
}

// ListByAdministrator is cached under restaurants_user:<id>.
func (r *Restaurants) ListByAdministrator(ctx context.Context, userID string) ([]model.Restaurant, error) {
	return r.listBy(ctx, model.KindUser, userID, r.source.ListByAdministrator)
}

// Menus caches a repository.Menus, including its per restaurant lists.
type Menus struct {
	*CachedRepository[model.Menu, model.NewMenu, model.MenuPatch]
	source repository.Menus
}

// NewMenus wraps base with the menu cache.
func NewMenus(base repository.Menus, client *cache.Client, ttl cache.TTLPolicy, logger *slog.Logger) *Menus {
	return &Menus{
		CachedRepository: New[model.Menu, model.NewMenu, model.MenuPatch](base, model.KindMenu, client, ttl, logger),
		source:           base,
	}
}

// ListByRestaurant is cached under menus_restaurant:<id>.
func (r *Menus) ListByRestaurant(ctx context.Context, restaurantID string) ([]model.Menu, error) {
	return r.listBy(ctx, model.KindRestaurant, restaurantID, r.source.ListByRestaurant)
}

// Dishes caches a repository.Dishes, including its per menu lists.
type Dishes struct {
	*CachedRepository[model.Dish, model.NewDish, model.DishPatch]
	source repository.Dishes
}

// NewDishes wraps base with the dish cache.
func NewDishes(base repository.Dishes, client *cache.Client, ttl cache.TTLPolicy, logger *slog.Logger) *Dishes {
	return &Dishes{
		CachedRepository: New[model.Dish, model.NewDish, model.DishPatch](base, model.KindDish, client, ttl, logger),
		source:           base,
	}
}

// ListByMenu is cached under dishes_menu:<id>.
func (r *Dishes) ListByMenu(ctx context.Context, menuID string) ([]model.Dish, error) {
	return r.listBy(ctx, model.KindMenu, menuID, r.source.ListByMenu)
}

// Orders caches a repository.Orders, including its customer and restaurant lists.
type Orders struct {
	*CachedRepository[model.Order, model.NewOrder, model.OrderPatch]
	source repository.Orders
}

// NewOrders wraps base with the order cache.
func NewOrders(base repository.Orders, client *cache.Client, ttl cache.TTLPolicy, logger *slog.Logger) *Orders {
	return &Orders{
		CachedRepository: New[model.Order, model.NewOrder, model.OrderPatch](base, model.KindOrder, client, ttl, logger),
		source:           base,
	}
}

// ListByCustomer is cached under orders_user:<id>.
func (r *Orders) ListByCustomer(ctx context.Context, userID string) ([]model.Order, error) {
	return r.listBy(ctx, model.KindUser, userID, r.source.ListByCustomer)
}

// ListByRestaurant is cached under orders_restaurant:<id>.
func (r *Orders) ListByRestaurant(ctx context.Context, restaurantID string) ([]model.Order, error) {
	return r.listBy(ctx, model.KindRestaurant, restaurantID, r.source.ListByRestaurant)
}

// UpdateStatus goes through Update so the usual invalidation applies.
func (r *Orders) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	return r.Update(ctx, id, model.OrderPatch{Status: &status})
}

// Reservations caches a repository.Reservations, including its customer and restaurant lists.
type Reservations struct {
	*CachedRepository[model.Reservation, model.NewReservation, model.ReservationPatch]
	source repository.Reservations
}

// NewReservations wraps base with the reservation cache.
func NewReservations(base repository.Reservations, client *cache.Client, ttl cache.TTLPolicy, logger *slog.Logger) *Reservations {
	return &Reservations{
		CachedRepository: New[model.Reservation, model.NewReservation, model.ReservationPatch](base, model.KindReservation, client, ttl, logger),
		source:           base,
	}
}

// ListByCustomer is cached under reservations_user:<id>.
func (r *Reservations) ListByCustomer(ctx context.Context, userID string) ([]model.Reservation, error) {
	return r.listBy(ctx, model.KindUser, userID, r.source.ListByCustomer)
}

// ListByRestaurant is cached under reservations_restaurant:<id>.
func (r *Reservations) ListByRestaurant(ctx context.Context, restaurantID string) ([]model.Reservation, error) {
	return r.listBy(ctx, model.KindRestaurant, restaurantID, r.source.ListByRestaurant)
}

// Cancel goes through Update so the usual invalidation applies.
func (r *Reservations) Cancel(ctx context.Context, id string) (*model.Reservation, error) {
	status := model.ReservationCancelled
	return r.Update(ctx, id, model.ReservationPatch{Status: &status})
}
