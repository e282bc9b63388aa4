package repository

import (
	"context"

	"github.com/goliatone/go-restaurant-api/model"
	"github.com/goliatone/go-restaurant-api/store"
)

// Users stores user accounts.
type Users interface {
	Repository[model.User, model.NewUser, model.UserPatch]
}

// Restaurants stores restaurants and lists them by administrator.
type Restaurants interface {
	Repository[model.Restaurant, model.NewRestaurant, model.RestaurantPatch]
	ListByAdministrator(ctx context.Context, userID string) ([]model.Restaurant, error)
}

// Menus stores menus and lists them by restaurant.
type Menus interface {
	Repository[model.Menu, model.NewMenu, model.MenuPatch]
	ListByRestaurant(ctx context.Context, restaurantID string) ([]model.Menu, error)
}

// Dishes stores dishes and lists them by menu.
type Dishes interface {
	Repository[model.Dish, model.NewDish, model.DishPatch]
	ListByMenu(ctx context.Context, menuID string) ([]model.Dish, error)
}

// Orders stores orders and lists them by customer or restaurant.
type Orders interface {
	Repository[model.Order, model.NewOrder, model.OrderPatch]
	ListByCustomer(ctx context.Context, userID string) ([]model.Order, error)
	ListByRestaurant(ctx context.Context, restaurantID string) ([]model.Order, error)
	// UpdateStatus moves the order to status.
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error)
}

// Reservations stores table reservations and lists them by customer or restaurant.
type Reservations interface {
	Repository[model.Reservation, model.NewReservation, model.ReservationPatch]
	ListByCustomer(ctx context.Context, userID string) ([]model.Reservation, error)
	ListByRestaurant(ctx context.Context, restaurantID string) ([]model.Reservation, error)
	// Cancel sets the reservation status to cancelled. The record is kept.
	Cancel(ctx context.Context, id string) (*model.Reservation, error)
}

var (
	_ Users        = (*UserRepository)(nil)
	_ Restaurants  = (*RestaurantRepository)(nil)
	_ Menus        = (*MenuRepository)(nil)
	_ Dishes       = (*DishRepository)(nil)
	_ Orders       = (*OrderRepository)(nil)
	_ Reservations = (*ReservationRepository)(nil)
)

// UserRepository is the backend implementation of Users.
type UserRepository struct {
	*Base[model.User, model.NewUser, model.UserPatch]
}

// NewUsers returns a UserRepository over the backend users collection.
func NewUsers(backend store.Backend, opts ...Option) *UserRepository {
	return &UserRepository{NewBase[model.User, model.NewUser, model.UserPatch](backend.Users(), opts...)}
}

// RestaurantRepository is the backend implementation of Restaurants.
type RestaurantRepository struct {
	*Base[model.Restaurant, model.NewRestaurant, model.RestaurantPatch]
}

// NewRestaurants returns a RestaurantRepository over the backend restaurants collection.
func NewRestaurants(backend store.Backend, opts ...Option) *RestaurantRepository {
	return &RestaurantRepository{NewBase[model.Restaurant, model.NewRestaurant, model.RestaurantPatch](backend.Restaurants(), opts...)}
}

// ListByAdministrator returns the restaurants administered by userID.
func (r *RestaurantRepository) ListByAdministrator(ctx context.Context, userID string) ([]model.Restaurant, error) {
	return r.listBy(ctx, "administrator_id", userID)
}

// MenuRepository is the backend implementation of Menus.
type MenuRepository struct {
	*Base[model.Menu, model.NewMenu, model.MenuPatch]
}

// NewMenus returns a MenuRepository over the backend menus collection.
func NewMenus(backend store.Backend, opts ...Option) *MenuRepository {
	return &MenuRepository{NewBase[model.Menu, model.NewMenu, model.MenuPatch](backend.Menus(), opts...)}
}

// ListByRestaurant returns the menus of restaurantID.
func (r *MenuRepository) ListByRestaurant(ctx context.Context, restaurantID string) ([]model.Menu, error) {
	return r.listBy(ctx, "restaurant_id", restaurantID)
}

// DishRepository is the backend implementation of Dishes.
type DishRepository struct {
	*Base[model.Dish, model.NewDish, model.DishPatch]
}

// NewDishes returns a DishRepository over the backend dishes collection.
func NewDishes(backend store.Backend, opts ...Option) *DishRepository {
	return &DishRepository{NewBase[model.Dish, model.NewDish, model.DishPatch](backend.Dishes(), opts...)}
}

// ListByMenu returns the dishes of menuID.
func (r *DishRepository) ListByMenu(ctx context.Context, menuID string) ([]model.Dish, error) {
	return r.listBy(ctx, "menu_id", menuID)
}

// OrderRepository is the backend implementation of Orders.
type OrderRepository struct {
	*Base[model.Order, model.NewOrder, model.OrderPatch]
}

// NewOrders returns an OrderRepository over the backend orders collection.
func NewOrders(backend store.Backend, opts ...Option) *OrderRepository {
	return &OrderRepository{NewBase[model.Order, model.NewOrder, model.OrderPatch](backend.Orders(), opts...)}
}

// ListByCustomer returns the orders placed by userID.
func (r *OrderRepository) ListByCustomer(ctx context.Context, userID string) ([]model.Order, error) {
	return r.listBy(ctx, "customer_id", userID)
}

// ListByRestaurant returns the orders placed at restaurantID.
func (r *OrderRepository) ListByRestaurant(ctx context.Context, restaurantID string) ([]model.Order, error) {
	return r.listBy(ctx, "restaurant_id", restaurantID)
}

// UpdateStatus patches only the status field.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	return r.Update(ctx, id, model.OrderPatch{Status: &status})
}

// ReservationRepository is the backend implementation of Reservations.
type ReservationRepository struct {
	*Base[model.Reservation, model.NewReservation, model.ReservationPatch]
}

// NewReservations returns a ReservationRepository over the backend reservations collection.
func NewReservations(backend store.Backend, opts ...Option) *ReservationRepository {
	return &ReservationRepository{NewBase[model.Reservation, model.NewReservation, model.ReservationPatch](backend.Reservations(), opts...)}
}

// ListByCustomer returns the reservations made by userID.
func (r *ReservationRepository) ListByCustomer(ctx context.Context, userID string) ([]model.Reservation, error) {
	return r.listBy(ctx, "customer_id", userID)
}

// ListByRestaurant returns the reservations at restaurantID.
func (r *ReservationRepository) ListByRestaurant(ctx context.Context, restaurantID string) ([]model.Reservation, error) {
	return r.listBy(ctx, "restaurant_id", restaurantID)
}

// Cancel marks the reservation cancelled and keeps the record.
func (r *ReservationRepository) Cancel(ctx context.Context, id string) (*model.Reservation, error) {
	status := model.ReservationCancelled
	return r.Update(ctx, id, model.ReservationPatch{Status: &status})
}
