// Package api exposes the repositories over HTTP with gin.
//
// Every response uses the {status, message, data} envelope. Absent entities
// answer 404, malformed bodies and validation errors answer 400, and any other
// repository error answers 500.
package api

import (
	"io"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/goliatone/go-restaurant-api/cache"
	"github.com/goliatone/go-restaurant-api/model"
	"github.com/goliatone/go-restaurant-api/pkg/di"
	"github.com/goliatone/go-restaurant-api/repository"
	"github.com/goliatone/go-restaurant-api/store"
)

// Dependencies are the collaborators the router serves.
type Dependencies struct {
	Users        repository.Users
	Restaurants  repository.Restaurants
	Menus        repository.Menus
	Dishes       repository.Dishes
	Orders       repository.Orders
	Reservations repository.Reservations

	Store  store.Backend
	Cache  *cache.Client
	Logger *slog.Logger

	// AllowedOrigins enables CORS when not empty.
	AllowedOrigins []string
}

// FromContainer collects the router dependencies from a container.
func FromContainer(c *di.Container) Dependencies {
	return Dependencies{
		Users:          c.Users(),
		Restaurants:    c.Restaurants(),
		Menus:          c.Menus(),
		Dishes:         c.Dishes(),
		Orders:         c.Orders(),
		Reservations:   c.Reservations(),
		Store:          c.Backend(),
		Cache:          c.CacheClient(),
		Logger:         c.Logger(),
		AllowedOrigins: c.Config().HTTP.AllowedOrigins,
	}
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(logger))
	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  deps.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", HeaderRequestID},
			ExposeHeaders: []string{HeaderRequestID},
			MaxAge:        12 * time.Hour,
		}))
	}

	users := newResource[model.User, model.NewUser, model.UserPatch](model.KindUser, deps.Users, logger)
	restaurants := newResource[model.Restaurant, model.NewRestaurant, model.RestaurantPatch](model.KindRestaurant, deps.Restaurants, logger)
	menus := newResource[model.Menu, model.NewMenu, model.MenuPatch](model.KindMenu, deps.Menus, logger)
	dishes := newResource[model.Dish, model.NewDish, model.DishPatch](model.KindDish, deps.Dishes, logger)
	orders := newResource[model.Order, model.NewOrder, model.OrderPatch](model.KindOrder, deps.Orders, logger)
	reservations := newResource[model.Reservation, model.NewReservation, model.ReservationPatch](model.KindReservation, deps.Reservations, logger)

	r.GET("/healthz", healthHandler(deps.Store, deps.Cache))

	u := r.Group("/users")
	{
		u.GET("", users.list)
		u.POST("", users.create)
		u.GET("/:id", users.get)
		u.PUT("/:id", users.update)
		u.DELETE("/:id", users.remove)
		u.GET("/:id/orders", users.exists, listChildren(model.KindOrder, logger, deps.Orders.ListByCustomer))
		u.GET("/:id/reservations", users.exists, listChildren(model.KindReservation, logger, deps.Reservations.ListByCustomer))
		u.GET("/:id/restaurants", users.exists, listChildren(model.KindRestaurant, logger, deps.Restaurants.ListByAdministrator))
	}

	rs := r.Group("/restaurants")
	{
		rs.GET("", restaurants.list)
		rs.POST("", restaurants.create)
		rs.GET("/:id", restaurants.get)
		rs.PUT("/:id", restaurants.update)
		rs.DELETE("/:id", restaurants.remove)
		rs.GET("/:id/menus", restaurants.exists, listChildren(model.KindMenu, logger, deps.Menus.ListByRestaurant))
		rs.GET("/:id/orders", restaurants.exists, listChildren(model.KindOrder, logger, deps.Orders.ListByRestaurant))
		rs.GET("/:id/reservations", restaurants.exists, listChildren(model.KindReservation, logger, deps.Reservations.ListByRestaurant))
	}

	m := r.Group("/menus")
	{
		m.POST("", menus.create)
		m.GET("/:id", menus.get)
		m.PUT("/:id", menus.update)
		m.DELETE("/:id", menus.remove)
		m.GET("/:id/dishes", menus.exists, listChildren(model.KindDish, logger, deps.Dishes.ListByMenu))
		m.POST("/:id/dishes", menus.exists, dishes.createWith(func(c *gin.Context, in *model.NewDish) {
			in.MenuID = c.Param("id")
		}))
	}

	d := r.Group("/dishes")
	{
		d.GET("", dishes.list)
		d.GET("/:id", dishes.get)
		d.PUT("/:id", dishes.update)
		d.DELETE("/:id", dishes.remove)
	}

	o := r.Group("/orders")
	{
		o.POST("", orders.create)
		o.GET("/:id", orders.get)
		o.PUT("/:id", updateOrderStatus(deps.Orders, logger))
		o.DELETE("/:id", orders.remove)
	}

	rv := r.Group("/reservations")
	{
		rv.POST("", reservations.create)
		rv.GET("/:id", reservations.get)
		rv.PUT("/:id", reservations.update)
		rv.DELETE("/:id", cancelReservation(deps.Reservations, logger))
		rv.GET("/user/:id", users.exists, listChildren(model.KindReservation, logger, deps.Reservations.ListByCustomer))
		rv.GET("/restaurant/:id", restaurants.exists, listChildren(model.KindReservation, logger, deps.Reservations.ListByRestaurant))
	}

	return r
}
