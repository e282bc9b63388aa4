package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/goliatone/go-restaurant-api/model"
)

// Collection names, one per entity kind.
const (
	collUsers        = "users"
	collRestaurants  = "restaurants"
	collMenus        = "menus"
	collDishes       = "dishes"
	collOrders       = "orders"
	collReservations = "reservations"
)

type userDoc struct {
	ID    primitive.ObjectID `bson:"_id"`
	Name  string             `bson:"name"`
	Email string             `bson:"email"`
	Role  string             `bson:"role"`
}

type restaurantDoc struct {
	ID              primitive.ObjectID `bson:"_id"`
	Name            string             `bson:"name"`
	Address         string             `bson:"address"`
	Phone           string             `bson:"phone"`
	AdministratorID string             `bson:"administrator_id"`
}

type menuDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	Name         string             `bson:"name"`
	RestaurantID string             `bson:"restaurant_id"`
}

type dishDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Price       float64            `bson:"price"`
	Description string             `bson:"description"`
	Category    string             `bson:"category"`
	Available   bool               `bson:"available"`
	MenuID      string             `bson:"menu_id"`
}

type orderDoc struct {
	ID            primitive.ObjectID `bson:"_id"`
	CustomerID    string             `bson:"customer_id"`
	RestaurantID  string             `bson:"restaurant_id"`
	ReservationID *string            `bson:"reservation_id"`
	CreatedAt     time.Time          `bson:"created_at"`
	Status        string             `bson:"status"`
}

type reservationDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	CustomerID   string             `bson:"customer_id"`
	RestaurantID string             `bson:"restaurant_id"`
	Datetime     time.Time          `bson:"datetime"`
	PartySize    int                `bson:"party_size"`
	Status       string             `bson:"status"`
}

func userToDoc(u model.User, id primitive.ObjectID) userDoc {
	return userDoc{ID: id, Name: u.Name, Email: u.Email, Role: string(u.Role)}
}

func userFromDoc(d userDoc) model.User {
	return model.User{ID: d.ID.Hex(), Name: d.Name, Email: d.Email, Role: model.Role(d.Role)}
}

func restaurantToDoc(r model.Restaurant, id primitive.ObjectID) restaurantDoc {
	return restaurantDoc{
		ID:              id,
		Name:            r.Name,
		Address:         r.Address,
		Phone:           r.Phone,
		AdministratorID: r.AdministratorID,
	}
}

func restaurantFromDoc(d restaurantDoc) model.Restaurant {
	return model.Restaurant{
		ID:              d.ID.Hex(),
		Name:            d.Name,
		Address:         d.Address,
		Phone:           d.Phone,
		AdministratorID: d.AdministratorID,
	}
}

func menuToDoc(m model.Menu, id primitive.ObjectID) menuDoc {
	return menuDoc{ID: id, Name: m.Name, RestaurantID: m.RestaurantID}
}

func menuFromDoc(d menuDoc) model.Menu {
	return model.Menu{ID: d.ID.Hex(), Name: d.Name, RestaurantID: d.RestaurantID}
}

func dishToDoc(m model.Dish, id primitive.ObjectID) dishDoc {
	return dishDoc{
		ID:          id,
		Name:        m.Name,
		Price:       m.Price,
		Description: m.Description,
		Category:    m.Category,
		Available:   m.Available,
		MenuID:      m.MenuID,
	}
}

func dishFromDoc(d dishDoc) model.Dish {
	return model.Dish{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Price:       d.Price,
		Description: d.Description,
		Category:    d.Category,
		Available:   d.Available,
		MenuID:      d.MenuID,
	}
}

func orderToDoc(o model.Order, id primitive.ObjectID) orderDoc {
	return orderDoc{
		ID:            id,
		CustomerID:    o.CustomerID,
		RestaurantID:  o.RestaurantID,
		ReservationID: o.ReservationID,
		CreatedAt:     model.Timestamp(o.CreatedAt),
		Status:        string(o.Status),
	}
}

func orderFromDoc(d orderDoc) model.Order {
	return model.Order{
		ID:            d.ID.Hex(),
		CustomerID:    d.CustomerID,
		RestaurantID:  d.RestaurantID,
		ReservationID: d.ReservationID,
		CreatedAt:     d.CreatedAt.UTC(),
		Status:        model.OrderStatus(d.Status),
	}
}

func reservationToDoc(r model.Reservation, id primitive.ObjectID) reservationDoc {
	return reservationDoc{
		ID:           id,
		CustomerID:   r.CustomerID,
		RestaurantID: r.RestaurantID,
		Datetime:     model.Timestamp(r.Datetime),
		PartySize:    r.PartySize,
		Status:       string(r.Status),
	}
}

func reservationFromDoc(d reservationDoc) model.Reservation {
	return model.Reservation{
		ID:           d.ID.Hex(),
		CustomerID:   d.CustomerID,
		RestaurantID: d.RestaurantID,
		Datetime:     d.Datetime.UTC(),
		PartySize:    d.PartySize,
		Status:       model.ReservationStatus(d.Status),
	}
}

// orderRefs adds the optional reservation reference to the order's parents.
func orderRefs(o model.Order) map[string]string {
	refs := parentRefs(o)
	if o.ReservationID != nil {
		refs["reservation_id"] = *o.ReservationID
	}
	return refs
}

func parentRefs[T model.Entity](rec T) map[string]string {
	refs := make(map[string]string)
	for _, p := range rec.Parents() {
		refs[p.Field] = p.ID
	}
	return refs
}
