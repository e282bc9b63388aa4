package bunstore

import (
	"fmt"
	"strconv"
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-restaurant-api/model"
	"github.com/goliatone/go-restaurant-api/store"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Name  string `bun:"name,notnull"`
	Email string `bun:"email,notnull,unique"`
	Role  string `bun:"role,notnull"`
}

type restaurantRow struct {
	bun.BaseModel `bun:"table:restaurants,alias:r"`

	ID              int64  `bun:"id,pk,autoincrement"`
	Name            string `bun:"name,notnull"`
	Address         string `bun:"address,notnull"`
	Phone           string `bun:"phone,notnull"`
	AdministratorID int64  `bun:"administrator_id,notnull"`
}

type menuRow struct {
	bun.BaseModel `bun:"table:menus,alias:m"`

	ID           int64  `bun:"id,pk,autoincrement"`
	Name         string `bun:"name,notnull"`
	RestaurantID int64  `bun:"restaurant_id,notnull"`
}

type dishRow struct {
	bun.BaseModel `bun:"table:dishes,alias:d"`

	ID          int64   `bun:"id,pk,autoincrement"`
	Name        string  `bun:"name,notnull"`
	Price       float64 `bun:"price,type:double precision,notnull"`
	Description string  `bun:"description,notnull"`
	Category    string  `bun:"category,notnull"`
	Available   bool    `bun:"available,notnull"`
	MenuID      int64   `bun:"menu_id,notnull"`
}

type orderRow struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID            int64     `bun:"id,pk,autoincrement"`
	CustomerID    int64     `bun:"customer_id,notnull"`
	RestaurantID  int64     `bun:"restaurant_id,notnull"`
	ReservationID *int64    `bun:"reservation_id"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
	Status        string    `bun:"status,notnull"`
}

type reservationRow struct {
	bun.BaseModel `bun:"table:reservations,alias:rs"`

	ID           int64     `bun:"id,pk,autoincrement"`
	CustomerID   int64     `bun:"customer_id,notnull"`
	RestaurantID int64     `bun:"restaurant_id,notnull"`
	Datetime     time.Time `bun:"datetime,notnull"`
	PartySize    int       `bun:"party_size,notnull"`
	Status       string    `bun:"status,notnull"`
}

func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func formatID(n int64) string {
	return strconv.FormatInt(n, 10)
}

// parseRef converts a reference id. A reference that can never resolve is a
// constraint violation, the same outcome as a dangling numeric id.
func parseRef(field, id string) (int64, error) {
	n, ok := parseID(id)
	if !ok {
		return 0, store.NewConstraintViolation(fmt.Errorf("%s: malformed reference %q", field, id))
	}
	return n, nil
}

func userToRow(u model.User) (*userRow, error) {
	return &userRow{Name: u.Name, Email: u.Email, Role: string(u.Role)}, nil
}

func userFromRow(r *userRow) model.User {
	return model.User{ID: formatID(r.ID), Name: r.Name, Email: r.Email, Role: model.Role(r.Role)}
}

func restaurantToRow(r model.Restaurant) (*restaurantRow, error) {
	adminID, err := parseRef("administrator_id", r.AdministratorID)
	if err != nil {
		return nil, err
	}
	return &restaurantRow{Name: r.Name, Address: r.Address, Phone: r.Phone, AdministratorID: adminID}, nil
}

func restaurantFromRow(r *restaurantRow) model.Restaurant {
	return model.Restaurant{
		ID:              formatID(r.ID),
		Name:            r.Name,
		Address:         r.Address,
		Phone:           r.Phone,
		AdministratorID: formatID(r.AdministratorID),
	}
}

func menuToRow(m model.Menu) (*menuRow, error) {
	restaurantID, err := parseRef("restaurant_id", m.RestaurantID)
	if err != nil {
		return nil, err
	}
	return &menuRow{Name: m.Name, RestaurantID: restaurantID}, nil
}

func menuFromRow(r *menuRow) model.Menu {
	return model.Menu{ID: formatID(r.ID), Name: r.Name, RestaurantID: formatID(r.RestaurantID)}
}

func dishToRow(d model.Dish) (*dishRow, error) {
	menuID, err := parseRef("menu_id", d.MenuID)
	if err != nil {
		return nil, err
	}
	return &dishRow{
		Name:        d.Name,
		Price:       d.Price,
		Description: d.Description,
		Category:    d.Category,
		Available:   d.Available,
		MenuID:      menuID,
	}, nil
}

func dishFromRow(r *dishRow) model.Dish {
	return model.Dish{
		ID:          formatID(r.ID),
		Name:        r.Name,
		Price:       r.Price,
		Description: r.Description,
		Category:    r.Category,
		Available:   r.Available,
		MenuID:      formatID(r.MenuID),
	}
}

func orderToRow(o model.Order) (*orderRow, error) {
	customerID, err := parseRef("customer_id", o.CustomerID)
	if err != nil {
		return nil, err
	}
	restaurantID, err := parseRef("restaurant_id", o.RestaurantID)
	if err != nil {
		return nil, err
	}
	row := &orderRow{
		CustomerID:   customerID,
		RestaurantID: restaurantID,
		CreatedAt:    model.Timestamp(o.CreatedAt),
		Status:       string(o.Status),
	}
	if o.ReservationID != nil {
		reservationID, err := parseRef("reservation_id", *o.ReservationID)
		if err != nil {
			return nil, err
		}
		row.ReservationID = &reservationID
	}
	return row, nil
}

func orderFromRow(r *orderRow) model.Order {
	o := model.Order{
		ID:           formatID(r.ID),
		CustomerID:   formatID(r.CustomerID),
		RestaurantID: formatID(r.RestaurantID),
		CreatedAt:    r.CreatedAt.UTC(),
		Status:       model.OrderStatus(r.Status),
	}
	if r.ReservationID != nil {
		id := formatID(*r.ReservationID)
		o.ReservationID = &id
	}
	return o
}

func reservationToRow(r model.Reservation) (*reservationRow, error) {
	customerID, err := parseRef("customer_id", r.CustomerID)
	if err != nil {
		return nil, err
	}
	restaurantID, err := parseRef("restaurant_id", r.RestaurantID)
	if err != nil {
		return nil, err
	}
	return &reservationRow{
		CustomerID:   customerID,
		RestaurantID: restaurantID,
		Datetime:     model.Timestamp(r.Datetime),
		PartySize:    r.PartySize,
		Status:       string(r.Status),
	}, nil
}

func reservationFromRow(r *reservationRow) model.Reservation {
	return model.Reservation{
		ID:           formatID(r.ID),
		CustomerID:   formatID(r.CustomerID),
		RestaurantID: formatID(r.RestaurantID),
		Datetime:     r.Datetime.UTC(),
		PartySize:    r.PartySize,
		Status:       model.ReservationStatus(r.Status),
	}
}
