package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

var orderStatuses = []any{OrderPending, OrderPreparing, OrderCompleted, OrderCancelled}

// Order is placed by a customer at a restaurant, optionally against a reservation.
type Order struct {
	ID            string      `json:"id"`
	CustomerID    string      `json:"customer_id"`
	RestaurantID  string      `json:"restaurant_id"`
	ReservationID *string     `json:"reservation_id"`
	CreatedAt     time.Time   `json:"created_at"`
	Status        OrderStatus `json:"status"`
}

func (o Order) EntityID() string { return o.ID }

func (o Order) Parents() []ParentRef {
	return []ParentRef{
		parent(KindUser, "customer_id", o.CustomerID),
		parent(KindRestaurant, "restaurant_id", o.RestaurantID),
	}
}

type NewOrder struct {
	CustomerID    string  `json:"customer_id"`
	RestaurantID  string  `json:"restaurant_id"`
	ReservationID *string `json:"reservation_id"`
}

func (in NewOrder) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.CustomerID, validation.Required),
		validation.Field(&in.RestaurantID, validation.Required),
		validation.Field(&in.ReservationID, validation.NilOrNotEmpty),
	)
}

// Build stamps the order with now, at stored precision, and the pending status.
func (in NewOrder) Build(now time.Time) Order {
	return Order{
		CustomerID:    in.CustomerID,
		RestaurantID:  in.RestaurantID,
		ReservationID: in.ReservationID,
		CreatedAt:     Timestamp(now),
		Status:        OrderPending,
	}
}

type OrderPatch struct {
	Status        *OrderStatus `json:"status,omitempty"`
	ReservationID *string      `json:"reservation_id,omitempty"`
}

func (p OrderPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Status, validation.NilOrNotEmpty, validation.In(orderStatuses...)),
		validation.Field(&p.ReservationID, validation.NilOrNotEmpty),
	)
}

func (p OrderPatch) Fields() map[string]any {
	f := fields{}
	if p.Status != nil {
		f["status"] = string(*p.Status)
	}
	f.setString("reservation_id", p.ReservationID)
	return f
}
