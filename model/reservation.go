package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
)

var reservationStatuses = []any{ReservationPending, ReservationConfirmed, ReservationCancelled}

// Reservation books a table for a party at a restaurant.
type Reservation struct {
	ID           string            `json:"id"`
	CustomerID   string            `json:"customer_id"`
	RestaurantID string            `json:"restaurant_id"`
	Datetime     time.Time         `json:"datetime"`
	PartySize    int               `json:"party_size"`
	Status       ReservationStatus `json:"status"`
}

func (r Reservation) EntityID() string { return r.ID }

func (r Reservation) Parents() []ParentRef {
	return []ParentRef{
		parent(KindUser, "customer_id", r.CustomerID),
		parent(KindRestaurant, "restaurant_id", r.RestaurantID),
	}
}

type NewReservation struct {
	CustomerID   string    `json:"customer_id"`
	RestaurantID string    `json:"restaurant_id"`
	Datetime     time.Time `json:"datetime"`
	PartySize    int       `json:"party_size"`
}

func (in NewReservation) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.CustomerID, validation.Required),
		validation.Field(&in.RestaurantID, validation.Required),
		validation.Field(&in.Datetime, validation.Required),
		validation.Field(&in.PartySize, validation.Required, validation.Min(1)),
	)
}

func (in NewReservation) Build(time.Time) Reservation {
	return Reservation{
		CustomerID:   in.CustomerID,
		RestaurantID: in.RestaurantID,
		Datetime:     Timestamp(in.Datetime),
		PartySize:    in.PartySize,
		Status:       ReservationPending,
	}
}

type ReservationPatch struct {
	Datetime  *time.Time         `json:"datetime,omitempty"`
	PartySize *int               `json:"party_size,omitempty"`
	Status    *ReservationStatus `json:"status,omitempty"`
}

func (p ReservationPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.PartySize, validation.By(positiveInt)),
		validation.Field(&p.Status, validation.NilOrNotEmpty, validation.In(reservationStatuses...)),
	)
}

func (p ReservationPatch) Fields() map[string]any {
	f := fields{}
	f.setTime("datetime", p.Datetime)
	f.setInt("party_size", p.PartySize)
	if p.Status != nil {
		f["status"] = string(*p.Status)
	}
	return f
}

func positiveInt(value any) error {
	n, ok := value.(*int)
	if !ok || n == nil {
		return nil
	}
	if *n < 1 {
		return validation.NewError("validation_min_greater_equal_than_required", "must be no less than 1")
	}
	return nil
}
