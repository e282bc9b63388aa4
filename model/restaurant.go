package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Restaurant is owned by an administrator user.
type Restaurant struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Address         string `json:"address"`
	Phone           string `json:"phone"`
	AdministratorID string `json:"administrator_id"`
}

func (r Restaurant) EntityID() string { return r.ID }

func (r Restaurant) Parents() []ParentRef {
	return []ParentRef{parent(KindUser, "administrator_id", r.AdministratorID)}
}

type NewRestaurant struct {
	Name            string `json:"name"`
	Address         string `json:"address"`
	Phone           string `json:"phone"`
	AdministratorID string `json:"administrator_id"`
}

func (in NewRestaurant) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.Address, validation.Required),
		validation.Field(&in.Phone, validation.Required),
		validation.Field(&in.AdministratorID, validation.Required),
	)
}

func (in NewRestaurant) Build(time.Time) Restaurant {
	return Restaurant{
		Name:            in.Name,
		Address:         in.Address,
		Phone:           in.Phone,
		AdministratorID: in.AdministratorID,
	}
}

type RestaurantPatch struct {
	Name            *string `json:"name,omitempty"`
	Address         *string `json:"address,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	AdministratorID *string `json:"administrator_id,omitempty"`
}

func (p RestaurantPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.NilOrNotEmpty),
		validation.Field(&p.Address, validation.NilOrNotEmpty),
		validation.Field(&p.Phone, validation.NilOrNotEmpty),
		validation.Field(&p.AdministratorID, validation.NilOrNotEmpty),
	)
}

func (p RestaurantPatch) Fields() map[string]any {
	f := fields{}
	f.setString("name", p.Name)
	f.setString("address", p.Address)
	f.setString("phone", p.Phone)
	f.setString("administrator_id", p.AdministratorID)
	return f
}
