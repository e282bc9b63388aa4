package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Menu groups dishes of a restaurant.
type Menu struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	RestaurantID string `json:"restaurant_id"`
}

func (m Menu) EntityID() string { return m.ID }

func (m Menu) Parents() []ParentRef {
	return []ParentRef{parent(KindRestaurant, "restaurant_id", m.RestaurantID)}
}

type NewMenu struct {
	Name         string `json:"name"`
	RestaurantID string `json:"restaurant_id"`
}

func (in NewMenu) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.RestaurantID, validation.Required),
	)
}

func (in NewMenu) Build(time.Time) Menu {
	return Menu{Name: in.Name, RestaurantID: in.RestaurantID}
}

type MenuPatch struct {
	Name         *string `json:"name,omitempty"`
	RestaurantID *string `json:"restaurant_id,omitempty"`
}

func (p MenuPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.NilOrNotEmpty),
		validation.Field(&p.RestaurantID, validation.NilOrNotEmpty),
	)
}

func (p MenuPatch) Fields() map[string]any {
	f := fields{}
	f.setString("name", p.Name)
	f.setString("restaurant_id", p.RestaurantID)
	return f
}
