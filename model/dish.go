package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	DefaultDishDescription = "No description"
	DefaultDishCategory    = "Uncategorized"
)

// Dish is an item of a menu.
type Dish struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Available   bool    `json:"available"`
	MenuID      string  `json:"menu_id"`
}

func (d Dish) EntityID() string { return d.ID }

func (d Dish) Parents() []ParentRef {
	return []ParentRef{parent(KindMenu, "menu_id", d.MenuID)}
}

// NewDish is the creation payload for Dish. Price is a pointer so that an
// explicit zero price is distinguishable from a missing one.
type NewDish struct {
	Name        string   `json:"name"`
	Price       *float64 `json:"price"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Available   *bool    `json:"available"`
	MenuID      string   `json:"menu_id"`
}

func (in NewDish) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.Price, validation.NotNil, validation.Min(0.0)),
		validation.Field(&in.MenuID, validation.Required),
	)
}

func (in NewDish) Build(time.Time) Dish {
	d := Dish{
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Available:   true,
		MenuID:      in.MenuID,
	}
	if in.Price != nil {
		d.Price = *in.Price
	}
	if in.Available != nil {
		d.Available = *in.Available
	}
	if d.Description == "" {
		d.Description = DefaultDishDescription
	}
	if d.Category == "" {
		d.Category = DefaultDishCategory
	}
	return d
}

type DishPatch struct {
	Name        *string  `json:"name,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Available   *bool    `json:"available,omitempty"`
	MenuID      *string  `json:"menu_id,omitempty"`
}

func (p DishPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.NilOrNotEmpty),
		validation.Field(&p.Price, validation.Min(0.0)),
		validation.Field(&p.MenuID, validation.NilOrNotEmpty),
	)
}

func (p DishPatch) Fields() map[string]any {
	f := fields{}
	f.setString("name", p.Name)
	f.setFloat("price", p.Price)
	f.setString("description", p.Description)
	f.setString("category", p.Category)
	f.setBool("available", p.Available)
	f.setString("menu_id", p.MenuID)
	return f
}
