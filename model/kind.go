// Package model defines the restaurant domain entities, their creation inputs and
// their partial updates.
//
// JSON field names are shared with relational column names and document field
// names, so a Patch's Fields map can be applied by any store backend unchanged.
package model

import (
	"time"

	"github.com/jinzhu/inflection"
)

// Kind names an entity kind. It is the first segment of every cache key.
type Kind string

const (
	KindUser        Kind = "user"
	KindRestaurant  Kind = "restaurant"
	KindMenu        Kind = "menu"
	KindDish        Kind = "dish"
	KindOrder       Kind = "order"
	KindReservation Kind = "reservation"
)

// Kinds lists every entity kind in dependency order (parents first).
var Kinds = []Kind{KindUser, KindRestaurant, KindMenu, KindDish, KindReservation, KindOrder}

func (k Kind) String() string { return string(k) }

// Plural returns the collection name for the kind, e.g. "dishes".
func (k Kind) Plural() string {
	return inflection.Plural(string(k))
}

// ParentRef is a reference from an entity to the entity that owns it in a
// one-to-many relation.
type ParentRef struct {
	Kind  Kind
	Field string
	ID    string
}

// Entity is implemented by every stored entity.
type Entity interface {
	EntityID() string
	Parents() []ParentRef
}

// Input is a validated creation payload that builds a new, id-less entity.
type Input[T any] interface {
	Validate() error
	Build(now time.Time) T
}

// Patch is a partial update. Fields only carries the fields that were set.
type Patch interface {
	Validate() error
	Fields() map[string]any
}

func parent(kind Kind, field, id string) ParentRef {
	return ParentRef{Kind: kind, Field: field, ID: id}
}
