// Package repository exposes one repository per entity kind over whichever
// store.Backend the process was started with.
//
// Repositories validate input before any backend call and report absence with
// a nil entity and a nil error.
package repository

import (
	"context"
	"time"

	"github.com/goliatone/go-restaurant-api/model"
	"github.com/goliatone/go-restaurant-api/store"
)

// Repository is the operation set shared by every entity kind.
type Repository[T model.Entity, N model.Input[T], P model.Patch] interface {
	Create(ctx context.Context, in N) (*T, error)
	GetByID(ctx context.Context, id string) (*T, error)
	List(ctx context.Context) ([]T, error)
	Update(ctx context.Context, id string, patch P) (*T, error)
	Remove(ctx context.Context, id string) error
}

// Option configures a repository.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the time source used to stamp new entities.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Base implements Repository on top of a store.Collection. Entity repositories
// embed it and add their ListBy methods.
type Base[T model.Entity, N model.Input[T], P model.Patch] struct {
	coll store.Collection[T]
	now  func() time.Time
}

var _ Repository[model.User, model.NewUser, model.UserPatch] = (*Base[model.User, model.NewUser, model.UserPatch])(nil)

// NewBase builds a Base over coll.
func NewBase[T model.Entity, N model.Input[T], P model.Patch](coll store.Collection[T], opts ...Option) *Base[T, N, P] {
	o := buildOptions(opts)
	return &Base[T, N, P]{coll: coll, now: o.now}
}

// Create validates in, applies its defaults and inserts it.
func (b *Base[T, N, P]) Create(ctx context.Context, in N) (*T, error) {
	if err := in.Validate(); err != nil {
		return nil, store.NewValidationError(err)
	}

	rec, err := b.coll.Insert(ctx, in.Build(b.now()))
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (b *Base[T, N, P]) GetByID(ctx context.Context, id string) (*T, error) {
	return b.coll.FindByID(ctx, id)
}

func (b *Base[T, N, P]) List(ctx context.Context) ([]T, error) {
	return nonNil(b.coll.FindAll(ctx))
}

// Update merges the fields set in patch into the stored entity. Fields the
// patch leaves unset keep their stored values.
func (b *Base[T, N, P]) Update(ctx context.Context, id string, patch P) (*T, error) {
	if err := patch.Validate(); err != nil {
		return nil, store.NewValidationError(err)
	}
	return b.coll.Patch(ctx, id, patch.Fields())
}

// Remove deletes the entity. Removing an absent id succeeds.
func (b *Base[T, N, P]) Remove(ctx context.Context, id string) error {
	return b.coll.Delete(ctx, id)
}

func (b *Base[T, N, P]) listBy(ctx context.Context, field, value string) ([]T, error) {
	if value == "" {
		return []T{}, nil
	}
	return nonNil(b.coll.FindBy(ctx, field, value))
}

func nonNil[T any](recs []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []T{}
	}
	return recs, nil
}
