package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/goliatone/go-restaurant-api/model"
	"github.com/goliatone/go-restaurant-api/repository"
)

// resource serves the CRUD routes of one entity kind.
type resource[T model.Entity, N model.Input[T], P model.Patch] struct {
	kind   model.Kind
	repo   repository.Repository[T, N, P]
	logger *slog.Logger
}

func newResource[T model.Entity, N model.Input[T], P model.Patch](kind model.Kind, repo repository.Repository[T, N, P], logger *slog.Logger) resource[T, N, P] {
	return resource[T, N, P]{kind: kind, repo: repo, logger: logger}
}

// GET /<kind>s/:id
func (r resource[T, N, P]) get(c *gin.Context) {
	rec, err := r.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, r.logger, fmt.Sprintf("failed to get %s", r.kind), err)
		return
	}
	if rec == nil {
		notFound(c, fmt.Sprintf("%s not found", r.kind))
		return
	}
	respond(c, http.StatusOK, fmt.Sprintf("%s retrieved", r.kind), rec)
}

// GET /<kind>s
func (r resource[T, N, P]) list(c *gin.Context) {
	recs, err := r.repo.List(c.Request.Context())
	if err != nil {
		fail(c, r.logger, fmt.Sprintf("failed to list %s", r.kind.Plural()), err)
		return
	}
	respond(c, http.StatusOK, fmt.Sprintf("%s retrieved", r.kind.Plural()), recs)
}

func (r resource[T, N, P]) create(c *gin.Context) {
	r.createWith(nil)(c)
}

// createWith binds the body, lets prepare fill fields taken from the path,
// and creates the entity.
func (r resource[T, N, P]) createWith(prepare func(c *gin.Context, in *N)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in N
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, err)
			return
		}
		if prepare != nil {
			prepare(c, &in)
		}

		rec, err := r.repo.Create(c.Request.Context(), in)
		if err != nil {
			fail(c, r.logger, fmt.Sprintf("failed to create %s", r.kind), err)
			return
		}
		respond(c, http.StatusCreated, fmt.Sprintf("%s created", r.kind), rec)
	}
}

// PUT /<kind>s/:id merges the body into the stored entity.
func (r resource[T, N, P]) update(c *gin.Context) {
	var patch P
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	rec, err := r.repo.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		fail(c, r.logger, fmt.Sprintf("failed to update %s", r.kind), err)
		return
	}
	if rec == nil {
		notFound(c, fmt.Sprintf("%s not found", r.kind))
		return
	}
	respond(c, http.StatusOK, fmt.Sprintf("%s updated", r.kind), rec)
}

// DELETE /<kind>s/:id answers 404 for an absent id even though the
// repository treats that removal as a success.
func (r resource[T, N, P]) remove(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	rec, err := r.repo.GetByID(ctx, id)
	if err != nil {
		fail(c, r.logger, fmt.Sprintf("failed to delete %s", r.kind), err)
		return
	}
	if rec == nil {
		notFound(c, fmt.Sprintf("%s not found", r.kind))
		return
	}

	if err := r.repo.Remove(ctx, id); err != nil {
		fail(c, r.logger, fmt.Sprintf("failed to delete %s", r.kind), err)
		return
	}
	respond(c, http.StatusOK, fmt.Sprintf("%s deleted", r.kind), gin.H{"id": id})
}

// exists aborts with 404 unless the entity named by :id is stored. Nested
// routes put it in front of their handler.
func (r resource[T, N, P]) exists(c *gin.Context) {
	rec, err := r.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, r.logger, fmt.Sprintf("failed to get %s", r.kind), err)
		return
	}
	if rec == nil {
		notFound(c, fmt.Sprintf("%s not found", r.kind))
		return
	}
	c.Next()
}

// listChildren serves GET /<parent>s/:id/<children>.
func listChildren[T any](kind model.Kind, logger *slog.Logger, list func(ctx context.Context, parentID string) ([]T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		recs, err := list(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, logger, fmt.Sprintf("failed to list %s", kind.Plural()), err)
			return
		}
		respond(c, http.StatusOK, fmt.Sprintf("%s retrieved", kind.Plural()), recs)
	}
}

type orderStatusBody struct {
	Status *model.OrderStatus `json:"status"`
}

// updateOrderStatus serves PUT /orders/:id. Only the status of an order can
// change once it is placed.
func updateOrderStatus(orders repository.Orders, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body orderStatusBody
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err)
			return
		}
		if body.Status == nil {
			badRequest(c, errors.New("status is required"))
			return
		}

		rec, err := orders.UpdateStatus(c.Request.Context(), c.Param("id"), *body.Status)
		if err != nil {
			fail(c, logger, "failed to update order", err)
			return
		}
		if rec == nil {
			notFound(c, "order not found")
			return
		}
		respond(c, http.StatusOK, "order updated", rec)
	}
}

// cancelReservation serves DELETE /reservations/:id. The reservation is kept
// with the cancelled status.
func cancelReservation(reservations repository.Reservations, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := reservations.Cancel(c.Request.Context(), c.Param("id"))
		if err != nil {
			fail(c, logger, "failed to cancel reservation", err)
			return
		}
		if rec == nil {
			notFound(c, "reservation not found")
			return
		}
		respond(c, http.StatusOK, "reservation cancelled", rec)
	}
}
