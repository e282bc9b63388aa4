package testsupport

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-restaurant-api/model"
	"github.com/goliatone/go-restaurant-api/store"
)

// Capabilities describes what a backend enforces beyond the common contract.
type Capabilities struct {
	// AbsentID is well formed for the backend but never assigned.
	AbsentID string
	// UniqueEmail reports duplicate user emails as constraint violations.
	UniqueEmail bool
	// References reports dangling references as constraint violations.
	References bool
}

var contractSeq atomic.Int64

// RunBackendContract checks that backend honors the store.Collection contract
// every repository relies on. Each subtest creates its own records, so a
// backend can be shared with other tests.
func RunBackendContract(t *testing.T, backend store.Backend, caps Capabilities) {
	t.Helper()
	ctx := context.Background()

	graph := func(t *testing.T) (model.User, model.Restaurant, model.Menu) {
		t.Helper()
		n := contractSeq.Add(1)
		admin := mustInsert(t, ctx, backend.Users(), model.User{
			Name:  "Admin",
			Email: fmt.Sprintf("admin-%d-%d@example.com", time.Now().UnixNano(), n),
			Role:  model.RoleAdministrator,
		})
		restaurant := mustInsert(t, ctx, backend.Restaurants(), model.Restaurant{
			Name: "Bistro", Address: "1 Main St", Phone: "555-0101", AdministratorID: admin.ID,
		})
		menu := mustInsert(t, ctx, backend.Menus(), model.Menu{Name: "Dinner", RestaurantID: restaurant.ID})
		return admin, restaurant, menu
	}

	t.Run("insert assigns id and round-trips", func(t *testing.T) {
		_, _, menu := graph(t)
		dish := mustInsert(t, ctx, backend.Dishes(), model.Dish{
			Name: "Soup", Price: 4.25, Description: "Hot", Category: "Starters", Available: true, MenuID: menu.ID,
		})
		if dish.ID == "" {
			t.Fatal("expected an assigned id")
		}

		got, err := backend.Dishes().FindByID(ctx, dish.ID)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got == nil || *got != dish {
			t.Errorf("expected %+v, got %+v", dish, got)
		}
	})

	t.Run("absent and malformed ids are nil without error", func(t *testing.T) {
		for _, id := range []string{caps.AbsentID, "not-an-id", ""} {
			got, err := backend.Menus().FindByID(ctx, id)
			if err != nil || got != nil {
				t.Errorf("FindByID(%q): expected nil, got %+v err=%v", id, got, err)
			}
		}
	})

	t.Run("find by parent keeps insertion order", func(t *testing.T) {
		_, _, menu := graph(t)
		_, _, other := graph(t)

		a := mustInsert(t, ctx, backend.Dishes(), model.Dish{Name: "A", Price: 1, MenuID: menu.ID, Available: true})
		mustInsert(t, ctx, backend.Dishes(), model.Dish{Name: "X", Price: 1, MenuID: other.ID, Available: true})
		b := mustInsert(t, ctx, backend.Dishes(), model.Dish{Name: "B", Price: 2, MenuID: menu.ID})

		got, err := backend.Dishes().FindBy(ctx, "menu_id", menu.ID)
		if err != nil {
			t.Fatalf("FindBy: %v", err)
		}
		if len(got) != 2 || got[0].ID != a.ID || got[1].ID != b.ID {
			t.Errorf("expected [%s %s], got %+v", a.ID, b.ID, got)
		}

		none, err := backend.Dishes().FindBy(ctx, "menu_id", caps.AbsentID)
		if err != nil || len(none) != 0 {
			t.Errorf("expected no dishes for an absent menu, got %+v err=%v", none, err)
		}
	})

	t.Run("find all includes new records in order", func(t *testing.T) {
		_, restaurant, first := graph(t)
		second := mustInsert(t, ctx, backend.Menus(), model.Menu{Name: "Lunch", RestaurantID: restaurant.ID})

		all, err := backend.Menus().FindAll(ctx)
		if err != nil {
			t.Fatalf("FindAll: %v", err)
		}
		firstAt, secondAt := -1, -1
		for i, m := range all {
			switch m.ID {
			case first.ID:
				firstAt = i
			case second.ID:
				secondAt = i
			}
		}
		if firstAt < 0 || secondAt < 0 || firstAt > secondAt {
			t.Errorf("expected %s before %s in %+v", first.ID, second.ID, all)
		}
	})

	t.Run("patch merges only the given fields", func(t *testing.T) {
		_, _, menu := graph(t)
		dish := mustInsert(t, ctx, backend.Dishes(), model.Dish{
			Name: "Stew", Price: 8, Description: "Slow cooked", Category: "Mains", Available: true, MenuID: menu.ID,
		})

		got, err := backend.Dishes().Patch(ctx, dish.ID, map[string]any{"price": 9.5, "available": false})
		if err != nil {
			t.Fatalf("Patch: %v", err)
		}
		want := dish
		want.Price = 9.5
		want.Available = false
		if got == nil || *got != want {
			t.Errorf("expected %+v, got %+v", want, got)
		}

		same, err := backend.Dishes().Patch(ctx, dish.ID, map[string]any{})
		if err != nil || same == nil || *same != want {
			t.Errorf("empty patch: expected %+v, got %+v err=%v", want, same, err)
		}

		absent, err := backend.Dishes().Patch(ctx, caps.AbsentID, map[string]any{"price": 1.0})
		if err != nil || absent != nil {
			t.Errorf("absent patch: expected nil, got %+v err=%v", absent, err)
		}
	})

	t.Run("patch moves a record to another parent", func(t *testing.T) {
		_, _, from := graph(t)
		_, _, to := graph(t)
		dish := mustInsert(t, ctx, backend.Dishes(), model.Dish{Name: "Pie", Price: 3, MenuID: from.ID})

		if _, err := backend.Dishes().Patch(ctx, dish.ID, map[string]any{"menu_id": to.ID}); err != nil {
			t.Fatalf("Patch: %v", err)
		}
		moved, err := backend.Dishes().FindBy(ctx, "menu_id", to.ID)
		if err != nil || len(moved) != 1 || moved[0].ID != dish.ID {
			t.Errorf("expected the dish under the new menu, got %+v err=%v", moved, err)
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		_, _, menu := graph(t)
		dish := mustInsert(t, ctx, backend.Dishes(), model.Dish{Name: "Tart", Price: 5, MenuID: menu.ID})

		for i := 0; i < 2; i++ {
			if err := backend.Dishes().Delete(ctx, dish.ID); err != nil {
				t.Fatalf("Delete %d: %v", i, err)
			}
		}
		got, err := backend.Dishes().FindByID(ctx, dish.ID)
		if err != nil || got != nil {
			t.Errorf("expected nil after delete, got %+v err=%v", got, err)
		}
	})

	t.Run("orders and reservations keep times and optional refs", func(t *testing.T) {
		admin, restaurant, _ := graph(t)
		at := time.Date(2024, 7, 14, 19, 30, 0, 0, time.UTC)

		reservation := mustInsert(t, ctx, backend.Reservations(), model.Reservation{
			CustomerID: admin.ID, RestaurantID: restaurant.ID, Datetime: at, PartySize: 3, Status: model.ReservationPending,
		})
		order := mustInsert(t, ctx, backend.Orders(), model.Order{
			CustomerID: admin.ID, RestaurantID: restaurant.ID, ReservationID: &reservation.ID,
			CreatedAt: at, Status: model.OrderPending,
		})
		walkIn := mustInsert(t, ctx, backend.Orders(), model.Order{
			CustomerID: admin.ID, RestaurantID: restaurant.ID, CreatedAt: at, Status: model.OrderPending,
		})

		got, err := backend.Orders().FindByID(ctx, order.ID)
		if err != nil || got == nil {
			t.Fatalf("FindByID order: %+v err=%v", got, err)
		}
		if !got.CreatedAt.Equal(at) || got.ReservationID == nil || *got.ReservationID != reservation.ID {
			t.Errorf("unexpected order %+v", got)
		}

		got, err = backend.Orders().FindByID(ctx, walkIn.ID)
		if err != nil || got == nil || got.ReservationID != nil {
			t.Errorf("expected walk-in order without reservation, got %+v err=%v", got, err)
		}

		res, err := backend.Reservations().FindByID(ctx, reservation.ID)
		if err != nil || res == nil || !res.Datetime.Equal(at) || res.PartySize != 3 {
			t.Errorf("unexpected reservation %+v err=%v", res, err)
		}

		byCustomer, err := backend.Orders().FindBy(ctx, "customer_id", admin.ID)
		if err != nil || len(byCustomer) != 2 {
			t.Errorf("expected 2 orders for the customer, got %+v err=%v", byCustomer, err)
		}
	})

	t.Run("inserted times read back unchanged", func(t *testing.T) {
		admin, restaurant, _ := graph(t)
		now := time.Date(2024, 7, 14, 19, 30, 15, 987654321, time.UTC)

		order := mustInsert(t, ctx, backend.Orders(), model.NewOrder{
			CustomerID: admin.ID, RestaurantID: restaurant.ID,
		}.Build(now))
		got, err := backend.Orders().FindByID(ctx, order.ID)
		if err != nil || got == nil {
			t.Fatalf("FindByID order: %+v err=%v", got, err)
		}
		if !got.CreatedAt.Equal(order.CreatedAt) {
			t.Errorf("created_at: inserted %v, read %v", order.CreatedAt, got.CreatedAt)
		}

		reservation := mustInsert(t, ctx, backend.Reservations(), model.Reservation{
			CustomerID: admin.ID, RestaurantID: restaurant.ID, Datetime: now, PartySize: 2, Status: model.ReservationPending,
		})
		res, err := backend.Reservations().FindByID(ctx, reservation.ID)
		if err != nil || res == nil {
			t.Fatalf("FindByID reservation: %+v err=%v", res, err)
		}
		if !res.Datetime.Equal(reservation.Datetime) {
			t.Errorf("datetime: inserted %v, read %v", reservation.Datetime, res.Datetime)
		}

		at := now.Add(time.Hour)
		patched, err := backend.Reservations().Patch(ctx, reservation.ID, model.ReservationPatch{Datetime: &at}.Fields())
		if err != nil || patched == nil {
			t.Fatalf("Patch reservation: %+v err=%v", patched, err)
		}
		reread, err := backend.Reservations().FindByID(ctx, reservation.ID)
		if err != nil || reread == nil || !reread.Datetime.Equal(patched.Datetime) {
			t.Errorf("patched datetime: returned %v, read %+v err=%v", patched.Datetime, reread, err)
		}
	})

	if caps.UniqueEmail {
		t.Run("duplicate email is a constraint violation", func(t *testing.T) {
			admin, _, _ := graph(t)
			_, err := backend.Users().Insert(ctx, model.User{Name: "Copy", Email: admin.Email, Role: model.RoleCustomer})
			if !store.IsConstraintViolation(err) {
				t.Errorf("expected constraint violation, got %v", err)
			}
		})
	}

	if caps.References {
		t.Run("dangling reference is a constraint violation", func(t *testing.T) {
			_, err := backend.Dishes().Insert(ctx, model.Dish{Name: "Orphan", Price: 1, MenuID: caps.AbsentID})
			if !store.IsConstraintViolation(err) {
				t.Errorf("insert: expected constraint violation, got %v", err)
			}

			_, _, menu := graph(t)
			dish := mustInsert(t, ctx, backend.Dishes(), model.Dish{Name: "Kept", Price: 1, MenuID: menu.ID})
			_, err = backend.Dishes().Patch(ctx, dish.ID, map[string]any{"menu_id": caps.AbsentID})
			if !store.IsConstraintViolation(err) {
				t.Errorf("patch: expected constraint violation, got %v", err)
			}
		})
	}
}
