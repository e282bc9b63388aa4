package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/goliatone/go-restaurant-api/config"
	"github.com/goliatone/go-restaurant-api/model"
	"github.com/goliatone/go-restaurant-api/pkg/di"
	"github.com/goliatone/go-restaurant-api/pkg/testsupport"
	"github.com/goliatone/go-restaurant-api/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

type server struct {
	router  *gin.Engine
	backend *testsupport.MemoryBackend
	ds      testsupport.Dataset
}

func newServer(t *testing.T, mutate ...func(*Dependencies)) *server {
	t.Helper()

	backend := testsupport.NewMemoryBackend()
	ds := testsupport.Seed(t, backend)

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	container, err := di.NewContainer(context.Background(), config.Default(),
		di.WithBackend(backend),
		di.WithLogger(quiet),
	)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	deps := FromContainer(container)
	for _, fn := range mutate {
		fn(&deps)
	}
	return &server{router: NewRouter(deps), backend: backend, ds: ds}
}

func (s *server) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return out
}

func TestGetByID(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"dish", "/dishes/" + s.ds.Dishes[0].ID, http.StatusOK},
		{"menu", "/menus/" + s.ds.Menu.ID, http.StatusOK},
		{"restaurant", "/restaurants/" + s.ds.Restaurant.ID, http.StatusOK},
		{"user", "/users/" + s.ds.Customer.ID, http.StatusOK},
		{"absent dish", "/dishes/404", http.StatusNotFound},
		{"absent order", "/orders/404", http.StatusNotFound},
		{"absent reservation", "/reservations/404", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodGet, tt.path, nil)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			want := StatusSuccess
			if tt.status != http.StatusOK {
				want = StatusError
			}
			if env.Status != want {
				t.Errorf("expected envelope status %q, got %q", want, env.Status)
			}
		})
	}
}

func TestGetDish_ServedFromCacheOnSecondRead(t *testing.T) {
	s := newServer(t)
	path := "/dishes/" + s.ds.Dishes[0].ID

	for i := 0; i < 3; i++ {
		rec, env := s.do(t, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("read %d: expected 200, got %d", i, rec.Code)
		}
		if dish := decode[model.Dish](t, env); dish.Name != "Margherita" {
			t.Fatalf("read %d: unexpected dish %+v", i, dish)
		}
	}

	if calls := s.backend.DishStore().Calls(testsupport.CallFindByID); calls != 1 {
		t.Errorf("expected one store read, got %d", calls)
	}
}

func TestCreateUser(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"valid", model.NewUser{Name: "Eve", Email: "eve@example.com", Role: model.RoleCustomer}, http.StatusCreated, ""},
		{"missing email", model.NewUser{Name: "Eve", Role: model.RoleCustomer}, http.StatusBadRequest, store.TextCodeValidation},
		{"unknown role", model.NewUser{Name: "Eve", Email: "eve@example.com", Role: "chef"}, http.StatusBadRequest, store.TextCodeValidation},
		{"malformed body", `{"name":`, http.StatusBadRequest, store.TextCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodPost, "/users", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if env.Code != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, env.Code)
			}
			if tt.status == http.StatusCreated {
				user := decode[model.User](t, env)
				if user.ID == "" || user.Email != "eve@example.com" {
					t.Errorf("unexpected user %+v", user)
				}
			}
		})
	}
}

func TestUpdateDish_MergesFields(t *testing.T) {
	s := newServer(t)
	path := "/dishes/" + s.ds.Dishes[0].ID

	// Warm the cache so the update has something to invalidate.
	s.do(t, http.MethodGet, path, nil)

	rec, env := s.do(t, http.MethodPut, path, map[string]any{"price": 12.5})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decode[model.Dish](t, env)
	if updated.Price != 12.5 || updated.Category != "Pizza" || updated.Name != "Margherita" {
		t.Errorf("expected merged dish, got %+v", updated)
	}

	_, env = s.do(t, http.MethodGet, path, nil)
	if got := decode[model.Dish](t, env); got.Price != 12.5 {
		t.Errorf("expected fresh read after update, got %+v", got)
	}

	rec, _ = s.do(t, http.MethodPut, "/dishes/404", map[string]any{"price": 1})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for absent dish, got %d", rec.Code)
	}

	rec, _ = s.do(t, http.MethodPut, path, map[string]any{"price": -1})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative price, got %d", rec.Code)
	}
}

func TestDeleteDish(t *testing.T) {
	s := newServer(t)
	path := "/dishes/" + s.ds.Dishes[1].ID

	if rec, _ := s.do(t, http.MethodGet, path, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 before delete, got %d", rec.Code)
	}
	if rec, _ := s.do(t, http.MethodDelete, path, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", rec.Code)
	}
	if rec, _ := s.do(t, http.MethodGet, path, nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
	if rec, _ := s.do(t, http.MethodDelete, path, nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 deleting an absent dish, got %d", rec.Code)
	}

	_, env := s.do(t, http.MethodGet, "/menus/"+s.ds.Menu.ID+"/dishes", nil)
	if dishes := decode[[]model.Dish](t, env); len(dishes) != 1 {
		t.Errorf("expected 1 dish left on the menu, got %d", len(dishes))
	}
}

func TestNestedRoutes(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name   string
		path   string
		status int
		count  int
	}{
		{"menu dishes", "/menus/" + s.ds.Menu.ID + "/dishes", http.StatusOK, 2},
		{"restaurant menus", "/restaurants/" + s.ds.Restaurant.ID + "/menus", http.StatusOK, 1},
		{"administrator restaurants", "/users/" + s.ds.Administrator.ID + "/restaurants", http.StatusOK, 1},
		{"customer orders", "/users/" + s.ds.Customer.ID + "/orders", http.StatusOK, 0},
		{"restaurant reservations", "/restaurants/" + s.ds.Restaurant.ID + "/reservations", http.StatusOK, 0},
		{"absent menu", "/menus/404/dishes", http.StatusNotFound, 0},
		{"absent restaurant", "/restaurants/404/orders", http.StatusNotFound, 0},
		{"absent user", "/users/404/reservations", http.StatusNotFound, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodGet, tt.path, nil)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			if got := decode[[]json.RawMessage](t, env); len(got) != tt.count {
				t.Errorf("expected %d items, got %d", tt.count, len(got))
			}
		})
	}
}

func TestCreateDishUnderMenu(t *testing.T) {
	s := newServer(t)

	rec, env := s.do(t, http.MethodPost, "/menus/"+s.ds.Menu.ID+"/dishes", map[string]any{
		"name":  "Focaccia",
		"price": 4,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	dish := decode[model.Dish](t, env)
	if dish.MenuID != s.ds.Menu.ID {
		t.Errorf("expected menu id from the path, got %q", dish.MenuID)
	}
	if dish.Description != model.DefaultDishDescription || dish.Category != model.DefaultDishCategory || !dish.Available {
		t.Errorf("expected dish defaults, got %+v", dish)
	}

	rec, _ = s.do(t, http.MethodPost, "/menus/404/dishes", map[string]any{"name": "Ghost", "price": 1})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for an absent menu, got %d", rec.Code)
	}
	if n := s.backend.DishStore().Len(); n != 3 {
		t.Errorf("expected 3 stored dishes, got %d", n)
	}
}

func TestOrderStatusUpdate(t *testing.T) {
	s := newServer(t)

	rec, env := s.do(t, http.MethodPost, "/orders", map[string]any{
		"customer_id":   s.ds.Customer.ID,
		"restaurant_id": s.ds.Restaurant.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	order := decode[model.Order](t, env)
	if order.Status != model.OrderPending {
		t.Fatalf("expected pending order, got %q", order.Status)
	}
	path := "/orders/" + order.ID

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"valid status", map[string]any{"status": "preparing"}, http.StatusOK},
		{"missing status", map[string]any{}, http.StatusBadRequest},
		{"unknown status", map[string]any{"status": "shipped"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := s.do(t, http.MethodPut, path, tt.body)
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}

	_, env = s.do(t, http.MethodGet, "/users/"+s.ds.Customer.ID+"/orders", nil)
	orders := decode[[]model.Order](t, env)
	if len(orders) != 1 || orders[0].Status != model.OrderPreparing {
		t.Errorf("expected one preparing order, got %+v", orders)
	}
}

func TestReservationListsByOwner(t *testing.T) {
	s := newServer(t)

	rec, env := s.do(t, http.MethodPost, "/reservations", map[string]any{
		"customer_id":   s.ds.Customer.ID,
		"restaurant_id": s.ds.Restaurant.ID,
		"datetime":      "2024-06-01T20:00:00Z",
		"party_size":    4,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	reservation := decode[model.Reservation](t, env)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"by customer", "/reservations/user/" + s.ds.Customer.ID, http.StatusOK},
		{"by restaurant", "/reservations/restaurant/" + s.ds.Restaurant.ID, http.StatusOK},
		{"absent customer", "/reservations/user/404", http.StatusNotFound},
		{"absent restaurant", "/reservations/restaurant/404", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodGet, tt.path, nil)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			got := decode[[]model.Reservation](t, env)
			if len(got) != 1 || got[0].ID != reservation.ID {
				t.Errorf("expected [%s], got %+v", reservation.ID, got)
			}
		})
	}

	if rec, _ := s.do(t, http.MethodGet, "/reservations/"+reservation.ID, nil); rec.Code != http.StatusOK {
		t.Errorf("expected the detail route to keep working, got %d", rec.Code)
	}
}

func TestReservationDeleteCancels(t *testing.T) {
	s := newServer(t)

	rec, env := s.do(t, http.MethodPost, "/reservations", map[string]any{
		"customer_id":   s.ds.Customer.ID,
		"restaurant_id": s.ds.Restaurant.ID,
		"datetime":      "2024-06-01T20:00:00Z",
		"party_size":    2,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	reservation := decode[model.Reservation](t, env)
	path := "/reservations/" + reservation.ID

	rec, env = s.do(t, http.MethodDelete, path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decode[model.Reservation](t, env); got.Status != model.ReservationCancelled {
		t.Errorf("expected cancelled, got %q", got.Status)
	}

	rec, env = s.do(t, http.MethodGet, path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected the cancelled reservation to remain, got %d", rec.Code)
	}
	if got := decode[model.Reservation](t, env); got.Status != model.ReservationCancelled {
		t.Errorf("expected cancelled on read, got %q", got.Status)
	}

	if rec, _ := s.do(t, http.MethodDelete, "/reservations/404", nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 cancelling an absent reservation, got %d", rec.Code)
	}
}

func TestStoreUnavailable(t *testing.T) {
	s := newServer(t)
	s.backend.MenuStore().FailWith(store.NewUnavailable("memory", errors.New("connection refused")))

	rec, env := s.do(t, http.MethodGet, "/menus/"+s.ds.Menu.ID, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if env.Code != store.TextCodeUnavailable {
		t.Errorf("expected code %q, got %q", store.TextCodeUnavailable, env.Code)
	}
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		s := newServer(t)
		s.do(t, http.MethodGet, "/dishes/"+s.ds.Dishes[0].ID, nil)
		s.do(t, http.MethodGet, "/dishes/"+s.ds.Dishes[0].ID, nil)

		rec, env := s.do(t, http.MethodGet, "/healthz", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		health := decode[Health](t, env)
		if health.Backend != "memory" || health.Store != "ok" || health.Cache.Status != "ok" {
			t.Errorf("unexpected health %+v", health)
		}
		if health.Cache.Hits != 1 || health.Cache.Misses != 1 {
			t.Errorf("expected 1 hit and 1 miss, got %+v", health.Cache)
		}
	})

	t.Run("store down", func(t *testing.T) {
		s := newServer(t)
		s.backend.FailPing(errors.New("dial tcp: connection refused"))

		rec, env := s.do(t, http.MethodGet, "/healthz", nil)
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
		if env.Status != StatusError {
			t.Errorf("expected error status, got %q", env.Status)
		}
	})
}

func TestRequestID(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if got := rec.Header().Get(HeaderRequestID); got != "abc-123" {
		t.Errorf("expected the caller's request id, got %q", got)
	}

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if got := rec.Header().Get(HeaderRequestID); len(got) != 36 {
		t.Errorf("expected a generated uuid, got %q", got)
	}
}

func TestCORS(t *testing.T) {
	s := newServer(t, func(d *Dependencies) {
		d.AllowedOrigins = []string{"http://localhost:3000"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/dishes", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("expected allowed origin, got %q", got)
	}
}
