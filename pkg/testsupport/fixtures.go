package testsupport

import (
	"context"
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-restaurant-api/model"
	"github.com/goliatone/go-restaurant-api/store"
)

// TempFile creates a temporary file with the given content and name pattern.
// It is removed when the test ends.
func TempFile(t *testing.T, pattern string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), pattern)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write temp file %s: %v", path, err)
	}
	return path
}

//go:embed testdata/seed.json
var seedJSON []byte

type seedFile struct {
	Administrator model.NewUser       `json:"administrator"`
	Customer      model.NewUser       `json:"customer"`
	Restaurant    model.NewRestaurant `json:"restaurant"`
	Menu          model.NewMenu       `json:"menu"`
	Dishes        []model.NewDish     `json:"dishes"`
}

// Dataset is the graph created by Seed.
type Dataset struct {
	Administrator model.User
	Customer      model.User
	Restaurant    model.Restaurant
	Menu          model.Menu
	Dishes        []model.Dish
}

// Seed inserts one administrator, one customer, a restaurant owned by the
// administrator, one menu and its dishes straight into backend.
func Seed(t *testing.T, backend store.Backend) Dataset {
	t.Helper()

	var in seedFile
	if err := json.Unmarshal(seedJSON, &in); err != nil {
		t.Fatalf("failed to decode seed fixture: %v", err)
	}

	ctx := context.Background()
	now := time.Now()
	var ds Dataset

	ds.Administrator = mustInsert(t, ctx, backend.Users(), in.Administrator.Build(now))
	ds.Customer = mustInsert(t, ctx, backend.Users(), in.Customer.Build(now))

	in.Restaurant.AdministratorID = ds.Administrator.ID
	ds.Restaurant = mustInsert(t, ctx, backend.Restaurants(), in.Restaurant.Build(now))

	in.Menu.RestaurantID = ds.Restaurant.ID
	ds.Menu = mustInsert(t, ctx, backend.Menus(), in.Menu.Build(now))

	for _, d := range in.Dishes {
		d.MenuID = ds.Menu.ID
		ds.Dishes = append(ds.Dishes, mustInsert(t, ctx, backend.Dishes(), d.Build(now)))
	}
	return ds
}

func mustInsert[T model.Entity](t *testing.T, ctx context.Context, coll store.Collection[T], rec T) T {
	t.Helper()

	out, err := coll.Insert(ctx, rec)
	if err != nil {
		t.Fatalf("seed insert %T: %v", rec, err)
	}
	return out
}
