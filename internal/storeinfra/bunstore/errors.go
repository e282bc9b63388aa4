package bunstore

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/goliatone/go-restaurant-api/store"
)

// integrityClass is the SQLSTATE class for integrity constraint violations.
const integrityClass = "23"

// classify maps a driver error onto the store taxonomy. Constraint failures keep
// the backend's message; anything else means the store could not serve the call.
func classify(err error) error {
	if err == nil || store.IsClassified(err) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == integrityClass {
		return store.NewConstraintViolation(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, integrityClass) {
		return store.NewConstraintViolation(err)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.Code == sqlite3.ErrConstraint {
		return store.NewConstraintViolation(err)
	}

	return store.NewUnavailable(store.BackendRelational, err)
}
