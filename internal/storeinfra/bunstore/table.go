package bunstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-restaurant-api/model"
	"github.com/goliatone/go-restaurant-api/store"
)

var _ store.Collection[model.Dish] = (*table[model.Dish, dishRow])(nil)

// table implements store.Collection for one bun model. T is the model type seen
// by repositories, R the row type scanned by bun. Inserts, reads and deletes go
// through a go-repository-bun repository; patches are column limited updates.
type table[T model.Entity, R any] struct {
	db      bun.IDB
	rows    repository.Repository[*R]
	timeout time.Duration
	refs    map[string]struct{}
	toRow   func(T) (*R, error)
	fromRow func(*R) T
}

func newTable[T model.Entity, R any](db *bun.DB, timeout time.Duration, toRow func(T) (*R, error), fromRow func(*R) T, refs ...string) *table[T, R] {
	t := &table[T, R]{
		db:      db,
		rows:    repository.NewRepository[*R](db, rowHandlers[R]()),
		timeout: timeout,
		refs:    make(map[string]struct{}, len(refs)),
		toRow:   toRow,
		fromRow: fromRow,
	}
	for _, ref := range refs {
		t.refs[ref] = struct{}{}
	}
	return t
}

// rowHandlers describes R to go-repository-bun. Rows are keyed by database
// assigned integers, so there is no UUID to read or assign.
func rowHandlers[R any]() repository.ModelHandlers[*R] {
	return repository.ModelHandlers[*R]{
		NewRecord:     func() *R { return new(R) },
		GetID:         func(*R) uuid.UUID { return uuid.Nil },
		SetID:         func(*R, uuid.UUID) {},
		GetIdentifier: func() string { return "id" },
	}
}

func (t *table[T, R]) Insert(ctx context.Context, rec T) (T, error) {
	var zero T
	row, err := t.toRow(rec)
	if err != nil {
		return zero, err
	}

	ctx, cancel := t.bound(ctx)
	defer cancel()

	created, err := t.rows.Create(ctx, row)
	if err != nil {
		return zero, classify(err)
	}
	return t.fromRow(created), nil
}

func (t *table[T, R]) FindByID(ctx context.Context, id string) (*T, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	recs, err := t.list(ctx, whereEq("id", n), limit(1))
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

func (t *table[T, R]) FindBy(ctx context.Context, field, value string) ([]T, error) {
	var arg any = value
	if _, isRef := t.refs[field]; isRef {
		n, ok := parseID(value)
		if !ok {
			return []T{}, nil
		}
		arg = n
	}
	return t.list(ctx, whereEq(field, arg), byID)
}

func (t *table[T, R]) FindAll(ctx context.Context) ([]T, error) {
	return t.list(ctx, byID)
}

func (t *table[T, R]) list(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()

	rows, _, err := t.rows.List(ctx, criteria...)
	if err != nil {
		return nil, classify(err)
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		out = append(out, t.fromRow(row))
	}
	return out, nil
}

func whereEq(field string, value any) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("? = ?", bun.Ident(field), value)
	}
}

func limit(n int) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Limit(n)
	}
}

func byID(q *bun.SelectQuery) *bun.SelectQuery {
	return q.OrderExpr("id ASC")
}

// Patch updates only the columns present in fields. The row is read back after
// the update, so the returned record reflects whatever committed last.
func (t *table[T, R]) Patch(ctx context.Context, id string, fields map[string]any) (*T, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, nil
	}
	if len(fields) == 0 {
		return t.FindByID(ctx, id)
	}

	values, err := t.columns(fields)
	if err != nil {
		return nil, err
	}

	q := t.db.NewUpdate().Model((*R)(nil)).Where("id = ?", n)
	for _, name := range sortedKeys(values) {
		q = q.Set("? = ?", bun.Ident(name), values[name])
	}

	execCtx, cancel := t.bound(ctx)
	res, err := q.Exec(execCtx)
	cancel()
	if err != nil {
		return nil, classify(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, classify(err)
	}
	if affected == 0 {
		return nil, nil
	}
	return t.FindByID(ctx, id)
}

func (t *table[T, R]) Delete(ctx context.Context, id string) error {
	n, ok := parseID(id)
	if !ok {
		return nil
	}

	ctx, cancel := t.bound(ctx)
	defer cancel()

	err := t.rows.DeleteWhere(ctx, func(q *bun.DeleteQuery) *bun.DeleteQuery {
		return q.Where("id = ?", n)
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// columns converts reference ids to their numeric form.
func (t *table[T, R]) columns(fields map[string]any) (map[string]any, error) {
	values := make(map[string]any, len(fields))
	for name, value := range fields {
		if _, isRef := t.refs[name]; isRef {
			s, _ := value.(string)
			n, err := parseRef(name, s)
			if err != nil {
				return nil, err
			}
			value = n
		}
		values[name] = value
	}
	return values, nil
}

func (t *table[T, R]) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, t.timeout)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
