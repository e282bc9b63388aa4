package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/goliatone/go-restaurant-api/model"
	"github.com/goliatone/go-restaurant-api/store"
)

var _ store.Collection[model.Menu] = (*collection[model.Menu, menuDoc])(nil)

// collection implements store.Collection over one MongoDB collection. Documents
// are decoded into D and flattened to T before leaving the package.
type collection[T model.Entity, D any] struct {
	db      *mongo.Database
	coll    *mongo.Collection
	timeout time.Duration

	// refs maps reference fields to the collection they point into.
	refs      map[string]string
	checkRefs bool
	refsOf    func(T) map[string]string

	toDoc   func(T, primitive.ObjectID) D
	fromDoc func(D) T
}

func (c *collection[T, D]) Insert(ctx context.Context, rec T) (T, error) {
	var zero T

	ctx, cancel := c.bound(ctx)
	defer cancel()

	if err := c.verifyRefs(ctx, c.refsOf(rec)); err != nil {
		return zero, err
	}

	doc := c.toDoc(rec, primitive.NewObjectID())
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return zero, classify(err)
	}
	return c.fromDoc(doc), nil
}

func (c *collection[T, D]) FindByID(ctx context.Context, id string) (*T, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	ctx, cancel := c.bound(ctx)
	defer cancel()

	var doc D
	err = c.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	rec := c.fromDoc(doc)
	return &rec, nil
}

func (c *collection[T, D]) FindBy(ctx context.Context, field, value string) ([]T, error) {
	return c.find(ctx, bson.M{field: value})
}

func (c *collection[T, D]) FindAll(ctx context.Context) ([]T, error) {
	return c.find(ctx, bson.M{})
}

// Patch applies $set with the given fields only, so absent fields keep their
// stored values exactly as in the relational backend.
func (c *collection[T, D]) Patch(ctx context.Context, id string, fields map[string]any) (*T, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	if len(fields) == 0 {
		return c.FindByID(ctx, id)
	}

	ctx, cancel := c.bound(ctx)
	defer cancel()

	refs := make(map[string]string)
	set := bson.M{}
	for name, value := range fields {
		if _, isRef := c.refs[name]; isRef {
			s, _ := value.(string)
			refs[name] = s
		}
		set[name] = value
	}
	if err := c.verifyRefs(ctx, refs); err != nil {
		return nil, err
	}

	var doc D
	err = c.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	rec := c.fromDoc(doc)
	return &rec, nil
}

func (c *collection[T, D]) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}

	ctx, cancel := c.bound(ctx)
	defer cancel()

	if _, err := c.coll.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return classify(err)
	}
	return nil
}

func (c *collection[T, D]) find(ctx context.Context, filter bson.M) ([]T, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	cur, err := c.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, classify(err)
	}

	var docs []D
	if err := cur.All(ctx, &docs); err != nil {
		return nil, classify(err)
	}

	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		out = append(out, c.fromDoc(doc))
	}
	return out, nil
}

// verifyRefs checks that every referenced document exists. MongoDB has no
// foreign keys, so this is the document backend's counterpart of the relational
// REFERENCES clauses. It is not atomic with the write that follows.
func (c *collection[T, D]) verifyRefs(ctx context.Context, values map[string]string) error {
	if !c.checkRefs {
		return nil
	}
	for field, id := range values {
		target, ok := c.refs[field]
		if !ok {
			continue
		}
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return store.NewConstraintViolation(fmt.Errorf("%s: malformed reference %q", field, id))
		}
		n, err := c.db.Collection(target).CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
		if err != nil {
			return classify(err)
		}
		if n == 0 {
			return store.NewConstraintViolation(fmt.Errorf("%s: %s %q does not exist", field, target, id))
		}
	}
	return nil
}

func (c *collection[T, D]) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func classify(err error) error {
	if err == nil || store.IsClassified(err) {
		return err
	}
	if mongo.IsDuplicateKeyError(err) {
		return store.NewConstraintViolation(err)
	}
	return store.NewUnavailable(store.BackendDocument, err)
}
