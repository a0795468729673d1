// Package mongostore keeps users, books and orders in MongoDB, one
// collection each, using the camelCase field names of the JSON API.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bookshelf/internal/store"
)

type Store struct {
	db     *mongo.Database
	users  *mongo.Collection
	books  *mongo.Collection
	orders *mongo.Collection
}

var _ store.Store = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{
		db:     db,
		users:  db.Collection("users"),
		books:  db.Collection("books"),
		orders: db.Collection("orders"),
	}
}

// EnsureIndexes creates the unique indexes the application identifiers rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := []struct {
		coll *mongo.Collection
		keys bson.D
		opts *options.IndexOptions
	}{
		{s.users, bson.D{{Key: "email", Value: 1}}, unique},
		{s.users, bson.D{{Key: "userID", Value: 1}}, unique},
		{s.books, bson.D{{Key: "bookID", Value: 1}}, unique},
		{s.orders, bson.D{{Key: "userId", Value: 1}}, nil},
		{s.orders, bson.D{{Key: "isAccepted", Value: 1}, {Key: "until", Value: 1}}, nil},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: idx.keys, Options: idx.opts}); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

func mapErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	return err
}

func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

func objectIDHex(v any) string {
	if oid, ok := v.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(v)
}

func afterUpdate() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}
