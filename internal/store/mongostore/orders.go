package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bookshelf/internal/model"
	"bookshelf/internal/store"
)

func (s *Store) CreateOrder(ctx context.Context, o *model.Order) error {
	doc := orderDoc{
		UserID:      o.UserID,
		BookID:      o.BookID,
		IsCancelled: o.IsCancelled,
		IsAccepted:  o.IsAccepted,
		Until:       o.Until,
		DateCreated: o.DateCreated,
	}
	res, err := s.orders.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert order: %w", mapErr(err))
	}
	o.ID = objectIDHex(res.InsertedID)
	return nil
}

func (s *Store) findOrders(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.Order, error) {
	cur, err := s.orders.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}

	orders := make([]model.Order, 0, len(docs))
	for _, d := range docs {
		orders = append(orders, d.model())
	}
	return orders, nil
}

func (s *Store) OrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	return s.findOrders(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "dateCreated", Value: -1}}))
}

func (s *Store) ListOrders(ctx context.Context, page model.Page) ([]model.Order, error) {
	return s.findOrders(ctx, bson.M{},
		options.Find().
			SetSort(bson.D{{Key: "dateCreated", Value: 1}}).
			SetSkip(int64(page.Skip)).
			SetLimit(int64(page.Limit)))
}

func (s *Store) updateOrder(ctx context.Context, filter, set bson.M) (*model.Order, error) {
	var doc orderDoc
	err := s.orders.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, afterUpdate()).Decode(&doc)
	if err != nil {
		return nil, mapErr(err)
	}
	o := doc.model()
	return &o, nil
}

func (s *Store) CancelOrder(ctx context.Context, id, userID string) (*model.Order, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, fmt.Errorf("cancel order: %w", store.ErrNotFound)
	}
	o, err := s.updateOrder(ctx,
		bson.M{"_id": oid, "userId": userID, "isAccepted": false},
		bson.M{"isCancelled": true},
	)
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	return o, nil
}

func (s *Store) AcceptOrder(ctx context.Context, id string) (*model.Order, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, fmt.Errorf("accept order: %w", store.ErrNotFound)
	}
	o, err := s.updateOrder(ctx,
		bson.M{"_id": oid, "isCancelled": false, "isAccepted": false},
		bson.M{"isAccepted": true},
	)
	if err != nil {
		return nil, fmt.Errorf("accept order: %w", err)
	}
	return o, nil
}

func (s *Store) DeleteOrder(ctx context.Context, id string) (int64, error) {
	oid, ok := objectID(id)
	if !ok {
		return 0, nil
	}
	res, err := s.orders.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, fmt.Errorf("delete order: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *Store) OverdueOrders(ctx context.Context, from, to time.Time, afterID string, limit int) ([]model.Order, error) {
	filter := bson.M{"isAccepted": true, "until": bson.M{"$gte": from, "$lt": to}}
	if afterID != "" {
		oid, ok := objectID(afterID)
		if !ok {
			return nil, fmt.Errorf("query overdue orders: invalid cursor %q", afterID)
		}
		filter = bson.M{
			"isAccepted": true,
			"until":      bson.M{"$lt": to},
			"$or": bson.A{
				bson.M{"until": bson.M{"$gt": from}},
				bson.M{"until": from, "_id": bson.M{"$gt": oid}},
			},
		}
	}
	return s.findOrders(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "until", Value: 1}, {Key: "_id", Value: 1}}).
			SetLimit(int64(limit)))
}
