package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bookshelf/internal/model"
	"bookshelf/internal/store"
)

func (s *Store) CreateBook(ctx context.Context, b *model.Book) error {
	doc := bookDoc{
		BookID:      b.BookID,
		Name:        b.Name,
		Author:      b.Author,
		Image:       b.Image,
		Genre:       b.Genre,
		IsAvailable: b.IsAvailable,
		DateCreated: b.DateCreated,
	}
	res, err := s.books.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert book: %w", mapErr(err))
	}
	b.ID = objectIDHex(res.InsertedID)
	return nil
}

func (s *Store) BookByBookID(ctx context.Context, bookID string) (*model.Book, error) {
	var doc bookDoc
	if err := s.books.FindOne(ctx, bson.M{"bookID": bookID}).Decode(&doc); err != nil {
		return nil, fmt.Errorf("get book: %w", mapErr(err))
	}
	b := doc.model()
	return &b, nil
}

func (s *Store) ListBooks(ctx context.Context) ([]model.Book, error) {
	cur, err := s.books.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "dateCreated", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	var docs []bookDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}

	books := make([]model.Book, 0, len(docs))
	for _, d := range docs {
		books = append(books, d.model())
	}
	return books, nil
}

func (s *Store) SetBookAvailability(ctx context.Context, bookID string, available bool) error {
	res, err := s.books.UpdateOne(ctx,
		bson.M{"bookID": bookID},
		bson.M{"$set": bson.M{"isAvailable": available}},
	)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update book: %w", store.ErrNotFound)
	}
	return nil
}
