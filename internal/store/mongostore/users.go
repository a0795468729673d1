package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bookshelf/internal/model"
)

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	doc := userDoc{
		UserID:       u.UserID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		IsAdmin:      u.IsAdmin,
		DateCreated:  u.DateCreated,
	}
	res, err := s.users.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert user: %w", mapErr(err))
	}
	u.ID = objectIDHex(res.InsertedID)
	return nil
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapErr(err)
	}
	u := doc.model()
	return &u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := s.findUser(ctx, bson.M{"email": email})
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *Store) UserByUserID(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.findUser(ctx, bson.M{"userID": userID})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	cur, err := s.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "dateCreated", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]model.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.model())
	}
	return users, nil
}

func (s *Store) SetAdmin(ctx context.Context, userID string, isAdmin bool) (*model.User, error) {
	var doc userDoc
	err := s.users.FindOneAndUpdate(ctx,
		bson.M{"userID": userID},
		bson.M{"$set": bson.M{"isAdmin": isAdmin}},
		afterUpdate(),
	).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", mapErr(err))
	}
	u := doc.model()
	return &u, nil
}
