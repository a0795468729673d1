package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bookshelf/internal/model"
	"bookshelf/internal/store"
)

type UserService struct {
	users store.UserStore
}

func NewUserService(users store.UserStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.users.ListUsers(ctx)
}

func (s *UserService) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.UserByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

// SetAdmin grants or revokes the admin role. Only an admin may do so.
func (s *UserService) SetAdmin(ctx context.Context, actor *model.User, userID string, isAdmin bool) (*model.User, error) {
	if actor == nil || !actor.IsAdmin {
		return nil, ErrForbidden
	}

	user, err := s.users.SetAdmin(ctx, userID, isAdmin)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, err
	}

	slog.Info("admin role changed", "user", userID, "isAdmin", isAdmin, "by", actor.UserID)
	return user, nil
}
