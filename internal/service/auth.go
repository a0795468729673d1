package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"bookshelf/internal/model"
	"bookshelf/internal/notify"
	"bookshelf/internal/shortid"
	"bookshelf/internal/store"
	"bookshelf/internal/token"
	"bookshelf/internal/validate"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthService struct {
	users     store.UserStore
	tokens    *token.Codec
	validator *validate.Validator
	notifier  Notifier
	newID     shortid.Generator
}

func NewAuthService(users store.UserStore, tokens *token.Codec, v *validate.Validator, n Notifier) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		validator: v,
		notifier:  n,
		newID:     shortid.New,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) userIDTaken(ctx context.Context, id string) (bool, error) {
	_, err := s.users.UserByUserID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Struct(in); err != nil {
		return nil, "", err
	}

	_, err := s.users.UserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, "", fmt.Errorf("email %s: %w", in.Email, ErrConflict)
	case !errors.Is(err, store.ErrNotFound):
		return nil, "", fmt.Errorf("check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	userID, err := shortid.Unique(ctx, s.newID, s.userIDTaken)
	if err != nil {
		return nil, "", err
	}

	user := &model.User{
		UserID:       userID,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		DateCreated:  time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, "", fmt.Errorf("email %s: %w", in.Email, ErrConflict)
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	tokenString, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, "", err
	}

	s.notifier.Notify(ctx, user.Email, notify.KindWelcome, map[string]any{
		"name":   user.Name,
		"userID": user.UserID,
	})

	return user, tokenString, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*model.User, string, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Struct(in); err != nil {
		return nil, "", err
	}

	user, err := s.users.UserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(in.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	tokenString, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, "", err
	}
	return user, tokenString, nil
}

// Resolve turns a bearer token into the user it was issued to. A token
// for an account that no longer exists is rejected like a forged one.
func (s *AuthService) Resolve(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	user, err := s.users.UserByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown account", ErrUnauthorized)
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return user, nil
}
