package service

import (
	"context"
	"errors"

	"bookshelf/internal/notify"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Notifier sends an email of the given kind. Implementations must not
// block the caller on delivery and report failures only through logs.
type Notifier interface {
	Notify(ctx context.Context, to string, kind notify.Kind, data map[string]any)
}
