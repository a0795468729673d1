// Package store declares the persistence contracts shared by the
// Postgres, MongoDB and in-memory backends.
package store

import (
	"context"
	"errors"
	"time"

	"bookshelf/internal/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByUserID(ctx context.Context, userID string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	SetAdmin(ctx context.Context, userID string, isAdmin bool) (*model.User, error)
}

type BookStore interface {
	CreateBook(ctx context.Context, b *model.Book) error
	BookByBookID(ctx context.Context, bookID string) (*model.Book, error)
	ListBooks(ctx context.Context) ([]model.Book, error)
	SetBookAvailability(ctx context.Context, bookID string, available bool) error
}

// OrderStore updates are single-document match-and-set operations: the
// precondition is part of the match, so a lost race returns ErrNotFound.
type OrderStore interface {
	CreateOrder(ctx context.Context, o *model.Order) error
	OrdersByUser(ctx context.Context, userID string) ([]model.Order, error)
	ListOrders(ctx context.Context, page model.Page) ([]model.Order, error)
	// CancelOrder sets isCancelled on {id, userId, isAccepted: false}.
	CancelOrder(ctx context.Context, id, userID string) (*model.Order, error)
	// AcceptOrder sets isAccepted on {id, isCancelled: false, isAccepted: false}.
	AcceptOrder(ctx context.Context, id string) (*model.Order, error)
	DeleteOrder(ctx context.Context, id string) (int64, error)
	// OverdueOrders returns accepted orders whose deadline falls in
	// [from, to), ordered by (until, id). A non-empty afterID resumes
	// after the order (from, afterID), so from is then the deadline of
	// the last order already read.
	OverdueOrders(ctx context.Context, from, to time.Time, afterID string, limit int) ([]model.Order, error)
}

// Store bundles every collection a backend serves.
type Store interface {
	UserStore
	BookStore
	OrderStore
	Close(ctx context.Context) error
}
