// Package memstore is a process-local store backend for development and
// tests.
package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookshelf/internal/model"
	"bookshelf/internal/store"
)

// Store keeps everything in process memory. Each method holds the lock
// for its whole duration, which gives the same per-document atomicity the
// database backends provide. Data is lost on restart.
type Store struct {
	mu     sync.Mutex
	users  map[string]model.User
	books  map[string]model.Book
	orders map[string]model.Order
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:  map[string]model.User{},
		books:  map[string]model.Book{},
		orders: map[string]model.Order{},
	}
}

func (m *Store) Close(context.Context) error { return nil }

func (m *Store) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email || existing.UserID == u.UserID {
			return store.ErrDuplicate
		}
	}
	u.ID = uuid.NewString()
	m.users[u.ID] = *u
	return nil
}

func (m *Store) findUser(match func(model.User) bool) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Store) UserByEmail(_ context.Context, email string) (*model.User, error) {
	return m.findUser(func(u model.User) bool { return u.Email == email })
}

func (m *Store) UserByUserID(_ context.Context, userID string) (*model.User, error) {
	return m.findUser(func(u model.User) bool { return u.UserID == userID })
}

func (m *Store) ListUsers(context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.User{}
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateCreated.Before(out[j].DateCreated) })
	return out, nil
}

func (m *Store) SetAdmin(_ context.Context, userID string, isAdmin bool) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.users {
		if u.UserID == userID {
			u.IsAdmin = isAdmin
			m.users[id] = u
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Store) CreateBook(_ context.Context, b *model.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[b.BookID]; ok {
		return store.ErrDuplicate
	}
	b.ID = uuid.NewString()
	m.books[b.BookID] = *b
	return nil
}

func (m *Store) BookByBookID(_ context.Context, bookID string) (*model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[bookID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

func (m *Store) ListBooks(context.Context) ([]model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Book{}
	for _, b := range m.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateCreated.After(out[j].DateCreated) })
	return out, nil
}

func (m *Store) SetBookAvailability(_ context.Context, bookID string, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[bookID]
	if !ok {
		return store.ErrNotFound
	}
	b.IsAvailable = available
	m.books[bookID] = b
	return nil
}

func (m *Store) CreateOrder(_ context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = uuid.NewString()
	m.orders[o.ID] = *o
	return nil
}

func (m *Store) sortedOrders(match func(model.Order) bool) []model.Order {
	out := []model.Order{}
	for _, o := range m.orders {
		if match(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateCreated.Before(out[j].DateCreated) })
	return out
}

func (m *Store) OrdersByUser(_ context.Context, userID string) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mine := m.sortedOrders(func(o model.Order) bool { return o.UserID == userID })
	slices.Reverse(mine)
	return mine, nil
}

func (m *Store) ListOrders(_ context.Context, page model.Page) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sortedOrders(func(model.Order) bool { return true })
	if page.Skip >= len(all) {
		return []model.Order{}, nil
	}
	all = all[page.Skip:]
	if len(all) > page.Limit {
		all = all[:page.Limit]
	}
	return all, nil
}

func (m *Store) updateOrder(id string, match func(model.Order) bool, set func(*model.Order)) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || !match(o) {
		return nil, store.ErrNotFound
	}
	set(&o)
	m.orders[id] = o
	return &o, nil
}

func (m *Store) CancelOrder(_ context.Context, id, userID string) (*model.Order, error) {
	return m.updateOrder(id,
		func(o model.Order) bool { return o.UserID == userID && !o.IsAccepted },
		func(o *model.Order) { o.IsCancelled = true })
}

func (m *Store) AcceptOrder(_ context.Context, id string) (*model.Order, error) {
	return m.updateOrder(id,
		func(o model.Order) bool { return o.Pending() },
		func(o *model.Order) { o.IsAccepted = true })
}

func (m *Store) DeleteOrder(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return 0, nil
	}
	delete(m.orders, id)
	return 1, nil
}

func (m *Store) OverdueOrders(_ context.Context, from, to time.Time, afterID string, limit int) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	due := m.sortedOrders(func(o model.Order) bool {
		if !o.IsAccepted || !o.Until.Before(to) {
			return false
		}
		return o.Until.After(from) || (o.Until.Equal(from) && o.ID > afterID)
	})
	sort.Slice(due, func(i, j int) bool {
		if !due[i].Until.Equal(due[j].Until) {
			return due[i].Until.Before(due[j].Until)
		}
		return due[i].ID < due[j].ID
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}
