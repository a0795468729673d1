package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bookshelf/internal/model"
	"bookshelf/internal/notify"
	"bookshelf/internal/store"
	"bookshelf/internal/validate"
)

const dateLayout = "2006-01-02"

type CreateOrderInput struct {
	BookID string     `json:"bookId" validate:"required"`
	Until  *time.Time `json:"until"`
}

// CancelResult reports whether a cancel request changed anything. Order
// is nil when nothing matched.
type CancelResult struct {
	Cancelled bool         `json:"cancelled"`
	Order     *model.Order `json:"order"`
}

type RemoveResult struct {
	Deleted int64 `json:"deleted"`
}

// OrderService drives an order from pending to cancelled, or to accepted
// and then completed. State changes are conditional single-document
// updates; the Book and notification side effects of Accept follow the
// order update and are not atomic with it.
type OrderService struct {
	orders     store.OrderStore
	books      store.BookStore
	users      store.UserStore
	notifier   Notifier
	validator  *validate.Validator
	loanPeriod time.Duration
	now        func() time.Time
}

func NewOrderService(orders store.OrderStore, books store.BookStore, users store.UserStore, n Notifier, v *validate.Validator, loanPeriod time.Duration) *OrderService {
	if loanPeriod <= 0 {
		loanPeriod = model.DefaultLoanPeriod
	}
	return &OrderService{
		orders:     orders,
		books:      books,
		users:      users,
		notifier:   n,
		validator:  v,
		loanPeriod: loanPeriod,
		now:        time.Now,
	}
}

// Create opens a pending order. A caller supplied deadline is taken as
// is, even if it lies in the past.
func (s *OrderService) Create(ctx context.Context, user *model.User, in CreateOrderInput) (*model.Order, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	if _, err := s.books.BookByBookID(ctx, in.BookID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("book %s: %w", in.BookID, ErrNotFound)
		}
		return nil, fmt.Errorf("check book: %w", err)
	}

	now := s.now().UTC()
	until := now.Add(s.loanPeriod)
	if in.Until != nil {
		until = in.Until.UTC()
	}

	order := &model.Order{
		UserID:      user.UserID,
		BookID:      in.BookID,
		Until:       until,
		DateCreated: now,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	slog.Info("order created", "order", order.ID, "user", user.UserID, "book", in.BookID)
	return order, nil
}

func (s *OrderService) ListMine(ctx context.Context, user *model.User) ([]model.Order, error) {
	return s.orders.OrdersByUser(ctx, user.UserID)
}

func (s *OrderService) List(ctx context.Context, page model.Page) ([]model.Order, error) {
	return s.orders.ListOrders(ctx, page.Normalize())
}

// Cancel withdraws the caller's own order if it has not been accepted.
// An order that is missing, foreign or already accepted is left alone and
// reported with Cancelled=false; the owner is only notified when the
// order actually changed.
func (s *OrderService) Cancel(ctx context.Context, user *model.User, orderID string) (*CancelResult, error) {
	order, err := s.orders.CancelOrder(ctx, orderID, user.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Info("cancel matched no pending order", "order", orderID, "user", user.UserID)
			return &CancelResult{}, nil
		}
		return nil, fmt.Errorf("cancel order: %w", err)
	}

	s.notifier.Notify(ctx, user.Email, notify.KindOrderRejected, map[string]any{
		"name":    user.Name,
		"orderID": order.ID,
	})

	return &CancelResult{Cancelled: true, Order: order}, nil
}

// Accept marks a pending order accepted, then takes the book off the
// shelf and notifies the borrower. Only one of several concurrent
// accepts can match.
func (s *OrderService) Accept(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.orders.AcceptOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("order %s might be cancelled: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("accept order: %w", err)
	}

	bookName := order.BookID
	if err := s.books.SetBookAvailability(ctx, order.BookID, false); err != nil {
		slog.Error("failed to mark book unavailable", "order", order.ID, "book", order.BookID, "error", err)
	}
	if book, err := s.books.BookByBookID(ctx, order.BookID); err == nil {
		bookName = book.Name
	}

	owner, err := s.users.UserByUserID(ctx, order.UserID)
	if err != nil {
		slog.Error("failed to look up order owner", "order", order.ID, "user", order.UserID, "error", err)
		return order, nil
	}

	s.notifier.Notify(ctx, owner.Email, notify.KindOrderAccepted, map[string]any{
		"name":    owner.Name,
		"orderID": order.ID,
		"book":    bookName,
		"until":   order.Until.Format(dateLayout),
	})

	return order, nil
}

// Complete removes the order. It does not check that the order was ever
// accepted.
func (s *OrderService) Complete(ctx context.Context, orderID string) (*RemoveResult, error) {
	n, err := s.orders.DeleteOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("complete order: %w", err)
	}
	slog.Info("order completed", "order", orderID, "deleted", n)
	return &RemoveResult{Deleted: n}, nil
}

// RemindOverdue notifies the borrower of every accepted order whose
// deadline falls in [from, to). It reads the window in batches of
// batchSize and returns how many reminders were queued.
func (s *OrderService) RemindOverdue(ctx context.Context, from, to time.Time, batchSize int) (int, error) {
	sent := 0
	afterID := ""
	for {
		orders, err := s.orders.OverdueOrders(ctx, from, to, afterID, batchSize)
		if err != nil {
			return sent, fmt.Errorf("get overdue orders: %w", err)
		}

		for _, order := range orders {
			owner, err := s.users.UserByUserID(ctx, order.UserID)
			if err != nil {
				slog.Error("failed to look up order owner", "order", order.ID, "user", order.UserID, "error", err)
				continue
			}
			bookName := order.BookID
			if book, err := s.books.BookByBookID(ctx, order.BookID); err == nil {
				bookName = book.Name
			}

			s.notifier.Notify(ctx, owner.Email, notify.KindOrderOverdue, map[string]any{
				"name":    owner.Name,
				"orderID": order.ID,
				"book":    bookName,
				"until":   order.Until.Format(dateLayout),
			})
			sent++
		}

		if len(orders) < batchSize {
			return sent, nil
		}
		last := orders[len(orders)-1]
		from, afterID = last.Until, last.ID
	}
}
