package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bookshelf/internal/model"
	"bookshelf/internal/store"
)

const orderColumns = `id, user_id, book_id, is_cancelled, is_accepted, until, date_created`

func scanOrder(row scanner) (*model.Order, error) {
	var o model.Order
	if err := row.Scan(&o.ID, &o.UserID, &o.BookID, &o.IsCancelled, &o.IsAccepted, &o.Until, &o.DateCreated); err != nil {
		return nil, err
	}
	return &o, nil
}

func scanOrders(rows *sql.Rows) ([]model.Order, error) {
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return orders, nil
}

func (s *Store) CreateOrder(ctx context.Context, o *model.Order) error {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, book_id, is_cancelled, is_accepted, until, date_created)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		o.UserID, o.BookID, o.IsCancelled, o.IsAccepted, o.Until, o.DateCreated,
	)
	if err := row.Scan(&o.ID); err != nil {
		return fmt.Errorf("insert order: %w", mapErr(err))
	}
	return nil
}

func (s *Store) OrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1
		ORDER BY date_created DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	return scanOrders(rows)
}

func (s *Store) ListOrders(ctx context.Context, page model.Page) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY date_created ASC
		OFFSET $1
		LIMIT $2
	`, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	return scanOrders(rows)
}

func (s *Store) CancelOrder(ctx context.Context, id, userID string) (*model.Order, error) {
	if !validID(id) {
		return nil, fmt.Errorf("cancel order: %w", store.ErrNotFound)
	}
	o, err := scanOrder(s.db.QueryRowContext(ctx, `
		UPDATE orders SET is_cancelled = TRUE
		WHERE id = $1 AND user_id = $2 AND is_accepted = FALSE
		RETURNING `+orderColumns,
		id, userID,
	))
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", mapErr(err))
	}
	return o, nil
}

func (s *Store) AcceptOrder(ctx context.Context, id string) (*model.Order, error) {
	if !validID(id) {
		return nil, fmt.Errorf("accept order: %w", store.ErrNotFound)
	}
	o, err := scanOrder(s.db.QueryRowContext(ctx, `
		UPDATE orders SET is_accepted = TRUE
		WHERE id = $1 AND is_cancelled = FALSE AND is_accepted = FALSE
		RETURNING `+orderColumns,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("accept order: %w", mapErr(err))
	}
	return o, nil
}

func (s *Store) DeleteOrder(ctx context.Context, id string) (int64, error) {
	if !validID(id) {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete order: %w", err)
	}
	return n, nil
}

func (s *Store) OverdueOrders(ctx context.Context, from, to time.Time, afterID string, limit int) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE is_accepted = TRUE AND until < $2
		  AND (until > $1 OR (until = $1 AND id::text > $3))
		ORDER BY until ASC, id::text ASC
		LIMIT $4
	`, from, to, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("query overdue orders: %w", err)
	}
	return scanOrders(rows)
}
