package pgstore

import (
	"context"
	"fmt"

	"bookshelf/internal/model"
	"bookshelf/internal/store"
)

const bookColumns = `id, book_id, name, author, image, genre, is_available, date_created`

func scanBook(row scanner) (*model.Book, error) {
	var b model.Book
	if err := row.Scan(&b.ID, &b.BookID, &b.Name, &b.Author, &b.Image, &b.Genre, &b.IsAvailable, &b.DateCreated); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) CreateBook(ctx context.Context, b *model.Book) error {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO books (book_id, name, author, image, genre, is_available, date_created)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		b.BookID, b.Name, b.Author, b.Image, b.Genre, b.IsAvailable, b.DateCreated,
	)
	if err := row.Scan(&b.ID); err != nil {
		return fmt.Errorf("insert book: %w", mapErr(err))
	}
	return nil
}

func (s *Store) BookByBookID(ctx context.Context, bookID string) (*model.Book, error) {
	b, err := scanBook(s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE book_id = $1`, bookID))
	if err != nil {
		return nil, fmt.Errorf("get book: %w", mapErr(err))
	}
	return b, nil
}

func (s *Store) ListBooks(ctx context.Context) ([]model.Book, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY date_created DESC`)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	books := []model.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, *b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return books, nil
}

func (s *Store) SetBookAvailability(ctx context.Context, bookID string, available bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE books SET is_available = $1 WHERE book_id = $2`, available, bookID)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update book: %w", store.ErrNotFound)
	}
	return nil
}
