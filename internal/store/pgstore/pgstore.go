// Package pgstore keeps users, books and orders in PostgreSQL.
package pgstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"bookshelf/internal/database"
	"bookshelf/internal/store"
)

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close(ctx context.Context) error {
	database.CloseDB(ctx, s.db)
	return nil
}

func mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return store.ErrDuplicate
	}
	return err
}

// validID filters out ids Postgres would reject as malformed UUIDs.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
