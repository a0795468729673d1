package pgstore

import (
	"context"
	"fmt"

	"bookshelf/internal/model"
)

const userColumns = `id, user_id, name, email, password_hash, is_admin, date_created`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.UserID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.DateCreated); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO users (user_id, name, email, password_hash, is_admin, date_created)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		u.UserID, u.Name, u.Email, u.PasswordHash, u.IsAdmin, u.DateCreated,
	)
	if err := row.Scan(&u.ID); err != nil {
		return fmt.Errorf("insert user: %w", mapErr(err))
	}
	return nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", mapErr(err))
	}
	return u, nil
}

func (s *Store) UserByUserID(ctx context.Context, userID string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID))
	if err != nil {
		return nil, fmt.Errorf("get user: %w", mapErr(err))
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY date_created`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return users, nil
}

func (s *Store) SetAdmin(ctx context.Context, userID string, isAdmin bool) (*model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`UPDATE users SET is_admin = $1 WHERE user_id = $2 RETURNING `+userColumns,
		isAdmin, userID,
	))
	if err != nil {
		return nil, fmt.Errorf("update user: %w", mapErr(err))
	}
	return u, nil
}
