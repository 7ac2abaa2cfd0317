package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/01moynul/storefront-golang/internal/store"
)

const userColumns = "id, name, email, password_hash, role, created_at, updated_at"

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query, u.Name, u.Email, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	if u.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanUser(row)
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}
