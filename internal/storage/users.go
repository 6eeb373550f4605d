package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/tallyapp/tally/internal/common"
	"github.com/tallyapp/tally/internal/model"
)

// CreateUser inserts a new account. A duplicate email (compared
// case-insensitively) is classified as a conflict.
func (s *SQLiteStore) CreateUser(ctx context.Context, email, passwordHash, firstName, lastName string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(email, "email"); err != nil {
		return nil, err
	}
	if err := validateString(passwordHash, "passwordHash"); err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name)
		VALUES (?, ?, ?, ?)`, email, passwordHash, firstName, lastName)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email already registered", common.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user ID: %w", err)
	}

	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	slog.Info("created user", "id", id)
	return user, nil
}

// GetUserByEmail looks an account up by email, case-insensitively.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(email, "email"); err != nil {
		return nil, err
	}

	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, first_name, last_name, created_at
		FROM users
		WHERE email = ?`, email))
}

// GetUserByID looks an account up by id.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}

	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, first_name, last_name, created_at
		FROM users
		WHERE id = ?`, id))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}
