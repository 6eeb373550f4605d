package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/tallyapp/tally/internal/common"
	"github.com/tallyapp/tally/internal/model"
)

// ListSystemCategories returns the fixed system set ordered by display
// name, so callers can rely on merge semantics over pre-sorted inputs.
func (s *SQLiteStore) ListSystemCategories(ctx context.Context) ([]model.SystemCategory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, key, display_name
		FROM system_categories
		ORDER BY display_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query system categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.SystemCategory
	for rows.Next() {
		var cat model.SystemCategory
		if err := rows.Scan(&cat.ID, &cat.Key, &cat.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan system category: %w", err)
		}
		categories = append(categories, cat)
	}

	return categories, rows.Err()
}

// ListUserCategories returns a user's custom categories ordered by
// display name.
func (s *SQLiteStore) ListUserCategories(ctx context.Context, userID int64) ([]model.UserCategory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, key, display_name, created_at
		FROM user_categories
		WHERE user_id = ?
		ORDER BY display_name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.UserCategory
	for rows.Next() {
		var cat model.UserCategory
		if err := rows.Scan(&cat.ID, &cat.UserID, &cat.Key, &cat.DisplayName, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user category: %w", err)
		}
		categories = append(categories, cat)
	}

	return categories, rows.Err()
}

// GetSystemCategoryByKey returns the system category with the given
// canonical key, or nil when none exists.
func (s *SQLiteStore) GetSystemCategoryByKey(ctx context.Context, key string) (*model.SystemCategory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(key, "key"); err != nil {
		return nil, err
	}

	var cat model.SystemCategory
	err := s.db.QueryRowContext(ctx, `
		SELECT id, key, display_name
		FROM system_categories
		WHERE key = ?`, key).Scan(&cat.ID, &cat.Key, &cat.DisplayName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query system category: %w", err)
	}

	return &cat, nil
}

// GetUserCategoryByKey returns the user's category with the given
// canonical key, or nil when none exists.
func (s *SQLiteStore) GetUserCategoryByKey(ctx context.Context, userID int64, key string) (*model.UserCategory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(key, "key"); err != nil {
		return nil, err
	}

	var cat model.UserCategory
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, key, display_name, created_at
		FROM user_categories
		WHERE user_id = ? AND key = ?`, userID, key).Scan(
		&cat.ID, &cat.UserID, &cat.Key, &cat.DisplayName, &cat.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user category: %w", err)
	}

	return &cat, nil
}

// CreateUserCategory inserts a custom category. A UNIQUE violation on
// (user_id, key) is classified as a conflict: concurrent creates race
// past any pre-check, and the constraint is the source of truth.
func (s *SQLiteStore) CreateUserCategory(ctx context.Context, userID int64, key, displayName string) (*model.UserCategory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(key, "key"); err != nil {
		return nil, err
	}
	if err := validateString(displayName, "displayName"); err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO user_categories (user_id, key, display_name)
		VALUES (?, ?, ?)`, userID, key, displayName)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: category %s", common.ErrConflict, key)
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: unknown user", common.ErrInvalidInput)
		}
		return nil, fmt.Errorf("failed to create user category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get category ID: %w", err)
	}

	cat, err := s.GetUserCategoryByKey(ctx, userID, key)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, fmt.Errorf("category %d vanished after insert", id)
	}

	slog.Info("created user category", "user_id", userID, "key", key, "id", id)
	return cat, nil
}

// DeleteUserCategory removes an owned custom category, reporting whether
// a matching record existed. Transactions referencing the category are
// left alone; reads resolve their name to NULL from then on.
func (s *SQLiteStore) DeleteUserCategory(ctx context.Context, id, userID int64) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return false, err
	}

	result, err := s.db.ExecContext(ctx,
		"DELETE FROM user_categories WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete user category: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}
