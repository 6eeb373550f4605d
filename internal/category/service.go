// Package category manages the two category namespaces: the immutable
// system set shared by all users and each user's own custom set.
package category

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tallyapp/tally/internal/common"
	"github.com/tallyapp/tally/internal/model"
)

// Name-conflict failures. Both wrap common.ErrConflict; they stay
// distinct so callers can report which namespace the name collided with.
var (
	ErrSystemNameTaken = fmt.Errorf("%w: name is reserved by a system category", common.ErrConflict)
	ErrUserNameTaken   = fmt.Errorf("%w: category already exists", common.ErrConflict)
)

// ErrInvalidName rejects display names failing the allow-list rules.
var ErrInvalidName = fmt.Errorf("%w: category name must be 1-100 letters, digits or spaces", common.ErrInvalidInput)

// Store is the persistence surface the manager drives.
type Store interface {
	ListSystemCategories(ctx context.Context) ([]model.SystemCategory, error)
	ListUserCategories(ctx context.Context, userID int64) ([]model.UserCategory, error)
	GetSystemCategoryByKey(ctx context.Context, key string) (*model.SystemCategory, error)
	GetUserCategoryByKey(ctx context.Context, userID int64, key string) (*model.UserCategory, error)
	CreateUserCategory(ctx context.Context, userID int64, key, displayName string) (*model.UserCategory, error)
	DeleteUserCategory(ctx context.Context, id, userID int64) (bool, error)
}

// Service is the Category Namespace Manager.
type Service struct {
	store Store
}

// NewService creates a manager over the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// ListCombined merges the system set and the user's custom set into one
// sequence of display names ordered lexicographically. Both sources are
// queried pre-sorted, so the merge is linear.
func (s *Service) ListCombined(ctx context.Context, userID int64) ([]string, error) {
	systemCats, err := s.store.ListSystemCategories(ctx)
	if err != nil {
		return nil, err
	}
	userCats, err := s.store.ListUserCategories(ctx, userID)
	if err != nil {
		return nil, err
	}

	systemNames := make([]string, len(systemCats))
	for i, cat := range systemCats {
		systemNames[i] = cat.DisplayName
	}
	userNames := make([]string, len(userCats))
	for i, cat := range userCats {
		userNames[i] = cat.DisplayName
	}

	return mergeSorted(systemNames, userNames), nil
}

// Create validates and canonicalizes a display name, then inserts it
// into the user's namespace. The name must not collide with any system
// category key nor with one of the user's existing keys; another user's
// identical key is not a conflict.
func (s *Service) Create(ctx context.Context, userID int64, displayName string) (*model.UserCategory, error) {
	if !model.ValidCategoryName(displayName) {
		return nil, ErrInvalidName
	}

	displayName = strings.TrimSpace(displayName)
	key := model.CanonicalKey(displayName)

	// The pre-checks exist to pick the right failure kind; the UNIQUE
	// constraint behind CreateUserCategory still backstops the race.
	systemCat, err := s.store.GetSystemCategoryByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if systemCat != nil {
		return nil, ErrSystemNameTaken
	}

	userCat, err := s.store.GetUserCategoryByKey(ctx, userID, key)
	if err != nil {
		return nil, err
	}
	if userCat != nil {
		return nil, ErrUserNameTaken
	}

	created, err := s.store.CreateUserCategory(ctx, userID, key, displayName)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, ErrUserNameTaken
		}
		return nil, err
	}

	slog.Info("created category", "user_id", userID, "key", key)
	return created, nil
}

// Delete removes one of the user's custom categories, reporting whether
// a matching record existed. Transactions referencing the category keep
// their reference; reads resolve it to a null display name.
func (s *Service) Delete(ctx context.Context, id, userID int64) (bool, error) {
	return s.store.DeleteUserCategory(ctx, id, userID)
}
