// Package ledger implements the transaction query and mutation engine.
// Every operation is scoped to an already-authenticated user id supplied
// by the caller; the engine performs no authentication itself.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyapp/tally/internal/common"
	"github.com/tallyapp/tally/internal/model"
	"github.com/tallyapp/tally/internal/storage"
)

// Pagination bounds. Out-of-range requests are clamped, not rejected.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// DefaultSlowQueryThreshold flags paginated fetches worth investigating.
const DefaultSlowQueryThreshold = 500 * time.Millisecond

// Store is the persistence surface the engine drives.
type Store interface {
	ListTransactions(ctx context.Context, userID int64, filter storage.TransactionFilter, sort storage.Sort, page storage.Page) ([]model.Transaction, int64, error)
	GetTransaction(ctx context.Context, id, userID int64) (*model.Transaction, error)
	CreateTransaction(ctx context.Context, userID int64, params storage.CreateTransactionParams) (int64, error)
	UpdateTransaction(ctx context.Context, id, userID int64, params storage.UpdateTransactionParams) error
	DeleteTransaction(ctx context.Context, id, userID int64) (bool, error)
}

// Service is the Ledger Query Engine.
type Service struct {
	store         Store
	slowThreshold time.Duration
}

// NewService creates an engine over the given store. A non-positive
// slowThreshold falls back to the default.
func NewService(store Store, slowThreshold time.Duration) *Service {
	if slowThreshold <= 0 {
		slowThreshold = DefaultSlowQueryThreshold
	}
	return &Service{store: store, slowThreshold: slowThreshold}
}

// ListParams bundles the filters, pagination and sort for List.
type ListParams struct {
	Filter  storage.TransactionFilter
	Sort    storage.Sort
	Page    int
	PerPage int
}

// ListResult is one page of matches plus the pre-pagination total.
type ListResult struct {
	Items      []model.Transaction
	TotalCount int64
	Page       int
	PerPage    int
}

// List returns a filtered, ordered page of the user's transactions.
func (s *Service) List(ctx context.Context, userID int64, params ListParams) (*ListResult, error) {
	if params.Filter.Kind != nil && !params.Filter.Kind.Valid() {
		return nil, fmt.Errorf("%w: kind must be %q or %q", common.ErrInvalidInput, model.KindExpense, model.KindIncome)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	perPage := params.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	sort := params.Sort
	if sort.Field == "" {
		sort.Field = storage.DefaultSort.Field
	}
	if sort.Order == "" {
		sort.Order = storage.DefaultSort.Order
	}

	start := time.Now()
	items, total, err := s.store.ListTransactions(ctx, userID, params.Filter, sort, storage.Page{Number: page, Size: perPage})
	if err != nil {
		return nil, err
	}

	if elapsed := time.Since(start); elapsed > s.slowThreshold {
		slog.Warn("slow transaction list",
			"user_id", userID,
			"elapsed", elapsed,
			"total", total,
			"page", page,
			"per_page", perPage)
	}

	return &ListResult{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PerPage:    perPage,
	}, nil
}

// CreateParams holds the inputs for a new transaction. The caller has
// already shape-checked them; value-domain constraints are re-verified
// here before anything touches the store.
type CreateParams struct {
	Amount           decimal.Decimal
	Kind             model.TransactionKind
	Date             string
	Description      string
	SystemCategoryID *int64
	UserCategoryID   *int64
}

// Create validates and inserts a transaction, then reads it back so the
// caller sees exactly what was stored, server-assigned fields included.
func (s *Service) Create(ctx context.Context, userID int64, params CreateParams) (*model.Transaction, error) {
	if !params.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than 0", common.ErrInvalidInput)
	}
	if !params.Kind.Valid() {
		return nil, fmt.Errorf("%w: kind must be %q or %q", common.ErrInvalidInput, model.KindExpense, model.KindIncome)
	}
	if params.SystemCategoryID != nil && params.UserCategoryID != nil {
		return nil, fmt.Errorf("%w: cannot set both system and user category", common.ErrInvalidInput)
	}

	date, err := time.Parse(model.DateLayout, params.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be in YYYY-MM-DD format", common.ErrInvalidInput)
	}

	id, err := s.store.CreateTransaction(ctx, userID, storage.CreateTransactionParams{
		Amount:           params.Amount,
		Kind:             params.Kind,
		Date:             date,
		Description:      params.Description,
		SystemCategoryID: params.SystemCategoryID,
		UserCategoryID:   params.UserCategoryID,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("created transaction", "id", id, "user_id", userID, "kind", params.Kind)
	return s.store.GetTransaction(ctx, id, userID)
}

// UpdateParams carries the fields to change; nil fields keep their
// current values.
type UpdateParams struct {
	Amount           *decimal.Decimal
	Kind             *model.TransactionKind
	Date             *string
	Description      *string
	SystemCategoryID *int64
	UserCategoryID   *int64
}

// Update applies a partial update scoped to (id, userID) and returns the
// updated record. A transaction owned by another user behaves exactly
// like a missing one. Updating zero fields succeeds if the record exists.
func (s *Service) Update(ctx context.Context, id, userID int64, params UpdateParams) (*model.Transaction, error) {
	if params.Amount != nil && !params.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than 0", common.ErrInvalidInput)
	}
	if params.Kind != nil && !params.Kind.Valid() {
		return nil, fmt.Errorf("%w: kind must be %q or %q", common.ErrInvalidInput, model.KindExpense, model.KindIncome)
	}
	if params.SystemCategoryID != nil && params.UserCategoryID != nil {
		return nil, fmt.Errorf("%w: cannot set both system and user category", common.ErrInvalidInput)
	}

	storeParams := storage.UpdateTransactionParams{
		Amount:           params.Amount,
		Kind:             params.Kind,
		Description:      params.Description,
		SystemCategoryID: params.SystemCategoryID,
		UserCategoryID:   params.UserCategoryID,
	}

	if params.Date != nil {
		date, err := time.Parse(model.DateLayout, *params.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: date must be in YYYY-MM-DD format", common.ErrInvalidInput)
		}
		storeParams.Date = &date
	}

	if err := s.store.UpdateTransaction(ctx, id, userID, storeParams); err != nil {
		return nil, err
	}

	// A zero-field update skips the write; the read below still verifies
	// existence and ownership.
	return s.store.GetTransaction(ctx, id, userID)
}

// Get returns a single owned transaction.
func (s *Service) Get(ctx context.Context, id, userID int64) (*model.Transaction, error) {
	return s.store.GetTransaction(ctx, id, userID)
}

// Delete removes an owned transaction, reporting whether one existed.
func (s *Service) Delete(ctx context.Context, id, userID int64) (bool, error) {
	return s.store.DeleteTransaction(ctx, id, userID)
}
