package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyapp/tally/internal/common"
	"github.com/tallyapp/tally/internal/model"
)

// transactionColumns is the SELECT list shared by every transaction read.
// The LEFT JOINs resolve the referenced category's display name; a
// missing or deleted category yields NULL.
const transactionColumns = `
	e.id, e.user_id, e.amount, e.kind,
	e.system_category_id, e.user_category_id,
	e.description, e.date, e.created_at,
	COALESCE(sc.display_name, uc.display_name) AS category_name`

const transactionJoins = `
	FROM expenses e
	LEFT JOIN system_categories sc ON e.system_category_id = sc.id
	LEFT JOIN user_categories uc ON e.user_category_id = uc.id`

// CreateTransactionParams holds the validated inputs for an insert.
type CreateTransactionParams struct {
	Date             time.Time
	Amount           decimal.Decimal
	Kind             model.TransactionKind
	Description      string
	SystemCategoryID *int64
	UserCategoryID   *int64
	// ImportRef deduplicates statement imports per user; empty for
	// transactions entered through the API.
	ImportRef string
}

// ListTransactions returns one page of a user's transactions matching
// the filter, plus the total match count before pagination.
func (s *SQLiteStore) ListTransactions(ctx context.Context, userID int64, filter TransactionFilter, sort Sort, page Page) ([]model.Transaction, int64, error) {
	if err := validateContext(ctx); err != nil {
		return nil, 0, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return nil, 0, err
	}

	orderBy, err := sort.orderBySQL()
	if err != nil {
		return nil, 0, err
	}

	where, args := whereSQL(filter.predicates(userID))

	var total int64
	countQuery := "SELECT COUNT(*) FROM expenses e" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := "SELECT" + transactionColumns + transactionJoins + where + orderBy + " LIMIT ? OFFSET ?"
	args = append(args, page.Size, page.offset())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, *txn)
	}

	return transactions, total, rows.Err()
}

// GetTransaction returns a single transaction scoped to its owner.
// A record owned by another user is reported as not found.
func (s *SQLiteStore) GetTransaction(ctx context.Context, id, userID int64) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return nil, err
	}

	query := "SELECT" + transactionColumns + transactionJoins + " WHERE e.id = ? AND e.user_id = ?"

	row := s.db.QueryRowContext(ctx, query, id, userID)
	txn, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// CreateTransaction inserts a new transaction and returns its id.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, userID int64, params CreateTransactionParams) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return 0, err
	}

	var description any
	if params.Description != "" {
		description = params.Description
	}
	var importRef any
	if params.ImportRef != "" {
		importRef = params.ImportRef
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (
			user_id, amount, kind, system_category_id, user_category_id,
			description, date, import_ref
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID,
		params.Amount.InexactFloat64(),
		string(params.Kind),
		params.SystemCategoryID,
		params.UserCategoryID,
		description,
		params.Date.Format(model.DateLayout),
		importRef,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return 0, fmt.Errorf("%w: transaction already imported", common.ErrConflict)
		case isForeignKeyViolation(err):
			return 0, fmt.Errorf("%w: unknown category", common.ErrInvalidInput)
		}
		return 0, fmt.Errorf("failed to create transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get transaction ID: %w", err)
	}
	return id, nil
}

// UpdateTransactionParams carries partial update fields; nil means the
// field is left untouched. Setting one category side clears the other so
// a record can never end up referencing both namespaces.
type UpdateTransactionParams struct {
	Amount           *decimal.Decimal
	Kind             *model.TransactionKind
	SystemCategoryID *int64
	UserCategoryID   *int64
	Description      *string
	Date             *time.Time
}

func (p UpdateTransactionParams) empty() bool {
	return p.Amount == nil && p.Kind == nil &&
		p.SystemCategoryID == nil && p.UserCategoryID == nil &&
		p.Description == nil && p.Date == nil
}

// UpdateTransaction applies a partial update. The ownership check and
// mutation are a single statement keyed on (id, user_id), so a record
// owned by another user is never touched and reads as not found.
func (s *SQLiteStore) UpdateTransaction(ctx context.Context, id, userID int64, params UpdateTransactionParams) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(userID, "userID"); err != nil {
		return err
	}
	if params.empty() {
		return nil
	}

	var sets []string
	var args []any

	if params.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, params.Amount.InexactFloat64())
	}
	if params.Kind != nil {
		sets = append(sets, "kind = ?")
		args = append(args, string(*params.Kind))
	}
	if params.SystemCategoryID != nil {
		sets = append(sets, "system_category_id = ?", "user_category_id = NULL")
		args = append(args, *params.SystemCategoryID)
	}
	if params.UserCategoryID != nil {
		sets = append(sets, "user_category_id = ?", "system_category_id = NULL")
		args = append(args, *params.UserCategoryID)
	}
	if params.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *params.Description)
	}
	if params.Date != nil {
		sets = append(sets, "date = ?")
		args = append(args, params.Date.Format(model.DateLayout))
	}

	query := "UPDATE expenses SET " + strings.Join(sets, ", ") + " WHERE id = ? AND user_id = ?"
	args = append(args, id, userID)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: unknown category", common.ErrInvalidInput)
		}
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// DeleteTransaction removes an owned transaction, reporting whether a
// matching record existed.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id, userID int64) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return false, err
	}

	result, err := s.db.ExecContext(ctx,
		"DELETE FROM expenses WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var (
		txn          model.Transaction
		amount       float64
		kind         string
		description  sql.NullString
		date         string
		categoryName sql.NullString
	)

	err := row.Scan(
		&txn.ID,
		&txn.UserID,
		&amount,
		&kind,
		&txn.SystemCategoryID,
		&txn.UserCategoryID,
		&description,
		&date,
		&txn.CreatedAt,
		&categoryName,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	txn.Amount = decimal.NewFromFloat(amount)
	txn.Kind = model.TransactionKind(kind)
	if description.Valid {
		txn.Description = description.String
	}
	if categoryName.Valid {
		txn.CategoryName = &categoryName.String
	}

	txn.Date, err = time.Parse(model.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transaction date %q: %w", date, err)
	}

	return &txn, nil
}
