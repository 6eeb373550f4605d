package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyapp/tally/internal/model"
)

// Predicate is a single parameterized term of a WHERE clause. Column
// names only ever come from constants in this package, so the assembled
// SQL carries no caller-controlled text; all values travel as bind args.
type Predicate struct {
	expr string
	args []any
}

// Eq matches rows where column equals value.
func Eq(column string, value any) Predicate {
	return Predicate{expr: column + " = ?", args: []any{value}}
}

// GTE matches rows where column is greater than or equal to value.
func GTE(column string, value any) Predicate {
	return Predicate{expr: column + " >= ?", args: []any{value}}
}

// LTE matches rows where column is less than or equal to value.
func LTE(column string, value any) Predicate {
	return Predicate{expr: column + " <= ?", args: []any{value}}
}

// In matches rows where column equals any of the given values.
func In(column string, values ...any) Predicate {
	placeholders := strings.Repeat("?, ", len(values))
	placeholders = strings.TrimSuffix(placeholders, ", ")
	return Predicate{
		expr: column + " IN (" + placeholders + ")",
		args: values,
	}
}

// SQL returns the predicate's clause text and bind arguments.
func (p Predicate) SQL() (string, []any) {
	return p.expr, p.args
}

// whereSQL joins predicates into a single " WHERE ..." fragment with
// AND semantics, returning the combined bind arguments in order.
func whereSQL(preds []Predicate) (string, []any) {
	if len(preds) == 0 {
		return "", nil
	}

	exprs := make([]string, len(preds))
	var args []any
	for i, p := range preds {
		exprs[i] = p.expr
		args = append(args, p.args...)
	}
	return " WHERE " + strings.Join(exprs, " AND "), args
}

// TransactionFilter holds the optional list filters. Nil fields are not
// applied; set fields combine with logical AND. Supplying both category
// filters applies both, per the list contract.
type TransactionFilter struct {
	StartDate        *time.Time
	EndDate          *time.Time
	SystemCategoryID *int64
	UserCategoryID   *int64
	Kind             *model.TransactionKind
	MinAmount        *decimal.Decimal
	MaxAmount        *decimal.Decimal
}

// predicates renders the filter into WHERE terms, always leading with
// the owning user so no combination can cross user boundaries.
func (f TransactionFilter) predicates(userID int64) []Predicate {
	preds := []Predicate{Eq("e.user_id", userID)}

	if f.StartDate != nil {
		preds = append(preds, GTE("e.date", f.StartDate.Format(model.DateLayout)))
	}
	if f.EndDate != nil {
		preds = append(preds, LTE("e.date", f.EndDate.Format(model.DateLayout)))
	}
	if f.SystemCategoryID != nil {
		preds = append(preds, Eq("e.system_category_id", *f.SystemCategoryID))
	}
	if f.UserCategoryID != nil {
		preds = append(preds, Eq("e.user_category_id", *f.UserCategoryID))
	}
	if f.Kind != nil {
		preds = append(preds, Eq("e.kind", string(*f.Kind)))
	}
	if f.MinAmount != nil {
		preds = append(preds, GTE("e.amount", f.MinAmount.InexactFloat64()))
	}
	if f.MaxAmount != nil {
		preds = append(preds, LTE("e.amount", f.MaxAmount.InexactFloat64()))
	}

	return preds
}

// SortField is an allow-listed transaction sort column.
type SortField string

// Supported sort fields.
const (
	SortByDate      SortField = "date"
	SortByAmount    SortField = "amount"
	SortByCreatedAt SortField = "created_at"
)

// SortOrder is a sort direction.
type SortOrder string

// Supported sort directions.
const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// Sort describes the requested result ordering.
type Sort struct {
	Field SortField
	Order SortOrder
}

// DefaultSort is applied when the caller requests no explicit ordering.
var DefaultSort = Sort{Field: SortByDate, Order: OrderDesc}

// orderBySQL maps the sort onto an ORDER BY fragment. The row id is
// always appended in the same direction as a tie-break so repeated calls
// with identical filters produce a stable order. Unrecognized values are
// an error: callers must allow-list before invoking the engine.
func (s Sort) orderBySQL() (string, error) {
	var column string
	switch s.Field {
	case SortByDate:
		column = "e.date"
	case SortByAmount:
		column = "e.amount"
	case SortByCreatedAt:
		column = "e.created_at"
	default:
		return "", fmt.Errorf("unsupported sort field %q", s.Field)
	}

	var direction string
	switch s.Order {
	case OrderAsc:
		direction = "ASC"
	case OrderDesc:
		direction = "DESC"
	default:
		return "", fmt.Errorf("unsupported sort order %q", s.Order)
	}

	return fmt.Sprintf(" ORDER BY %s %s, e.id %s", column, direction, direction), nil
}

// Page describes a pagination window. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

func (p Page) offset() int {
	return (p.Number - 1) * p.Size
}
