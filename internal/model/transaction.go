package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date wire format used throughout the API.
const DateLayout = "2006-01-02"

// TransactionKind distinguishes money leaving the account from money
// entering it.
type TransactionKind string

const (
	// KindExpense represents money spent.
	KindExpense TransactionKind = "expense"
	// KindIncome represents money received.
	KindIncome TransactionKind = "income"
)

// Valid reports whether k is one of the two supported kinds.
func (k TransactionKind) Valid() bool {
	return k == KindExpense || k == KindIncome
}

// Transaction is a single ledger entry owned by exactly one user.
// At most one of SystemCategoryID/UserCategoryID is set; the schema
// enforces the same invariant.
type Transaction struct {
	Date             time.Time
	CreatedAt        time.Time
	Amount           decimal.Decimal
	Kind             TransactionKind
	Description      string
	SystemCategoryID *int64
	UserCategoryID   *int64
	// CategoryName is the resolved display name of whichever category the
	// entry references. Nil when uncategorized or when the referenced user
	// category has since been deleted.
	CategoryName *string
	ID           int64
	UserID       int64
}
