package storage

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyapp/tally/internal/model"
)

func TestPredicates(t *testing.T) {
	tests := []struct {
		name     string
		pred     Predicate
		wantExpr string
		wantArgs []any
	}{
		{
			name:     "equality",
			pred:     Eq("e.user_id", int64(7)),
			wantExpr: "e.user_id = ?",
			wantArgs: []any{int64(7)},
		},
		{
			name:     "lower bound",
			pred:     GTE("e.date", "2024-01-01"),
			wantExpr: "e.date >= ?",
			wantArgs: []any{"2024-01-01"},
		},
		{
			name:     "upper bound",
			pred:     LTE("e.amount", 99.5),
			wantExpr: "e.amount <= ?",
			wantArgs: []any{99.5},
		},
		{
			name:     "enum membership",
			pred:     In("e.kind", "expense", "income"),
			wantExpr: "e.kind IN (?, ?)",
			wantArgs: []any{"expense", "income"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, args := tt.pred.SQL()
			assert.Equal(t, tt.wantExpr, expr)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestWhereSQL(t *testing.T) {
	t.Run("no predicates", func(t *testing.T) {
		where, args := whereSQL(nil)
		assert.Empty(t, where)
		assert.Nil(t, args)
	})

	t.Run("predicates joined with AND", func(t *testing.T) {
		where, args := whereSQL([]Predicate{
			Eq("e.user_id", int64(1)),
			GTE("e.date", "2024-01-01"),
		})
		assert.Equal(t, " WHERE e.user_id = ? AND e.date >= ?", where)
		assert.Equal(t, []any{int64(1), "2024-01-01"}, args)
	})
}

func TestTransactionFilterPredicates(t *testing.T) {
	t.Run("empty filter still scopes to user", func(t *testing.T) {
		preds := TransactionFilter{}.predicates(42)
		require.Len(t, preds, 1)
		expr, args := preds[0].SQL()
		assert.Equal(t, "e.user_id = ?", expr)
		assert.Equal(t, []any{int64(42)}, args)
	})

	t.Run("all filters combine", func(t *testing.T) {
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
		sysID := int64(3)
		userCatID := int64(9)
		kind := model.KindExpense
		minAmt := decimal.RequireFromString("5")
		maxAmt := decimal.RequireFromString("100")

		preds := TransactionFilter{
			StartDate:        &start,
			EndDate:          &end,
			SystemCategoryID: &sysID,
			UserCategoryID:   &userCatID,
			Kind:             &kind,
			MinAmount:        &minAmt,
			MaxAmount:        &maxAmt,
		}.predicates(1)

		require.Len(t, preds, 8)
		where, args := whereSQL(preds)
		assert.Equal(t,
			" WHERE e.user_id = ? AND e.date >= ? AND e.date <= ?"+
				" AND e.system_category_id = ? AND e.user_category_id = ?"+
				" AND e.kind = ? AND e.amount >= ? AND e.amount <= ?",
			where)
		assert.Len(t, args, 8)
		assert.Equal(t, "2024-01-01", args[1])
		assert.Equal(t, "2024-01-31", args[2])
	})
}

func TestSortOrderBySQL(t *testing.T) {
	tests := []struct {
		name    string
		sort    Sort
		want    string
		wantErr bool
	}{
		{
			name: "default date desc",
			sort: DefaultSort,
			want: " ORDER BY e.date DESC, e.id DESC",
		},
		{
			name: "amount asc",
			sort: Sort{Field: SortByAmount, Order: OrderAsc},
			want: " ORDER BY e.amount ASC, e.id ASC",
		},
		{
			name: "created_at desc",
			sort: Sort{Field: SortByCreatedAt, Order: OrderDesc},
			want: " ORDER BY e.created_at DESC, e.id DESC",
		},
		{
			name:    "unknown field rejected",
			sort:    Sort{Field: "balance; DROP TABLE expenses", Order: OrderAsc},
			wantErr: true,
		},
		{
			name:    "unknown order rejected",
			sort:    Sort{Field: SortByDate, Order: "sideways"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.sort.orderBySQL()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPageOffset(t *testing.T) {
	assert.Equal(t, 0, Page{Number: 1, Size: 20}.offset())
	assert.Equal(t, 20, Page{Number: 2, Size: 20}.offset())
	assert.Equal(t, 40, Page{Number: 3, Size: 20}.offset())
}
