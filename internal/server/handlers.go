package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyapp/tally/internal/auth"
	"github.com/tallyapp/tally/internal/common"
	"github.com/tallyapp/tally/internal/ledger"
	"github.com/tallyapp/tally/internal/model"
	"github.com/tallyapp/tally/internal/storage"
)

type userJSON struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func toUserJSON(u *model.User) userJSON {
	return userJSON{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

type transactionJSON struct {
	ID               int64           `json:"id"`
	Amount           decimal.Decimal `json:"amount"`
	Kind             string          `json:"kind"`
	Date             string          `json:"date"`
	Description      string          `json:"description"`
	SystemCategoryID *int64          `json:"system_category_id"`
	UserCategoryID   *int64          `json:"user_category_id"`
	CategoryName     *string         `json:"category_name"`
	CreatedAt        time.Time       `json:"created_at"`
}

func toTransactionJSON(tx *model.Transaction) transactionJSON {
	return transactionJSON{
		ID:               tx.ID,
		Amount:           tx.Amount,
		Kind:             string(tx.Kind),
		Date:             tx.Date.Format(model.DateLayout),
		Description:      tx.Description,
		SystemCategoryID: tx.SystemCategoryID,
		UserCategoryID:   tx.UserCategoryID,
		CategoryName:     tx.CategoryName,
		CreatedAt:        tx.CreatedAt,
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}

	user, err := s.accounts.Register(r.Context(), auth.RegisterParams{
		Email:     body.Email,
		Password:  body.Password,
		FirstName: body.FirstName,
		LastName:  body.LastName,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserJSON(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}

	user, token, err := s.accounts.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  toUserJSON(user),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.accounts.GetUser(r.Context(), userIDFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(user))
}

// parseListQuery maps query-string parameters onto list parameters.
// Sort values are allow-listed here so an unsupported column is a 400,
// never a silently different ordering.
func parseListQuery(r *http.Request) (ledger.ListParams, error) {
	var params ledger.ListParams
	q := r.URL.Query()

	if v := q.Get("start_date"); v != "" {
		t, err := time.Parse(model.DateLayout, v)
		if err != nil {
			return params, fmt.Errorf("%w: start_date must be YYYY-MM-DD", common.ErrInvalidInput)
		}
		params.Filter.StartDate = &t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := time.Parse(model.DateLayout, v)
		if err != nil {
			return params, fmt.Errorf("%w: end_date must be YYYY-MM-DD", common.ErrInvalidInput)
		}
		params.Filter.EndDate = &t
	}
	if v := q.Get("kind"); v != "" {
		kind := model.TransactionKind(v)
		params.Filter.Kind = &kind
	}
	if v := q.Get("min_amount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return params, fmt.Errorf("%w: min_amount must be a number", common.ErrInvalidInput)
		}
		params.Filter.MinAmount = &d
	}
	if v := q.Get("max_amount"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return params, fmt.Errorf("%w: max_amount must be a number", common.ErrInvalidInput)
		}
		params.Filter.MaxAmount = &d
	}
	if v := q.Get("system_category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return params, fmt.Errorf("%w: system_category_id must be an integer", common.ErrInvalidInput)
		}
		params.Filter.SystemCategoryID = &id
	}
	if v := q.Get("user_category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return params, fmt.Errorf("%w: user_category_id must be an integer", common.ErrInvalidInput)
		}
		params.Filter.UserCategoryID = &id
	}

	switch v := q.Get("sort_by"); v {
	case "":
	case "date", "amount", "created_at":
		params.Sort.Field = storage.SortField(v)
	default:
		return params, fmt.Errorf("%w: sort_by must be one of date, amount, created_at", common.ErrInvalidInput)
	}
	switch v := q.Get("order"); v {
	case "":
	case "asc", "desc":
		params.Sort.Order = storage.SortOrder(v)
	default:
		return params, fmt.Errorf("%w: order must be asc or desc", common.ErrInvalidInput)
	}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, fmt.Errorf("%w: page must be an integer", common.ErrInvalidInput)
		}
		params.Page = n
	}
	if v := q.Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, fmt.Errorf("%w: per_page must be an integer", common.ErrInvalidInput)
		}
		params.PerPage = n
	}

	return params, nil
}

type paginationJSON struct {
	Page        int   `json:"page"`
	PerPage     int   `json:"per_page"`
	TotalItems  int64 `json:"total_items"`
	TotalPages  int64 `json:"total_pages"`
	HasPrevious bool  `json:"has_previous"`
	HasNext     bool  `json:"has_next"`
}

type summaryJSON struct {
	Count         int             `json:"count"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	Net           decimal.Decimal `json:"net"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	params, err := parseListQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.ledger.List(r.Context(), userIDFrom(r), params)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]transactionJSON, 0, len(result.Items))
	var expenses, income decimal.Decimal
	for i := range result.Items {
		tx := &result.Items[i]
		items = append(items, toTransactionJSON(tx))
		switch tx.Kind {
		case model.KindExpense:
			expenses = expenses.Add(tx.Amount)
		case model.KindIncome:
			income = income.Add(tx.Amount)
		}
	}

	totalPages := (result.TotalCount + int64(result.PerPage) - 1) / int64(result.PerPage)
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"pagination": paginationJSON{
			Page:        result.Page,
			PerPage:     result.PerPage,
			TotalItems:  result.TotalCount,
			TotalPages:  totalPages,
			HasPrevious: result.Page > 1,
			HasNext:     int64(result.Page) < totalPages,
		},
		"summary": summaryJSON{
			Count:         len(items),
			TotalExpenses: expenses,
			TotalIncome:   income,
			Net:           income.Sub(expenses),
		},
	})
}

type createExpenseBody struct {
	Amount           decimal.Decimal `json:"amount"`
	Kind             string          `json:"kind"`
	Date             string          `json:"date"`
	Description      string          `json:"description"`
	SystemCategoryID *int64          `json:"system_category_id"`
	UserCategoryID   *int64          `json:"user_category_id"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var body createExpenseBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}

	tx, err := s.ledger.Create(r.Context(), userIDFrom(r), ledger.CreateParams{
		Amount:           body.Amount,
		Kind:             model.TransactionKind(body.Kind),
		Date:             body.Date,
		Description:      body.Description,
		SystemCategoryID: body.SystemCategoryID,
		UserCategoryID:   body.UserCategoryID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionJSON(tx))
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: id must be a positive integer", common.ErrInvalidInput)
	}
	return id, nil
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	tx, err := s.ledger.Get(r.Context(), id, userIDFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(tx))
}

type updateExpenseBody struct {
	Amount           *decimal.Decimal `json:"amount"`
	Kind             *string          `json:"kind"`
	Date             *string          `json:"date"`
	Description      *string          `json:"description"`
	SystemCategoryID *int64           `json:"system_category_id"`
	UserCategoryID   *int64           `json:"user_category_id"`
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body updateExpenseBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}

	params := ledger.UpdateParams{
		Amount:           body.Amount,
		Date:             body.Date,
		Description:      body.Description,
		SystemCategoryID: body.SystemCategoryID,
		UserCategoryID:   body.UserCategoryID,
	}
	if body.Kind != nil {
		kind := model.TransactionKind(*body.Kind)
		params.Kind = &kind
	}

	tx, err := s.ledger.Update(r.Context(), id, userIDFrom(r), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(tx))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	deleted, err := s.ledger.Delete(r.Context(), id, userIDFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		writeError(w, fmt.Errorf("%w: expense %d", common.ErrNotFound, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	names, err := s.categories.ListCombined(r.Context(), userIDFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": names})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}

	cat, err := s.categories.Create(r.Context(), userIDFrom(r), body.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":   cat.ID,
		"key":  cat.Key,
		"name": cat.DisplayName,
	})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	deleted, err := s.categories.Delete(r.Context(), id, userIDFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		writeError(w, fmt.Errorf("%w: category %d", common.ErrNotFound, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
