package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyapp/tally/internal/auth"
	"github.com/tallyapp/tally/internal/category"
	"github.com/tallyapp/tally/internal/ledger"
	"github.com/tallyapp/tally/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	accounts := auth.NewService(store, auth.NewTokenIssuer([]byte("test-secret"), time.Hour, nil))
	srv := New(
		ledger.NewService(store, ledger.DefaultSlowQueryThreshold),
		category.NewService(store),
		accounts,
	)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func registerAndLogin(t *testing.T, ts *httptest.Server, email string) string {
	t.Helper()

	resp, _ := doJSON(t, ts, http.MethodPost, "/register", "", map[string]any{
		"email":      email,
		"password":   "hunter2hunter2",
		"first_name": "Test",
		"last_name":  "User",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, ts, http.MethodPost, "/login", "", map[string]any{
		"email":    email,
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	token, ok := body["token"].(string)
	require.True(t, ok)
	return token
}

func TestExpenseLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "ada@example.com")

	resp, created := doJSON(t, ts, http.MethodPost, "/expenses", token, map[string]any{
		"amount":      "12.50",
		"kind":        "expense",
		"date":        "2025-03-10",
		"description": "Lunch",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "12.5", created["amount"])
	assert.Equal(t, "2025-03-10", created["date"])

	id := int64(created["id"].(float64))

	resp, fetched := doJSON(t, ts, http.MethodGet, fmt.Sprintf("/expenses/%d", id), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Lunch", fetched["description"])

	resp, updated := doJSON(t, ts, http.MethodPut, fmt.Sprintf("/expenses/%d", id), token, map[string]any{
		"description": "Team lunch",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Team lunch", updated["description"])
	assert.Equal(t, "12.5", updated["amount"])

	resp, _ = doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/expenses/%d", id), token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/expenses/%d", id), token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListExpenses(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "ada@example.com")

	for i := 1; i <= 3; i++ {
		resp, _ := doJSON(t, ts, http.MethodPost, "/expenses", token, map[string]any{
			"amount":      fmt.Sprintf("%d.00", i*10),
			"kind":        "expense",
			"date":        fmt.Sprintf("2025-03-%02d", i),
			"description": fmt.Sprintf("entry %d", i),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp, _ := doJSON(t, ts, http.MethodPost, "/expenses", token, map[string]any{
		"amount": "100.00",
		"kind":   "income",
		"date":   "2025-03-15",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, ts, http.MethodGet, "/expenses?per_page=2", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	items := body["items"].([]any)
	assert.Len(t, items, 2)

	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, float64(4), pagination["total_items"])
	assert.Equal(t, float64(2), pagination["total_pages"])
	assert.Equal(t, false, pagination["has_previous"])
	assert.Equal(t, true, pagination["has_next"])

	// Default order is date descending, so page one holds the two most
	// recent entries: the income row and entry 3.
	summary := body["summary"].(map[string]any)
	assert.Equal(t, float64(2), summary["count"])
	assert.Equal(t, "30", summary["total_expenses"])
	assert.Equal(t, "100", summary["total_income"])
	assert.Equal(t, "70", summary["net"])

	t.Run("unknown sort field rejected", func(t *testing.T) {
		resp, _ := doJSON(t, ts, http.MethodGet, "/expenses?sort_by=description", token, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("kind filter", func(t *testing.T) {
		resp, body := doJSON(t, ts, http.MethodGet, "/expenses?kind=income", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, body["items"].([]any), 1)
	})
}

func TestOwnershipIsolation(t *testing.T) {
	ts := newTestServer(t)
	aliceToken := registerAndLogin(t, ts, "alice@example.com")
	bobToken := registerAndLogin(t, ts, "bob@example.com")

	resp, created := doJSON(t, ts, http.MethodPost, "/expenses", aliceToken, map[string]any{
		"amount": "50.00",
		"kind":   "expense",
		"date":   "2025-01-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := int64(created["id"].(float64))

	resp, _ = doJSON(t, ts, http.MethodGet, fmt.Sprintf("/expenses/%d", id), bobToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/expenses/%d", id), bobToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodGet, fmt.Sprintf("/expenses/%d", id), aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCategories(t *testing.T) {
	ts := newTestServer(t)
	token := registerAndLogin(t, ts, "ada@example.com")

	resp, created := doJSON(t, ts, http.MethodPost, "/categories", token, map[string]any{
		"name": "Coffee Shop",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "COFFEE_SHOP", created["key"])

	t.Run("system name conflicts", func(t *testing.T) {
		resp, _ := doJSON(t, ts, http.MethodPost, "/categories", token, map[string]any{
			"name": "groceries",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("combined listing includes both namespaces", func(t *testing.T) {
		resp, body := doJSON(t, ts, http.MethodGet, "/categories", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		names := body["categories"].([]any)
		assert.Contains(t, names, "Coffee Shop")
		assert.Contains(t, names, "Groceries")
	})

	t.Run("invalid name", func(t *testing.T) {
		resp, _ := doJSON(t, ts, http.MethodPost, "/categories", token, map[string]any{
			"name": "bad!name",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := doJSON(t, ts, http.MethodGet, "/expenses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, ts, http.MethodGet, "/expenses", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
