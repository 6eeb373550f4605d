// Package server exposes the ledger over HTTP. Handlers translate JSON
// and query strings into service calls and never touch SQL themselves.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tallyapp/tally/internal/auth"
	"github.com/tallyapp/tally/internal/category"
	"github.com/tallyapp/tally/internal/ledger"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Server wires the HTTP surface to the application services.
type Server struct {
	ledger     *ledger.Service
	categories *category.Service
	accounts   *auth.Service
}

// New creates a server over the given services.
func New(ledgerSvc *ledger.Service, categorySvc *category.Service, accountSvc *auth.Service) *Server {
	return &Server{
		ledger:     ledgerSvc,
		categories: categorySvc,
		accounts:   accountSvc,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)

	mux.Handle("GET /me", s.authenticated(s.handleMe))

	mux.Handle("GET /expenses", s.authenticated(s.handleListExpenses))
	mux.Handle("POST /expenses", s.authenticated(s.handleCreateExpense))
	mux.Handle("GET /expenses/{id}", s.authenticated(s.handleGetExpense))
	mux.Handle("PUT /expenses/{id}", s.authenticated(s.handleUpdateExpense))
	mux.Handle("DELETE /expenses/{id}", s.authenticated(s.handleDeleteExpense))

	mux.Handle("GET /categories", s.authenticated(s.handleListCategories))
	mux.Handle("POST /categories", s.authenticated(s.handleCreateCategory))
	mux.Handle("DELETE /categories/{id}", s.authenticated(s.handleDeleteCategory))

	return logRequests(mux)
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// authenticated resolves the bearer token and stashes the user id in the
// request context.
func (s *Server) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, auth.ErrInvalidToken)
			return
		}

		userID, err := s.accounts.VerifyToken(token)
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFrom(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"elapsed", time.Since(start))
	})
}
