package auth

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyapp/tally/internal/common"
	"github.com/tallyapp/tally/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))

	return NewService(store, NewTokenIssuer([]byte("test-secret"), time.Hour, nil))
}

func validParams() RegisterParams {
	return RegisterParams{
		Email:     "ada@example.com",
		Password:  "correct horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
}

func TestRegister(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, validParams())
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "Ada", user.FirstName)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := svc.Register(ctx, validParams())
		assert.ErrorIs(t, err, common.ErrConflict)
	})

	t.Run("email is normalized", func(t *testing.T) {
		params := validParams()
		params.Email = "  ADA@Example.COM  "
		_, err := svc.Register(ctx, params)
		assert.ErrorIs(t, err, common.ErrConflict)
	})
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*RegisterParams)
	}{
		{"empty email", func(p *RegisterParams) { p.Email = "" }},
		{"malformed email", func(p *RegisterParams) { p.Email = "not-an-email" }},
		{"short password", func(p *RegisterParams) { p.Password = "short" }},
		{"empty first name", func(p *RegisterParams) { p.FirstName = "   " }},
		{"empty last name", func(p *RegisterParams) { p.LastName = "" }},
		{"first name too long", func(p *RegisterParams) { p.FirstName = strings.Repeat("x", 51) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validParams()
			tt.mutate(&params)
			_, err := svc.Register(ctx, params)
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})
	}
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, validParams())
	require.NoError(t, err)

	user, token, err := svc.Login(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	userID, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, userID)

	t.Run("case-insensitive email", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "ADA@EXAMPLE.COM", "correct horse")
		assert.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "ada@example.com", "wrong password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody@example.com", "correct horse")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
