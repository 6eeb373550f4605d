// Package auth handles account registration and login. It hands the
// ledger and category cores nothing but the authenticated user id.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/tallyapp/tally/internal/common"
	"github.com/tallyapp/tally/internal/model"
)

// Registration constraints.
const (
	MinPasswordLength = 8
	MaxNameLength     = 50
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ErrInvalidCredentials is returned for a bad email/password pair. Wrong
// email and wrong password produce the same failure.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Store is the persistence surface the account layer drives.
type Store interface {
	CreateUser(ctx context.Context, email, passwordHash, firstName, lastName string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// Service handles registration, login and token verification.
type Service struct {
	store  Store
	tokens *TokenIssuer
}

// NewService creates an account service.
func NewService(store Store, tokens *TokenIssuer) *Service {
	return &Service{store: store, tokens: tokens}
}

// RegisterParams holds the registration inputs.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register validates the inputs, hashes the password and creates the
// account. A duplicate email surfaces as a conflict.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	firstName := strings.TrimSpace(params.FirstName)
	lastName := strings.TrimSpace(params.LastName)

	if email == "" || params.Password == "" || firstName == "" || lastName == "" {
		return nil, fmt.Errorf("%w: all fields are required", common.ErrInvalidInput)
	}
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email format", common.ErrInvalidInput)
	}
	if len(params.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrInvalidInput, MinPasswordLength)
	}
	if len(firstName) > MaxNameLength || len(lastName) > MaxNameLength {
		return nil, fmt.Errorf("%w: names must be %d characters or less", common.ErrInvalidInput, MaxNameLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, email, string(hash), firstName, lastName)
	if err != nil {
		return nil, err
	}

	slog.Info("registered user", "id", user.ID)
	return user, nil
}

// Login checks the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// VerifyToken resolves a session token to its user id.
func (s *Service) VerifyToken(token string) (int64, error) {
	return s.tokens.Verify(token)
}

// GetUser returns the account for an authenticated user id.
func (s *Service) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.store.GetUserByID(ctx, id)
}
