package accounts

import (
	"context"

	"Murmur/internal/core/session"
)

// Service defines the business logic for email/password accounts
type Service interface {
	// CreateAccount registers a new account and returns a signed-in result
	CreateAccount(ctx context.Context, email, password string) (*AuthResult, error)

	// SignIn checks credentials and returns a signed-in result
	SignIn(ctx context.Context, email, password string) (*AuthResult, error)

	// VerifyToken resolves an access token to an identity
	VerifyToken(token string) (session.Identity, error)
}

// Repository defines the data access interface for accounts
type Repository interface {
	// Create returns ErrEmailTaken on a duplicate email
	Create(ctx context.Context, account *Account) error

	// GetByEmail returns ErrAccountNotFound when no account matches
	GetByEmail(ctx context.Context, email string) (*Account, error)
}
