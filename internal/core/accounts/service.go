package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"Murmur/internal/core/session"
)

type accountService struct {
	repo   Repository
	tokens *TokenIssuer
	logger *slog.Logger
}

// NewService creates a new account service
func NewService(repo Repository, tokens *TokenIssuer, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &accountService{
		repo:   repo,
		tokens: tokens,
		logger: logger,
	}
}

// CreateAccount validates input, stores a bcrypt hash and signs the user in
func (s *accountService) CreateAccount(ctx context.Context, email, password string) (*AuthResult, error) {
	identity := session.NewIdentity(email)
	if err := ValidateEmail(identity.String()); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &Account{
		Email:        identity.String(),
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("account created", "email", identity)
	return s.issue(identity)
}

// SignIn verifies the password. Unknown emails and wrong passwords are indistinguishable.
func (s *accountService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	identity := session.NewIdentity(email)
	if !identity.SignedIn() || password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.repo.GetByEmail(ctx, identity.String())
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if !CheckPasswordHash(account.PasswordHash, password) {
		s.logger.Warn("sign-in rejected", "email", identity)
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("signed in", "email", identity)
	return s.issue(account.Identity())
}

func (s *accountService) VerifyToken(token string) (session.Identity, error) {
	return s.tokens.Verify(token)
}

func (s *accountService) issue(identity session.Identity) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(identity)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Identity:    identity,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}
