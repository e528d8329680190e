package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"Murmur/internal/core/accounts"
)

type postgresAccountRepo struct {
	db *sql.DB
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(db *sql.DB) accounts.Repository {
	return &postgresAccountRepo{db: db}
}

// Create inserts a new account and fills CreatedAt
func (r *postgresAccountRepo) Create(ctx context.Context, account *accounts.Account) error {
	query := `
		INSERT INTO accounts (email, password_hash)
		VALUES ($1, $2)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, account.Email, account.PasswordHash).Scan(&account.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return accounts.ErrEmailTaken
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByEmail retrieves an account by its email
func (r *postgresAccountRepo) GetByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	account := &accounts.Account{}
	query := `SELECT email, password_hash, created_at FROM accounts WHERE email = $1`

	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&account.Email, &account.PasswordHash, &account.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, accounts.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return account, nil
}
