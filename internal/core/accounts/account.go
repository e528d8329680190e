package accounts

import (
	"time"

	"Murmur/internal/core/session"
)

// Account is a registered user. Email is the identity used everywhere else.
type Account struct {
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
}

// Identity returns the session identity for the account
func (a *Account) Identity() session.Identity {
	return session.Identity(a.Email)
}

// AuthResult is returned by sign-up and sign-in
type AuthResult struct {
	Identity    session.Identity `json:"identity"`
	AccessToken string           `json:"accessToken"`
	ExpiresAt   time.Time        `json:"expiresAt"`
}
