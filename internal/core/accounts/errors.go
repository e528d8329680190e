package accounts

import (
	"errors"
	"fmt"
)

// Sentinel errors for common account operations
var (
	// ErrAccountNotFound is returned when an email lookup finds no matching record
	ErrAccountNotFound = errors.New("account not found")

	// ErrEmailTaken is returned when signing up with an email that already has an account
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned for an unknown email or a wrong password
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken is returned for malformed, forged or expired access tokens
	ErrInvalidToken = errors.New("invalid or expired token")
)

type InvalidEmailError struct {
	Email string
}

func (e *InvalidEmailError) Error() string {
	return fmt.Sprintf("invalid email address: %q", e.Email)
}

type WeakPasswordError struct {
	Reason string
}

func (e *WeakPasswordError) Error() string {
	return fmt.Sprintf("password does not meet strength requirements: %s", e.Reason)
}

// IsInputError reports whether err was caused by bad sign-up input
func IsInputError(err error) bool {
	var emailErr *InvalidEmailError
	var passErr *WeakPasswordError
	return errors.As(err, &emailErr) || errors.As(err, &passErr)
}
