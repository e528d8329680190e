package accounts

import (
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength matches the auth backend the feed was built against
const MinPasswordLength = 6

const maxPasswordLength = 72 // bcrypt ignores anything past 72 bytes

// HashPassword hashes a password with bcrypt's default cost
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash reports whether password matches hash
func CheckPasswordHash(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword enforces length bounds
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return &WeakPasswordError{Reason: "must be at least 6 characters"}
	}
	if len(password) > maxPasswordLength {
		return &WeakPasswordError{Reason: "must be at most 72 bytes"}
	}
	return nil
}

// ValidateEmail accepts a bare address such as a@x.com
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return &InvalidEmailError{Email: email}
	}
	return nil
}
