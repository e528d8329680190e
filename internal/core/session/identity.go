package session

import (
	"errors"
	"strings"
)

// Identity is the email of the signed-in user. The zero value means signed out.
type Identity string

// Anonymous is the identity of a signed-out caller.
const Anonymous Identity = ""

// ErrSignInRequired is returned by every mutating operation invoked without an identity.
var ErrSignInRequired = errors.New("must sign in")

// NewIdentity normalizes an email into an identity
func NewIdentity(email string) Identity {
	return Identity(strings.ToLower(strings.TrimSpace(email)))
}

// SignedIn reports whether the identity belongs to a signed-in user
func (i Identity) SignedIn() bool {
	return i != Anonymous
}

func (i Identity) String() string {
	return string(i)
}

// Require returns ErrSignInRequired when the identity is anonymous.
func Require(identity Identity) error {
	if !identity.SignedIn() {
		return ErrSignInRequired
	}
	return nil
}
