package middleware

import (
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"

	"Murmur/internal/core/session"
)

const (
	// SessionCookieName is the browser session cookie
	SessionCookieName = "murmur_session"
	sessionIdentity   = "identity"

	// MinCookieSecretLength is the minimum secret size for signing cookies
	MinCookieSecretLength = 32
)

// CookieSessions stores the signed-in identity in a signed cookie
type CookieSessions struct {
	store *sessions.CookieStore
}

// NewCookieSessions creates the cookie store. secure marks cookies HTTPS-only.
func NewCookieSessions(secret string, secure bool) (*CookieSessions, error) {
	if len(secret) < MinCookieSecretLength {
		return nil, fmt.Errorf("SESSION_SECRET must be at least %d bytes for security", MinCookieSecretLength)
	}
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieSessions{store: store}, nil
}

// Identity returns the identity stored in the request's cookie, or Anonymous
func (c *CookieSessions) Identity(r *http.Request) session.Identity {
	httpSession, err := c.store.Get(r, SessionCookieName)
	if err != nil || httpSession.IsNew {
		return session.Anonymous
	}
	email, ok := httpSession.Values[sessionIdentity].(string)
	if !ok {
		return session.Anonymous
	}
	return session.NewIdentity(email)
}

// Save starts a cookie session for identity
func (c *CookieSessions) Save(w http.ResponseWriter, r *http.Request, identity session.Identity) error {
	// Get ignores decode errors for a fresh session, so a stale cookie is simply replaced
	httpSession, _ := c.store.Get(r, SessionCookieName)
	httpSession.Values[sessionIdentity] = identity.String()
	if err := httpSession.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear expires the session cookie
func (c *CookieSessions) Clear(w http.ResponseWriter, r *http.Request) error {
	httpSession, _ := c.store.Get(r, SessionCookieName)
	httpSession.Values = map[interface{}]interface{}{}
	httpSession.Options.MaxAge = -1
	if err := httpSession.Save(r, w); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
