package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"Murmur/internal/core/session"
)

// Context keys for storing user information
type contextKey string

const (
	IdentityKey contextKey = "identity"
)

// TokenVerifier resolves a bearer token to an identity
type TokenVerifier interface {
	VerifyToken(token string) (session.Identity, error)
}

// AuthMiddleware extracts the caller's identity from the session cookie or a
// Bearer token. It never enforces ownership; services do that with the
// identity handlers pass them.
type AuthMiddleware struct {
	cookies  *CookieSessions
	verifier TokenVerifier
}

// NewAuthMiddleware creates the auth middleware. Either source may be nil.
func NewAuthMiddleware(cookies *CookieSessions, verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		cookies:  cookies,
		verifier: verifier,
	}
}

// OptionalAuth loads the identity if present and continues either way
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, _ := m.resolve(r)
		if identity.SignedIn() {
			r = r.WithContext(SetIdentity(r.Context(), identity))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects signed-out requests with 401 SignInRequired before any
// handler runs
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, reason := m.resolve(r)
		if !identity.SignedIn() {
			if reason != "" {
				log.Printf("[AUTH_FAILURE] type=%s ip=%s method=%s path=%s",
					reason, r.RemoteAddr, r.Method, r.URL.Path)
			}
			writeAuthError(w, "You must sign in to do that")
			return
		}
		next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), identity)))
	})
}

// resolve prefers a Bearer token over the cookie. reason explains a rejected token.
func (m *AuthMiddleware) resolve(r *http.Request) (session.Identity, string) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return session.Anonymous, "bad_header"
		}
		if m.verifier == nil {
			return session.Anonymous, "no_verifier"
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		identity, err := m.verifier.VerifyToken(token)
		if err != nil {
			return session.Anonymous, "verification_failed"
		}
		return identity, ""
	}

	if m.cookies != nil {
		return m.cookies.Identity(r), ""
	}
	return session.Anonymous, ""
}

// GetIdentity extracts the caller's identity from the request context.
// Returns session.Anonymous if not signed in.
func GetIdentity(r *http.Request) session.Identity {
	identity, _ := r.Context().Value(IdentityKey).(session.Identity)
	return identity
}

// SetIdentity stores identity in ctx. Handler tests use it to simulate a signed-in user.
func SetIdentity(ctx context.Context, identity session.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// writeAuthError writes a JSON error response for authentication failures
func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	response := `{"error":"SignInRequired","message":"` + message + `"}`
	if _, err := w.Write([]byte(response)); err != nil {
		log.Printf("Failed to write auth error response: %v", err)
	}
}
