package routes

import (
	"github.com/go-chi/chi/v5"

	"Murmur/internal/api/handlers/auth"
	"Murmur/internal/api/middleware"
	"Murmur/internal/core/accounts"
)

// RegisterAuthRoutes registers sign-up, sign-in, sign-out and session routes
func RegisterAuthRoutes(r chi.Router, service accounts.Service, sessions auth.SessionStore, authMiddleware *middleware.AuthMiddleware) {
	credentialsHandler := auth.NewCredentialsHandler(service, sessions)
	sessionHandler := auth.NewSessionHandler(sessions)

	r.Post("/auth/signup", credentialsHandler.HandleSignUp)
	r.Post("/auth/signin", credentialsHandler.HandleSignIn)

	// Sign-out needs no identity: clearing an absent session is harmless
	r.Post("/auth/signout", sessionHandler.HandleSignOut)

	r.With(authMiddleware.OptionalAuth).Get("/auth/session", sessionHandler.HandleGetSession)
}
