package posts

import (
	"context"

	"Murmur/internal/core/session"
)

// Service defines the business logic interface for posts.
// Every mutation takes the acting identity explicitly.
type Service interface {
	// CreatePost uploads any attached file, then stores a new post with
	// zero likes. Anonymous callers get session.ErrSignInRequired and
	// nothing is written.
	CreatePost(ctx context.Context, identity session.Identity, draft Draft) (*Post, error)

	// DeletePost removes a post. Only its author may delete it.
	DeletePost(ctx context.Context, identity session.Identity, postID string) error

	// GetPost retrieves a single post
	GetPost(ctx context.Context, postID string) (*Post, error)

	// ListRecent returns one snapshot of the feed window
	ListRecent(ctx context.Context, query ListQuery) ([]*Post, error)
}

// Repository defines the data access interface for posts
type Repository interface {
	// Create inserts the post and fills ID and CreatedAt from the database
	Create(ctx context.Context, post *Post) error

	// GetByID returns ErrNotFound when the post does not exist
	GetByID(ctx context.Context, id string) (*Post, error)

	// Delete removes the post if authorEmail owns it.
	// Returns ErrNotFound when no row matched.
	Delete(ctx context.Context, id, authorEmail string) error

	// ListRecent returns posts ordered by the query key, descending
	ListRecent(ctx context.Context, query ListQuery) ([]*Post, error)
}
