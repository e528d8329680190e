package likes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"Murmur/internal/core/posts"
	"Murmur/internal/core/session"
	"Murmur/internal/events"
)

type likeService struct {
	repo      Repository
	publisher events.Publisher
	logger    *slog.Logger
}

// NewService creates a new like service
func NewService(repo Repository, publisher events.Publisher, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.Discard
	}
	return &likeService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// React runs the reducer inside the repository's row lock so concurrent
// likers never overwrite each other's membership
func (s *likeService) React(ctx context.Context, identity session.Identity, postID string, action Action) (*posts.Post, error) {
	if err := session.Require(identity); err != nil {
		return nil, err
	}
	if !action.Valid() {
		return nil, ErrInvalidAction
	}
	if strings.TrimSpace(postID) == "" {
		return nil, posts.NewValidationError("id", "post id is required")
	}

	var result Result
	post, err := s.repo.UpdateViewers(ctx, postID, func(viewers []string) ([]string, error) {
		r, err := Apply(viewers, identity, action)
		if err != nil {
			return nil, err
		}
		result = r
		return r.Viewers, nil
	})
	if err != nil {
		if errors.Is(err, posts.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to apply like",
			"error", err,
			"post_id", postID,
			"actor", identity,
			"action", action)
		return nil, fmt.Errorf("failed to update likes: %w", err)
	}

	s.logger.Info("like applied",
		"post_id", postID,
		"actor", identity,
		"action", action,
		"liked", result.Liked,
		"like_count", post.LikeCount)

	if result.Changed {
		change := events.Change{At: time.Now().UTC(), Kind: events.KindReacted, PostID: postID, Actor: identity.String()}
		if err := s.publisher.PublishChange(ctx, change); err != nil {
			s.logger.Warn("failed to publish like change", "error", err, "post_id", postID)
		}
	}
	return post, nil
}
