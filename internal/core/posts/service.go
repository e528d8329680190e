package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"Murmur/internal/core/blobs"
	"Murmur/internal/core/session"
	"Murmur/internal/events"
)

// DefaultMaxUploadBytes caps a single media upload (25 MiB)
const DefaultMaxUploadBytes = 25 << 20

// maxBlobStem caps the part of the uploaded filename kept in a blob key
const maxBlobStem = 64

const maxTextLength = 5000

type postService struct {
	repo           Repository
	blobs          blobs.Store
	publisher      events.Publisher
	logger         *slog.Logger
	now            func() time.Time
	maxUploadBytes int64
}

// NewService creates a new post service
func NewService(repo Repository, blobStore blobs.Store, publisher events.Publisher, maxUploadBytes int64, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.Discard
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &postService{
		repo:           repo,
		blobs:          blobStore,
		publisher:      publisher,
		logger:         logger,
		now:            time.Now,
		maxUploadBytes: maxUploadBytes,
	}
}

// CreatePost validates the draft, uploads a local file when present and
// stores the record. CreatedAt comes from the database clock.
func (s *postService) CreatePost(ctx context.Context, identity session.Identity, draft Draft) (*Post, error) {
	if err := session.Require(identity); err != nil {
		return nil, err
	}
	if draft.IsEmpty() {
		return nil, ErrEmptyPost
	}

	post := &Post{
		AuthorEmail: identity.String(),
		Viewers:     []string{},
		LikeCount:   0,
	}

	if text := strings.TrimSpace(draft.Text); text != "" {
		if utf8.RuneCountInString(text) > maxTextLength {
			return nil, NewValidationError("text", fmt.Sprintf("text must be at most %d characters", maxTextLength))
		}
		post.Text = &text
	}

	switch {
	case draft.File != nil:
		mediaURL, mediaType, err := s.uploadFile(ctx, draft.File)
		if err != nil {
			return nil, err
		}
		post.MediaURL = &mediaURL
		post.MediaType = &mediaType
	case strings.TrimSpace(draft.MediaURL) != "":
		mediaURL, mediaType, err := validateMediaURL(draft.MediaURL, draft.MediaType)
		if err != nil {
			return nil, err
		}
		post.MediaURL = &mediaURL
		post.MediaType = &mediaType
	}

	if err := s.repo.Create(ctx, post); err != nil {
		s.logger.Error("failed to create post", "error", err, "author", identity)
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.logger.Info("post created", "post_id", post.ID, "author", identity, "has_media", post.MediaURL != nil)
	s.publish(ctx, events.Change{Kind: events.KindCreated, PostID: post.ID, Actor: identity.String()})
	return post, nil
}

// DeletePost removes a post owned by identity
func (s *postService) DeletePost(ctx context.Context, identity session.Identity, postID string) error {
	if err := session.Require(identity); err != nil {
		return err
	}
	if strings.TrimSpace(postID) == "" {
		return NewValidationError("id", "post id is required")
	}

	existing, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if existing.AuthorEmail != identity.String() {
		s.logger.Warn("rejected delete by non-author", "post_id", postID, "actor", identity, "author", existing.AuthorEmail)
		return ErrNotAuthorized
	}

	if err := s.repo.Delete(ctx, postID, identity.String()); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete post: %w", err)
	}

	s.logger.Info("post deleted", "post_id", postID, "author", identity)
	s.publish(ctx, events.Change{Kind: events.KindDeleted, PostID: postID, Actor: identity.String()})
	return nil
}

func (s *postService) GetPost(ctx context.Context, postID string) (*Post, error) {
	return s.repo.GetByID(ctx, postID)
}

func (s *postService) ListRecent(ctx context.Context, query ListQuery) ([]*Post, error) {
	return s.repo.ListRecent(ctx, query.Normalize())
}

func (s *postService) uploadFile(ctx context.Context, file *Upload) (string, MediaType, error) {
	if len(file.Data) == 0 {
		return "", "", NewValidationError("file", "file is empty")
	}
	if int64(len(file.Data)) > s.maxUploadBytes {
		return "", "", NewValidationError("file", fmt.Sprintf("file exceeds maximum size of %d bytes", s.maxUploadBytes))
	}

	contentType := blobs.SniffMimeType(file.ContentType, file.Data)
	var mediaType MediaType
	switch {
	case blobs.IsImage(contentType):
		mediaType = MediaImage
	case blobs.IsVideo(contentType):
		mediaType = MediaVideo
	default:
		return "", "", NewValidationError("file", "unsupported media type: "+contentType)
	}

	key := BlobKey(s.now(), file.Filename, contentType)
	mediaURL, err := s.blobs.Upload(ctx, key, file.Data, contentType)
	if err != nil {
		s.logger.Error("failed to upload media", "error", err, "key", key)
		return "", "", fmt.Errorf("failed to upload media: %w", err)
	}
	return mediaURL, mediaType, nil
}

func (s *postService) publish(ctx context.Context, change events.Change) {
	change.At = s.now().UTC()
	if err := s.publisher.PublishChange(ctx, change); err != nil {
		s.logger.Warn("failed to publish post change", "error", err, "post_id", change.PostID, "kind", change.Kind)
	}
}

// BlobKey builds the collision-resistant storage key posts/<unix-nanos>_<stem><ext>.
// The stem keeps only URL-safe characters from the uploaded name and the
// extension always follows the sniffed content type.
func BlobKey(at time.Time, filename, contentType string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.TrimSuffix(name, path.Ext(name))

	var stem strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			stem.WriteRune(r)
		case stem.Len() > 0 && !strings.HasSuffix(stem.String(), "-"):
			stem.WriteByte('-')
		}
		if stem.Len() >= maxBlobStem {
			break
		}
	}
	clean := strings.Trim(stem.String(), "-")
	if clean == "" {
		clean = "upload"
	}
	return fmt.Sprintf("posts/%d_%s%s", at.UnixNano(), clean, blobs.ExtensionForMimeType(contentType))
}

// validateMediaURL accepts a pasted URL verbatim; only the scheme is checked
func validateMediaURL(raw string, mediaType MediaType) (string, MediaType, error) {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", "", NewValidationError("mediaUrl", "media URL must be an http or https URL")
	}
	if mediaType == "" {
		mediaType = MediaImage
	}
	if !mediaType.Valid() {
		return "", "", NewValidationError("mediaType", "media type must be 'image' or 'video'")
	}
	return raw, mediaType, nil
}
