package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"Murmur/internal/core/posts"
)

const postColumns = `id, author_email, text, media_url, media_type, viewers, like_count, created_at`

type postgresPostRepo struct {
	db *sql.DB
}

// PostRepository is the storage for posts: CRUD for the post service and the
// row-locked viewers update for the like service
type PostRepository interface {
	posts.Repository
	UpdateViewers(ctx context.Context, postID string, fn func(viewers []string) ([]string, error)) (*posts.Post, error)
}

// NewPostRepository creates a new PostgreSQL post repository
func NewPostRepository(db *sql.DB) PostRepository {
	return &postgresPostRepo{db: db}
}

// Create inserts a new post. ID is generated here; created_at comes from the database clock.
func (r *postgresPostRepo) Create(ctx context.Context, post *posts.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.Viewers == nil {
		post.Viewers = []string{}
	}

	var mediaType sql.NullString
	if post.MediaType != nil {
		mediaType = sql.NullString{String: string(*post.MediaType), Valid: true}
	}

	query := `
		INSERT INTO posts (id, author_email, text, media_url, media_type, viewers, like_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		post.ID, post.AuthorEmail, post.Text, post.MediaURL, mediaType,
		pq.Array(post.Viewers), len(post.Viewers),
	).Scan(&post.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	post.LikeCount = len(post.Viewers)
	return nil
}

// GetByID retrieves a post by its ID
func (r *postgresPostRepo) GetByID(ctx context.Context, id string) (*posts.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, posts.ErrNotFound
	}

	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, posts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// Delete removes a post owned by authorEmail
func (r *postgresPostRepo) Delete(ctx context.Context, id, authorEmail string) error {
	if _, err := uuid.Parse(id); err != nil {
		return posts.ErrNotFound
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND author_email = $2`, id, authorEmail)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return posts.ErrNotFound
	}
	return nil
}

// ListRecent returns the newest (or most liked) posts, descending, ties broken by id
func (r *postgresPostRepo) ListRecent(ctx context.Context, query posts.ListQuery) ([]*posts.Post, error) {
	query = query.Normalize()

	var order string
	switch query.OrderBy {
	case posts.OrderLikeCount:
		order = `like_count DESC, created_at DESC, id DESC`
	default:
		order = `created_at DESC, id DESC`
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts ORDER BY `+order+` LIMIT $1`, query.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]*posts.Post, 0, query.Limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return result, nil
}

// UpdateViewers locks the post row, applies fn to its viewers and writes the
// result with like_count derived from the same array, all in one transaction
func (r *postgresPostRepo) UpdateViewers(ctx context.Context, postID string, fn func([]string) ([]string, error)) (*posts.Post, error) {
	if _, err := uuid.Parse(postID); err != nil {
		return nil, posts.ErrNotFound
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && rollbackErr != sql.ErrTxDone {
			slog.Error("failed to rollback transaction", "post_id", postID, "error", rollbackErr)
		}
	}()

	var viewers []string
	err = tx.QueryRowContext(ctx, `SELECT viewers FROM posts WHERE id = $1 FOR UPDATE`, postID).
		Scan(pq.Array(&viewers))
	if err == sql.ErrNoRows {
		return nil, posts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock post: %w", err)
	}

	next, err := fn(viewers)
	if err != nil {
		return nil, err
	}
	if next == nil {
		next = []string{}
	}

	query := `
		UPDATE posts
		SET viewers = $2::text[], like_count = cardinality($2::text[])
		WHERE id = $1
		RETURNING ` + postColumns

	post, err := scanPost(tx.QueryRowContext(ctx, query, postID, pq.Array(next)))
	if err != nil {
		return nil, fmt.Errorf("failed to update viewers: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return post, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (*posts.Post, error) {
	post := &posts.Post{}
	var text, mediaURL, mediaType sql.NullString
	var viewers []string

	err := row.Scan(&post.ID, &post.AuthorEmail, &text, &mediaURL, &mediaType,
		pq.Array(&viewers), &post.LikeCount, &post.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}

	if text.Valid {
		post.Text = &text.String
	}
	if mediaURL.Valid {
		post.MediaURL = &mediaURL.String
	}
	if mediaType.Valid {
		mt := posts.MediaType(mediaType.String)
		post.MediaType = &mt
	}
	if viewers == nil {
		viewers = []string{}
	}
	post.Viewers = viewers
	return post, nil
}
