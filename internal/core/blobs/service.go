package blobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Store persists uploaded media and returns a retrievable URL for it
type Store interface {
	// Upload writes data under key and returns the public URL
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

var (
	// ErrInvalidKey is returned for empty keys or keys escaping the blob root
	ErrInvalidKey = errors.New("invalid blob key")

	// ErrEmptyBlob is returned when uploading zero bytes
	ErrEmptyBlob = errors.New("blob data cannot be empty")
)

// FileStore keeps blobs on the local filesystem and serves them under /blobs/
type FileStore struct {
	logger  *slog.Logger
	root    string
	baseURL string
}

// NewFileStore creates the blob directory if needed.
// baseURL is the externally visible server URL, e.g. http://localhost:8080
func NewFileStore(root, baseURL string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &FileStore{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}, nil
}

// Upload writes the blob atomically (temp file + rename)
func (s *FileStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyBlob
	}

	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close blob: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return "", fmt.Errorf("failed to store blob: %w", err)
	}

	s.logger.Info("blob stored", "key", clean, "size", len(data), "content_type", contentType)
	return PublicURL(s.baseURL, clean), nil
}

// Handler serves stored blobs read-only. Mount it with the /blobs/ prefix stripped.
// The Content-Type comes from the stored extension and is never sniffed by browsers.
func (s *FileStore) Handler() http.Handler {
	files := http.FileServer(noDirFS{http.Dir(s.root)})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", MimeTypeForName(r.URL.Path))
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; sandbox")
		files.ServeHTTP(w, r)
	})
}

// PublicURL builds the retrieval URL for a blob key, escaping each path segment
func PublicURL(baseURL, key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.TrimSuffix(baseURL, "/") + "/blobs/" + strings.Join(segments, "/")
}

func cleanKey(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	clean := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." || strings.HasPrefix(clean, "..") {
		return "", ErrInvalidKey
	}
	return clean, nil
}

// noDirFS hides directory listings
type noDirFS struct {
	fs http.FileSystem
}

func (n noDirFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if stat.IsDir() {
		_ = f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
