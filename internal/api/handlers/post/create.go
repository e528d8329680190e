package post

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"Murmur/internal/api/handlers"
	"Murmur/internal/api/middleware"
	"Murmur/internal/core/posts"
)

// multipartMemory is how much of a multipart form is held in memory before
// spilling to temp files
const multipartMemory = 8 << 20

// CreatePostRequest is the JSON form of a submission with no local file
type CreatePostRequest struct {
	Text      string `json:"text"`
	MediaURL  string `json:"mediaUrl,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
}

// CreateHandler handles post creation
type CreateHandler struct {
	service        posts.Service
	maxUploadBytes int64
}

// NewCreateHandler creates a new create handler. maxUploadBytes bounds the
// whole request body.
func NewCreateHandler(service posts.Service, maxUploadBytes int64) *CreateHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = posts.DefaultMaxUploadBytes
	}
	return &CreateHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
	}
}

// HandleCreate creates a post from multipart form data or JSON.
// POST /posts
func (h *CreateHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	// Room for the form fields on top of the largest accepted file
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+64*1024)

	draft, err := h.parseDraft(r)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			handleServiceError(w, err)
			return
		}
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}

	post, err := h.service.CreatePost(r.Context(), middleware.GetIdentity(r), draft)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, http.StatusCreated, post)
}

func (h *CreateHandler) parseDraft(r *http.Request) (posts.Draft, error) {
	var draft posts.Draft

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req CreatePostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				return draft, err
			}
			return draft, errors.New("invalid request body")
		}
		draft.SetText(req.Text)
		if req.MediaURL != "" {
			draft.SetMediaURL(req.MediaURL, posts.MediaType(req.MediaType))
		}
		return draft, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return draft, err
		}
		return draft, errors.New("invalid multipart form")
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	draft.SetText(r.FormValue("text"))
	mediaURL := strings.TrimSpace(r.FormValue("mediaUrl"))

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		if mediaURL != "" {
			draft.SetMediaURL(mediaURL, posts.MediaType(r.FormValue("mediaType")))
		}
		return draft, nil
	case err != nil:
		return draft, fmt.Errorf("invalid file field: %w", err)
	}
	defer func() { _ = file.Close() }()

	if mediaURL != "" {
		return draft, errors.New("choose either a file or a media URL, not both")
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return draft, fmt.Errorf("failed to read upload: %w", err)
	}
	draft.AttachFile(posts.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	return draft, nil
}
