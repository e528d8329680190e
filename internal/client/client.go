// Package client talks to a Murmur server over its HTTP and websocket API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"Murmur/internal/core/accounts"
	"Murmur/internal/core/feed"
	"Murmur/internal/core/likes"
	"Murmur/internal/core/posts"
	"Murmur/internal/core/session"
)

// APIError is a non-2xx response decoded from the server's error body
type APIError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (%d)", e.Code, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Client is an HTTP client for one Murmur server. It remembers the access
// token from the last sign-in and reports identity changes to a Tracker.
type Client struct {
	httpClient *http.Client
	tracker    *session.Tracker
	baseURL    string
	token      string
	mu         sync.RWMutex
}

// New creates a client for baseURL. tracker may be nil.
func New(baseURL string, tracker *session.Tracker) *Client {
	if tracker == nil {
		tracker = session.NewTracker()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		tracker:    tracker,
	}
}

// Tracker returns the identity tracker fed by sign-in and sign-out
func (c *Client) Tracker() *session.Tracker {
	return c.tracker
}

// SignUp creates an account and signs in as it
func (c *Client) SignUp(ctx context.Context, email, password string) (*accounts.AuthResult, error) {
	return c.authenticate(ctx, "/auth/signup", email, password)
}

// SignIn signs in with existing credentials
func (c *Client) SignIn(ctx context.Context, email, password string) (*accounts.AuthResult, error) {
	return c.authenticate(ctx, "/auth/signin", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*accounts.AuthResult, error) {
	var result accounts.AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, path, body, &result); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.token = result.AccessToken
	c.mu.Unlock()
	c.tracker.Set(result.Identity)
	return &result, nil
}

// SignOut ends the session. The caller must have confirmed with the user.
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/auth/signout", map[string]bool{"confirm": true}, nil); err != nil {
		return err
	}
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	c.tracker.Clear()
	return nil
}

// CreatePost implements posts.Service. A local file is sent as multipart
// form data, everything else as JSON.
func (c *Client) CreatePost(ctx context.Context, identity session.Identity, draft posts.Draft) (*posts.Post, error) {
	if err := session.Require(identity); err != nil {
		return nil, err
	}

	var post posts.Post
	if draft.File == nil {
		body := map[string]string{"text": draft.Text}
		if draft.MediaURL != "" {
			body["mediaUrl"] = draft.MediaURL
			body["mediaType"] = string(draft.MediaType)
		}
		if err := c.doJSON(ctx, http.MethodPost, "/posts", body, &post); err != nil {
			return nil, err
		}
		return &post, nil
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("text", draft.Text); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, draft.File.Filename))
	contentType := draft.File.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(draft.File.Data)
	}
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(draft.File.Data); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/posts", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := c.do(req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost implements posts.Service
func (c *Client) DeletePost(ctx context.Context, identity session.Identity, postID string) error {
	if err := session.Require(identity); err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodDelete, "/posts/"+postID, nil, nil)
}

// GetPost implements posts.Service
func (c *Client) GetPost(ctx context.Context, postID string) (*posts.Post, error) {
	var post posts.Post
	if err := c.doJSON(ctx, http.MethodGet, "/posts/"+postID, nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// ListRecent implements posts.Service with the server's feed window.
// Only query.Limit is honoured; the server picks the ordering.
func (c *Client) ListRecent(ctx context.Context, query posts.ListQuery) ([]*posts.Post, error) {
	view, err := c.Feed(ctx)
	if err != nil {
		return nil, err
	}
	query = query.Normalize()
	if len(view.Posts) > query.Limit {
		return view.Posts[:query.Limit], nil
	}
	return view.Posts, nil
}

// React implements likes.Service
func (c *Client) React(ctx context.Context, identity session.Identity, postID string, action likes.Action) (*posts.Post, error) {
	if err := session.Require(identity); err != nil {
		return nil, err
	}

	var method string
	switch action {
	case likes.ActionToggle:
		method = http.MethodPost
	case likes.ActionLike:
		method = http.MethodPut
	case likes.ActionUnlike:
		method = http.MethodDelete
	default:
		return nil, likes.ErrInvalidAction
	}

	var post posts.Post
	if err := c.doJSON(ctx, method, "/posts/"+postID+"/like", nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Feed fetches the server's current feed view once
func (c *Client) Feed(ctx context.Context) (feed.View, error) {
	var view feed.View
	err := c.doJSON(ctx, http.MethodGet, "/feed", nil, &view)
	return view, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if jsonErr := json.Unmarshal(raw, apiErr); jsonErr != nil || apiErr.Code == "" {
			apiErr.Code = http.StatusText(resp.StatusCode)
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		// A server-side session loss means the local identity is stale too
		if apiErr.Code == "SignInRequired" {
			c.tracker.Clear()
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// IsCode reports whether err is an APIError with the given error code
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
