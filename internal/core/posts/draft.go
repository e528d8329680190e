package posts

import (
	"context"
	"strings"
	"sync"

	"Murmur/internal/core/session"
)

// Upload is a locally selected media file
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Draft holds the composer fields. A local file and a pasted URL are
// mutually exclusive: setting one clears the other.
type Draft struct {
	File      *Upload
	Text      string
	MediaURL  string
	MediaType MediaType
}

// SetText replaces the draft text
func (d *Draft) SetText(text string) {
	d.Text = text
}

// AttachFile selects a local file and clears any pasted URL
func (d *Draft) AttachFile(file Upload) {
	d.File = &file
	d.MediaURL = ""
	d.MediaType = ""
}

// SetMediaURL selects an externally hosted media URL and clears any local file
func (d *Draft) SetMediaURL(url string, mediaType MediaType) {
	d.File = nil
	d.MediaURL = strings.TrimSpace(url)
	d.MediaType = mediaType
}

// Reset empties every field
func (d *Draft) Reset() {
	*d = Draft{}
}

// IsEmpty reports whether there is nothing to submit
func (d *Draft) IsEmpty() bool {
	return strings.TrimSpace(d.Text) == "" && d.File == nil && strings.TrimSpace(d.MediaURL) == ""
}

// Composer keeps a draft between edits and submits it through the service.
// Fields are cleared only after a successful submit.
type Composer struct {
	service Service
	draft   Draft
	mu      sync.Mutex
}

// NewComposer creates a composer backed by service
func NewComposer(service Service) *Composer {
	return &Composer{service: service}
}

// Edit applies fn to the current draft
func (c *Composer) Edit(fn func(d *Draft)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.draft)
}

// Draft returns a copy of the current draft
func (c *Composer) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Submit creates a post from the draft on behalf of identity
func (c *Composer) Submit(ctx context.Context, identity session.Identity) (*Post, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	post, err := c.service.CreatePost(ctx, identity, c.draft)
	if err != nil {
		return nil, err
	}
	c.draft.Reset()
	return post, nil
}
