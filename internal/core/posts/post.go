package posts

import (
	"time"
)

// MediaType describes how a post's media URL is rendered
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Valid reports whether the media type is known
func (m MediaType) Valid() bool {
	return m == MediaImage || m == MediaVideo
}

// Post is a single feed entry.
// LikeCount always equals len(Viewers); both are written together.
type Post struct {
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	Text        *string    `json:"text,omitempty" db:"text"`
	MediaURL    *string    `json:"mediaUrl,omitempty" db:"media_url"`
	MediaType   *MediaType `json:"mediaType,omitempty" db:"media_type"`
	ID          string     `json:"id" db:"id"`
	AuthorEmail string     `json:"authorEmail" db:"author_email"`
	Viewers     []string   `json:"viewers" db:"viewers"`
	LikeCount   int        `json:"likeCount" db:"like_count"`
}

// LikedBy reports whether identity is in the post's viewers set
func (p *Post) LikedBy(identity string) bool {
	for _, v := range p.Viewers {
		if v == identity {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot mutate shared feed state
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	c := *p
	if p.Text != nil {
		text := *p.Text
		c.Text = &text
	}
	if p.MediaURL != nil {
		u := *p.MediaURL
		c.MediaURL = &u
	}
	if p.MediaType != nil {
		mt := *p.MediaType
		c.MediaType = &mt
	}
	c.Viewers = append([]string(nil), p.Viewers...)
	if c.Viewers == nil {
		c.Viewers = []string{}
	}
	return &c
}

// OrderBy selects the feed ordering key. Ordering is always descending.
type OrderBy string

const (
	OrderCreatedAt OrderBy = "created_at"
	OrderLikeCount OrderBy = "like_count"
)

// Valid reports whether the ordering key is supported
func (o OrderBy) Valid() bool {
	return o == OrderCreatedAt || o == OrderLikeCount
}

// DefaultFeedLimit is the number of posts a feed subscription covers
const DefaultFeedLimit = 60

// ListQuery describes the most-recent-N window the feed watches
type ListQuery struct {
	OrderBy OrderBy
	Limit   int
}

// Normalize fills defaults for unset fields
func (q ListQuery) Normalize() ListQuery {
	if !q.OrderBy.Valid() {
		q.OrderBy = OrderCreatedAt
	}
	if q.Limit <= 0 {
		q.Limit = DefaultFeedLimit
	}
	return q
}
