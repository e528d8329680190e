package feed

import (
	"context"
	"errors"
	"time"

	"Murmur/internal/core/posts"
)

// Snapshot is one push from a live query: the full ordered result set, or a
// terminal error after which the source sends nothing more
type Snapshot struct {
	Err   error
	Posts []*posts.Post
}

// Source is a standing query that pushes the whole current result set
// whenever matching data changes
type Source interface {
	// Watch starts the subscription. The channel is closed when ctx is
	// cancelled or after a snapshot carrying an error.
	Watch(ctx context.Context, query posts.ListQuery) (<-chan Snapshot, error)
}

// State describes the health of a feed store
type State string

const (
	// StateConnecting means no snapshot has arrived yet
	StateConnecting State = "connecting"
	// StateLive means the store mirrors the latest pushed snapshot
	StateLive State = "live"
	// StateDegraded means the subscription failed; posts are the last good snapshot
	StateDegraded State = "degraded"
	// StateClosed means the store was unsubscribed
	StateClosed State = "closed"
)

// View is what a renderer needs: the ordered posts plus the store's health
type View struct {
	UpdatedAt time.Time     `json:"updatedAt"`
	State     State         `json:"state"`
	Error     string        `json:"error,omitempty"`
	Posts     []*posts.Post `json:"posts"`
}

// Stale reports whether the posts may no longer reflect the backend
func (v View) Stale() bool {
	return v.State == StateDegraded || v.State == StateClosed
}

var (
	// ErrSubscriptionEnded is recorded when a source closes without reporting why
	ErrSubscriptionEnded = errors.New("live subscription ended")

	// ErrAlreadyStarted is returned by Start on a store that was already started
	ErrAlreadyStarted = errors.New("feed store already started")

	// ErrClosed is returned by Start after Unsubscribe
	ErrClosed = errors.New("feed store closed")
)
