package events

import (
	"context"
	"time"
)

// Kind identifies what happened to a post
type Kind string

const (
	KindCreated Kind = "created"
	KindDeleted Kind = "deleted"
	KindReacted Kind = "reacted"
)

// SubjectPrefix is the NATS subject namespace for post changes
const SubjectPrefix = "murmur.posts"

// Change is published after a post mutation has been committed
type Change struct {
	At     time.Time `json:"at"`
	Kind   Kind      `json:"kind"`
	PostID string    `json:"postId"`
	Actor  string    `json:"actor"`
}

// Subject returns the NATS subject the change is published on
func (c Change) Subject() string {
	return SubjectPrefix + "." + string(c.Kind)
}

// Publisher announces committed post changes to other processes
type Publisher interface {
	PublishChange(ctx context.Context, change Change) error
}

type discard struct{}

func (discard) PublishChange(context.Context, Change) error { return nil }

// Discard is used when the database itself notifies listeners (LISTEN/NOTIFY).
var Discard Publisher = discard{}
