package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"Murmur/internal/core/posts"
)

// Lister runs the feed query once
type Lister interface {
	ListRecent(ctx context.Context, query posts.ListQuery) ([]*posts.Post, error)
}

// Notifier signals that posts may have changed. Signals are coalesced, so one
// receive can stand for many writes. A closed channel means the notifier is gone.
type Notifier interface {
	Changes() <-chan struct{}
}

// ErrNotifierClosed is pushed when the change notifier shuts down under a watcher
var ErrNotifierClosed = errors.New("change notifier closed")

// LiveQuery turns a one-shot query plus change notifications into a Source:
// an initial snapshot, then a fresh full snapshot after every change signal.
// A notifier wakes a single watcher, so share one LiveQuery per process and
// fan out through a Store.
type LiveQuery struct {
	lister   Lister
	notifier Notifier
	logger   *slog.Logger
}

// NewLiveQuery creates a live query source
func NewLiveQuery(lister Lister, notifier Notifier, logger *slog.Logger) *LiveQuery {
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveQuery{
		lister:   lister,
		notifier: notifier,
		logger:   logger,
	}
}

// Watch implements Source
func (l *LiveQuery) Watch(ctx context.Context, query posts.ListQuery) (<-chan Snapshot, error) {
	query = query.Normalize()

	initial, err := l.lister.ListRecent(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed: %w", err)
	}

	out := make(chan Snapshot, 1)
	out <- Snapshot{Posts: initial}

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-l.notifier.Changes():
				if !ok {
					l.send(ctx, out, Snapshot{Err: ErrNotifierClosed})
					return
				}
			}

			result, err := l.lister.ListRecent(ctx, query)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("live query refresh failed", "error", err)
				l.send(ctx, out, Snapshot{Err: fmt.Errorf("failed to refresh feed: %w", err)})
				return
			}
			if !l.send(ctx, out, Snapshot{Posts: result}) {
				return
			}
		}
	}()

	return out, nil
}

func (l *LiveQuery) send(ctx context.Context, out chan<- Snapshot, snap Snapshot) bool {
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}
