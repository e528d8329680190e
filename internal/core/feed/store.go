package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"Murmur/internal/core/posts"
)

// Store holds the posts currently known to a client. Every snapshot from the
// source replaces the whole list; the store never merges or reorders.
//
// When the subscription fails the store keeps the last good list, switches
// to StateDegraded and stops. It does not resubscribe.
type Store struct {
	source    Source
	logger    *slog.Logger
	updatedAt time.Time
	lastErr   error
	cancel    context.CancelFunc
	done      chan struct{}
	listeners map[int]chan View
	state     State
	posts     []*posts.Post
	query     posts.ListQuery
	nextID    int
	closeOnce sync.Once
	mu        sync.RWMutex
	started   bool
}

// NewStore creates an unstarted store for query
func NewStore(source Source, query posts.ListQuery, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		source:    source,
		query:     query.Normalize(),
		logger:    logger,
		state:     StateConnecting,
		posts:     []*posts.Post{},
		listeners: make(map[int]chan View),
		done:      make(chan struct{}),
	}
}

// Start subscribes to the source. The subscription lives until ctx is
// cancelled or Unsubscribe is called.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	watchCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	snapshots, err := s.source.Watch(watchCtx, s.query)
	if err != nil {
		cancel()
		close(s.done)
		s.degrade(err)
		return err
	}

	go s.run(watchCtx, snapshots)
	return nil
}

func (s *Store) run(ctx context.Context, snapshots <-chan Snapshot) {
	defer close(s.done)
	for snap := range snapshots {
		if snap.Err != nil {
			s.degrade(snap.Err)
			s.cancel()
			return
		}
		s.replace(snap.Posts)
	}
	// Closed by the source. Only a failure if nobody asked us to stop.
	if ctx.Err() == nil {
		s.degrade(ErrSubscriptionEnded)
	}
}

func (s *Store) replace(next []*posts.Post) {
	copied := make([]*posts.Post, 0, len(next))
	for _, p := range next {
		copied = append(copied, p.Clone())
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.posts = copied
	s.state = StateLive
	s.lastErr = nil
	s.updatedAt = time.Now().UTC()
	view := s.viewLocked()
	s.broadcastLocked(view)
	s.mu.Unlock()

	s.logger.Debug("feed snapshot applied", "posts", len(copied))
}

func (s *Store) degrade(err error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateDegraded
	s.lastErr = err
	s.updatedAt = time.Now().UTC()
	view := s.viewLocked()
	s.broadcastLocked(view)
	s.mu.Unlock()

	s.logger.Warn("feed subscription failed, showing last snapshot", "error", err, "posts", len(view.Posts))
}

// Posts returns a copy of the current list in backend order
func (s *Store) Posts() []*posts.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePosts(s.posts)
}

// View returns the current posts with the store's state
func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewLocked()
}

// Err returns the error that degraded the store, if any
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Listen registers for views. The current view is delivered immediately.
// A slow reader only ever sees the newest view. The channel is closed by
// cancel or Unsubscribe; cancel may be called more than once.
func (s *Store) Listen() (<-chan View, func()) {
	ch := make(chan View, 1)

	s.mu.Lock()
	if s.state == StateClosed {
		ch <- s.viewLocked()
		close(ch)
		s.mu.Unlock()
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = ch
	ch <- s.viewLocked()
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if l, ok := s.listeners[id]; ok {
				delete(s.listeners, id)
				close(l)
			}
		})
	}
}

// Unsubscribe releases the backend subscription and closes every listener.
// No update is applied afterwards. Safe to call more than once.
func (s *Store) Unsubscribe() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		started := s.started
		cancel := s.cancel
		s.state = StateClosed
		s.updatedAt = time.Now().UTC()
		for id, l := range s.listeners {
			delete(s.listeners, id)
			close(l)
		}
		s.mu.Unlock()

		if started {
			cancel()
			<-s.done
		}
		s.logger.Debug("feed store unsubscribed")
	})
}

func (s *Store) viewLocked() View {
	v := View{
		UpdatedAt: s.updatedAt,
		State:     s.state,
		Posts:     clonePosts(s.posts),
	}
	if s.lastErr != nil {
		v.Error = s.lastErr.Error()
	}
	return v
}

// broadcastLocked replaces whatever a listener has not read yet with view
func (s *Store) broadcastLocked(view View) {
	for _, l := range s.listeners {
		select {
		case <-l:
		default:
		}
		l <- view
	}
}

func clonePosts(in []*posts.Post) []*posts.Post {
	out := make([]*posts.Post, 0, len(in))
	for _, p := range in {
		out = append(out, p.Clone())
	}
	return out
}
