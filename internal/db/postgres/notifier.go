package postgres

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lib/pq"
)

// PostsChangedChannel is the LISTEN channel fed by the posts trigger
const PostsChangedChannel = "posts_changed"

// Notifier turns LISTEN/NOTIFY on posts_changed into coalesced wake-ups
type Notifier struct {
	listener *pq.Listener
	changes  chan struct{}
	done     chan struct{}
	logger   *slog.Logger
	once     sync.Once
}

// NewNotifier opens a dedicated listener connection
func NewNotifier(dsn string, logger *slog.Logger) (*Notifier, error) {
	if logger == nil {
		logger = slog.Default()
	}

	n := &Notifier{
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
		logger:  logger,
	}

	n.listener = pq.NewListener(dsn, 2*time.Second, time.Minute, n.onEvent)
	if err := n.listener.Listen(PostsChangedChannel); err != nil {
		_ = n.listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", PostsChangedChannel, err)
	}

	go n.run()
	return n, nil
}

func (n *Notifier) onEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventDisconnected:
		n.logger.Warn("posts listener disconnected", "error", err)
	case pq.ListenerEventReconnected:
		n.logger.Info("posts listener reconnected")
	case pq.ListenerEventConnectionAttemptFailed:
		n.logger.Warn("posts listener reconnect failed", "error", err)
	}
}

func (n *Notifier) run() {
	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-n.done:
			close(n.changes)
			return
		case note, ok := <-n.listener.Notify:
			if !ok {
				close(n.changes)
				return
			}
			// nil means the connection was re-established and notifications
			// may have been lost; refresh anyway
			if note != nil {
				n.logger.Debug("posts changed", "payload", note.Extra)
			}
			n.signal()
		case <-ping.C:
			if err := n.listener.Ping(); err != nil {
				n.logger.Warn("posts listener ping failed", "error", err)
			}
		}
	}
}

func (n *Notifier) signal() {
	select {
	case n.changes <- struct{}{}:
	default:
	}
}

// Changes implements feed.Notifier
func (n *Notifier) Changes() <-chan struct{} {
	return n.changes
}

// Close stops listening. Safe to call more than once.
func (n *Notifier) Close() error {
	var err error
	n.once.Do(func() {
		close(n.done)
		err = n.listener.Close()
	})
	return err
}
