package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// Connect dials NATS with reconnect logging
func Connect(url string, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url,
		nats.Name("murmur"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// NATSPublisher publishes post changes as JSON messages
type NATSPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewNATSPublisher creates a publisher on an open connection
func NewNATSPublisher(conn *nats.Conn, logger *slog.Logger) *NATSPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSPublisher{conn: conn, logger: logger}
}

// PublishChange marshals the change and publishes it on murmur.posts.<kind>
func (p *NATSPublisher) PublishChange(ctx context.Context, change Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if change.At.IsZero() {
		change.At = time.Now().UTC()
	}

	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}

	if err := p.conn.Publish(change.Subject(), data); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}

	p.logger.Debug("published post change", "subject", change.Subject(), "post_id", change.PostID)
	return nil
}

// NATSNotifier turns post change messages into wake-ups for a live query.
// Bursts are coalesced: a pending wake-up absorbs later ones.
type NATSNotifier struct {
	sub     *nats.Subscription
	changes chan struct{}
	logger  *slog.Logger
	once    sync.Once
}

// NewNATSNotifier subscribes to every post change subject
func NewNATSNotifier(conn *nats.Conn, logger *slog.Logger) (*NATSNotifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	n := &NATSNotifier{
		changes: make(chan struct{}, 1),
		logger:  logger,
	}

	sub, err := conn.Subscribe(SubjectPrefix+".>", n.handle)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to post changes: %w", err)
	}
	n.sub = sub
	return n, nil
}

func (n *NATSNotifier) handle(msg *nats.Msg) {
	var change Change
	if err := json.Unmarshal(msg.Data, &change); err != nil {
		n.logger.Warn("ignoring malformed post change", "subject", msg.Subject, "error", err)
		return
	}
	select {
	case n.changes <- struct{}{}:
	default:
	}
}

// Changes delivers one signal per burst of post changes
func (n *NATSNotifier) Changes() <-chan struct{} {
	return n.changes
}

// Close unsubscribes. Safe to call more than once.
func (n *NATSNotifier) Close() error {
	var err error
	n.once.Do(func() {
		err = n.sub.Unsubscribe()
	})
	return err
}
