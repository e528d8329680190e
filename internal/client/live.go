package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"Murmur/internal/core/feed"
	"Murmur/internal/core/posts"
)

// readDeadline is reset by every server ping and every view
const readDeadline = 60 * time.Second

// LiveSource is a feed.Source backed by the server's /feed/live websocket.
// The server owns the query, so Watch ignores its query argument.
type LiveSource struct {
	dialer *websocket.Dialer
	logger *slog.Logger
	wsURL  string
}

// NewLiveSource creates a websocket feed source for the server at baseURL
func NewLiveSource(baseURL string, logger *slog.Logger) *LiveSource {
	if logger == nil {
		logger = slog.Default()
	}
	wsURL := strings.TrimSuffix(baseURL, "/") + "/feed/live"
	switch {
	case strings.HasPrefix(wsURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	case strings.HasPrefix(wsURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}
	return &LiveSource{
		dialer: websocket.DefaultDialer,
		logger: logger,
		wsURL:  wsURL,
	}
}

// Watch implements feed.Source. Each pushed view becomes a snapshot; a
// degraded server view or a dropped connection ends the subscription with
// an error snapshot.
func (s *LiveSource) Watch(ctx context.Context, _ posts.ListQuery) (<-chan feed.Snapshot, error) {
	conn, resp, err := s.dialer.DialContext(ctx, s.wsURL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, fmt.Errorf("failed to connect to live feed: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("failed to connect to live feed: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		s.logger.Debug("failed to set read deadline", "error", err)
	}
	conn.SetPingHandler(func(data string) error {
		if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
			return err
		}
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(10*time.Second))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	out := make(chan feed.Snapshot, 1)

	// Unblock ReadMessage when the watcher is cancelled
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	go func() {
		defer close(out)
		defer stop()
		defer func() { _ = conn.Close() }()

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.send(ctx, out, feed.Snapshot{Err: fmt.Errorf("live feed disconnected: %w", err)})
				return
			}
			if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
				s.logger.Debug("failed to set read deadline", "error", err)
			}

			var view feed.View
			if err := json.Unmarshal(message, &view); err != nil {
				s.logger.Warn("ignoring malformed feed view", "error", err)
				continue
			}

			switch view.State {
			case feed.StateDegraded, feed.StateClosed:
				reason := view.Error
				if reason == "" {
					reason = "server feed " + string(view.State)
				}
				s.send(ctx, out, feed.Snapshot{Err: errors.New(reason)})
				return
			case feed.StateConnecting:
				// Nothing loaded on the server yet
				continue
			}

			if !s.send(ctx, out, feed.Snapshot{Posts: view.Posts}) {
				return
			}
		}
	}()

	return out, nil
}

func (s *LiveSource) send(ctx context.Context, out chan<- feed.Snapshot, snap feed.Snapshot) bool {
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}
