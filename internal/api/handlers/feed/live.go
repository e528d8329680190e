package feed

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pingInterval  = 30 * time.Second
	readDeadline  = 60 * time.Second
	writeDeadline = 10 * time.Second
)

// LiveFeedHandler streams feed views over a websocket
type LiveFeedHandler struct {
	store    ViewSource
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewLiveFeedHandler creates a websocket feed handler. checkOrigin may be nil
// to accept any origin.
func NewLiveFeedHandler(store ViewSource, checkOrigin func(r *http.Request) bool, logger *slog.Logger) *LiveFeedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &LiveFeedHandler{
		store:  store,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
	}
}

// HandleLive upgrades the connection and pushes the current view, then one
// view per snapshot. The store listener is released when the client leaves.
// GET /feed/live
func (h *LiveFeedHandler) HandleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			h.logger.Debug("failed to close websocket", "error", closeErr)
		}
	}()

	views, release := h.store.Listen()
	defer release()

	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		h.logger.Debug("failed to set read deadline", "error", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	// The reader only drains control frames and notices when the client goes away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case view, ok := <-views:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"),
					time.Now().Add(writeDeadline))
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				return
			}
			if err := conn.WriteJSON(view); err != nil {
				h.logger.Debug("failed to push feed view", "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				h.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}
