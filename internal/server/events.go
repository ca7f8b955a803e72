package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/signlink/internal/app"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local UI only
	},
}

const writeWait = 5 * time.Second

// SnapshotSource publishes session snapshots.
type SnapshotSource interface {
	Snapshot() app.Snapshot
	Subscribe() (<-chan app.Snapshot, func())
}

// EventsHandler pushes a session snapshot to the websocket after every
// state change, starting with the current state.
type EventsHandler struct {
	source SnapshotSource
	log    *slog.Logger
}

func NewEventsHandler(source SnapshotSource, log *slog.Logger) *EventsHandler {
	return &EventsHandler{source: source, log: log}
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, unsubscribe := h.source.Subscribe()
	defer unsubscribe()

	// The reader only notices the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if !h.send(conn, h.source.Snapshot()) {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case snap := <-updates:
			if !h.send(conn, snap) {
				return
			}
		}
	}
}

func (h *EventsHandler) send(conn *websocket.Conn, snap app.Snapshot) bool {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(snap); err != nil {
		h.log.Debug("websocket write failed", "error", err)
		return false
	}
	return true
}
