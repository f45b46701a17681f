package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/skipspot/internal/app"
	"github.com/ayusman/skipspot/internal/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local connections only
	},
}

const (
	writeWait   = 5 * time.Second
	eventBuffer = 64
)

// EventsHandler streams hub events to websocket clients as JSON text frames.
type EventsHandler struct {
	hub    *app.Hub
	logger *slog.Logger
}

// NewEventsHandler creates a handler that subscribes each client to hub.
func NewEventsHandler(hub *app.Hub) *EventsHandler {
	return &EventsHandler{hub: hub, logger: log.Component("server")}
}

// ServeHTTP upgrades the connection and forwards events until either side
// goes away.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := h.hub.Subscribe(eventBuffer)
	defer unsubscribe()

	// Reads only detect the client closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Debug("events client connected", "remote", r.RemoteAddr)
	for {
		select {
		case <-closed:
			h.logger.Debug("events client disconnected", "remote", r.RemoteAddr)
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Debug("events write failed", "error", err)
				return
			}
		}
	}
}
