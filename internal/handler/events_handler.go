package handler

import (
	"log/slog"
	"net/http"

	"go-timeclock/internal/websocket"
)

// EventsHandler upgrades manager connections to a websocket that carries the
// ledger events of the manager's team.
type EventsHandler struct {
	hub      *websocket.Hub
	upgrader *websocket.Upgrader
}

func NewEventsHandler(hub *websocket.Hub, upgrader *websocket.Upgrader) *EventsHandler {
	return &EventsHandler{hub: hub, upgrader: upgrader}
}

func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	identity, err := currentIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	// The upgrader writes its own error response on a failed handshake.
	if err := h.upgrader.Serve(h.hub, identity.AccountID, w, r); err != nil {
		slog.Warn("event stream upgrade failed", "account_id", identity.AccountID, "error", err)
	}
}
