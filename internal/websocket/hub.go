package websocket

import (
	"context"
	"encoding/json"
	"log/slog"

	"go-timeclock/internal/event"
)

// Hub fans ledger events out to connected managers. A client only receives
// events for records assigned to it.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client

	bus  event.Bus
	done chan struct{}
}

func NewHub(bus event.Bus) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		bus:        bus,
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	events, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()

	defer func() {
		close(h.done)
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.clients[client] = true
			slog.Debug("event stream client connected", "client_id", client.id, "manager_id", client.managerID)
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case e, ok := <-events:
			if !ok {
				return
			}
			message, err := json.Marshal(e)
			if err != nil {
				slog.Error("failed to marshal event", "error", err)
				continue
			}
			for client := range h.clients {
				if client.managerID != e.ManagerID {
					continue
				}
				select {
				case client.send <- message:
				default:
					slog.Warn("event stream client too slow, dropping", "client_id", client.id)
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}
