package ws

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/pliu/attention-tracker/internal/models"
)

// Hub fans item events out to every connected websocket client.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Events waiting to be sent to clients.
	broadcast chan models.Event

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Closed when Run returns.
	done chan struct{}

	count  atomic.Int64
	logger *log.Logger
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan models.Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

// Run serves the hub until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.count.Add(1)
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}
		case event := <-h.broadcast:
			msgBytes, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("encoding event", "type", event.Type, "err", err)
				continue
			}
			for client := range h.clients {
				select {
				case client.send <- msgBytes:
				default:
					h.logger.Warn("dropping slow websocket client")
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.count.Add(-1)
}

// Publish queues an event for delivery. Once the hub has stopped events are discarded.
func (h *Hub) Publish(event models.Event) {
	select {
	case <-h.done:
	case h.broadcast <- event:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}
