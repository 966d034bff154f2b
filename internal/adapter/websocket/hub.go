// Package websocket broadcasts accepted incidents to live WebSocket subscribers.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/couchcryptid/incident-feed-etl/internal/domain"
	"github.com/couchcryptid/incident-feed-etl/internal/observability"
)

// ErrBroadcastFull is returned by LoadBatch when the hub is not keeping up.
var ErrBroadcastFull = errors.New("websocket broadcast queue full")

// Client is one connected subscriber. An empty agency set means all agencies.
type Client struct {
	ID   string
	Send chan []byte

	mu       sync.RWMutex
	agencies map[domain.Agency]struct{}

	sendMu sync.Mutex
	closed bool
}

func NewClient(id string, bufferSize int) *Client {
	return &Client{
		ID:       id,
		Send:     make(chan []byte, bufferSize),
		agencies: make(map[domain.Agency]struct{}),
	}
}

// Wants reports whether the client subscribed to incidents from agency.
func (c *Client) Wants(agency domain.Agency) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.agencies) == 0 {
		return true
	}
	_, ok := c.agencies[agency]
	return ok
}

// SetAgencies replaces the client's agency filter.
func (c *Client) SetAgencies(agencies []domain.Agency) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.agencies = make(map[domain.Agency]struct{}, len(agencies))
	for _, a := range agencies {
		c.agencies[a] = struct{}{}
	}
}

// TrySend queues data without blocking. It reports false when the buffer
// is full or the client has been closed.
func (c *Client) TrySend(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Message is the envelope for every frame sent to subscribers.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// IncidentsPayload carries one cycle's accepted incidents.
type IncidentsPayload struct {
	Incidents []domain.IncidentEvent `json:"incidents"`
}

// Hub tracks subscribers and fans out incident batches.
// It implements pipeline.BatchLoader.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan []domain.IncidentEvent
	done       chan struct{}

	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewHub(logger *slog.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan []domain.IncidentEvent, 64),
		done:       make(chan struct{}),
		logger:     logger,
		metrics:    metrics,
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.metrics.WebSocketClients.Set(float64(total))
			h.logger.Debug("client registered", "client_id", client.ID, "total", total)

		case client := <-h.unregister:
			h.removeClient(client)

		case events := <-h.broadcast:
			h.fanout(events)
		}
	}
}

// Name identifies the sink in logs and metrics.
func (h *Hub) Name() string {
	return "websocket"
}

// LoadBatch queues events for broadcast without waiting for delivery.
func (h *Hub) LoadBatch(ctx context.Context, events []domain.IncidentEvent) error {
	if len(events) == 0 {
		return nil
	}
	select {
	case h.broadcast <- events:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBroadcastFull
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) fanout(events []domain.IncidentEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		var selected []domain.IncidentEvent
		for _, ev := range events {
			if client.Wants(ev.Agency) {
				selected = append(selected, ev)
			}
		}
		if len(selected) == 0 {
			continue
		}
		data, err := json.Marshal(Message{Type: "incidents", Payload: IncidentsPayload{Incidents: selected}})
		if err != nil {
			h.logger.Error("encode incidents", "error", err)
			return
		}

		if !client.TrySend(data) {
			h.logger.Debug("client send buffer full", "client_id", client.ID)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	client.close()
	total := len(h.clients)
	h.mu.Unlock()

	h.metrics.WebSocketClients.Set(float64(total))
	h.logger.Debug("client unregistered", "client_id", client.ID, "total", total)
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.close()
	}
	h.clients = make(map[*Client]struct{})
	h.metrics.WebSocketClients.Set(0)
}
