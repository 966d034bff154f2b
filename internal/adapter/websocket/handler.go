package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/couchcryptid/incident-feed-etl/internal/domain"
	"github.com/google/uuid"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 5 * time.Second
)

// inbound is a frame sent by a subscriber.
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SubscribePayload narrows a client to the listed agencies. An empty list
// restores all agencies.
type SubscribePayload struct {
	Agencies []string `json:"agencies"`
}

// Handler upgrades HTTP requests to WebSocket subscriptions on a Hub.
type Handler struct {
	hub        *Hub
	bufferSize int
	logger     *slog.Logger
}

func NewHandler(hub *Hub, bufferSize int, logger *slog.Logger) *Handler {
	return &Handler{hub: hub, bufferSize: bufferSize, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}

	client := NewClient(uuid.New().String(), h.bufferSize)
	h.hub.Register(client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.writeLoop(ctx, conn, client)

	h.readLoop(ctx, conn, client)
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, client *Client) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				h.logger.Debug("websocket read error", "client_id", client.ID, "error", err)
			}
			return
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("invalid message format", "client_id", client.ID, "error", err)
			continue
		}

		switch msg.Type {
		case "subscribe":
			var payload SubscribePayload
			if len(msg.Payload) > 0 {
				if err := json.Unmarshal(msg.Payload, &payload); err != nil {
					continue
				}
			}
			agencies, ok := parseAgencies(payload.Agencies)
			if !ok {
				h.reply(client, Message{Type: "error", Payload: "unknown agency"})
				continue
			}
			client.SetAgencies(agencies)
			h.reply(client, Message{Type: "subscribed", Payload: payload})

		case "ping":
			h.reply(client, Message{Type: "pong"})
		}
	}
}

func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-client.Send:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// reply queues a control frame for the client. It is dropped if the buffer is full.
func (h *Handler) reply(client *Client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if !client.TrySend(data) {
		h.logger.Debug("reply dropped", "client_id", client.ID, "type", msg.Type)
	}
}

func parseAgencies(names []string) ([]domain.Agency, bool) {
	agencies := make([]domain.Agency, 0, len(names))
	for _, n := range names {
		a, err := domain.ParseAgency(n)
		if err != nil {
			return nil, false
		}
		agencies = append(agencies, a)
	}
	return agencies, true
}
